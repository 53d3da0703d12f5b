// Package leads stores messages sent through the public contact form.
package leads

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/artemoderno/storefront/internal/platform/db"
	"github.com/artemoderno/storefront/internal/shared"
)

// Lead is one contact form submission.
type Lead struct {
	ID        int64
	Name      string
	Email     string
	Message   string
	CreatedAt time.Time
}

// Form is the contact form.
type Form struct {
	Name    string `form:"name" validate:"required,max=100"`
	Email   string `form:"email" validate:"required,email,max=120"`
	Message string `form:"message" validate:"required,max=2000"`
}

// Repository persists leads.
type Repository interface {
	Create(ctx context.Context, lead Lead) (Lead, error)
	List(ctx context.Context) ([]Lead, error)
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	db db.DBTX
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(conn db.DBTX) *PGRepository {
	return &PGRepository{db: conn}
}

// Create inserts a lead.
func (r *PGRepository) Create(ctx context.Context, lead Lead) (Lead, error) {
	err := r.db.QueryRow(ctx, `INSERT INTO leads (name, email, message, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		lead.Name, lead.Email, lead.Message, lead.CreatedAt).Scan(&lead.ID)
	return lead, err
}

// List returns leads, newest first.
func (r *PGRepository) List(ctx context.Context) ([]Lead, error) {
	rows, err := r.db.Query(ctx, `SELECT id, name, email, message, created_at FROM leads ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Lead
	for rows.Next() {
		var l Lead
		if err := rows.Scan(&l.ID, &l.Name, &l.Email, &l.Message, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// Service validates and stores leads.
type Service struct {
	repo      Repository
	validator *validator.Validate
	now       func() time.Time
}

// NewService constructs a Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo, validator: shared.NewValidator(), now: time.Now}
}

// Submit stores a contact form submission.
func (s *Service) Submit(ctx context.Context, form Form) (Lead, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = strings.TrimSpace(form.Email)
	form.Message = strings.TrimSpace(form.Message)
	if err := shared.Validate(s.validator, form); err != nil {
		return Lead{}, err
	}
	return s.repo.Create(ctx, Lead{Name: form.Name, Email: form.Email, Message: form.Message, CreatedAt: s.now().UTC()})
}

// List returns every lead.
func (s *Service) List(ctx context.Context) ([]Lead, error) {
	return s.repo.List(ctx)
}
