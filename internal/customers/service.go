package customers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/artemoderno/storefront/internal/notify"
	"github.com/artemoderno/storefront/internal/resettoken"
	"github.com/artemoderno/storefront/internal/shared"
)

// Service wraps customer account rules.
type Service struct {
	repo      Repository
	resets    *resettoken.Issuer
	sender    notify.Sender
	baseURL   string
	logger    *slog.Logger
	validator *validator.Validate
	cost      int
}

// Option customises a Service.
type Option func(*Service)

// WithHashCost overrides the bcrypt cost.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// NewService constructs a Service. baseURL prefixes password reset links.
func NewService(repo Repository, resets *resettoken.Issuer, sender notify.Sender, baseURL string, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		repo:      repo,
		resets:    resets,
		sender:    sender,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		validator: shared.NewValidator(),
		cost:      bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register creates an account.
func (s *Service) Register(ctx context.Context, form RegisterForm) (Customer, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.Email = NormalizeEmail(form.Email)
	if err := shared.Validate(s.validator, form); err != nil {
		return Customer{}, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cost)
	if err != nil {
		return Customer{}, fmt.Errorf("hash password: %w", err)
	}
	c, err := s.repo.Create(ctx, Customer{Name: form.Name, Email: form.Email, PasswordHash: string(hash)})
	if errors.Is(err, shared.ErrAlreadyExists) {
		return Customer{}, ErrEmailTaken
	}
	return c, err
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (Customer, error) {
	c, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return Customer{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(c.PasswordHash), []byte(password)); err != nil {
		return Customer{}, shared.ErrInvalidCredentials
	}
	return c, nil
}

// Get returns a customer.
func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	return s.repo.Get(ctx, id)
}

// UpdateProfile validates and stores the profile fields.
func (s *Service) UpdateProfile(ctx context.Context, id int64, form ProfileForm) error {
	form.Name = strings.TrimSpace(form.Name)
	form.Surname = strings.TrimSpace(form.Surname)
	form.Address = strings.TrimSpace(form.Address)
	form.Phone = strings.TrimSpace(form.Phone)
	if err := shared.Validate(s.validator, form); err != nil {
		return err
	}
	return s.repo.UpdateProfile(ctx, id, form)
}

// RequestPasswordReset mails a reset link when email belongs to a customer.
// Unknown emails return nil so callers cannot probe for accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	c, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token, err := s.resets.Issue(c.ID)
	if err != nil {
		return err
	}
	link := s.baseURL + "/reset_password/" + token
	if err := s.sender.Send(ctx, notify.PasswordReset(c.Email, link)); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	s.logger.Info("password reset mail sent", slog.Int64("customer_id", c.ID))
	return nil
}

// CheckResetToken resolves the customer a reset token was issued for.
func (s *Service) CheckResetToken(ctx context.Context, token string) (Customer, error) {
	return resettoken.Resolve(ctx, s.resets, token, s.repo.Get)
}

// ResetPassword stores a new password for the token's customer.
func (s *Service) ResetPassword(ctx context.Context, token string, form PasswordForm) error {
	c, err := s.CheckResetToken(ctx, token)
	if err != nil {
		return err
	}
	if err := shared.Validate(s.validator, form); err != nil {
		return err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	return s.repo.UpdatePassword(ctx, c.ID, string(hash))
}
