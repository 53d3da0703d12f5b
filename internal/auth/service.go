package auth

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

// Service wraps administrator authentication rules.
type Service struct {
	repo      Repository
	resets    *resettoken.Issuer
	sender    notify.Sender
	baseURL   string
	logger    *slog.Logger
	validator *validator.Validate
	cost      int
}

// NewService constructs a new Service. cost is the bcrypt cost; zero selects
// bcrypt.DefaultCost.
func NewService(repo Repository, resets *resettoken.Issuer, sender notify.Sender, baseURL string, logger *slog.Logger, cost int) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return &Service{
		repo:      repo,
		resets:    resets,
		sender:    sender,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
		validator: shared.NewValidator(),
		cost:      cost,
	}
}

// Authenticate validates email/password credentials.
func (s *Service) Authenticate(ctx context.Context, email, password string) (AdminUser, error) {
	if err := shared.Validate(s.validator, loginForm{Email: strings.TrimSpace(email), Password: password}); err != nil {
		return AdminUser{}, err
	}
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		return AdminUser{}, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return AdminUser{}, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Register creates an administrator. Only the very first account may be
// created by an anonymous visitor; later ones need an administrator session.
func (s *Service) Register(ctx context.Context, form RegisterForm, byAdmin bool) (AdminUser, error) {
	form.Email = strings.ToLower(strings.TrimSpace(form.Email))
	if err := shared.Validate(s.validator, form); err != nil {
		return AdminUser{}, err
	}
	if !byAdmin {
		n, err := s.repo.Count(ctx)
		if err != nil {
			return AdminUser{}, err
		}
		if n > 0 {
			return AdminUser{}, ErrRegistrationClosed
		}
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), s.cost)
	if err != nil {
		return AdminUser{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := s.repo.Create(ctx, form.Email, string(hash))
	if errors.Is(err, shared.ErrAlreadyExists) {
		return AdminUser{}, ErrEmailTaken
	}
	return user, err
}

// RequestPasswordReset mails a reset link to an administrator. Unknown emails
// return nil.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.repo.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	token, err := s.resets.Issue(user.ID)
	if err != nil {
		return err
	}
	if err := s.sender.Send(ctx, notify.PasswordReset(user.Email, s.baseURL+"/admin/reset-password/"+token)); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}
	return nil
}

// CheckResetToken resolves the administrator a token was issued for.
func (s *Service) CheckResetToken(ctx context.Context, token string) (AdminUser, error) {
	return resettoken.Resolve(ctx, s.resets, token, s.repo.Get)
}

// ResetPassword stores a new password for the token's administrator.
func (s *Service) ResetPassword(ctx context.Context, token string, form PasswordForm) error {
	user, err := s.CheckResetToken(ctx, token)
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
	return s.repo.UpdatePassword(ctx, user.ID, string(hash))
}
