// Package auth implements back-office administrator accounts and the session
// guard of the /admin area.
package auth

import (
	"errors"
	"time"
)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("auth: email already registered")

// ErrRegistrationClosed is returned when an anonymous visitor tries to create
// an administrator after the first one exists.
var ErrRegistrationClosed = errors.New("auth: registration requires an administrator")

// AdminUser is a back-office account, separate from storefront customers.
type AdminUser struct {
	ID           int64
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type loginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// RegisterForm creates an administrator.
type RegisterForm struct {
	Email           string `form:"email" validate:"required,email,max=120"`
	Password        string `form:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// PasswordForm sets a new password.
type PasswordForm struct {
	Password        string `form:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}
