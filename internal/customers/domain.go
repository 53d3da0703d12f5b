package customers

import (
	"errors"
	"strings"
	"time"
)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("customers: email already registered")

// Customer is a storefront account. Customers are never deleted.
type Customer struct {
	ID           int64
	Name         string
	Surname      string
	Email        string
	PasswordHash string
	Address      string
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RegisterForm is the public registration form.
type RegisterForm struct {
	Name            string `form:"name" validate:"required,max=100"`
	Email           string `form:"email" validate:"required,email,max=120"`
	Password        string `form:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// LoginForm is the customer login form.
type LoginForm struct {
	Email    string `form:"email" validate:"required,email"`
	Password string `form:"password" validate:"required"`
}

// ProfileForm holds the editable profile fields.
type ProfileForm struct {
	Name    string `form:"name" validate:"required,max=100"`
	Surname string `form:"surname" validate:"max=100"`
	Address string `form:"address" validate:"max=500"`
	Phone   string `form:"phone" validate:"max=20"`
}

// PasswordForm sets a new password.
type PasswordForm struct {
	Password        string `form:"password" validate:"required,min=6,max=72"`
	ConfirmPassword string `form:"confirm_password" validate:"required,eqfield=Password"`
}

// NormalizeEmail lowercases and trims an email; emails compare case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ProfileFormFrom prefills the profile form.
func ProfileFormFrom(c Customer) ProfileForm {
	return ProfileForm{Name: c.Name, Surname: c.Surname, Address: c.Address, Phone: c.Phone}
}
