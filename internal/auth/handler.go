package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artemoderno/storefront/internal/resettoken"
	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

// Handler wires HTTP endpoints for administrator authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	templates      *view.Engine
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		templates:      templates,
		sessionManager: sessions,
		csrfManager:    csrf,
	}
}

// MountRoutes registers the public admin auth routes on provided router,
// which is expected to be the /admin subrouter.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Get("/forgot-password", h.showForgot)
	r.Post("/forgot-password", h.handleForgot)
	r.Get("/reset-password/{token}", h.showReset)
	r.Post("/reset-password/{token}", h.handleReset)
}

// RequireAdmin redirects sessions without the admin flag to the admin login.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := shared.SessionFromContext(r.Context()).Admin(); !ok {
			shared.RedirectWithFlash(w, r, "/admin/login", shared.FlashError, "Přístup pouze pro přihlášené administrátory.")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// EmailPage is the data of the single-email admin forms.
type EmailPage struct {
	Email  string
	Errors map[string]string
}

// ResetPage is the data of the new password form.
type ResetPage struct {
	Action string
	Errors map[string]string
}

func (h *Handler) render(w http.ResponseWriter, r *http.Request, name, title string, data any, status int) {
	h.templates.Page(w, r, h.csrfManager, h.logger, name, view.TemplateData{Title: title, Data: data}, status)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin_login.html", "Administrace", EmailPage{}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	email := r.PostFormValue("email")
	user, err := h.service.Authenticate(r.Context(), email, r.PostFormValue("password"))
	if err == nil {
		h.sessionManager.Renew(sess)
		sess.SetAdmin(user.ID)
		h.logger.Info("admin login", slog.Int64("admin_id", user.ID))
		shared.RedirectWithFlash(w, r, "/admin/dashboard", shared.FlashSuccess, "Přihlášení úspěšné.")
		return
	}

	var verr *shared.ValidationError
	errs := map[string]string{}
	switch {
	case errors.As(err, &verr):
		errs = verr.Fields
	case errors.Is(err, shared.ErrInvalidCredentials):
		shared.Flash(r.Context(), shared.FlashError, "Neplatné přihlašovací údaje.")
	default:
		h.logger.Error("admin login", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_login.html", "Administrace", EmailPage{Email: email, Errors: errs}, http.StatusBadRequest)
}

// handleLogout drops the admin flag only; the storefront cart survives.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	shared.SessionFromContext(r.Context()).ClearAdmin()
	shared.RedirectWithFlash(w, r, "/admin/login", shared.FlashSuccess, "Odhlášení proběhlo úspěšně.")
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin_register.html", "Registrace administrátora", EmailPage{}, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	_, byAdmin := shared.SessionFromContext(r.Context()).Admin()
	form := RegisterForm{
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	_, err := h.service.Register(r.Context(), form, byAdmin)
	var verr *shared.ValidationError
	var errs map[string]string
	switch {
	case err == nil:
		shared.RedirectWithFlash(w, r, "/admin/login", shared.FlashSuccess, "Registrace úspěšná!")
		return
	case errors.As(err, &verr):
		errs = verr.Fields
	case errors.Is(err, ErrEmailTaken):
		errs = map[string]string{"email": "Uživatel s tímto e-mailem už existuje!"}
	case errors.Is(err, ErrRegistrationClosed):
		shared.RedirectWithFlash(w, r, "/admin/login", shared.FlashError, "Přístup pouze pro přihlášené administrátory.")
		return
	default:
		h.logger.Error("admin register", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.render(w, r, "pages/admin_register.html", "Registrace administrátora", EmailPage{Email: form.Email, Errors: errs}, http.StatusBadRequest)
}

func (h *Handler) showForgot(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, "pages/admin_forgot_password.html", "Obnova hesla", EmailPage{}, http.StatusOK)
}

func (h *Handler) handleForgot(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RequestPasswordReset(r.Context(), r.PostFormValue("email")); err != nil {
		h.logger.Error("admin password reset request", slog.Any("error", err))
	}
	shared.RedirectWithFlash(w, r, "/admin/login", shared.FlashInfo, "Pokud účet existuje, poslali jsme na e-mail odkaz pro obnovení hesla.")
}

func (h *Handler) showReset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := h.service.CheckResetToken(r.Context(), token); err != nil {
		h.invalidToken(w, r, err)
		return
	}
	h.render(w, r, "pages/reset_password.html", "Nové heslo", ResetPage{Action: "/admin/reset-password/" + token}, http.StatusOK)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	err := h.service.ResetPassword(r.Context(), token, PasswordForm{
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	})
	var verr *shared.ValidationError
	switch {
	case err == nil:
		shared.RedirectWithFlash(w, r, "/admin/login", shared.FlashSuccess, "Heslo bylo úspěšně změněno.")
	case errors.As(err, &verr):
		h.render(w, r, "pages/reset_password.html", "Nové heslo", ResetPage{Action: "/admin/reset-password/" + token, Errors: verr.Fields}, http.StatusBadRequest)
	default:
		h.invalidToken(w, r, err)
	}
}

func (h *Handler) invalidToken(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, resettoken.ErrInvalidToken) {
		h.logger.Error("admin password reset", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	shared.RedirectWithFlash(w, r, "/admin/login", shared.FlashError, "Neplatný nebo expirovaný odkaz.")
}
