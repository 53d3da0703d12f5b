package customers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artemoderno/storefront/internal/resettoken"
	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

// Handler wires HTTP endpoints for customer accounts.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	sessions  *shared.SessionManager
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, sessions: sessions, csrf: csrf}
}

// MountRoutes registers customer routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/register", h.showRegister)
	r.Post("/register", h.handleRegister)
	r.Get("/login", h.showLogin)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)
	r.Get("/account/profile", h.showProfile)
	r.Post("/account/profile", h.handleProfile)
	r.Post("/reset_password-request", h.handleResetRequest)
	r.Get("/reset_password/{token}", h.showReset)
	r.Post("/reset_password/{token}", h.handleReset)
}

// LoginPage is the data of the login form.
type LoginPage struct {
	Email  string
	Errors map[string]string
}

// RegisterPage is the data of the registration form.
type RegisterPage struct {
	Name   string
	Email  string
	Errors map[string]string
}

// ProfilePage is the data of the profile form.
type ProfilePage struct {
	Email  string
	Form   ProfileForm
	Errors map[string]string
}

// ResetPage is the data of the new password form.
type ResetPage struct {
	Action string
	Errors map[string]string
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	h.templates.Page(w, r, h.csrf, h.logger, "pages/register.html", view.TemplateData{Title: "Registrace", Data: RegisterPage{}}, http.StatusOK)
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	form := RegisterForm{
		Name:            r.PostFormValue("name"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	_, err := h.service.Register(r.Context(), form)
	if err == nil {
		shared.RedirectWithFlash(w, r, "/login", shared.FlashSuccess, "Registrace proběhla úspěšně. Můžete se přihlásit.")
		return
	}

	var verr *shared.ValidationError
	var errs map[string]string
	switch {
	case errors.As(err, &verr):
		errs = verr.Fields
	case errors.Is(err, ErrEmailTaken):
		errs = map[string]string{"email": "Tento email již existuje."}
	default:
		h.logger.Error("register customer", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/register.html", view.TemplateData{
		Title: "Registrace",
		Data:  RegisterPage{Name: form.Name, Email: form.Email, Errors: errs},
	}, http.StatusBadRequest)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.templates.Page(w, r, h.csrf, h.logger, "pages/login.html", view.TemplateData{Title: "Přihlášení", Data: LoginPage{}}, http.StatusOK)
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	form := LoginForm{
		Email:    r.PostFormValue("email"),
		Password: r.PostFormValue("password"),
	}
	errs := map[string]string{}
	if err := shared.Validate(h.service.validator, form); err != nil {
		var verr *shared.ValidationError
		if errors.As(err, &verr) {
			errs = verr.Fields
		}
	}

	if len(errs) == 0 {
		customer, err := h.service.Authenticate(r.Context(), form.Email, form.Password)
		if err == nil {
			h.sessions.Renew(sess)
			sess.SetCustomer(customer.ID, customer.Email)
			shared.RedirectWithFlash(w, r, "/", shared.FlashSuccess, "Přihlášení úspěšné.")
			return
		}
		shared.Flash(r.Context(), shared.FlashError, "Neplatné přihlašovací údaje.")
	}

	h.templates.Page(w, r, h.csrf, h.logger, "pages/login.html", view.TemplateData{
		Title: "Přihlášení",
		Data:  LoginPage{Email: form.Email, Errors: errs},
	}, http.StatusBadRequest)
}

// handleLogout wipes the whole session, cart included.
func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Reset(shared.SessionFromContext(r.Context()))
	shared.RedirectWithFlash(w, r, "/", shared.FlashSuccess, "Odhlášení úspěšné.")
}

func (h *Handler) showProfile(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.currentCustomer(w, r)
	if !ok {
		return
	}
	h.renderProfile(w, r, customer.Email, ProfileFormFrom(customer), nil, http.StatusOK)
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	customer, ok := h.currentCustomer(w, r)
	if !ok {
		return
	}
	form := ProfileForm{
		Name:    r.PostFormValue("name"),
		Surname: r.PostFormValue("surname"),
		Address: r.PostFormValue("address"),
		Phone:   r.PostFormValue("phone"),
	}
	err := h.service.UpdateProfile(r.Context(), customer.ID, form)
	var verr *shared.ValidationError
	switch {
	case err == nil:
		shared.RedirectWithFlash(w, r, "/account/profile", shared.FlashSuccess, "Profil byl aktualizován.")
	case errors.As(err, &verr):
		h.renderProfile(w, r, customer.Email, form, verr.Fields, http.StatusBadRequest)
	default:
		h.logger.Error("update profile", slog.Int64("customer_id", customer.ID), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) renderProfile(w http.ResponseWriter, r *http.Request, email string, form ProfileForm, errs map[string]string, status int) {
	h.templates.Page(w, r, h.csrf, h.logger, "pages/profile.html", view.TemplateData{
		Title: "Můj profil",
		Data:  ProfilePage{Email: email, Form: form, Errors: errs},
	}, status)
}

// currentCustomer loads the logged in customer or redirects to the login page.
func (h *Handler) currentCustomer(w http.ResponseWriter, r *http.Request) (Customer, bool) {
	sess := shared.SessionFromContext(r.Context())
	id, ok := sess.Customer()
	if !ok {
		shared.RedirectWithFlash(w, r, "/login", shared.FlashWarning, "Musíte se přihlásit pro zobrazení profilu.")
		return Customer{}, false
	}
	customer, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.sessions.Reset(sess)
			shared.RedirectWithFlash(w, r, "/login", shared.FlashWarning, "Musíte se přihlásit pro zobrazení profilu.")
			return Customer{}, false
		}
		h.logger.Error("load customer", slog.Int64("customer_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return Customer{}, false
	}
	return customer, true
}

func (h *Handler) handleResetRequest(w http.ResponseWriter, r *http.Request) {
	if err := h.service.RequestPasswordReset(r.Context(), r.PostFormValue("reset_email")); err != nil {
		h.logger.Error("password reset request", slog.Any("error", err))
	}
	shared.RedirectWithFlash(w, r, "/login", shared.FlashInfo, "Pokud účet existuje, poslali jsme na e-mail odkaz pro obnovení hesla.")
}

func (h *Handler) showReset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if _, err := h.service.CheckResetToken(r.Context(), token); err != nil {
		h.invalidToken(w, r, err)
		return
	}
	h.renderReset(w, r, token, nil, http.StatusOK)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	form := PasswordForm{
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}
	err := h.service.ResetPassword(r.Context(), token, form)
	var verr *shared.ValidationError
	switch {
	case err == nil:
		shared.RedirectWithFlash(w, r, "/login", shared.FlashSuccess, "Heslo bylo úspěšně změněno.")
	case errors.As(err, &verr):
		h.renderReset(w, r, token, verr.Fields, http.StatusBadRequest)
	default:
		h.invalidToken(w, r, err)
	}
}

func (h *Handler) renderReset(w http.ResponseWriter, r *http.Request, token string, errs map[string]string, status int) {
	h.templates.Page(w, r, h.csrf, h.logger, "pages/reset_password.html", view.TemplateData{
		Title: "Nové heslo",
		Data:  ResetPage{Action: "/reset_password/" + token, Errors: errs},
	}, status)
}

func (h *Handler) invalidToken(w http.ResponseWriter, r *http.Request, err error) {
	if !errors.Is(err, resettoken.ErrInvalidToken) {
		h.logger.Error("password reset", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	shared.RedirectWithFlash(w, r, "/login", shared.FlashError, "Neplatný nebo expirovaný odkaz.")
}
