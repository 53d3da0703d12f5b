package leads

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

// Handler serves the contact form and the back-office lead list.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers the public contact route.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/contact", h.submit)
}

// MountAdminRoutes registers the lead list on the admin subrouter.
func (h *Handler) MountAdminRoutes(r chi.Router) {
	r.Get("/leads", h.list)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request) {
	_, err := h.service.Submit(r.Context(), Form{
		Name:    r.PostFormValue("name"),
		Email:   r.PostFormValue("email"),
		Message: r.PostFormValue("message"),
	})
	var verr *shared.ValidationError
	switch {
	case err == nil:
		shared.RedirectWithFlash(w, r, "/", shared.FlashSuccess, "Děkujeme za zprávu, brzy se vám ozveme.")
	case errors.As(err, &verr):
		shared.RedirectWithFlash(w, r, "/", shared.FlashError, "Zprávu se nepodařilo odeslat, vyplňte prosím jméno, platný e-mail a text zprávy.")
	default:
		h.logger.Error("store lead", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

// ListPage is the data of the admin lead list.
type ListPage struct {
	Leads []Lead
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	leads, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list leads", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/admin_leads.html", view.TemplateData{Title: "Zprávy", Data: ListPage{Leads: leads}}, http.StatusOK)
}
