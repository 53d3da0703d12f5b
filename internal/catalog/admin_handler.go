package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

// AdminHandler serves product management for the back office. It expects to
// be mounted behind the admin session guard.
type AdminHandler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
	validator *validator.Validate
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *AdminHandler {
	return &AdminHandler{
		logger:    logger,
		service:   service,
		templates: templates,
		csrf:      csrf,
		validator: shared.NewValidator(),
	}
}

// MountRoutes registers product management routes.
func (h *AdminHandler) MountRoutes(r chi.Router) {
	r.Get("/dashboard", h.dashboard)
	r.Get("/add-product", h.showAdd)
	r.Post("/add-product", h.handleAdd)
	r.Get("/edit-product/{id}", h.showEdit)
	r.Post("/edit-product/{id}", h.handleEdit)
	r.Post("/delete-product/{id}", h.handleDelete)
}

// DashboardPage lists products in the back office.
type DashboardPage struct {
	Products []Product
}

// ProductFormPage is the data of the add/edit product form.
type ProductFormPage struct {
	Heading string
	Action  string
	Form    ProductForm
	Errors  map[string]string
}

func (h *AdminHandler) dashboard(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/admin_dashboard.html", view.TemplateData{
		Title: "Produkty",
		Data:  DashboardPage{Products: products},
	}, http.StatusOK)
}

func (h *AdminHandler) showAdd(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, ProductFormPage{Heading: "Přidat produkt", Action: "/admin/add-product", Form: ProductForm{Stock: "0"}}, http.StatusOK)
}

func (h *AdminHandler) handleAdd(w http.ResponseWriter, r *http.Request) {
	page := ProductFormPage{Heading: "Přidat produkt", Action: "/admin/add-product"}
	in, ok := h.parseForm(r, &page)
	if !ok {
		h.renderForm(w, r, page, http.StatusBadRequest)
		return
	}
	product, err := h.service.Create(r.Context(), in)
	if err != nil {
		h.logger.Error("create product", slog.Any("error", err))
		page.Errors = map[string]string{"name": "Produkt se nepodařilo uložit."}
		h.renderForm(w, r, page, http.StatusBadRequest)
		return
	}
	h.logger.Info("product created", slog.Int64("product_id", product.ID))
	shared.RedirectWithFlash(w, r, "/admin/dashboard", shared.FlashSuccess, "Produkt úspěšně přidán.")
}

func (h *AdminHandler) showEdit(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.handleLookupError(w, r, id, err)
		return
	}
	h.renderForm(w, r, ProductFormPage{
		Heading: "Upravit produkt",
		Action:  "/admin/edit-product/" + strconv.FormatInt(id, 10),
		Form:    FormFromProduct(product),
	}, http.StatusOK)
}

func (h *AdminHandler) handleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	page := ProductFormPage{Heading: "Upravit produkt", Action: "/admin/edit-product/" + strconv.FormatInt(id, 10)}
	in, ok := h.parseForm(r, &page)
	if !ok {
		h.renderForm(w, r, page, http.StatusBadRequest)
		return
	}
	if err := h.service.Update(r.Context(), id, in); err != nil {
		h.handleLookupError(w, r, id, err)
		return
	}
	shared.RedirectWithFlash(w, r, "/admin/dashboard", shared.FlashSuccess, "Produkt upraven.")
}

func (h *AdminHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		h.handleLookupError(w, r, id, err)
		return
	}
	h.logger.Info("product deleted", slog.Int64("product_id", id))
	shared.RedirectWithFlash(w, r, "/admin/dashboard", shared.FlashSuccess, "Produkt smazán.")
}

func (h *AdminHandler) parseForm(r *http.Request, page *ProductFormPage) (ProductInput, bool) {
	if err := r.ParseForm(); err != nil {
		page.Errors = map[string]string{"name": "Neplatný formulář."}
		return ProductInput{}, false
	}
	page.Form = ProductForm{
		Name:          r.PostFormValue("name"),
		Description:   r.PostFormValue("description"),
		Price:         r.PostFormValue("price"),
		Stock:         r.PostFormValue("stock"),
		ImageFilename: r.PostFormValue("image_filename"),
	}
	errs := shared.FieldErrors(h.validator.Struct(page.Form))
	in, parseErrs := page.Form.Input()
	for field, msg := range parseErrs {
		if _, exists := errs[field]; !exists {
			errs[field] = msg
		}
	}
	page.Errors = errs
	return in, len(errs) == 0
}

func (h *AdminHandler) renderForm(w http.ResponseWriter, r *http.Request, page ProductFormPage, status int) {
	h.templates.Page(w, r, h.csrf, h.logger, "pages/admin_product_form.html", view.TemplateData{
		Title: page.Heading,
		Data:  page,
	}, status)
}

func (h *AdminHandler) handleLookupError(w http.ResponseWriter, r *http.Request, id int64, err error) {
	if errors.Is(err, shared.ErrNotFound) {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	h.logger.Error("product operation failed", slog.Int64("product_id", id), slog.Any("error", err))
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}
