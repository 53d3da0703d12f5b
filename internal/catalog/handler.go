package catalog

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

// Handler serves the public catalog pages.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, templates: templates, csrf: csrf}
}

// MountRoutes registers catalog routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.landing)
	r.Get("/products", h.firstProduct)
	r.Get("/product/{id}", h.productDetail)
}

// LandingPage is the data of the landing page.
type LandingPage struct {
	Products []Product
}

// ProductPage is the data of the product detail page.
type ProductPage struct {
	Product Product
}

func (h *Handler) landing(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("list products", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/landing.html", view.TemplateData{
		Data: LandingPage{Products: products},
	}, http.StatusOK)
}

func (h *Handler) firstProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.First(r.Context())
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.templates.NotFound(w, r, h.csrf, h.logger)
			return
		}
		h.logger.Error("first product", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/product/"+strconv.FormatInt(product.ID, 10), http.StatusFound)
}

func (h *Handler) productDetail(w http.ResponseWriter, r *http.Request) {
	id, err := ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	product, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.templates.NotFound(w, r, h.csrf, h.logger)
			return
		}
		h.logger.Error("get product", slog.Int64("product_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/product.html", view.TemplateData{
		Title: product.Name,
		Data:  ProductPage{Product: product},
	}, http.StatusOK)
}

// ParseID parses a positive numeric path identifier.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, strconv.ErrRange
	}
	return id, nil
}
