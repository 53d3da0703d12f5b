package cart

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

const quantityFieldPrefix = "quantity_"

// Handler wires the cart endpoints.
type Handler struct {
	logger    *slog.Logger
	resolver  Resolver
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, resolver Resolver, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, resolver: resolver, templates: templates, csrf: csrf}
}

// MountRoutes registers cart routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/add-to-cart/{id}", h.add)
	r.Get("/cart", h.show)
	r.Post("/update-cart", h.update)
	r.Get("/remove-from-cart/{id}", h.remove)
}

func (h *Handler) add(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	found, err := h.resolver.Products(r.Context(), []int64{id})
	if err != nil {
		h.logger.Error("resolve product", slog.Int64("product_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if _, ok := found[id]; !ok {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	c := Load(sess)
	c.Add(id, ParseQuantity(r.PostFormValue("quantity")))
	c.Save(sess)
	shared.RedirectWithFlash(w, r, "/cart", shared.FlashSuccess, "Produkt byl přidán do košíku.")
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	c := Load(sess)
	v, err := Resolve(r.Context(), h.resolver, c)
	if err != nil {
		h.logger.Error("resolve cart", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(v.Removed) > 0 {
		c.Save(sess)
		h.logger.Info("pruned unavailable cart lines", slog.Int("count", len(v.Removed)))
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/cart.html", view.TemplateData{
		Title: "Košík",
		Data:  v,
	}, http.StatusOK)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	quantities := make(map[int64]int)
	for key, values := range r.PostForm {
		if !strings.HasPrefix(key, quantityFieldPrefix) || len(values) == 0 {
			continue
		}
		id, err := strconv.ParseInt(strings.TrimPrefix(key, quantityFieldPrefix), 10, 64)
		if err != nil {
			continue
		}
		quantities[id] = ParseQuantity(values[0])
	}

	sess := shared.SessionFromContext(r.Context())
	c := Load(sess)
	c.Update(quantities)
	c.Save(sess)
	shared.RedirectWithFlash(w, r, "/cart", shared.FlashSuccess, "Košík byl aktualizován.")
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	c := Load(sess)
	c.Remove(id)
	c.Save(sess)
	shared.RedirectWithFlash(w, r, "/cart", shared.FlashSuccess, "Produkt byl odebrán z košíku.")
}

// ParseQuantity reads a quantity form value; anything unparsable or below 1
// becomes 1 and values above MaxQuantity are capped.
func ParseQuantity(raw string) int {
	qty, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && qty > 0 {
			return MaxQuantity
		}
		return 1
	}
	if qty > MaxQuantity {
		return MaxQuantity
	}
	return clampQuantity(int(qty))
}
