package orders

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/artemoderno/storefront/internal/cart"
	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

// Handler wires checkout and order history endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	resolver  cart.Resolver
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver cart.Resolver, templates *view.Engine, csrf *shared.CSRFManager) *Handler {
	return &Handler{logger: logger, service: service, resolver: resolver, templates: templates, csrf: csrf}
}

// MountRoutes registers order routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/checkout", h.showCheckout)
	r.Post("/checkout", h.handleCheckout)
	r.Get("/order-success", h.success)
	r.Get("/account/orders", h.history)
}

// CheckoutPage is the data of the checkout form.
type CheckoutPage struct {
	Form   CheckoutForm
	Token  string
	Errors map[string]string
	Items  []cart.Item
	Total  decimal.Decimal
}

// HistoryPage lists the orders of the logged in customer.
type HistoryPage struct {
	Orders []Order
}

func (h *Handler) showCheckout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	c := cart.Load(sess)
	if c.IsEmpty() {
		shared.RedirectWithFlash(w, r, "/cart", shared.FlashWarning, "Košík je prázdný.")
		return
	}
	form := CheckoutForm{Email: sess.CustomerEmail(), PaymentMethod: PaymentCard}
	h.renderCheckout(w, r, c, form, nil, http.StatusOK)
}

func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	sess := shared.SessionFromContext(r.Context())
	c := cart.Load(sess)
	form := CheckoutForm{
		Name:          r.PostFormValue("name"),
		Email:         r.PostFormValue("email"),
		Address:       r.PostFormValue("address"),
		PaymentMethod: r.PostFormValue("payment_method"),
		Token:         r.PostFormValue("checkout_token"),
	}
	req := CheckoutRequest{Form: form, Lines: c.Lines()}
	if sess != nil {
		req.SessionID = sess.ID
		if id, ok := sess.Customer(); ok {
			req.CustomerID = &id
		}
	}

	_, err := h.service.Checkout(r.Context(), req)
	var validationErr *ValidationError
	var unavailable *LineUnavailableError
	switch {
	case err == nil:
		c.Clear()
		c.Save(sess)
		shared.RedirectWithFlash(w, r, "/order-success", shared.FlashSuccess, "Objednávka úspěšně dokončena.")
	case errors.Is(err, ErrEmptyCart):
		shared.RedirectWithFlash(w, r, "/cart", shared.FlashWarning, "Košík je prázdný.")
	case errors.As(err, &validationErr):
		h.renderCheckout(w, r, c, form, validationErr.Fields, http.StatusBadRequest)
	case errors.Is(err, ErrDuplicateCheckout):
		c.Clear()
		c.Save(sess)
		shared.RedirectWithFlash(w, r, "/order-success", shared.FlashInfo, "Tato objednávka již byla přijata.")
	case errors.As(err, &unavailable):
		for _, id := range unavailable.ProductIDs {
			c.Remove(id)
		}
		c.Save(sess)
		shared.RedirectWithFlash(w, r, "/cart", shared.FlashWarning, "Některé položky již nejsou dostupné a byly odebrány z košíku.")
	default:
		h.logger.Error("checkout failed", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *Handler) renderCheckout(w http.ResponseWriter, r *http.Request, c *cart.Cart, form CheckoutForm, errs map[string]string, status int) {
	v, err := cart.Resolve(r.Context(), h.resolver, c)
	if err != nil {
		h.logger.Error("resolve cart", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	if len(v.Removed) > 0 {
		c.Save(shared.SessionFromContext(r.Context()))
		if c.IsEmpty() {
			shared.RedirectWithFlash(w, r, "/cart", shared.FlashWarning, "Košík je prázdný.")
			return
		}
	}
	token := form.Token
	if _, err := uuid.Parse(token); err != nil {
		token = uuid.NewString()
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/checkout.html", view.TemplateData{
		Title: "Objednávka",
		Data: CheckoutPage{
			Form:   form,
			Token:  token,
			Errors: errs,
			Items:  v.Items,
			Total:  v.Total,
		},
	}, status)
}

func (h *Handler) success(w http.ResponseWriter, r *http.Request) {
	h.templates.Page(w, r, h.csrf, h.logger, "pages/order_success.html", view.TemplateData{Title: "Děkujeme"}, http.StatusOK)
}

func (h *Handler) history(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	customerID, ok := sess.Customer()
	if !ok {
		shared.RedirectWithFlash(w, r, "/login", shared.FlashWarning, "Pro zobrazení objednávek se musíte přihlásit.")
		return
	}
	list, err := h.service.ListByCustomer(r.Context(), customerID)
	if err != nil {
		h.logger.Error("list customer orders", slog.Int64("customer_id", customerID), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/customer_orders.html", view.TemplateData{
		Title: "Moje objednávky",
		Data:  HistoryPage{Orders: list},
	}, http.StatusOK)
}
