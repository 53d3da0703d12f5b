package orders

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/go-chi/chi/v5"

	"github.com/artemoderno/storefront/internal/catalog"
	"github.com/artemoderno/storefront/internal/invoice"
	"github.com/artemoderno/storefront/internal/orders/export"
	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

// Exporter regenerates and locates the batch export files.
type Exporter interface {
	Export(ctx context.Context) (export.Result, error)
	Path(format string) (string, error)
}

// InvoiceSource renders the invoice PDF of an order.
type InvoiceSource interface {
	InvoicePDF(ctx context.Context, order Order) (invoice.Document, []byte, error)
}

// AdminHandler serves order management for the back office. It expects to be
// mounted behind the admin session guard.
type AdminHandler struct {
	logger    *slog.Logger
	service   *Service
	invoices  InvoiceSource
	exporter  Exporter
	templates *view.Engine
	csrf      *shared.CSRFManager
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(logger *slog.Logger, service *Service, invoices InvoiceSource, exporter Exporter, templates *view.Engine, csrf *shared.CSRFManager) *AdminHandler {
	return &AdminHandler{logger: logger, service: service, invoices: invoices, exporter: exporter, templates: templates, csrf: csrf}
}

// MountRoutes registers order management routes.
func (h *AdminHandler) MountRoutes(r chi.Router) {
	r.Get("/orders", h.list)
	r.Post("/orders/export", h.export)
	r.Get("/orders/export.{format}", h.download)
	r.Post("/orders/{id}/status", h.updateStatus)
	r.Post("/orders/{id}/hide", h.hide)
	r.Get("/orders/{id}/invoice.pdf", h.invoicePDF)
}

// AdminOrdersPage is the data of the back-office order list.
type AdminOrdersPage struct {
	Orders   []Order
	Statuses []string
	Formats  []string
}

func (h *AdminHandler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.service.ListVisible(r.Context())
	if err != nil {
		h.logger.Error("list orders", slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.templates.Page(w, r, h.csrf, h.logger, "pages/admin_orders.html", view.TemplateData{
		Title: "Objednávky",
		Data:  AdminOrdersPage{Orders: list, Statuses: Statuses, Formats: export.Formats},
	}, http.StatusOK)
}

func (h *AdminHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	err = h.service.UpdateStatus(r.Context(), id, r.PostFormValue("status"))
	var validationErr *ValidationError
	switch {
	case err == nil:
		shared.RedirectWithFlash(w, r, "/admin/orders", shared.FlashSuccess, "Stav objednávky byl změněn.")
	case errors.As(err, &validationErr):
		shared.RedirectWithFlash(w, r, "/admin/orders", shared.FlashError, "Neplatný stav.")
	case errors.Is(err, shared.ErrNotFound):
		h.templates.NotFound(w, r, h.csrf, h.logger)
	default:
		h.logger.Error("update order status", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func (h *AdminHandler) hide(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	if err := h.service.Hide(r.Context(), id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.templates.NotFound(w, r, h.csrf, h.logger)
			return
		}
		h.logger.Error("hide order", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	shared.RedirectWithFlash(w, r, "/admin/orders", shared.FlashSuccess, "Objednávka byla skryta.")
}

func (h *AdminHandler) invoicePDF(w http.ResponseWriter, r *http.Request) {
	id, err := catalog.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	order, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			h.templates.NotFound(w, r, h.csrf, h.logger)
			return
		}
		h.logger.Error("load order", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	doc, pdf, err := h.invoices.InvoicePDF(r.Context(), order)
	if err != nil {
		if errors.Is(err, invoice.ErrProductMissing) || errors.Is(err, shared.ErrNotFound) {
			shared.RedirectWithFlash(w, r, "/admin/orders", shared.FlashError, "Produkt objednávky již neexistuje, fakturu nelze vystavit.")
			return
		}
		h.logger.Error("render invoice", slog.Int64("order_id", id), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusBadGateway), http.StatusBadGateway)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%s", invoice.FileName(doc)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (h *AdminHandler) export(w http.ResponseWriter, r *http.Request) {
	res, err := h.exporter.Export(r.Context())
	if err != nil {
		h.logger.Error("export orders", slog.Any("error", err))
		shared.RedirectWithFlash(w, r, "/admin/orders", shared.FlashError, "Export se nezdařil.")
		return
	}
	if reason, failed := res.Failed[export.FormatPDF]; failed {
		h.logger.Warn("export without pdf", slog.String("reason", reason))
		shared.Flash(r.Context(), shared.FlashWarning, "PDF export se nepodařilo vytvořit.")
	}
	shared.RedirectWithFlash(w, r, "/admin/orders", shared.FlashSuccess, fmt.Sprintf("Objednávky exportovány (%d).", res.Records))
}

func (h *AdminHandler) download(w http.ResponseWriter, r *http.Request) {
	path, err := h.exporter.Path(chi.URLParam(r, "format"))
	if err != nil {
		h.templates.NotFound(w, r, h.csrf, h.logger)
		return
	}
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			shared.RedirectWithFlash(w, r, "/admin/orders", shared.FlashWarning, "Export zatím neexistuje.")
			return
		}
		h.logger.Error("open export", slog.String("path", path), slog.Any("error", err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	name := filepath.Base(path)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", name))
	http.ServeContent(w, r, name, info.ModTime(), f)
}
