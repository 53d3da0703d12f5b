package leads_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemoderno/storefront/internal/leads"
	storetest "github.com/artemoderno/storefront/testing"
)

type memoryRepo struct {
	mu    sync.Mutex
	leads []leads.Lead
}

func (m *memoryRepo) Create(ctx context.Context, l leads.Lead) (leads.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = int64(len(m.leads) + 1)
	m.leads = append(m.leads, l)
	return l, nil
}

func (m *memoryRepo) List(ctx context.Context) ([]leads.Lead, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]leads.Lead, len(m.leads))
	copy(out, m.leads)
	return out, nil
}

func newLeadHarness(t *testing.T) (*storetest.Harness, *memoryRepo) {
	h := storetest.NewHarness(t)
	repo := &memoryRepo{}
	handler := leads.NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), leads.NewService(repo), h.Templates, h.CSRF)
	handler.MountRoutes(h.Router)
	handler.MountAdminRoutes(h.Router)
	return h, repo
}

func TestContactStoresLead(t *testing.T) {
	h, repo := newLeadHarness(t)

	res := h.Post("/contact", url.Values{"name": {" Petr "}, "email": {"petr@example.com"}, "message": {"Máte i sochy?"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Equal(t, "/", res.Header().Get("Location"))
	require.Len(t, repo.leads, 1)
	assert.Equal(t, "Petr", repo.leads[0].Name)
	assert.False(t, repo.leads[0].CreatedAt.IsZero())

	list := h.Get("/leads")
	require.Equal(t, http.StatusOK, list.Code)
	assert.Contains(t, list.Body.String(), "Máte i sochy?")
}

func TestContactRejectsInvalid(t *testing.T) {
	h, repo := newLeadHarness(t)

	res := h.Post("/contact", url.Values{"name": {"Petr"}, "email": {"nope"}})
	require.Equal(t, http.StatusSeeOther, res.Code)
	assert.Empty(t, repo.leads)
	flash := h.Session().PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "error", flash.Kind)
}
