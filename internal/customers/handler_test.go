package customers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/artemoderno/storefront/internal/customers"
	"github.com/artemoderno/storefront/internal/resettoken"
	"github.com/artemoderno/storefront/internal/shared"
	storetest "github.com/artemoderno/storefront/testing"
)

func newCustomerHarness(t *testing.T) (*storetest.Harness, *memoryRepo, *outbox) {
	h := storetest.NewHarness(t)
	repo := newMemoryRepo()
	mail := &outbox{}
	svc := newService(t, repo, mail)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	customers.NewHandler(logger, svc, h.Templates, h.Sessions, h.CSRF).MountRoutes(h.Router)
	return h, repo, mail
}

func register(h *storetest.Harness) *http.Response {
	return h.Post("/register", url.Values{
		"name":             {"Jana"},
		"email":            {"jana@example.com"},
		"password":         {"tajne123"},
		"confirm_password": {"tajne123"},
	}).Result()
}

func TestRegisterThenLogin(t *testing.T) {
	h, _, _ := newCustomerHarness(t)

	res := register(h)
	require.Equal(t, http.StatusSeeOther, res.StatusCode)
	assert.Equal(t, "/login", res.Header.Get("Location"))

	rec := h.Post("/login", url.Values{"email": {"jana@example.com"}, "password": {"tajne123"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	id, ok := h.Session().Customer()
	assert.True(t, ok)
	assert.Equal(t, int64(1), id)
	assert.Equal(t, "jana@example.com", h.Session().CustomerEmail())
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _, _ := newCustomerHarness(t)
	register(h)

	rec := h.Post("/register", url.Values{
		"name":             {"Jiná"},
		"email":            {"JANA@example.com"},
		"password":         {"tajne123"},
		"confirm_password": {"tajne123"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Tento email již existuje.")
}

func TestLoginInvalidCredentials(t *testing.T) {
	h, _, _ := newCustomerHarness(t)
	register(h)

	rec := h.Post("/login", url.Values{"email": {"jana@example.com"}, "password": {"spatne"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Neplatné přihlašovací údaje.")
	_, ok := h.Session().Customer()
	assert.False(t, ok)
}

func TestLoginKeepsCart(t *testing.T) {
	h, _, _ := newCustomerHarness(t)
	register(h)
	h.Mutate(func(s *shared.Session) {
		s.SetCartLines([]shared.CartLine{{ProductID: 4, Quantity: 2}})
	})

	h.Post("/login", url.Values{"email": {"jana@example.com"}, "password": {"tajne123"}})
	assert.Equal(t, []shared.CartLine{{ProductID: 4, Quantity: 2}}, h.Session().CartLines())
}

func TestLogoutClearsSession(t *testing.T) {
	h, _, _ := newCustomerHarness(t)
	register(h)
	h.Post("/login", url.Values{"email": {"jana@example.com"}, "password": {"tajne123"}})
	h.Mutate(func(s *shared.Session) {
		s.SetCartLines([]shared.CartLine{{ProductID: 4, Quantity: 2}})
	})

	rec := h.Get("/logout")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	sess := h.Session()
	_, ok := sess.Customer()
	assert.False(t, ok)
	assert.Empty(t, sess.CartLines())
	flash := sess.PopFlash()
	require.NotNil(t, flash)
	assert.Equal(t, "Odhlášení úspěšné.", flash.Message)
}

func TestProfileRequiresLogin(t *testing.T) {
	h, _, _ := newCustomerHarness(t)

	rec := h.Get("/account/profile")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestProfileUpdate(t *testing.T) {
	h, repo, _ := newCustomerHarness(t)
	register(h)
	h.Post("/login", url.Values{"email": {"jana@example.com"}, "password": {"tajne123"}})

	rec := h.Get("/account/profile")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "jana@example.com")

	rec = h.Post("/account/profile", url.Values{"name": {"Jana"}, "surname": {"Nováková"}, "address": {"Praha 2"}, "phone": {"777"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	c, err := repo.Get(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "Nováková", c.Surname)
	assert.Equal(t, "Praha 2", c.Address)
}

func TestResetPasswordOverHTTP(t *testing.T) {
	h, _, mail := newCustomerHarness(t)
	register(h)

	rec := h.Post("/reset_password-request", url.Values{"reset_email": {"jana@example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	msg, ok := mail.last()
	require.True(t, ok)
	link := strings.Fields(msg.Body[strings.Index(msg.Body, "http://"):])[0]
	path := strings.TrimPrefix(link, "http://shop.test")

	rec = h.Get(path)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = h.Post(path, url.Values{"password": {"abc"}, "confirm_password": {"abc"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = h.Post(path, url.Values{"password": {"nove-heslo"}, "confirm_password": {"nove-heslo"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))

	rec = h.Post("/login", url.Values{"email": {"jana@example.com"}, "password": {"nove-heslo"}})
	assert.Equal(t, http.StatusSeeOther, rec.Code)
}

func TestResetRequestUnknownEmailLooksTheSame(t *testing.T) {
	h, _, mail := newCustomerHarness(t)

	rec := h.Post("/reset_password-request", url.Values{"reset_email": {"ghost@example.com"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	_, sent := mail.last()
	assert.False(t, sent)
}

func TestResetWithTamperedToken(t *testing.T) {
	h, _, _ := newCustomerHarness(t)

	rec := h.Get("/reset_password/not.a.token")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
}

func TestResetLinkDuringOutageIsServerError(t *testing.T) {
	h, repo, _ := newCustomerHarness(t)
	register(h)

	issuer, err := resettoken.NewIssuer("test-secret", resettoken.AudienceCustomer)
	require.NoError(t, err)
	token, err := issuer.Issue(1)
	require.NoError(t, err)

	repo.mu.Lock()
	repo.getErr = errors.New("connection refused")
	repo.mu.Unlock()

	rec := h.Get("/reset_password/" + token)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}
