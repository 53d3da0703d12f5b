package testing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	stdtesting "testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/artemoderno/storefront/internal/shared"
	"github.com/artemoderno/storefront/internal/view"
)

// Harness drives handlers through the real session and CSRF middleware,
// carrying the session cookie between requests like a browser would.
type Harness struct {
	T         *stdtesting.T
	Redis     *miniredis.Miniredis
	Sessions  *shared.SessionManager
	CSRF      *shared.CSRFManager
	Templates *view.Engine
	Router    chi.Router

	cookie string
}

// NewHarness builds a router backed by miniredis. Routes are mounted by the
// caller on Router.
func NewHarness(t *stdtesting.T) *Harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	templates, err := view.NewEngine()
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	h := &Harness{
		T:         t,
		Redis:     mr,
		Sessions:  shared.NewSessionManager(client, "test_session", "secret", time.Hour, false),
		CSRF:      shared.NewCSRFManager("csrfsecret"),
		Templates: templates,
	}
	r := chi.NewRouter()
	r.Use(h.Sessions.Middleware(nil))
	r.Use(h.CSRF.Middleware(nil))
	h.Router = r
	return h
}

// Get performs a GET request.
func (h *Harness) Get(path string) *httptest.ResponseRecorder {
	return h.Do(http.MethodGet, path, nil)
}

// Post performs a form POST carrying a valid CSRF token.
func (h *Harness) Post(path string, form url.Values) *httptest.ResponseRecorder {
	if form == nil {
		form = url.Values{}
	}
	if form.Get(shared.CSRFFormField) == "" {
		form.Set(shared.CSRFFormField, h.Token())
	}
	return h.Do(http.MethodPost, path, form)
}

// Do performs a request with the current session cookie.
func (h *Harness) Do(method, path string, form url.Values) *httptest.ResponseRecorder {
	h.T.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if h.cookie != "" {
		req.AddCookie(&http.Cookie{Name: h.Sessions.CookieName(), Value: h.cookie})
	}
	rec := httptest.NewRecorder()
	h.Router.ServeHTTP(rec, req)
	h.capture(rec)
	return rec
}

// Token returns the CSRF token of the current session, creating one if needed.
func (h *Harness) Token() string {
	var token string
	h.Mutate(func(sess *shared.Session) {
		var err error
		token, err = h.CSRF.EnsureToken(context.Background(), sess)
		if err != nil {
			h.T.Fatalf("csrf token: %v", err)
		}
	})
	return token
}

// Session loads the current session for assertions.
func (h *Harness) Session() *shared.Session {
	h.T.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if h.cookie != "" {
		req.AddCookie(&http.Cookie{Name: h.Sessions.CookieName(), Value: h.cookie})
	}
	sess, err := h.Sessions.Load(context.Background(), req)
	if err != nil {
		h.T.Fatalf("load session: %v", err)
	}
	return sess
}

// Mutate loads the current session, applies fn and persists it.
func (h *Harness) Mutate(fn func(*shared.Session)) {
	h.T.Helper()
	sess := h.Session()
	fn(sess)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if err := h.Sessions.Commit(context.Background(), rec, req, sess); err != nil {
		h.T.Fatalf("commit session: %v", err)
	}
	h.capture(rec)
}

func (h *Harness) capture(rec *httptest.ResponseRecorder) {
	for _, c := range rec.Result().Cookies() {
		if c.Name != h.Sessions.CookieName() {
			continue
		}
		if c.MaxAge < 0 || c.Value == "" {
			h.cookie = ""
			continue
		}
		h.cookie = c.Value
	}
}
