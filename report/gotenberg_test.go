package report

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderHTMLPostsMultipartForm(t *testing.T) {
	var gotFields map[string][]string
	var gotHTML string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/forms/chromium/convert/html", r.URL.Path)
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		gotFields = r.MultipartForm.Value
		file, _, err := r.FormFile("files")
		if !assert.NoError(t, err) {
			return
		}
		data, _ := io.ReadAll(file)
		gotHTML = string(data)
		_, _ = w.Write([]byte("%PDF-1.7"))
	}))
	defer srv.Close()

	pdf, err := NewClient(srv.URL).RenderHTML(context.Background(), []byte("<h1>Faktura</h1>"), Options{Landscape: true, Margin: 0.4})
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(pdf))
	assert.Equal(t, "<h1>Faktura</h1>", gotHTML)
	assert.Equal(t, []string{"true"}, gotFields["landscape"])
	assert.Equal(t, []string{"0.40"}, gotFields["marginTop"])
	assert.Equal(t, []string{"8.27"}, gotFields["paperWidth"])
}

func TestRenderHTMLStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).RenderHTML(context.Background(), []byte("x"), Options{})
	assert.Error(t, err)
}

func TestRenderHTMLUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url).RenderHTML(context.Background(), []byte("x"), Options{})
	assert.True(t, errors.Is(err, ErrUnavailable))
}

func TestPingHandler(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(NewClient(healthy.URL), logger).MountRoutes(r)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
