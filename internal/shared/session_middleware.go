package shared

import (
	"context"
	"io"
	"log/slog"
	"net/http"
)

type responseWriterWithCommit struct {
	http.ResponseWriter
	sess          *Session
	manager       *SessionManager
	ctx           context.Context
	req           *http.Request
	logger        *slog.Logger
	headerWritten bool
	commitFailed  bool
}

// WriteHeader commits the session first. When the commit fails the handler's
// response is replaced by a 500 so a lost cart change is never acknowledged.
func (w *responseWriterWithCommit) WriteHeader(statusCode int) {
	if w.headerWritten {
		return
	}
	w.headerWritten = true
	if err := w.manager.Commit(w.ctx, w.ResponseWriter, w.req, w.sess); err != nil {
		if w.logger != nil {
			w.logger.Error("commit session", slog.Any("error", err))
		}
		w.commitFailed = true
		h := w.ResponseWriter.Header()
		h.Del("Location")
		h.Del("Content-Length")
		h.Set("Content-Type", "text/plain; charset=utf-8")
		h.Set("X-Content-Type-Options", "nosniff")
		w.ResponseWriter.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w.ResponseWriter, http.StatusText(http.StatusInternalServerError)+"\n")
		return
	}
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *responseWriterWithCommit) Write(data []byte) (int, error) {
	if !w.headerWritten {
		w.WriteHeader(http.StatusOK)
	}
	if w.commitFailed {
		return len(data), nil
	}
	return w.ResponseWriter.Write(data)
}

// Middleware loads the session into the request context and persists it right
// before the response header is written.
func (sm *SessionManager) Middleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sess, err := sm.Load(ctx, r)
			if err != nil {
				if logger != nil {
					logger.Error("failed to load session", slog.Any("error", err))
				}
				http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
				return
			}
			ctx = ContextWithSession(ctx, sess)
			req := r.WithContext(ctx)

			wrapped := &responseWriterWithCommit{
				ResponseWriter: w,
				sess:           sess,
				manager:        sm,
				ctx:            ctx,
				req:            req,
				logger:         logger,
			}

			next.ServeHTTP(wrapped, req)
			if !wrapped.headerWritten {
				wrapped.WriteHeader(http.StatusOK)
			}
		})
	}
}
