package shared

import (
	"context"
	"net/http"
)

type sessionContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// Flash queues a flash message on the session carried by ctx.
func Flash(ctx context.Context, kind, message string) {
	if sess := SessionFromContext(ctx); sess != nil {
		sess.AddFlash(FlashMessage{Kind: kind, Message: message})
	}
}

// RedirectWithFlash queues a flash message and answers with 303 See Other.
func RedirectWithFlash(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	Flash(r.Context(), kind, message)
	http.Redirect(w, r, url, http.StatusSeeOther)
}
