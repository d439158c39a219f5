package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/applebridge/internal/osascript"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
// events, if non-nil, receives an apps.checked event per access check.
func NewRouter(exec osascript.Executor, authEnabled bool, token string, sseHandler http.Handler, events Publisher) chi.Router {
	h := NewHandler(exec, events)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Application access status.
	r.Get("/apps", h.ListApps)
	r.Get("/apps/{name}", h.GetApp)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
