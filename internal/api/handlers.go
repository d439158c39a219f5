package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/starford/applebridge/internal/apps"
	"github.com/starford/applebridge/internal/osascript"
	"github.com/starford/applebridge/internal/sse"
)

// TypeAppsChecked is published after every access check.
const TypeAppsChecked = "apps.checked"

// Publisher receives status events.
type Publisher interface {
	Publish(event sse.Event)
}

// AppStatus reports whether one application can be scripted.
type AppStatus struct {
	Name       string `json:"name" example:"Notes" validate:"required"`
	Accessible bool   `json:"accessible" validate:"required"`
}

// AppsResponse wraps the status of every supported application.
type AppsResponse struct {
	Apps      []AppStatus `json:"apps" validate:"required"`
	CheckedAt time.Time   `json:"checked_at" validate:"required"`
}

// Handler holds API route handlers.
type Handler struct {
	exec   osascript.Executor
	events Publisher
}

// NewHandler creates a new Handler. events may be nil.
func NewHandler(exec osascript.Executor, events Publisher) *Handler {
	return &Handler{exec: exec, events: events}
}

// ListApps handles GET /api/apps. Applications are checked one at a time
// so a status request never spawns more than one osascript process.
//
//	@Summary		Report automation access for every supported application
//	@Tags			apps
//	@Produce		json
//	@Success		200	{object}	AppsResponse
//	@Security		BearerAuth
//	@Router			/apps [get]
func (h *Handler) ListApps(w http.ResponseWriter, r *http.Request) {
	statuses := make([]AppStatus, 0, len(apps.All))
	for _, name := range apps.All {
		statuses = append(statuses, h.check(r.Context(), name))
	}

	writeJSON(w, http.StatusOK, AppsResponse{Apps: statuses, CheckedAt: time.Now().UTC()})
}

// GetApp handles GET /api/apps/{name}.
//
//	@Summary		Report automation access for one application
//	@Tags			apps
//	@Produce		json
//	@Param			name	path		string	true	"Application name"
//	@Success		200		{object}	AppStatus
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/apps/{name} [get]
func (h *Handler) GetApp(w http.ResponseWriter, r *http.Request) {
	name, ok := lookupApp(chi.URLParam(r, "name"))
	if !ok {
		writeJSON(w, http.StatusNotFound, errorBody("unknown application"))
		return
	}
	writeJSON(w, http.StatusOK, h.check(r.Context(), name))
}

func (h *Handler) check(ctx context.Context, name string) AppStatus {
	st := AppStatus{Name: name, Accessible: osascript.CheckAccess(ctx, h.exec, name)}
	if !st.Accessible {
		slog.Warn("application not accessible", slog.String("app", name))
	}
	if h.events != nil {
		h.events.Publish(sse.Event{Type: TypeAppsChecked, Data: st})
	}
	return st
}

// lookupApp matches name against the supported applications, ignoring case.
func lookupApp(name string) (string, bool) {
	for _, app := range apps.All {
		if strings.EqualFold(app, name) {
			return app, true
		}
	}
	return "", false
}
