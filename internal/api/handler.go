// internal/api/handler.go
package api

import (
	"context"
	"encoding/json"
	"net/http"

	apperrors "mergington-activities/internal/common/errors"
	"mergington-activities/internal/common/logger"
	"mergington-activities/internal/models"
)

// Roster is the registry surface the HTTP layer depends on.
type Roster interface {
	List(ctx context.Context) map[string]models.Activity
	Signup(ctx context.Context, name, email string) (*models.Confirmation, error)
	Unregister(ctx context.Context, name, email string) (*models.Confirmation, error)
}

// ReadinessCheck reports whether a backing dependency can serve traffic.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type Handler struct {
	roster Roster
	checks []ReadinessCheck
	errors *apperrors.ErrorHandler
	logger logger.Logger
}

func NewHandler(roster Roster, log logger.Logger, checks ...ReadinessCheck) *Handler {
	log = log.WithFields(map[string]interface{}{"component": "http-api"})
	return &Handler{
		roster: roster,
		checks: checks,
		errors: apperrors.NewErrorHandler(log),
		logger: log,
	}
}

func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/static/index.html", http.StatusTemporaryRedirect)
}

func (h *Handler) ListActivities(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.roster.List(r.Context()))
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	email, ok := h.emailParam(w, r)
	if !ok {
		return
	}
	res, err := h.roster.Signup(r.Context(), r.PathValue("name"), email)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Unregister(w http.ResponseWriter, r *http.Request) {
	email, ok := h.emailParam(w, r)
	if !ok {
		return
	}
	res, err := h.roster.Unregister(r.Context(), r.PathValue("name"), email)
	if err != nil {
		h.errors.HandleHTTPError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready runs every readiness check and answers 503 with the failures if any
// dependency is down.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	failed := map[string]string{}
	for _, c := range h.checks {
		if err := c.Check(r.Context()); err != nil {
			failed[c.Name] = err.Error()
		}
	}
	if len(failed) > 0 {
		h.logger.Warn("readiness check failed", map[string]interface{}{"failed": failed})
		h.writeJSON(w, http.StatusServiceUnavailable, map[string]interface{}{
			"status": "not ready",
			"checks": failed,
		})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// emailParam distinguishes an absent email parameter (rejected) from an
// empty one, which is passed through as-is.
func (h *Handler) emailParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	values, present := r.URL.Query()["email"]
	if !present {
		h.errors.HandleHTTPError(w, r, apperrors.NewMissingParameterError("email"))
		return "", false
	}
	return values[0], true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode response", map[string]interface{}{"error": err})
	}
}
