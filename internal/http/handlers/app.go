package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"tryon/internal/catalog"
	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/jobs"
	"tryon/internal/pipeline"
	"tryon/internal/stats"
	"tryon/internal/storage"
)

const maxBodyBytes = 25 << 20

type App struct {
	Jobs    *jobs.Registry
	Images  *pipeline.ImagePipeline
	Videos  *pipeline.VideoPipeline
	Catalog *catalog.Catalog
	Store   *storage.FileStore
	Stats   stats.Source
	// StatsSource names where Stats reads from, for the response body.
	StatsSource string
	Logger      *infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, map[string]errorBody{"error": {Code: errCode, Message: message}})
}

// fail maps a domain error onto an HTTP status.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var validation *domain.ValidationError
	switch {
	case errors.As(err, &validation):
		a.error(w, http.StatusBadRequest, "validation_error", validation.Error())
	case errors.Is(err, domain.ErrUnknownModel):
		a.error(w, http.StatusBadRequest, "unknown_model", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "job not found")
	case errors.Is(err, jobs.ErrClosed):
		a.error(w, http.StatusServiceUnavailable, "shutting_down", "server is shutting down")
	default:
		infra.OrDiscard(a.Logger).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			a.error(w, http.StatusRequestEntityTooLarge, "too_large", "request body too large")
			return false
		}
		a.error(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
