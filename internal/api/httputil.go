package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"dataviews/internal/domain"
	"dataviews/internal/service"
	"dataviews/internal/view"
)

// writeJSON marshals v as JSON and writes it with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("writeJSON encode error", zap.Error(err))
	}
}

// writeError writes a structured JSON error response.
func (h *Handler) writeError(w http.ResponseWriter, status int, code, message string) {
	h.writeJSON(w, status, map[string]string{
		"error": message,
		"code":  code,
	})
}

// decodeJSON decodes the request body into v.
func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// Pagination holds parsed pagination parameters.
type Pagination struct {
	Limit  int
	Offset int
}

// parsePagination extracts limit and offset from query params. A missing
// limit means no limit.
func parsePagination(r *http.Request) Pagination {
	p := Pagination{}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			p.Limit = n
		}
	}
	if p.Limit > maxPageSize {
		p.Limit = maxPageSize
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			p.Offset = n
		}
	}
	return p
}

const maxPageSize = 1000

// page slices items according to p.
func page[T any](items []T, p Pagination) []T {
	if p.Offset >= len(items) {
		return []T{}
	}
	items = items[p.Offset:]
	if p.Limit > 0 && p.Limit < len(items) {
		items = items[:p.Limit]
	}
	return items
}

// writeServiceError maps service and domain errors to HTTP responses.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrBadInput):
		h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	case errors.Is(err, view.ErrReadOnly):
		h.writeError(w, http.StatusConflict, "READ_ONLY", err.Error())
	case errors.Is(err, service.ErrModalClosed):
		h.writeError(w, http.StatusConflict, "MODAL_CLOSED", err.Error())
	case errors.Is(err, service.ErrViewUnavailable),
		errors.Is(err, view.ErrNoSelectField),
		errors.Is(err, view.ErrNoDateField):
		h.writeError(w, http.StatusConflict, "VIEW_UNAVAILABLE", err.Error())
	case errors.Is(err, domain.ErrNotPersisted):
		h.logger.Error("backend write failed", zap.Error(err))
		h.writeError(w, http.StatusBadGateway, "NOT_PERSISTED", err.Error())
	default:
		h.logger.Error("internal error", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
