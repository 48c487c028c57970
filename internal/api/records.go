package api

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"dataviews/internal/domain"
	"dataviews/internal/view"
)

func tableFrom(r *http.Request) *domain.TableSchema {
	return r.Context().Value(tableKey).(*domain.TableSchema)
}

// ---------------------------------------------------------------------------
// Tables
// ---------------------------------------------------------------------------

func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"tables": []*domain.TableSchema{h.svc.Schema()}})
}

func (h *Handler) GetTable(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"table": tableFrom(r)})
}

func (h *Handler) ListFields(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"fields": tableFrom(r).Fields})
}

func (h *Handler) ListViews(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"views":  h.svc.AvailableViews(),
		"active": h.svc.ActiveView(),
	})
}

// ---------------------------------------------------------------------------
// Records
// ---------------------------------------------------------------------------

type recordRequest struct {
	Fields domain.Fields `json:"fields"`
}

// ListRecords returns the canonical list. The optional filter query
// parameter is a JSON filter object whose operator defaults by field type,
// sort a JSON sort object or an array whose first entry is used.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		filter view.Filter
		sort   view.Sort
	)
	if raw := q.Get("filter"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &filter); err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
			return
		}
	}
	if err := filter.Resolve(tableFrom(r)); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	if raw := strings.TrimSpace(q.Get("sort")); raw != "" {
		if err := decodeSort(raw, &sort); err != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_SORT", err.Error())
			return
		}
	}

	schema := tableFrom(r)
	records := h.svc.Records()
	total := len(records)
	records = view.SortRecords(schema, view.FilterRecords(schema, records, filter), sort, h.svc.Locale())
	matched := len(records)

	h.writeJSON(w, http.StatusOK, map[string]any{
		"records": page(records, parsePagination(r)),
		"matched": matched,
		"total":   total,
		"loaded":  h.svc.Loaded(),
	})
}

func decodeSort(raw string, s *view.Sort) error {
	if strings.HasPrefix(raw, "[") {
		var list []view.Sort
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return err
		}
		if len(list) > 0 {
			*s = list[0]
		}
		return nil
	}
	return json.Unmarshal([]byte(raw), s)
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Fields == nil {
		req.Fields = domain.Fields{}
	}
	rec, err := h.svc.CreateRecord(r.Context(), req.Fields)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"record": rec})
}

// RefreshRecords refetches the list from the backend.
func (h *Handler) RefreshRecords(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		h.writeError(w, http.StatusBadGateway, "FETCH_FAILED", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"count": len(h.svc.Records())})
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordID")
	rec, ok := h.svc.Record(id)
	if !ok {
		h.writeError(w, http.StatusNotFound, "NOT_FOUND", "record not found: "+id)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	rec, err := h.svc.UpdateRecord(r.Context(), chi.URLParam(r, "recordID"), req.Fields)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

// DeleteRecord removes a record. The service swallows backend failures, so a
// record still present afterwards is reported as a gateway error.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "recordID")
	h.svc.DeleteRecord(r.Context(), id)
	if _, ok := h.svc.Record(id); ok {
		h.writeError(w, http.StatusBadGateway, "NOT_DELETED", "record was not deleted: "+id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ToggleCheckbox(w http.ResponseWriter, r *http.Request) {
	rec, err := h.svc.ToggleCheckbox(r.Context(), chi.URLParam(r, "recordID"), chi.URLParam(r, "fieldID"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}
