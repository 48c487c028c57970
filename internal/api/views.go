package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"dataviews/internal/domain"
	"dataviews/internal/service"
	"dataviews/internal/view"
)

// ---------------------------------------------------------------------------
// View state
// ---------------------------------------------------------------------------

func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"state":  h.svc.State(),
		"views":  h.svc.AvailableViews(),
		"loaded": h.svc.Loaded(),
	})
}

type setViewRequest struct {
	View domain.ViewKind `json:"view"`
}

func (h *Handler) SetActiveView(w http.ResponseWriter, r *http.Request) {
	var req setViewRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if err := h.svc.SetActiveView(r.Context(), req.View); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"active": h.svc.ActiveView()})
}

// ---------------------------------------------------------------------------
// Grid
// ---------------------------------------------------------------------------

// GetGrid renders the grid with the stored sort and filter. Query parameters
// sort, dir, filterField, op and value override them for this request only.
func (h *Handler) GetGrid(w http.ResponseWriter, r *http.Request) {
	g := h.svc.GridState()
	q := r.URL.Query()
	if q.Has("sort") {
		g.SetSortField(q.Get("sort"))
	}
	if dir := view.SortDirection(q.Get("dir")); dir == view.SortAsc || dir == view.SortDesc {
		g.Sort.Direction = dir
	}
	if q.Has("filterField") {
		g.SetFilterField(h.svc.Schema(), q.Get("filterField"))
	}
	if op := q.Get("op"); op != "" {
		g.Filter.Operator = view.Operator(op)
	}
	if q.Has("value") {
		g.Filter.Value = q.Get("value")
	}
	if err := g.Filter.Resolve(h.svc.Schema()); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	h.writeJSON(w, http.StatusOK, h.svc.Grid(g))
}

// PutGrid stores a new sort and filter and returns the re-rendered grid.
func (h *Handler) PutGrid(w http.ResponseWriter, r *http.Request) {
	var g view.GridState
	if err := decodeJSON(r, &g); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if err := g.Filter.Resolve(h.svc.Schema()); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_FILTER", err.Error())
		return
	}
	h.svc.SetGridState(g)
	h.writeJSON(w, http.StatusOK, h.svc.Grid(g))
}

// ---------------------------------------------------------------------------
// Kanban
// ---------------------------------------------------------------------------

func (h *Handler) GetKanban(w http.ResponseWriter, r *http.Request) {
	board, err := h.svc.Kanban()
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, board)
}

type moveCardRequest struct {
	RecordID string `json:"recordId"`
	ColumnID string `json:"columnId"`
}

func (h *Handler) MoveCard(w http.ResponseWriter, r *http.Request) {
	var req moveCardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	rec, err := h.svc.MoveCard(r.Context(), req.RecordID, req.ColumnID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

// ---------------------------------------------------------------------------
// Calendar
// ---------------------------------------------------------------------------

// GetCalendar lays out the displayed month, or ?month=YYYY-MM without moving
// the cursor.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	var (
		m   *view.Month
		err error
	)
	if raw := r.URL.Query().Get("month"); raw != "" {
		t, perr := time.Parse("2006-01", raw)
		if perr != nil {
			h.writeError(w, http.StatusBadRequest, "INVALID_MONTH", fmt.Sprintf("invalid month %q: want YYYY-MM", raw))
			return
		}
		m, err = h.svc.CalendarAt(t.Year(), t.Month())
	} else {
		m, err = h.svc.Calendar()
	}
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, m)
}

type navigateRequest struct {
	Delta int        `json:"delta,omitempty"`
	Today bool       `json:"today,omitempty"`
	Year  int        `json:"year,omitempty"`
	Month time.Month `json:"month,omitempty"`
}

// NavigateCalendar moves the displayed month: back to today, to an explicit
// year and month, or by delta months.
func (h *Handler) NavigateCalendar(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	var c service.CalendarCursor
	switch {
	case req.Today:
		c = h.svc.Today()
	case req.Year > 0:
		c = h.svc.SetCalendarMonth(req.Year, req.Month)
	default:
		c = h.svc.ShiftCalendar(req.Delta)
	}
	m, err := h.svc.CalendarAt(c.Year, c.Month)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"cursor": c, "month": m})
}

type dayRequest struct {
	RecordID string `json:"recordId,omitempty"`
	Day      string `json:"day"`
}

func (h *Handler) MoveToDay(w http.ResponseWriter, r *http.Request) {
	var req dayRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	rec, err := h.svc.MoveToDay(r.Context(), req.RecordID, req.Day)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"record": rec})
}

// OpenAddAtDay opens the add modal pre-filled with the clicked day.
func (h *Handler) OpenAddAtDay(w http.ResponseWriter, r *http.Request) {
	var req dayRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	m, err := h.svc.OpenAddAtDay(r.Context(), req.Day)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"modal": m})
}

// ---------------------------------------------------------------------------
// Gallery
// ---------------------------------------------------------------------------

func (h *Handler) GetGallery(w http.ResponseWriter, r *http.Request) {
	cards := h.svc.Gallery()
	h.writeJSON(w, http.StatusOK, map[string]any{
		"cards": page(cards, parsePagination(r)),
		"total": len(cards),
	})
}

// ---------------------------------------------------------------------------
// Form and modal
// ---------------------------------------------------------------------------

type formResponse struct {
	Mode     view.FormMode      `json:"mode"`
	Values   domain.Fields      `json:"values"`
	Controls []view.FormControl `json:"controls"`
}

func (h *Handler) renderForm(f *view.Form) formResponse {
	return formResponse{Mode: f.Mode(), Values: f.Values(), Controls: f.Controls(h.svc.Locale())}
}

func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.renderForm(h.svc.NewForm(nil)))
}

func (h *Handler) SubmitForm(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	rec, err := h.svc.SubmitForm(r.Context(), req.Fields)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"record": rec})
}

// GetModal returns the modal state and, when open, its rendered form.
func (h *Handler) GetModal(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"modal": h.svc.Modal()}
	form, err := h.svc.ModalForm()
	switch {
	case err == nil:
		resp["form"] = h.renderForm(form)
	case !errors.Is(err, service.ErrModalClosed):
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type openModalRequest struct {
	Mode     view.FormMode `json:"mode"`
	RecordID string        `json:"recordId,omitempty"`
	Initial  domain.Fields `json:"initial,omitempty"`
}

func (h *Handler) OpenModal(w http.ResponseWriter, r *http.Request) {
	var req openModalRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	if req.Mode == "" {
		req.Mode = view.ModeAdd
	}
	m, err := h.svc.OpenModal(r.Context(), req.Mode, req.RecordID, req.Initial)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"modal": m})
}

func (h *Handler) CloseModal(w http.ResponseWriter, r *http.Request) {
	h.svc.CloseModal(r.Context())
	h.writeJSON(w, http.StatusOK, map[string]any{"modal": h.svc.Modal()})
}

func (h *Handler) SubmitModal(w http.ResponseWriter, r *http.Request) {
	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, http.StatusBadRequest, "INVALID_JSON", err.Error())
		return
	}
	rec, err := h.svc.SubmitModal(r.Context(), req.Fields)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"record": rec, "modal": h.svc.Modal()})
}
