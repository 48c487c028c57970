package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"dataviews/internal/service"
)

type ctxKey int

const tableKey ctxKey = iota

// Handler implements the JSON API over one DataViewsService.
type Handler struct {
	svc    *service.DataViewsService
	hub    *EventHub
	logger *zap.Logger
}

// NewHandler creates a Handler. hub may be nil, which disables /api/events.
func NewHandler(svc *service.DataViewsService, hub *EventHub, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, hub: hub, logger: logger.Named("api")}
}

// NewRouter returns a chi router with every route mounted.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes mounts the API under /api.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/tables", h.ListTables)
		r.Route("/tables/{tableID}", func(r chi.Router) {
			r.Use(h.requireTable)
			r.Get("/", h.GetTable)
			r.Get("/fields", h.ListFields)
			r.Get("/views", h.ListViews)

			r.Route("/records", func(r chi.Router) {
				r.Get("/", h.ListRecords)
				r.Post("/", h.CreateRecord)
				r.Post("/refresh", h.RefreshRecords)
				r.Get("/{recordID}", h.GetRecord)
				r.Patch("/{recordID}", h.UpdateRecord)
				r.Delete("/{recordID}", h.DeleteRecord)
				r.Post("/{recordID}/toggle/{fieldID}", h.ToggleCheckbox)
			})
		})

		r.Get("/state", h.GetState)
		r.Put("/view", h.SetActiveView)

		r.Get("/grid", h.GetGrid)
		r.Put("/grid", h.PutGrid)

		r.Get("/kanban", h.GetKanban)
		r.Post("/kanban/move", h.MoveCard)

		r.Get("/calendar", h.GetCalendar)
		r.Post("/calendar/navigate", h.NavigateCalendar)
		r.Post("/calendar/move", h.MoveToDay)
		r.Post("/calendar/new", h.OpenAddAtDay)

		r.Get("/gallery", h.GetGallery)

		r.Get("/form", h.GetForm)
		r.Post("/form", h.SubmitForm)

		r.Get("/modal", h.GetModal)
		r.Post("/modal", h.OpenModal)
		r.Delete("/modal", h.CloseModal)
		r.Post("/modal/submit", h.SubmitModal)

		if h.hub != nil {
			r.Get("/events", h.Events)
		}
	})
}

// requireTable rejects table ids other than the served schema's.
func (h *Handler) requireTable(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		schema := h.svc.Schema()
		id := chi.URLParam(r, "tableID")
		if id != schema.ID {
			h.writeError(w, http.StatusNotFound, "NOT_FOUND", "unknown table: "+id)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tableKey, schema)))
	})
}

func (h *Handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
		)
	})
}

// Events streams service events over a websocket. The first frame is the
// current view state.
func (h *Handler) Events(w http.ResponseWriter, r *http.Request) {
	h.hub.Serve(w, r, Message{Type: "state", Data: h.svc.State()})
}
