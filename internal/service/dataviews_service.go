package service

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"dataviews/internal/domain"
	"dataviews/internal/view"
)

// ─────────────────────────────────────────────────────────────
// DataViews Service: the orchestrator
// ─────────────────────────────────────────────────────────────

var (
	// ErrViewUnavailable is returned when a view's prerequisite field is
	// missing from the schema (kanban needs a select, calendar a date).
	ErrViewUnavailable = errors.New("view unavailable for this schema")
	// ErrModalClosed is returned when a modal action is taken with no modal open.
	ErrModalClosed = errors.New("no record modal is open")
)

// ModalState describes the record editor overlay.
type ModalState struct {
	Open     bool          `json:"open"`
	Mode     view.FormMode `json:"mode"`
	RecordID string        `json:"recordId,omitempty"`
	Initial  domain.Fields `json:"initial,omitempty"`
}

// ViewState is the UI state the orchestrator owns: active tab, modal,
// grid sort/filter and the displayed calendar month.
type ViewState struct {
	Active   domain.ViewKind `json:"active"`
	Modal    ModalState      `json:"modal"`
	Grid     view.GridState  `json:"grid"`
	Calendar CalendarCursor  `json:"calendar"`
}

// CalendarCursor is the month the calendar shows.
type CalendarCursor struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

// RecordEvent is the payload of EventRecordsChanged.
type RecordEvent struct {
	Action string         `json:"action"` // created | updated | deleted | refreshed
	ID     string         `json:"id,omitempty"`
	Record *domain.Record `json:"record,omitempty"`
	Count  int            `json:"count"`
}

// Options configures a DataViewsService. Zero values are usable.
type Options struct {
	Config  domain.ViewsConfig
	Emitter EventEmitter
	Logger  *zap.Logger
	// Now is the clock used for "today" and the initial calendar month.
	Now func() time.Time
}

// DataViewsService holds the canonical record list for one table and
// dispatches every mutation through the RecordClient. The list only changes
// after the client call succeeds. The lock is never held across client calls.
type DataViewsService struct {
	client  domain.RecordClient
	emitter EventEmitter
	logger  *zap.Logger
	now     func() time.Time
	guard   runningJobsGuard

	mu      sync.RWMutex
	schema  *domain.TableSchema
	config  domain.ViewsConfig
	locale  view.Locale
	records []domain.Record
	loaded  bool
	state   ViewState
}

// NewDataViewsService creates the orchestrator. Records are not fetched
// until Mount or Refresh is called.
func NewDataViewsService(schema *domain.TableSchema, client domain.RecordClient, opts Options) *DataViewsService {
	s := &DataViewsService{
		client:  client,
		emitter: opts.Emitter,
		logger:  opts.Logger,
		now:     opts.Now,
		schema:  schema,
		config:  opts.Config,
		locale:  view.NewLocale(opts.Config.Language),
		records: []domain.Record{},
	}
	if s.emitter == nil {
		s.emitter = nopEmitter{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	s.logger = s.logger.Named("service").With(zap.String("table", schema.ID))
	if s.now == nil {
		s.now = time.Now
	}

	today := s.now()
	s.state = ViewState{
		Active:   s.resolveView(opts.Config.DefaultView),
		Modal:    ModalState{Mode: view.ModeAdd},
		Calendar: CalendarCursor{Year: today.Year(), Month: today.Month()},
	}
	return s
}

// ── Records ────────────────────────────────────────────────

// Mount performs the initial fetch. Failures are logged and leave the list empty.
func (s *DataViewsService) Mount(ctx context.Context) {
	_ = s.Refresh(ctx)
}

// Refresh reloads the record list from the client. A refresh already in
// flight makes this call a no-op. On failure the list is left unchanged.
func (s *DataViewsService) Refresh(ctx context.Context) error {
	key := s.Schema().ID
	if !s.guard.TryLock(key) {
		s.logger.Debug("refresh already running")
		return nil
	}
	defer s.guard.Unlock(key)

	records, err := s.client.ListRecords(ctx)
	if err != nil {
		s.logger.Error("failed to fetch records", zap.Error(err))
		return fmt.Errorf("fetch records: %w", err)
	}

	s.mu.Lock()
	s.records = domain.CloneRecords(records)
	s.loaded = true
	n := len(s.records)
	s.mu.Unlock()

	s.logger.Debug("records fetched", zap.Int("count", n))
	s.emitter.Emit(ctx, EventRecordsChanged, RecordEvent{Action: "refreshed", Count: n})
	return nil
}

// WaitRunning blocks until in-flight refreshes finish or ctx is done.
func (s *DataViewsService) WaitRunning(ctx context.Context) {
	s.guard.WaitAll(ctx)
}

// Loaded reports whether a fetch has succeeded at least once.
func (s *DataViewsService) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

// Records returns a snapshot of the canonical list, newest first.
func (s *DataViewsService) Records() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domain.CloneRecords(s.records)
}

// Record returns a copy of one record from the canonical list.
func (s *DataViewsService) Record(id string) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.indexLocked(id)
	if i < 0 {
		return domain.Record{}, false
	}
	return s.records[i].Clone(), true
}

func (s *DataViewsService) indexLocked(id string) int {
	return slices.IndexFunc(s.records, func(r domain.Record) bool { return r.ID == id })
}

// CreateRecord persists a new record and prepends it to the list.
// Failures are logged and returned.
func (s *DataViewsService) CreateRecord(ctx context.Context, fields domain.Fields) (*domain.Record, error) {
	r, err := s.client.CreateRecord(ctx, fields)
	if err != nil {
		s.logger.Error("failed to create record", zap.Error(err))
		return nil, fmt.Errorf("create record: %w", err)
	}

	s.mu.Lock()
	s.records = slices.Insert(s.records, 0, r.Clone())
	n := len(s.records)
	s.mu.Unlock()

	out := r.Clone()
	s.emitter.Emit(ctx, EventRecordsChanged, RecordEvent{Action: "created", ID: r.ID, Record: &out, Count: n})
	return &out, nil
}

// UpdateRecord merges fields into a record through the client and replaces
// the record in place with the client's result. Failures are logged and returned.
func (s *DataViewsService) UpdateRecord(ctx context.Context, id string, fields domain.Fields) (*domain.Record, error) {
	r, err := s.client.UpdateRecord(ctx, id, fields)
	if err != nil {
		s.logger.Error("failed to update record", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("update record: %w", err)
	}

	s.mu.Lock()
	if i := s.indexLocked(id); i >= 0 {
		s.records[i] = r.Clone()
	}
	n := len(s.records)
	s.mu.Unlock()

	out := r.Clone()
	s.emitter.Emit(ctx, EventRecordsChanged, RecordEvent{Action: "updated", ID: id, Record: &out, Count: n})
	return &out, nil
}

// DeleteRecord removes a record through the client. Failures are logged and
// swallowed, leaving the list unchanged; callers that need to know can check
// Record(id) afterwards.
func (s *DataViewsService) DeleteRecord(ctx context.Context, id string) {
	if err := s.client.DeleteRecord(ctx, id); err != nil {
		s.logger.Error("failed to delete record", zap.String("id", id), zap.Error(err))
		return
	}

	s.mu.Lock()
	s.records = slices.DeleteFunc(s.records, func(r domain.Record) bool { return r.ID == id })
	n := len(s.records)
	if s.state.Modal.Open && s.state.Modal.RecordID == id {
		s.state.Modal.Open = false
	}
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventRecordsChanged, RecordEvent{Action: "deleted", ID: id, Count: n})
}

// ToggleCheckbox flips a checkbox field of a record, the grid's inline toggle.
func (s *DataViewsService) ToggleCheckbox(ctx context.Context, id, fieldID string) (*domain.Record, error) {
	s.mu.RLock()
	field, ok := s.schema.Field(fieldID)
	i := s.indexLocked(id)
	var current any
	if i >= 0 {
		current = s.records[i].Value(fieldID)
	}
	loc := s.locale
	s.mu.RUnlock()

	if !ok || field.Type != domain.FieldCheckbox {
		return nil, fmt.Errorf("%w: field %q is not a checkbox field", domain.ErrBadInput, fieldID)
	}
	if i < 0 {
		return nil, fmt.Errorf("toggle checkbox: %w: %s", domain.ErrNotFound, id)
	}
	checked := view.RenderCell(field, current, loc).Checked
	return s.UpdateRecord(ctx, id, domain.Fields{fieldID: !checked})
}

// ── Schema & config ────────────────────────────────────────

// Schema returns the current table schema. Callers must not modify it.
func (s *DataViewsService) Schema() *domain.TableSchema {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema
}

// Config returns the views configuration.
func (s *DataViewsService) Config() domain.ViewsConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.config
}

// Locale returns the locale views are rendered in.
func (s *DataViewsService) Locale() view.Locale {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.locale
}

// ReplaceSchema swaps in a new schema, e.g. after the schema file changed.
// Records are kept as-is; grid state that names removed fields is cleared
// and an active view that lost its prerequisite falls back to the grid.
func (s *DataViewsService) ReplaceSchema(ctx context.Context, schema *domain.TableSchema) error {
	if err := schema.Validate(); err != nil {
		return fmt.Errorf("replace schema: %w: %v", domain.ErrBadInput, err)
	}

	s.mu.Lock()
	s.schema = schema
	if _, ok := schema.Field(s.state.Grid.Sort.FieldID); !ok {
		s.state.Grid.Sort = view.Sort{}
	}
	if _, ok := schema.Field(s.state.Grid.Filter.FieldID); !ok {
		s.state.Grid.ClearFilter()
	}
	viewChanged := false
	if !s.availableLocked(s.state.Active) {
		s.state.Active = domain.ViewGrid
		viewChanged = true
	}
	active := s.state.Active
	s.mu.Unlock()

	s.logger.Info("schema replaced", zap.Int("fields", len(schema.Fields)))
	s.emitter.Emit(ctx, EventSchemaChanged, schema)
	if viewChanged {
		s.emitter.Emit(ctx, EventViewChanged, active)
	}
	return nil
}

// ── Views ──────────────────────────────────────────────────

// State returns a copy of the current view state.
func (s *DataViewsService) State() ViewState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.Modal.Initial = st.Modal.Initial.Clone()
	return st
}

// AvailableViews lists the tabs the schema supports, in tab order.
func (s *DataViewsService) AvailableViews() []domain.ViewKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.ViewKind, 0, len(domain.ViewKinds))
	for _, k := range domain.ViewKinds {
		if s.availableLocked(k) {
			out = append(out, k)
		}
	}
	return out
}

func (s *DataViewsService) availableLocked(k domain.ViewKind) bool {
	switch k {
	case domain.ViewKanban:
		_, ok := s.schema.SelectField()
		return ok
	case domain.ViewCalendar:
		_, ok := s.schema.DateField()
		return ok
	}
	return k.Valid()
}

// resolveView maps a configured default onto an available view.
func (s *DataViewsService) resolveView(k domain.ViewKind) domain.ViewKind {
	if k == "" || !s.availableLocked(k) {
		return domain.ViewGrid
	}
	return k
}

// ActiveView returns the active tab.
func (s *DataViewsService) ActiveView() domain.ViewKind {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Active
}

// SetActiveView switches tabs.
func (s *DataViewsService) SetActiveView(ctx context.Context, k domain.ViewKind) error {
	if !k.Valid() {
		return fmt.Errorf("%w: unknown view: %q", domain.ErrBadInput, k)
	}
	s.mu.Lock()
	if !s.availableLocked(k) {
		s.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrViewUnavailable, k)
	}
	s.state.Active = k
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventViewChanged, k)
	return nil
}

// GridState returns the grid's sort and filter.
func (s *DataViewsService) GridState() view.GridState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Grid
}

// SetGridState replaces the grid's sort and filter.
func (s *DataViewsService) SetGridState(g view.GridState) {
	s.mu.Lock()
	s.state.Grid = g
	s.mu.Unlock()
}

// Grid projects the records through g.
func (s *DataViewsService) Grid(g view.GridState) view.GridProjection {
	schema, records, loc := s.snapshot()
	return view.Grid(schema, records, g, loc)
}

// Kanban groups the records by the schema's select field.
func (s *DataViewsService) Kanban() (*view.Board, error) {
	schema, records, loc := s.snapshot()
	return view.Kanban(schema, records, loc)
}

// MoveCard drops a record onto a kanban column.
func (s *DataViewsService) MoveCard(ctx context.Context, recordID, columnID string) (*domain.Record, error) {
	schema, _, loc := s.snapshot()
	board, err := view.Kanban(schema, nil, loc)
	if err != nil {
		return nil, err
	}
	patch, err := board.Drop(columnID)
	if err != nil {
		return nil, err
	}
	return s.UpdateRecord(ctx, recordID, patch)
}

// Gallery renders the records as cards.
func (s *DataViewsService) Gallery() []view.GalleryCard {
	schema, records, loc := s.snapshot()
	return view.Gallery(schema, records, loc)
}

// CalendarMonth returns the displayed month.
func (s *DataViewsService) CalendarMonth() CalendarCursor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Calendar
}

// SetCalendarMonth changes the displayed month. Out-of-range months roll
// over into the neighbouring year.
func (s *DataViewsService) SetCalendarMonth(year int, month time.Month) CalendarCursor {
	t := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	c := CalendarCursor{Year: t.Year(), Month: t.Month()}
	s.mu.Lock()
	s.state.Calendar = c
	s.mu.Unlock()
	return c
}

// ShiftCalendar moves the displayed month by delta months.
func (s *DataViewsService) ShiftCalendar(delta int) CalendarCursor {
	c := s.CalendarMonth()
	return s.SetCalendarMonth(c.Year, c.Month+time.Month(delta))
}

// Today moves the calendar back to the current month.
func (s *DataViewsService) Today() CalendarCursor {
	now := s.now()
	return s.SetCalendarMonth(now.Year(), now.Month())
}

// Calendar lays out the displayed month.
func (s *DataViewsService) Calendar() (*view.Month, error) {
	c := s.CalendarMonth()
	return s.CalendarAt(c.Year, c.Month)
}

// CalendarAt lays out an arbitrary month without moving the cursor.
func (s *DataViewsService) CalendarAt(year int, month time.Month) (*view.Month, error) {
	schema, records, loc := s.snapshot()
	return view.Calendar(schema, records, year, month, s.now(), loc)
}

// MoveToDay drops a record onto a calendar day.
func (s *DataViewsService) MoveToDay(ctx context.Context, recordID, day string) (*domain.Record, error) {
	patch, err := s.dayPatch(day)
	if err != nil {
		return nil, err
	}
	return s.UpdateRecord(ctx, recordID, patch)
}

// OpenAddAtDay opens the add modal pre-filled with day, the calendar's
// empty-day click.
func (s *DataViewsService) OpenAddAtDay(ctx context.Context, day string) (ModalState, error) {
	patch, err := s.dayPatch(day)
	if err != nil {
		return ModalState{}, err
	}
	return s.OpenModal(ctx, view.ModeAdd, "", patch)
}

func (s *DataViewsService) dayPatch(day string) (domain.Fields, error) {
	schema, _, loc := s.snapshot()
	m, err := view.Calendar(schema, nil, 2000, time.January, s.now(), loc)
	if err != nil {
		return nil, err
	}
	return m.NewRecordAt(day)
}

// NewForm returns the standalone add form (the form tab).
func (s *DataViewsService) NewForm(prefill domain.Fields) *view.Form {
	return view.NewForm(s.Schema(), view.ModeAdd, prefill)
}

// SubmitForm validates values through an add-mode form and creates the record.
func (s *DataViewsService) SubmitForm(ctx context.Context, values domain.Fields) (*domain.Record, error) {
	fields, err := s.NewForm(values).Submit()
	if err != nil {
		return nil, err
	}
	return s.CreateRecord(ctx, fields)
}

// snapshot returns the schema, a copy of the records and the locale.
func (s *DataViewsService) snapshot() (*domain.TableSchema, []domain.Record, view.Locale) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.schema, domain.CloneRecords(s.records), s.locale
}
