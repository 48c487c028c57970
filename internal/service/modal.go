package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"dataviews/internal/domain"
	"dataviews/internal/view"
)

// ── Record modal ───────────────────────────────────────────

// OpenModal opens the record editor. Edit and view modes need an existing
// record; add mode takes an optional pre-fill.
func (s *DataViewsService) OpenModal(ctx context.Context, mode view.FormMode, recordID string, initial domain.Fields) (ModalState, error) {
	if _, err := view.ParseFormMode(string(mode)); err != nil {
		return ModalState{}, err
	}

	s.mu.Lock()
	m := ModalState{Open: true, Mode: mode}
	switch mode {
	case view.ModeAdd:
		m.Initial = initial.Clone()
	default:
		i := s.indexLocked(recordID)
		if i < 0 {
			s.mu.Unlock()
			return ModalState{}, fmt.Errorf("open %s modal: %w: %s", mode, domain.ErrNotFound, recordID)
		}
		m.RecordID = recordID
	}
	s.state.Modal = m
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventModalChanged, m)
	return m, nil
}

// CloseModal hides the editor. Closing does not cancel in-flight mutations.
func (s *DataViewsService) CloseModal(ctx context.Context) {
	s.mu.Lock()
	s.state.Modal.Open = false
	m := s.state.Modal
	s.mu.Unlock()

	s.emitter.Emit(ctx, EventModalChanged, m)
}

// Modal returns the modal state.
func (s *DataViewsService) Modal() ModalState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m := s.state.Modal
	m.Initial = m.Initial.Clone()
	return m
}

// ModalForm builds the form the open modal shows: the pre-fill in add mode,
// the record's current fields otherwise.
func (s *DataViewsService) ModalForm() (*view.Form, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modalFormLocked()
}

func (s *DataViewsService) modalFormLocked() (*view.Form, error) {
	m := s.state.Modal
	if !m.Open {
		return nil, ErrModalClosed
	}
	if m.Mode == view.ModeAdd {
		return view.NewForm(s.schema, m.Mode, m.Initial), nil
	}
	i := s.indexLocked(m.RecordID)
	if i < 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, m.RecordID)
	}
	return view.NewForm(s.schema, m.Mode, s.records[i].Fields), nil
}

// SubmitModal applies values on top of the modal's form and persists the
// result: a create in add mode, a merge update in edit mode. The modal
// closes only when the client call succeeds.
func (s *DataViewsService) SubmitModal(ctx context.Context, values domain.Fields) (*domain.Record, error) {
	s.mu.RLock()
	form, err := s.modalFormLocked()
	m := s.state.Modal
	s.mu.RUnlock()
	if err != nil {
		return nil, err
	}

	for k, v := range values {
		if err := form.Set(k, v); err != nil {
			return nil, err
		}
	}
	fields, err := form.Submit()
	if err != nil {
		return nil, err
	}

	var r *domain.Record
	switch m.Mode {
	case view.ModeAdd:
		r, err = s.CreateRecord(ctx, fields)
	case view.ModeEdit:
		r, err = s.UpdateRecord(ctx, m.RecordID, fields)
	}
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	// Another modal may have been opened while the call was in flight.
	closed := s.state.Modal.Open && s.state.Modal.Mode == m.Mode && s.state.Modal.RecordID == m.RecordID
	if closed {
		s.state.Modal.Open = false
	}
	after := s.state.Modal
	s.mu.Unlock()

	if closed {
		s.logger.Debug("modal submitted", zap.String("mode", string(m.Mode)), zap.String("id", r.ID))
		s.emitter.Emit(ctx, EventModalChanged, after)
	}
	return r, nil
}
