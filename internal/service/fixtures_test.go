package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"dataviews/internal/domain"
	"dataviews/internal/service"
	"dataviews/internal/storage"
)

var errBackend = errors.New("backend unavailable")

func taskSchema() *domain.TableSchema {
	return &domain.TableSchema{
		ID:   "tasks",
		Name: "Tasks",
		Fields: []domain.FieldSchema{
			{ID: "title", Name: "Title", Type: domain.FieldText, IsPrimary: true},
			{ID: "status", Name: "Status", Type: domain.FieldSelect, Options: []domain.FieldOption{
				{ID: "todo", Name: "To Do", Color: "gray"},
				{ID: "done", Name: "Done", Color: "green"},
			}},
			{ID: "dueDate", Name: "Due Date", Type: domain.FieldDate},
			{ID: "completed", Name: "Completed", Type: domain.FieldCheckbox},
		},
	}
}

func plainSchema() *domain.TableSchema {
	return &domain.TableSchema{
		ID:     "notes",
		Fields: []domain.FieldSchema{{ID: "title", Name: "Title", Type: domain.FieldText}},
	}
}

var fixedNow = time.Date(2024, 3, 14, 10, 0, 0, 0, time.UTC)

func newService(t *testing.T, client domain.RecordClient, cfg domain.ViewsConfig) (*service.DataViewsService, *service.MockEmitter) {
	t.Helper()
	if client == nil {
		client = storage.NewMemoryStore(0)
	}
	em := &service.MockEmitter{}
	svc := service.NewDataViewsService(taskSchema(), client, service.Options{
		Config:  cfg,
		Emitter: em,
		Now:     func() time.Time { return fixedNow },
	})
	return svc, em
}

// flakyClient wraps a store and fails the operations switched on.
type flakyClient struct {
	domain.RecordClient

	mu                               sync.Mutex
	failList, failCreate, failUpdate bool
	failDelete                       bool
}

func (c *flakyClient) set(fn func(c *flakyClient)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c)
}

func (c *flakyClient) fails(flag *bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *flag
}

func (c *flakyClient) ListRecords(ctx context.Context) ([]domain.Record, error) {
	if c.fails(&c.failList) {
		return nil, errBackend
	}
	return c.RecordClient.ListRecords(ctx)
}

func (c *flakyClient) CreateRecord(ctx context.Context, f domain.Fields) (*domain.Record, error) {
	if c.fails(&c.failCreate) {
		return nil, errBackend
	}
	return c.RecordClient.CreateRecord(ctx, f)
}

func (c *flakyClient) UpdateRecord(ctx context.Context, id string, f domain.Fields) (*domain.Record, error) {
	if c.fails(&c.failUpdate) {
		return nil, errBackend
	}
	return c.RecordClient.UpdateRecord(ctx, id, f)
}

func (c *flakyClient) DeleteRecord(ctx context.Context, id string) error {
	if c.fails(&c.failDelete) {
		return errBackend
	}
	return c.RecordClient.DeleteRecord(ctx, id)
}
