package service_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dataviews/internal/domain"
	"dataviews/internal/service"
	"dataviews/internal/storage"
)

type countingRefresher struct {
	calls atomic.Int32
}

func (c *countingRefresher) Refresh(context.Context) error {
	c.calls.Add(1)
	return nil
}

func TestResyncer_RunsOnSchedule(t *testing.T) {
	target := &countingRefresher{}
	r := service.NewResyncer(target, nil)
	require.NoError(t, r.Start(context.Background(), "@every 1s"))
	defer r.Stop()

	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestResyncer_EmptyAndInvalidSchedules(t *testing.T) {
	r := service.NewResyncer(&countingRefresher{}, nil)
	assert.NoError(t, r.Start(context.Background(), ""))
	assert.Error(t, r.Start(context.Background(), "every tuesday"))
	r.Stop()
}

func TestResyncer_InvalidScheduleKeepsCurrent(t *testing.T) {
	target := &countingRefresher{}
	r := service.NewResyncer(target, nil)
	require.NoError(t, r.Start(context.Background(), "@every 1s"))
	defer r.Stop()

	assert.Error(t, r.Start(context.Background(), "every tuesday"))
	assert.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)
}

func TestResyncer_ConcurrentStartsLeaveOneSchedule(t *testing.T) {
	target := &countingRefresher{}
	r := service.NewResyncer(target, nil)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, r.Start(context.Background(), "@every 1s"))
		}()
	}
	wg.Wait()
	require.Eventually(t, func() bool { return target.calls.Load() >= 1 }, 3*time.Second, 50*time.Millisecond)

	// One Stop must halt everything; superseded schedules would keep firing
	// and show up as leaked goroutines.
	r.Stop()
	after := target.calls.Load()
	time.Sleep(1500 * time.Millisecond)
	assert.Equal(t, after, target.calls.Load())
}

func TestResyncer_PicksUpExternalWrites(t *testing.T) {
	store := storage.NewMemoryStore(0)
	svc, _ := newService(t, store, domain.ViewsConfig{})
	ctx := context.Background()
	svc.Mount(ctx)

	// Written behind the orchestrator's back, e.g. by another process.
	_, err := store.CreateRecord(ctx, domain.Fields{"title": "external"})
	require.NoError(t, err)
	assert.Empty(t, svc.Records())

	r := service.NewResyncer(svc, nil)
	require.NoError(t, r.Start(ctx, "@every 1s"))
	defer r.Stop()

	assert.Eventually(t, func() bool { return len(svc.Records()) == 1 }, 3*time.Second, 50*time.Millisecond)
	svc.WaitRunning(ctx)
}
