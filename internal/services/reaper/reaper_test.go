package reaper

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
	badgerstorage "github.com/ternarybob/diligence/internal/storage/badger"
)

func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()

	manager, err := badgerstorage.NewManager(arbor.NewLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

func seedProcessingRequest(t *testing.T, requests interfaces.RequestStorage, id string) {
	t.Helper()
	ctx := context.Background()

	req := &models.AnalysisRequest{
		ID:             id,
		UserID:         "user-1",
		Email:          "a@example.com",
		FounderCompany: "Acme",
		Status:         models.RequestStatusPending,
	}
	require.NoError(t, requests.SaveRequest(ctx, req))
	require.NoError(t, requests.UpdateStatus(ctx, id, models.RequestStatusProcessing))
}

func TestSweepFailsStaleProcessing(t *testing.T) {
	storage := newTestStorage(t)
	requests := storage.RequestStorage()
	seedProcessingRequest(t, requests, "req-stale")

	// the cutoff has one second granularity, so age past a second boundary
	time.Sleep(1100 * time.Millisecond)

	reaper, err := NewReaper(&common.ReaperConfig{Enabled: true, MaxAge: "1ms"}, requests, arbor.NewLogger())
	require.NoError(t, err)

	reaped, err := reaper.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, reaped)

	stored, err := requests.GetRequest(context.Background(), "req-stale")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusFailed, stored.Status)
	assert.Contains(t, stored.Error, "stuck in processing")
}

func TestSweepLeavesFreshProcessing(t *testing.T) {
	storage := newTestStorage(t)
	requests := storage.RequestStorage()
	seedProcessingRequest(t, requests, "req-fresh")

	reaper, err := NewReaper(&common.ReaperConfig{Enabled: true, MaxAge: "30m"}, requests, arbor.NewLogger())
	require.NoError(t, err)

	reaped, err := reaper.RunNow(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, reaped)

	stored, err := requests.GetRequest(context.Background(), "req-fresh")
	require.NoError(t, err)
	assert.Equal(t, models.RequestStatusProcessing, stored.Status)
}

func TestSweepIgnoresTerminalRequests(t *testing.T) {
	storage := newTestStorage(t)
	requests := storage.RequestStorage()
	ctx := context.Background()

	req := &models.AnalysisRequest{
		ID:             "req-done",
		Email:          "a@example.com",
		FounderCompany: "Acme",
		Status:         models.RequestStatusPending,
	}
	require.NoError(t, requests.SaveRequest(ctx, req))
	require.NoError(t, requests.UpdateStatus(ctx, "req-done", models.RequestStatusProcessing))
	require.NoError(t, requests.UpdateStatus(ctx, "req-done", models.RequestStatusCompleted))

	time.Sleep(1100 * time.Millisecond)

	reaper, err := NewReaper(&common.ReaperConfig{Enabled: true, MaxAge: "1ms"}, requests, arbor.NewLogger())
	require.NoError(t, err)

	reaped, err := reaper.RunNow(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, reaped)
}

func TestReaperStartStop(t *testing.T) {
	storage := newTestStorage(t)

	reaper, err := NewReaper(&common.ReaperConfig{Enabled: true, Schedule: "*/1 * * * * *", MaxAge: "30m"},
		storage.RequestStorage(), arbor.NewLogger())
	require.NoError(t, err)

	require.NoError(t, reaper.Start())
	reaper.Stop()
}
