// -----------------------------------------------------------------------
// Reaper - Periodic sweep that fails requests stuck in processing
// -----------------------------------------------------------------------

package reaper

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/diligence/internal/common"
	"github.com/ternarybob/diligence/internal/interfaces"
	"github.com/ternarybob/diligence/internal/models"
)

const staleRequestError = "generation timed out: request stuck in processing"

// Reaper periodically fails requests left in processing by a crashed or
// hung run, so they can be retried. A request is stale when its last
// update is older than the configured max age.
type Reaper struct {
	requests interfaces.RequestStorage
	cron     *cron.Cron
	maxAge   time.Duration
	schedule string
	logger   arbor.ILogger
}

// NewReaper creates the stale-request sweep from config
func NewReaper(config *common.ReaperConfig, requests interfaces.RequestStorage, logger arbor.ILogger) (*Reaper, error) {
	if config == nil {
		return nil, fmt.Errorf("reaper config is required")
	}
	if requests == nil {
		return nil, fmt.Errorf("request storage is required")
	}
	if logger == nil {
		logger = common.GetLogger()
	}

	maxAge := 30 * time.Minute
	if parsed, err := time.ParseDuration(config.MaxAge); err == nil && parsed > 0 {
		maxAge = parsed
	}

	schedule := config.Schedule
	if schedule == "" {
		// Default: every 5 minutes
		schedule = "0 */5 * * * *"
	}

	return &Reaper{
		requests: requests,
		cron:     cron.New(cron.WithSeconds()),
		maxAge:   maxAge,
		schedule: schedule,
		logger:   logger,
	}, nil
}

// Start begins the scheduled sweep
func (r *Reaper) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		r.runSweep()
	})
	if err != nil {
		return fmt.Errorf("failed to schedule reaper: %w", err)
	}

	r.cron.Start()
	r.logger.Info().
		Str("schedule", r.schedule).
		Dur("max_age", r.maxAge).
		Msg("Stale request reaper started")
	return nil
}

// Stop stops the scheduler
func (r *Reaper) Stop() {
	r.cron.Stop()
	r.logger.Info().Msg("Stale request reaper stopped")
}

// RunNow triggers an immediate sweep, returning how many requests were
// failed
func (r *Reaper) RunNow(ctx context.Context) (int, error) {
	return r.sweep(ctx)
}

func (r *Reaper) runSweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	reaped, err := r.sweep(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("Stale request sweep failed")
		return
	}
	if reaped > 0 {
		r.logger.Info().Int("reaped", reaped).Msg("Stale requests failed")
	}
}

func (r *Reaper) sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.maxAge).Unix()
	stale, err := r.requests.ListStaleProcessing(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to list stale requests: %w", err)
	}

	reaped := 0
	for _, req := range stale {
		if err := r.requests.SetError(ctx, req.ID, staleRequestError); err != nil {
			r.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Failed to record stale error")
		}
		if err := r.requests.UpdateStatus(ctx, req.ID, models.RequestStatusFailed); err != nil {
			r.logger.Warn().Str("request_id", req.ID).Err(err).Msg("Failed to fail stale request")
			continue
		}
		r.logger.Warn().
			Str("request_id", req.ID).
			Str("last_update", req.UpdatedAt.Format(time.RFC3339)).
			Msg("Stale processing request failed by reaper")
		reaped++
	}
	return reaped, nil
}
