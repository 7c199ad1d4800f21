package snapshot

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// DefaultSchedule captures every five minutes.
const DefaultSchedule = "*/5 * * * *"

// CaptureResult describes one scheduled capture.
type CaptureResult struct {
	SnapshotID  string
	ScheduledAt time.Time
	Duration    time.Duration
	Pruned      int
	// Skipped is set when a capture was still running.
	Skipped bool
	Err     error
}

// CaptureObserver receives one CaptureResult per scheduler pass.
type CaptureObserver interface {
	ObserveCapture(result CaptureResult)
}

type noopCaptureObserver struct{}

func (noopCaptureObserver) ObserveCapture(CaptureResult) {}

// SchedulerConfig configures the background capture loop.
type SchedulerConfig struct {
	Reader  ProjectReader
	Store   Store
	BaseURL string
	// Schedule is a five-field UTC cron expression; defaults to
	// DefaultSchedule.
	Schedule string
	// Keep bounds the stored snapshots after each capture; 0 keeps all.
	Keep     int
	Now      func() time.Time
	Logger   *slog.Logger
	Observer CaptureObserver
}

// Scheduler captures snapshots on a cron schedule.
type Scheduler struct {
	reader   ProjectReader
	store    Store
	baseURL  string
	expr     string
	schedule cron.Schedule
	keep     int
	now      func() time.Time
	logger   *slog.Logger
	observer CaptureObserver

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewScheduler creates a scheduler instance.
func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Reader == nil {
		return nil, errors.New("snapshot scheduler reader is nil")
	}
	if cfg.Store == nil {
		return nil, errors.New("snapshot scheduler store is nil")
	}
	if cfg.Keep < 0 {
		return nil, errors.New("snapshot scheduler keep must not be negative")
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSchedule
	}
	schedule, err := ParseSchedule(cfg.Schedule)
	if err != nil {
		return nil, err
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Observer == nil {
		cfg.Observer = noopCaptureObserver{}
	}

	return &Scheduler{
		reader:   cfg.Reader,
		store:    cfg.Store,
		baseURL:  cfg.BaseURL,
		expr:     cfg.Schedule,
		schedule: schedule,
		keep:     cfg.Keep,
		now:      cfg.Now,
		logger:   cfg.Logger,
		observer: cfg.Observer,
	}, nil
}

// Next returns the first scheduled capture after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.UTC())
}

// Start captures once immediately and then on every scheduled tick until
// Stop. Values of ctx are kept; its cancellation is not.
func (s *Scheduler) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("snapshot scheduler is nil")
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return nil
	}
	loopCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	s.cancel = cancel
	s.done = done
	s.mu.Unlock()

	s.logger.Info("snapshot scheduler started", "schedule", s.expr, "base_url", s.baseURL, "keep", s.keep)
	go func() {
		defer close(done)
		_ = s.RunOnce(loopCtx)

		for {
			now := s.now().UTC()
			next := s.schedule.Next(now)
			timer := time.NewTimer(next.Sub(now))
			select {
			case <-loopCtx.Done():
				timer.Stop()
				return
			case <-timer.C:
				_ = s.RunOnce(loopCtx)
			}
		}
	}()
	return nil
}

// Stop stops the capture loop and waits for it to exit or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}

	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		s.logger.Info("snapshot scheduler stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce performs a single capture and prune. A pass that overlaps a
// running capture is skipped.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	if s == nil || s.reader == nil || s.store == nil {
		return errors.New("snapshot scheduler is not configured")
	}

	scheduledAt := s.now().UTC()
	if !s.markRunning() {
		s.logger.Warn("snapshot capture skipped, previous capture still running", "scheduled_at", scheduledAt)
		s.observer.ObserveCapture(CaptureResult{ScheduledAt: scheduledAt, Skipped: true})
		return nil
	}
	defer s.unmarkRunning()

	result := CaptureResult{ScheduledAt: scheduledAt}
	snap, err := Capture(ctx, s.reader, s.store, s.baseURL)
	if err != nil {
		result.Err = err
		result.Duration = s.now().UTC().Sub(scheduledAt)
		s.logger.Error("snapshot capture failed", "base_url", s.baseURL, "error", err)
		s.observer.ObserveCapture(result)
		return err
	}
	result.SnapshotID = snap.ID

	if s.keep > 0 {
		pruned, err := s.store.Prune(ctx, s.keep)
		if err != nil {
			s.logger.Error("prune snapshots", "keep", s.keep, "error", err)
		}
		result.Pruned = pruned
	}
	result.Duration = s.now().UTC().Sub(scheduledAt)

	s.logger.Info("snapshot captured",
		"snapshot_id", snap.ID,
		"tempo", snap.Project.Tempo,
		"tracks", len(snap.Project.Tracks),
		"pruned", result.Pruned,
	)
	s.observer.ObserveCapture(result)
	return nil
}

func (s *Scheduler) markRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return false
	}
	s.running = true
	return true
}

func (s *Scheduler) unmarkRunning() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
}
