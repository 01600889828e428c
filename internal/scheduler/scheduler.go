package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/railtms/assettrack/internal/logger"
	"github.com/railtms/assettrack/internal/models"
	"github.com/railtms/assettrack/internal/scanner"
)

// Runner is the job the scheduler triggers.
type Runner interface {
	Scan(ctx context.Context) (*models.ScanResult, error)
}

// Scheduler fires the runner once a day. Each trigger runs in its own goroutine so a
// run that outlasts its period surfaces as a rejected (missed) cycle rather than
// silently delaying the next one.
type Scheduler struct {
	runner Runner
	config *Config
	loc    *time.Location
	log    *logger.Logger

	mu       sync.Mutex
	nextRun  time.Time
	fired    int
	missed   int
	failures int

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Test hooks
	now   func() time.Time
	after func(time.Duration) <-chan time.Time
}

// New creates a scheduler. cfg must have been validated.
func New(runner Runner, cfg *Config, log *logger.Logger) (*Scheduler, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewNop()
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		runner: runner,
		config: cfg,
		loc:    loc,
		log:    log.With("component", "scheduler"),
		ctx:    ctx,
		cancel: cancel,
		now:    time.Now,
		after:  time.After,
	}, nil
}

// Start begins the scheduler loop.
func (sch *Scheduler) Start() {
	sch.wg.Add(1)
	go sch.loop()
	sch.log.Info("scheduler started", "hour", sch.config.Hour, "minute", sch.config.Minute, "timezone", sch.loc.String())
}

// Stop cancels the loop and any in-flight run, then waits for them to exit.
func (sch *Scheduler) Stop() {
	sch.cancel()
	sch.wg.Wait()
	sch.log.Info("scheduler stopped")
}

func (sch *Scheduler) loop() {
	defer sch.wg.Done()

	for {
		next := sch.config.NextRun(sch.now(), sch.loc)
		sch.mu.Lock()
		sch.nextRun = next
		sch.mu.Unlock()

		select {
		case <-sch.ctx.Done():
			return
		case <-sch.after(next.Sub(sch.now())):
			sch.Trigger()
		}
	}
}

// Trigger dispatches one run in the background.
func (sch *Scheduler) Trigger() {
	sch.mu.Lock()
	sch.fired++
	sch.mu.Unlock()

	sch.wg.Add(1)
	go func() {
		defer sch.wg.Done()
		sch.dispatch()
	}()
}

func (sch *Scheduler) dispatch() {
	_, err := sch.runner.Scan(sch.ctx)
	switch {
	case err == nil:
		return
	case errors.Is(err, scanner.ErrScanInProgress):
		sch.mu.Lock()
		sch.missed++
		sch.mu.Unlock()
		sch.log.Warn("missed scan cycle, previous scan still running")
	case errors.Is(err, context.Canceled):
		sch.log.Info("scan abandoned on shutdown")
	default:
		sch.mu.Lock()
		sch.failures++
		sch.mu.Unlock()
		sch.log.Error("scheduled scan failed, will retry next cycle", "error", err)
	}
}

// Stats is a snapshot of scheduler counters.
type Stats struct {
	NextRun  time.Time `json:"next_run"`
	Fired    int       `json:"fired"`
	Missed   int       `json:"missed"`
	Failures int       `json:"failures"`
}

// GetStats returns current scheduler statistics.
func (sch *Scheduler) GetStats() Stats {
	sch.mu.Lock()
	defer sch.mu.Unlock()
	return Stats{
		NextRun:  sch.nextRun,
		Fired:    sch.fired,
		Missed:   sch.missed,
		Failures: sch.failures,
	}
}
