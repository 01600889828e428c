// Package scanner flags assets whose warranty lapses within a fixed look-ahead horizon.
//
// A Scanner runs at most one scan at a time. A trigger that arrives while a scan is
// in progress is rejected with ErrScanInProgress, never queued. Alerts are not
// deduplicated across runs: an asset inside the window is reported on every scan.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/railtms/assettrack/internal/logger"
	"github.com/railtms/assettrack/internal/models"
)

// DefaultHorizon is the expiring-soon look-ahead window.
const DefaultHorizon = 30 * 24 * time.Hour

// ErrScanInProgress is returned when a scan is triggered while another is running.
var ErrScanInProgress = errors.New("expiration scan already in progress")

// RecordSource supplies the records to scan.
type RecordSource interface {
	// ListWithWarranty returns every record that has a warranty expiry date.
	ListWithWarranty(ctx context.Context) ([]models.AssetRecord, error)
}

// Options configures a Scanner. Zero values select defaults.
type Options struct {
	Horizon time.Duration
	Clock   func() time.Time
	Metrics *Metrics
	// OnComplete is called after every attempted run, including rejected ones.
	OnComplete func(res *models.ScanResult, err error)
}

// Scanner walks the record source and emits one alert per expiring asset.
type Scanner struct {
	source     RecordSource
	sink       AlertSink
	log        *logger.Logger
	horizon    time.Duration
	now        func() time.Time
	metrics    *Metrics
	onComplete func(*models.ScanResult, error)

	running atomic.Bool

	mu      sync.Mutex
	last    *models.ScanResult
	lastErr error
}

// New creates a scanner.
func New(source RecordSource, sink AlertSink, log *logger.Logger, opts Options) *Scanner {
	if opts.Horizon <= 0 {
		opts.Horizon = DefaultHorizon
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Scanner{
		source:     source,
		sink:       sink,
		log:        log.With("component", "expiration_scanner"),
		horizon:    opts.Horizon,
		now:        opts.Clock,
		metrics:    opts.Metrics,
		onComplete: opts.OnComplete,
	}
}

// Horizon returns the configured look-ahead window.
func (s *Scanner) Horizon() time.Duration {
	return s.horizon
}

// State reports whether a scan is currently running.
func (s *Scanner) State() models.ScanState {
	if s.running.Load() {
		return models.ScanStateScanning
	}
	return models.ScanStateIdle
}

// LastRun returns the most recent finished run and its error, if any.
func (s *Scanner) LastRun() (*models.ScanResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.lastErr
}

// ExpiringSoon reports whether expiry lies in (now, now+horizon].
func (s *Scanner) ExpiringSoon(expiry, now time.Time) bool {
	return expiry.After(now) && !expiry.After(now.Add(s.horizon))
}

// Scan performs one run. A cancelled ctx stops the walk early; alerts emitted up
// to that point stand and the partial result is returned with ctx.Err().
func (s *Scanner) Scan(ctx context.Context) (*models.ScanResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		s.metrics.observeRejected()
		s.log.Warn("expiration scan skipped, previous run still in progress")
		s.complete(nil, ErrScanInProgress)
		return nil, ErrScanInProgress
	}
	defer s.running.Store(false)

	res, err := s.run(ctx)
	s.mu.Lock()
	s.last, s.lastErr = res, err
	s.mu.Unlock()
	s.complete(res, err)
	return res, err
}

func (s *Scanner) run(ctx context.Context) (*models.ScanResult, error) {
	now := s.now()
	res := &models.ScanResult{ID: uuid.New().String(), StartedAt: now}
	log := s.log.With("scan_id", res.ID)
	log.Info("checking for expiring warranties", "horizon_days", int(s.horizon.Hours()/24))

	records, err := s.source.ListWithWarranty(ctx)
	if err != nil {
		res.FinishedAt = s.now()
		s.metrics.observeRun("failed", res)
		log.Error("expiration scan aborted", "error", err)
		return res, fmt.Errorf("read warranty records: %w", err)
	}

	for i := range records {
		if err := ctx.Err(); err != nil {
			res.Cancelled = true
			res.FinishedAt = s.now()
			s.metrics.observeRun("cancelled", res)
			log.Warn("expiration scan cancelled", "scanned", res.Scanned, "alerted", res.Alerted)
			return res, err
		}

		r := &records[i]
		res.Scanned++
		if r.WarrantyExpiry == nil || !s.ExpiringSoon(*r.WarrantyExpiry, now) {
			continue
		}

		alert := models.ExpiryAlert{
			ID:             uuid.New().String(),
			UID:            r.UID,
			WarrantyExpiry: *r.WarrantyExpiry,
			DaysLeft:       daysLeft(now, *r.WarrantyExpiry),
			ScanID:         res.ID,
			CreatedAt:      now,
		}
		if err := s.sink.Emit(ctx, alert); err != nil {
			res.EmitFailures++
			log.Error("failed to emit expiry alert", "uid", r.UID, "error", err)
			continue
		}
		res.Alerted++
	}

	res.FinishedAt = s.now()
	s.metrics.observeRun("completed", res)
	log.Info("expiration scan finished", "scanned", res.Scanned, "alerted", res.Alerted, "emit_failures", res.EmitFailures)
	return res, nil
}

func (s *Scanner) complete(res *models.ScanResult, err error) {
	if s.onComplete != nil {
		s.onComplete(res, err)
	}
}

// daysLeft rounds the remaining time up to whole days.
func daysLeft(now, expiry time.Time) int {
	d := expiry.Sub(now)
	days := int(d / (24 * time.Hour))
	if d%(24*time.Hour) > 0 {
		days++
	}
	return days
}
