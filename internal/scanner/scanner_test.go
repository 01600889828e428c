package scanner

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/railtms/assettrack/internal/models"
)

var testNow = time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func at(d time.Duration) *time.Time {
	t := testNow.Add(d)
	return &t
}

// memSource is an in-memory RecordSource. When gate is set, ListWithWarranty
// signals entered and blocks until gate is closed.
type memSource struct {
	records []models.AssetRecord
	err     error
	entered chan struct{}
	gate    chan struct{}
}

func (m *memSource) ListWithWarranty(ctx context.Context) ([]models.AssetRecord, error) {
	if m.gate != nil {
		m.entered <- struct{}{}
		<-m.gate
	}
	if m.err != nil {
		return nil, m.err
	}
	var out []models.AssetRecord
	for _, r := range m.records {
		if r.WarrantyExpiry != nil {
			out = append(out, r)
		}
	}
	return out, nil
}

// captureSink records every alert it receives.
type captureSink struct {
	mu     sync.Mutex
	alerts []models.ExpiryAlert
	failOn string
}

func (c *captureSink) Emit(ctx context.Context, a models.ExpiryAlert) error {
	if a.UID == c.failOn {
		return errors.New("sink unavailable")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.alerts = append(c.alerts, a)
	return nil
}

func (c *captureSink) uids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []string
	for _, a := range c.alerts {
		out = append(out, a.UID)
	}
	sort.Strings(out)
	return out
}

func windowRecords() []models.AssetRecord {
	day := 24 * time.Hour
	return []models.AssetRecord{
		{UID: "at-now", WarrantyExpiry: at(0)},
		{UID: "expired", WarrantyExpiry: at(-day)},
		{UID: "in-an-hour", WarrantyExpiry: at(time.Hour)},
		{UID: "edge", WarrantyExpiry: at(30 * day)},
		{UID: "past-edge", WarrantyExpiry: at(30*day + time.Second)},
		{UID: "no-warranty"},
		{UID: "far", WarrantyExpiry: at(200 * day)},
	}
}

func TestScanWindowBoundaries(t *testing.T) {
	sink := &captureSink{}
	s := New(&memSource{records: windowRecords()}, sink, nil, Options{Clock: fixedClock})

	res, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if diff := cmp.Diff([]string{"edge", "in-an-hour"}, sink.uids()); diff != "" {
		t.Errorf("Alerted uids mismatch (-want +got):\n%s", diff)
	}
	if res.Scanned != 6 || res.Alerted != 2 {
		t.Errorf("Expected scanned 6 alerted 2, got %+v", res)
	}
	if s.State() != models.ScanStateIdle {
		t.Errorf("Expected idle after scan, got %s", s.State())
	}
}

func TestScanAlertFields(t *testing.T) {
	sink := &captureSink{}
	records := []models.AssetRecord{{UID: "A1", WarrantyExpiry: at(36 * time.Hour)}}
	s := New(&memSource{records: records}, sink, nil, Options{Clock: fixedClock})

	res, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if len(sink.alerts) != 1 {
		t.Fatalf("Expected 1 alert, got %d", len(sink.alerts))
	}
	a := sink.alerts[0]
	if a.UID != "A1" || !a.WarrantyExpiry.Equal(*records[0].WarrantyExpiry) {
		t.Errorf("Unexpected alert %+v", a)
	}
	if a.DaysLeft != 2 {
		t.Errorf("Expected 2 days left, got %d", a.DaysLeft)
	}
	if a.ScanID != res.ID || a.ID == "" {
		t.Errorf("Expected alert to carry scan id %s, got %+v", res.ID, a)
	}
}

func TestScanRepeatsAlertsAcrossRuns(t *testing.T) {
	sink := &captureSink{}
	records := []models.AssetRecord{{UID: "A1", WarrantyExpiry: at(48 * time.Hour)}}
	s := New(&memSource{records: records}, sink, nil, Options{Clock: fixedClock})

	for i := 0; i < 2; i++ {
		if _, err := s.Scan(context.Background()); err != nil {
			t.Fatalf("Scan %d failed: %v", i, err)
		}
	}
	if len(sink.alerts) != 2 {
		t.Errorf("Expected the same asset to be alerted twice, got %d alerts", len(sink.alerts))
	}
}

func TestScanSourceFailure(t *testing.T) {
	var completed []error
	sink := &captureSink{}
	src := &memSource{err: errors.New("database is locked")}
	s := New(src, sink, nil, Options{
		Clock:      fixedClock,
		OnComplete: func(_ *models.ScanResult, err error) { completed = append(completed, err) },
	})

	_, err := s.Scan(context.Background())
	if err == nil {
		t.Fatal("Expected error from failing source")
	}
	if !errors.Is(err, src.err) {
		t.Errorf("Expected wrapped source error, got %v", err)
	}
	if len(sink.alerts) != 0 {
		t.Errorf("Expected no alerts, got %d", len(sink.alerts))
	}
	if s.State() != models.ScanStateIdle {
		t.Errorf("Expected idle after failure, got %s", s.State())
	}
	if len(completed) != 1 || completed[0] == nil {
		t.Errorf("Expected OnComplete with error, got %v", completed)
	}

	_, lastErr := s.LastRun()
	if lastErr == nil {
		t.Error("Expected LastRun to report the failure")
	}

	// The next trigger runs normally once the store recovers.
	src.err = nil
	src.records = []models.AssetRecord{{UID: "A1", WarrantyExpiry: at(time.Hour)}}
	if _, err := s.Scan(context.Background()); err != nil {
		t.Errorf("Expected recovery on next run, got %v", err)
	}
}

func TestScanEmitFailureContinues(t *testing.T) {
	sink := &captureSink{failOn: "edge"}
	s := New(&memSource{records: windowRecords()}, sink, nil, Options{Clock: fixedClock})

	res, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}
	if res.Alerted != 1 || res.EmitFailures != 1 {
		t.Errorf("Expected 1 alerted and 1 failure, got %+v", res)
	}
}

func TestScanRejectsOverlap(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	sink := &captureSink{}
	src := &memSource{
		records: windowRecords(),
		entered: make(chan struct{}, 1),
		gate:    make(chan struct{}),
	}
	s := New(src, sink, nil, Options{Clock: fixedClock, Metrics: metrics})

	done := make(chan error, 1)
	go func() {
		_, err := s.Scan(context.Background())
		done <- err
	}()

	select {
	case <-src.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for first scan to start")
	}
	if s.State() != models.ScanStateScanning {
		t.Errorf("Expected scanning state, got %s", s.State())
	}

	if _, err := s.Scan(context.Background()); !errors.Is(err, ErrScanInProgress) {
		t.Errorf("Expected ErrScanInProgress, got %v", err)
	}

	close(src.gate)
	if err := <-done; err != nil {
		t.Fatalf("First scan failed: %v", err)
	}

	if got := len(sink.uids()); got != 2 {
		t.Errorf("Expected exactly one scan's worth of alerts (2), got %d", got)
	}
	if got := testutil.ToFloat64(metrics.rejected); got != 1 {
		t.Errorf("Expected 1 missed cycle, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues("completed")); got != 1 {
		t.Errorf("Expected 1 completed run, got %v", got)
	}
}

func TestScanCancelled(t *testing.T) {
	sink := &captureSink{}
	s := New(&memSource{records: windowRecords()}, sink, nil, Options{Clock: fixedClock})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Scan(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got %v", err)
	}
	if res == nil || !res.Cancelled {
		t.Errorf("Expected cancelled result, got %+v", res)
	}
	if s.State() != models.ScanStateIdle {
		t.Errorf("Expected idle after cancel, got %s", s.State())
	}
}

func TestMultiSink(t *testing.T) {
	a := &captureSink{}
	b := &captureSink{failOn: "A1"}
	c := &captureSink{}
	err := MultiSink{a, b, c}.Emit(context.Background(), models.ExpiryAlert{UID: "A1"})
	if err == nil {
		t.Error("Expected error from failing sink")
	}
	if len(a.alerts) != 1 || len(c.alerts) != 1 {
		t.Errorf("Expected healthy sinks to receive the alert, got %d and %d", len(a.alerts), len(c.alerts))
	}
}

func TestDaysLeft(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{time.Hour, 1},
		{24 * time.Hour, 1},
		{25 * time.Hour, 2},
		{30 * 24 * time.Hour, 30},
	}
	for _, tt := range tests {
		if got := daysLeft(testNow, testNow.Add(tt.d)); got != tt.want {
			t.Errorf("daysLeft(%s) = %d, want %d", tt.d, got, tt.want)
		}
	}
}
