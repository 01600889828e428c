package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/railtms/assettrack/internal/models"
	"github.com/railtms/assettrack/internal/scanner"
)

// gatedSource blocks ListWithWarranty until release is closed.
type gatedSource struct {
	entered chan struct{}
	release chan struct{}
}

func (g *gatedSource) ListWithWarranty(ctx context.Context) ([]models.AssetRecord, error) {
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type nopSink struct{}

func (nopSink) Emit(context.Context, models.ExpiryAlert) error { return nil }

// countingRunner counts calls and returns err.
type countingRunner struct {
	mu    sync.Mutex
	calls int
	err   error
	done  chan struct{}
}

func (c *countingRunner) Scan(ctx context.Context) (*models.ScanResult, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	if c.done != nil {
		c.done <- struct{}{}
	}
	return &models.ScanResult{}, c.err
}

func TestNextRun(t *testing.T) {
	cfg := &Config{Hour: 2, Minute: 30}
	loc := time.UTC
	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{"before today's slot", time.Date(2025, 1, 10, 1, 0, 0, 0, loc), time.Date(2025, 1, 10, 2, 30, 0, 0, loc)},
		{"exactly at slot", time.Date(2025, 1, 10, 2, 30, 0, 0, loc), time.Date(2025, 1, 11, 2, 30, 0, 0, loc)},
		{"after today's slot", time.Date(2025, 1, 10, 9, 0, 0, 0, loc), time.Date(2025, 1, 11, 2, 30, 0, 0, loc)},
		{"month rollover", time.Date(2025, 1, 31, 23, 0, 0, 0, loc), time.Date(2025, 2, 1, 2, 30, 0, 0, loc)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.NextRun(tt.after, loc); !got.Equal(tt.want) {
				t.Errorf("NextRun(%s) = %s, want %s", tt.after, got, tt.want)
			}
		})
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config should be valid: %v", err)
	}
	bad := []*Config{
		{Hour: 24},
		{Hour: -1},
		{Minute: 60},
		{Timezone: "Mars/Olympus"},
	}
	for _, c := range bad {
		if err := c.Validate(); err == nil {
			t.Errorf("Expected %+v to be invalid", c)
		}
	}
}

func TestLoopFiresOnSchedule(t *testing.T) {
	runner := &countingRunner{done: make(chan struct{}, 2)}
	sch, err := New(runner, &Config{Hour: 2, Timezone: "UTC"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ticks := make(chan time.Time)
	var waits []time.Duration
	var mu sync.Mutex
	sch.now = func() time.Time { return time.Date(2025, 1, 10, 1, 0, 0, 0, time.UTC) }
	sch.after = func(d time.Duration) <-chan time.Time {
		mu.Lock()
		waits = append(waits, d)
		mu.Unlock()
		return ticks
	}

	sch.Start()
	defer sch.Stop()

	ticks <- time.Now()
	select {
	case <-runner.done:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for scheduled run")
	}

	mu.Lock()
	first := waits[0]
	mu.Unlock()
	if first != time.Hour {
		t.Errorf("Expected first wait of 1h, got %s", first)
	}
	if stats := sch.GetStats(); stats.Fired != 1 {
		t.Errorf("Expected 1 fired trigger, got %d", stats.Fired)
	}
}

func TestOverlappingTriggerIsMissed(t *testing.T) {
	src := &gatedSource{entered: make(chan struct{}, 1), release: make(chan struct{})}
	sc := scanner.New(src, nopSink{}, nil, scanner.Options{})

	sch, err := New(sc, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sch.Trigger()
	select {
	case <-src.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("Timeout waiting for first scan")
	}

	sch.Trigger()
	deadline := time.After(5 * time.Second)
	for sch.GetStats().Missed != 1 {
		select {
		case <-deadline:
			t.Fatalf("Expected 1 missed cycle, stats %+v", sch.GetStats())
		case <-time.After(10 * time.Millisecond):
		}
	}

	close(src.release)
	sch.Stop()

	stats := sch.GetStats()
	if stats.Fired != 2 || stats.Failures != 0 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestFailedRunCounted(t *testing.T) {
	runner := &countingRunner{err: errors.New("store unreachable"), done: make(chan struct{}, 1)}
	sch, err := New(runner, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sch.Trigger()
	<-runner.done
	sch.Stop()

	if got := sch.GetStats().Failures; got != 1 {
		t.Errorf("Expected 1 failure, got %d", got)
	}
}

func TestStopAbandonsInFlightScan(t *testing.T) {
	src := &gatedSource{entered: make(chan struct{}, 1), release: make(chan struct{})}
	sc := scanner.New(src, nopSink{}, nil, scanner.Options{})
	sch, err := New(sc, DefaultConfig(), nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	sch.Trigger()
	<-src.entered

	stopped := make(chan struct{})
	go func() {
		sch.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return while a scan was in flight")
	}
	if sc.State() != models.ScanStateIdle {
		t.Errorf("Expected scanner idle after stop, got %s", sc.State())
	}
}
