package scanner

import (
	"context"
	"errors"

	"github.com/railtms/assettrack/internal/logger"
	"github.com/railtms/assettrack/internal/models"
)

// AlertSink receives expiry alerts.
type AlertSink interface {
	Emit(ctx context.Context, alert models.ExpiryAlert) error
}

// LogSink writes each alert as a structured warning.
type LogSink struct {
	log *logger.Logger
}

// NewLogSink creates a sink that logs alerts.
func NewLogSink(log *logger.Logger) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Emit(ctx context.Context, alert models.ExpiryAlert) error {
	s.log.Warn("warranty expiring soon",
		"uid", alert.UID,
		"warranty_expiry", alert.WarrantyExpiry.Format(models.DateLayout),
		"days_left", alert.DaysLeft,
		"scan_id", alert.ScanID,
	)
	return nil
}

// AlertRecorder persists alerts.
type AlertRecorder interface {
	RecordAlert(ctx context.Context, alert models.ExpiryAlert) error
}

// RecorderSink adapts an AlertRecorder to AlertSink.
type RecorderSink struct {
	rec AlertRecorder
}

// NewRecorderSink creates a sink that persists alerts through rec.
func NewRecorderSink(rec AlertRecorder) *RecorderSink {
	return &RecorderSink{rec: rec}
}

func (s *RecorderSink) Emit(ctx context.Context, alert models.ExpiryAlert) error {
	return s.rec.RecordAlert(ctx, alert)
}

// MultiSink fans an alert out to every sink; one failing sink does not stop the rest.
type MultiSink []AlertSink

func (m MultiSink) Emit(ctx context.Context, alert models.ExpiryAlert) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
