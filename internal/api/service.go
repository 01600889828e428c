// Package api provides the HTTP API and service layer for assettrack.
package api

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/railtms/assettrack/internal/audit"
	"github.com/railtms/assettrack/internal/classify"
	"github.com/railtms/assettrack/internal/export"
	"github.com/railtms/assettrack/internal/fitting"
	"github.com/railtms/assettrack/internal/logger"
	"github.com/railtms/assettrack/internal/models"
	"github.com/railtms/assettrack/internal/report"
	"github.com/railtms/assettrack/internal/scanner"
	"github.com/railtms/assettrack/internal/store"
)

// Service ties the record store to the classification and reporting engines.
type Service struct {
	store   *store.Store
	pdr     *audit.PDRWriter
	policy  classify.Policy
	scanner *scanner.Scanner
	log     *logger.Logger
	now     func() time.Time
}

// NewService creates a new service.
func NewService(s *store.Store, pdr *audit.PDRWriter, policy classify.Policy, sc *scanner.Scanner, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		store:   s,
		pdr:     pdr,
		policy:  policy,
		scanner: sc,
		log:     log.With("component", "service"),
		now:     time.Now,
	}
}

// Ping checks the record store.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// --- Asset Operations ---

// ListAssets returns assets matching filter.
func (s *Service) ListAssets(ctx context.Context, filter store.AssetFilter) ([]models.AssetRecord, error) {
	return s.store.ListAssets(ctx, filter)
}

// ClassifyAssets returns assets matching filter, each with its verdict.
func (s *Service) ClassifyAssets(ctx context.Context, filter store.AssetFilter) ([]models.ClassifiedAsset, error) {
	records, err := s.store.ListAssets(ctx, filter)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.ClassifiedAsset, len(records))
	for i := range records {
		out[i] = models.ClassifiedAsset{AssetRecord: records[i], Verdict: s.policy.Classify(&records[i], now)}
	}
	return out, nil
}

// ImportAssets upserts every record and returns how many were written.
func (s *Service) ImportAssets(ctx context.Context, records []models.AssetRecord) (int, error) {
	if len(records) == 0 {
		return 0, ErrNoAssets
	}
	n := 0
	for i := range records {
		if err := s.store.UpsertAsset(ctx, &records[i]); err != nil {
			s.pdr.Record(audit.ActionAssetImport, records, audit.OutcomeFailed, "", err.Error())
			return n, err
		}
		n++
	}
	s.pdr.Record(audit.ActionAssetImport, records, audit.OutcomeSuccess, "", fmt.Sprintf("imported=%d", n))
	return n, nil
}

// GetAssetDetail returns the asset with its verdict and aggregate context, all
// computed from a single read of the store.
func (s *Service) GetAssetDetail(ctx context.Context, uid string) (*models.AssetDetail, error) {
	records, err := s.store.ListAssets(ctx, store.AssetFilter{})
	if err != nil {
		return nil, err
	}

	var item *models.AssetRecord
	for i := range records {
		if records[i].UID == uid {
			item = &records[i]
			break
		}
	}
	if item == nil {
		return nil, store.ErrAssetNotFound
	}

	now := s.now()
	return &models.AssetDetail{
		Item:             item,
		AssemblyRemark:   s.policy.Classify(item, now),
		VendorContext:    report.VendorContext(records, item.VendorName),
		InventoryContext: report.AssetTypeContext(records, item.AssetType, now),
	}, nil
}

// UpdateInspection records an inspector's findings for one asset.
func (s *Service) UpdateInspection(ctx context.Context, uid string, u models.InspectionUpdate) (*models.AssetRecord, error) {
	u.ConditionLot = strings.TrimSpace(u.ConditionLot)
	if u.ConditionLot == "" {
		return nil, ErrConditionRequired
	}

	asset, err := s.store.UpdateInspection(ctx, uid, u)
	if err != nil {
		return nil, err
	}

	s.pdr.Record(audit.ActionAssetUpdate, u, audit.OutcomeSuccess, uid, "condition="+u.ConditionLot)
	return asset, nil
}

// --- Report Operations ---

func (s *Service) snapshot(ctx context.Context) ([]models.AssetRecord, error) {
	return s.store.ListAssets(ctx, store.AssetFilter{})
}

// VendorReport returns per-vendor condition counts.
func (s *Service) VendorReport(ctx context.Context) ([]models.VendorReport, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows, skipped := report.GenerateVendorReport(records)
	s.logSkipped("vendor report", skipped)
	return rows, nil
}

// InventoryReport returns per-asset-type counts and average warranty days left.
func (s *Service) InventoryReport(ctx context.Context) ([]models.InventoryReport, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	rows, skipped := report.GenerateInventoryReport(records, s.now())
	s.logSkipped("inventory report", skipped)
	return rows, nil
}

// LotSummary returns the ready/not-ready split for one vendor's assets.
func (s *Service) LotSummary(ctx context.Context, vendor string) (models.LotStatusSummary, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return models.LotStatusSummary{}, err
	}
	return report.VendorLotStatusSummary(records, vendor, s.policy, s.now()), nil
}

// Dashboard returns headline counts.
func (s *Service) Dashboard(ctx context.Context) (models.DashboardSummary, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return models.DashboardSummary{}, err
	}
	return report.Dashboard(records, s.now(), s.scanner.Horizon()), nil
}

// ExportReports builds the vendor and inventory workbook. Callers must Close it.
func (s *Service) ExportReports(ctx context.Context) (*excelize.File, error) {
	records, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	vendors, _ := report.GenerateVendorReport(records)
	inventory, _ := report.GenerateInventoryReport(records, s.now())
	return export.Reports(vendors, inventory)
}

func (s *Service) logSkipped(what string, skipped []report.Skipped) {
	if len(skipped) > 0 {
		s.log.Debug("records excluded from report", "report", what, "skipped", len(skipped))
	}
}

// --- Fittings ---

// CalculateFitting returns track-fitting quantities.
func (s *Service) CalculateFitting(lengthKm float64, gauge string) (*models.FittingResult, error) {
	return fitting.Calculate(lengthKm, gauge)
}

// --- Alerts and Scans ---

// ListAlerts returns recent expiry alerts.
func (s *Service) ListAlerts(ctx context.Context, limit int) ([]models.ExpiryAlert, error) {
	return s.store.ListAlerts(ctx, limit)
}

// RunScan runs an expiration scan now. It fails with scanner.ErrScanInProgress
// when the daily scan (or another manual one) is running.
func (s *Service) RunScan(ctx context.Context) (*models.ScanResult, error) {
	return s.scanner.Scan(ctx)
}

// ScanStatus reports the scanner state and last run.
type ScanStatus struct {
	State     models.ScanState   `json:"state"`
	LastRun   *models.ScanResult `json:"last_run,omitempty"`
	LastError string             `json:"last_error,omitempty"`
}

// ScanStatus returns the scanner state.
func (s *Service) ScanStatus() ScanStatus {
	st := ScanStatus{State: s.scanner.State()}
	last, err := s.scanner.LastRun()
	st.LastRun = last
	if err != nil {
		st.LastError = err.Error()
	}
	return st
}
