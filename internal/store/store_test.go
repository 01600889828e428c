package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/railtms/assettrack/internal/models"
)

func date(s string) *time.Time {
	t, err := time.Parse(models.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func ptr(f float64) *float64 { return &f }

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file was not created")
	}
	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	for i := 0; i < 2; i++ {
		s, err := New(dbPath)
		if err != nil {
			t.Fatalf("Open %d failed: %v", i, err)
		}
		s.Close()
	}
}

func TestAssetUpsertAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	in := &models.AssetRecord{
		UID:            "ERC-001",
		AssetType:      "ERC",
		ItemType:       "Elastic Rail Clip",
		Zone:           "NR",
		Division:       "DLI",
		VendorName:     "Acme",
		ConditionLot:   "Good",
		WarrantyExpiry: date("2026-03-01"),
		Latitude:       ptr(28.61),
		Longitude:      ptr(77.21),
	}
	if err := s.UpsertAsset(ctx, in); err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}

	got, err := s.GetAsset(ctx, "ERC-001")
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected asset, got nil")
	}
	if got.CreatedAt.IsZero() {
		t.Error("Expected created_at to be set")
	}
	got.CreatedAt, got.UpdatedAt = time.Time{}, time.Time{}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("Asset mismatch (-want +got):\n%s", diff)
	}

	// Upsert replaces fields, including clearing them.
	in.VendorName = "Beta"
	in.WarrantyExpiry = nil
	if err := s.UpsertAsset(ctx, in); err != nil {
		t.Fatalf("Second UpsertAsset failed: %v", err)
	}
	got, _ = s.GetAsset(ctx, "ERC-001")
	if got.VendorName != "Beta" || got.WarrantyExpiry != nil {
		t.Errorf("Expected replaced fields, got %+v", got)
	}
}

func TestUpsertRequiresUID(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertAsset(context.Background(), &models.AssetRecord{UID: "  "}); !errors.Is(err, ErrMissingUID) {
		t.Errorf("Expected ErrMissingUID, got %v", err)
	}
}

func TestGetAssetNotFound(t *testing.T) {
	s := newTestStore(t)
	got, err := s.GetAsset(context.Background(), "nope")
	if err != nil {
		t.Fatalf("GetAsset failed: %v", err)
	}
	if got != nil {
		t.Errorf("Expected nil for missing asset, got %+v", got)
	}
}

func TestListAssets(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	seed := []models.AssetRecord{
		{UID: "A1", VendorName: "Acme", AssetType: "ERC"},
		{UID: "A3", VendorName: "Acme", AssetType: "Liner"},
		{UID: "A2", VendorName: "Beta", AssetType: "ERC", WarrantyExpiry: date("2025-07-01")},
	}
	for i := range seed {
		if err := s.UpsertAsset(ctx, &seed[i]); err != nil {
			t.Fatalf("UpsertAsset failed: %v", err)
		}
	}

	uids := func(records []models.AssetRecord) []string {
		var out []string
		for _, r := range records {
			out = append(out, r.UID)
		}
		return out
	}

	tests := []struct {
		name   string
		filter AssetFilter
		want   []string
	}{
		{"all", AssetFilter{}, []string{"A3", "A2", "A1"}},
		{"by vendor", AssetFilter{VendorName: "Acme"}, []string{"A3", "A1"}},
		{"by type", AssetFilter{AssetType: "ERC"}, []string{"A2", "A1"}},
		{"both", AssetFilter{VendorName: "Beta", AssetType: "ERC"}, []string{"A2"}},
		{"no match", AssetFilter{VendorName: "Gamma"}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListAssets(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListAssets failed: %v", err)
			}
			if diff := cmp.Diff(tt.want, uids(got)); diff != "" {
				t.Errorf("ListAssets mismatch (-want +got):\n%s", diff)
			}
		})
	}

	withWarranty, err := s.ListWithWarranty(ctx)
	if err != nil {
		t.Fatalf("ListWithWarranty failed: %v", err)
	}
	if diff := cmp.Diff([]string{"A2"}, uids(withWarranty)); diff != "" {
		t.Errorf("ListWithWarranty mismatch (-want +got):\n%s", diff)
	}
}

func TestUpdateInspection(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.UpsertAsset(ctx, &models.AssetRecord{
		UID:          "A1",
		VendorName:   "Acme",
		ConditionLot: "Good",
		Remarks:      "old remark",
		Latitude:     ptr(10),
	}); err != nil {
		t.Fatalf("UpsertAsset failed: %v", err)
	}

	got, err := s.UpdateInspection(ctx, "A1", models.InspectionUpdate{
		ConditionLot:   "Needs Repair",
		LastInspection: date("2025-06-01"),
	})
	if err != nil {
		t.Fatalf("UpdateInspection failed: %v", err)
	}
	if got.ConditionLot != "Needs Repair" {
		t.Errorf("Expected condition 'Needs Repair', got %s", got.ConditionLot)
	}
	if got.Remarks != "" || got.Latitude != nil {
		t.Errorf("Expected empty optionals to be cleared, got remarks=%q lat=%v", got.Remarks, got.Latitude)
	}
	if got.LastInspection == nil || got.LastInspection.Format(models.DateLayout) != "2025-06-01" {
		t.Errorf("Unexpected last inspection %v", got.LastInspection)
	}
	if got.VendorName != "Acme" {
		t.Errorf("Expected vendor untouched, got %s", got.VendorName)
	}

	_, err = s.UpdateInspection(ctx, "missing", models.InspectionUpdate{ConditionLot: "Good"})
	if !errors.Is(err, ErrAssetNotFound) {
		t.Errorf("Expected ErrAssetNotFound, got %v", err)
	}
}

func TestAlerts(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Date(2025, 6, 1, 2, 0, 0, 0, time.UTC)
	for i, uid := range []string{"A1", "A2", "A3"} {
		err := s.RecordAlert(ctx, models.ExpiryAlert{
			UID:            uid,
			WarrantyExpiry: *date("2025-06-20"),
			DaysLeft:       19,
			ScanID:         "scan-1",
			CreatedAt:      base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("RecordAlert failed: %v", err)
		}
	}

	alerts, err := s.ListAlerts(ctx, 2)
	if err != nil {
		t.Fatalf("ListAlerts failed: %v", err)
	}
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}
	if alerts[0].UID != "A3" || alerts[1].UID != "A2" {
		t.Errorf("Expected newest first, got %s, %s", alerts[0].UID, alerts[1].UID)
	}
	if alerts[0].ID == "" || alerts[0].ScanID != "scan-1" || alerts[0].DaysLeft != 19 {
		t.Errorf("Unexpected alert %+v", alerts[0])
	}
	if alerts[0].WarrantyExpiry.Format(models.DateLayout) != "2025-06-20" {
		t.Errorf("Unexpected warranty expiry %s", alerts[0].WarrantyExpiry)
	}
}

func TestPDR(t *testing.T) {
	s := newTestStore(t)

	pdr, err := s.WritePDR("asset.update", "abc123", "success", "A1", "condition=Good")
	if err != nil {
		t.Fatalf("WritePDR failed: %v", err)
	}
	if pdr.ID == "" {
		t.Error("PDR ID should not be empty")
	}
	if _, err := s.WritePDR("scan.run", "def456", "success", "scan-1", ""); err != nil {
		t.Fatalf("WritePDR failed: %v", err)
	}

	all, err := s.ListPDR("", 10)
	if err != nil {
		t.Fatalf("ListPDR failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected 2 PDR entries, got %d", len(all))
	}

	updates, err := s.ListPDR("asset.update", 10)
	if err != nil {
		t.Fatalf("ListPDR failed: %v", err)
	}
	if len(updates) != 1 || updates[0].SubjectID != "A1" || updates[0].Details != "condition=Good" {
		t.Errorf("Unexpected filtered PDR entries %+v", updates)
	}
}
