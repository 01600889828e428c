package classify

import (
	"testing"
	"time"

	"github.com/railtms/assettrack/internal/models"
)

var testNow = time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

func daysFrom(t time.Time, d int) *time.Time {
	v := t.AddDate(0, 0, d)
	return &v
}

func TestClassifyRules(t *testing.T) {
	tests := []struct {
		name   string
		asset  *models.AssetRecord
		status models.VerdictStatus
		remark string
		reason string
	}{
		{
			name:   "nil asset",
			asset:  nil,
			status: models.VerdictWarning,
			remark: RemarkNoData,
			reason: "Item not found",
		},
		{
			name:   "need replacement",
			asset:  &models.AssetRecord{UID: "A1", ConditionLot: "Need Replacement"},
			status: models.VerdictFail,
			remark: RemarkNotReady,
			reason: "Asset condition is 'Need Replacement'.",
		},
		{
			name:   "expired warranty",
			asset:  &models.AssetRecord{UID: "A1", ConditionLot: "Good", WarrantyExpiry: daysFrom(testNow, -10)},
			status: models.VerdictFail,
			remark: RemarkNotReady,
			reason: "Warranty has expired.",
		},
		{
			name:   "keyword in remarks",
			asset:  &models.AssetRecord{UID: "A1", ConditionLot: "Good", Remarks: "Rust observed near weld"},
			status: models.VerdictWarning,
			remark: RemarkInspection,
			reason: `Remark indicates issue: "Rust observed near weld"`,
		},
		{
			name:   "good condition",
			asset:  &models.AssetRecord{UID: "A1", ConditionLot: "Good", WarrantyExpiry: daysFrom(testNow, 200)},
			status: models.VerdictOK,
			remark: RemarkOK,
			reason: "Condition acceptable and checks passed.",
		},
		{
			name:   "fair condition",
			asset:  &models.AssetRecord{UID: "A1", ConditionLot: "Fair"},
			status: models.VerdictOK,
			remark: RemarkOK,
			reason: "Condition acceptable and checks passed.",
		},
		{
			name:   "needs repair falls back",
			asset:  &models.AssetRecord{UID: "A1", ConditionLot: "Needs Repair"},
			status: models.VerdictWarning,
			remark: RemarkInspection,
			reason: "Condition 'Needs Repair' needs review.",
		},
		{
			name:   "unknown label falls back",
			asset:  &models.AssetRecord{UID: "A1", ConditionLot: "Scrapped"},
			status: models.VerdictWarning,
			remark: RemarkInspection,
			reason: "Condition 'Scrapped' needs review.",
		},
		{
			name:   "unset condition falls back",
			asset:  &models.AssetRecord{UID: "A1"},
			status: models.VerdictWarning,
			remark: RemarkInspection,
			reason: "Condition 'unset' needs review.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.asset, testNow)
			if got.Status != tt.status {
				t.Errorf("Status = %q, want %q", got.Status, tt.status)
			}
			if got.Remark != tt.remark {
				t.Errorf("Remark = %q, want %q", got.Remark, tt.remark)
			}
			if got.Reason != tt.reason {
				t.Errorf("Reason = %q, want %q", got.Reason, tt.reason)
			}
		})
	}
}

func TestClassifyReplacementDominates(t *testing.T) {
	asset := &models.AssetRecord{
		UID:            "A1",
		ConditionLot:   "Need Replacement",
		WarrantyExpiry: daysFrom(testNow, -30),
		Remarks:        "crack on flange",
	}
	got := Classify(asset, testNow)
	if got.Status != models.VerdictFail || got.Reason != "Asset condition is 'Need Replacement'." {
		t.Errorf("Expected replacement verdict, got %+v", got)
	}
}

func TestClassifyExpiryDominatesRemarks(t *testing.T) {
	asset := &models.AssetRecord{UID: "A1", ConditionLot: "Good", WarrantyExpiry: daysFrom(testNow, -1), Remarks: "damage"}
	got := Classify(asset, testNow)
	if got.Reason != "Warranty has expired." {
		t.Errorf("Expected expiry reason, got %q", got.Reason)
	}
}

func TestClassifyKeywordCaseInsensitive(t *testing.T) {
	upper := Classify(&models.AssetRecord{UID: "A1", ConditionLot: "Good", Remarks: "Crack observed"}, testNow)
	lower := Classify(&models.AssetRecord{UID: "A1", ConditionLot: "Good", Remarks: "crack observed"}, testNow)
	if upper.Status != models.VerdictWarning || lower.Status != models.VerdictWarning {
		t.Fatalf("Expected both warning, got %s and %s", upper.Status, lower.Status)
	}
	if upper.Remark != lower.Remark {
		t.Errorf("Expected identical remarks, got %q and %q", upper.Remark, lower.Remark)
	}
}

func TestClassifyKeywordIsSubstring(t *testing.T) {
	got := Classify(&models.AssetRecord{UID: "A1", ConditionLot: "Good", Remarks: "crackling noise"}, testNow)
	if got.Status != models.VerdictWarning {
		t.Errorf("Expected substring match to warn, got %s", got.Status)
	}
}

func TestClassifyEmptyRemarks(t *testing.T) {
	got := Classify(&models.AssetRecord{UID: "A1", ConditionLot: "Good", Remarks: ""}, testNow)
	if got.Status != models.VerdictOK {
		t.Errorf("Expected ok for empty remarks, got %s", got.Status)
	}
}

func TestClassifyWarrantyBoundary(t *testing.T) {
	exact := testNow
	got := Classify(&models.AssetRecord{UID: "A1", ConditionLot: "Good", WarrantyExpiry: &exact}, testNow)
	if got.Status != models.VerdictOK {
		t.Errorf("Expected warranty expiring exactly now to be ok, got %+v", got)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	asset := &models.AssetRecord{UID: "A1", ConditionLot: "Fair", Remarks: "minor damage", WarrantyExpiry: daysFrom(testNow, 5)}
	first := Classify(asset, testNow)
	for i := 0; i < 50; i++ {
		if got := Classify(asset, testNow); got != first {
			t.Fatalf("Run %d returned %+v, want %+v", i, got, first)
		}
	}
}

func TestPolicyCustomKeywords(t *testing.T) {
	p := NewPolicy([]string{" Loose ", "", "BENT"})
	if len(p.Keywords) != 2 {
		t.Fatalf("Expected 2 keywords, got %v", p.Keywords)
	}

	got := p.Classify(&models.AssetRecord{UID: "A1", ConditionLot: "Good", Remarks: "bent clip"}, testNow)
	if got.Status != models.VerdictWarning {
		t.Errorf("Expected custom keyword to warn, got %s", got.Status)
	}
	got = p.Classify(&models.AssetRecord{UID: "A1", ConditionLot: "Good", Remarks: "crack"}, testNow)
	if got.Status != models.VerdictOK {
		t.Errorf("Expected default keyword to be ignored by custom policy, got %s", got.Status)
	}
}

func TestNewPolicyEmptyFallsBack(t *testing.T) {
	p := NewPolicy(nil)
	if len(p.Keywords) != len(DefaultKeywords) {
		t.Errorf("Expected default keywords, got %v", p.Keywords)
	}
}
