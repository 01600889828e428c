// Package models defines the core domain types for assettrack.
package models

import "time"

// DateLayout is the calendar-date format used for warranty and inspection dates.
const DateLayout = "2006-01-02"

// AssetRecord is one physical tracked unit. Only UID is guaranteed to be set.
type AssetRecord struct {
	UID            string     `json:"uid"`
	AssetType      string     `json:"asset_type,omitempty"`
	ItemType       string     `json:"item_type,omitempty"`
	Zone           string     `json:"zone,omitempty"`
	Division       string     `json:"division,omitempty"`
	VendorName     string     `json:"vendor_name,omitempty"`
	ConditionLot   string     `json:"condition_lot,omitempty"`
	Remarks        string     `json:"remarks,omitempty"`
	WarrantyExpiry *time.Time `json:"warranty_expiry,omitempty"`
	LastInspection *time.Time `json:"last_inspection,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
	CreatedAt      time.Time  `json:"created_at,omitempty"`
	UpdatedAt      time.Time  `json:"updated_at,omitempty"`
}

// Condition lot labels as written by inspectors.
const (
	ConditionGoodLabel            = "Good"
	ConditionFairLabel            = "Fair"
	ConditionNeedsRepairLabel     = "Needs Repair"
	ConditionNeedReplacementLabel = "Need Replacement"
)

// ConditionClass is the closed set a condition lot label maps onto.
type ConditionClass int

const (
	ConditionUnset ConditionClass = iota
	ConditionGood
	ConditionFair
	ConditionNeedsRepair
	ConditionNeedReplacement
	// ConditionOther covers any non-empty label outside the known vocabulary.
	ConditionOther
)

// ParseCondition maps a raw label onto its ConditionClass. Matching is exact.
func ParseCondition(label string) ConditionClass {
	switch label {
	case "":
		return ConditionUnset
	case ConditionGoodLabel:
		return ConditionGood
	case ConditionFairLabel:
		return ConditionFair
	case ConditionNeedsRepairLabel:
		return ConditionNeedsRepair
	case ConditionNeedReplacementLabel:
		return ConditionNeedReplacement
	default:
		return ConditionOther
	}
}

func (c ConditionClass) String() string {
	switch c {
	case ConditionUnset:
		return "unset"
	case ConditionGood:
		return ConditionGoodLabel
	case ConditionFair:
		return ConditionFairLabel
	case ConditionNeedsRepair:
		return ConditionNeedsRepairLabel
	case ConditionNeedReplacement:
		return ConditionNeedReplacementLabel
	default:
		return "other"
	}
}

// Condition returns the parsed condition class of the asset.
func (a *AssetRecord) Condition() ConditionClass {
	return ParseCondition(a.ConditionLot)
}

// VerdictStatus is the readiness outcome of a classification.
type VerdictStatus string

const (
	VerdictOK      VerdictStatus = "ok"
	VerdictWarning VerdictStatus = "warning"
	VerdictFail    VerdictStatus = "fail"
)

// Verdict is the classification output for one asset.
type Verdict struct {
	Status VerdictStatus `json:"status"`
	Remark string        `json:"remark"`
	Reason string        `json:"reason"`
}

// Ready reports whether the verdict counts towards a lot's ready bucket.
func (v Verdict) Ready() bool {
	return v.Status == VerdictOK
}

// ClassifiedAsset pairs an asset with its assembly verdict.
type ClassifiedAsset struct {
	AssetRecord
	Verdict Verdict `json:"verdict"`
}

// VendorReport is one row of the vendor report.
type VendorReport struct {
	VendorName         string `json:"vendor_name"`
	TotalAssets        int    `json:"total_assets"`
	GoodConditionCount int    `json:"good_condition"`
	NeedsRepairCount   int    `json:"needs_repair"`
}

// InventoryReport is one row of the inventory report.
// AvgDaysLeftWarranty is nil when no unit in the group has a warranty date.
type InventoryReport struct {
	AssetType           string   `json:"asset_type"`
	TotalUnits          int      `json:"total_units"`
	AvgDaysLeftWarranty *float64 `json:"avg_days_left_warranty"`
}

// LotStatusSummary buckets a vendor's assets into ready and not ready.
type LotStatusSummary struct {
	VendorName    string `json:"vendor_name,omitempty"`
	ReadyCount    int    `json:"ready"`
	NotReadyCount int    `json:"not_ready"`
}

// DashboardSummary holds fleet-wide headline counts.
type DashboardSummary struct {
	Total        int `json:"total"`
	Good         int `json:"good"`
	NeedsRepair  int `json:"needs_repair"`
	SoonExpiring int `json:"soon_expiring"`
}

// AssetDetail bundles one asset with its verdict and group context.
type AssetDetail struct {
	Item             *AssetRecord     `json:"item"`
	AssemblyRemark   Verdict          `json:"assembly_remark"`
	VendorContext    *VendorReport    `json:"vendor_context"`
	InventoryContext *InventoryReport `json:"inventory_context"`
}

// InspectionUpdate carries the fields an inspector may change on an asset.
type InspectionUpdate struct {
	ConditionLot   string     `json:"condition_lot"`
	Remarks        string     `json:"remarks,omitempty"`
	LastInspection *time.Time `json:"last_inspection,omitempty"`
	Latitude       *float64   `json:"latitude,omitempty"`
	Longitude      *float64   `json:"longitude,omitempty"`
}

// ExpiryAlert is emitted for each asset whose warranty lapses within the horizon.
type ExpiryAlert struct {
	ID             string    `json:"id"`
	UID            string    `json:"uid"`
	WarrantyExpiry time.Time `json:"warranty_expiry"`
	DaysLeft       int       `json:"days_left"`
	ScanID         string    `json:"scan_id"`
	CreatedAt      time.Time `json:"created_at"`
}

// ScanState is the lifecycle state of the expiration scanner.
type ScanState string

const (
	ScanStateIdle     ScanState = "idle"
	ScanStateScanning ScanState = "scanning"
)

// ScanResult summarises one expiration scan run.
type ScanResult struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	FinishedAt   time.Time `json:"finished_at"`
	Scanned      int       `json:"scanned"`
	Alerted      int       `json:"alerted"`
	EmitFailures int       `json:"emit_failures"`
	Cancelled    bool      `json:"cancelled"`
}

// PDREntry represents a Process Decision Record for audit.
type PDREntry struct {
	ID         string    `json:"id"`
	Action     string    `json:"action"`
	InputsHash string    `json:"inputs_hash"`
	Outcome    string    `json:"outcome"`
	SubjectID  string    `json:"subject_id,omitempty"`
	Details    string    `json:"details,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// FittingResult is the component count for a stretch of track.
type FittingResult struct {
	GaugeType    string  `json:"gauge_type"`
	LineLengthKm float64 `json:"line_length_km"`
	Sleepers     int     `json:"sleepers"`
	Railpads     int     `json:"railpads"`
	Liners       int     `json:"liners"`
}
