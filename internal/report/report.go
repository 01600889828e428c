// Package report rolls asset records up into vendor, inventory and lot-status summaries.
//
// Every function works on the slice it is given and keeps no state between calls.
// Records that lack the field a report groups by are skipped, never treated as errors;
// the skip list is returned so callers can audit it.
package report

import (
	"math"
	"sort"
	"time"

	"github.com/railtms/assettrack/internal/classify"
	"github.com/railtms/assettrack/internal/models"
)

// Skip reasons.
const (
	ReasonMissingUID       = "missing uid"
	ReasonMissingVendor    = "missing vendor name"
	ReasonMissingAssetType = "missing asset type"
)

// Skipped names a record left out of a grouping and why.
type Skipped struct {
	UID    string `json:"uid"`
	Reason string `json:"reason"`
}

// Check is the outcome of validating one record for one grouping.
type Check struct {
	Valid  bool
	Reason string
}

// CheckVendor validates a record for grouping by vendor.
func CheckVendor(r *models.AssetRecord) Check {
	if r.UID == "" {
		return Check{Reason: ReasonMissingUID}
	}
	if r.VendorName == "" {
		return Check{Reason: ReasonMissingVendor}
	}
	return Check{Valid: true}
}

// CheckAssetType validates a record for grouping by asset type.
func CheckAssetType(r *models.AssetRecord) Check {
	if r.UID == "" {
		return Check{Reason: ReasonMissingUID}
	}
	if r.AssetType == "" {
		return Check{Reason: ReasonMissingAssetType}
	}
	return Check{Valid: true}
}

// partition splits records into those passing check, in input order, and the skipped rest.
func partition(records []models.AssetRecord, check func(*models.AssetRecord) Check) ([]*models.AssetRecord, []Skipped) {
	valid := make([]*models.AssetRecord, 0, len(records))
	var skipped []Skipped
	for i := range records {
		r := &records[i]
		if c := check(r); !c.Valid {
			skipped = append(skipped, Skipped{UID: r.UID, Reason: c.Reason})
			continue
		}
		valid = append(valid, r)
	}
	return valid, skipped
}

// GenerateVendorReport groups records by vendor name, largest vendor first.
// Ties keep the order in which each vendor first appears in records.
func GenerateVendorReport(records []models.AssetRecord) ([]models.VendorReport, []Skipped) {
	valid, skipped := partition(records, CheckVendor)

	index := make(map[string]int)
	rows := []models.VendorReport{}
	for _, r := range valid {
		i, ok := index[r.VendorName]
		if !ok {
			i = len(rows)
			index[r.VendorName] = i
			rows = append(rows, models.VendorReport{VendorName: r.VendorName})
		}
		addToVendorRow(&rows[i], r)
	}

	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].TotalAssets > rows[b].TotalAssets
	})
	return rows, skipped
}

func addToVendorRow(row *models.VendorReport, r *models.AssetRecord) {
	row.TotalAssets++
	switch r.Condition() {
	case models.ConditionGood:
		row.GoodConditionCount++
	case models.ConditionNeedsRepair:
		row.NeedsRepairCount++
	}
}

// GenerateInventoryReport groups records by asset type, largest type first.
// AvgDaysLeftWarranty averages over units with a warranty date only.
func GenerateInventoryReport(records []models.AssetRecord, now time.Time) ([]models.InventoryReport, []Skipped) {
	valid, skipped := partition(records, CheckAssetType)

	index := make(map[string]int)
	var acc []inventoryAcc
	for _, r := range valid {
		i, ok := index[r.AssetType]
		if !ok {
			i = len(acc)
			index[r.AssetType] = i
			acc = append(acc, inventoryAcc{assetType: r.AssetType})
		}
		acc[i].add(r, now)
	}

	rows := make([]models.InventoryReport, len(acc))
	for i := range acc {
		rows[i] = acc[i].row()
	}
	sort.SliceStable(rows, func(a, b int) bool {
		return rows[a].TotalUnits > rows[b].TotalUnits
	})
	return rows, skipped
}

type inventoryAcc struct {
	assetType   string
	total       int
	withDates   int
	sumDaysLeft int
}

func (a *inventoryAcc) add(r *models.AssetRecord, now time.Time) {
	a.total++
	if r.WarrantyExpiry != nil {
		a.withDates++
		a.sumDaysLeft += DaysBetween(now, *r.WarrantyExpiry)
	}
}

func (a *inventoryAcc) row() models.InventoryReport {
	row := models.InventoryReport{AssetType: a.assetType, TotalUnits: a.total}
	if a.withDates > 0 {
		avg := float64(a.sumDaysLeft) / float64(a.withDates)
		row.AvgDaysLeftWarranty = &avg
	}
	return row
}

// VendorContext returns the vendor report row for a single vendor, or nil when
// vendorName is empty or has no records.
func VendorContext(records []models.AssetRecord, vendorName string) *models.VendorReport {
	if vendorName == "" {
		return nil
	}
	var row *models.VendorReport
	for i := range records {
		r := &records[i]
		if !CheckVendor(r).Valid || r.VendorName != vendorName {
			continue
		}
		if row == nil {
			row = &models.VendorReport{VendorName: vendorName}
		}
		addToVendorRow(row, r)
	}
	return row
}

// AssetTypeContext returns the inventory report row for a single asset type, or nil
// when assetType is empty or has no records.
func AssetTypeContext(records []models.AssetRecord, assetType string, now time.Time) *models.InventoryReport {
	if assetType == "" {
		return nil
	}
	acc := inventoryAcc{assetType: assetType}
	for i := range records {
		r := &records[i]
		if !CheckAssetType(r).Valid || r.AssetType != assetType {
			continue
		}
		acc.add(r, now)
	}
	if acc.total == 0 {
		return nil
	}
	row := acc.row()
	return &row
}

// VendorLotStatusSummary classifies every record of vendorName and counts ready
// (status ok) against not ready (warning or fail). No match yields a zero summary.
func VendorLotStatusSummary(records []models.AssetRecord, vendorName string, policy classify.Policy, now time.Time) models.LotStatusSummary {
	sum := models.LotStatusSummary{VendorName: vendorName}
	if vendorName == "" {
		return sum
	}
	for i := range records {
		r := &records[i]
		if r.VendorName != vendorName {
			continue
		}
		if policy.Classify(r, now).Ready() {
			sum.ReadyCount++
		} else {
			sum.NotReadyCount++
		}
	}
	return sum
}

// Dashboard computes fleet-wide counts. Soon-expiring uses the same window as the
// expiration scanner: now < expiry <= now+horizon.
func Dashboard(records []models.AssetRecord, now time.Time, horizon time.Duration) models.DashboardSummary {
	var d models.DashboardSummary
	d.Total = len(records)
	for i := range records {
		r := &records[i]
		switch r.Condition() {
		case models.ConditionGood:
			d.Good++
		case models.ConditionNeedsRepair:
			d.NeedsRepair++
		}
		if r.WarrantyExpiry != nil && ExpiringSoon(*r.WarrantyExpiry, now, horizon) {
			d.SoonExpiring++
		}
	}
	return d
}

// ExpiringSoon reports whether expiry falls in (now, now+horizon].
func ExpiringSoon(expiry, now time.Time, horizon time.Duration) bool {
	return expiry.After(now) && !expiry.After(now.Add(horizon))
}

// DaysBetween returns the number of calendar days from the date of from to the
// date of to, both taken in UTC. Negative when to is earlier.
func DaysBetween(from, to time.Time) int {
	f := truncateDay(from)
	t := truncateDay(to)
	return int(math.Round(t.Sub(f).Hours() / 24))
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
