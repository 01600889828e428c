// Package export reads and writes assettrack spreadsheets.
package export

import (
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/railtms/assettrack/internal/models"
)

// Sheet names in the report workbook.
const (
	VendorSheet    = "Vendors"
	InventorySheet = "Inventory"
)

// ContentType is the MIME type of xlsx workbooks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	vendorHeaders    = []string{"Vendor", "Total Assets", "Good", "Needs Repair"}
	inventoryHeaders = []string{"Asset Type", "Total Units", "Avg Days Left (Warranty)"}
)

// Reports builds a workbook with one sheet per report. Callers must Close the file.
func Reports(vendors []models.VendorReport, inventory []models.InventoryReport) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", VendorSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(InventorySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("add sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"#D9E1F2"}},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("header style: %w", err)
	}

	writeHeader(f, VendorSheet, vendorHeaders, headerStyle)
	for i, v := range vendors {
		row := i + 2
		f.SetCellValue(VendorSheet, fmt.Sprintf("A%d", row), v.VendorName)
		f.SetCellValue(VendorSheet, fmt.Sprintf("B%d", row), v.TotalAssets)
		f.SetCellValue(VendorSheet, fmt.Sprintf("C%d", row), v.GoodConditionCount)
		f.SetCellValue(VendorSheet, fmt.Sprintf("D%d", row), v.NeedsRepairCount)
	}
	setWidths(f, VendorSheet, []float64{28, 14, 10, 14})

	writeHeader(f, InventorySheet, inventoryHeaders, headerStyle)
	for i, inv := range inventory {
		row := i + 2
		f.SetCellValue(InventorySheet, fmt.Sprintf("A%d", row), inv.AssetType)
		f.SetCellValue(InventorySheet, fmt.Sprintf("B%d", row), inv.TotalUnits)
		// no dated units: leave the average blank
		if inv.AvgDaysLeftWarranty != nil {
			f.SetCellValue(InventorySheet, fmt.Sprintf("C%d", row), math.Round(*inv.AvgDaysLeftWarranty*100)/100)
		}
	}
	setWidths(f, InventorySheet, []float64{24, 14, 26})

	return f, nil
}

func writeHeader(f *excelize.File, sheet string, headers []string, style int) {
	for i, h := range headers {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cell := col + "1"
		f.SetCellValue(sheet, cell, h)
		f.SetCellStyle(sheet, cell, cell, style)
	}
}

func setWidths(f *excelize.File, sheet string, widths []float64) {
	for i, w := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheet, col, col, w)
	}
}

// AssetColumns are the header names ReadAssets understands.
var AssetColumns = []string{
	"uid", "asset_type", "item_type", "zone", "division", "vendor_name", "condition_lot",
	"remarks", "warranty_expiry", "last_inspection", "latitude", "longitude",
}

// RowIssue describes a spreadsheet row that was not imported.
type RowIssue struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// ReadAssets parses the first sheet of an xlsx workbook. The first row names the
// columns in any order; unknown columns are ignored. Rows without a uid or with
// unparseable values are skipped and reported.
func ReadAssets(r io.Reader) ([]models.AssetRecord, []RowIssue, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, nil, fmt.Errorf("read excel: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("sheet %q is empty", sheet)
	}

	index := map[string]int{}
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(h))
		key = strings.ReplaceAll(key, " ", "_")
		if _, dup := index[key]; !dup {
			index[key] = i
		}
	}
	if _, ok := index["uid"]; !ok {
		return nil, nil, fmt.Errorf("header row has no uid column")
	}

	var assets []models.AssetRecord
	var issues []RowIssue
	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(name string) string {
			col, ok := index[name]
			if !ok || col >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[col])
		}

		a := models.AssetRecord{
			UID:          cell("uid"),
			AssetType:    cell("asset_type"),
			ItemType:     cell("item_type"),
			Zone:         cell("zone"),
			Division:     cell("division"),
			VendorName:   cell("vendor_name"),
			ConditionLot: cell("condition_lot"),
			Remarks:      cell("remarks"),
		}
		if a.UID == "" {
			if !blankRow(row) {
				issues = append(issues, RowIssue{Row: rowNum, Reason: "missing uid"})
			}
			continue
		}

		var parseErr error
		if a.WarrantyExpiry, parseErr = parseDate(cell("warranty_expiry")); parseErr != nil {
			issues = append(issues, RowIssue{Row: rowNum, Reason: "warranty_expiry: " + parseErr.Error()})
			continue
		}
		if a.LastInspection, parseErr = parseDate(cell("last_inspection")); parseErr != nil {
			issues = append(issues, RowIssue{Row: rowNum, Reason: "last_inspection: " + parseErr.Error()})
			continue
		}
		if a.Latitude, parseErr = parseFloat(cell("latitude")); parseErr != nil {
			issues = append(issues, RowIssue{Row: rowNum, Reason: "latitude: " + parseErr.Error()})
			continue
		}
		if a.Longitude, parseErr = parseFloat(cell("longitude")); parseErr != nil {
			issues = append(issues, RowIssue{Row: rowNum, Reason: "longitude: " + parseErr.Error()})
			continue
		}
		assets = append(assets, a)
	}
	return assets, issues, nil
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseDate accepts YYYY-MM-DD text or an Excel date serial.
func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(models.DateLayout, s); err == nil {
		return &t, nil
	}
	serial, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("unrecognised date %q", s)
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return nil, err
	}
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return &d, nil
}

func parseFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("not a number %q", s)
	}
	return &v, nil
}
