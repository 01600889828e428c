package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/railtms/assettrack/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			Width(14)

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("99")).
			MarginTop(1)
)

func field(label, value string) string {
	if value == "" {
		value = "-"
	}
	return labelStyle.Render(label) + valueStyle.Render(value) + "\n"
}

func dateValue(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(models.DateLayout)
}

// renderAssetDetail renders the detail screen for one asset
func renderAssetDetail(d *models.AssetDetail) string {
	if d == nil || d.Item == nil {
		return "Loading asset..."
	}
	a := d.Item

	var b strings.Builder
	b.WriteString(headerStyle.Render(a.UID) + "\n")
	b.WriteString(field("Asset type", a.AssetType))
	b.WriteString(field("Item type", a.ItemType))
	b.WriteString(field("Zone", strings.Trim(a.Zone+" / "+a.Division, " /")))
	b.WriteString(field("Vendor", a.VendorName))
	b.WriteString(field("Condition", a.ConditionLot))
	b.WriteString(field("Remarks", a.Remarks))
	b.WriteString(field("Warranty", dateValue(a.WarrantyExpiry)))
	b.WriteString(field("Inspected", dateValue(a.LastInspection)))
	if a.Latitude != nil && a.Longitude != nil {
		b.WriteString(field("Location", fmt.Sprintf("%.5f, %.5f", *a.Latitude, *a.Longitude)))
	}

	v := d.AssemblyRemark
	b.WriteString(sectionStyle.Render("Assembly") + "\n")
	b.WriteString(verdictStyle(v.Status).Bold(true).Render(fmt.Sprintf("● %s  %s", strings.ToUpper(string(v.Status)), v.Remark)) + "\n")
	b.WriteString("  " + v.Reason + "\n")

	if vc := d.VendorContext; vc != nil {
		b.WriteString(sectionStyle.Render("Vendor "+vc.VendorName) + "\n")
		b.WriteString(fmt.Sprintf("  %d assets, %d good, %d needs repair\n", vc.TotalAssets, vc.GoodConditionCount, vc.NeedsRepairCount))
	}
	if ic := d.InventoryContext; ic != nil {
		b.WriteString(sectionStyle.Render("Type "+ic.AssetType) + "\n")
		avg := "no warranty dates"
		if ic.AvgDaysLeftWarranty != nil {
			avg = fmt.Sprintf("avg %.1f days of warranty left", *ic.AvgDaysLeftWarranty)
		}
		b.WriteString(fmt.Sprintf("  %d units, %s\n", ic.TotalUnits, avg))
	}
	return b.String()
}
