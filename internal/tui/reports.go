package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/railtms/assettrack/internal/models"
)

var (
	tableHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#06B6D4"))
	mutedStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
)

func renderDashboard(d *models.DashboardSummary) string {
	if d == nil {
		return ""
	}
	return fmt.Sprintf("  Total %s   Good %s   Needs repair %s   Expiring soon %s\n",
		valueStyle.Bold(true).Render(fmt.Sprint(d.Total)),
		verdictOK.Render(fmt.Sprint(d.Good)),
		verdictWarning.Render(fmt.Sprint(d.NeedsRepair)),
		verdictFail.Render(fmt.Sprint(d.SoonExpiring)))
}

// renderVendors renders the vendor report screen
func renderVendors(rows []models.VendorReport, dash *models.DashboardSummary, height int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Vendors") + "\n")
	b.WriteString(renderDashboard(dash) + "\n")

	if len(rows) == 0 {
		b.WriteString("  " + mutedStyle.Render("No vendor data") + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
		tableHeaderStyle.Render(fmt.Sprintf("%-30s", "VENDOR")),
		tableHeaderStyle.Render(fmt.Sprintf("%7s", "TOTAL")),
		tableHeaderStyle.Render(fmt.Sprintf("%7s", "GOOD")),
		tableHeaderStyle.Render(fmt.Sprintf("%13s", "NEEDS REPAIR"))))

	for i, r := range rows {
		if height > 0 && i >= height {
			b.WriteString("  " + mutedStyle.Render(fmt.Sprintf("... %d more", len(rows)-i)) + "\n")
			break
		}
		b.WriteString(fmt.Sprintf("  %-30s %7d %7d %13d\n", truncate(r.VendorName, 30), r.TotalAssets, r.GoodConditionCount, r.NeedsRepairCount))
	}
	return b.String()
}

// renderAlerts renders the recent alerts screen
func renderAlerts(alerts []models.ExpiryAlert, height int) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Warranty alerts") + "\n\n")

	if len(alerts) == 0 {
		b.WriteString("  " + mutedStyle.Render("No alerts") + "\n")
		return b.String()
	}

	b.WriteString(fmt.Sprintf("  %s %s %s %s\n",
		tableHeaderStyle.Render(fmt.Sprintf("%-20s", "UID")),
		tableHeaderStyle.Render(fmt.Sprintf("%-12s", "EXPIRES")),
		tableHeaderStyle.Render(fmt.Sprintf("%9s", "DAYS LEFT")),
		tableHeaderStyle.Render("RAISED")))

	for i, a := range alerts {
		if height > 0 && i >= height {
			break
		}
		days := fmt.Sprintf("%9d", a.DaysLeft)
		if a.DaysLeft <= 7 {
			days = verdictFail.Render(days)
		} else {
			days = verdictWarning.Render(days)
		}
		b.WriteString(fmt.Sprintf("  %-20s %-12s %s %s\n",
			truncate(a.UID, 20),
			a.WarrantyExpiry.UTC().Format(models.DateLayout),
			days,
			mutedStyle.Render(a.CreatedAt.Local().Format("2006-01-02 15:04"))))
	}
	return b.String()
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}
