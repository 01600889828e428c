package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/railtms/assettrack/internal/models"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show aggregate reports",
}

var reportVendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "Asset condition counts per vendor",
	RunE:  runReportVendors,
}

var reportInventoryCmd = &cobra.Command{
	Use:   "inventory",
	Short: "Unit counts and warranty days left per asset type",
	RunE:  runReportInventory,
}

var reportLotsCmd = &cobra.Command{
	Use:   "lots [vendor]",
	Short: "Ready and not-ready counts for one vendor",
	Args:  cobra.ExactArgs(1),
	RunE:  runReportLots,
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Download the vendor and inventory reports as xlsx",
	RunE:  runReportExport,
}

var (
	exportOut string
)

func init() {
	reportCmd.AddCommand(reportVendorsCmd, reportInventoryCmd, reportLotsCmd, reportExportCmd)
	reportExportCmd.Flags().StringVarP(&exportOut, "out", "o", "assettrack_reports.xlsx", "Output file")
}

func runReportVendors(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/reports/vendors")
	if err != nil {
		return err
	}

	var rows []models.VendorReport
	if err := json.Unmarshal(resp, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No vendor data")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VENDOR\tTOTAL\tGOOD\tNEEDS REPAIR")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\n", truncate(r.VendorName, 40), r.TotalAssets, r.GoodConditionCount, r.NeedsRepairCount)
	}
	w.Flush()
	return nil
}

func runReportInventory(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/reports/inventory")
	if err != nil {
		return err
	}

	var rows []models.InventoryReport
	if err := json.Unmarshal(resp, &rows); err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Println("No inventory data")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ASSET TYPE\tUNITS\tAVG DAYS LEFT")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%d\t%s\n", r.AssetType, r.TotalUnits, formatAvg(r.AvgDaysLeftWarranty))
	}
	w.Flush()
	return nil
}

func runReportLots(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/reports/vendors/" + url.PathEscape(args[0]) + "/lots")
	if err != nil {
		return err
	}

	var sum models.LotStatusSummary
	if err := json.Unmarshal(resp, &sum); err != nil {
		return err
	}
	fmt.Printf("%s: %d ready, %d not ready\n", args[0], sum.ReadyCount, sum.NotReadyCount)
	return nil
}

func runReportExport(cmd *cobra.Command, args []string) error {
	resp, err := apiClient.Get(apiAddr + "/reports/export")
	if err != nil {
		return fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return apiError(resp.StatusCode, body)
	}

	out, err := os.Create(exportOut)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	fmt.Printf("Wrote %s\n", exportOut)
	return nil
}
