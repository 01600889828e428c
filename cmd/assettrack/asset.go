package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/railtms/assettrack/internal/export"
	"github.com/railtms/assettrack/internal/models"
)

var assetCmd = &cobra.Command{
	Use:   "asset",
	Short: "Inspect and update tracked assets",
}

var assetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List assets",
	RunE:  runAssetList,
}

var assetShowCmd = &cobra.Command{
	Use:   "show [uid]",
	Short: "Show an asset with its assembly verdict",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetShow,
}

var assetUpdateCmd = &cobra.Command{
	Use:   "update [uid]",
	Short: "Record an inspection for an asset",
	Args:  cobra.ExactArgs(1),
	RunE:  runAssetUpdate,
}

var assetImportCmd = &cobra.Command{
	Use:   "import [file.xlsx]",
	Short: "Import assets from a spreadsheet",
	Long: `Reads the first sheet of an xlsx workbook. The header row names the columns:
uid, asset_type, item_type, zone, division, vendor_name, condition_lot, remarks,
warranty_expiry, last_inspection, latitude, longitude. Dates are YYYY-MM-DD.`,
	Args: cobra.ExactArgs(1),
	RunE: runAssetImport,
}

var (
	filterVendor    string
	filterType      string
	updateCondition string
	updateRemarks   string
	updateInspected string
	updateLat       float64
	updateLng       float64
)

func init() {
	assetCmd.AddCommand(assetListCmd, assetShowCmd, assetUpdateCmd, assetImportCmd)

	assetListCmd.Flags().StringVar(&filterVendor, "vendor", "", "Filter by vendor name")
	assetListCmd.Flags().StringVar(&filterType, "type", "", "Filter by asset type")

	assetUpdateCmd.Flags().StringVar(&updateCondition, "condition", "", "Condition lot (Good, Fair, Needs Repair, Need Replacement)")
	assetUpdateCmd.Flags().StringVar(&updateRemarks, "remarks", "", "Inspector remarks")
	assetUpdateCmd.Flags().StringVar(&updateInspected, "inspected", "", "Inspection date (YYYY-MM-DD)")
	assetUpdateCmd.Flags().Float64Var(&updateLat, "lat", 0, "Latitude")
	assetUpdateCmd.Flags().Float64Var(&updateLng, "lng", 0, "Longitude")
	assetUpdateCmd.MarkFlagRequired("condition")
}

func runAssetList(cmd *cobra.Command, args []string) error {
	q := url.Values{}
	if filterVendor != "" {
		q.Set("vendor", filterVendor)
	}
	if filterType != "" {
		q.Set("type", filterType)
	}
	path := "/assets"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	resp, err := apiGet(path)
	if err != nil {
		return err
	}

	var assets []models.AssetRecord
	if err := json.Unmarshal(resp, &assets); err != nil {
		return err
	}

	if len(assets) == 0 {
		fmt.Println("No assets found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tTYPE\tVENDOR\tCONDITION\tWARRANTY")
	for _, a := range assets {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			a.UID, orDash(a.AssetType), truncate(orDash(a.VendorName), 30), orDash(a.ConditionLot), formatDate(a.WarrantyExpiry))
	}
	w.Flush()
	return nil
}

func runAssetShow(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/assets/" + url.PathEscape(args[0]))
	if err != nil {
		return err
	}

	var d models.AssetDetail
	if err := json.Unmarshal(resp, &d); err != nil {
		return err
	}

	a := d.Item
	fmt.Printf("UID:          %s\n", a.UID)
	fmt.Printf("Asset type:   %s\n", orDash(a.AssetType))
	fmt.Printf("Item type:    %s\n", orDash(a.ItemType))
	fmt.Printf("Zone:         %s / %s\n", orDash(a.Zone), orDash(a.Division))
	fmt.Printf("Vendor:       %s\n", orDash(a.VendorName))
	fmt.Printf("Condition:    %s\n", orDash(a.ConditionLot))
	fmt.Printf("Remarks:      %s\n", orDash(a.Remarks))
	fmt.Printf("Warranty:     %s\n", formatDate(a.WarrantyExpiry))
	fmt.Printf("Inspected:    %s\n", formatDate(a.LastInspection))
	fmt.Printf("Location:     %s\n", formatCoord(a.Latitude, a.Longitude))
	fmt.Println()
	fmt.Printf("Assembly:     [%s] %s\n", d.AssemblyRemark.Status, d.AssemblyRemark.Remark)
	fmt.Printf("              %s\n", d.AssemblyRemark.Reason)

	if v := d.VendorContext; v != nil {
		fmt.Printf("\nVendor %s: %d assets, %d good, %d needs repair\n",
			v.VendorName, v.TotalAssets, v.GoodConditionCount, v.NeedsRepairCount)
	}
	if inv := d.InventoryContext; inv != nil {
		fmt.Printf("Type %s: %d units, avg %s days of warranty left\n",
			inv.AssetType, inv.TotalUnits, formatAvg(inv.AvgDaysLeftWarranty))
	}
	return nil
}

func runAssetUpdate(cmd *cobra.Command, args []string) error {
	body := map[string]interface{}{
		"condition_lot": updateCondition,
		"remarks":       updateRemarks,
	}
	if updateInspected != "" {
		body["last_inspection"] = updateInspected
	}
	if cmd.Flags().Changed("lat") {
		body["latitude"] = updateLat
	}
	if cmd.Flags().Changed("lng") {
		body["longitude"] = updateLng
	}

	resp, err := apiPut("/assets/"+url.PathEscape(args[0]), body)
	if err != nil {
		return err
	}

	var a models.AssetRecord
	if err := json.Unmarshal(resp, &a); err != nil {
		return err
	}
	fmt.Printf("Updated %s: condition %s\n", a.UID, a.ConditionLot)
	return nil
}

func runAssetImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	assets, issues, err := export.ReadAssets(f)
	if err != nil {
		return err
	}
	for _, is := range issues {
		fmt.Fprintf(os.Stderr, "row %d skipped: %s\n", is.Row, is.Reason)
	}
	if len(assets) == 0 {
		return fmt.Errorf("no importable rows in %s", args[0])
	}

	resp, err := apiPost("/assets", assets)
	if err != nil {
		return err
	}

	var result struct {
		Imported int `json:"imported"`
	}
	if err := json.Unmarshal(resp, &result); err != nil {
		return err
	}
	fmt.Printf("Imported %d assets (%d rows skipped)\n", result.Imported, len(issues))
	return nil
}
