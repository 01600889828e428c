package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/railtms/assettrack/internal/api"
	"github.com/railtms/assettrack/internal/models"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Run the warranty expiration scan now",
	RunE:  runScan,
}

var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "List recent warranty expiry alerts",
	RunE:  runAlerts,
}

var (
	scanStateOnly bool
	alertsLimit   int
)

func init() {
	scanCmd.Flags().BoolVar(&scanStateOnly, "state", false, "Show scanner state and last run instead of scanning")
	alertsCmd.Flags().IntVar(&alertsLimit, "limit", 20, "Maximum alerts to show")
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanStateOnly {
		resp, err := apiGet("/scans/state")
		if err != nil {
			return err
		}
		var st api.ScanStatus
		if err := json.Unmarshal(resp, &st); err != nil {
			return err
		}
		fmt.Printf("State: %s\n", st.State)
		if st.LastRun != nil {
			printScan(st.LastRun)
		}
		if st.LastError != "" {
			fmt.Printf("Last error: %s\n", st.LastError)
		}
		return nil
	}

	resp, err := apiPost("/scans", nil)
	if err != nil {
		return err
	}
	var res models.ScanResult
	if err := json.Unmarshal(resp, &res); err != nil {
		return err
	}
	printScan(&res)
	return nil
}

func printScan(res *models.ScanResult) {
	fmt.Printf("Scan %s: %d scanned, %d alerted", res.ID, res.Scanned, res.Alerted)
	if res.EmitFailures > 0 {
		fmt.Printf(", %d failed to emit", res.EmitFailures)
	}
	if res.Cancelled {
		fmt.Print(" (cancelled)")
	}
	fmt.Printf(" in %s\n", res.FinishedAt.Sub(res.StartedAt))
}

func runAlerts(cmd *cobra.Command, args []string) error {
	resp, err := apiGet("/alerts?limit=" + strconv.Itoa(alertsLimit))
	if err != nil {
		return err
	}

	var alerts []models.ExpiryAlert
	if err := json.Unmarshal(resp, &alerts); err != nil {
		return err
	}
	if len(alerts) == 0 {
		fmt.Println("No alerts")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "UID\tWARRANTY EXPIRY\tDAYS LEFT\tRAISED")
	for _, a := range alerts {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", a.UID, formatDate(&a.WarrantyExpiry), a.DaysLeft, a.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	return nil
}
