package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/railtms/assettrack/internal/models"
)

var fittingCmd = &cobra.Command{
	Use:   "fitting",
	Short: "Calculate sleepers, railpads and liners for a length of line",
	RunE:  runFitting,
}

var (
	fittingLength float64
	fittingGauge  string
)

func init() {
	fittingCmd.Flags().Float64Var(&fittingLength, "length", 0, "Line length in km (required)")
	fittingCmd.Flags().StringVar(&fittingGauge, "gauge", "BG", "Gauge type: BG, MG or NG")
	fittingCmd.MarkFlagRequired("length")
}

func runFitting(cmd *cobra.Command, args []string) error {
	resp, err := apiPost("/fittings/calculate", map[string]interface{}{
		"line_length_km": fittingLength,
		"gauge_type":     fittingGauge,
	})
	if err != nil {
		return err
	}

	var res models.FittingResult
	if err := json.Unmarshal(resp, &res); err != nil {
		return err
	}
	fmt.Printf("%s gauge, %g km\n", res.GaugeType, res.LineLengthKm)
	fmt.Printf("  Sleepers: %d\n", res.Sleepers)
	fmt.Printf("  Railpads: %d\n", res.Railpads)
	fmt.Printf("  Liners:   %d\n", res.Liners)
	return nil
}
