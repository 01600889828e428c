// Package fitting computes track-fitting quantities for a length of line.
package fitting

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/railtms/assettrack/internal/models"
)

// ErrInvalidFitting indicates an unusable line length or gauge.
var ErrInvalidFitting = errors.New("invalid fitting request")

// SleepersPerKm maps gauge codes to sleeper density.
var SleepersPerKm = map[string]float64{
	"BG": 1660,
	"MG": 1430,
	"NG": 1200,
}

// Each sleeper seats two railpads and two liners.
const (
	railpadsPerSleeper = 2
	linersPerSleeper   = 2
)

// Calculate returns the sleepers, railpads and liners needed for lengthKm of
// gauge track. gauge is case-insensitive.
func Calculate(lengthKm float64, gauge string) (*models.FittingResult, error) {
	if lengthKm <= 0 || math.IsNaN(lengthKm) || math.IsInf(lengthKm, 0) {
		return nil, fmt.Errorf("%w: line length must be a positive number, got %v", ErrInvalidFitting, lengthKm)
	}
	code := strings.ToUpper(strings.TrimSpace(gauge))
	perKm, ok := SleepersPerKm[code]
	if !ok {
		return nil, fmt.Errorf("%w: gauge %q, use BG, MG or NG", ErrInvalidFitting, gauge)
	}

	sleepers := int(math.Round(perKm * lengthKm))
	return &models.FittingResult{
		GaugeType:    code,
		LineLengthKm: lengthKm,
		Sleepers:     sleepers,
		Railpads:     sleepers * railpadsPerSleeper,
		Liners:       sleepers * linersPerSleeper,
	}, nil
}
