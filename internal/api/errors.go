package api

import "errors"

// Sentinel errors for API operations.
var (
	ErrConditionRequired = errors.New("condition_lot is required")
	ErrNoAssets          = errors.New("no assets supplied")
)
