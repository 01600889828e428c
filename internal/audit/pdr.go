// Package audit writes Process Decision Records for state-changing actions.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/railtms/assettrack/internal/models"
)

// Actions recorded in the decision log.
const (
	ActionAssetUpdate = "asset.update"
	ActionAssetImport = "asset.import"
	ActionScanRun     = "scan.run"
)

// Outcomes recorded in the decision log.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
	OutcomeRejected  = "rejected"
)

// Recorder persists decision records.
type Recorder interface {
	WritePDR(action, inputsHash, outcome, subjectID, details string) (*models.PDREntry, error)
}

// PDRWriter writes Process Decision Records for audit trails.
type PDRWriter struct {
	store Recorder
}

// NewPDRWriter creates a new PDR writer.
func NewPDRWriter(s Recorder) *PDRWriter {
	return &PDRWriter{store: s}
}

// Record writes a PDR entry for a state-mutating action.
func (w *PDRWriter) Record(action string, inputs interface{}, outcome, subjectID, details string) (*models.PDREntry, error) {
	return w.store.WritePDR(action, HashInputs(inputs), outcome, subjectID, details)
}

// HashInputs returns the hex SHA-256 of the JSON encoding of inputs.
func HashInputs(inputs interface{}) string {
	data, err := json.Marshal(inputs)
	if err != nil {
		return "hash_error"
	}
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
