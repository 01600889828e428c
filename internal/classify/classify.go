// Package classify decides whether a single asset is ready for assembly.
//
// Rules are evaluated in a fixed order and the first match wins:
//
//  1. missing asset                       -> warning "No Data"
//  2. condition lot "Need Replacement"    -> fail
//  3. warranty expired (expiry < now)     -> fail
//  4. remarks mention a keyword           -> warning
//  5. condition lot "Good" or "Fair"      -> ok
//  6. anything else                       -> warning, needs review
//
// Classification performs no I/O and never panics on partial records.
package classify

import (
	"fmt"
	"strings"
	"time"

	"github.com/railtms/assettrack/internal/models"
)

// Human-readable remarks attached to each verdict status.
const (
	RemarkNoData     = "No Data"
	RemarkNotReady   = "Not Ready for Assembly"
	RemarkInspection = "Inspection Needed"
	RemarkOK         = "OK to Assemble"
)

// DefaultKeywords are the remark fragments that flag an asset for inspection.
var DefaultKeywords = []string{"crack", "rust", "damage"}

// Policy holds the tunable part of the rule set.
type Policy struct {
	// Keywords are matched as case-insensitive substrings of the remarks.
	Keywords []string
}

// DefaultPolicy returns the policy with the default keyword list.
func DefaultPolicy() Policy {
	kw := make([]string, len(DefaultKeywords))
	copy(kw, DefaultKeywords)
	return Policy{Keywords: kw}
}

// NewPolicy builds a policy from a keyword list, lower-casing and dropping blanks.
// An empty list falls back to DefaultKeywords.
func NewPolicy(keywords []string) Policy {
	var kw []string
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			kw = append(kw, k)
		}
	}
	if len(kw) == 0 {
		return DefaultPolicy()
	}
	return Policy{Keywords: kw}
}

// Classify evaluates asset against the default policy.
func Classify(asset *models.AssetRecord, now time.Time) models.Verdict {
	return DefaultPolicy().Classify(asset, now)
}

// Classify evaluates asset at time now.
func (p Policy) Classify(asset *models.AssetRecord, now time.Time) models.Verdict {
	if asset == nil {
		return models.Verdict{Status: models.VerdictWarning, Remark: RemarkNoData, Reason: "Item not found"}
	}

	cond := asset.Condition()
	if cond == models.ConditionNeedReplacement {
		return models.Verdict{
			Status: models.VerdictFail,
			Remark: RemarkNotReady,
			Reason: fmt.Sprintf("Asset condition is '%s'.", asset.ConditionLot),
		}
	}

	if asset.WarrantyExpiry != nil && asset.WarrantyExpiry.Before(now) {
		return models.Verdict{Status: models.VerdictFail, Remark: RemarkNotReady, Reason: "Warranty has expired."}
	}

	if kw := p.matchKeyword(asset.Remarks); kw != "" {
		return models.Verdict{
			Status: models.VerdictWarning,
			Remark: RemarkInspection,
			Reason: fmt.Sprintf("Remark indicates issue: \"%s\"", asset.Remarks),
		}
	}

	switch cond {
	case models.ConditionGood, models.ConditionFair:
		return models.Verdict{Status: models.VerdictOK, Remark: RemarkOK, Reason: "Condition acceptable and checks passed."}
	}

	label := asset.ConditionLot
	if cond == models.ConditionUnset {
		label = cond.String()
	}
	return models.Verdict{
		Status: models.VerdictWarning,
		Remark: RemarkInspection,
		Reason: fmt.Sprintf("Condition '%s' needs review.", label),
	}
}

// matchKeyword returns the first keyword found in remarks, or "".
func (p Policy) matchKeyword(remarks string) string {
	if remarks == "" {
		return ""
	}
	text := strings.ToLower(remarks)
	for _, kw := range p.Keywords {
		if kw != "" && strings.Contains(text, strings.ToLower(kw)) {
			return kw
		}
	}
	return ""
}
