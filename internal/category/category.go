// Package category classifies approvals into money, relation, or
// liability by keyword inspection of the subject and action. Any match
// forces mandatory human sign-off regardless of automation confidence —
// a conservative OR across the taxonomy.
package category

import (
	"strings"

	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/model"
)

// None is returned when no category matches.
const None = ""

// Categorize returns the first matching category name in taxonomy
// order, or None. The shipped order is money > relation > liability;
// categories are not mutually exclusive in matching, but only the first
// hit is reported. Matching is case-insensitive substring over
// subject_id and action_type.
func Categorize(a model.Approval, taxonomy []config.Category) string {
	subject := strings.ToLower(a.SubjectID)
	action := strings.ToLower(a.ActionType)

	for _, cat := range taxonomy {
		for _, kw := range cat.Keywords {
			kw = strings.ToLower(kw)
			if kw == "" {
				continue
			}
			if strings.Contains(subject, kw) || strings.Contains(action, kw) {
				return cat.Name
			}
		}
	}
	return None
}

// RequiresManualApproval reports whether the approval falls into any
// category and therefore cannot be auto-approved.
func RequiresManualApproval(a model.Approval, taxonomy []config.Category) bool {
	return Categorize(a, taxonomy) != None
}
