// Package eligibility answers "may subject type X perform action type Y
// now" as a plain boolean. The computation is a pure function of the
// subject's derived state and the configured rules — no side effects and
// no numeric score that downstream systems could game.
package eligibility

import (
	"strings"
	"time"

	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/model"
)

// IsEligible reports whether the action type is permitted for a subject
// in the given state. Identical inputs always produce identical output.
//
// Lookup order: rules[actionType] → rules["*"] → not eligible.
// An action type mapped to an empty status list is never eligible.
func IsEligible(subjectType, actionType string, state model.State, rules config.EligibilityRules) bool {
	if subjectType == "" || actionType == "" {
		return false
	}

	allowed, ok := rules[actionType]
	if !ok {
		allowed, ok = rules["*"]
	}
	if !ok {
		return false
	}

	for _, status := range allowed {
		if strings.EqualFold(status, state.Status) {
			return true
		}
	}
	return false
}

// Evaluate wraps IsEligible in an Eligibility record stamped with the
// evaluation time. The timestamp is presentation metadata; the boolean
// depends only on state and rules.
func Evaluate(subjectType, actionType string, state model.State, rules config.EligibilityRules, now time.Time) model.Eligibility {
	return model.Eligibility{
		SubjectType: subjectType,
		ActionType:  actionType,
		Eligible:    IsEligible(subjectType, actionType, state, rules),
		EvaluatedAt: now,
	}
}
