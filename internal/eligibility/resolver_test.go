package eligibility

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/model"
)

func TestIsEligibleLookupOrder(t *testing.T) {
	rules := config.EligibilityRules{
		"enroll": {"active", "trial"},
		"*":      {"active"},
	}

	cases := []struct {
		name       string
		actionType string
		status     string
		want       bool
	}{
		{"explicit action, allowed status", "enroll", "trial", true},
		{"explicit action, blocked status", "enroll", "suspended", false},
		{"fallback action, allowed status", "renew", "active", true},
		{"fallback action, blocked status", "renew", "frozen", false},
		{"status match is case-insensitive", "enroll", "Active", true},
	}
	for _, tc := range cases {
		state := model.State{SubjectType: "student", Status: tc.status}
		got := IsEligible("student", tc.actionType, state, rules)
		if got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestIsEligibleNoFallbackDeniesUnknownAction(t *testing.T) {
	rules := config.EligibilityRules{"enroll": {"active"}}
	state := model.State{SubjectType: "student", Status: "active"}
	if IsEligible("student", "refund", state, rules) {
		t.Error("unknown action with no fallback must not be eligible")
	}
}

func TestIsEligibleEmptyStatusListNeverEligible(t *testing.T) {
	rules := config.EligibilityRules{"purge": {}}
	state := model.State{SubjectType: "admin", Status: "active"}
	if IsEligible("admin", "purge", state, rules) {
		t.Error("action mapped to empty status list must never be eligible")
	}
}

func TestIsEligibleRejectsEmptyInputs(t *testing.T) {
	rules := config.EligibilityRules{"*": {"active"}}
	state := model.State{Status: "active"}
	if IsEligible("", "enroll", state, rules) {
		t.Error("empty subject type must not be eligible")
	}
	if IsEligible("student", "", state, rules) {
		t.Error("empty action type must not be eligible")
	}
}

func TestEvaluateStampsTimeWithoutAffectingOutcome(t *testing.T) {
	rules := config.EligibilityRules{"*": {"active"}}
	state := model.State{SubjectType: "student", Status: "active"}
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	e1 := Evaluate("student", "enroll", state, rules, now)
	e2 := Evaluate("student", "enroll", state, rules, now.Add(48*time.Hour))
	if e1.Eligible != e2.Eligible {
		t.Error("evaluation time must not change the outcome")
	}
	if !e1.EvaluatedAt.Equal(now) {
		t.Errorf("expected evaluated_at %s, got %s", now, e1.EvaluatedAt)
	}
}

// Replaying an evaluation with unchanged inputs must always produce the
// same boolean.
func TestIsEligibleDeterminism(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	rules := config.EligibilityRules{
		"enroll": {"active", "trial"},
		"*":      {"active"},
	}

	properties.Property("replay yields identical output", prop.ForAll(
		func(subjectType, actionType, status string) bool {
			state := model.State{SubjectType: subjectType, Status: status}
			first := IsEligible(subjectType, actionType, state, rules)
			for i := 0; i < 5; i++ {
				if IsEligible(subjectType, actionType, state, rules) != first {
					return false
				}
			}
			return true
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.OneConstOf("active", "trial", "suspended", "frozen", ""),
	))

	properties.TestingRun(t)
}
