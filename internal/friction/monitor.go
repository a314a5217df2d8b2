// Package friction watches rolling counts of operational friction
// signals and forces a jump to human review when thresholds trip.
// Questions, interventions, and exceptions must exceed their threshold;
// escalations trip at the threshold — one escalation is always enough.
package friction

import (
	"fmt"
	"strings"

	"github.com/ppiankov/decisiongate/internal/config"
	"github.com/ppiankov/decisiongate/internal/model"
)

// Result is the outcome of a friction evaluation.
type Result struct {
	Escalate bool
	Reason   string
}

// ShouldEscalate reports whether any friction signal crossed its
// threshold.
func ShouldEscalate(delta model.FrictionDelta, th config.FrictionThresholds) bool {
	return delta.Questions > th.Questions ||
		delta.Interventions > th.Interventions ||
		delta.Exceptions > th.Exceptions ||
		delta.Escalations >= th.Escalations
}

// Evaluate wraps ShouldEscalate with a reason naming every tripped
// signal, for audit and operator display.
func Evaluate(delta model.FrictionDelta, th config.FrictionThresholds) Result {
	var tripped []string
	if delta.Questions > th.Questions {
		tripped = append(tripped, fmt.Sprintf("questions %d > %d", delta.Questions, th.Questions))
	}
	if delta.Interventions > th.Interventions {
		tripped = append(tripped, fmt.Sprintf("interventions %d > %d", delta.Interventions, th.Interventions))
	}
	if delta.Exceptions > th.Exceptions {
		tripped = append(tripped, fmt.Sprintf("exceptions %d > %d", delta.Exceptions, th.Exceptions))
	}
	if delta.Escalations >= th.Escalations {
		tripped = append(tripped, fmt.Sprintf("escalations %d >= %d", delta.Escalations, th.Escalations))
	}

	if len(tripped) == 0 {
		return Result{}
	}
	return Result{
		Escalate: true,
		Reason:   "friction threshold crossed: " + strings.Join(tripped, ", "),
	}
}
