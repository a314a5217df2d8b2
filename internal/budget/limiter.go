// Package budget rate-limits HIGH-cost decisions to a fixed cap per ISO
// week. Exceeding the cap is not merely a denial: it additionally
// signals the caller to kill the responsible automation rule.
package budget

import (
	"fmt"
	"sync"

	"github.com/ppiankov/decisiongate/internal/clock"
	"github.com/ppiankov/decisiongate/internal/model"
)

// DefaultHighCap is the shipped cap on HIGH-cost decisions per week.
const DefaultHighCap = 1

// Result is the outcome of a budget check.
type Result struct {
	Allowed bool
	Reason  string
	// AutoKill signals that the caller must trigger a kill on the
	// responsible rule. Set only on a HIGH-cost cap violation.
	AutoKill bool
}

// CanApproveHighCost reports whether the budget has a HIGH slot left.
func CanApproveHighCost(b model.WeeklyBudget) Result {
	if b.HighDecisionsUsed < b.HighDecisionsCap {
		return Result{Allowed: true}
	}
	return Result{
		Reason: fmt.Sprintf("Weekly HIGH decision cap exceeded (%d/%d)",
			b.HighDecisionsUsed, b.HighDecisionsCap),
	}
}

// CheckBudget gates one decision by cost. Non-HIGH costs always pass.
// A HIGH cost over the cap comes back with AutoKill=true — the designed
// "deny and escalate" outcome, not a fault.
func CheckBudget(b model.WeeklyBudget, cost model.Cost) Result {
	if cost != model.CostHigh {
		return Result{Allowed: true}
	}
	r := CanApproveHighCost(b)
	r.AutoKill = !r.Allowed
	return r
}

// Limiter owns the current week's budget for one governance instance.
// Crossing the Monday boundary constructs a fresh budget; a stale week's
// counter is never mutated.
type Limiter struct {
	mu      sync.Mutex
	clock   clock.Clock
	cap     int
	current model.WeeklyBudget
}

// NewLimiter creates a limiter with the given weekly HIGH cap.
// A non-positive cap falls back to DefaultHighCap.
func NewLimiter(c clock.Clock, highCap int) *Limiter {
	if highCap < 1 {
		highCap = DefaultHighCap
	}
	l := &Limiter{clock: c, cap: highCap}
	l.current = l.freshBudget()
	return l
}

func (l *Limiter) freshBudget() model.WeeklyBudget {
	start, end := WeekBounds(l.clock.Now())
	return model.WeeklyBudget{
		HighDecisionsCap: l.cap,
		WeekStart:        start,
		WeekEnd:          end,
	}
}

// rollover replaces the budget when now has left the tracked week.
// Caller must hold l.mu.
func (l *Limiter) rollover() {
	now := l.clock.Now()
	if now.After(l.current.WeekEnd) || now.Before(l.current.WeekStart) {
		l.current = l.freshBudget()
	}
}

// Current returns a snapshot of this week's budget.
func (l *Limiter) Current() model.WeeklyBudget {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()
	return l.current
}

// Check gates a decision by cost against the current week without
// consuming a slot.
func (l *Limiter) Check(cost model.Cost) Result {
	return CheckBudget(l.Current(), cost)
}

// ReserveHighDecisionSlot atomically checks and consumes one HIGH slot.
// Check and increment happen under one lock so concurrent callers
// cannot race past the cap.
func (l *Limiter) ReserveHighDecisionSlot() Result {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rollover()

	r := CanApproveHighCost(l.current)
	if !r.Allowed {
		r.AutoKill = true
		return r
	}
	l.current.HighDecisionsUsed++
	return r
}

// Hydrate restores a persisted budget if it still covers the current
// week; a stale record is discarded in favor of a fresh week.
func (l *Limiter) Hydrate(b model.WeeklyBudget) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.clock.Now()
	if now.Before(b.WeekStart) || now.After(b.WeekEnd) {
		return
	}
	b.HighDecisionsCap = l.cap
	l.current = b
}
