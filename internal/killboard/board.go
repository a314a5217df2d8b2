// Package killboard tracks automation rules that can be switched off.
// Killing a rule opens a cooldown window during which it can be neither
// re-killed nor restarted; the rule resumes running only through an
// explicit restart after the window lapses.
package killboard

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/decisiongate/internal/clock"
	"github.com/ppiankov/decisiongate/internal/model"
)

// DefaultCooldown is the shipped waiting period after a kill.
const DefaultCooldown = 30 * time.Minute

// Result is the outcome of a kill or restart eligibility check.
type Result struct {
	Allowed bool
	Reason  string
}

// Board owns the rule registry for one governance instance.
type Board struct {
	mu       sync.Mutex
	clock    clock.Clock
	cooldown time.Duration
	rules    map[string]*model.Rule
	order    []string
}

// NewBoard creates a board with the given cooldown window.
// A non-positive cooldown falls back to DefaultCooldown.
func NewBoard(c clock.Clock, cooldown time.Duration) *Board {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Board{
		clock:    c,
		cooldown: cooldown,
		rules:    make(map[string]*model.Rule),
	}
}

// Add registers a running rule under a generated id.
func (b *Board) Add(name string) (model.Rule, error) {
	if name == "" {
		return model.Rule{}, &model.ValidationError{Field: "name", Reason: "is required"}
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	r := &model.Rule{
		ID:        uuid.NewString(),
		Name:      name,
		Status:    model.RuleRunning,
		StartedAt: b.clock.Now(),
	}
	b.rules[r.ID] = r
	b.order = append(b.order, r.ID)
	return *r, nil
}

// InCooldown reports whether the rule's cooldown window is still open
// as seen from now.
func InCooldown(r model.Rule, now time.Time) bool {
	return r.CooldownUntil != nil && now.Before(*r.CooldownUntil)
}

// CanKill checks whether the rule may be killed right now. Cooldown is
// checked before the killed status: a just-killed rule is both at once,
// and the cooldown reason with minutes remaining is the actionable one.
func CanKill(r model.Rule, now time.Time) Result {
	if InCooldown(r, now) {
		return Result{Reason: cooldownReason(r, now)}
	}
	if r.Status == model.RuleKilled {
		return Result{Reason: fmt.Sprintf("rule %q already killed", r.Name)}
	}
	return Result{Allowed: true}
}

func cooldownReason(r model.Rule, now time.Time) string {
	mins := int(math.Ceil(r.CooldownUntil.Sub(now).Minutes()))
	return fmt.Sprintf("Cooldown active: %dmin remaining", mins)
}

// Kill switches the rule off and opens its cooldown window. The
// eligibility check and the mutation happen under one lock, so two
// concurrent kill attempts cannot both succeed.
func (b *Board) Kill(id string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rules[id]
	if !ok {
		return Result{}, fmt.Errorf("rule %q not found", id)
	}

	now := b.clock.Now()
	res := CanKill(*r, now)
	if !res.Allowed {
		return res, nil
	}

	until := now.Add(b.cooldown)
	r.Status = model.RuleKilled
	r.KilledAt = &now
	r.CooldownUntil = &until
	return res, nil
}

// Restart resumes a killed rule after its cooldown has lapsed. There is
// no automatic un-kill: this is the only path back to running.
func (b *Board) Restart(id string) (Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.rules[id]
	if !ok {
		return Result{}, fmt.Errorf("rule %q not found", id)
	}

	now := b.clock.Now()
	if InCooldown(*r, now) {
		return Result{Reason: cooldownReason(*r, now)}, nil
	}
	if r.Status != model.RuleKilled {
		return Result{Reason: fmt.Sprintf("rule %q is not killed", r.Name)}, nil
	}

	r.Status = model.RuleRunning
	r.StartedAt = now
	r.KilledAt = nil
	r.CooldownUntil = nil
	return Result{Allowed: true}, nil
}

// Get returns a copy of the rule with the given id.
func (b *Board) Get(id string) (model.Rule, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	r, ok := b.rules[id]
	if !ok {
		return model.Rule{}, false
	}
	return *r, true
}

// List returns all rules in registration order.
func (b *Board) List() []model.Rule {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]model.Rule, 0, len(b.order))
	for _, id := range b.order {
		out = append(out, *b.rules[id])
	}
	return out
}

// EffectiveStatus reports the rule status with the cooldown window made
// visible: a killed rule inside its window shows as cooldown.
func (b *Board) EffectiveStatus(r model.Rule) model.RuleStatus {
	if r.Status == model.RuleKilled && InCooldown(r, b.clock.Now()) {
		return model.RuleCooldown
	}
	return r.Status
}

// Hydrate loads previously persisted rules, replacing the current set.
func (b *Board) Hydrate(rules []model.Rule) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rules = make(map[string]*model.Rule, len(rules))
	b.order = b.order[:0]
	for i := range rules {
		r := rules[i]
		b.rules[r.ID] = &r
		b.order = append(b.order, r.ID)
	}
}
