// Package approval tracks gated decision requests through their
// lifecycle: PENDING → {APPROVED, DENIED, DEFERRED}. Deferral is not
// terminal — a deferred approval gets a fresh deadline and re-enters the
// open queue until it is finally approved or denied. Records are never
// deleted; superseding decisions overwrite the value in place so the
// history of the request stays auditable.
package approval

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ppiankov/decisiongate/internal/clock"
	"github.com/ppiankov/decisiongate/internal/model"
)

// DefaultTTL is the time a newly created approval stays actionable
// before it is surfaced as expired.
const DefaultTTL = 24 * time.Hour

// ErrAlreadyDecided is returned when a terminal approval is re-decided.
var ErrAlreadyDecided = errors.New("approval already decided")

// Manager owns all approval records for one governance instance.
type Manager struct {
	mu      sync.Mutex
	clock   clock.Clock
	ttl     time.Duration
	records map[string]*model.Approval
	order   []string
}

// NewManager creates a manager with the given clock and TTL.
// A non-positive TTL falls back to DefaultTTL.
func NewManager(c clock.Clock, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Manager{
		clock:   c,
		ttl:     ttl,
		records: make(map[string]*model.Approval),
	}
}

// SetTTL changes the TTL applied to approvals created or deferred from
// now on. Existing deadlines are untouched.
func (m *Manager) SetTTL(ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ttl = ttl
}

// Create records a new PENDING approval with deadline now+TTL.
// Invalid cost/reversibility/blast radius values are rejected with a
// *model.ValidationError before anything is stored.
func (m *Manager) Create(subjectID, actionType string, cost model.Cost, rev model.Reversibility, blast model.BlastRadius) (model.Approval, error) {
	if subjectID == "" {
		return model.Approval{}, &model.ValidationError{Field: "subject_id", Reason: "is required"}
	}
	if actionType == "" {
		return model.Approval{}, &model.ValidationError{Field: "action_type", Reason: "is required"}
	}
	if err := model.ValidateTags(cost, rev, blast); err != nil {
		return model.Approval{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock.Now()
	a := &model.Approval{
		ID:            uuid.NewString(),
		SubjectID:     subjectID,
		ActionType:    actionType,
		Decision:      model.DecisionPending,
		Cost:          cost,
		Reversibility: rev,
		BlastRadius:   blast,
		Deadline:      now.Add(m.ttl),
		CreatedAt:     now,
	}
	m.records[a.ID] = a
	m.order = append(m.order, a.ID)
	return *a, nil
}

// Decide resolves an open approval. Legal transitions:
//
//	PENDING  → APPROVED | DENIED | DEFERRED
//	DEFERRED → APPROVED | DENIED | DEFERRED
//
// Deciding a terminal approval returns ErrAlreadyDecided. Deferring
// stamps a fresh deadline (now+TTL) and replaces decided_at; a final
// resolution sets decided_at without touching the deadline.
func (m *Manager) Decide(id string, decision model.Decision) (model.Approval, error) {
	switch decision {
	case model.DecisionApproved, model.DecisionDenied, model.DecisionDeferred:
	default:
		return model.Approval{}, &model.ValidationError{Field: "decision", Reason: "must be one of APPROVED, DENIED, DEFERRED"}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	a, ok := m.records[id]
	if !ok {
		return model.Approval{}, fmt.Errorf("approval %q not found", id)
	}
	if a.Decision.Terminal() {
		return model.Approval{}, fmt.Errorf("approval %q is %s: %w", id, a.Decision, ErrAlreadyDecided)
	}

	now := m.clock.Now()
	a.Decision = decision
	a.DecidedAt = &now
	if decision == model.DecisionDeferred {
		a.Deadline = now.Add(m.ttl)
	}
	return *a, nil
}

// Defer is shorthand for Decide(id, DEFERRED).
func (m *Manager) Defer(id string) (model.Approval, error) {
	return m.Decide(id, model.DecisionDeferred)
}

// Get returns a copy of the approval with the given id.
func (m *Manager) Get(id string) (model.Approval, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.records[id]
	if !ok {
		return model.Approval{}, false
	}
	return *a, true
}

// List returns all approvals in creation order.
func (m *Manager) List() []model.Approval {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Approval, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, *m.records[id])
	}
	return out
}

// Open returns approvals still awaiting a final decision, in creation
// order. Deferred approvals are included: deferral re-enters the queue.
func (m *Manager) Open() []model.Approval {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Approval
	for _, id := range m.order {
		if a := m.records[id]; a.Open() {
			out = append(out, *a)
		}
	}
	return out
}

// Expired returns open approvals whose deadline has passed. Expiry is a
// surfaced state, not an action: nothing here denies or closes the
// record — the caller's escalation policy decides what happens next.
func (m *Manager) Expired() []model.Approval {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.clock.Now()
	var out []model.Approval
	for _, id := range m.order {
		a := m.records[id]
		if a.Open() && now.After(a.Deadline) {
			out = append(out, *a)
		}
	}
	return out
}

// IsExpired reports whether the approval's deadline has passed.
func (m *Manager) IsExpired(a model.Approval) bool {
	return m.clock.Now().After(a.Deadline)
}

// Hydrate loads previously persisted approvals, replacing the current
// in-memory set. Used at startup when a storage backend is attached.
func (m *Manager) Hydrate(records []model.Approval) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = make(map[string]*model.Approval, len(records))
	m.order = m.order[:0]
	for i := range records {
		a := records[i]
		m.records[a.ID] = &a
		m.order = append(m.order, a.ID)
	}
}
