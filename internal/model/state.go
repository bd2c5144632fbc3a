package model

import (
	"fmt"
	"time"
)

// Phase is a stage of the campaign state machine. Phases only advance; they
// never move backward except through an explicit operator override.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseNew      Phase = "new"
	PhaseReply    Phase = "reply"
	PhaseForward  Phase = "forward"
	PhaseOverflow Phase = "overflow"
	PhaseDone     Phase = "done"
)

// phaseOrder maps phases to their position in the campaign lifecycle.
var phaseOrder = map[Phase]int{
	PhaseIdle:     0,
	PhaseNew:      1,
	PhaseReply:    2,
	PhaseForward:  3,
	PhaseOverflow: 4,
	PhaseDone:     5,
}

// Before reports whether p precedes other in the campaign lifecycle.
func (p Phase) Before(other Phase) bool {
	return phaseOrder[p] < phaseOrder[other]
}

// ParsePhase maps a phase name to its Phase value. Unknown names are
// rejected rather than defaulting to the start of the lifecycle.
func ParsePhase(name string) (Phase, error) {
	p := Phase(name)
	if _, ok := phaseOrder[p]; !ok {
		return "", fmt.Errorf("unknown phase %q", name)
	}
	return p, nil
}

// KindCounter tracks attempted/succeeded counts for one message kind.
// Both counters are monotonically non-decreasing.
type KindCounter struct {
	Attempted int `json:"attempted"`
	Succeeded int `json:"succeeded"`
}

// CampaignState is the whole-document persisted state of a campaign run. It
// is mutated only by the campaign controller, immediately after folding a
// batch's outcomes, and overwritten atomically after every batch.
//
// Unknown fields in a persisted document are ignored on load, so newer
// writers remain readable by older code.
type CampaignState struct {
	Phase Phase `json:"phase"`

	New      KindCounter `json:"new"`
	Reply    KindCounter `json:"reply"`
	Forward  KindCounter `json:"forward"`
	Overflow KindCounter `json:"overflow"`

	// EstimatedBytes is the cumulative estimated corpus contribution of
	// all successful sends. Monotonically non-decreasing.
	EstimatedBytes int64 `json:"estimated_bytes"`

	// StartedAt is the wall-clock start of the campaign's first run.
	StartedAt time.Time `json:"started_at"`

	// FoldersProvisioned marks the one-time folder seeding side operation
	// as complete.
	FoldersProvisioned bool `json:"folders_provisioned"`
}

// NewCampaignState returns the initial state of a fresh campaign.
func NewCampaignState(now time.Time) CampaignState {
	return CampaignState{Phase: PhaseIdle, StartedAt: now}
}

// Counter returns the counter for the given kind in the given phase. The
// overflow phase accounts its sends separately even though it generates
// new-kind messages.
func (s *CampaignState) Counter(phase Phase) *KindCounter {
	switch phase {
	case PhaseNew:
		return &s.New
	case PhaseReply:
		return &s.Reply
	case PhaseForward:
		return &s.Forward
	case PhaseOverflow:
		return &s.Overflow
	}
	return nil
}

// TotalAttempted returns the attempted count summed across all phases.
func (s CampaignState) TotalAttempted() int {
	return s.New.Attempted + s.Reply.Attempted + s.Forward.Attempted + s.Overflow.Attempted
}

// TotalSucceeded returns the succeeded count summed across all phases.
func (s CampaignState) TotalSucceeded() int {
	return s.New.Succeeded + s.Reply.Succeeded + s.Forward.Succeeded + s.Overflow.Succeeded
}

// Summary is the exit contract handed to the reporting collaborator once the
// campaign reaches the done phase.
type Summary struct {
	New            KindCounter `json:"new"`
	Reply          KindCounter `json:"reply"`
	Forward        KindCounter `json:"forward"`
	Overflow       KindCounter `json:"overflow"`
	EstimatedBytes int64       `json:"estimated_bytes"`
	StartedAt      time.Time   `json:"started_at"`
	FinishedAt     time.Time   `json:"finished_at"`
}

// String renders the summary as a single progress line.
func (s Summary) String() string {
	return fmt.Sprintf(
		"new %d/%d reply %d/%d forward %d/%d overflow %d/%d estimated %d bytes",
		s.New.Succeeded, s.New.Attempted,
		s.Reply.Succeeded, s.Reply.Attempted,
		s.Forward.Succeeded, s.Forward.Attempted,
		s.Overflow.Succeeded, s.Overflow.Attempted,
		s.EstimatedBytes,
	)
}
