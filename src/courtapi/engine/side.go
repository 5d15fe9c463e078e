package engine

import (
	"time"

	"github.com/overruled-app/overruled/src/courtapi/types"
)

// SlotKey identifies one question-generation slot: a (round, examined
// target) pair. It is the unit of idempotency for AI question generation.
type SlotKey struct {
	Round  int
	Target types.Party
}

// SideState is the local-only companion to the projection: idempotency
// markers and in-flight flags that must never be persisted or shared. It is
// passed explicitly alongside the projection rather than living in package
// globals, so every reader of an engine can see exactly what is local.
type SideState struct {
	// GeneratedSlots marks slots this client has generated or adopted a
	// question for. A marker is set synchronously before the async judge
	// call starts and cleared only by slot advancement, case reset, or a
	// sustained objection voiding the question (slot retry).
	GeneratedSlots map[SlotKey]bool

	// Generating guards against overlapping question-generation judge calls.
	Generating bool

	// WritingVerdict guards against overlapping verdict generation. The lock
	// is released around the judge call, so redundant change deliveries on
	// the writer client would otherwise all observe a nil verdict and each
	// invoke the judge.
	WritingVerdict bool

	// Answering marks the pending question as claimed by an in-flight answer
	// submission. The claim lives here rather than on the projection so a
	// concurrent reconcile of the remote record cannot reopen it.
	Answering bool

	// LastGeneratedAt backs the cooldown damping duplicate triggers from
	// rapid repeated change notifications.
	LastGeneratedAt time.Time

	// FollowUps counts clarification follow-ups asked in the current slot.
	FollowUps int

	// AwaitingFollowUp marks that the pending question is a clarification
	// follow-up, so its answer is recorded with the follow-up flag.
	AwaitingFollowUp bool

	// ObjectionWindowOpen is set while the examined party may object to the
	// pending question; closed on answer submit or a voiding ruling.
	ObjectionWindowOpen bool

	// PendingCred holds credibility values this client has written locally
	// but not yet seen echoed back by the store. Reduce keeps the local
	// value for a party while its write is pending, so a stale remote read
	// cannot clobber it, and clears the entry once the remote copy catches
	// up.
	PendingCred map[types.Party]int
}

func NewSideState() *SideState {
	return &SideState{
		GeneratedSlots: make(map[SlotKey]bool),
		PendingCred:    make(map[types.Party]int),
	}
}

// CredibilityEntry is one line of the local, rebuildable credibility log.
// Display and audit only; never authoritative.
type CredibilityEntry struct {
	Party    types.Party
	Delta    int
	Score    int
	Analysis string
	Flag     string
}
