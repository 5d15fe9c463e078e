package engine

import (
	"github.com/overruled-app/overruled/src/courtapi/types"
)

// Verdict is the projected verdict overlay. Nil means no verdict yet. An
// appeal ruling amends WinnerName/LoserName/Reasoning in place; the phase
// field never moves again.
type Verdict struct {
	WinnerName     string
	LoserName      string
	Summary        string
	Reasoning      string
	IsSnapJudgment bool
	SnapReason     string
	Appealed       bool
}

// Projection is one client's local copy of the replicated case state,
// rebuilt from the persisted record and testimony. It carries no local-only
// markers; those live in SideState.
type Projection struct {
	CaseID   string
	RoomCode string

	PartyAName    string
	PartyBName    string
	PartyASession string
	PartyBSession string

	StatementA string
	StatementB string

	Phase           types.Phase
	CurrentTurn     types.Party
	ExamRound       int
	ExamTarget      types.Party
	CurrentQuestion string

	CredibilityA int
	CredibilityB int

	ObjectionUsedA bool
	ObjectionUsedB bool

	SnapWinner string
	SnapReason string

	Verdict *Verdict

	Responses []types.Response
}

// Rehydrate builds a projection from the authoritative record. Used at
// engine construction, on reconnect, and inside Reduce on every change
// notification; a fresh client re-deriving state this way must land on
// exactly what the writer observed.
func Rehydrate(c *types.Case, responses []types.Response) Projection {
	p := Projection{
		CaseID:          c.ID,
		RoomCode:        c.RoomCode,
		PartyAName:      c.PartyAName,
		PartyBName:      c.PartyBName,
		PartyASession:   c.PartyASession,
		PartyBSession:   c.PartyBSession,
		StatementA:      c.StatementA,
		StatementB:      c.StatementB,
		Phase:           c.Phase,
		CurrentTurn:     c.CurrentTurn,
		ExamRound:       c.ExamRound,
		ExamTarget:      c.ExamTarget,
		CurrentQuestion: c.CurrentQuestion,
		CredibilityA:    c.CredibilityA,
		CredibilityB:    c.CredibilityB,
		ObjectionUsedA:  c.ObjectionUsedA,
		ObjectionUsedB:  c.ObjectionUsedB,
		SnapWinner:      c.SnapWinner,
		SnapReason:      c.SnapReason,
		Responses:       responses,
	}
	if c.HasVerdict() {
		p.Verdict = &Verdict{
			WinnerName:     c.VerdictWinner,
			LoserName:      c.VerdictLoser,
			Summary:        c.VerdictSummary,
			Reasoning:      c.VerdictReasoning,
			IsSnapJudgment: c.VerdictIsSnap,
			SnapReason:     c.SnapReason,
			Appealed:       c.Appealed,
		}
	}
	return p
}

// Reduce reconciles the local projection against a freshly read
// authoritative record. The store guarantees a total order of writes per
// case, so the remote copy wins everywhere except credibility values this
// client has written and not yet seen echoed back: those stay local until
// the remote copy catches up, which keeps a stale read from clobbering an
// in-flight update. Each party's score reconciles independently.
func Reduce(local Projection, c *types.Case, responses []types.Response, side *SideState) Projection {
	next := Rehydrate(c, responses)
	for _, p := range []types.Party{types.PartyA, types.PartyB} {
		want, pending := side.PendingCred[p]
		if !pending {
			continue
		}
		if next.CredibilityFor(p) == want {
			delete(side.PendingCred, p)
			continue
		}
		if p == types.PartyA {
			next.CredibilityA = local.CredibilityA
		} else {
			next.CredibilityB = local.CredibilityB
		}
	}
	return next
}

// CredibilityFor returns the projected score for a party.
func (p *Projection) CredibilityFor(party types.Party) int {
	if party == types.PartyA {
		return p.CredibilityA
	}
	return p.CredibilityB
}

// NameFor returns the display name for a party.
func (p *Projection) NameFor(party types.Party) string {
	if party == types.PartyA {
		return p.PartyAName
	}
	return p.PartyBName
}

// ObjectionUsed reports whether a party has spent their one objection.
func (p *Projection) ObjectionUsed(party types.Party) bool {
	if party == types.PartyA {
		return p.ObjectionUsedA
	}
	return p.ObjectionUsedB
}

// clampCredibility bounds a score to [5,95] after an evaluator update.
func clampCredibility(v int) int {
	if v < types.CredibilityFloor {
		return types.CredibilityFloor
	}
	if v > types.CredibilityCeiling {
		return types.CredibilityCeiling
	}
	return v
}
