// Package engine is the turn-coordination core: a replicated state machine
// kept consistent across two independently acting clients through the case
// record store and its change notifications. Each connected client session
// owns one Engine; the store is the only shared mutable resource, and every
// cross-client decision (who generates the next question, who writes the
// verdict) is derived from data both sides already have rather than from any
// lock.
package engine

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/overruled-app/overruled/src/courtapi/judge"
	"github.com/overruled-app/overruled/src/courtapi/store"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

var (
	ErrWrongPhase      = errors.New("engine: operation not valid in current phase")
	ErrNotYourTurn     = errors.New("engine: not this party's turn")
	ErrNoQuestion      = errors.New("engine: no question pending")
	ErrObjectionSpent  = errors.New("engine: objection already used")
	ErrNoVerdict       = errors.New("engine: no verdict to appeal")
	ErrAlreadyAppealed = errors.New("engine: verdict already appealed")
	ErrNotLoser        = errors.New("engine: only the losing party may appeal")
)

// generationCooldown dampens duplicate generation triggers caused by rapid
// repeated change notifications.
const generationCooldown = 3 * time.Second

// Judge is the slice of the judgment service the engine consumes.
// *judge.Service satisfies it; tests use a scripted implementation.
type Judge interface {
	NextQuestion(ctx context.Context, cc judge.CaseContext, targetName string, round int) (string, error)
	ScoreAnswer(ctx context.Context, cc judge.CaseContext, targetName, question, answer string) (judge.ScoreResult, error)
	SnapCheck(ctx context.Context, cc judge.CaseContext, lastParty, lastAnswer string) (judge.SnapResult, error)
	RuleObjection(ctx context.Context, cc judge.CaseContext, objector, target, objType, reason, content string, prior []string) (judge.Ruling, error)
	Verdict(ctx context.Context, cc judge.CaseContext, snapReason string) (judge.VerdictResult, error)
	Appeal(ctx context.Context, cc judge.CaseContext, priorWinner, priorReasoning, argument string) (judge.AppealResult, error)
}

// Engine drives one client's view of a case. All entry points are
// mutex-serialized: within a client there is no true parallelism, only
// interleaved asynchronous operations, and the lock is released around
// judge calls so change notifications can land while one is in flight.
type Engine struct {
	mu   sync.Mutex
	st   store.Store
	jd   Judge
	role types.Party
	solo bool

	proj Projection
	side *SideState

	history []CredibilityEntry

	now      func() time.Time
	cooldown time.Duration
}

// New builds an engine for one session, rehydrating the projection from the
// persisted record. Solo engines act for both parties and skip the
// designated-generator role checks.
func New(st store.Store, jd Judge, role types.Party, c *types.Case, responses []types.Response, solo bool) *Engine {
	return &Engine{
		st:       st,
		jd:       jd,
		role:     role,
		solo:     solo,
		proj:     Rehydrate(c, responses),
		side:     NewSideState(),
		now:      time.Now,
		cooldown: generationCooldown,
	}
}

// Role returns the party this engine acts for.
func (e *Engine) Role() types.Party { return e.role }

// Projection returns a copy of the current local projection.
func (e *Engine) Projection() Projection {
	e.mu.Lock()
	defer e.mu.Unlock()
	p := e.proj
	p.Responses = append([]types.Response{}, e.proj.Responses...)
	return p
}

// History returns the local credibility log.
func (e *Engine) History() []CredibilityEntry {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]CredibilityEntry{}, e.history...)
}

// ObjectionWindowOpen reports whether this party may currently object to
// the pending question.
func (e *Engine) ObjectionWindowOpen() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.side.ObjectionWindowOpen
}

// HandleChange is the receive side of the replicated state machine. The
// event itself only says that something changed; the authoritative state is
// re-read from the store, reconciled into the projection, and any follow-on
// duty of this client (adopting a question, generating the next one,
// writing the verdict) runs from the reconciled state.
func (e *Engine) HandleChange(ctx context.Context) {
	c, err := e.st.GetCaseByID(ctx, e.caseID())
	if err != nil {
		log.Printf("engine %s: refetch case: %v", e.caseID(), err)
		return
	}
	responses, err := e.st.ListResponses(ctx, c.ID)
	if err != nil {
		log.Printf("engine %s: refetch responses: %v", c.ID, err)
		return
	}

	e.mu.Lock()
	prevQuestion := e.proj.CurrentQuestion
	e.proj = Reduce(e.proj, c, responses, e.side)

	// A question became visible to us as the examined party: adopt it
	// as-is, mark the slot so we never also try to generate, and open the
	// objection window.
	if e.proj.Phase == types.PhaseCrossExam &&
		e.proj.CurrentQuestion != "" &&
		e.proj.CurrentQuestion != prevQuestion &&
		e.isLocal(e.proj.ExamTarget) {
		e.side.GeneratedSlots[e.slotKey()] = true
		e.side.ObjectionWindowOpen = true
	}

	// The question vanished without the slot advancing: a sustained
	// objection voided it. Unmark the slot so it is retried, not skipped.
	if e.proj.Phase == types.PhaseCrossExam && e.proj.CurrentQuestion == "" {
		key := e.slotKey()
		if e.side.GeneratedSlots[key] && !slotAnswered(e.proj.Responses, key) {
			delete(e.side.GeneratedSlots, key)
			e.side.ObjectionWindowOpen = false
			e.side.AwaitingFollowUp = false
		}
	}

	needQuestion := e.proj.Phase == types.PhaseCrossExam && e.proj.CurrentQuestion == ""
	needVerdict := e.proj.Phase == types.PhaseVerdict && e.proj.Verdict == nil && e.isVerdictWriter()
	e.mu.Unlock()

	if needQuestion {
		e.MaybeGenerateQuestion(ctx)
	}
	if needVerdict {
		e.generateVerdict(ctx)
	}
}

func (e *Engine) caseID() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.proj.CaseID
}

// isLocal reports whether this engine acts for the given party.
func (e *Engine) isLocal(p types.Party) bool { return e.solo || e.role == p }

func (e *Engine) slotKey() SlotKey {
	return SlotKey{Round: e.proj.ExamRound, Target: e.proj.ExamTarget}
}

// isVerdictWriter applies the single-writer rule for verdict generation:
// only the client of the party that recorded the final answer generates,
// which closes the double-generation race between two clients observing the
// verdict transition at the same time. Callers must hold e.mu.
func (e *Engine) isVerdictWriter() bool {
	if e.solo {
		return true
	}
	if len(e.proj.Responses) == 0 {
		return false
	}
	last := e.proj.Responses[len(e.proj.Responses)-1]
	return last.Party == e.role
}

// caseContext snapshots the projection into the judge input shape.
// Callers must hold e.mu.
func (e *Engine) caseContext() judge.CaseContext {
	cc := judge.CaseContext{
		PartyAName:   e.proj.PartyAName,
		PartyBName:   e.proj.PartyBName,
		StatementA:   e.proj.StatementA,
		StatementB:   e.proj.StatementB,
		CredibilityA: e.proj.CredibilityA,
		CredibilityB: e.proj.CredibilityB,
	}
	for _, r := range e.proj.Responses {
		cc.Transcript = append(cc.Transcript, judge.Exchange{
			Round:    r.Round,
			Party:    e.proj.NameFor(r.Party),
			Question: r.Question,
			Answer:   r.Answer,
			FollowUp: r.IsFollowUp,
		})
	}
	return cc
}

// applyCredibility clamps and applies a delta for one party locally,
// records the audit entry, and returns the column map for persistence.
// Callers must hold e.mu.
func (e *Engine) applyCredibility(party types.Party, delta int, analysis, flag string) map[string]any {
	score := clampCredibility(e.proj.CredibilityFor(party) + delta)
	fields := map[string]any{}
	if party == types.PartyA {
		e.proj.CredibilityA = score
		fields["credibility_a"] = score
	} else {
		e.proj.CredibilityB = score
		fields["credibility_b"] = score
	}
	e.side.PendingCred[party] = score
	e.history = append(e.history, CredibilityEntry{
		Party:    party,
		Delta:    delta,
		Score:    score,
		Analysis: analysis,
		Flag:     flag,
	})
	return fields
}
