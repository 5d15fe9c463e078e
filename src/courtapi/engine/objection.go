package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/overruled-app/overruled/src/courtapi/judge"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

// RaiseObjection runs the objection interrupt: a one-shot-per-party
// challenge to the pending question or to the opponent's latest answer.
// Normal flow suspends until the ruling lands; the phase field never
// changes. The stored usage flag is the authoritative gate and is spent on
// submission, sustained or not.
func (e *Engine) RaiseObjection(ctx context.Context, objector types.Party, objType, reason string, againstQuestion bool) (*types.Objection, judge.Ruling, error) {
	e.mu.Lock()
	if e.proj.Phase != types.PhaseCrossExam {
		e.mu.Unlock()
		return nil, judge.Ruling{}, ErrWrongPhase
	}
	if !e.isLocal(objector) {
		e.mu.Unlock()
		return nil, judge.Ruling{}, ErrNotYourTurn
	}
	// One objection per case per party, checked before anything reaches
	// the ruling evaluator.
	if e.proj.ObjectionUsed(objector) {
		e.mu.Unlock()
		return nil, judge.Ruling{}, ErrObjectionSpent
	}

	var target, content string
	if againstQuestion {
		if e.proj.CurrentQuestion == "" || e.proj.ExamTarget != objector {
			e.mu.Unlock()
			return nil, judge.Ruling{}, ErrNoQuestion
		}
		target = "Judge"
		content = e.proj.CurrentQuestion
	} else {
		opponent := objector.Opponent()
		last := latestAnswerBy(e.proj.Responses, opponent)
		if last == nil {
			e.mu.Unlock()
			return nil, judge.Ruling{}, fmt.Errorf("engine: %s has no answer to object to", e.proj.NameFor(opponent))
		}
		target = e.proj.NameFor(opponent)
		content = last.Answer
	}

	obj := &types.Objection{
		CaseID:          e.proj.CaseID,
		Objector:        objector,
		Target:          target,
		Type:            objType,
		Reason:          reason,
		AgainstQuestion: againstQuestion,
	}

	usedField := "objection_used_b"
	if objector == types.PartyA {
		usedField = "objection_used_a"
	}
	if objector == types.PartyA {
		e.proj.ObjectionUsedA = true
	} else {
		e.proj.ObjectionUsedB = true
	}
	cc := e.caseContext()
	objectorName := e.proj.NameFor(objector)
	caseID := e.proj.CaseID
	e.mu.Unlock()

	if err := e.st.InsertObjection(ctx, obj); err != nil {
		return nil, judge.Ruling{}, err
	}
	if err := e.st.UpdateCase(ctx, caseID, map[string]any{usedField: true}); err != nil {
		log.Printf("engine %s: persist objection flag: %v", caseID, err)
	}

	prior := e.priorObjectionSummaries(ctx, caseID, obj.ID)

	ruling, err := e.jd.RuleObjection(ctx, cc, objectorName, target, objType, reason, content, prior)
	if err != nil {
		// A dead evaluator must not stall the interrupt; the conservative
		// default is overruled.
		log.Printf("engine %s: objection ruling: %v", caseID, err)
		ruling = judge.Ruling{Sustained: false, Reason: "The court could not hear the objection; it is overruled."}
	}

	if err := e.st.UpdateObjection(ctx, obj.ID, map[string]any{
		"ruled":         true,
		"sustained":     ruling.Sustained,
		"ruling_reason": ruling.Reason,
	}); err != nil {
		log.Printf("engine %s: persist ruling: %v", caseID, err)
	}
	obj.Ruled = true
	obj.Sustained = ruling.Sustained
	obj.RulingReason = ruling.Reason

	if !ruling.Sustained {
		return obj, ruling, nil
	}

	if againstQuestion {
		// The question is void: clear it and unmark the slot so the
		// examiner regenerates for the same slot. Never a credibility
		// change on a question objection.
		e.mu.Lock()
		e.proj.CurrentQuestion = ""
		delete(e.side.GeneratedSlots, e.slotKey())
		e.side.ObjectionWindowOpen = false
		e.side.AwaitingFollowUp = false
		e.mu.Unlock()
		if err := e.st.UpdateCase(ctx, caseID, map[string]any{"current_question": ""}); err != nil {
			log.Printf("engine %s: void question: %v", caseID, err)
		}
	} else {
		// A sustained objection to an answer penalizes its author a fixed
		// 10 points, floored; the question is untouched.
		e.mu.Lock()
		fields := e.applyCredibility(objector.Opponent(), -10, "Objection sustained against this answer.", "")
		e.mu.Unlock()
		if err := e.st.UpdateCase(ctx, caseID, fields); err != nil {
			log.Printf("engine %s: persist penalty: %v", caseID, err)
		}
	}
	return obj, ruling, nil
}

func (e *Engine) priorObjectionSummaries(ctx context.Context, caseID string, excludeID uint64) []string {
	all, err := e.st.ListObjections(ctx, caseID)
	if err != nil {
		return nil
	}
	var out []string
	for _, o := range all {
		if o.ID == excludeID || !o.Ruled {
			continue
		}
		outcome := "overruled"
		if o.Sustained {
			outcome = "sustained"
		}
		out = append(out, fmt.Sprintf("%s objected (%s) against %s: %s — %s", o.Objector, o.Type, o.Target, o.Reason, outcome))
	}
	return out
}

// slotAnswered reports whether a primary (non-follow-up) answer exists for
// the slot.
func slotAnswered(responses []types.Response, key SlotKey) bool {
	for _, r := range responses {
		if r.Round == key.Round && r.Party == key.Target && !r.IsFollowUp {
			return true
		}
	}
	return false
}

func latestAnswerBy(responses []types.Response, party types.Party) *types.Response {
	for i := len(responses) - 1; i >= 0; i-- {
		if responses[i].Party == party {
			return &responses[i]
		}
	}
	return nil
}
