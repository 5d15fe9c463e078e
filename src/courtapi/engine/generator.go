package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/overruled-app/overruled/src/courtapi/types"
)

// MaybeGenerateQuestion produces the next cross-examination question if,
// and only if, this client is the designated generator for the current
// slot. The examiner for a target is the opposing party: the examined party
// must never control question wording, and that static rule is the only
// mutual exclusion between the two clients. Guards run in order: role,
// in-flight, cooldown, slot-already-done; the slot marker is set before the
// asynchronous judge call begins to close the race between deciding to
// generate and the call starting.
func (e *Engine) MaybeGenerateQuestion(ctx context.Context) {
	e.mu.Lock()
	if e.proj.Phase != types.PhaseCrossExam || e.proj.CurrentQuestion != "" {
		e.mu.Unlock()
		return
	}
	examiner := e.proj.ExamTarget.Opponent()
	if !e.isLocal(examiner) {
		e.mu.Unlock()
		return
	}
	if e.side.Generating {
		e.mu.Unlock()
		return
	}
	if !e.side.LastGeneratedAt.IsZero() && e.now().Sub(e.side.LastGeneratedAt) < e.cooldown {
		e.mu.Unlock()
		return
	}
	key := e.slotKey()
	if e.side.GeneratedSlots[key] {
		e.mu.Unlock()
		return
	}

	e.side.GeneratedSlots[key] = true
	e.side.Generating = true
	e.side.LastGeneratedAt = e.now()
	cc := e.caseContext()
	target := e.proj.ExamTarget
	targetName := e.proj.NameFor(target)
	round := e.proj.ExamRound
	caseID := e.proj.CaseID
	e.mu.Unlock()

	question, err := e.jd.NextQuestion(ctx, cc, targetName, round)

	e.mu.Lock()
	e.side.Generating = false
	// Supersession: if the slot moved on while the call was in flight, the
	// result is stale and is discarded silently.
	if e.proj.Phase != types.PhaseCrossExam || e.slotKey() != key || e.proj.CurrentQuestion != "" {
		e.mu.Unlock()
		return
	}
	if err != nil || question == "" {
		if err != nil {
			log.Printf("engine %s: question generation: %v", caseID, err)
		}
		question = fallbackQuestion(targetName)
	}
	e.proj.CurrentQuestion = question
	e.side.FollowUps = 0
	e.side.AwaitingFollowUp = false
	if e.isLocal(target) {
		e.side.ObjectionWindowOpen = true
	}
	e.mu.Unlock()

	// The persisted write is what the examined party's client observes to
	// display the question; they never generate it locally.
	if err := e.st.UpdateCase(ctx, caseID, map[string]any{"current_question": question}); err != nil {
		log.Printf("engine %s: persist question: %v", caseID, err)
	}
}

// askFollowUp retries the current slot with one clarification question
// after a flagged answer. The pending column map (credibility, cleared
// question) is persisted together with the follow-up so the other client
// sees a single consistent write. Returns false when the follow-up could
// not be produced, in which case the caller advances normally.
func (e *Engine) askFollowUp(ctx context.Context, fields map[string]any, target types.Party, round int) bool {
	e.mu.Lock()
	cc := e.caseContext()
	targetName := e.proj.NameFor(target)
	caseID := e.proj.CaseID
	e.mu.Unlock()

	question, err := e.jd.NextQuestion(ctx, cc, targetName, round)
	if err != nil || question == "" {
		if err != nil {
			log.Printf("engine %s: follow-up generation: %v", caseID, err)
		}
		return false
	}

	e.mu.Lock()
	if e.proj.Phase != types.PhaseCrossExam || e.proj.ExamTarget != target || e.proj.ExamRound != round {
		e.mu.Unlock()
		return false
	}
	e.proj.CurrentQuestion = question
	e.side.FollowUps++
	e.side.AwaitingFollowUp = true
	if e.isLocal(target) {
		e.side.ObjectionWindowOpen = true
	}
	e.mu.Unlock()

	fields["current_question"] = question
	if err := e.st.UpdateCase(ctx, caseID, fields); err != nil {
		log.Printf("engine %s: persist follow-up: %v", caseID, err)
	}
	return true
}

// fallbackQuestion is the deterministic substitute when the judge call
// errors or returns nothing; the flow must never stall on AI failure.
func fallbackQuestion(targetName string) string {
	return fmt.Sprintf("%s, walk the court through your side of events one more time. What are you leaving out?", targetName)
}
