package engine

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/overruled-app/overruled/src/courtapi/judge"
	"github.com/overruled-app/overruled/src/courtapi/roomcode"
	"github.com/overruled-app/overruled/src/courtapi/store"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

// FileCase creates a new case in the waiting phase with party A's slot
// claimed. Party B's session stays empty until JoinCase; that empty session
// is the join gate.
func FileCase(ctx context.Context, st store.Store, partyAName, sessionID string) (*types.Case, error) {
	code, err := roomcode.New()
	if err != nil {
		return nil, err
	}
	c := &types.Case{
		ID:            uuid.NewString(),
		RoomCode:      code,
		PartyAName:    partyAName,
		PartyASession: sessionID,
		Phase:         types.PhaseWaiting,
		CurrentTurn:   types.PartyA,
		ExamTarget:    types.PartyA,
		CredibilityA:  types.InitialCredibility,
		CredibilityB:  types.InitialCredibility,
	}
	if err := st.CreateCase(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// JoinCase binds party B's session to a waiting case found by room code and
// fires the waiting→statements transition with the turn reset to A. The
// store's conditional bind is the gate: two racing joins with the same code
// resolve there, and the loser gets the distinct, expected ErrCaseFull.
func JoinCase(ctx context.Context, st store.Store, code, partyBName, sessionID string) (*types.Case, error) {
	c, err := st.GetCaseByRoomCode(ctx, roomcode.Normalize(code))
	if err != nil {
		return nil, err
	}
	if err := st.BindPartyB(ctx, c.ID, partyBName, sessionID); err != nil {
		return nil, err
	}
	c.PartyBName = partyBName
	c.PartyBSession = sessionID
	c.Phase = types.PhaseStatements
	c.CurrentTurn = types.PartyA
	return c, nil
}

// SubmitStatement records this party's opening statement. Fixed order: A
// then B; A cannot see B's statement before submitting because the turn
// order never gives B the floor first. B's submission fires the transition
// into cross-examination with round 0 targeting A.
func (e *Engine) SubmitStatement(ctx context.Context, text string) error {
	e.mu.Lock()
	if e.proj.Phase != types.PhaseStatements {
		e.mu.Unlock()
		return ErrWrongPhase
	}
	if !e.isLocal(e.proj.CurrentTurn) {
		e.mu.Unlock()
		return ErrNotYourTurn
	}
	actor := e.proj.CurrentTurn

	var fields map[string]any
	if actor == types.PartyA {
		fields = map[string]any{
			"statement_a":  text,
			"current_turn": types.PartyB,
		}
	} else {
		fields = map[string]any{
			"statement_b":  text,
			"phase":        types.PhaseCrossExam,
			"exam_target":  types.PartyA,
			"exam_round":   0,
			"current_turn": types.Party(""),
		}
	}
	// Claim the turn before the lock is released so a duplicate submission
	// fails the turn guard instead of writing twice.
	if actor == types.PartyA {
		e.proj.CurrentTurn = types.PartyB
	} else {
		e.proj.CurrentTurn = ""
	}
	caseID := e.proj.CaseID
	e.mu.Unlock()

	// Persist before advancing the rest of local state: the replicated copy
	// on the other client only moves via the change notification for this
	// write.
	if err := e.st.UpdateCase(ctx, caseID, fields); err != nil {
		e.mu.Lock()
		e.proj.CurrentTurn = actor
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	if actor == types.PartyA {
		e.proj.StatementA = text
		e.proj.CurrentTurn = types.PartyB
	} else {
		e.proj.StatementB = text
		e.proj.Phase = types.PhaseCrossExam
		e.proj.ExamTarget = types.PartyA
		e.proj.ExamRound = 0
		e.proj.CurrentTurn = ""
	}
	entering := e.proj.Phase == types.PhaseCrossExam
	e.mu.Unlock()

	if entering {
		e.MaybeGenerateQuestion(ctx)
	}
	return nil
}

// nextSlot advances the cross-exam cursor after an answer for (target,
// round): A hands the same round to B; B closes the round, and closing
// round 2 ends testimony. Six exchanges total absent interrupts.
func nextSlot(target types.Party, round int) (types.Party, int, bool) {
	if target == types.PartyA {
		return types.PartyB, round, false
	}
	if round < 2 {
		return types.PartyA, round + 1, false
	}
	return "", round, true
}

// SubmitAnswer records the examined party's answer to the pending question,
// scores it, runs the early-termination check, and advances the slot. Every
// step after the answer is recorded is failure-tolerant: a dead judge never
// stalls the courtroom.
func (e *Engine) SubmitAnswer(ctx context.Context, text string) error {
	e.mu.Lock()
	if e.proj.Phase != types.PhaseCrossExam {
		e.mu.Unlock()
		return ErrWrongPhase
	}
	if !e.isLocal(e.proj.ExamTarget) {
		e.mu.Unlock()
		return ErrNotYourTurn
	}
	if e.proj.CurrentQuestion == "" || e.side.Answering {
		e.mu.Unlock()
		return ErrNoQuestion
	}
	// Claim the question before the lock is released around the judge
	// call, so a duplicate submission cannot record a second answer for
	// the same slot.
	e.side.Answering = true

	target := e.proj.ExamTarget
	targetName := e.proj.NameFor(target)
	round := e.proj.ExamRound
	question := e.proj.CurrentQuestion
	isFollowUp := e.side.AwaitingFollowUp
	e.side.AwaitingFollowUp = false
	e.side.ObjectionWindowOpen = false
	cc := e.caseContext()
	e.mu.Unlock()

	// Score first so the recorded response carries its delta. A scoring
	// failure applies zero delta and moves on.
	score, err := e.jd.ScoreAnswer(ctx, cc, targetName, question, text)
	if err != nil {
		log.Printf("engine %s: score answer: %v", e.caseID(), err)
		score = judge.ScoreResult{}
	}

	resp := &types.Response{
		CaseID:           e.caseID(),
		Round:            round,
		Party:            target,
		Question:         question,
		Answer:           text,
		IsFollowUp:       isFollowUp,
		CredibilityDelta: score.Total(),
	}
	if err := e.st.InsertResponse(ctx, resp); err != nil {
		e.mu.Lock()
		e.side.Answering = false
		e.mu.Unlock()
		return err
	}

	e.mu.Lock()
	e.side.Answering = false
	e.proj.Responses = append(e.proj.Responses, *resp)
	fields := e.applyCredibility(target, score.Total(), score.Analysis, score.Flag)
	fields["current_question"] = ""
	e.proj.CurrentQuestion = ""
	total := len(e.proj.Responses)
	cc = e.caseContext()
	e.mu.Unlock()

	// Early-termination check from the 2nd recorded answer onward. A
	// failed check is the same as "not triggered".
	if total >= 2 {
		snap, err := e.jd.SnapCheck(ctx, cc, targetName, text)
		if err != nil {
			log.Printf("engine %s: snap check: %v", e.caseID(), err)
		} else if snap.Triggered {
			return e.enterSnapJudgment(ctx, fields, snap.WinnerName, snap.Reason)
		}
	}

	// One clarification follow-up per slot when the evaluator flagged the
	// answer: the slot is retried with a follow-up question instead of
	// advancing.
	if score.Flag != "" && !isFollowUp {
		e.mu.Lock()
		canFollowUp := e.side.FollowUps == 0
		e.mu.Unlock()
		if canFollowUp && e.askFollowUp(ctx, fields, target, round) {
			return nil
		}
	}

	nextTarget, nextRound, done := nextSlot(target, round)
	e.mu.Lock()
	if done {
		fields["phase"] = types.PhaseVerdict
		e.proj.Phase = types.PhaseVerdict
	} else {
		fields["exam_target"] = nextTarget
		fields["exam_round"] = nextRound
		e.proj.ExamTarget = nextTarget
		e.proj.ExamRound = nextRound
		e.side.FollowUps = 0
	}
	caseID := e.proj.CaseID
	e.mu.Unlock()

	if err := e.st.UpdateCase(ctx, caseID, fields); err != nil {
		// The response row is already durable; keep optimistic local state
		// and let reconnection reconcile. No automatic retry.
		log.Printf("engine %s: persist advancement: %v", caseID, err)
		return nil
	}

	if done {
		e.mu.Lock()
		writer := e.isVerdictWriter()
		e.mu.Unlock()
		if writer {
			e.generateVerdict(ctx)
		}
	} else {
		e.MaybeGenerateQuestion(ctx)
	}
	return nil
}

// enterSnapJudgment durably records the snapJudgment phase with its
// provisional payload; both clients suspend normal advancement on seeing it.
func (e *Engine) enterSnapJudgment(ctx context.Context, fields map[string]any, winner, reason string) error {
	e.mu.Lock()
	fields["phase"] = types.PhaseSnapJudgment
	fields["verdict_is_snap"] = true
	fields["snap_winner"] = winner
	fields["snap_reason"] = reason
	e.proj.Phase = types.PhaseSnapJudgment
	e.proj.SnapWinner = winner
	e.proj.SnapReason = reason
	caseID := e.proj.CaseID
	e.mu.Unlock()
	return e.st.UpdateCase(ctx, caseID, fields)
}

// ContinueFromSnap unconditionally moves a snap-judgment case to the
// verdict phase and triggers full verdict generation on the designated
// writer.
func (e *Engine) ContinueFromSnap(ctx context.Context) error {
	e.mu.Lock()
	if e.proj.Phase != types.PhaseSnapJudgment {
		e.mu.Unlock()
		return ErrWrongPhase
	}
	caseID := e.proj.CaseID
	e.proj.Phase = types.PhaseVerdict
	writer := e.isVerdictWriter()
	e.mu.Unlock()

	if err := e.st.UpdateCase(ctx, caseID, map[string]any{"phase": types.PhaseVerdict}); err != nil {
		return err
	}
	if writer {
		e.generateVerdict(ctx)
	}
	return nil
}

// generateVerdict produces and persists the final verdict exactly once.
// The single-writer rule excludes the other client; the nil-verdict check
// and the in-flight flag exclude redundant triggers within this one, since
// the lock does not cover the judge call.
func (e *Engine) generateVerdict(ctx context.Context) {
	e.mu.Lock()
	if e.proj.Phase != types.PhaseVerdict || e.proj.Verdict != nil || e.side.WritingVerdict {
		e.mu.Unlock()
		return
	}
	e.side.WritingVerdict = true
	cc := e.caseContext()
	snapWinner := e.proj.SnapWinner
	snapReason := e.proj.SnapReason
	isSnap := snapWinner != ""
	caseID := e.proj.CaseID
	e.mu.Unlock()

	res, err := e.jd.Verdict(ctx, cc, snapReason)
	if err != nil || res.WinnerName == "" {
		if err != nil {
			log.Printf("engine %s: verdict generation: %v", caseID, err)
		}
		res = fallbackVerdict(cc, snapWinner, snapReason)
	}
	if isSnap && snapWinner != "" {
		// The snap ruling is binding on the full verdict.
		res.WinnerName = snapWinner
	}

	loser := cc.PartyBName
	if res.WinnerName == cc.PartyBName {
		loser = cc.PartyAName
	}

	v := &Verdict{
		WinnerName:     res.WinnerName,
		LoserName:      loser,
		Summary:        res.Summary,
		Reasoning:      res.Reasoning,
		IsSnapJudgment: isSnap,
		SnapReason:     snapReason,
	}

	e.mu.Lock()
	e.side.WritingVerdict = false
	e.proj.Verdict = v
	e.mu.Unlock()

	err = e.st.UpdateCase(ctx, caseID, map[string]any{
		"verdict_winner":    v.WinnerName,
		"verdict_loser":     v.LoserName,
		"verdict_summary":   v.Summary,
		"verdict_reasoning": v.Reasoning,
		"verdict_is_snap":   v.IsSnapJudgment,
	})
	if err != nil {
		log.Printf("engine %s: persist verdict: %v", caseID, err)
	}
}

// fallbackVerdict is the deterministic substitute when the judge call fails
// or names nobody: higher credibility wins, ties go to the defendant.
func fallbackVerdict(cc judge.CaseContext, snapWinner, snapReason string) judge.VerdictResult {
	winner := cc.PartyBName
	if cc.CredibilityA > cc.CredibilityB {
		winner = cc.PartyAName
	}
	if snapWinner != "" {
		winner = snapWinner
	}
	reasoning := fmt.Sprintf("On the whole of the testimony, %s's account was the more credible.", winner)
	if snapReason != "" {
		reasoning = snapReason
	}
	return judge.VerdictResult{
		WinnerName: winner,
		Summary:    fmt.Sprintf("%s and %s both had their say; the scales settled where they settled.", cc.PartyAName, cc.PartyBName),
		Reasoning:  reasoning,
	}
}
