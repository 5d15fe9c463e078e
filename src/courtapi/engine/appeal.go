package engine

import (
	"context"
	"log"

	"github.com/overruled-app/overruled/src/courtapi/types"
)

// SubmitAppeal lets the losing party argue the verdict once. The evaluator
// either upholds (no change) or reverses (winner and reasoning replaced in
// place); an unparseable or failed ruling defaults to upheld, because the
// court must never invent a winner. The phase never moves.
func (e *Engine) SubmitAppeal(ctx context.Context, appellant types.Party, argument string) (*Verdict, error) {
	e.mu.Lock()
	if e.proj.Verdict == nil {
		e.mu.Unlock()
		return nil, ErrNoVerdict
	}
	if e.proj.Verdict.Appealed {
		e.mu.Unlock()
		return nil, ErrAlreadyAppealed
	}
	if !e.isLocal(appellant) {
		e.mu.Unlock()
		return nil, ErrNotYourTurn
	}
	if e.proj.NameFor(appellant) == e.proj.Verdict.WinnerName {
		e.mu.Unlock()
		return nil, ErrNotLoser
	}
	cc := e.caseContext()
	priorWinner := e.proj.Verdict.WinnerName
	priorReasoning := e.proj.Verdict.Reasoning
	caseID := e.proj.CaseID
	e.mu.Unlock()

	res, err := e.jd.Appeal(ctx, cc, priorWinner, priorReasoning, argument)
	if err != nil {
		log.Printf("engine %s: appeal ruling: %v", caseID, err)
		res.Reversed = false
	}

	e.mu.Lock()
	v := e.proj.Verdict
	v.Appealed = true
	fields := map[string]any{"appealed": true}
	if res.Reversed && res.NewWinner != "" && res.NewWinner != v.WinnerName {
		v.LoserName = v.WinnerName
		v.WinnerName = res.NewWinner
		v.Reasoning = "APPEAL GRANTED: " + res.Reason
		fields["verdict_winner"] = v.WinnerName
		fields["verdict_loser"] = v.LoserName
		fields["verdict_reasoning"] = v.Reasoning
	}
	out := *v
	e.mu.Unlock()

	if err := e.st.UpdateCase(ctx, caseID, fields); err != nil {
		log.Printf("engine %s: persist appeal: %v", caseID, err)
	}
	return &out, nil
}
