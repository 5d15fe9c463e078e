package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overruled-app/overruled/src/courtapi/judge"
	"github.com/overruled-app/overruled/src/courtapi/store"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

const sustainedRuling = "RULING: SUSTAINED\nREASON: Leading the witness."

// questionPendingCase seeds a cross-examination case with a question already
// on the floor for A.
func questionPendingCase(t *testing.T) (*store.Memory, *types.Case) {
	t.Helper()
	st, c := crossExamCase(t)
	c.CurrentQuestion = "So when exactly did you decide to take the food?"
	require.NoError(t, st.UpdateCase(context.Background(), c.ID, map[string]any{
		"current_question": c.CurrentQuestion,
	}))
	return st, c
}

func TestObjectionToQuestionSustained(t *testing.T) {
	ctx := context.Background()
	st, c := questionPendingCase(t)
	sc := judge.NewScripted()
	sc.Queue(sustainedRuling)
	eng := New(st, judge.NewService(sc, "stern"), types.PartyA, c, nil, false)

	obj, ruling, err := eng.RaiseObjection(ctx, types.PartyA, "leading", "The question assumes guilt.", true)
	require.NoError(t, err)
	assert.True(t, ruling.Sustained)
	assert.Equal(t, "Judge", obj.Target)
	assert.True(t, obj.Ruled)
	assert.True(t, obj.Sustained)

	// Sustained against a question: the question is void, the slot will be
	// retried, and nobody's credibility moves.
	p := eng.Projection()
	assert.Empty(t, p.CurrentQuestion)
	assert.Equal(t, 100, p.CredibilityA)
	assert.Equal(t, 100, p.CredibilityB)
	assert.True(t, p.ObjectionUsedA)

	got, err := st.GetCaseByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.CurrentQuestion)
	assert.True(t, got.ObjectionUsedA)

	stored, err := st.ListObjections(ctx, c.ID)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "Leading the witness.", stored[0].RulingReason)
}

func TestObjectionToAnswerSustained(t *testing.T) {
	ctx := context.Background()
	st, c := questionPendingCase(t)
	answer := &types.Response{
		CaseID:   c.ID,
		Round:    0,
		Party:    types.PartyB,
		Question: "And your side of it?",
		Answer:   "Abandoned food is fair game, everyone knows that.",
	}
	require.NoError(t, st.InsertResponse(ctx, answer))

	sc := judge.NewScripted()
	sc.Queue("RULING: SUSTAINED\nREASON: Pure speculation about office custom.")
	eng := New(st, judge.NewService(sc, "stern"), types.PartyA, c, []types.Response{*answer}, false)

	obj, ruling, err := eng.RaiseObjection(ctx, types.PartyA, "speculation", "That is not a rule.", false)
	require.NoError(t, err)
	assert.True(t, ruling.Sustained)
	assert.Equal(t, "Riley", obj.Target)

	// Sustained against an answer: a fixed 10 point penalty on its author,
	// the pending question untouched.
	p := eng.Projection()
	assert.Equal(t, 90, p.CredibilityB)
	assert.Equal(t, 100, p.CredibilityA)
	assert.NotEmpty(t, p.CurrentQuestion)

	got, err := st.GetCaseByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 90, got.CredibilityB)
	assert.NotEmpty(t, got.CurrentQuestion)
}

func TestObjectionOverruledChangesNothing(t *testing.T) {
	ctx := context.Background()
	st, c := questionPendingCase(t)
	sc := judge.NewScripted() // canned ruling is overruled
	eng := New(st, judge.NewService(sc, "stern"), types.PartyA, c, nil, false)

	obj, ruling, err := eng.RaiseObjection(ctx, types.PartyA, "badgering", "Too aggressive.", true)
	require.NoError(t, err)
	assert.False(t, ruling.Sustained)
	assert.False(t, obj.Sustained)

	p := eng.Projection()
	assert.NotEmpty(t, p.CurrentQuestion, "overruled leaves the question standing")
	assert.Equal(t, 100, p.CredibilityA)
	assert.Equal(t, 100, p.CredibilityB)
	// The one-per-case objection is spent either way.
	assert.True(t, p.ObjectionUsedA)
}

func TestSecondObjectionRejectedBeforeRuling(t *testing.T) {
	ctx := context.Background()
	st, c := questionPendingCase(t)
	sc := judge.NewScripted()
	eng := New(st, judge.NewService(sc, "stern"), types.PartyA, c, nil, false)

	_, _, err := eng.RaiseObjection(ctx, types.PartyA, "leading", "first", true)
	require.NoError(t, err)
	calls := sc.Calls()

	_, _, err = eng.RaiseObjection(ctx, types.PartyA, "leading", "second", true)
	assert.ErrorIs(t, err, ErrObjectionSpent)
	assert.Equal(t, calls, sc.Calls(), "a spent objection never reaches the evaluator")
}

func TestObjectionGuards(t *testing.T) {
	ctx := context.Background()
	st, c := questionPendingCase(t)
	sc := judge.NewScripted()
	eng := New(st, judge.NewService(sc, "stern"), types.PartyA, c, nil, false)

	// Acting for the other party.
	_, _, err := eng.RaiseObjection(ctx, types.PartyB, "leading", "not mine to raise", true)
	assert.ErrorIs(t, err, ErrNotYourTurn)

	// Objecting to a question while not under examination.
	require.NoError(t, st.UpdateCase(ctx, c.ID, map[string]any{"exam_target": types.PartyB}))
	eng.HandleChange(ctx)
	_, _, err = eng.RaiseObjection(ctx, types.PartyA, "leading", "not my question", true)
	assert.ErrorIs(t, err, ErrNoQuestion)

	// Objecting to an answer when the opponent has none on record.
	_, _, err = eng.RaiseObjection(ctx, types.PartyA, "hearsay", "nothing to object to", false)
	assert.Error(t, err)
}

func TestObjectionRequiresCrossExam(t *testing.T) {
	ctx := context.Background()
	st, c := questionPendingCase(t)
	require.NoError(t, st.UpdateCase(ctx, c.ID, map[string]any{"phase": types.PhaseVerdict}))
	sc := judge.NewScripted()
	eng := New(st, judge.NewService(sc, "stern"), types.PartyA, c, nil, false)
	eng.HandleChange(ctx)

	_, _, err := eng.RaiseObjection(ctx, types.PartyA, "leading", "too late", true)
	assert.ErrorIs(t, err, ErrWrongPhase)
}
