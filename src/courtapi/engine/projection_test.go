package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overruled-app/overruled/src/courtapi/types"
)

func TestRehydrate(t *testing.T) {
	c := &types.Case{
		ID:              "case-r",
		RoomCode:        "ABCDEF",
		PartyAName:      "Sam",
		PartyBName:      "Riley",
		StatementA:      "mine",
		StatementB:      "fair game",
		Phase:           types.PhaseCrossExam,
		ExamRound:       1,
		ExamTarget:      types.PartyB,
		CurrentQuestion: "And then what?",
		CredibilityA:    85,
		CredibilityB:    70,
		ObjectionUsedA:  true,
	}
	responses := []types.Response{
		{Round: 0, Party: types.PartyA, Answer: "first"},
		{Round: 0, Party: types.PartyB, Answer: "second"},
	}

	p := Rehydrate(c, responses)
	assert.Equal(t, "case-r", p.CaseID)
	assert.Equal(t, types.PhaseCrossExam, p.Phase)
	assert.Equal(t, 1, p.ExamRound)
	assert.Equal(t, types.PartyB, p.ExamTarget)
	assert.Equal(t, "And then what?", p.CurrentQuestion)
	assert.Equal(t, 85, p.CredibilityA)
	assert.True(t, p.ObjectionUsedA)
	assert.False(t, p.ObjectionUsedB)
	assert.Len(t, p.Responses, 2)
	assert.Nil(t, p.Verdict, "no verdict fields, no verdict overlay")

	c.VerdictWinner = "Sam"
	c.VerdictLoser = "Riley"
	c.VerdictReasoning = "held together"
	c.Appealed = true
	p = Rehydrate(c, responses)
	require.NotNil(t, p.Verdict)
	assert.Equal(t, "Sam", p.Verdict.WinnerName)
	assert.True(t, p.Verdict.Appealed)
}

// A fresh client re-deriving state from the record must land on exactly what
// the writer's projection held.
func TestRehydrateMatchesWriterProjection(t *testing.T) {
	st, eng, _ := newSolo(t)
	ctx := context.Background()

	require.NoError(t, eng.SubmitStatement(ctx, "statement A"))
	require.NoError(t, eng.SubmitStatement(ctx, "statement B"))
	require.NoError(t, eng.SubmitAnswer(ctx, "answer one"))

	p := eng.Projection()
	c, err := st.GetCaseByID(ctx, p.CaseID)
	require.NoError(t, err)
	responses, err := st.ListResponses(ctx, p.CaseID)
	require.NoError(t, err)

	fresh := Rehydrate(c, responses)
	assert.Equal(t, p, fresh)
}

func TestReduceAdoptsRemoteState(t *testing.T) {
	side := NewSideState()
	local := Projection{CaseID: "case-r", Phase: types.PhaseStatements, CredibilityA: 100, CredibilityB: 100}
	c := &types.Case{
		ID: "case-r", Phase: types.PhaseCrossExam, ExamTarget: types.PartyA,
		CurrentQuestion: "q", CredibilityA: 92, CredibilityB: 88,
	}

	next := Reduce(local, c, nil, side)
	assert.Equal(t, types.PhaseCrossExam, next.Phase)
	assert.Equal(t, 92, next.CredibilityA)
	assert.Equal(t, 88, next.CredibilityB)
}

func TestReduceProtectsPendingCredibility(t *testing.T) {
	side := NewSideState()
	side.PendingCred[types.PartyA] = 85
	local := Projection{CaseID: "case-r", CredibilityA: 85, CredibilityB: 100}

	// Stale remote read from before our write: our value stays.
	stale := &types.Case{ID: "case-r", CredibilityA: 100, CredibilityB: 90}
	next := Reduce(local, stale, nil, side)
	assert.Equal(t, 85, next.CredibilityA)
	assert.Equal(t, 90, next.CredibilityB, "the other party's score reconciles independently")
	assert.Contains(t, side.PendingCred, types.PartyA)

	// Remote caught up: adopt and clear the pending write.
	caught := &types.Case{ID: "case-r", CredibilityA: 85, CredibilityB: 90}
	next = Reduce(next, caught, nil, side)
	assert.Equal(t, 85, next.CredibilityA)
	assert.NotContains(t, side.PendingCred, types.PartyA)
}

func TestClampCredibility(t *testing.T) {
	assert.Equal(t, 5, clampCredibility(-10))
	assert.Equal(t, 5, clampCredibility(4))
	assert.Equal(t, 5, clampCredibility(5))
	assert.Equal(t, 50, clampCredibility(50))
	assert.Equal(t, 95, clampCredibility(95))
	assert.Equal(t, 95, clampCredibility(120))
}

func TestProjectionAccessors(t *testing.T) {
	p := Projection{PartyAName: "Sam", PartyBName: "Riley", CredibilityA: 40, CredibilityB: 60, ObjectionUsedB: true}
	assert.Equal(t, "Sam", p.NameFor(types.PartyA))
	assert.Equal(t, "Riley", p.NameFor(types.PartyB))
	assert.Equal(t, 40, p.CredibilityFor(types.PartyA))
	assert.Equal(t, 60, p.CredibilityFor(types.PartyB))
	assert.False(t, p.ObjectionUsed(types.PartyA))
	assert.True(t, p.ObjectionUsed(types.PartyB))
}
