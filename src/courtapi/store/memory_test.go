package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/overruled-app/overruled/src/courtapi/data"
	"github.com/overruled-app/overruled/src/courtapi/types"
)

func seedCase(t *testing.T, st *Memory) *types.Case {
	t.Helper()
	c := &types.Case{
		ID:           "case-1",
		RoomCode:     "AB23CD",
		PartyAName:   "Sam",
		Phase:        types.PhaseWaiting,
		CredibilityA: 100,
		CredibilityB: 100,
	}
	require.NoError(t, st.CreateCase(context.Background(), c))
	return c
}

func TestMemoryCaseLookup(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	seedCase(t, st)

	got, err := st.GetCaseByRoomCode(ctx, "AB23CD")
	require.NoError(t, err)
	assert.Equal(t, "case-1", got.ID)

	_, err = st.GetCaseByRoomCode(ctx, "ZZZZZZ")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.GetCaseByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	seedCase(t, st)

	got, err := st.GetCaseByID(ctx, "case-1")
	require.NoError(t, err)
	got.PartyAName = "Mallory"

	again, err := st.GetCaseByID(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", again.PartyAName, "callers must not reach the stored record")
}

func TestMemoryBindPartyBOnce(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	seedCase(t, st)

	require.NoError(t, st.BindPartyB(ctx, "case-1", "Riley", "sess-b"))
	got, err := st.GetCaseByID(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "Riley", got.PartyBName)
	assert.Equal(t, types.PhaseStatements, got.Phase)
	assert.Equal(t, types.PartyA, got.CurrentTurn)

	// The slot is taken; a second claim must lose, not overwrite.
	err = st.BindPartyB(ctx, "case-1", "Jordan", "sess-c")
	assert.ErrorIs(t, err, ErrCaseFull)
	again, err := st.GetCaseByID(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, "sess-b", again.PartyBSession)

	assert.ErrorIs(t, st.BindPartyB(ctx, "nope", "Riley", "sess-x"), ErrNotFound)
}

func TestMemoryUpdateCase(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	seedCase(t, st)

	err := st.UpdateCase(ctx, "case-1", map[string]any{
		"phase":         types.PhaseStatements,
		"party_b_name":  "Riley",
		"credibility_a": 90,
	})
	require.NoError(t, err)

	got, err := st.GetCaseByID(ctx, "case-1")
	require.NoError(t, err)
	assert.Equal(t, types.PhaseStatements, got.Phase)
	assert.Equal(t, "Riley", got.PartyBName)
	assert.Equal(t, 90, got.CredibilityA)

	// A column the engine never writes is a programming error, not data.
	assert.Error(t, st.UpdateCase(ctx, "case-1", map[string]any{"no_such_column": 1}))
	assert.ErrorIs(t, st.UpdateCase(ctx, "nope", map[string]any{"phase": types.PhaseVerdict}), ErrNotFound)
}

func TestMemoryNotifiesWatchers(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	seedCase(t, st)

	var events []data.CaseEvent
	st.OnChange(func(ev data.CaseEvent) { events = append(events, ev) })

	require.NoError(t, st.UpdateCase(ctx, "case-1", map[string]any{"phase": types.PhaseStatements}))
	require.NoError(t, st.InsertResponse(ctx, &types.Response{CaseID: "case-1", Party: types.PartyA, Answer: "a"}))

	require.Len(t, events, 2)
	assert.Equal(t, "case_updated", events[0].Kind)
	assert.Equal(t, []string{"phase"}, events[0].Fields)
	assert.Equal(t, "response_added", events[1].Kind)
	assert.Equal(t, "A", events[1].Actor)
}

func TestMemoryObjections(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	seedCase(t, st)

	o := &types.Objection{CaseID: "case-1", Objector: types.PartyA, Type: "leading", Reason: "assumes guilt"}
	require.NoError(t, st.InsertObjection(ctx, o))
	require.NotZero(t, o.ID)

	require.NoError(t, st.UpdateObjection(ctx, o.ID, map[string]any{
		"ruled":         true,
		"sustained":     true,
		"ruling_reason": "Leading the witness.",
	}))
	assert.Error(t, st.UpdateObjection(ctx, 9999, map[string]any{"ruled": true}))

	list, err := st.ListObjections(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Sustained)
	assert.Equal(t, "Leading the witness.", list[0].RulingReason)
}

func TestMemoryResponsesKeepOrder(t *testing.T) {
	ctx := context.Background()
	st := NewMemory()
	seedCase(t, st)

	for i, party := range []types.Party{types.PartyA, types.PartyB, types.PartyA} {
		require.NoError(t, st.InsertResponse(ctx, &types.Response{CaseID: "case-1", Round: i / 2, Party: party, Answer: "x"}))
	}

	list, err := st.ListResponses(ctx, "case-1")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, types.PartyA, list[0].Party)
	assert.Equal(t, types.PartyB, list[1].Party)
	assert.True(t, list[0].ID < list[1].ID && list[1].ID < list[2].ID)
}
