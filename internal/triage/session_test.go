package triage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/garderoba/internal/model"
)

func results(ids ...string) []model.AnalysisResult {
	out := make([]model.AnalysisResult, len(ids))
	for i, id := range ids {
		out[i] = model.AnalysisResult{ItemID: id, Reasoning: "because", SuggestedAction: model.ActionDonate}
	}
	return out
}

func TestSessionCursor(t *testing.T) {
	now := time.Now()
	s := NewSession()
	assert.Equal(t, StateIdle, s.State)
	assert.Nil(t, s.Current())

	require.NoError(t, s.Begin(now))
	assert.Equal(t, StateLoading, s.State)
	assert.NotEmpty(t, s.ID)
	assert.ErrorIs(t, s.Begin(now), ErrBusy)

	s.Receive(results("a", "b", "c"), now)
	for i, id := range []string{"a", "b", "c"} {
		require.Equal(t, StatePresenting, s.State, "step %d", i)
		require.Equal(t, id, s.Current().ItemID)
		assert.Equal(t, 3-i, s.Remaining())
		require.NoError(t, s.Advance(now))
	}

	assert.Equal(t, StateDone, s.State)
	assert.Nil(t, s.Current())
	assert.Equal(t, 0, s.Remaining())
	assert.ErrorIs(t, s.Advance(now), ErrNotPresenting)
}

func TestSessionEmptyResultsFinish(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Begin(time.Now()))
	s.Receive(nil, time.Now())
	assert.Equal(t, StateDone, s.State)
	assert.NotNil(t, s.Results)
}

func TestSessionBeginResets(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Begin(time.Now()))
	first := s.ID
	s.Receive(results("a", "b"), time.Now())
	require.NoError(t, s.Advance(time.Now()))

	require.NoError(t, s.Begin(time.Now()))
	assert.NotEqual(t, first, s.ID)
	assert.Equal(t, StateLoading, s.State)
	assert.Equal(t, 0, s.Cursor)
	assert.Empty(t, s.Results)
}

func TestSessionFail(t *testing.T) {
	s := NewSession()
	require.NoError(t, s.Begin(time.Now()))
	s.Fail(time.Now())
	assert.Equal(t, StateIdle, s.State)
	assert.Empty(t, s.ID)
}

func TestDecisionToStatus(t *testing.T) {
	assert.Equal(t, model.ItemStatusDonated, DecisionDonate.ToStatus())
	assert.Equal(t, model.ItemStatusTransformed, DecisionTransform.ToStatus())
	assert.Equal(t, model.ItemStatusReserved, DecisionReserve.ToStatus())
	assert.Equal(t, model.ItemStatusReserved, DecisionKeep.ToStatus())
}

func TestParseDecision(t *testing.T) {
	d, ok := ParseDecision(" donate ")
	assert.True(t, ok)
	assert.Equal(t, DecisionDonate, d)

	_, ok = ParseDecision("burn")
	assert.False(t, ok)
}

func TestDecisionFromSwipe(t *testing.T) {
	tests := []struct {
		dx, dy float64
		want   Decision
		ok     bool
	}{
		{-101, 0, DecisionDonate, true},
		{101, 0, DecisionTransform, true},
		{0, -101, DecisionReserve, true},
		{-150, -150, DecisionDonate, true},
		{-100, 0, "", false},
		{100, 0, "", false},
		{0, 200, "", false},
		{0, 0, "", false},
	}
	for _, tt := range tests {
		got, ok := DecisionFromSwipe(tt.dx, tt.dy)
		assert.Equal(t, tt.ok, ok, "dx=%v dy=%v", tt.dx, tt.dy)
		assert.Equal(t, tt.want, got, "dx=%v dy=%v", tt.dx, tt.dy)
	}
}

func TestMemorySessionsStoreCopies(t *testing.T) {
	ctx := context.Background()
	m := NewMemorySessions()

	got, err := m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)

	s := NewSession()
	require.NoError(t, s.Begin(time.Now()))
	s.Receive(results("a"), time.Now())
	require.NoError(t, m.Put(ctx, 1, s))

	s.Results[0].ItemID = "changed"
	got, err = m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Results[0].ItemID)

	other, err := m.Get(ctx, 2)
	require.NoError(t, err)
	assert.Nil(t, other)

	require.NoError(t, m.Delete(ctx, 1))
	got, err = m.Get(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "garderoba:triage:42", sessionKey(42))
}
