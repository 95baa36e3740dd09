package triage

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erazemk/garderoba/internal/db"
	"github.com/erazemk/garderoba/internal/gateway"
	"github.com/erazemk/garderoba/internal/model"
	"github.com/erazemk/garderoba/internal/store"
)

// stubAnalyzer returns fixed results and counts its calls.
type stubAnalyzer struct {
	mu      sync.Mutex
	results []model.AnalysisResult
	err     error
	calls   int
	seen    []model.Item
	// block, when set, is waited on before answering.
	block chan struct{}
}

func (a *stubAnalyzer) AnalyzeUsage(ctx context.Context, items []model.Item, _ model.StyleProfile) ([]model.AnalysisResult, error) {
	a.mu.Lock()
	a.calls++
	a.seen = items
	block := a.block
	a.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return a.results, a.err
}

func setup(t *testing.T) (*sql.DB, int64) {
	t.Helper()
	database := db.NewTestDB(t)
	u, err := store.CreateUser(context.Background(), database, "ana", "hash", model.RoleUser)
	require.NoError(t, err)
	return database, u.ID
}

func addItem(t *testing.T, database *sql.DB, userID int64, name string) *model.Item {
	t.Helper()
	item, err := store.CreateItem(context.Background(), database, userID,
		model.ItemAttrs{Name: name, Category: model.CategoryShirts, Color: "Blue", Material: "Cotton"}, time.Now())
	require.NoError(t, err)
	return item
}

func suggestion(id string, action model.SuggestedAction) model.AnalysisResult {
	return model.AnalysisResult{ItemID: id, Reasoning: "rarely worn", SuggestedAction: action, WearProbability: 0.2}
}

func TestStartWithoutActiveItemsStaysIdle(t *testing.T) {
	database, userID := setup(t)
	analyzer := &stubAnalyzer{}
	svc := NewService(database, analyzer, NewMemorySessions())

	view, err := svc.Start(context.Background(), userID)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, view.State)
	assert.Equal(t, 0, analyzer.calls)
}

func TestStartOnlyAnalyzesActiveItems(t *testing.T) {
	ctx := context.Background()
	database, userID := setup(t)
	a := addItem(t, database, userID, "A")
	b := addItem(t, database, userID, "B")
	_, err := store.SetItemStatus(ctx, database, userID, b.ID, model.ItemStatusDonated, store.StatusChangeInfo{})
	require.NoError(t, err)

	analyzer := &stubAnalyzer{results: []model.AnalysisResult{suggestion(a.ID, model.ActionReserve)}}
	svc := NewService(database, analyzer, NewMemorySessions())

	view, err := svc.Start(ctx, userID)
	require.NoError(t, err)
	require.Len(t, analyzer.seen, 1)
	assert.Equal(t, a.ID, analyzer.seen[0].ID)

	assert.Equal(t, StatePresenting, view.State)
	assert.Equal(t, 1, view.Total)
	require.NotNil(t, view.Item)
	assert.Equal(t, "A", view.Item.Name)
}

func TestDecideWalksResultsInOrder(t *testing.T) {
	ctx := context.Background()
	database, userID := setup(t)
	a := addItem(t, database, userID, "A")
	b := addItem(t, database, userID, "B")
	c := addItem(t, database, userID, "C")

	analyzer := &stubAnalyzer{results: []model.AnalysisResult{
		suggestion(c.ID, model.ActionDonate),
		suggestion(a.ID, model.ActionTransform),
		suggestion(b.ID, model.ActionReserve),
	}}
	svc := NewService(database, analyzer, NewMemorySessions())

	view, err := svc.Start(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, view.Result.ItemID)

	decisions := []Decision{DecisionDonate, DecisionTransform, DecisionKeep}
	for i, d := range decisions {
		require.Equal(t, StatePresenting, view.State, "decision %d", i)
		view, err = svc.Decide(ctx, userID, d)
		require.NoError(t, err)
	}
	assert.Equal(t, StateDone, view.State)
	assert.Equal(t, 3, view.Cursor)

	_, err = svc.Decide(ctx, userID, DecisionDonate)
	assert.ErrorIs(t, err, ErrNotPresenting)

	want := map[string]model.ItemStatus{
		c.ID: model.ItemStatusDonated,
		a.ID: model.ItemStatusTransformed,
		b.ID: model.ItemStatusReserved,
	}
	for id, status := range want {
		item, err := store.GetItem(ctx, database, userID, id)
		require.NoError(t, err)
		assert.Equal(t, status, item.Status, item.Name)
	}

	reserved, err := store.GetItem(ctx, database, userID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "rarely worn", reserved.ReserveReason)

	history, err := store.GetItemHistory(ctx, database, userID, c.ID)
	require.NoError(t, err)
	require.Len(t, history.StatusChanges, 1)
	assert.Equal(t, model.ChangeSourceTriage, history.StatusChanges[0].Source)
}

func TestDecideToleratesDanglingItems(t *testing.T) {
	ctx := context.Background()
	database, userID := setup(t)
	a := addItem(t, database, userID, "A")
	gone := addItem(t, database, userID, "Gone")
	shelved := addItem(t, database, userID, "Shelved")

	analyzer := &stubAnalyzer{results: []model.AnalysisResult{
		suggestion("no-such-item", model.ActionDonate),
		suggestion(gone.ID, model.ActionDonate),
		suggestion(shelved.ID, model.ActionReserve),
		suggestion(a.ID, model.ActionDonate),
	}}
	svc := NewService(database, analyzer, NewMemorySessions())

	_, err := svc.Start(ctx, userID)
	require.NoError(t, err)

	require.NoError(t, store.DeleteItem(ctx, database, userID, gone.ID))
	_, err = store.SetItemStatus(ctx, database, userID, shelved.ID, model.ItemStatusDonated, store.StatusChangeInfo{})
	require.NoError(t, err)

	view, err := svc.Current(ctx, userID)
	require.NoError(t, err)
	assert.Nil(t, view.Item)

	for i := 0; i < 3; i++ {
		view, err = svc.Decide(ctx, userID, DecisionReserve)
		require.NoError(t, err, "decision %d", i)
	}
	assert.Equal(t, 3, view.Cursor)
	assert.Equal(t, a.ID, view.Result.ItemID)

	item, err := store.GetItem(ctx, database, userID, shelved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ItemStatusDonated, item.Status)

	view, err = svc.Decide(ctx, userID, DecisionDonate)
	require.NoError(t, err)
	assert.Equal(t, StateDone, view.State)
}

func TestStartFailureReturnsToIdle(t *testing.T) {
	ctx := context.Background()
	database, userID := setup(t)
	addItem(t, database, userID, "A")

	boom := &gateway.Error{Op: "analyze", Kind: gateway.KindMalformed}
	svc := NewService(database, &stubAnalyzer{err: boom}, NewMemorySessions())

	_, err := svc.Start(ctx, userID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, boom))

	view, err := svc.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, view.State)
}

func TestStartWhileLoadingIsBusy(t *testing.T) {
	ctx := context.Background()
	database, userID := setup(t)
	a := addItem(t, database, userID, "A")

	analyzer := &stubAnalyzer{
		results: []model.AnalysisResult{suggestion(a.ID, model.ActionDonate)},
		block:   make(chan struct{}),
	}
	svc := NewService(database, analyzer, NewMemorySessions())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Start(ctx, userID)
		done <- err
	}()

	require.Eventually(t, func() bool {
		view, err := svc.Current(ctx, userID)
		return err == nil && view.State == StateLoading
	}, time.Second, time.Millisecond)

	_, err := svc.Start(ctx, userID)
	assert.ErrorIs(t, err, ErrBusy)

	close(analyzer.block)
	require.NoError(t, <-done)

	view, err := svc.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, StatePresenting, view.State)
}

func TestResetDuringAnalysisDropsResults(t *testing.T) {
	ctx := context.Background()
	database, userID := setup(t)
	a := addItem(t, database, userID, "A")

	analyzer := &stubAnalyzer{
		results: []model.AnalysisResult{suggestion(a.ID, model.ActionDonate)},
		block:   make(chan struct{}),
	}
	svc := NewService(database, analyzer, NewMemorySessions())

	done := make(chan error, 1)
	go func() {
		_, err := svc.Start(ctx, userID)
		done <- err
	}()
	require.Eventually(t, func() bool {
		view, err := svc.Current(ctx, userID)
		return err == nil && view.State == StateLoading
	}, time.Second, time.Millisecond)

	require.NoError(t, svc.Reset(ctx, userID))
	close(analyzer.block)
	assert.ErrorIs(t, <-done, ErrSuperseded)

	view, err := svc.Current(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, StateIdle, view.State)
}

func TestRestartDiscardsFinishedSession(t *testing.T) {
	ctx := context.Background()
	database, userID := setup(t)
	a := addItem(t, database, userID, "A")
	addItem(t, database, userID, "B")

	analyzer := &stubAnalyzer{results: []model.AnalysisResult{suggestion(a.ID, model.ActionDonate)}}
	svc := NewService(database, analyzer, NewMemorySessions())

	first, err := svc.Start(ctx, userID)
	require.NoError(t, err)
	_, err = svc.Decide(ctx, userID, DecisionDonate)
	require.NoError(t, err)

	analyzer.results = nil
	second, err := svc.Start(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, StateDone, second.State)
	assert.Equal(t, 2, analyzer.calls)
}

// TestBlueShirtLifecycle follows one item from a photo to a donation.
func TestBlueShirtLifecycle(t *testing.T) {
	ctx := context.Background()
	database, userID := setup(t)

	var itemID string
	fake := gateway.ModelFunc(func(_ context.Context, req gateway.Request) (string, error) {
		if req.Image != nil {
			return `{"name":"Blue Shirt","category":"Shirts","color":"Blue","material":"Cotton"}`, nil
		}
		return `[{"itemId":"` + itemID + `","reasoning":"Worn once","suggestedAction":"DONATE","wearProbability":0.1}]`, nil
	})
	gw := gateway.New(fake, 0)

	c, err := gw.CategorizeImage(ctx, gateway.Image{MIME: "image/jpeg", Data: []byte("photo")})
	require.NoError(t, err)
	item, err := store.CreateItem(ctx, database, userID, c.Attrs(), time.Now())
	require.NoError(t, err)
	itemID = item.ID

	assert.Equal(t, "Blue Shirt", item.Name)
	assert.Equal(t, model.CategoryShirts, item.Category)
	assert.Equal(t, "Blue", item.Color)
	assert.Equal(t, "Cotton", item.Material)
	assert.Equal(t, model.ItemStatusActive, item.Status)
	assert.Equal(t, 0, item.WearCount)
	assert.Nil(t, item.LastWornDate)

	today := time.Now()
	item, err = store.RecordWorn(ctx, database, userID, item.ID, today)
	require.NoError(t, err)
	assert.Equal(t, 1, item.WearCount)
	require.NotNil(t, item.LastWornDate)
	assert.Equal(t, model.FormatDate(today), *item.LastWornDate)

	svc := NewService(database, gw, NewMemorySessions())
	view, err := svc.Start(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, StatePresenting, view.State)
	assert.Equal(t, item.ID, view.Result.ItemID)

	view, err = svc.Decide(ctx, userID, DecisionDonate)
	require.NoError(t, err)
	assert.Equal(t, StateDone, view.State)

	active, err := store.ListItemsByStatus(ctx, database, userID, model.ItemStatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)

	donated, err := store.ListItemsByStatus(ctx, database, userID, model.ItemStatusDonated)
	require.NoError(t, err)
	require.Len(t, donated, 1)
	assert.Equal(t, item.ID, donated[0].ID)
}

func TestKeyedMutexForgetsUnusedKeys(t *testing.T) {
	var k keyedMutex
	unlock := k.Lock(1)
	unlock2 := k.Lock(2)
	assert.Len(t, k.locks, 2)
	unlock()
	unlock2()
	assert.Empty(t, k.locks)
}
