package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/erazemk/garderoba/internal/db"
	"github.com/erazemk/garderoba/internal/model"
)

func newTestUser(t *testing.T, database *sql.DB, username string) int64 {
	t.Helper()
	u, err := CreateUser(context.Background(), database, username, "hash", model.RoleUser)
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	return u.ID
}

func blueShirt() model.ItemAttrs {
	return model.ItemAttrs{Name: "Blue Shirt", Category: model.CategoryShirts, Color: "Blue", Material: "Cotton"}
}

func TestCreateAndGetItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")

	bought := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	item, err := CreateItem(ctx, database, userID, blueShirt(), bought)
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if item.ID == "" {
		t.Fatal("expected an id")
	}
	if item.Name != "Blue Shirt" || item.Category != model.CategoryShirts || item.Color != "Blue" || item.Material != "Cotton" {
		t.Errorf("unexpected attributes: %+v", item)
	}
	if item.Status != model.ItemStatusActive {
		t.Errorf("expected status ACTIVE, got %q", item.Status)
	}
	if item.WearCount != 0 || item.LastWornDate != nil {
		t.Errorf("expected unworn item, got count %d last %v", item.WearCount, item.LastWornDate)
	}
	if item.PurchaseDate != "2026-03-14" {
		t.Errorf("expected purchase date 2026-03-14, got %q", item.PurchaseDate)
	}

	got, err := GetItem(ctx, database, userID, item.ID)
	if err != nil {
		t.Fatalf("GetItem: %v", err)
	}
	if got == nil || got.ID != item.ID {
		t.Fatalf("expected item %s, got %+v", item.ID, got)
	}
}

func TestCreateItemRejectsUnknownCategory(t *testing.T) {
	database := db.NewTestDB(t)
	userID := newTestUser(t, database, "ana")

	attrs := blueShirt()
	attrs.Category = "Hats"
	_, err := CreateItem(context.Background(), database, userID, attrs, time.Now())
	if !errors.Is(err, model.ErrInvalidCategory) {
		t.Errorf("expected ErrInvalidCategory, got %v", err)
	}
}

func TestItemsAreScopedToUser(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	ana := newTestUser(t, database, "ana")
	bor := newTestUser(t, database, "bor")

	item, _ := CreateItem(ctx, database, ana, blueShirt(), time.Now())

	got, _ := GetItem(ctx, database, bor, item.ID)
	if got != nil {
		t.Error("expected another user's item to be invisible")
	}
	items, _ := ListItems(ctx, database, bor, model.ItemFilter{})
	if len(items) != 0 {
		t.Errorf("expected empty closet, got %d items", len(items))
	}
}

func TestRecordWorn(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")

	item, _ := CreateItem(ctx, database, userID, blueShirt(), time.Now())

	days := []time.Time{
		time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 5, 8, 0, 0, 0, time.UTC),
		time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC),
	}
	for i, day := range days {
		got, err := RecordWorn(ctx, database, userID, item.ID, day)
		if err != nil {
			t.Fatalf("RecordWorn: %v", err)
		}
		if got.WearCount != i+1 {
			t.Errorf("expected wear count %d, got %d", i+1, got.WearCount)
		}
		if got.LastWornDate == nil || *got.LastWornDate != model.FormatDate(day) {
			t.Errorf("expected last worn %s, got %v", model.FormatDate(day), got.LastWornDate)
		}
	}

	history, err := GetItemHistory(ctx, database, userID, item.ID)
	if err != nil {
		t.Fatalf("GetItemHistory: %v", err)
	}
	if len(history.WearEvents) != 3 {
		t.Fatalf("expected 3 wear events, got %d", len(history.WearEvents))
	}
	if history.WearEvents[0].WornOn != "2026-10-19" {
		t.Errorf("expected newest wear first, got %q", history.WearEvents[0].WornOn)
	}
}

func TestRecordWornUnknownItemIsNoop(t *testing.T) {
	database := db.NewTestDB(t)
	userID := newTestUser(t, database, "ana")

	got, err := RecordWorn(context.Background(), database, userID, "missing", time.Now())
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != nil {
		t.Errorf("expected nil item, got %+v", got)
	}
}

func TestRecordWornConcurrentIncrementsAreNotLost(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")
	item, _ := CreateItem(ctx, database, userID, blueShirt(), time.Now())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := RecordWorn(ctx, database, userID, item.ID, time.Now()); err != nil {
				t.Errorf("RecordWorn: %v", err)
			}
		}()
	}
	wg.Wait()

	got, _ := GetItem(ctx, database, userID, item.ID)
	if got.WearCount != 10 {
		t.Errorf("expected wear count 10, got %d", got.WearCount)
	}
}

func TestSetItemStatusIdempotent(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")
	item, _ := CreateItem(ctx, database, userID, blueShirt(), time.Now())

	once, err := SetItemStatus(ctx, database, userID, item.ID, model.ItemStatusDonated, StatusChangeInfo{})
	if err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	twice, err := SetItemStatus(ctx, database, userID, item.ID, model.ItemStatusDonated, StatusChangeInfo{})
	if err != nil {
		t.Fatalf("SetItemStatus again: %v", err)
	}
	if once.Status != twice.Status || twice.Status != model.ItemStatusDonated {
		t.Errorf("expected DONATED both times, got %q and %q", once.Status, twice.Status)
	}

	changes, _ := ListStatusChanges(ctx, database, item.ID)
	if len(changes) != 1 {
		t.Errorf("expected a single recorded change, got %d", len(changes))
	}
}

func TestSetItemStatusTransitions(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")
	item, _ := CreateItem(ctx, database, userID, blueShirt(), time.Now())

	reason := "Rarely worn but fits your minimalist style"
	got, err := SetItemStatus(ctx, database, userID, item.ID, model.ItemStatusReserved,
		StatusChangeInfo{Source: model.ChangeSourceTriage, Reason: reason})
	if err != nil {
		t.Fatalf("SetItemStatus: %v", err)
	}
	if got.ReserveReason != reason {
		t.Errorf("expected reserve reason %q, got %q", reason, got.ReserveReason)
	}

	_, err = SetItemStatus(ctx, database, userID, item.ID, model.ItemStatusDonated, StatusChangeInfo{})
	if !errors.Is(err, model.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition for RESERVED -> DONATED, got %v", err)
	}

	got, err = SetItemStatus(ctx, database, userID, item.ID, model.ItemStatusActive, StatusChangeInfo{})
	if err != nil {
		t.Fatalf("restoring item: %v", err)
	}
	if got.Status != model.ItemStatusActive || got.ReserveReason != "" {
		t.Errorf("expected restored ACTIVE item without reason, got %q %q", got.Status, got.ReserveReason)
	}

	_, err = SetItemStatus(ctx, database, userID, "missing", model.ItemStatusDonated, StatusChangeInfo{})
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	history, _ := GetItemHistory(ctx, database, userID, item.ID)
	if len(history.StatusChanges) != 2 {
		t.Fatalf("expected 2 status changes, got %d", len(history.StatusChanges))
	}
	if history.StatusChanges[1].Source != model.ChangeSourceTriage {
		t.Errorf("expected first change from triage, got %q", history.StatusChanges[1].Source)
	}
}

func TestListItemsByStatus(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")

	names := []string{"First", "Second", "Third", "Fourth"}
	var ids []string
	for _, n := range names {
		attrs := blueShirt()
		attrs.Name = n
		item, _ := CreateItem(ctx, database, userID, attrs, time.Now())
		ids = append(ids, item.ID)
	}
	SetItemStatus(ctx, database, userID, ids[1], model.ItemStatusDonated, StatusChangeInfo{})
	SetItemStatus(ctx, database, userID, ids[3], model.ItemStatusDonated, StatusChangeInfo{})

	active, _ := ListItemsByStatus(ctx, database, userID, model.ItemStatusActive)
	if len(active) != 2 || active[0].Name != "First" || active[1].Name != "Third" {
		t.Errorf("unexpected active items: %+v", active)
	}

	donated, _ := ListItemsByStatus(ctx, database, userID, model.ItemStatusDonated)
	if len(donated) != 2 || donated[0].Name != "Second" || donated[1].Name != "Fourth" {
		t.Errorf("unexpected donated items: %+v", donated)
	}

	reserved, _ := ListItemsByStatus(ctx, database, userID, model.ItemStatusReserved)
	if len(reserved) != 0 {
		t.Errorf("expected no reserved items, got %d", len(reserved))
	}
}

func TestListItemsByCategory(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")

	CreateItem(ctx, database, userID, blueShirt(), time.Now())
	CreateItem(ctx, database, userID, model.ItemAttrs{Name: "Old Jeans", Category: model.CategoryJeans}, time.Now())

	jeans, _ := ListItemsByCategory(ctx, database, userID, model.CategoryJeans)
	if len(jeans) != 1 || jeans[0].Name != "Old Jeans" {
		t.Errorf("unexpected jeans: %+v", jeans)
	}

	all, _ := ListItemsByCategory(ctx, database, userID, model.CategoryAll)
	if len(all) != 2 || all[0].Name != "Blue Shirt" {
		t.Errorf("unexpected closet: %+v", all)
	}
}

func TestUpdateItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")
	item, _ := CreateItem(ctx, database, userID, blueShirt(), time.Now())

	attrs := model.ItemAttrs{Name: "Linen Shirt", Category: model.CategoryShirts, Color: "White", Material: "Linen"}
	if err := UpdateItem(ctx, database, userID, item.ID, attrs); err != nil {
		t.Fatalf("UpdateItem: %v", err)
	}
	got, _ := GetItem(ctx, database, userID, item.ID)
	if got.Name != "Linen Shirt" || got.Material != "Linen" {
		t.Errorf("unexpected item after update: %+v", got)
	}

	if err := UpdateItem(ctx, database, userID, "missing", attrs); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSoftDeleteItem(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")

	item, _ := CreateItem(ctx, database, userID, blueShirt(), time.Now())
	if err := DeleteItem(ctx, database, userID, item.ID); err != nil {
		t.Fatalf("DeleteItem: %v", err)
	}

	items, _ := ListItems(ctx, database, userID, model.ItemFilter{})
	if len(items) != 0 {
		t.Errorf("expected 0 items after soft delete, got %d", len(items))
	}
	if got, _ := GetItem(ctx, database, userID, item.ID); got != nil {
		t.Error("expected deleted item to be gone")
	}
	if err := DeleteItem(ctx, database, userID, item.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestItemImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")

	item, _ := CreateItem(ctx, database, userID, blueShirt(), time.Now())
	if item.ImageURL != "" {
		t.Errorf("expected no image url before upload, got %q", item.ImageURL)
	}

	if err := SetItemImage(ctx, database, userID, item.ID, []byte("fake image data"), "image/jpeg"); err != nil {
		t.Fatalf("SetItemImage: %v", err)
	}

	data, mime, err := GetItemImage(ctx, database, userID, item.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if string(data) != "fake image data" {
		t.Errorf("expected image data, got %q", string(data))
	}
	if mime != "image/jpeg" {
		t.Errorf("expected mime 'image/jpeg', got %q", mime)
	}

	got, _ := GetItem(ctx, database, userID, item.ID)
	if got.ImageURL != "/api/items/"+item.ID+"/image" {
		t.Errorf("unexpected image url %q", got.ImageURL)
	}
}

func TestCreateItemWithImage(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()
	userID := newTestUser(t, database, "ana")

	item, err := CreateItemWithImage(ctx, database, userID, blueShirt(), time.Now(), []byte{0xff, 0xd8}, "image/jpeg")
	if err != nil {
		t.Fatalf("CreateItemWithImage: %v", err)
	}
	if item.ImageURL != "/api/items/"+item.ID+"/image" {
		t.Errorf("unexpected image url %q", item.ImageURL)
	}

	data, mime, err := GetItemImage(ctx, database, userID, item.ID)
	if err != nil {
		t.Fatalf("GetItemImage: %v", err)
	}
	if len(data) != 2 || mime != "image/jpeg" {
		t.Errorf("unexpected image %v %q", data, mime)
	}

	plain, err := CreateItem(ctx, database, userID, blueShirt(), time.Now())
	if err != nil {
		t.Fatalf("CreateItem: %v", err)
	}
	if plain.ImageURL != "" {
		t.Errorf("expected no image url, got %q", plain.ImageURL)
	}
}
