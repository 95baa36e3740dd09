package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/garderoba/internal/model"
)

// GetItemHistory returns the status changes and wear events of a user's
// item, newest first. Returns nil, nil for an unknown item.
func GetItemHistory(ctx context.Context, db *sql.DB, userID int64, itemID string) (*model.ItemHistory, error) {
	item, err := GetItem(ctx, db, userID, itemID)
	if err != nil || item == nil {
		return nil, err
	}

	changes, err := ListStatusChanges(ctx, db, itemID)
	if err != nil {
		return nil, err
	}
	wears, err := ListWearEvents(ctx, db, itemID)
	if err != nil {
		return nil, err
	}

	if changes == nil {
		changes = []model.StatusChange{}
	}
	if wears == nil {
		wears = []model.WearEvent{}
	}
	return &model.ItemHistory{StatusChanges: changes, WearEvents: wears}, nil
}

// ListStatusChanges returns the status changes of an item, newest first.
func ListStatusChanges(ctx context.Context, db *sql.DB, itemID string) ([]model.StatusChange, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, from_status, to_status, source, reason, changed_at, changed_by
		 FROM status_changes WHERE item_id = ?
		 ORDER BY id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing status changes: %w", err)
	}
	defer rows.Close()

	var changes []model.StatusChange
	for rows.Next() {
		var c model.StatusChange
		var reason sql.NullString
		if err := rows.Scan(&c.ID, &c.ItemID, &c.FromStatus, &c.ToStatus, &c.Source, &reason,
			&c.ChangedAt, &c.ChangedBy); err != nil {
			return nil, fmt.Errorf("scanning status change: %w", err)
		}
		c.Reason = reason.String
		changes = append(changes, c)
	}
	return changes, rows.Err()
}

// ListWearEvents returns the wear events of an item, newest first.
func ListWearEvents(ctx context.Context, db *sql.DB, itemID string) ([]model.WearEvent, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, item_id, worn_on, worn_at FROM wear_events WHERE item_id = ? ORDER BY id DESC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing wear events: %w", err)
	}
	defer rows.Close()

	var events []model.WearEvent
	for rows.Next() {
		var e model.WearEvent
		if err := rows.Scan(&e.ID, &e.ItemID, &e.WornOn, &e.WornAt); err != nil {
			return nil, fmt.Errorf("scanning wear event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}
