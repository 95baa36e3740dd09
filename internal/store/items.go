package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/erazemk/garderoba/internal/model"
)

const itemColumns = `id, user_id, name, category, color, material, image_mime, purchase_date,
	last_worn_date, wear_count, status, reserve_reason, created_at, updated_at, deleted_at`

// StatusChangeInfo describes who changed an item's status and why.
type StatusChangeInfo struct {
	Source    string
	Reason    string
	ChangedBy *int64
}

// CreateItem adds a new ACTIVE item to a user's closet, purchased on the
// given day.
func CreateItem(ctx context.Context, db *sql.DB, userID int64, attrs model.ItemAttrs, purchased time.Time) (*model.Item, error) {
	return CreateItemWithImage(ctx, db, userID, attrs, purchased, nil, "")
}

// CreateItemWithImage adds a new ACTIVE item together with its photo.
// A nil image stores no photo.
func CreateItemWithImage(ctx context.Context, db *sql.DB, userID int64, attrs model.ItemAttrs, purchased time.Time, image []byte, mime string) (*model.Item, error) {
	if !attrs.Category.Valid() {
		return nil, model.ErrInvalidCategory
	}

	var imageMime any
	if image != nil {
		imageMime = mime
	}

	id := uuid.NewString()
	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, user_id, name, category, color, material, image, image_mime, purchase_date)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, attrs.Name, attrs.Category, attrs.Color, attrs.Material, image, imageMime, model.FormatDate(purchased),
	)
	if err != nil {
		return nil, fmt.Errorf("creating item: %w", err)
	}

	return GetItem(ctx, db, userID, id)
}

// GetItem returns a user's item by ID. Deleted items are not returned.
func GetItem(ctx context.Context, db *sql.DB, userID int64, id string) (*model.Item, error) {
	row := db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		id, userID,
	)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns a user's items in insertion order, narrowed by filter.
func ListItems(ctx context.Context, db *sql.DB, userID int64, filter model.ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE user_id = ? AND deleted_at IS NULL`
	args := []any{userID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.Category != "" && filter.Category != model.CategoryAll {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY rowid`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// ListItemsByStatus returns a user's items with the given status.
func ListItemsByStatus(ctx context.Context, db *sql.DB, userID int64, status model.ItemStatus) ([]model.Item, error) {
	return ListItems(ctx, db, userID, model.ItemFilter{Status: status})
}

// ListItemsByCategory returns a user's items in a category, or all items
// for model.CategoryAll.
func ListItemsByCategory(ctx context.Context, db *sql.DB, userID int64, category model.Category) ([]model.Item, error) {
	return ListItems(ctx, db, userID, model.ItemFilter{Category: category})
}

// UpdateItem overwrites an item's descriptive attributes.
func UpdateItem(ctx context.Context, db *sql.DB, userID int64, id string, attrs model.ItemAttrs) error {
	if !attrs.Category.Valid() {
		return model.ErrInvalidCategory
	}

	result, err := db.ExecContext(ctx,
		`UPDATE items SET name = ?, category = ?, color = ?, material = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		attrs.Name, attrs.Category, attrs.Color, attrs.Material, id, userID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	return requireAffected(result)
}

// RecordWorn registers that an item was worn on the given day: the wear
// count goes up by one and the last-worn date becomes that day.
// An unknown item is a no-op and returns nil, nil.
func RecordWorn(ctx context.Context, db *sql.DB, userID int64, id string, day time.Time) (*model.Item, error) {
	date := model.FormatDate(day)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE items SET wear_count = wear_count + 1, last_worn_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		date, id, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("recording wear: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return nil, nil
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO wear_events (item_id, worn_on) VALUES (?, ?)`, id, date,
	); err != nil {
		return nil, fmt.Errorf("recording wear event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing wear: %w", err)
	}
	return GetItem(ctx, db, userID, id)
}

// SetItemStatus moves an item to a new status and records the change.
// Setting the status an item already has changes nothing. Returns
// model.ErrNotFound for an unknown item and model.ErrInvalidTransition when
// the move is not allowed.
func SetItemStatus(ctx context.Context, db *sql.DB, userID int64, id string, status model.ItemStatus, info StatusChangeInfo) (*model.Item, error) {
	if !status.Valid() {
		return nil, model.ErrInvalidStatus
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var current model.ItemStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM items WHERE id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID,
	).Scan(&current)
	if err == sql.ErrNoRows {
		return nil, model.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("checking item status: %w", err)
	}

	if !current.CanTransitionTo(status) {
		return nil, fmt.Errorf("%w: %s to %s", model.ErrInvalidTransition, current, status)
	}

	if current != status {
		var reserveReason any
		if status == model.ItemStatusReserved && info.Reason != "" {
			reserveReason = info.Reason
		}

		if _, err := tx.ExecContext(ctx,
			`UPDATE items SET status = ?, reserve_reason = ?, updated_at = CURRENT_TIMESTAMP
			 WHERE id = ?`,
			status, reserveReason, id,
		); err != nil {
			return nil, fmt.Errorf("setting item status: %w", err)
		}

		source := info.Source
		if source == "" {
			source = model.ChangeSourceManual
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO status_changes (item_id, from_status, to_status, source, reason, changed_by)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			id, current, status, source, info.Reason, info.ChangedBy,
		); err != nil {
			return nil, fmt.Errorf("recording status change: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing status change: %w", err)
	}
	return GetItem(ctx, db, userID, id)
}

// DeleteItem soft-deletes an item.
func DeleteItem(ctx context.Context, db *sql.DB, userID int64, id string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return requireAffected(result)
}

// SetItemImage sets an item's photo.
func SetItemImage(ctx context.Context, db *sql.DB, userID int64, id string, image []byte, mime string) error {
	result, err := db.ExecContext(ctx,
		`UPDATE items SET image = ?, image_mime = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND user_id = ? AND deleted_at IS NULL`,
		image, mime, id, userID,
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return requireAffected(result)
}

// GetItemImage returns an item's photo and its MIME type.
func GetItemImage(ctx context.Context, db *sql.DB, userID int64, id string) ([]byte, string, error) {
	var image []byte
	var mime sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime FROM items WHERE id = ? AND user_id = ? AND deleted_at IS NULL`, id, userID,
	).Scan(&image, &mime)
	if err == sql.ErrNoRows {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime.String, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*model.Item, error) {
	item := &model.Item{}
	var imageMime, lastWorn, reserveReason sql.NullString
	err := row.Scan(&item.ID, &item.UserID, &item.Name, &item.Category, &item.Color, &item.Material,
		&imageMime, &item.PurchaseDate, &lastWorn, &item.WearCount, &item.Status, &reserveReason,
		&item.CreatedAt, &item.UpdatedAt, &item.DeletedAt)
	if err != nil {
		return nil, err
	}
	item.ImageMime = imageMime.String
	if item.ImageMime != "" {
		item.ImageURL = "/api/items/" + item.ID + "/image"
	}
	if lastWorn.Valid {
		item.LastWornDate = &lastWorn.String
	}
	item.ReserveReason = reserveReason.String
	return item, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking affected rows: %w", err)
	}
	if n == 0 {
		return model.ErrNotFound
	}
	return nil
}
