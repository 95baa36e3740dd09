package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/garderoba/internal/model"
)

// GetStyleProfile returns a user's style profile, creating the default
// profile on first access.
func GetStyleProfile(ctx context.Context, db *sql.DB, userID int64) (*model.StyleProfile, error) {
	defaults := model.DefaultStyleProfile()
	styles, colors, disliked, err := encodeProfileLists(&defaults)
	if err != nil {
		return nil, err
	}

	if _, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO style_profiles (user_id, preferred_styles, preferred_colors, disliked_elements)
		 VALUES (?, ?, ?, ?)`,
		userID, styles, colors, disliked,
	); err != nil {
		return nil, fmt.Errorf("creating default style profile: %w", err)
	}

	return loadStyleProfile(ctx, db, userID)
}

// UpdateStyleProfile applies fn to a user's profile and stores the result
// if fn reports a change. The read and write happen in one transaction.
func UpdateStyleProfile(ctx context.Context, db *sql.DB, userID int64, fn func(p *model.StyleProfile) bool) (*model.StyleProfile, error) {
	// Make sure the row exists before locking it for the update.
	if _, err := GetStyleProfile(ctx, db, userID); err != nil {
		return nil, err
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	p, err := scanStyleProfile(tx.QueryRowContext(ctx,
		`SELECT preferred_styles, preferred_colors, disliked_elements, updated_at
		 FROM style_profiles WHERE user_id = ?`, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("loading style profile: %w", err)
	}

	if !fn(p) {
		return p, nil
	}

	styles, colors, disliked, err := encodeProfileLists(p)
	if err != nil {
		return nil, err
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE style_profiles
		 SET preferred_styles = ?, preferred_colors = ?, disliked_elements = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ?`,
		styles, colors, disliked, userID,
	); err != nil {
		return nil, fmt.Errorf("updating style profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing style profile: %w", err)
	}
	return loadStyleProfile(ctx, db, userID)
}

// AddProfileValue adds value to one of a user's profile lists.
func AddProfileValue(ctx context.Context, db *sql.DB, userID int64, field model.ProfileField, value string) (*model.StyleProfile, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown profile field %q", field)
	}
	return UpdateStyleProfile(ctx, db, userID, func(p *model.StyleProfile) bool {
		return p.Add(field, value)
	})
}

// RemoveProfileValue removes value from one of a user's profile lists.
func RemoveProfileValue(ctx context.Context, db *sql.DB, userID int64, field model.ProfileField, value string) (*model.StyleProfile, error) {
	if !field.Valid() {
		return nil, fmt.Errorf("unknown profile field %q", field)
	}
	return UpdateStyleProfile(ctx, db, userID, func(p *model.StyleProfile) bool {
		return p.Remove(field, value)
	})
}

func loadStyleProfile(ctx context.Context, db *sql.DB, userID int64) (*model.StyleProfile, error) {
	p, err := scanStyleProfile(db.QueryRowContext(ctx,
		`SELECT preferred_styles, preferred_colors, disliked_elements, updated_at
		 FROM style_profiles WHERE user_id = ?`, userID,
	))
	if err != nil {
		return nil, fmt.Errorf("loading style profile: %w", err)
	}
	return p, nil
}

func scanStyleProfile(row rowScanner) (*model.StyleProfile, error) {
	var styles, colors, disliked string
	p := &model.StyleProfile{}
	if err := row.Scan(&styles, &colors, &disliked, &p.UpdatedAt); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		raw  string
		into *[]string
	}{
		{styles, &p.PreferredStyles},
		{colors, &p.PreferredColors},
		{disliked, &p.DislikedElements},
	} {
		if err := json.Unmarshal([]byte(f.raw), f.into); err != nil {
			return nil, fmt.Errorf("decoding profile list: %w", err)
		}
		if *f.into == nil {
			*f.into = []string{}
		}
	}
	return p, nil
}

func encodeProfileLists(p *model.StyleProfile) (styles, colors, disliked string, err error) {
	enc := func(list []string) (string, error) {
		if list == nil {
			list = []string{}
		}
		b, err := json.Marshal(list)
		return string(b), err
	}
	if styles, err = enc(p.PreferredStyles); err != nil {
		return "", "", "", fmt.Errorf("encoding styles: %w", err)
	}
	if colors, err = enc(p.PreferredColors); err != nil {
		return "", "", "", fmt.Errorf("encoding colors: %w", err)
	}
	if disliked, err = enc(p.DislikedElements); err != nil {
		return "", "", "", fmt.Errorf("encoding disliked elements: %w", err)
	}
	return styles, colors, disliked, nil
}
