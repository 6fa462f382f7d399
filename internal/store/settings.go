package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/accidentalproductions/tetristats/internal/scaling"
)

var _ scaling.Settings = (*SettingsRepo)(nil)

// SettingsRepo is the key-value settings table. It satisfies
// scaling.Settings, which persists learned factors through it.
type SettingsRepo struct {
	db *sql.DB
	b  *entsql.DialectBuilder
}

// GetSetting returns the value stored under key. ok is false when the key
// is absent.
func (r *SettingsRepo) GetSetting(ctx context.Context, key string) (string, bool, error) {
	query, args := r.b.Select("value").
		From(r.b.Table(SettingsTable)).
		Where(entsql.EQ("key", key)).
		Query()
	var value string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, true, nil
}

// PutSetting inserts or replaces the value stored under key.
func (r *SettingsRepo) PutSetting(ctx context.Context, key, value string) error {
	if err := settingsTable.validate(map[string]any{"key": key}); err != nil {
		return fmt.Errorf("put setting: %w", err)
	}
	query, args := r.b.Insert(SettingsTable).
		Columns("key", "value").
		Values(key, value).
		OnConflict(entsql.ConflictColumns("key"), entsql.ResolveWithNewValues()).
		Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("put setting %s: %w", key, err)
	}
	return nil
}

// DeleteSetting removes key. Deleting an absent key is not an error.
func (r *SettingsRepo) DeleteSetting(ctx context.Context, key string) error {
	query, args := r.b.Delete(SettingsTable).Where(entsql.EQ("key", key)).Query()
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete setting %s: %w", key, err)
	}
	return nil
}
