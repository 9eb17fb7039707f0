package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"stitch/internal/model"
	"stitch/pkg/snowflake"
)

// FragmentCacheRepository stores fetched fragment bodies keyed by URL hash,
// together with their HTTP validators.
type FragmentCacheRepository interface {
	GetByKey(ctx context.Context, key string) (*model.CachedFragment, error)
	Upsert(ctx context.Context, fragment model.CachedFragment) (model.CachedFragment, error)
	Touch(ctx context.Context, key string, fetchedAt time.Time) error
	List(ctx context.Context) ([]model.CachedFragment, error)
	Purge(ctx context.Context) (int64, error)
}

type fragmentCacheRepository struct {
	db dbtx
}

func NewFragmentCacheRepository(db *sql.DB) FragmentCacheRepository {
	return &fragmentCacheRepository{db: db}
}

const fragmentColumns = `id, key, url, etag, last_modified, body, fetched_at, updated_at, fetch_count`

// GetByKey returns the cached fragment for key, or nil when absent.
func (r *fragmentCacheRepository) GetByKey(ctx context.Context, key string) (*model.CachedFragment, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+fragmentColumns+` FROM fragments WHERE key = ?`, key)

	fragment, err := scanFragment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("get fragment: %w", err)
	}
	return &fragment, nil
}

// Upsert inserts or replaces the cached body and validators for the
// fragment's key, bumping fetch_count on replacement.
func (r *fragmentCacheRepository) Upsert(ctx context.Context, fragment model.CachedFragment) (model.CachedFragment, error) {
	now := time.Now().UTC()
	if fragment.ID == 0 {
		fragment.ID = snowflake.NextID()
	}
	if fragment.FetchedAt.IsZero() {
		fragment.FetchedAt = now
	}
	fragment.UpdatedAt = now

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO fragments (id, key, url, etag, last_modified, body, fetched_at, updated_at, fetch_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1)
		ON CONFLICT(key) DO UPDATE SET
			url = excluded.url,
			etag = excluded.etag,
			last_modified = excluded.last_modified,
			body = excluded.body,
			fetched_at = excluded.fetched_at,
			updated_at = excluded.updated_at,
			fetch_count = fragments.fetch_count + 1`,
		fragment.ID, fragment.Key, fragment.URL,
		nullableString(fragment.ETag), nullableString(fragment.LastModified),
		fragment.Body, formatTime(fragment.FetchedAt), formatTime(fragment.UpdatedAt),
	)
	if err != nil {
		return model.CachedFragment{}, fmt.Errorf("upsert fragment: %w", err)
	}

	stored, err := r.GetByKey(ctx, fragment.Key)
	if err != nil {
		return model.CachedFragment{}, err
	}
	if stored == nil {
		return model.CachedFragment{}, sql.ErrNoRows
	}
	return *stored, nil
}

// Touch records a revalidation (304) without replacing the body.
func (r *fragmentCacheRepository) Touch(ctx context.Context, key string, fetchedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE fragments
		SET fetched_at = ?, updated_at = ?, fetch_count = fetch_count + 1
		WHERE key = ?`,
		formatTime(fetchedAt), formatTime(time.Now().UTC()), key,
	)
	if err != nil {
		return fmt.Errorf("touch fragment: %w", err)
	}
	return nil
}

func (r *fragmentCacheRepository) List(ctx context.Context) ([]model.CachedFragment, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+fragmentColumns+` FROM fragments ORDER BY url`)
	if err != nil {
		return nil, fmt.Errorf("list fragments: %w", err)
	}
	defer rows.Close()

	var fragments []model.CachedFragment
	for rows.Next() {
		fragment, err := scanFragment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		fragments = append(fragments, fragment)
	}
	return fragments, rows.Err()
}

// Purge drops every cached fragment and returns the number removed.
func (r *fragmentCacheRepository) Purge(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM fragments`)
	if err != nil {
		return 0, fmt.Errorf("purge fragments: %w", err)
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanFragment(row rowScanner) (model.CachedFragment, error) {
	var (
		fragment     model.CachedFragment
		etag         sql.NullString
		lastModified sql.NullString
		fetchedAt    string
		updatedAt    string
	)
	err := row.Scan(&fragment.ID, &fragment.Key, &fragment.URL, &etag, &lastModified,
		&fragment.Body, &fetchedAt, &updatedAt, &fragment.FetchCount)
	if err != nil {
		return model.CachedFragment{}, err
	}

	fragment.ETag = stringPtr(etag)
	fragment.LastModified = stringPtr(lastModified)
	if fragment.FetchedAt, err = parseTime(fetchedAt); err != nil {
		return model.CachedFragment{}, fmt.Errorf("parse fetched_at: %w", err)
	}
	if fragment.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return model.CachedFragment{}, fmt.Errorf("parse updated_at: %w", err)
	}
	return fragment, nil
}
