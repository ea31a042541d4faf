package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/trail-map-service/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS snapshot (
	id       INTEGER PRIMARY KEY CHECK (id = 1),
	saved_at TEXT NOT NULL,
	count    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS snapshot_feature (
	position   INTEGER PRIMARY KEY,
	typ        TEXT NOT NULL,
	name       TEXT NOT NULL,
	lat        REAL NOT NULL,
	lng        REAL NOT NULL,
	properties TEXT NOT NULL
);`

// Store keeps the features of the last successful load in a SQLite file.
// It implements pipeline.SnapshotStore.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the snapshot database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot db: %w", err)
	}
	// A single connection keeps writers serialised without busy retries.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{"PRAGMA journal_mode=WAL", schema} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("init snapshot db: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Save replaces the stored snapshot with features.
func (s *Store) Save(ctx context.Context, features []domain.Feature) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM snapshot_feature`); err != nil {
			return err
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO snapshot_feature (position, typ, name, lat, lng, properties) VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, f := range features {
			props, err := json.Marshal(f.Properties)
			if err != nil {
				return fmt.Errorf("encode properties of %q: %w", f.Name(), err)
			}
			if _, err := stmt.ExecContext(ctx, i, f.Typ(), f.Name(), f.Lat(), f.Lng(), string(props)); err != nil {
				return err
			}
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO snapshot (id, saved_at, count) VALUES (1, ?, ?)
			 ON CONFLICT (id) DO UPDATE SET saved_at = excluded.saved_at, count = excluded.count`,
			domain.Now().Format(time.RFC3339Nano), len(features))
		return err
	})
}

// Load returns the saved features in their original order, or
// domain.ErrNoSnapshot if nothing has been saved.
func (s *Store) Load(ctx context.Context) ([]domain.Feature, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count FROM snapshot WHERE id = 1`).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT lat, lng, properties FROM snapshot_feature ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("read snapshot features: %w", err)
	}
	defer rows.Close()

	features := make([]domain.Feature, 0, count)
	for rows.Next() {
		var (
			lat, lng float64
			raw      string
		)
		if err := rows.Scan(&lat, &lng, &raw); err != nil {
			return nil, fmt.Errorf("scan snapshot feature: %w", err)
		}
		var props map[string]string
		if err := json.Unmarshal([]byte(raw), &props); err != nil {
			return nil, fmt.Errorf("decode snapshot feature: %w", err)
		}
		features = append(features, domain.Feature{
			Type:       "Feature",
			Geometry:   domain.Geometry{Type: "Point", Coordinates: [2]float64{lng, lat}},
			Properties: props,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read snapshot features: %w", err)
	}
	return features, nil
}

// SavedAt returns when the snapshot was last written.
func (s *Store) SavedAt(ctx context.Context) (time.Time, error) {
	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT saved_at FROM snapshot WHERE id = 1`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, domain.ErrNoSnapshot
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("read snapshot: %w", err)
	}
	return time.Parse(time.RFC3339Nano, raw)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("save snapshot: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}
