package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/stellaremu/internal/domain/track"
)

// SQLiteStore persists records in a single SQLite database file.
type SQLiteStore struct {
	path string

	mu sync.RWMutex
	db *sql.DB
}

var _ Store = (*SQLiteStore)(nil)

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{path: path}
}

func (s *SQLiteStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.path == "" {
		return errors.New("sqlite path is required")
	}
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return err
	}
	if err := createTables(ctx, db); err != nil {
		_ = db.Close()
		return err
	}

	s.db = db
	return nil
}

func (s *SQLiteStore) SaveTrack(ctx context.Context, t *track.Track) error {
	defer observe("save_track", time.Now())

	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeTrack(t)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO tracks (name, initial_mass, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			initial_mass = excluded.initial_mass,
			payload = excluded.payload
	`, t.Name, t.InitialMass, payload)
	return err
}

func (s *SQLiteStore) GetTrack(ctx context.Context, name string) (*track.Track, error) {
	defer observe("get_track", time.Now())

	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM tracks WHERE name = ?`, name).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("track %q: %w", name, ErrNotFound)
		}
		return nil, err
	}

	t, err := DecodeTrack(payload)
	if err != nil {
		return nil, fmt.Errorf("decode track %s: %w", name, err)
	}
	return t, nil
}

func (s *SQLiteStore) ListTracks(ctx context.Context) ([]*track.Track, error) {
	defer observe("list_tracks", time.Now())

	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `SELECT name, payload FROM tracks ORDER BY initial_mass, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*track.Track
	for rows.Next() {
		var (
			name    string
			payload []byte
		)
		if err := rows.Scan(&name, &payload); err != nil {
			return nil, err
		}
		t, err := DecodeTrack(payload)
		if err != nil {
			return nil, fmt.Errorf("decode track %s: %w", name, err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SaveRun(ctx context.Context, run Run) error {
	defer observe("save_run", time.Now())

	db, err := s.getDB()
	if err != nil {
		return err
	}
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			created_at = excluded.created_at,
			payload = excluded.payload
	`, run.ID, run.CreatedAt.UnixNano(), payload)
	return err
}

func (s *SQLiteStore) GetRun(ctx context.Context, id string) (Run, error) {
	defer observe("get_run", time.Now())

	db, err := s.getDB()
	if err != nil {
		return Run{}, err
	}

	var payload []byte
	err = db.QueryRowContext(ctx, `SELECT payload FROM runs WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q: %w", id, ErrNotFound)
		}
		return Run{}, err
	}

	run, err := DecodeRun(payload)
	if err != nil {
		return Run{}, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, nil
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotInitialized
	}
	return s.db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS tracks (
			name TEXT PRIMARY KEY,
			initial_mass REAL NOT NULL,
			payload BLOB NOT NULL
		);
		CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			created_at INTEGER NOT NULL,
			payload BLOB NOT NULL
		);
	`)
	return err
}
