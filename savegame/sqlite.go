package savegame

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	id       TEXT PRIMARY KEY,
	name     TEXT NOT NULL,
	saved_at INTEGER NOT NULL,
	tick     INTEGER NOT NULL,
	events   INTEGER NOT NULL,
	data     BLOB NOT NULL
)`

// SQLiteStore keeps snapshots in one sqlite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the database at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("savegame: sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("savegame: open sqlite: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("savegame: ping sqlite: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("savegame: create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Save(ctx context.Context, snap *Snapshot) error {
	data, err := snap.MarshalBinary()
	if err != nil {
		return err
	}
	info := snap.Info()
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, name, saved_at, tick, events, data) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET name = excluded.name, saved_at = excluded.saved_at,
		   tick = excluded.tick, events = excluded.events, data = excluded.data`,
		snap.ID.String(), snap.Name, snap.SavedAt.Unix(), int64(snap.Tick), info.Events, data)
	if err != nil {
		return fmt.Errorf("savegame: save %s: %w", snap.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Load(ctx context.Context, id uuid.UUID) (*Snapshot, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE id = ?`, id.String()).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("savegame: load %s: %w", id, err)
	}
	var snap Snapshot
	if err := snap.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("savegame: load %s: %w", id, err)
	}
	return &snap, nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]Info, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, saved_at, tick, events, length(data) FROM snapshots ORDER BY saved_at DESC, name`)
	if err != nil {
		return nil, fmt.Errorf("savegame: list: %w", err)
	}
	defer rows.Close()

	var out []Info
	for rows.Next() {
		var (
			id      string
			info    Info
			savedAt int64
			tick    int64
		)
		if err := rows.Scan(&id, &info.Name, &savedAt, &tick, &info.Events, &info.Size); err != nil {
			return nil, fmt.Errorf("savegame: list: %w", err)
		}
		if info.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("savegame: list: bad id %q: %w", id, err)
		}
		info.SavedAt = time.Unix(savedAt, 0).UTC()
		info.Tick = uint32(tick)
		out = append(out, info)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("savegame: delete %s: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}
