package spacetravelling

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"
)

// Page kinds stored in the snapshot table.
const (
	KindHome  = "home"
	KindPost  = "post"
	KindIndex = "index"
)

// Snapshot is a generated page: the JSON encoding of a StaticResult and the
// time it was generated.
type Snapshot struct {
	Path        string
	Kind        string
	Payload     []byte
	GeneratedAt time.Time
}

// Store wraps a SQLite database holding page snapshots so a restarted server
// can serve the last generated pages before regenerating them.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and creates the schema.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a regeneration writes; busy_timeout makes
	// concurrent writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS pages (
    path TEXT PRIMARY KEY,
    kind TEXT NOT NULL,
    payload BLOB NOT NULL,
    generated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS pages_kind ON pages (kind);
`)
	return err
}

// SavePage upserts a snapshot.
func (s *Store) SavePage(snap Snapshot) error {
	_, err := s.db.Exec(`INSERT OR REPLACE INTO pages (path, kind, payload, generated_at) VALUES (?, ?, ?, ?)`,
		snap.Path, snap.Kind, snap.Payload, snap.GeneratedAt.UnixMilli())
	return err
}

// GetPage returns the snapshot stored for path, or sql.ErrNoRows.
func (s *Store) GetPage(path string) (Snapshot, error) {
	snap := Snapshot{Path: path}
	var generated int64
	err := s.db.QueryRow(`SELECT kind, payload, generated_at FROM pages WHERE path = ?`, path).
		Scan(&snap.Kind, &snap.Payload, &generated)
	if err != nil {
		return Snapshot{}, err
	}
	snap.GeneratedAt = time.UnixMilli(generated)
	return snap, nil
}

// ListPages returns every snapshot of the given kind ordered by path. An
// empty kind lists all snapshots.
func (s *Store) ListPages(kind string) ([]Snapshot, error) {
	var rows *sql.Rows
	var err error
	if kind == "" {
		rows, err = s.db.Query(`SELECT path, kind, payload, generated_at FROM pages ORDER BY path`)
	} else {
		rows, err = s.db.Query(`SELECT path, kind, payload, generated_at FROM pages WHERE kind = ? ORDER BY path`, kind)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pages []Snapshot
	for rows.Next() {
		var snap Snapshot
		var generated int64
		if err := rows.Scan(&snap.Path, &snap.Kind, &snap.Payload, &generated); err != nil {
			return nil, err
		}
		snap.GeneratedAt = time.UnixMilli(generated)
		pages = append(pages, snap)
	}
	return pages, rows.Err()
}

// DeletePage removes the snapshot of path.
func (s *Store) DeletePage(path string) error {
	_, err := s.db.Exec(`DELETE FROM pages WHERE path = ?`, path)
	return err
}
