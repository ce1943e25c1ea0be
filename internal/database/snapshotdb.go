package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/padwatch/internal/fingerprint"
	"github.com/nao1215/padwatch/internal/model"
)

// FileName is the name of the database file inside the repository directory.
const FileName = "padwatch.db"

// SnapshotDB stores pad snapshots in a single SQLite file.
type SnapshotDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string

	now func() time.Time
}

// Options configures SnapshotDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a SnapshotDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*SnapshotDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}
	// Wait for other connections to the same file instead of failing with SQLITE_BUSY.
	dsn += "&_pragma=busy_timeout(5000)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	sdb := &SnapshotDB{
		db:     db,
		dbPath: dbPath,
		now:    time.Now,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := sdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return sdb, nil
}

// Close closes the database connection.
func (sdb *SnapshotDB) Close() error {
	return sdb.db.Close()
}

// Path returns the database file path.
func (sdb *SnapshotDB) Path() string {
	return sdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (sdb *SnapshotDB) createTables() error {
	schema := `
	-- Latest settled content per pad
	CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server TEXT NOT NULL,
		name TEXT NOT NULL,
		content TEXT NOT NULL,
		hash TEXT NOT NULL,
		stored_at TEXT NOT NULL,
		UNIQUE(server, name)
	);

	-- One row per stored snapshot
	CREATE TABLE IF NOT EXISTS settles (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		server TEXT NOT NULL,
		name TEXT NOT NULL,
		hash TEXT NOT NULL,
		prior_hash TEXT,
		stored_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_settles_pad ON settles(server, name);
	`

	_, err := sdb.db.ExecContext(context.Background(), schema)
	return err
}

// Read returns the stored content of link.
// The boolean is false when the pad has no snapshot.
func (sdb *SnapshotDB) Read(ctx context.Context, link model.Link) (string, bool, error) {
	query := `SELECT content FROM snapshots WHERE server = ? AND name = ?`

	var content string
	err := sdb.db.QueryRowContext(ctx, query, link.Server, link.Name).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return content, true, nil
}

// Store replaces the snapshot of link and appends a settle history row.
func (sdb *SnapshotDB) Store(ctx context.Context, link model.Link, content string) (err error) {
	tx, err := sdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var prior sql.NullString
	err = tx.QueryRowContext(ctx,
		`SELECT hash FROM snapshots WHERE server = ? AND name = ?`,
		link.Server, link.Name,
	).Scan(&prior)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to read prior hash: %w", err)
	}

	hash := fingerprint.Of(content).String()
	storedAt := sdb.now().UTC().Format(time.RFC3339Nano)

	_, err = tx.ExecContext(ctx, `
	INSERT INTO snapshots (server, name, content, hash, stored_at)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT(server, name) DO UPDATE SET
		content = excluded.content,
		hash = excluded.hash,
		stored_at = excluded.stored_at
	`, link.Server, link.Name, content, hash, storedAt)
	if err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO settles (server, name, hash, prior_hash, stored_at)
	VALUES (?, ?, ?, ?, ?)
	`, link.Server, link.Name, hash, prior, storedAt)
	if err != nil {
		return fmt.Errorf("failed to record settle: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return nil
}

// Links lists every pad with a snapshot, in the order they were first stored.
func (sdb *SnapshotDB) Links(ctx context.Context) ([]model.Link, error) {
	rows, err := sdb.db.QueryContext(ctx, `SELECT server, name FROM snapshots ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshots: %w", err)
	}
	defer rows.Close()

	links := make([]model.Link, 0)
	for rows.Next() {
		var link model.Link
		if err := rows.Scan(&link.Server, &link.Name); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		links = append(links, link)
	}
	return links, rows.Err()
}

// Settle is one row of the settle history.
type Settle struct {
	ID        int64
	Link      model.Link
	Hash      string
	PriorHash string
	StoredAt  time.Time
}

// Created reports whether this settle stored the first snapshot of the pad.
func (s Settle) Created() bool {
	return s.PriorHash == ""
}

// History returns the settle history of link, oldest first.
func (sdb *SnapshotDB) History(ctx context.Context, link model.Link) ([]Settle, error) {
	query := `
	SELECT id, server, name, hash, prior_hash, stored_at
	FROM settles
	WHERE server = ? AND name = ?
	ORDER BY id
	`

	rows, err := sdb.db.QueryContext(ctx, query, link.Server, link.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	settles := make([]Settle, 0)
	for rows.Next() {
		var s Settle
		var prior sql.NullString
		var storedAt string
		if err := rows.Scan(&s.ID, &s.Link.Server, &s.Link.Name, &s.Hash, &prior, &storedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settle: %w", err)
		}
		s.PriorHash = prior.String
		s.StoredAt = parseTimestamp(storedAt)
		settles = append(settles, s)
	}
	return settles, rows.Err()
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
