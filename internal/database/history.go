package database

import (
	"context"
	"database/sql"
	"encoding/hex"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/crypto/sha3"
	"golang.org/x/net/publicsuffix"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/abogus/internal/model"
)

// FileName is the database file name inside the data directory.
const FileName = "abogus.db"

// HistoryDB stores signing history in SQLite.
type HistoryDB struct {
	db     *sql.DB
	dbPath string
}

// Options configures HistoryDB behavior.
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

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
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

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS sign_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		site TEXT NOT NULL DEFAULT '',
		query TEXT NOT NULL DEFAULT '',
		ua_hash TEXT NOT NULL DEFAULT '',
		a_bogus TEXT NOT NULL DEFAULT '',
		engine TEXT NOT NULL DEFAULT '',
		elapsed_us INTEGER NOT NULL DEFAULT 0,
		error TEXT NOT NULL DEFAULT '',
		signed_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_signed_at ON sign_history(signed_at);
	CREATE INDEX IF NOT EXISTS idx_history_site ON sign_history(site);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// HistoryEntry is one recorded signing call.
type HistoryEntry struct {
	ID            int64
	URL           string
	Site          string
	Query         string
	UserAgentHash string
	ABogus        string
	Engine        string
	Elapsed       time.Duration
	Error         string
	Timestamp     time.Time
}

// Failed reports whether the recorded call failed.
func (e *HistoryEntry) Failed() bool {
	return e.Error != ""
}

// NewHistoryEntry converts a sign result into a history entry.
func NewHistoryEntry(r *model.SignResult) *HistoryEntry {
	return &HistoryEntry{
		URL:           r.URL,
		Site:          SiteOf(r.URL),
		Query:         r.Query,
		UserAgentHash: UserAgentHash(r.UserAgent),
		ABogus:        r.ABogus,
		Engine:        r.Engine,
		Elapsed:       r.Elapsed,
		Error:         r.Error,
		Timestamp:     r.SignedAt,
	}
}

// SiteOf returns the registrable domain of rawURL ("douyin.com" for
// "https://www.douyin.com/..."). Hosts without a public suffix, such as IP
// addresses or localhost, are returned as is; unparsable URLs yield "".
func SiteOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if host == "" {
		return ""
	}
	site, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return host
	}
	return site
}

// UserAgentHash returns a 16 hex digit SHA3-256 fingerprint of ua, or "" for
// an empty user agent.
func UserAgentHash(ua string) string {
	if ua == "" {
		return ""
	}
	sum := sha3.Sum256([]byte(ua))
	return hex.EncodeToString(sum[:8])
}

// InsertHistory stores an entry and returns its ID. A zero Timestamp is
// replaced by the current time.
func (hdb *HistoryDB) InsertHistory(ctx context.Context, entry *HistoryEntry) (int64, error) {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	query := `
	INSERT INTO sign_history (url, site, query, ua_hash, a_bogus, engine, elapsed_us, error, signed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := hdb.db.ExecContext(ctx, query,
		entry.URL,
		entry.Site,
		entry.Query,
		entry.UserAgentHash,
		entry.ABogus,
		entry.Engine,
		entry.Elapsed.Microseconds(),
		entry.Error,
		ts.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert history entry: %w", err)
	}

	return result.LastInsertId()
}

// RecordResult stores a sign result.
func (hdb *HistoryDB) RecordResult(ctx context.Context, r *model.SignResult) (int64, error) {
	return hdb.InsertHistory(ctx, NewHistoryEntry(r))
}

// RecentHistory returns up to limit entries, newest first. A non-positive
// limit returns every entry.
func (hdb *HistoryDB) RecentHistory(ctx context.Context, limit int) ([]HistoryEntry, error) {
	query := `
	SELECT id, url, site, query, ua_hash, a_bogus, engine, elapsed_us, error, signed_at
	FROM sign_history
	ORDER BY signed_at DESC, id DESC
	`
	args := make([]interface{}, 0, 1)
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var results []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var elapsedUS, signedAt int64

		err := rows.Scan(
			&e.ID,
			&e.URL,
			&e.Site,
			&e.Query,
			&e.UserAgentHash,
			&e.ABogus,
			&e.Engine,
			&elapsedUS,
			&e.Error,
			&signedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		e.Elapsed = time.Duration(elapsedUS) * time.Microsecond
		e.Timestamp = time.UnixMilli(signedAt)
		results = append(results, e)
	}

	return results, rows.Err()
}

// CountHistory returns the number of stored entries.
func (hdb *HistoryDB) CountHistory(ctx context.Context) (int, error) {
	var count int
	if err := hdb.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM sign_history").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count history: %w", err)
	}
	return count, nil
}

// PruneHistory deletes entries signed before cutoff and returns how many
// were removed.
func (hdb *HistoryDB) PruneHistory(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := hdb.db.ExecContext(ctx,
		"DELETE FROM sign_history WHERE signed_at < ?",
		cutoff.UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to prune history: %w", err)
	}
	return result.RowsAffected()
}
