// Package history persists an audit log of applied move plans in a
// per-project SQLite database. The log is append-only; undo replays the
// most recent entry in reverse through the move engine.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/vanderheijden86/specdeck/pkg/config"
	"github.com/vanderheijden86/specdeck/pkg/model"
	"github.com/vanderheijden86/specdeck/pkg/move"
)

// DBFileName is the history database file inside a project's .specdeck/
// directory, next to the spec file and drift baseline.
const DBFileName = "history.db"

// DBPath returns the history database path for a project directory.
func DBPath(projectDir string) string {
	return filepath.Join(projectDir, config.ProjectDirName, DBFileName)
}

// Entry is one recorded move.
type Entry struct {
	ID           int64  `json:"id"`
	ItemID       string `json:"itemId"`
	ItemType     string `json:"itemType"`
	ItemTitle    string `json:"itemTitle"`
	FromParentID string `json:"fromParentId"`
	ToParentID   string `json:"toParentId"`
	MovedAt      string `json:"movedAt"`
}

// Log is the append-only move history for one project.
type Log struct {
	db *sql.DB
}

// Open opens (creating if needed) the history database for the project
// rooted at projectDir.
func Open(projectDir string) (*Log, error) {
	path := DBPath(projectDir)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create project dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	l := &Log{db: db}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("history migration: %w", err)
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

func (l *Log) migrate() error {
	_, err := l.db.Exec(`
		CREATE TABLE IF NOT EXISTS moves (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			item_id        TEXT NOT NULL,
			item_type      TEXT NOT NULL,
			item_title     TEXT NOT NULL,
			from_parent_id TEXT NOT NULL,
			to_parent_id   TEXT NOT NULL,
			moved_at       TEXT NOT NULL DEFAULT (datetime('now'))
		);

		CREATE INDEX IF NOT EXISTS idx_moves_item ON moves(item_id);
		CREATE INDEX IF NOT EXISTS idx_moves_time ON moves(moved_at DESC);
	`)
	return err
}

// Record appends a successfully applied move plan to the log. Failed or
// nil plans are rejected so the log only ever holds moves that happened.
func (l *Log) Record(typ model.NodeType, title string, plan *move.Result) (int64, error) {
	if plan == nil || !plan.Success {
		return 0, fmt.Errorf("refusing to record a move that was not applied")
	}
	res, err := l.db.Exec(
		`INSERT INTO moves (item_id, item_type, item_title, from_parent_id, to_parent_id, moved_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		plan.ItemID, string(typ), title, plan.FromParentID, plan.ToParentID,
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("record move: %w", err)
	}
	return res.LastInsertId()
}

// Recent returns the newest entries, most recent first.
func (l *Log) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := l.db.Query(
		`SELECT id, item_id, item_type, item_title, from_parent_id, to_parent_id, moved_at
		 FROM moves ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.ItemType, &e.ItemTitle, &e.FromParentID, &e.ToParentID, &e.MovedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ForItem returns every recorded move of one item, oldest first.
func (l *Log) ForItem(itemID string) ([]Entry, error) {
	rows, err := l.db.Query(
		`SELECT id, item_id, item_type, item_title, from_parent_id, to_parent_id, moved_at
		 FROM moves WHERE item_id = ? ORDER BY id ASC`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("query item history: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ItemID, &e.ItemType, &e.ItemTitle, &e.FromParentID, &e.ToParentID, &e.MovedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Last returns the most recent entry, or nil when the log is empty.
func (l *Log) Last() (*Entry, error) {
	row := l.db.QueryRow(
		`SELECT id, item_id, item_type, item_title, from_parent_id, to_parent_id, moved_at
		 FROM moves ORDER BY id DESC LIMIT 1`,
	)
	var e Entry
	if err := row.Scan(&e.ID, &e.ItemID, &e.ItemType, &e.ItemTitle, &e.FromParentID, &e.ToParentID, &e.MovedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}

// UndoPlan derives the reverse plan for an entry. The caller is expected
// to validate it against the current store before applying; the item may
// have moved again or been deleted since.
func (e *Entry) UndoPlan() *move.Result {
	return &move.Result{
		Success:      true,
		ItemID:       e.ItemID,
		FromParentID: e.ToParentID,
		ToParentID:   e.FromParentID,
	}
}

// Count returns the total number of recorded moves.
func (l *Log) Count() (int, error) {
	var n int
	if err := l.db.QueryRow(`SELECT COUNT(*) FROM moves`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}
