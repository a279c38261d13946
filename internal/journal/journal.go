// Package journal persists orders and processed commands to SQLite. It
// serves as the ill.Backend of a running server and as its command log.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/stuffbucket/slnpd/internal/ill"
	"github.com/stuffbucket/slnpd/internal/server"
	"github.com/stuffbucket/slnpd/internal/slnp"
)

const busyTimeout = 5 * time.Second

const schemaSQL = `
CREATE TABLE IF NOT EXISTS orders (
    seq INTEGER PRIMARY KEY AUTOINCREMENT,
    order_id TEXT NOT NULL UNIQUE,
    patron TEXT NOT NULL,
    title TEXT NOT NULL,
    author TEXT,
    publisher TEXT,
    year TEXT,
    isbn TEXT,
    issn TEXT,
    shelfmark TEXT,
    article_author TEXT,
    article_title TEXT,
    pages TEXT,
    note TEXT,
    delivery TEXT,
    state TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS order_libraries (
    order_seq INTEGER NOT NULL REFERENCES orders(seq),
    position INTEGER NOT NULL,
    sigel TEXT NOT NULL,
    name TEXT,
    PRIMARY KEY (order_seq, position)
);
CREATE TABLE IF NOT EXISTS order_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    order_seq INTEGER NOT NULL REFERENCES orders(seq),
    at INTEGER NOT NULL,
    state TEXT NOT NULL,
    note TEXT
);
CREATE TABLE IF NOT EXISTS commands (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    remote TEXT,
    command TEXT,
    code INTEGER NOT NULL,
    error_type TEXT,
    duration_us INTEGER NOT NULL,
    at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS commands_at ON commands(at);`

// Journal is a SQLite-backed order store and command log.
type Journal struct {
	db   *sql.DB
	path string
	now  func() time.Time
}

var (
	_ ill.Backend    = (*Journal)(nil)
	_ server.Journal = (*Journal)(nil)
)

// Open opens (or creates) the database at path and ensures the schema exists.
func Open(path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("journal: empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("journal: ensure dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("journal: open: %w", err)
	}
	// Single writer; concurrent sessions queue on the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	ctx := context.Background()
	if _, err := db.ExecContext(ctx, fmt.Sprintf("pragma busy_timeout=%d", busyTimeout.Milliseconds())); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: set busy_timeout: %w", err)
	}
	if _, err := db.ExecContext(ctx, "pragma journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: set journal_mode: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: init schema: %w", err)
	}
	return &Journal{db: db, path: path, now: time.Now}, nil
}

// Path returns the database file.
func (j *Journal) Path() string {
	return j.path
}

// Close closes the database.
func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// PlaceOrder implements ill.Backend.
func (j *Journal) PlaceOrder(ctx context.Context, o ill.Order) (ill.Receipt, error) {
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return ill.Receipt{}, fmt.Errorf("journal: begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE order_id = ?`, o.ID).Scan(&exists)
	switch {
	case err == nil:
		return ill.Receipt{}, slnp.NewError(slnp.ErrOrderExists, "Order %s already exists", o.ID)
	case !errors.Is(err, sql.ErrNoRows):
		return ill.Receipt{}, fmt.Errorf("journal: lookup order: %w", err)
	}

	at := j.now().UTC().UnixMilli()
	res, err := tx.ExecContext(ctx, `
INSERT INTO orders (
    order_id, patron, title, author, publisher, year, isbn, issn, shelfmark,
    article_author, article_title, pages, note, delivery, state, created_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.ID, o.Patron, o.Title, o.Author, o.Publisher, o.Year, o.ISBN, o.ISSN, o.Shelfmark,
		o.ArticleAuthor, o.ArticleTitle, o.Pages, o.Note, o.Delivery, ill.StateOrdered, at,
	)
	if err != nil {
		return ill.Receipt{}, fmt.Errorf("journal: insert order: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return ill.Receipt{}, fmt.Errorf("journal: order id: %w", err)
	}

	for i, lib := range o.Libraries {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO order_libraries (order_seq, position, sigel, name) VALUES (?, ?, ?, ?)`,
			seq, i, lib.Sigel, lib.Name); err != nil {
			return ill.Receipt{}, fmt.Errorf("journal: insert library: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO order_events (order_seq, at, state, note) VALUES (?, ?, ?, ?)`,
		seq, at, ill.StateOrdered, o.Delivery); err != nil {
		return ill.Receipt{}, fmt.Errorf("journal: insert event: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return ill.Receipt{}, fmt.Errorf("journal: commit: %w", err)
	}

	return ill.Receipt{
		Number:    ill.FormatNumber(seq),
		Message:   ill.AcceptMessage(o),
		Libraries: o.Libraries,
	}, nil
}

// OrderStatus implements ill.Backend.
func (j *Journal) OrderStatus(ctx context.Context, orderID string) (ill.Status, error) {
	var (
		seq   int64
		state string
	)
	err := j.db.QueryRowContext(ctx, `SELECT seq, state FROM orders WHERE order_id = ?`, orderID).Scan(&seq, &state)
	if errors.Is(err, sql.ErrNoRows) {
		return ill.Status{}, slnp.NewError(slnp.ErrOrderNotFound, "Order %s not found", orderID)
	}
	if err != nil {
		return ill.Status{}, fmt.Errorf("journal: lookup order: %w", err)
	}

	rows, err := j.db.QueryContext(ctx, `SELECT at, state, note FROM order_events WHERE order_seq = ? ORDER BY id`, seq)
	if err != nil {
		return ill.Status{}, fmt.Errorf("journal: query events: %w", err)
	}
	defer rows.Close()

	st := ill.Status{OrderID: orderID, Number: ill.FormatNumber(seq), State: state}
	for rows.Next() {
		var (
			at   int64
			ev   ill.Event
			note sql.NullString
		)
		if err := rows.Scan(&at, &ev.State, &note); err != nil {
			return ill.Status{}, fmt.Errorf("journal: scan event: %w", err)
		}
		ev.At = time.UnixMilli(at).UTC()
		ev.Note = note.String
		st.History = append(st.History, ev)
	}
	if err := rows.Err(); err != nil {
		return ill.Status{}, fmt.Errorf("journal: read events: %w", err)
	}
	return st, nil
}

// RecordCommand implements server.Journal.
func (j *Journal) RecordCommand(ctx context.Context, rec server.CommandRecord) error {
	_, err := j.db.ExecContext(ctx, `
INSERT INTO commands (session_id, remote, command, code, error_type, duration_us, at)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionID, rec.Remote, rec.Command, rec.Code, rec.ErrorType,
		rec.Duration.Microseconds(), rec.At.UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("journal: insert command: %w", err)
	}
	return nil
}

// RecentCommands returns up to limit command records, newest first.
func (j *Journal) RecentCommands(ctx context.Context, limit int) ([]server.CommandRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := j.db.QueryContext(ctx, `
SELECT session_id, remote, command, code, error_type, duration_us, at
FROM commands ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal: query commands: %w", err)
	}
	defer rows.Close()

	var out []server.CommandRecord
	for rows.Next() {
		var (
			rec           server.CommandRecord
			remote, etype sql.NullString
			cmd           sql.NullString
			durUS, at     int64
		)
		if err := rows.Scan(&rec.SessionID, &remote, &cmd, &rec.Code, &etype, &durUS, &at); err != nil {
			return nil, fmt.Errorf("journal: scan command: %w", err)
		}
		rec.Remote = remote.String
		rec.Command = cmd.String
		rec.ErrorType = etype.String
		rec.Duration = time.Duration(durUS) * time.Microsecond
		rec.At = time.UnixMilli(at).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}
