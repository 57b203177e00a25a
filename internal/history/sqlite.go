package history

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"

	"github.com/comigor/duochat/internal/conversation"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS messages (
        seq INTEGER PRIMARY KEY AUTOINCREMENT,
        id TEXT NOT NULL UNIQUE,
        text TEXT NOT NULL,
        sent_at INTEGER NOT NULL,
        sent_by_local_user INTEGER NOT NULL
    );`,
	`CREATE INDEX IF NOT EXISTS messages_sent_at ON messages (sent_at, seq);`,
}

// SQLiteStore keeps messages in a single SQLite file. The seq column records
// insertion order and breaks timestamp ties.
type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteStore opens the database at path and creates the messages table
// if it doesn't exist.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?_pragma=busy_timeout(10000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("create sqlite schema: %w", err)
		}
	}
	log.Info("sqlite message store initialized", "path", path)
	return &SQLiteStore{db: db, log: log}, nil
}

func (s *SQLiteStore) Append(ctx context.Context, msg conversation.Message) error {
	return s.AppendAll(ctx, []conversation.Message{msg})
}

func (s *SQLiteStore) AppendAll(ctx context.Context, msgs []conversation.Message) error {
	records, err := newRecords(msgs)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range records {
		var existing int
		if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages WHERE id = ?;`, r.ID.String()).Scan(&existing); err != nil {
			return fmt.Errorf("check duplicate: %w", err)
		}
		if existing > 0 {
			return fmt.Errorf("%w: %s", ErrDuplicateMessage, r.ID)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO messages (id, text, sent_at, sent_by_local_user) VALUES (?,?,?,?);`,
			r.ID.String(), r.Text, r.SentAt, r.SentByLocalUser,
		); err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append: %w", err)
	}
	s.log.Debug("messages stored", "count", len(records), "backend", "sqlite")
	return nil
}

func (s *SQLiteStore) List(ctx context.Context) ([]conversation.Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, sent_at, sent_by_local_user FROM messages ORDER BY sent_at ASC, seq ASC;`)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []conversation.Message
	for rows.Next() {
		var (
			id string
			r  record
		)
		if err := rows.Scan(&id, &r.Text, &r.SentAt, &r.SentByLocalUser); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse message id %q: %w", id, err)
		}
		out = append(out, r.message())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM messages;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count messages: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
