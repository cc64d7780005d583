package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"memebot/pkg/logx"
)

//go:embed migrations.sql
var migrationsFS embed.FS

const versionKey = "version"

type sqliteStore struct {
	db  *sql.DB
	log logx.Logger
}

// Open initializes the sqlite store, creating the database file and the
// schema if needed.
func Open(cfg Config, log logx.Logger) (Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, err
	}
	if log.IsZero() {
		log = logx.Nop()
	}

	db, err := sql.Open("sqlite", cfg.Path)
	if err != nil {
		return nil, err
	}
	// SQLite prefers a small number of concurrent writers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if cfg.BusyTimeout > 0 {
		_, _ = db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", cfg.BusyTimeout.Milliseconds()))
	}
	_, _ = db.Exec("PRAGMA journal_mode = WAL")
	_, _ = db.Exec("PRAGMA synchronous = NORMAL")

	st := &sqliteStore{db: db, log: log}
	if err := st.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return st, nil
}

func (s *sqliteStore) migrate(ctx context.Context) error {
	b, err := migrationsFS.ReadFile("migrations.sql")
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, string(b))
	return err
}

func (s *sqliteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *sqliteStore) UpsertRecipient(ctx context.Context, r Recipient) error {
	if r.JoinedAt.IsZero() {
		r.JoinedAt = time.Now()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO recipients(id, username, first_name, active, joined_at)
		 VALUES(?,?,?,1,?)
		 ON CONFLICT(id) DO UPDATE SET
		   username   = excluded.username,
		   first_name = excluded.first_name,
		   active     = 1`,
		r.ID, nullStr(r.Username), nullStr(r.FirstName), r.JoinedAt.Format(time.RFC3339Nano),
	)
	return wrapUnavailable(err)
}

func (s *sqliteStore) ActiveRecipients(ctx context.Context) ([]Recipient, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, first_name, joined_at FROM recipients WHERE active = 1 ORDER BY id`)
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	defer rows.Close()

	var out []Recipient
	for rows.Next() {
		var (
			r        Recipient
			username sql.NullString
			first    sql.NullString
			joined   string
		)
		if err := rows.Scan(&r.ID, &username, &first, &joined); err != nil {
			return nil, wrapUnavailable(err)
		}
		r.Username = username.String
		r.FirstName = first.String
		r.Active = true
		if t, err := time.Parse(time.RFC3339Nano, joined); err == nil {
			r.JoinedAt = t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapUnavailable(err)
	}
	return out, nil
}

func (s *sqliteStore) DeactivateRecipient(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx, `UPDATE recipients SET active = 0 WHERE id = ?`, id)
	return wrapUnavailable(err)
}

func (s *sqliteStore) Version(ctx context.Context) (string, error) {
	var v string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM bot_state WHERE key = ?`, versionKey).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", wrapUnavailable(err)
	}
	return v, nil
}

func (s *sqliteStore) SetVersion(ctx context.Context, v string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bot_state(key, value) VALUES(?,?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		versionKey, v,
	)
	return wrapUnavailable(err)
}

func wrapUnavailable(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func nullStr(v string) any {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
