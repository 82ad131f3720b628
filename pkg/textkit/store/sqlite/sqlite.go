package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/cognicore/textkit/pkg/textkit/internalerr"
	"github.com/cognicore/textkit/pkg/textkit/store"
	"github.com/cognicore/textkit/pkg/textkit/tokens"
)

// sqliteStore implements the Store interface using SQLite
type sqliteStore struct {
	db  *sql.DB
	ids *store.IDs
	now func() time.Time
}

// OpenSQLite opens a SQLite database with WAL mode enabled.
func OpenSQLite(ctx context.Context, path string) (store.Store, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("open %s: %v: %w", path, err, internalerr.ErrStoreUnavailable)
	}

	if err := initSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	return &sqliteStore{
		db:  db,
		ids: store.NewIDs(),
		now: time.Now,
	}, nil
}

// dsn applies per-connection pragmas to every pooled connection, not just
// the first one.
func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
}

// Close closes the database connection
func (s *sqliteStore) Close() error {
	return s.db.Close()
}

// initSchema creates tables if they don't exist
func initSchema(ctx context.Context, db *sql.DB) error {
	schema := `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	created_at TEXT NOT NULL,
	granularity TEXT NOT NULL,
	ngrams TEXT NOT NULL,
	skips TEXT NOT NULL,
	concatenator TEXT NOT NULL DEFAULT '',
	doc_count INTEGER NOT NULL,
	failed_count INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS run_docs (
	run_id TEXT NOT NULL,
	position INTEGER NOT NULL,
	name TEXT NOT NULL,
	err_kind TEXT,
	err_msg TEXT,
	PRIMARY KEY(run_id, position),
	UNIQUE(run_id, name),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS run_tokens (
	run_id TEXT NOT NULL,
	doc_pos INTEGER NOT NULL,
	position INTEGER NOT NULL,
	token TEXT NOT NULL,
	PRIMARY KEY(run_id, doc_pos, position),
	FOREIGN KEY(run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_run_tokens_token ON run_tokens(token);
`
	_, err := db.ExecContext(ctx, schema)
	return err
}

// SaveRun stores every document of b in one transaction.
func (s *sqliteStore) SaveRun(ctx context.Context, b *tokens.Batch) (string, error) {
	if b == nil {
		return "", fmt.Errorf("save run: nil batch: %w", internalerr.ErrInvalidArgument)
	}
	created := s.now().UTC().Truncate(time.Millisecond)
	id := s.ids.New(created)
	info := store.Summarise(id, created, b)

	ngramsJSON, err := json.Marshal(info.NGramSizes)
	if err != nil {
		return "", err
	}
	skipsJSON, err := json.Marshal(info.Skips)
	if err != nil {
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO runs (id, created_at, granularity, ngrams, skips, concatenator, doc_count, failed_count)
VALUES (?, ?, ?, ?, ?, ?, ?, ?);
`, id, created.Format(time.RFC3339Nano), info.Granularity.String(), string(ngramsJSON),
		string(skipsJSON), info.Concatenator, info.Docs, info.Failed)
	if err != nil {
		return "", err
	}

	docStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_docs (run_id, position, name, err_kind, err_msg) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer docStmt.Close()
	tokStmt, err := tx.PrepareContext(ctx, `INSERT INTO run_tokens (run_id, doc_pos, position, token) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer tokStmt.Close()

	for i := 0; i < b.Len(); i++ {
		d := b.At(i)
		var kind, msg sql.NullString
		if d.Err != nil {
			kind = sql.NullString{String: store.KindOf(d.Err), Valid: true}
			msg = sql.NullString{String: d.Err.Error(), Valid: true}
		}
		if _, err := docStmt.ExecContext(ctx, id, i, d.Name, kind, msg); err != nil {
			return "", err
		}
		for j, tok := range d.Tokens {
			if _, err := tokStmt.ExecContext(ctx, id, i, j, tok); err != nil {
				return "", err
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// LoadRun rebuilds the batch saved under id.
func (s *sqliteStore) LoadRun(ctx context.Context, id string) (*tokens.Batch, error) {
	if _, err := store.ParseID(id); err != nil {
		return nil, fmt.Errorf("run %q: %w", id, err)
	}
	info, err := s.loadInfo(ctx, id)
	if err != nil {
		return nil, err
	}

	docs := make([]tokens.Document, 0, info.Docs)
	rows, err := s.db.QueryContext(ctx, `
SELECT name, err_kind, err_msg FROM run_docs WHERE run_id = ? ORDER BY position;
`, id)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var (
			name      string
			kind, msg sql.NullString
		)
		if err := rows.Scan(&name, &kind, &msg); err != nil {
			rows.Close()
			return nil, err
		}
		d := tokens.Document{Name: name}
		if msg.Valid {
			d.Err = &store.Failure{Kind: kind.String, Message: msg.String}
		}
		docs = append(docs, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	tokRows, err := s.db.QueryContext(ctx, `
SELECT doc_pos, token FROM run_tokens WHERE run_id = ? ORDER BY doc_pos, position;
`, id)
	if err != nil {
		return nil, err
	}
	defer tokRows.Close()
	for tokRows.Next() {
		var (
			pos int
			tok string
		)
		if err := tokRows.Scan(&pos, &tok); err != nil {
			return nil, err
		}
		if pos < 0 || pos >= len(docs) {
			return nil, fmt.Errorf("run %s: token for missing document %d", id, pos)
		}
		docs[pos].Tokens = append(docs[pos].Tokens, tok)
	}
	if err := tokRows.Err(); err != nil {
		return nil, err
	}

	return tokens.NewBatch(docs, tokens.Meta{
		Granularity:  info.Granularity,
		NGramSizes:   info.NGramSizes,
		Skips:        info.Skips,
		Concatenator: info.Concatenator,
	})
}

// ListRuns returns saved runs, newest first.
func (s *sqliteStore) ListRuns(ctx context.Context, limit int) ([]store.RunInfo, error) {
	query := `
SELECT id, created_at, granularity, ngrams, skips, concatenator, doc_count, failed_count
FROM runs
ORDER BY id DESC`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []store.RunInfo
	for rows.Next() {
		info, err := scanInfo(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, info)
	}
	return result, rows.Err()
}

// DeleteRun removes a run and its documents.
func (s *sqliteStore) DeleteRun(ctx context.Context, id string) error {
	if _, err := store.ParseID(id); err != nil {
		return fmt.Errorf("run %q: %w", id, err)
	}
	res, err := s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return nil
}

func (s *sqliteStore) loadInfo(ctx context.Context, id string) (store.RunInfo, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, created_at, granularity, ngrams, skips, concatenator, doc_count, failed_count
FROM runs
WHERE id = ?;
`, id)
	info, err := scanInfo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return store.RunInfo{}, fmt.Errorf("run %s: %w", id, internalerr.ErrNotFound)
	}
	return info, err
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanInfo(sc scanner) (store.RunInfo, error) {
	var (
		info                     store.RunInfo
		created, gran, ng, skips string
	)
	if err := sc.Scan(&info.ID, &created, &gran, &ng, &skips, &info.Concatenator, &info.Docs, &info.Failed); err != nil {
		return store.RunInfo{}, err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, created); err == nil {
		info.CreatedAt = parsed
	}
	g, err := tokens.ParseGranularity(gran)
	if err != nil {
		return store.RunInfo{}, err
	}
	info.Granularity = g
	if err := json.Unmarshal([]byte(ng), &info.NGramSizes); err != nil {
		return store.RunInfo{}, fmt.Errorf("run %s ngrams: %w", info.ID, err)
	}
	if err := json.Unmarshal([]byte(skips), &info.Skips); err != nil {
		return store.RunInfo{}, fmt.Errorf("run %s skips: %w", info.ID, err)
	}
	return info, nil
}
