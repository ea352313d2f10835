// Package store exports analysis reports to a SQLite database so several
// runs over a corpus can be queried side by side.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/ppiankov/reltext/internal/model"
)

// Relation kinds stored in the relations table
const (
	KindPersonLocation       = "person_location"
	KindPersonAction         = "person_action"
	KindLocationOrganization = "location_organization"
	KindOrganizationAction   = "organization_action"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	generated_at TEXT NOT NULL,
	input_dir    TEXT NOT NULL,
	annotator    TEXT NOT NULL,
	documents    INTEGER NOT NULL,
	failed       INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS documents (
	run_id      TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	path        TEXT NOT NULL,
	ok          INTEGER NOT NULL,
	error       TEXT NOT NULL DEFAULT '',
	spans       INTEGER NOT NULL,
	tokens      INTEGER NOT NULL,
	relations   INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL,
	PRIMARY KEY (run_id, path)
);
CREATE TABLE IF NOT EXISTS relations (
	run_id TEXT NOT NULL REFERENCES runs(run_id) ON DELETE CASCADE,
	kind   TEXT NOT NULL,
	position   INTEGER NOT NULL,
	entity     TEXT NOT NULL,
	partner    TEXT NOT NULL,
	tense      TEXT NOT NULL DEFAULT '',
	frequency  INTEGER NOT NULL,
	PRIMARY KEY (run_id, kind, position)
);
CREATE INDEX IF NOT EXISTS idx_relations_entity ON relations(entity);
CREATE INDEX IF NOT EXISTS idx_relations_partner ON relations(partner);
`

// Store is a SQLite report database
type Store struct {
	db *sql.DB
}

// Row is one stored relation
type Row struct {
	Rank  int
	Left  string
	Right string
	Tense model.Tense
	Count int
}

// Run summarizes one stored report
type Run struct {
	ID          string
	GeneratedAt time.Time
	InputDir    string
	Annotator   string
	Documents   int
	Failed      int
}

// Open opens or creates the database at path
func Open(ctx context.Context, path string) (*Store, error) {
	connStr := fmt.Sprintf("file:%s?_pragma=busy_timeout(30000)&_pragma=foreign_keys(ON)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores report in a single transaction, replacing an earlier run with
// the same ID. Reports without a run ID get a fresh one, which is returned.
func (s *Store) Save(ctx context.Context, report *model.Report) (string, error) {
	runID := report.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE run_id = ?`, runID); err != nil {
		return "", fmt.Errorf("delete previous run: %w", err)
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, generated_at, input_dir, annotator, documents, failed)
		VALUES (?, ?, ?, ?, ?, ?)`,
		runID, report.GeneratedAt.UTC().Format(time.RFC3339Nano), report.InputDir, report.Annotator,
		len(report.Documents), len(report.Failed()))
	if err != nil {
		return "", fmt.Errorf("insert run: %w", err)
	}

	docStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO documents (run_id, path, ok, error, spans, tokens, relations, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare documents: %w", err)
	}
	defer func() { _ = docStmt.Close() }()
	for _, d := range report.Documents {
		if _, err := docStmt.ExecContext(ctx, runID, d.Path, d.OK, d.Error, d.Spans, d.Tokens, d.Relations, d.Duration.Milliseconds()); err != nil {
			return "", fmt.Errorf("insert document %s: %w", d.Path, err)
		}
	}

	relStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO relations (run_id, kind, position, entity, partner, tense, frequency)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare relations: %w", err)
	}
	defer func() { _ = relStmt.Close() }()
	for kind, rows := range rowsByKind(report) {
		for _, r := range rows {
			if _, err := relStmt.ExecContext(ctx, runID, kind, r.Rank, r.Left, r.Right, string(r.Tense), r.Count); err != nil {
				return "", fmt.Errorf("insert %s relation: %w", kind, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return runID, nil
}

func rowsByKind(report *model.Report) map[string][]Row {
	out := make(map[string][]Row, 4)
	for i, x := range report.PersonLocation {
		out[KindPersonLocation] = append(out[KindPersonLocation], Row{Rank: i + 1, Left: x.Key.Person, Right: x.Key.Location, Count: x.Count})
	}
	for i, x := range report.PersonAction {
		out[KindPersonAction] = append(out[KindPersonAction], Row{Rank: i + 1, Left: x.Key.Person, Right: x.Key.Verb, Tense: x.Key.Tense, Count: x.Count})
	}
	for i, x := range report.LocationOrganization {
		out[KindLocationOrganization] = append(out[KindLocationOrganization], Row{Rank: i + 1, Left: x.Key.Location, Right: x.Key.Organization, Count: x.Count})
	}
	for i, x := range report.OrganizationAction {
		out[KindOrganizationAction] = append(out[KindOrganizationAction], Row{Rank: i + 1, Left: x.Key.Organization, Right: x.Key.Verb, Tense: x.Key.Tense, Count: x.Count})
	}
	return out
}

// Relations returns the stored rows of one kind for a run, in rank order
func (s *Store) Relations(ctx context.Context, runID, kind string) ([]Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT position, entity, partner, tense, frequency FROM relations
		WHERE run_id = ? AND kind = ?
		ORDER BY position`, runID, kind)
	if err != nil {
		return nil, fmt.Errorf("query relations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Row
	for rows.Next() {
		var r Row
		var tense string
		if err := rows.Scan(&r.Rank, &r.Left, &r.Right, &tense, &r.Count); err != nil {
			return nil, fmt.Errorf("scan relation: %w", err)
		}
		r.Tense = model.Tense(tense)
		out = append(out, r)
	}
	return out, rows.Err()
}

// Runs lists stored runs, newest first
func (s *Store) Runs(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, generated_at, input_dir, annotator, documents, failed
		FROM runs ORDER BY generated_at DESC, run_id`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Run
	for rows.Next() {
		var r Run
		var generated string
		if err := rows.Scan(&r.ID, &generated, &r.InputDir, &r.Annotator, &r.Documents, &r.Failed); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if r.GeneratedAt, err = time.Parse(time.RFC3339Nano, generated); err != nil {
			return nil, fmt.Errorf("parse run time %q: %w", generated, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Export saves report into the database at path
func Export(ctx context.Context, path string, report *model.Report) (string, error) {
	s, err := Open(ctx, path)
	if err != nil {
		return "", err
	}
	defer func() { _ = s.Close() }()
	return s.Save(ctx, report)
}
