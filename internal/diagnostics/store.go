package diagnostics

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver (no CGO)

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
)

// Store is the SQLite-backed DiagnosticsStore. It owns the
// diagnostic_runs/diagnostic_findings tables named in spec §6.
type Store struct {
	mu   sync.RWMutex
	db   *sql.DB
	path string
}

const schema = `
CREATE TABLE IF NOT EXISTS diagnostic_runs (
	analysis_id  TEXT PRIMARY KEY,
	project_id   TEXT NOT NULL,
	tree_hash    TEXT NOT NULL,
	tool_name    TEXT NOT NULL,
	tool_version TEXT NOT NULL,
	config_hash  TEXT NOT NULL,
	status       TEXT NOT NULL,
	created_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_project_tree ON diagnostic_runs(project_id, tree_hash);
CREATE INDEX IF NOT EXISTS idx_runs_tool ON diagnostic_runs(tool_name, tool_version);

CREATE TABLE IF NOT EXISTS diagnostic_findings (
	finding_id    TEXT PRIMARY KEY,
	analysis_id   TEXT NOT NULL REFERENCES diagnostic_runs(analysis_id),
	rule_id       TEXT NOT NULL,
	severity      TEXT NOT NULL,
	message       TEXT NOT NULL,
	file_path     TEXT NOT NULL,
	start_line    INTEGER,
	start_column  INTEGER,
	end_line      INTEGER,
	end_column    INTEGER,
	fingerprint   TEXT,
	properties    TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_findings_analysis ON diagnostic_findings(analysis_id);
CREATE INDEX IF NOT EXISTS idx_findings_file ON diagnostic_findings(file_path);
CREATE INDEX IF NOT EXISTS idx_findings_rule ON diagnostic_findings(rule_id);
`

// NewStore opens (creating if necessary) the diagnostics database at
// path.
func NewStore(path string) (*Store, error) {
	dsn := path
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, pmerrors.IoError("diagnostics", "create database directory", err)
			}
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, pmerrors.IoError("diagnostics", "open database", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	for _, p := range []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, pmerrors.IoError("diagnostics", "set pragma", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, pmerrors.IoError("diagnostics", "create schema", err)
	}
	return &Store{db: db, path: path}, nil
}

// Close releases the database connection. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// SaveRun persists a DiagnosticRun and its findings in one
// transaction. Runs are keyed by AnalysisID, so saving a run whose
// AnalysisID is already stored fails and the transaction is rolled
// back; a second save of the same analysis adds no rows. Findings are
// written with INSERT OR REPLACE keyed by FindingID, so a finding whose
// ID already exists overwrites the earlier row.
func (s *Store) SaveRun(ctx context.Context, run DiagnosticRun, findings []NormalizedFinding) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return pmerrors.IoError("diagnostics", "saveRun on closed store", nil)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pmerrors.IoError("diagnostics", "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	createdAt := run.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO diagnostic_runs (analysis_id, project_id, tree_hash, tool_name, tool_version, config_hash, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, run.AnalysisID, run.ProjectID, run.TreeHash, run.ToolName, run.ToolVersion, run.ConfigHash, run.Status,
		createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return pmerrors.IoError("diagnostics", "insert run", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO diagnostic_findings
			(finding_id, analysis_id, rule_id, severity, message, file_path,
			 start_line, start_column, end_line, end_column, fingerprint, properties)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return pmerrors.IoError("diagnostics", "prepare finding insert", err)
	}
	defer stmt.Close()

	for _, f := range findings {
		props, err := json.Marshal(f.Properties)
		if err != nil {
			return pmerrors.IoError("diagnostics", "marshal finding properties", err)
		}
		_, err = stmt.ExecContext(ctx, f.FindingID, f.AnalysisID, f.RuleID, string(f.Severity), f.Message, f.FilePath,
			nullableInt(f.StartLine), nullableInt(f.StartColumn), nullableInt(f.EndLine), nullableInt(f.EndColumn),
			nullableString(f.Fingerprint), string(props))
		if err != nil {
			return pmerrors.IoError("diagnostics", "insert finding", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return pmerrors.IoError("diagnostics", "commit transaction", err)
	}
	return nil
}

func nullableInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullableString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetLatestRun returns the most recent run matching filter, ordered
// by CreatedAt descending.
func (s *Store) GetLatestRun(ctx context.Context, filter LatestRunFilter) (*DiagnosticRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, pmerrors.IoError("diagnostics", "query on closed store", nil)
	}

	query := `SELECT analysis_id, project_id, tree_hash, tool_name, tool_version, config_hash, status, created_at
		FROM diagnostic_runs WHERE project_id = ?`
	args := []any{filter.ProjectID}
	if filter.ToolName != "" {
		query += " AND tool_name = ?"
		args = append(args, filter.ToolName)
	}
	if filter.ToolVersion != "" {
		query += " AND tool_version = ?"
		args = append(args, filter.ToolVersion)
	}
	if filter.TreeHash != "" {
		query += " AND tree_hash = ?"
		args = append(args, filter.TreeHash)
	}
	query += " ORDER BY created_at DESC LIMIT 1"

	row := s.db.QueryRowContext(ctx, query, args...)
	var run DiagnosticRun
	var createdAt string
	err := row.Scan(&run.AnalysisID, &run.ProjectID, &run.TreeHash, &run.ToolName, &run.ToolVersion,
		&run.ConfigHash, &run.Status, &createdAt)
	if err == sql.ErrNoRows {
		return nil, pmerrors.NotFound("diagnostics", "no matching run found", nil)
	}
	if err != nil {
		return nil, pmerrors.IoError("diagnostics", "scan run", err)
	}
	run.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, pmerrors.IoError("diagnostics", "parse run timestamp", err)
	}
	return &run, nil
}

// GetFindings returns every finding recorded for an analysis.
func (s *Store) GetFindings(ctx context.Context, analysisID string) ([]NormalizedFinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, pmerrors.IoError("diagnostics", "query on closed store", nil)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT finding_id, analysis_id, rule_id, severity, message, file_path,
		       start_line, start_column, end_line, end_column, fingerprint, properties
		FROM diagnostic_findings WHERE analysis_id = ?
	`, analysisID)
	if err != nil {
		return nil, pmerrors.IoError("diagnostics", "query findings", err)
	}
	defer rows.Close()

	var out []NormalizedFinding
	for rows.Next() {
		var f NormalizedFinding
		var severity, props string
		var startLine, startColumn, endLine, endColumn sql.NullInt64
		var fingerprint sql.NullString
		if err := rows.Scan(&f.FindingID, &f.AnalysisID, &f.RuleID, &severity, &f.Message, &f.FilePath,
			&startLine, &startColumn, &endLine, &endColumn, &fingerprint, &props); err != nil {
			return nil, pmerrors.IoError("diagnostics", "scan finding", err)
		}
		f.Severity = Severity(severity)
		f.StartLine = fromNullInt(startLine)
		f.StartColumn = fromNullInt(startColumn)
		f.EndLine = fromNullInt(endLine)
		f.EndColumn = fromNullInt(endColumn)
		f.Fingerprint = fingerprint.String
		properties := map[string]string{}
		if err := json.Unmarshal([]byte(props), &properties); err == nil {
			f.Properties = properties
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func fromNullInt(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

// DiffAnalyses returns introduced/resolved/unchanged finding ID sets
// between two analyses (spec §4.9, Invariant F1, property P6). Each
// slice is sorted lexicographically.
func (s *Store) DiffAnalyses(ctx context.Context, analysisA, analysisB string) (Diff, error) {
	a, err := s.GetFindings(ctx, analysisA)
	if err != nil {
		return Diff{}, err
	}
	b, err := s.GetFindings(ctx, analysisB)
	if err != nil {
		return Diff{}, err
	}
	return DiffFindingSets(a, b), nil
}

// DiffFindingSets computes the diff algebra directly over two finding
// slices, without touching storage. Exposed separately so callers
// that already hold both finding sets (e.g. in-memory analyses) don't
// need a round-trip through the store.
func DiffFindingSets(a, b []NormalizedFinding) Diff {
	aIDs := make(map[string]struct{}, len(a))
	for _, f := range a {
		aIDs[f.FindingID] = struct{}{}
	}
	bIDs := make(map[string]struct{}, len(b))
	for _, f := range b {
		bIDs[f.FindingID] = struct{}{}
	}

	var introduced, resolved, unchanged []string
	for id := range bIDs {
		if _, ok := aIDs[id]; !ok {
			introduced = append(introduced, id)
		} else {
			unchanged = append(unchanged, id)
		}
	}
	for id := range aIDs {
		if _, ok := bIDs[id]; !ok {
			resolved = append(resolved, id)
		}
	}

	sort.Strings(introduced)
	sort.Strings(resolved)
	sort.Strings(unchanged)
	return Diff{Introduced: introduced, Resolved: resolved, Unchanged: unchanged}
}
