// Package history is the embedded, single-file record store backing
// assessments, benchmarks, and (optionally) audit logs.
//
// Grounded on original_source/agent/storage.py (_init_db, save_report,
// list_assessments, get_report, write_audit_query, write_audit_conversation,
// Storage), using raw database/sql the way the teacher's internal/store
// package does, generalized with the benchmarks table and additive-column
// schema evolution spec.md §4.10 adds beyond the original.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

const schemaVersion = 1

// Store wraps a single SQLite file holding every AIRD history table.
type Store struct {
	db *sql.DB
}

// Open creates the parent directory of path if needed, opens (or creates)
// the SQLite file, and applies schema migrations.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: creating %s: %w", dir, err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", path, err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

func migrate(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS _schema (version INTEGER)`,
		`CREATE TABLE IF NOT EXISTS assessments (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			connection_fingerprint TEXT,
			data_product TEXT,
			report_json TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS benchmarks (
			id TEXT PRIMARY KEY,
			created_at TEXT NOT NULL,
			labels TEXT NOT NULL,
			connections TEXT NOT NULL,
			assessment_ids TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_queries (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			assessment_id TEXT,
			session_id TEXT,
			query_text TEXT NOT NULL,
			target TEXT,
			factor TEXT,
			requirement TEXT,
			created_at TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS audit_conversation (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			assessment_id TEXT,
			session_id TEXT,
			phase TEXT,
			role TEXT,
			content TEXT NOT NULL,
			created_at TEXT NOT NULL
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("history: migrating schema: %w", err)
		}
	}
	if _, err := db.Exec(`INSERT OR IGNORE INTO _schema (version) VALUES (?)`, schemaVersion); err != nil {
		return fmt.Errorf("history: stamping schema version: %w", err)
	}

	// data_product is additive: older databases created before it existed
	// get it added via ALTER TABLE, matching spec.md §4.10's evolution rule.
	if !hasColumn(db, "assessments", "data_product") {
		if _, err := db.Exec(`ALTER TABLE assessments ADD COLUMN data_product TEXT`); err != nil {
			return fmt.Errorf("history: adding data_product column: %w", err)
		}
	}
	return nil
}

func hasColumn(db *sql.DB, table, column string) bool {
	rows, err := db.Query(fmt.Sprintf("PRAGMA table_info(%s)", table))
	if err != nil {
		return false
	}
	defer rows.Close()
	for rows.Next() {
		var cid int
		var name, ctype string
		var notnull int
		var dflt sql.NullString
		var pk int
		if err := rows.Scan(&cid, &name, &ctype, &notnull, &dflt, &pk); err != nil {
			return false
		}
		if name == column {
			return true
		}
	}
	return false
}

// AssessmentSummary is the id/timestamp/fingerprint/summary shape listing
// returns, without rehydrating the full report.
type AssessmentSummary struct {
	ID                    string          `json:"id"`
	CreatedAt             string          `json:"created_at"`
	ConnectionFingerprint string          `json:"connection_fingerprint"`
	DataProduct           string          `json:"data_product,omitempty"`
	Summary               json.RawMessage `json:"summary"`
}

// SaveReport persists reportJSON (an already-marshaled report document,
// numeric fields pre-converted to float64 so no arbitrary-precision type
// ever reaches the encoder) and returns the new assessment id.
func (s *Store) SaveReport(ctx context.Context, createdAt, fingerprint, dataProduct string, reportJSON []byte) (string, error) {
	id := uuid.NewString()
	if createdAt == "" {
		createdAt = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO assessments (id, created_at, connection_fingerprint, data_product, report_json) VALUES (?, ?, ?, ?, ?)`,
		id, createdAt, fingerprint, nullableString(dataProduct), string(reportJSON))
	if err != nil {
		return "", fmt.Errorf("history: saving report: %w", err)
	}
	return id, nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// ListAssessments returns up to limit assessments, most recent first,
// optionally restricted to a connection fingerprint and/or data product.
func (s *Store) ListAssessments(ctx context.Context, fingerprint, dataProduct string, limit int) ([]AssessmentSummary, error) {
	query := `SELECT id, created_at, connection_fingerprint, data_product, report_json FROM assessments`
	var conds []string
	var args []any
	if fingerprint != "" {
		conds = append(conds, "connection_fingerprint = ?")
		args = append(args, fingerprint)
	}
	if dataProduct != "" {
		conds = append(conds, "data_product = ?")
		args = append(args, dataProduct)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: listing assessments: %w", err)
	}
	defer rows.Close()

	var out []AssessmentSummary
	for rows.Next() {
		var id, createdAt, fp string
		var dp sql.NullString
		var reportJSON string
		if err := rows.Scan(&id, &createdAt, &fp, &dp, &reportJSON); err != nil {
			return nil, fmt.Errorf("history: scanning assessment row: %w", err)
		}
		summary, err := extractField(reportJSON, "summary")
		if err != nil {
			return nil, fmt.Errorf("history: parsing stored report %s: %w", id, err)
		}
		out = append(out, AssessmentSummary{
			ID: id, CreatedAt: createdAt, ConnectionFingerprint: fp,
			DataProduct: dp.String, Summary: summary,
		})
	}
	return out, rows.Err()
}

// GetReport loads the raw persisted report_json for id, or nil if no
// assessment with that id exists.
func (s *Store) GetReport(ctx context.Context, id string) ([]byte, error) {
	var reportJSON string
	err := s.db.QueryRowContext(ctx, `SELECT report_json FROM assessments WHERE id = ?`, id).Scan(&reportJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("history: loading report %s: %w", id, err)
	}
	return []byte(reportJSON), nil
}

// LatestForFingerprint returns the most recently saved assessment id for
// fingerprint, excluding excludeID (typically the assessment currently
// being built, so compare/diff never matches itself). Returns "" if none.
func (s *Store) LatestForFingerprint(ctx context.Context, fingerprint, excludeID string) (string, error) {
	var id string
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM assessments WHERE connection_fingerprint = ? AND id != ? ORDER BY created_at DESC LIMIT 1`,
		fingerprint, excludeID).Scan(&id)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("history: finding previous assessment: %w", err)
	}
	return id, nil
}

// SaveBenchmark persists a benchmark group binding labels/connections to the
// per-connection assessment ids already saved via SaveReport.
func (s *Store) SaveBenchmark(ctx context.Context, labels, connections, assessmentIDs []string) (string, error) {
	id := uuid.NewString()
	createdAt := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	labelsJSON, _ := json.Marshal(labels)
	connsJSON, _ := json.Marshal(connections)
	idsJSON, _ := json.Marshal(assessmentIDs)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO benchmarks (id, created_at, labels, connections, assessment_ids) VALUES (?, ?, ?, ?, ?)`,
		id, createdAt, string(labelsJSON), string(connsJSON), string(idsJSON))
	if err != nil {
		return "", fmt.Errorf("history: saving benchmark: %w", err)
	}
	return id, nil
}

// BenchmarkSummary is one saved benchmark group's id/timestamp/member
// labels, without rehydrating each member assessment's full report.
type BenchmarkSummary struct {
	ID            string   `json:"id"`
	CreatedAt     string   `json:"created_at"`
	Labels        []string `json:"labels"`
	Connections   []string `json:"connections"`
	AssessmentIDs []string `json:"assessment_ids"`
}

// ListBenchmarks returns up to limit saved benchmark groups, most recent
// first (spec.md §4.10's "lists bound groups of assessments with human
// labels").
func (s *Store) ListBenchmarks(ctx context.Context, limit int) ([]BenchmarkSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, created_at, labels, connections, assessment_ids FROM benchmarks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: listing benchmarks: %w", err)
	}
	defer rows.Close()

	var out []BenchmarkSummary
	for rows.Next() {
		var id, createdAt, labelsJSON, connsJSON, idsJSON string
		if err := rows.Scan(&id, &createdAt, &labelsJSON, &connsJSON, &idsJSON); err != nil {
			return nil, fmt.Errorf("history: scanning benchmark row: %w", err)
		}
		bs := BenchmarkSummary{ID: id, CreatedAt: createdAt}
		if err := json.Unmarshal([]byte(labelsJSON), &bs.Labels); err != nil {
			return nil, fmt.Errorf("history: parsing labels for benchmark %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(connsJSON), &bs.Connections); err != nil {
			return nil, fmt.Errorf("history: parsing connections for benchmark %s: %w", id, err)
		}
		if err := json.Unmarshal([]byte(idsJSON), &bs.AssessmentIDs); err != nil {
			return nil, fmt.Errorf("history: parsing assessment ids for benchmark %s: %w", id, err)
		}
		out = append(out, bs)
	}
	return out, rows.Err()
}

// WriteAuditQuery appends one probe-level audit record.
func (s *Store) WriteAuditQuery(ctx context.Context, assessmentID, sessionID, queryText, target, factor, requirement string) error {
	createdAt := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_queries (assessment_id, session_id, query_text, target, factor, requirement, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		nullableString(assessmentID), nullableString(sessionID), queryText,
		nullableString(target), nullableString(factor), nullableString(requirement), createdAt)
	if err != nil {
		return fmt.Errorf("history: writing audit query: %w", err)
	}
	return nil
}

// WriteAuditConversation appends one conversational turn (used by the
// optional survey collaborator).
func (s *Store) WriteAuditConversation(ctx context.Context, assessmentID, sessionID, phase, role, content string) error {
	createdAt := time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_conversation (assessment_id, session_id, phase, role, content, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		nullableString(assessmentID), nullableString(sessionID), nullableString(phase), role, content, createdAt)
	if err != nil {
		return fmt.Errorf("history: writing audit conversation: %w", err)
	}
	return nil
}

// extractField pulls one top-level field out of a stored report_json blob
// without decoding the whole document.
func extractField(reportJSON, field string) (json.RawMessage, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal([]byte(reportJSON), &doc); err != nil {
		return nil, err
	}
	return doc[field], nil
}
