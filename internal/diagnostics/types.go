// Package diagnostics implements the DiagnosticsStore (C10):
// normalization of static-analysis findings into a content-addressed
// analysis identity, persistence of runs/findings, and diffing between
// two analyses. Structurally this mirrors the deterministic-hashing
// machinery of internal/manifest and internal/chunk, applied to tool
// findings instead of file/chunk content.
package diagnostics

import "time"

// Severity is the normalized severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
	SeverityNote    Severity = "note"
)

// FindingInput is one raw finding as reported directly by a caller
// (as opposed to parsed out of a SARIF document). Fields mirror
// NormalizedFinding before normalization is applied.
type FindingInput struct {
	RuleID        string
	Severity      Severity
	Message       string
	FilePath      string
	StartLine     *int
	StartColumn   *int
	EndLine       *int
	EndColumn     *int
	Fingerprint   string
	Properties    map[string]string
}

// NormalizedFinding is one issue reported by a static-analysis tool,
// after path canonicalization, whitespace collapsing, and rule-ID
// trimming (spec §3 "NormalizedFinding", Invariant F1).
type NormalizedFinding struct {
	FindingID   string
	AnalysisID  string
	RuleID      string
	Severity    Severity
	Message     string
	FilePath    string
	StartLine   *int
	StartColumn *int
	EndLine     *int
	EndColumn   *int
	Fingerprint string
	Properties  map[string]string
}

// DiagnosticRun is the immutable pairing of (project, tree, tool,
// tool-version, config) to a set of findings, identified by
// AnalysisID (spec glossary "Analysis").
type DiagnosticRun struct {
	AnalysisID string
	ProjectID  string
	TreeHash   string
	ToolName   string
	ToolVersion string
	ConfigHash string
	Status     string
	CreatedAt  time.Time
}

// LatestRunFilter selects the most recent run matching the given,
// optionally empty, fields.
type LatestRunFilter struct {
	ProjectID   string
	ToolName    string
	ToolVersion string
	TreeHash    string
}

// Diff is the result of comparing two analyses' finding ID sets
// (spec §4.9 diffAnalyses, Invariant F1/P6). Each slice is sorted
// lexicographically.
type Diff struct {
	Introduced []string
	Resolved   []string
	Unchanged  []string
}
