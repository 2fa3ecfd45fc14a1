package diagnostics

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/aman-cerp/pingmem/internal/hashing"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// collapseWhitespace collapses any run of whitespace to a single
// space and trims the ends, per spec §3's NormalizedFinding.Message
// contract.
func collapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// canonicalPath normalizes a finding's file path to POSIX separators,
// stripping a "file://" scheme if present.
func canonicalPath(p string) string {
	p = strings.TrimPrefix(p, "file://")
	return filepath.ToSlash(p)
}

// normalizeOne applies the field-level normalization every finding
// goes through regardless of source (direct input or SARIF): trim and
// default RuleID, canonicalize FilePath, collapse Message whitespace.
func normalizeOne(in FindingInput) NormalizedFinding {
	ruleID := strings.TrimSpace(in.RuleID)
	if ruleID == "" {
		ruleID = "unknown"
	}
	props := in.Properties
	if props == nil {
		props = map[string]string{}
	}
	return NormalizedFinding{
		RuleID:      ruleID,
		Severity:    in.Severity,
		Message:     collapseWhitespace(in.Message),
		FilePath:    canonicalPath(in.FilePath),
		StartLine:   in.StartLine,
		StartColumn: in.StartColumn,
		EndLine:     in.EndLine,
		EndColumn:   in.EndColumn,
		Fingerprint: in.Fingerprint,
		Properties:  props,
	}
}

// sortKey returns the tuple spec §3 Invariant F1 canonicalizes
// ordering on: (filePath, startLine, startColumn, endLine, endColumn,
// ruleId, severity, message, fingerprint).
func sortKey(f NormalizedFinding) string {
	return hashing.JoinKey(
		f.FilePath,
		intPtrKey(f.StartLine),
		intPtrKey(f.StartColumn),
		intPtrKey(f.EndLine),
		intPtrKey(f.EndColumn),
		f.RuleID,
		string(f.Severity),
		f.Message,
		f.Fingerprint,
	)
}

func intPtrKey(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func sortFindings(findings []NormalizedFinding) {
	sort.SliceStable(findings, func(i, j int) bool {
		return sortKey(findings[i]) < sortKey(findings[j])
	})
}

// findingsDigest hashes the canonically sorted findings' sort keys,
// independent of input order (Invariant F1, property P5).
func findingsDigest(sorted []NormalizedFinding) string {
	keys := make([]string, len(sorted))
	for i, f := range sorted {
		keys[i] = sortKey(f)
	}
	return hashing.SHA256String(hashing.JoinKey(keys...))
}

// Normalize runs the two-pass normalization spec.md §4.9 and §9
// describe: an initial normalization computes the findingsDigest and
// analysisId, then every finding is re-normalized with that final
// analysisId so FindingID is stable (the intermediate pre-analysisId
// finding IDs are never observable, per the resolved Open Question in
// SPEC_FULL.md §5).
func Normalize(projectID, treeHash, toolName, toolVersion, configHash string, inputs []FindingInput) (DiagnosticRun, []NormalizedFinding) {
	normalized := make([]NormalizedFinding, len(inputs))
	for i, in := range inputs {
		normalized[i] = normalizeOne(in)
	}
	sortFindings(normalized)

	digest := findingsDigest(normalized)
	analysisID := hashing.SHA256String(hashing.JoinKey(projectID, treeHash, toolName, toolVersion, configHash, digest))

	for i := range normalized {
		normalized[i].AnalysisID = analysisID
		normalized[i].FindingID = hashing.SHA256String(hashing.JoinKey(analysisID, sortKey(normalized[i])))
	}

	run := DiagnosticRun{
		AnalysisID:  analysisID,
		ProjectID:   projectID,
		TreeHash:    treeHash,
		ToolName:    toolName,
		ToolVersion: toolVersion,
		ConfigHash:  configHash,
		Status:      "passed",
	}
	return run, normalized
}
