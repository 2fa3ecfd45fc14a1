package diagnostics

import (
	"encoding/json"
	"strings"

	pmerrors "github.com/aman-cerp/pingmem/internal/errors"
)

// sarifDocument is the minimal SARIF 2.1.0 shape this store consumes,
// per spec §6 "SARIF": only tool identity, results, their locations,
// and fingerprints.
type sarifDocument struct {
	Runs []struct {
		Tool struct {
			Driver struct {
				Name    string `json:"name"`
				Version string `json:"version"`
			} `json:"driver"`
		} `json:"tool"`
		Results []sarifResult `json:"results"`
	} `json:"runs"`
}

type sarifResult struct {
	RuleID  string `json:"ruleId"`
	Level   string `json:"level"`
	Message struct {
		Text string `json:"text"`
	} `json:"message"`
	Locations []struct {
		PhysicalLocation struct {
			ArtifactLocation struct {
				URI string `json:"uri"`
			} `json:"artifactLocation"`
			Region struct {
				StartLine   int `json:"startLine"`
				StartColumn int `json:"startColumn"`
				EndLine     int `json:"endLine"`
				EndColumn   int `json:"endColumn"`
			} `json:"region"`
		} `json:"physicalLocation"`
	} `json:"locations"`
	Fingerprints        map[string]string `json:"fingerprints"`
	PartialFingerprints map[string]string `json:"partialFingerprints"`
}

// ParseSARIF extracts (toolName, toolVersion, findings) from a SARIF
// 2.1.0 document. Malformed input is recoverable: it returns an empty
// finding list with an empty tool name/version rather than an error
// (spec §4.9 "Recoverable: malformed SARIF ...").
func ParseSARIF(data []byte) (toolName, toolVersion string, findings []FindingInput) {
	var doc sarifDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return "", "", nil
	}
	if len(doc.Runs) == 0 {
		return "", "", nil
	}
	run := doc.Runs[0]
	toolName = run.Tool.Driver.Name
	toolVersion = run.Tool.Driver.Version

	for _, r := range run.Results {
		findings = append(findings, sarifResultToInput(r))
	}
	return toolName, toolVersion, findings
}

// ParseSARIFError is like ParseSARIF but additionally surfaces a
// ParseError when the document cannot be unmarshalled at all, for
// callers that want to distinguish "no results" from "not JSON".
func ParseSARIFError(data []byte) (toolName, toolVersion string, findings []FindingInput, err error) {
	var doc sarifDocument
	if unmarshalErr := json.Unmarshal(data, &doc); unmarshalErr != nil {
		return "", "", nil, pmerrors.ParseError("diagnostics", "malformed SARIF document", unmarshalErr)
	}
	toolName, toolVersion, findings = ParseSARIF(data)
	return toolName, toolVersion, findings, nil
}

func sarifResultToInput(r sarifResult) FindingInput {
	in := FindingInput{
		RuleID:   r.RuleID,
		Severity: normalizeSeverity(r.Level),
		Message:  r.Message.Text,
	}

	if len(r.Locations) > 0 {
		loc := r.Locations[0].PhysicalLocation
		in.FilePath = strings.TrimPrefix(loc.ArtifactLocation.URI, "file://")
		region := loc.Region
		if region.StartLine != 0 {
			v := region.StartLine
			in.StartLine = &v
		}
		if region.StartColumn != 0 {
			v := region.StartColumn
			in.StartColumn = &v
		}
		if region.EndLine != 0 {
			v := region.EndLine
			in.EndLine = &v
		}
		if region.EndColumn != 0 {
			v := region.EndColumn
			in.EndColumn = &v
		}
	}

	if fp, ok := r.Fingerprints["primaryLocationLineHash"]; ok {
		in.Fingerprint = fp
	} else if fp, ok := r.PartialFingerprints["primaryLocationLineHash"]; ok {
		in.Fingerprint = fp
	}

	return in
}

// normalizeSeverity maps a SARIF result "level" onto the closed
// severity set (spec §4.9): error -> error, warning -> warning,
// note -> note, anything else (including empty/"none") -> info.
func normalizeSeverity(level string) Severity {
	switch level {
	case "error":
		return SeverityError
	case "warning":
		return SeverityWarning
	case "note":
		return SeverityNote
	default:
		return SeverityInfo
	}
}
