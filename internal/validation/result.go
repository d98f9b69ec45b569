// =============================================================================
// X12 EDI Validator - Validation Results
// =============================================================================
//
// Validation findings are data, not Go errors. Every validator in this repo
// appends ValidationResult values to a list and keeps going; the caller's
// continuation policy decides whether accumulated errors mean failure.
//
// POSITIONS:
//   - SegmentPosition is the 0-based index of the segment inside its
//     transaction (ST = 0).
//   - ElementPosition is the 1-based element position (BEG01 = 1).
//   Both are optional because some findings (a missing segment, an
//   unsupported transaction type) have no position to point at.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"
)

// =============================================================================
// SEVERITY
// =============================================================================

// Severity tags a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult is a single finding.
type ValidationResult struct {
	// Severity is error, warning or info.
	Severity Severity `yaml:"severity"`

	// Message is a human-readable explanation.
	Message string `yaml:"message"`

	// SegmentID is the segment the finding refers to, when known.
	SegmentID string `yaml:"segment_id,omitempty"`

	// SegmentPosition is the 0-based index inside the transaction.
	SegmentPosition *int `yaml:"segment_position,omitempty"`

	// ElementPosition is the 1-based element position.
	ElementPosition *int `yaml:"element_position,omitempty"`

	// ElementID is the stable numeric element ID, 0 when not applicable.
	ElementID int `yaml:"element_id,omitempty"`

	// Value is the offending value, when there is one.
	Value string `yaml:"value,omitempty"`

	// Rule names the check that produced the finding (e.g. "valid_code").
	Rule string `yaml:"rule,omitempty"`
}

// Rule names used across the validators.
const (
	RuleRequired       = "required"
	RuleLength         = "length"
	RuleDataType       = "data_type"
	RuleValidCode      = "valid_code"
	RuleUnknownSegment = "unknown_segment"
	RuleUnknownElement = "unknown_element"
	RuleMaxUse         = "max_use"
	RuleHierarchy      = "hierarchy"
	RuleDependency     = "dependency"
	RuleMandatory      = "mandatory_segment"
	RuleTransaction    = "transaction_type"
	RuleEnvelope       = "envelope"
	RuleOrphan         = "orphan_segment"
	RuleBusiness       = "business_rule"
)

// Position returns a pointer to n for the optional position fields.
func Position(n int) *int {
	return &n
}

// NewError creates an error finding.
func NewError(rule, format string, args ...interface{}) ValidationResult {
	return ValidationResult{Severity: SeverityError, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// NewWarning creates a warning finding.
func NewWarning(rule, format string, args ...interface{}) ValidationResult {
	return ValidationResult{Severity: SeverityWarning, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// NewInfo creates an informational finding.
func NewInfo(rule, format string, args ...interface{}) ValidationResult {
	return ValidationResult{Severity: SeverityInfo, Rule: rule, Message: fmt.Sprintf(format, args...)}
}

// AtSegment returns a copy of r located at a segment.
func (r ValidationResult) AtSegment(id string, position int) ValidationResult {
	r.SegmentID = id
	r.SegmentPosition = Position(position)
	return r
}

// IsError reports whether the finding is an error.
func (r ValidationResult) IsError() bool {
	return r.Severity == SeverityError
}

// String formats the finding for logs and text output.
func (r ValidationResult) String() string {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(strings.ToUpper(string(r.Severity)))
	b.WriteString("]")
	if r.SegmentID != "" {
		b.WriteString(" ")
		b.WriteString(r.SegmentID)
	}
	if r.SegmentPosition != nil {
		fmt.Fprintf(&b, " @%d", *r.SegmentPosition)
	}
	if r.ElementPosition != nil {
		fmt.Fprintf(&b, " el%02d", *r.ElementPosition)
	}
	b.WriteString(": ")
	b.WriteString(r.Message)
	return b.String()
}

// =============================================================================
// SUMMARY
// =============================================================================

// Summary counts findings by severity.
type Summary struct {
	// IsValid is true if there are no errors.
	IsValid bool `yaml:"is_valid"`

	ErrorCount   int `yaml:"errors"`
	WarningCount int `yaml:"warnings"`
	InfoCount    int `yaml:"infos"`
}

// Summarize counts a result list.
func Summarize(results []ValidationResult) Summary {
	s := Summary{IsValid: true}
	for _, r := range results {
		switch r.Severity {
		case SeverityError:
			s.ErrorCount++
			s.IsValid = false
		case SeverityWarning:
			s.WarningCount++
		default:
			s.InfoCount++
		}
	}
	return s
}

// Filter returns the findings with the given severity.
func Filter(results []ValidationResult, severity Severity) []ValidationResult {
	var out []ValidationResult
	for _, r := range results {
		if r.Severity == severity {
			out = append(out, r)
		}
	}
	return out
}

// HasErrors reports whether any finding is an error.
func HasErrors(results []ValidationResult) bool {
	for _, r := range results {
		if r.IsError() {
			return true
		}
	}
	return false
}

// FormatResults formats findings for display or logging.
//
// PARAMETERS:
//   - results: The findings to format.
//
// RETURNS:
//   - A numbered, one-per-line listing.
func FormatResults(results []ValidationResult) string {
	if len(results) == 0 {
		return "No validation findings."
	}

	s := Summarize(results)

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Validation completed with %d error(s), %d warning(s), %d info:\n\n",
		s.ErrorCount, s.WarningCount, s.InfoCount))

	for i, r := range results {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, r.String()))
	}

	return builder.String()
}
