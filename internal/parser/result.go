package parser

import (
	"time"

	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Status is the overall outcome of a parse.
type Status string

const (
	StatusSuccess             Status = "success"
	StatusSuccessWithWarnings Status = "success_with_warnings"
	StatusPartialSuccess      Status = "partial_success"
	StatusFailed              Status = "failed"
)

// TransactionStatus is the outcome for one transaction.
type TransactionStatus string

const (
	TransactionValid             TransactionStatus = "valid"
	TransactionValidWithWarnings TransactionStatus = "valid_with_warnings"
	TransactionInvalid           TransactionStatus = "invalid"
)

// Diagnostic is a finding tagged with the transaction it belongs to.
type Diagnostic struct {
	validation.ValidationResult `yaml:",inline"`

	// Transaction is the ST02 control number, empty for envelope findings.
	Transaction string `yaml:"transaction,omitempty"`
}

// BusinessContext holds key business fields of a transaction.
type BusinessContext struct {
	DocumentID     string  `yaml:"document_id,omitempty"`
	DocumentDate   string  `yaml:"document_date,omitempty"`
	Currency       string  `yaml:"currency,omitempty"`
	TradingPartner string  `yaml:"trading_partner,omitempty"`
	TotalAmount    float64 `yaml:"total_amount,omitempty"`
	LineItemCount  int     `yaml:"line_item_count"`
}

// TransactionSummary describes one validated transaction.
type TransactionSummary struct {
	Type          string            `yaml:"type"`
	Version       string            `yaml:"version"`
	ControlNumber string            `yaml:"control_number"`
	GroupControl  string            `yaml:"group_control,omitempty"`
	SegmentStart  int               `yaml:"segment_start"`
	SegmentEnd    int               `yaml:"segment_end"`
	SegmentCount  int               `yaml:"segment_count"`
	Status        TransactionStatus `yaml:"status"`
	ErrorCount    int               `yaml:"error_count"`
	WarningCount  int               `yaml:"warning_count"`
	Agreements    []string          `yaml:"agreements,omitempty"`
	Business      BusinessContext   `yaml:"business"`
}

// Metrics are timing and throughput counters.
type Metrics struct {
	ParsingTime           time.Duration `yaml:"parsing_time"`
	ValidationTime        time.Duration `yaml:"validation_time"`
	SegmentsProcessed     int           `yaml:"segments_processed"`
	ElementsValidated     int           `yaml:"elements_validated"`
	TransactionsProcessed int           `yaml:"transactions_processed"`
}

// ElementOccurrence is one value of an element found in the document.
type ElementOccurrence struct {
	Transaction     string `yaml:"transaction"`
	SegmentID       string `yaml:"segment_id"`
	SegmentPosition int    `yaml:"segment_position"`
	ElementPosition int    `yaml:"element_position"`
	Value           string `yaml:"value"`
}

// Result is the outcome of parsing and validating one document.
type Result struct {
	Interchange  *x12.InterchangeControl `yaml:"-"`
	Version      string                  `yaml:"version"`
	Level        string                  `yaml:"level"`
	PartnerID    string                  `yaml:"partner_id,omitempty"`
	Status       Status                  `yaml:"status"`
	Summary      validation.Summary      `yaml:"summary"`
	Transactions []TransactionSummary    `yaml:"transactions"`
	Diagnostics  []Diagnostic            `yaml:"diagnostics"`
	Metrics      Metrics                 `yaml:"metrics"`

	elements map[int][]ElementOccurrence
}

// Results returns the findings without their transaction tags.
func (r *Result) Results() []validation.ValidationResult {
	out := make([]validation.ValidationResult, len(r.Diagnostics))
	for i, d := range r.Diagnostics {
		out[i] = d.ValidationResult
	}
	return out
}

// Errors returns the error findings.
func (r *Result) Errors() []Diagnostic {
	return r.bySeverity(validation.SeverityError)
}

// Warnings returns the warning findings.
func (r *Result) Warnings() []Diagnostic {
	return r.bySeverity(validation.SeverityWarning)
}

func (r *Result) bySeverity(s validation.Severity) []Diagnostic {
	var out []Diagnostic
	for _, d := range r.Diagnostics {
		if d.Severity == s {
			out = append(out, d)
		}
	}
	return out
}

// ElementsByID returns every occurrence of an element ID. It is empty
// unless Options.CollectDetails was set.
func (r *Result) ElementsByID(id int) []ElementOccurrence {
	return r.elements[id]
}

// IsValid reports whether the document has no error findings.
func (r *Result) IsValid() bool {
	return r.Summary.IsValid
}
