// =============================================================================
// X12 EDI Validator - Parser
// =============================================================================
//
// The Parser runs the whole pipeline for one document held in memory.
//
// PIPELINE:
//   1. Tokenize the text and discover the separators from the ISA header
//   2. Assemble the interchange / group / transaction tree
//   3. Report orphan segments and check envelope control numbers
//   4. Validate each transaction against the schema catalog:
//        basic     structure (usage, order, dependencies, mandatory segments)
//        standard  + element values
//        strict    + trading partner overlay and loop context
//        complete  + business rules
//   5. Build per-transaction summaries, metrics and the overall status
//
// ERROR TIERS:
//   Input the tokenizer or assembler cannot interpret (empty input, bad
//   header, ST without control fields) is returned as an error. Every
//   other problem becomes a Diagnostic and parsing continues.
//
// CONCURRENCY:
//   A Parser holds only read-only state. Parse may be called from many
//   goroutines at once.
//
// =============================================================================

package parser

import (
	"fmt"
	"strconv"
	"time"

	"github.com/ginjaninja78/x12-edi-validator/internal/logger"
	"github.com/ginjaninja78/x12-edi-validator/internal/loops"
	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// =============================================================================
// PARSER STRUCTURE
// =============================================================================

// Parser parses and validates X12 documents.
type Parser struct {
	opts   Options
	engine *schema.Engine
	logger logger.Logger
}

// New creates a Parser.
//
// PARAMETERS:
//   - catalog: The schema catalog; nil uses schema.DefaultCatalog()
//   - opts: Parsing and validation options
//
// RETURNS:
//   - A new Parser, or an error if the options are invalid.
func New(catalog *schema.Catalog, opts Options) (*Parser, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parser options: %w", err)
	}
	if catalog == nil {
		catalog = schema.DefaultCatalog()
	}
	return &Parser{
		opts:   opts,
		engine: schema.NewEngine(catalog),
		logger: logger.Default(),
	}, nil
}

// WithLogger replaces the logger.
func (p *Parser) WithLogger(l logger.Logger) *Parser {
	p.logger = l
	return p
}

// Options returns the parser's options.
func (p *Parser) Options() Options {
	return p.opts
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Parse parses and validates one document.
//
// RETURNS:
//   - *Result: The tree, diagnostics and summaries
//   - error: A wrapped *x12.ParseError for input that cannot be parsed
func (p *Parser) Parse(input string) (*Result, error) {
	parseStart := time.Now()

	// =========================================================================
	// STEP 1: TOKENIZE
	// =========================================================================

	stream, err := x12.Tokenize(input, x12.TokenizerOptions{
		Delimiters:     p.opts.Delimiters,
		TrimWhitespace: p.opts.TrimWhitespace,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to tokenize document: %w", err)
	}
	if stream.Rediscovered {
		p.logger.Debug("Re-tokenized with discovered separators %q %q %q",
			stream.Delimiters.Element, stream.Delimiters.Segment, stream.Delimiters.SubElement)
	}

	// =========================================================================
	// STEP 2: ASSEMBLE
	// =========================================================================

	ic, err := x12.Assemble(stream, x12.AssembleOptions{Strict: p.opts.Strict})
	if err != nil {
		return nil, fmt.Errorf("failed to assemble interchange: %w", err)
	}

	version := p.opts.Version
	if version == x12.VersionUnknown {
		version = ic.Version
	}

	result := &Result{
		Interchange: ic,
		Version:     version.String(),
		Level:       p.opts.Level.String(),
		PartnerID:   p.opts.EffectivePartnerID(),
		Metrics: Metrics{
			ParsingTime:       time.Since(parseStart),
			SegmentsProcessed: len(stream.Segments),
		},
	}
	if p.opts.CollectDetails {
		result.elements = make(map[int][]ElementOccurrence)
	}
	if p.opts.PartnerID != "" && result.PartnerID == "" {
		p.logger.Warn("Agreements for partner %s are not applied at level %s (strict or complete required)",
			p.opts.PartnerID, p.opts.Level)
	}

	p.logger.Debug("Parsed %d segments into %d group(s), version %s",
		len(stream.Segments), len(ic.FunctionalGroups), version)

	validationStart := time.Now()

	// =========================================================================
	// STEP 3: ENVELOPE
	// =========================================================================

	for _, o := range ic.Orphans {
		r := validation.NewWarning(validation.RuleOrphan,
			"Segment %s at position %d is outside any transaction and was discarded", o.Segment.ID, o.Position+1)
		r.SegmentID = o.Segment.ID
		result.Diagnostics = append(result.Diagnostics, Diagnostic{ValidationResult: r})
	}

	if err := x12.ValidateStructure(ic); err != nil {
		p.logger.Warn("Envelope check failed: %v", err)
		result.Diagnostics = append(result.Diagnostics, Diagnostic{
			ValidationResult: validation.NewError(validation.RuleEnvelope, "%s", err.Error()),
		})
	}

	// =========================================================================
	// STEP 4: TRANSACTIONS
	// =========================================================================

	stopped := false
	for _, group := range ic.FunctionalGroups {
		for _, txn := range group.Transactions {
			if stopped {
				break
			}

			summary, findings := p.validateTransaction(txn, group, version, result)
			result.Transactions = append(result.Transactions, summary)
			for _, f := range findings {
				result.Diagnostics = append(result.Diagnostics, Diagnostic{ValidationResult: f, Transaction: txn.ControlNumber})
			}
			result.Metrics.TransactionsProcessed++

			if summary.Status == TransactionInvalid && !p.opts.ContinueOnError {
				p.logger.Warn("Stopping after transaction %s with %d error(s)", txn.ControlNumber, summary.ErrorCount)
				result.Diagnostics = append(result.Diagnostics, Diagnostic{
					ValidationResult: validation.NewInfo(validation.RuleTransaction,
						"Validation stopped after transaction %s", txn.ControlNumber),
				})
				stopped = true
			}
		}
	}

	// =========================================================================
	// STEP 5: SUMMARY
	// =========================================================================

	result.Metrics.ValidationTime = time.Since(validationStart)
	result.Summary = validation.Summarize(result.Results())
	result.Status = p.status(result.Summary)

	p.logger.Debug("Validation complete: %d error(s), %d warning(s), status %s",
		result.Summary.ErrorCount, result.Summary.WarningCount, result.Status)

	return result, nil
}

// validateTransaction runs every check enabled by the level on one
// transaction.
func (p *Parser) validateTransaction(txn *x12.Transaction, group *x12.FunctionalGroup, version x12.Version, result *Result) (TransactionSummary, []validation.ValidationResult) {
	summary := TransactionSummary{
		Type:          txn.TransactionSetID,
		Version:       version.String(),
		ControlNumber: txn.ControlNumber,
		GroupControl:  group.ControlNumber(),
		SegmentStart:  txn.StreamPosition,
		SegmentEnd:    txn.StreamPosition + len(txn.Segments) - 1,
		SegmentCount:  len(txn.Segments),
	}

	partnerID := p.opts.EffectivePartnerID()

	var findings []validation.ValidationResult

	eff, err := p.engine.Catalog().Effective(txn.TransactionSetID, version, partnerID)
	if err != nil {
		findings = append(findings, p.engine.ValidateTransactionStructure(txn.TransactionSetID, version, txn.SegmentIDs(), partnerID)...)
		return finishSummary(summary, findings), findings
	}
	summary.Agreements = eff.Applied

	// Structure
	findings = append(findings, eff.ValidateStructure(txn.SegmentIDs())...)

	// Elements
	if p.opts.Level >= LevelStandard {
		findings = append(findings, eff.ValidateElements(txn.Segments)...)
		result.Metrics.ElementsValidated += eff.CountElements(txn.Segments)
	}

	// Loops
	var doc *loops.Document
	if layout, ok := loops.LayoutFor(txn.TransactionSetID); ok {
		doc = loops.Reconstruct(txn.Segments, layout)
		if p.opts.Level >= LevelStrict {
			findings = append(findings, loops.CheckLoopContext(doc, eff.LoopAnchors())...)
		}
		if p.opts.Level >= LevelComplete {
			findings = append(findings, loops.CheckBusinessRules(doc)...)
		}
	}

	summary.Business = extractBusiness(txn, doc)

	if result.elements != nil {
		collectElements(result.elements, txn, eff)
	}

	return finishSummary(summary, findings), findings
}

func finishSummary(summary TransactionSummary, findings []validation.ValidationResult) TransactionSummary {
	s := validation.Summarize(findings)
	summary.ErrorCount = s.ErrorCount
	summary.WarningCount = s.WarningCount
	switch {
	case s.ErrorCount > 0:
		summary.Status = TransactionInvalid
	case s.WarningCount > 0:
		summary.Status = TransactionValidWithWarnings
	default:
		summary.Status = TransactionValid
	}
	return summary
}

func (p *Parser) status(s validation.Summary) Status {
	switch {
	case s.ErrorCount > 0 && p.opts.ContinueOnError:
		return StatusPartialSuccess
	case s.ErrorCount > 0:
		return StatusFailed
	case s.WarningCount > 0:
		return StatusSuccessWithWarnings
	default:
		return StatusSuccess
	}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// extractBusiness pulls document ID, date, currency, buyer and total out
// of a transaction. doc may be nil for types without a loop layout.
func extractBusiness(txn *x12.Transaction, doc *loops.Document) BusinessContext {
	var bc BusinessContext

	first := func(id string) (x12.Segment, bool) {
		for _, s := range txn.Segments {
			if s.ID == id {
				return s, true
			}
		}
		return x12.Segment{}, false
	}

	if beg, ok := first("BEG"); ok {
		bc.DocumentID = beg.Element(3)
		bc.DocumentDate = beg.Element(5)
	}
	if big, ok := first("BIG"); ok {
		bc.DocumentDate = big.Element(1)
		bc.DocumentID = big.Element(2)
	}
	if cur, ok := first("CUR"); ok {
		bc.Currency = cur.Element(2)
	}

	if doc == nil {
		return bc
	}

	for _, party := range doc.LoopsOf(loops.KindParty) {
		if party.Anchor.Segment.Element(1) == "BY" {
			bc.TradingPartner = party.Anchor.Segment.Element(2)
			break
		}
	}

	bc.LineItemCount = len(doc.LoopsOf(loops.KindLineItem))

	if tds, ok := doc.SummarySegment("TDS"); ok {
		// TDS01 is in cents with an implied decimal point.
		if cents, err := strconv.ParseInt(tds.Segment.Element(1), 10, 64); err == nil {
			bc.TotalAmount = float64(cents) / 100
			return bc
		}
	}
	bc.TotalAmount = loops.ExtendedAmount(doc)

	return bc
}

// collectElements indexes every defined element value by element ID.
func collectElements(index map[int][]ElementOccurrence, txn *x12.Transaction, eff *schema.EffectiveSchema) {
	for pos, seg := range txn.Segments {
		for i, def := range eff.Elements(seg.ID) {
			value := seg.Element(i + 1)
			if value == "" {
				continue
			}
			index[def.ID] = append(index[def.ID], ElementOccurrence{
				Transaction:     txn.ControlNumber,
				SegmentID:       seg.ID,
				SegmentPosition: pos,
				ElementPosition: i + 1,
				Value:           value,
			})
		}
	}
}
