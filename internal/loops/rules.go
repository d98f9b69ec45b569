// =============================================================================
// X12 EDI Validator - Loop-Level Rules
// =============================================================================
//
// Checks that need the grouped view of a transaction:
//
// LOOP CONTEXT:
//   A segment with a RequiredIf dependency must sit inside a loop whose
//   anchor is the named segment (PID inside a PO1 loop).
//
// BUSINESS RULES:
//   - CTT01 must be greater than zero
//   - CTT01 must equal the number of line-item loops
//   - Every PO1 must carry a quantity (PO102) or a unit price (PO104)
//   - SE01 should equal the number of segments in the transaction
//
// =============================================================================

package loops

import (
	"sort"
	"strconv"

	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
)

// CheckLoopContext reports segments that sit outside the loop their
// RequiredIf dependency names.
//
// PARAMETERS:
//   - doc: The reconstructed transaction
//   - anchors: Segment ID to required loop anchor ID
func CheckLoopContext(doc *Document, anchors map[string]string) []validation.ValidationResult {
	if len(anchors) == 0 {
		return nil
	}

	var results []validation.ValidationResult
	check := func(e Entry, enclosing string) {
		want, ok := anchors[e.Segment.ID]
		if !ok || want == enclosing {
			return
		}
		results = append(results, validation.NewError(validation.RuleDependency,
			"Segment %s requires %s in its loop context", e.Segment.ID, want).AtSegment(e.Segment.ID, e.Position))
	}

	for _, e := range doc.Header {
		check(e, "")
	}
	for _, l := range doc.Loops {
		for _, m := range l.Members {
			check(m, l.Anchor.Segment.ID)
		}
	}
	for _, s := range doc.Skipped {
		check(s.Entry, s.Anchor)
	}
	for _, e := range doc.Summary {
		check(e, "")
	}

	sort.SliceStable(results, func(i, j int) bool {
		return *results[i].SegmentPosition < *results[j].SegmentPosition
	})
	return results
}

// CheckBusinessRules runs the transaction-level business rules.
func CheckBusinessRules(doc *Document) []validation.ValidationResult {
	var results []validation.ValidationResult

	lineItems := doc.LoopsOf(KindLineItem)

	// =========================================================================
	// TRANSACTION TOTALS
	// =========================================================================

	if ctt, ok := doc.SummarySegment("CTT"); ok {
		raw := ctt.Segment.Element(1)
		declared, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			// the element pass reports malformed numbers
		case declared == 0:
			r := validation.NewError(validation.RuleBusiness,
				"CTT01 number of line items must be greater than zero").AtSegment("CTT", ctt.Position)
			r.ElementPosition = validation.Position(1)
			r.Value = raw
			results = append(results, r)
		case declared != len(lineItems):
			r := validation.NewError(validation.RuleBusiness,
				"Expected %d line items, found %d", declared, len(lineItems)).AtSegment("CTT", ctt.Position)
			r.ElementPosition = validation.Position(1)
			r.Value = raw
			results = append(results, r)
		}
	}

	// =========================================================================
	// LINE ITEMS
	// =========================================================================

	for _, l := range lineItems {
		anchor := l.Anchor
		if anchor.Segment.ID != "PO1" {
			continue
		}
		if anchor.Segment.Element(2) == "" && anchor.Segment.Element(4) == "" {
			results = append(results, validation.NewError(validation.RuleBusiness,
				"PO1 at position %d must specify quantity or unit price", anchor.Position+1).AtSegment("PO1", anchor.Position))
		}
	}

	// =========================================================================
	// SEGMENT COUNT
	// =========================================================================

	if se, ok := doc.SummarySegment("SE"); ok {
		raw := se.Segment.Element(1)
		if declared, err := strconv.Atoi(raw); err == nil && declared != doc.SegmentCount() {
			r := validation.NewWarning(validation.RuleBusiness,
				"SE01 declares %d segments but the transaction has %d", declared, doc.SegmentCount()).AtSegment("SE", se.Position)
			r.ElementPosition = validation.Position(1)
			r.Value = raw
			results = append(results, r)
		}
	}

	return results
}
