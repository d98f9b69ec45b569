// =============================================================================
// X12 EDI Validator - Transaction Set Schemas
// =============================================================================
//
// A TransactionSetSchema is the ordered list of segments a transaction type
// may contain in one release. Each SegmentSchema carries:
//   - Requirement: mandatory segments must appear somewhere
//   - MaxUse: occurrence limit per transaction, or per loop for loop
//     members (0 = unlimited)
//   - Level: header (0), detail (1) or summary (2)
//   - Dependencies: ordering and co-occurrence rules
//
// A segment ID may appear more than once (CUR at header and line level).
// The structure pass resolves each occurrence with LookupAt: the first
// entry at or after the running hierarchy level, falling back to the first
// entry with the ID. Usage is counted per entry, and the count of a loop
// member restarts at every occurrence of its anchor.
//
// =============================================================================

package schema

import (
	"fmt"

	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// =============================================================================
// SEGMENT SCHEMA
// =============================================================================

// Level is the hierarchy area of a segment.
type Level int

const (
	LevelHeader  Level = 0
	LevelDetail  Level = 1
	LevelSummary Level = 2
)

func (l Level) String() string {
	switch l {
	case LevelHeader:
		return "header"
	case LevelDetail:
		return "detail"
	case LevelSummary:
		return "summary"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// DependencyKind is the type of an inter-segment rule.
type DependencyKind string

const (
	// MustFollow: the dependency must appear somewhere before the segment.
	MustFollow DependencyKind = "must_follow"

	// MustPrecede: the dependency must appear somewhere after the segment.
	MustPrecede DependencyKind = "must_precede"

	// MutuallyExclusive: the dependency must not appear in the transaction.
	MutuallyExclusive DependencyKind = "mutually_exclusive"

	// RequiredIf: the segment is only valid inside a loop anchored by the
	// dependency. Checked after loop reconstruction.
	RequiredIf DependencyKind = "required_if"
)

// Dependency is one inter-segment rule.
type Dependency struct {
	Kind    DependencyKind
	Segment string
}

// SegmentSchema describes how a segment is used in a transaction set.
type SegmentSchema struct {
	ID           string
	Name         string
	Requirement  validation.Requirement
	MaxUse       int
	Level        Level
	Dependencies []Dependency
}

// LoopAnchor returns the segment whose loop this segment belongs to, or ""
// when it has no RequiredIf dependency.
func (s SegmentSchema) LoopAnchor() string {
	for _, d := range s.Dependencies {
		if d.Kind == RequiredIf {
			return d.Segment
		}
	}
	return ""
}

func (s SegmentSchema) clone() SegmentSchema {
	s.Dependencies = append([]Dependency(nil), s.Dependencies...)
	return s
}

// TransactionSetSchema is the segment list for one transaction type and
// release.
type TransactionSetSchema struct {
	Type     string
	Version  x12.Version
	Name     string
	Segments []SegmentSchema
}

// Lookup returns the first segment schema with the given ID.
func (t *TransactionSetSchema) Lookup(segmentID string) (*SegmentSchema, bool) {
	for i := range t.Segments {
		if t.Segments[i].ID == segmentID {
			return &t.Segments[i], true
		}
	}
	return nil, false
}

// LookupAt returns the index of the entry in effect for segmentID when the
// running hierarchy level is level.
func (t *TransactionSetSchema) LookupAt(segmentID string, level Level) (int, bool) {
	first := -1
	for i := range t.Segments {
		if t.Segments[i].ID != segmentID {
			continue
		}
		if first < 0 {
			first = i
		}
		if t.Segments[i].Level >= level {
			return i, true
		}
	}
	return first, first >= 0
}

func (t *TransactionSetSchema) clone() *TransactionSetSchema {
	c := *t
	c.Segments = make([]SegmentSchema, len(t.Segments))
	for i, s := range t.Segments {
		c.Segments[i] = s.clone()
	}
	return &c
}

// =============================================================================
// STANDARD TRANSACTION SETS
// =============================================================================

func seg(id, name string, req validation.Requirement, maxUse int, level Level, deps ...Dependency) SegmentSchema {
	return SegmentSchema{ID: id, Name: name, Requirement: req, MaxUse: maxUse, Level: level, Dependencies: deps}
}

func follows(id string) Dependency  { return Dependency{Kind: MustFollow, Segment: id} }
func precedes(id string) Dependency { return Dependency{Kind: MustPrecede, Segment: id} }
func inLoop(id string) Dependency   { return Dependency{Kind: RequiredIf, Segment: id} }

const (
	mandatory = validation.Mandatory
	optional  = validation.Optional
)

// purchaseOrder850 is the reference transaction set.
func purchaseOrder850(version x12.Version) *TransactionSetSchema {
	segments := []SegmentSchema{
		seg("ST", "Transaction Set Header", mandatory, 1, LevelHeader),
		seg("BEG", "Beginning Segment for Purchase Order", mandatory, 1, LevelHeader, follows("ST")),
		seg("CUR", "Currency", optional, 1, LevelHeader),
		seg("REF", "Reference Identification", optional, 0, LevelHeader),
		seg("PER", "Administrative Communications Contact", optional, 3, LevelHeader),
	}
	if version >= x12.Version5010 {
		segments = append(segments, seg("PWK", "Paperwork", optional, 25, LevelHeader))
	}
	segments = append(segments,
		seg("TD5", "Carrier Details", optional, 12, LevelHeader),
		seg("DTM", "Date/Time Reference", optional, 10, LevelHeader),

		seg("N1", "Name", optional, 200, LevelDetail),
		seg("N2", "Additional Name Information", optional, 2, LevelDetail, inLoop("N1")),
		seg("N3", "Address Information", optional, 2, LevelDetail, inLoop("N1")),
		seg("N4", "Geographic Location", optional, 1, LevelDetail, inLoop("N1")),

		seg("PO1", "Baseline Item Data", mandatory, 100000, LevelDetail),
		seg("CUR", "Currency", optional, 1, LevelDetail, inLoop("PO1")),
		seg("PID", "Product/Item Description", optional, 1000, LevelDetail, inLoop("PO1")),
		seg("PO4", "Item Physical Details", optional, 0, LevelDetail, inLoop("PO1")),
		seg("SAC", "Service, Promotion, Allowance, or Charge Information", optional, 0, LevelDetail, inLoop("PO1")),

		seg("CTT", "Transaction Totals", optional, 1, LevelSummary),
		seg("SE", "Transaction Set Trailer", mandatory, 1, LevelSummary),
	)

	return &TransactionSetSchema{Type: "850", Version: version, Name: "Purchase Order", Segments: segments}
}

func invoice810(version x12.Version) *TransactionSetSchema {
	return &TransactionSetSchema{
		Type:    "810",
		Version: version,
		Name:    "Invoice",
		Segments: []SegmentSchema{
			seg("ST", "Transaction Set Header", mandatory, 1, LevelHeader),
			seg("BIG", "Beginning Segment for Invoice", mandatory, 1, LevelHeader, follows("ST")),
			seg("CUR", "Currency", optional, 1, LevelHeader),
			seg("REF", "Reference Identification", optional, 12, LevelHeader),
			seg("PER", "Administrative Communications Contact", optional, 3, LevelHeader),
			seg("DTM", "Date/Time Reference", optional, 10, LevelHeader),

			seg("N1", "Name", optional, 200, LevelDetail),
			seg("N2", "Additional Name Information", optional, 2, LevelDetail, inLoop("N1")),
			seg("N3", "Address Information", optional, 2, LevelDetail, inLoop("N1")),
			seg("N4", "Geographic Location", optional, 1, LevelDetail, inLoop("N1")),

			seg("IT1", "Baseline Item Data (Invoice)", optional, 200000, LevelDetail),
			seg("PID", "Product/Item Description", optional, 1000, LevelDetail, inLoop("IT1")),
			seg("SAC", "Service, Promotion, Allowance, or Charge Information", optional, 0, LevelDetail, inLoop("IT1")),

			seg("TDS", "Total Monetary Value Summary", mandatory, 1, LevelSummary),
			seg("CTT", "Transaction Totals", optional, 1, LevelSummary, follows("TDS")),
			seg("SE", "Transaction Set Trailer", mandatory, 1, LevelSummary),
		},
	}
}

func functionalAck997(version x12.Version) *TransactionSetSchema {
	return &TransactionSetSchema{
		Type:    "997",
		Version: version,
		Name:    "Functional Acknowledgment",
		Segments: []SegmentSchema{
			seg("ST", "Transaction Set Header", mandatory, 1, LevelHeader),
			seg("AK1", "Functional Group Response Header", mandatory, 1, LevelHeader, follows("ST"), precedes("AK9")),

			seg("AK2", "Transaction Set Response Header", optional, 0, LevelDetail, follows("AK1")),
			seg("AK3", "Data Segment Note", optional, 0, LevelDetail, inLoop("AK2")),
			seg("AK4", "Data Element Note", optional, 0, LevelDetail, inLoop("AK2")),
			seg("AK5", "Transaction Set Response Trailer", optional, 0, LevelDetail, inLoop("AK2")),

			seg("AK9", "Functional Group Response Trailer", mandatory, 1, LevelSummary, follows("AK1")),
			seg("SE", "Transaction Set Trailer", mandatory, 1, LevelSummary),
		},
	}
}

// standardTransactions returns every built-in transaction set for a release.
func standardTransactions(version x12.Version) []*TransactionSetSchema {
	return []*TransactionSetSchema{
		purchaseOrder850(version),
		invoice810(version),
		functionalAck997(version),
	}
}
