// =============================================================================
// X12 EDI Validator - Core Data Model
// =============================================================================
//
// This file defines the parse-time entities produced by the tokenizer and the
// interchange assembler:
//
//   InterchangeControl (ISA ... IEA)
//   └── FunctionalGroup (GS ... GE)
//       └── Transaction (ST ... SE)
//           └── Segment (ID + ordered elements)
//
// Segments are immutable once produced by the tokenizer. Containers own their
// children and are built fresh for every parse call.
//
// =============================================================================

package x12

import (
	"strings"
)

// =============================================================================
// DELIMITERS
// =============================================================================

// Delimiters holds the three separator characters in effect for a document.
type Delimiters struct {
	// Element separates elements within a segment (default '*').
	Element rune

	// Segment terminates a segment (default '~').
	Segment rune

	// SubElement separates components inside a composite element (default '>').
	SubElement rune
}

// DefaultDelimiters returns the separators assumed before the interchange
// header has been read.
func DefaultDelimiters() Delimiters {
	return Delimiters{
		Element:    '*',
		Segment:    '~',
		SubElement: '>',
	}
}

// Validate checks that all three separators are set and pairwise distinct.
func (d Delimiters) Validate() error {
	if d.Element == 0 || d.Segment == 0 || d.SubElement == 0 {
		return ErrInvalidDelimiters
	}
	if d.Element == d.Segment || d.Element == d.SubElement || d.Segment == d.SubElement {
		return ErrInvalidDelimiters
	}
	return nil
}

// =============================================================================
// SEGMENT KINDS
// =============================================================================

// SegmentKind classifies a segment ID once, at tokenization time, so later
// stages dispatch on a small enum instead of re-matching strings.
type SegmentKind int

const (
	KindData SegmentKind = iota
	KindInterchangeHeader
	KindInterchangeTrailer
	KindGroupHeader
	KindGroupTrailer
	KindTransactionHeader
	KindTransactionTrailer
)

var controlKinds = map[string]SegmentKind{
	"ISA": KindInterchangeHeader,
	"IEA": KindInterchangeTrailer,
	"GS":  KindGroupHeader,
	"GE":  KindGroupTrailer,
	"ST":  KindTransactionHeader,
	"SE":  KindTransactionTrailer,
}

// KindOf returns the control kind for a segment ID.
func KindOf(id string) SegmentKind {
	if kind, ok := controlKinds[id]; ok {
		return kind
	}
	return KindData
}

// =============================================================================
// SEGMENT
// =============================================================================

// Segment is one delimited record: an identifier plus its elements.
// An empty string is an absent-but-placeheld element.
type Segment struct {
	// ID is the segment identifier (e.g. "BEG").
	ID string

	// Elements are the element values in order. Elements[0] is position 1.
	Elements []string

	// Kind is the control classification of ID.
	Kind SegmentKind
}

// NewSegment builds a segment and classifies its kind.
func NewSegment(id string, elements ...string) Segment {
	return Segment{
		ID:       id,
		Elements: elements,
		Kind:     KindOf(id),
	}
}

// Element returns the value at a 1-based position, or "" if absent.
func (s Segment) Element(position int) string {
	if position < 1 || position > len(s.Elements) {
		return ""
	}
	return s.Elements[position-1]
}

// HasElement reports whether the position exists and is non-empty.
func (s Segment) HasElement(position int) bool {
	return s.Element(position) != ""
}

// Format renders the segment with the given delimiters, without a terminator.
func (s Segment) Format(d Delimiters) string {
	var b strings.Builder
	b.WriteString(s.ID)
	for _, e := range s.Elements {
		b.WriteRune(d.Element)
		b.WriteString(e)
	}
	return b.String()
}

// String renders the segment with the default delimiters.
func (s Segment) String() string {
	return s.Format(DefaultDelimiters())
}

// FormatSegments renders segments as a delimited document, one terminator
// after every segment.
func FormatSegments(segments []Segment, d Delimiters) string {
	var b strings.Builder
	for _, s := range segments {
		b.WriteString(s.Format(d))
		b.WriteRune(d.Segment)
	}
	return b.String()
}

// =============================================================================
// TRANSACTION
// =============================================================================

// Transaction is one ST ... SE business document.
type Transaction struct {
	// TransactionSetID is ST01 (e.g. "850").
	TransactionSetID string

	// ControlNumber is ST02.
	ControlNumber string

	// Segments holds every segment from ST to SE inclusive.
	Segments []Segment

	// StreamPosition is the index of the ST segment in the token stream.
	StreamPosition int
}

// Header returns the ST segment.
func (t *Transaction) Header() Segment {
	if len(t.Segments) == 0 {
		return Segment{}
	}
	return t.Segments[0]
}

// Trailer returns the SE segment when the transaction was closed by one.
func (t *Transaction) Trailer() (Segment, bool) {
	if len(t.Segments) < 2 {
		return Segment{}, false
	}
	last := t.Segments[len(t.Segments)-1]
	return last, last.Kind == KindTransactionTrailer
}

// SegmentIDs returns the ordered segment IDs of the transaction.
func (t *Transaction) SegmentIDs() []string {
	ids := make([]string, len(t.Segments))
	for i, s := range t.Segments {
		ids[i] = s.ID
	}
	return ids
}

// =============================================================================
// FUNCTIONAL GROUP
// =============================================================================

// FunctionalGroup is a GS ... GE batch of transactions.
type FunctionalGroup struct {
	// Header is the GS segment. It is zero when transactions arrived
	// without an opening GS.
	Header Segment

	// Trailer is the GE segment, nil when the feed ended without one.
	Trailer *Segment

	// Transactions are the transactions in the group, in order.
	Transactions []*Transaction
}

// ControlNumber returns GS06.
func (g *FunctionalGroup) ControlNumber() string {
	return g.Header.Element(6)
}

// SegmentCount counts the group's own segments plus all transaction segments.
func (g *FunctionalGroup) SegmentCount() int {
	count := 0
	if g.Header.ID != "" {
		count++
	}
	if g.Trailer != nil {
		count++
	}
	for _, t := range g.Transactions {
		count += len(t.Segments)
	}
	return count
}

// =============================================================================
// INTERCHANGE
// =============================================================================

// Orphan is a segment that arrived with no open container to hold it.
type Orphan struct {
	// Position is the index of the segment in the token stream.
	Position int

	Segment Segment
}

// InterchangeControl is the root of a parsed document.
type InterchangeControl struct {
	// Header is the ISA segment.
	Header Segment

	// Trailer is the IEA segment, nil when absent.
	Trailer *Segment

	// Version is the protocol version detected from ISA12.
	Version Version

	// Delimiters are the separators discovered from the header.
	Delimiters Delimiters

	// FunctionalGroups are the groups in document order.
	FunctionalGroups []*FunctionalGroup

	// Orphans are segments that were dropped from the tree.
	Orphans []Orphan
}

// ControlNumber returns ISA13.
func (ic *InterchangeControl) ControlNumber() string {
	return ic.Header.Element(13)
}

// Transactions returns every transaction across all groups, in order.
func (ic *InterchangeControl) Transactions() []*Transaction {
	var all []*Transaction
	for _, g := range ic.FunctionalGroups {
		all = append(all, g.Transactions...)
	}
	return all
}
