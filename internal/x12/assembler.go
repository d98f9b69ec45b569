// =============================================================================
// X12 EDI Validator - Interchange Assembler
// =============================================================================
//
// Assemble folds a flat token stream into the envelope tree. It is a small
// state machine with at most one open group and one open transaction:
//
//   GS  -> close any open transaction and group, open a new group
//   ST  -> close any open transaction, open a new one
//   SE  -> append to the open transaction, close it into the open group
//   GE  -> close any open transaction, attach the trailer, close the group
//   IEA -> close everything, record the interchange trailer
//   any other segment -> append to the open transaction
//
// Missing trailers never lose data: open containers are flushed at the end
// of input. A segment with no open transaction to hold it is an orphan.
//
// =============================================================================

package x12

import (
	"fmt"
)

// AssembleOptions controls orphan handling.
type AssembleOptions struct {
	// Strict turns orphan segments into a hard ErrOrphanSegment failure.
	// Otherwise they are collected on InterchangeControl.Orphans.
	Strict bool
}

// assembler holds the open containers while walking the stream.
type assembler struct {
	opts  AssembleOptions
	ic    *InterchangeControl
	group *FunctionalGroup
	txn   *Transaction
}

// Assemble builds the envelope tree from a token stream.
//
// PARAMETERS:
//   - stream: Output of Tokenize; Segments[0] must be the ISA
//   - opts: Orphan handling
//
// RETURNS:
//   - *InterchangeControl: The assembled tree
//   - error: A *ParseError wrapping ErrMissingControlField or ErrOrphanSegment
func Assemble(stream *TokenStream, opts AssembleOptions) (*InterchangeControl, error) {
	if stream == nil || len(stream.Segments) == 0 {
		return nil, &ParseError{Position: 0, Detail: "token stream is empty", Err: ErrEmptyInput}
	}

	header := stream.Segments[0]
	if header.Kind != KindInterchangeHeader {
		return nil, &ParseError{Position: 0, SegmentID: header.ID, Detail: "stream does not start with ISA", Err: ErrInvalidHeader}
	}

	a := &assembler{
		opts: opts,
		ic: &InterchangeControl{
			Header:     header,
			Version:    VersionFromISA(header.Element(12)),
			Delimiters: stream.Delimiters,
		},
	}

	for pos := 1; pos < len(stream.Segments); pos++ {
		if err := a.accept(pos, stream.Segments[pos]); err != nil {
			return nil, err
		}
	}

	a.closeTransaction()
	a.closeGroup()
	return a.ic, nil
}

func (a *assembler) accept(pos int, seg Segment) error {
	switch seg.Kind {
	case KindGroupHeader:
		a.closeTransaction()
		a.closeGroup()
		a.group = &FunctionalGroup{Header: seg}

	case KindTransactionHeader:
		if len(seg.Elements) < 2 || seg.Element(1) == "" || seg.Element(2) == "" {
			return &ParseError{
				Position:  pos,
				SegmentID: seg.ID,
				Detail:    "ST requires a transaction set identifier and control number",
				Err:       ErrMissingControlField,
			}
		}
		a.closeTransaction()
		a.txn = &Transaction{
			TransactionSetID: seg.Element(1),
			ControlNumber:    seg.Element(2),
			Segments:         []Segment{seg},
			StreamPosition:   pos,
		}

	case KindTransactionTrailer:
		if a.txn == nil {
			return a.orphan(pos, seg)
		}
		a.txn.Segments = append(a.txn.Segments, seg)
		a.closeTransaction()

	case KindGroupTrailer:
		a.closeTransaction()
		if a.group == nil {
			return a.orphan(pos, seg)
		}
		trailer := seg
		a.group.Trailer = &trailer
		a.closeGroup()

	case KindInterchangeTrailer:
		a.closeTransaction()
		a.closeGroup()
		// The last trailer in the input wins.
		trailer := seg
		a.ic.Trailer = &trailer

	case KindInterchangeHeader:
		// A second interchange in one input is not supported.
		return a.orphan(pos, seg)

	default:
		if a.txn == nil {
			return a.orphan(pos, seg)
		}
		a.txn.Segments = append(a.txn.Segments, seg)
	}
	return nil
}

// closeTransaction moves the open transaction into the open group. A
// transaction that arrived without a GS gets a headerless group so its data
// is kept and the structural check can report the missing envelope.
func (a *assembler) closeTransaction() {
	if a.txn == nil {
		return
	}
	if a.group == nil {
		a.group = &FunctionalGroup{}
	}
	a.group.Transactions = append(a.group.Transactions, a.txn)
	a.txn = nil
}

func (a *assembler) closeGroup() {
	if a.group == nil {
		return
	}
	a.ic.FunctionalGroups = append(a.ic.FunctionalGroups, a.group)
	a.group = nil
}

func (a *assembler) orphan(pos int, seg Segment) error {
	if a.opts.Strict {
		return &ParseError{
			Position:  pos,
			SegmentID: seg.ID,
			Detail:    fmt.Sprintf("segment %s has no enclosing transaction", seg.ID),
			Err:       ErrOrphanSegment,
		}
	}
	a.ic.Orphans = append(a.ic.Orphans, Orphan{Position: pos, Segment: seg})
	return nil
}
