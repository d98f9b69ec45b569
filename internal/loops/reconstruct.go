// =============================================================================
// X12 EDI Validator - Loop Reconstruction
// =============================================================================
//
// Reconstruct groups a transaction's flat segment list into header, loop
// instances and summary in a single forward pass:
//
//   1. Header: everything before the first loop anchor. Terminators met
//      here go straight to the summary.
//   2. Loops: an anchor opens an instance; its member segments are
//      consumed until the next anchor of the same or a later loop kind,
//      a terminator, or the end of input. Anything else inside a loop is
//      skipped and recorded in Document.Skipped.
//   3. Summary: the terminator and everything after it.
//
// Loop kinds are visited in layout order and a closed loop is never
// reopened, so an N1 that shows up between PO1 loops is skipped rather
// than starting a new party loop.
//
// =============================================================================

package loops

import "github.com/ginjaninja78/x12-edi-validator/internal/x12"

// Entry is a segment with its 0-based position in the transaction.
type Entry struct {
	Position int
	Segment  x12.Segment
}

// Loop is one loop instance.
type Loop struct {
	Kind    string
	Anchor  Entry
	Members []Entry
}

// Find returns the members with a segment ID.
func (l *Loop) Find(id string) []Entry {
	var out []Entry
	for _, m := range l.Members {
		if m.Segment.ID == id {
			out = append(out, m)
		}
	}
	return out
}

// Skipped is a segment dropped during grouping.
type Skipped struct {
	Entry

	// Anchor is the anchor ID of the enclosing loop.
	Anchor string
}

// Document is a transaction grouped into loops.
type Document struct {
	TransactionSet string
	Header         []Entry
	Loops          []*Loop
	Summary        []Entry
	Skipped        []Skipped
}

// LoopsOf returns the loop instances of one kind in document order.
func (d *Document) LoopsOf(kind string) []*Loop {
	var out []*Loop
	for _, l := range d.Loops {
		if l.Kind == kind {
			out = append(out, l)
		}
	}
	return out
}

// HeaderSegment returns the first header entry with a segment ID.
func (d *Document) HeaderSegment(id string) (Entry, bool) {
	return firstEntry(d.Header, id)
}

// SummarySegment returns the first summary entry with a segment ID.
func (d *Document) SummarySegment(id string) (Entry, bool) {
	return firstEntry(d.Summary, id)
}

// SegmentCount returns the number of segments the document was built
// from, skipped segments included.
func (d *Document) SegmentCount() int {
	n := len(d.Header) + len(d.Summary) + len(d.Skipped)
	for _, l := range d.Loops {
		n += 1 + len(l.Members)
	}
	return n
}

func firstEntry(entries []Entry, id string) (Entry, bool) {
	for _, e := range entries {
		if e.Segment.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Reconstruct groups segments according to a layout.
//
// PARAMETERS:
//   - segments: The transaction's segments, ST first
//   - layout: The loop layout for the transaction type
//
// RETURNS:
//   - The grouped document. Every input segment ends up in exactly one of
//     Header, a loop, Summary or Skipped.
func Reconstruct(segments []x12.Segment, layout Layout) *Document {
	doc := &Document{TransactionSet: layout.TransactionSet}
	n := len(segments)
	i := 0

	// =========================================================================
	// STEP 1: HEADER
	// =========================================================================

	for i < n {
		id := segments[i].ID
		if layout.stageOf(id) >= 0 {
			break
		}
		if layout.isTerminator(id) {
			doc.Summary = append(doc.Summary, Entry{Position: i, Segment: segments[i]})
		} else {
			doc.Header = append(doc.Header, Entry{Position: i, Segment: segments[i]})
		}
		i++
	}

	// =========================================================================
	// STEP 2: LOOPS
	// =========================================================================

	stage := 0
	for i < n {
		id := segments[i].ID
		if layout.isTerminator(id) {
			break
		}

		next := layout.stageOf(id)
		if next < stage {
			// stray segment with no loop to hold it
			doc.Skipped = append(doc.Skipped, Skipped{Entry: Entry{Position: i, Segment: segments[i]}})
			i++
			continue
		}
		stage = next
		spec := layout.Loops[stage]

		loop := &Loop{Kind: spec.Kind, Anchor: Entry{Position: i, Segment: segments[i]}}
		i++

		for i < n {
			id := segments[i].ID
			if containsID(spec.Members, id) {
				loop.Members = append(loop.Members, Entry{Position: i, Segment: segments[i]})
				i++
				continue
			}
			if layout.stageOf(id) >= stage || layout.isTerminator(id) {
				break
			}
			doc.Skipped = append(doc.Skipped, Skipped{
				Entry:  Entry{Position: i, Segment: segments[i]},
				Anchor: spec.Anchor,
			})
			i++
		}

		doc.Loops = append(doc.Loops, loop)
	}

	// =========================================================================
	// STEP 3: SUMMARY
	// =========================================================================

	for ; i < n; i++ {
		doc.Summary = append(doc.Summary, Entry{Position: i, Segment: segments[i]})
	}

	return doc
}
