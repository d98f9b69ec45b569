// =============================================================================
// X12 EDI Validator - Loop Layouts
// =============================================================================
//
// A Layout tells the reconstructor how a transaction type groups its
// segments:
//   - Loops: loop kinds in document order, each with an anchor segment
//     that opens an instance and the member segments it may contain
//   - Terminators: summary segments that close the last loop
//
// CUSTOMIZATION:
//   Register additional transaction types with RegisterLayout before any
//   document is parsed.
//
// =============================================================================

package loops

import "sync"

// Loop kinds used by the built-in layouts.
const (
	KindParty               = "party"
	KindLineItem            = "line_item"
	KindTransactionResponse = "transaction_response"
)

// LoopLayout describes one loop kind.
type LoopLayout struct {
	Kind    string
	Anchor  string
	Members []string
}

// Layout describes how one transaction type is grouped into loops.
type Layout struct {
	TransactionSet string
	Loops          []LoopLayout
	Terminators    []string
}

// stageOf returns the index of the loop kind anchored by id, or -1.
func (l Layout) stageOf(id string) int {
	for i, loop := range l.Loops {
		if loop.Anchor == id {
			return i
		}
	}
	return -1
}

func (l Layout) isTerminator(id string) bool {
	return containsID(l.Terminators, id)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

var (
	layoutsMu sync.RWMutex
	layouts   = map[string]Layout{
		"850": {
			TransactionSet: "850",
			Loops: []LoopLayout{
				{Kind: KindParty, Anchor: "N1", Members: []string{"N2", "N3", "N4", "PER", "REF", "DTM"}},
				{Kind: KindLineItem, Anchor: "PO1", Members: []string{"PID", "CUR", "SAC", "DTM", "REF", "TD5", "PO4"}},
			},
			Terminators: []string{"CTT", "SE"},
		},
		"810": {
			TransactionSet: "810",
			Loops: []LoopLayout{
				{Kind: KindParty, Anchor: "N1", Members: []string{"N2", "N3", "N4", "REF", "PER"}},
				{Kind: KindLineItem, Anchor: "IT1", Members: []string{"PID", "REF", "DTM", "SAC"}},
			},
			Terminators: []string{"TDS", "CTT", "SE"},
		},
		"997": {
			TransactionSet: "997",
			Loops: []LoopLayout{
				{Kind: KindTransactionResponse, Anchor: "AK2", Members: []string{"AK3", "AK4", "AK5"}},
			},
			Terminators: []string{"AK9", "SE"},
		},
	}
)

// LayoutFor returns the loop layout of a transaction type.
func LayoutFor(transactionSet string) (Layout, bool) {
	layoutsMu.RLock()
	defer layoutsMu.RUnlock()
	l, ok := layouts[transactionSet]
	return l, ok
}

// RegisterLayout adds or replaces the layout of a transaction type.
func RegisterLayout(l Layout) {
	layoutsMu.Lock()
	defer layoutsMu.Unlock()
	layouts[l.TransactionSet] = l
}
