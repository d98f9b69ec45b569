package loops

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// ErrWrongTransactionType is returned when a typed view is built from a
// transaction of another type.
var ErrWrongTransactionType = errors.New("wrong transaction type")

// ErrNoLayout is returned for transaction types without a loop layout.
var ErrNoLayout = errors.New("no loop layout")

// Build reconstructs a transaction with the layout registered for its type.
func Build(txn *x12.Transaction) (*Document, error) {
	layout, ok := LayoutFor(txn.TransactionSetID)
	if !ok {
		return nil, fmt.Errorf("%w for transaction type %s", ErrNoLayout, txn.TransactionSetID)
	}
	return Reconstruct(txn.Segments, layout), nil
}

func buildTyped(txn *x12.Transaction, want string) (*Document, error) {
	if txn.TransactionSetID != want {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrWrongTransactionType, want, txn.TransactionSetID)
	}
	return Build(txn)
}

// =============================================================================
// 850 PURCHASE ORDER
// =============================================================================

// PurchaseOrder850 is a grouped 850 transaction.
type PurchaseOrder850 struct {
	*Document
}

// NewPurchaseOrder850 groups an 850 transaction.
func NewPurchaseOrder850(txn *x12.Transaction) (*PurchaseOrder850, error) {
	doc, err := buildTyped(txn, "850")
	if err != nil {
		return nil, err
	}
	return &PurchaseOrder850{Document: doc}, nil
}

// LineItemCount returns the number of PO1 loops.
func (po *PurchaseOrder850) LineItemCount() int {
	return len(po.LoopsOf(KindLineItem))
}

// TotalQuantity sums PO102 over every line item. Unparseable quantities
// are ignored.
func (po *PurchaseOrder850) TotalQuantity() float64 {
	return sumElement(po.LoopsOf(KindLineItem), 2)
}

// PartiesByType returns the party loops whose N101 equals code.
func (po *PurchaseOrder850) PartiesByType(code string) []*Loop {
	return partiesByType(po.Document, code)
}

// =============================================================================
// 810 INVOICE
// =============================================================================

// Invoice810 is a grouped 810 transaction.
type Invoice810 struct {
	*Document
}

// NewInvoice810 groups an 810 transaction.
func NewInvoice810(txn *x12.Transaction) (*Invoice810, error) {
	doc, err := buildTyped(txn, "810")
	if err != nil {
		return nil, err
	}
	return &Invoice810{Document: doc}, nil
}

// LineItemCount returns the number of IT1 loops.
func (inv *Invoice810) LineItemCount() int {
	return len(inv.LoopsOf(KindLineItem))
}

// TotalQuantity sums IT102 over every line item.
func (inv *Invoice810) TotalQuantity() float64 {
	return sumElement(inv.LoopsOf(KindLineItem), 2)
}

// PartiesByType returns the party loops whose N101 equals code.
func (inv *Invoice810) PartiesByType(code string) []*Loop {
	return partiesByType(inv.Document, code)
}

// =============================================================================
// HELPERS
// =============================================================================

func partiesByType(doc *Document, code string) []*Loop {
	var out []*Loop
	for _, l := range doc.LoopsOf(KindParty) {
		if l.Anchor.Segment.Element(1) == code {
			out = append(out, l)
		}
	}
	return out
}

func sumElement(loops []*Loop, position int) float64 {
	total := 0.0
	for _, l := range loops {
		if v, err := strconv.ParseFloat(l.Anchor.Segment.Element(position), 64); err == nil {
			total += v
		}
	}
	return total
}

// ExtendedAmount returns the sum of quantity times unit price (positions 2
// and 4 of the anchor) over the line items of a document.
func ExtendedAmount(doc *Document) float64 {
	total := 0.0
	for _, l := range doc.LoopsOf(KindLineItem) {
		qty, errQty := strconv.ParseFloat(l.Anchor.Segment.Element(2), 64)
		price, errPrice := strconv.ParseFloat(l.Anchor.Segment.Element(4), 64)
		if errQty == nil && errPrice == nil {
			total += qty * price
		}
	}
	return total
}
