package loops

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

func seg(id string, elements ...string) x12.Segment {
	return x12.NewSegment(id, elements...)
}

func transaction(id string, segments ...x12.Segment) *x12.Transaction {
	return &x12.Transaction{TransactionSetID: id, ControlNumber: "0001", Segments: segments}
}

func purchaseOrder() *x12.Transaction {
	return transaction("850",
		seg("ST", "850", "0001"),
		seg("BEG", "00", "SA", "PO123", "", "20210101"),
		seg("REF", "DP", "042"),
		seg("N1", "BY", "ACME"),
		seg("N3", "1 MAIN ST"),
		seg("N4", "SPRINGFIELD", "IL", "62701"),
		seg("N1", "ST", "WAREHOUSE"),
		seg("PO1", "1", "10", "EA", "9.99", "", "VP", "ITEM1"),
		seg("PID", "F", "", "", "", "WIDGET"),
		seg("PO1", "2", "5", "EA", "2.50", "", "VP", "ITEM2"),
		seg("CTT", "2"),
		seg("SE", "12", "0001"),
	)
}

func TestReconstruct_PurchaseOrder(t *testing.T) {
	po, err := NewPurchaseOrder850(purchaseOrder())
	require.NoError(t, err)

	require.Len(t, po.Header, 3)
	assert.Equal(t, "REF", po.Header[2].Segment.ID)

	parties := po.LoopsOf(KindParty)
	require.Len(t, parties, 2)
	assert.Len(t, parties[0].Members, 2)
	assert.Empty(t, parties[1].Members)

	items := po.LoopsOf(KindLineItem)
	require.Len(t, items, 2)
	assert.Equal(t, 7, items[0].Anchor.Position)
	assert.Len(t, items[0].Find("PID"), 1)

	require.Len(t, po.Summary, 2)
	assert.Equal(t, "CTT", po.Summary[0].Segment.ID)
	assert.Empty(t, po.Skipped)

	assert.Equal(t, 2, po.LineItemCount())
	assert.InDelta(t, 15.0, po.TotalQuantity(), 0.0001)
	assert.InDelta(t, 112.4, ExtendedAmount(po.Document), 0.0001)
	assert.Len(t, po.PartiesByType("BY"), 1)
	assert.Empty(t, po.PartiesByType("SU"))
}

func TestReconstruct_Conservation(t *testing.T) {
	txn := purchaseOrder()
	doc, err := Build(txn)
	require.NoError(t, err)
	assert.Equal(t, len(txn.Segments), doc.SegmentCount())
}

func TestReconstruct_SkipsUnknownInsideLoop(t *testing.T) {
	doc := Reconstruct([]x12.Segment{
		seg("ST", "850", "0001"),
		seg("BEG", "00", "SA", "PO1", "", "20210101"),
		seg("PO1", "1", "1", "EA"),
		seg("ZZZ", "X"),
		seg("N1", "BY", "LATE"),
		seg("PID", "F"),
		seg("CTT", "1"),
		seg("SE", "8", "0001"),
	}, mustLayout(t, "850"))

	require.Len(t, doc.Loops, 1)
	assert.Len(t, doc.Loops[0].Members, 1)

	require.Len(t, doc.Skipped, 2)
	assert.Equal(t, "ZZZ", doc.Skipped[0].Segment.ID)
	assert.Equal(t, 3, doc.Skipped[0].Position)
	assert.Equal(t, "PO1", doc.Skipped[0].Anchor)
	assert.Equal(t, "N1", doc.Skipped[1].Segment.ID, "closed loop kinds are not reopened")
	assert.Equal(t, 8, doc.SegmentCount())
}

func TestReconstruct_NoLoops(t *testing.T) {
	inv, err := NewInvoice810(transaction("810",
		seg("ST", "810", "0001"),
		seg("BIG", "20230101", "INV-001"),
		seg("SE", "3", "0001"),
	))
	require.NoError(t, err)

	assert.Len(t, inv.Header, 2)
	assert.Empty(t, inv.Loops)
	require.Len(t, inv.Summary, 1)
	assert.Equal(t, 0, inv.LineItemCount())
}

func TestReconstruct_Invoice(t *testing.T) {
	inv, err := NewInvoice810(transaction("810",
		seg("ST", "810", "0001"),
		seg("BIG", "20230101", "INV-001"),
		seg("N1", "BT", "ACME"),
		seg("IT1", "1", "3", "EA", "4.00"),
		seg("PID", "F", "", "", "", "WIDGET"),
		seg("IT1", "2", "1", "EA", "10.00"),
		seg("TDS", "2200"),
		seg("CTT", "2"),
		seg("SE", "9", "0001"),
	))
	require.NoError(t, err)

	assert.Equal(t, 2, inv.LineItemCount())
	assert.InDelta(t, 4.0, inv.TotalQuantity(), 0.0001)
	assert.Len(t, inv.PartiesByType("BT"), 1)
	require.Len(t, inv.Summary, 3)
	assert.Equal(t, "TDS", inv.Summary[0].Segment.ID)
}

func TestReconstruct_Acknowledgment(t *testing.T) {
	doc, err := Build(transaction("997",
		seg("ST", "997", "0001"),
		seg("AK1", "PO", "1"),
		seg("AK2", "850", "0001"),
		seg("AK5", "A"),
		seg("AK2", "850", "0002"),
		seg("AK3", "BEG", "2"),
		seg("AK4", "1", "353", "7", "99"),
		seg("AK5", "R"),
		seg("AK9", "P", "2", "2", "1"),
		seg("SE", "10", "0001"),
	))
	require.NoError(t, err)

	responses := doc.LoopsOf(KindTransactionResponse)
	require.Len(t, responses, 2)
	assert.Len(t, responses[1].Members, 3)
	assert.Len(t, doc.Summary, 2)
}

func TestTypedViews_WrongType(t *testing.T) {
	_, err := NewPurchaseOrder850(transaction("810", seg("ST", "810", "0001")))
	assert.ErrorIs(t, err, ErrWrongTransactionType)

	_, err = Build(transaction("856", seg("ST", "856", "0001")))
	assert.ErrorIs(t, err, ErrNoLayout)
}

func TestCheckBusinessRules_LineItemCountMismatch(t *testing.T) {
	doc := Reconstruct([]x12.Segment{
		seg("ST", "850", "0001"),
		seg("BEG", "00", "SA", "PO123", "", "20210101"),
		seg("PO1", "1", "10", "EA", "9.99"),
		seg("CTT", "2"),
		seg("SE", "5", "0001"),
	}, mustLayout(t, "850"))

	results := CheckBusinessRules(doc)
	require.Len(t, results, 1)
	assert.Equal(t, validation.SeverityError, results[0].Severity)
	assert.Equal(t, "Expected 2 line items, found 1", results[0].Message)
	assert.Equal(t, "CTT", results[0].SegmentID)
	assert.Equal(t, 3, *results[0].SegmentPosition)
}

func TestCheckBusinessRules(t *testing.T) {
	tests := []struct {
		name     string
		segments []x12.Segment
		want     []string
	}{
		{
			name: "compliant",
			segments: []x12.Segment{
				seg("ST", "850", "0001"), seg("PO1", "1", "10"), seg("CTT", "1"), seg("SE", "4", "0001"),
			},
		},
		{
			name: "zero line items declared",
			segments: []x12.Segment{
				seg("ST", "850", "0001"), seg("CTT", "0"), seg("SE", "3", "0001"),
			},
			want: []string{"CTT01 number of line items must be greater than zero"},
		},
		{
			name: "line item without quantity or price",
			segments: []x12.Segment{
				seg("ST", "850", "0001"), seg("PO1", "1", "", "EA"), seg("CTT", "1"), seg("SE", "4", "0001"),
			},
			want: []string{"PO1 at position 2 must specify quantity or unit price"},
		},
		{
			name: "segment count",
			segments: []x12.Segment{
				seg("ST", "850", "0001"), seg("PO1", "1", "10"), seg("SE", "9", "0001"),
			},
			want: []string{"SE01 declares 9 segments but the transaction has 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := CheckBusinessRules(Reconstruct(tt.segments, mustLayout(t, "850")))
			var got []string
			for _, r := range results {
				got = append(got, r.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCheckLoopContext(t *testing.T) {
	anchors := map[string]string{"PID": "PO1", "N3": "N1"}

	doc := Reconstruct([]x12.Segment{
		seg("ST", "850", "0001"),
		seg("PID", "F"),
		seg("N1", "BY", "ACME"),
		seg("N3", "1 MAIN ST"),
		seg("PO1", "1", "10"),
		seg("PID", "F"),
		seg("N3", "STRAY"),
		seg("SE", "8", "0001"),
	}, mustLayout(t, "850"))

	results := CheckLoopContext(doc, anchors)
	require.Len(t, results, 2)
	assert.Equal(t, "Segment PID requires PO1 in its loop context", results[0].Message)
	assert.Equal(t, 1, *results[0].SegmentPosition)
	assert.Equal(t, "Segment N3 requires N1 in its loop context", results[1].Message)
	assert.Equal(t, 6, *results[1].SegmentPosition)

	assert.Nil(t, CheckLoopContext(doc, nil))
}

func TestRegisterLayout(t *testing.T) {
	RegisterLayout(Layout{
		TransactionSet: "856",
		Loops:          []LoopLayout{{Kind: "hierarchy", Anchor: "HL", Members: []string{"LIN", "SN1"}}},
		Terminators:    []string{"CTT", "SE"},
	})

	doc, err := Build(transaction("856",
		seg("ST", "856", "0001"),
		seg("BSN", "00", "SHIP1"),
		seg("HL", "1", "", "S"),
		seg("HL", "2", "1", "I"),
		seg("LIN", "", "VP", "ITEM1"),
		seg("SE", "6", "0001"),
	))
	require.NoError(t, err)
	assert.Len(t, doc.LoopsOf("hierarchy"), 2)
}

func mustLayout(t *testing.T, transactionSet string) Layout {
	t.Helper()
	l, ok := LayoutFor(transactionSet)
	require.True(t, ok)
	return l
}
