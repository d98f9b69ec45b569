package schema

import (
	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// ElementRef places a dictionary element at one position of a segment.
type ElementRef struct {
	ElementID   int
	Requirement validation.Requirement
}

// SegmentLayout is the ordered element list of one segment in one release.
// Elements[0] is position 1.
type SegmentLayout struct {
	ID       string
	Name     string
	Elements []ElementRef
}

func mand(id int) ElementRef { return ElementRef{ElementID: id, Requirement: validation.Mandatory} }
func opt(id int) ElementRef { return ElementRef{ElementID: id, Requirement: validation.Optional} }
func cond(id int) ElementRef { return ElementRef{ElementID: id, Requirement: validation.Conditional} }

// standardLayouts returns the segment layouts for a release.
func standardLayouts(version x12.Version) []SegmentLayout {
	layouts := []SegmentLayout{
		{ID: "ST", Name: "Transaction Set Header", Elements: []ElementRef{mand(143), mand(329), opt(1705)}},
		{ID: "SE", Name: "Transaction Set Trailer", Elements: []ElementRef{mand(96), mand(329)}},

		{ID: "BEG", Name: "Beginning Segment for Purchase Order", Elements: []ElementRef{mand(353), mand(92), mand(324), opt(328), mand(373)}},
		{ID: "BIG", Name: "Beginning Segment for Invoice", Elements: []ElementRef{mand(373), mand(76), opt(373), opt(324)}},
		{ID: "CUR", Name: "Currency", Elements: []ElementRef{mand(98), mand(100), opt(280)}},
		{ID: "REF", Name: "Reference Identification", Elements: []ElementRef{mand(128), cond(127), cond(352)}},
		{ID: "PER", Name: "Administrative Communications Contact", Elements: []ElementRef{mand(366), opt(93), cond(365), cond(364)}},
		{ID: "DTM", Name: "Date/Time Reference", Elements: []ElementRef{mand(374), cond(373), opt(337)}},
		{ID: "TD5", Name: "Carrier Details (Routing Sequence/Transit Time)", Elements: []ElementRef{opt(133), cond(66), cond(67), cond(91), cond(387)}},

		{ID: "N1", Name: "Name", Elements: []ElementRef{mand(98), cond(93), cond(66), cond(67)}},
		{ID: "N2", Name: "Additional Name Information", Elements: []ElementRef{mand(93), opt(93)}},
		{ID: "N3", Name: "Address Information", Elements: []ElementRef{mand(166), opt(166)}},
		{ID: "N4", Name: "Geographic Location", Elements: []ElementRef{opt(19), opt(156), opt(116), opt(26)}},

		{ID: "PO1", Name: "Baseline Item Data", Elements: []ElementRef{opt(350), cond(330), opt(355), cond(212), opt(639), cond(235), cond(234), cond(235), cond(234)}},
		{ID: "IT1", Name: "Baseline Item Data (Invoice)", Elements: []ElementRef{opt(350), cond(358), opt(355), cond(212), opt(639), cond(235), cond(234), cond(235), cond(234)}},
		{ID: "PID", Name: "Product/Item Description", Elements: []ElementRef{mand(349), opt(750), cond(559), cond(751), cond(352)}},
		{ID: "PO4", Name: "Item Physical Details", Elements: []ElementRef{opt(356), cond(357), cond(355)}},
		{ID: "SAC", Name: "Service, Promotion, Allowance, or Charge Information", Elements: []ElementRef{mand(248), cond(1300), opt(559), opt(1301), opt(610)}},

		{ID: "CTT", Name: "Transaction Totals", Elements: []ElementRef{mand(354), opt(347)}},
		{ID: "TDS", Name: "Total Monetary Value Summary", Elements: []ElementRef{mand(610), opt(610)}},

		{ID: "AK1", Name: "Functional Group Response Header", Elements: []ElementRef{mand(479), mand(28)}},
		{ID: "AK2", Name: "Transaction Set Response Header", Elements: []ElementRef{mand(143), mand(329)}},
		{ID: "AK3", Name: "Data Segment Note", Elements: []ElementRef{mand(721), mand(719), opt(447), opt(720)}},
		{ID: "AK4", Name: "Data Element Note", Elements: []ElementRef{mand(722), opt(725), mand(723), opt(724)}},
		{ID: "AK5", Name: "Transaction Set Response Trailer", Elements: []ElementRef{mand(717), opt(718)}},
		{ID: "AK9", Name: "Functional Group Response Trailer", Elements: []ElementRef{mand(715), mand(97), mand(123), mand(2), opt(716)}},
	}

	if version >= x12.Version5010 {
		layouts = append(layouts, SegmentLayout{
			ID: "PWK", Name: "Paperwork", Elements: []ElementRef{mand(755), opt(756), opt(757)},
		})
	}

	return layouts
}
