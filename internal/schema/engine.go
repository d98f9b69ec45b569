// =============================================================================
// X12 EDI Validator - Schema Engine
// =============================================================================
//
// The engine checks one transaction against the effective schema for its
// type, release and trading partner. It runs two passes:
//
//   1. Structure: a single forward scan over the segment IDs that tracks
//      occurrence counts per schema entry, the running hierarchy level and
//      inter-segment dependencies, followed by a mandatory-segment sweep.
//   2. Elements: every segment with a layout has each defined position
//      checked by validation.ValidateElement.
//
// Both passes accumulate findings; neither stops at the first problem.
// RequiredIf dependencies need loop context and are left to the loops
// package.
//
// =============================================================================

package schema

import (
	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// Engine validates transactions against a Catalog. It holds no mutable
// state and is safe for concurrent use.
type Engine struct {
	catalog *Catalog
}

// NewEngine creates an engine over a built catalog.
func NewEngine(catalog *Catalog) *Engine {
	return &Engine{catalog: catalog}
}

// Catalog returns the catalog the engine validates against.
func (e *Engine) Catalog() *Catalog {
	return e.catalog
}

// ValidateTransactionStructure runs the structural pass for a sequence of
// segment IDs (ST first). An unsupported type or release yields a single
// error finding.
func (e *Engine) ValidateTransactionStructure(transactionType string, version x12.Version, segmentIDs []string, partnerID string) []validation.ValidationResult {
	eff, err := e.catalog.Effective(transactionType, version, partnerID)
	if err != nil {
		return []validation.ValidationResult{unsupported(transactionType, version)}
	}
	return eff.ValidateStructure(segmentIDs)
}

// ValidateSegmentElements runs the element pass over a transaction's
// segments.
func (e *Engine) ValidateSegmentElements(transactionType string, version x12.Version, segments []x12.Segment, partnerID string) []validation.ValidationResult {
	eff, err := e.catalog.Effective(transactionType, version, partnerID)
	if err != nil {
		return []validation.ValidationResult{unsupported(transactionType, version)}
	}
	return eff.ValidateElements(segments)
}

func unsupported(transactionType string, version x12.Version) validation.ValidationResult {
	return validation.NewError(validation.RuleTransaction,
		"Unsupported transaction type %s for version %s", transactionType, version)
}

// =============================================================================
// STRUCTURE PASS
// =============================================================================

// ValidateStructure checks segment order, usage and dependencies.
//
// PARAMETERS:
//   - segmentIDs: The transaction's segment IDs in document order
//
// RETURNS:
//   - Findings with SegmentPosition set to the 0-based index; messages
//     quote the 1-based position.
func (s *EffectiveSchema) ValidateStructure(segmentIDs []string) []validation.ValidationResult {
	var results []validation.ValidationResult

	// usage is keyed by schema entry index.
	usage := make(map[int]int)
	members := make(map[string][]int)
	for i, ss := range s.Transaction.Segments {
		if anchor := ss.LoopAnchor(); anchor != "" {
			members[anchor] = append(members[anchor], i)
		}
	}
	present := make(map[string]bool, len(segmentIDs))
	for _, id := range segmentIDs {
		present[id] = true
	}
	maxLevel := LevelHeader

	for pos, id := range segmentIDs {
		at := pos + 1

		idx, ok := s.Transaction.LookupAt(id, maxLevel)
		if !ok {
			results = append(results, validation.NewWarning(validation.RuleUnknownSegment,
				"Unknown segment %s at position %d", id, at).AtSegment(id, pos))
			continue
		}
		ss := &s.Transaction.Segments[idx]

		for _, m := range members[id] {
			delete(usage, m)
		}
		usage[idx]++
		if ss.MaxUse > 0 && usage[idx] > ss.MaxUse {
			results = append(results, validation.NewError(validation.RuleMaxUse,
				"Segment %s exceeds maximum usage of %d at position %d", id, ss.MaxUse, at).AtSegment(id, pos))
		}

		if ss.Level < maxLevel {
			results = append(results, validation.NewWarning(validation.RuleHierarchy,
				"Segment %s appears to move backwards in hierarchy at position %d", id, at).AtSegment(id, pos))
		} else {
			maxLevel = ss.Level
		}

		for _, dep := range ss.Dependencies {
			switch dep.Kind {
			case MustFollow:
				if !containsID(segmentIDs[:pos], dep.Segment) {
					results = append(results, validation.NewError(validation.RuleDependency,
						"Segment %s requires %s to appear before it", id, dep.Segment).AtSegment(id, pos))
				}
			case MustPrecede:
				if !containsID(segmentIDs[pos+1:], dep.Segment) {
					results = append(results, validation.NewError(validation.RuleDependency,
						"Segment %s requires %s to appear after it", id, dep.Segment).AtSegment(id, pos))
				}
			case MutuallyExclusive:
				if present[dep.Segment] {
					results = append(results, validation.NewError(validation.RuleDependency,
						"Segment %s cannot appear together with %s", id, dep.Segment).AtSegment(id, pos))
				}
			case RequiredIf:
				// loop context
			}
		}
	}

	reported := make(map[string]bool)
	for _, ss := range s.Transaction.Segments {
		if ss.Requirement != validation.Mandatory || present[ss.ID] || reported[ss.ID] {
			continue
		}
		reported[ss.ID] = true
		r := validation.NewError(validation.RuleMandatory, "Missing mandatory segment %s", ss.ID)
		r.SegmentID = ss.ID
		results = append(results, r)
	}

	return results
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// =============================================================================
// ELEMENT PASS
// =============================================================================

// ValidateElements checks every element of every segment that has a
// layout. Segments without a layout are skipped; the structure pass has
// already reported them.
func (s *EffectiveSchema) ValidateElements(segments []x12.Segment) []validation.ValidationResult {
	var results []validation.ValidationResult

	for pos, seg := range segments {
		defs := s.Elements(seg.ID)
		if defs == nil {
			continue
		}

		for i, def := range defs {
			elementPos := i + 1
			for _, r := range validation.ValidateElement(seg.Element(elementPos), def, elementPos) {
				results = append(results, r.AtSegment(seg.ID, pos))
			}
		}

		for elementPos := len(defs) + 1; elementPos <= len(seg.Elements); elementPos++ {
			value := seg.Element(elementPos)
			if value == "" {
				continue
			}
			r := validation.NewWarning(validation.RuleUnknownElement,
				"Element position %d not defined in segment %s", elementPos, seg.ID).AtSegment(seg.ID, pos)
			r.ElementPosition = validation.Position(elementPos)
			r.Value = value
			results = append(results, r)
		}
	}

	return results
}

// CountElements returns how many element values ValidateElements checks
// for the given segments.
func (s *EffectiveSchema) CountElements(segments []x12.Segment) int {
	n := 0
	for _, seg := range segments {
		n += len(s.Elements(seg.ID))
	}
	return n
}
