// =============================================================================
// X12 EDI Validator - Schema Catalog
// =============================================================================
//
// The Catalog is the build-once registry of element definitions, segment
// layouts, transaction set schemas and trading partner agreements. It is
// produced by a Builder and never mutated afterwards, so one Catalog can be
// shared by any number of concurrent parse calls without locking.
//
// USAGE:
//   catalog, err := schema.NewStandardBuilder().
//       ExtendCodes(355, x12.VersionUnknown, "DZ").
//       AddAgreement(agreement).
//       Build()
//
// =============================================================================

package schema

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// ErrUnsupportedTransaction is returned for a transaction type and release
// the catalog has no schema for.
var ErrUnsupportedTransaction = errors.New("unsupported transaction type")

// =============================================================================
// CATALOG
// =============================================================================

// Catalog is a read-only, version-scoped schema registry.
type Catalog struct {
	elements     map[int]*ElementSpec
	layouts      map[x12.Version]map[string]*SegmentLayout
	resolved     map[x12.Version]map[string][]*validation.ElementDefinition
	transactions map[x12.Version]map[string]*TransactionSetSchema
	agreements   []*TradingPartnerAgreement
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// DefaultCatalog returns the shared standard catalog with no agreements.
func DefaultCatalog() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := NewStandardBuilder().Build()
		if err != nil {
			panic(fmt.Sprintf("standard catalog is invalid: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Transaction returns the base schema for a transaction type and release.
// The returned value is shared and must not be modified.
func (c *Catalog) Transaction(transactionType string, version x12.Version) (*TransactionSetSchema, bool) {
	t, ok := c.transactions[version][transactionType]
	return t, ok
}

// Layout returns the element layout of a segment in a release.
func (c *Catalog) Layout(version x12.Version, segmentID string) (*SegmentLayout, bool) {
	l, ok := c.layouts[version][segmentID]
	return l, ok
}

// SegmentElements returns the resolved definitions of a segment, position
// 1 first. The returned definitions are shared and must not be modified.
func (c *Catalog) SegmentElements(version x12.Version, segmentID string) []*validation.ElementDefinition {
	return c.resolved[version][segmentID]
}

// Element looks up a definition by (release, segment, 1-based position).
func (c *Catalog) Element(version x12.Version, segmentID string, position int) (*validation.ElementDefinition, bool) {
	defs := c.resolved[version][segmentID]
	if position < 1 || position > len(defs) {
		return nil, false
	}
	return defs[position-1], true
}

// ElementByID looks up a dictionary entry by element ID. The result is a
// copy.
func (c *Catalog) ElementByID(id int) (*ElementSpec, bool) {
	e, ok := c.elements[id]
	if !ok {
		return nil, false
	}
	return e.clone(), true
}

// ElementIDs returns every dictionary element ID in ascending order.
func (c *Catalog) ElementIDs() []int {
	ids := make([]int, 0, len(c.elements))
	for id := range c.elements {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Versions returns the releases that have at least one transaction set.
func (c *Catalog) Versions() []x12.Version {
	var versions []x12.Version
	for v, sets := range c.transactions {
		if len(sets) > 0 {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// TransactionTypes returns the transaction types available in a release.
func (c *Catalog) TransactionTypes(version x12.Version) []string {
	var types []string
	for t := range c.transactions[version] {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// SupportedVersions returns the releases that define a transaction type.
func (c *Catalog) SupportedVersions(transactionType string) []x12.Version {
	var versions []x12.Version
	for v, sets := range c.transactions {
		if _, ok := sets[transactionType]; ok {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })
	return versions
}

// SegmentIDs returns the segments with a layout in a release.
func (c *Catalog) SegmentIDs(version x12.Version) []string {
	var ids []string
	for id := range c.layouts[version] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Agreements returns the agreements of a partner that apply to a
// transaction type and release, in registration order.
func (c *Catalog) Agreements(partnerID, transactionType string, version x12.Version) []*TradingPartnerAgreement {
	var out []*TradingPartnerAgreement
	for _, a := range c.agreements {
		if a.PartnerID == partnerID && a.AppliesTo(transactionType, version) {
			out = append(out, a)
		}
	}
	return out
}

// Partners returns the distinct partner IDs with registered agreements.
func (c *Catalog) Partners() []string {
	seen := make(map[string]bool)
	var partners []string
	for _, a := range c.agreements {
		if !seen[a.PartnerID] {
			seen[a.PartnerID] = true
			partners = append(partners, a.PartnerID)
		}
	}
	sort.Strings(partners)
	return partners
}

// Effective returns the schema in effect for a transaction type, release
// and partner. An empty partnerID yields the base schema.
func (c *Catalog) Effective(transactionType string, version x12.Version, partnerID string) (*EffectiveSchema, error) {
	base, ok := c.Transaction(transactionType, version)
	if !ok {
		return nil, fmt.Errorf("%w %s for version %s", ErrUnsupportedTransaction, transactionType, version)
	}

	eff := &EffectiveSchema{
		Transaction: base,
		Version:     version,
		PartnerID:   partnerID,
		base:        c.resolved[version],
	}
	if partnerID == "" {
		return eff, nil
	}

	agreements := c.Agreements(partnerID, transactionType, version)
	if len(agreements) == 0 {
		return eff, nil
	}

	eff.Transaction = base.clone()
	eff.overrides = make(map[string][]*validation.ElementDefinition)
	for _, a := range agreements {
		eff.Applied = append(eff.Applied, a.Name)
		for _, cust := range a.Customizations {
			eff.applyCustomization(cust)
		}
	}
	return eff, nil
}

// =============================================================================
// EFFECTIVE SCHEMA
// =============================================================================

// EffectiveSchema is a transaction schema with any partner overlay applied.
// Overlaid segments and elements are private copies; everything else is
// shared with the catalog.
type EffectiveSchema struct {
	Transaction *TransactionSetSchema
	Version     x12.Version
	PartnerID   string

	// Applied lists the names of the agreements in application order.
	Applied []string

	base      map[string][]*validation.ElementDefinition
	overrides map[string][]*validation.ElementDefinition
}

// Elements returns the element definitions in effect for a segment.
func (s *EffectiveSchema) Elements(segmentID string) []*validation.ElementDefinition {
	if defs, ok := s.overrides[segmentID]; ok {
		return defs
	}
	return s.base[segmentID]
}

// Element returns the definition in effect at a 1-based position.
func (s *EffectiveSchema) Element(segmentID string, position int) (*validation.ElementDefinition, bool) {
	defs := s.Elements(segmentID)
	if position < 1 || position > len(defs) {
		return nil, false
	}
	return defs[position-1], true
}

// LoopAnchors maps each segment ID with a RequiredIf dependency to the loop
// anchor it must sit under. An ID that also has an entry outside any loop
// (the header CUR of an 850) is left out.
func (s *EffectiveSchema) LoopAnchors() map[string]string {
	anchors := make(map[string]string)
	free := make(map[string]bool)
	for _, ss := range s.Transaction.Segments {
		anchor := ss.LoopAnchor()
		if anchor == "" {
			free[ss.ID] = true
			continue
		}
		if _, ok := anchors[ss.ID]; !ok {
			anchors[ss.ID] = anchor
		}
	}
	for id := range free {
		delete(anchors, id)
	}
	return anchors
}

// writableElement copies a segment's definitions on first write and
// returns the private copy at position, or nil when out of range.
func (s *EffectiveSchema) writableElement(segmentID string, position int) *validation.ElementDefinition {
	defs, ok := s.overrides[segmentID]
	if !ok {
		shared := s.base[segmentID]
		defs = make([]*validation.ElementDefinition, len(shared))
		for i, d := range shared {
			defs[i] = d.Clone()
		}
		s.overrides[segmentID] = defs
	}
	if position < 1 || position > len(defs) {
		return nil
	}
	return defs[position-1]
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder assembles a Catalog. Registration errors are collected and
// returned together from Build.
type Builder struct {
	elements     map[int]*ElementSpec
	layouts      map[x12.Version]map[string]*SegmentLayout
	transactions map[x12.Version]map[string]*TransactionSetSchema
	agreements   []*TradingPartnerAgreement
	errs         []error
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		elements:     make(map[int]*ElementSpec),
		layouts:      make(map[x12.Version]map[string]*SegmentLayout),
		transactions: make(map[x12.Version]map[string]*TransactionSetSchema),
	}
}

// NewStandardBuilder returns a builder preloaded with the built-in
// dictionary, layouts and the 850, 810 and 997 transaction sets for every
// known release.
func NewStandardBuilder() *Builder {
	b := NewBuilder()
	for _, e := range standardElements() {
		b.RegisterElement(e)
	}
	for _, v := range x12.KnownVersions {
		for _, l := range standardLayouts(v) {
			b.RegisterLayout(v, l)
		}
		for _, t := range standardTransactions(v) {
			b.RegisterTransaction(t)
		}
	}
	return b
}

// RegisterElement adds or replaces a dictionary entry.
func (b *Builder) RegisterElement(spec *ElementSpec) *Builder {
	if spec.ID <= 0 {
		b.errs = append(b.errs, fmt.Errorf("element %q has no ID", spec.Name))
		return b
	}
	b.elements[spec.ID] = spec.clone()
	return b
}

// RegisterLayout adds or replaces the layout of a segment in a release.
func (b *Builder) RegisterLayout(version x12.Version, layout SegmentLayout) *Builder {
	if b.layouts[version] == nil {
		b.layouts[version] = make(map[string]*SegmentLayout)
	}
	l := layout
	l.Elements = append([]ElementRef(nil), layout.Elements...)
	b.layouts[version][layout.ID] = &l
	return b
}

// RegisterTransaction adds or replaces a transaction set schema.
func (b *Builder) RegisterTransaction(t *TransactionSetSchema) *Builder {
	if t.Type == "" || t.Version == x12.VersionUnknown {
		b.errs = append(b.errs, fmt.Errorf("transaction schema %q needs a type and a version", t.Name))
		return b
	}
	if b.transactions[t.Version] == nil {
		b.transactions[t.Version] = make(map[string]*TransactionSetSchema)
	}
	b.transactions[t.Version][t.Type] = t.clone()
	return b
}

// ExtendCodes merges codes into an element's code list. VersionUnknown
// extends every release. Loading codes for an element with an open code
// set closes it to the loaded codes.
func (b *Builder) ExtendCodes(elementID int, version x12.Version, codes ...string) *Builder {
	spec, ok := b.elements[elementID]
	if !ok {
		b.errs = append(b.errs, fmt.Errorf("code list for unknown element %d", elementID))
		return b
	}

	merge := func(list []string) []string {
		for _, code := range codes {
			if !contains(list, code) {
				list = append(list, code)
			}
		}
		return list
	}

	if version == x12.VersionUnknown {
		spec.ValidCodes = merge(spec.ValidCodes)
		for v, list := range spec.VersionCodes {
			spec.VersionCodes[v] = merge(list)
		}
		return b
	}

	if spec.VersionCodes == nil {
		spec.VersionCodes = make(map[x12.Version][]string)
	}
	if _, ok := spec.VersionCodes[version]; !ok {
		spec.VersionCodes[version] = append([]string(nil), spec.ValidCodes...)
	}
	spec.VersionCodes[version] = merge(spec.VersionCodes[version])
	return b
}

// AddAgreement registers a trading partner agreement. The agreement is
// validated and checked for conflicts with the partner's earlier
// agreements here, at registration time.
func (b *Builder) AddAgreement(a *TradingPartnerAgreement) *Builder {
	if err := a.Validate(); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	if err := detectConflicts(b.agreements, a); err != nil {
		b.errs = append(b.errs, err)
		return b
	}
	b.agreements = append(b.agreements, a)
	return b
}

// Build resolves every layout against the dictionary and returns the
// immutable catalog. The catalog holds its own copies, so later calls on
// the builder do not reach it.
func (b *Builder) Build() (*Catalog, error) {
	errs := append([]error(nil), b.errs...)

	c := &Catalog{
		elements:     make(map[int]*ElementSpec, len(b.elements)),
		layouts:      make(map[x12.Version]map[string]*SegmentLayout, len(b.layouts)),
		resolved:     make(map[x12.Version]map[string][]*validation.ElementDefinition),
		transactions: make(map[x12.Version]map[string]*TransactionSetSchema, len(b.transactions)),
		agreements:   append([]*TradingPartnerAgreement(nil), b.agreements...),
	}
	for id, spec := range b.elements {
		c.elements[id] = spec.clone()
	}
	for version, layouts := range b.layouts {
		c.layouts[version] = make(map[string]*SegmentLayout, len(layouts))
		for id, layout := range layouts {
			l := *layout
			l.Elements = append([]ElementRef(nil), layout.Elements...)
			c.layouts[version][id] = &l
		}
	}
	for version, sets := range b.transactions {
		c.transactions[version] = make(map[string]*TransactionSetSchema, len(sets))
		for t, ts := range sets {
			c.transactions[version][t] = ts.clone()
		}
	}

	// STEP 1: Resolve layouts into element definitions
	for version, layouts := range c.layouts {
		c.resolved[version] = make(map[string][]*validation.ElementDefinition, len(layouts))
		for segmentID, layout := range layouts {
			defs := make([]*validation.ElementDefinition, 0, len(layout.Elements))
			for pos, ref := range layout.Elements {
				spec, ok := c.elements[ref.ElementID]
				if !ok {
					errs = append(errs, fmt.Errorf("layout %s (%s) position %d references unknown element %d",
						segmentID, version, pos+1, ref.ElementID))
					continue
				}
				defs = append(defs, spec.Definition(version, ref.Requirement))
			}
			c.resolved[version][segmentID] = defs
		}
	}

	// STEP 2: Check agreement targets exist wherever the agreement applies
	for _, a := range c.agreements {
		for version, sets := range c.transactions {
			t, ok := sets[a.TransactionSet]
			if !ok || !a.AppliesTo(a.TransactionSet, version) {
				continue
			}
			for _, cust := range a.Customizations {
				if _, ok := t.Lookup(cust.Segment); !ok {
					errs = append(errs, fmt.Errorf("%w: %s: segment %s is not part of %s (%s)",
						ErrInvalidAgreement, a.label(), cust.Segment, a.TransactionSet, version))
					continue
				}
				if cust.ElementPosition > len(c.resolved[version][cust.Segment]) {
					errs = append(errs, fmt.Errorf("%w: %s: %s has no element position %d in %s",
						ErrInvalidAgreement, a.label(), cust.Segment, cust.ElementPosition, version))
				}
			}
		}
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return c, nil
}
