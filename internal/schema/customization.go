// =============================================================================
// X12 EDI Validator - Trading Partner Customizations
// =============================================================================
//
// A TradingPartnerAgreement is an ordered list of SchemaCustomizations that
// a partner layers on top of the release schema. Customizations never touch
// the shared catalog: at validation time they are applied to copies of the
// affected segment and element definitions (see EffectiveSchema).
//
// PRECEDENCE:
//   Agreements apply in registration order and customizations in list
//   order; the last write to a field wins.
//
// CONFLICTS:
//   Two customizations on the same (segment, element) target conflict when:
//   - one makes it mandatory and another makes it optional
//   - two length changes set different bounds
//   - a restricted code set excludes a code another customization extends
//   - two restricted code sets share no code
//   Conflicts are rejected when the agreement is registered, not while a
//   document is being validated.
//
// =============================================================================

package schema

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/ginjaninja78/x12-edi-validator/internal/validation"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// Configuration errors raised while registering agreements.
var (
	ErrCustomizationConflict = errors.New("conflicting customizations")
	ErrUnknownCustomization  = errors.New("unknown customization kind")
	ErrInvalidAgreement      = errors.New("invalid trading partner agreement")
)

// =============================================================================
// CUSTOMIZATION KINDS
// =============================================================================

// CustomizationKind names a transformation.
type CustomizationKind string

const (
	MakeMandatory           CustomizationKind = "make_mandatory"
	MakeOptional            CustomizationKind = "make_optional"
	ExtendValidCodes        CustomizationKind = "extend_valid_codes"
	RestrictValidCodes      CustomizationKind = "restrict_valid_codes"
	ChangeLengthConstraints CustomizationKind = "change_length_constraints"
)

var customizationKinds = []CustomizationKind{
	MakeMandatory, MakeOptional, ExtendValidCodes, RestrictValidCodes, ChangeLengthConstraints,
}

// ParseCustomizationKind accepts snake_case, kebab-case or spaced names in
// any letter case ("Extend Valid Codes" -> extend_valid_codes).
func ParseCustomizationKind(s string) (CustomizationKind, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_").Replace(normalized)
	for _, k := range customizationKinds {
		if string(k) == normalized {
			return k, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownCustomization, s)
}

// =============================================================================
// SCHEMA CUSTOMIZATION
// =============================================================================

// SchemaCustomization is one partner override.
type SchemaCustomization struct {
	// Segment is the segment ID the override targets.
	Segment string `yaml:"segment" toml:"segment"`

	// ElementPosition is the 1-based element position; 0 targets the
	// segment itself (only make_mandatory and make_optional).
	ElementPosition int `yaml:"element,omitempty" toml:"element,omitempty"`

	Kind CustomizationKind `yaml:"kind" toml:"kind"`

	// Codes are used by extend_valid_codes and restrict_valid_codes.
	Codes []string `yaml:"codes,omitempty" toml:"codes,omitempty"`

	// MinLength and MaxLength are used by change_length_constraints;
	// 0 leaves a bound unchanged.
	MinLength int `yaml:"min_length,omitempty" toml:"min_length,omitempty"`
	MaxLength int `yaml:"max_length,omitempty" toml:"max_length,omitempty"`

	Description string `yaml:"description,omitempty" toml:"description,omitempty"`
}

// Target renders the customization target, e.g. "BEG" or "BEG01".
func (c SchemaCustomization) Target() string {
	if c.ElementPosition == 0 {
		return c.Segment
	}
	return fmt.Sprintf("%s%02d", c.Segment, c.ElementPosition)
}

func (c SchemaCustomization) validate() error {
	if c.Segment == "" {
		return fmt.Errorf("%w: customization has no segment", ErrInvalidAgreement)
	}
	if _, err := ParseCustomizationKind(string(c.Kind)); err != nil {
		return err
	}
	if c.ElementPosition < 0 {
		return fmt.Errorf("%w: %s: negative element position", ErrInvalidAgreement, c.Target())
	}

	switch c.Kind {
	case ExtendValidCodes, RestrictValidCodes:
		if c.ElementPosition == 0 {
			return fmt.Errorf("%w: %s: %s needs an element position", ErrInvalidAgreement, c.Target(), c.Kind)
		}
		if len(c.Codes) == 0 {
			return fmt.Errorf("%w: %s: %s needs at least one code", ErrInvalidAgreement, c.Target(), c.Kind)
		}
	case ChangeLengthConstraints:
		if c.ElementPosition == 0 {
			return fmt.Errorf("%w: %s: %s needs an element position", ErrInvalidAgreement, c.Target(), c.Kind)
		}
		if c.MinLength < 0 || c.MaxLength < 0 || (c.MaxLength > 0 && c.MinLength > c.MaxLength) {
			return fmt.Errorf("%w: %s: invalid length bounds %d-%d", ErrInvalidAgreement, c.Target(), c.MinLength, c.MaxLength)
		}
	}
	return nil
}

// =============================================================================
// TRADING PARTNER AGREEMENT
// =============================================================================

// TradingPartnerAgreement groups a partner's customizations for one
// transaction set.
type TradingPartnerAgreement struct {
	PartnerID string `yaml:"partner_id" toml:"partner_id"`
	Name      string `yaml:"name" toml:"name"`

	// TransactionSet is the transaction type the agreement applies to.
	TransactionSet string `yaml:"transaction_set" toml:"transaction_set"`

	// Versions is an optional semver constraint over release numbers
	// mapped as 4010 -> 4.1.0 (e.g. ">= 5.1.0"). Empty matches every release.
	Versions string `yaml:"versions,omitempty" toml:"versions,omitempty"`

	Customizations []SchemaCustomization `yaml:"customizations" toml:"customizations"`

	constraint *semver.Constraints
}

// Validate checks the agreement on its own, without the catalog.
func (a *TradingPartnerAgreement) Validate() error {
	if strings.TrimSpace(a.PartnerID) == "" {
		return fmt.Errorf("%w: partner_id is required", ErrInvalidAgreement)
	}
	if strings.TrimSpace(a.TransactionSet) == "" {
		return fmt.Errorf("%w: %s: transaction_set is required", ErrInvalidAgreement, a.PartnerID)
	}
	if a.Versions != "" {
		constraint, err := semver.NewConstraint(a.Versions)
		if err != nil {
			return fmt.Errorf("%w: %s: versions %q: %v", ErrInvalidAgreement, a.PartnerID, a.Versions, err)
		}
		a.constraint = constraint
	}
	for i, c := range a.Customizations {
		if err := c.validate(); err != nil {
			return fmt.Errorf("agreement %s customization %d: %w", a.label(), i+1, err)
		}
	}
	return nil
}

// AppliesTo reports whether the agreement covers a transaction type and
// release.
func (a *TradingPartnerAgreement) AppliesTo(transactionType string, version x12.Version) bool {
	if a.TransactionSet != transactionType {
		return false
	}
	if a.Versions == "" {
		return true
	}
	constraint := a.constraint
	if constraint == nil {
		var err error
		if constraint, err = semver.NewConstraint(a.Versions); err != nil {
			return false
		}
	}
	return constraint.Check(version.SemVer())
}

func (a *TradingPartnerAgreement) label() string {
	if a.Name != "" {
		return fmt.Sprintf("%q (%s)", a.Name, a.PartnerID)
	}
	return a.PartnerID
}

// =============================================================================
// CONFLICT DETECTION
// =============================================================================

type target struct {
	segment  string
	position int
}

// detectConflicts checks a new agreement against itself and against the
// already registered agreements of the same partner and transaction set.
func detectConflicts(registered []*TradingPartnerAgreement, next *TradingPartnerAgreement) error {
	byTarget := make(map[target][]SchemaCustomization)
	for _, a := range registered {
		if a.PartnerID != next.PartnerID || a.TransactionSet != next.TransactionSet {
			continue
		}
		for _, c := range a.Customizations {
			t := target{c.Segment, c.ElementPosition}
			byTarget[t] = append(byTarget[t], c)
		}
	}

	for _, c := range next.Customizations {
		t := target{c.Segment, c.ElementPosition}
		for _, prior := range byTarget[t] {
			if reason := conflictBetween(prior, c); reason != "" {
				return fmt.Errorf("%w: partner %s, %s: %s", ErrCustomizationConflict, next.PartnerID, c.Target(), reason)
			}
		}
		byTarget[t] = append(byTarget[t], c)
	}
	return nil
}

func conflictBetween(a, b SchemaCustomization) string {
	switch {
	case (a.Kind == MakeMandatory && b.Kind == MakeOptional) || (a.Kind == MakeOptional && b.Kind == MakeMandatory):
		return "made both mandatory and optional"

	case a.Kind == ChangeLengthConstraints && b.Kind == ChangeLengthConstraints:
		if a.MinLength != b.MinLength || a.MaxLength != b.MaxLength {
			return fmt.Sprintf("length set to both %d-%d and %d-%d", a.MinLength, a.MaxLength, b.MinLength, b.MaxLength)
		}

	case a.Kind == RestrictValidCodes && b.Kind == ExtendValidCodes:
		if code := firstMissing(b.Codes, a.Codes); code != "" {
			return fmt.Sprintf("code %q is extended but excluded by a restriction", code)
		}

	case a.Kind == ExtendValidCodes && b.Kind == RestrictValidCodes:
		if code := firstMissing(a.Codes, b.Codes); code != "" {
			return fmt.Sprintf("code %q is extended but excluded by a restriction", code)
		}

	case a.Kind == RestrictValidCodes && b.Kind == RestrictValidCodes:
		if !sharesCode(a.Codes, b.Codes) {
			return fmt.Sprintf("restrictions %v and %v share no code", a.Codes, b.Codes)
		}
	}
	return ""
}

// firstMissing returns the first code in want that is not in set.
func firstMissing(want, set []string) string {
	for _, w := range want {
		if !contains(set, w) {
			return w
		}
	}
	return ""
}

func sharesCode(a, b []string) bool {
	for _, code := range a {
		if contains(b, code) {
			return true
		}
	}
	return false
}

// =============================================================================
// OVERLAY
// =============================================================================

// applyCustomization applies one customization to the effective schema.
func (s *EffectiveSchema) applyCustomization(c SchemaCustomization) {
	if c.ElementPosition == 0 {
		req := validation.Mandatory
		if c.Kind == MakeOptional {
			req = validation.Optional
		}
		for i := range s.Transaction.Segments {
			if s.Transaction.Segments[i].ID == c.Segment {
				s.Transaction.Segments[i].Requirement = req
			}
		}
		return
	}

	def := s.writableElement(c.Segment, c.ElementPosition)
	if def == nil {
		return
	}

	switch c.Kind {
	case MakeMandatory:
		def.Requirement = validation.Mandatory
	case MakeOptional:
		def.Requirement = validation.Optional
	case ExtendValidCodes:
		// An open code set stays open; extending it would only add errors.
		if !def.HasCodeList() {
			return
		}
		for _, code := range c.Codes {
			if !def.HasCode(code) {
				def.ValidCodes = append(def.ValidCodes, code)
			}
		}
	case RestrictValidCodes:
		// The result is closed even when nothing survives the intersection.
		if !def.HasCodeList() {
			def.ValidCodes = append([]string(nil), c.Codes...)
		} else {
			var kept []string
			for _, code := range def.ValidCodes {
				if contains(c.Codes, code) {
					kept = append(kept, code)
				}
			}
			def.ValidCodes = kept
		}
		def.ClosedCodes = true
	case ChangeLengthConstraints:
		if c.MinLength > 0 {
			def.MinLength = c.MinLength
		}
		if c.MaxLength > 0 {
			def.MaxLength = c.MaxLength
		}
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
