package parser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// =============================================================================
// VALIDATION LEVEL
// =============================================================================

// Level is the validation depth. Each level includes the checks of the
// levels below it.
type Level int

const (
	// LevelBasic checks the envelope and transaction structure.
	LevelBasic Level = iota

	// LevelStandard adds element validation.
	LevelStandard

	// LevelStrict adds the trading partner overlay and loop context checks.
	LevelStrict

	// LevelComplete adds business rules.
	LevelComplete
)

var levelNames = []string{"basic", "standard", "strict", "complete"}

func (l Level) String() string {
	if l >= 0 && int(l) < len(levelNames) {
		return levelNames[l]
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel converts a config value to a Level. Empty means standard.
func ParseLevel(s string) (Level, error) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	if normalized == "" {
		return LevelStandard, nil
	}
	for i, name := range levelNames {
		if name == normalized {
			return Level(i), nil
		}
	}
	return LevelStandard, fmt.Errorf("unknown validation level %q (valid: %s)", s, strings.Join(levelNames, ", "))
}

// =============================================================================
// OPTIONS
// =============================================================================

// Options controls parsing and validation of one document.
type Options struct {
	// Delimiters are the separators assumed until the ISA header is read.
	Delimiters x12.Delimiters

	// TrimWhitespace trims records and elements.
	TrimWhitespace bool

	// Strict turns segments outside any transaction into a hard failure.
	Strict bool

	// Version forces a release. VersionUnknown uses ISA12.
	Version x12.Version

	// Level is the validation depth.
	Level Level

	// PartnerID selects trading partner agreements (strict and complete).
	PartnerID string

	// ContinueOnError keeps validating after a transaction with errors.
	ContinueOnError bool

	// CollectDetails keeps per-element occurrences for ElementsByID.
	CollectDetails bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Delimiters:      x12.DefaultDelimiters(),
		TrimWhitespace:  true,
		Level:           LevelStandard,
		ContinueOnError: true,
		CollectDetails:  true,
	}
}

// Validate checks the options before a parse.
func (o Options) Validate() error {
	if err := o.Delimiters.Validate(); err != nil {
		return err
	}
	if o.Level < LevelBasic || o.Level > LevelComplete {
		return fmt.Errorf("invalid validation level %d", int(o.Level))
	}
	return nil
}

// EffectivePartnerID returns the partner whose agreements apply at the
// configured level, or "" below LevelStrict.
func (o Options) EffectivePartnerID() string {
	if o.Level < LevelStrict {
		return ""
	}
	return o.PartnerID
}
