// =============================================================================
// X12 EDI Validator - Configuration Module
// =============================================================================
//
// This module loads the main application configuration and the trading
// partner agreements.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Directories, logging, concurrency and
//      the parsing block
//   2. Agreements (agreements/*.yaml, *.yml, *.toml): Trading partner
//      schema customizations. XLSX workbooks are read by internal/xlsxparser.
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/x12-edi-validator/internal/logger"
	"github.com/ginjaninja78/x12-edi-validator/internal/parser"
	"github.com/ginjaninja78/x12-edi-validator/internal/x12"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is where EDI files are dropped for processing.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is where XML validation reports are written.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// ArchiveDir is where successfully processed EDI files are moved.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// AgreementsDir holds trading partner agreements (.yaml, .yml, .toml,
	// .xlsx). A missing directory means no agreements.
	// Default: "./agreements"
	AgreementsDir string `yaml:"agreements_dir"`

	// CodeListsDir holds CSV code lists (element_id,code[,version]) merged
	// into the element dictionary at startup.
	// Default: "./code_lists"
	CodeListsDir string `yaml:"code_lists_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile receives a copy of everything written to the console log.
	// Default: "./logs/validator.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// ReportNameFormat defines the file name of each XML report.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {original}  - Input file name without extension
	//
	// Default: "{original}_{timestamp}.xml"
	ReportNameFormat string `yaml:"report_name_format"`

	// DatabasePath is the SQLite file that stores run history.
	// Default: "./data/history.db"
	DatabasePath string `yaml:"database_path"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// MaxConcurrency is the maximum number of files processed at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError keeps processing other files, and other
	// transactions inside a file, after a failure.
	// Default: true
	ContinueOnError *bool `yaml:"continue_on_error"`

	// Parsing holds the X12 parsing and validation settings.
	Parsing ParsingConfig `yaml:"parsing"`
}

// ParsingConfig is the parsing block of config.yaml.
type ParsingConfig struct {
	// Separators assumed until the ISA header is read.
	// Defaults: "*", "~", ">"
	ElementSeparator    string `yaml:"element_separator"`
	SegmentSeparator    string `yaml:"segment_separator"`
	SubElementSeparator string `yaml:"sub_element_separator"`

	// TrimWhitespace trims records and elements. Default: true
	TrimWhitespace *bool `yaml:"trim_whitespace"`

	// Strict turns segments outside any transaction into a hard failure.
	Strict bool `yaml:"strict"`

	// Version is "auto" (use ISA12) or a release such as "4010" or "005010".
	// Default: "auto"
	Version string `yaml:"version"`

	// ValidationLevel is basic, standard, strict or complete.
	// Default: "standard"
	ValidationLevel string `yaml:"validation_level"`

	// TradingPartnerID selects agreements at strict and complete levels.
	TradingPartnerID string `yaml:"trading_partner_id"`

	// CollectDetails indexes element values for lookup by element ID.
	// Default: true
	CollectDetails *bool `yaml:"collect_details"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct.
//   - An error if the file cannot be read, parsed or validated.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns the configuration used when no config file exists.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.ArchiveDir == "" {
		config.ArchiveDir = "./archive"
	}
	if config.AgreementsDir == "" {
		config.AgreementsDir = "./agreements"
	}
	if config.CodeListsDir == "" {
		config.CodeListsDir = "./code_lists"
	}
	if config.LogFile == "" {
		config.LogFile = "./logs/validator.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.ReportNameFormat == "" {
		config.ReportNameFormat = "{original}_{timestamp}.xml"
	}
	if config.DatabasePath == "" {
		config.DatabasePath = "./data/history.db"
	}
	if config.MaxConcurrency == 0 {
		config.MaxConcurrency = 4
	}
	if config.ContinueOnError == nil {
		config.ContinueOnError = boolPtr(true)
	}

	p := &config.Parsing
	if p.ElementSeparator == "" {
		p.ElementSeparator = "*"
	}
	if p.SegmentSeparator == "" {
		p.SegmentSeparator = "~"
	}
	if p.SubElementSeparator == "" {
		p.SubElementSeparator = ">"
	}
	if p.TrimWhitespace == nil {
		p.TrimWhitespace = boolPtr(true)
	}
	if p.Version == "" {
		p.Version = "auto"
	}
	if p.ValidationLevel == "" {
		p.ValidationLevel = "standard"
	}
	if p.CollectDetails == nil {
		p.CollectDetails = boolPtr(true)
	}
}

// validateMainConfig validates the main configuration.
func validateMainConfig(config *MainConfig) error {
	if _, err := logger.ParseLevel(config.LogLevel); err != nil {
		return err
	}
	if config.MaxConcurrency < 1 {
		return fmt.Errorf("max_concurrency must be at least 1, got %d", config.MaxConcurrency)
	}
	if _, err := config.ParserOptions(); err != nil {
		return err
	}
	return nil
}

// EnsureDirectories creates the working directories if they do not exist.
func (c *MainConfig) EnsureDirectories() error {
	for _, dir := range []string{c.InputDir, c.OutputDir, c.ArchiveDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// ContinueOnErrorEnabled returns the effective continue_on_error value.
func (c *MainConfig) ContinueOnErrorEnabled() bool {
	return c.ContinueOnError == nil || *c.ContinueOnError
}

// ParserOptions converts the parsing block into parser options.
func (c *MainConfig) ParserOptions() (parser.Options, error) {
	opts := parser.DefaultOptions()
	p := c.Parsing

	var err error
	if opts.Delimiters.Element, err = singleRune("element_separator", p.ElementSeparator); err != nil {
		return opts, err
	}
	if opts.Delimiters.Segment, err = singleRune("segment_separator", p.SegmentSeparator); err != nil {
		return opts, err
	}
	if opts.Delimiters.SubElement, err = singleRune("sub_element_separator", p.SubElementSeparator); err != nil {
		return opts, err
	}
	if err := opts.Delimiters.Validate(); err != nil {
		return opts, fmt.Errorf("separators: %w", err)
	}

	if p.Version != "auto" {
		if opts.Version, err = x12.ParseVersion(p.Version); err != nil {
			return opts, err
		}
	}
	if opts.Level, err = parser.ParseLevel(p.ValidationLevel); err != nil {
		return opts, err
	}

	if p.TrimWhitespace != nil {
		opts.TrimWhitespace = *p.TrimWhitespace
	}
	if p.CollectDetails != nil {
		opts.CollectDetails = *p.CollectDetails
	}
	opts.Strict = p.Strict
	opts.PartnerID = p.TradingPartnerID
	opts.ContinueOnError = c.ContinueOnErrorEnabled()

	return opts, nil
}

func singleRune(name, value string) (rune, error) {
	// Escaped forms so a newline terminator can be written in YAML.
	switch value {
	case `\n`:
		return '\n', nil
	case `\r`:
		return '\r', nil
	case `\t`:
		return '\t', nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", name, value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}

func boolPtr(b bool) *bool {
	return &b
}
