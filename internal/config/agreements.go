package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/x12-edi-validator/internal/schema"
)

// agreementFile is the on-disk layout of an agreement file. A file holds
// one or more agreements:
//
//	agreements:
//	  - partner_id: ACME
//	    transaction_set: "850"
//	    customizations:
//	      - segment: BEG
//	        element: 1
//	        kind: restrict_valid_codes
//	        codes: ["00"]
type agreementFile struct {
	Agreements []*schema.TradingPartnerAgreement `yaml:"agreements" toml:"agreements"`
}

// LoadPartnerAgreements loads every YAML and TOML agreement file in a
// directory, in file name order. A missing directory yields no agreements.
//
// PARAMETERS:
//   - dir: The agreements directory.
//
// RETURNS:
//   - The agreements, each validated on its own. Conflicts between
//     agreements are detected later, when they are added to the catalog.
func LoadPartnerAgreements(dir string) ([]*schema.TradingPartnerAgreement, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list agreements: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml", ".toml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var agreements []*schema.TradingPartnerAgreement
	for _, name := range names {
		loaded, err := LoadAgreementFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		agreements = append(agreements, loaded...)
	}
	return agreements, nil
}

// LoadAgreementFile loads one YAML or TOML agreement file.
func LoadAgreementFile(path string) ([]*schema.TradingPartnerAgreement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var file agreementFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		err = toml.Unmarshal(data, &file)
	default:
		err = yaml.Unmarshal(data, &file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	for i, a := range file.Agreements {
		for j := range a.Customizations {
			kind, err := schema.ParseCustomizationKind(string(a.Customizations[j].Kind))
			if err != nil {
				return nil, fmt.Errorf("%s: agreement %d customization %d: %w", path, i+1, j+1, err)
			}
			a.Customizations[j].Kind = kind
			a.Customizations[j].Segment = strings.ToUpper(strings.TrimSpace(a.Customizations[j].Segment))
		}
		if a.Name == "" {
			a.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return file.Agreements, nil
}
