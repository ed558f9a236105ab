package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/solatis/formulatree/internal/rules"
)

// CatalogFile is the YAML layout of a parameter / unit catalog:
//
//	params:
//	  - value: "17132"
//	    label: Labor
//	    description: Labor hours
//	uoms:
//	  - value: HR
//	    label: Hours
type CatalogFile struct {
	Params []rules.ParamOption `yaml:"params"`
	UOMs   []rules.UOMOption   `yaml:"uoms"`
}

// LoadCatalogFile reads and validates a catalog file. Unknown keys are rejected.
func LoadCatalogFile(path string) (*CatalogFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}

	var cf CatalogFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cf); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse catalog YAML: %w", err)
	}

	for i, p := range cf.Params {
		if p.Value == "" {
			return nil, fmt.Errorf("params[%d]: value is required", i)
		}
	}
	for i, u := range cf.UOMs {
		if u.Value == "" {
			return nil, fmt.Errorf("uoms[%d]: value is required", i)
		}
	}
	return &cf, nil
}

// LoadCatalog returns the engine catalog for path. An empty path yields an
// empty catalog that accepts any parameter or unit.
func LoadCatalog(path string) (*rules.Catalog, error) {
	if path == "" {
		return rules.NewCatalog(nil, nil), nil
	}
	cf, err := LoadCatalogFile(path)
	if err != nil {
		return nil, err
	}
	return rules.NewCatalog(cf.Params, cf.UOMs), nil
}
