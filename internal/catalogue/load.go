package catalogue

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// file is the on-disk catalogue format.
type file struct {
	Entries []string `yaml:"entries"`
}

// Default returns the built-in catalogue.
func Default() *Catalogue {
	c, err := Parse(defaultYAML)
	if err != nil {
		panic("catalogue: built-in catalogue is invalid: " + err.Error())
	}
	return c
}

// Parse decodes a YAML catalogue document and validates its entries.
// Unknown keys are rejected.
func Parse(data []byte) (*Catalogue, error) {
	entries, err := decode(data)
	if err != nil {
		return nil, err
	}
	return New(entries)
}

// Load builds the process catalogue. When path is empty the built-in table
// is used, otherwise the file at path replaces it. Extra entries are
// appended after the base entries and validated with them.
func Load(path string, extra []string) (*Catalogue, error) {
	data := defaultYAML
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalogue: %w", err)
		}
	}

	entries, err := decode(data)
	if err != nil {
		return nil, err
	}
	entries = append(entries, extra...)

	c, err := New(entries)
	if err != nil {
		return nil, fmt.Errorf("load catalogue: %w", err)
	}
	return c, nil
}

func decode(data []byte) ([]string, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: decode YAML: %w", ErrInvalidEntry, err)
	}
	return f.Entries, nil
}
