package palette

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Record is one entry of an external carrier mapping document:
//
//	[{"color": "#000000", "carrier": 1, "label": "black"}, ...]
//
// A carrier of -1 declares a known yarn that is not on the machine.
type Record struct {
	Color   string `yaml:"color" json:"color"`
	Carrier int    `yaml:"carrier" json:"carrier"`
	Label   string `yaml:"label,omitempty" json:"label,omitempty"`
}

// FromRecords builds a registry from records in order.
func FromRecords(records []Record) (*Registry, error) {
	r := NewRegistry()
	for i, rec := range records {
		color, err := ParseHex(rec.Color)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := validateCarrier(rec.Carrier); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if err := r.Register(color, Carrier(rec.Carrier), rec.Label); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
	}
	return r, nil
}

// Records returns the registry contents as mapping records.
func (r *Registry) Records() []Record {
	out := make([]Record, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, Record{Color: e.Color.Hex(), Carrier: int(e.Carrier), Label: e.Label})
	}
	return out
}

func validateCarrier(c int) error {
	if c == int(NotLoaded) || c >= 1 {
		return nil
	}
	return fmt.Errorf("carrier %d is not a carrier slot (use -1 for a yarn that is not loaded)", c)
}

// rawRecord tracks which fields were present in the document.
type rawRecord struct {
	Color   *string `yaml:"color"`
	Carrier *int    `yaml:"carrier"`
	Label   string  `yaml:"label"`
}

// ParseMapping parses a carrier mapping document. JSON is the documented
// format; YAML is accepted as well. Any problem, including duplicate
// colours, is reported as a *ParseError.
func ParseMapping(data []byte) (*Registry, error) {
	records, err := parseRecords(data)
	if err != nil {
		return nil, &ParseError{Reason: err}
	}
	reg, err := FromRecords(records)
	if err != nil {
		return nil, &ParseError{Reason: err}
	}
	return reg, nil
}

// LoadMapping reads and parses a carrier mapping file.
func LoadMapping(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Source: path, Reason: err}
	}
	reg, err := ParseMapping(data)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			perr.Source = path
		}
		return nil, err
	}
	return reg, nil
}

func parseRecords(data []byte) ([]Record, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, errors.New("document is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.SequenceNode {
		return nil, errors.New("top-level object is not an array")
	}

	records := make([]Record, 0, len(root.Content))
	for i, item := range root.Content {
		if item.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("entry %d is not an object", i)
		}
		var raw rawRecord
		if err := item.Decode(&raw); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if raw.Color == nil {
			return nil, fmt.Errorf("entry %d is missing 'color'", i)
		}
		if raw.Carrier == nil {
			return nil, fmt.Errorf("entry %d is missing 'carrier'", i)
		}
		records = append(records, Record{Color: *raw.Color, Carrier: *raw.Carrier, Label: raw.Label})
	}
	return records, nil
}
