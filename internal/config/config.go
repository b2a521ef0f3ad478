package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/textiles-lab/jacquard/internal/jacquard"
	"github.com/textiles-lab/jacquard/internal/palette"
)

// DefaultPath is the config file picked up from the working directory.
const DefaultPath = "jacquard.yml"

// MaxCarrierSlots is the largest carrier count a machine header may declare.
const MaxCarrierSlots = 32

// JacquardConfig represents the top-level jacquard.yml configuration
type JacquardConfig struct {
	Version  string           `yaml:"version"`
	Bindoff  bool             `yaml:"bindoff,omitempty"`
	Carriers []palette.Record `yaml:"carriers,omitempty"` // Built-in table when omitted
	Machine  *MachineConfig   `yaml:"machine,omitempty"`
	Archive  *ArchiveConfig   `yaml:"archive,omitempty"`
}

// MachineConfig holds the knitting machine settings written into programs
type MachineConfig struct {
	CarrierSlots *int                `yaml:"carrier_slots,omitempty"` // Default: 10
	StitchNumber *StitchNumberConfig `yaml:"stitch_number,omitempty"`
	SubRoller    *SubRollerConfig    `yaml:"sub_roller,omitempty"`
	BodyRack     *float64            `yaml:"body_rack,omitempty"` // Default: 0.25
	EndRows      *int                `yaml:"end_rows,omitempty"`  // Default: 3
	Tag          *TagConfig          `yaml:"tag,omitempty"`
}

// StitchNumberConfig selects the stitch settings per program stage
type StitchNumberConfig struct {
	CastOn  *int `yaml:"cast_on,omitempty"` // Default: 104
	Body    *int `yaml:"body,omitempty"`    // Default: 105
	Bindoff *int `yaml:"bindoff,omitempty"` // Default: 106
}

// SubRollerConfig selects the sub roller while knitting and finishing
type SubRollerConfig struct {
	Knit   *int `yaml:"knit,omitempty"`   // Default: 3
	Finish *int `yaml:"finish,omitempty"` // Default: 0
}

// TagConfig shapes the pull tab knitted after the bind-off
type TagConfig struct {
	Width *int `yaml:"width,omitempty"` // Default: 4
	Hold  *int `yaml:"hold,omitempty"`  // Default: 3
}

// ArchiveConfig points at the Redis program archive
type ArchiveConfig struct {
	URL       string `yaml:"url,omitempty"`       // Default: redis://localhost:6379/0
	Namespace string `yaml:"namespace,omitempty"` // Default: "default"
}

// Default returns a validated configuration with every default applied.
func Default() *JacquardConfig {
	c := &JacquardConfig{Version: "1.0"}
	// defaults always validate
	_ = c.Validate()
	return c
}

// Validate performs strict validation on the configuration and fills in
// defaults for every omitted setting
func (c *JacquardConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	c.applyDefaults()

	m := c.Machine
	if *m.CarrierSlots < 1 || *m.CarrierSlots > MaxCarrierSlots {
		return fmt.Errorf("machine.carrier_slots must be between 1 and %d, got %d", MaxCarrierSlots, *m.CarrierSlots)
	}
	stitches := []struct {
		name  string
		value int
	}{
		{"cast_on", *m.StitchNumber.CastOn},
		{"body", *m.StitchNumber.Body},
		{"bindoff", *m.StitchNumber.Bindoff},
	}
	for _, s := range stitches {
		if s.value < 0 {
			return fmt.Errorf("machine.stitch_number.%s must be >= 0, got %d", s.name, s.value)
		}
	}
	if *m.SubRoller.Knit < 0 || *m.SubRoller.Finish < 0 {
		return fmt.Errorf("machine.sub_roller settings must be >= 0")
	}
	if *m.EndRows < 0 {
		return fmt.Errorf("machine.end_rows must be >= 0, got %d", *m.EndRows)
	}
	if *m.Tag.Width < 1 {
		return fmt.Errorf("machine.tag.width must be >= 1, got %d", *m.Tag.Width)
	}
	if *m.Tag.Hold < 0 {
		return fmt.Errorf("machine.tag.hold must be >= 0, got %d", *m.Tag.Hold)
	}

	// Carrier table: same rules as an external mapping file
	if len(c.Carriers) > 0 {
		if _, err := palette.FromRecords(c.Carriers); err != nil {
			return fmt.Errorf("carriers: %w", err)
		}
		for _, r := range c.Carriers {
			if r.Carrier > *m.CarrierSlots {
				return fmt.Errorf("carriers: %s uses carrier %d but the machine has %d slots", r.Color, r.Carrier, *m.CarrierSlots)
			}
		}
	}

	return nil
}

func (c *JacquardConfig) applyDefaults() {
	d := jacquard.DefaultOptions()

	if c.Machine == nil {
		c.Machine = &MachineConfig{}
	}
	m := c.Machine
	setInt(&m.CarrierSlots, d.Slots)
	if m.StitchNumber == nil {
		m.StitchNumber = &StitchNumberConfig{}
	}
	setInt(&m.StitchNumber.CastOn, d.StitchNumbers.CastOn)
	setInt(&m.StitchNumber.Body, d.StitchNumbers.Body)
	setInt(&m.StitchNumber.Bindoff, d.StitchNumbers.Bindoff)
	if m.SubRoller == nil {
		m.SubRoller = &SubRollerConfig{}
	}
	setInt(&m.SubRoller.Knit, d.SubRoller.Knit)
	setInt(&m.SubRoller.Finish, d.SubRoller.Finish)
	if m.BodyRack == nil {
		rack := d.BodyRack
		m.BodyRack = &rack
	}
	setInt(&m.EndRows, d.EndRows)
	if m.Tag == nil {
		m.Tag = &TagConfig{}
	}
	setInt(&m.Tag.Width, d.TagWidth)
	setInt(&m.Tag.Hold, d.TagHold)

	if c.Archive == nil {
		c.Archive = &ArchiveConfig{}
	}
	if c.Archive.URL == "" {
		c.Archive.URL = "redis://localhost:6379/0"
	}
	if c.Archive.Namespace == "" {
		c.Archive.Namespace = "default"
	}
}

func setInt(field **int, def int) {
	if *field == nil {
		v := def
		*field = &v
	}
}

// Options converts the validated machine settings into compiler options.
func (c *JacquardConfig) Options() jacquard.Options {
	m := c.Machine
	return jacquard.Options{
		Bindoff: c.Bindoff,
		Slots:   *m.CarrierSlots,
		StitchNumbers: jacquard.StitchNumbers{
			CastOn:  *m.StitchNumber.CastOn,
			Body:    *m.StitchNumber.Body,
			Bindoff: *m.StitchNumber.Bindoff,
		},
		SubRoller: jacquard.SubRoller{
			Knit:   *m.SubRoller.Knit,
			Finish: *m.SubRoller.Finish,
		},
		BodyRack: *m.BodyRack,
		EndRows:  *m.EndRows,
		TagWidth: *m.Tag.Width,
		TagHold:  *m.Tag.Hold,
	}
}

// Registry returns the configured carrier table, or the built-in table when
// the config declares none.
func (c *JacquardConfig) Registry() (*palette.Registry, error) {
	if len(c.Carriers) == 0 {
		return palette.Default(), nil
	}
	return palette.FromRecords(c.Carriers)
}

// Load reads and validates jacquard.yml from the specified path
func Load(path string) (*JacquardConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config JacquardConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
