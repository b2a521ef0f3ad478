package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textiles-lab/jacquard/internal/jacquard"
	"github.com/textiles-lab/jacquard/internal/palette"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "jacquard.yml")
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return configPath
}

func intPtr(i int) *int {
	return &i
}

func TestLoad_MinimalConfig(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
`)

	config, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "1.0", config.Version)
	assert.False(t, config.Bindoff)

	// Every machine setting falls back to the compiler defaults
	assert.Equal(t, jacquard.DefaultOptions(), config.Options())
	assert.Equal(t, "redis://localhost:6379/0", config.Archive.URL)
	assert.Equal(t, "default", config.Archive.Namespace)

	reg, err := config.Registry()
	require.NoError(t, err)
	assert.Equal(t, palette.Default().Entries(), reg.Entries())
}

func TestLoad_FullConfig(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
bindoff: true
carriers:
  - {color: "#000000", carrier: 1, label: "black"}
  - {color: "#FFFFFF", carrier: 2, label: "white"}
  - {color: "#9d0031", carrier: -1, label: "magenta"}
machine:
  carrier_slots: 4
  stitch_number: {cast_on: 90, body: 91, bindoff: 92}
  sub_roller: {knit: 2, finish: 1}
  body_rack: 0.5
  end_rows: 0
  tag: {width: 2, hold: 1}
archive:
  url: redis://archive:6379/2
  namespace: studio
`)

	config, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, jacquard.Options{
		Bindoff:       true,
		Slots:         4,
		StitchNumbers: jacquard.StitchNumbers{CastOn: 90, Body: 91, Bindoff: 92},
		SubRoller:     jacquard.SubRoller{Knit: 2, Finish: 1},
		BodyRack:      0.5,
		EndRows:       0,
		TagWidth:      2,
		TagHold:       1,
	}, config.Options())
	assert.Equal(t, "redis://archive:6379/2", config.Archive.URL)
	assert.Equal(t, "studio", config.Archive.Namespace)

	reg, err := config.Registry()
	require.NoError(t, err)
	assert.Equal(t, 3, reg.Len())

	c, err := reg.Resolve(palette.Hex24(0xffffff))
	require.NoError(t, err)
	assert.Equal(t, palette.Carrier(2), c)

	_, err = reg.Resolve(palette.Hex24(0x9d0031))
	assert.True(t, palette.IsCarrierUnavailable(err))
}

func TestLoad_PartialMachineSection(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
machine:
  stitch_number:
    body: 110
  tag:
    hold: 0
`)

	config, err := Load(configPath)
	require.NoError(t, err)

	opts := config.Options()
	assert.Equal(t, 104, opts.StitchNumbers.CastOn)
	assert.Equal(t, 110, opts.StitchNumbers.Body)
	assert.Equal(t, 106, opts.StitchNumbers.Bindoff)
	assert.Equal(t, 4, opts.TagWidth)
	assert.Equal(t, 0, opts.TagHold, "explicit zero must not be replaced by the default")
}

func TestLoad_FileNotFound(t *testing.T) {
	config, err := Load("/nonexistent/jacquard.yml")
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_InvalidYAML(t *testing.T) {
	configPath := writeConfig(t, `version: "1.0"
machine:
  - this is invalid
    yaml syntax
`)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_InvalidConfiguration(t *testing.T) {
	configPath := writeConfig(t, `version: "2.0"
`)

	config, err := Load(configPath)
	assert.Error(t, err)
	assert.Nil(t, config)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "unsupported version: 2.0")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  *JacquardConfig
		wantErr string
	}{
		{
			name:   "defaults",
			config: &JacquardConfig{Version: "1.0"},
		},
		{
			name:    "missing version",
			config:  &JacquardConfig{},
			wantErr: "unsupported version",
		},
		{
			name:    "zero carrier slots",
			config:  &JacquardConfig{Version: "1.0", Machine: &MachineConfig{CarrierSlots: intPtr(0)}},
			wantErr: "machine.carrier_slots must be between 1 and 32, got 0",
		},
		{
			name:    "too many carrier slots",
			config:  &JacquardConfig{Version: "1.0", Machine: &MachineConfig{CarrierSlots: intPtr(33)}},
			wantErr: "machine.carrier_slots must be between 1 and 32, got 33",
		},
		{
			name: "negative stitch number",
			config: &JacquardConfig{Version: "1.0", Machine: &MachineConfig{
				StitchNumber: &StitchNumberConfig{Bindoff: intPtr(-1)},
			}},
			wantErr: "machine.stitch_number.bindoff must be >= 0",
		},
		{
			name: "negative sub roller",
			config: &JacquardConfig{Version: "1.0", Machine: &MachineConfig{
				SubRoller: &SubRollerConfig{Knit: intPtr(-3)},
			}},
			wantErr: "machine.sub_roller",
		},
		{
			name:    "negative end rows",
			config:  &JacquardConfig{Version: "1.0", Machine: &MachineConfig{EndRows: intPtr(-1)}},
			wantErr: "machine.end_rows must be >= 0",
		},
		{
			name: "zero tag width",
			config: &JacquardConfig{Version: "1.0", Machine: &MachineConfig{
				Tag: &TagConfig{Width: intPtr(0)},
			}},
			wantErr: "machine.tag.width must be >= 1",
		},
		{
			name: "negative tag hold",
			config: &JacquardConfig{Version: "1.0", Machine: &MachineConfig{
				Tag: &TagConfig{Hold: intPtr(-1)},
			}},
			wantErr: "machine.tag.hold must be >= 0",
		},
		{
			name: "duplicate carrier colour",
			config: &JacquardConfig{Version: "1.0", Carriers: []palette.Record{
				{Color: "#000000", Carrier: 1, Label: "black"},
				{Color: "#000000", Carrier: 2, Label: "also black"},
			}},
			wantErr: "already added",
		},
		{
			name: "bad carrier colour",
			config: &JacquardConfig{Version: "1.0", Carriers: []palette.Record{
				{Color: "black", Carrier: 1},
			}},
			wantErr: "carriers: entry 0",
		},
		{
			name: "carrier beyond machine slots",
			config: &JacquardConfig{
				Version:  "1.0",
				Carriers: []palette.Record{{Color: "#000000", Carrier: 6}},
				Machine:  &MachineConfig{CarrierSlots: intPtr(4)},
			},
			wantErr: "uses carrier 6 but the machine has 4 slots",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDefault(t *testing.T) {
	config := Default()
	require.NotNil(t, config.Machine)
	assert.Equal(t, jacquard.DefaultOptions(), config.Options())
	assert.NoError(t, config.Validate(), "validating twice keeps the config valid")
}
