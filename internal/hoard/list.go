package hoard

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/textiles-lab/jacquard/pkg/archive"
)

// OutputFormat specifies how to format the program list output.
type OutputFormat string

const (
	// OutputFormatDefault uses a table format
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL outputs program metadata as line-delimited JSON
	OutputFormatJSONL OutputFormat = "jsonl"
)

// FilterCriteria defines filtering options for hoard list command.
// All filters are ANDed together.
type FilterCriteria struct {
	SinceTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	UntilTimestampMs int64  // Unix timestamp in milliseconds, 0 = no filter
	NameGlob         string // Glob pattern for the program name, empty = no filter
	Carrier          int    // Program must use this carrier, 0 = no filter
}

// matchesFilter returns true if the program matches the non-time filters.
// Time bounds are applied by the archive index query.
func (fc *FilterCriteria) matchesFilter(p *archive.Program) bool {
	if fc.NameGlob != "" {
		matched, err := filepath.Match(fc.NameGlob, p.Name)
		if err != nil || !matched {
			return false
		}
	}

	if fc.Carrier != 0 && !p.UsesCarrier(fc.Carrier) {
		return false
	}

	return true
}

// ListPrograms retrieves archived programs oldest first and writes them to
// the provided writer.
func ListPrograms(ctx context.Context, client *archive.Client, format OutputFormat, filters *FilterCriteria, w io.Writer) error {
	if filters == nil {
		filters = &FilterCriteria{}
	}

	all, err := client.ListPrograms(ctx, filters.SinceTimestampMs, filters.UntilTimestampMs)
	if err != nil {
		return fmt.Errorf("failed to list programs: %w", err)
	}

	var programs []*archive.Program
	for _, p := range all {
		if filters.matchesFilter(p) {
			programs = append(programs, p)
		}
	}

	switch format {
	case OutputFormatDefault:
		FormatTable(w, programs, client.Namespace())
	case OutputFormatJSONL:
		if err := FormatJSONL(w, programs); err != nil {
			return fmt.Errorf("failed to format JSONL output: %w", err)
		}
	default:
		return fmt.Errorf("unknown output format: %s", format)
	}

	return nil
}
