package hoard

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/textiles-lab/jacquard/pkg/archive"
)

// FormatTable writes programs as a formatted table to the provided writer.
// Returns the number of programs formatted.
func FormatTable(w io.Writer, programs []*archive.Program, namespace string) int {
	if len(programs) == 0 {
		fmt.Fprintf(w, "No programs found in archive '%s'\n", namespace)
		return 0
	}

	fmt.Fprintf(w, "Programs in archive '%s':\n\n", namespace)

	fmt.Fprintf(w, "%-10s %-20s %-9s %-12s %-8s %-8s %s\n",
		"ID", "NAME", "SIZE", "CARRIERS", "FINISH", "AGE", "DIGEST")
	fmt.Fprintf(w, "%-10s %-20s %-9s %-12s %-8s %-8s %s\n",
		"----------", "--------------------", "---------", "------------", "--------", "--------", "------------")

	for _, p := range programs {
		fmt.Fprintf(w, "%-10s %-20s %-9s %-12s %-8s %-8s %s\n",
			formatID(p.ID),
			formatName(p.Name),
			fmt.Sprintf("%dx%d", p.Width, p.Height),
			formatCarriers(p.Carriers),
			formatFinish(p.Bindoff),
			formatTimestamp(p.CreatedAtMs),
			formatDigest(p.Digest),
		)
	}

	countMsg := "program"
	if len(programs) != 1 {
		countMsg = "programs"
	}
	fmt.Fprintf(w, "\n%d %s found\n", len(programs), countMsg)

	return len(programs)
}

// listing is the JSONL shape: program metadata without the knitout text.
type listing struct {
	*archive.Program
	Knitout string `json:"knitout,omitempty"`
}

// FormatJSONL writes program metadata as line-delimited JSON. The knitout
// text is left out; fetch a single program to get it.
func FormatJSONL(w io.Writer, programs []*archive.Program) error {
	for _, p := range programs {
		data, err := json.Marshal(listing{Program: p})
		if err != nil {
			return fmt.Errorf("failed to marshal program to JSON: %w", err)
		}

		if _, err := fmt.Fprintf(w, "%s\n", data); err != nil {
			return fmt.Errorf("failed to write JSONL output: %w", err)
		}
	}

	return nil
}

// FormatSingleJSON writes a single program as pretty-printed JSON.
func FormatSingleJSON(w io.Writer, program *archive.Program) error {
	data, err := json.MarshalIndent(program, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal program to JSON: %w", err)
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write JSON output: %w", err)
	}

	// Add newline for clean output
	fmt.Fprintln(w)

	return nil
}

// formatID truncates program ID to first 8 characters for compact display.
func formatID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// formatName truncates long names. Empty names return "-".
func formatName(name string) string {
	if name == "" {
		return "-"
	}
	if len(name) > 20 {
		return name[:17] + "..."
	}
	return name
}

// formatCarriers renders the carrier list as "1,3,6".
func formatCarriers(carriers []int) string {
	if len(carriers) == 0 {
		return "-"
	}
	parts := make([]string, len(carriers))
	for i, c := range carriers {
		parts[i] = strconv.Itoa(c)
	}
	return strings.Join(parts, ",")
}

func formatFinish(bindoff bool) string {
	if bindoff {
		return "bindoff"
	}
	return "rows"
}

// formatDigest shortens the digest to 12 characters.
func formatDigest(digest string) string {
	if len(digest) > 12 {
		return digest[:12]
	}
	return digest
}

// formatTimestamp formats Unix timestamp in milliseconds as a relative age
// like "2m ago".
func formatTimestamp(timestampMs int64) string {
	if timestampMs == 0 {
		return "-"
	}

	t := time.UnixMilli(timestampMs)
	diff := time.Since(t)

	switch {
	case diff < time.Minute:
		return fmt.Sprintf("%ds ago", int(diff.Seconds()))
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	}
}
