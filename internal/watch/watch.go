package watch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/textiles-lab/jacquard/pkg/archive"
)

// OutputFormat specifies how streamed events are rendered.
type OutputFormat string

const (
	// OutputFormatDefault prints one human-readable line per event
	OutputFormatDefault OutputFormat = "default"

	// OutputFormatJSONL prints each event as a JSON object on its own line
	OutputFormatJSONL OutputFormat = "jsonl"
)

// StreamPrograms writes a line for every program archived until ctx is
// cancelled. Undecodable events are reported inline and skipped.
func StreamPrograms(ctx context.Context, client *archive.Client, format OutputFormat, w io.Writer) error {
	if format != OutputFormatDefault && format != OutputFormatJSONL {
		return fmt.Errorf("unknown output format: %s", format)
	}

	sub, err := client.SubscribeProgramEvents(ctx)
	if err != nil {
		return err
	}
	defer sub.Close()

	if format == OutputFormatDefault {
		fmt.Fprintf(w, "Watching archive '%s' (Ctrl+C to stop)\n", client.Namespace())
	}

	events, errs := sub.Events(), sub.Errors()
	for {
		select {
		case <-ctx.Done():
			return nil
		case p, ok := <-events:
			if !ok {
				return nil
			}
			if err := writeEvent(w, format, p); err != nil {
				return err
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			fmt.Fprintf(w, "⚠️  %v\n", err)
		}
	}
}

func writeEvent(w io.Writer, format OutputFormat, p *archive.Program) error {
	if format == OutputFormatJSONL {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to marshal event: %w", err)
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	}
	_, err := fmt.Fprintln(w, FormatEvent(p))
	return err
}

// FormatEvent renders a program event as a single line.
func FormatEvent(p *archive.Program) string {
	carriers := make([]string, len(p.Carriers))
	for i, c := range p.Carriers {
		carriers[i] = strconv.Itoa(c)
	}
	finish := "end rows"
	if p.Bindoff {
		finish = "bind-off"
	}
	name := p.Name
	if name == "" {
		name = "unnamed"
	}

	return fmt.Sprintf("[%s] 🧶 Program archived: id=%s name=%s size=%dx%d carriers=%s finish=%s instructions=%d",
		time.UnixMilli(p.CreatedAtMs).UTC().Format(time.TimeOnly),
		p.ID, name, p.Width, p.Height, strings.Join(carriers, ","), finish, p.Instructions)
}

// PollForProgram polls the archive until a program with the given digest
// appears. Polls every 200ms for the specified timeout duration.
func PollForProgram(ctx context.Context, client *archive.Client, digest string, timeout time.Duration) (*archive.Program, error) {
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	timeoutCh := time.After(timeout)

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case <-timeoutCh:
			return nil, fmt.Errorf("timeout waiting for program after %v", timeout)

		case <-ticker.C:
			program, err := client.FindByDigest(ctx, digest)
			if err != nil {
				if archive.IsNotFound(err) {
					// Not archived yet, continue polling
					continue
				}
				return nil, fmt.Errorf("failed to query for program: %w", err)
			}

			return program, nil
		}
	}
}
