package hoard

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"

	"github.com/textiles-lab/jacquard/pkg/archive"
)

// GetProgram retrieves a single program by ID and writes it to the writer:
// as pretty-printed JSON, or with raw set, as the bare knitout text ready to
// send to the machine.
func GetProgram(ctx context.Context, client *archive.Client, programID string, raw bool, w io.Writer) error {
	// Validate program ID format
	if _, err := uuid.Parse(programID); err != nil {
		return fmt.Errorf("invalid program ID format: must be a valid UUID")
	}

	program, err := client.GetProgram(ctx, programID)
	if err != nil {
		if archive.IsNotFound(err) {
			return &ProgramNotFoundError{ProgramID: programID}
		}
		return fmt.Errorf("failed to fetch program: %w", err)
	}

	if raw {
		if _, err := io.WriteString(w, program.Knitout); err != nil {
			return fmt.Errorf("failed to write knitout: %w", err)
		}
		return nil
	}

	if err := FormatSingleJSON(w, program); err != nil {
		return fmt.Errorf("failed to format program: %w", err)
	}

	return nil
}

// ProgramNotFoundError represents a specific "program not found" error.
type ProgramNotFoundError struct {
	ProgramID string
}

func (e *ProgramNotFoundError) Error() string {
	return fmt.Sprintf("program with ID '%s' not found", e.ProgramID)
}

// IsNotFound returns true if the error is a ProgramNotFoundError.
func IsNotFound(err error) bool {
	_, ok := err.(*ProgramNotFoundError)
	return ok
}
