package archive

import (
	"fmt"

	"github.com/google/uuid"
)

// Program is one archived compile result.
type Program struct {
	ID           string `json:"id"`            // UUID
	Digest       string `json:"digest"`        // Hex SHA-256 of the rendered knitout
	Name         string `json:"name"`          // Operator label, usually the front image name
	Width        int    `json:"width"`         // Needles per bed
	Height       int    `json:"height"`        // Body rows
	Carriers     []int  `json:"carriers"`      // Active carriers, ascending
	Bindoff      bool   `json:"bindoff"`       // Tubular bind-off instead of end rows
	Instructions int    `json:"instructions"`  // Instruction count, header excluded
	Knitout      string `json:"knitout"`       // Complete program text
	CreatedAtMs  int64  `json:"created_at_ms"` // Unix timestamp in milliseconds
}

// Validate checks the program is complete enough to archive.
func (p *Program) Validate() error {
	if _, err := uuid.Parse(p.ID); err != nil {
		return fmt.Errorf("invalid id: %w", err)
	}
	if len(p.Digest) != 64 {
		return fmt.Errorf("digest must be 64 hex characters, got %d", len(p.Digest))
	}
	if p.Width < 1 || p.Height < 1 {
		return fmt.Errorf("dimensions must be positive, got %dx%d", p.Width, p.Height)
	}
	if len(p.Carriers) == 0 {
		return fmt.Errorf("program uses no carriers")
	}
	if p.Knitout == "" {
		return fmt.Errorf("knitout cannot be empty")
	}
	return nil
}

// UsesCarrier reports whether carrier c knits in the program.
func (p *Program) UsesCarrier(c int) bool {
	for _, pc := range p.Carriers {
		if pc == c {
			return true
		}
	}
	return false
}
