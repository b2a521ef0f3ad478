package knitout

import (
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Version is the knitout format version written in the file header.
const Version = 2

// Sink receives instructions one at a time, in execution order.
type Sink interface {
	Emit(in Instruction)
}

// Header returns the two fixed header lines: the format magic and the
// declaration of the carrier slots 1..slots.
func Header(slots int) []string {
	names := make([]string, slots)
	for i := range names {
		names[i] = strconv.Itoa(i + 1)
	}
	return []string{
		fmt.Sprintf(";!knitout-%d", Version),
		";;Carriers: " + strings.Join(names, " "),
	}
}

// Program is an append-only instruction list. The zero value is not usable;
// create programs with NewProgram.
type Program struct {
	slots        int
	instructions []Instruction
}

// NewProgram creates an empty program declaring the given number of carrier
// slots in its header.
func NewProgram(slots int) *Program {
	return &Program{slots: slots}
}

// Emit appends an instruction. Implements Sink.
func (p *Program) Emit(in Instruction) {
	p.instructions = append(p.instructions, in)
}

// Len returns the number of instructions, not counting the header.
func (p *Program) Len() int {
	return len(p.instructions)
}

// Instructions returns a copy of the instruction list.
func (p *Program) Instructions() []Instruction {
	out := make([]Instruction, len(p.instructions))
	copy(out, p.instructions)
	return out
}

// Lines returns the complete program text, header included, one line per
// element.
func (p *Program) Lines() []string {
	lines := Header(p.slots)
	for _, in := range p.instructions {
		lines = append(lines, in.String())
	}
	return lines
}

// WriteTo writes the header followed by one line per instruction.
// Implements io.WriterTo.
func (p *Program) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var total int64
	for _, line := range p.Lines() {
		n, err := bw.WriteString(line + "\n")
		total += int64(n)
		if err != nil {
			return total, fmt.Errorf("knitout: write program: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return total, fmt.Errorf("knitout: write program: %w", err)
	}
	return total, nil
}

// String returns the rendered program text.
func (p *Program) String() string {
	var sb strings.Builder
	_, _ = p.WriteTo(&sb)
	return sb.String()
}

// Digest returns the hex SHA-256 of the rendered program. Identical inputs
// produce identical programs, so the digest identifies a compile result.
func (p *Program) Digest() string {
	h := sha256.New()
	_, _ = p.WriteTo(h)
	return hex.EncodeToString(h.Sum(nil))
}
