// Package knitout provides the instruction vocabulary for knitout programs
// driving a two-bed knitting machine, and an append-only Program that
// records instructions in machine execution order.
package knitout

import (
	"fmt"
	"strconv"
)

// Bed identifies one of the two needle beds.
type Bed byte

const (
	Front Bed = 'f'
	Back  Bed = 'b'
)

// Opposite returns the other bed.
func (b Bed) Opposite() Bed {
	if b == Front {
		return Back
	}
	return Front
}

func (b Bed) String() string {
	return string(b)
}

// Direction is the travel direction of a carrier during a pass.
type Direction byte

const (
	// Decreasing travels toward lower needle indices ("-").
	Decreasing Direction = '-'
	// Increasing travels toward higher needle indices ("+").
	Increasing Direction = '+'
)

// Opposite returns the reverse direction.
func (d Direction) Opposite() Direction {
	if d == Decreasing {
		return Increasing
	}
	return Decreasing
}

// Step returns the index delta of one needle in this direction: -1 or +1.
func (d Direction) Step() int {
	if d == Decreasing {
		return -1
	}
	return 1
}

func (d Direction) String() string {
	return string(d)
}

// Needle addresses a needle on a bed. Index may fall outside the knitted
// width, e.g. while parking a carrier or knitting a bind-off tag.
type Needle struct {
	Bed   Bed
	Index int
}

// F returns the front needle at index n.
func F(n int) Needle { return Needle{Bed: Front, Index: n} }

// B returns the back needle at index n.
func B(n int) Needle { return Needle{Bed: Back, Index: n} }

func (n Needle) String() string {
	return string(n.Bed) + strconv.Itoa(n.Index)
}

// Op is the instruction opcode.
type Op int

const (
	OpInhook Op = iota
	OpReleasehook
	OpOuthook
	OpKnit
	OpTuck
	OpMiss
	OpXfer
	OpRack
	OpDrop
	OpStitchNumber
	OpSubRollerNumber
)

var opNames = map[Op]string{
	OpInhook:          "inhook",
	OpReleasehook:     "releasehook",
	OpOuthook:         "outhook",
	OpKnit:            "knit",
	OpTuck:            "tuck",
	OpMiss:            "miss",
	OpXfer:            "xfer",
	OpRack:            "rack",
	OpDrop:            "drop",
	OpStitchNumber:    "x-stitch-number",
	OpSubRollerNumber: "x-sub-roller-number",
}

func (o Op) String() string {
	if name, ok := opNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Op(%d)", int(o))
}

// Instruction is a single knitout operation. Which fields are meaningful
// depends on Op; use the constructors rather than building values by hand.
type Instruction struct {
	Op        Op
	Direction Direction
	Needle    Needle
	Target    Needle
	Carrier   int
	Value     float64
}

// In engages the carrier's yarn inserting hook.
func In(carrier int) Instruction {
	return Instruction{Op: OpInhook, Carrier: carrier}
}

// Release frees the yarn inserting hook holding the carrier.
func Release(carrier int) Instruction {
	return Instruction{Op: OpReleasehook, Carrier: carrier}
}

// Out takes the carrier out of work.
func Out(carrier int) Instruction {
	return Instruction{Op: OpOuthook, Carrier: carrier}
}

// Knit forms a loop on needle n with the carrier travelling in direction d.
func Knit(d Direction, n Needle, carrier int) Instruction {
	return Instruction{Op: OpKnit, Direction: d, Needle: n, Carrier: carrier}
}

// Tuck lays the carrier's yarn in the hook of needle n without knitting.
func Tuck(d Direction, n Needle, carrier int) Instruction {
	return Instruction{Op: OpTuck, Direction: d, Needle: n, Carrier: carrier}
}

// Miss moves the carrier past needle n without forming a loop.
func Miss(d Direction, n Needle, carrier int) Instruction {
	return Instruction{Op: OpMiss, Direction: d, Needle: n, Carrier: carrier}
}

// Xfer moves the loops held by from onto to.
func Xfer(from, to Needle) Instruction {
	return Instruction{Op: OpXfer, Needle: from, Target: to}
}

// Rack sets the lateral offset of the back bed relative to the front bed.
func Rack(offset float64) Instruction {
	return Instruction{Op: OpRack, Value: offset}
}

// Drop releases whatever loops needle n holds.
func Drop(n Needle) Instruction {
	return Instruction{Op: OpDrop, Needle: n}
}

// StitchNumber selects a machine stitch (loop length) setting.
func StitchNumber(n int) Instruction {
	return Instruction{Op: OpStitchNumber, Value: float64(n)}
}

// SubRollerNumber selects a sub roller setting.
func SubRollerNumber(n int) Instruction {
	return Instruction{Op: OpSubRollerNumber, Value: float64(n)}
}

// String renders the instruction as one knitout line without the trailing
// newline.
func (in Instruction) String() string {
	switch in.Op {
	case OpInhook, OpReleasehook, OpOuthook:
		return fmt.Sprintf("%s %d", in.Op, in.Carrier)
	case OpKnit, OpTuck, OpMiss:
		return fmt.Sprintf("%s %s %s %d", in.Op, in.Direction, in.Needle, in.Carrier)
	case OpXfer:
		return fmt.Sprintf("%s %s %s", in.Op, in.Needle, in.Target)
	case OpRack, OpStitchNumber, OpSubRollerNumber:
		return in.Op.String() + " " + formatNum(in.Value)
	case OpDrop:
		return fmt.Sprintf("%s %s", in.Op, in.Needle)
	default:
		return in.Op.String()
	}
}

func formatNum(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
