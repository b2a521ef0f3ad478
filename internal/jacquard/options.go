package jacquard

import "fmt"

// StitchNumbers are the machine stitch settings selected at fixed points of
// the program.
type StitchNumbers struct {
	CastOn  int // waste course of the first carrier
	Body    int // from the first carrier's tubular priming onwards
	Bindoff int // closing walk and tag
}

// SubRoller holds the sub roller settings for knitting and finishing.
type SubRoller struct {
	Knit   int
	Finish int
}

// Options control program generation.
type Options struct {
	// Bindoff selects the tubular bind-off instead of plain end rows.
	Bindoff bool

	// Slots is the number of carriers declared in the program header.
	Slots int

	StitchNumbers StitchNumbers
	SubRoller     SubRoller

	// BodyRack is the rack used while knitting the body; a quarter pitch
	// lets both beds knit the same needle index in one pass.
	BodyRack float64

	// EndRows is the number of filler rows knitted before dropping the work.
	EndRows int

	// TagWidth is how many needles the bind-off tag extends past the edge;
	// TagHold is the number of full-width tag passes after widening.
	TagWidth int
	TagHold  int
}

// DefaultOptions returns the settings of the shop's machine.
func DefaultOptions() Options {
	return Options{
		Slots:         10,
		StitchNumbers: StitchNumbers{CastOn: 104, Body: 105, Bindoff: 106},
		SubRoller:     SubRoller{Knit: 3, Finish: 0},
		BodyRack:      0.25,
		EndRows:       3,
		TagWidth:      4,
		TagHold:       3,
	}
}

// Validate checks that the options describe a program that can be built.
func (o Options) Validate() error {
	if o.Slots < 1 {
		return fmt.Errorf("carrier slots must be >= 1, got %d", o.Slots)
	}
	if o.EndRows < 0 {
		return fmt.Errorf("end rows must be >= 0, got %d", o.EndRows)
	}
	if o.TagWidth < 1 {
		return fmt.Errorf("tag width must be >= 1, got %d", o.TagWidth)
	}
	if o.TagHold < 0 {
		return fmt.Errorf("tag hold passes must be >= 0, got %d", o.TagHold)
	}
	return nil
}
