package jacquard

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/textiles-lab/jacquard/internal/knitout"
	"github.com/textiles-lab/jacquard/internal/palette"
	"github.com/textiles-lab/jacquard/internal/raster"
)

// CarrierRangeError is returned when the pattern uses a carrier the program
// header does not declare.
type CarrierRangeError struct {
	Carrier palette.Carrier
	Slots   int
}

func (e *CarrierRangeError) Error() string {
	return fmt.Sprintf("carrier %d is outside the machine's carrier slots 1..%d", e.Carrier, e.Slots)
}

// IsCarrierRange reports whether err is or wraps a *CarrierRangeError.
func IsCarrierRange(err error) bool {
	var target *CarrierRangeError
	return errors.As(err, &target)
}

// Summary describes a compiled program.
type Summary struct {
	RunID        string
	Width        int
	Height       int
	Carriers     []palette.Carrier
	Yarns        []palette.Entry
	Bindoff      bool
	Instructions int
	Digest       string
}

// Result is a compiled program and its summary.
type Result struct {
	Program *knitout.Program
	Summary Summary
}

// Compiler turns stitch grids into knitout programs.
type Compiler struct {
	opts   Options
	logger *zap.Logger
}

// New creates a compiler. A nil logger discards all output.
func New(opts Options, logger *zap.Logger) *Compiler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{opts: opts, logger: logger}
}

// CompileImages rasterizes the two faces through reg and compiles the
// result.
func (c *Compiler) CompileImages(front, back *raster.Pixels, reg *palette.Registry) (*Result, error) {
	grid, err := raster.Rasterize(front, back, reg)
	if err != nil {
		return nil, err
	}
	return c.Compile(grid)
}

// Compile generates the complete program for grid. Nothing is returned
// unless every stage succeeds.
func (c *Compiler) Compile(grid *raster.StitchGrid) (*Result, error) {
	if err := c.opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	if grid == nil || grid.Width == 0 || grid.Height == 0 {
		return nil, raster.ErrEmptyPattern
	}

	carriers := grid.Carriers()
	for _, carrier := range carriers {
		if carrier < 1 || int(carrier) > c.opts.Slots {
			return nil, &CarrierRangeError{Carrier: carrier, Slots: c.opts.Slots}
		}
	}

	runID := uuid.NewString()
	log := c.logger.With(zap.String("run_id", runID))
	log.Debug("Compiling pattern",
		zap.Int("width", grid.Width),
		zap.Int("height", grid.Height),
		zap.Ints("carriers", toInts(carriers)),
		zap.Bool("bindoff", c.opts.Bindoff))

	prog := knitout.NewProgram(c.opts.Slots)
	b := &builder{
		sink:    prog,
		width:   grid.Width,
		tracker: NewTracker(carriers),
		opts:    c.opts,
	}

	b.emit(knitout.SubRollerNumber(c.opts.SubRoller.Knit))
	b.castOn()
	log.Debug("Cast-on complete", zap.Int("instructions", prog.Len()))

	b.emit(knitout.Rack(c.opts.BodyRack))
	b.knitBody(grid)
	log.Debug("Body complete", zap.Int("instructions", prog.Len()))

	b.emit(knitout.SubRollerNumber(c.opts.SubRoller.Finish))
	b.finish()

	summary := Summary{
		RunID:        runID,
		Width:        grid.Width,
		Height:       grid.Height,
		Carriers:     carriers,
		Yarns:        grid.Yarns,
		Bindoff:      c.opts.Bindoff,
		Instructions: prog.Len(),
		Digest:       prog.Digest(),
	}
	log.Info("Program compiled",
		zap.Int("instructions", summary.Instructions),
		zap.String("digest", summary.Digest))

	return &Result{Program: prog, Summary: summary}, nil
}

func toInts(carriers []palette.Carrier) []int {
	out := make([]int, len(carriers))
	for i, c := range carriers {
		out[i] = int(c)
	}
	return out
}
