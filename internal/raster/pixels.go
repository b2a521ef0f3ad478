// Package raster turns the front and back face images of a jacquard tube
// into stitch grids of carrier numbers.
package raster

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // registered so Decode can recognise and refuse JPEG
	"image/png"
	"io"
	"os"
	"path/filepath"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/tiff" // register TIFF decoder
	_ "golang.org/x/image/webp" // register WebP decoder
	"golang.org/x/sync/errgroup"

	"github.com/textiles-lab/jacquard/internal/palette"
)

var (
	// ErrUnsupportedFormat is returned for image formats whose colours cannot
	// be matched exactly against a yarn palette.
	ErrUnsupportedFormat = errors.New("raster: unsupported image format")

	// ErrEmptyPattern is returned for images without pixels.
	ErrEmptyPattern = errors.New("raster: pattern has no stitches")
)

// Pixels is a 24-bit colour grid in image order (row 0 is the top row).
type Pixels struct {
	Width, Height int
	pix           []palette.RGB
}

// NewPixels returns a width x height grid filled with black.
func NewPixels(width, height int) *Pixels {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Pixels{Width: width, Height: height, pix: make([]palette.RGB, width*height)}
}

// At returns the colour at column x of row y.
func (p *Pixels) At(x, y int) palette.RGB {
	return p.pix[y*p.Width+x]
}

// Set stores the colour at column x of row y.
func (p *Pixels) Set(x, y int, c palette.RGB) {
	p.pix[y*p.Width+x] = c
}

// Fill sets every pixel to c.
func (p *Pixels) Fill(c palette.RGB) *Pixels {
	for i := range p.pix {
		p.pix[i] = c
	}
	return p
}

// Image returns the grid as an opaque image.
func (p *Pixels) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, p.Width, p.Height))
	for y := range p.Height {
		row := img.Pix[y*img.Stride:]
		for x := range p.Width {
			c := p.At(x, y)
			row[4*x], row[4*x+1], row[4*x+2], row[4*x+3] = c.R, c.G, c.B, 0xff
		}
	}
	return img
}

// Encode writes the grid as a PNG.
func (p *Pixels) Encode(w io.Writer) error {
	if err := png.Encode(w, p.Image()); err != nil {
		return fmt.Errorf("raster: encode: %w", err)
	}
	return nil
}

// Save writes the grid to path as a PNG. The file is only created once the
// image has been encoded.
func (p *Pixels) Save(path string) error {
	var buf bytes.Buffer
	if err := p.Encode(&buf); err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Clean(path), buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("raster: write file: %w", err)
	}
	return nil
}

// FromImage copies an image into a colour grid. Alpha is ignored: the
// colour channels are taken as stored, without premultiplication.
func FromImage(img image.Image) *Pixels {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	p := NewPixels(width, height)

	switch src := img.(type) {
	case *image.NRGBA:
		for y := range height {
			row := src.Pix[y*src.Stride:]
			for x := range width {
				p.Set(x, y, palette.RGB{R: row[4*x], G: row[4*x+1], B: row[4*x+2]})
			}
		}
	case *image.NRGBA64:
		// 16-bit PNGs with alpha; keep the high byte of each channel
		for y := range height {
			row := src.Pix[y*src.Stride:]
			for x := range width {
				p.Set(x, y, palette.RGB{R: row[8*x], G: row[8*x+2], B: row[8*x+4]})
			}
		}
	case *image.Paletted:
		// indexed PNGs with a tRNS chunk carry translucent palette entries
		colors := make([]palette.RGB, len(src.Palette))
		for i, c := range src.Palette {
			colors[i] = straightRGB(c)
		}
		for y := range height {
			row := src.Pix[y*src.Stride:]
			for x := range width {
				p.Set(x, y, colors[row[x]])
			}
		}
	case *image.RGBA:
		// the PNG decoder only returns *image.RGBA for opaque images, where
		// premultiplied and straight channels coincide
		for y := range height {
			row := src.Pix[y*src.Stride:]
			for x := range width {
				p.Set(x, y, palette.RGB{R: row[4*x], G: row[4*x+1], B: row[4*x+2]})
			}
		}
	default:
		for y := range height {
			for x := range width {
				p.Set(x, y, straightRGB(img.At(bounds.Min.X+x, bounds.Min.Y+y)))
			}
		}
	}
	return p
}

// straightRGB drops the alpha of c without premultiplying the channels.
func straightRGB(c color.Color) palette.RGB {
	switch c := c.(type) {
	case color.NRGBA:
		return palette.RGB{R: c.R, G: c.G, B: c.B}
	case color.NRGBA64:
		return palette.RGB{R: uint8(c.R >> 8), G: uint8(c.G >> 8), B: uint8(c.B >> 8)}
	}
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return palette.RGB{R: n.R, G: n.G, B: n.B}
}

// Decode reads an image in any registered lossless format.
func Decode(r io.Reader) (*Pixels, error) {
	img, format, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("raster: decode: %w", err)
	}
	if format == "jpeg" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return FromImage(img), nil
}

// Load decodes the image file at path.
func Load(path string) (*Pixels, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("raster: open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	p, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// LoadPair decodes the front and back face images concurrently.
func LoadPair(ctx context.Context, frontPath, backPath string) (front, back *Pixels, err error) {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		front, err = Load(frontPath)
		return err
	})
	g.Go(func() error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var err error
		back, err = Load(backPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return front, back, nil
}
