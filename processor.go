package rescale

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/esimov/rescale/utils"
	"github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
)

// Processor options
type Processor struct {
	NewWidth  int
	NewHeight int
	// Quality of JPEG and lossy WebP output. Zero selects the format default.
	Quality  int
	Lossless bool
	// Filter names the resampling filter, see FilterNames.
	Filter string
	// Format is the output format used when the destination has no file
	// extension (pipes). Empty keeps the source format.
	Format     string
	Perm       os.FileMode
	AutoOrient bool
	Logger     hclog.Logger
	Spinner    *utils.Spinner
}

// Request returns the bounding box described by NewWidth and NewHeight.
func (p *Processor) Request() Request {
	return Request{Width: BoundFromInt(p.NewWidth), Height: BoundFromInt(p.NewHeight)}
}

// Validate checks the options before any image is touched.
func (p *Processor) Validate() error {
	if p.NewWidth < 0 || p.NewHeight < 0 {
		return errors.Wrapf(ErrInvalidRequest, "negative size %dx%d", p.NewWidth, p.NewHeight)
	}
	if p.NewWidth == 0 && p.NewHeight == 0 {
		return errors.Wrap(ErrInvalidRequest, "please provide a new width or height")
	}
	if p.Quality < 0 || p.Quality > 100 {
		return errors.Errorf("quality should be between 1 and 100, got %d", p.Quality)
	}
	if _, ok := Filter(p.Filter); !ok {
		return errors.Errorf("unknown resampling filter %q, valid filters: %s",
			p.Filter, strings.Join(FilterNames(), ", "))
	}
	if p.Format != "" {
		if _, err := FormatFromName(p.Format); err != nil {
			return err
		}
	}
	return nil
}

func (p *Processor) logger() hclog.Logger {
	if p.Logger == nil {
		return hclog.NewNullLogger()
	}
	return p.Logger
}

func (p *Processor) filter() imaging.ResampleFilter {
	f, ok := Filter(p.Filter)
	if !ok {
		return imaging.Lanczos
	}
	return f
}

func (p *Processor) encodeOptions() *EncodeOptions {
	return &EncodeOptions{
		Quality:  p.Quality,
		Lossless: p.Lossless,
		Perm:     p.Perm,
	}
}

// Process decodes the image read from r, resizes it and encodes the result
// into w. When w is a file, its extension selects the output format.
func (p *Processor) Process(r io.Reader, w io.Writer) (Size, error) {
	img, err := Decode(r, WithAutoOrient(p.AutoOrient))
	if err != nil {
		return Size{}, err
	}

	format, err := p.outputFormat(w, img.Format())
	if err != nil {
		return Size{}, err
	}

	src := img.Size()
	size, err := img.ResizeTo(p.Request(), p.filter())
	if err != nil {
		return size, err
	}
	p.logger().Debug("resized", "src", src, "dst", size, "format", format)

	return size, img.Encode(w, format, p.encodeOptions())
}

// ProcessFile resizes the image stored at in and saves it to out.
// The extension of out is checked before the source is decoded.
func (p *Processor) ProcessFile(in, out string) (Size, error) {
	if _, err := FormatFromPath(out); err != nil {
		return Size{}, err
	}

	img, err := Open(in, WithAutoOrient(p.AutoOrient))
	if err != nil {
		return Size{}, err
	}
	return p.save(img, in, out)
}

// save resizes img and writes it to out.
func (p *Processor) save(img *Image, in, out string) (Size, error) {
	src := img.Size()
	size, err := img.ResizeTo(p.Request(), p.filter())
	if err != nil {
		return size, err
	}
	if err := img.Save(out, p.encodeOptions()); err != nil {
		return size, err
	}
	p.logger().Debug("saved", "src", in, "dst", out, "from", src, "to", size)
	return size, nil
}

// outputFormat picks the encoder for w.
func (p *Processor) outputFormat(w io.Writer, src Format) (Format, error) {
	if f, ok := w.(*os.File); ok && filepath.Ext(f.Name()) != "" {
		switch f {
		case os.Stdout, os.Stderr:
		default:
			return FormatFromPath(f.Name())
		}
	}
	if p.Format != "" {
		return FormatFromName(p.Format)
	}
	return src, nil
}
