package rescale

import (
	"bytes"
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/esimov/rescale/codec/wbmp"
	"github.com/esimov/rescale/codec/xbm"
	"github.com/pkg/errors"
	"golang.org/x/image/bmp"

	// Registered only so that TIFF input is recognized and rejected by name.
	_ "golang.org/x/image/tiff"
)

const (
	// DefaultQuality is the JPEG quality used when none is given.
	DefaultQuality = 100
	// DefaultWebPQuality is the WebP quality used when none is given.
	DefaultWebPQuality = 80
	// DefaultPerm is the permission set on saved files.
	DefaultPerm os.FileMode = 0666
)

// Image is a decoded image together with the format it was decoded from.
type Image struct {
	img    image.Image
	format Format
}

// DecodeOption configures Open and Decode.
type DecodeOption func(*decodeConfig)

type decodeConfig struct {
	autoOrient bool
}

// WithAutoOrient applies the EXIF orientation tag of the source, if any,
// so that the decoded pixels are upright.
func WithAutoOrient(enabled bool) DecodeOption {
	return func(c *decodeConfig) {
		c.autoOrient = enabled
	}
}

// EncodeOptions are the parameters of Encode and Save.
type EncodeOptions struct {
	// Quality applies to JPEG (default 100) and lossy WebP (default 80), in the range 1-100.
	Quality int
	// Lossless selects lossless WebP compression.
	Lossless bool
	// Name is used as the C identifier prefix of XBM output.
	Name string
	// Perm is the permission Save sets on the written file. Zero means DefaultPerm.
	Perm os.FileMode
}

// NewImage wraps already decoded pixels.
func NewImage(img image.Image, f Format) *Image {
	return &Image{img: img, format: f}
}

// Open decodes the image stored at path. The format is detected from the
// file content, never from the file extension.
func Open(path string, opts ...DecodeOption) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "could not open the source image")
	}
	defer f.Close()

	img, err := Decode(f, opts...)
	if err != nil {
		var ufe *UnsupportedFormatError
		if errors.As(err, &ufe) && ufe.Name == "" {
			ufe.Name = strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
			if ufe.Name == "" {
				ufe.Name = "unknown"
			}
		}
		return nil, err
	}
	return img, nil
}

// Decode reads an image in one of the supported formats from r.
func Decode(r io.Reader, opts ...DecodeOption) (*Image, error) {
	var cfg decodeConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "could not read the source image")
	}

	conf, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		// The two byte WBMP magic is shared by ICO and ISO-BMFF files (AVIF,
		// HEIC), so a rejected WBMP header means the content is not recognized.
		if errors.Is(err, image.ErrFormat) || name == "wbmp" {
			return nil, &UnsupportedFormatError{}
		}
		return nil, errors.Wrap(err, "could not decode the image header")
	}
	format, err := FormatFromName(name)
	if err != nil {
		return nil, err
	}
	if conf.Width <= 0 || conf.Height <= 0 {
		return nil, errors.Wrapf(ErrInvalidSourceDimension, "%dx%d", conf.Width, conf.Height)
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "could not decode the %s image", format)
	}

	if cfg.autoOrient {
		src = applyOrientation(src, bytes.NewReader(data))
	}
	return &Image{img: src, format: format}, nil
}

// Width returns the current width in pixels.
func (i *Image) Width() int { return i.img.Bounds().Dx() }

// Height returns the current height in pixels.
func (i *Image) Height() int { return i.img.Bounds().Dy() }

// Size returns the current dimensions.
func (i *Image) Size() Size { return Size{Width: i.Width(), Height: i.Height()} }

// Format returns the format the image was decoded from.
func (i *Image) Format() Format { return i.format }

// Image returns the underlying pixels.
func (i *Image) Image() image.Image { return i.img }

// Resize rescales the image into a width x height bounding box keeping its
// aspect ratio. A zero width or height leaves that axis unconstrained.
func (i *Image) Resize(width, height int, filter imaging.ResampleFilter) error {
	_, err := i.ResizeTo(Request{Width: BoundFromInt(width), Height: BoundFromInt(height)}, filter)
	return err
}

// ResizeTo rescales the image to the size computed by Fit. The image is
// left untouched when Fit fails.
func (i *Image) ResizeTo(req Request, filter imaging.ResampleFilter) (Size, error) {
	size, err := Fit(i.Width(), i.Height(), req)
	if err != nil {
		return size, err
	}
	if size == i.Size() {
		return size, nil
	}
	i.img = imaging.Resize(i.img, size.Width, size.Height, filter)
	return size, nil
}

// Encode writes the image to w in format f.
func (i *Image) Encode(w io.Writer, f Format, opts *EncodeOptions) error {
	if opts == nil {
		opts = &EncodeOptions{}
	}

	var err error
	switch f {
	case JPEG:
		err = jpeg.Encode(w, i.img, &jpeg.Options{Quality: quality(opts.Quality, DefaultQuality)})
	case GIF:
		err = gif.Encode(w, i.img, nil)
	case PNG:
		err = png.Encode(w, i.img)
	case XBM:
		err = xbm.Encode(w, i.img, &xbm.Options{Name: opts.Name})
	case WBMP:
		err = wbmp.Encode(w, i.img)
	case BMP:
		err = bmp.Encode(w, i.img)
	case WEBP:
		err = webp.Encode(w, i.img, &webp.Options{
			Lossless: opts.Lossless,
			Quality:  float32(quality(opts.Quality, DefaultWebPQuality)),
		})
	default:
		return &UnsupportedFormatError{Name: f.String()}
	}
	if err != nil {
		return &encodeError{format: f, cause: err}
	}
	return nil
}

// Save encodes the image into path using the format selected by the file
// extension. Nothing is written when the extension is not supported. The
// data is written to a temporary file first and renamed into place, so a
// failed encode never leaves a partial file behind. The saved file gets
// opts.Perm (DefaultPerm when unset) as its permission.
func (i *Image) Save(path string, opts *EncodeOptions) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}

	o := EncodeOptions{}
	if opts != nil {
		o = *opts
	}
	if o.Name == "" {
		o.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	perm := o.Perm
	if perm == 0 {
		perm = DefaultPerm
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "could not create the destination file")
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	if err := i.Encode(tmp, f, &o); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, "could not close the destination file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		return errors.Wrap(err, "could not move the destination file into place")
	}
	if err := os.Chmod(path, perm); err != nil {
		return errors.Wrapf(err, "could not set the permission of %s", path)
	}
	return nil
}

func quality(q, def int) int {
	switch {
	case q <= 0:
		return def
	case q > 100:
		return 100
	}
	return q
}
