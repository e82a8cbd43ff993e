// Package xbm implements a decoder and encoder for X BitMap (XBM) images,
// the C source format used by X11 for monochrome bitmaps.
//
// Both the X11 (char) and X10 (short) variants are decoded; images are
// always encoded as X11. Set bits are foreground (black) pixels.
//
// Importing the package registers the decoder with image.Decode.
package xbm

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"io"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/esimov/rescale/codec/internal/mono"
	"github.com/pkg/errors"
)

const (
	// maxPixels bounds the canvas a header may announce.
	maxPixels = 1 << 26
	// maxSize bounds the amount of source text read.
	maxSize = 64 << 20
	// bytesPerLine is the number of values written on one line of output.
	bytesPerLine = 12
)

// Palette indexes the decoded pixels by their bit value.
var Palette = color.Palette{color.White, color.Black}

// FormatError reports malformed XBM data.
type FormatError string

func (e FormatError) Error() string { return "xbm: invalid format: " + string(e) }

// Options are the encoding parameters.
type Options struct {
	// Name prefixes the generated C identifiers. It defaults to "image".
	Name string
}

func init() {
	image.RegisterFormat("xbm", "#define ", Decode, DecodeConfig)
}

var (
	defineRE = regexp.MustCompile(`#define\s+\S*?(width|height)\s+(\d+)`)
	shortRE  = regexp.MustCompile(`\bshort\b`)
	identRE  = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

type bitmap struct {
	width, height int
	// stride is the number of bytes per row in data.
	stride int
	data   []byte
}

func parse(r io.Reader, withData bool) (*bitmap, error) {
	src, err := io.ReadAll(io.LimitReader(r, maxSize+1))
	if err != nil {
		return nil, errors.Wrap(err, "xbm: reading source")
	}
	if len(src) > maxSize {
		return nil, FormatError("source too large")
	}
	text := string(src)

	head := text
	brace := strings.IndexByte(text, '{')
	if brace >= 0 {
		head = text[:brace]
	}

	bm := &bitmap{}
	for _, m := range defineRE.FindAllStringSubmatch(head, -1) {
		n, err := strconv.Atoi(m[2])
		if err != nil {
			return nil, FormatError("bad dimension " + m[2])
		}
		if m[1] == "width" {
			bm.width = n
		} else {
			bm.height = n
		}
	}
	if bm.width <= 0 || bm.height <= 0 {
		return nil, FormatError("missing width or height")
	}
	if bm.width*bm.height > maxPixels {
		return nil, FormatError("image too large")
	}
	if !withData {
		return bm, nil
	}

	if brace < 0 {
		return nil, FormatError("missing bitmap data")
	}
	end := strings.IndexByte(text[brace:], '}')
	if end < 0 {
		return nil, FormatError("unterminated bitmap data")
	}
	values := strings.FieldsFunc(text[brace+1:brace+end], func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})

	bits := 8
	bm.stride = (bm.width + 7) / 8
	if shortRE.MatchString(head) {
		bits = 16
		bm.stride = (bm.width + 15) / 16 * 2
	}

	need := bm.stride * bm.height
	bm.data = make([]byte, 0, need)
	for _, v := range values {
		if len(bm.data) >= need {
			break
		}
		n, err := strconv.ParseUint(v, 0, bits)
		if err != nil {
			return nil, FormatError(fmt.Sprintf("bad value %q", v))
		}
		bm.data = append(bm.data, byte(n))
		if bits == 16 {
			bm.data = append(bm.data, byte(n>>8))
		}
	}
	if len(bm.data) < need {
		return nil, FormatError("not enough bitmap data")
	}
	return bm, nil
}

// DecodeConfig returns the dimensions of an XBM image without decoding the pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	bm, err := parse(r, false)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: Palette, Width: bm.width, Height: bm.height}, nil
}

// Decode reads an XBM image from r.
func Decode(r io.Reader) (image.Image, error) {
	bm, err := parse(r, true)
	if err != nil {
		return nil, err
	}

	img := image.NewPaletted(image.Rect(0, 0, bm.width, bm.height), Palette)
	for y := 0; y < bm.height; y++ {
		row := bm.data[y*bm.stride : (y+1)*bm.stride]
		off := y * img.Stride
		for x := 0; x < bm.width; x++ {
			img.Pix[off+x] = (row[x/8] >> uint(x%8)) & 1
		}
	}
	return img, nil
}

// Encode writes m to w as X11 bitmap source. Dark pixels become foreground bits.
func Encode(w io.Writer, m image.Image, o *Options) error {
	b := m.Bounds()
	if b.Empty() {
		return FormatError("empty image")
	}
	name := "image"
	if o != nil && o.Name != "" {
		name = identifier(o.Name)
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "#define %s_width %d\n", name, b.Dx())
	fmt.Fprintf(bw, "#define %s_height %d\n", name, b.Dy())
	fmt.Fprintf(bw, "static unsigned char %s_bits[] = {\n", name)

	var (
		row   = make([]byte, (b.Dx()+7)/8)
		count = 0
		total = len(row) * b.Dy()
	)
	err := mono.Rows(m, func(_ int, white []bool) error {
		for i := range row {
			row[i] = 0
		}
		for x, isWhite := range white {
			if !isWhite {
				row[x/8] |= 1 << uint(x%8)
			}
		}
		for _, c := range row {
			if count%bytesPerLine == 0 {
				bw.WriteString("   ")
			}
			fmt.Fprintf(bw, "0x%02x", c)
			count++
			switch {
			case count == total:
				bw.WriteString(" };\n")
			case count%bytesPerLine == 0:
				bw.WriteString(",\n")
			default:
				bw.WriteString(", ")
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

// identifier turns name into a valid C identifier.
func identifier(name string) string {
	id := identRE.ReplaceAllString(name, "_")
	if id == "" || unicode.IsDigit(rune(id[0])) {
		id = "_" + id
	}
	return id
}
