// Package wbmp implements a decoder and encoder for type 0 Wireless Bitmap
// (WBMP) images: uncompressed, one bit per pixel, white for set bits.
//
// Importing the package registers the decoder with image.Decode.
package wbmp

import (
	"bufio"
	"image"
	"image/color"
	"io"

	"github.com/esimov/rescale/codec/internal/mono"
	"github.com/pkg/errors"
)

// maxPixels bounds the canvas a header may announce.
const maxPixels = 1 << 28

// Palette indexes the decoded pixels by their bit value.
var Palette = color.Palette{color.Black, color.White}

// FormatError reports malformed WBMP data.
type FormatError string

func (e FormatError) Error() string { return "wbmp: invalid format: " + string(e) }

func init() {
	image.RegisterFormat("wbmp", "\x00\x00", Decode, DecodeConfig)
}

type header struct {
	width, height int
}

func readHeader(r io.ByteReader) (header, error) {
	var h header

	typ, err := readUint(r)
	if err != nil {
		return h, err
	}
	if typ != 0 {
		return h, FormatError("unsupported type")
	}
	fix, err := r.ReadByte()
	if err != nil {
		return h, errors.Wrap(err, "wbmp: reading fixed header")
	}
	// Extension headers are only defined for types other than 0.
	if fix&0x80 != 0 {
		return h, FormatError("extension headers")
	}
	if h.width, err = readUint(r); err != nil {
		return h, err
	}
	if h.height, err = readUint(r); err != nil {
		return h, err
	}
	if h.width == 0 || h.height == 0 {
		return h, FormatError("zero dimension")
	}
	if h.width*h.height > maxPixels {
		return h, FormatError("image too large")
	}
	return h, nil
}

// readUint reads a multi-byte integer: 7 bits per byte, high bit set on every byte but the last.
func readUint(r io.ByteReader) (int, error) {
	var n int
	for i := 0; i < 4; i++ {
		c, err := r.ReadByte()
		if err != nil {
			return 0, errors.Wrap(noEOF(err), "wbmp: reading header")
		}
		n = n<<7 | int(c&0x7f)
		if c&0x80 == 0 {
			return n, nil
		}
	}
	return 0, FormatError("header integer overflow")
}

func writeUint(w io.ByteWriter, n int) error {
	var buf [5]byte
	i := len(buf) - 1
	buf[i] = byte(n & 0x7f)
	for n >>= 7; n > 0; n >>= 7 {
		i--
		buf[i] = byte(n&0x7f) | 0x80
	}
	for _, c := range buf[i:] {
		if err := w.WriteByte(c); err != nil {
			return err
		}
	}
	return nil
}

func noEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// DecodeConfig returns the dimensions of a WBMP image without decoding the pixels.
func DecodeConfig(r io.Reader) (image.Config, error) {
	h, err := readHeader(bufio.NewReader(r))
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: Palette, Width: h.width, Height: h.height}, nil
}

// Decode reads a WBMP image from r.
func Decode(r io.Reader) (image.Image, error) {
	br := bufio.NewReader(r)
	h, err := readHeader(br)
	if err != nil {
		return nil, err
	}

	img := image.NewPaletted(image.Rect(0, 0, h.width, h.height), Palette)
	row := make([]byte, (h.width+7)/8)
	for y := 0; y < h.height; y++ {
		if _, err := io.ReadFull(br, row); err != nil {
			return nil, errors.Wrap(noEOF(err), "wbmp: reading pixel data")
		}
		off := y * img.Stride
		for x := 0; x < h.width; x++ {
			img.Pix[off+x] = (row[x/8] >> (7 - uint(x%8))) & 1
		}
	}
	return img, nil
}

// Encode writes m to w in WBMP type 0 format. Pixels are reduced to black
// and white by their luminance.
func Encode(w io.Writer, m image.Image) error {
	b := m.Bounds()
	if b.Empty() {
		return FormatError("empty image")
	}

	bw := bufio.NewWriter(w)
	if err := writeUint(bw, 0); err != nil {
		return err
	}
	if err := bw.WriteByte(0); err != nil {
		return err
	}
	if err := writeUint(bw, b.Dx()); err != nil {
		return err
	}
	if err := writeUint(bw, b.Dy()); err != nil {
		return err
	}

	row := make([]byte, (b.Dx()+7)/8)
	err := mono.Rows(m, func(_ int, white []bool) error {
		for i := range row {
			row[i] = 0
		}
		for x, set := range white {
			if set {
				row[x/8] |= 0x80 >> uint(x%8)
			}
		}
		_, err := bw.Write(row)
		return err
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}
