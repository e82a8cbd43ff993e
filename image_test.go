package rescale

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

// testImage returns a w x h image with a black left half and a white right half.
func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, testImage(w, h)))
	return buf.Bytes()
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

func TestImage_RoundTrip(t *testing.T) {
	dir := t.TempDir()

	for _, f := range Formats() {
		t.Run(f.String(), func(t *testing.T) {
			img := NewImage(testImage(40, 20), PNG)
			require.NoError(t, img.Resize(20, 0, imaging.Lanczos))
			assert.Equal(t, Size{20, 10}, img.Size())

			path := filepath.Join(dir, "out"+f.Ext())
			require.NoError(t, img.Save(path, nil))

			got, err := Open(path)
			require.NoError(t, err)
			assert.Equal(t, f, got.Format())
			assert.Equal(t, Size{20, 10}, got.Size())
		})
	}
}

func TestImage_MonochromeKeepsPixels(t *testing.T) {
	for _, f := range []Format{XBM, WBMP} {
		var buf bytes.Buffer
		require.NoError(t, NewImage(testImage(16, 4), PNG).Encode(&buf, f, nil))

		got, err := Decode(&buf)
		require.NoError(t, err)
		assert.Equal(t, f, got.Format())

		r, g, b, _ := got.Image().At(0, 0).RGBA()
		assert.Zero(t, r+g+b, "%s: left half should be black", f)
		r, g, b, _ = got.Image().At(15, 3).RGBA()
		assert.Equal(t, uint32(3*0xffff), r+g+b, "%s: right half should be white", f)
	}
}

func TestImage_DecodeUnsupported(t *testing.T) {
	dir := t.TempDir()

	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, testImage(4, 4), nil))
	path := filepath.Join(dir, "scan.tif")
	writeFile(t, path, buf.Bytes())

	_, err := Open(path)
	var ufe *UnsupportedFormatError
	require.True(t, errors.As(err, &ufe), "got %v", err)
	assert.Equal(t, "tiff", ufe.Name)

	path = filepath.Join(dir, "notes.txt")
	writeFile(t, path, []byte("plain text"))
	_, err = Open(path)
	require.True(t, errors.As(err, &ufe), "got %v", err)
	assert.Equal(t, "txt", ufe.Name)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestImage_DecodeZeroPrefixedFormats(t *testing.T) {
	testCases := []struct {
		ext  string
		data []byte
	}{
		{"avif", []byte("\x00\x00\x00\x1cftypavif\x00\x00\x00\x00avifmif1miaf")},
		{"heic", []byte("\x00\x00\x00\x18ftypheic\x00\x00\x00\x00mif1heic")},
		{"ico", []byte("\x00\x00\x01\x00\x01\x00\x10\x10\x00\x00\x01\x00\x20\x00\x68\x04\x00\x00\x16\x00\x00\x00")},
		{"wbmp", []byte("\x00\x00")},
	}

	for _, tc := range testCases {
		t.Run(tc.ext, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tc.data))
			assert.True(t, errors.Is(err, ErrUnsupportedFormat), "got %v", err)

			path := filepath.Join(t.TempDir(), "image."+tc.ext)
			writeFile(t, path, tc.data)
			_, err = Open(path)
			var ufe *UnsupportedFormatError
			require.True(t, errors.As(err, &ufe), "got %v", err)
			assert.Equal(t, tc.ext, ufe.Name)
		})
	}
}

func TestImage_FormatDetectedFromContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "actually-png.jpg")
	writeFile(t, path, pngBytes(t, 8, 8))

	img, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, PNG, img.Format())
}

func TestImage_SaveUnsupportedExtension(t *testing.T) {
	dir := t.TempDir()
	img := NewImage(testImage(8, 8), PNG)

	err := img.Save(filepath.Join(dir, "out.tiff"), nil)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestImage_SavePermission(t *testing.T) {
	dir := t.TempDir()
	img := NewImage(testImage(8, 8), PNG)

	path := filepath.Join(dir, "default.png")
	require.NoError(t, img.Save(path, nil))
	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, DefaultPerm, fi.Mode().Perm())

	path = filepath.Join(dir, "private.png")
	require.NoError(t, img.Save(path, &EncodeOptions{Perm: 0600}))
	fi, err = os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), fi.Mode().Perm())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temporary files should be left behind")
}

func TestImage_SaveOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.png")
	writeFile(t, path, []byte("stale"))

	require.NoError(t, NewImage(testImage(6, 3), PNG).Save(path, nil))
	img, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, Size{6, 3}, img.Size())
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestImage_EncodeError(t *testing.T) {
	img := NewImage(testImage(8, 8), PNG)

	err := img.Encode(failingWriter{}, PNG, nil)
	assert.True(t, errors.Is(err, ErrEncode))

	err = img.Encode(&bytes.Buffer{}, Format(42), nil)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
}

func TestImage_ResizeFailureKeepsImage(t *testing.T) {
	img := NewImage(testImage(1000, 1), PNG)

	size, err := img.ResizeTo(Request{Width: Dim(10)}, imaging.Box)
	assert.True(t, errors.Is(err, ErrDegenerateSize))
	assert.Equal(t, Size{10, 0}, size)
	assert.Equal(t, Size{1000, 1}, img.Size())

	_, err = img.ResizeTo(Request{}, imaging.Box)
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestImage_Quality(t *testing.T) {
	assert.Equal(t, DefaultQuality, quality(0, DefaultQuality))
	assert.Equal(t, 100, quality(150, DefaultQuality))
	assert.Equal(t, 42, quality(42, DefaultWebPQuality))
}
