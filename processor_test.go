package rescale

import (
	"bytes"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProcessor_Validate(t *testing.T) {
	testCases := []struct {
		name string
		p    Processor
		ok   bool
	}{
		{"width", Processor{NewWidth: 10}, true},
		{"height and filter", Processor{NewHeight: 10, Filter: "box"}, true},
		{"format alias", Processor{NewWidth: 10, Format: "jpg"}, true},
		{"no size", Processor{}, false},
		{"negative", Processor{NewWidth: -1, NewHeight: 10}, false},
		{"quality", Processor{NewWidth: 10, Quality: 101}, false},
		{"filter", Processor{NewWidth: 10, Filter: "bicubic"}, false},
		{"format", Processor{NewWidth: 10, Format: "tiff"}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.p.Validate()
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}

	err := (&Processor{}).Validate()
	assert.True(t, errors.Is(err, ErrInvalidRequest))
}

func TestProcessor_ProcessKeepsSourceFormat(t *testing.T) {
	p := &Processor{NewWidth: 50}

	var out bytes.Buffer
	size, err := p.Process(bytes.NewReader(pngBytes(t, 200, 100)), &out)
	require.NoError(t, err)
	assert.Equal(t, Size{50, 25}, size)

	cfg, name, err := image.DecodeConfig(&out)
	require.NoError(t, err)
	assert.Equal(t, "png", name)
	assert.Equal(t, 50, cfg.Width)
	assert.Equal(t, 25, cfg.Height)
}

func TestProcessor_ProcessFormatOverride(t *testing.T) {
	p := &Processor{NewHeight: 10, Format: "jpeg", Quality: 75}

	var out bytes.Buffer
	size, err := p.Process(bytes.NewReader(pngBytes(t, 200, 100)), &out)
	require.NoError(t, err)
	assert.Equal(t, Size{20, 10}, size)

	_, name, err := image.DecodeConfig(&out)
	require.NoError(t, err)
	assert.Equal(t, "jpeg", name)
}

func TestProcessor_ProcessToFileUsesExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bmp")
	f, err := os.Create(path)
	require.NoError(t, err)

	p := &Processor{NewWidth: 10, Format: "gif"}
	_, err = p.Process(bytes.NewReader(pngBytes(t, 20, 20)), f)
	require.NoError(t, f.Close())
	require.NoError(t, err)

	img, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, BMP, img.Format())
	assert.Equal(t, Size{10, 10}, img.Size())
}

func TestProcessor_ProcessFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.png")
	writeFile(t, in, pngBytes(t, 800, 600))

	p := &Processor{NewWidth: 400, NewHeight: 400, Filter: "catmullrom"}
	out := filepath.Join(dir, "out.webp")
	size, err := p.ProcessFile(in, out)
	require.NoError(t, err)
	assert.Equal(t, Size{400, 300}, size)

	img, err := Open(out)
	require.NoError(t, err)
	assert.Equal(t, WEBP, img.Format())
	assert.Equal(t, Size{400, 300}, img.Size())
}

func TestProcessor_ProcessFileRejectsOutputFirst(t *testing.T) {
	dir := t.TempDir()
	p := &Processor{NewWidth: 10}

	// The source does not even exist: the destination is checked first.
	_, err := p.ProcessFile(filepath.Join(dir, "missing.png"), filepath.Join(dir, "out.svg"))
	var ufe *UnsupportedFormatError
	require.True(t, errors.As(err, &ufe), "got %v", err)
	assert.Equal(t, "svg", ufe.Name)

	_, err = os.Stat(filepath.Join(dir, "out.svg"))
	assert.True(t, os.IsNotExist(err))
}

func TestProcessor_ProcessFileDegenerate(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "line.png")
	writeFile(t, in, pngBytes(t, 1000, 1))

	p := &Processor{NewWidth: 10}
	out := filepath.Join(dir, "out.png")
	size, err := p.ProcessFile(in, out)
	assert.True(t, errors.Is(err, ErrDegenerateSize))
	assert.Equal(t, Size{10, 0}, size)

	_, err = os.Stat(out)
	assert.True(t, os.IsNotExist(err))
}
