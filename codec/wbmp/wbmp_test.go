package wbmp

import (
	"bytes"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 10x2 image: first row alternates white/black, second row is all black.
var sample = []byte{
	0x00, 0x00, // type, fixed header
	0x0a, 0x02, // width, height
	0xaa, 0x80, // 1010101010 padded
	0x00, 0x00,
}

func TestWBMP_Decode(t *testing.T) {
	img, err := Decode(bytes.NewReader(sample))
	require.NoError(t, err)

	assert.Equal(t, image.Rect(0, 0, 10, 2), img.Bounds())
	for x := 0; x < 10; x++ {
		want := color.Color(color.Black)
		if x%2 == 0 {
			want = color.White
		}
		assert.Equal(t, Palette.Convert(want), img.At(x, 0), "pixel %d", x)
		assert.Equal(t, Palette.Convert(color.Black), img.At(x, 1))
	}
}

func TestWBMP_DecodeConfig(t *testing.T) {
	cfg, err := DecodeConfig(bytes.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.Width)
	assert.Equal(t, 2, cfg.Height)
}

func TestWBMP_RegisteredWithImagePackage(t *testing.T) {
	_, name, err := image.DecodeConfig(bytes.NewReader(sample))
	require.NoError(t, err)
	assert.Equal(t, "wbmp", name)
}

func TestWBMP_MultiByteDimensions(t *testing.T) {
	var buf bytes.Buffer
	img := image.NewGray(image.Rect(0, 0, 300, 1))
	require.NoError(t, Encode(&buf, img))

	// 300 = 0b10_0101100 -> 0x82 0x2c
	assert.Equal(t, []byte{0x00, 0x00, 0x82, 0x2c, 0x01}, buf.Bytes()[:5])

	cfg, err := DecodeConfig(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 300, cfg.Width)
	assert.Equal(t, 1, cfg.Height)
}

func TestWBMP_EncodeThresholdsPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	src.Set(0, 0, color.White)
	src.Set(1, 0, color.NRGBA{R: 20, G: 20, B: 20, A: 255})
	src.Set(2, 0, color.NRGBA{R: 230, G: 230, B: 230, A: 255})

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, src))
	assert.Equal(t, []byte{0x00, 0x00, 0x03, 0x01, 0xa0}, buf.Bytes())
}

func TestWBMP_Errors(t *testing.T) {
	testCases := []struct {
		name string
		data []byte
	}{
		{"truncated header", []byte{0x00, 0x00, 0x0a}},
		{"unknown type", []byte{0x02, 0x00, 0x01, 0x01, 0x00}},
		{"zero width", []byte{0x00, 0x00, 0x00, 0x01}},
		{"truncated pixels", []byte{0x00, 0x00, 0x10, 0x02, 0xff}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(bytes.NewReader(tc.data))
			assert.Error(t, err)
		})
	}
}

func TestWBMP_EncodeEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Encode(&buf, image.NewGray(image.Rect(0, 0, 0, 0))))
}
