//go:build gocv

package imaging

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/slprescale/internal/domain"
)

func TestNewFrameCodec_OpenCV(t *testing.T) {
	assert.IsType(t, &OpenCVCodec{}, NewFrameCodec(90))
}

func TestOpenCVCodec_GrayPNG(t *testing.T) {
	c := NewOpenCVCodec(0)

	img, err := c.Decode(encodePNG(t, gradient(40, 30)))
	require.NoError(t, err)
	assert.IsType(t, &image.Gray{}, img)

	out := c.Resample(img, domain.Resolution{Width: 60, Height: 45})
	assert.Equal(t, image.Rect(0, 0, 60, 45), out.Bounds())
	assert.IsType(t, &image.Gray{}, out)

	data, err := c.Encode(out, domain.FormatPNG)
	require.NoError(t, err)
	back, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, out.Bounds(), back.Bounds())
}

func TestOpenCVCodec_ColorJPEG(t *testing.T) {
	c := NewOpenCVCodec(90)
	src := image.NewRGBA(image.Rect(0, 0, 32, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 32; x++ {
			src.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 16), B: 128, A: 255})
		}
	}

	data, err := c.Encode(src, domain.FormatJPEG)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8}, data[:2])

	img, err := c.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 16), img.Bounds())
}

func TestOpenCVCodec_FallsBackForAlpha(t *testing.T) {
	c := NewOpenCVCodec(0)
	src := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	src.Set(1, 1, color.NRGBA{R: 255, A: 10})

	out := c.Resample(src, domain.Resolution{Width: 16, Height: 16})
	assert.IsType(t, &image.NRGBA{}, out)
}

func TestOpenCVCodec_Garbage(t *testing.T) {
	_, err := NewOpenCVCodec(0).Decode([]byte("not an image"))
	assert.Error(t, err)
}
