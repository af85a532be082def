// Package imaging implements ports.FrameCodec with the standard JPEG and PNG
// codecs and golang.org/x/image bilinear resampling.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"

	"golang.org/x/image/draw"

	"github.com/bft-labs/slprescale/internal/domain"
)

// DefaultJPEGQuality matches the quality OpenCV uses when none is given.
const DefaultJPEGQuality = 95

// Codec decodes, resamples and encodes embedded frames.
type Codec struct {
	jpegQuality int
	pngLevel    png.CompressionLevel
}

// NewCodec returns a codec writing JPEG at the given quality (1-100).
// Out-of-range values use DefaultJPEGQuality.
func NewCodec(jpegQuality int) *Codec {
	if jpegQuality < 1 || jpegQuality > 100 {
		jpegQuality = DefaultJPEGQuality
	}
	return &Codec{jpegQuality: jpegQuality, pngLevel: png.DefaultCompression}
}

// Decode sniffs PNG or JPEG from the buffer. Trailing padding after the
// image stream is ignored.
func (c *Codec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, errors.New("empty frame buffer")
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return img, nil
}

// Resample scales img to the target size with a bilinear filter. The pixel
// model of the source is kept where possible so grayscale frames stay
// single-channel.
func (c *Codec) Resample(img image.Image, to domain.Resolution) image.Image {
	rect := image.Rect(0, 0, to.Width, to.Height)
	var dst draw.Image
	switch img.(type) {
	case *image.Gray:
		dst = image.NewGray(rect)
	case *image.Gray16:
		dst = image.NewGray16(rect)
	case *image.NRGBA:
		dst = image.NewNRGBA(rect)
	case *image.NRGBA64:
		dst = image.NewNRGBA64(rect)
	case *image.RGBA64:
		dst = image.NewRGBA64(rect)
	default:
		dst = image.NewRGBA(rect)
	}
	draw.BiLinear.Scale(dst, rect, img, img.Bounds(), draw.Src, nil)
	return dst
}

// Encode compresses img as JPEG or PNG.
func (c *Codec) Encode(img image.Image, format domain.ImageFormat) ([]byte, error) {
	var buf bytes.Buffer
	switch format {
	case domain.FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: c.jpegQuality}); err != nil {
			return nil, fmt.Errorf("jpeg: %w", err)
		}
	case domain.FormatPNG:
		enc := png.Encoder{CompressionLevel: c.pngLevel}
		if err := enc.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("png: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	return buf.Bytes(), nil
}
