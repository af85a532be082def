//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
)

// NewFrameCodec returns the OpenCV-backed codec.
func NewFrameCodec(jpegQuality int) ports.FrameCodec {
	return NewOpenCVCodec(jpegQuality)
}

// OpenCVCodec decodes, resamples and encodes frames with OpenCV, the same
// library that wrote them. Images OpenCV cannot represent (16-bit depth,
// straight alpha) go through the pure-Go Codec instead.
type OpenCVCodec struct {
	fallback *Codec
}

// NewOpenCVCodec returns a codec writing JPEG at the given quality (1-100).
func NewOpenCVCodec(jpegQuality int) *OpenCVCodec {
	return &OpenCVCodec{fallback: NewCodec(jpegQuality)}
}

func (c *OpenCVCodec) Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty frame buffer")
	}
	mat, err := gocv.IMDecode(data, gocv.IMReadUnchanged)
	if err != nil {
		return c.fallback.Decode(data)
	}
	defer mat.Close()
	if mat.Empty() {
		return c.fallback.Decode(data)
	}

	if mat.Type() != gocv.MatTypeCV8UC1 && mat.Type() != gocv.MatTypeCV8UC3 {
		return c.fallback.Decode(data)
	}
	return mat.ToImage()
}

// Resample scales with INTER_LINEAR. Grayscale stays single-channel.
func (c *OpenCVCodec) Resample(img image.Image, to domain.Resolution) image.Image {
	src, ok := toMat(img)
	if !ok {
		return c.fallback.Resample(img, to)
	}
	defer src.Close()

	dst := gocv.NewMat()
	defer dst.Close()
	gocv.Resize(src, &dst, image.Pt(to.Width, to.Height), 0, 0, gocv.InterpolationLinear)

	out, err := dst.ToImage()
	if err != nil {
		return c.fallback.Resample(img, to)
	}
	return out
}

func (c *OpenCVCodec) Encode(img image.Image, format domain.ImageFormat) ([]byte, error) {
	mat, ok := toMat(img)
	if !ok {
		return c.fallback.Encode(img, format)
	}
	defer mat.Close()

	var (
		buf *gocv.NativeByteBuffer
		err error
	)
	switch format {
	case domain.FormatJPEG:
		buf, err = gocv.IMEncodeWithParams(gocv.JPEGFileExt, mat, []int{int(gocv.IMWriteJpegQuality), c.fallback.jpegQuality})
	case domain.FormatPNG:
		buf, err = gocv.IMEncode(gocv.PNGFileExt, mat)
	default:
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", format, err)
	}
	defer buf.Close()
	return append([]byte(nil), buf.GetBytes()...), nil
}

// toMat converts 8-bit gray and opaque colour images. Anything else reports
// false.
func toMat(img image.Image) (gocv.Mat, bool) {
	switch m := img.(type) {
	case *image.Gray:
		mat, err := gocv.ImageGrayToMatGray(m)
		return mat, err == nil
	case *image.RGBA, *image.YCbCr:
		if !opaque(img) {
			return gocv.Mat{}, false
		}
		mat, err := gocv.ImageToMatRGB(img)
		return mat, err == nil
	default:
		return gocv.Mat{}, false
	}
}

func opaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}

var _ ports.FrameCodec = (*OpenCVCodec)(nil)
