package ports

import (
	"image"

	"github.com/bft-labs/slprescale/internal/domain"
)

// FrameCodec converts embedded frame buffers to and from images.
type FrameCodec interface {
	// Decode sniffs the encoding from the bytes themselves.
	Decode(data []byte) (image.Image, error)

	// Resample scales img to the target size with a bilinear filter.
	Resample(img image.Image, to domain.Resolution) image.Image

	// Encode compresses img in the given format.
	Encode(img image.Image, format domain.ImageFormat) ([]byte, error)
}
