//go:build !gocv

package imaging

import "github.com/bft-labs/slprescale/internal/ports"

// NewFrameCodec returns the codec compiled into this build: the pure-Go
// Codec unless built with the gocv tag.
func NewFrameCodec(jpegQuality int) ports.FrameCodec {
	return NewCodec(jpegQuality)
}
