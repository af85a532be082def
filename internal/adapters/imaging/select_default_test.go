//go:build !gocv

package imaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewFrameCodec_PureGo(t *testing.T) {
	c := NewFrameCodec(80)
	assert.IsType(t, &Codec{}, c)
	assert.Equal(t, 80, c.(*Codec).jpegQuality)
}
