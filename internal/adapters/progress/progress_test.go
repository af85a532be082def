package progress

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBars_Disabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewBarsTo(&buf, false).New("video0", 10)
	p.Add(3)
	p.Set(10)
	p.Finish()
	assert.Zero(t, buf.Len())
}

func TestBars_Enabled(t *testing.T) {
	var buf bytes.Buffer
	p := NewBarsTo(&buf, true).New("video0", 4)
	p.Add(2)
	p.Set(4)
	p.Finish()
	assert.Contains(t, buf.String(), "video0")
}

func TestBars_NilFactory(t *testing.T) {
	var b *Bars
	p := b.New("x", 1)
	p.Add(1)
	p.Finish()
}
