package ffmpeg

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/slprescale/internal/domain"
)

func TestParseProbe(t *testing.T) {
	info, err := parseProbe([]byte(`{"streams":[{"width":2252,"height":2252,"avg_frame_rate":"30000/1001","r_frame_rate":"30/1","nb_frames":"1800"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 2252, info.Width)
	assert.Equal(t, 2252, info.Height)
	assert.InDelta(t, 29.97, info.FPS, 0.01)
	assert.Equal(t, int64(1800), info.Frames)
}

func TestParseProbe_FallbackRateAndUnknownFrames(t *testing.T) {
	info, err := parseProbe([]byte(`{"streams":[{"width":10,"height":20,"avg_frame_rate":"0/0","r_frame_rate":"25/1","nb_frames":"N/A"}]}`))
	require.NoError(t, err)
	assert.Equal(t, 25.0, info.FPS)
	assert.Zero(t, info.Frames)
}

func TestParseProbe_Errors(t *testing.T) {
	_, err := parseProbe([]byte(`{"streams":[]}`))
	assert.Error(t, err)
	_, err = parseProbe([]byte(`not json`))
	assert.Error(t, err)
}

func TestParseRate(t *testing.T) {
	tests := map[string]float64{
		"30/1":   30,
		"25":     25,
		"0/0":    0,
		"x/1":    0,
		"30/abc": 0,
		"":       0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseRate(in), "rate %q", in)
	}
}

func TestScanProgress(t *testing.T) {
	input := "frame=10\nfps=5.0\nprogress=continue\nframe=25\nframe=bad\nprogress=end\n"
	var got []int64
	scanProgress(strings.NewReader(input), func(n int64) { got = append(got, n) })
	assert.Equal(t, []int64{10, 25}, got)

	scanProgress(strings.NewReader(input), nil)
}

func TestTranscodeArgs(t *testing.T) {
	e := New(Config{QScale: 99}, nil)
	args := e.transcodeArgs("in.mp4", "out.tmp", domain.Resolution{Width: 3240, Height: 2890})
	joined := strings.Join(args, " ")

	assert.Contains(t, joined, "-i in.mp4")
	assert.Contains(t, joined, "scale=3240:2890:flags=bilinear")
	assert.Contains(t, joined, "-c:v mpeg4")
	assert.Contains(t, joined, "-q:v 3")
	assert.Contains(t, joined, "-an")
	assert.Equal(t, "out.tmp", args[len(args)-1])
}

func TestNew_Defaults(t *testing.T) {
	e := New(Config{}, nil)
	assert.Equal(t, "ffmpeg", e.cfg.FFmpeg)
	assert.Equal(t, "ffprobe", e.cfg.FFprobe)
	assert.Equal(t, DefaultQScale, e.cfg.QScale)
}

func TestLastLines(t *testing.T) {
	assert.Equal(t, "c; d", lastLines("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", lastLines("a", 3))
}
