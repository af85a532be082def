package app

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/slprescale/internal/domain"
)

func TestInspect_Report(t *testing.T) {
	path := filepath.Join(t.TempDir(), "labels.pkg.slp")
	require.NoError(t, os.WriteFile(path, make([]byte, 2048), 0o644))

	fs := newMemFS()
	fs.put(path, newMemDoc().
		withPoints(domain.TableUserPoints,
			domain.Point{X: 10, Y: 20},
			domain.Point{X: math.NaN(), Y: 1},
			domain.Point{X: 30, Y: 5},
		).
		withRecords(
			`{"filename":"/data/cam0.mp4","backend":{"shape":[10,2252,2252,1]}}`,
			`{"filename":"cam1.mp4","backend":{"shape":[10,2252,2252,1]},"source_video":{"backend":{"shape":[10,1,1,1]}}}`,
		).
		withVideo(&domain.EmbeddedVideo{
			Name:         "video0",
			Dataset:      "video0/video",
			Attrs:        domain.Attributes{{Name: domain.AttrFormat, Value: "png"}},
			Frames:       [][]byte{make([]byte, 10), make([]byte, 30), make([]byte, 20)},
			FrameNumbers: []int64{0, 1, 2},
		}).
		withRefs(0, 1, 1, 2, -1, 0))

	rep, err := NewInspector(fs, nil).Inspect(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, int64(2048), rep.Size)
	assert.Equal(t, "2.0 kB", rep.SizeHuman)

	require.Len(t, rep.Tables, 1)
	tr := rep.Tables[0]
	assert.Equal(t, 3, tr.Total)
	assert.Equal(t, 1, tr.Missing)
	require.NotNil(t, tr.Bounds)
	assert.Equal(t, domain.Bounds{MinX: 10, MinY: 5, MaxX: 30, MaxY: 20}, *tr.Bounds)

	require.Len(t, rep.Records, 2)
	assert.Equal(t, "/data/cam0.mp4", rep.Records[0].Filename)
	assert.Equal(t, []int64{10, 2252, 2252, 1}, rep.Records[0].Shape)
	assert.Nil(t, rep.Records[0].SourceShape)
	assert.Equal(t, []int64{10, 1, 1, 1}, rep.Records[1].SourceShape)
	assert.True(t, rep.Records[1].Valid)

	require.Len(t, rep.Videos, 1)
	v := rep.Videos[0]
	assert.Equal(t, "png", v.Format)
	assert.Equal(t, 3, v.Frames)
	assert.Equal(t, 3, v.FrameNumbers)
	assert.Equal(t, int64(60), v.TotalBytes)
	assert.Equal(t, 10, v.MinBytes)
	assert.Equal(t, 30, v.MaxBytes)

	assert.Equal(t, 6, rep.LabeledFrames)
	assert.Equal(t, 2, rep.BrokenCount)
	assert.Equal(t, []BrokenRef{{Frame: 3, Video: 2}, {Frame: 4, Video: -1}}, rep.BrokenRefs)
}

func TestInspect_MissingFile(t *testing.T) {
	_, err := NewInspector(newMemFS(), nil).Inspect(context.Background(), filepath.Join(t.TempDir(), "nope.slp"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFatalInput))
}

func TestInspect_NotADocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	_, err := NewInspector(newMemFS(), nil).Inspect(context.Background(), path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrFatalInput))
}

func TestBrokenRefs_Capped(t *testing.T) {
	refs := make([]int64, maxBrokenRefs+5)
	for i := range refs {
		refs[i] = 9
	}
	count, listed := brokenRefs(refs, 1)
	assert.Equal(t, maxBrokenRefs+5, count)
	assert.Len(t, listed, maxBrokenRefs)
}
