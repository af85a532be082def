package main

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/bft-labs/slprescale/pkg/slprescale"
)

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, "out.slp", slprescale.Summary{
		Scale: slprescale.Scale{
			From: slprescale.Resolution{Width: 2252, Height: 2252},
			To:   slprescale.Resolution{Width: 3240, Height: 2890},
		},
		Tables:          []slprescale.TableSummary{{Name: "points", Total: 12000, Rescaled: 11000}},
		Videos:          []slprescale.VideoSummary{{Name: "video0", Format: "png", Frames: 10, Resized: 9, Kept: 1}},
		MetadataTotal:   2,
		MetadataUpdated: 1,
	})

	out := buf.String()
	assert.Contains(t, out, "wrote out.slp (2252x2252 -> 3240x2890)")
	assert.Contains(t, out, "11,000/12,000 points rescaled")
	assert.Contains(t, out, "9/10 frames resized (png), 1 kept at original size")
	assert.Contains(t, out, "1/2 records updated")
}

func TestPrintBatch(t *testing.T) {
	var buf bytes.Buffer
	printBatch(&buf, slprescale.BatchSummary{Found: 3, Resized: 1, Skipped: 1, Failed: 1, Frames: 1500})
	assert.Equal(t, "3 found, 1 resized, 1 skipped, 1 failed, 1,500 frames\n", buf.String())
}

func TestWriteReport(t *testing.T) {
	report := &slprescale.Report{
		Path:          "labels.slp",
		SizeHuman:     "2.0 kB",
		Keys:          []string{"points", "videos_json"},
		LabeledFrames: 4,
		BrokenCount:   1,
		BrokenRefs:    []slprescale.BrokenRef{{Frame: 3, Video: 2}},
	}

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, "text", report))
		assert.Contains(t, buf.String(), "labels.slp (2.0 kB)")
		assert.Contains(t, buf.String(), "frame 3 -> video 2")
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, "yaml", report))

		var decoded map[string]any
		require.NoError(t, yaml.Unmarshal(buf.Bytes(), &decoded))
		assert.Equal(t, "labels.slp", decoded["path"])
		assert.Equal(t, 4, decoded["labeled_frames"])
	})

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, writeReport(&buf, "json", report))
		assert.Contains(t, buf.String(), `"broken_refs_count": 1`)
	})

	t.Run("unknown", func(t *testing.T) {
		assert.Error(t, writeReport(&bytes.Buffer{}, "xml", report))
	})
}

func TestPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	printHistory(&buf, "", nil)
	assert.Equal(t, "run ledger disabled\n", buf.String())

	buf.Reset()
	printHistory(&buf, "/tmp/h.db", []slprescale.Run{{
		ID:        "0123456789abcdef",
		Kind:      "rescale",
		Input:     "in.slp",
		Output:    "out.slp",
		CreatedAt: time.Now().Add(-time.Hour),
	}})
	assert.Contains(t, buf.String(), "01234567")
	assert.Contains(t, buf.String(), "1 hour ago")
}

func TestFormatShape(t *testing.T) {
	assert.Equal(t, "-", formatShape(nil))
	assert.Equal(t, "[100, 2890, 3240, 1]", formatShape([]int64{100, 2890, 3240, 1}))
}
