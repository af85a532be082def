package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/slprescale/internal/domain"
)

// fakeTranscoder copies the source into dst. Probes of paths listed in
// probeFailures fail that many times first.
type fakeTranscoder struct {
	mu            sync.Mutex
	probeFailures map[string]int
	failTranscode map[string]bool
	transcoded    []string
}

func (f *fakeTranscoder) Probe(ctx context.Context, path string) (domain.VideoInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.probeFailures[filepath.Base(path)] > 0 {
		f.probeFailures[filepath.Base(path)]--
		return domain.VideoInfo{}, errors.New("moov atom not found")
	}
	if _, err := os.Stat(path); err != nil {
		return domain.VideoInfo{}, err
	}
	return domain.VideoInfo{Width: 2252, Height: 2252, FPS: 30, Frames: 90}, nil
}

func (f *fakeTranscoder) Transcode(ctx context.Context, src, dst string, to domain.Resolution, onFrame func(int64)) error {
	f.mu.Lock()
	fail := f.failTranscode[filepath.Base(src)]
	f.transcoded = append(f.transcoded, filepath.Base(src))
	f.mu.Unlock()

	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return err
	}
	if fail {
		return errors.New("encoder error")
	}
	onFrame(45)
	onFrame(90)
	return nil
}

// fakeWatcher reports a fixed list of paths, then returns.
type fakeWatcher struct {
	paths []string
}

func (w *fakeWatcher) Watch(ctx context.Context, root string, fn func(string)) error {
	for _, p := range w.paths {
		fn(filepath.Join(root, p))
	}
	return nil
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("video:"+filepath.Base(path)), 0o644))
}

func TestVideoBatch_Run(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(in, "a.mp4"))
	writeFile(t, filepath.Join(in, "day1", "B.MP4"))
	writeFile(t, filepath.Join(in, "day1", "notes.txt"))
	writeFile(t, filepath.Join(in, "done.mp4"))
	writeFile(t, filepath.Join(out, "done.mp4"))
	writeFile(t, filepath.Join(in, "broken.mp4"))

	tr := &fakeTranscoder{failTranscode: map[string]bool{"broken.mp4": true}}
	ledger := &memLedger{}
	b := NewVideoBatch(VideoBatchConfig{
		InputDir:  in,
		OutputDir: out,
		To:        domain.DefaultTarget,
	}, VideoDeps{Transcoder: tr, Ledger: ledger})

	sum, err := b.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.BatchSummary{Found: 4, Resized: 2, Skipped: 1, Failed: 1, Frames: 180}, sum)

	assert.FileExists(t, filepath.Join(out, "a.mp4"))
	assert.FileExists(t, filepath.Join(out, "day1", "B.MP4"))
	assert.NoFileExists(t, filepath.Join(out, "broken.mp4"))
	assert.NoFileExists(t, filepath.Join(out, ".broken.mp4.tmp"))
	assert.NotContains(t, tr.transcoded, "done.mp4")

	require.Len(t, ledger.runs, 2)
	assert.Equal(t, domain.RunVideo, ledger.runs[0].Kind)
	assert.Equal(t, domain.Resolution{Width: 2252, Height: 2252}, ledger.runs[0].Scale.From)
}

func TestVideoBatch_ProbeFailureIsSkipped(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(in, "bad.mp4"))

	tr := &fakeTranscoder{probeFailures: map[string]int{"bad.mp4": 1}}
	logger := newCaptureLogger()
	sum, err := NewVideoBatch(VideoBatchConfig{InputDir: in, OutputDir: out, To: domain.DefaultTarget},
		VideoDeps{Transcoder: tr, Logger: logger}).Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Failed)
	assert.Contains(t, logger.at("error"), "cannot open video; skipped")
}

func TestVideoBatch_Validate(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file.mp4")
	writeFile(t, file)

	tests := []struct {
		name string
		cfg  VideoBatchConfig
	}{
		{"zero size", VideoBatchConfig{InputDir: dir, To: domain.Resolution{Width: 0, Height: 10}}},
		{"missing input", VideoBatchConfig{InputDir: filepath.Join(dir, "nope"), To: domain.DefaultTarget}},
		{"input is a file", VideoBatchConfig{InputDir: file, To: domain.DefaultTarget}},
		{"bad pattern", VideoBatchConfig{InputDir: dir, To: domain.DefaultTarget, Include: []string{"[a-"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewVideoBatch(tt.cfg, VideoDeps{Transcoder: &fakeTranscoder{}}).Validate()
			assert.ErrorIs(t, err, domain.ErrFatalInput)
		})
	}
}

func TestVideoBatch_Match(t *testing.T) {
	b := NewVideoBatch(VideoBatchConfig{Include: []string{"**/*.mp4", "raw/*.AVI"}}, VideoDeps{})
	tests := map[string]bool{
		"a.mp4":           true,
		"x/y/z/CAM.MP4":   true,
		"raw/clip.avi":    true,
		"raw/sub/cl.avi":  false,
		"notes.txt":       false,
		"a.mp4.partial":   false,
		"day1/cam0.mp4":   true,
		"day1/cam0.mp4v":  false,
		"deep/raw/cl.avi": false,
	}
	for rel, want := range tests {
		assert.Equal(t, want, b.Match(rel), rel)
	}
}

func TestVideoBatch_DiscoverSkipsNestedOutput(t *testing.T) {
	in := t.TempDir()
	out := filepath.Join(in, "resized")
	writeFile(t, filepath.Join(in, "a.mp4"))
	writeFile(t, filepath.Join(out, "a.mp4"))
	writeFile(t, filepath.Join(in, ".hidden.mp4"))

	b := NewVideoBatch(VideoBatchConfig{InputDir: in, OutputDir: out, To: domain.DefaultTarget}, VideoDeps{})
	files, err := b.Discover()
	require.NoError(t, err)
	assert.Equal(t, []string{"a.mp4"}, files)
}

func TestVideoBatch_WatchRetriesUnreadableFiles(t *testing.T) {
	in := t.TempDir()
	out := t.TempDir()
	writeFile(t, filepath.Join(in, "late.mp4"))
	writeFile(t, filepath.Join(in, "late.txt"))

	tr := &fakeTranscoder{probeFailures: map[string]int{}}
	b := NewVideoBatch(VideoBatchConfig{
		InputDir:   in,
		OutputDir:  out,
		To:         domain.DefaultTarget,
		RetryDelay: time.Millisecond,
	}, VideoDeps{Transcoder: tr, Watcher: &fakeWatcher{paths: []string{"new.mp4", "late.txt"}}})

	writeFile(t, filepath.Join(in, "new.mp4"))
	tr.probeFailures["new.mp4"] = 2

	var reports []string
	var last domain.BatchSummary
	err := b.Watch(context.Background(), func(rel string, sum domain.BatchSummary) {
		reports = append(reports, rel)
		last = sum
	})
	require.NoError(t, err)

	// The initial pass resizes late.mp4 and fails new.mp4 once; the watch
	// event for new.mp4 retries through its remaining probe failure.
	assert.Equal(t, []string{"", "new.mp4"}, reports)
	assert.Equal(t, 3, last.Found)
	assert.Equal(t, 2, last.Resized)
	assert.Equal(t, 1, last.Failed)
	assert.FileExists(t, filepath.Join(out, "late.mp4"))
	assert.FileExists(t, filepath.Join(out, "new.mp4"))
}

func TestVideoBatch_WatchNeedsWatcher(t *testing.T) {
	err := NewVideoBatch(VideoBatchConfig{}, VideoDeps{}).Watch(context.Background(), nil)
	assert.Error(t, err)
}
