package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
	"github.com/bft-labs/slprescale/pkg/log"
)

// DefaultVideoInclude selects MP4 files at any depth.
var DefaultVideoInclude = []string{"**/*.mp4"}

// DefaultWatchRetries is how often a watched file that cannot be probed yet
// is retried before it is reported as failed.
const DefaultWatchRetries = 5

// VideoBatchConfig configures a resize-videos run.
type VideoBatchConfig struct {
	InputDir  string
	OutputDir string
	To        domain.Resolution

	// Include holds doublestar patterns matched case-insensitively against
	// slash-separated paths relative to InputDir.
	Include []string

	// Retries bounds probe retries in watch mode.
	Retries int

	// Backoff before the first retry; doubled after each.
	RetryDelay time.Duration
}

// VideoDeps are the adapters a VideoBatch drives. Watcher is only needed
// for Watch; Ledger is optional.
type VideoDeps struct {
	Transcoder ports.VideoTranscoder
	Watcher    ports.FileWatcher
	Ledger     ports.RunLedger
	Progress   ports.ProgressFactory
	Logger     ports.Logger
}

// VideoBatch resizes every matching video under a directory tree into a
// mirrored tree. Existing outputs are skipped, so reruns resume.
type VideoBatch struct {
	cfg  VideoBatchConfig
	deps VideoDeps
}

type videoOutcome int

const (
	videoResized videoOutcome = iota
	videoSkipped
	videoFailed
)

// NewVideoBatch creates a VideoBatch, filling unset options with defaults.
func NewVideoBatch(cfg VideoBatchConfig, deps VideoDeps) *VideoBatch {
	if len(cfg.Include) == 0 {
		cfg.Include = DefaultVideoInclude
	}
	if cfg.Retries <= 0 {
		cfg.Retries = DefaultWatchRetries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = DefaultBackoffInitial
	}
	deps.Logger = log.OrNoop(deps.Logger)
	if deps.Progress == nil {
		deps.Progress = nopProgress{}
	}
	return &VideoBatch{cfg: cfg, deps: deps}
}

// Validate checks the target size, the include patterns and the input
// directory.
func (b *VideoBatch) Validate() error {
	if !b.cfg.To.Valid() {
		return &domain.FatalInputError{Op: "validate size", Err: fmt.Errorf("%w: target resolution %s", domain.ErrInvalidScale, b.cfg.To)}
	}
	for _, p := range b.cfg.Include {
		if !doublestar.ValidatePattern(p) {
			return &domain.FatalInputError{Op: "validate include", Err: fmt.Errorf("invalid pattern %q", p)}
		}
	}
	info, err := os.Stat(b.cfg.InputDir)
	if err != nil {
		return &domain.FatalInputError{Op: "open input", Path: b.cfg.InputDir, Err: err}
	}
	if !info.IsDir() {
		return &domain.FatalInputError{Op: "open input", Path: b.cfg.InputDir, Err: errors.New("not a directory")}
	}
	return nil
}

// Run resizes every matching video once.
func (b *VideoBatch) Run(ctx context.Context) (domain.BatchSummary, error) {
	var sum domain.BatchSummary
	if err := b.Validate(); err != nil {
		return sum, err
	}
	files, err := b.Discover()
	if err != nil {
		return sum, err
	}
	sum.Found = len(files)
	b.deps.Logger.Info("videos found",
		ports.Int("count", len(files)),
		ports.String("input_dir", b.cfg.InputDir),
		ports.String("output_dir", b.cfg.OutputDir),
		ports.String("to", b.cfg.To.String()),
	)

	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		b.deps.Logger.Info("processing video",
			ports.Int("index", i+1),
			ports.Int("total", len(files)),
			ports.Path(rel),
		)
		outcome, frames, err := b.process(ctx, rel)
		if errors.Is(err, context.Canceled) {
			return sum, err
		}
		b.tally(&sum, outcome, frames)
	}

	b.deps.Logger.Info("resize-videos complete",
		ports.Int("resized", sum.Resized),
		ports.Int("skipped", sum.Skipped),
		ports.Int("failed", sum.Failed),
		ports.Int64("frames", sum.Frames),
	)
	return sum, nil
}

// Watch runs once, then keeps resizing matching files as they appear
// until ctx is done. Files that cannot be probed yet, for example while
// still being copied, are retried with backoff.
func (b *VideoBatch) Watch(ctx context.Context, onDone func(rel string, sum domain.BatchSummary)) error {
	if b.deps.Watcher == nil {
		return errors.New("watch: no file watcher configured")
	}
	sum, err := b.Run(ctx)
	if err != nil {
		return err
	}
	if onDone != nil {
		onDone("", sum)
	}

	b.deps.Logger.Info("watching for new videos", ports.String("input_dir", b.cfg.InputDir))
	err = b.deps.Watcher.Watch(ctx, b.cfg.InputDir, func(path string) {
		rel, ok := b.relMatch(path)
		if !ok {
			return
		}
		sum.Found++
		outcome, frames := b.processWithRetry(ctx, rel)
		b.tally(&sum, outcome, frames)
		if onDone != nil {
			onDone(rel, sum)
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Discover lists matching files as sorted slash-separated relative paths.
// The output tree is never included, even when nested in the input.
func (b *VideoBatch) Discover() ([]string, error) {
	var files []string
	err := filepath.WalkDir(b.cfg.InputDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if b.insideOutput(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if rel, ok := b.relMatch(path); ok {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", b.cfg.InputDir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Match reports whether a slash-separated relative path is selected.
func (b *VideoBatch) Match(rel string) bool {
	rel = strings.ToLower(rel)
	for _, p := range b.cfg.Include {
		if ok, _ := doublestar.Match(strings.ToLower(p), rel); ok {
			return true
		}
	}
	return false
}

func (b *VideoBatch) relMatch(path string) (string, bool) {
	if b.insideOutput(path) {
		return "", false
	}
	rel, err := filepath.Rel(b.cfg.InputDir, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(filepath.Base(rel), ".") {
		return "", false
	}
	return rel, b.Match(rel)
}

func (b *VideoBatch) insideOutput(path string) bool {
	out, err := filepath.Abs(b.cfg.OutputDir)
	if err != nil {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	in, err := filepath.Abs(b.cfg.InputDir)
	if err == nil && in == out {
		return false
	}
	return abs == out || strings.HasPrefix(abs, out+string(filepath.Separator))
}

func (b *VideoBatch) processWithRetry(ctx context.Context, rel string) (videoOutcome, int64) {
	bo := newBackoff(b.cfg.RetryDelay, DefaultBackoffMax)
	for attempt := 0; ; attempt++ {
		outcome, frames, err := b.process(ctx, rel)
		if outcome != videoFailed || !errors.Is(err, errProbe) || attempt >= b.cfg.Retries {
			return outcome, frames
		}
		b.deps.Logger.Debug("video not readable yet; retrying",
			ports.Path(rel),
			ports.Duration("delay", bo.Current()),
		)
		if err := bo.Wait(ctx); err != nil {
			return videoFailed, 0
		}
	}
}

var errProbe = errors.New("probe failed")

// process resizes one video. The result goes to a hidden temp name and is
// renamed into place on success, so an interrupted run never leaves a file
// that a rerun would skip.
func (b *VideoBatch) process(ctx context.Context, rel string) (videoOutcome, int64, error) {
	src := filepath.Join(b.cfg.InputDir, filepath.FromSlash(rel))
	dst := filepath.Join(b.cfg.OutputDir, filepath.FromSlash(rel))

	if _, err := os.Stat(dst); err == nil {
		b.deps.Logger.Info("output exists; skipped", ports.Path(rel))
		return videoSkipped, 0, nil
	}

	info, err := b.deps.Transcoder.Probe(ctx, src)
	if err != nil {
		b.deps.Logger.Error("cannot open video; skipped", ports.Path(rel), ports.Err(err))
		return videoFailed, 0, fmt.Errorf("%w: %v", errProbe, err)
	}
	b.deps.Logger.Info("video probed",
		ports.Path(rel),
		ports.String("size", fmt.Sprintf("%dx%d", info.Width, info.Height)),
		ports.Float64("fps", info.FPS),
		ports.Int64("frames", info.Frames),
	)

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		b.deps.Logger.Error("cannot create output directory", ports.Path(rel), ports.Err(err))
		return videoFailed, 0, err
	}
	tmp := filepath.Join(filepath.Dir(dst), "."+filepath.Base(dst)+".tmp")

	bar := b.deps.Progress.New(rel, info.Frames)
	var written int64
	err = b.deps.Transcoder.Transcode(ctx, src, tmp, b.cfg.To, func(n int64) {
		written = n
		bar.Set(n)
	})
	bar.Finish()
	if err != nil {
		_ = os.Remove(tmp)
		if ctx.Err() != nil {
			return videoFailed, 0, ctx.Err()
		}
		b.deps.Logger.Error("transcode failed", ports.Path(rel), ports.Err(err))
		return videoFailed, 0, err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		b.deps.Logger.Error("cannot move output into place", ports.Path(rel), ports.Err(err))
		return videoFailed, 0, err
	}
	if written == 0 {
		written = info.Frames
	}

	b.deps.Logger.Info("video resized", ports.Path(rel), ports.Int64("frames", written))
	b.record(ctx, src, dst, info, written)
	return videoResized, written, nil
}

func (b *VideoBatch) record(ctx context.Context, src, dst string, info domain.VideoInfo, frames int64) {
	if b.deps.Ledger == nil {
		return
	}
	_, err := b.deps.Ledger.Record(ctx, domain.Run{
		Kind:   domain.RunVideo,
		Input:  src,
		Output: dst,
		Scale: domain.Scale{
			From: domain.Resolution{Width: info.Width, Height: info.Height},
			To:   b.cfg.To,
		},
		Frames: int(frames),
	})
	if err != nil {
		b.deps.Logger.Warn("failed to record run", ports.Err(err))
	}
}

func (b *VideoBatch) tally(sum *domain.BatchSummary, outcome videoOutcome, frames int64) {
	switch outcome {
	case videoResized:
		sum.Resized++
		sum.Frames += frames
	case videoSkipped:
		sum.Skipped++
	case videoFailed:
		sum.Failed++
	}
}
