package slprescale

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/slprescale/internal/adapters/ffmpeg"
	"github.com/bft-labs/slprescale/internal/adapters/fs"
	"github.com/bft-labs/slprescale/internal/adapters/fswatch"
	"github.com/bft-labs/slprescale/internal/adapters/hdf5"
	"github.com/bft-labs/slprescale/internal/adapters/imaging"
	"github.com/bft-labs/slprescale/internal/adapters/progress"
	"github.com/bft-labs/slprescale/internal/adapters/sqlite"
	"github.com/bft-labs/slprescale/internal/app"
	"github.com/bft-labs/slprescale/internal/domain"
)

// Re-exported types so callers need not import internal packages.
type (
	Resolution   = domain.Resolution
	Scale        = domain.Scale
	Summary      = domain.Summary
	TableSummary = domain.TableSummary
	VideoSummary = domain.VideoSummary
	BatchSummary = domain.BatchSummary
	Run          = domain.Run
	Report       = app.Report
	BrokenRef    = app.BrokenRef

	FatalInputError = domain.FatalInputError
	FrameError      = domain.FrameError
)

// Errors callers can match with errors.Is.
var (
	ErrFatalInput      = domain.ErrFatalInput
	ErrInvalidScale    = domain.ErrInvalidScale
	ErrAlreadyRescaled = domain.ErrAlreadyRescaled
)

// Config configures a Rescaler. Zero values fall back to the defaults
// noted on each field.
type Config struct {
	// From and To are the source and target resolution of Rescale.
	From Resolution
	To   Resolution

	// ResizeImages resizes embedded frames along with the points.
	ResizeImages bool

	// JPEGQuality used when re-encoding JPEG frames. Default 95.
	JPEGQuality int

	// LedgerPath is the SQLite run history. Empty disables it.
	LedgerPath string

	// RefuseRescaled fails instead of warning when the input is the
	// output of an earlier recorded run.
	RefuseRescaled bool

	// FFmpeg and FFprobe executables for ResizeVideos. Default from PATH.
	FFmpeg  string
	FFprobe string

	// QScale is the MPEG-4 quantizer (1 best, 31 worst). Default 3.
	QScale int

	// VideoInclude globs select files for ResizeVideos. Default **/*.mp4.
	VideoInclude []string

	// SettleDelay is how long a watched file must stay unchanged before it
	// is processed. Default 2s.
	SettleDelay time.Duration
}

// SetDefaults fills zero-valued fields.
func (c *Config) SetDefaults() {
	if c.JPEGQuality == 0 {
		c.JPEGQuality = imaging.DefaultJPEGQuality
	}
	if c.QScale == 0 {
		c.QScale = ffmpeg.DefaultQScale
	}
	if len(c.VideoInclude) == 0 {
		c.VideoInclude = app.DefaultVideoInclude
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = fswatch.DefaultSettleDelay
	}
}

// Rescaler is the library entry point. It owns the run ledger; call Close
// when done.
type Rescaler struct {
	cfg    Config
	opts   options
	core   *app.Rescaler
	store  *hdf5.Store
	bars   *progress.Bars
	ledger *sqlite.Ledger
}

// New wires a Rescaler from cfg. The ledger is opened (and created) here
// when LedgerPath is set.
func New(cfg Config, opts ...Option) (*Rescaler, error) {
	cfg.SetDefaults()

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	r := &Rescaler{
		cfg:   cfg,
		opts:  o,
		store: hdf5.New(o.logger),
		bars:  progress.NewBars(o.progress),
	}
	if o.out != nil {
		r.bars = progress.NewBarsTo(o.out, o.progress)
	}

	deps := app.Deps{
		Store:         r.store,
		Codec:         imaging.NewFrameCodec(cfg.JPEGQuality),
		Workspace:     fs.NewWorkspace(),
		Fingerprinter: fs.NewFingerprinter(),
		Progress:      r.bars,
		Logger:        o.logger,
	}
	if cfg.LedgerPath != "" {
		l, err := sqlite.Open(cfg.LedgerPath)
		if err != nil {
			return nil, fmt.Errorf("open run ledger %s: %w", cfg.LedgerPath, err)
		}
		r.ledger = l
		deps.Ledger = l
	}

	r.core = app.NewRescaler(deps, app.Options{RefuseRescaled: cfg.RefuseRescaled})
	return r, nil
}

// Close releases the run ledger.
func (r *Rescaler) Close() error {
	if r.ledger == nil {
		return nil
	}
	return r.ledger.Close()
}

// Rescale transforms input from Config.From to Config.To and writes the
// result to output. output may equal input.
func (r *Rescaler) Rescale(ctx context.Context, input, output string) (Summary, error) {
	return r.core.Rescale(ctx, app.Request{
		Input:        input,
		Output:       output,
		Scale:        Scale{From: r.cfg.From, To: r.cfg.To},
		ResizeImages: r.cfg.ResizeImages,
	})
}

// SetShape rewrites the frame size recorded in every video's metadata
// without touching points or frames.
func (r *Rescaler) SetShape(ctx context.Context, input, output string, to Resolution) (Summary, error) {
	return r.core.SetShape(ctx, app.ShapeRequest{Input: input, Output: output, To: to})
}

// Inspect reports the structure of a document without modifying it.
func (r *Rescaler) Inspect(ctx context.Context, path string) (*Report, error) {
	return app.NewInspector(r.store, r.opts.logger).Inspect(ctx, path)
}

// ResizeVideos resizes every matching video under inputDir into a mirrored
// tree under outputDir. Existing outputs are skipped.
func (r *Rescaler) ResizeVideos(ctx context.Context, inputDir, outputDir string, to Resolution) (BatchSummary, error) {
	return r.videoBatch(inputDir, outputDir, to).Run(ctx)
}

// WatchVideos runs ResizeVideos and then keeps processing new files until
// ctx is done. onDone, if set, is called after the first pass (with an
// empty rel) and after every watched file.
func (r *Rescaler) WatchVideos(ctx context.Context, inputDir, outputDir string, to Resolution, onDone func(rel string, sum BatchSummary)) error {
	return r.videoBatch(inputDir, outputDir, to).Watch(ctx, onDone)
}

// History returns up to limit recorded runs, newest first. It is empty
// when no ledger is configured.
func (r *Rescaler) History(ctx context.Context, limit int) ([]Run, error) {
	if r.ledger == nil {
		return nil, nil
	}
	return r.ledger.Recent(ctx, limit)
}

// LedgerPath returns the open ledger's path, or "" when disabled.
func (r *Rescaler) LedgerPath() string {
	if r.ledger == nil {
		return ""
	}
	return r.ledger.Path()
}

func (r *Rescaler) videoBatch(inputDir, outputDir string, to Resolution) *app.VideoBatch {
	deps := app.VideoDeps{
		Transcoder: ffmpeg.New(ffmpeg.Config{
			FFmpeg:  r.cfg.FFmpeg,
			FFprobe: r.cfg.FFprobe,
			QScale:  r.cfg.QScale,
		}, r.opts.logger),
		Watcher:  fswatch.New(r.cfg.SettleDelay, r.opts.logger),
		Progress: r.bars,
		Logger:   r.opts.logger,
	}
	if r.ledger != nil {
		deps.Ledger = r.ledger
	}
	return app.NewVideoBatch(app.VideoBatchConfig{
		InputDir:  inputDir,
		OutputDir: outputDir,
		To:        to,
		Include:   r.cfg.VideoInclude,
	}, deps)
}
