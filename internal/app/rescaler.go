package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
	"github.com/bft-labs/slprescale/pkg/log"
)

// Deps are the adapters a Rescaler drives. Ledger and Fingerprinter are
// optional; without them no history is checked or recorded.
type Deps struct {
	Store         ports.DocumentStore
	Codec         ports.FrameCodec
	Workspace     ports.Workspace
	Fingerprinter ports.Fingerprinter
	Ledger        ports.RunLedger
	Progress      ports.ProgressFactory
	Logger        ports.Logger
}

// Options tune a Rescaler.
type Options struct {
	// RefuseRescaled turns the double-rescale warning into a fatal error.
	RefuseRescaled bool
}

// Request is one rescale run.
type Request struct {
	Input        string
	Output       string
	Scale        domain.Scale
	ResizeImages bool
}

// Rescaler transforms a labels document from one resolution to another:
// point coordinates, embedded frames and video metadata, in that order.
// Work happens on a scratch copy that replaces Output only on success.
type Rescaler struct {
	deps Deps
	opts Options
}

// NewRescaler creates a Rescaler. Nil Progress and Logger are replaced with
// no-op implementations.
func NewRescaler(deps Deps, opts Options) *Rescaler {
	deps.Logger = log.OrNoop(deps.Logger)
	if deps.Progress == nil {
		deps.Progress = nopProgress{}
	}
	return &Rescaler{deps: deps, opts: opts}
}

// Rescale runs req. Invalid dimensions, an unreadable input and an
// uncreatable output are reported as *domain.FatalInputError before Output
// is touched. Missing tables, containers and metadata are logged and
// skipped; frames that fail to decode or encode keep their bytes.
func (r *Rescaler) Rescale(ctx context.Context, req Request) (domain.Summary, error) {
	summary := domain.Summary{Scale: req.Scale}
	if err := req.Scale.Validate(); err != nil {
		return summary, err
	}
	sx, sy := req.Scale.Factors()

	r.deps.Logger.Info("rescale starting",
		ports.String("input", req.Input),
		ports.String("output", req.Output),
		ports.Stringer("from", req.Scale.From),
		ports.Stringer("to", req.Scale.To),
		ports.Float64("scale_x", sx),
		ports.Float64("scale_y", sy),
		ports.Bool("images", req.ResizeImages),
	)
	start := time.Now()

	inputFP, err := r.checkHistory(ctx, req.Input)
	if err != nil {
		return summary, err
	}

	err = r.onScratch(ctx, req.Input, req.Output, func(doc ports.Document) error {
		summary.Keys = doc.Keys()
		r.deps.Logger.Info("document opened", ports.Strings("keys", summary.Keys))

		tables, err := rescaleTables(ctx, doc, sx, sy, r.deps.Logger)
		if err != nil {
			return err
		}
		summary.Tables = tables

		if req.ResizeImages {
			videos, err := r.resizeVideos(ctx, doc, req.Scale.To)
			if err != nil {
				return err
			}
			summary.Videos = videos
		}

		summary.MetadataTotal, summary.MetadataUpdated, err = rewriteVideoRecords(ctx, doc, req.Scale.To, r.deps.Logger)
		return err
	})
	if err != nil {
		return summary, err
	}

	r.deps.Logger.Info("rescale complete",
		ports.Int("points_rescaled", summary.PointsRescaled()),
		ports.Int("points_total", summary.PointsTotal()),
		ports.Int("frames_resized", summary.FramesResized()),
		ports.Int("frames_kept", summary.FramesKept()),
		ports.Int("metadata_updated", summary.MetadataUpdated),
		ports.Duration("elapsed", time.Since(start)),
	)

	r.record(ctx, domain.Run{
		Kind:             domain.RunRescale,
		Input:            req.Input,
		Output:           req.Output,
		InputFingerprint: inputFP,
		Scale:            req.Scale,
		Points:           summary.PointsRescaled(),
		Frames:           summary.FramesResized(),
		Records:          summary.MetadataUpdated,
	})
	return summary, nil
}

// onScratch copies input beside output, opens the copy read-write, runs fn
// and commits the copy over output only if fn and Close succeed.
func (r *Rescaler) onScratch(ctx context.Context, input, output string, fn func(ports.Document) error) error {
	scratch, err := r.deps.Workspace.Create(ctx, input, output)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			if err := scratch.Discard(); err != nil {
				r.deps.Logger.Warn("failed to remove scratch file",
					ports.Path(scratch.Path()), ports.Err(err))
			}
		}
	}()

	doc, err := r.deps.Store.Open(ctx, scratch.Path(), ports.ReadWrite)
	if err != nil {
		return &domain.FatalInputError{Op: "open document", Path: input, Err: err}
	}

	fnErr := fn(doc)
	closeErr := doc.Close()
	if fnErr != nil {
		return fnErr
	}
	if closeErr != nil {
		return fmt.Errorf("close document: %w", closeErr)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := scratch.Commit(); err != nil {
		return fmt.Errorf("commit %s: %w", output, err)
	}
	committed = true
	return nil
}

// checkHistory fingerprints input and looks it up among earlier outputs.
// A hit is a warning, or a fatal error with RefuseRescaled.
func (r *Rescaler) checkHistory(ctx context.Context, input string) (string, error) {
	fp, err := r.inputFingerprint(ctx, input)
	if err != nil || fp == "" {
		return fp, err
	}
	prior, err := r.deps.Ledger.FindByOutput(ctx, fp)
	if err != nil {
		r.deps.Logger.Warn("history lookup failed", ports.Err(err))
		return fp, nil
	}
	if prior == nil {
		return fp, nil
	}

	fields := []ports.Field{
		ports.String("input", input),
		ports.String("run_id", prior.ID),
		ports.String("run_kind", prior.Kind),
		ports.Stringer("run_scale", prior.Scale),
		ports.String("run_at", prior.CreatedAt.Format(time.RFC3339)),
	}
	if r.opts.RefuseRescaled && prior.Kind == domain.RunRescale {
		return "", &domain.FatalInputError{
			Op:   "check history",
			Path: input,
			Err:  fmt.Errorf("%w by run %s (%s)", domain.ErrAlreadyRescaled, prior.ID, prior.Scale),
		}
	}
	r.deps.Logger.Warn("input is the output of an earlier run; rescaling again compounds the scale", fields...)
	return fp, nil
}

// record stores a completed run. Ledger failures never fail the run.
func (r *Rescaler) record(ctx context.Context, run domain.Run) {
	if r.deps.Ledger == nil || r.deps.Fingerprinter == nil {
		return
	}
	fp, err := r.deps.Fingerprinter.Fingerprint(ctx, run.Output)
	if err != nil {
		r.deps.Logger.Warn("failed to fingerprint output", ports.Err(err))
		return
	}
	run.OutputFingerprint = fp
	saved, err := r.deps.Ledger.Record(ctx, run)
	if err != nil {
		r.deps.Logger.Warn("failed to record run", ports.Err(err))
		return
	}
	r.deps.Logger.Debug("run recorded", ports.String("run_id", saved.ID))
}

// isMissing reports whether err marks absent document structure.
func isMissing(err error) bool {
	return errors.Is(err, domain.ErrMissingStructure)
}

type nopProgress struct{}

func (nopProgress) New(string, int64) ports.Progress { return nopBar{} }

type nopBar struct{}

func (nopBar) Add(int64) {}
func (nopBar) Set(int64) {}
func (nopBar) Finish()   {}
