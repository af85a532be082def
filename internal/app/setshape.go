package app

import (
	"context"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
)

// ShapeRequest rewrites the recorded frame size of every video without
// touching coordinates or frames.
type ShapeRequest struct {
	Input  string
	Output string
	To     domain.Resolution
}

// SetShape runs the metadata step of a rescale on its own. It is used to
// repair documents whose frames were resized by other tools.
func (r *Rescaler) SetShape(ctx context.Context, req ShapeRequest) (domain.Summary, error) {
	summary := domain.Summary{Scale: domain.Scale{From: req.To, To: req.To}}
	if err := summary.Scale.Validate(); err != nil {
		return summary, err
	}
	r.deps.Logger.Info("set-shape starting",
		ports.String("input", req.Input),
		ports.String("output", req.Output),
		ports.String("to", req.To.String()),
	)

	inputFP, err := r.inputFingerprint(ctx, req.Input)
	if err != nil {
		return summary, err
	}

	err = r.onScratch(ctx, req.Input, req.Output, func(doc ports.Document) error {
		summary.Keys = doc.Keys()
		var err error
		summary.MetadataTotal, summary.MetadataUpdated, err = rewriteVideoRecords(ctx, doc, req.To, r.deps.Logger)
		return err
	})
	if err != nil {
		return summary, err
	}

	r.deps.Logger.Info("set-shape complete",
		ports.Int("metadata_updated", summary.MetadataUpdated),
		ports.Int("metadata_total", summary.MetadataTotal),
	)
	r.record(ctx, domain.Run{
		Kind:             domain.RunSetShape,
		Input:            req.Input,
		Output:           req.Output,
		InputFingerprint: inputFP,
		Scale:            summary.Scale,
		Records:          summary.MetadataUpdated,
	})
	return summary, nil
}

func (r *Rescaler) inputFingerprint(ctx context.Context, input string) (string, error) {
	if r.deps.Ledger == nil || r.deps.Fingerprinter == nil {
		return "", nil
	}
	fp, err := r.deps.Fingerprinter.Fingerprint(ctx, input)
	if err != nil {
		return "", &domain.FatalInputError{Op: "read input", Path: input, Err: err}
	}
	return fp, nil
}
