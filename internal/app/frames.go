package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
)

// resizeVideos resizes the frames of every embedded container and replaces
// each container in one step. Containers without a frame dataset are
// logged and skipped.
func (r *Rescaler) resizeVideos(ctx context.Context, doc ports.Document, to domain.Resolution) ([]domain.VideoSummary, error) {
	names, err := doc.EmbeddedVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embedded videos: %w", err)
	}
	r.deps.Logger.Info("embedded videos found", ports.Int("count", len(names)), ports.Strings("names", names))

	var out []domain.VideoSummary
	for _, name := range names {
		v, err := doc.ReadEmbeddedVideo(ctx, name)
		if isMissing(err) {
			r.deps.Logger.Info("embedded video has no frames; skipped", ports.String("video", name), ports.Err(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		frames, vs, err := r.resizeFrames(ctx, v, to)
		if err != nil {
			return nil, err
		}
		if err := doc.ReplaceEmbeddedVideo(ctx, v.Resized(frames, to)); err != nil {
			return nil, fmt.Errorf("replace %s: %w", name, err)
		}

		r.deps.Logger.Info("embedded video resized",
			ports.String("video", name),
			ports.String("format", vs.Format),
			ports.Int("resized", vs.Resized),
			ports.Int("kept", vs.Kept),
		)
		out = append(out, vs)
	}
	return out, nil
}

// resizeFrames decodes, resamples and re-encodes each frame of v in its
// recorded format. A frame that fails keeps its original bytes.
func (r *Rescaler) resizeFrames(ctx context.Context, v *domain.EmbeddedVideo, to domain.Resolution) ([][]byte, domain.VideoSummary, error) {
	vs := domain.VideoSummary{Name: v.Name, Format: v.FormatTag(), Frames: len(v.Frames)}
	format := v.Format()

	bar := r.deps.Progress.New(v.Name, int64(len(v.Frames)))
	defer bar.Finish()

	frames := make([][]byte, len(v.Frames))
	for i, raw := range v.Frames {
		if err := ctx.Err(); err != nil {
			return nil, vs, err
		}
		resized, err := r.resizeFrame(v.Name, i, raw, format, to)
		if err != nil {
			var fe *domain.FrameError
			if errors.As(err, &fe) {
				r.deps.Logger.Warn("frame kept at original size",
					ports.String("video", fe.Video),
					ports.Int("frame", fe.Index),
					ports.String("stage", string(fe.Stage)),
					ports.Err(fe.Err),
				)
			}
			frames[i] = raw
			vs.Kept++
		} else {
			frames[i] = resized
			vs.Resized++
		}
		bar.Add(1)
	}
	return frames, vs, nil
}

func (r *Rescaler) resizeFrame(video string, index int, raw []byte, format domain.ImageFormat, to domain.Resolution) ([]byte, error) {
	img, err := r.deps.Codec.Decode(raw)
	if err != nil {
		return nil, &domain.FrameError{Video: video, Index: index, Stage: domain.StageDecode, Err: err}
	}
	out, err := r.deps.Codec.Encode(r.deps.Codec.Resample(img, to), format)
	if err != nil {
		return nil, &domain.FrameError{Video: video, Index: index, Stage: domain.StageEncode, Err: err}
	}
	return out, nil
}
