package ports

import (
	"context"

	"github.com/bft-labs/slprescale/internal/domain"
)

// VideoTranscoder probes and resizes standalone video files.
type VideoTranscoder interface {
	Probe(ctx context.Context, path string) (domain.VideoInfo, error)

	// Transcode writes src resized to the target size into dst. onFrame is
	// called with the number of frames written so far.
	Transcode(ctx context.Context, src, dst string, to domain.Resolution, onFrame func(frames int64)) error
}

// FileWatcher reports files created or rewritten under a directory tree.
type FileWatcher interface {
	// Watch blocks until ctx is done, calling fn once a changed file has
	// settled. fn is never called concurrently.
	Watch(ctx context.Context, root string, fn func(path string)) error
}
