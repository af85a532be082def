package ports

import (
	"context"

	"github.com/bft-labs/slprescale/internal/domain"
)

// OpenMode selects read-only or read-write access to a document.
type OpenMode int

const (
	ReadOnly OpenMode = iota
	ReadWrite
)

// DocumentStore opens labels documents.
type DocumentStore interface {
	Open(ctx context.Context, path string, mode OpenMode) (Document, error)
}

// Document is an open labels document. Readers return an error matching
// domain.ErrMissingStructure when the requested table, container or field
// does not exist.
type Document interface {
	// Keys lists the top-level entries in name order.
	Keys() []string

	// ReadPoints reads a whole point table in one call.
	ReadPoints(ctx context.Context, table string) ([]domain.Point, error)

	// WritePoints overwrites the coordinates of a whole point table in one
	// call. Other point fields are left untouched.
	WritePoints(ctx context.Context, table string, points []domain.Point) error

	// EmbeddedVideos lists the keys of embedded frame containers.
	EmbeddedVideos(ctx context.Context) ([]string, error)

	// ReadEmbeddedVideo captures a container's full state.
	ReadEmbeddedVideo(ctx context.Context, name string) (*domain.EmbeddedVideo, error)

	// ReplaceEmbeddedVideo persists v in place of the container of the
	// same name in a single replace step.
	ReplaceEmbeddedVideo(ctx context.Context, v *domain.EmbeddedVideo) error

	// ReadVideoRecords returns the JSON text of every video metadata record.
	ReadVideoRecords(ctx context.Context) ([]string, error)

	// WriteVideoRecords replaces all video metadata records.
	WriteVideoRecords(ctx context.Context, records []string) error

	// ReadFrameVideoRefs returns the video index of every labeled frame.
	ReadFrameVideoRefs(ctx context.Context) ([]int64, error)

	Close() error
}
