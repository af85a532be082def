// Package hdf5 reads and rewrites labels documents stored as HDF5 files.
//
// The cgo build links libhdf5 (found through pkg-config). Builds without cgo
// compile, but Open always fails with ErrUnavailable.
package hdf5

import (
	"context"
	"errors"

	"github.com/bft-labs/slprescale/internal/ports"
	"github.com/bft-labs/slprescale/pkg/log"
)

var (
	// ErrUnavailable is returned by Open in builds without cgo.
	ErrUnavailable = errors.New("hdf5: support not compiled in (build with CGO_ENABLED=1 and libhdf5)")

	// ErrReadOnly is returned by writers on a document opened read-only.
	ErrReadOnly = errors.New("hdf5: document opened read-only")

	errCall = errors.New("libhdf5 call failed")
)

// Store opens HDF5 labels documents.
type Store struct {
	logger ports.Logger
}

// New creates a Store.
func New(logger ports.Logger) *Store {
	logger = log.OrNoop(logger)
	return &Store{logger: logger}
}

// Open opens the document at path.
func (s *Store) Open(ctx context.Context, path string, mode ports.OpenMode) (ports.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return openDocument(path, mode, s.logger)
}

var _ ports.DocumentStore = (*Store)(nil)
