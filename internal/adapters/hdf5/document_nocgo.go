//go:build !cgo

package hdf5

import (
	"fmt"

	"github.com/bft-labs/slprescale/internal/ports"
)

func openDocument(path string, _ ports.OpenMode, _ ports.Logger) (ports.Document, error) {
	return nil, fmt.Errorf("open %s: %w", path, ErrUnavailable)
}
