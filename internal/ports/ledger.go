package ports

import (
	"context"

	"github.com/bft-labs/slprescale/internal/domain"
)

// RunLedger records completed runs.
type RunLedger interface {
	// Record stores a completed run. Empty IDs are assigned.
	Record(ctx context.Context, run domain.Run) (domain.Run, error)

	// FindByOutput returns the most recent run whose output has the given
	// fingerprint, or nil when there is none.
	FindByOutput(ctx context.Context, fingerprint string) (*domain.Run, error)

	// Recent returns up to limit runs, newest first.
	Recent(ctx context.Context, limit int) ([]domain.Run, error)
}
