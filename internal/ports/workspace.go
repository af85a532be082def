package ports

import "context"

// Workspace creates scratch copies of an input next to its output.
type Workspace interface {
	// Create copies input into a scratch file beside output. Failures are
	// reported as *domain.FatalInputError.
	Create(ctx context.Context, input, output string) (Scratch, error)
}

// Scratch is a copy of the input that becomes the output on Commit.
type Scratch interface {
	// Path is the scratch file to mutate.
	Path() string

	// Commit atomically replaces the output with the scratch file.
	Commit() error

	// Discard removes the scratch file. It is a no-op after Commit.
	Discard() error
}

// Fingerprinter computes content fingerprints of files.
type Fingerprinter interface {
	Fingerprint(ctx context.Context, path string) (string, error)
}
