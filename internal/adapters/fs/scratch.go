// Package fs provides file-system adapters: scratch copies that replace an
// output atomically, and content fingerprints.
package fs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
)

// Workspace implements ports.Workspace with temp files beside the output.
type Workspace struct{}

// NewWorkspace creates a Workspace.
func NewWorkspace() *Workspace {
	return &Workspace{}
}

// Create copies input to a hidden temp file in output's directory so the
// final rename stays on one file system. Input and output may be the same
// path.
func (w *Workspace) Create(ctx context.Context, input, output string) (ports.Scratch, error) {
	src, err := os.Open(input)
	if err != nil {
		return nil, &domain.FatalInputError{Op: "open input", Path: input, Err: err}
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return nil, &domain.FatalInputError{Op: "stat input", Path: input, Err: err}
	}
	if info.IsDir() {
		return nil, &domain.FatalInputError{Op: "open input", Path: input, Err: fmt.Errorf("is a directory")}
	}

	dir := filepath.Dir(output)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &domain.FatalInputError{Op: "create output", Path: output, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(output)+".*.tmp")
	if err != nil {
		return nil, &domain.FatalInputError{Op: "create output", Path: output, Err: err}
	}
	s := &scratch{path: tmp.Name(), output: output}

	if _, err := io.Copy(tmp, &ctxReader{ctx: ctx, r: src}); err != nil {
		tmp.Close()
		s.Discard()
		return nil, &domain.FatalInputError{Op: "copy input", Path: input, Err: err}
	}
	// Keep mode and modification time like a plain copy would.
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		tmp.Close()
		s.Discard()
		return nil, fmt.Errorf("copy mode to %s: %w", s.path, err)
	}
	if err := tmp.Close(); err != nil {
		s.Discard()
		return nil, &domain.FatalInputError{Op: "create output", Path: output, Err: err}
	}
	if err := os.Chtimes(s.path, info.ModTime(), info.ModTime()); err != nil {
		s.Discard()
		return nil, fmt.Errorf("copy times to %s: %w", s.path, err)
	}

	return s, nil
}

type scratch struct {
	path      string
	output    string
	committed bool
}

func (s *scratch) Path() string { return s.path }

func (s *scratch) Commit() error {
	if s.committed {
		return nil
	}
	if err := os.Rename(s.path, s.output); err != nil {
		return fmt.Errorf("commit %s: %w", s.output, err)
	}
	s.committed = true
	return nil
}

func (s *scratch) Discard() error {
	if s.committed {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// ctxReader stops a long copy once ctx is done.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *ctxReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
