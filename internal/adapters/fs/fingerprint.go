package fs

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"golang.org/x/crypto/blake2b"
)

// Fingerprinter hashes file contents with BLAKE2b-256.
type Fingerprinter struct{}

// NewFingerprinter creates a Fingerprinter.
func NewFingerprinter() *Fingerprinter {
	return &Fingerprinter{}
}

// Fingerprint returns the hex BLAKE2b-256 digest of the file at path.
func (f *Fingerprinter) Fingerprint(ctx context.Context, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, &ctxReader{ctx: ctx, r: file}); err != nil {
		return "", fmt.Errorf("fingerprint %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
