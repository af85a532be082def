// Package slprescale rescales pose-tracking label documents (.slp and
// .pkg.slp) from one frame resolution to another and resizes standalone
// video files to match.
//
// It can be used as the slprescale CLI or embedded as a library.
//
// # Basic Usage
//
//	r, err := slprescale.New(slprescale.Config{
//	    From: slprescale.Resolution{Width: 2252, Height: 2252},
//	    To:   slprescale.Resolution{Width: 3240, Height: 2890},
//	    ResizeImages: true,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer r.Close()
//
//	summary, err := r.Rescale(ctx, "labels.pkg.slp", "labels.rescaled.pkg.slp")
//
// A rescale scales every labeled point, resizes embedded frames and rewrites
// the frame size recorded in each video's metadata. Missing points (NaN)
// are left untouched. The output is written to a scratch copy and only
// replaces the destination when the run succeeds.
//
// # Errors
//
// Conditions that stop a run before any output is written (bad dimensions,
// an unreadable input, an output that cannot be created) match
// [ErrFatalInput] with errors.Is. Frames that cannot be decoded keep their
// original bytes and are reported through the logger.
//
// # Run History
//
// When Config.LedgerPath is set, every run is recorded in a SQLite ledger.
// Rescaling a file that an earlier run produced logs a warning, or fails
// with [ErrAlreadyRescaled] when Config.RefuseRescaled is set.
package slprescale
