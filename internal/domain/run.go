package domain

import "time"

// Run kinds recorded in the ledger.
const (
	RunRescale  = "rescale"
	RunSetShape = "set-shape"
	RunVideo    = "video"
)

// Run is one completed operation as stored in the run ledger.
type Run struct {
	ID                string
	Kind              string
	Input             string
	Output            string
	InputFingerprint  string
	OutputFingerprint string
	Scale             Scale
	Points            int
	Frames            int
	Records           int
	CreatedAt         time.Time
}

// VideoInfo describes a standalone video file.
type VideoInfo struct {
	Width  int
	Height int
	FPS    float64
	Frames int64
}

// BatchSummary is the result of one resize-videos pass.
type BatchSummary struct {
	Found   int   `json:"found"`
	Resized int   `json:"resized"`
	Skipped int   `json:"skipped"`
	Failed  int   `json:"failed"`
	Frames  int64 `json:"frames"`
}
