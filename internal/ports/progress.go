package ports

// ProgressFactory creates progress reporters.
type ProgressFactory interface {
	New(description string, total int64) Progress
}

// Progress reports advancement of one unit of work.
type Progress interface {
	Add(n int64)
	Set(n int64)
	Finish()
}
