package domain

// TableSummary counts one point table.
type TableSummary struct {
	Name     string `json:"name"`
	Total    int    `json:"total"`
	Rescaled int    `json:"rescaled"`
}

// Skipped is the number of missing points left untouched.
func (t TableSummary) Skipped() int { return t.Total - t.Rescaled }

// VideoSummary counts one embedded container.
type VideoSummary struct {
	Name    string `json:"name"`
	Format  string `json:"format"`
	Frames  int    `json:"frames"`
	Resized int    `json:"resized"`
	Kept    int    `json:"kept"`
}

// Summary is the result of one rescale or set-shape run.
type Summary struct {
	Scale           Scale          `json:"scale"`
	Keys            []string       `json:"keys"`
	Tables          []TableSummary `json:"tables"`
	Videos          []VideoSummary `json:"videos"`
	MetadataTotal   int            `json:"metadata_total"`
	MetadataUpdated int            `json:"metadata_updated"`
}

// PointsRescaled totals rescaled points over all tables.
func (s Summary) PointsRescaled() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Rescaled
	}
	return n
}

// PointsTotal totals points over all tables.
func (s Summary) PointsTotal() int {
	n := 0
	for _, t := range s.Tables {
		n += t.Total
	}
	return n
}

// FramesResized totals successfully resized frames.
func (s Summary) FramesResized() int {
	n := 0
	for _, v := range s.Videos {
		n += v.Resized
	}
	return n
}

// FramesKept totals frames that kept their original bytes.
func (s Summary) FramesKept() int {
	n := 0
	for _, v := range s.Videos {
		n += v.Kept
	}
	return n
}
