package app

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/tidwall/gjson"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
	"github.com/bft-labs/slprescale/pkg/log"
)

// maxBrokenRefs caps the labeled frames listed individually in a report.
const maxBrokenRefs = 20

// Report describes the structure of a labels document.
type Report struct {
	Path      string   `json:"path" yaml:"path"`
	Size      int64    `json:"size" yaml:"size"`
	SizeHuman string   `json:"size_human" yaml:"size_human"`
	Keys      []string `json:"keys" yaml:"keys"`

	Tables  []TableReport    `json:"tables" yaml:"tables"`
	Records []RecordReport   `json:"video_records" yaml:"video_records"`
	Videos  []EmbeddedReport `json:"embedded_videos" yaml:"embedded_videos"`

	LabeledFrames int         `json:"labeled_frames" yaml:"labeled_frames"`
	BrokenCount   int         `json:"broken_refs_count" yaml:"broken_refs_count"`
	BrokenRefs    []BrokenRef `json:"broken_refs,omitempty" yaml:"broken_refs,omitempty"`
}

// TableReport describes one point table.
type TableReport struct {
	Name    string         `json:"name" yaml:"name"`
	Total   int            `json:"total" yaml:"total"`
	Missing int            `json:"missing" yaml:"missing"`
	Bounds  *domain.Bounds `json:"bounds,omitempty" yaml:"bounds,omitempty"`
}

// RecordReport describes one video metadata record.
type RecordReport struct {
	Index       int     `json:"index" yaml:"index"`
	Filename    string  `json:"filename" yaml:"filename"`
	Shape       []int64 `json:"shape" yaml:"shape"`
	SourceShape []int64 `json:"source_shape,omitempty" yaml:"source_shape,omitempty"`
	Valid       bool    `json:"valid_json" yaml:"valid_json"`
}

// EmbeddedReport describes one embedded frame container.
type EmbeddedReport struct {
	Name         string            `json:"name" yaml:"name"`
	Dataset      string            `json:"dataset" yaml:"dataset"`
	Format       string            `json:"format" yaml:"format"`
	Frames       int               `json:"frames" yaml:"frames"`
	FrameNumbers int               `json:"frame_numbers" yaml:"frame_numbers"`
	TotalBytes   int64             `json:"total_bytes" yaml:"total_bytes"`
	TotalHuman   string            `json:"total_human" yaml:"total_human"`
	MinBytes     int               `json:"min_bytes" yaml:"min_bytes"`
	MaxBytes     int               `json:"max_bytes" yaml:"max_bytes"`
	Attrs        domain.Attributes `json:"attributes" yaml:"attributes"`
	SourceVideo  domain.Attributes `json:"source_video,omitempty" yaml:"source_video,omitempty"`
}

// BrokenRef is a labeled frame whose video index has no metadata record.
type BrokenRef struct {
	Frame int   `json:"frame" yaml:"frame"`
	Video int64 `json:"video" yaml:"video"`
}

// Inspector reports on documents without modifying them.
type Inspector struct {
	store  ports.DocumentStore
	logger ports.Logger
}

// NewInspector creates an Inspector.
func NewInspector(store ports.DocumentStore, logger ports.Logger) *Inspector {
	logger = log.OrNoop(logger)
	return &Inspector{store: store, logger: logger}
}

// Inspect opens path read-only and describes its structure. Missing parts
// are left out of the report.
func (in *Inspector) Inspect(ctx context.Context, path string) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, &domain.FatalInputError{Op: "stat input", Path: path, Err: err}
	}
	doc, err := in.store.Open(ctx, path, ports.ReadOnly)
	if err != nil {
		return nil, &domain.FatalInputError{Op: "open document", Path: path, Err: err}
	}
	defer doc.Close()

	rep := &Report{
		Path:      path,
		Size:      info.Size(),
		SizeHuman: humanize.Bytes(uint64(info.Size())),
		Keys:      doc.Keys(),
	}

	for _, name := range domain.PointTables {
		points, err := doc.ReadPoints(ctx, name)
		if isMissing(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		tr := TableReport{Name: name, Total: len(points)}
		b, missing, ok := domain.PointBounds(points)
		tr.Missing = missing
		if ok {
			tr.Bounds = &b
		}
		rep.Tables = append(rep.Tables, tr)
	}

	records, err := doc.ReadVideoRecords(ctx)
	switch {
	case isMissing(err):
		records = nil
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", domain.VideoRecordsKey, err)
	}
	for i, rec := range records {
		rep.Records = append(rep.Records, RecordReport{
			Index:       i,
			Filename:    gjson.Get(normalizeLiterals(rec), "filename").String(),
			Shape:       ShapeOf(rec, false),
			SourceShape: ShapeOf(rec, true),
			Valid:       validRecord(rec),
		})
	}

	names, err := doc.EmbeddedVideos(ctx)
	if err != nil {
		return nil, fmt.Errorf("list embedded videos: %w", err)
	}
	for _, name := range names {
		v, err := doc.ReadEmbeddedVideo(ctx, name)
		if isMissing(err) {
			in.logger.Info("embedded video has no frames", ports.String("video", name), ports.Err(err))
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		rep.Videos = append(rep.Videos, describeVideo(v))
	}

	refs, err := doc.ReadFrameVideoRefs(ctx)
	switch {
	case isMissing(err):
	case err != nil:
		return nil, fmt.Errorf("read %s: %w", domain.LabeledFramesKey, err)
	default:
		rep.LabeledFrames = len(refs)
		if records != nil {
			rep.BrokenCount, rep.BrokenRefs = brokenRefs(refs, len(records))
		}
	}
	return rep, nil
}

func describeVideo(v *domain.EmbeddedVideo) EmbeddedReport {
	er := EmbeddedReport{
		Name:         v.Name,
		Dataset:      v.Dataset,
		Format:       v.FormatTag(),
		Frames:       len(v.Frames),
		FrameNumbers: len(v.FrameNumbers),
		Attrs:        v.Attrs,
		SourceVideo:  v.SourceVideo,
	}
	for i, f := range v.Frames {
		er.TotalBytes += int64(len(f))
		if i == 0 || len(f) < er.MinBytes {
			er.MinBytes = len(f)
		}
		if len(f) > er.MaxBytes {
			er.MaxBytes = len(f)
		}
	}
	er.TotalHuman = humanize.Bytes(uint64(er.TotalBytes))
	return er
}

// brokenRefs finds labeled frames pointing past the video records.
func brokenRefs(refs []int64, records int) (int, []BrokenRef) {
	count := 0
	var listed []BrokenRef
	for i, ref := range refs {
		if ref >= 0 && ref < int64(records) {
			continue
		}
		count++
		if len(listed) < maxBrokenRefs {
			listed = append(listed, BrokenRef{Frame: i, Video: ref})
		}
	}
	return count, listed
}
