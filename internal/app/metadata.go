package app

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
)

// JSON paths of the [frames, height, width, channels] arrays in a video
// metadata record.
const (
	shapePath       = "backend.shape"
	sourceShapePath = "source_video.backend.shape"
)

// RewriteShape sets the height and width entries of backend.shape and
// source_video.backend.shape in one video metadata record. Arrays shorter
// than three entries, absent paths and malformed JSON are left alone. The
// rest of the record is preserved byte for byte, including bare NaN and
// Infinity literals. updated reports whether backend.shape was present or
// source_video.backend.shape was rewritten.
func RewriteShape(record string, to domain.Resolution) (out string, updated bool) {
	norm := normalizeLiterals(record)
	if !gjson.Valid(norm) {
		return record, false
	}
	if norm != record {
		return spliceShape(record, norm, to)
	}

	out = record
	for _, path := range []string{shapePath, sourceShapePath} {
		shape := gjson.Get(out, path)
		if !shape.Exists() {
			continue
		}
		if path == shapePath {
			updated = true
		}
		if !shape.IsArray() || len(shape.Array()) < 3 {
			continue
		}
		next, err := sjson.Set(out, path+".1", to.Height)
		if err != nil {
			continue
		}
		next, err = sjson.Set(next, path+".2", to.Width)
		if err != nil {
			continue
		}
		out = next
		updated = true
	}
	return out, updated
}

// spliceShape rewrites record using value offsets looked up in norm, its
// same-length normalized form.
func spliceShape(record, norm string, to domain.Resolution) (string, bool) {
	type edit struct {
		off, end int
		text     string
	}
	var (
		edits   []edit
		updated bool
	)
	for _, path := range []string{shapePath, sourceShapePath} {
		shape := gjson.Get(norm, path)
		if !shape.Exists() {
			continue
		}
		if path == shapePath {
			updated = true
		}
		if !shape.IsArray() || len(shape.Array()) < 3 {
			continue
		}
		h, w := gjson.Get(norm, path+".1"), gjson.Get(norm, path+".2")
		if !locatable(norm, h) || !locatable(norm, w) {
			continue
		}
		edits = append(edits,
			edit{h.Index, h.Index + len(h.Raw), strconv.Itoa(to.Height)},
			edit{w.Index, w.Index + len(w.Raw), strconv.Itoa(to.Width)},
		)
		updated = true
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].off > edits[j].off })
	out := record
	for _, e := range edits {
		out = out[:e.off] + e.text + out[e.end:]
	}
	return out, updated
}

func locatable(json string, r gjson.Result) bool {
	return r.Index > 0 && r.Index+len(r.Raw) <= len(json) && json[r.Index:r.Index+len(r.Raw)] == r.Raw
}

// normalizeLiterals replaces bare NaN and Infinity tokens with numbers of the
// same length so the record parses as strict JSON. String contents are not
// touched and byte offsets are unchanged.
func normalizeLiterals(s string) string {
	var b []byte
	inString, escaped := false, false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case inString:
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
		case c == '"':
			inString = true
		case strings.HasPrefix(s[i:], "NaN"):
			b = replaceAt(b, s, i, "0.0")
			i += len("NaN") - 1
		case strings.HasPrefix(s[i:], "Infinity"):
			b = replaceAt(b, s, i, "1e999999")
			i += len("Infinity") - 1
		}
	}
	if b == nil {
		return s
	}
	return string(b)
}

func replaceAt(b []byte, s string, i int, with string) []byte {
	if b == nil {
		b = []byte(s)
	}
	copy(b[i:], with)
	return b
}

// ShapeOf returns backend.shape (or source_video.backend.shape when source
// is set) as integers, or nil when absent or not an array.
func ShapeOf(record string, source bool) []int64 {
	path := shapePath
	if source {
		path = sourceShapePath
	}
	shape := gjson.Get(normalizeLiterals(record), path)
	if !shape.IsArray() {
		return nil
	}
	var out []int64
	for _, v := range shape.Array() {
		out = append(out, v.Int())
	}
	return out
}

// validRecord reports whether record parses as JSON once bare NaN and
// Infinity literals are accepted.
func validRecord(record string) bool {
	return gjson.Valid(normalizeLiterals(record))
}

// rewriteVideoRecords rewrites every record's shape and writes them back in
// one step. A document without records is logged and skipped.
func rewriteVideoRecords(ctx context.Context, doc ports.Document, to domain.Resolution, logger ports.Logger) (total, updated int, err error) {
	records, err := doc.ReadVideoRecords(ctx)
	if isMissing(err) {
		logger.Warn("no video metadata found; skipped", ports.String("key", domain.VideoRecordsKey))
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("read %s: %w", domain.VideoRecordsKey, err)
	}

	out := make([]string, len(records))
	for i, rec := range records {
		next, ok := RewriteShape(rec, to)
		out[i] = next
		if !ok {
			logger.Debug("video record has no backend shape; passed through", ports.Int("video", i))
			continue
		}
		updated++
		logger.Info("video metadata updated",
			ports.Int("video", i),
			ports.String("filename", gjson.Get(normalizeLiterals(rec), "filename").String()),
			ports.Any("old_shape", ShapeOf(rec, false)),
			ports.Any("new_shape", ShapeOf(next, false)),
			ports.Any("old_source_shape", ShapeOf(rec, true)),
			ports.Any("new_source_shape", ShapeOf(next, true)),
		)
	}

	if err := doc.WriteVideoRecords(ctx, out); err != nil {
		return 0, 0, fmt.Errorf("write %s: %w", domain.VideoRecordsKey, err)
	}
	return len(records), updated, nil
}
