package domain

import (
	"strings"
)

// Document keys outside the point tables.
const (
	VideoRecordsKey  = "videos_json"
	LabeledFramesKey = "frames"
)

// Embedded container attribute names.
const (
	AttrFormat   = "format"
	AttrFrames   = "frames"
	AttrHeight   = "height"
	AttrWidth    = "width"
	AttrChannels = "channels"
)

// ImageFormat is the compressed encoding of embedded frames.
type ImageFormat string

const (
	FormatPNG  ImageFormat = "png"
	FormatJPEG ImageFormat = "jpg"
)

// ParseImageFormat maps a recorded format tag to an encoder. "jpg" and
// "jpeg" in any case select JPEG; everything else selects PNG.
func ParseImageFormat(tag string) ImageFormat {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "jpg", "jpeg":
		return FormatJPEG
	default:
		return FormatPNG
	}
}

// Attr is one named attribute. Value holds int64, float64, string,
// []int64 or []float64.
type Attr struct {
	Name  string      `json:"name" yaml:"name"`
	Value interface{} `json:"value" yaml:"value"`
}

// Attributes is an ordered attribute set.
type Attributes []Attr

// Get returns the value stored under name.
func (a Attributes) Get(name string) (interface{}, bool) {
	for _, attr := range a {
		if attr.Name == name {
			return attr.Value, true
		}
	}
	return nil, false
}

// Has reports whether name is present.
func (a Attributes) Has(name string) bool {
	_, ok := a.Get(name)
	return ok
}

// String returns a string attribute.
func (a Attributes) String(name string) (string, bool) {
	v, ok := a.Get(name)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Int returns an integer attribute. Float values with no fractional part
// are accepted.
func (a Attributes) Int(name string) (int64, bool) {
	v, ok := a.Get(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

// With returns a copy of a with name set to value. An existing attribute
// keeps its position.
func (a Attributes) With(name string, value interface{}) Attributes {
	out := a.Clone()
	for i := range out {
		if out[i].Name == name {
			out[i].Value = value
			return out
		}
	}
	return append(out, Attr{Name: name, Value: value})
}

// Clone returns a copy that shares no slice storage with a.
func (a Attributes) Clone() Attributes {
	if a == nil {
		return nil
	}
	out := make(Attributes, len(a))
	for i, attr := range a {
		switch v := attr.Value.(type) {
		case []int64:
			attr.Value = append([]int64(nil), v...)
		case []float64:
			attr.Value = append([]float64(nil), v...)
		}
		out[i] = attr
	}
	return out
}

// EmbeddedVideo is the full state of one embedded frame container, read
// into memory before any mutation. Frames are independently sized blobs
// because re-encoding changes each buffer's length.
type EmbeddedVideo struct {
	// Name is the top-level key, e.g. "video0".
	Name string

	// Dataset is the path of the frame dataset, e.g. "video0/video".
	Dataset string

	Attrs  Attributes
	Frames [][]byte

	// Side tables stored next to the frames.
	FrameNumbers []int64
	SourceVideo  Attributes
}

// Format returns the recorded frame encoding, defaulting to PNG.
func (v *EmbeddedVideo) Format() ImageFormat {
	tag, ok := v.Attrs.String(AttrFormat)
	if !ok {
		return FormatPNG
	}
	return ParseImageFormat(tag)
}

// FormatTag returns the raw format attribute, or "png" when absent.
func (v *EmbeddedVideo) FormatTag() string {
	if tag, ok := v.Attrs.String(AttrFormat); ok {
		return tag
	}
	return string(FormatPNG)
}

// Resized returns the container that replaces v: the given frames, the
// captured attributes and side tables, and height/width overwritten only
// where they were already recorded. Frame count and format are kept.
func (v *EmbeddedVideo) Resized(frames [][]byte, to Resolution) *EmbeddedVideo {
	attrs := v.Attrs.Clone()
	if attrs.Has(AttrHeight) {
		attrs = attrs.With(AttrHeight, int64(to.Height))
	}
	if attrs.Has(AttrWidth) {
		attrs = attrs.With(AttrWidth, int64(to.Width))
	}
	return &EmbeddedVideo{
		Name:         v.Name,
		Dataset:      v.Dataset,
		Attrs:        attrs,
		Frames:       frames,
		FrameNumbers: append([]int64(nil), v.FrameNumbers...),
		SourceVideo:  v.SourceVideo.Clone(),
	}
}

// IsEmbeddedVideoKey reports whether a top-level key names an embedded
// frame container ("video0", "video1", ...).
func IsEmbeddedVideoKey(key string) bool {
	return strings.HasPrefix(key, "video") && key != VideoRecordsKey
}
