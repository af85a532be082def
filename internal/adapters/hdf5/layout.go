package hdf5

import (
	"bytes"
	"fmt"
	"path"
)

// Child names inside an embedded container group.
const (
	frameDatasetName = "video"
	frameNumbersName = "frame_numbers"
	sourceVideoName  = "source_video"
)

// tempPath names the sibling a dataset is rebuilt under before it is moved
// over the original.
func tempPath(p string) string {
	dir, base := path.Split(p)
	return dir + "." + base + ".slprescale"
}

// packFixed lays records out as fixed-width, NUL padded strings. The width
// is the longest record, at least one byte.
func packFixed(records []string) ([]byte, int) {
	size := 1
	for _, r := range records {
		if len(r) > size {
			size = len(r)
		}
	}
	buf := make([]byte, size*len(records))
	for i, r := range records {
		copy(buf[i*size:], r)
	}
	return buf, size
}

// splitFixed is the inverse of packFixed. Trailing NULs are dropped.
func splitFixed(buf []byte, size, n int) ([]string, error) {
	if size <= 0 || len(buf) < size*n {
		return nil, fmt.Errorf("fixed string buffer: %d bytes for %d x %d", len(buf), n, size)
	}
	out := make([]string, n)
	for i := range out {
		out[i] = string(bytes.TrimRight(buf[i*size:(i+1)*size], "\x00"))
	}
	return out, nil
}

// flatten concatenates frames for a single transfer to libhdf5.
func flatten(frames [][]byte) ([]byte, []uint64) {
	total := 0
	for _, f := range frames {
		total += len(f)
	}
	data := make([]byte, 0, total)
	lens := make([]uint64, len(frames))
	for i, f := range frames {
		data = append(data, f...)
		lens[i] = uint64(len(f))
	}
	return data, lens
}

// splitRows cuts a fixed two-dimensional byte dataset into one frame per row.
func splitRows(buf []byte, rows, cols int) [][]byte {
	frames := make([][]byte, rows)
	for i := range frames {
		frames[i] = append([]byte(nil), buf[i*cols:(i+1)*cols]...)
	}
	return frames
}

// rawAttr is an attribute whose datatype has no plain Go form (enums,
// compounds, multi-dimensional arrays). It is written back unchanged.
type rawAttr struct {
	typ  []byte
	dims []uint64
	data []byte
}

func (r rawAttr) String() string {
	return fmt.Sprintf("<%d bytes, dims %v>", len(r.data), r.dims)
}

func (r rawAttr) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}
