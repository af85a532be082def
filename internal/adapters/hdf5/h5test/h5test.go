//go:build cgo

package h5test

/*
#cgo pkg-config: hdf5

#include <stdlib.h>
#include <hdf5.h>

typedef struct {
	double x;
	double y;
	unsigned char visible;
	unsigned char complete;
	double score;
} fx_point;

typedef struct {
	long long frame_id;
	long long video;
	long long frame_idx;
} fx_frame;

static void fx_init(void) {
	H5open();
	H5Eset_auto2(H5E_DEFAULT, NULL, NULL);
}

static hid_t fx_create(const char *path) {
	fx_init();
	return H5Fcreate(path, H5F_ACC_TRUNC, H5P_DEFAULT, H5P_DEFAULT);
}

static hid_t fx_open(const char *path) {
	fx_init();
	return H5Fopen(path, H5F_ACC_RDONLY, H5P_DEFAULT);
}

static int fx_close(hid_t f) { return H5Fclose(f) < 0 ? -1 : 0; }

static hid_t fx_point_type(void) {
	hid_t t = H5Tcreate(H5T_COMPOUND, sizeof(fx_point));
	H5Tinsert(t, "x", HOFFSET(fx_point, x), H5T_NATIVE_DOUBLE);
	H5Tinsert(t, "y", HOFFSET(fx_point, y), H5T_NATIVE_DOUBLE);
	H5Tinsert(t, "visible", HOFFSET(fx_point, visible), H5T_NATIVE_UCHAR);
	H5Tinsert(t, "complete", HOFFSET(fx_point, complete), H5T_NATIVE_UCHAR);
	H5Tinsert(t, "score", HOFFSET(fx_point, score), H5T_NATIVE_DOUBLE);
	return t;
}

static hid_t fx_frame_type(void) {
	hid_t t = H5Tcreate(H5T_COMPOUND, sizeof(fx_frame));
	H5Tinsert(t, "frame_id", HOFFSET(fx_frame, frame_id), H5T_NATIVE_LLONG);
	H5Tinsert(t, "video", HOFFSET(fx_frame, video), H5T_NATIVE_LLONG);
	H5Tinsert(t, "frame_idx", HOFFSET(fx_frame, frame_idx), H5T_NATIVE_LLONG);
	return t;
}

static hid_t fx_vstr_type(void) {
	hid_t t = H5Tcopy(H5T_C_S1);
	H5Tset_size(t, H5T_VARIABLE);
	H5Tset_cset(t, H5T_CSET_UTF8);
	return t;
}

static hid_t fx_fstr_type(size_t size) {
	hid_t t = H5Tcopy(H5T_C_S1);
	H5Tset_size(t, size);
	H5Tset_strpad(t, H5T_STR_NULLPAD);
	return t;
}

// Creates path with the given shape and writes buf. Chunked datasets are
// extendable along every axis and may be empty.
static int fx_write(hid_t f, const char *path, hid_t ft, hid_t mt,
		int rank, const hsize_t *dims, int chunked, const void *buf) {
	hsize_t maxdims[2] = {H5S_UNLIMITED, H5S_UNLIMITED};
	hid_t sp = H5Screate_simple(rank, dims, chunked ? maxdims : NULL);
	if (sp < 0) return -1;
	hid_t dcpl = H5Pcreate(H5P_DATASET_CREATE);
	if (chunked) {
		hsize_t chunk[2] = {dims[0] > 0 ? dims[0] : 1, (rank > 1 && dims[1] > 0) ? dims[1] : 1};
		H5Pset_chunk(dcpl, rank, chunk);
	}
	hid_t ds = H5Dcreate2(f, path, ft, sp, H5P_DEFAULT, dcpl, H5P_DEFAULT);
	int rc = -1;
	if (ds >= 0) {
		hssize_t np = H5Sget_simple_extent_npoints(sp);
		rc = (np == 0 || H5Dwrite(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, buf) >= 0) ? 0 : -1;
		H5Dclose(ds);
	}
	H5Pclose(dcpl);
	H5Sclose(sp);
	return rc;
}

static int fx_write_points(hid_t f, const char *path, const fx_point *pts, hsize_t n) {
	hid_t t = fx_point_type();
	hsize_t dims[1] = {n};
	int rc = fx_write(f, path, t, t, 1, dims, 1, pts);
	H5Tclose(t);
	return rc;
}

static int fx_read_points(hid_t f, const char *path, fx_point *pts) {
	hid_t ds = H5Dopen2(f, path, H5P_DEFAULT);
	if (ds < 0) return -1;
	hid_t t = fx_point_type();
	int rc = H5Dread(ds, t, H5S_ALL, H5S_ALL, H5P_DEFAULT, pts) < 0 ? -1 : 0;
	H5Tclose(t);
	H5Dclose(ds);
	return rc;
}

static int fx_write_frames_table(hid_t f, const char *path, const fx_frame *rows, hsize_t n) {
	hid_t t = fx_frame_type();
	hsize_t dims[1] = {n};
	int rc = fx_write(f, path, t, t, 1, dims, 1, rows);
	H5Tclose(t);
	return rc;
}

static int fx_write_i8(hid_t f, const char *path, const signed char *data, hsize_t rows, hsize_t cols) {
	hsize_t dims[2] = {rows, cols};
	return fx_write(f, path, H5T_STD_I8LE, H5T_NATIVE_SCHAR, 2, dims, 0, data);
}

static int fx_write_vlen_u8(hid_t f, const char *path, unsigned char *data,
		const unsigned long long *lens, hsize_t n) {
	hid_t t = H5Tvlen_create(H5T_STD_U8LE);
	hid_t mt = H5Tvlen_create(H5T_NATIVE_UCHAR);
	hvl_t *buf = calloc(n > 0 ? n : 1, sizeof(hvl_t));
	size_t off = 0;
	for (hsize_t i = 0; i < n; i++) {
		buf[i].len = (size_t)lens[i];
		buf[i].p = data + off;
		off += (size_t)lens[i];
	}
	hsize_t dims[1] = {n};
	int rc = fx_write(f, path, t, mt, 1, dims, 0, buf);
	free(buf);
	H5Tclose(mt);
	H5Tclose(t);
	return rc;
}

static int fx_write_i64(hid_t f, const char *path, const long long *v, hsize_t n) {
	hsize_t dims[1] = {n};
	return fx_write(f, path, H5T_STD_I64LE, H5T_NATIVE_LLONG, 1, dims, 1, v);
}

static int fx_write_vstrings(hid_t f, const char *path, const char **v, hsize_t n) {
	hid_t t = fx_vstr_type();
	hsize_t dims[1] = {n};
	int rc = fx_write(f, path, t, t, 1, dims, 1, v);
	H5Tclose(t);
	return rc;
}

static int fx_write_fstrings(hid_t f, const char *path, const char *data, size_t size, hsize_t n) {
	hid_t t = fx_fstr_type(size);
	hsize_t dims[1] = {n};
	int rc = fx_write(f, path, t, t, 1, dims, 1, data);
	H5Tclose(t);
	return rc;
}

static int fx_group(hid_t f, const char *path) {
	hid_t g = H5Gcreate2(f, path, H5P_DEFAULT, H5P_DEFAULT, H5P_DEFAULT);
	if (g < 0) return -1;
	H5Gclose(g);
	return 0;
}

static int fx_attr(hid_t f, const char *obj, const char *name, hid_t ft, hid_t mt,
		int rank, const hsize_t *dims, const void *buf) {
	hid_t o = H5Oopen(f, obj, H5P_DEFAULT);
	if (o < 0) return -1;
	hid_t sp = rank == 0 ? H5Screate(H5S_SCALAR) : H5Screate_simple(rank, dims, NULL);
	hid_t a = H5Acreate2(o, name, ft, sp, H5P_DEFAULT, H5P_DEFAULT);
	int rc = -1;
	if (a >= 0) {
		rc = H5Awrite(a, mt, buf) < 0 ? -1 : 0;
		H5Aclose(a);
	}
	H5Sclose(sp);
	H5Oclose(o);
	return rc;
}

static int fx_attr_i64(hid_t f, const char *obj, const char *name, long long v) {
	return fx_attr(f, obj, name, H5T_STD_I64LE, H5T_NATIVE_LLONG, 0, NULL, &v);
}

static int fx_attr_f64(hid_t f, const char *obj, const char *name, double v) {
	return fx_attr(f, obj, name, H5T_IEEE_F64LE, H5T_NATIVE_DOUBLE, 0, NULL, &v);
}

static int fx_attr_vstr(hid_t f, const char *obj, const char *name, const char *v) {
	hid_t t = fx_vstr_type();
	int rc = fx_attr(f, obj, name, t, t, 0, NULL, &v);
	H5Tclose(t);
	return rc;
}

static int fx_attr_fstr(hid_t f, const char *obj, const char *name, const char *v, size_t size) {
	hid_t t = fx_fstr_type(size);
	int rc = fx_attr(f, obj, name, t, t, 0, NULL, v);
	H5Tclose(t);
	return rc;
}

static int fx_attr_i32_2d(hid_t f, const char *obj, const char *name, const int *v, hsize_t rows, hsize_t cols) {
	hsize_t dims[2] = {rows, cols};
	return fx_attr(f, obj, name, H5T_STD_I32LE, H5T_NATIVE_INT, 2, dims, v);
}

static int fx_exists(hid_t f, const char *path) {
	return H5Oexists_by_name(f, path, H5P_DEFAULT) > 0;
}

static int fx_dataset_class(hid_t f, const char *path) {
	hid_t ds = H5Dopen2(f, path, H5P_DEFAULT);
	if (ds < 0) return -1;
	hid_t t = H5Dget_type(ds);
	int cls = (int)H5Tget_class(t);
	H5Tclose(t);
	H5Dclose(ds);
	return cls;
}

static int fx_attr_class(hid_t f, const char *obj, const char *name, int *rank) {
	hid_t a = H5Aopen_by_name(f, obj, name, H5P_DEFAULT, H5P_DEFAULT);
	if (a < 0) return -1;
	hid_t t = H5Aget_type(a);
	hid_t sp = H5Aget_space(a);
	int cls = (int)H5Tget_class(t);
	*rank = H5Sget_simple_extent_ndims(sp);
	H5Sclose(sp);
	H5Tclose(t);
	H5Aclose(a);
	return cls;
}

static int fx_read_attr_i32_2d(hid_t f, const char *obj, const char *name, int *v, hsize_t *dims) {
	hid_t a = H5Aopen_by_name(f, obj, name, H5P_DEFAULT, H5P_DEFAULT);
	if (a < 0) return -1;
	hid_t sp = H5Aget_space(a);
	int rc = -1;
	if (H5Sget_simple_extent_ndims(sp) == 2) {
		H5Sget_simple_extent_dims(sp, dims, NULL);
		rc = (v == NULL || H5Aread(a, H5T_NATIVE_INT, v) >= 0) ? 0 : -1;
	}
	H5Sclose(sp);
	H5Aclose(a);
	return rc;
}
*/
import "C"

import (
	"errors"
	"fmt"
	"unsafe"
)

var errCall = errors.New("h5test: libhdf5 call failed")

// Point is one row of a point table.
type Point struct {
	X, Y     float64
	Visible  bool
	Complete bool
	Score    float64
}

// Class is an HDF5 datatype class as reported for a dataset or attribute.
type Class string

const (
	Missing  Class = ""
	Integer  Class = "integer"
	Float    Class = "float"
	String   Class = "string"
	Vlen     Class = "vlen"
	Compound Class = "compound"
	Other    Class = "other"
)

func classOf(c C.int) Class {
	switch {
	case c < 0:
		return Missing
	case c == C.H5T_INTEGER:
		return Integer
	case c == C.H5T_FLOAT:
		return Float
	case c == C.H5T_STRING:
		return String
	case c == C.H5T_VLEN:
		return Vlen
	case c == C.H5T_COMPOUND:
		return Compound
	default:
		return Other
	}
}

// Writer creates a file. The first failed call is kept and returned by
// Close; later calls are no-ops.
type Writer struct {
	file C.hid_t
	err  error
}

// Create truncates or creates the file at path.
func Create(path string) (*Writer, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	f := C.fx_create(cpath)
	if f < 0 {
		return nil, fmt.Errorf("create %s: %w", path, errCall)
	}
	return &Writer{file: f}, nil
}

func (w *Writer) do(what string, fn func() C.int) {
	if w.err != nil {
		return
	}
	if fn() < 0 {
		w.err = fmt.Errorf("%s: %w", what, errCall)
	}
}

// Points writes a point table with x, y, visible, complete and score fields.
func (w *Writer) Points(table string, pts []Point) {
	rows := make([]C.fx_point, max(len(pts), 1))
	for i, p := range pts {
		rows[i] = C.fx_point{
			x:        C.double(p.X),
			y:        C.double(p.Y),
			visible:  cbool(p.Visible),
			complete: cbool(p.Complete),
			score:    C.double(p.Score),
		}
	}
	w.do("points "+table, func() C.int {
		return withCString(table, func(p *C.char) C.int {
			return C.fx_write_points(w.file, p, &rows[0], C.hsize_t(len(pts)))
		})
	})
}

// LabeledFrames writes a frames table whose rows reference videos.
func (w *Writer) LabeledFrames(table string, videos []int64) {
	rows := make([]C.fx_frame, max(len(videos), 1))
	for i, v := range videos {
		rows[i] = C.fx_frame{frame_id: C.longlong(i), video: C.longlong(v), frame_idx: C.longlong(i)}
	}
	w.do("frames "+table, func() C.int {
		return withCString(table, func(p *C.char) C.int {
			return C.fx_write_frames_table(w.file, p, &rows[0], C.hsize_t(len(videos)))
		})
	})
}

// Group creates an empty group.
func (w *Writer) Group(path string) {
	w.do("group "+path, func() C.int {
		return withCString(path, func(p *C.char) C.int { return C.fx_group(w.file, p) })
	})
}

// FixedFrames writes frames as a two-dimensional int8 dataset, one row per
// frame. Every frame must have the same length.
func (w *Writer) FixedFrames(path string, frames [][]byte) {
	cols := 0
	if len(frames) > 0 {
		cols = len(frames[0])
	}
	buf := make([]byte, max(len(frames)*cols, 1))
	for i, f := range frames {
		if len(f) != cols {
			w.fail(fmt.Errorf("fixed frames %s: row %d has %d bytes, want %d", path, i, len(f), cols))
			return
		}
		copy(buf[i*cols:], f)
	}
	w.do("fixed frames "+path, func() C.int {
		return withCString(path, func(p *C.char) C.int {
			return C.fx_write_i8(w.file, p, (*C.schar)(unsafe.Pointer(&buf[0])), C.hsize_t(len(frames)), C.hsize_t(cols))
		})
	})
}

// VlenFrames writes frames as a one-dimensional variable-length uint8
// dataset.
func (w *Writer) VlenFrames(path string, frames [][]byte) {
	var data []byte
	lens := make([]C.ulonglong, max(len(frames), 1))
	for i, f := range frames {
		data = append(data, f...)
		lens[i] = C.ulonglong(len(f))
	}
	cdata := C.CBytes(append(data, 0))
	defer C.free(cdata)
	w.do("vlen frames "+path, func() C.int {
		return withCString(path, func(p *C.char) C.int {
			return C.fx_write_vlen_u8(w.file, p, (*C.uchar)(cdata), &lens[0], C.hsize_t(len(frames)))
		})
	})
}

// Int64s writes a one-dimensional int64 dataset.
func (w *Writer) Int64s(path string, v []int64) {
	buf := make([]C.longlong, max(len(v), 1))
	for i, x := range v {
		buf[i] = C.longlong(x)
	}
	w.do("int64s "+path, func() C.int {
		return withCString(path, func(p *C.char) C.int {
			return C.fx_write_i64(w.file, p, &buf[0], C.hsize_t(len(v)))
		})
	})
}

// VStrings writes variable-length UTF-8 strings.
func (w *Writer) VStrings(path string, v []string) {
	ptrs := (**C.char)(C.calloc(C.size_t(max(len(v), 1)), C.size_t(unsafe.Sizeof((*C.char)(nil)))))
	defer C.free(unsafe.Pointer(ptrs))
	slots := unsafe.Slice(ptrs, max(len(v), 1))
	for i, s := range v {
		slots[i] = C.CString(s)
	}
	defer func() {
		for i := range v {
			C.free(unsafe.Pointer(slots[i]))
		}
	}()
	w.do("vstrings "+path, func() C.int {
		return withCString(path, func(p *C.char) C.int {
			return C.fx_write_vstrings(w.file, p, ptrs, C.hsize_t(len(v)))
		})
	})
}

// FStrings writes NUL padded strings of size bytes each.
func (w *Writer) FStrings(path string, v []string, size int) {
	buf := make([]byte, max(len(v)*size, 1))
	for i, s := range v {
		if len(s) > size {
			w.fail(fmt.Errorf("fstrings %s: record %d longer than %d bytes", path, i, size))
			return
		}
		copy(buf[i*size:], s)
	}
	w.do("fstrings "+path, func() C.int {
		return withCString(path, func(p *C.char) C.int {
			return C.fx_write_fstrings(w.file, p, (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(size), C.hsize_t(len(v)))
		})
	})
}

// AttrInt attaches a scalar int64 attribute to obj.
func (w *Writer) AttrInt(obj, name string, v int64) {
	w.attr(obj, name, func(o, n *C.char) C.int { return C.fx_attr_i64(w.file, o, n, C.longlong(v)) })
}

// AttrFloat attaches a scalar float64 attribute to obj.
func (w *Writer) AttrFloat(obj, name string, v float64) {
	w.attr(obj, name, func(o, n *C.char) C.int { return C.fx_attr_f64(w.file, o, n, C.double(v)) })
}

// AttrString attaches a variable-length string attribute to obj.
func (w *Writer) AttrString(obj, name, v string) {
	w.attr(obj, name, func(o, n *C.char) C.int {
		return withCString(v, func(s *C.char) C.int { return C.fx_attr_vstr(w.file, o, n, s) })
	})
}

// AttrFixedString attaches a fixed-length string attribute sized to v.
func (w *Writer) AttrFixedString(obj, name, v string) {
	w.attr(obj, name, func(o, n *C.char) C.int {
		return withCString(v, func(s *C.char) C.int {
			return C.fx_attr_fstr(w.file, o, n, s, C.size_t(max(len(v), 1)))
		})
	})
}

// AttrMatrix attaches a two-dimensional int32 attribute to obj.
func (w *Writer) AttrMatrix(obj, name string, rows [][]int32) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		w.fail(fmt.Errorf("matrix %s@%s: empty", obj, name))
		return
	}
	cols := len(rows[0])
	buf := make([]C.int, 0, len(rows)*cols)
	for _, r := range rows {
		for _, v := range r {
			buf = append(buf, C.int(v))
		}
	}
	w.attr(obj, name, func(o, n *C.char) C.int {
		return C.fx_attr_i32_2d(w.file, o, n, &buf[0], C.hsize_t(len(rows)), C.hsize_t(cols))
	})
}

func (w *Writer) attr(obj, name string, fn func(o, n *C.char) C.int) {
	w.do("attribute "+obj+"@"+name, func() C.int {
		return withCString(obj, func(o *C.char) C.int {
			return withCString(name, func(n *C.char) C.int { return fn(o, n) })
		})
	})
}

func (w *Writer) fail(err error) {
	if w.err == nil {
		w.err = err
	}
}

// Close flushes the file and returns the first error seen.
func (w *Writer) Close() error {
	if w.file < 0 {
		return w.err
	}
	rc := C.fx_close(w.file)
	w.file = -1
	if w.err != nil {
		return w.err
	}
	if rc < 0 {
		return fmt.Errorf("close: %w", errCall)
	}
	return nil
}

// Reader inspects a file read-only.
type Reader struct {
	file C.hid_t
}

// Open opens the file at path read-only.
func Open(path string) (*Reader, error) {
	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))
	f := C.fx_open(cpath)
	if f < 0 {
		return nil, fmt.Errorf("open %s: %w", path, errCall)
	}
	return &Reader{file: f}, nil
}

// Points reads n rows of a point table, every field included.
func (r *Reader) Points(table string, n int) ([]Point, error) {
	rows := make([]C.fx_point, max(n, 1))
	rc := withCString(table, func(p *C.char) C.int { return C.fx_read_points(r.file, p, &rows[0]) })
	if rc < 0 {
		return nil, fmt.Errorf("read %s: %w", table, errCall)
	}
	out := make([]Point, n)
	for i := range out {
		row := rows[i]
		out[i] = Point{
			X:        float64(row.x),
			Y:        float64(row.y),
			Visible:  row.visible != 0,
			Complete: row.complete != 0,
			Score:    float64(row.score),
		}
	}
	return out, nil
}

// Exists reports whether path names an object.
func (r *Reader) Exists(path string) bool {
	return withCString(path, func(p *C.char) C.int { return C.fx_exists(r.file, p) }) == 1
}

// DatasetClass returns the type class of a dataset, or Missing.
func (r *Reader) DatasetClass(path string) Class {
	return classOf(withCString(path, func(p *C.char) C.int { return C.fx_dataset_class(r.file, p) }))
}

// AttrClass returns the type class and rank of an attribute, or Missing.
func (r *Reader) AttrClass(obj, name string) (Class, int) {
	var rank C.int
	cls := withCString(obj, func(o *C.char) C.int {
		return withCString(name, func(n *C.char) C.int { return C.fx_attr_class(r.file, o, n, &rank) })
	})
	return classOf(cls), int(rank)
}

// AttrMatrix reads a two-dimensional integer attribute.
func (r *Reader) AttrMatrix(obj, name string) ([][]int32, error) {
	var dims [2]C.hsize_t
	read := func(buf *C.int) C.int {
		return withCString(obj, func(o *C.char) C.int {
			return withCString(name, func(n *C.char) C.int {
				return C.fx_read_attr_i32_2d(r.file, o, n, buf, &dims[0])
			})
		})
	}
	if read(nil) < 0 {
		return nil, fmt.Errorf("matrix %s@%s: %w", obj, name, errCall)
	}
	rows, cols := int(dims[0]), int(dims[1])
	buf := make([]C.int, max(rows*cols, 1))
	if read(&buf[0]) < 0 {
		return nil, fmt.Errorf("matrix %s@%s: %w", obj, name, errCall)
	}
	out := make([][]int32, rows)
	for i := range out {
		out[i] = make([]int32, cols)
		for j := range out[i] {
			out[i][j] = int32(buf[i*cols+j])
		}
	}
	return out, nil
}

// Close releases the file.
func (r *Reader) Close() error {
	if r.file < 0 {
		return nil
	}
	rc := C.fx_close(r.file)
	r.file = -1
	if rc < 0 {
		return fmt.Errorf("close: %w", errCall)
	}
	return nil
}

func withCString(s string, fn func(*C.char) C.int) C.int {
	cs := C.CString(s)
	defer C.free(unsafe.Pointer(cs))
	return fn(cs)
}

func cbool(b bool) C.uchar {
	if b {
		return 1
	}
	return 0
}
