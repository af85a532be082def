//go:build cgo

package hdf5

/*
#cgo pkg-config: hdf5

#include <stdlib.h>
#include <string.h>
#include <hdf5.h>

#define SLP_MAX_RANK 32

enum { SLP_MISSING = 0, SLP_GROUP = 1, SLP_DATASET = 2 };
enum { SLP_FRAMES_NONE = 0, SLP_FRAMES_VLEN = 1, SLP_FRAMES_FIXED = 2 };
enum { SLP_ATTR_SKIP = 0, SLP_ATTR_INT, SLP_ATTR_FLOAT, SLP_ATTR_VSTR, SLP_ATTR_FSTR, SLP_ATTR_RAW };

static void slp_init(void) {
	H5open();
	H5Eset_auto2(H5E_DEFAULT, NULL, NULL);
}

static hid_t slp_fopen(const char *path, int rw) {
	return H5Fopen(path, rw ? H5F_ACC_RDWR : H5F_ACC_RDONLY, H5P_DEFAULT);
}

static int slp_fclose(hid_t file, int rw) {
	if (rw) H5Fflush(file, H5F_SCOPE_GLOBAL);
	return H5Fclose(file) < 0 ? -1 : 0;
}

static hid_t slp_dopen(hid_t loc, const char *path) { return H5Dopen2(loc, path, H5P_DEFAULT); }
static hid_t slp_oopen(hid_t loc, const char *path) { return H5Oopen(loc, path, H5P_DEFAULT); }
static void slp_free(void *p) { H5free_memory(p); }

// Checks every component of a relative path so intermediate groups that do
// not exist are not reported as errors by H5Lexists.
static int slp_exists(hid_t loc, const char *path) {
	char buf[1024];
	size_t len = strlen(path);
	if (len == 0 || len >= sizeof buf) return 0;
	memcpy(buf, path, len + 1);
	for (size_t i = 1; i <= len; i++) {
		if (buf[i] != '/' && buf[i] != '\0') continue;
		char c = buf[i];
		buf[i] = '\0';
		if (H5Lexists(loc, buf, H5P_DEFAULT) <= 0) return 0;
		buf[i] = c;
	}
	return 1;
}

static int slp_kind(hid_t loc, const char *path) {
	if (!slp_exists(loc, path)) return SLP_MISSING;
	hid_t obj = H5Oopen(loc, path, H5P_DEFAULT);
	if (obj < 0) return SLP_MISSING;
	H5I_type_t t = H5Iget_type(obj);
	H5Oclose(obj);
	if (t == H5I_GROUP) return SLP_GROUP;
	if (t == H5I_DATASET) return SLP_DATASET;
	return SLP_MISSING;
}

static long long slp_nlinks(hid_t loc, const char *group) {
	H5G_info_t info;
	if (H5Gget_info_by_name(loc, group, &info, H5P_DEFAULT) < 0) return -1;
	return (long long)info.nlinks;
}

static ssize_t slp_link_name(hid_t loc, const char *group, hsize_t idx, char *buf, size_t size) {
	return H5Lget_name_by_idx(loc, group, H5_INDEX_NAME, H5_ITER_INC, idx, buf, size, H5P_DEFAULT);
}

static int slp_extent(hid_t ds, hsize_t *dims) {
	hid_t sp = H5Dget_space(ds);
	if (sp < 0) return -1;
	int rank = H5Sget_simple_extent_ndims(sp);
	if (rank > SLP_MAX_RANK) rank = -1;
	if (rank > 0) H5Sget_simple_extent_dims(sp, dims, NULL);
	H5Sclose(sp);
	return rank;
}

// Reads or writes the x and y members of a compound dataset. The remaining
// members are left as stored. Returns -2 when x or y is absent.
static int slp_xy(hid_t ds, double *xy, int write) {
	hid_t ft = H5Dget_type(ds);
	if (ft < 0) return -1;
	int ok = H5Tget_class(ft) == H5T_COMPOUND &&
		H5Tget_member_index(ft, "x") >= 0 && H5Tget_member_index(ft, "y") >= 0;
	H5Tclose(ft);
	if (!ok) return -2;
	hid_t mt = H5Tcreate(H5T_COMPOUND, 2 * sizeof(double));
	H5Tinsert(mt, "x", 0, H5T_NATIVE_DOUBLE);
	H5Tinsert(mt, "y", sizeof(double), H5T_NATIVE_DOUBLE);
	herr_t st = write
		? H5Dwrite(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, xy)
		: H5Dread(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, xy);
	H5Tclose(mt);
	return st < 0 ? -1 : 0;
}

static int slp_read_member_i64(hid_t ds, const char *member, long long *out) {
	hid_t ft = H5Dget_type(ds);
	if (ft < 0) return -1;
	int ok = H5Tget_class(ft) == H5T_COMPOUND && H5Tget_member_index(ft, member) >= 0;
	H5Tclose(ft);
	if (!ok) return -2;
	hid_t mt = H5Tcreate(H5T_COMPOUND, sizeof(long long));
	H5Tinsert(mt, member, 0, H5T_NATIVE_LLONG);
	herr_t st = H5Dread(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, out);
	H5Tclose(mt);
	return st < 0 ? -1 : 0;
}

static int slp_read_i64(hid_t ds, long long *out) {
	return H5Dread(ds, H5T_NATIVE_LLONG, H5S_ALL, H5S_ALL, H5P_DEFAULT, out) < 0 ? -1 : 0;
}

static int slp_frame_layout(hid_t ds) {
	hid_t ft = H5Dget_type(ds);
	if (ft < 0) return SLP_FRAMES_NONE;
	int layout = SLP_FRAMES_NONE;
	H5T_class_t cls = H5Tget_class(ft);
	if (cls == H5T_VLEN) {
		hid_t super = H5Tget_super(ft);
		if (super >= 0) {
			if (H5Tget_class(super) == H5T_INTEGER && H5Tget_size(super) == 1) layout = SLP_FRAMES_VLEN;
			H5Tclose(super);
		}
	} else if (cls == H5T_INTEGER && H5Tget_size(ft) == 1) {
		layout = SLP_FRAMES_FIXED;
	}
	H5Tclose(ft);
	return layout;
}

// Memory type for byte sequences with the same signedness as the file type,
// so libhdf5 copies bytes instead of converting values.
static hid_t slp_vlen_memtype(hid_t ft) {
	hid_t super = H5Tget_super(ft);
	if (super < 0) return -1;
	hid_t native = H5Tget_native_type(super, H5T_DIR_ASCEND);
	H5Tclose(super);
	if (native < 0) return -1;
	hid_t mt = H5Tvlen_create(native);
	H5Tclose(native);
	return mt;
}

static int slp_read_vlen(hid_t ds, hvl_t *buf) {
	hid_t ft = H5Dget_type(ds);
	if (ft < 0) return -1;
	hid_t mt = slp_vlen_memtype(ft);
	H5Tclose(ft);
	if (mt < 0) return -1;
	herr_t st = H5Dread(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, buf);
	H5Tclose(mt);
	return st < 0 ? -1 : 0;
}

static void slp_reclaim_vlen(hid_t ds, hvl_t *buf) {
	hid_t ft = H5Dget_type(ds);
	hid_t mt = slp_vlen_memtype(ft);
	hid_t sp = H5Dget_space(ds);
#if H5_VERSION_GE(1, 12, 0)
	H5Treclaim(mt, sp, H5P_DEFAULT, buf);
#else
	H5Dvlen_reclaim(mt, sp, H5P_DEFAULT, buf);
#endif
	H5Sclose(sp);
	H5Tclose(mt);
	H5Tclose(ft);
}

static int slp_read_native(hid_t ds, void *buf) {
	hid_t ft = H5Dget_type(ds);
	if (ft < 0) return -1;
	hid_t mt = H5Tget_native_type(ft, H5T_DIR_ASCEND);
	H5Tclose(ft);
	if (mt < 0) return -1;
	herr_t st = H5Dread(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, buf);
	H5Tclose(mt);
	return st < 0 ? -1 : 0;
}

// Creates path as a one-dimensional variable-length byte dataset holding n
// frames laid out back to back in data. The element type follows like when
// it already stores byte sequences.
static int slp_write_frames(hid_t file, const char *path, hid_t like,
		unsigned char *data, const unsigned long long *lens, hsize_t n) {
	hid_t ft = (like >= 0 && slp_frame_layout(like) == SLP_FRAMES_VLEN)
		? H5Dget_type(like)
		: H5Tvlen_create(H5T_STD_U8LE);
	if (ft < 0) return -1;
	hid_t mt = slp_vlen_memtype(ft);
	hsize_t dims[1] = {n};
	hid_t sp = H5Screate_simple(1, dims, NULL);
	hid_t ds = (mt >= 0 && sp >= 0)
		? H5Dcreate2(file, path, ft, sp, H5P_DEFAULT, H5P_DEFAULT, H5P_DEFAULT)
		: -1;
	int rc = -1;
	if (ds >= 0) {
		rc = 0;
		if (n > 0) {
			hvl_t *buf = malloc(n * sizeof(hvl_t));
			if (buf == NULL) {
				rc = -1;
			} else {
				size_t off = 0;
				for (hsize_t i = 0; i < n; i++) {
					buf[i].len = (size_t)lens[i];
					buf[i].p = data + off;
					off += (size_t)lens[i];
				}
				if (H5Dwrite(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, buf) < 0) rc = -1;
				free(buf);
			}
		}
		H5Dclose(ds);
	}
	if (sp >= 0) H5Sclose(sp);
	if (mt >= 0) H5Tclose(mt);
	H5Tclose(ft);
	return rc;
}

// 1 variable-length strings, 2 fixed-length strings of *size bytes, 0 other.
static int slp_str_kind(hid_t ft, size_t *size) {
	if (H5Tget_class(ft) != H5T_STRING) return 0;
	if (H5Tis_variable_str(ft) > 0) return 1;
	*size = H5Tget_size(ft);
	return 2;
}

static int slp_dataset_str_kind(hid_t ds, size_t *size) {
	hid_t ft = H5Dget_type(ds);
	if (ft < 0) return 0;
	int kind = slp_str_kind(ft, size);
	H5Tclose(ft);
	return kind;
}

static hid_t slp_vstr_type(void) {
	hid_t t = H5Tcopy(H5T_C_S1);
	H5Tset_size(t, H5T_VARIABLE);
	H5Tset_cset(t, H5T_CSET_UTF8);
	return t;
}

static hid_t slp_fstr_type(size_t size) {
	hid_t t = H5Tcopy(H5T_C_S1);
	H5Tset_size(t, size);
	H5Tset_strpad(t, H5T_STR_NULLPAD);
	return t;
}

static int slp_read_vstrings(hid_t ds, char **out) {
	hid_t mt = slp_vstr_type();
	herr_t st = H5Dread(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, out);
	H5Tclose(mt);
	return st < 0 ? -1 : 0;
}

static int slp_read_fstrings(hid_t ds, char *out, size_t size) {
	hid_t mt = slp_fstr_type(size);
	herr_t st = H5Dread(ds, mt, H5S_ALL, H5S_ALL, H5P_DEFAULT, out);
	H5Tclose(mt);
	return st < 0 ? -1 : 0;
}

// Creates path as a chunked, extendable dataset of n fixed-length strings.
static int slp_write_fstrings(hid_t file, const char *path, const char *data, size_t size, hsize_t n) {
	hid_t t = slp_fstr_type(size);
	hsize_t dims[1] = {n};
	hsize_t maxdims[1] = {H5S_UNLIMITED};
	hsize_t chunk[1] = {n > 0 ? n : 1};
	hid_t sp = H5Screate_simple(1, dims, maxdims);
	hid_t dcpl = H5Pcreate(H5P_DATASET_CREATE);
	H5Pset_chunk(dcpl, 1, chunk);
	hid_t ds = H5Dcreate2(file, path, t, sp, H5P_DEFAULT, dcpl, H5P_DEFAULT);
	int rc = -1;
	if (ds >= 0) {
		rc = (n == 0 || H5Dwrite(ds, t, H5S_ALL, H5S_ALL, H5P_DEFAULT, data) >= 0) ? 0 : -1;
		H5Dclose(ds);
	}
	H5Pclose(dcpl);
	H5Sclose(sp);
	H5Tclose(t);
	return rc;
}

static void slp_unlink(hid_t file, const char *path) {
	if (slp_exists(file, path)) H5Ldelete(file, path, H5P_DEFAULT);
}

static int slp_replace(hid_t file, const char *tmp, const char *path) {
	if (slp_exists(file, path) && H5Ldelete(file, path, H5P_DEFAULT) < 0) return -1;
	return H5Lmove(file, tmp, file, path, H5P_DEFAULT, H5P_DEFAULT) < 0 ? -1 : 0;
}

static hid_t slp_attr_open(hid_t obj, hsize_t idx) {
	return H5Aopen_by_idx(obj, ".", H5_INDEX_NAME, H5_ITER_INC, idx, H5P_DEFAULT, H5P_DEFAULT);
}

static int slp_attr_shape(hid_t a, hsize_t *dims, hssize_t *npoints) {
	hid_t sp = H5Aget_space(a);
	if (sp < 0) return -1;
	int rank = H5Sget_simple_extent_ndims(sp);
	if (rank > SLP_MAX_RANK) rank = -1;
	if (rank > 0) H5Sget_simple_extent_dims(sp, dims, NULL);
	*npoints = H5Sget_simple_extent_npoints(sp);
	H5Sclose(sp);
	return rank;
}

static int slp_attr_kind(hid_t a, int rank, hssize_t npoints, size_t *size) {
	hid_t ft = H5Aget_type(a);
	if (ft < 0) return SLP_ATTR_SKIP;
	int kind = SLP_ATTR_SKIP;
	H5T_class_t cls = H5Tget_class(ft);
	if (cls == H5T_INTEGER && rank <= 1) {
		kind = SLP_ATTR_INT;
	} else if (cls == H5T_FLOAT && rank <= 1) {
		kind = SLP_ATTR_FLOAT;
	} else if (cls == H5T_STRING) {
		if (H5Tis_variable_str(ft) > 0) {
			kind = npoints == 1 ? SLP_ATTR_VSTR : SLP_ATTR_SKIP;
		} else {
			*size = H5Tget_size(ft);
			kind = npoints == 1 ? SLP_ATTR_FSTR : SLP_ATTR_RAW;
		}
	} else if (cls != H5T_REFERENCE && cls != H5T_VLEN &&
			H5Tdetect_class(ft, H5T_VLEN) <= 0 && H5Tdetect_class(ft, H5T_STRING) <= 0) {
		kind = SLP_ATTR_RAW;
	}
	if (kind == SLP_ATTR_RAW) *size = H5Tget_size(ft);
	H5Tclose(ft);
	return kind;
}

static int slp_attr_read_i64(hid_t a, long long *out) {
	return H5Aread(a, H5T_NATIVE_LLONG, out) < 0 ? -1 : 0;
}

static int slp_attr_read_f64(hid_t a, double *out) {
	return H5Aread(a, H5T_NATIVE_DOUBLE, out) < 0 ? -1 : 0;
}

static int slp_attr_read_vstr(hid_t a, char **out) {
	hid_t mt = slp_vstr_type();
	herr_t st = H5Aread(a, mt, out);
	H5Tclose(mt);
	return st < 0 ? -1 : 0;
}

static int slp_attr_read_fstr(hid_t a, char *out, size_t size) {
	hid_t mt = slp_fstr_type(size);
	herr_t st = H5Aread(a, mt, out);
	H5Tclose(mt);
	return st < 0 ? -1 : 0;
}

// Serialises the attribute's datatype into enc (when non-NULL) and returns
// its encoded size; with data non-NULL the raw values are read as stored.
static long long slp_attr_read_raw(hid_t a, void *enc, size_t enc_size, void *data) {
	hid_t ft = H5Aget_type(a);
	if (ft < 0) return -1;
	size_t n = enc_size;
	long long rc = H5Tencode(ft, enc, &n) < 0 ? -1 : (long long)n;
	if (rc >= 0 && data != NULL && H5Aread(a, ft, data) < 0) rc = -1;
	H5Tclose(ft);
	return rc;
}

static int slp_attr_write(hid_t obj, const char *name, hid_t ft, hid_t mt,
		int rank, const hsize_t *dims, const void *buf) {
	hid_t sp = rank == 0 ? H5Screate(H5S_SCALAR) : H5Screate_simple(rank, dims, NULL);
	if (sp < 0) return -1;
	if (H5Aexists(obj, name) > 0) H5Adelete(obj, name);
	hid_t a = H5Acreate2(obj, name, ft, sp, H5P_DEFAULT, H5P_DEFAULT);
	int rc = -1;
	if (a >= 0) {
		rc = H5Awrite(a, mt, buf) < 0 ? -1 : 0;
		H5Aclose(a);
	}
	H5Sclose(sp);
	return rc;
}

static int slp_attr_write_i64(hid_t obj, const char *name, int rank, hsize_t n, const long long *v) {
	hsize_t dims[1] = {n};
	return slp_attr_write(obj, name, H5T_STD_I64LE, H5T_NATIVE_LLONG, rank, dims, v);
}

static int slp_attr_write_f64(hid_t obj, const char *name, int rank, hsize_t n, const double *v) {
	hsize_t dims[1] = {n};
	return slp_attr_write(obj, name, H5T_IEEE_F64LE, H5T_NATIVE_DOUBLE, rank, dims, v);
}

static int slp_attr_write_str(hid_t obj, const char *name, const char *s) {
	hid_t t = slp_vstr_type();
	int rc = slp_attr_write(obj, name, t, t, 0, NULL, &s);
	H5Tclose(t);
	return rc;
}

static int slp_attr_write_raw(hid_t obj, const char *name, const void *enc,
		int rank, const hsize_t *dims, const void *data) {
	hid_t t = H5Tdecode(enc);
	if (t < 0) return -1;
	int rc = slp_attr_write(obj, name, t, t, rank, dims, data);
	H5Tclose(t);
	return rc;
}
*/
import "C"

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"unsafe"

	"github.com/bft-labs/slprescale/internal/domain"
	"github.com/bft-labs/slprescale/internal/ports"
	"github.com/bft-labs/slprescale/pkg/log"
)

// maxRank matches SLP_MAX_RANK.
const maxRank = 32

var (
	// libhdf5 is not thread-safe unless built with --enable-threadsafe.
	h5mu   sync.Mutex
	h5once sync.Once
)

type document struct {
	path   string
	file   C.hid_t
	mode   ports.OpenMode
	keys   []string
	logger ports.Logger
}

func openDocument(path string, mode ports.OpenMode, logger ports.Logger) (ports.Document, error) {
	h5once.Do(func() { C.slp_init() })

	h5mu.Lock()
	defer h5mu.Unlock()

	cpath := C.CString(path)
	defer C.free(unsafe.Pointer(cpath))

	file := C.slp_fopen(cpath, boolInt(mode == ports.ReadWrite))
	if file < 0 {
		return nil, fmt.Errorf("open hdf5 %s: %w", path, errCall)
	}
	d := &document{path: path, file: file, mode: mode, logger: logger}

	keys, err := d.children(".")
	if err != nil {
		C.slp_fclose(file, 0)
		return nil, err
	}
	d.keys = keys
	return d, nil
}

func (d *document) Keys() []string {
	return append([]string(nil), d.keys...)
}

func (d *document) ReadPoints(ctx context.Context, table string) ([]domain.Point, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h5mu.Lock()
	defer h5mu.Unlock()

	ds, n, err := d.openTable(table)
	if err != nil {
		return nil, err
	}
	defer C.H5Dclose(ds)

	xy := make([]float64, 2*n)
	if n > 0 {
		switch C.slp_xy(ds, (*C.double)(unsafe.Pointer(&xy[0])), 0) {
		case 0:
		case -2:
			return nil, fmt.Errorf("%s has no x/y fields: %w", table, domain.ErrMissingStructure)
		default:
			return nil, fmt.Errorf("read %s: %w", table, errCall)
		}
	}

	points := make([]domain.Point, n)
	for i := range points {
		points[i] = domain.Point{X: xy[2*i], Y: xy[2*i+1]}
	}
	return points, nil
}

func (d *document) WritePoints(ctx context.Context, table string, points []domain.Point) error {
	if err := d.writable(ctx); err != nil {
		return err
	}
	h5mu.Lock()
	defer h5mu.Unlock()

	ds, n, err := d.openTable(table)
	if err != nil {
		return err
	}
	defer C.H5Dclose(ds)

	if n != len(points) {
		return fmt.Errorf("write %s: %d points for %d rows", table, len(points), n)
	}
	if n == 0 {
		return nil
	}
	xy := make([]float64, 2*n)
	for i, p := range points {
		xy[2*i], xy[2*i+1] = p.X, p.Y
	}
	switch C.slp_xy(ds, (*C.double)(unsafe.Pointer(&xy[0])), 1) {
	case 0:
		return nil
	case -2:
		return fmt.Errorf("%s has no x/y fields: %w", table, domain.ErrMissingStructure)
	default:
		return fmt.Errorf("write %s: %w", table, errCall)
	}
}

func (d *document) EmbeddedVideos(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var names []string
	for _, k := range d.keys {
		if domain.IsEmbeddedVideoKey(k) {
			names = append(names, k)
		}
	}
	return names, nil
}

func (d *document) ReadEmbeddedVideo(ctx context.Context, name string) (*domain.EmbeddedVideo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h5mu.Lock()
	defer h5mu.Unlock()

	dsPath, grouped, err := d.resolveContainer(name)
	if err != nil {
		return nil, err
	}
	ds, err := d.openDataset(dsPath)
	if err != nil {
		return nil, err
	}
	defer C.H5Dclose(ds)

	frames, err := d.readFrames(ds, dsPath)
	if err != nil {
		return nil, err
	}
	attrs, err := d.readAttrs(ds, dsPath)
	if err != nil {
		return nil, err
	}
	v := &domain.EmbeddedVideo{
		Name:    name,
		Dataset: dsPath,
		Attrs:   attrs,
		Frames:  frames,
	}
	if !grouped {
		return v, nil
	}

	fnPath := name + "/" + frameNumbersName
	if d.kind(fnPath) == C.SLP_DATASET {
		if v.FrameNumbers, err = d.readInt64s(fnPath); err != nil {
			return nil, err
		}
	}
	svPath := name + "/" + sourceVideoName
	if d.kind(svPath) != C.SLP_MISSING {
		csv := C.CString(svPath)
		obj := C.slp_oopen(d.file, csv)
		C.free(unsafe.Pointer(csv))
		if obj < 0 {
			return nil, fmt.Errorf("open %s: %w", svPath, errCall)
		}
		v.SourceVideo, err = d.readAttrs(obj, svPath)
		C.H5Oclose(obj)
		if err != nil {
			return nil, err
		}
	}
	return v, nil
}

func (d *document) ReplaceEmbeddedVideo(ctx context.Context, v *domain.EmbeddedVideo) error {
	if err := d.writable(ctx); err != nil {
		return err
	}
	h5mu.Lock()
	defer h5mu.Unlock()

	old, err := d.openDataset(v.Dataset)
	if err != nil {
		return err
	}

	tmp := tempPath(v.Dataset)
	ctmp := C.CString(tmp)
	defer C.free(unsafe.Pointer(ctmp))
	C.slp_unlink(d.file, ctmp)

	data, lens := flatten(v.Frames)
	cdata := C.malloc(C.size_t(len(data) + 1))
	defer C.free(cdata)
	if len(data) > 0 {
		C.memcpy(cdata, unsafe.Pointer(&data[0]), C.size_t(len(data)))
	}
	var clens *C.ulonglong
	if len(lens) > 0 {
		clens = (*C.ulonglong)(unsafe.Pointer(&lens[0]))
	}

	rc := C.slp_write_frames(d.file, ctmp, old, (*C.uchar)(cdata), clens, C.hsize_t(len(v.Frames)))
	C.H5Dclose(old)
	if rc < 0 {
		C.slp_unlink(d.file, ctmp)
		return fmt.Errorf("write %s: %w", tmp, errCall)
	}

	fresh := C.slp_dopen(d.file, ctmp)
	if fresh < 0 {
		C.slp_unlink(d.file, ctmp)
		return fmt.Errorf("open %s: %w", tmp, errCall)
	}
	err = d.writeAttrs(fresh, v.Attrs)
	C.H5Dclose(fresh)
	if err != nil {
		C.slp_unlink(d.file, ctmp)
		return fmt.Errorf("restore attributes of %s: %w", v.Dataset, err)
	}

	cpath := C.CString(v.Dataset)
	defer C.free(unsafe.Pointer(cpath))
	if C.slp_replace(d.file, ctmp, cpath) < 0 {
		return fmt.Errorf("replace %s: %w", v.Dataset, errCall)
	}
	d.logger.Debug("replaced frame dataset",
		log.String("dataset", v.Dataset),
		log.Int("frames", len(v.Frames)),
		log.Int("bytes", len(data)),
	)
	return nil
}

func (d *document) ReadVideoRecords(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h5mu.Lock()
	defer h5mu.Unlock()

	ds, n, err := d.openTable(domain.VideoRecordsKey)
	if err != nil {
		return nil, err
	}
	defer C.H5Dclose(ds)
	if n == 0 {
		return []string{}, nil
	}

	var size C.size_t
	switch C.slp_dataset_str_kind(ds, &size) {
	case 1:
		ptrs := (**C.char)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof((*C.char)(nil)))))
		defer C.free(unsafe.Pointer(ptrs))
		if C.slp_read_vstrings(ds, ptrs) < 0 {
			return nil, fmt.Errorf("read %s: %w", domain.VideoRecordsKey, errCall)
		}
		out := make([]string, n)
		for i, p := range unsafe.Slice(ptrs, n) {
			if p != nil {
				out[i] = C.GoString(p)
				C.slp_free(unsafe.Pointer(p))
			}
		}
		return out, nil
	case 2:
		buf := make([]byte, n*int(size))
		if C.slp_read_fstrings(ds, (*C.char)(unsafe.Pointer(&buf[0])), size) < 0 {
			return nil, fmt.Errorf("read %s: %w", domain.VideoRecordsKey, errCall)
		}
		return splitFixed(buf, int(size), n)
	default:
		return nil, fmt.Errorf("%s is not a string dataset: %w", domain.VideoRecordsKey, domain.ErrMissingStructure)
	}
}

func (d *document) WriteVideoRecords(ctx context.Context, records []string) error {
	if err := d.writable(ctx); err != nil {
		return err
	}
	h5mu.Lock()
	defer h5mu.Unlock()

	buf, size := packFixed(records)
	tmp := tempPath(domain.VideoRecordsKey)
	ctmp := C.CString(tmp)
	defer C.free(unsafe.Pointer(ctmp))
	C.slp_unlink(d.file, ctmp)

	var data *C.char
	if len(buf) > 0 {
		data = (*C.char)(unsafe.Pointer(&buf[0]))
	}
	if C.slp_write_fstrings(d.file, ctmp, data, C.size_t(size), C.hsize_t(len(records))) < 0 {
		C.slp_unlink(d.file, ctmp)
		return fmt.Errorf("write %s: %w", tmp, errCall)
	}

	cpath := C.CString(domain.VideoRecordsKey)
	defer C.free(unsafe.Pointer(cpath))
	if C.slp_replace(d.file, ctmp, cpath) < 0 {
		return fmt.Errorf("replace %s: %w", domain.VideoRecordsKey, errCall)
	}
	return nil
}

func (d *document) ReadFrameVideoRefs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	h5mu.Lock()
	defer h5mu.Unlock()

	ds, n, err := d.openTable(domain.LabeledFramesKey)
	if err != nil {
		return nil, err
	}
	defer C.H5Dclose(ds)

	refs := make([]int64, n)
	if n == 0 {
		return refs, nil
	}
	cmember := C.CString("video")
	defer C.free(unsafe.Pointer(cmember))
	switch C.slp_read_member_i64(ds, cmember, (*C.longlong)(unsafe.Pointer(&refs[0]))) {
	case 0:
		return refs, nil
	case -2:
		return nil, fmt.Errorf("%s has no video field: %w", domain.LabeledFramesKey, domain.ErrMissingStructure)
	default:
		return nil, fmt.Errorf("read %s: %w", domain.LabeledFramesKey, errCall)
	}
}

func (d *document) Close() error {
	h5mu.Lock()
	defer h5mu.Unlock()

	if d.file < 0 {
		return nil
	}
	rc := C.slp_fclose(d.file, boolInt(d.mode == ports.ReadWrite))
	d.file = -1
	if rc < 0 {
		return fmt.Errorf("close %s: %w", d.path, errCall)
	}
	return nil
}

func (d *document) writable(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d.mode != ports.ReadWrite {
		return ErrReadOnly
	}
	return nil
}

func (d *document) kind(p string) C.int {
	cp := C.CString(p)
	defer C.free(unsafe.Pointer(cp))
	return C.slp_kind(d.file, cp)
}

func (d *document) children(group string) ([]string, error) {
	cg := C.CString(group)
	defer C.free(unsafe.Pointer(cg))

	n := C.slp_nlinks(d.file, cg)
	if n < 0 {
		return nil, fmt.Errorf("list %s: %w", group, errCall)
	}
	names := make([]string, 0, int(n))
	for i := 0; i < int(n); i++ {
		size := C.slp_link_name(d.file, cg, C.hsize_t(i), nil, 0)
		if size < 0 {
			return nil, fmt.Errorf("list %s: %w", group, errCall)
		}
		buf := make([]byte, int(size)+1)
		C.slp_link_name(d.file, cg, C.hsize_t(i), (*C.char)(unsafe.Pointer(&buf[0])), C.size_t(len(buf)))
		names = append(names, string(buf[:size]))
	}
	return names, nil
}

func (d *document) openDataset(p string) (C.hid_t, error) {
	if d.kind(p) != C.SLP_DATASET {
		return -1, fmt.Errorf("%s: %w", p, domain.ErrMissingStructure)
	}
	cp := C.CString(p)
	defer C.free(unsafe.Pointer(cp))
	ds := C.slp_dopen(d.file, cp)
	if ds < 0 {
		return -1, fmt.Errorf("open %s: %w", p, errCall)
	}
	return ds, nil
}

// openTable opens a one-dimensional dataset and returns its length.
func (d *document) openTable(p string) (C.hid_t, int, error) {
	ds, err := d.openDataset(p)
	if err != nil {
		return -1, 0, err
	}
	var dims [maxRank]C.hsize_t
	rank := C.slp_extent(ds, &dims[0])
	switch {
	case rank == 0:
		C.H5Dclose(ds)
		return -1, 0, fmt.Errorf("%s is scalar: %w", p, domain.ErrMissingStructure)
	case rank != 1:
		C.H5Dclose(ds)
		return -1, 0, fmt.Errorf("%s has rank %d, want 1", p, int(rank))
	}
	return ds, int(dims[0]), nil
}

// resolveContainer finds the frame dataset of an embedded container: either
// the "video" child of a group or the top-level dataset itself.
func (d *document) resolveContainer(name string) (string, bool, error) {
	switch d.kind(name) {
	case C.SLP_GROUP:
		dsPath := name + "/" + frameDatasetName
		if d.kind(dsPath) == C.SLP_DATASET {
			return dsPath, true, nil
		}
		sub, _ := d.children(name)
		return "", false, fmt.Errorf("%s has no frame dataset (children: %s): %w",
			name, strings.Join(sub, ", "), domain.ErrMissingStructure)
	case C.SLP_DATASET:
		return name, false, nil
	default:
		return "", false, fmt.Errorf("%s: %w", name, domain.ErrMissingStructure)
	}
}

func (d *document) readFrames(ds C.hid_t, p string) ([][]byte, error) {
	var dims [maxRank]C.hsize_t
	rank := int(C.slp_extent(ds, &dims[0]))

	switch C.slp_frame_layout(ds) {
	case C.SLP_FRAMES_VLEN:
		if rank != 1 {
			return nil, fmt.Errorf("%s has rank %d, want 1", p, rank)
		}
		n := int(dims[0])
		if n == 0 {
			return [][]byte{}, nil
		}
		buf := (*C.hvl_t)(C.calloc(C.size_t(n), C.size_t(unsafe.Sizeof(C.hvl_t{}))))
		defer C.free(unsafe.Pointer(buf))
		if C.slp_read_vlen(ds, buf) < 0 {
			return nil, fmt.Errorf("read %s: %w", p, errCall)
		}
		defer C.slp_reclaim_vlen(ds, buf)

		frames := make([][]byte, n)
		for i, v := range unsafe.Slice(buf, n) {
			if v.len == 0 || v.p == nil {
				frames[i] = []byte{}
				continue
			}
			frames[i] = C.GoBytes(v.p, C.int(v.len))
		}
		return frames, nil

	case C.SLP_FRAMES_FIXED:
		if rank != 2 {
			return nil, fmt.Errorf("%s has rank %d, want 2", p, rank)
		}
		rows, cols := int(dims[0]), int(dims[1])
		if rows*cols == 0 {
			return make([][]byte, rows), nil
		}
		buf := make([]byte, rows*cols)
		if C.slp_read_native(ds, unsafe.Pointer(&buf[0])) < 0 {
			return nil, fmt.Errorf("read %s: %w", p, errCall)
		}
		return splitRows(buf, rows, cols), nil

	default:
		return nil, fmt.Errorf("%s does not hold byte sequences: %w", p, domain.ErrMissingStructure)
	}
}

func (d *document) readInt64s(p string) ([]int64, error) {
	ds, n, err := d.openTable(p)
	if err != nil {
		return nil, err
	}
	defer C.H5Dclose(ds)

	out := make([]int64, n)
	if n > 0 && C.slp_read_i64(ds, (*C.longlong)(unsafe.Pointer(&out[0]))) < 0 {
		return nil, fmt.Errorf("read %s: %w", p, errCall)
	}
	return out, nil
}

// readAttrs captures every attribute of obj in name order. Attributes that
// hold variable-length data other than a single string are dropped with a
// warning.
func (d *document) readAttrs(obj C.hid_t, owner string) (domain.Attributes, error) {
	var attrs domain.Attributes
	for idx := 0; ; idx++ {
		a := C.slp_attr_open(obj, C.hsize_t(idx))
		if a < 0 {
			break
		}
		attr, ok, err := d.readAttr(a)
		C.H5Aclose(a)
		if err != nil {
			return nil, fmt.Errorf("read attributes of %s: %w", owner, err)
		}
		if !ok {
			d.logger.Warn("attribute type not supported; it will not be carried over",
				log.String("object", owner),
				log.String("attribute", attr.Name),
			)
			continue
		}
		attrs = append(attrs, attr)
	}
	return attrs, nil
}

func (d *document) readAttr(a C.hid_t) (domain.Attr, bool, error) {
	size := C.H5Aget_name(a, 0, nil)
	if size < 0 {
		return domain.Attr{}, false, errCall
	}
	nameBuf := make([]byte, int(size)+1)
	C.H5Aget_name(a, C.size_t(len(nameBuf)), (*C.char)(unsafe.Pointer(&nameBuf[0])))
	attr := domain.Attr{Name: string(nameBuf[:size])}

	var dims [maxRank]C.hsize_t
	var npoints C.hssize_t
	rank := int(C.slp_attr_shape(a, &dims[0], &npoints))
	if rank < 0 || npoints < 0 {
		return attr, false, errCall
	}
	n := int(npoints)

	var elem C.size_t
	switch C.slp_attr_kind(a, C.int(rank), npoints, &elem) {
	case C.SLP_ATTR_INT:
		vals := make([]int64, max(n, 1))
		if C.slp_attr_read_i64(a, (*C.longlong)(unsafe.Pointer(&vals[0]))) < 0 {
			return attr, false, errCall
		}
		if rank == 0 {
			attr.Value = vals[0]
		} else {
			attr.Value = vals[:n]
		}

	case C.SLP_ATTR_FLOAT:
		vals := make([]float64, max(n, 1))
		if C.slp_attr_read_f64(a, (*C.double)(unsafe.Pointer(&vals[0]))) < 0 {
			return attr, false, errCall
		}
		if rank == 0 {
			attr.Value = vals[0]
		} else {
			attr.Value = vals[:n]
		}

	case C.SLP_ATTR_VSTR:
		var p *C.char
		if C.slp_attr_read_vstr(a, &p) < 0 {
			return attr, false, errCall
		}
		if p != nil {
			attr.Value = C.GoString(p)
			C.slp_free(unsafe.Pointer(p))
		} else {
			attr.Value = ""
		}

	case C.SLP_ATTR_FSTR:
		buf := make([]byte, int(elem))
		if C.slp_attr_read_fstr(a, (*C.char)(unsafe.Pointer(&buf[0])), elem) < 0 {
			return attr, false, errCall
		}
		s, _ := splitFixed(buf, int(elem), 1)
		attr.Value = s[0]

	case C.SLP_ATTR_RAW:
		encSize := C.slp_attr_read_raw(a, nil, 0, nil)
		if encSize < 0 {
			return attr, false, errCall
		}
		raw := rawAttr{
			typ:  make([]byte, int(encSize)),
			data: make([]byte, max(n*int(elem), 1)),
		}
		for i := 0; i < rank; i++ {
			raw.dims = append(raw.dims, uint64(dims[i]))
		}
		if C.slp_attr_read_raw(a, unsafe.Pointer(&raw.typ[0]), C.size_t(encSize), unsafe.Pointer(&raw.data[0])) < 0 {
			return attr, false, errCall
		}
		raw.data = raw.data[:n*int(elem)]
		attr.Value = raw

	default:
		return attr, false, nil
	}
	return attr, true, nil
}

func (d *document) writeAttrs(obj C.hid_t, attrs domain.Attributes) error {
	for _, attr := range attrs {
		cname := C.CString(attr.Name)
		err := writeAttr(obj, cname, attr.Value)
		C.free(unsafe.Pointer(cname))
		if err != nil {
			return fmt.Errorf("attribute %s: %w", attr.Name, err)
		}
	}
	return nil
}

func writeAttr(obj C.hid_t, name *C.char, value interface{}) error {
	var rc C.int
	switch v := value.(type) {
	case int64:
		rc = C.slp_attr_write_i64(obj, name, 0, 1, (*C.longlong)(unsafe.Pointer(&v)))
	case int:
		n := int64(v)
		rc = C.slp_attr_write_i64(obj, name, 0, 1, (*C.longlong)(unsafe.Pointer(&n)))
	case float64:
		rc = C.slp_attr_write_f64(obj, name, 0, 1, (*C.double)(unsafe.Pointer(&v)))
	case []int64:
		if len(v) == 0 {
			v = []int64{0}
			rc = C.slp_attr_write_i64(obj, name, 1, 0, (*C.longlong)(unsafe.Pointer(&v[0])))
			break
		}
		rc = C.slp_attr_write_i64(obj, name, 1, C.hsize_t(len(v)), (*C.longlong)(unsafe.Pointer(&v[0])))
	case []float64:
		if len(v) == 0 {
			v = []float64{0}
			rc = C.slp_attr_write_f64(obj, name, 1, 0, (*C.double)(unsafe.Pointer(&v[0])))
			break
		}
		rc = C.slp_attr_write_f64(obj, name, 1, C.hsize_t(len(v)), (*C.double)(unsafe.Pointer(&v[0])))
	case string:
		cs := C.CString(v)
		rc = C.slp_attr_write_str(obj, name, cs)
		C.free(unsafe.Pointer(cs))
	case rawAttr:
		if len(v.typ) == 0 {
			return fmt.Errorf("empty datatype encoding")
		}
		var dims [maxRank]C.hsize_t
		for i, dim := range v.dims {
			dims[i] = C.hsize_t(dim)
		}
		data := v.data
		if len(data) == 0 {
			data = []byte{0}
		}
		rc = C.slp_attr_write_raw(obj, name, unsafe.Pointer(&v.typ[0]), C.int(len(v.dims)), &dims[0], unsafe.Pointer(&data[0]))
	default:
		return fmt.Errorf("unsupported value type %T", value)
	}
	if rc < 0 {
		return errCall
	}
	return nil
}

func boolInt(b bool) C.int {
	if b {
		return 1
	}
	return 0
}

var _ ports.Document = (*document)(nil)
