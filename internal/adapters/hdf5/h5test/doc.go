// Package h5test writes and inspects small HDF5 labels files for the hdf5
// adapter tests. It needs cgo and libhdf5, like the adapter itself.
//
// Calls are not synchronised with the adapter's own libhdf5 use. Close a
// Writer or Reader before the adapter opens the same file.
package h5test
