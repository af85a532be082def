// Package domain contains the core entities and value objects for slprescale.
//
// This package has no dependencies on infrastructure concerns (HDF5, image
// codecs, the file system, logging) and contains only the rescaling rules.
//
// # Entities
//
//   - [Scale]: a source and target [Resolution] with derived factors
//   - [Point]: one labeled keypoint, possibly missing (NaN)
//   - [EmbeddedVideo]: the in-memory value of one embedded frame container
//   - [Summary]: counts reported at the end of a run
//   - [Run]: one entry of the run ledger
package domain
