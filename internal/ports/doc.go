// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [DocumentStore], [Document]: labels document I/O (HDF5)
//   - [FrameCodec]: decode, resample and encode embedded frames
//   - [Workspace], [Scratch]: scratch copies committed over the output
//   - [Fingerprinter]: content fingerprints of input and output files
//   - [RunLedger]: history of completed runs
//   - [ProgressFactory], [Progress]: per-container progress reporting
//   - [VideoTranscoder]: probing and resizing standalone video files
//   - [FileWatcher]: notification of new files under a directory
//   - [Logger]: structured logging abstraction
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with libhdf5,
// image codecs, SQLite, ffmpeg and fsnotify.
package ports
