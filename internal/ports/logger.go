package ports

import "github.com/bft-labs/slprescale/pkg/log"

// Logger is the structured logging abstraction used by every component.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field

// Field constructors, re-exported so the application layer depends only on
// this package.
var (
	String   = log.String
	Int      = log.Int
	Int64    = log.Int64
	Float64  = log.Float64
	Bool     = log.Bool
	Duration = log.Duration
	Strings  = log.Strings
	Err      = log.Err
	Any      = log.Any
	Path     = log.Path
	Stringer = log.Stringer
)
