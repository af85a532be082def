package log

// NoopLogger drops every entry.
type NoopLogger struct{}

var _ Logger = NoopLogger{}

// NewNoopLogger returns a logger that drops every entry.
func NewNoopLogger() *NoopLogger {
	return &NoopLogger{}
}

func (NoopLogger) Debug(string, ...Field) {}
func (NoopLogger) Info(string, ...Field)  {}
func (NoopLogger) Warn(string, ...Field)  {}
func (NoopLogger) Error(string, ...Field) {}

// OrNoop returns l, or a NoopLogger when l is nil. Constructors use it so
// a caller may leave the logger unset.
func OrNoop(l Logger) Logger {
	if l == nil {
		return NoopLogger{}
	}
	return l
}
