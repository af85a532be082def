package log

import (
	"fmt"
	"time"
)

// Logger is the leveled, structured logger every component writes to.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
}

// Field is one key-value pair attached to an entry.
type Field struct {
	Key   string
	Value interface{}
}

func field(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Typed constructors.
func String(key, value string) Field                 { return field(key, value) }
func Int(key string, value int) Field                { return field(key, value) }
func Int64(key string, value int64) Field            { return field(key, value) }
func Float64(key string, value float64) Field        { return field(key, value) }
func Bool(key string, value bool) Field              { return field(key, value) }
func Duration(key string, value time.Duration) Field { return field(key, value) }
func Strings(key string, value []string) Field       { return field(key, value) }
func Any(key string, value interface{}) Field        { return field(key, value) }

// Err attaches err under the "error" key.
func Err(err error) Field {
	return field("error", err)
}

// Path attaches a file path under the "path" key.
func Path(p string) Field {
	return field("path", p)
}

// Stringer renders v once, when the field is built. A nil v is logged as
// an empty string.
func Stringer(key string, v fmt.Stringer) Field {
	if v == nil {
		return field(key, "")
	}
	return field(key, v.String())
}
