// Package progress implements ports.ProgressFactory with terminal progress
// bars.
package progress

import (
	"io"
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"

	"github.com/bft-labs/slprescale/internal/ports"
)

// Bars creates progress bars on a writer, or no-op reporters when disabled.
type Bars struct {
	enabled bool
	out     io.Writer
}

// NewBars returns a factory writing to stderr.
func NewBars(enabled bool) *Bars {
	return &Bars{enabled: enabled, out: os.Stderr}
}

// NewBarsTo returns a factory writing to out.
func NewBarsTo(out io.Writer, enabled bool) *Bars {
	return &Bars{enabled: enabled, out: out}
}

// DefaultEnabled reports whether stderr is an interactive terminal.
func DefaultEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// New starts a bar for total units. A non-positive total renders a spinner.
func (b *Bars) New(description string, total int64) ports.Progress {
	if b == nil || !b.enabled {
		return noop{}
	}
	if total <= 0 {
		total = -1
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionSetWriter(b.out),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("frames"),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &barProgress{bar: bar}
}

type barProgress struct {
	bar *progressbar.ProgressBar
}

func (p *barProgress) Add(n int64) { _ = p.bar.Add64(n) }
func (p *barProgress) Set(n int64) { _ = p.bar.Set64(n) }
func (p *barProgress) Finish()     { _ = p.bar.Finish() }

type noop struct{}

func (noop) Add(int64) {}
func (noop) Set(int64) {}
func (noop) Finish()   {}
