// Package log provides the user-facing console output: colored status lines
// mirrored into zerolog, and a terminal progress bar that satisfies the
// transfer executor's progress callback.
package log

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
)

// 🎯 Console handles user-facing output alongside structured logging.
type Console struct {
	zlog zerolog.Logger
	out  io.Writer
	mu   sync.Mutex
}

// 🏭 New creates a console reporter.
func New(out io.Writer, zlog zerolog.Logger) *Console {
	return &Console{
		zlog: zlog,
		out:  out,
	}
}

// 📝 Header prints the run banner.
func (c *Console) Header(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	name := color.New(color.Bold, color.FgCyan).Sprint("osulift")
	fmt.Fprintf(c.out, "\n%s %s\n\n", name, color.New(color.Faint).Sprint("• "+msg))
	c.zlog.Info().Msg(msg)
}

// 📝 Success prints a success line.
func (c *Console) Success(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "✅ %s\n", color.New(color.FgGreen).Sprint(msg))
	c.zlog.Info().Msg(msg)
}

// 📝 Warning prints a warning line.
func (c *Console) Warning(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "⚠️  %s\n", color.New(color.FgYellow).Sprint(msg))
	c.zlog.Warn().Msg(msg)
}

// 📝 Error prints an error line.
func (c *Console) Error(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.out, "❌ %s\n", color.New(color.FgRed).Sprint(msg))
	c.zlog.Error().Msg(msg)
}

// 📝 Successf prints a formatted success line.
func (c *Console) Successf(format string, args ...any) {
	c.Success(fmt.Sprintf(format, args...))
}

// 📝 Warningf prints a formatted warning line.
func (c *Console) Warningf(format string, args ...any) {
	c.Warning(fmt.Sprintf(format, args...))
}

// 📊 ProgressBar renders transfer progress on the terminal. Safe for
// concurrent updates from a worker pool.
type ProgressBar struct {
	mu   sync.Mutex
	bar  *pterm.ProgressbarPrinter
	last int
}

// 🏭 StartProgress starts a progress bar sized for total pairs.
func StartProgress(total int, title string) (*ProgressBar, error) {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(total).
		WithTitle(title).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return nil, err
	}
	return &ProgressBar{bar: bar}, nil
}

// Update advances the bar to completed. Out-of-order notifications from
// concurrent workers are dropped so the displayed count never regresses.
func (p *ProgressBar) Update(completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if completed <= p.last {
		return
	}
	p.bar.Add(completed - p.last)
	p.last = completed
}

// Stop finishes the bar.
func (p *ProgressBar) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bar.Stop()
}
