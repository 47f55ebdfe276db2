package progress

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// StageInfo identifies a pipeline stage, e.g. [2/6] "Resolving baseline".
type StageInfo struct {
	Name   string
	Number int
	Total  int
}

func (s StageInfo) prefix() string {
	return fmt.Sprintf("[%d/%d]", s.Number, s.Total)
}

// Display prints one line per finished stage. On a TTY a spinner runs
// while a stage is in flight.
type Display struct {
	mu      sync.Mutex
	w       io.Writer
	caps    TerminalCapabilities
	symbols ProgressSymbols
	spin    *spinner.Spinner
	current StageInfo
}

// NewDisplay creates a Display writing to w.
func NewDisplay(w io.Writer, caps TerminalCapabilities) *Display {
	d := &Display{w: w, caps: caps, symbols: SelectSymbols(caps)}
	if caps.IsTTY {
		d.spin = spinner.New(spinner.CharSets[d.symbols.SpinnerSet], 100*time.Millisecond, spinner.WithWriter(w))
	}
	return d
}

// StartStage begins a stage.
func (d *Display) StartStage(info StageInfo) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.current = info
	if d.spin == nil {
		return
	}
	d.setSuffix(fmt.Sprintf(" %s %s", info.prefix(), info.Name))
	d.spin.Start()
}

// CompleteStage stops the spinner and prints the stage with an optional
// detail, such as the chosen baseline.
func (d *Display) CompleteStage(info StageInfo, detail string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stop()
	line := fmt.Sprintf("%s %s %s", d.paint(color.FgGreen, d.symbols.Checkmark), info.prefix(), info.Name)
	if detail != "" {
		line += ": " + detail
	}
	fmt.Fprintln(d.w, line)
}

// FailStage stops the spinner and prints the stage as failed.
func (d *Display) FailStage(info StageInfo, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stop()
	fmt.Fprintf(d.w, "%s %s %s: %v\n", d.paint(color.FgRed, d.symbols.Failure), info.prefix(), info.Name, err)
}

// Waiting changes the spinner text while the model is being called. It
// has the signature expected by judge.WithWaitHook.
func (d *Display) Waiting(waiting bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.spin == nil {
		return
	}
	suffix := fmt.Sprintf(" %s %s", d.current.prefix(), d.current.Name)
	if waiting {
		suffix += " (waiting for model)"
	}
	d.setSuffix(suffix)
}

// Stop halts the spinner without printing.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stop()
}

// setSuffix holds the spinner lock so the render goroutine never sees a
// partial write.
func (d *Display) setSuffix(s string) {
	d.spin.Lock()
	d.spin.Suffix = s
	d.spin.Unlock()
}

func (d *Display) stop() {
	if d.spin != nil && d.spin.Active() {
		d.spin.Stop()
	}
}

func (d *Display) paint(attr color.Attribute, s string) string {
	if !d.caps.SupportsColor {
		return s
	}
	return color.New(attr).Sprint(s)
}
