package bugsy

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/kamilpajak/bugsy/internal/stage"
)

// consoleEmitter prints stage progress for humans. While the model is
// being called it shows a spinner when the writer is a terminal.
type consoleEmitter struct {
	w    io.Writer
	spin *spinner.Spinner
}

func newConsoleEmitter(w io.Writer) *consoleEmitter {
	e := &consoleEmitter{w: w}
	if f, ok := w.(*os.File); ok && isTerminal(f) {
		e.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriterFile(f))
	}
	return e
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Emit implements stage.Emitter.
func (e *consoleEmitter) Emit(ev stage.Event) {
	bold := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	switch ev.Type {
	case stage.EventStart:
		_, _ = bold.Fprintf(e.w, "%s", ev.Stage)
		_, _ = dim.Fprintf(e.w, " (%s)\n", ev.QueryID)
	case stage.EventLLM:
		if e.spin != nil {
			e.spin.Suffix = " calling model..."
			e.spin.Start()
			return
		}
		_, _ = dim.Fprintln(e.w, "  calling model...")
	case stage.EventFallback:
		e.stop()
		yellow := color.New(color.FgYellow)
		_, _ = yellow.Fprintf(e.w, "  ! model output unusable: %s\n", ev.Message)
		_, _ = yellow.Fprintln(e.w, "  ! using fallback heuristic")
	case stage.EventDone:
		e.stop()
		if ev.Outcome == nil {
			return
		}
		green := color.New(color.FgGreen)
		_, _ = green.Fprintf(e.w, "  ✓ %s", ev.Outcome.Source)
		fmt.Fprintf(e.w, " %s\n", ev.Outcome.Summary)
		_, _ = dim.Fprintf(e.w, "    %s\n", ev.Outcome.Path)
	}
}

func (e *consoleEmitter) stop() {
	if e.spin != nil && e.spin.Active() {
		e.spin.Stop()
	}
}

// Close stops a running spinner.
func (e *consoleEmitter) Close() {
	e.stop()
}
