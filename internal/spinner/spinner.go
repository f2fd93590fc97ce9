// Package spinner draws a one-line progress indicator while a dataset loads.
package spinner

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

const interval = 80 * time.Millisecond

// Enabled reports whether w is an interactive terminal worth animating.
func Enabled(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start animates message on w until the returned stop function is called.
// Stop clears the line and is safe to call more than once. When w is not a
// terminal nothing is drawn and stop is a no-op.
func Start(w io.Writer, message string) (stop func()) {
	if !Enabled(w) {
		return func() {}
	}
	return start(w, message)
}

func start(w io.Writer, message string) func() {
	done := make(chan struct{})
	cleared := make(chan struct{})
	var once sync.Once

	go func() {
		defer close(cleared)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for i := 0; ; i++ {
			select {
			case <-done:
				fmt.Fprintf(w, "\r%s\r", strings.Repeat(" ", len([]rune(message))+2)) //nolint:errcheck
				return
			case <-ticker.C:
				fmt.Fprintf(w, "\r%s %s", frames[i%len(frames)], message) //nolint:errcheck
			}
		}
	}()

	return func() {
		once.Do(func() { close(done) })
		<-cleared
	}
}
