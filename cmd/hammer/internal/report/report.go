package report

import (
	"fmt"
	"io"
	"sync"
)

// StderrReporter writes mismatch diagnostics one whole line at a time.
type StderrReporter struct {
	mu sync.Mutex
	w  io.Writer
}

// New returns a reporter writing to w (os.Stderr in production).
func New(w io.Writer) *StderrReporter {
	return &StderrReporter{w: w}
}

// Report writes "Problem! '<reply>'  '<phrase>'".
func (r *StderrReporter) Report(reply, phrase string) {
	line := Format(reply, phrase)

	r.mu.Lock()
	defer r.mu.Unlock()
	io.WriteString(r.w, line)
}

// Format renders a diagnostic line including the trailing newline.
func Format(reply, phrase string) string {
	return fmt.Sprintf("Problem! '%s'  '%s'\n", reply, phrase)
}
