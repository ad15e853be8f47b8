package cli

import (
	"fmt"
	"io"
)

// ConsoleSink prints flushed plugin error reports to a writer, one block
// per plugin.
type ConsoleSink struct {
	W io.Writer
}

// Display writes one plugin's report.
func (s ConsoleSink) Display(title, message string) {
	fmt.Fprintf(s.W, "plugin %s:\n%s\n", title, message)
}
