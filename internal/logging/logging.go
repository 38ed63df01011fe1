// Package logging provides the structured logger used across the build and
// query paths for their progress and diagnostic events (block flushes,
// merge collisions, served queries), so operators can filter and ship them
// like any other service log. Fatal errors are not written here: they are
// returned to the caller, and the CLI prints them, like per-query errors in
// the search loop, with fmt.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// New builds a console-formatted zerolog.Logger writing to w. A nil w
// defaults to os.Stderr, keeping stdout free for query results and
// machine-readable CLI output.
func New(w io.Writer) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	console := zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	return zerolog.New(console).With().Timestamp().Logger()
}
