// Package cleanup removes the debug and test artifacts that accumulate
// in a working directory during development.
package cleanup

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// artifacts is the fixed list of throwaway files the tooling and manual
// testing leave behind. Deletion is attempted in this order.
var artifacts = []string{
	"test_jiva.db",
	"test_jiva.db-journal",
	"debug_chain.jsonl",
	"webhook_payload.json",
	"webhook_payload_image.json",
	"test_send.log",
	"token_check.log",
	"jiva_debug.log",
	"chat_history_dump.json",
	".env.backup",
}

type Result struct {
	Removed int
	Skipped int
}

// Run deletes every known artifact under dir, reporting each file to w.
// Missing files are skipped, never an error, so repeated runs are safe.
func Run(dir string, w io.Writer) Result {
	var res Result
	for _, name := range artifacts {
		path := filepath.Join(dir, name)
		if err := os.Remove(path); err != nil {
			res.Skipped++
			fmt.Fprintf(w, "skipped  %s\n", name)
			continue
		}
		res.Removed++
		fmt.Fprintf(w, "removed  %s\n", name)
	}
	fmt.Fprintf(w, "\nDone: %d removed, %d skipped.\n", res.Removed, res.Skipped)
	return res
}

// Artifacts returns the fixed deletion list.
func Artifacts() []string {
	out := make([]string, len(artifacts))
	copy(out, artifacts)
	return out
}
