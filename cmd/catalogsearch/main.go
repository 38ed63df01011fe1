// Command catalogsearch builds and queries a disk-based inverted index over
// a product catalogue: "index" runs the SPIMI build pipeline, "search"
// opens a built index for interactive querying, and "stats" prints the
// collection statistics recorded during the last build.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "catalogsearch",
		Short: "Disk-based inverted index and BM25 search over a product catalogue",
	}
	root.AddCommand(newIndexCmd())
	root.AddCommand(newSearchCmd())
	root.AddCommand(newStatsCmd())
	return root
}
