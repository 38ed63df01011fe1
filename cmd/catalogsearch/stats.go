package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scampagna/catalogsearch/internal/spimi"
)

func newStatsCmd() *cobra.Command {
	var blockDir string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the collection statistics recorded during the last build",
		RunE: func(cmd *cobra.Command, args []string) error {
			metadataPath := filepath.Join(blockDir, "metadata")
			m, err := spimi.ReadMetadata(metadataPath)
			if err != nil {
				return fmt.Errorf("stats: read metadata: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "\n+============== Stats ===============\n\n")
			fmt.Fprintf(out, "Documents (N):     %d\n", m.N)
			fmt.Fprintf(out, "Total tokens:      %d\n", m.TotalLength)
			fmt.Fprintf(out, "Average doc length: %.4f\n", m.AvgDL)
			fmt.Fprintf(out, "Distinct documents with recorded lengths: %d\n", len(m.DocLengths))
			return nil
		},
	}

	cmd.Flags().StringVar(&blockDir, "block-dir", "index-data/blocks", "directory holding the collection metadata from the last build")
	return cmd
}
