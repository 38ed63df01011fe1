package main

import (
	"bufio"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/scampagna/catalogsearch/internal/document"
	"github.com/scampagna/catalogsearch/internal/engine"
	"github.com/scampagna/catalogsearch/internal/indexstore"
	"github.com/scampagna/catalogsearch/internal/logging"
)

func newSearchCmd() *cobra.Command {
	var (
		blockDir       string
		finalIndexPath string
		lexiconPath    string
		k1             float64
		b              float64
		topK           int
	)

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Open a built index and answer queries read from standard input",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(cmd.ErrOrStderr())

			metadataPath := filepath.Join(blockDir, "metadata")
			reader, err := indexstore.Open(finalIndexPath, lexiconPath, metadataPath)
			if err != nil {
				return fmt.Errorf("search: open index: %w", err)
			}
			defer reader.Close()

			qe := engine.New(reader, engine.Config{K1: k1, B: b, TopK: topK}, log)
			return runSearchLoop(cmd, qe)
		},
	}

	cmd.Flags().StringVar(&blockDir, "block-dir", "index-data/blocks", "directory holding the collection metadata from the last build")
	cmd.Flags().StringVar(&finalIndexPath, "final-index", filepath.Join("index-data", "final-index"), "path of the final postings file")
	cmd.Flags().StringVar(&lexiconPath, "lexicon", filepath.Join("index-data", "lexicon"), "path of the lexicon file")
	cmd.Flags().Float64Var(&k1, "k1", 0, "BM25 k1 parameter (0 uses the package default)")
	cmd.Flags().Float64Var(&b, "b", 0, "BM25 b parameter (0 uses the package default)")
	cmd.Flags().IntVar(&topK, "top-k", 10, "number of results returned per query")

	return cmd
}

// runSearchLoop reads one query per line from stdin until EOF or a sentinel
// "exit"/"quit" line, printing the top-K results for each.
func runSearchLoop(cmd *cobra.Command, qe *engine.QueryEngine) error {
	scanner := bufio.NewScanner(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if lower := strings.ToLower(line); lower == "exit" || lower == "quit" {
			return nil
		}

		tokens := document.Tokenize(line)
		results, err := qe.Query(tokens)
		if err != nil {
			fmt.Fprintf(out, "query error: %v\n", err)
			continue
		}
		if len(results) == 0 {
			fmt.Fprintln(out, "no results")
			continue
		}
		for rank, r := range results {
			fmt.Fprintf(out, "%d. %s\t%.4f\n", rank+1, r.DocID, r.Score)
		}
	}
	return scanner.Err()
}
