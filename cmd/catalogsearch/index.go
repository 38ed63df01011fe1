package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/scampagna/catalogsearch/internal/document"
	"github.com/scampagna/catalogsearch/internal/logging"
	"github.com/scampagna/catalogsearch/internal/merge"
	"github.com/scampagna/catalogsearch/internal/spimi"
)

func newIndexCmd() *cobra.Command {
	var (
		source         string
		blockDir       string
		finalIndexPath string
		lexiconPath    string
		blockSizeLimit int64
	)

	cmd := &cobra.Command{
		Use:   "index",
		Short: "Build an inverted index from a document source",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logging.New(cmd.ErrOrStderr())

			src, err := document.OpenJSONLSource(source)
			if err != nil {
				return fmt.Errorf("index: open source: %w", err)
			}
			defer src.Close()

			builder := spimi.NewBuilder(blockDir, blockSizeLimit, log)
			buildResult, err := builder.Build(context.Background(), src)
			if err != nil {
				return fmt.Errorf("index: build: %w", err)
			}

			mergeResult, err := merge.Merge(buildResult.BlockPaths, finalIndexPath, lexiconPath, log)
			if err != nil {
				return fmt.Errorf("index: merge: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "indexed %d documents, %d terms\n", buildResult.Metadata.N, mergeResult.NumTerms)
			return nil
		},
	}

	cmd.Flags().StringVar(&source, "source", "", "path or http(s):// URL to a JSONL document source (required)")
	cmd.Flags().StringVar(&blockDir, "block-dir", "index-data/blocks", "directory for SPIMI block files and metadata")
	cmd.Flags().StringVar(&finalIndexPath, "final-index", filepath.Join("index-data", "final-index"), "path of the final postings file")
	cmd.Flags().StringVar(&lexiconPath, "lexicon", filepath.Join("index-data", "lexicon"), "path of the lexicon file")
	cmd.Flags().Int64Var(&blockSizeLimit, "block-size-limit", spimi.DefaultBlockSizeLimit, "soft in-memory buffer limit in bytes before a block flush")
	cmd.MarkFlagRequired("source")

	return cmd
}
