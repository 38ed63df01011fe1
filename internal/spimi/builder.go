package spimi

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/scampagna/catalogsearch/internal/document"
)

// DefaultBlockSizeLimit is the soft in-memory buffer threshold applied when
// a Builder is constructed without an explicit override.
const DefaultBlockSizeLimit = 100 * 1024 * 1024

// Builder drives the document stream through a BlockBuffer, flushing to
// numbered block files whenever the buffer crosses its size limit, and
// accumulates collection statistics alongside.
type Builder struct {
	blockDir       string
	blockSizeLimit int64
	log            zerolog.Logger
}

// BuildResult reports what a build produced.
type BuildResult struct {
	BlockPaths   []string
	MetadataPath string
	Metadata     Metadata
}

// NewBuilder returns a Builder that writes block files and the metadata
// record under blockDir. A limit <= 0 falls back to DefaultBlockSizeLimit.
func NewBuilder(blockDir string, limit int64, log zerolog.Logger) *Builder {
	if limit <= 0 {
		limit = DefaultBlockSizeLimit
	}
	return &Builder{blockDir: blockDir, blockSizeLimit: limit, log: log}
}

// Build consumes src to completion, producing one block file per flush plus
// a metadata record. Cancellation is checked between documents and between
// blocks; on cancellation the caller is responsible for removing whatever
// partial files exist in blockDir.
func (b *Builder) Build(ctx context.Context, src document.Source) (BuildResult, error) {
	if err := os.MkdirAll(b.blockDir, 0o755); err != nil {
		return BuildResult{}, fmt.Errorf("spimi: create block dir %s: %w", b.blockDir, err)
	}

	buffer := NewBlockBuffer()
	stats := NewStatsRecorder()
	var blockPaths []string
	blockNum := 1

	flush := func() error {
		if buffer.Empty() {
			return nil
		}
		path := filepath.Join(b.blockDir, fmt.Sprintf("block_%d", blockNum))
		entries := buffer.DrainSorted()
		if err := WriteBlock(path, entries); err != nil {
			return fmt.Errorf("spimi: flush block %d: %w", blockNum, err)
		}
		b.log.Debug().Str("stage", "spimi").Str("path", path).Int("terms", len(entries)).Msg("flushed block")
		blockPaths = append(blockPaths, path)
		blockNum++
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return BuildResult{}, fmt.Errorf("spimi: build cancelled: %w", ctx.Err())
		default:
		}

		doc, ok, err := src.Next(ctx)
		if err != nil {
			return BuildResult{}, fmt.Errorf("spimi: read document: %w", err)
		}
		if !ok {
			break
		}

		buffer.Add(doc.DocID, doc.Tokens)
		stats.Observe(doc.DocID, len(doc.Tokens))

		if buffer.SizeEstimate() >= b.blockSizeLimit {
			if err := flush(); err != nil {
				return BuildResult{}, err
			}
			select {
			case <-ctx.Done():
				return BuildResult{}, fmt.Errorf("spimi: build cancelled: %w", ctx.Err())
			default:
			}
		}
	}

	if err := flush(); err != nil {
		return BuildResult{}, err
	}

	metadata := stats.Finalize()
	metadataPath := filepath.Join(b.blockDir, "metadata")
	if err := WriteMetadata(metadataPath, metadata); err != nil {
		return BuildResult{}, fmt.Errorf("spimi: write metadata: %w", err)
	}
	b.log.Info().Str("stage", "spimi").Uint64("n", metadata.N).Float64("avgdl", metadata.AvgDL).Msg("build stats recorded")

	return BuildResult{BlockPaths: blockPaths, MetadataPath: metadataPath, Metadata: metadata}, nil
}
