// Package engine ties the index reader and the BM25 ranker together into a
// single query surface, the same shape as a query engine that wires
// retrieval and scoring behind one method: accept query terms, fetch each
// distinct term's posting list, hand the collected lists to the ranker.
package engine

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/scampagna/catalogsearch/internal/indexstore"
	"github.com/scampagna/catalogsearch/internal/postings"
	"github.com/scampagna/catalogsearch/internal/ranking"
)

// QueryEngine answers multi-term queries against a built index.
type QueryEngine struct {
	reader *indexstore.Reader
	k1     float64
	b      float64
	topK   int
	log    zerolog.Logger
}

// Config bundles the tuning knobs a QueryEngine needs beyond the reader
// itself. A zero K1/B falls back to the ranking package defaults.
type Config struct {
	K1   float64
	B    float64
	TopK int
}

// New builds a QueryEngine over an already-open reader.
func New(reader *indexstore.Reader, cfg Config, log zerolog.Logger) *QueryEngine {
	topK := cfg.TopK
	if topK <= 0 {
		topK = 10
	}
	return &QueryEngine{reader: reader, k1: cfg.K1, b: cfg.B, topK: topK, log: log}
}

// Query runs a tokenized query against the index and returns the top-K
// ranked documents. Repeated tokens are deduplicated before lookup so the
// ranker never double-counts a term; an unknown term contributes an empty
// posting list and is otherwise silently ignored, per the documented
// "unknown query term is not an error" behaviour.
func (e *QueryEngine) Query(tokens []string) ([]ranking.ScoredDocument, error) {
	distinct := dedupe(tokens)

	postingsByTerm := make(map[string]postings.List, len(distinct))
	for _, term := range distinct {
		list, err := e.reader.Lookup(term)
		if err != nil {
			return nil, fmt.Errorf("engine: lookup term %q: %w", term, err)
		}
		if len(list) == 0 {
			e.log.Debug().Str("stage", "query").Str("term", term).Msg("term absent from lexicon")
			continue
		}
		postingsByTerm[term] = list
	}

	metadata := e.reader.Metadata()
	ranker := ranking.NewRanker(ranking.Params{
		K1:         e.k1,
		B:          e.b,
		N:          metadata.N,
		AvgDL:      metadata.AvgDL,
		DocLengths: metadata.DocLengths,
	})

	results := ranker.Rank(postingsByTerm, e.topK)
	e.log.Info().Str("stage", "query").Strs("terms", distinct).Int("results", len(results)).Msg("query served")
	return results, nil
}

func dedupe(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
