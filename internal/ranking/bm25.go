// Package ranking implements Okapi BM25 scoring over posting lists.
package ranking

import (
	"math"
	"sort"

	"github.com/scampagna/catalogsearch/internal/postings"
)

// DefaultK1 and DefaultB are the BM25 parameter defaults.
const (
	DefaultK1 = 1.5
	DefaultB  = 0.75
)

// ScoredDocument pairs a document with its BM25 score for one query.
type ScoredDocument struct {
	DocID string
	Score float64
}

// Params bundles the BM25 tuning parameters and collection statistics the
// ranker needs. N, AvgDL and DocLengths come straight from the collection
// metadata the build pipeline recorded.
type Params struct {
	K1         float64
	B          float64
	N          uint64
	AvgDL      float64
	DocLengths map[string]uint32
}

// Ranker scores candidate documents for a multi-term query given each
// distinct term's posting list.
type Ranker struct {
	params Params
}

// NewRanker returns a Ranker over params. A zero K1/B falls back to the
// package defaults so a caller can supply a zero-value Params for the
// common case.
func NewRanker(params Params) *Ranker {
	if params.K1 == 0 {
		params.K1 = DefaultK1
	}
	if params.B == 0 {
		params.B = DefaultB
	}
	return &Ranker{params: params}
}

// Rank scores the candidate set formed by the union of postingsByTerm's
// posting lists and returns the top-K documents in descending score order,
// equal scores ordered by ascending doc_id. postingsByTerm must already be keyed by distinct terms —
// passing "apple" twice under two different map keys would double-count it,
// but a plain map can't do that, so duplicate query-term handling is the
// caller's job of building this map from distinct terms in the first place.
func (r *Ranker) Rank(postingsByTerm map[string]postings.List, topK int) []ScoredDocument {
	candidates := make(map[string]struct{})
	for _, list := range postingsByTerm {
		for docID := range list {
			candidates[docID] = struct{}{}
		}
	}
	if len(candidates) == 0 {
		return nil
	}

	scores := make(map[string]float64, len(candidates))
	for docID := range candidates {
		scores[docID] = 0
	}

	n := float64(r.params.N)
	for _, list := range postingsByTerm {
		df := len(list)
		if df == 0 {
			continue
		}
		idf := math.Log((n-float64(df)+0.5)/(float64(df)+0.5) + 1)
		for docID, tf := range list {
			length := float64(r.params.DocLengths[docID])
			denom := float64(tf) + r.params.K1*(1-r.params.B+r.params.B*length/r.params.AvgDL)
			scores[docID] += idf * (float64(tf) * (r.params.K1 + 1)) / denom
		}
	}

	results := make([]ScoredDocument, 0, len(scores))
	for docID, score := range scores {
		results = append(results, ScoredDocument{DocID: docID, Score: score})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].DocID < results[j].DocID
	})

	if topK > 0 && len(results) > topK {
		results = results[:topK]
	}
	return results
}
