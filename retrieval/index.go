// Package retrieval ranks corpus question/answer documents against a query
// with Okapi BM25 and renders the top matches as few-shot examples.
package retrieval

import (
	"log/slog"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// NoMatches is rendered in place of examples when a query ranks nothing.
const NoMatches = "No matching questions found."

// BM25 parameters.
const (
	DefaultK1      = 1.5
	DefaultB       = 0.75
	DefaultEpsilon = 0.25
)

// Index is an immutable BM25 index over a document corpus. It is safe for
// concurrent use once built.
type Index struct {
	docs    []Document
	freqs   []map[string]int
	lengths []int
	avgdl   float64
	idf     map[string]float64

	k1, b, epsilon float64
}

// Build parses records into documents and indexes them. Records whose
// metadata cannot be parsed are logged and skipped; the index may be empty.
func Build(records []Record, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.Default()
	}

	docs := make([]Document, 0, len(records))
	for i, rec := range records {
		meta, err := ParseMetadata(rec.Metadata)
		if err != nil {
			buildErr := &BuildError{Record: i, Err: err}
			logger.Warn("skipping corpus record", "record", i, "error", buildErr)
			continue
		}
		docs = append(docs, Document{Content: rec.Content, Metadata: meta})
	}

	logger.Debug("retrieval index built", "records", len(records), "documents", len(docs))
	return NewIndex(docs)
}

// NewIndex indexes already parsed documents.
func NewIndex(docs []Document) *Index {
	idx := &Index{
		docs:    docs,
		freqs:   make([]map[string]int, len(docs)),
		lengths: make([]int, len(docs)),
		idf:     make(map[string]float64),
		k1:      DefaultK1,
		b:       DefaultB,
		epsilon: DefaultEpsilon,
	}

	df := make(map[string]int)
	total := 0
	for i, doc := range docs {
		tokens := Tokenize(doc.Content)
		freq := make(map[string]int, len(tokens))
		for _, tok := range tokens {
			freq[tok]++
		}
		for tok := range freq {
			df[tok]++
		}
		idx.freqs[i] = freq
		idx.lengths[i] = len(tokens)
		total += len(tokens)
	}

	if len(docs) == 0 {
		return idx
	}
	idx.avgdl = float64(total) / float64(len(docs))

	// Common terms get a negative idf; floor them at epsilon times the
	// mean idf, summed in sorted term order so every build agrees.
	terms := make([]string, 0, len(df))
	for tok := range df {
		terms = append(terms, tok)
	}
	sort.Strings(terms)

	n := float64(len(docs))
	sum := 0.0
	var negative []string
	for _, tok := range terms {
		freq := df[tok]
		v := math.Log(n-float64(freq)+0.5) - math.Log(float64(freq)+0.5)
		idx.idf[tok] = v
		sum += v
		if v < 0 {
			negative = append(negative, tok)
		}
	}
	floor := idx.epsilon * sum / float64(len(df))
	for _, tok := range negative {
		idx.idf[tok] = floor
	}

	return idx
}

// IDF returns the inverse document frequency of term, or 0 for unknown terms.
func (idx *Index) IDF(term string) float64 {
	return idx.idf[term]
}

// Len returns the number of indexed documents.
func (idx *Index) Len() int {
	return len(idx.docs)
}

// Query returns up to k documents ranked by BM25 score, highest first, ties
// in corpus order. Documents sharing no term with the query are never
// returned, so an empty corpus or an unmatched query yields an empty slice.
func (idx *Index) Query(text string, k int) []Document {
	if k <= 0 || len(idx.docs) == 0 {
		return []Document{}
	}

	query := Tokenize(text)
	type hit struct {
		doc   int
		score float64
	}
	hits := make([]hit, 0, len(idx.docs))

	for i := range idx.docs {
		score, matched := idx.score(i, query)
		if matched {
			hits = append(hits, hit{doc: i, score: score})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].score > hits[b].score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]Document, len(hits))
	for i, h := range hits {
		out[i] = idx.docs[h.doc]
	}
	return out
}

func (idx *Index) score(doc int, query []string) (float64, bool) {
	freq := idx.freqs[doc]
	norm := idx.k1 * (1 - idx.b + idx.b*float64(idx.lengths[doc])/idx.avgdl)

	score := 0.0
	matched := false
	for _, tok := range query {
		f, ok := freq[tok]
		if !ok {
			continue
		}
		matched = true
		tf := float64(f)
		score += idx.idf[tok] * (tf * (idx.k1 + 1) / (tf + norm))
	}
	return score, matched
}

// Render formats documents as a numbered list separated by blank lines, or
// NoMatches when there are none.
func Render(docs []Document) string {
	if len(docs) == 0 {
		return NoMatches
	}

	parts := make([]string, len(docs))
	for i, doc := range docs {
		parts[i] = strconv.Itoa(i+1) + ". " + doc.Content
	}
	return strings.Join(parts, "\n\n")
}

// Tokenize lowercases text and splits it into runs of letters and digits.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
