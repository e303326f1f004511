package retrieval_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tailored-agentic-units/alfred/retrieval"
)

func corpus() []retrieval.Record {
	return []retrieval.Record{
		{Content: "Question: What is the capital of France? Final answer: Paris", Metadata: `{'Level': '1'}`},
		{Content: "Question: How many studio albums did Mercedes Sosa publish? Final answer: 3", Metadata: `{'Level': '2'}`},
		{Content: "Question: What is 12 divided by 4? Final answer: 3", Metadata: `{'Level': '1'}`},
		{Content: "Question: Who wrote Hamlet? Final answer: Shakespeare", Metadata: `{'Level': '1'}`},
		{Content: "Question: What is the weather in Paris today?", Metadata: `{'Level': '3'}`},
	}
}

func TestBuild_SkipsBadRecords(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	records := append(corpus(), retrieval.Record{Content: "broken", Metadata: "not a dict"})
	idx := retrieval.Build(records, logger)

	assert.Equal(t, 5, idx.Len())
	assert.Contains(t, buf.String(), "skipping corpus record")
	assert.Contains(t, buf.String(), "record=5")
}

func TestBuild_AllBad(t *testing.T) {
	idx := retrieval.Build([]retrieval.Record{{Content: "x", Metadata: "oops"}}, slog.New(slog.DiscardHandler))
	assert.Equal(t, 0, idx.Len())
	assert.Empty(t, idx.Query("x", 3))
}

func TestQuery_EmptyCorpus(t *testing.T) {
	idx := retrieval.Build(nil, nil)

	got := idx.Query("anything at all", 3)
	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, retrieval.NoMatches, retrieval.Render(got))
}

func TestQuery_Ranking(t *testing.T) {
	idx := retrieval.Build(corpus(), slog.New(slog.DiscardHandler))

	got := idx.Query("capital of France", 3)
	require.NotEmpty(t, got)
	assert.Contains(t, got[0].Content, "capital of France")
	assert.Equal(t, "1", got[0].Metadata["Level"])

	got = idx.Query("Hamlet", 3)
	require.Len(t, got, 1)
	assert.Contains(t, got[0].Content, "Shakespeare")
}

func TestQuery_LimitsToK(t *testing.T) {
	idx := retrieval.Build(corpus(), slog.New(slog.DiscardHandler))

	assert.Len(t, idx.Query("question what is", 2), 2)
	assert.Empty(t, idx.Query("question", 0))
}

func TestQuery_NoMatchingTerms(t *testing.T) {
	idx := retrieval.Build(corpus(), slog.New(slog.DiscardHandler))

	assert.Empty(t, idx.Query("zyzzyva quokka", 3))
}

func TestQuery_CaseInsensitive(t *testing.T) {
	idx := retrieval.Build(corpus(), slog.New(slog.DiscardHandler))

	upper := idx.Query("HAMLET", 3)
	lower := idx.Query("hamlet", 3)
	assert.Equal(t, lower, upper)
}

func TestQuery_Idempotent(t *testing.T) {
	first := retrieval.Build(corpus(), slog.New(slog.DiscardHandler))
	second := retrieval.Build(corpus(), slog.New(slog.DiscardHandler))

	for _, q := range []string{"What is 12 divided by 4?", "Paris", "albums Mercedes", "final answer"} {
		for k := 1; k <= 5; k++ {
			assert.Equal(t, first.Query(q, k), second.Query(q, k), "query %q k=%d", q, k)
		}
	}
}

func TestQuery_TiesKeepCorpusOrder(t *testing.T) {
	idx := retrieval.NewIndex([]retrieval.Document{
		{Content: "alpha beta"},
		{Content: "alpha gamma"},
		{Content: "alpha delta"},
	})

	got := idx.Query("alpha", 3)
	require.Len(t, got, 3)
	assert.Equal(t, "alpha beta", got[0].Content)
	assert.Equal(t, "alpha gamma", got[1].Content)
	assert.Equal(t, "alpha delta", got[2].Content)
}

func TestRender(t *testing.T) {
	got := retrieval.Render([]retrieval.Document{{Content: "first"}, {Content: "second"}})
	assert.Equal(t, "1. first\n\n2. second", got)
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "is", "12", "divided", "by", "4"}, retrieval.Tokenize("What is 12 divided by 4?"))
	assert.Empty(t, retrieval.Tokenize("?!"))
}

func TestNewIndex_FloorIsStableAcrossBuilds(t *testing.T) {
	var docs []retrieval.Document
	for _, q := range []string{
		"the capital of france is paris",
		"the largest ocean is the pacific",
		"the tallest mountain is everest",
		"the longest river is the nile",
		"who painted the mona lisa",
		"what is twelve divided by four",
		"how many legs does a spider have",
	} {
		docs = append(docs, retrieval.Document{Content: q})
	}

	first := retrieval.NewIndex(docs)
	floor := first.IDF("the")
	require.Greater(t, floor, 0.0, "common terms are floored to a positive idf")

	for range 50 {
		idx := retrieval.NewIndex(docs)
		assert.Equal(t, floor, idx.IDF("the"))
		assert.Equal(t, first.Query("the capital is", 3), idx.Query("the capital is", 3))
	}
}
