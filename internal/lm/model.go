// Package lm implements a character-level bigram language model with
// Laplace (add-one) smoothing, trained once over a filtered corpus and
// read-only afterwards.
package lm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"decipher/internal/corpus"
)

// Bigram is an ordered pair of adjacent characters keyed as
// (current, previous): Cur was observed immediately after Prev.
type Bigram struct {
	Cur  rune
	Prev rune
}

// Model holds unigram and bigram statistics for a training corpus.
// It is immutable after New and safe for concurrent readers.
type Model struct {
	alphabet corpus.Alphabet

	unigramCount map[rune]int
	bigramCount  map[Bigram]int

	corpusSize int
	vocabSize  int // |Σ|, not the distinct observed count

	// Precomputed log-probabilities for observed keys. Queries for
	// unseen keys fall back to on-demand computation with identical
	// numeric results.
	unigramLogProb map[rune]float64
	bigramLogProb  map[Bigram]float64
}

// New trains a model on a filtered character sequence over the given
// alphabet. The sequence must contain only alphabet characters.
func New(text string, alphabet corpus.Alphabet) *Model {
	chars := []rune(text)

	m := &Model{
		alphabet:     alphabet,
		unigramCount: make(map[rune]int, alphabet.Len()),
		bigramCount:  make(map[Bigram]int),
		corpusSize:   len(chars),
		vocabSize:    alphabet.Len(),
	}

	for _, c := range chars {
		m.unigramCount[c]++
	}
	for i := 1; i < len(chars); i++ {
		m.bigramCount[Bigram{Cur: chars[i], Prev: chars[i-1]}]++
	}

	m.unigramLogProb = make(map[rune]float64, len(m.unigramCount))
	for c := range m.unigramCount {
		m.unigramLogProb[c] = m.computeUnigram(c)
	}
	m.bigramLogProb = make(map[Bigram]float64, len(m.bigramCount))
	for bg := range m.bigramCount {
		m.bigramLogProb[bg] = m.computeBigram(bg.Cur, bg.Prev)
	}

	return m
}

// LogProbUnigram returns log2 P(w) with Laplace smoothing. It is finite
// and non-positive for every w, seen or unseen.
func (m *Model) LogProbUnigram(w rune) float64 {
	if lp, ok := m.unigramLogProb[w]; ok {
		return lp
	}
	return m.computeUnigram(w)
}

// LogProbBigram returns log2 P(cur | prev) with Laplace smoothing,
// conditioning on the unsmoothed unigram count of prev.
func (m *Model) LogProbBigram(cur, prev rune) float64 {
	if lp, ok := m.bigramLogProb[Bigram{Cur: cur, Prev: prev}]; ok {
		return lp
	}
	return m.computeBigram(cur, prev)
}

func (m *Model) computeUnigram(w rune) float64 {
	c := m.unigramCount[w]
	return math.Log2(float64(c+1) / float64(m.corpusSize+m.vocabSize))
}

func (m *Model) computeBigram(cur, prev rune) float64 {
	cb := m.bigramCount[Bigram{Cur: cur, Prev: prev}]
	cp := m.unigramCount[prev]
	return math.Log2(float64(cb+1) / float64(cp+m.vocabSize))
}

// UnigramCount returns the raw training count for w.
func (m *Model) UnigramCount(w rune) int {
	return m.unigramCount[w]
}

// BigramCount returns the raw training count for cur following prev.
func (m *Model) BigramCount(cur, prev rune) int {
	return m.bigramCount[Bigram{Cur: cur, Prev: prev}]
}

// CorpusSize returns the total character count of the training corpus.
func (m *Model) CorpusSize() int {
	return m.corpusSize
}

// VocabularySize returns |Σ|.
func (m *Model) VocabularySize() int {
	return m.vocabSize
}

// Alphabet returns the alphabet the model was trained over.
func (m *Model) Alphabet() corpus.Alphabet {
	return m.alphabet
}

// CrossEntropy returns the average negative log2-probability per
// character of text under the model. Returns 0 for empty text.
func (m *Model) CrossEntropy(text string) float64 {
	chars := []rune(text)
	if len(chars) == 0 {
		return 0
	}

	terms := make([]float64, len(chars))
	terms[0] = m.LogProbUnigram(chars[0])
	for i := 1; i < len(chars); i++ {
		terms[i] = m.LogProbBigram(chars[i], chars[i-1])
	}
	return -floats.Sum(terms) / float64(len(chars))
}

// Perplexity returns 2^CrossEntropy(text).
func (m *Model) Perplexity(text string) float64 {
	return math.Pow(2, m.CrossEntropy(text))
}

// Entropy returns the entropy in bits of the smoothed unigram
// distribution over the alphabet.
func (m *Model) Entropy() float64 {
	p := make([]float64, 0, m.vocabSize)
	for _, c := range m.alphabet.Runes() {
		p = append(p, math.Exp2(m.LogProbUnigram(c)))
	}
	return stat.Entropy(p) / math.Ln2
}

// Stats describes a trained model.
type Stats struct {
	CorpusSize      int `json:"corpus_size"`
	VocabularySize  int `json:"vocabulary_size"`
	DistinctUnigram int `json:"distinct_unigrams"`
	DistinctBigram  int `json:"distinct_bigrams"`
}

// Stats returns summary statistics for the model.
func (m *Model) Stats() Stats {
	return Stats{
		CorpusSize:      m.corpusSize,
		VocabularySize:  m.vocabSize,
		DistinctUnigram: len(m.unigramCount),
		DistinctBigram:  len(m.bigramCount),
	}
}
