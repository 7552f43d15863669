package lm

import (
	"math"
	"testing"

	"decipher/internal/corpus"
)

func TestBigramCountConvention(t *testing.T) {
	m := New("ab", corpus.Default())

	// "ab" yields exactly one bigram, keyed (current, previous).
	if got := m.BigramCount('b', 'a'); got != 1 {
		t.Errorf("BigramCount(b, a) = %d, want 1", got)
	}
	if got := m.BigramCount('a', 'b'); got != 0 {
		t.Errorf("BigramCount(a, b) = %d, want 0", got)
	}
}

func TestUnigramSmoothing(t *testing.T) {
	alphabet := corpus.Default()
	m := New("ab", alphabet)

	n := float64(m.CorpusSize())
	v := float64(alphabet.Len())

	if got, want := m.LogProbUnigram('a'), math.Log2(2/(n+v)); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProbUnigram(a) = %v, want %v", got, want)
	}

	// A character never seen in the corpus gets exactly log2(1/(N+V)).
	if got, want := m.LogProbUnigram('z'), math.Log2(1/(n+v)); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProbUnigram(z) = %v, want %v", got, want)
	}
}

func TestBigramSmoothing(t *testing.T) {
	alphabet := corpus.Default()
	m := New("ab", alphabet)
	v := float64(alphabet.Len())

	// Seen bigram: (count+1) / (count(prev)+V) with the unsmoothed
	// unigram count of prev.
	if got, want := m.LogProbBigram('b', 'a'), math.Log2(2/(1+v)); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProbBigram(b|a) = %v, want %v", got, want)
	}

	// Unseen bigram with unseen previous character.
	if got, want := m.LogProbBigram('x', 'y'), math.Log2(1/v); math.Abs(got-want) > 1e-12 {
		t.Errorf("LogProbBigram(x|y) = %v, want %v", got, want)
	}
}

func TestSmoothingPositivity(t *testing.T) {
	alphabet := corpus.Default()
	m := New("the cat sat on the mat", alphabet)

	for _, a := range alphabet.Runes() {
		lp := m.LogProbUnigram(a)
		if math.IsInf(lp, 0) || math.IsNaN(lp) || lp > 0 {
			t.Fatalf("LogProbUnigram(%q) = %v, want finite and <= 0", a, lp)
		}
		for _, b := range alphabet.Runes() {
			lp := m.LogProbBigram(a, b)
			if math.IsInf(lp, 0) || math.IsNaN(lp) || lp > 0 {
				t.Fatalf("LogProbBigram(%q|%q) = %v, want finite and <= 0", a, b, lp)
			}
		}
	}
}

func TestCachedAndOnDemandAgree(t *testing.T) {
	alphabet := corpus.Default()
	m := New("the cat sat on the mat", alphabet)

	// Cached values for observed keys must be exactly the on-demand
	// computation.
	for c := range m.unigramCount {
		if got, want := m.LogProbUnigram(c), m.computeUnigram(c); got != want {
			t.Errorf("cached unigram %q = %v, on-demand = %v", c, got, want)
		}
	}
	for bg := range m.bigramCount {
		if got, want := m.LogProbBigram(bg.Cur, bg.Prev), m.computeBigram(bg.Cur, bg.Prev); got != want {
			t.Errorf("cached bigram %v = %v, on-demand = %v", bg, got, want)
		}
	}
}

func TestCorpusAndVocabularySize(t *testing.T) {
	alphabet := corpus.Default()
	m := New("the cat", alphabet)

	if got := m.CorpusSize(); got != 7 {
		t.Errorf("CorpusSize = %d, want 7", got)
	}
	// Vocabulary size is |Σ|, not the distinct observed count.
	if got := m.VocabularySize(); got != alphabet.Len() {
		t.Errorf("VocabularySize = %d, want %d", got, alphabet.Len())
	}
}

func TestCrossEntropy(t *testing.T) {
	alphabet := corpus.Default()
	m := New("the cat sat on the mat", alphabet)

	if got := m.CrossEntropy(""); got != 0 {
		t.Errorf("CrossEntropy of empty text = %v, want 0", got)
	}

	// Cross entropy is the per-character average of the negative
	// log-probabilities.
	text := "the"
	want := -(m.LogProbUnigram('t') + m.LogProbBigram('h', 't') + m.LogProbBigram('e', 'h')) / 3
	if got := m.CrossEntropy(text); math.Abs(got-want) > 1e-12 {
		t.Errorf("CrossEntropy(%q) = %v, want %v", text, got, want)
	}

	if got, want := m.Perplexity(text), math.Pow(2, m.CrossEntropy(text)); math.Abs(got-want) > 1e-12 {
		t.Errorf("Perplexity(%q) = %v, want %v", text, got, want)
	}
}

func TestEntropyBounds(t *testing.T) {
	alphabet := corpus.Default()
	m := New("the cat sat on the mat", alphabet)

	h := m.Entropy()
	if h <= 0 || h > math.Log2(float64(alphabet.Len())) {
		t.Errorf("Entropy = %v, want in (0, log2 |alphabet|]", h)
	}
}

func TestStats(t *testing.T) {
	alphabet := corpus.Default()
	m := New("abab", alphabet)

	stats := m.Stats()
	if stats.CorpusSize != 4 {
		t.Errorf("CorpusSize = %d, want 4", stats.CorpusSize)
	}
	if stats.VocabularySize != alphabet.Len() {
		t.Errorf("VocabularySize = %d, want %d", stats.VocabularySize, alphabet.Len())
	}
	if stats.DistinctUnigram != 2 {
		t.Errorf("DistinctUnigram = %d, want 2", stats.DistinctUnigram)
	}
	// "abab" has bigrams (b|a)x2 and (a|b)x1: two distinct keys.
	if stats.DistinctBigram != 2 {
		t.Errorf("DistinctBigram = %d, want 2", stats.DistinctBigram)
	}
}
