package anneal

import (
	"math"
	"math/rand"
	"testing"

	"decipher/internal/corpus"
	"decipher/internal/lm"
)

func TestIdentityTranslateRoundTrip(t *testing.T) {
	p := NewIdentity(corpus.Default())

	for _, text := range []string{"", "the cat sat on the mat", "a\nb, c?"} {
		if got := p.Translate(text); got != text {
			t.Errorf("identity Translate(%q) = %q", text, got)
		}
	}
}

func TestTranslateUnknownPassThrough(t *testing.T) {
	p := NewIdentity(corpus.Default())
	// Characters outside the alphabet should never occur, but pass
	// through unchanged as a defensive fallback.
	if got := p.Translate("A1;"); got != "A1;" {
		t.Errorf("Translate = %q, want %q", got, "A1;")
	}
}

func TestNeighborPreservesBijectivity(t *testing.T) {
	alphabet := corpus.Default()
	rng := rand.New(rand.NewSource(7))

	p := NewIdentity(alphabet)
	for i := 0; i < 1000; i++ {
		p = p.Neighbor(rng)
	}

	seen := make(map[rune]bool, alphabet.Len())
	for _, v := range p.Mapping() {
		if seen[v] {
			t.Fatalf("value %q appears more than once", v)
		}
		seen[v] = true
	}
	if len(seen) != alphabet.Len() {
		t.Fatalf("mapping covers %d values, want %d", len(seen), alphabet.Len())
	}
}

func TestNeighborDoesNotMutateOriginal(t *testing.T) {
	alphabet := corpus.Default()
	rng := rand.New(rand.NewSource(3))

	p := NewIdentity(alphabet)
	before := p.Mapping()

	for i := 0; i < 100; i++ {
		p.Neighbor(rng)
	}

	after := p.Mapping()
	for k, v := range before {
		if after[k] != v {
			t.Fatalf("original mapping changed at %q: %q -> %q", k, v, after[k])
		}
	}
}

func TestIdentityInstancesAreIndependent(t *testing.T) {
	alphabet := corpus.Default()

	a := NewIdentity(alphabet)
	b := NewIdentity(alphabet)
	c := a.swap('a', 'b')

	if got := c.Translate("ab"); got != "ba" {
		t.Fatalf("swapped Translate(ab) = %q, want ba", got)
	}
	// Neither the source instance nor a sibling default may be affected.
	if got := a.Translate("ab"); got != "ab" {
		t.Fatalf("source identity corrupted: Translate(ab) = %q", got)
	}
	if got := b.Translate("ab"); got != "ab" {
		t.Fatalf("sibling identity corrupted: Translate(ab) = %q", got)
	}
}

func TestEnergy(t *testing.T) {
	alphabet := corpus.Default()
	model := lm.New("the cat sat on the mat", alphabet)
	p := NewIdentity(alphabet)

	got, err := p.Energy("the", model)
	if err != nil {
		t.Fatalf("Energy: %v", err)
	}

	want := -model.LogProbUnigram('t') - model.LogProbBigram('h', 't') - model.LogProbBigram('e', 'h')
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Energy = %v, want %v", got, want)
	}
	if got < 0 || math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("Energy = %v, want finite and non-negative", got)
	}
}

func TestEnergyEmptyCiphertext(t *testing.T) {
	alphabet := corpus.Default()
	model := lm.New("the cat", alphabet)
	p := NewIdentity(alphabet)

	if _, err := p.Energy("", model); err == nil {
		t.Fatal("expected error for empty ciphertext")
	}
}

func TestEnergyUnaffectedByIrrelevantSwap(t *testing.T) {
	alphabet := corpus.Default()
	model := lm.New("the cat sat on the mat", alphabet)
	ciphertext := "the cat"

	p := NewIdentity(alphabet)
	base, err := p.Energy(ciphertext, model)
	if err != nil {
		t.Fatal(err)
	}

	// Swapping keys whose images do not appear in the ciphertext leaves
	// the decoded text, and therefore the energy, unchanged.
	q := p.swap('x', 'z')
	got, err := q.Energy(ciphertext, model)
	if err != nil {
		t.Fatal(err)
	}
	if got != base {
		t.Errorf("energy changed after irrelevant swap: %v != %v", got, base)
	}
}
