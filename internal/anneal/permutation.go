// Package anneal implements the substitution-key search: a Permutation
// state with a random-swap neighbor move, and a simulated-annealing
// loop that minimizes the negative log-likelihood of the decoded text
// under a bigram language model.
package anneal

import (
	"math/rand"
	"sort"
	"strings"

	"decipher/internal/corpus"
	"decipher/internal/lm"
)

// Permutation is one substitution-cipher key: a bijection from the
// alphabet to itself, where mapping[c] is the plaintext character that
// ciphertext character c decodes to. A Permutation is immutable once
// created; Neighbor returns a new instance and never edits the
// receiver's mapping.
type Permutation struct {
	alphabet corpus.Alphabet
	mapping  map[rune]rune
}

// NewIdentity returns the identity permutation over the alphabet. Every
// call builds a fresh mapping, so no two permutations ever alias.
func NewIdentity(alphabet corpus.Alphabet) *Permutation {
	mapping := make(map[rune]rune, alphabet.Len())
	for _, c := range alphabet.Runes() {
		mapping[c] = c
	}
	return &Permutation{alphabet: alphabet, mapping: mapping}
}

// Neighbor chooses two keys uniformly at random with replacement and
// returns a new Permutation with their images swapped. Drawing the same
// key twice is a valid, inert move that yields an equal permutation.
// Starting from the identity, swaps keep the mapping a bijection, and
// they reach every permutation of the alphabet.
func (p *Permutation) Neighbor(rng *rand.Rand) *Permutation {
	chars := p.alphabet.Runes()
	k1 := chars[rng.Intn(len(chars))]
	k2 := chars[rng.Intn(len(chars))]
	return p.swap(k1, k2)
}

func (p *Permutation) swap(k1, k2 rune) *Permutation {
	mapping := make(map[rune]rune, len(p.mapping))
	for k, v := range p.mapping {
		mapping[k] = v
	}
	mapping[k1], mapping[k2] = mapping[k2], mapping[k1]
	return &Permutation{alphabet: p.alphabet, mapping: mapping}
}

// Translate maps each character of text through the key. Characters
// without a mapping pass through unchanged.
func (p *Permutation) Translate(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, c := range text {
		if d, ok := p.mapping[c]; ok {
			b.WriteRune(d)
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Energy decodes ciphertext with the key and returns the total negative
// log2-likelihood of the decoded sequence under the model, in bits.
// Lower energy means more plausible plaintext. Calling Energy with an
// empty ciphertext is a caller defect and returns an error.
func (p *Permutation) Energy(ciphertext string, model *lm.Model) (float64, error) {
	decoded := []rune(p.Translate(ciphertext))
	if len(decoded) == 0 {
		return 0, NewError("empty ciphertext").WithOperation("Energy").WithComponent("permutation")
	}

	energy := -model.LogProbUnigram(decoded[0])
	for i := 1; i < len(decoded); i++ {
		energy -= model.LogProbBigram(decoded[i], decoded[i-1])
	}
	return energy, nil
}

// Mapping returns a copy of the key as a plain map.
func (p *Permutation) Mapping() map[rune]rune {
	out := make(map[rune]rune, len(p.mapping))
	for k, v := range p.mapping {
		out[k] = v
	}
	return out
}

// String renders the key as "c->d" pairs in alphabet order.
func (p *Permutation) String() string {
	keys := make([]rune, 0, len(p.mapping))
	for k := range p.mapping {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString(" ")
		}
		b.WriteString(printable(k))
		b.WriteString("->")
		b.WriteString(printable(p.mapping[k]))
	}
	return b.String()
}

func printable(c rune) string {
	switch c {
	case ' ':
		return "␣"
	case '\n':
		return "\\n"
	default:
		return string(c)
	}
}
