// Package corpus supplies training text for the language model: a fixed
// known-character alphabet, an HTTP fetcher with a local file fallback,
// and the filter that reduces raw text to that alphabet.
package corpus

// Alphabet is a fixed, ordered set of known characters. It is shared
// configuration for the language model and every permutation; neither
// ever processes a character outside it.
type Alphabet struct {
	chars   []rune
	members map[rune]struct{}
}

// NewAlphabet creates an Alphabet from an ordered rune set.
// Duplicates are dropped, first occurrence wins.
func NewAlphabet(chars []rune) Alphabet {
	a := Alphabet{
		chars:   make([]rune, 0, len(chars)),
		members: make(map[rune]struct{}, len(chars)),
	}
	for _, c := range chars {
		if _, ok := a.members[c]; ok {
			continue
		}
		a.members[c] = struct{}{}
		a.chars = append(a.chars, c)
	}
	return a
}

// Default returns the canonical alphabet: ASCII lowercase letters, a small
// set of punctuation, newline and space.
func Default() Alphabet {
	chars := make([]rune, 0, 38)
	for c := 'a'; c <= 'z'; c++ {
		chars = append(chars, c)
	}
	chars = append(chars, ',', '.', ':', '\n', '#', '(', ')', '!', '?', '\'', '"', ' ')
	return NewAlphabet(chars)
}

// Contains reports whether c is a known character.
func (a Alphabet) Contains(c rune) bool {
	_, ok := a.members[c]
	return ok
}

// Runes returns the alphabet's characters in order. The returned slice
// must not be modified.
func (a Alphabet) Runes() []rune {
	return a.chars
}

// Len returns the number of known characters. This is the vocabulary
// size used as the Laplace-smoothing denominator addend.
func (a Alphabet) Len() int {
	return len(a.chars)
}
