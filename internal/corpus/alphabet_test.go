package corpus

import "testing"

func TestDefaultAlphabet(t *testing.T) {
	a := Default()

	if got := a.Len(); got != 38 {
		t.Fatalf("alphabet size: got %d, want 38", got)
	}

	for _, c := range []rune{'a', 'z', ' ', '\n', ',', '.', ':', '#', '(', ')', '!', '?', '\'', '"'} {
		if !a.Contains(c) {
			t.Errorf("alphabet should contain %q", c)
		}
	}

	for _, c := range []rune{'A', 'Z', '0', ';', '\t', 'é'} {
		if a.Contains(c) {
			t.Errorf("alphabet should not contain %q", c)
		}
	}
}

func TestNewAlphabetDropsDuplicates(t *testing.T) {
	a := NewAlphabet([]rune{'a', 'b', 'a', 'c', 'b'})

	if got := a.Len(); got != 3 {
		t.Fatalf("alphabet size: got %d, want 3", got)
	}
	if got := string(a.Runes()); got != "abc" {
		t.Fatalf("alphabet order: got %q, want %q", got, "abc")
	}
}
