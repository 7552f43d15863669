package corpus

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
	"unicode"
)

// Reader retrieves raw training text and filters it down to an alphabet.
type Reader struct {
	alphabet Alphabet
	client   *http.Client

	// FallbackPath is read when the remote fetch fails. Empty disables
	// the fallback.
	FallbackPath string
}

// NewReader creates a Reader over the given alphabet.
func NewReader(alphabet Alphabet) *Reader {
	return &Reader{
		alphabet: alphabet,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
}

// Load fetches the corpus from url, falling back to FallbackPath if the
// fetch fails, and returns the filtered character sequence.
func (r *Reader) Load(ctx context.Context, url string) (string, error) {
	raw, err := r.fetch(ctx, url)
	if err != nil {
		if r.FallbackPath == "" {
			return "", err
		}
		raw, err = os.ReadFile(r.FallbackPath)
		if err != nil {
			return "", fmt.Errorf("corpus fallback: %w", err)
		}
	}
	return r.Filter(string(raw)), nil
}

func (r *Reader) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch corpus: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch corpus: unexpected status %s", resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// Filter lowercases raw text and drops every character outside the
// alphabet. Only the filtered sequence ever reaches the model.
func (r *Reader) Filter(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, c := range raw {
		c = unicode.ToLower(c)
		if r.alphabet.Contains(c) {
			b.WriteRune(c)
		}
	}
	return b.String()
}
