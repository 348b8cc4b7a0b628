package mstoken

import (
	"crypto/rand"
	"errors"
	"fmt"
	"io"
)

const (
	// Alphabet is the set of characters an ms_token is drawn from.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

	// DefaultLength is the length of the token the platform's web client sends.
	DefaultLength = 107

	// maxUnbiased is the largest multiple of len(Alphabet) that fits in a byte.
	// Bytes at or above it are discarded so every character is equally likely.
	maxUnbiased = 256 - 256%len(Alphabet)
)

// ErrInvalidLength is returned for a negative token length.
var ErrInvalidLength = errors.New("invalid ms_token length: must be non-negative")

// Generator produces tokens from a byte source.
type Generator struct {
	// Source supplies random bytes. When nil, crypto/rand.Reader is used.
	Source io.Reader
}

// New returns a Generator reading from source. A nil source selects crypto/rand.
func New(source io.Reader) *Generator {
	return &Generator{Source: source}
}

// Generate returns a token of length n using crypto/rand.
func Generate(n int) (string, error) {
	return (&Generator{}).Generate(n)
}

// Default returns a token of DefaultLength using crypto/rand.
func Default() (string, error) {
	return Generate(DefaultLength)
}

// Generate returns a string of exactly n characters from Alphabet.
func (g *Generator) Generate(n int) (string, error) {
	if n < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidLength, n)
	}
	if n == 0 {
		return "", nil
	}

	src := g.Source
	if src == nil {
		src = rand.Reader
	}

	out := make([]byte, 0, n)
	buf := make([]byte, n+n/4+1)
	for len(out) < n {
		if _, err := io.ReadFull(src, buf); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range buf {
			if int(b) >= maxUnbiased {
				continue
			}
			out = append(out, Alphabet[int(b)%len(Alphabet)])
			if len(out) == n {
				break
			}
		}
	}
	return string(out), nil
}

// Valid reports whether every character of s is in Alphabet.
func Valid(s string) bool {
	for i := 0; i < len(s); i++ {
		if !inAlphabet(s[i]) {
			return false
		}
	}
	return true
}

func inAlphabet(c byte) bool {
	return ('A' <= c && c <= 'Z') || ('a' <= c && c <= 'z') || ('0' <= c && c <= '9')
}
