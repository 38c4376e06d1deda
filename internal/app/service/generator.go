package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
)

// DefaultAlphabet is the 62-symbol mixed-case alphanumeric alphabet.
const DefaultAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// DefaultCodeLength is the length of generated codes.
const DefaultCodeLength = 7

// Generator produces random fixed-length codes over an alphabet.
type Generator struct {
	length   int
	alphabet string
	max      *big.Int
}

// NewGenerator validates the policy and returns a Generator.
func NewGenerator(length int, alphabet string) (*Generator, error) {
	if length <= 0 {
		return nil, fmt.Errorf("%w: code length must be positive, got %d", ErrConfiguration, length)
	}
	if alphabet == "" {
		return nil, fmt.Errorf("%w: alphabet is empty", ErrConfiguration)
	}
	seen := make(map[rune]struct{}, len(alphabet))
	for _, r := range alphabet {
		if r > 127 {
			return nil, fmt.Errorf("%w: alphabet must be ASCII", ErrConfiguration)
		}
		if _, dup := seen[r]; dup {
			return nil, fmt.Errorf("%w: duplicate alphabet symbol %q", ErrConfiguration, r)
		}
		seen[r] = struct{}{}
	}

	return &Generator{
		length:   length,
		alphabet: alphabet,
		max:      big.NewInt(int64(len(alphabet))),
	}, nil
}

// GenerateCode is the one-shot form of Generator.Generate.
func GenerateCode(length int, alphabet string) (string, error) {
	g, err := NewGenerator(length, alphabet)
	if err != nil {
		return "", err
	}
	return g.Generate(), nil
}

// Length returns the configured code length.
func (g *Generator) Length() int {
	return g.length
}

// Alphabet returns the configured alphabet.
func (g *Generator) Alphabet() string {
	return g.alphabet
}

// Generate returns a code of exactly Length symbols.
func (g *Generator) Generate() string {
	return g.Pad("")
}

// Pad appends random symbols to prefix until it is Length long. A prefix
// that is already long enough is truncated.
func (g *Generator) Pad(prefix string) string {
	if len(prefix) >= g.length {
		return prefix[:g.length]
	}

	var sb strings.Builder
	sb.Grow(g.length)
	sb.WriteString(prefix)
	for sb.Len() < g.length {
		sb.WriteByte(g.alphabet[g.randIndex()])
	}
	return sb.String()
}

// Valid reports whether every symbol of s belongs to the alphabet.
func (g *Generator) Valid(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !strings.ContainsRune(g.alphabet, r) {
			return false
		}
	}
	return true
}

// Sanitize drops every symbol of s that is not in the alphabet.
func (g *Generator) Sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(g.alphabet, r) {
			return r
		}
		return -1
	}, s)
}

func (g *Generator) randIndex() int64 {
	n, err := rand.Int(rand.Reader, g.max)
	if err != nil {
		// crypto/rand does not fail on supported platforms.
		panic(err)
	}
	return n.Int64()
}
