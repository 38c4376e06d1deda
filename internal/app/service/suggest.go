package service

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

const (
	// MaxSuggestions bounds the count accepted by Suggest.
	MaxSuggestions = 20

	attemptsPerKeyword = 5
)

var keywordDenylist = map[string]struct{}{
	"www": {}, "com": {}, "net": {}, "org": {}, "io": {}, "co": {},
	"blog": {}, "dev": {}, "app": {}, "web": {}, "site": {}, "page": {},
	"html": {}, "htm": {}, "php": {}, "index": {}, "http": {}, "https": {},
}

var fallbackKeywords = []string{"link", "url", "short"}

// Suggester derives readable candidate codes from a URL or a prefix.
// Suggestions are advisory: nothing is reserved.
type Suggester struct {
	gen   *Generator
	store CodeChecker
	codes CodeSource
}

// NewSuggester builds a Suggester that pads with codes from codes.
func NewSuggester(gen *Generator, store CodeChecker, codes CodeSource) *Suggester {
	return &Suggester{gen: gen, store: store, codes: codes}
}

// Suggest returns at most count distinct codes of the configured length. It
// returns fewer only when the code space is exhausted.
func (s *Suggester) Suggest(ctx context.Context, count int, originalURL, prefix string) ([]string, error) {
	if count < 1 || count > MaxSuggestions {
		return nil, invalidArgument("count must be between 1 and %d, got %d", MaxSuggestions, count)
	}

	res := make([]string, 0, count)
	seen := make(map[string]struct{}, count)

	for _, kw := range s.keywords(originalURL, prefix) {
		if len(res) == count {
			return res, nil
		}

		code, err := s.fromKeyword(ctx, kw, seen)
		if err != nil {
			return nil, err
		}
		if code != "" {
			seen[code] = struct{}{}
			res = append(res, code)
		}
	}

	for tries := 0; len(res) < count && tries < count*3; tries++ {
		code, err := s.codes.TakeCode(ctx)
		if errors.Is(err, ErrCodeSpaceExhausted) {
			break
		}
		if err != nil {
			return nil, err
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		res = append(res, code)
	}

	return res, nil
}

// fromKeyword returns a free code built from kw, or "" when every attempt
// collided.
func (s *Suggester) fromKeyword(ctx context.Context, kw string, seen map[string]struct{}) (string, error) {
	length := s.gen.Length()
	for attempt := 0; attempt < attemptsPerKeyword; attempt++ {
		var candidate string
		switch {
		case len(kw) >= length && attempt == 0:
			candidate = kw[:length]
		case len(kw) >= length:
			// keep all but the last symbol and randomize the tail
			candidate = s.gen.Pad(kw[:length-1])
		default:
			candidate = s.gen.Pad(kw)
		}

		if _, dup := seen[candidate]; dup {
			continue
		}

		existing, err := s.store.FindExistingCodes(ctx, []string{candidate})
		if err != nil {
			return "", storeError(err)
		}
		if _, taken := existing[candidate]; !taken {
			return candidate, nil
		}
	}
	return "", nil
}

// keywords returns the candidate stems in priority order.
func (s *Suggester) keywords(originalURL, prefix string) []string {
	if p := s.gen.Sanitize(strings.TrimSpace(prefix)); p != "" {
		return []string{p}
	}

	var kws []string
	seen := make(map[string]struct{})
	add := func(parts []string) {
		for _, part := range parts {
			part = s.gen.Sanitize(strings.ToLower(part))
			if len(part) < 2 {
				continue
			}
			if _, deny := keywordDenylist[part]; deny {
				continue
			}
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			kws = append(kws, part)
		}
	}

	if u, err := url.Parse(strings.TrimSpace(originalURL)); err == nil {
		add(splitWords(u.Hostname(), ".-"))
		add(splitWords(u.Path, "/-_."))
	}

	if len(kws) == 0 {
		add(fallbackKeywords)
	}
	return kws
}

func splitWords(s, seps string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
}
