// Package moderation masks forbidden words in message text before it is
// persisted and broadcast.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Masker replaces forbidden patterns with the mask rune.
// Matching is insensitive to case, punctuation, spacing, and common leet
// substitutions; masking rewrites only the original runes that matched.
type Masker struct {
	machine  *goahocorasick.Machine
	maskRune rune
}

// NewMasker builds the Aho-Corasick automaton over the normalized word list.
// An empty list yields a nil Masker, which passes text through untouched.
func NewMasker(words []string, maskRune rune) (*Masker, error) {
	if len(words) == 0 {
		return nil, nil
	}
	patterns := make([][]rune, 0, len(words))
	for _, w := range words {
		if normalized := normalize([]rune(w)); len(normalized) > 0 {
			patterns = append(patterns, normalized)
		}
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return nil, err
	}
	return &Masker{machine: machine, maskRune: maskRune}, nil
}

// Mask returns the text with every forbidden span replaced by the mask rune,
// and whether anything was masked.
func (m *Masker) Mask(text string) (string, bool) {
	if m == nil {
		return text, false
	}

	original := []rune(text)
	searchable := make([]rune, 0, len(original))
	origIdx := make([]int, 0, len(original))
	for i, r := range original {
		clean := unleet(r)
		if isNoise(clean) {
			continue
		}
		searchable = append(searchable, unicode.ToLower(clean))
		origIdx = append(origIdx, i)
	}
	if len(searchable) == 0 {
		return text, false
	}

	spans := m.machine.MultiPatternSearch(searchable, false)
	if len(spans) == 0 {
		return text, false
	}

	masked := false
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(origIdx) {
			continue
		}
		// Map normalized positions back to the original rune range,
		// mask rune noise in between included.
		for i := origIdx[start]; i <= origIdx[end-1]; i++ {
			original[i] = m.maskRune
		}
		masked = true
	}
	return string(original), masked
}

func normalize(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := unleet(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// unleet maps common leet-speak characters back to their alphabet counterparts.
func unleet(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3':
		return 'e'
	case '1', '!', '|':
		return 'i'
	case '0':
		return 'o'
	case '5', '$':
		return 's'
	default:
		return r
	}
}

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
