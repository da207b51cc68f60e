// Package moderation flags chat lines that match a blocklist of spam and
// scam patterns, so rooms where the bot holds staff rank get a modnote
// instead of relying on someone being awake.
package moderation

import (
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

// Moderator matches normalized chat text against the blocklist with an
// Aho-Corasick automaton, so scanning stays linear in the message length
// regardless of list size.
type Moderator struct {
	matcher *goahocorasick.Machine
}

// NewModerator builds the automaton from the pattern list. Patterns are
// normalized the same way as scanned text, so "fr33 c0ins" still matches
// "free coins".
func NewModerator(patterns []string) (Moderator, error) {
	normalized := make([][]rune, len(patterns))
	for i, p := range patterns {
		normalized[i] = normalizeRunes([]rune(p))
	}

	m := new(goahocorasick.Machine)
	if err := m.Build(normalized); err != nil {
		return Moderator{}, err
	}
	return Moderator{matcher: m}, nil
}

// Detect returns the blocklist patterns found in text, in match order.
// An empty result means the text is clean.
func (m *Moderator) Detect(text string) []string {
	norm := normalizeRunes([]rune(text))
	if len(norm) == 0 {
		return nil
	}

	spans := m.matcher.MultiPatternSearch(norm, false)
	if len(spans) == 0 {
		return nil
	}

	seen := make(map[string]struct{}, len(spans))
	var found []string
	for _, span := range spans {
		word := string(span.Word)
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		found = append(found, word)
	}
	return found
}

// normalizeRunes lowercases, undoes common leet substitutions and strips
// punctuation, spacing and symbols.
func normalizeRunes(input []rune) []rune {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		clean := simplifyRune(r)
		if isNoise(clean) {
			continue
		}
		out = append(out, unicode.ToLower(clean))
	}
	return out
}

// simplifyRune maps common leet speak characters back to their standard
// alphabet counterparts.
func simplifyRune(r rune) rune {
	switch r {
	case '4', '@':
		return 'a'
	case '3', '€':
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

// isNoise identifies characters ignored during matching.
func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
