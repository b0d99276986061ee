// Package moderation censors blacklisted words in message text before it is
// stored. Matching runs over a normalized view of the text (lower-cased,
// leet-speak folded, punctuation stripped) while masking happens on the
// original runes, so spacing and length are preserved.
package moderation

import (
	"log/slog"
	"unicode"

	goahocorasick "github.com/anknown/ahocorasick"
)

type Moderator struct {
	machine *goahocorasick.Machine
	mask    rune
	log     *slog.Logger
}

// NewModerator builds the Aho-Corasick automaton from the normalized word
// list. Building is the expensive part; Censor itself is a single scan.
func NewModerator(words []string, mask rune, log *slog.Logger) (Moderator, error) {
	patterns := make([][]rune, len(words))
	for i, word := range words {
		patterns[i], _ = normalize([]rune(word))
	}

	machine := new(goahocorasick.Machine)
	if err := machine.Build(patterns); err != nil {
		return Moderator{}, err
	}
	return Moderator{machine: machine, mask: mask, log: log}, nil
}

// Censor masks every blacklisted span in the input and returns the censored
// text together with the normalized words that matched.
func (m *Moderator) Censor(original string) (string, []string) {
	origRunes := []rune(original)
	normalized, originIdx := normalize(origRunes)
	if len(normalized) == 0 {
		return original, nil
	}

	spans := m.machine.MultiPatternSearch(normalized, false)
	if len(spans) == 0 {
		return original, nil
	}

	var matched []string
	for _, span := range spans {
		start := span.Pos
		end := start + len(span.Word)
		if start < 0 || end > len(originIdx) {
			continue
		}
		matched = append(matched, string(span.Word))

		// Mask every original rune between the first and last matched
		// normalized rune, covering any noise characters in between.
		for i := originIdx[start]; i <= originIdx[end-1]; i++ {
			origRunes[i] = m.mask
		}
	}
	if len(matched) > 0 {
		m.log.Debug("Censored message text", "matches", len(matched))
	}
	return string(origRunes), matched
}

// normalize lower-cases, folds leet speak, and drops noise runes. The second
// return value maps each normalized rune back to its original index.
func normalize(input []rune) ([]rune, []int) {
	normalized := make([]rune, 0, len(input))
	originIdx := make([]int, 0, len(input))
	for i, r := range input {
		folded := foldLeet(r)
		if isNoise(folded) {
			continue
		}
		normalized = append(normalized, unicode.ToLower(folded))
		originIdx = append(originIdx, i)
	}
	return normalized, originIdx
}

// foldLeet maps common leet-speak substitutions back to plain letters.
func foldLeet(r rune) rune {
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

func isNoise(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSpace(r) || unicode.IsSymbol(r)
}
