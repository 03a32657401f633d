package domain

import "strings"

// Answer string encoding for structured question types. Pairs and items are
// joined with "|"; matching pairs use "left:right". The same encoding is used
// for answer keys and for submitted answers, so grading can compare them
// directly.

const (
	pairSeparator  = "|"
	matchSeparator = ":"
)

// MatchPair is one left-to-right assignment in a matching answer.
type MatchPair struct {
	Left  string
	Right string
}

// EncodeMatching serializes assignments in the given left-item order.
// Unassigned rows encode as "left:" so partial drafts survive a forced
// submission without losing position.
func EncodeMatching(left []string, assignments map[string]string) string {
	pairs := make([]string, 0, len(left))
	for _, l := range left {
		pairs = append(pairs, l+matchSeparator+assignments[l])
	}
	return strings.Join(pairs, pairSeparator)
}

// DecodeMatching parses a matching answer back into pairs. A missing ":"
// yields an empty right side rather than an error.
func DecodeMatching(encoded string) []MatchPair {
	if encoded == "" {
		return nil
	}
	parts := strings.Split(encoded, pairSeparator)
	pairs := make([]MatchPair, 0, len(parts))
	for _, p := range parts {
		left, right, _ := strings.Cut(p, matchSeparator)
		pairs = append(pairs, MatchPair{Left: left, Right: right})
	}
	return pairs
}

// EncodeOrdering serializes items in their final order.
func EncodeOrdering(items []string) string {
	return strings.Join(items, pairSeparator)
}

// DecodeOrdering parses an ordering answer back into its item sequence.
func DecodeOrdering(encoded string) []string {
	if encoded == "" {
		return nil
	}
	return strings.Split(encoded, pairSeparator)
}
