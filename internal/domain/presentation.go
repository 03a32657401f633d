package domain

import (
	"math/rand"
	"strings"
)

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
const codeLength = 6

// NewJoinCode mints an opaque upper-case join code.
func NewJoinCode(rnd *rand.Rand) string {
	var b strings.Builder
	b.Grow(codeLength)
	for i := 0; i < codeLength; i++ {
		b.WriteByte(codeAlphabet[rnd.Intn(len(codeAlphabet))])
	}
	return b.String()
}

// NormalizeCode strips non-alphanumerics and upper-cases a join code before
// lookup, matching how codes are minted.
func NormalizeCode(code string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(code) {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - 'a' + 'A')
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// BuildPublicQuestions projects authored questions into their student-safe
// form. All shuffling happens here, once per session; everything downstream
// treats the resulting order as the fixed presentation order. Re-shuffling on
// the student side would desynchronize what the student saw from what the
// teacher's review assumes was displayed.
func BuildPublicQuestions(questions []Question, rnd *rand.Rand) []PublicQuestion {
	public := make([]PublicQuestion, 0, len(questions))
	for _, q := range questions {
		pq := PublicQuestion{
			ID:        q.ID,
			Type:      q.Type,
			Text:      q.Text,
			TimeLimit: q.TimeLimit,
		}
		switch q.Type {
		case TypeMC:
			choices := []string{q.CorrectAnswer}
			for _, wrong := range q.IncorrectAnswers {
				if wrong != "" {
					choices = append(choices, wrong)
				}
			}
			pq.Choices = shuffled(choices, rnd)
		case TypeMatching:
			pairs := DecodeMatching(q.CorrectAnswer)
			left := make([]string, 0, len(pairs))
			right := make([]string, 0, len(pairs))
			for _, p := range pairs {
				left = append(left, p.Left)
				right = append(right, p.Right)
			}
			pq.MatchingLeft = left
			pq.MatchingRight = shuffled(right, rnd)
		case TypeOrdering:
			pq.OrderingItems = shuffled(DecodeOrdering(q.CorrectAnswer), rnd)
		}
		public = append(public, pq)
	}
	return public
}

// shuffled returns a Fisher-Yates shuffled copy.
func shuffled(items []string, rnd *rand.Rand) []string {
	out := append([]string(nil), items...)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
