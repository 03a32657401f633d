package domain

import "fmt"

// AnswerDraft is the transient, discardable state a student builds up before
// submitting. Drafts are never persisted; a forced timeout submission encodes
// whatever partial state exists at that moment.
type AnswerDraft interface {
	// QuestionID ties the draft to one question; drafts are discarded when
	// the question changes.
	QuestionID() string
	// Complete reports whether the draft satisfies its submission gate.
	Complete() bool
	// Encode serializes the current state, partial or not.
	Encode() string
}

// NewDraft builds the appropriate draft for a public question.
func NewDraft(q PublicQuestion) AnswerDraft {
	switch q.Type {
	case TypeMatching:
		return NewMatchingDraft(q)
	case TypeOrdering:
		return NewOrderingDraft(q)
	default:
		return &TextDraft{questionID: q.ID}
	}
}

// TextDraft holds an MC selection or FIB text entry.
type TextDraft struct {
	questionID string
	Text       string
}

func (d *TextDraft) QuestionID() string { return d.questionID }
func (d *TextDraft) Complete() bool     { return d.Text != "" }
func (d *TextDraft) Encode() string     { return d.Text }

// SetText replaces the draft text.
func (d *TextDraft) SetText(text string) { d.Text = text }

// MatchingDraft assigns each left item to one right-hand option. Duplicate
// right-hand assignments are allowed; uniqueness is a grading-time concern.
type MatchingDraft struct {
	questionID  string
	left        []string
	right       []string
	assignments map[string]string
}

// NewMatchingDraft starts an empty assignment over the question's
// presentation order.
func NewMatchingDraft(q PublicQuestion) *MatchingDraft {
	return &MatchingDraft{
		questionID:  q.ID,
		left:        append([]string(nil), q.MatchingLeft...),
		right:       append([]string(nil), q.MatchingRight...),
		assignments: make(map[string]string, len(q.MatchingLeft)),
	}
}

func (d *MatchingDraft) QuestionID() string { return d.questionID }

// Assign sets the right-hand choice for a left item. Assigning "" clears it.
func (d *MatchingDraft) Assign(left, right string) error {
	if !contains(d.left, left) {
		return fmt.Errorf("assign %q: %w", left, ErrQuestionNotFound)
	}
	if right == "" {
		delete(d.assignments, left)
		return nil
	}
	d.assignments[left] = right
	return nil
}

// Complete is true once every left item has a non-empty assignment.
func (d *MatchingDraft) Complete() bool {
	for _, l := range d.left {
		if d.assignments[l] == "" {
			return false
		}
	}
	return len(d.left) > 0
}

func (d *MatchingDraft) Encode() string {
	return EncodeMatching(d.left, d.assignments)
}

// OrderingDraft is a reorderable permutation of the presented items. Items
// are only ever moved, never added or removed, so the length and element set
// stay fixed.
type OrderingDraft struct {
	questionID string
	items      []string
}

// NewOrderingDraft starts from the shuffled presentation order, not sorted.
func NewOrderingDraft(q PublicQuestion) *OrderingDraft {
	return &OrderingDraft{
		questionID: q.ID,
		items:      append([]string(nil), q.OrderingItems...),
	}
}

func (d *OrderingDraft) QuestionID() string { return d.questionID }

// Items returns a copy of the current order.
func (d *OrderingDraft) Items() []string {
	return append([]string(nil), d.items...)
}

// MoveUp swaps the item at i with its predecessor.
func (d *OrderingDraft) MoveUp(i int) {
	if i > 0 && i < len(d.items) {
		d.items[i-1], d.items[i] = d.items[i], d.items[i-1]
	}
}

// MoveDown swaps the item at i with its successor.
func (d *OrderingDraft) MoveDown(i int) {
	if i >= 0 && i < len(d.items)-1 {
		d.items[i], d.items[i+1] = d.items[i+1], d.items[i]
	}
}

// Move relocates the item at from to position to, shifting the rest.
func (d *OrderingDraft) Move(from, to int) {
	if from < 0 || from >= len(d.items) || to < 0 || to >= len(d.items) || from == to {
		return
	}
	item := d.items[from]
	rest := append(d.items[:from:from], d.items[from+1:]...)
	d.items = append(rest[:to:to], append([]string{item}, rest[to:]...)...)
}

// Complete is true when the draft still holds the full permutation.
func (d *OrderingDraft) Complete() bool {
	return len(d.items) > 0
}

func (d *OrderingDraft) Encode() string {
	return EncodeOrdering(d.items)
}

// SamePermutation reports whether got is a reordering of want (same length,
// same multiset of items).
func SamePermutation(want, got []string) bool {
	if len(want) != len(got) {
		return false
	}
	counts := make(map[string]int, len(want))
	for _, w := range want {
		counts[w]++
	}
	for _, g := range got {
		counts[g]--
		if counts[g] < 0 {
			return false
		}
	}
	return true
}

func contains(items []string, target string) bool {
	for _, item := range items {
		if item == target {
			return true
		}
	}
	return false
}
