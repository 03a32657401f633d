package domain

import "testing"

func matchingQuestion() PublicQuestion {
	return PublicQuestion{
		ID:            "q-match",
		Type:          TypeMatching,
		MatchingLeft:  []string{"A", "B"},
		MatchingRight: []string{"Y", "X"},
	}
}

func orderingQuestion() PublicQuestion {
	return PublicQuestion{
		ID:            "q-order",
		Type:          TypeOrdering,
		OrderingItems: []string{"c", "a", "b"},
	}
}

func TestMatchingDraftCompleteness(t *testing.T) {
	draft := NewMatchingDraft(matchingQuestion())
	if draft.Complete() {
		t.Fatalf("empty draft must not be complete")
	}

	if err := draft.Assign("A", "X"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if draft.Complete() {
		t.Fatalf("draft with unassigned row must not be complete")
	}

	if err := draft.Assign("B", "Y"); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !draft.Complete() {
		t.Fatalf("fully assigned draft must be complete")
	}
	if got := draft.Encode(); got != "A:X|B:Y" {
		t.Fatalf("unexpected encoding %q", got)
	}
}

func TestMatchingDraftAllowsDuplicateAssignments(t *testing.T) {
	draft := NewMatchingDraft(matchingQuestion())
	_ = draft.Assign("A", "X")
	_ = draft.Assign("B", "X")
	if !draft.Complete() {
		t.Fatalf("duplicate right-hand picks are allowed")
	}
	if got := draft.Encode(); got != "A:X|B:X" {
		t.Fatalf("unexpected encoding %q", got)
	}
}

func TestMatchingDraftRejectsUnknownLeft(t *testing.T) {
	draft := NewMatchingDraft(matchingQuestion())
	if err := draft.Assign("Z", "X"); err == nil {
		t.Fatalf("expected error for unknown left item")
	}
}

func TestMatchingDraftClearAssignment(t *testing.T) {
	draft := NewMatchingDraft(matchingQuestion())
	_ = draft.Assign("A", "X")
	_ = draft.Assign("A", "")
	if got := draft.Encode(); got != "A:|B:" {
		t.Fatalf("expected cleared assignment, got %q", got)
	}
}

func TestOrderingDraftStartsFromPresentationOrder(t *testing.T) {
	draft := NewOrderingDraft(orderingQuestion())
	items := draft.Items()
	if items[0] != "c" || items[1] != "a" || items[2] != "b" {
		t.Fatalf("initial order must equal shuffled presentation order, got %v", items)
	}
}

func TestOrderingDraftMovesPreserveItems(t *testing.T) {
	draft := NewOrderingDraft(orderingQuestion())
	original := draft.Items()

	draft.MoveUp(1)
	draft.MoveDown(0)
	draft.Move(2, 0)
	draft.MoveUp(0)   // no-op at boundary
	draft.MoveDown(2) // no-op at boundary
	draft.Move(-1, 1) // out of range

	items := draft.Items()
	if len(items) != len(original) {
		t.Fatalf("reordering changed length: %v", items)
	}
	if !SamePermutation(original, items) {
		t.Fatalf("reordering changed item set: %v vs %v", original, items)
	}
}

func TestOrderingDraftEncode(t *testing.T) {
	draft := NewOrderingDraft(orderingQuestion())
	draft.MoveUp(1) // a c b
	draft.MoveDown(1)
	if got := draft.Encode(); got != "a|b|c" {
		t.Fatalf("unexpected encoding %q", got)
	}
}

func TestNewDraftPicksConcreteType(t *testing.T) {
	if _, ok := NewDraft(matchingQuestion()).(*MatchingDraft); !ok {
		t.Fatalf("expected matching draft")
	}
	if _, ok := NewDraft(orderingQuestion()).(*OrderingDraft); !ok {
		t.Fatalf("expected ordering draft")
	}
	text, ok := NewDraft(PublicQuestion{ID: "q", Type: TypeFIB}).(*TextDraft)
	if !ok {
		t.Fatalf("expected text draft")
	}
	text.SetText("hello")
	if !text.Complete() || text.Encode() != "hello" {
		t.Fatalf("unexpected text draft state")
	}
}

func TestSamePermutation(t *testing.T) {
	if !SamePermutation([]string{"a", "b", "b"}, []string{"b", "a", "b"}) {
		t.Fatalf("expected permutation match")
	}
	if SamePermutation([]string{"a", "b"}, []string{"a", "a"}) {
		t.Fatalf("expected multiset mismatch")
	}
	if SamePermutation([]string{"a"}, []string{"a", "a"}) {
		t.Fatalf("expected length mismatch")
	}
}
