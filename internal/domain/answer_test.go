package domain

import "testing"

func TestEncodeMatching(t *testing.T) {
	left := []string{"A", "B"}
	assignments := map[string]string{"A": "X", "B": "Y"}

	got := EncodeMatching(left, assignments)
	if got != "A:X|B:Y" {
		t.Fatalf("expected A:X|B:Y, got %q", got)
	}
}

func TestEncodeMatchingPartial(t *testing.T) {
	left := []string{"A", "B", "C"}
	assignments := map[string]string{"B": "Y"}

	got := EncodeMatching(left, assignments)
	if got != "A:|B:Y|C:" {
		t.Fatalf("expected unassigned rows to keep position, got %q", got)
	}
}

func TestDecodeMatching(t *testing.T) {
	pairs := DecodeMatching("A:X|B:Y")
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Left != "A" || pairs[0].Right != "X" {
		t.Fatalf("unexpected first pair: %+v", pairs[0])
	}
	if pairs[1].Left != "B" || pairs[1].Right != "Y" {
		t.Fatalf("unexpected second pair: %+v", pairs[1])
	}
}

func TestDecodeMatchingMissingSeparator(t *testing.T) {
	pairs := DecodeMatching("A")
	if len(pairs) != 1 || pairs[0].Left != "A" || pairs[0].Right != "" {
		t.Fatalf("expected lenient decode, got %+v", pairs)
	}
}

func TestOrderingCodec(t *testing.T) {
	items := []string{"first", "second", "third"}
	encoded := EncodeOrdering(items)
	if encoded != "first|second|third" {
		t.Fatalf("unexpected encoding %q", encoded)
	}
	decoded := DecodeOrdering(encoded)
	if len(decoded) != 3 || decoded[0] != "first" || decoded[2] != "third" {
		t.Fatalf("unexpected decode %v", decoded)
	}
	if DecodeOrdering("") != nil {
		t.Fatalf("expected nil for empty encoding")
	}
}
