package domain

import "testing"

func TestGradeMCAndFIBNormalizes(t *testing.T) {
	q := Question{ID: "q1", Type: TypeFIB, CorrectAnswer: "The  Mitochondria"}
	if !Grade(q, "  the mitochondria ") {
		t.Fatalf("expected normalized match")
	}
	if Grade(q, "chloroplast") {
		t.Fatalf("expected mismatch")
	}

	mc := Question{ID: "q2", Type: TypeMC, CorrectAnswer: "4"}
	if !Grade(mc, "4") || Grade(mc, "5") {
		t.Fatalf("unexpected MC grading")
	}
}

func TestGradeMatchingIgnoresPairOrder(t *testing.T) {
	q := Question{ID: "q3", Type: TypeMatching, CorrectAnswer: "A:X|B:Y"}
	if !Grade(q, "B:Y|A:X") {
		t.Fatalf("pair order must not matter")
	}
	if Grade(q, "A:Y|B:X") {
		t.Fatalf("wrong assignments must fail")
	}
	if Grade(q, "A:X") {
		t.Fatalf("missing pair must fail")
	}
}

func TestGradeOrderingIsExact(t *testing.T) {
	q := Question{ID: "q4", Type: TypeOrdering, CorrectAnswer: "first|second|third"}
	if !Grade(q, "First|Second|Third") {
		t.Fatalf("case must not matter")
	}
	if Grade(q, "second|first|third") {
		t.Fatalf("sequence must matter")
	}
}

func TestScore(t *testing.T) {
	quiz := Quiz{
		ID: "quiz-1",
		Questions: []Question{
			{ID: "q1", Type: TypeMC, CorrectAnswer: "4"},
			{ID: "q2", Type: TypeFIB, CorrectAnswer: "Paris"},
			{ID: "q3", Type: TypeOrdering, CorrectAnswer: "a|b"},
		},
	}
	response := StudentResponse{
		Answers: []Answer{
			{QuestionID: "q1", Answer: "4"},
			{QuestionID: "q2", Answer: "london"},
		},
	}

	correct, total := Score(quiz, response)
	if correct != 1 || total != 3 {
		t.Fatalf("expected 1/3, got %d/%d", correct, total)
	}
}
