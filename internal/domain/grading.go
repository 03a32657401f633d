package domain

import "strings"

// normalize lowercases, trims, and collapses internal whitespace so grading
// tolerates spacing and casing differences.
func normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Grade checks a submitted answer against the authored question.
//
// MC and FIB compare normalized text. Matching compares the pair sets, so
// pair order does not matter. Ordering compares the exact sequence.
func Grade(q Question, answer string) bool {
	correct := normalize(q.CorrectAnswer)
	given := normalize(answer)

	switch q.Type {
	case TypeMC, TypeFIB, TypeOrdering:
		return correct == given
	case TypeMatching:
		correctSet := make(map[string]struct{})
		for _, p := range strings.Split(correct, pairSeparator) {
			correctSet[normalize(p)] = struct{}{}
		}
		givenParts := strings.Split(given, pairSeparator)
		if len(givenParts) != len(correctSet) {
			return false
		}
		for _, p := range givenParts {
			if _, ok := correctSet[normalize(p)]; !ok {
				return false
			}
		}
		return true
	}
	return false
}

// Score counts correct answers in a response against the authored quiz.
func Score(quiz Quiz, response StudentResponse) (correct, total int) {
	total = len(quiz.Questions)
	for _, a := range response.Answers {
		for i := range quiz.Questions {
			if quiz.Questions[i].ID == a.QuestionID && Grade(quiz.Questions[i], a.Answer) {
				correct++
				break
			}
		}
	}
	return correct, total
}
