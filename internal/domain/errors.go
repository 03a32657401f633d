package domain

import "errors"

var (
	// ErrSessionNotFound is returned when no live session matches a code or ID.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrSessionEnded is returned when joining a session that already ended.
	ErrSessionEnded = errors.New("quiz session has already ended")
	// ErrInvalidCode is returned when a join code is empty after normalization.
	ErrInvalidCode = errors.New("invalid join code")
	// ErrMissingEmail is returned when the identity provider supplied no email.
	ErrMissingEmail = errors.New("student email is required")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a submitted question ID is not in the session.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrResponseNotFound is returned when a student acts before joining.
	ErrResponseNotFound = errors.New("student has not joined this session")
	// ErrIncompleteAnswer is returned when a structured answer fails its
	// completeness gate (unassigned matching row, non-permutation ordering).
	ErrIncompleteAnswer = errors.New("answer is incomplete")
	// ErrNotStudentPaced is returned when a student tries to advance locally
	// in a teacher-paced session.
	ErrNotStudentPaced = errors.New("session is not student-paced")
)
