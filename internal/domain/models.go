package domain

import "time"

// SessionStatus is the lifecycle state of a live quiz session.
type SessionStatus string

const (
	StatusWaiting SessionStatus = "waiting"
	StatusActive  SessionStatus = "active"
	StatusEnded   SessionStatus = "ended"
)

// SessionMode determines who controls question progression.
type SessionMode string

const (
	// ModeTeacher means currentQuestionIndex is authoritative for everyone.
	ModeTeacher SessionMode = "teacher"
	// ModeStudent means each student advances independently once active.
	ModeStudent SessionMode = "student"
)

// QuestionType enumerates the supported question kinds.
type QuestionType string

const (
	TypeMC       QuestionType = "MC"
	TypeFIB      QuestionType = "FIB"
	TypeMatching QuestionType = "Matching"
	TypeOrdering QuestionType = "Ordering"
)

// Question is the authored form of a quiz question, answer key included.
// It never leaves the server; students only ever see PublicQuestion.
//
// CorrectAnswer encoding by type:
//   - MC/FIB: the answer text
//   - Matching: "left:right|left:right|..."
//   - Ordering: "first|second|..." in the correct order
type Question struct {
	ID               string       `json:"id" bson:"id"`
	Type             QuestionType `json:"type" bson:"type"`
	Text             string       `json:"text" bson:"text"`
	TimeLimit        int          `json:"timeLimit,omitempty" bson:"timeLimit,omitempty"` // seconds, 0 = untimed
	CorrectAnswer    string       `json:"correctAnswer" bson:"correctAnswer"`
	IncorrectAnswers []string     `json:"incorrectAnswers,omitempty" bson:"incorrectAnswers,omitempty"`
}

// Quiz is an authored question set.
type Quiz struct {
	ID        string     `json:"id" bson:"id"`
	Title     string     `json:"title" bson:"title"`
	Questions []Question `json:"questions" bson:"questions"`
}

// PublicQuestion is the student-safe projection of a Question. The
// presentation slices (Choices, MatchingRight, OrderingItems) are shuffled
// exactly once at session creation; consumers must render them verbatim.
type PublicQuestion struct {
	ID            string       `json:"id" bson:"id"`
	Type          QuestionType `json:"type" bson:"type"`
	Text          string       `json:"text" bson:"text"`
	TimeLimit     int          `json:"timeLimit,omitempty" bson:"timeLimit,omitempty"`
	Choices       []string     `json:"choices,omitempty" bson:"choices,omitempty"`
	MatchingLeft  []string     `json:"matchingLeft,omitempty" bson:"matchingLeft,omitempty"`
	MatchingRight []string     `json:"matchingRight,omitempty" bson:"matchingRight,omitempty"`
	OrderingItems []string     `json:"orderingItems,omitempty" bson:"orderingItems,omitempty"`
}

// QuizSession is the shared session document, one per live quiz.
// Sessions are keyed by the teacher's UID: one live session per teacher.
type QuizSession struct {
	ID                   string           `json:"id" bson:"_id"`
	QuizID               string           `json:"quizId" bson:"quizId"`
	QuizTitle            string           `json:"quizTitle" bson:"quizTitle"`
	TeacherUID           string           `json:"teacherUid" bson:"teacherUid"`
	Code                 string           `json:"code" bson:"code"`
	Status               SessionStatus    `json:"status" bson:"status"`
	Mode                 SessionMode      `json:"sessionMode" bson:"sessionMode"`
	CurrentQuestionIndex int              `json:"currentQuestionIndex" bson:"currentQuestionIndex"`
	TotalQuestions       int              `json:"totalQuestions" bson:"totalQuestions"`
	PublicQuestions      []PublicQuestion `json:"publicQuestions" bson:"publicQuestions"`
	CreatedAt            time.Time        `json:"createdAt" bson:"createdAt"`
	StartedAt            *time.Time       `json:"startedAt,omitempty" bson:"startedAt,omitempty"`
	EndedAt              *time.Time       `json:"endedAt,omitempty" bson:"endedAt,omitempty"`
}

// QuestionAt returns the public question at index, if in range.
func (s *QuizSession) QuestionAt(index int) (PublicQuestion, bool) {
	if index < 0 || index >= len(s.PublicQuestions) {
		return PublicQuestion{}, false
	}
	return s.PublicQuestions[index], true
}

// PublicQuestionByID looks up a public question by its stable ID.
func (s *QuizSession) PublicQuestionByID(questionID string) (PublicQuestion, bool) {
	for i := range s.PublicQuestions {
		if s.PublicQuestions[i].ID == questionID {
			return s.PublicQuestions[i], true
		}
	}
	return PublicQuestion{}, false
}

// ResponseStatus tracks a student's progress through a session.
type ResponseStatus string

const (
	ResponseJoined     ResponseStatus = "joined"
	ResponseInProgress ResponseStatus = "in-progress"
	ResponseCompleted  ResponseStatus = "completed"
)

// Answer is one submitted answer within a response.
type Answer struct {
	QuestionID string    `json:"questionId" bson:"questionId"`
	Answer     string    `json:"answer" bson:"answer"`
	AnsweredAt time.Time `json:"answeredAt" bson:"answeredAt"`
}

// StudentResponse is one student's per-session record. Only that student's
// own submission actions mutate it.
type StudentResponse struct {
	ID           string         `json:"id" bson:"_id"`
	StudentUID   string         `json:"studentUid" bson:"studentUid"`
	StudentName  string         `json:"studentName" bson:"studentName"`
	StudentEmail string         `json:"studentEmail" bson:"studentEmail"`
	JoinedAt     time.Time      `json:"joinedAt" bson:"joinedAt"`
	Status       ResponseStatus `json:"status" bson:"status"`
	Answers      []Answer       `json:"answers" bson:"answers"`
	SubmittedAt  *time.Time     `json:"submittedAt,omitempty" bson:"submittedAt,omitempty"`
}

// HasAnswered reports whether an answer for questionID was already recorded.
func (r *StudentResponse) HasAnswered(questionID string) bool {
	_, ok := r.AnswerFor(questionID)
	return ok
}

// AnswerFor returns the recorded answer for questionID, if any.
func (r *StudentResponse) AnswerFor(questionID string) (Answer, bool) {
	for _, a := range r.Answers {
		if a.QuestionID == questionID {
			return a, true
		}
	}
	return Answer{}, false
}

// GradedResponse pairs a response with its server-computed score for the
// teacher's live monitor.
type GradedResponse struct {
	Response StudentResponse `json:"response"`
	Correct  int             `json:"correct"`
	Total    int             `json:"total"`
}
