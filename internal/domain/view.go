package domain

// ViewState is the student-facing presentation state of a joined session.
// Unjoined is not represented here: a view only exists after a successful
// join, so the zero state a client sees before joining is its own concern.
type ViewState string

const (
	ViewWaiting ViewState = "waiting"
	ViewActive  ViewState = "active"
	ViewEnded   ViewState = "ended"
)

// SessionView is what a joined student needs to render, derived from the
// shared session document plus that student's own response and (for
// student-paced sessions) local position.
type SessionView struct {
	State           ViewState       `json:"state"`
	QuizTitle       string          `json:"quizTitle"`
	Mode            SessionMode     `json:"sessionMode"`
	QuestionIndex   int             `json:"questionIndex"`
	TotalQuestions  int             `json:"totalQuestions"`
	CurrentQuestion *PublicQuestion `json:"currentQuestion,omitempty"`
	AnsweredCount   int             `json:"answeredCount"`
}

// ViewFor derives the presentation state. For teacher-paced sessions the
// shared currentQuestionIndex is authoritative; for student-paced sessions
// the shared index is ignored entirely and localIndex drives the display.
func ViewFor(session *QuizSession, response *StudentResponse, localIndex int) SessionView {
	view := SessionView{
		QuizTitle:      session.QuizTitle,
		Mode:           session.Mode,
		TotalQuestions: session.TotalQuestions,
	}
	if response != nil {
		view.AnsweredCount = len(response.Answers)
	}

	switch session.Status {
	case StatusWaiting:
		view.State = ViewWaiting
		view.QuestionIndex = -1
	case StatusActive:
		view.State = ViewActive
		index := session.CurrentQuestionIndex
		if session.Mode == ModeStudent {
			index = localIndex
		}
		view.QuestionIndex = index
		if q, ok := session.QuestionAt(index); ok {
			view.CurrentQuestion = &q
		}
	default:
		view.State = ViewEnded
		view.QuestionIndex = session.TotalQuestions
	}
	return view
}
