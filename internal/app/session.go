package app

import (
	"sync"
	"time"

	"classdeck-quiz-service/internal/domain"
)

// Update is one push to a subscriber. Exactly one of the groups is set:
// View+Response for a student snapshot, View+Responses for the teacher
// monitor, or Countdown for a timer tick.
type Update struct {
	View      *domain.SessionView      `json:"view,omitempty"`
	Response  *domain.StudentResponse  `json:"response,omitempty"`
	Responses []domain.GradedResponse  `json:"responses,omitempty"`
	Countdown *CountdownTick           `json:"countdown,omitempty"`
}

type subscriber struct {
	uid     string
	teacher bool
}

type draftState struct {
	questionID string
	text       string
}

// Session is the in-memory runtime for one live quiz session: the shared
// document, every student's response, per-student pacing state, transient
// drafts, active countdowns, and the subscriber set that stands in for the
// document store's push channel.
type Session struct {
	mu          sync.RWMutex
	doc         domain.QuizSession
	authored    domain.Quiz // answer keys; never serialized to students
	responses   map[string]*domain.StudentResponse
	localIndex  map[string]int
	drafts      map[string]draftState
	countdowns  map[string]*countdown
	subscribers map[chan Update]subscriber

	now       func() time.Time
	newTicker TickerFactory

	// forceSubmit is invoked outside the session lock when a countdown
	// expires; the service wires it to the forced-submission path.
	forceSubmit func(uid, questionID, answer string)
}

// NewSession builds a runtime for a freshly created session document.
func NewSession(doc domain.QuizSession, authored domain.Quiz) *Session {
	return NewSessionWithClock(doc, authored, time.Now, wallTicker)
}

// NewSessionWithClock is for deterministic timestamps and timers in tests.
func NewSessionWithClock(doc domain.QuizSession, authored domain.Quiz, now func() time.Time, tickers TickerFactory) *Session {
	return &Session{
		doc:         doc,
		authored:    authored,
		responses:   make(map[string]*domain.StudentResponse),
		localIndex:  make(map[string]int),
		drafts:      make(map[string]draftState),
		countdowns:  make(map[string]*countdown),
		subscribers: make(map[chan Update]subscriber),
		now:         now,
		newTicker:   tickers,
	}
}

// ID returns the session document ID (the teacher UID).
func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.ID
}

// Code returns the session's join code.
func (s *Session) Code() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Code
}

// Document returns a copy of the shared session document.
func (s *Session) Document() domain.QuizSession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc
}

// Status returns the current lifecycle state.
func (s *Session) Status() domain.SessionStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.Status
}

func (s *Session) question(questionID string) (domain.PublicQuestion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.doc.PublicQuestionByID(questionID)
}

// join creates the student's response record or re-attaches to an existing
// one, so duplicate auto-join attempts stay idempotent.
func (s *Session) join(uid, name, email, responseID string) (domain.StudentResponse, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.responses[uid]
	created := false
	if !ok {
		resp = &domain.StudentResponse{
			ID:           responseID,
			StudentUID:   uid,
			StudentName:  name,
			StudentEmail: email,
			JoinedAt:     s.now(),
			Status:       domain.ResponseJoined,
			Answers:      []domain.Answer{},
		}
		s.responses[uid] = resp
		s.localIndex[uid] = 0
		created = true
	}

	if s.doc.Status == domain.StatusActive {
		if q, ok := s.currentQuestionForLocked(uid); ok {
			s.armCountdownLocked(uid, q)
		}
	}
	s.broadcastLocked()
	return *resp, created
}

// submit records an answer. A second submission for the same question is a
// silent no-op (changed=false): at most one answer per question per student.
func (s *Session) submit(uid, questionID, answer string) (domain.StudentResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.responses[uid]
	if !ok {
		return domain.StudentResponse{}, false, domain.ErrResponseNotFound
	}
	if _, ok := s.doc.PublicQuestionByID(questionID); !ok {
		return domain.StudentResponse{}, false, domain.ErrQuestionNotFound
	}
	if resp.HasAnswered(questionID) {
		return *resp, false, nil
	}

	now := s.now()
	resp.Answers = append(resp.Answers, domain.Answer{
		QuestionID: questionID,
		Answer:     answer,
		AnsweredAt: now,
	})
	if resp.Status == domain.ResponseJoined {
		resp.Status = domain.ResponseInProgress
	}
	s.stopCountdownLocked(uid)
	delete(s.drafts, uid)

	// Answering the last question completes the response without a separate
	// user action.
	if s.positionLocked(uid) >= s.doc.TotalQuestions-1 && resp.Status != domain.ResponseCompleted {
		resp.Status = domain.ResponseCompleted
		resp.SubmittedAt = &now
	}

	s.broadcastLocked()
	return *resp, true, nil
}

// complete marks the response completed, if it is not already.
func (s *Session) complete(uid string) (domain.StudentResponse, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	resp, ok := s.responses[uid]
	if !ok {
		return domain.StudentResponse{}, false, domain.ErrResponseNotFound
	}
	if resp.Status == domain.ResponseCompleted {
		return *resp, false, nil
	}
	now := s.now()
	resp.Status = domain.ResponseCompleted
	resp.SubmittedAt = &now
	s.stopCountdownLocked(uid)
	s.broadcastLocked()
	return *resp, true, nil
}

// advanceLocal moves a student-paced client to its next question. The shared
// currentQuestionIndex never moves a student-paced display; only this does.
func (s *Session) advanceLocal(uid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Mode != domain.ModeStudent {
		return domain.ErrNotStudentPaced
	}
	resp, ok := s.responses[uid]
	if !ok {
		return domain.ErrResponseNotFound
	}
	if s.doc.Status != domain.StatusActive {
		return nil
	}

	index := s.localIndex[uid]
	if index >= s.doc.TotalQuestions-1 {
		return nil
	}
	// Next is only honored after the current question was answered.
	if q, ok := s.doc.QuestionAt(index); ok && !resp.HasAnswered(q.ID) {
		return nil
	}

	s.localIndex[uid] = index + 1
	delete(s.drafts, uid)
	if q, ok := s.doc.QuestionAt(index + 1); ok {
		s.armCountdownLocked(uid, q)
	}
	s.broadcastLocked()
	return nil
}

// setDraft stores the student's transient partial answer for the forced
// timeout submission. Drafts are discarded on answer or question change.
func (s *Session) setDraft(uid, questionID, text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.responses[uid]; !ok {
		return
	}
	s.drafts[uid] = draftState{questionID: questionID, text: text}
}

// clearStudent tears down a disconnecting student's countdown and draft.
// The response record itself persists.
func (s *Session) clearStudent(uid string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked(uid)
	delete(s.drafts, uid)
}

// advance is the teacher's progression action: the first advance activates
// the session at index 0, later ones step forward, and stepping past the
// last question ends the session.
func (s *Session) advance() domain.QuizSession {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.doc.Status == domain.StatusEnded {
		return s.doc
	}

	next := s.doc.CurrentQuestionIndex + 1
	now := s.now()
	if next >= s.doc.TotalQuestions {
		s.endLocked(now)
		s.broadcastLocked()
		return s.doc
	}

	s.doc.Status = domain.StatusActive
	s.doc.CurrentQuestionIndex = next
	if s.doc.StartedAt == nil {
		s.doc.StartedAt = &now
	}
	s.rearmCountdownsLocked()
	s.broadcastLocked()
	return s.doc
}

// end stops the session regardless of position.
func (s *Session) end() domain.QuizSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc.Status != domain.StatusEnded {
		s.endLocked(s.now())
		s.broadcastLocked()
	}
	return s.doc
}

func (s *Session) endLocked(now time.Time) {
	s.doc.Status = domain.StatusEnded
	s.doc.CurrentQuestionIndex = s.doc.TotalQuestions
	s.doc.EndedAt = &now
	for uid := range s.countdowns {
		s.stopCountdownLocked(uid)
	}
}

// shutdown stops all timers and closes all subscriber channels. Used when a
// session is replaced or the server drops it.
func (s *Session) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for uid := range s.countdowns {
		s.stopCountdownLocked(uid)
	}
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// subscribe registers a listener. Students receive their own view/response
// snapshots and countdown ticks; the teacher receives graded responses.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) subscribe(uid string, teacher bool) (<-chan Update, func()) {
	ch := make(chan Update, 8)
	sub := subscriber{uid: uid, teacher: teacher}

	// The initial snapshot goes out under the lock: the fresh buffered channel
	// cannot block, and shutdown closes subscriber channels under this same
	// lock, so the send can never race a close.
	s.mu.Lock()
	s.subscribers[ch] = sub
	ch <- s.updateForLocked(sub)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// positionLocked is the question index this student is currently on,
// respecting the pacing mode.
func (s *Session) positionLocked(uid string) int {
	if s.doc.Mode == domain.ModeStudent {
		return s.localIndex[uid]
	}
	return s.doc.CurrentQuestionIndex
}

func (s *Session) currentQuestionForLocked(uid string) (domain.PublicQuestion, bool) {
	return s.doc.QuestionAt(s.positionLocked(uid))
}

// rearmCountdownsLocked restarts countdowns for every joined student after a
// question change, and drops drafts that belonged to a previous question.
func (s *Session) rearmCountdownsLocked() {
	for uid := range s.responses {
		q, ok := s.currentQuestionForLocked(uid)
		if !ok {
			continue
		}
		if d, held := s.drafts[uid]; held && d.questionID != q.ID {
			delete(s.drafts, uid)
		}
		s.armCountdownLocked(uid, q)
	}
}

func (s *Session) updateForLocked(sub subscriber) Update {
	doc := s.doc
	if sub.teacher {
		view := domain.ViewFor(&doc, nil, 0)
		return Update{View: &view, Responses: s.gradedLocked()}
	}
	var resp *domain.StudentResponse
	if r, ok := s.responses[sub.uid]; ok {
		copied := *r
		resp = &copied
	}
	view := domain.ViewFor(&doc, resp, s.localIndex[sub.uid])
	return Update{View: &view, Response: resp}
}

func (s *Session) gradedLocked() []domain.GradedResponse {
	graded := make([]domain.GradedResponse, 0, len(s.responses))
	for _, resp := range s.responses {
		correct, total := domain.Score(s.authored, *resp)
		graded = append(graded, domain.GradedResponse{
			Response: *resp,
			Correct:  correct,
			Total:    total,
		})
	}
	return graded
}

func (s *Session) broadcastLocked() {
	for ch, sub := range s.subscribers {
		sendNonBlocking(ch, s.updateForLocked(sub))
	}
}

// sendToLocked delivers an update to one student's subscriptions only.
func (s *Session) sendToLocked(uid string, update Update) {
	for ch, sub := range s.subscribers {
		if !sub.teacher && sub.uid == uid {
			sendNonBlocking(ch, update)
		}
	}
}

// sendNonBlocking drops the oldest buffered update rather than letting a
// slow client block the broadcast.
func sendNonBlocking(ch chan Update, update Update) {
	select {
	case ch <- update:
	default:
		select {
		case <-ch:
		default:
		}
		ch <- update
	}
}
