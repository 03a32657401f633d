package app

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"classdeck-quiz-service/internal/domain"
)

// SessionRepository abstracts how live session runtimes are stored and
// resolved (in-memory, Redis-indexed, etc).
type SessionRepository interface {
	Put(session *Session)
	Get(sessionID string) (*Session, bool)
	GetByCode(code string) (*Session, bool)
	Delete(sessionID string)
}

// QuizRepository loads authored quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// Archive persists session and response documents durably. Writes are
// best-effort: the in-memory runtime is the live source of truth.
type Archive interface {
	SaveSession(ctx context.Context, session domain.QuizSession) error
	SaveResponse(ctx context.Context, sessionID string, response domain.StudentResponse) error
	PurgeResponses(ctx context.Context, sessionID string) error
	ListResponses(ctx context.Context, sessionID string) ([]domain.StudentResponse, error)
}

// ForcedSubmitPolicy controls what happens when persisting a timeout-forced
// submission fails: retry up to Retries times with linear Backoff, then log
// and drop. Retries=0 means silent drop on first failure.
type ForcedSubmitPolicy struct {
	Retries int
	Backoff time.Duration
}

// DefaultForcedSubmitPolicy retries twice with a short backoff.
var DefaultForcedSubmitPolicy = ForcedSubmitPolicy{Retries: 2, Backoff: 250 * time.Millisecond}

// SessionService contains the live quiz session use cases.
type SessionService struct {
	sessions SessionRepository
	quizzes  QuizRepository
	archive  Archive // nil disables durable persistence
	policy   ForcedSubmitPolicy

	now       func() time.Time
	newTicker TickerFactory
	newID     func() string

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewSessionService(sessions SessionRepository, quizzes QuizRepository, archive Archive) *SessionService {
	return NewSessionServiceWithClock(sessions, quizzes, archive, time.Now, wallTicker)
}

// NewSessionServiceWithClock is test-only for deterministic timestamps and
// timers.
func NewSessionServiceWithClock(sessions SessionRepository, quizzes QuizRepository, archive Archive, now func() time.Time, tickers TickerFactory) *SessionService {
	return &SessionService{
		sessions:  sessions,
		quizzes:   quizzes,
		archive:   archive,
		policy:    DefaultForcedSubmitPolicy,
		now:       now,
		newTicker: tickers,
		newID:     uuid.NewString,
		rnd:       rand.New(rand.NewSource(now().UnixNano())),
	}
}

// SetForcedSubmitPolicy overrides the forced-submission persistence policy.
func (s *SessionService) SetForcedSubmitPolicy(policy ForcedSubmitPolicy) {
	s.policy = policy
}

// StartSession creates a fresh session document for the teacher, replacing
// any previous one and purging its responses so stale answers never leak
// into the new session's monitor.
func (s *SessionService) StartSession(ctx context.Context, teacherUID, quizID string, mode domain.SessionMode) (domain.QuizSession, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizSession{}, err
	}
	if mode != domain.ModeStudent {
		mode = domain.ModeTeacher
	}

	if old, ok := s.sessions.Get(teacherUID); ok {
		old.shutdown()
		s.sessions.Delete(teacherUID)
	}
	if s.archive != nil {
		if err := s.archive.PurgeResponses(ctx, teacherUID); err != nil {
			log.Printf("purge responses for %s: %v", teacherUID, err)
		}
	}

	s.rndMu.Lock()
	code := domain.NewJoinCode(s.rnd)
	public := domain.BuildPublicQuestions(quiz.Questions, s.rnd)
	s.rndMu.Unlock()

	doc := domain.QuizSession{
		ID:                   teacherUID,
		QuizID:               quiz.ID,
		QuizTitle:            quiz.Title,
		TeacherUID:           teacherUID,
		Code:                 code,
		Status:               domain.StatusWaiting,
		Mode:                 mode,
		CurrentQuestionIndex: -1,
		TotalQuestions:       len(quiz.Questions),
		PublicQuestions:      public,
		CreatedAt:            s.now(),
	}

	session := NewSessionWithClock(doc, quiz, s.now, s.newTicker)
	session.forceSubmit = func(uid, questionID, answer string) {
		s.forcedSubmit(teacherUID, uid, questionID, answer)
	}
	s.sessions.Put(session)
	s.saveSession(ctx, doc)
	return doc, nil
}

// AdvanceQuestion moves the shared index forward: the first advance flips
// the session to active, advancing past the last question ends it.
func (s *SessionService) AdvanceQuestion(ctx context.Context, teacherUID string) (domain.QuizSession, error) {
	session, ok := s.sessions.Get(teacherUID)
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	doc := session.advance()
	s.saveSession(ctx, doc)
	return doc, nil
}

// EndSession stops the session immediately.
func (s *SessionService) EndSession(ctx context.Context, teacherUID string) (domain.QuizSession, error) {
	session, ok := s.sessions.Get(teacherUID)
	if !ok {
		return domain.QuizSession{}, domain.ErrSessionNotFound
	}
	doc := session.end()
	s.saveSession(ctx, doc)
	return doc, nil
}

// Join resolves a join code into a session and creates (or re-attaches to)
// the student's response record. Returns the session ID for follow-up calls.
func (s *SessionService) Join(ctx context.Context, code, displayName, email, uid string) (string, error) {
	normalized := domain.NormalizeCode(code)
	if normalized == "" {
		return "", domain.ErrInvalidCode
	}
	if email == "" {
		return "", domain.ErrMissingEmail
	}

	session, ok := s.sessions.GetByCode(normalized)
	if !ok {
		return "", domain.ErrSessionNotFound
	}
	if session.Status() == domain.StatusEnded {
		return "", domain.ErrSessionEnded
	}

	resp, created := session.join(uid, displayName, email, s.newID())
	if created {
		s.saveResponse(ctx, session.ID(), resp)
	}
	return session.ID(), nil
}

// SubmitAnswer records one answer. Re-submissions for an already-answered
// question are dropped before reaching any store.
func (s *SessionService) SubmitAnswer(ctx context.Context, sessionID, uid, questionID, answer string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	resp, changed, err := session.submit(uid, questionID, answer)
	if err != nil {
		return err
	}
	if changed {
		s.saveResponse(ctx, sessionID, resp)
	}
	return nil
}

// SubmitMatching validates a matching assignment (every left item assigned;
// duplicate right-hand picks allowed) and submits its encoded form.
func (s *SessionService) SubmitMatching(ctx context.Context, sessionID, uid, questionID string, assignments map[string]string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	q, ok := session.question(questionID)
	if !ok || q.Type != domain.TypeMatching {
		return domain.ErrQuestionNotFound
	}

	draft := domain.NewMatchingDraft(q)
	for left, right := range assignments {
		if err := draft.Assign(left, right); err != nil {
			return err
		}
	}
	if !draft.Complete() {
		return domain.ErrIncompleteAnswer
	}
	return s.SubmitAnswer(ctx, sessionID, uid, questionID, draft.Encode())
}

// SubmitOrdering validates that order is a permutation of the presented
// items and submits its encoded form.
func (s *SessionService) SubmitOrdering(ctx context.Context, sessionID, uid, questionID string, order []string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	q, ok := session.question(questionID)
	if !ok || q.Type != domain.TypeOrdering {
		return domain.ErrQuestionNotFound
	}
	if !domain.SamePermutation(q.OrderingItems, order) {
		return domain.ErrIncompleteAnswer
	}
	return s.SubmitAnswer(ctx, sessionID, uid, questionID, domain.EncodeOrdering(order))
}

// NextQuestion advances a student-paced client's own position.
func (s *SessionService) NextQuestion(_ context.Context, sessionID, uid string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	return session.advanceLocal(uid)
}

// CompleteQuiz marks the student's response completed.
func (s *SessionService) CompleteQuiz(ctx context.Context, sessionID, uid string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	resp, changed, err := session.complete(uid)
	if err != nil {
		return err
	}
	if changed {
		s.saveResponse(ctx, sessionID, resp)
	}
	return nil
}

// SetDraft stores the student's transient partial answer so a timeout can
// force-submit whatever was entered. Drafts are never persisted.
func (s *SessionService) SetDraft(_ context.Context, sessionID, uid, questionID, text string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	session.setDraft(uid, questionID, text)
	return nil
}

// Leave tears down a student's countdown and draft on disconnect. The
// response record survives for the teacher's results view.
func (s *SessionService) Leave(_ context.Context, sessionID, uid string) {
	if session, ok := s.sessions.Get(sessionID); ok {
		session.clearStudent(uid)
	}
}

// Subscribe returns a channel of updates for one student.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *SessionService) Subscribe(_ context.Context, sessionID, uid string) (<-chan Update, func(), error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe(uid, false)
	return ch, cancel, nil
}

// SubscribeTeacher returns the live monitor stream: the session view plus
// every response with its server-computed score.
func (s *SessionService) SubscribeTeacher(_ context.Context, teacherUID string) (<-chan Update, func(), error) {
	session, ok := s.sessions.Get(teacherUID)
	if !ok {
		return nil, nil, domain.ErrSessionNotFound
	}
	ch, cancel := session.subscribe(teacherUID, true)
	return ch, cancel, nil
}

// SessionResults returns the archived responses for the teacher's session.
// Unlike the live monitor this reads the durable store, so it works after the
// runtime is gone (review a finished quiz, server restart).
func (s *SessionService) SessionResults(ctx context.Context, teacherUID string) ([]domain.StudentResponse, error) {
	if s.archive == nil {
		return nil, nil
	}
	return s.archive.ListResponses(ctx, teacherUID)
}

// forcedSubmit runs when a countdown expires: record whatever partial answer
// exists, then persist under the configured retry policy.
func (s *SessionService) forcedSubmit(sessionID, uid, questionID, answer string) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return
	}
	resp, changed, err := session.submit(uid, questionID, answer)
	if err != nil {
		log.Printf("forced submit %s/%s: %v", sessionID, uid, err)
		return
	}
	if !changed || s.archive == nil {
		return
	}

	ctx := context.Background()
	for attempt := 0; ; attempt++ {
		err = s.archive.SaveResponse(ctx, sessionID, resp)
		if err == nil {
			return
		}
		if attempt >= s.policy.Retries {
			log.Printf("forced submit for %s/%s dropped after %d attempts: %v", sessionID, uid, attempt+1, err)
			return
		}
		time.Sleep(s.policy.Backoff * time.Duration(attempt+1))
	}
}

func (s *SessionService) saveSession(ctx context.Context, doc domain.QuizSession) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveSession(ctx, doc); err != nil {
		log.Printf("archive session %s: %v", doc.ID, err)
	}
}

func (s *SessionService) saveResponse(ctx context.Context, sessionID string, resp domain.StudentResponse) {
	if s.archive == nil {
		return
	}
	if err := s.archive.SaveResponse(ctx, sessionID, resp); err != nil {
		log.Printf("archive response %s/%s: %v", sessionID, resp.StudentUID, err)
	}
}
