package app

import (
	"sync"
	"time"

	"classdeck-quiz-service/internal/domain"
)

// TickerFactory abstracts the one-second countdown pulse so tests can drive
// timers deterministically. The returned stop function releases the ticker.
type TickerFactory func(d time.Duration) (<-chan time.Time, func())

// wallTicker is the production factory.
func wallTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// CountdownTick is pushed to the affected student once per second while a
// timed question is open.
type CountdownTick struct {
	QuestionID string `json:"questionId"`
	Remaining  int    `json:"remaining"`
}

// countdown tracks one student's timer for one question. The server timeout
// is authoritative: the client countdown is visual feedback only, and the
// forced submission fires here exactly once.
type countdown struct {
	uid        string
	questionID string
	remaining  int
	stop       chan struct{}
	once       sync.Once
}

func (c *countdown) halt() {
	c.once.Do(func() { close(c.stop) })
}

// armCountdownLocked starts (or restarts) the countdown for uid on question
// q. Untimed and already-answered questions never get a timer.
func (s *Session) armCountdownLocked(uid string, q domain.PublicQuestion) {
	if q.TimeLimit <= 0 {
		return
	}
	if resp, ok := s.responses[uid]; !ok || resp.HasAnswered(q.ID) {
		s.stopCountdownLocked(uid)
		return
	}
	if existing, ok := s.countdowns[uid]; ok {
		if existing.questionID == q.ID {
			return
		}
		s.stopCountdownLocked(uid)
	}

	c := &countdown{
		uid:        uid,
		questionID: q.ID,
		remaining:  q.TimeLimit,
		stop:       make(chan struct{}),
	}
	s.countdowns[uid] = c

	ticks, release := s.newTicker(time.Second)
	go func() {
		defer release()
		for {
			select {
			case <-c.stop:
				return
			case <-ticks:
				if s.tick(c) {
					return
				}
			}
		}
	}()
}

func (s *Session) stopCountdownLocked(uid string) {
	if c, ok := s.countdowns[uid]; ok {
		c.halt()
		delete(s.countdowns, uid)
	}
}

// tick advances one countdown by a second. Returns true when the countdown
// is finished, either expired or superseded.
func (s *Session) tick(c *countdown) bool {
	s.mu.Lock()
	if s.countdowns[c.uid] != c {
		s.mu.Unlock()
		return true
	}

	c.remaining--
	s.sendToLocked(c.uid, Update{Countdown: &CountdownTick{
		QuestionID: c.questionID,
		Remaining:  c.remaining,
	}})

	if c.remaining > 0 {
		s.mu.Unlock()
		return false
	}

	// Expired: tear down first so the forced submission cannot re-fire.
	c.halt()
	delete(s.countdowns, c.uid)
	answer := ""
	if d, ok := s.drafts[c.uid]; ok && d.questionID == c.questionID {
		answer = d.text
	}
	force := s.forceSubmit
	s.mu.Unlock()

	if force != nil {
		force(c.uid, c.questionID, answer)
	}
	return true
}
