package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"classdeck-quiz-service/internal/app"
	"classdeck-quiz-service/internal/domain"
)

// TeacherWSHandler drives a session from the teacher's side: start, advance,
// end, and a live monitor of every student's graded response.
type TeacherWSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewTeacherWSHandler(service *app.SessionService) *TeacherWSHandler {
	return &TeacherWSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type startPayload struct {
	QuizID string             `json:"quizId"`
	Mode   domain.SessionMode `json:"sessionMode"`
}

type sessionPayload struct {
	Session domain.QuizSession `json:"session"`
}

type resultsPayload struct {
	Responses []domain.StudentResponse `json:"responses"`
}

// ServeWS upgrades the request and runs the teacher control loop.
func (h *TeacherWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	teacherUID := r.URL.Query().Get("teacherUid")
	if teacherUID == "" {
		http.Error(w, "missing teacherUid", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	var pumps sync.WaitGroup

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	var cancelMonitor func()
	// resubscribe swaps the monitor stream; starting a new session tears the
	// old subscription down with the old runtime.
	resubscribe := func() {
		if cancelMonitor != nil {
			cancelMonitor()
			cancelMonitor = nil
		}
		updates, cancel, err := h.service.SubscribeTeacher(r.Context(), teacherUID)
		if err != nil {
			return
		}
		cancelMonitor = cancel
		pumps.Add(1)
		go func() {
			defer pumps.Done()
			for {
				select {
				case update, ok := <-updates:
					if !ok {
						return
					}
					select {
					case send <- translateUpdate(update):
					case <-closeSignals:
						return
					}
				case <-closeSignals:
					return
				}
			}
		}()
	}

	// A reconnecting teacher re-attaches to the running session, if any.
	resubscribe()

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}

		var reply outboundMessage[any]
		replied := false
		switch inbound.Type {
		case "start":
			var payload startPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				reply, replied = errorMessage("invalid start payload"), true
				break
			}
			doc, err := h.service.StartSession(r.Context(), teacherUID, payload.QuizID, payload.Mode)
			if err != nil {
				reply, replied = errorMessage(err.Error()), true
				break
			}
			resubscribe()
			reply, replied = outboundMessage[any]{Type: "started", Payload: sessionPayload{Session: doc}}, true
		case "advance":
			doc, err := h.service.AdvanceQuestion(r.Context(), teacherUID)
			if err != nil {
				reply, replied = errorMessage(err.Error()), true
				break
			}
			reply, replied = outboundMessage[any]{Type: "advanced", Payload: sessionPayload{Session: doc}}, true
		case "results":
			responses, err := h.service.SessionResults(r.Context(), teacherUID)
			if err != nil {
				reply, replied = errorMessage(err.Error()), true
				break
			}
			reply, replied = outboundMessage[any]{Type: "results", Payload: resultsPayload{Responses: responses}}, true
		case "end":
			doc, err := h.service.EndSession(r.Context(), teacherUID)
			if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
				reply, replied = errorMessage(err.Error()), true
				break
			}
			if err == nil {
				reply, replied = outboundMessage[any]{Type: "ended", Payload: sessionPayload{Session: doc}}, true
			}
		default:
			reply, replied = errorMessage("unsupported message type"), true
		}

		if replied {
			select {
			case send <- reply:
			case <-closeSignals:
			}
		}
	}

	if cancelMonitor != nil {
		cancelMonitor()
	}
	close(closeSignals)
	pumps.Wait()
	close(send)
	<-writerDone
}
