package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"classdeck-quiz-service/internal/app"
	"classdeck-quiz-service/internal/domain"
)

// StudentWSHandler is the student-facing live connection: it joins the
// session on connect and then relays submissions in and snapshots out. It
// stands in for the document store subscription the original client used.
type StudentWSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewStudentWSHandler(service *app.SessionService) *StudentWSHandler {
	return &StudentWSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type matchingPayload struct {
	QuestionID  string            `json:"questionId"`
	Assignments map[string]string `json:"assignments"`
}

type orderingPayload struct {
	QuestionID string   `json:"questionId"`
	Order      []string `json:"order"`
}

type draftPayload struct {
	QuestionID string `json:"questionId"`
	Text       string `json:"text"`
}

type statePayload struct {
	View      *domain.SessionView     `json:"view,omitempty"`
	Response  *domain.StudentResponse `json:"response,omitempty"`
	Responses []domain.GradedResponse `json:"responses,omitempty"`
}

// ServeWS upgrades the request and runs the student session loop.
func (h *StudentWSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	uid := r.URL.Query().Get("uid")
	name := r.URL.Query().Get("name")
	email := r.URL.Query().Get("email")
	if code == "" || uid == "" || name == "" {
		http.Error(w, "missing code, uid, or name", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	// The join happens exactly once per connection, so a reconnecting client
	// re-attaches to its existing response instead of creating another.
	sessionID, err := h.service.Join(r.Context(), code, name, email, uid)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel, err := h.service.Subscribe(r.Context(), sessionID, uid)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}
	defer cancel()
	defer h.service.Leave(r.Context(), sessionID, uid)

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
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

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		if msg, ok := h.handleStudentMessage(r, sessionID, uid, inbound); ok {
			select {
			case send <- msg:
			case <-closeSignals:
			}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

// handleStudentMessage dispatches one inbound frame. It returns a reply only
// for errors and acks; state flows through the subscription.
func (h *StudentWSHandler) handleStudentMessage(r *http.Request, sessionID, uid string, inbound inboundMessage) (outboundMessage[any], bool) {
	ctx := r.Context()
	var err error

	switch inbound.Type {
	case "answer":
		var payload answerPayload
		if err = json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid answer payload"), true
		}
		err = h.service.SubmitAnswer(ctx, sessionID, uid, payload.QuestionID, payload.Answer)
	case "matching":
		var payload matchingPayload
		if err = json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid matching payload"), true
		}
		err = h.service.SubmitMatching(ctx, sessionID, uid, payload.QuestionID, payload.Assignments)
	case "ordering":
		var payload orderingPayload
		if err = json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid ordering payload"), true
		}
		err = h.service.SubmitOrdering(ctx, sessionID, uid, payload.QuestionID, payload.Order)
	case "draft":
		var payload draftPayload
		if err = json.Unmarshal(inbound.Payload, &payload); err != nil {
			return errorMessage("invalid draft payload"), true
		}
		err = h.service.SetDraft(ctx, sessionID, uid, payload.QuestionID, payload.Text)
	case "next":
		err = h.service.NextQuestion(ctx, sessionID, uid)
	case "complete":
		err = h.service.CompleteQuiz(ctx, sessionID, uid)
	default:
		return errorMessage("unsupported message type"), true
	}

	if err != nil {
		return errorMessage(err.Error()), true
	}
	return outboundMessage[any]{}, false
}

func errorMessage(message string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: message}}
}

// translateUpdate maps a subscription update onto the wire message types.
func translateUpdate(update app.Update) outboundMessage[any] {
	if update.Countdown != nil {
		return outboundMessage[any]{Type: "countdown", Payload: update.Countdown}
	}
	return outboundMessage[any]{Type: "state", Payload: statePayload{
		View:      update.View,
		Response:  update.Response,
		Responses: update.Responses,
	}}
}
