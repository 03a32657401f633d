package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"classdeck-quiz-service/internal/app"
	"classdeck-quiz-service/internal/domain"
	"classdeck-quiz-service/internal/infra/memory"
)

type wsFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{
		"quiz-1": {
			ID:    "quiz-1",
			Title: "Cell Biology",
			Questions: []domain.Question{
				{ID: "q1", Type: domain.TypeFIB, Text: "Control center?", CorrectAnswer: "nucleus"},
				{ID: "q2", Type: domain.TypeMC, Text: "2+2?", CorrectAnswer: "4", IncorrectAnswers: []string{"3", "5"}},
			},
		},
	}), time.Minute)
	service := app.NewSessionService(memory.NewSessionStore(), quizzes, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/student", NewStudentWSHandler(service).ServeWS)
	mux.HandleFunc("/ws/teacher", NewTeacherWSHandler(service).ServeWS)

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func dialWS(t *testing.T, server *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial %s: %v", path, err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	if err := conn.WriteJSON(wsFrame{Type: msgType, Payload: raw}); err != nil {
		t.Fatalf("write %s: %v", msgType, err)
	}
}

// readUntil discards frames until one of the wanted type arrives. State
// snapshots interleave with command acks, so callers filter by type.
func readUntil(t *testing.T, conn *websocket.Conn, want string, match func(json.RawMessage) bool) json.RawMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			t.Fatalf("waiting for %q: %v", want, err)
		}
		if frame.Type != want {
			continue
		}
		if match == nil || match(frame.Payload) {
			return frame.Payload
		}
	}
}

func TestQuizSessionOverWebsockets(t *testing.T) {
	server := newTestServer(t)

	teacher := dialWS(t, server, "/ws/teacher?teacherUid=teacher-1")
	sendFrame(t, teacher, "start", map[string]string{"quizId": "quiz-1"})

	var started sessionPayload
	if err := json.Unmarshal(readUntil(t, teacher, "started", nil), &started); err != nil {
		t.Fatalf("decode started: %v", err)
	}
	if started.Session.Status != domain.StatusWaiting || len(started.Session.Code) != 6 {
		t.Fatalf("unexpected started session: %+v", started.Session)
	}

	query := url.Values{
		"code":  {started.Session.Code},
		"uid":   {"student-1"},
		"name":  {"Ada"},
		"email": {"ada@school.test"},
	}
	student := dialWS(t, server, "/ws/student?"+query.Encode())

	var state statePayload
	if err := json.Unmarshal(readUntil(t, student, "state", nil), &state); err != nil {
		t.Fatalf("decode state: %v", err)
	}
	if state.View == nil || state.View.State != domain.ViewWaiting {
		t.Fatalf("expected waiting view on join, got %+v", state.View)
	}

	sendFrame(t, teacher, "advance", struct{}{})
	var advanced sessionPayload
	if err := json.Unmarshal(readUntil(t, teacher, "advanced", nil), &advanced); err != nil {
		t.Fatalf("decode advanced: %v", err)
	}
	if advanced.Session.CurrentQuestionIndex != 0 {
		t.Fatalf("expected index 0 after first advance, got %d", advanced.Session.CurrentQuestionIndex)
	}

	activePayload := readUntil(t, student, "state", func(raw json.RawMessage) bool {
		var s statePayload
		return json.Unmarshal(raw, &s) == nil && s.View != nil && s.View.State == domain.ViewActive
	})
	state = statePayload{}
	if err := json.Unmarshal(activePayload, &state); err != nil {
		t.Fatalf("decode active state: %v", err)
	}
	if state.View.CurrentQuestion == nil || state.View.CurrentQuestion.ID != "q1" {
		t.Fatalf("expected q1 in active view, got %+v", state.View.CurrentQuestion)
	}

	sendFrame(t, student, "answer", answerPayload{QuestionID: "q1", Answer: "nucleus"})

	monitorRaw := readUntil(t, teacher, "state", func(raw json.RawMessage) bool {
		var s statePayload
		return json.Unmarshal(raw, &s) == nil && len(s.Responses) == 1 && len(s.Responses[0].Response.Answers) == 1
	})
	var monitor statePayload
	if err := json.Unmarshal(monitorRaw, &monitor); err != nil {
		t.Fatalf("decode monitor state: %v", err)
	}
	graded := monitor.Responses[0]
	if graded.Correct != 1 || graded.Total != 2 {
		t.Fatalf("expected 1/2 on the monitor, got %d/%d", graded.Correct, graded.Total)
	}

	sendFrame(t, teacher, "end", struct{}{})
	var ended sessionPayload
	if err := json.Unmarshal(readUntil(t, teacher, "ended", nil), &ended); err != nil {
		t.Fatalf("decode ended: %v", err)
	}
	if ended.Session.Status != domain.StatusEnded {
		t.Fatalf("expected ended session, got %+v", ended.Session)
	}

	readUntil(t, student, "state", func(raw json.RawMessage) bool {
		var s statePayload
		return json.Unmarshal(raw, &s) == nil && s.View != nil && s.View.State == domain.ViewEnded
	})
}

func TestStudentJoinUnknownCode(t *testing.T) {
	server := newTestServer(t)

	query := url.Values{
		"code":  {"ZZZZZZ"},
		"uid":   {"student-1"},
		"name":  {"Ada"},
		"email": {"ada@school.test"},
	}
	student := dialWS(t, server, "/ws/student?"+query.Encode())

	var errPayload errorPayload
	if err := json.Unmarshal(readUntil(t, student, "error", nil), &errPayload); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if errPayload.Message != domain.ErrSessionNotFound.Error() {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}

func TestStudentRejectsMissingParams(t *testing.T) {
	server := newTestServer(t)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/student?uid=student-1"
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatalf("expected dial failure for missing params")
	}
	if resp == nil || resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %+v", resp)
	}
}

func TestTeacherResultsWithoutArchive(t *testing.T) {
	server := newTestServer(t)

	teacher := dialWS(t, server, "/ws/teacher?teacherUid=teacher-3")
	sendFrame(t, teacher, "results", struct{}{})

	var payload resultsPayload
	if err := json.Unmarshal(readUntil(t, teacher, "results", nil), &payload); err != nil {
		t.Fatalf("decode results frame: %v", err)
	}
	if len(payload.Responses) != 0 {
		t.Fatalf("expected no archived responses, got %+v", payload.Responses)
	}
}

func TestTeacherAdvanceWithoutSession(t *testing.T) {
	server := newTestServer(t)

	teacher := dialWS(t, server, "/ws/teacher?teacherUid=teacher-2")
	sendFrame(t, teacher, "advance", struct{}{})

	var errPayload errorPayload
	if err := json.Unmarshal(readUntil(t, teacher, "error", nil), &errPayload); err != nil {
		t.Fatalf("decode error frame: %v", err)
	}
	if errPayload.Message != domain.ErrSessionNotFound.Error() {
		t.Fatalf("unexpected error message %q", errPayload.Message)
	}
}
