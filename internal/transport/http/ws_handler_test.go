package http

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"github.com/gorilla/websocket"
)

func TestWebSocketAttemptFlow(t *testing.T) {
	catalog := sampleCatalog()
	store := memory.NewAttemptStore(catalog)
	wsHandler := NewWSHandler(func(studentKey string) *app.AttemptMachine {
		return app.NewAttemptMachine(catalog, store, store, studentKey)
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wsHandler.ServeWS)
	server := httptest.NewServer(mux)
	defer server.Close()

	u := "ws" + server.URL[len("http"):] + "/ws?courseId=course-1&packageId=pkg-1&studentKey=device-1"
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// Initial snapshot is idle.
	if snap := readState(conn, t); snap["state"] != "idle" {
		t.Fatalf("expected idle, got %v", snap["state"])
	}

	writeCommand(conn, t, "start", nil)
	waitForWSState(conn, t, "in_progress")

	writeCommand(conn, t, "answer", map[string]any{"questionId": "q1", "answer": "4"})
	writeCommand(conn, t, "confirm", nil)
	writeCommand(conn, t, "submit", nil)

	snap := waitForWSState(conn, t, "completed")
	result, ok := snap["result"].(map[string]any)
	if !ok {
		t.Fatalf("expected result payload, got %v", snap["result"])
	}
	if result["score"].(float64) != 1 || result["percentage"].(float64) != 100 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestWebSocketRejectsMissingParams(t *testing.T) {
	wsHandler := NewWSHandler(func(string) *app.AttemptMachine { return nil })
	server := httptest.NewServer(http.HandlerFunc(wsHandler.ServeWS))
	defer server.Close()

	resp, err := http.Get(server.URL + "?courseId=course-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func writeCommand(conn *websocket.Conn, t *testing.T, typ string, payload map[string]any) {
	t.Helper()
	msg := map[string]any{"type": typ}
	if payload != nil {
		msg["payload"] = payload
	}
	if err := conn.WriteJSON(msg); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

// readState reads messages until the next "state" message and returns its payload.
func readState(conn *websocket.Conn, t *testing.T) map[string]any {
	t.Helper()
	for {
		var msg struct {
			Type    string         `json:"type"`
			Payload map[string]any `json:"payload"`
		}
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if msg.Type == "error" {
			t.Fatalf("unexpected error message: %v", msg.Payload)
		}
		if msg.Type == "state" {
			return msg.Payload
		}
	}
}

func waitForWSState(conn *websocket.Conn, t *testing.T, want string) map[string]any {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		snap := readState(conn, t)
		if snap["state"] == want {
			return snap
		}
	}
	t.Fatalf("never observed state %q", want)
	return nil
}

func sampleCatalog() *memory.StaticCatalog {
	return memory.NewStaticCatalog(
		map[string]domain.Course{
			"course-1": {ID: "course-1", Title: "N5 Grammar", ExamMinutes: 30},
		},
		map[string]domain.QuizPackage{
			"pkg-1": {ID: "pkg-1", CourseID: "course-1", Title: "Week 1", MaxRetakes: 3},
		},
		map[string][]domain.Question{
			"pkg-1": {
				{ID: "q1", Text: "What is 2 + 2?", Type: domain.TypeMultipleChoice, Options: []string{"3", "4", "5"}, CorrectAnswer: "4", Points: 1},
			},
		},
	)
}
