package http

import (
	"encoding/json"
	"log"
	"net/http"

	"quiz-attempt-service/internal/app"
	"github.com/gorilla/websocket"
)

// MachineFactory builds a fresh attempt machine for one connection. Each
// websocket session drives exactly one attempt.
type MachineFactory func(studentKey string) *app.AttemptMachine

type WSHandler struct {
	newMachine MachineFactory
	upgrader   websocket.Upgrader
}

func NewWSHandler(factory MachineFactory) *WSHandler {
	return &WSHandler{
		newMachine: factory,
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

type answerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades the request and wires the connection into one attempt:
// inbound commands (start/answer/next/previous/confirm/submit) mutate the
// machine, outbound "state" messages mirror every snapshot it broadcasts.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	courseID := r.URL.Query().Get("courseId")
	packageID := r.URL.Query().Get("packageId")
	studentKey := r.URL.Query().Get("studentKey")
	if courseID == "" || packageID == "" || studentKey == "" {
		http.Error(w, "missing courseId, packageId, or studentKey", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	machine := h.newMachine(studentKey)
	updates, cancel := machine.Subscribe()
	defer cancel()

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
			case snap, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: snap}:
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

		var opErr error
		switch inbound.Type {
		case "start":
			opErr = machine.Start(r.Context(), courseID, packageID)
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "invalid answer payload"}}
				continue
			}
			opErr = machine.Answer(r.Context(), payload.QuestionID, payload.Answer)
		case "next":
			opErr = machine.Next()
		case "previous":
			opErr = machine.Previous()
		case "confirm":
			opErr = machine.ConfirmSubmit()
		case "submit":
			opErr = machine.Submit(r.Context())
		default:
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: "unsupported message type"}}
			continue
		}
		if opErr != nil {
			send <- outboundMessage[any]{Type: "error", Payload: errorPayload{Message: opErr.Error()}}
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
