package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
)

// IdentityVerifier validates an opaque credential during the handshake.
type IdentityVerifier interface {
	Verify(credential string) (domain.Identity, error)
}

// WSHandler is the message dispatcher: the single entry point for every
// inbound frame. It authenticates connections, decodes envelopes, and routes
// them to the coordinator with the caller's verified identity.
type WSHandler struct {
	coordinator *app.Coordinator
	verifier    IdentityVerifier
	registry    *Registry
	router      *Router
	upgrader    websocket.Upgrader
}

func NewWSHandler(coordinator *app.Coordinator, verifier IdentityVerifier, registry *Registry, router *Router) *WSHandler {
	return &WSHandler{
		coordinator: coordinator,
		verifier:    verifier,
		registry:    registry,
		router:      router,
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

type authenticatePayload struct {
	Token string `json:"token"`
}

type quizRefPayload struct {
	QuizID int64 `json:"quizId"`
}

type questionRefPayload struct {
	QuizID     int64 `json:"quizId"`
	QuestionID int64 `json:"questionId"`
}

type submitAnswerPayload struct {
	QuizID              int64  `json:"quizId"`
	QuestionID          int64  `json:"questionId"`
	SelectedOptionIndex *int   `json:"selectedOptionIndex"`
	UserID              string `json:"userId"`
}

// errorFrame is the protocol-level error shape: {type:"error", error:...}.
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// rejectionFrame is the legacy rejection shape kept for client
// compatibility: {type:"ERROR", success:false, message:...}.
type rejectionFrame struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type authenticatedPayload struct {
	Success bool         `json:"success"`
	Data    authIdentity `json:"data"`
}

type authIdentity struct {
	ID   string      `json:"id"`
	Name string      `json:"name"`
	Role domain.Role `json:"role"`
}

type quizJoinedPayload struct {
	QuizID int64  `json:"quizId"`
	Title  string `json:"title"`
}

type answerAckPayload struct {
	Accepted  bool   `json:"accepted"`
	Correct   *bool  `json:"correct,omitempty"`
	YourScore *int   `json:"yourScore,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ServeWS upgrades the request and runs the per-connection read loop. One
// goroutine reads inbound frames sequentially; the connection's writer pump
// is the only goroutine writing to the socket.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	sock, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}

	conn := h.registry.Add(sock)
	defer h.registry.Remove(conn)
	defer conn.Close()

	for {
		_, raw, err := sock.ReadMessage()
		if err != nil {
			return
		}
		if !h.dispatch(r, conn, raw) {
			return
		}
	}
}

// dispatch decodes one envelope and routes it. The returned bool reports
// whether the connection should stay open; authentication failure is the
// only failure that terminates the transport.
func (h *WSHandler) dispatch(r *http.Request, conn *Connection, raw []byte) bool {
	var inbound inboundMessage
	if err := json.Unmarshal(raw, &inbound); err != nil || inbound.Type == "" {
		h.sendInvalidFormat(conn)
		return true
	}

	// Re-authentication is allowed and simply replaces the identity.
	if inbound.Type == "authenticate" {
		return h.authenticate(conn, inbound.Payload)
	}

	identity, ok := conn.Identity()
	if !ok {
		h.sendRaw(conn, errorFrame{Type: "error", Error: "Unauthorized"})
		conn.Close()
		return false
	}

	switch inbound.Type {
	case "JOIN_QUIZ":
		var payload quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == 0 {
			h.sendInvalidFormat(conn)
			return true
		}
		title, err := h.coordinator.Join(r.Context(), payload.QuizID, identity)
		if err != nil {
			h.sendRejection(conn, err)
			return true
		}
		h.router.SendToConnection(conn.ID, app.Event{
			Type:    "QUIZ_JOINED",
			Payload: quizJoinedPayload{QuizID: payload.QuizID, Title: title},
		})

	case "START_QUIZ":
		var payload quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == 0 {
			h.sendInvalidFormat(conn)
			return true
		}
		if err := h.coordinator.StartQuiz(r.Context(), payload.QuizID, identity); err != nil {
			h.sendRejection(conn, err)
		}

	case "SHOW_QUESTION":
		var payload questionRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == 0 || payload.QuestionID == 0 {
			h.sendInvalidFormat(conn)
			return true
		}
		if err := h.coordinator.ShowQuestion(payload.QuizID, payload.QuestionID, identity); err != nil {
			h.sendRejection(conn, err)
		}

	case "SUBMIT_ANSWER":
		// The payload's userId is ignored; the authenticated identity is
		// authoritative.
		var payload submitAnswerPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil ||
			payload.QuizID == 0 || payload.QuestionID == 0 || payload.SelectedOptionIndex == nil {
			h.sendInvalidFormat(conn)
			return true
		}
		outcome, err := h.coordinator.SubmitAnswer(payload.QuizID, payload.QuestionID, *payload.SelectedOptionIndex, identity)
		if err != nil {
			h.sendRejection(conn, err)
			return true
		}
		h.router.SendToConnection(conn.ID, app.Event{Type: "ANSWER_ACK", Payload: buildAnswerAck(outcome)})

	case "SHOW_RESULT":
		var payload questionRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == 0 || payload.QuestionID == 0 {
			h.sendInvalidFormat(conn)
			return true
		}
		if err := h.coordinator.ShowResult(payload.QuizID, payload.QuestionID, identity); err != nil {
			h.sendRejection(conn, err)
		}

	case "END_QUIZ":
		var payload quizRefPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.QuizID == 0 {
			h.sendInvalidFormat(conn)
			return true
		}
		if err := h.coordinator.EndQuiz(payload.QuizID, identity); err != nil {
			h.sendRejection(conn, err)
		}

	default:
		h.sendInvalidFormat(conn)
	}
	return true
}

// authenticate runs the handshake. Failure sends an error frame and closes
// the connection.
func (h *WSHandler) authenticate(conn *Connection, payload json.RawMessage) bool {
	var creds authenticatePayload
	if err := json.Unmarshal(payload, &creds); err != nil || creds.Token == "" {
		h.sendRaw(conn, errorFrame{Type: "error", Error: "Unauthorized"})
		conn.Close()
		return false
	}

	identity, err := h.verifier.Verify(creds.Token)
	if err != nil {
		h.sendRaw(conn, errorFrame{Type: "error", Error: "Unauthorized, token missing or invalid"})
		conn.Close()
		return false
	}

	conn.setIdentity(identity)
	h.registry.Bind(identity.UserID, conn)
	h.router.SendToConnection(conn.ID, app.Event{
		Type: "authenticated",
		Payload: authenticatedPayload{
			Success: true,
			Data:    authIdentity{ID: identity.UserID, Name: identity.DisplayName, Role: identity.Role},
		},
	})
	return true
}

func buildAnswerAck(outcome app.AnswerOutcome) answerAckPayload {
	if !outcome.Accepted {
		return answerAckPayload{Accepted: false, Reason: outcome.Reason}
	}
	correct := outcome.Correct
	score := outcome.Score
	return answerAckPayload{
		Accepted:  true,
		Correct:   &correct,
		YourScore: &score,
		Message:   "Answer recorded",
	}
}

// sendRejection surfaces a failure to the acting connection only. All
// rejection paths are local: nothing is broadcast and no shared state moves.
func (h *WSHandler) sendRejection(conn *Connection, err error) {
	if errors.Is(err, domain.ErrUnauthenticated) {
		h.sendRaw(conn, errorFrame{Type: "error", Error: err.Error()})
		conn.Close()
		return
	}
	h.sendRaw(conn, rejectionFrame{Type: "ERROR", Success: false, Message: err.Error()})
}

func (h *WSHandler) sendInvalidFormat(conn *Connection) {
	h.sendRaw(conn, errorFrame{Type: "error", Error: "Invalid message format"})
}

func (h *WSHandler) sendRaw(conn *Connection, v any) {
	frame, err := json.Marshal(v)
	if err != nil {
		log.Printf("frame marshal failed: %v", err)
		return
	}
	conn.enqueue(frame)
}
