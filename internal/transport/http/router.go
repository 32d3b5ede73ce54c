package http

import (
	"encoding/json"
	"log"

	"live-quiz-service/internal/app"
)

// MemberLister yields the user IDs enrolled in a session.
type MemberLister interface {
	SessionMembers(quizID int64) []string
}

// Router fans server events out to the connections of a session's members.
// Events are serialized once; members without a live connection are skipped
// silently. Delivery is fire-and-forget, no retries.
type Router struct {
	registry *Registry
	members  MemberLister
}

func NewRouter(registry *Registry, members MemberLister) *Router {
	return &Router{registry: registry, members: members}
}

// BroadcastToSession implements app.Broadcaster.
func (r *Router) BroadcastToSession(quizID int64, event app.Event) {
	frame, err := json.Marshal(event)
	if err != nil {
		log.Printf("broadcast marshal failed for quiz %d: %v", quizID, err)
		return
	}
	for _, userID := range r.members.SessionMembers(quizID) {
		conn, ok := r.registry.Resolve(userID)
		if !ok {
			continue
		}
		conn.enqueue(frame)
	}
}

// SendToConnection is the direct-reply path for acks and per-caller errors.
func (r *Router) SendToConnection(connID string, event app.Event) {
	conn, ok := r.registry.Lookup(connID)
	if !ok {
		return
	}
	frame, err := json.Marshal(event)
	if err != nil {
		log.Printf("reply marshal failed for %s: %v", connID, err)
		return
	}
	conn.enqueue(frame)
}
