package domain

// Role is the access level carried by an authenticated identity.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleParticipant Role = "participant"
)

// Identity is the result of a successful credential verification.
// It is attached to a connection once and never mutated afterwards
// (re-authentication replaces it wholesale).
type Identity struct {
	UserID      string `json:"id"`
	DisplayName string `json:"name"`
	Email       string `json:"email,omitempty"`
	Role        Role   `json:"role"`
}

// Phase is the state-machine position of a live session.
type Phase string

const (
	PhaseCreated        Phase = "CREATED"
	PhaseLive           Phase = "LIVE"
	PhaseQuestionOpen   Phase = "QUESTION_OPEN"
	PhaseQuestionClosed Phase = "QUESTION_CLOSED"
	PhaseEnded          Phase = "ENDED"
)

// Question models an MCQ question with exactly one correct option index.
// CorrectOptionIndex must never appear on a frame sent before the
// question's result is revealed.
type Question struct {
	ID                 int64    `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
}

// Quiz is the stored definition a live session is started from.
type Quiz struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// Participant tracks one non-admin identity inside a session. The record
// outlives the participant's connection.
type Participant struct {
	UserID          string
	DisplayName     string
	Score           int
	AnsweredCurrent bool
}

// LeaderboardEntry is a snapshot-friendly view of a participant.
type LeaderboardEntry struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
}

// User is a stored account. PasswordHash is a bcrypt hash and never leaves
// the storage layer.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Role         Role   `json:"role"`
}
