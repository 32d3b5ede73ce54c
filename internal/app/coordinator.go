package app

import (
	"context"
	"fmt"

	"live-quiz-service/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis-marked, etc).
type SessionRepository interface {
	GetOrCreate(quiz domain.Quiz) *Session
	Get(quizID int64) (*Session, bool)
	Delete(quizID int64)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// Broadcaster fans a server event out to every live connection of a session.
// Delivery is fire-and-forget.
type Broadcaster interface {
	BroadcastToSession(quizID int64, event Event)
}

// Event is the envelope for every server-originated frame.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// QuizStartedPayload announces the CREATED -> LIVE transition.
type QuizStartedPayload struct {
	QuizID  int64  `json:"quizId"`
	Message string `json:"message"`
}

// QuestionPayload is the broadcast form of a question. It deliberately has
// no field for the correct option index.
type QuestionPayload struct {
	QuizID     int64    `json:"quizId"`
	QuestionID int64    `json:"questionId"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
}

// ResultsPayload carries the vote tally, keyed by option index.
type ResultsPayload struct {
	QuizID     int64       `json:"quizId"`
	QuestionID int64       `json:"questionId"`
	Results    map[int]int `json:"results"`
}

// QuizEndedPayload carries the final standings.
type QuizEndedPayload struct {
	QuizID      int64                     `json:"quizId"`
	Message     string                    `json:"message"`
	Leaderboard []domain.LeaderboardEntry `json:"leaderboard"`
}

// Coordinator drives live quiz sessions. Role checks happen here, against
// the identity attached at authentication, never against payload fields.
type Coordinator struct {
	sessions    SessionRepository
	quizzes     QuizRepository
	broadcaster Broadcaster
}

func NewCoordinator(sessions SessionRepository, quizzes QuizRepository) *Coordinator {
	return &Coordinator{sessions: sessions, quizzes: quizzes}
}

// SetBroadcaster wires the fan-out sink. It must be set before any session
// activity; it lives apart from the constructor because the router needs
// the coordinator for membership lookups.
func (c *Coordinator) SetBroadcaster(b Broadcaster) {
	c.broadcaster = b
}

// Join registers the identity with the quiz's session, creating the session
// in CREATED if this is the first arrival. Unknown quizzes cannot be joined.
func (c *Coordinator) Join(ctx context.Context, quizID int64, identity domain.Identity) (string, error) {
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return "", err
	}
	session := c.sessions.GetOrCreate(quiz)
	session.join(identity)
	return quiz.Title, nil
}

// StartQuiz transitions the session to LIVE and announces it. Admin only.
// The caller is enrolled as a member so it receives subsequent broadcasts.
func (c *Coordinator) StartQuiz(ctx context.Context, quizID int64, identity domain.Identity) error {
	if identity.Role != domain.RoleAdmin {
		return domain.ErrAdminRequired
	}
	quiz, err := c.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return err
	}
	session := c.sessions.GetOrCreate(quiz)
	session.join(identity)
	if err := session.start(); err != nil {
		return err
	}
	c.broadcaster.BroadcastToSession(quizID, Event{
		Type: "QUIZ_STARTED",
		Payload: QuizStartedPayload{
			QuizID:  quizID,
			Message: fmt.Sprintf("Quiz %q has started", quiz.Title),
		},
	})
	return nil
}

// ShowQuestion opens a question and broadcasts it, correct index withheld.
// Admin only; rejections leave the session untouched.
func (c *Coordinator) ShowQuestion(quizID, questionID int64, identity domain.Identity) error {
	if identity.Role != domain.RoleAdmin {
		return domain.ErrAdminRequired
	}
	session, ok := c.sessions.Get(quizID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	question, err := session.openQuestion(questionID)
	if err != nil {
		return err
	}
	c.broadcaster.BroadcastToSession(quizID, Event{
		Type: "QUESTION",
		Payload: QuestionPayload{
			QuizID:     quizID,
			QuestionID: question.ID,
			Text:       question.Text,
			Options:    question.Options,
		},
	})
	return nil
}

// SubmitAnswer records a participant's single-shot answer. The outcome goes
// back to the submitter only; nothing is broadcast.
func (c *Coordinator) SubmitAnswer(quizID, questionID int64, optionIndex int, identity domain.Identity) (AnswerOutcome, error) {
	if identity.Role != domain.RoleParticipant {
		return AnswerOutcome{}, domain.ErrParticipantRequired
	}
	session, ok := c.sessions.Get(quizID)
	if !ok {
		return AnswerOutcome{}, domain.ErrSessionNotFound
	}
	return session.submitAnswer(identity.UserID, questionID, optionIndex)
}

// ShowResult closes the current question and broadcasts the vote tally.
// Admin only; the next ShowQuestion advances the cursor, not this.
func (c *Coordinator) ShowResult(quizID, questionID int64, identity domain.Identity) error {
	if identity.Role != domain.RoleAdmin {
		return domain.ErrAdminRequired
	}
	session, ok := c.sessions.Get(quizID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	tally, err := session.closeQuestion(questionID)
	if err != nil {
		return err
	}
	c.broadcaster.BroadcastToSession(quizID, Event{
		Type: "RESULTS",
		Payload: ResultsPayload{
			QuizID:     quizID,
			QuestionID: questionID,
			Results:    tally,
		},
	})
	return nil
}

// EndQuiz terminates the session, broadcasts the final leaderboard, and
// reclaims the session from the store so it cannot grow without bound.
func (c *Coordinator) EndQuiz(quizID int64, identity domain.Identity) error {
	if identity.Role != domain.RoleAdmin {
		return domain.ErrAdminRequired
	}
	session, ok := c.sessions.Get(quizID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	standings, err := session.end()
	if err != nil {
		return err
	}
	c.broadcaster.BroadcastToSession(quizID, Event{
		Type: "QUIZ_ENDED",
		Payload: QuizEndedPayload{
			QuizID:      quizID,
			Message:     "The quiz has ended",
			Leaderboard: standings,
		},
	})
	c.sessions.Delete(quizID)
	return nil
}

// SessionMembers lists the user IDs enrolled in a session. The broadcast
// router resolves these to live connections; stale IDs are harmless.
func (c *Coordinator) SessionMembers(quizID int64) []string {
	session, ok := c.sessions.Get(quizID)
	if !ok {
		return nil
	}
	return session.memberIDs()
}
