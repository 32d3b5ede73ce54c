package domain

import "errors"

var (
	// ErrUnauthenticated is returned for a missing or invalid credential.
	// It is the one failure that terminates the transport.
	ErrUnauthenticated = errors.New("unauthorized, token missing or invalid")
	// ErrAdminRequired is returned when a non-admin issues an admin action.
	ErrAdminRequired = errors.New("admin access required")
	// ErrParticipantRequired is returned when an admin submits an answer.
	ErrParticipantRequired = errors.New("only participants may submit answers")
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when a live session has not been created.
	ErrSessionNotFound = errors.New("quiz session not found")
	// ErrQuestionNotFound indicates a question ID absent from the session's quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a selected option index out of range.
	ErrOptionNotFound = errors.New("option not found")
	// ErrParticipantNotFound is returned when a user acts before joining.
	ErrParticipantNotFound = errors.New("participant not found in quiz")
	// ErrAlreadyAnswered marks an idempotent duplicate submission.
	ErrAlreadyAnswered = errors.New("already_answered")
	// ErrQuizNotLive is returned for question actions before START_QUIZ.
	ErrQuizNotLive = errors.New("quiz has not been started")
	// ErrQuizAlreadyLive rejects a second START_QUIZ for a running session.
	ErrQuizAlreadyLive = errors.New("quiz is already live")
	// ErrQuestionStillOpen rejects advancing while a question is open.
	ErrQuestionStillOpen = errors.New("current question is still open")
	// ErrQuestionNotOpen rejects submissions and reveals with no open question.
	ErrQuestionNotOpen = errors.New("question is not open")
	// ErrQuestionAlreadyPlayed enforces that closed questions never reopen.
	ErrQuestionAlreadyPlayed = errors.New("question was already played")
	// ErrQuizEnded rejects any action against an ended session.
	ErrQuizEnded = errors.New("quiz has ended")
	// ErrEmailTaken is returned on signup with an existing email.
	ErrEmailTaken = errors.New("user with this email already exists")
	// ErrUserNotFound is returned on login for an unknown email.
	ErrUserNotFound = errors.New("user not found please signup first")
	// ErrInvalidPassword is returned on login with a wrong password.
	ErrInvalidPassword = errors.New("invalid password")
)
