package app

import (
	"sort"
	"sync"

	"live-quiz-service/internal/domain"
)

// Session is the in-memory state of one running quiz. Every read-modify-write
// goes through the session mutex, so concurrent dispatchers can never
// interleave into an inconsistent phase, answer map, or score.
//
// Sessions hold user IDs only; live connections are resolved through the
// transport registry at broadcast time.
type Session struct {
	mu                sync.Mutex
	quiz              domain.Quiz
	phase             domain.Phase
	currentQuestionID int64
	participants      map[string]*domain.Participant
	members           map[string]struct{}
	answers           map[int64]map[string]int
}

// AnswerOutcome is the per-submitter result of a SUBMIT_ANSWER.
type AnswerOutcome struct {
	Accepted bool
	Correct  bool
	Score    int
	Reason   string
}

// NewSession is exported for storage layers that need to seed sessions.
func NewSession(quiz domain.Quiz) *Session {
	return &Session{
		quiz:         quiz,
		phase:        domain.PhaseCreated,
		participants: make(map[string]*domain.Participant),
		members:      make(map[string]struct{}),
		answers:      make(map[int64]map[string]int),
	}
}

// join registers an identity with the session. Admins become plain members
// (they receive broadcasts); participants additionally get a score record.
// Joining twice refreshes the display name but keeps the score.
func (s *Session) join(identity domain.Identity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.members[identity.UserID] = struct{}{}
	if identity.Role != domain.RoleParticipant {
		return
	}
	if p, ok := s.participants[identity.UserID]; ok {
		p.DisplayName = identity.DisplayName
		return
	}
	s.participants[identity.UserID] = &domain.Participant{
		UserID:      identity.UserID,
		DisplayName: identity.DisplayName,
	}
}

func (s *Session) start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case domain.PhaseCreated:
		s.phase = domain.PhaseLive
		return nil
	case domain.PhaseEnded:
		return domain.ErrQuizEnded
	default:
		return domain.ErrQuizAlreadyLive
	}
}

// openQuestion makes questionID the current question. Allowed only from LIVE
// or QUESTION_CLOSED; a question that was already played never reopens.
func (s *Session) openQuestion(questionID int64) (domain.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.phase {
	case domain.PhaseLive, domain.PhaseQuestionClosed:
	case domain.PhaseCreated:
		return domain.Question{}, domain.ErrQuizNotLive
	case domain.PhaseQuestionOpen:
		return domain.Question{}, domain.ErrQuestionStillOpen
	case domain.PhaseEnded:
		return domain.Question{}, domain.ErrQuizEnded
	}

	question, ok := s.findQuestion(questionID)
	if !ok {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	if _, played := s.answers[questionID]; played {
		return domain.Question{}, domain.ErrQuestionAlreadyPlayed
	}

	s.currentQuestionID = questionID
	s.answers[questionID] = make(map[string]int)
	for _, p := range s.participants {
		p.AnsweredCurrent = false
	}
	s.phase = domain.PhaseQuestionOpen
	return question, nil
}

// submitAnswer records the first answer for (questionID, userID) and scores
// it. The duplicate check and the write happen under one lock acquisition,
// so a flood of simultaneous submissions cannot double-record or
// double-score.
func (s *Session) submitAnswer(userID string, questionID int64, optionIndex int) (AnswerOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseEnded {
		return AnswerOutcome{}, domain.ErrQuizEnded
	}
	participant, ok := s.participants[userID]
	if !ok {
		return AnswerOutcome{}, domain.ErrParticipantNotFound
	}
	if s.phase != domain.PhaseQuestionOpen || s.currentQuestionID != questionID {
		return AnswerOutcome{}, domain.ErrQuestionNotOpen
	}
	question, ok := s.findQuestion(questionID)
	if !ok {
		return AnswerOutcome{}, domain.ErrQuestionNotFound
	}
	if optionIndex < 0 || optionIndex >= len(question.Options) {
		return AnswerOutcome{}, domain.ErrOptionNotFound
	}

	recorded := s.answers[questionID]
	if _, answered := recorded[userID]; answered {
		return AnswerOutcome{Accepted: false, Score: participant.Score, Reason: "already_answered"}, nil
	}

	recorded[userID] = optionIndex
	participant.AnsweredCurrent = true
	correct := optionIndex == question.CorrectOptionIndex
	if correct {
		participant.Score++
	}
	return AnswerOutcome{Accepted: true, Correct: correct, Score: participant.Score}, nil
}

// closeQuestion reveals the current question and returns the per-option vote
// tally. Only options with at least one vote appear.
func (s *Session) closeQuestion(questionID int64) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseEnded {
		return nil, domain.ErrQuizEnded
	}
	if s.phase != domain.PhaseQuestionOpen || s.currentQuestionID != questionID {
		return nil, domain.ErrQuestionNotOpen
	}

	tally := make(map[int]int)
	for _, optionIndex := range s.answers[questionID] {
		tally[optionIndex]++
	}
	s.phase = domain.PhaseQuestionClosed
	return tally, nil
}

// end terminates the session and returns the final standings, ordered by
// score descending, then display name.
func (s *Session) end() ([]domain.LeaderboardEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.phase == domain.PhaseEnded {
		return nil, domain.ErrQuizEnded
	}
	s.phase = domain.PhaseEnded

	entries := make([]domain.LeaderboardEntry, 0, len(s.participants))
	for _, p := range s.participants {
		entries = append(entries, domain.LeaderboardEntry{
			UserID:      p.UserID,
			DisplayName: p.DisplayName,
			Score:       p.Score,
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].DisplayName < entries[j].DisplayName
	})
	return entries, nil
}

func (s *Session) memberIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, len(s.members))
	for id := range s.members {
		ids = append(ids, id)
	}
	return ids
}

// findQuestion must be called with the session lock held.
func (s *Session) findQuestion(questionID int64) (domain.Question, bool) {
	for _, q := range s.quiz.Questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}

// Phase reports the current state-machine position.
func (s *Session) Phase() domain.Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// CurrentQuestionID reports the active question, zero when none was opened.
func (s *Session) CurrentQuestionID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentQuestionID
}

// Score reports a participant's score, false when the user never joined.
func (s *Session) Score(userID string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.participants[userID]
	if !ok {
		return 0, false
	}
	return p.Score, true
}
