package app_test

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"live-quiz-service/internal/app"
	"live-quiz-service/internal/domain"
	"live-quiz-service/internal/infra/memory"
)

var (
	admin = domain.Identity{UserID: "a1", DisplayName: "Rahul", Role: domain.RoleAdmin}
	jane  = domain.Identity{UserID: "u1", DisplayName: "Jane", Role: domain.RoleParticipant}
)

type recordingBroadcaster struct {
	mu     sync.Mutex
	events []app.Event
}

func (b *recordingBroadcaster) BroadcastToSession(_ int64, event app.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBroadcaster) last(t *testing.T) app.Event {
	t.Helper()
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.events) == 0 {
		t.Fatalf("expected a broadcast")
	}
	return b.events[len(b.events)-1]
}

func newTestCoordinator() (*app.Coordinator, *recordingBroadcaster) {
	store := memory.NewQuizStore()
	store.Put(domain.Quiz{
		ID:    1,
		Title: "Node.js Basics",
		Questions: []domain.Question{
			{ID: 1, Text: "What is Node.js?", Options: []string{"Runtime", "Framework", "Library"}, CorrectOptionIndex: 0},
		},
	})
	coordinator := app.NewCoordinator(memory.NewSessionStore(), memory.NewQuizCache(store, time.Minute))
	broadcaster := &recordingBroadcaster{}
	coordinator.SetBroadcaster(broadcaster)
	return coordinator, broadcaster
}

func TestStartQuizBroadcastsToMembers(t *testing.T) {
	ctx := context.Background()
	coordinator, broadcaster := newTestCoordinator()

	if _, err := coordinator.Join(ctx, 1, jane); err != nil {
		t.Fatalf("join: %v", err)
	}
	if err := coordinator.StartQuiz(ctx, 1, admin); err != nil {
		t.Fatalf("start: %v", err)
	}

	event := broadcaster.last(t)
	if event.Type != "QUIZ_STARTED" {
		t.Fatalf("expected QUIZ_STARTED, got %s", event.Type)
	}

	members := coordinator.SessionMembers(1)
	if len(members) != 2 {
		t.Fatalf("expected admin and participant enrolled, got %v", members)
	}
}

func TestRoleEnforcement(t *testing.T) {
	ctx := context.Background()
	coordinator, _ := newTestCoordinator()

	if err := coordinator.StartQuiz(ctx, 1, jane); err != domain.ErrAdminRequired {
		t.Fatalf("participant START_QUIZ: expected admin rejection, got %v", err)
	}
	if err := coordinator.ShowQuestion(1, 1, jane); err != domain.ErrAdminRequired {
		t.Fatalf("participant SHOW_QUESTION: expected admin rejection, got %v", err)
	}
	if err := coordinator.ShowResult(1, 1, jane); err != domain.ErrAdminRequired {
		t.Fatalf("participant SHOW_RESULT: expected admin rejection, got %v", err)
	}
	if err := coordinator.EndQuiz(1, jane); err != domain.ErrAdminRequired {
		t.Fatalf("participant END_QUIZ: expected admin rejection, got %v", err)
	}
	if _, err := coordinator.SubmitAnswer(1, 1, 0, admin); err != domain.ErrParticipantRequired {
		t.Fatalf("admin SUBMIT_ANSWER: expected participant rejection, got %v", err)
	}
}

func TestQuestionBroadcastWithholdsCorrectIndex(t *testing.T) {
	ctx := context.Background()
	coordinator, broadcaster := newTestCoordinator()

	_, _ = coordinator.Join(ctx, 1, jane)
	_ = coordinator.StartQuiz(ctx, 1, admin)
	if err := coordinator.ShowQuestion(1, 1, admin); err != nil {
		t.Fatalf("show question: %v", err)
	}

	event := broadcaster.last(t)
	if event.Type != "QUESTION" {
		t.Fatalf("expected QUESTION, got %s", event.Type)
	}
	raw, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(strings.ToLower(string(raw)), "correct") {
		t.Fatalf("QUESTION broadcast leaks the correct option: %s", raw)
	}
}

func TestAnswerAndResultsFlow(t *testing.T) {
	ctx := context.Background()
	coordinator, broadcaster := newTestCoordinator()

	_, _ = coordinator.Join(ctx, 1, jane)
	_ = coordinator.StartQuiz(ctx, 1, admin)
	_ = coordinator.ShowQuestion(1, 1, admin)

	outcome, err := coordinator.SubmitAnswer(1, 1, 0, jane)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !outcome.Accepted || !outcome.Correct || outcome.Score != 1 {
		t.Fatalf("expected first correct answer scored, got %+v", outcome)
	}

	repeat, err := coordinator.SubmitAnswer(1, 1, 1, jane)
	if err != nil {
		t.Fatalf("resubmit: %v", err)
	}
	if repeat.Accepted || repeat.Reason != "already_answered" {
		t.Fatalf("expected duplicate rejection, got %+v", repeat)
	}

	if err := coordinator.ShowResult(1, 1, admin); err != nil {
		t.Fatalf("show result: %v", err)
	}
	event := broadcaster.last(t)
	if event.Type != "RESULTS" {
		t.Fatalf("expected RESULTS, got %s", event.Type)
	}
	payload, ok := event.Payload.(app.ResultsPayload)
	if !ok {
		t.Fatalf("unexpected payload %T", event.Payload)
	}
	if len(payload.Results) != 1 || payload.Results[0] != 1 {
		t.Fatalf("expected single vote on option 0, got %v", payload.Results)
	}
}

func TestEndQuizReclaimsSession(t *testing.T) {
	ctx := context.Background()
	coordinator, broadcaster := newTestCoordinator()

	_, _ = coordinator.Join(ctx, 1, jane)
	_ = coordinator.StartQuiz(ctx, 1, admin)
	if err := coordinator.EndQuiz(1, admin); err != nil {
		t.Fatalf("end: %v", err)
	}

	event := broadcaster.last(t)
	if event.Type != "QUIZ_ENDED" {
		t.Fatalf("expected QUIZ_ENDED, got %s", event.Type)
	}
	if members := coordinator.SessionMembers(1); members != nil {
		t.Fatalf("expected session reclaimed, got members %v", members)
	}
	if err := coordinator.ShowQuestion(1, 1, admin); err != domain.ErrSessionNotFound {
		t.Fatalf("expected session gone after end, got %v", err)
	}
}

func TestJoinUnknownQuiz(t *testing.T) {
	coordinator, _ := newTestCoordinator()
	if _, err := coordinator.Join(context.Background(), 42, jane); err != domain.ErrQuizNotFound {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}
