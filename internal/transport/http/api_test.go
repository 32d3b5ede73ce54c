package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/infra/memory"
)

func newAPIServer(t *testing.T) *httptest.Server {
	t.Helper()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	handler := NewAPIHandler(memory.NewUserStore(), memory.NewQuizStore(), tokens)
	mux := http.NewServeMux()
	handler.Register(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func postJSON(t *testing.T, url, token string, body any) (*http.Response, map[string]any) {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, url, token string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func signupAndLogin(t *testing.T, server *httptest.Server, name, email, role string) string {
	t.Helper()
	resp, _ := postJSON(t, server.URL+"/api/auth/signup", "", map[string]any{
		"name": name, "email": email, "password": "secret1", "role": role,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d", resp.StatusCode)
	}
	resp, body := postJSON(t, server.URL+"/api/auth/login", "", map[string]any{
		"email": email, "password": "secret1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	return body["data"].(map[string]any)["token"].(string)
}

func TestSignupLoginMe(t *testing.T) {
	server := newAPIServer(t)

	token := signupAndLogin(t, server, "Rahul", "rahul@example.com", "admin")

	resp, body := postJSON(t, server.URL+"/api/auth/signup", "", map[string]any{
		"name": "Rahul2", "email": "rahul@example.com", "password": "secret1", "role": "admin",
	})
	if resp.StatusCode != http.StatusBadRequest || body["success"] != false {
		t.Fatalf("duplicate signup: expected 400, got %d %v", resp.StatusCode, body)
	}

	resp, body = getJSON(t, server.URL+"/api/auth/me", token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me: expected 200, got %d", resp.StatusCode)
	}
	data := body["data"].(map[string]any)
	if data["name"] != "Rahul" || data["role"] != "admin" {
		t.Fatalf("unexpected identity %v", data)
	}

	resp, _ = getJSON(t, server.URL+"/api/auth/me", "")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("me without token: expected 401, got %d", resp.StatusCode)
	}
}

func TestSignupValidation(t *testing.T) {
	server := newAPIServer(t)

	cases := []map[string]any{
		{"name": "ab", "email": "a@b.c", "password": "secret1", "role": "admin"},
		{"name": "Alice", "email": "not-an-email", "password": "secret1", "role": "admin"},
		{"name": "Alice", "email": "a@b.c", "password": "short", "role": "admin"},
		{"name": "Alice", "email": "a@b.c", "password": "secret1", "role": "superuser"},
	}
	for _, payload := range cases {
		resp, _ := postJSON(t, server.URL+"/api/auth/signup", "", payload)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("payload %v: expected 400, got %d", payload, resp.StatusCode)
		}
	}
}

func TestQuizCRUD(t *testing.T) {
	server := newAPIServer(t)
	adminToken := signupAndLogin(t, server, "Rahul", "rahul@example.com", "admin")
	userToken := signupAndLogin(t, server, "Jane", "jane@example.com", "participant")

	quizBody := map[string]any{
		"title": "Node.js Basics",
		"questions": []map[string]any{
			{"text": "What is Node.js?", "options": []string{"Runtime", "Framework", "Library"}, "correctOptionIndex": 0},
		},
	}

	resp, _ := postJSON(t, server.URL+"/api/quiz", userToken, quizBody)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("participant create: expected 401, got %d", resp.StatusCode)
	}

	resp, body := postJSON(t, server.URL+"/api/quiz", adminToken, quizBody)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create quiz: expected 201, got %d %v", resp.StatusCode, body)
	}

	resp, body = postJSON(t, server.URL+"/api/quiz/1/questions", adminToken, map[string]any{
		"text": "Pick B", "options": []string{"A", "B"}, "correctOptionIndex": 1,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("add question: expected 200, got %d %v", resp.StatusCode, body)
	}

	resp, body = getJSON(t, server.URL+"/api/quiz/1", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get quiz: expected 200, got %d", resp.StatusCode)
	}
	questions := body["data"].(map[string]any)["questions"].([]any)
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	for _, q := range questions {
		if _, leaked := q.(map[string]any)["correctOptionIndex"]; leaked {
			t.Fatalf("quiz read leaks the correct option: %v", q)
		}
	}

	resp, _ = getJSON(t, server.URL+"/api/quiz/99", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown quiz: expected 404, got %d", resp.StatusCode)
	}
}
