package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"live-quiz-service/internal/auth"
	"live-quiz-service/internal/domain"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user domain.User) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
}

// QuizAdminStore is the write/read surface for quiz definitions.
type QuizAdminStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error)
	AddQuestion(ctx context.Context, quizID int64, question domain.Question) (domain.Question, error)
	GetQuiz(ctx context.Context, quizID int64) (domain.Quiz, error)
}

// APIHandler serves the CRUD surface: signup/login and quiz management.
// The live coordinator consumes what these routes persist.
type APIHandler struct {
	users   UserStore
	quizzes QuizAdminStore
	tokens  *auth.TokenService
}

func NewAPIHandler(users UserStore, quizzes QuizAdminStore, tokens *auth.TokenService) *APIHandler {
	return &APIHandler{users: users, quizzes: quizzes, tokens: tokens}
}

// Register mounts the REST routes.
func (h *APIHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/signup", h.handleSignup)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("GET /api/auth/me", h.handleMe)
	mux.HandleFunc("POST /api/quiz", h.handleCreateQuiz)
	mux.HandleFunc("POST /api/quiz/{quizId}/questions", h.handleAddQuestion)
	mux.HandleFunc("GET /api/quiz/{quizId}", h.handleGetQuiz)
}

type signupRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     domain.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type questionRequest struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex *int     `json:"correctOptionIndex"`
}

type createQuizRequest struct {
	Title     string            `json:"title"`
	Questions []questionRequest `json:"questions"`
}

// questionView is the public form of a question: no correct index. The
// confidentiality rule applies to the REST surface as much as to the
// websocket broadcasts.
type questionView struct {
	ID      int64    `json:"id"`
	Text    string   `json:"text"`
	Options []string `json:"options"`
}

func (h *APIHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if len(req.Name) < 3 || !strings.Contains(req.Email, "@") || len(req.Password) < 6 ||
		(req.Role != domain.RoleAdmin && req.Role != domain.RoleParticipant) {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}
	user, err := h.users.CreateUser(r.Context(), domain.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		log.Printf("signup failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}
	writeData(w, http.StatusCreated, user)
}

func (h *APIHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid data")
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		writeError(w, http.StatusBadRequest, domain.ErrUserNotFound.Error())
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		writeError(w, http.StatusBadRequest, domain.ErrInvalidPassword.Error())
		return
	}

	token, err := h.tokens.Issue(user)
	if err != nil {
		log.Printf("token issue failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not issue token")
		return
	}
	writeData(w, http.StatusOK, map[string]string{"token": token})
}

func (h *APIHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	identity, err := h.identityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized, token missing or invalid")
		return
	}
	writeData(w, http.StatusOK, identity)
}

func (h *APIHandler) handleCreateQuiz(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	var req createQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}
	if len(req.Title) < 3 || len(req.Questions) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}
	questions := make([]domain.Question, 0, len(req.Questions))
	for _, q := range req.Questions {
		question, ok := validQuestion(q)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid request schema")
			return
		}
		questions = append(questions, question)
	}

	quiz, err := h.quizzes.CreateQuiz(r.Context(), domain.Quiz{Title: req.Title, Questions: questions})
	if err != nil {
		log.Printf("create quiz failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not create quiz")
		return
	}
	writeData(w, http.StatusCreated, map[string]any{"id": quiz.ID, "title": quiz.Title})
}

func (h *APIHandler) handleAddQuestion(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}
	quizID, err := strconv.ParseInt(r.PathValue("quizId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Quiz not found")
		return
	}
	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}
	question, ok := validQuestion(req)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid request schema")
		return
	}

	added, err := h.quizzes.AddQuestion(r.Context(), quizID, question)
	if err != nil {
		if errors.Is(err, domain.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "Quiz not found")
			return
		}
		log.Printf("add question failed: %v", err)
		writeError(w, http.StatusInternalServerError, "could not add question")
		return
	}
	writeData(w, http.StatusOK, map[string]any{"quizId": quizID, "question": added})
}

func (h *APIHandler) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := strconv.ParseInt(r.PathValue("quizId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusNotFound, "Quiz not found")
		return
	}
	quiz, err := h.quizzes.GetQuiz(r.Context(), quizID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Quiz not found")
		return
	}

	views := make([]questionView, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		views = append(views, questionView{ID: q.ID, Text: q.Text, Options: q.Options})
	}
	writeData(w, http.StatusOK, map[string]any{
		"quizId":    quiz.ID,
		"title":     quiz.Title,
		"questions": views,
	})
}

func (h *APIHandler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	identity, err := h.identityFromRequest(r)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "Unauthorized, token missing or invalid")
		return false
	}
	if identity.Role != domain.RoleAdmin {
		writeError(w, http.StatusUnauthorized, "Unauthorized, admin access required")
		return false
	}
	return true
}

func (h *APIHandler) identityFromRequest(r *http.Request) (domain.Identity, error) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	return h.tokens.Verify(token)
}

func validQuestion(q questionRequest) (domain.Question, bool) {
	if len(q.Text) < 3 || len(q.Options) < 2 || q.CorrectOptionIndex == nil {
		return domain.Question{}, false
	}
	if *q.CorrectOptionIndex < 0 || *q.CorrectOptionIndex >= len(q.Options) {
		return domain.Question{}, false
	}
	return domain.Question{
		Text:               q.Text,
		Options:            q.Options,
		CorrectOptionIndex: *q.CorrectOptionIndex,
	}, true
}

func writeData(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"success": false, "error": message})
}
