package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ashureev/quizzical/internal/identity"
	"github.com/ashureev/quizzical/internal/quiz"
	"github.com/go-chi/chi/v5"
)

const maxRequestBody = 4 << 10

// QuizHandler exposes the quiz session over HTTP.
type QuizHandler struct {
	*Handler
}

// NewQuizHandler creates a new quiz handler.
func NewQuizHandler(base *Handler) *QuizHandler {
	return &QuizHandler{Handler: base}
}

// RegisterRoutes registers quiz routes.
func (h *QuizHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/quiz", func(r chi.Router) {
		r.Get("/", h.GetQuiz)
		r.Post("/start", h.Start)
		r.Post("/answers", h.SelectAnswer)
		r.Post("/check", h.Check)
		r.Post("/error/dismiss", h.DismissError)
	})
}

type selectAnswerRequest struct {
	Question *int `json:"question"`
	Answer   *int `json:"answer"`
}

// controller resolves the caller's quiz session, writing an error response
// when it cannot.
func (h *QuizHandler) controller(w http.ResponseWriter, r *http.Request) (*quiz.Controller, bool) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}
	sessionID := identity.SessionIDFromContext(r.Context())

	c, err := h.sessions.Get(r.Context(), userID, sessionID)
	if err != nil {
		slog.Error("Failed to open quiz session", "error", err, "user_id", userID, "session_id", sessionID)
		Error(w, http.StatusInternalServerError, "failed to open quiz session")
		return nil, false
	}
	return c, true
}

// GetQuiz returns the current view.
func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, quiz.Render(c.State()))
}

// Start fetches a new batch of questions. It also serves play again.
func (h *QuizHandler) Start(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}

	if err := c.Start(r.Context()); err != nil {
		if errors.Is(err, quiz.ErrClosed) {
			Error(w, http.StatusConflict, "quiz session closed")
			return
		}
		if errors.Is(err, quiz.ErrQuizInProgress) {
			JSON(w, http.StatusConflict, quiz.Render(c.State()))
			return
		}
		JSON(w, http.StatusBadGateway, quiz.Render(c.State()))
		return
	}
	JSON(w, http.StatusOK, quiz.Render(c.State()))
}

// SelectAnswer records the pick for one question.
func (h *QuizHandler) SelectAnswer(w http.ResponseWriter, r *http.Request) {
	var req selectAnswerRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Question == nil || req.Answer == nil {
		Error(w, http.StatusBadRequest, "question and answer are required")
		return
	}

	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, quiz.Render(c.Select(*req.Question, *req.Answer)))
}

// Check grades the session.
func (h *QuizHandler) Check(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, quiz.Render(c.Check()))
}

// DismissError clears the error banner.
func (h *QuizHandler) DismissError(w http.ResponseWriter, r *http.Request) {
	c, ok := h.controller(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, quiz.Render(c.DismissError()))
}
