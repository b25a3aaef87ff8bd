package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/middleware"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/services"
)

type QuizHandler struct {
	svc services.QuizService
}

func NewQuizHandler(svc services.QuizService) *QuizHandler {
	return &QuizHandler{svc: svc}
}

// POST /api/quizzes/generate
func (h *QuizHandler) Generate(c *gin.Context) {
	var req services.GenerateQuizRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	req.UserID = middleware.CurrentUserID(c)
	quiz, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		RespondError(c, http.StatusBadGateway, "generation_failed", err)
		return
	}
	c.JSON(http.StatusCreated, quiz)
}

// GET /api/quizzes/:id
func (h *QuizHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid quiz id"))
		return
	}
	quiz, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "lookup_failed", err)
		return
	}
	if quiz == nil {
		RespondError(c, http.StatusNotFound, "not_found", fmt.Errorf("quiz %s not found", id))
		return
	}
	RespondOK(c, quiz)
}

// GET /api/lessons/:id/quizzes
func (h *QuizHandler) ListByLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid lesson id"))
		return
	}
	quizzes, err := h.svc.ListByLesson(c.Request.Context(), lessonID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"quizzes": quizzes})
}

// DELETE /api/quizzes/:id
func (h *QuizHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid quiz id"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}
