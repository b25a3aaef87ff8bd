package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/middleware"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/services"
)

type FlashcardHandler struct {
	svc services.FlashcardService
}

func NewFlashcardHandler(svc services.FlashcardService) *FlashcardHandler {
	return &FlashcardHandler{svc: svc}
}

// POST /api/flashcards/generate
func (h *FlashcardHandler) Generate(c *gin.Context) {
	var req services.GenerateFlashcardsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", err)
		return
	}
	req.UserID = middleware.CurrentUserID(c)
	cards, err := h.svc.Generate(c.Request.Context(), req)
	if err != nil {
		RespondError(c, http.StatusBadGateway, "generation_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"flashcards": cards})
}

// GET /api/flashcards/due?limit=
func (h *FlashcardHandler) ListDue(c *gin.Context) {
	userID, err := middleware.MustUserID(c)
	if err != nil {
		RespondError(c, http.StatusUnauthorized, "unauthorized", err)
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	cards, err := h.svc.ListDue(c.Request.Context(), userID, limit)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"flashcards": cards})
}

// GET /api/lessons/:id/flashcards
func (h *FlashcardHandler) ListByLesson(c *gin.Context) {
	lessonID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid lesson id"))
		return
	}
	cards, err := h.svc.ListByLesson(c.Request.Context(), lessonID)
	if err != nil {
		RespondError(c, http.StatusInternalServerError, "list_failed", err)
		return
	}
	RespondOK(c, gin.H{"flashcards": cards})
}

// POST /api/flashcards/:id/review
func (h *FlashcardHandler) Review(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid flashcard id"))
		return
	}
	var body struct {
		Quality *int `json:"quality"`
	}
	if err := c.ShouldBindJSON(&body); err != nil || body.Quality == nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("quality (0-5) required"))
		return
	}
	card, err := h.svc.Review(c.Request.Context(), id, *body.Quality)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "review_failed", err)
		return
	}
	RespondOK(c, card)
}

// DELETE /api/flashcards/:id
func (h *FlashcardHandler) Delete(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("invalid flashcard id"))
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		RespondError(c, http.StatusInternalServerError, "delete_failed", err)
		return
	}
	RespondOK(c, gin.H{"ok": true})
}
