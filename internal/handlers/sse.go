package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/HarshaliWani/ConceptPilot2.0/internal/middleware"
	"github.com/HarshaliWani/ConceptPilot2.0/internal/sse"
)

// SSEHandler exposes the hub for observers: a second tab (or another
// instance's client, via the bus forwarder) can watch a running batch's
// events without owning the generating request.
type SSEHandler struct {
	hub *sse.Hub
}

func NewSSEHandler(hub *sse.Hub) *SSEHandler {
	return &SSEHandler{hub: hub}
}

// GET /api/sse/stream?batch_id=<uuid>
func (h *SSEHandler) Stream(c *gin.Context) {
	batchID, err := uuid.Parse(c.Query("batch_id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "bad_request", fmt.Errorf("batch_id required"))
		return
	}

	var userID uuid.UUID
	if id := middleware.CurrentUserID(c); id != nil {
		userID = *id
	}
	client := h.hub.NewClient(userID)
	h.hub.AddChannel(client, sse.BatchChannel(batchID))
	defer h.hub.CloseClient(client)

	h.hub.ServeHTTP(c.Writer, c.Request, client)
}
