package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/netiramawat02/DNE-OPUS-POC/service"
)

type ChatHandler struct {
	engine *service.ChatEngine
}

func NewChatHandler(engine *service.ChatEngine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

type ChatRequest struct {
	Query      string `json:"query" binding:"required"`
	ContractID string `json:"contract_id"`
}

type ChatResponse struct {
	Answer  string   `json:"answer"`
	Sources []string `json:"sources"`
}

// Ask answers a question against the indexed contracts, optionally scoped to
// a single contract. Provider failures surface in the answer text, never as
// transport errors.
func (h *ChatHandler) Ask(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	answer, sources := h.engine.Answer(c.Request.Context(), req.Query, req.ContractID)
	c.JSON(http.StatusOK, ChatResponse{Answer: answer, Sources: sources})
}
