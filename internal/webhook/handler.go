package webhook

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"wacrm_backend/platform/logger"
)

// Handler is the webhook HTTP boundary. The provider expects a fast 200;
// everything slow happens in a tracked background batch.
type Handler struct {
	service     *Service
	verifyToken string
	log         *logger.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(service *Service, verifyToken string, log *logger.Logger) *Handler {
	return &Handler{service: service, verifyToken: verifyToken, log: log}
}

// Verify answers the provider's subscription challenge.
// GET /api/v1/webhook/whatsapp
func (h *Handler) Verify(c *gin.Context) {
	mode := c.Query("hub.mode")
	token := c.Query("hub.verify_token")
	challenge := c.Query("hub.challenge")

	if mode == "subscribe" && h.verifyToken != "" && token == h.verifyToken {
		c.String(http.StatusOK, challenge)
		return
	}
	c.JSON(http.StatusForbidden, gin.H{"error": "invalid verification token"})
}

// Receive acknowledges the batch immediately and processes it in the
// background. Returning non-200 here would make the provider retry a
// batch we have already accepted.
// POST /api/v1/webhook/whatsapp
func (h *Handler) Receive(c *gin.Context) {
	var batch Batch
	if err := c.ShouldBindJSON(&batch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if len(batch.Messages) > 0 {
		h.service.ProcessBatchAsync(c.Request.Context(), batch)
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
