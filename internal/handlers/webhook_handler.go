package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/services"
)

// WebhookHandler handles call-provider webhook requests
type WebhookHandler struct {
	reconcileSvc services.ReconcileService
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(reconcileSvc services.ReconcileService) *WebhookHandler {
	return &WebhookHandler{
		reconcileSvc: reconcileSvc,
	}
}

// Receive handles POST /webhook. The provider retries on non-2xx responses,
// so every outcome including malformed payloads is acknowledged with 200.
func (h *WebhookHandler) Receive(c *gin.Context) {
	var event models.WebhookEvent
	if err := c.ShouldBindJSON(&event); err != nil {
		slog.Warn("Discarding malformed webhook payload", "error", err)
		c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
		return
	}

	result, err := h.reconcileSvc.Reconcile(c.Request.Context(), &event)
	if err != nil {
		slog.Error("Webhook reconciliation failed", "error", err, "event", event.Event)
	} else if result != nil && result.Matched {
		slog.Info("Webhook reconciled", "path", result.Path,
			"phone", result.PhoneNumber, "campaignId", result.CampaignID, "status", result.Status)
	}

	c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
}
