package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/services"
)

// CampaignHandler handles campaign-related HTTP requests
type CampaignHandler struct {
	campaignService services.CampaignService
}

// NewCampaignHandler creates a new CampaignHandler
func NewCampaignHandler(campaignService services.CampaignService) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
	}
}

// Create handles POST /campaigns
func (h *CampaignHandler) Create(c *gin.Context) {
	var campaign models.Campaign
	if err := c.ShouldBindJSON(&campaign); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if campaign.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Campaign name is required"})
		return
	}
	if campaign.Users == "" {
		campaign.Users = c.GetString("user_id")
	}

	if err := h.campaignService.Create(c.Request.Context(), &campaign); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create campaign: " + err.Error()})
		return
	}
	c.JSON(http.StatusCreated, campaign)
}

// List handles GET /campaigns. Brokers see only their own campaigns.
func (h *CampaignHandler) List(c *gin.Context) {
	var (
		campaigns []*models.Campaign
		err       error
	)
	if c.GetString("role") == models.RoleSuperAdmin {
		campaigns, err = h.campaignService.List(c.Request.Context())
	} else {
		campaigns, err = h.campaignService.ListByUser(c.Request.Context(), c.GetString("user_id"))
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve campaigns: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// ListArchived handles GET /campaigns/archived
func (h *CampaignHandler) ListArchived(c *gin.Context) {
	campaigns, err := h.campaignService.ListArchived(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve archived campaigns: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, campaigns)
}

// GetByID handles GET /campaigns/:id
func (h *CampaignHandler) GetByID(c *gin.Context) {
	campaign, err := h.campaignService.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve campaign: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, campaign)
}

// Update handles PUT /campaigns/:id
func (h *CampaignHandler) Update(c *gin.Context) {
	var update models.CampaignUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if err := h.campaignService.Update(c.Request.Context(), c.Param("id"), &update); err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update campaign: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign updated"})
}

// Archive handles POST /campaigns/:id/archive
func (h *CampaignHandler) Archive(c *gin.Context) {
	h.setVisibility(c, h.campaignService.Archive, "Campaign archived")
}

// Unarchive handles POST /campaigns/:id/unarchive
func (h *CampaignHandler) Unarchive(c *gin.Context) {
	h.setVisibility(c, h.campaignService.Unarchive, "Campaign restored")
}

func (h *CampaignHandler) setVisibility(c *gin.Context, op func(context.Context, string) error, message string) {
	if err := op(c.Request.Context(), c.Param("id")); err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to change campaign visibility: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": message})
}

// Analytics handles GET /campaigns/:id/analytics
func (h *CampaignHandler) Analytics(c *gin.Context) {
	analytics, err := h.campaignService.Analytics(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, services.ErrCampaignNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute analytics: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, analytics)
}
