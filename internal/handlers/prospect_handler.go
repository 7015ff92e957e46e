package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benchmarksales/ai-outbound-backend/internal/services"
)

// ProspectHandler handles prospect-related HTTP requests
type ProspectHandler struct {
	prospectService services.ProspectService
}

// NewProspectHandler creates a new ProspectHandler
func NewProspectHandler(prospectService services.ProspectService) *ProspectHandler {
	return &ProspectHandler{
		prospectService: prospectService,
	}
}

// UploadRequest is the POST /prospects payload
type UploadRequest struct {
	CampaignID        string                    `json:"campaignId"`
	ScheduledCallDate string                    `json:"scheduledCallDate,omitempty"`
	ScheduledCallTime string                    `json:"scheduledCallTime,omitempty"`
	Prospects         []services.ProspectUpload `json:"prospects" binding:"required"`
}

// Upload handles POST /prospects
func (h *ProspectHandler) Upload(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	result, err := h.prospectService.Upload(c.Request.Context(), req.Prospects, req.CampaignID, req.ScheduledCallDate, req.ScheduledCallTime)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNoProspects):
			c.JSON(http.StatusBadRequest, gin.H{"error": "No prospects provided"})
		case errors.Is(err, services.ErrCampaignNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Campaign not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload prospects: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetByCampaign handles GET /prospects/campaign/:campaignId
func (h *ProspectHandler) GetByCampaign(c *gin.Context) {
	prospects, err := h.prospectService.GetByCampaign(c.Request.Context(), c.Param("campaignId"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve prospects: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, prospects)
}

// GetByPhone handles GET /prospects/:campaignId/:phoneNumber
func (h *ProspectHandler) GetByPhone(c *gin.Context) {
	prospect, err := h.prospectService.GetByPhoneAndCampaign(c.Request.Context(), c.Param("phoneNumber"), c.Param("campaignId"))
	if err != nil {
		if errors.Is(err, services.ErrProspectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prospect not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve prospect: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, prospect)
}

// InitiateCall handles GET /calls/initiate?phoneNumber=...&campaignId=...
func (h *ProspectHandler) InitiateCall(c *gin.Context) {
	phone := c.Query("phoneNumber")
	campaignID := c.Query("campaignId")
	if phone == "" || campaignID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "phoneNumber and campaignId query parameters are required"})
		return
	}

	if err := h.prospectService.InitiateCall(c.Request.Context(), phone, campaignID); err != nil {
		if errors.Is(err, services.ErrProspectNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Prospect not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate call: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Call initiation started"})
}

// CampaignCallsRequest is the POST /calls/campaign payload
type CampaignCallsRequest struct {
	CampaignID   string   `json:"campaign_id" binding:"required"`
	PhoneNumbers []string `json:"phone_numbers" binding:"required"`
}

// InitiateCampaignCalls handles POST /calls/campaign
func (h *ProspectHandler) InitiateCampaignCalls(c *gin.Context) {
	var req CampaignCallsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	queued, err := h.prospectService.InitiateCampaignCalls(c.Request.Context(), req.CampaignID, req.PhoneNumbers)
	if err != nil {
		if errors.Is(err, services.ErrNoProspects) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No matching prospects for the given phone numbers"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to initiate campaign calls: " + err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Campaign call initiation started", "queued": queued})
}
