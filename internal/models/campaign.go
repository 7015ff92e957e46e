package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Campaign represents one outreach effort owned by a single broker user.
// Prospects reference campaigns by the hex string of the campaign ID.
type Campaign struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name         string             `bson:"name" json:"name"`
	Description  string             `bson:"description,omitempty" json:"description,omitempty"`
	Users        string             `bson:"users" json:"users"` // owning broker user ID (hex)
	BusinessName string             `bson:"businessName,omitempty" json:"businessName,omitempty"`
	CampaignDate string             `bson:"campaignDate,omitempty" json:"campaignDate,omitempty"` // YYYY-MM-DD
	CampaignTime string             `bson:"campaignTime,omitempty" json:"campaignTime,omitempty"` // HH:MM
	MaxRetry     int                `bson:"maxRetry" json:"maxRetry"`
	IsVisible    bool               `bson:"isVisible" json:"isVisible"`
	HasEbook     bool               `bson:"has_ebook" json:"has_ebook"`
	EbookPath    string             `bson:"ebook_path,omitempty" json:"ebook_path,omitempty"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// CampaignUpdate carries the settings a campaign owner may change after
// creation. Nil fields are left untouched.
type CampaignUpdate struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	CampaignDate *string `json:"campaignDate,omitempty"`
	CampaignTime *string `json:"campaignTime,omitempty"`
	MaxRetry     *int    `json:"maxRetry,omitempty"`
	HasEbook     *bool   `json:"has_ebook,omitempty"`
}

// CampaignAnalytics is the read-only per-campaign rollup exposed by the
// analytics endpoint.
type CampaignAnalytics struct {
	CampaignID     string `json:"campaignId"`
	Total          int    `json:"total"`
	New            int    `json:"new"`
	Contacted      int    `json:"contacted"`
	PickedUp       int    `json:"pickedUp"`
	Errors         int    `json:"errors"`
	Appointments   int    `json:"appointments"`
	Callbacks      int    `json:"callbacks"`
	EbooksSent     int    `json:"ebooksSent"`
	Newsletters    int    `json:"newsletters"`
	TotalCallsMade int    `json:"totalCallsMade"`
}
