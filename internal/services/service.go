package services

import (
	"context"
	"errors"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
)

// Service-level sentinel errors. Handlers translate these to HTTP statuses.
var (
	ErrNoProspects        = errors.New("no prospects provided")
	ErrProspectNotFound   = errors.New("prospect not found")
	ErrCampaignNotFound   = errors.New("campaign not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrMissingBrokerKey   = errors.New("broker has no scheduling API key")
	ErrInvalidDate        = errors.New("invalid or missing date, expected YYYY-MM-DD")
	ErrInvalidTime        = errors.New("invalid or missing time, expected HH:MM (24-hour)")
	ErrSlotUnavailable    = errors.New("the selected time slot is not available")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("email already registered")
)

// DispatchService turns prospects into outbound call requests
type DispatchService interface {
	// Dispatch partitions leads into provider batches and submits them,
	// updating each prospect on success. Per-batch failures are isolated.
	Dispatch(ctx context.Context, leads []models.Lead) (*models.DispatchResult, error)
	// DispatchDirect places one call per lead with pacing, for small
	// manually-triggered sets.
	DispatchDirect(ctx context.Context, leads []models.Lead) (*models.DispatchResult, error)
	// DispatchAsync runs Dispatch on a background goroutine so HTTP callers
	// are not blocked for the full pacing duration.
	DispatchAsync(leads []models.Lead)
}

// ReconcileService consumes provider webhook events
type ReconcileService interface {
	Reconcile(ctx context.Context, event *models.WebhookEvent) (*models.ReconciliationResult, error)
}

// BookingRequest carries one appointment booking attempt
type BookingRequest struct {
	Date        string `json:"date"`
	Time        string `json:"time"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Subject     string `json:"subject,omitempty"`
	MeetingType string `json:"meetingType"`
	CampaignID  string `json:"campaignId"`
	CallerEmail string `json:"email,omitempty"`
}

// BookingResult reports a successful booking
type BookingResult struct {
	Message       string `json:"message"`
	AppointmentID string `json:"appointmentId,omitempty"`
	MeetingLink   string `json:"meetingLink,omitempty"`
}

// BookingService books appointments against the broker's calendar
type BookingService interface {
	Book(ctx context.Context, req BookingRequest) (*BookingResult, error)
	CheckAvailability(ctx context.Context, date, timeOfDay, campaignID string) (bool, error)
}

// ProspectUpload is one row of an upload request
type ProspectUpload struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phoneNumber"`
	BusinessName string `json:"businessName"`
	OwnerName    string `json:"ownerName"`
}

// SkippedProspect explains why an upload row was dropped
type SkippedProspect struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// UploadResult reports an upload outcome
type UploadResult struct {
	Created int               `json:"created"`
	Updated int               `json:"updated"`
	Skipped []SkippedProspect `json:"skipped,omitempty"`
}

// ProspectService manages prospect lifecycle outside of dispatch/reconcile
type ProspectService interface {
	Upload(ctx context.Context, uploads []ProspectUpload, campaignID, scheduledCallDate, scheduledCallTime string) (*UploadResult, error)
	GetByCampaign(ctx context.Context, campaignID string) ([]*models.Prospect, error)
	GetByPhoneAndCampaign(ctx context.Context, phone, campaignID string) (*models.Prospect, error)
	// InitiateCall dispatches a single prospect asynchronously.
	InitiateCall(ctx context.Context, phone, campaignID string) error
	// InitiateCampaignCalls dispatches the given phone numbers of a campaign
	// asynchronously and returns the number of leads queued.
	InitiateCampaignCalls(ctx context.Context, campaignID string, phoneNumbers []string) (int, error)
}

// CampaignService manages campaigns and their analytics
type CampaignService interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	GetByID(ctx context.Context, id string) (*models.Campaign, error)
	List(ctx context.Context) ([]*models.Campaign, error)
	ListByUser(ctx context.Context, userID string) ([]*models.Campaign, error)
	ListArchived(ctx context.Context) ([]*models.Campaign, error)
	Update(ctx context.Context, id string, update *models.CampaignUpdate) error
	Archive(ctx context.Context, id string) error
	Unarchive(ctx context.Context, id string) error
	Analytics(ctx context.Context, id string) (*models.CampaignAnalytics, error)
}

// ReportService maintains the disposable per-campaign call report
type ReportService interface {
	// Seed ensures a report row exists for each prospect.
	Seed(campaignID string, prospects []*models.Prospect) error
	// RecordOutcome fills the connection/outcome columns for a phone number.
	RecordOutcome(campaignID, phone, connection, outcome string) error
	// FinalizeIfComplete converts, emails and removes the report once every
	// row has both outcome columns populated.
	FinalizeIfComplete(ctx context.Context, campaignID string) (bool, error)
}

// UserService manages accounts and authentication
type UserService interface {
	Register(ctx context.Context, name, email, password, role string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, *models.User, error)
	SuperAdmins(ctx context.Context) ([]*models.User, error)
}
