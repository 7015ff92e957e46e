package repositories

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
)

// ProspectRepository defines the interface for prospect data operations.
// Mutations are targeted field-level updates scoped by phoneNumber and
// campaignId (and callId/batchId where a call record is involved); whole
// document replacement is never used.
type ProspectRepository interface {
	// Upsert creates the prospect or refreshes campaign fields on the
	// existing (phoneNumber, campaignName) document. Returns true when a
	// new document was inserted.
	Upsert(ctx context.Context, prospect *models.Prospect) (bool, error)
	FindByPhoneAndCampaign(ctx context.Context, phone, campaignID string) (*models.Prospect, error)
	FindByCampaignID(ctx context.Context, campaignID string) ([]*models.Prospect, error)
	// FindByCallID and FindByBatchID locate the prospect owning a specific
	// call record.
	FindByCallID(ctx context.Context, phone, campaignID, callID string) (*models.Prospect, error)
	FindByBatchID(ctx context.Context, phone, campaignID, batchID string) (*models.Prospect, error)

	// FindFirstCallCandidates returns status=new prospects scheduled for the
	// given business date. Clock filtering happens in the scheduler.
	FindFirstCallCandidates(ctx context.Context, date string) ([]*models.Prospect, error)
	// FindCallbackCandidates returns prospects with an active callback for
	// the given business date, inside the retry and callback ceilings.
	FindCallbackCandidates(ctx context.Context, date string) ([]*models.Prospect, error)

	// MarkBatchDispatched records a batch submission on the prospect: status
	// contacted, retryCount incremented, placeholder call record and audit
	// entry appended, all in one update.
	MarkBatchDispatched(ctx context.Context, phone, campaignID, batchID, timestamp string) error
	// MarkCallDispatched is the single-call variant keyed by callId.
	MarkCallDispatched(ctx context.Context, phone, campaignID, callID, timestamp string) error

	// ResolveBatchCall replaces the unresolved placeholder call record
	// matching batchId with full detail and applies the prospect-level
	// resolution in the same update. Returns false when no unresolved
	// record matched (replayed webhook).
	ResolveBatchCall(ctx context.Context, phone, campaignID, batchID string, res *models.CallResolution) (bool, error)
	// ResolveCall is the individually-dispatched variant keyed by callId.
	ResolveCall(ctx context.Context, phone, campaignID, callID string, res *models.CallResolution) (bool, error)

	// UpdateAppointment sets the appointment sub-document and appends an
	// audit entry.
	UpdateAppointment(ctx context.Context, phone, campaignID string, appointment models.Appointment, audit models.AuditLogEntry) error
}

// CampaignRepository defines the interface for campaign data operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *models.Campaign) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error)
	FindAll(ctx context.Context) ([]*models.Campaign, error)
	FindByUserID(ctx context.Context, userID string) ([]*models.Campaign, error)
	FindArchived(ctx context.Context) ([]*models.Campaign, error)
	Update(ctx context.Context, id primitive.ObjectID, update *models.CampaignUpdate) error
	Archive(ctx context.Context, id primitive.ObjectID) error
	Unarchive(ctx context.Context, id primitive.ObjectID) error
}

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
	FindByRole(ctx context.Context, role string) ([]*models.User, error)
	FindAll(ctx context.Context) ([]*models.User, error)
}
