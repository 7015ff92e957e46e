package services

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
	"github.com/benchmarksales/ai-outbound-backend/internal/utils"
)

// Compile-time check to ensure ProspectServiceImpl implements ProspectService
var _ ProspectService = (*ProspectServiceImpl)(nil)

// ProspectServiceImpl manages prospect uploads and manual call initiation
type ProspectServiceImpl struct {
	prospectRepo repositories.ProspectRepository
	campaignRepo repositories.CampaignRepository
	dispatchSvc  DispatchService
	reportSvc    ReportService
}

// NewProspectService creates a new ProspectServiceImpl
func NewProspectService(
	prospectRepo repositories.ProspectRepository,
	campaignRepo repositories.CampaignRepository,
	dispatchSvc DispatchService,
	reportSvc ReportService,
) *ProspectServiceImpl {
	return &ProspectServiceImpl{
		prospectRepo: prospectRepo,
		campaignRepo: campaignRepo,
		dispatchSvc:  dispatchSvc,
		reportSvc:    reportSvc,
	}
}

// Upload validates and upserts a batch of prospects into a campaign. Rows
// with invalid phone numbers are skipped with a reason, not rejected as a
// whole. Campaign defaults fill in missing schedule fields.
func (s *ProspectServiceImpl) Upload(ctx context.Context, uploads []ProspectUpload, campaignID, scheduledCallDate, scheduledCallTime string) (*UploadResult, error) {
	if len(uploads) == 0 {
		return nil, ErrNoProspects
	}

	campaignName := ""
	if campaignID != "" {
		oid, err := primitive.ObjectIDFromHex(campaignID)
		if err != nil {
			return nil, ErrCampaignNotFound
		}
		campaign, err := s.campaignRepo.FindByID(ctx, oid)
		if err == mongo.ErrNoDocuments {
			return nil, ErrCampaignNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("find campaign: %w", err)
		}
		campaignName = campaign.Name
		if scheduledCallDate == "" {
			scheduledCallDate = campaign.CampaignDate
		}
		if scheduledCallTime == "" {
			scheduledCallTime = campaign.CampaignTime
		}
	}

	result := &UploadResult{}
	var seeded []*models.Prospect
	for _, upload := range uploads {
		phone, valid := utils.NormalizePhone(upload.PhoneNumber)
		if !valid {
			result.Skipped = append(result.Skipped, SkippedProspect{
				Name:   upload.Name,
				Reason: fmt.Sprintf("invalid phone number %q", upload.PhoneNumber),
			})
			continue
		}

		prospect := &models.Prospect{
			Name:         upload.Name,
			PhoneNumber:  phone,
			BusinessName: upload.BusinessName,
			OwnerName:    upload.OwnerName,
			CampaignName: campaignName,
			CampaignID:   campaignID,
		}
		if scheduledCallDate != "" {
			prospect.ScheduledCallDate = &scheduledCallDate
		}
		prospect.ScheduledCallTime = scheduledCallTime

		created, err := s.prospectRepo.Upsert(ctx, prospect)
		if err != nil {
			slog.Error("Failed to upsert prospect", "error", err, "phone", phone, "campaignId", campaignID)
			result.Skipped = append(result.Skipped, SkippedProspect{
				Name:   upload.Name,
				Reason: err.Error(),
			})
			continue
		}
		if created {
			result.Created++
		} else {
			result.Updated++
		}
		seeded = append(seeded, prospect)
	}

	if campaignID != "" && len(seeded) > 0 && s.reportSvc != nil {
		if err := s.reportSvc.Seed(campaignID, seeded); err != nil {
			slog.Warn("Failed to seed campaign report", "error", err, "campaignId", campaignID)
		}
	}

	slog.Info("Prospect upload processed", "campaignId", campaignID,
		"created", result.Created, "updated", result.Updated, "skipped", len(result.Skipped))
	return result, nil
}

// GetByCampaign retrieves all prospects of a campaign
func (s *ProspectServiceImpl) GetByCampaign(ctx context.Context, campaignID string) ([]*models.Prospect, error) {
	return s.prospectRepo.FindByCampaignID(ctx, campaignID)
}

// GetByPhoneAndCampaign retrieves one prospect
func (s *ProspectServiceImpl) GetByPhoneAndCampaign(ctx context.Context, phone, campaignID string) (*models.Prospect, error) {
	prospect, err := s.prospectRepo.FindByPhoneAndCampaign(ctx, phone, campaignID)
	if err == mongo.ErrNoDocuments {
		return nil, ErrProspectNotFound
	}
	if err != nil {
		return nil, err
	}
	return prospect, nil
}

// InitiateCall dispatches a single prospect asynchronously
func (s *ProspectServiceImpl) InitiateCall(ctx context.Context, phone, campaignID string) error {
	prospect, err := s.GetByPhoneAndCampaign(ctx, phone, campaignID)
	if err != nil {
		return err
	}
	s.dispatchSvc.DispatchAsync([]models.Lead{leadFromProspect(prospect)})
	return nil
}

// InitiateCampaignCalls dispatches the given campaign phone numbers
// asynchronously, skipping unknown numbers, and returns the queued count
func (s *ProspectServiceImpl) InitiateCampaignCalls(ctx context.Context, campaignID string, phoneNumbers []string) (int, error) {
	if len(phoneNumbers) == 0 {
		return 0, ErrNoProspects
	}

	var leads []models.Lead
	for _, phone := range phoneNumbers {
		prospect, err := s.prospectRepo.FindByPhoneAndCampaign(ctx, phone, campaignID)
		if err == mongo.ErrNoDocuments {
			slog.Warn("Skipping unknown phone number in campaign call request", "phone", phone, "campaignId", campaignID)
			continue
		}
		if err != nil {
			return 0, err
		}
		leads = append(leads, leadFromProspect(prospect))
	}
	if len(leads) == 0 {
		return 0, ErrNoProspects
	}

	s.dispatchSvc.DispatchAsync(leads)
	return len(leads), nil
}

func leadFromProspect(p *models.Prospect) models.Lead {
	return models.Lead{
		Name:         p.Name,
		PhoneNumber:  p.PhoneNumber,
		BusinessName: p.BusinessName,
		OwnerName:    p.OwnerName,
		CampaignID:   p.CampaignID,
		CampaignName: p.CampaignName,
	}
}
