package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
)

// Compile-time check to ensure CampaignServiceImpl implements CampaignService
var _ CampaignService = (*CampaignServiceImpl)(nil)

// CampaignServiceImpl manages campaigns and read-only analytics
type CampaignServiceImpl struct {
	campaignRepo repositories.CampaignRepository
	prospectRepo repositories.ProspectRepository
}

// NewCampaignService creates a new CampaignServiceImpl
func NewCampaignService(campaignRepo repositories.CampaignRepository, prospectRepo repositories.ProspectRepository) *CampaignServiceImpl {
	return &CampaignServiceImpl{
		campaignRepo: campaignRepo,
		prospectRepo: prospectRepo,
	}
}

// Create creates a new campaign
func (s *CampaignServiceImpl) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.MaxRetry <= 0 {
		campaign.MaxRetry = models.MaxRetryCount
	}
	return s.campaignRepo.Create(ctx, campaign)
}

// GetByID retrieves a campaign by hex ID
func (s *CampaignServiceImpl) GetByID(ctx context.Context, id string) (*models.Campaign, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	campaign, err := s.campaignRepo.FindByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, err
	}
	return campaign, nil
}

// List retrieves all visible campaigns
func (s *CampaignServiceImpl) List(ctx context.Context) ([]*models.Campaign, error) {
	return s.campaignRepo.FindAll(ctx)
}

// ListByUser retrieves all visible campaigns owned by a user
func (s *CampaignServiceImpl) ListByUser(ctx context.Context, userID string) ([]*models.Campaign, error) {
	return s.campaignRepo.FindByUserID(ctx, userID)
}

// ListArchived retrieves all archived campaigns
func (s *CampaignServiceImpl) ListArchived(ctx context.Context) ([]*models.Campaign, error) {
	return s.campaignRepo.FindArchived(ctx)
}

// Update applies a partial settings update
func (s *CampaignServiceImpl) Update(ctx context.Context, id string, update *models.CampaignUpdate) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrCampaignNotFound
	}
	if err := s.campaignRepo.Update(ctx, oid, update); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrCampaignNotFound
		}
		return fmt.Errorf("update campaign: %w", err)
	}
	return nil
}

// Archive soft-deletes a campaign
func (s *CampaignServiceImpl) Archive(ctx context.Context, id string) error {
	return s.setVisibility(ctx, id, s.campaignRepo.Archive)
}

// Unarchive restores an archived campaign
func (s *CampaignServiceImpl) Unarchive(ctx context.Context, id string) error {
	return s.setVisibility(ctx, id, s.campaignRepo.Unarchive)
}

func (s *CampaignServiceImpl) setVisibility(ctx context.Context, id string, op func(context.Context, primitive.ObjectID) error) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrCampaignNotFound
	}
	if err := op(ctx, oid); err != nil {
		if err == mongo.ErrNoDocuments {
			return ErrCampaignNotFound
		}
		return err
	}
	return nil
}

// Analytics computes the status/appointment/callback rollup for a campaign
func (s *CampaignServiceImpl) Analytics(ctx context.Context, id string) (*models.CampaignAnalytics, error) {
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}
	prospects, err := s.prospectRepo.FindByCampaignID(ctx, id)
	if err != nil {
		return nil, err
	}

	analytics := &models.CampaignAnalytics{CampaignID: id, Total: len(prospects)}
	for _, p := range prospects {
		switch p.Status {
		case models.StatusNew:
			analytics.New++
		case models.StatusContacted:
			analytics.Contacted++
		case models.StatusPickedUp:
			analytics.PickedUp++
		case models.StatusError:
			analytics.Errors++
		}
		if p.Appointment.AppointmentInterest != nil && *p.Appointment.AppointmentInterest {
			analytics.Appointments++
		}
		if p.IsCallBack != nil && *p.IsCallBack {
			analytics.Callbacks++
		}
		if p.IsEbook != nil && *p.IsEbook {
			analytics.EbooksSent++
		}
		if p.IsNewsletterSent != nil && *p.IsNewsletterSent {
			analytics.Newsletters++
		}
		analytics.TotalCallsMade += len(p.Calls)
	}
	return analytics, nil
}
