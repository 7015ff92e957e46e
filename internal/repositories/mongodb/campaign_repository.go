package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
)

// Compile-time check to ensure CampaignRepository implements the interface
var _ repositories.CampaignRepository = (*CampaignRepository)(nil)

// CampaignRepository handles MongoDB operations for Campaign
type CampaignRepository struct {
	collection *mongo.Collection
}

// NewCampaignRepository creates a new CampaignRepository
func NewCampaignRepository(db *mongo.Database) *CampaignRepository {
	return &CampaignRepository{
		collection: db.Collection("campaigns"),
	}
}

// Create inserts a new campaign
func (r *CampaignRepository) Create(ctx context.Context, campaign *models.Campaign) error {
	campaign.ID = primitive.NewObjectID()
	campaign.IsVisible = true
	campaign.CreatedAt = time.Now()
	campaign.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, campaign)
	return err
}

// FindByID finds a campaign by ID
func (r *CampaignRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	var campaign models.Campaign
	filter := bson.M{"_id": id}
	err := r.collection.FindOne(ctx, filter).Decode(&campaign)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &campaign, nil
}

// FindAll retrieves all visible campaigns
func (r *CampaignRepository) FindAll(ctx context.Context) ([]*models.Campaign, error) {
	return r.findAll(ctx, bson.M{"isVisible": true})
}

// FindByUserID retrieves all visible campaigns owned by a user
func (r *CampaignRepository) FindByUserID(ctx context.Context, userID string) ([]*models.Campaign, error) {
	return r.findAll(ctx, bson.M{"users": userID, "isVisible": true})
}

// FindArchived retrieves all archived campaigns
func (r *CampaignRepository) FindArchived(ctx context.Context) ([]*models.Campaign, error) {
	return r.findAll(ctx, bson.M{"isVisible": false})
}

// Update applies the non-nil fields of the update to the campaign
func (r *CampaignRepository) Update(ctx context.Context, id primitive.ObjectID, update *models.CampaignUpdate) error {
	set := bson.M{"updatedAt": time.Now()}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.CampaignDate != nil {
		set["campaignDate"] = *update.CampaignDate
	}
	if update.CampaignTime != nil {
		set["campaignTime"] = *update.CampaignTime
	}
	if update.MaxRetry != nil {
		set["maxRetry"] = *update.MaxRetry
	}
	if update.HasEbook != nil {
		set["has_ebook"] = *update.HasEbook
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Archive soft-deletes a campaign
func (r *CampaignRepository) Archive(ctx context.Context, id primitive.ObjectID) error {
	return r.setVisibility(ctx, id, false)
}

// Unarchive restores an archived campaign
func (r *CampaignRepository) Unarchive(ctx context.Context, id primitive.ObjectID) error {
	return r.setVisibility(ctx, id, true)
}

func (r *CampaignRepository) setVisibility(ctx context.Context, id primitive.ObjectID, visible bool) error {
	update := bson.M{"$set": bson.M{"isVisible": visible, "updatedAt": time.Now()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *CampaignRepository) findAll(ctx context.Context, filter bson.M) ([]*models.Campaign, error) {
	var campaigns []*models.Campaign
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &campaigns); err != nil {
		return nil, err
	}
	if campaigns == nil {
		campaigns = []*models.Campaign{}
	}
	return campaigns, nil
}
