package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
)

// Compile-time check to ensure ProspectRepository implements the interface
var _ repositories.ProspectRepository = (*ProspectRepository)(nil)

// ProspectRepository handles MongoDB operations for Prospect
type ProspectRepository struct {
	collection *mongo.Collection
}

// NewProspectRepository creates a new ProspectRepository
func NewProspectRepository(db *mongo.Database) *ProspectRepository {
	return &ProspectRepository{
		collection: db.Collection("prospects"),
	}
}

// Upsert creates the prospect or resets the existing (phoneNumber,
// campaignName) document for a fresh call wave: campaign fields are
// refreshed and the call lifecycle (status, retry/callback counters,
// callback schedule, ebook flag, appointment) starts over.
func (r *ProspectRepository) Upsert(ctx context.Context, prospect *models.Prospect) (bool, error) {
	now := time.Now()
	filter := bson.M{"phoneNumber": prospect.PhoneNumber, "campaignName": prospect.CampaignName}

	var existing models.Prospect
	err := r.collection.FindOne(ctx, filter).Decode(&existing)
	if err == nil {
		update := bson.M{"$set": bson.M{
			"campaignName":      prospect.CampaignName,
			"campaignId":        prospect.CampaignID,
			"businessName":      prospect.BusinessName,
			"ownerName":         prospect.OwnerName,
			"scheduledCallDate": prospect.ScheduledCallDate,
			"scheduledCallTime": prospect.ScheduledCallTime,
			"status":            models.StatusNew,
			"retryCount":        0,
			"callBackCount":     0,
			"isCallBack":        nil,
			"callBackDate":      nil,
			"callBackTime":      nil,
			"isEbook":           nil,
			"appointment":       models.Appointment{},
			"updatedAt":         now,
		}}
		if _, err := r.collection.UpdateOne(ctx, filter, update); err != nil {
			return false, err
		}
		return false, nil
	}
	if err != mongo.ErrNoDocuments {
		return false, err
	}

	prospect.ID = primitive.NewObjectID()
	prospect.Status = models.StatusNew
	if prospect.Calls == nil {
		prospect.Calls = []models.Call{}
	}
	if prospect.AuditLogs == nil {
		prospect.AuditLogs = []models.AuditLogEntry{}
	}
	prospect.CreatedAt = now
	prospect.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, prospect); err != nil {
		return false, err
	}
	return true, nil
}

// FindByPhoneAndCampaign finds a prospect by phone number and campaign ID
func (r *ProspectRepository) FindByPhoneAndCampaign(ctx context.Context, phone, campaignID string) (*models.Prospect, error) {
	var prospect models.Prospect
	filter := bson.M{"phoneNumber": phone, "campaignId": campaignID}
	err := r.collection.FindOne(ctx, filter).Decode(&prospect)
	if err != nil {
		return nil, err // Includes mongo.ErrNoDocuments
	}
	return &prospect, nil
}

// FindByCampaignID retrieves all prospects in a campaign
func (r *ProspectRepository) FindByCampaignID(ctx context.Context, campaignID string) ([]*models.Prospect, error) {
	return r.findAll(ctx, bson.M{"campaignId": campaignID})
}

// FindByCallID finds the prospect owning an individually-dispatched call record
func (r *ProspectRepository) FindByCallID(ctx context.Context, phone, campaignID, callID string) (*models.Prospect, error) {
	var prospect models.Prospect
	filter := bson.M{"phoneNumber": phone, "campaignId": campaignID, "calls.callId": callID}
	err := r.collection.FindOne(ctx, filter).Decode(&prospect)
	if err != nil {
		return nil, err
	}
	return &prospect, nil
}

// FindByBatchID finds the prospect owning a batch-dispatched call record
func (r *ProspectRepository) FindByBatchID(ctx context.Context, phone, campaignID, batchID string) (*models.Prospect, error) {
	var prospect models.Prospect
	filter := bson.M{"phoneNumber": phone, "campaignId": campaignID, "calls.batchId": batchID}
	err := r.collection.FindOne(ctx, filter).Decode(&prospect)
	if err != nil {
		return nil, err
	}
	return &prospect, nil
}

// FindFirstCallCandidates returns status=new prospects scheduled for the given date
func (r *ProspectRepository) FindFirstCallCandidates(ctx context.Context, date string) ([]*models.Prospect, error) {
	filter := bson.M{
		"status":            models.StatusNew,
		"scheduledCallDate": date,
	}
	return r.findAll(ctx, filter)
}

// FindCallbackCandidates returns prospects with an active callback for the
// given date, inside the retry and callback ceilings
func (r *ProspectRepository) FindCallbackCandidates(ctx context.Context, date string) ([]*models.Prospect, error) {
	filter := bson.M{
		"status":        bson.M{"$ne": models.StatusNew},
		"retryCount":    bson.M{"$gte": 1, "$lt": models.MaxRetryCount},
		"callBackCount": bson.M{"$lt": models.MaxCallBackCount},
		"isCallBack":    true,
		"callBackDate":  date,
	}
	return r.findAll(ctx, filter)
}

// MarkBatchDispatched records a batch submission on the prospect in one update
func (r *ProspectRepository) MarkBatchDispatched(ctx context.Context, phone, campaignID, batchID, timestamp string) error {
	now := time.Now()
	filter := bson.M{"phoneNumber": phone, "campaignId": campaignID}
	update := bson.M{
		"$set": bson.M{"status": models.StatusContacted, "updatedAt": now},
		"$inc": bson.M{"retryCount": 1},
		"$push": bson.M{
			"calls": models.Call{BatchID: batchID, Timestamp: timestamp},
			"auditLogs": models.AuditLogEntry{
				ActionType:  "call_initiated",
				PerformedBy: "system",
				Timestamp:   now,
				Details:     models.AuditDetails{BatchID: batchID, Status: "Initiated"},
			},
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// MarkCallDispatched is the single-call variant keyed by callId
func (r *ProspectRepository) MarkCallDispatched(ctx context.Context, phone, campaignID, callID, timestamp string) error {
	now := time.Now()
	filter := bson.M{"phoneNumber": phone, "campaignId": campaignID}
	update := bson.M{
		"$set": bson.M{"status": models.StatusContacted, "updatedAt": now},
		"$inc": bson.M{"retryCount": 1},
		"$push": bson.M{
			"calls": models.Call{CallID: callID, Timestamp: timestamp},
			"auditLogs": models.AuditLogEntry{
				ActionType:  "call_initiated",
				PerformedBy: "system",
				Timestamp:   now,
				Details:     models.AuditDetails{CallID: callID, Status: "Initiated"},
			},
		},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ResolveBatchCall replaces the unresolved placeholder call matching batchId
// with full detail and applies prospect-level resolution in the same update.
// The filter requires the call record to still be unresolved, so replaying
// the same webhook matches nothing.
func (r *ProspectRepository) ResolveBatchCall(ctx context.Context, phone, campaignID, batchID string, res *models.CallResolution) (bool, error) {
	filter := bson.M{
		"phoneNumber": phone,
		"campaignId":  campaignID,
		"calls": bson.M{"$elemMatch": bson.M{
			"batchId":  batchID,
			"duration": bson.M{"$exists": false},
			"status":   bson.M{"$exists": false},
		}},
	}
	update := r.resolutionUpdate(res)
	update["$set"].(bson.M)["calls.$[c]"] = res.Call

	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{bson.M{
			"c.batchId":  batchID,
			"c.duration": bson.M{"$exists": false},
			"c.status":   bson.M{"$exists": false},
		}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetArrayFilters(arrayFilters))
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// ResolveCall patches the individually-dispatched call record keyed by callId
func (r *ProspectRepository) ResolveCall(ctx context.Context, phone, campaignID, callID string, res *models.CallResolution) (bool, error) {
	filter := bson.M{
		"phoneNumber": phone,
		"campaignId":  campaignID,
		"calls": bson.M{"$elemMatch": bson.M{
			"callId":   callID,
			"duration": bson.M{"$exists": false},
			"status":   bson.M{"$exists": false},
		}},
	}
	update := r.resolutionUpdate(res)
	set := update["$set"].(bson.M)
	set["calls.$[c].timestamp"] = res.Call.Timestamp
	set["calls.$[c].duration"] = res.Call.Duration
	set["calls.$[c].status"] = res.Call.Status
	set["calls.$[c].recordingUrl"] = res.Call.RecordingURL
	set["calls.$[c].transcript"] = res.Call.Transcript
	set["calls.$[c].callSummary"] = res.Call.CallSummary

	arrayFilters := options.ArrayFilters{
		Filters: []interface{}{bson.M{
			"c.callId":   callID,
			"c.duration": bson.M{"$exists": false},
			"c.status":   bson.M{"$exists": false},
		}},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetArrayFilters(arrayFilters))
	if err != nil {
		return false, err
	}
	return result.MatchedCount > 0, nil
}

// resolutionUpdate builds the prospect-level portion of a resolution update.
// Nil pointer fields are left untouched.
func (r *ProspectRepository) resolutionUpdate(res *models.CallResolution) bson.M {
	now := time.Now()
	set := bson.M{
		"status":    res.Status,
		"updatedAt": now,
	}
	if res.Email != nil {
		set["email"] = *res.Email
	}
	if res.IsCallBack != nil {
		set["isCallBack"] = *res.IsCallBack
	}
	if res.CallBackDate != nil {
		set["callBackDate"] = *res.CallBackDate
	}
	if res.CallBackTime != nil {
		set["callBackTime"] = *res.CallBackTime
	}
	if res.ScheduledCallDate != nil {
		set["scheduledCallDate"] = *res.ScheduledCallDate
	}
	if res.ClearCallback {
		set["callBackDate"] = nil
		set["callBackTime"] = nil
		set["scheduledCallDate"] = nil
	}
	if res.Appointment.AppointmentInterest != nil {
		set["appointment.appointmentInterest"] = *res.Appointment.AppointmentInterest
	}
	if res.Appointment.AppointmentDateTime != nil {
		set["appointment.appointmentDateTime"] = *res.Appointment.AppointmentDateTime
	}
	if res.Appointment.AppointmentType != nil {
		set["appointment.appointmentType"] = *res.Appointment.AppointmentType
	}
	if res.Appointment.MeetingLink != nil {
		set["appointment.meetingLink"] = *res.Appointment.MeetingLink
	}
	if res.IsEbook != nil {
		set["isEbook"] = *res.IsEbook
	}
	if res.IsNewsletterSent != nil {
		set["isNewsletterSent"] = *res.IsNewsletterSent
	}
	if res.ResetRetry {
		set["retryCount"] = 1
	}

	update := bson.M{
		"$set":  set,
		"$push": bson.M{"auditLogs": res.Audit},
	}
	if res.ResetRetry {
		update["$inc"] = bson.M{"callBackCount": 1}
	}
	return update
}

// UpdateAppointment sets the appointment sub-document and appends an audit
// entry. A booked appointment also moves the prospect to picked_up.
func (r *ProspectRepository) UpdateAppointment(ctx context.Context, phone, campaignID string, appointment models.Appointment, audit models.AuditLogEntry) error {
	now := time.Now()
	filter := bson.M{"phoneNumber": phone, "campaignId": campaignID}
	set := bson.M{"updatedAt": now, "status": models.StatusPickedUp}
	if appointment.AppointmentInterest != nil {
		set["appointment.appointmentInterest"] = *appointment.AppointmentInterest
	}
	if appointment.AppointmentDateTime != nil {
		set["appointment.appointmentDateTime"] = *appointment.AppointmentDateTime
	}
	if appointment.AppointmentType != nil {
		set["appointment.appointmentType"] = *appointment.AppointmentType
	}
	if appointment.MeetingLink != nil {
		set["appointment.meetingLink"] = *appointment.MeetingLink
	}
	update := bson.M{
		"$set":  set,
		"$push": bson.M{"auditLogs": audit},
	}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

func (r *ProspectRepository) findAll(ctx context.Context, filter bson.M) ([]*models.Prospect, error) {
	var prospects []*models.Prospect
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &prospects); err != nil {
		return nil, err
	}
	if prospects == nil {
		prospects = []*models.Prospect{}
	}
	return prospects, nil
}
