package services

import (
	"context"
	"fmt"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
)

// fakeProspectRepo is an in-memory ProspectRepository keyed by
// phoneNumber|campaignId. Resolution calls honor the unresolved-record guard
// the real implementation enforces with update filters.
type fakeProspectRepo struct {
	mu        sync.Mutex
	prospects map[string]*models.Prospect

	batchDispatches []string
	callDispatches  []string
	resolutions     []*models.CallResolution
	appointments    []models.Appointment

	upsertErr error
}

var _ repositories.ProspectRepository = (*fakeProspectRepo)(nil)

func newFakeProspectRepo(prospects ...*models.Prospect) *fakeProspectRepo {
	repo := &fakeProspectRepo{prospects: map[string]*models.Prospect{}}
	for _, p := range prospects {
		repo.prospects[p.PhoneNumber+"|"+p.CampaignID] = p
	}
	return repo
}

func (r *fakeProspectRepo) get(phone, campaignID string) (*models.Prospect, error) {
	p, ok := r.prospects[phone+"|"+campaignID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return p, nil
}

func (r *fakeProspectRepo) Upsert(ctx context.Context, prospect *models.Prospect) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return false, r.upsertErr
	}
	// Re-uploads restart the call lifecycle, like the mongo implementation.
	key := prospect.PhoneNumber + "|" + prospect.CampaignID
	_, exists := r.prospects[key]
	prospect.Status = models.StatusNew
	r.prospects[key] = prospect
	return !exists, nil
}

func (r *fakeProspectRepo) FindByPhoneAndCampaign(ctx context.Context, phone, campaignID string) (*models.Prospect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.get(phone, campaignID)
}

func (r *fakeProspectRepo) FindByCampaignID(ctx context.Context, campaignID string) ([]*models.Prospect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Prospect
	for _, p := range r.prospects {
		if p.CampaignID == campaignID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProspectRepo) FindByCallID(ctx context.Context, phone, campaignID, callID string) (*models.Prospect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(phone, campaignID)
	if err != nil {
		return nil, err
	}
	for _, call := range p.Calls {
		if call.CallID == callID && callID != "" {
			return p, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeProspectRepo) FindByBatchID(ctx context.Context, phone, campaignID, batchID string) (*models.Prospect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(phone, campaignID)
	if err != nil {
		return nil, err
	}
	for _, call := range p.Calls {
		if call.BatchID == batchID && batchID != "" {
			return p, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeProspectRepo) FindFirstCallCandidates(ctx context.Context, date string) ([]*models.Prospect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Prospect
	for _, p := range r.prospects {
		if p.Status == models.StatusNew && p.ScheduledCallDate != nil && *p.ScheduledCallDate == date {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeProspectRepo) FindCallbackCandidates(ctx context.Context, date string) ([]*models.Prospect, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Prospect
	for _, p := range r.prospects {
		if p.Status == models.StatusNew {
			continue
		}
		if p.RetryCount < 1 || p.RetryCount >= models.MaxRetryCount || p.CallBackCount >= models.MaxCallBackCount {
			continue
		}
		if p.IsCallBack == nil || !*p.IsCallBack || p.CallBackDate == nil || *p.CallBackDate != date {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (r *fakeProspectRepo) MarkBatchDispatched(ctx context.Context, phone, campaignID, batchID, timestamp string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(phone, campaignID)
	if err != nil {
		return err
	}
	p.Status = models.StatusContacted
	p.RetryCount++
	p.Calls = append(p.Calls, models.Call{BatchID: batchID, Timestamp: timestamp})
	r.batchDispatches = append(r.batchDispatches, phone+"|"+campaignID+"|"+batchID)
	return nil
}

func (r *fakeProspectRepo) MarkCallDispatched(ctx context.Context, phone, campaignID, callID, timestamp string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(phone, campaignID)
	if err != nil {
		return err
	}
	p.Status = models.StatusContacted
	p.RetryCount++
	p.Calls = append(p.Calls, models.Call{CallID: callID, Timestamp: timestamp})
	r.callDispatches = append(r.callDispatches, phone+"|"+campaignID+"|"+callID)
	return nil
}

func (r *fakeProspectRepo) ResolveBatchCall(ctx context.Context, phone, campaignID, batchID string, res *models.CallResolution) (bool, error) {
	return r.resolve(phone, campaignID, func(c models.Call) bool { return c.BatchID == batchID }, res, true)
}

func (r *fakeProspectRepo) ResolveCall(ctx context.Context, phone, campaignID, callID string, res *models.CallResolution) (bool, error) {
	return r.resolve(phone, campaignID, func(c models.Call) bool { return c.CallID == callID }, res, false)
}

func (r *fakeProspectRepo) resolve(phone, campaignID string, match func(models.Call) bool, res *models.CallResolution, replace bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(phone, campaignID)
	if err != nil {
		return false, err
	}

	matched := false
	for i, call := range p.Calls {
		if !match(call) || call.Resolved() {
			continue
		}
		if replace {
			p.Calls[i] = res.Call
		} else {
			p.Calls[i].Timestamp = res.Call.Timestamp
			p.Calls[i].Duration = res.Call.Duration
			p.Calls[i].Status = res.Call.Status
			p.Calls[i].RecordingURL = res.Call.RecordingURL
			p.Calls[i].Transcript = res.Call.Transcript
			p.Calls[i].CallSummary = res.Call.CallSummary
		}
		matched = true
		break
	}
	if !matched {
		return false, nil
	}

	p.Status = res.Status
	if res.Email != nil {
		p.Email = res.Email
	}
	if res.IsCallBack != nil {
		p.IsCallBack = res.IsCallBack
	}
	if res.CallBackDate != nil {
		p.CallBackDate = res.CallBackDate
	}
	if res.CallBackTime != nil {
		p.CallBackTime = res.CallBackTime
	}
	if res.ScheduledCallDate != nil {
		p.ScheduledCallDate = res.ScheduledCallDate
	}
	if res.ClearCallback {
		p.CallBackDate = nil
		p.CallBackTime = nil
		p.ScheduledCallDate = nil
	}
	if res.Appointment.AppointmentInterest != nil {
		p.Appointment.AppointmentInterest = res.Appointment.AppointmentInterest
	}
	if res.Appointment.AppointmentDateTime != nil {
		p.Appointment.AppointmentDateTime = res.Appointment.AppointmentDateTime
	}
	if res.Appointment.AppointmentType != nil {
		p.Appointment.AppointmentType = res.Appointment.AppointmentType
	}
	if res.IsEbook != nil {
		p.IsEbook = res.IsEbook
	}
	if res.IsNewsletterSent != nil {
		p.IsNewsletterSent = res.IsNewsletterSent
	}
	if res.ResetRetry {
		p.RetryCount = 1
		p.CallBackCount++
	}
	p.AuditLogs = append(p.AuditLogs, res.Audit)
	r.resolutions = append(r.resolutions, res)
	return true, nil
}

func (r *fakeProspectRepo) UpdateAppointment(ctx context.Context, phone, campaignID string, appointment models.Appointment, audit models.AuditLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, err := r.get(phone, campaignID)
	if err != nil {
		return err
	}
	p.Appointment = appointment
	p.Status = models.StatusPickedUp
	p.AuditLogs = append(p.AuditLogs, audit)
	r.appointments = append(r.appointments, appointment)
	return nil
}

// fakeGateway records dispatch requests and fails on demand.
type fakeGateway struct {
	mu         sync.Mutex
	batches    [][]models.Lead
	calls      []models.Lead
	failBatch  map[int]error // batch index -> error
	nextID     int
	phoneCalls int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failBatch: map[int]error{}}
}

func (g *fakeGateway) CreatePhoneCall(ctx context.Context, lead models.Lead) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, lead)
	g.phoneCalls++
	return fmt.Sprintf("call_%d", g.phoneCalls), nil
}

func (g *fakeGateway) CreateBatchCall(ctx context.Context, leads []models.Lead) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := len(g.batches)
	g.batches = append(g.batches, leads)
	if err, ok := g.failBatch[idx]; ok {
		return "", err
	}
	g.nextID++
	return fmt.Sprintf("batch_%d", g.nextID), nil
}

// fakeReportService records outcome updates.
type fakeReportService struct {
	mu        sync.Mutex
	seeded    map[string]int
	outcomes  []string
	finalized []string
}

func newFakeReportService() *fakeReportService {
	return &fakeReportService{seeded: map[string]int{}}
}

func (f *fakeReportService) Seed(campaignID string, prospects []*models.Prospect) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeded[campaignID] += len(prospects)
	return nil
}

func (f *fakeReportService) RecordOutcome(campaignID, phone, connection, outcome string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, campaignID+"|"+phone+"|"+connection+"|"+outcome)
	return nil
}

func (f *fakeReportService) FinalizeIfComplete(ctx context.Context, campaignID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finalized = append(f.finalized, campaignID)
	return false, nil
}

// fakeCampaignRepo is an in-memory CampaignRepository.
type fakeCampaignRepo struct {
	campaigns map[primitive.ObjectID]*models.Campaign
}

var _ repositories.CampaignRepository = (*fakeCampaignRepo)(nil)

func newFakeCampaignRepo(campaigns ...*models.Campaign) *fakeCampaignRepo {
	repo := &fakeCampaignRepo{campaigns: map[primitive.ObjectID]*models.Campaign{}}
	for _, c := range campaigns {
		repo.campaigns[c.ID] = c
	}
	return repo
}

func (r *fakeCampaignRepo) Create(ctx context.Context, campaign *models.Campaign) error {
	if campaign.ID.IsZero() {
		campaign.ID = primitive.NewObjectID()
	}
	campaign.IsVisible = true
	r.campaigns[campaign.ID] = campaign
	return nil
}

func (r *fakeCampaignRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Campaign, error) {
	c, ok := r.campaigns[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return c, nil
}

func (r *fakeCampaignRepo) FindAll(ctx context.Context) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if c.IsVisible {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) FindByUserID(ctx context.Context, userID string) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if c.IsVisible && c.Users == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) FindArchived(ctx context.Context) ([]*models.Campaign, error) {
	var out []*models.Campaign
	for _, c := range r.campaigns {
		if !c.IsVisible {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCampaignRepo) Update(ctx context.Context, id primitive.ObjectID, update *models.CampaignUpdate) error {
	c, ok := r.campaigns[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if update.Name != nil {
		c.Name = *update.Name
	}
	if update.CampaignDate != nil {
		c.CampaignDate = *update.CampaignDate
	}
	if update.CampaignTime != nil {
		c.CampaignTime = *update.CampaignTime
	}
	if update.MaxRetry != nil {
		c.MaxRetry = *update.MaxRetry
	}
	return nil
}

func (r *fakeCampaignRepo) Archive(ctx context.Context, id primitive.ObjectID) error {
	c, ok := r.campaigns[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	c.IsVisible = false
	return nil
}

func (r *fakeCampaignRepo) Unarchive(ctx context.Context, id primitive.ObjectID) error {
	c, ok := r.campaigns[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	c.IsVisible = true
	return nil
}

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	users map[primitive.ObjectID]*models.User
}

var _ repositories.UserRepository = (*fakeUserRepo)(nil)

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: map[primitive.ObjectID]*models.User{}}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = user
	return nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	return u, nil
}

func (r *fakeUserRepo) FindByRole(ctx context.Context, role string) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context) ([]*models.User, error) {
	var out []*models.User
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

// recordingMailer captures sent mail.
type recordingMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

type sentMail struct {
	To          string
	Subject     string
	Body        string
	Attachments []string
}

func (m *recordingMailer) Send(ctx context.Context, to, subject, htmlBody string, attachments ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: htmlBody, Attachments: attachments})
	return nil
}
