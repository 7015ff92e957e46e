package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
	"github.com/benchmarksales/ai-outbound-backend/internal/services"
)

// candidateRepo serves canned candidate sets and ignores mutations.
type candidateRepo struct {
	firstCalls []*models.Prospect
	callbacks  []*models.Prospect
}

var _ repositories.ProspectRepository = (*candidateRepo)(nil)

func (r *candidateRepo) Upsert(ctx context.Context, p *models.Prospect) (bool, error) { return false, nil }
func (r *candidateRepo) FindByPhoneAndCampaign(ctx context.Context, phone, campaignID string) (*models.Prospect, error) {
	return nil, nil
}
func (r *candidateRepo) FindByCampaignID(ctx context.Context, campaignID string) ([]*models.Prospect, error) {
	return nil, nil
}
func (r *candidateRepo) FindByCallID(ctx context.Context, phone, campaignID, callID string) (*models.Prospect, error) {
	return nil, nil
}
func (r *candidateRepo) FindByBatchID(ctx context.Context, phone, campaignID, batchID string) (*models.Prospect, error) {
	return nil, nil
}
func (r *candidateRepo) FindFirstCallCandidates(ctx context.Context, date string) ([]*models.Prospect, error) {
	return r.firstCalls, nil
}
func (r *candidateRepo) FindCallbackCandidates(ctx context.Context, date string) ([]*models.Prospect, error) {
	return r.callbacks, nil
}
func (r *candidateRepo) MarkBatchDispatched(ctx context.Context, phone, campaignID, batchID, timestamp string) error {
	return nil
}
func (r *candidateRepo) MarkCallDispatched(ctx context.Context, phone, campaignID, callID, timestamp string) error {
	return nil
}
func (r *candidateRepo) ResolveBatchCall(ctx context.Context, phone, campaignID, batchID string, res *models.CallResolution) (bool, error) {
	return false, nil
}
func (r *candidateRepo) ResolveCall(ctx context.Context, phone, campaignID, callID string, res *models.CallResolution) (bool, error) {
	return false, nil
}
func (r *candidateRepo) UpdateAppointment(ctx context.Context, phone, campaignID string, appointment models.Appointment, audit models.AuditLogEntry) error {
	return nil
}

// recordingDispatch captures every dispatched lead set.
type recordingDispatch struct {
	dispatched [][]models.Lead
}

var _ services.DispatchService = (*recordingDispatch)(nil)

func (d *recordingDispatch) Dispatch(ctx context.Context, leads []models.Lead) (*models.DispatchResult, error) {
	d.dispatched = append(d.dispatched, leads)
	return &models.DispatchResult{TotalProspects: len(leads), TotalBatches: 1}, nil
}

func (d *recordingDispatch) DispatchDirect(ctx context.Context, leads []models.Lead) (*models.DispatchResult, error) {
	return d.Dispatch(ctx, leads)
}

func (d *recordingDispatch) DispatchAsync(leads []models.Lead) {
	d.dispatched = append(d.dispatched, leads)
}

func newTestScheduler(repo *candidateRepo, dispatch *recordingDispatch, at time.Time) *Scheduler {
	return &Scheduler{
		prospectRepo: repo,
		dispatchSvc:  dispatch,
		location:     time.UTC,
		cron:         cron.New(),
		now:          func() time.Time { return at },
	}
}

func prospectAt(phone, scheduledTime string) *models.Prospect {
	date := "2026-03-10"
	return &models.Prospect{
		PhoneNumber:       phone,
		CampaignID:        "camp1",
		Status:            models.StatusNew,
		ScheduledCallDate: &date,
		ScheduledCallTime: scheduledTime,
	}
}

func callbackAt(phone string, callBackTime *string) *models.Prospect {
	date := "2026-03-10"
	return &models.Prospect{
		PhoneNumber:   phone,
		CampaignID:    "camp1",
		Status:        models.StatusContacted,
		RetryCount:    1,
		IsCallBack:    ptrBool(true),
		CallBackDate:  &date,
		CallBackTime:  callBackTime,
	}
}

func ptrBool(b bool) *bool       { return &b }
func ptrString(s string) *string { return &s }

func TestRunOnceOutsideCallingHours(t *testing.T) {
	repo := &candidateRepo{firstCalls: []*models.Prospect{prospectAt("+61412345678", "")}}
	dispatch := &recordingDispatch{}
	s := newTestScheduler(repo, dispatch, time.Date(2026, 3, 10, 9, 59, 0, 0, time.UTC))

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, dispatch.dispatched)

	s = newTestScheduler(repo, dispatch, time.Date(2026, 3, 10, 19, 0, 0, 0, time.UTC))
	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, dispatch.dispatched)
}

func TestRunOnceFirstCallStrictMinuteMatch(t *testing.T) {
	repo := &candidateRepo{firstCalls: []*models.Prospect{
		prospectAt("+61412345671", "14:00"),
		prospectAt("+61412345672", "14:01"),
		prospectAt("+61412345673", "23:00"),
		prospectAt("+61412345674", ""),
	}}
	dispatch := &recordingDispatch{}
	s := newTestScheduler(repo, dispatch, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	require.NoError(t, s.RunOnce(context.Background()))
	require.Len(t, dispatch.dispatched, 1)

	var phones []string
	for _, lead := range dispatch.dispatched[0] {
		phones = append(phones, lead.PhoneNumber)
	}
	// Exact-minute match plus the "any time" empty slot; a later time is not
	// swept up even though the clock has passed other thresholds.
	assert.ElementsMatch(t, []string{"+61412345671", "+61412345674"}, phones)
}

func TestRunOnceCallbackThresholdMatch(t *testing.T) {
	repo := &candidateRepo{callbacks: []*models.Prospect{
		callbackAt("+61412345671", ptrString("13:00")),
		callbackAt("+61412345672", ptrString("14:00")),
		callbackAt("+61412345673", ptrString("15:30")),
		callbackAt("+61412345674", nil),
		callbackAt("+61412345675", ptrString("9:00")),
		callbackAt("+61412345676", ptrString("whenever")),
	}}
	dispatch := &recordingDispatch{}
	s := newTestScheduler(repo, dispatch, time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC))

	require.NoError(t, s.RunOnce(context.Background()))
	require.Len(t, dispatch.dispatched, 1)

	var phones []string
	for _, lead := range dispatch.dispatched[0] {
		phones = append(phones, lead.PhoneNumber)
	}
	// Reached and overdue times dispatch, future times wait, missing or
	// malformed times mean any time today. Single-digit hours are zero-padded
	// before comparison so "9:00" counts as overdue at 14:00.
	assert.ElementsMatch(t, []string{
		"+61412345671", "+61412345672", "+61412345674", "+61412345675", "+61412345676",
	}, phones)
}

func TestCallbackDue(t *testing.T) {
	tests := []struct {
		name  string
		value *string
		clock string
		want  bool
	}{
		{"nil means any time", nil, "14:00", true},
		{"empty means any time", ptrString(""), "14:00", true},
		{"malformed means any time", ptrString("around lunch"), "14:00", true},
		{"exact minute", ptrString("14:00"), "14:00", true},
		{"overdue", ptrString("10:30"), "14:00", true},
		{"single digit hour zero padded", ptrString("9:15"), "14:00", true},
		{"future time waits", ptrString("16:45"), "14:00", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, callbackDue(tt.value, tt.clock))
		})
	}
}

func TestStartAndStop(t *testing.T) {
	repo := &candidateRepo{}
	s := newTestScheduler(repo, &recordingDispatch{}, time.Now())

	require.NoError(t, s.Start())
	s.Stop()
}
