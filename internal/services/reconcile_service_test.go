package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
)

func newTestReconcileService(repo *fakeProspectRepo, report ReportService) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		prospectRepo: repo,
		reportSvc:    report,
		location:     time.UTC,
		now:          func() time.Time { return time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC) },
	}
}

func batchProspect() *models.Prospect {
	return &models.Prospect{
		Name:        "Alice",
		PhoneNumber: "+61412345678",
		CampaignID:  "camp1",
		Status:      models.StatusContacted,
		RetryCount:  1,
		Calls: []models.Call{
			{BatchID: "batch_1", Timestamp: "2026-03-10T13:00:00Z"},
		},
	}
}

func analyzedEvent(call models.WebhookCall) *models.WebhookEvent {
	if call.DynamicVariables == nil {
		call.DynamicVariables = map[string]string{"campaign_id": "camp1"}
	}
	return &models.WebhookEvent{Event: models.WebhookEventCallAnalyzed, Call: call}
}

func TestReconcileBatchPath(t *testing.T) {
	repo := newFakeProspectRepo(batchProspect())
	report := newFakeReportService()
	svc := newTestReconcileService(repo, report)

	result, err := svc.Reconcile(context.Background(), analyzedEvent(models.WebhookCall{
		ToNumber:       "+61412345678",
		CallID:         "call_abc",
		BatchCallID:    "batch_1",
		CallStatus:     models.CallStatusEnded,
		DurationMS:     95000,
		StartTimestamp: time.Date(2026, 3, 10, 13, 30, 0, 0, time.UTC).UnixMilli(),
		Transcript:     "User: yes, a selling appointment works.",
		CallAnalysis: models.WebhookAnalysis{CustomAnalysisData: models.CustomAnalysis{
			AppointmentInterest: ptr(true),
			AppointmentDateTime: ptr("2026-03-20T10:00:00"),
			CallBackRequest:     ptr(false),
			CallSummaryInfo:     ptr("Prospect agreed to an appointment"),
		}},
	}))
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "batch", result.Path)
	assert.Equal(t, models.StatusPickedUp, result.Status)

	p, err := repo.FindByPhoneAndCampaign(context.Background(), "+61412345678", "camp1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusPickedUp, p.Status)

	// The placeholder was replaced wholesale with the full record.
	require.Len(t, p.Calls, 1)
	assert.Equal(t, "call_abc", p.Calls[0].CallID)
	assert.Equal(t, "batch_1", p.Calls[0].BatchID)
	assert.Equal(t, models.CallStatusEnded, p.Calls[0].Status)
	assert.InDelta(t, 95.0, p.Calls[0].Duration, 0.001)

	require.NotNil(t, p.Appointment.AppointmentInterest)
	assert.True(t, *p.Appointment.AppointmentInterest)
	require.NotNil(t, p.Appointment.AppointmentType)
	assert.Equal(t, models.AppointmentTypeSelling, *p.Appointment.AppointmentType)

	// Explicit callback decline clears the schedule.
	require.NotNil(t, p.IsCallBack)
	assert.False(t, *p.IsCallBack)
	assert.Nil(t, p.CallBackDate)

	require.Len(t, report.outcomes, 1)
	assert.Equal(t, "camp1|+61412345678|Connected|Appointment Booked", report.outcomes[0])
	assert.Equal(t, []string{"camp1"}, report.finalized)
}

func TestReconcileCallPathPatchesInPlace(t *testing.T) {
	p := batchProspect()
	p.Calls = []models.Call{{CallID: "call_xyz", Timestamp: "2026-03-10T13:00:00Z"}}
	repo := newFakeProspectRepo(p)
	svc := newTestReconcileService(repo, newFakeReportService())

	result, err := svc.Reconcile(context.Background(), analyzedEvent(models.WebhookCall{
		ToNumber:   "+61412345678",
		CallID:     "call_xyz",
		CallStatus: models.CallStatusNoAnswer,
	}))
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "call", result.Path)
	assert.Equal(t, models.StatusContacted, result.Status)

	require.Len(t, p.Calls, 1)
	assert.Equal(t, "call_xyz", p.Calls[0].CallID)
	assert.Equal(t, models.CallStatusNoAnswer, p.Calls[0].Status)

	// Unanswered call schedules a default callback for tomorrow.
	require.NotNil(t, p.CallBackDate)
	assert.Equal(t, "2026-03-11", *p.CallBackDate)
	require.NotNil(t, p.CallBackTime)
}

func TestReconcileReplayIsNoOp(t *testing.T) {
	repo := newFakeProspectRepo(batchProspect())
	svc := newTestReconcileService(repo, newFakeReportService())
	event := analyzedEvent(models.WebhookCall{
		ToNumber:    "+61412345678",
		CallID:      "call_abc",
		BatchCallID: "batch_1",
		CallStatus:  models.CallStatusEnded,
	})

	first, err := svc.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.True(t, first.Matched)

	second, err := svc.Reconcile(context.Background(), event)
	require.NoError(t, err)
	assert.False(t, second.Matched)
	assert.Len(t, repo.resolutions, 1)
}

func TestReconcilePreservesConfirmedInterest(t *testing.T) {
	p := batchProspect()
	p.Appointment = models.Appointment{
		AppointmentInterest: ptr(true),
		AppointmentDateTime: ptr("2026-03-20T10:00:00"),
		AppointmentType:     ptr(models.AppointmentTypeAdvisory),
	}
	repo := newFakeProspectRepo(p)
	svc := newTestReconcileService(repo, newFakeReportService())

	_, err := svc.Reconcile(context.Background(), analyzedEvent(models.WebhookCall{
		ToNumber:    "+61412345678",
		BatchCallID: "batch_1",
		CallStatus:  models.CallStatusEnded,
		Transcript:  "User: actually I want a selling appointment instead",
		CallAnalysis: models.WebhookAnalysis{CustomAnalysisData: models.CustomAnalysis{
			AppointmentInterest: ptr(false),
			AppointmentDateTime: ptr("2026-04-01T10:00:00"),
		}},
	}))
	require.NoError(t, err)

	// The first confirmed interest wins over every later analysis.
	require.NotNil(t, p.Appointment.AppointmentInterest)
	assert.True(t, *p.Appointment.AppointmentInterest)
	assert.Equal(t, "2026-03-20T10:00:00", *p.Appointment.AppointmentDateTime)
	assert.Equal(t, models.AppointmentTypeAdvisory, *p.Appointment.AppointmentType)
}

func TestReconcileStatusNeverMovesBackwards(t *testing.T) {
	p := batchProspect()
	p.Status = models.StatusPickedUp
	repo := newFakeProspectRepo(p)
	svc := newTestReconcileService(repo, newFakeReportService())

	result, err := svc.Reconcile(context.Background(), analyzedEvent(models.WebhookCall{
		ToNumber:    "+61412345678",
		BatchCallID: "batch_1",
		CallStatus:  models.CallStatusBusy,
	}))
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, models.StatusPickedUp, p.Status)
}

func TestReconcileIgnoresOtherEvents(t *testing.T) {
	repo := newFakeProspectRepo(batchProspect())
	svc := newTestReconcileService(repo, newFakeReportService())

	result, err := svc.Reconcile(context.Background(), &models.WebhookEvent{Event: "call_started"})
	require.NoError(t, err)
	assert.False(t, result.Matched)
	assert.Empty(t, repo.resolutions)
}

func TestReconcileUnknownProspectIsDropped(t *testing.T) {
	repo := newFakeProspectRepo()
	svc := newTestReconcileService(repo, newFakeReportService())

	result, err := svc.Reconcile(context.Background(), analyzedEvent(models.WebhookCall{
		ToNumber:    "+61499999999",
		CallID:      "call_missing",
		BatchCallID: "batch_missing",
		CallStatus:  models.CallStatusEnded,
	}))
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestReconcileCallbackDeclineClearsSchedule(t *testing.T) {
	p := batchProspect()
	p.IsCallBack = ptr(true)
	p.CallBackDate = ptr("2026-03-12")
	p.CallBackTime = ptr("11:00")
	p.ScheduledCallDate = ptr("2026-03-10")
	repo := newFakeProspectRepo(p)
	svc := newTestReconcileService(repo, newFakeReportService())

	_, err := svc.Reconcile(context.Background(), analyzedEvent(models.WebhookCall{
		ToNumber:    "+61412345678",
		BatchCallID: "batch_1",
		CallStatus:  models.CallStatusEnded,
		CallAnalysis: models.WebhookAnalysis{CustomAnalysisData: models.CustomAnalysis{
			CallBackRequest: ptr(false),
		}},
	}))
	require.NoError(t, err)

	// A declined callback removes the prospect from both scheduling paths.
	require.NotNil(t, p.IsCallBack)
	assert.False(t, *p.IsCallBack)
	assert.Nil(t, p.CallBackDate)
	assert.Nil(t, p.CallBackTime)
	assert.Nil(t, p.ScheduledCallDate)
}

func TestReconcileValidCallbackDateResetsRetry(t *testing.T) {
	p := batchProspect()
	p.RetryCount = 3
	repo := newFakeProspectRepo(p)
	svc := newTestReconcileService(repo, newFakeReportService())

	_, err := svc.Reconcile(context.Background(), analyzedEvent(models.WebhookCall{
		ToNumber:    "+61412345678",
		BatchCallID: "batch_1",
		CallStatus:  models.CallStatusEnded,
		CallAnalysis: models.WebhookAnalysis{CustomAnalysisData: models.CustomAnalysis{
			CallBackRequest: ptr(true),
			CallBackDate:    ptr("2026-03-18"),
			CallBackTime:    ptr("11:00"),
		}},
	}))
	require.NoError(t, err)

	assert.Equal(t, 1, p.RetryCount)
	assert.Equal(t, 1, p.CallBackCount)
	require.NotNil(t, p.CallBackDate)
	assert.Equal(t, "2026-03-18", *p.CallBackDate)
	require.NotNil(t, p.ScheduledCallDate)
	assert.Equal(t, "2026-03-18", *p.ScheduledCallDate)
}
