package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
	"github.com/benchmarksales/ai-outbound-backend/internal/utils"
)

// Compile-time check to ensure ReconcileServiceImpl implements ReconcileService
var _ ReconcileService = (*ReconcileServiceImpl)(nil)

// Connection labels for the campaign report.
const (
	connectionConnected    = "Connected"
	connectionNotConnected = "Not Connected"
)

// ReconcileServiceImpl matches provider webhook events to prospect call
// records and persists the derived update
type ReconcileServiceImpl struct {
	prospectRepo repositories.ProspectRepository
	reportSvc    ReportService
	location     *time.Location
	now          func() time.Time
}

// NewReconcileService creates a new ReconcileServiceImpl
func NewReconcileService(prospectRepo repositories.ProspectRepository, reportSvc ReportService, cfg *config.Config) *ReconcileServiceImpl {
	return &ReconcileServiceImpl{
		prospectRepo: prospectRepo,
		reportSvc:    reportSvc,
		location:     utils.BusinessLocation(cfg.Scheduler.Timezone),
		now:          time.Now,
	}
}

// Reconcile processes one call_analyzed event. A missing prospect or call
// record is logged and dropped without error; the provider only needs a 200.
func (s *ReconcileServiceImpl) Reconcile(ctx context.Context, event *models.WebhookEvent) (*models.ReconciliationResult, error) {
	if event.Event != models.WebhookEventCallAnalyzed {
		return &models.ReconciliationResult{}, nil
	}

	call := event.Call
	phone := call.ToNumber
	campaignID := call.CampaignID()
	if phone == "" || campaignID == "" {
		slog.Warn("Webhook event missing phone number or campaign id", "callId", call.CallID)
		return &models.ReconciliationResult{}, nil
	}

	// Individual records are matched on callId, batch placeholders on the
	// batch identifier.
	path := "call"
	prospect, err := s.prospectRepo.FindByCallID(ctx, phone, campaignID, call.CallID)
	if err == mongo.ErrNoDocuments && call.BatchCallID != "" {
		path = "batch"
		prospect, err = s.prospectRepo.FindByBatchID(ctx, phone, campaignID, call.BatchCallID)
	}
	if err == mongo.ErrNoDocuments {
		slog.Warn("Webhook event matched no prospect call record",
			"phone", phone, "campaignId", campaignID, "callId", call.CallID, "batchId", call.BatchCallID)
		return &models.ReconciliationResult{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find prospect for webhook: %w", err)
	}

	res := s.buildResolution(prospect, call)

	var matched bool
	if path == "batch" {
		matched, err = s.prospectRepo.ResolveBatchCall(ctx, phone, campaignID, call.BatchCallID, res)
	} else {
		matched, err = s.prospectRepo.ResolveCall(ctx, phone, campaignID, call.CallID, res)
	}
	if err != nil {
		return nil, fmt.Errorf("resolve %s call: %w", path, err)
	}
	if !matched {
		slog.Info("Call record already resolved, ignoring replayed webhook",
			"phone", phone, "campaignId", campaignID, "callId", call.CallID, "path", path)
		return &models.ReconciliationResult{Path: path, PhoneNumber: phone, CampaignID: campaignID}, nil
	}

	s.updateReport(ctx, campaignID, phone, call)

	slog.Info("Call reconciled", "phone", phone, "campaignId", campaignID, "path", path, "status", res.Status)
	return &models.ReconciliationResult{
		Matched:     true,
		Path:        path,
		PhoneNumber: phone,
		CampaignID:  campaignID,
		Status:      res.Status,
	}, nil
}

// buildResolution derives the full prospect update from the webhook call and
// the prospect's existing state, applying the first-set-wins precedence rules.
func (s *ReconcileServiceImpl) buildResolution(prospect *models.Prospect, call models.WebhookCall) *models.CallResolution {
	analysis := call.CallAnalysis.CustomAnalysisData
	now := s.now().In(s.location)

	prospectStatus, recordedStatus := mapCallStatus(call)
	if !models.CanTransitionStatus(prospect.Status, prospectStatus) {
		prospectStatus = prospect.Status
	}

	callSummary := ""
	if analysis.CallSummaryInfo != nil {
		callSummary = *analysis.CallSummaryInfo
	}
	res := &models.CallResolution{
		Status: prospectStatus,
		Email:  analysis.Email,
		Call: models.Call{
			CallID:       call.CallID,
			BatchID:      call.BatchCallID,
			Timestamp:    time.UnixMilli(call.StartTimestamp).UTC().Format(time.RFC3339),
			Duration:     float64(call.DurationMS) / 1000,
			Status:       recordedStatus,
			RecordingURL: call.RecordingURL,
			Transcript:   call.Transcript,
			CallSummary:  callSummary,
		},
	}

	// Appointment: first confirmed interest wins, later analyses never
	// overwrite it. Type and link follow first-non-nil.
	existing := prospect.Appointment
	if existing.AppointmentInterest == nil || !*existing.AppointmentInterest {
		res.Appointment.AppointmentInterest = analysis.AppointmentInterest
		res.Appointment.AppointmentDateTime = analysis.AppointmentDateTime
	}
	if existing.AppointmentType == nil {
		res.Appointment.AppointmentType = deriveAppointmentType(call.Transcript, analysis.AppointmentInterest)
	}

	// Callback: preserved unless the current flag is unset/false or the new
	// signal is an explicit positive request.
	applyCallback := prospect.IsCallBack == nil || !*prospect.IsCallBack ||
		(analysis.CallBackRequest != nil && *analysis.CallBackRequest)
	if applyCallback {
		plan := deriveCallback(analysis, now)
		res.IsCallBack = plan.IsCallBack
		res.CallBackDate = plan.Date
		res.CallBackTime = plan.Time
		res.ScheduledCallDate = plan.Date
		res.ClearCallback = plan.Clear
		res.ResetRetry = plan.ResetRetry
	}

	if prospect.IsEbook == nil || !*prospect.IsEbook {
		res.IsEbook = analysis.Ebook
	}
	if prospect.IsNewsletterSent == nil || !*prospect.IsNewsletterSent {
		res.IsNewsletterSent = analysis.IsSubscribeToNewsletter
	}

	res.Audit = models.AuditLogEntry{
		ActionType:  "Call Completed",
		PerformedBy: "AI Agent",
		Timestamp:   now,
		Details: models.AuditDetails{
			CallID:  call.CallID,
			BatchID: call.BatchCallID,
			Status:  recordedStatus,
		},
	}
	return res
}

// updateReport records the call outcome on the campaign report and finalizes
// it when complete. Report trouble never fails reconciliation.
func (s *ReconcileServiceImpl) updateReport(ctx context.Context, campaignID, phone string, call models.WebhookCall) {
	if s.reportSvc == nil {
		return
	}

	connection := connectionNotConnected
	if call.CallStatus == models.CallStatusEnded {
		connection = connectionConnected
	}
	outcome := deriveOutcome(call.CallAnalysis.CustomAnalysisData)

	if err := s.reportSvc.RecordOutcome(campaignID, phone, connection, outcome); err != nil {
		slog.Warn("Failed to update campaign report", "error", err, "campaignId", campaignID, "phone", phone)
		return
	}
	if _, err := s.reportSvc.FinalizeIfComplete(ctx, campaignID); err != nil {
		slog.Warn("Failed to finalize campaign report", "error", err, "campaignId", campaignID)
	}
}
