package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
	"github.com/benchmarksales/ai-outbound-backend/internal/services"
	"github.com/benchmarksales/ai-outbound-backend/internal/utils"
)

// tickTimeout bounds one scheduler pass including dispatch pacing.
const tickTimeout = 5 * time.Minute

// Scheduler selects prospects due for a first call or callback on a fixed
// one-minute tick and hands them to the dispatcher. All date and time
// decisions use the business timezone.
type Scheduler struct {
	prospectRepo repositories.ProspectRepository
	dispatchSvc  services.DispatchService
	location     *time.Location
	cron         *cron.Cron
	now          func() time.Time
}

// New creates a new Scheduler
func New(prospectRepo repositories.ProspectRepository, dispatchSvc services.DispatchService, cfg *config.Config) *Scheduler {
	return &Scheduler{
		prospectRepo: prospectRepo,
		dispatchSvc:  dispatchSvc,
		location:     utils.BusinessLocation(cfg.Scheduler.Timezone),
		cron:         cron.New(),
		now:          time.Now,
	}
}

// Start begins the one-minute tick loop
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc("@every 1m", s.tick); err != nil {
		return err
	}
	s.cron.Start()
	slog.Info("Call scheduler started", "timezone", s.location.String())
	return nil
}

// Stop halts the tick loop, waiting for a running tick to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	slog.Info("Call scheduler stopped")
}

// tick swallows all failures so one bad pass never stops the loop.
func (s *Scheduler) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()
	if err := s.RunOnce(ctx); err != nil {
		slog.Error("Scheduler tick failed", "error", err)
	}
}

// RunOnce evaluates both candidate sets for the current minute. The calling
// hours gate applies to first calls and callbacks alike.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	now := s.now().In(s.location)
	if !utils.WithinCallHours(now) {
		slog.Debug("Outside calling hours, skipping tick", "time", utils.BusinessClock(now))
		return nil
	}

	date := utils.BusinessDate(now)
	clock := utils.BusinessClock(now)

	if err := s.processFirstCalls(ctx, date, clock); err != nil {
		return err
	}
	return s.processCallbacks(ctx, date, clock)
}

// processFirstCalls dispatches prospects whose scheduled call time has just
// been reached. The time match is strict minute equality; an empty scheduled
// time means "any time today".
func (s *Scheduler) processFirstCalls(ctx context.Context, date, clock string) error {
	candidates, err := s.prospectRepo.FindFirstCallCandidates(ctx, date)
	if err != nil {
		return err
	}

	var due []models.Lead
	for _, p := range candidates {
		if p.ScheduledCallTime == "" || p.ScheduledCallTime == clock {
			due = append(due, leadFromProspect(p))
		}
	}
	if len(due) == 0 {
		return nil
	}

	slog.Info("Dispatching scheduled first calls", "date", date, "time", clock, "count", len(due))
	result, err := s.dispatchSvc.Dispatch(ctx, due)
	if err != nil {
		return err
	}
	logDispatch("first-call", result)
	return nil
}

// processCallbacks dispatches prospects whose callback time has been
// reached. Missing or malformed callback times mean "any time today".
func (s *Scheduler) processCallbacks(ctx context.Context, date, clock string) error {
	candidates, err := s.prospectRepo.FindCallbackCandidates(ctx, date)
	if err != nil {
		return err
	}

	var due []models.Lead
	for _, p := range candidates {
		if callbackDue(p.CallBackTime, clock) {
			due = append(due, leadFromProspect(p))
		}
	}
	if len(due) == 0 {
		return nil
	}

	slog.Info("Dispatching callbacks", "date", date, "time", clock, "count", len(due))
	result, err := s.dispatchSvc.Dispatch(ctx, due)
	if err != nil {
		return err
	}
	logDispatch("callback", result)
	return nil
}

// callbackDue reports whether a callback time has been reached. The
// comparison is lexicographic after zero-padding single-digit hours.
func callbackDue(callBackTime *string, clock string) bool {
	if callBackTime == nil || *callBackTime == "" {
		return true
	}
	t := *callBackTime
	if len(t) != 4 && len(t) != 5 {
		return true
	}
	return utils.PadClock(t) <= clock
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

func logDispatch(kind string, result *models.DispatchResult) {
	failed := 0
	for _, batch := range result.BatchResponses {
		if batch.Failed() {
			failed++
		}
	}
	slog.Info("Scheduler dispatch finished", "kind", kind,
		"prospects", result.TotalProspects, "batches", result.TotalBatches,
		"failedBatches", failed, "skipped", result.Skipped)
}
