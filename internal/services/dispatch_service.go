package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
	"github.com/benchmarksales/ai-outbound-backend/internal/utils"
	"github.com/benchmarksales/ai-outbound-backend/pkg/retell"
)

// Compile-time check to ensure DispatchServiceImpl implements DispatchService
var _ DispatchService = (*DispatchServiceImpl)(nil)

// directCooldownEvery is how many direct calls run before the longer pause.
const directCooldownEvery = 15

// callGuard serializes dispatches per (phoneNumber, campaignId) inside this
// process so an overlapping scheduler tick and manual trigger cannot both
// increment retryCount for the same prospect.
type callGuard struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newCallGuard() *callGuard {
	return &callGuard{active: map[string]struct{}{}}
}

func (g *callGuard) tryAcquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[key]; busy {
		return false
	}
	g.active[key] = struct{}{}
	return true
}

func (g *callGuard) release(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.active, key)
}

// DispatchServiceImpl submits outbound calls through the voice provider
type DispatchServiceImpl struct {
	prospectRepo repositories.ProspectRepository
	gateway      retell.Gateway
	batchSize    int
	pacing       time.Duration
	guard        *callGuard
}

// NewDispatchService creates a new DispatchServiceImpl
func NewDispatchService(prospectRepo repositories.ProspectRepository, gateway retell.Gateway, cfg *config.Config) *DispatchServiceImpl {
	batchSize := cfg.Retell.BatchSize
	if batchSize <= 0 {
		batchSize = 15
	}
	pacing := time.Duration(cfg.Retell.PacingSeconds) * time.Second
	if pacing <= 0 {
		pacing = time.Second
	}
	return &DispatchServiceImpl{
		prospectRepo: prospectRepo,
		gateway:      gateway,
		batchSize:    batchSize,
		pacing:       pacing,
		guard:        newCallGuard(),
	}
}

func guardKey(lead models.Lead) string {
	return lead.PhoneNumber + "|" + lead.CampaignID
}

// acquireLeads filters out leads with invalid phone numbers or an in-flight
// dispatch, returning the callable set and the count skipped.
func (s *DispatchServiceImpl) acquireLeads(leads []models.Lead) ([]models.Lead, int) {
	var callable []models.Lead
	skipped := 0
	for _, lead := range leads {
		if lead.PhoneNumber == "" || !utils.ValidPhone(lead.PhoneNumber) {
			slog.Warn("Skipping lead with invalid phone number", "phone", lead.PhoneNumber, "campaignId", lead.CampaignID)
			skipped++
			continue
		}
		if !s.guard.tryAcquire(guardKey(lead)) {
			slog.Warn("Skipping lead with dispatch already in flight", "phone", lead.PhoneNumber, "campaignId", lead.CampaignID)
			skipped++
			continue
		}
		callable = append(callable, lead)
	}
	return callable, skipped
}

func (s *DispatchServiceImpl) releaseLeads(leads []models.Lead) {
	for _, lead := range leads {
		s.guard.release(guardKey(lead))
	}
}

// Dispatch partitions leads into provider batches and submits them. A failed
// batch is logged and reported, and later batches still run.
func (s *DispatchServiceImpl) Dispatch(ctx context.Context, leads []models.Lead) (*models.DispatchResult, error) {
	if len(leads) == 0 {
		return nil, ErrNoProspects
	}

	callable, skipped := s.acquireLeads(leads)
	defer s.releaseLeads(callable)

	result := &models.DispatchResult{
		TotalProspects: len(callable),
		Skipped:        skipped,
	}
	if len(callable) == 0 {
		slog.Warn("No callable leads after filtering", "requested", len(leads))
		return result, nil
	}

	for start := 0; start < len(callable); start += s.batchSize {
		end := start + s.batchSize
		if end > len(callable) {
			end = len(callable)
		}
		batch := callable[start:end]

		if start > 0 {
			if err := sleepCtx(ctx, s.pacing); err != nil {
				return result, err
			}
		}

		batchID, err := s.gateway.CreateBatchCall(ctx, batch)
		if err != nil {
			slog.Error("Batch call submission failed", "error", err, "size", len(batch))
			result.BatchResponses = append(result.BatchResponses, models.BatchResponse{
				Size:  len(batch),
				Error: err.Error(),
			})
			result.TotalBatches++
			continue
		}

		timestamp := time.Now().UTC().Format(time.RFC3339)
		for _, lead := range batch {
			if err := s.prospectRepo.MarkBatchDispatched(ctx, lead.PhoneNumber, lead.CampaignID, batchID, timestamp); err != nil {
				slog.Error("Failed to record batch dispatch on prospect", "error", err, "phone", lead.PhoneNumber, "campaignId", lead.CampaignID, "batchId", batchID)
			}
		}
		result.BatchResponses = append(result.BatchResponses, models.BatchResponse{
			BatchID: batchID,
			Size:    len(batch),
		})
		result.TotalBatches++
		slog.Info("Batch call submitted", "batchId", batchID, "size", len(batch))
	}

	return result, nil
}

// DispatchDirect places one call per lead with pacing between calls and a
// longer cooldown after every fifteenth call.
func (s *DispatchServiceImpl) DispatchDirect(ctx context.Context, leads []models.Lead) (*models.DispatchResult, error) {
	if len(leads) == 0 {
		return nil, ErrNoProspects
	}

	callable, skipped := s.acquireLeads(leads)
	defer s.releaseLeads(callable)

	result := &models.DispatchResult{
		TotalProspects: len(callable),
		Skipped:        skipped,
	}

	for i, lead := range callable {
		if i > 0 {
			pause := s.pacing
			if i%directCooldownEvery == 0 {
				pause = s.pacing * 10
			}
			if err := sleepCtx(ctx, pause); err != nil {
				return result, err
			}
		}

		callID, err := s.gateway.CreatePhoneCall(ctx, lead)
		if err != nil {
			slog.Error("Phone call submission failed", "error", err, "phone", lead.PhoneNumber, "campaignId", lead.CampaignID)
			result.BatchResponses = append(result.BatchResponses, models.BatchResponse{
				Size:  1,
				Error: err.Error(),
			})
			result.TotalBatches++
			continue
		}

		timestamp := time.Now().UTC().Format(time.RFC3339)
		if err := s.prospectRepo.MarkCallDispatched(ctx, lead.PhoneNumber, lead.CampaignID, callID, timestamp); err != nil {
			slog.Error("Failed to record call dispatch on prospect", "error", err, "phone", lead.PhoneNumber, "campaignId", lead.CampaignID, "callId", callID)
		}
		result.BatchResponses = append(result.BatchResponses, models.BatchResponse{
			BatchID: callID,
			Size:    1,
		})
		result.TotalBatches++
		slog.Info("Call initiated", "callId", callID, "phone", lead.PhoneNumber, "campaignId", lead.CampaignID)
	}

	return result, nil
}

// DispatchAsync runs Dispatch on a background goroutine. Database updates
// may land after the HTTP response in this mode.
func (s *DispatchServiceImpl) DispatchAsync(leads []models.Lead) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		if _, err := s.Dispatch(ctx, leads); err != nil {
			slog.Error("Background dispatch failed", "error", err, "leads", len(leads))
		}
	}()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
