package retell

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
	"github.com/benchmarksales/ai-outbound-backend/internal/models"
)

// Configuration errors. Both are fatal: no call is attempted without them.
var (
	ErrMissingAPIKey     = errors.New("retell: API key not configured")
	ErrMissingFromNumber = errors.New("retell: from number not configured")
)

// Gateway represents a voice-call provider interface
type Gateway interface {
	// CreatePhoneCall places a single outbound call and returns the
	// provider call ID.
	CreatePhoneCall(ctx context.Context, lead models.Lead) (string, error)
	// CreateBatchCall submits one batch of outbound calls and returns the
	// provider batch ID.
	CreateBatchCall(ctx context.Context, leads []models.Lead) (string, error)
}

// HTTPGateway calls the real provider API
type HTTPGateway struct {
	BaseURL    string
	APIKey     string
	FromNumber string
	httpClient *http.Client
}

// MockGateway fabricates provider IDs for local development and tests
type MockGateway struct{}

// NewGateway creates the gateway selected by configuration
func NewGateway(cfg *config.Config) Gateway {
	if cfg.Retell.MockAPI {
		return &MockGateway{}
	}
	return &HTTPGateway{
		BaseURL:    cfg.Retell.BaseURL,
		APIKey:     cfg.Retell.APIKey,
		FromNumber: cfg.Retell.FromNumber,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

type createCallRequest struct {
	FromNumber       string            `json:"from_number"`
	ToNumber         string            `json:"to_number"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables"`
}

type createCallResponse struct {
	CallID string `json:"call_id"`
}

type batchCallTask struct {
	ToNumber         string            `json:"to_number"`
	DynamicVariables map[string]string `json:"retell_llm_dynamic_variables"`
}

type createBatchCallRequest struct {
	FromNumber string          `json:"from_number"`
	Name       string          `json:"name,omitempty"`
	Tasks      []batchCallTask `json:"tasks"`
}

type createBatchCallResponse struct {
	BatchCallID string `json:"batch_call_id"`
}

// dynamicVariables builds the per-lead template variables the agent sees.
func dynamicVariables(lead models.Lead) map[string]string {
	return map[string]string{
		"user_name":     lead.DisplayName(),
		"business_name": lead.BusinessName,
		"owner_name":    lead.OwnerName,
		"phoneNumber":   lead.PhoneNumber,
		"campaign_id":   lead.CampaignID,
	}
}

func (g *HTTPGateway) checkConfig() error {
	if g.APIKey == "" {
		return ErrMissingAPIKey
	}
	if g.FromNumber == "" {
		return ErrMissingFromNumber
	}
	return nil
}

// CreatePhoneCall places a single outbound call
func (g *HTTPGateway) CreatePhoneCall(ctx context.Context, lead models.Lead) (string, error) {
	if err := g.checkConfig(); err != nil {
		return "", err
	}

	reqBody := createCallRequest{
		FromNumber:       g.FromNumber,
		ToNumber:         lead.PhoneNumber,
		DynamicVariables: dynamicVariables(lead),
	}
	var resp createCallResponse
	if err := g.post(ctx, "/v2/create-phone-call", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.CallID == "" {
		return "", errors.New("retell: empty call_id in response")
	}
	return resp.CallID, nil
}

// CreateBatchCall submits one batch of outbound calls
func (g *HTTPGateway) CreateBatchCall(ctx context.Context, leads []models.Lead) (string, error) {
	if err := g.checkConfig(); err != nil {
		return "", err
	}
	if len(leads) == 0 {
		return "", errors.New("retell: no leads in batch")
	}

	tasks := make([]batchCallTask, 0, len(leads))
	for _, lead := range leads {
		tasks = append(tasks, batchCallTask{
			ToNumber:         lead.PhoneNumber,
			DynamicVariables: dynamicVariables(lead),
		})
	}
	reqBody := createBatchCallRequest{
		FromNumber: g.FromNumber,
		Tasks:      tasks,
	}
	var resp createBatchCallResponse
	if err := g.post(ctx, "/create-batch-call", reqBody, &resp); err != nil {
		return "", err
	}
	if resp.BatchCallID == "" {
		return "", errors.New("retell: empty batch_call_id in response")
	}
	return resp.BatchCallID, nil
}

func (g *HTTPGateway) post(ctx context.Context, path string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.APIKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CreatePhoneCall fabricates a call ID
func (g *MockGateway) CreatePhoneCall(ctx context.Context, lead models.Lead) (string, error) {
	return "call_" + uuid.NewString(), nil
}

// CreateBatchCall fabricates a batch ID
func (g *MockGateway) CreateBatchCall(ctx context.Context, leads []models.Lead) (string, error) {
	if len(leads) == 0 {
		return "", errors.New("retell: no leads in batch")
	}
	return "batch_" + uuid.NewString(), nil
}
