package benchmarkapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/benchmarksales/ai-outbound-backend/internal/config"
)

// Client represents a broker scheduling API client. Every call is keyed by
// the broker's personal API key, passed as a query parameter.
type Client struct {
	BaseURL    string
	MockAPI    bool
	httpClient *http.Client
}

// AppointmentResponse is the result of a successful booking
type AppointmentResponse struct {
	AppointmentID string `json:"appointmentid"`
	MeetingLink   string `json:"meetingLink,omitempty"`
}

// Appointment is one entry in a broker's appointment list
type Appointment struct {
	AppointmentID string `json:"appointmentid"`
	Subject       string `json:"subject"`
	Start         string `json:"start"`
	End           string `json:"end"`
}

type slotRequest struct {
	BrokerEmail string `json:"brokeremail"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

type createAppointmentRequest struct {
	BrokerEmail string `json:"brokeremail"`
	Start       string `json:"start"`
	End         string `json:"end"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Email       string `json:"email"`
}

type availabilityResponse struct {
	Success   bool   `json:"success"`
	Available bool   `json:"available"`
	Error     string `json:"error,omitempty"`
}

type createAppointmentResponse struct {
	Success       bool   `json:"success"`
	AppointmentID string `json:"appointmentid"`
	MeetingLink   string `json:"meetingLink,omitempty"`
	Error         string `json:"error,omitempty"`
}

// NewClient creates a new scheduling API client
func NewClient(cfg *config.Config) *Client {
	return &Client{
		BaseURL:    cfg.Benchmark.BaseURL,
		MockAPI:    cfg.Benchmark.MockAPI,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// CheckAvailability reports whether the broker is free in [start, end).
// Times are ISO-8601 local-time strings (yyyy-MM-ddTHH:mm:ss).
func (c *Client) CheckAvailability(ctx context.Context, apiKey, brokerEmail, start, end string) (bool, error) {
	if c.MockAPI {
		return true, nil
	}

	var resp availabilityResponse
	err := c.post(ctx, "availabilitycheck", apiKey, slotRequest{
		BrokerEmail: brokerEmail,
		Start:       start,
		End:         end,
	}, &resp)
	if err != nil {
		return false, err
	}
	if !resp.Success {
		return false, fmt.Errorf("availability check failed: %s", resp.Error)
	}
	return resp.Available, nil
}

// CreateAppointment books an appointment in the broker's calendar
func (c *Client) CreateAppointment(ctx context.Context, apiKey, brokerEmail, start, end, subject, description, email string) (*AppointmentResponse, error) {
	if c.MockAPI {
		return &AppointmentResponse{
			AppointmentID: uuid.NewString(),
			MeetingLink:   "https://meet.benchmarksales.io/" + uuid.NewString(),
		}, nil
	}

	var resp createAppointmentResponse
	err := c.post(ctx, "createappointment", apiKey, createAppointmentRequest{
		BrokerEmail: brokerEmail,
		Start:       start,
		End:         end,
		Subject:     subject,
		Description: description,
		Email:       email,
	}, &resp)
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		return nil, fmt.Errorf("create appointment failed: %s", resp.Error)
	}
	return &AppointmentResponse{
		AppointmentID: resp.AppointmentID,
		MeetingLink:   resp.MeetingLink,
	}, nil
}

// GetAppointmentList retrieves the broker's appointments in [start, end)
func (c *Client) GetAppointmentList(ctx context.Context, apiKey, brokerEmail, start, end string) ([]Appointment, error) {
	if c.MockAPI {
		return []Appointment{}, nil
	}

	var appointments []Appointment
	err := c.post(ctx, "appointmentlist", apiKey, slotRequest{
		BrokerEmail: brokerEmail,
		Start:       start,
		End:         end,
	}, &appointments)
	if err != nil {
		return nil, err
	}
	return appointments, nil
}

func (c *Client) post(ctx context.Context, path, apiKey string, body interface{}, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s?apikey=%s", c.BaseURL, path, url.QueryEscape(apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("scheduling API returned status %d: %s", resp.StatusCode, string(respBody))
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
