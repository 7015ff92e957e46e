package models

// Webhook event types emitted by the voice provider. Only call_analyzed
// carries the post-call analysis the reconciler consumes.
const (
	WebhookEventCallAnalyzed = "call_analyzed"
)

// Provider call statuses the reconciler maps onto prospect statuses.
const (
	CallStatusEnded     = "ended"
	CallStatusBusy      = "busy"
	CallStatusNoAnswer  = "no_answer"
	CallStatusVoicemail = "voicemail"
	CallStatusError     = "error"
)

// WebhookEvent is the top-level webhook body from the voice provider.
type WebhookEvent struct {
	Event string      `json:"event"`
	Call  WebhookCall `json:"call"`
}

// WebhookCall is the call object inside a webhook event. Batch-dispatched
// calls carry BatchCallID in addition to the per-leg CallID.
type WebhookCall struct {
	ToNumber            string            `json:"to_number"`
	CallID              string            `json:"call_id"`
	BatchCallID         string            `json:"batch_call_id,omitempty"`
	CallStatus          string            `json:"call_status"`
	DisconnectionReason string            `json:"disconnection_reason,omitempty"`
	DurationMS          int64             `json:"duration_ms"`
	StartTimestamp      int64             `json:"start_timestamp"` // epoch ms
	RecordingURL        string            `json:"recording_url,omitempty"`
	Transcript          string            `json:"transcript,omitempty"`
	DynamicVariables    map[string]string `json:"retell_llm_dynamic_variables,omitempty"`
	CallAnalysis        WebhookAnalysis   `json:"call_analysis"`
}

// CampaignID extracts the campaign identifier carried through the provider's
// dynamic variables.
func (c WebhookCall) CampaignID() string {
	return c.DynamicVariables["campaign_id"]
}

// WebhookAnalysis wraps the provider's post-call analysis payload.
type WebhookAnalysis struct {
	CustomAnalysisData CustomAnalysis `json:"custom_analysis_data"`
}

// CustomAnalysis is the typed view of the provider's free-form analysis
// fields. Every field is optional; nil means the agent never established the
// value, which the precedence rules treat differently from an explicit false.
type CustomAnalysis struct {
	AppointmentInterest     *bool   `json:"appointment_interest,omitempty"`
	AppointmentDateTime     *string `json:"appointment_date_time,omitempty"`
	CallBackRequest         *bool   `json:"call_back_request,omitempty"`
	CallBackDate            *string `json:"call_back_date,omitempty"`
	CallBackTime            *string `json:"call_back_time,omitempty"`
	Ebook                   *bool   `json:"ebook,omitempty"`
	IsSubscribeToNewsletter *bool   `json:"is_subscribe_to_news_letter,omitempty"`
	Email                   *string `json:"email,omitempty"`
	CallOutcome             *string `json:"call_outcome,omitempty"`
	CallSummaryInfo         *string `json:"call_summary_info,omitempty"`
}
