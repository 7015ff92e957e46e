package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Prospect status values. Transitions move forward only:
// new -> contacted -> picked_up, with error terminal from any state.
const (
	StatusNew       = "new"
	StatusContacted = "contacted"
	StatusPickedUp  = "picked_up"
	StatusError     = "error"
)

// MaxCallBackCount is the ceiling on confirmed callback reschedules per prospect.
const MaxCallBackCount = 3

// MaxRetryCount is the ceiling on dispatch attempts before a prospect is parked.
const MaxRetryCount = 4

// statusRank orders prospect statuses for transition checks.
var statusRank = map[string]int{
	StatusNew:       0,
	StatusContacted: 1,
	StatusPickedUp:  2,
	StatusError:     2,
}

// CanTransitionStatus reports whether moving a prospect from one status to
// another is allowed. Same-status writes are allowed (idempotent replays),
// backwards moves are not.
func CanTransitionStatus(from, to string) bool {
	fromRank, ok := statusRank[from]
	if !ok {
		return true // unknown legacy value, let the write through
	}
	toRank, ok := statusRank[to]
	if !ok {
		return false
	}
	return toRank >= fromRank
}

// Prospect represents a callable contact scoped to one campaign. The
// composite identity is (phoneNumber, campaignId); the same phone number may
// appear in several campaigns, each tracked as its own document.
type Prospect struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Name              string             `bson:"name" json:"name"`
	PhoneNumber       string             `bson:"phoneNumber" json:"phoneNumber"`
	BusinessName      string             `bson:"businessName" json:"businessName"`
	OwnerName         string             `bson:"ownerName" json:"ownerName"`
	Email             *string            `bson:"email" json:"email"`
	Status            string             `bson:"status" json:"status"`
	RetryCount        int                `bson:"retryCount" json:"retryCount"`
	CallBackCount     int                `bson:"callBackCount" json:"callBackCount"`
	IsCallBack        *bool              `bson:"isCallBack" json:"isCallBack"`
	CallBackDate      *string            `bson:"callBackDate" json:"callBackDate"`
	CallBackTime      *string            `bson:"callBackTime,omitempty" json:"callBackTime,omitempty"`
	ScheduledCallDate *string            `bson:"scheduledCallDate" json:"scheduledCallDate"`
	ScheduledCallTime string             `bson:"scheduledCallTime,omitempty" json:"scheduledCallTime,omitempty"`
	IsEbook           *bool              `bson:"isEbook" json:"isEbook"`
	IsNewsletterSent  *bool              `bson:"isNewsletterSent" json:"isNewsletterSent"`
	CampaignName      string             `bson:"campaignName" json:"campaignName"`
	CampaignID        string             `bson:"campaignId" json:"campaignId"`
	Appointment       Appointment        `bson:"appointment" json:"appointment"`
	Calls             []Call             `bson:"calls" json:"calls"`
	AuditLogs         []AuditLogEntry    `bson:"auditLogs" json:"auditLogs"`
	CreatedAt         time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Appointment is the appointment sub-document on a prospect. All fields use
// pointers because "never asked" (nil) and "declined" (false/empty) are
// distinct states the reconciler's precedence rules depend on.
type Appointment struct {
	AppointmentInterest *bool   `bson:"appointmentInterest" json:"appointmentInterest"`
	AppointmentDateTime *string `bson:"appointmentDateTime" json:"appointmentDateTime"`
	AppointmentType     *string `bson:"appointmentType,omitempty" json:"appointmentType,omitempty"`
	MeetingLink         *string `bson:"meetingLink,omitempty" json:"meetingLink,omitempty"`
}

// Appointment types.
const (
	AppointmentTypeSelling  = "selling"
	AppointmentTypeAdvisory = "advisory"
)

// Call is one entry in a prospect's call history. A batch-dispatched call
// starts as a placeholder carrying only BatchID and Timestamp; the webhook
// later replaces it in place with the full record including CallID.
type Call struct {
	CallID       string  `bson:"callId,omitempty" json:"callId,omitempty"`
	BatchID      string  `bson:"batchId,omitempty" json:"batchId,omitempty"`
	Timestamp    string  `bson:"timestamp" json:"timestamp"`
	Duration     float64 `bson:"duration,omitempty" json:"duration,omitempty"`
	Status       string  `bson:"status,omitempty" json:"status,omitempty"`
	RecordingURL string  `bson:"recordingUrl,omitempty" json:"recordingUrl,omitempty"`
	Transcript   string  `bson:"transcript,omitempty" json:"transcript,omitempty"`
	CallSummary  string  `bson:"callSummary,omitempty" json:"callSummary,omitempty"`
}

// Resolved reports whether this call record has received its terminal detail
// from the provider. Placeholders and dispatch-time records have no duration
// or status yet.
func (c Call) Resolved() bool {
	return c.Duration > 0 || c.Status != ""
}

// AuditLogEntry is an append-only audit record on a prospect.
type AuditLogEntry struct {
	ActionType  string       `bson:"actionType" json:"actionType"`
	PerformedBy string       `bson:"performedBy" json:"performedBy"`
	Timestamp   time.Time    `bson:"timestamp" json:"timestamp"`
	Details     AuditDetails `bson:"details" json:"details"`
}

// AuditDetails carries the identifiers an audit entry refers to.
type AuditDetails struct {
	CallID              string  `bson:"callId,omitempty" json:"callId,omitempty"`
	BatchID             string  `bson:"batchId,omitempty" json:"batchId,omitempty"`
	Status              string  `bson:"status,omitempty" json:"status,omitempty"`
	AppointmentDateTime *string `bson:"appointmentDateTime,omitempty" json:"appointmentDateTime,omitempty"`
	AppointmentType     *string `bson:"appointmentType,omitempty" json:"appointmentType,omitempty"`
	MeetingLink         *string `bson:"meetingLink,omitempty" json:"meetingLink,omitempty"`
}

// Lead is the dispatchable view of a prospect handed to the call dispatcher.
type Lead struct {
	Name         string `json:"name"`
	PhoneNumber  string `json:"phoneNumber"`
	BusinessName string `json:"businessName"`
	OwnerName    string `json:"ownerName"`
	CampaignID   string `json:"campaignId"`
	CampaignName string `json:"campaignName"`
}

// DisplayName returns the name used in the agent's opening line, with a
// placeholder when the upload had no name column.
func (l Lead) DisplayName() string {
	if l.Name == "" {
		return "there"
	}
	return l.Name
}

// DispatchResult reports the outcome of one dispatch invocation.
type DispatchResult struct {
	TotalProspects int             `json:"totalProspects"`
	TotalBatches   int             `json:"totalBatches"`
	BatchResponses []BatchResponse `json:"batchResponses"`
	Skipped        int             `json:"skipped"`
}

// BatchResponse describes one provider batch submission.
type BatchResponse struct {
	BatchID string `json:"batchId,omitempty"`
	Size    int    `json:"size"`
	Error   string `json:"error,omitempty"`
}

// Failed reports whether the batch submission was rejected by the provider.
func (b BatchResponse) Failed() bool { return b.Error != "" }

// CallResolution is the full set of prospect-level and call-level updates the
// reconciler derives from one webhook event. The repository applies it as a
// single atomic update keyed on the call or batch identifier.
type CallResolution struct {
	Status            string
	Email             *string
	IsCallBack        *bool
	CallBackDate      *string
	CallBackTime      *string
	ScheduledCallDate *string
	Appointment       Appointment
	IsEbook           *bool
	IsNewsletterSent  *bool
	// ClearCallback clears callBackDate, callBackTime and scheduledCallDate
	// when the callee explicitly declined a callback, so the prospect leaves
	// both scheduling paths.
	ClearCallback bool
	Call          Call
	// ResetRetry marks that a valid explicit callback date restarted the
	// retry budget: retryCount is set to 1 and callBackCount incremented.
	ResetRetry bool
	Audit      AuditLogEntry
}

// ReconciliationResult reports what a webhook event matched and did.
type ReconciliationResult struct {
	Matched     bool   `json:"matched"`
	Path        string `json:"path,omitempty"` // "batch" or "call"
	PhoneNumber string `json:"phoneNumber,omitempty"`
	CampaignID  string `json:"campaignId,omitempty"`
	Status      string `json:"status,omitempty"`
}
