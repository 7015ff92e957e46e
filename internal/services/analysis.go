package services

import (
	"strings"
	"time"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/utils"
)

// Phrase sets scanned in transcripts to classify the appointment type.
var (
	sellingPhrases = []string{
		"selling appointment", "sales appointment", "book selling", "book a selling",
		"selling meeting", "sales meeting", "selling consultation",
	}
	advisoryPhrases = []string{
		"advisory appointment", "sales advisory appointment", "book advisory",
		"book an advisory", "advisory meeting", "advisory consultation",
	}
)

// deriveAppointmentType classifies the appointment type from the transcript.
// Explicit phrases win; otherwise, when the agent asked the selling-or-advisory
// question, the response after the question is scanned; with confirmed
// interest but no signal the type defaults to selling.
func deriveAppointmentType(transcript string, interest *bool) *string {
	lower := strings.ToLower(transcript)

	for _, phrase := range sellingPhrases {
		if strings.Contains(lower, phrase) {
			return ptr(models.AppointmentTypeSelling)
		}
	}
	for _, phrase := range advisoryPhrases {
		if strings.Contains(lower, phrase) {
			return ptr(models.AppointmentTypeAdvisory)
		}
	}

	if interest == nil || !*interest {
		return nil
	}

	asked := strings.Contains(lower, "would you prefer selling") ||
		strings.Contains(lower, "would you like selling") ||
		strings.Contains(lower, "selling or advisory") ||
		strings.Contains(lower, "sales or advisory")
	if asked {
		if response := afterLast(lower, "selling or advisory"); response != "" {
			if strings.Contains(response, "selling") {
				return ptr(models.AppointmentTypeSelling)
			}
			if strings.Contains(response, "advisory") {
				return ptr(models.AppointmentTypeAdvisory)
			}
		}
		if response := afterLast(lower, "sales or advisory"); response != "" {
			if strings.Contains(response, "sales") {
				return ptr(models.AppointmentTypeSelling)
			}
		}
	}

	// Interest confirmed but type undetermined.
	return ptr(models.AppointmentTypeSelling)
}

// afterLast returns the text following the last occurrence of sep, or ""
// when sep is absent.
func afterLast(s, sep string) string {
	idx := strings.LastIndex(s, sep)
	if idx < 0 {
		return ""
	}
	return s[idx+len(sep):]
}

// mapCallStatus maps the provider call status onto the prospect status and
// the status value recorded on the call itself. When the provider reports an
// error, the stored call status is the disconnection reason so it stays
// diagnostic.
func mapCallStatus(call models.WebhookCall) (prospectStatus, recordedStatus string) {
	switch call.CallStatus {
	case models.CallStatusEnded:
		return models.StatusPickedUp, call.CallStatus
	case models.CallStatusBusy, models.CallStatusNoAnswer, models.CallStatusVoicemail:
		return models.StatusContacted, call.CallStatus
	default:
		recorded := call.CallStatus
		if call.DisconnectionReason != "" {
			recorded = call.DisconnectionReason
		}
		return models.StatusError, recorded
	}
}

// callbackPlan is the callback schedule derived from one call analysis.
type callbackPlan struct {
	IsCallBack *bool
	Date       *string
	Time       *string
	Clear      bool
	// ResetRetry is true only when the analysis supplied a valid explicit
	// YYYY-MM-DD callback date.
	ResetRetry bool
}

// deriveCallback derives the callback schedule from the analysis payload.
// An unset call_back_request means the call was never answered, so the
// callback defaults to tomorrow at a random time inside the calling window.
func deriveCallback(analysis models.CustomAnalysis, now time.Time) callbackPlan {
	tomorrow := utils.BusinessDate(now.AddDate(0, 0, 1))

	switch {
	case analysis.CallBackRequest != nil && *analysis.CallBackRequest:
		plan := callbackPlan{IsCallBack: ptr(true)}
		if analysis.CallBackDate != nil && validDate(*analysis.CallBackDate) {
			plan.Date = analysis.CallBackDate
			plan.ResetRetry = true
			if analysis.CallBackTime != nil && validClock(*analysis.CallBackTime) {
				plan.Time = analysis.CallBackTime
			}
		} else {
			plan.Date = &tomorrow
			plan.Time = ptr(utils.RandomCallTime())
		}
		return plan
	case analysis.CallBackRequest == nil:
		return callbackPlan{
			Date: &tomorrow,
			Time: ptr(utils.RandomCallTime()),
		}
	default:
		// Explicit decline.
		return callbackPlan{IsCallBack: ptr(false), Clear: true}
	}
}

// Outcome labels for the campaign report.
const (
	outcomeNoInterest  = "No Interest"
	outcomeEbookSent   = "Ebook Sent"
	outcomeAppointment = "Appointment Booked"
	outcomeHungUp      = "Hung Up"
	outcomeUnknown     = "Unknown"
)

// deriveOutcome produces the report outcome label, preferring the provider's
// explicit field and falling back to keyword-matching the call summary.
func deriveOutcome(analysis models.CustomAnalysis) string {
	if analysis.CallOutcome != nil && strings.TrimSpace(*analysis.CallOutcome) != "" {
		return strings.TrimSpace(*analysis.CallOutcome)
	}

	summary := ""
	if analysis.CallSummaryInfo != nil {
		summary = strings.ToLower(*analysis.CallSummaryInfo)
	}
	switch {
	case strings.Contains(summary, "no interest"):
		return outcomeNoInterest
	case strings.Contains(summary, "ebook"):
		return outcomeEbookSent
	case strings.Contains(summary, "meeting"), strings.Contains(summary, "appointment"):
		return outcomeAppointment
	case strings.Contains(summary, "hung up"):
		return outcomeHungUp
	default:
		return outcomeUnknown
	}
}

func validDate(s string) bool {
	_, err := time.Parse(utils.DateLayout, s)
	return err == nil && len(s) == 10
}

func validClock(s string) bool {
	_, err := time.Parse(utils.ClockLayout, utils.PadClock(s))
	return err == nil
}

func ptr[T any](v T) *T { return &v }
