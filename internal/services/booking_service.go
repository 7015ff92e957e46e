package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/benchmarksales/ai-outbound-backend/internal/models"
	"github.com/benchmarksales/ai-outbound-backend/internal/repositories"
	"github.com/benchmarksales/ai-outbound-backend/internal/utils"
	"github.com/benchmarksales/ai-outbound-backend/pkg/benchmarkapi"
	"github.com/benchmarksales/ai-outbound-backend/pkg/mailer"
)

// Compile-time check to ensure BookingServiceImpl implements BookingService
var _ BookingService = (*BookingServiceImpl)(nil)

// appointmentDuration is the fixed booking window.
const appointmentDuration = 60 * time.Minute

// SchedulingAPI is the slice of the broker scheduling client the booking
// flow depends on.
type SchedulingAPI interface {
	CheckAvailability(ctx context.Context, apiKey, brokerEmail, start, end string) (bool, error)
	CreateAppointment(ctx context.Context, apiKey, brokerEmail, start, end, subject, description, email string) (*benchmarkapi.AppointmentResponse, error)
}

// BookingServiceImpl books appointments in the campaign broker's calendar
type BookingServiceImpl struct {
	campaignRepo repositories.CampaignRepository
	userRepo     repositories.UserRepository
	prospectRepo repositories.ProspectRepository
	scheduling   SchedulingAPI
	mailer       mailer.Sender
}

// NewBookingService creates a new BookingServiceImpl
func NewBookingService(
	campaignRepo repositories.CampaignRepository,
	userRepo repositories.UserRepository,
	prospectRepo repositories.ProspectRepository,
	scheduling SchedulingAPI,
	sender mailer.Sender,
) *BookingServiceImpl {
	return &BookingServiceImpl{
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		prospectRepo: prospectRepo,
		scheduling:   scheduling,
		mailer:       sender,
	}
}

// appointmentType maps a request meeting type onto the stored type.
func appointmentType(meetingType string) string {
	switch meetingType {
	case "bookSaleAdvisoryAppointment", models.AppointmentTypeAdvisory:
		return models.AppointmentTypeAdvisory
	default:
		return models.AppointmentTypeSelling
	}
}

// resolveBroker finds the broker owning the campaign along with their
// scheduling API key.
func (s *BookingServiceImpl) resolveBroker(ctx context.Context, campaignID string) (*models.User, error) {
	oid, err := primitive.ObjectIDFromHex(campaignID)
	if err != nil {
		return nil, ErrCampaignNotFound
	}
	campaign, err := s.campaignRepo.FindByID(ctx, oid)
	if err == mongo.ErrNoDocuments {
		return nil, ErrCampaignNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find campaign: %w", err)
	}
	if campaign.Users == "" {
		return nil, ErrUserNotFound
	}

	userID, err := primitive.ObjectIDFromHex(campaign.Users)
	if err != nil {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.FindByID(ctx, userID)
	if err == mongo.ErrNoDocuments {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find broker: %w", err)
	}
	if user.APIKey == "" {
		return nil, ErrMissingBrokerKey
	}
	return user, nil
}

// slotWindow builds the ISO-8601 local start/end strings for the fixed
// 60-minute booking window.
func slotWindow(date, timeOfDay string) (start, end string, err error) {
	if _, err := time.Parse(utils.DateLayout, date); err != nil {
		return "", "", ErrInvalidDate
	}
	if _, err := time.Parse(utils.ClockLayout, timeOfDay); err != nil {
		return "", "", ErrInvalidTime
	}
	startTime, err := time.Parse("2006-01-02T15:04:05", date+"T"+timeOfDay+":00")
	if err != nil {
		return "", "", ErrInvalidTime
	}
	endTime := startTime.Add(appointmentDuration)
	return startTime.Format("2006-01-02T15:04:05"), endTime.Format("2006-01-02T15:04:05"), nil
}

// CheckAvailability reports whether the campaign broker is free for the
// 60-minute window starting at date+time
func (s *BookingServiceImpl) CheckAvailability(ctx context.Context, date, timeOfDay, campaignID string) (bool, error) {
	start, end, err := slotWindow(date, timeOfDay)
	if err != nil {
		return false, err
	}
	broker, err := s.resolveBroker(ctx, campaignID)
	if err != nil {
		return false, err
	}
	return s.scheduling.CheckAvailability(ctx, broker.APIKey, broker.Email, start, end)
}

// Book validates the slot, checks availability, creates the appointment,
// notifies super-admins and updates the prospect's appointment record
func (s *BookingServiceImpl) Book(ctx context.Context, req BookingRequest) (*BookingResult, error) {
	start, end, err := slotWindow(req.Date, req.Time)
	if err != nil {
		return nil, err
	}
	broker, err := s.resolveBroker(ctx, req.CampaignID)
	if err != nil {
		return nil, err
	}

	available, err := s.scheduling.CheckAvailability(ctx, broker.APIKey, broker.Email, start, end)
	if err != nil {
		return nil, fmt.Errorf("check availability: %w", err)
	}
	if !available {
		return nil, ErrSlotUnavailable
	}

	apptType := appointmentType(req.MeetingType)

	var prospect *models.Prospect
	if req.PhoneNumber != "" {
		prospect, err = s.prospectRepo.FindByPhoneAndCampaign(ctx, req.PhoneNumber, req.CampaignID)
		if err != nil && err != mongo.ErrNoDocuments {
			return nil, fmt.Errorf("find prospect: %w", err)
		}
	}

	subject := req.Subject
	if subject == "" {
		subject = fmt.Sprintf("Appointment with %s on %s at %s", broker.Name, req.Date, req.Time)
	}
	description := bookingDescription(broker, prospect, req, apptType)

	appointment, err := s.scheduling.CreateAppointment(ctx, broker.APIKey, broker.Email, start, end, subject, description, req.CallerEmail)
	if err != nil {
		return nil, fmt.Errorf("create appointment: %w", err)
	}

	s.notifySuperAdmins(ctx, broker, prospect, req, apptType, start, end)

	if req.PhoneNumber != "" && prospect != nil {
		appt := models.Appointment{
			AppointmentInterest: ptr(true),
			AppointmentDateTime: &start,
			AppointmentType:     &apptType,
		}
		if appointment.MeetingLink != "" {
			appt.MeetingLink = &appointment.MeetingLink
		}
		audit := models.AuditLogEntry{
			ActionType:  "Appointment Updated",
			PerformedBy: "User",
			Timestamp:   time.Now(),
			Details: models.AuditDetails{
				AppointmentDateTime: &start,
				AppointmentType:     &apptType,
				MeetingLink:         appt.MeetingLink,
			},
		}
		if err := s.prospectRepo.UpdateAppointment(ctx, req.PhoneNumber, req.CampaignID, appt, audit); err != nil {
			slog.Error("Failed to update prospect appointment", "error", err, "phone", req.PhoneNumber, "campaignId", req.CampaignID)
		}
	}

	return &BookingResult{
		Message:       fmt.Sprintf("Timeslot is available. %s appointment created successfully.", apptType),
		AppointmentID: appointment.AppointmentID,
		MeetingLink:   appointment.MeetingLink,
	}, nil
}

func bookingDescription(broker *models.User, prospect *models.Prospect, req BookingRequest, apptType string) string {
	name, business, phone, campaign := "N/A", "N/A", "N/A", "N/A"
	email := req.CallerEmail
	if prospect != nil {
		name = prospect.Name
		business = prospect.BusinessName
		phone = prospect.PhoneNumber
		campaign = prospect.CampaignName
		if prospect.Email != nil {
			email = *prospect.Email
		}
	}
	return fmt.Sprintf(
		"This is a %s meeting scheduled for %s (%s) on %s at %s.\n"+
			"Prospect Name: %s\nProspect Email: %s\nProspect Phone Number: %s\n"+
			"Prospect Campaign Name: %s\nProspect Business Name: %s",
		apptType, broker.Name, broker.Email, req.Date, req.Time,
		name, email, phone, campaign, business,
	)
}

// notifySuperAdmins emails every super-admin about the booking. Individual
// send failures are logged, not surfaced.
func (s *BookingServiceImpl) notifySuperAdmins(ctx context.Context, broker *models.User, prospect *models.Prospect, req BookingRequest, apptType, start, end string) {
	admins, err := s.userRepo.FindByRole(ctx, models.RoleSuperAdmin)
	if err != nil {
		slog.Error("Failed to load super admins for booking notification", "error", err)
		return
	}

	prospectName, prospectPhone, prospectBusiness, prospectCampaign := "N/A", "N/A", "N/A", "N/A"
	prospectEmail := req.CallerEmail
	if prospect != nil {
		prospectName = prospect.Name
		prospectPhone = prospect.PhoneNumber
		prospectBusiness = prospect.BusinessName
		prospectCampaign = prospect.CampaignName
		if prospect.Email != nil {
			prospectEmail = *prospect.Email
		}
	}

	subject := fmt.Sprintf("%s %s Appointment Confirmation", broker.Name, apptType)
	for _, admin := range admins {
		body := fmt.Sprintf(`<html><body>
<h2>Appointment Confirmation</h2>
<p>Dear %s,</p>
<p>A new <strong>%s</strong> appointment has been scheduled.</p>
<div>
<p><strong>Date &amp; Time:</strong> %s to %s</p>
<p><strong>Scheduled By:</strong> %s (%s)</p>
<p><strong>Prospect Name:</strong> %s</p>
<p><strong>Prospect Email:</strong> %s</p>
<p><strong>Prospect Phone:</strong> %s</p>
<p><strong>Campaign Name:</strong> %s</p>
<p><strong>Business Name:</strong> %s</p>
</div>
<p>Please attend or follow up as needed.</p>
<p>Regards,<br>%s</p>
</body></html>`,
			admin.Name, apptType, start, end, broker.Name, broker.Email,
			prospectName, prospectEmail, prospectPhone, prospectCampaign, prospectBusiness, broker.Name)

		if err := s.mailer.Send(ctx, admin.Email, subject, body); err != nil {
			slog.Error("Failed to send booking notification", "error", err, "to", admin.Email)
		}
	}
}
