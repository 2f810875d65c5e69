package messaging

import (
	"time"

	"github.com/google/uuid"
)

// Event routing keys as constants
const (
	// One-time code events
	EventCodeRequested = "otp.requested"

	// Login events, one per principal kind
	EventPatientLoggedIn = "patient.logged_in"
	EventDoctorLoggedIn  = "doctor.logged_in"
	EventOwnerLoggedIn   = "hospital_owner.logged_in"
	EventSessionEnded    = "session.ended"

	// Doctor events
	EventDoctorAvailabilityChanged = "doctor.availability_changed"
)

// ServiceName is stamped on every event.
const ServiceName = "portal-service"

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType   string    `json:"event_type"`
	EventID     string    `json:"event_id"`
	Timestamp   time.Time `json:"timestamp"`
	ServiceName string    `json:"service_name"`
}

// CodeRequestedEvent never carries the code itself.
type CodeRequestedEvent struct {
	BaseEvent
	Data CodeRequestedData `json:"data"`
}

type CodeRequestedData struct {
	PhoneMasked string    `json:"phone_masked"`
	RequestedAt time.Time `json:"requested_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// LoginEvent is published for every successful login and logout.
type LoginEvent struct {
	BaseEvent
	Data LoginData `json:"data"`
}

type LoginData struct {
	PrincipalKind string    `json:"principal_kind"`
	Subject       string    `json:"subject"`
	HospitalID    int64     `json:"hospital_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

type DoctorAvailabilityChangedEvent struct {
	BaseEvent
	Data DoctorAvailabilityChangedData `json:"data"`
}

type DoctorAvailabilityChangedData struct {
	DoctorID  int64     `json:"doctor_id"`
	Available bool      `json:"available"`
	ChangedAt time.Time `json:"changed_at"`
}

// NewBaseEvent creates a base event with common fields
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType:   eventType,
		EventID:     uuid.NewString(),
		Timestamp:   time.Now().UTC(),
		ServiceName: ServiceName,
	}
}

// NewLoginEvent builds a login or logout event for the given routing key.
func NewLoginEvent(eventType, kind, subject string, hospitalID int64) LoginEvent {
	base := NewBaseEvent(eventType)
	return LoginEvent{
		BaseEvent: base,
		Data: LoginData{
			PrincipalKind: kind,
			Subject:       subject,
			HospitalID:    hospitalID,
			OccurredAt:    base.Timestamp,
		},
	}
}
