package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/tattva-health/portal-service/internal/identity"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var tracer = otel.Tracer("github.com/tattva-health/portal-service/dashboard")

const (
	doctorCardLimit   = 4
	upcomingCardLimit = 2
	noSlot            = "—"
)

// Doctor card states.
const (
	StatusOnline = "online"
	StatusBusy   = "busy"
	StatusOff    = "off"
)

type Service struct {
	repo    RepositoryInterface
	now     func() time.Time
	printer *message.Printer
}

type Option func(*Service)

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func NewService(repo RepositoryInterface, opts ...Option) *Service {
	s := &Service{
		repo:    repo,
		now:     time.Now,
		printer: message.NewPrinter(language.English),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Data builds the owner dashboard for an already authorized hospital.
func (s *Service) Data(ctx context.Context, hospital *identity.Hospital) (*Data, error) {
	ctx, span := tracer.Start(ctx, "dashboard.Data")
	defer span.End()
	span.SetAttributes(attribute.Int64("hospital.id", hospital.ID))

	now := s.now()

	count, err := s.repo.CountBookings(ctx, hospital.ID)
	if err != nil {
		span.SetStatus(codes.Error, "count failed")
		return nil, err
	}
	doctors, err := s.repo.ListDoctors(ctx, hospital.ID, now, doctorCardLimit)
	if err != nil {
		span.SetStatus(codes.Error, "doctors failed")
		return nil, err
	}
	upcoming, err := s.repo.ListUpcoming(ctx, hospital.ID, now, upcomingCardLimit)
	if err != nil {
		span.SetStatus(codes.Error, "upcoming failed")
		return nil, err
	}

	data := &Data{
		KPIs: KPIs{
			RevenueToday:      s.FormatRevenue(hospital.Revenue),
			AppointmentsCount: count,
		},
		Doctors:  make([]DoctorCard, 0, len(doctors)),
		Upcoming: make([]UpcomingCard, 0, len(upcoming)),
		Charts:   map[string]Chart{"appointments_7d": weeklyAppointments()},
	}
	for _, d := range doctors {
		data.Doctors = append(data.Doctors, doctorCard(d))
	}
	for _, b := range upcoming {
		data.Upcoming = append(data.Upcoming, UpcomingCard{
			Patient: b.PatientName,
			Doc:     b.DoctorName,
			Time:    fmt.Sprintf("%s, %s", now.Weekday(), b.Time.Format("03:04 PM")),
			Status:  "Confirmed",
		})
	}

	span.SetStatus(codes.Ok, "built")
	return data, nil
}

// FormatRevenue renders whole rupees with thousands separators.
func (s *Service) FormatRevenue(revenue int64) string {
	return s.printer.Sprintf("₹ %d", revenue)
}

func doctorCard(d DoctorRow) DoctorCard {
	card := DoctorCard{
		Name:       d.Name,
		Spec:       d.Specification,
		Slot:       noSlot,
		Status:     StatusOff,
		StatusText: "Off",
	}
	if !d.Available {
		return card
	}
	card.Status, card.StatusText = StatusOnline, "Online"
	if d.NextSlot != nil {
		card.Slot = "Today, " + d.NextSlot.Format("03:04 PM")
		card.Status, card.StatusText = StatusBusy, "Busy"
	}
	return card
}

// weeklyAppointments is placeholder chart data until bookings carry dates.
func weeklyAppointments() Chart {
	return Chart{
		Labels: []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"},
		Booked: []int{34, 28, 36, 30, 40, 22, 20},
		Walkin: []int{12, 8, 10, 6, 14, 8, 4},
	}
}
