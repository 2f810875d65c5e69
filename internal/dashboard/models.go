package dashboard

import "time"

// DoctorRow is one doctor of a hospital with its next booking after a
// time of day, if any.
type DoctorRow struct {
	ID            int64
	Name          string
	Specification string
	Available     bool
	NextSlot      *time.Time
}

type BookingRow struct {
	PatientName string
	DoctorName  string
	Time        time.Time
}

type Data struct {
	KPIs     KPIs             `json:"kpis"`
	Doctors  []DoctorCard     `json:"doctors"`
	Upcoming []UpcomingCard   `json:"upcoming"`
	Charts   map[string]Chart `json:"charts"`
}

type KPIs struct {
	RevenueToday      string `json:"revenue_today"`
	AppointmentsCount int64  `json:"appointments_count"`
}

type DoctorCard struct {
	Name       string `json:"name"`
	Spec       string `json:"spec"`
	Slot       string `json:"slot"`
	Status     string `json:"status"`
	StatusText string `json:"status_text"`
}

type UpcomingCard struct {
	Patient string `json:"patient"`
	Doc     string `json:"doc"`
	Time    string `json:"time"`
	Status  string `json:"status"`
}

type Chart struct {
	Labels []string `json:"labels"`
	Booked []int    `json:"booked"`
	Walkin []int    `json:"walkin"`
}
