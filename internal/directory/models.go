package directory

import "github.com/tattva-health/portal-service/internal/pagination"

// HospitalSummary is the public face of a hospital. Revenue stays private.
type HospitalSummary struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Availability string `json:"availability"`
}

type DoctorSummary struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Specification string `json:"specification"`
	Available     bool   `json:"available"`
}

type PaginatedHospitalListResponse struct {
	Hospitals  []HospitalSummary `json:"hospitals"`
	Pagination pagination.Meta   `json:"pagination"`
}

type HospitalDoctorsResponse struct {
	Hospital HospitalSummary `json:"hospital"`
	Doctors  []DoctorSummary `json:"doctors"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
