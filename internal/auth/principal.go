package auth

import "strconv"

// Kind identifies which login flow produced a principal.
type Kind string

const (
	KindPatient       Kind = "PATIENT"
	KindDoctor        Kind = "DOCTOR"
	KindHospitalOwner Kind = "HOSPITAL_OWNER"
)

// Principal is the identity bound to a session. Only the fields relevant to
// Kind are set.
type Principal struct {
	Kind Kind `json:"kind"`

	// Patient
	Phone string `json:"phone,omitempty"`

	// Doctor
	DoctorID   int64  `json:"doctor_id,omitempty"`
	DoctorName string `json:"doctor_name,omitempty"`

	// System account, set for hospital owners and for doctors linked to an account
	AccountID  int64  `json:"account_id,omitempty"`
	Username   string `json:"username,omitempty"`
	HospitalID int64  `json:"hospital_id,omitempty"`

	SessionID string `json:"-"`
}

// Subject is a stable, log-safe identifier for the principal.
func (p *Principal) Subject() string {
	switch p.Kind {
	case KindPatient:
		if len(p.Phone) > 4 {
			return "patient:***" + p.Phone[len(p.Phone)-4:]
		}
		return "patient"
	case KindDoctor:
		return "doctor:" + strconv.FormatInt(p.DoctorID, 10)
	case KindHospitalOwner:
		return "owner:" + p.Username
	default:
		return "unknown"
	}
}
