package doctor

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Credential is a numeric login field that clients send either as a JSON
// number or as a digit string. Anything else decodes as unset, which fails
// login like a wrong PIN would.
type Credential struct {
	Value int64
	Set   bool
}

func (c *Credential) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = Credential{}
		return nil
	}

	raw := string(b)
	if strings.HasPrefix(raw, `"`) {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		raw = strings.TrimSpace(s)
		if raw == "" {
			*c = Credential{}
			return nil
		}
	}

	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		*c = Credential{}
		return nil
	}
	*c = Credential{Value: n, Set: true}
	return nil
}

type LoginRequest struct {
	DocID Credential `json:"doc_id"`
	PIN   Credential `json:"pin"`
}

type LoginResponse struct {
	Status      string `json:"status"`
	DoctorName  string `json:"doctor_name,omitempty"`
	RedirectURL string `json:"redirect_url,omitempty"`
	Message     string `json:"message,omitempty"`
}

type AvailabilityRequest struct {
	IsAvailable *bool `json:"is_available"`
}

type AvailabilityResponse struct {
	Status      string `json:"status"`
	IsAvailable bool   `json:"is_available"`
}

type ProfileResponse struct {
	DoctorID      int64  `json:"doctor_id"`
	DoctorName    string `json:"doctor_name"`
	Specification string `json:"specification"`
	Available     bool   `json:"available"`
}

type HospitalResponse struct {
	HospitalID   int64  `json:"hospital_id"`
	HospitalName string `json:"hospital_name"`
}

type ErrorResponse struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
