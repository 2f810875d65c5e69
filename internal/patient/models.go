package patient

import "github.com/tattva-health/portal-service/internal/identity"

// Profile is the patient view shown on the patient dashboard.
type Profile struct {
	ID         int64  `json:"id"`
	AbhaID     int64  `json:"abha_id"`
	Name       string `json:"name"`
	BloodGroup string `json:"blood_grp"`
	Age        int64  `json:"age"`
	Phone      string `json:"phone"`
}

func profileFrom(p *identity.Patient) *Profile {
	return &Profile{
		ID:         p.ID,
		AbhaID:     p.AbhaID,
		Name:       p.Name,
		BloodGroup: p.BloodGroup,
		Age:        p.Age,
		Phone:      p.Phone,
	}
}

type ProfileResponse struct {
	Status  string   `json:"status"`
	Patient *Profile `json:"patient"`
}

type ErrorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
