package owner

// LoginRequest accepts the login id under "nin", as the portal form sends
// it, or under "username".
type LoginRequest struct {
	NIN      string `json:"nin"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) LoginID() string {
	if r.NIN != "" {
		return r.NIN
	}
	return r.Username
}

type LoginResponse struct {
	Message     string `json:"message"`
	RedirectURL string `json:"redirectUrl,omitempty"`
}

type DashboardResponse struct {
	HospitalID    int64  `json:"hospital_id"`
	HospitalName  string `json:"hospital_name"`
	OwnerUsername string `json:"owner_username"`
}
