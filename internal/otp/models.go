package otp

type PhoneRequest struct {
	Phone string `json:"phone"`
}

// VerifyRequest accepts the code under "code" or the legacy "otp" key.
type VerifyRequest struct {
	Phone string `json:"phone"`
	Code  string `json:"code"`
	OTP   string `json:"otp"`
}

func (r VerifyRequest) SubmittedCode() string {
	if r.Code != "" {
		return r.Code
	}
	return r.OTP
}

// StatusResponse is the envelope shared by every code endpoint.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type ExistsResponse struct {
	Exists  bool   `json:"exists"`
	Message string `json:"message,omitempty"`
}
