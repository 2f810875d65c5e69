package identity

// Patient logs in with a one-time code sent to Phone.
type Patient struct {
	ID         int64  `json:"id"`
	AbhaID     int64  `json:"abha_id"`
	Name       string `json:"name"`
	BloodGroup string `json:"blood_grp"`
	Age        int64  `json:"age"`
	Phone      string `json:"phone,omitempty"`
}

// Doctor logs in with its numeric id and PIN. AccountID is set when the
// doctor is linked to a system account.
type Doctor struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Specification string `json:"specification"`
	Available     bool   `json:"available"`
	AccountID     *int64 `json:"account_id,omitempty"`
}

type Hospital struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Revenue      int64  `json:"revenue"`
	Appointments int64  `json:"appointments"`
	Availability string `json:"availability"`
}

// HospitalOwner is the single owner of a hospital. Password is stored and
// compared as plaintext.
// TODO: migrate owner passwords to bcrypt hashes once existing owners can be re-enrolled.
type HospitalOwner struct {
	HospitalID int64  `json:"hospital_id"`
	Username   string `json:"username"`
	Password   string `json:"-"`
}

// Account is the system user an owner session is bound to.
type Account struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}
