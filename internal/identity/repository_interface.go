package identity

import "context"

// RepositoryInterface defines the contract for identity lookups.
// Consumers depend on the narrow subset they need.
type RepositoryInterface interface {
	CreatePatient(ctx context.Context, p *Patient) error
	PatientExistsByPhone(ctx context.Context, phone string) (bool, error)
	GetPatientByPhone(ctx context.Context, phone string) (*Patient, error)

	GetDoctor(ctx context.Context, id int64) (*Doctor, error)
	GetDoctorByCredentials(ctx context.Context, id, pin int64) (*Doctor, error)
	GetDoctorByAccountID(ctx context.Context, accountID int64) (*Doctor, error)
	SetDoctorAvailability(ctx context.Context, id int64, available bool) error
	ListHospitalDoctors(ctx context.Context, hospitalID int64) ([]Doctor, error)

	GetHospital(ctx context.Context, id int64) (*Hospital, error)
	ListHospitals(ctx context.Context, limit, offset int) ([]Hospital, int, error)

	GetOwnerByUsername(ctx context.Context, username string) (*HospitalOwner, error)
	GetOwnerByHospitalID(ctx context.Context, hospitalID int64) (*HospitalOwner, error)
	GetAccountByUsername(ctx context.Context, username string) (*Account, error)
}

var _ RepositoryInterface = (*Repository)(nil)
