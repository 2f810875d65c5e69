package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) CreatePatient(ctx context.Context, p *Patient) error {
	query := `
		INSERT INTO patients (abha_id, name, blood_grp, age, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`
	var phone sql.NullString
	if p.Phone != "" {
		phone = sql.NullString{String: p.Phone, Valid: true}
	}

	err := r.db.QueryRowContext(ctx, query, p.AbhaID, p.Name, p.BloodGroup, p.Age, phone).Scan(&p.ID)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" && pqErr.Constraint == "patients_phone_key" {
				return ErrDuplicatePhone
			}
		}
		return fmt.Errorf("failed to insert patient: %w", err)
	}
	return nil
}

func (r *Repository) PatientExistsByPhone(ctx context.Context, phone string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM patients WHERE phone = $1)`, phone,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check patient phone: %w", err)
	}
	return exists, nil
}

// GetPatientByPhone refuses to pick one patient when a phone is shared.
func (r *Repository) GetPatientByPhone(ctx context.Context, phone string) (*Patient, error) {
	query := `
		SELECT id, abha_id, name, blood_grp, age, phone
		FROM patients
		WHERE phone = $1
		LIMIT 2
	`
	rows, err := r.db.QueryContext(ctx, query, phone)
	if err != nil {
		return nil, fmt.Errorf("failed to query patient: %w", err)
	}
	defer rows.Close()

	var found []Patient
	for rows.Next() {
		var p Patient
		var ph sql.NullString
		if err := rows.Scan(&p.ID, &p.AbhaID, &p.Name, &p.BloodGroup, &p.Age, &ph); err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		p.Phone = ph.String
		found = append(found, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating patients: %w", err)
	}

	switch len(found) {
	case 0:
		return nil, ErrPatientNotFound
	case 1:
		return &found[0], nil
	default:
		return nil, ErrAmbiguousPhone
	}
}

const doctorColumns = `id, name, specification, available, account_id`

func scanDoctor(row interface{ Scan(...interface{}) error }) (*Doctor, error) {
	var d Doctor
	var accountID sql.NullInt64
	if err := row.Scan(&d.ID, &d.Name, &d.Specification, &d.Available, &accountID); err != nil {
		return nil, err
	}
	if accountID.Valid {
		id := accountID.Int64
		d.AccountID = &id
	}
	return &d, nil
}

func (r *Repository) GetDoctor(ctx context.Context, id int64) (*Doctor, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+doctorColumns+` FROM doctors WHERE id = $1`, id)
	d, err := scanDoctor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return d, nil
}

// GetDoctorByCredentials matches id and PIN together so a wrong id and a
// wrong PIN are indistinguishable.
func (r *Repository) GetDoctorByCredentials(ctx context.Context, id, pin int64) (*Doctor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE id = $1 AND pin = $2`, id, pin)
	d, err := scanDoctor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor by credentials: %w", err)
	}
	return d, nil
}

func (r *Repository) GetDoctorByAccountID(ctx context.Context, accountID int64) (*Doctor, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+doctorColumns+` FROM doctors WHERE account_id = $1`, accountID)
	d, err := scanDoctor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDoctorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor by account: %w", err)
	}
	return d, nil
}

func (r *Repository) SetDoctorAvailability(ctx context.Context, id int64, available bool) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE doctors SET available = $2 WHERE id = $1`, id, available)
	if err != nil {
		return fmt.Errorf("failed to update doctor availability: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrDoctorNotFound
	}
	return nil
}

func (r *Repository) ListHospitalDoctors(ctx context.Context, hospitalID int64) ([]Doctor, error) {
	query := `
		SELECT d.id, d.name, d.specification, d.available, d.account_id
		FROM doctors d
		JOIN hospital_doctors hd ON hd.doctor_id = d.id
		WHERE hd.hospital_id = $1
		ORDER BY d.id
	`
	rows, err := r.db.QueryContext(ctx, query, hospitalID)
	if err != nil {
		return nil, fmt.Errorf("failed to query hospital doctors: %w", err)
	}
	defer rows.Close()

	doctors := []Doctor{}
	for rows.Next() {
		d, err := scanDoctor(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		doctors = append(doctors, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating doctors: %w", err)
	}
	return doctors, nil
}

func (r *Repository) GetHospital(ctx context.Context, id int64) (*Hospital, error) {
	query := `
		SELECT id, name, revenue, appointments, availability
		FROM hospitals
		WHERE id = $1
	`
	var h Hospital
	err := r.db.QueryRowContext(ctx, query, id).Scan(&h.ID, &h.Name, &h.Revenue, &h.Appointments, &h.Availability)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrHospitalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hospital: %w", err)
	}
	return &h, nil
}

func (r *Repository) ListHospitals(ctx context.Context, limit, offset int) ([]Hospital, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM hospitals`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count hospitals: %w", err)
	}

	query := `
		SELECT id, name, revenue, appointments, availability
		FROM hospitals
		ORDER BY name
		LIMIT $1 OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query hospitals: %w", err)
	}
	defer rows.Close()

	hospitals := []Hospital{}
	for rows.Next() {
		var h Hospital
		if err := rows.Scan(&h.ID, &h.Name, &h.Revenue, &h.Appointments, &h.Availability); err != nil {
			return nil, 0, fmt.Errorf("failed to scan hospital: %w", err)
		}
		hospitals = append(hospitals, h)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating hospitals: %w", err)
	}
	return hospitals, total, nil
}

func (r *Repository) GetOwnerByUsername(ctx context.Context, username string) (*HospitalOwner, error) {
	var o HospitalOwner
	err := r.db.QueryRowContext(ctx,
		`SELECT hospital_id, username, password FROM hospital_owners WHERE username = $1`, username,
	).Scan(&o.HospitalID, &o.Username, &o.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hospital owner: %w", err)
	}
	return &o, nil
}

func (r *Repository) GetOwnerByHospitalID(ctx context.Context, hospitalID int64) (*HospitalOwner, error) {
	var o HospitalOwner
	err := r.db.QueryRowContext(ctx,
		`SELECT hospital_id, username, password FROM hospital_owners WHERE hospital_id = $1`, hospitalID,
	).Scan(&o.HospitalID, &o.Username, &o.Password)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOwnerNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get hospital owner: %w", err)
	}
	return &o, nil
}

func (r *Repository) GetAccountByUsername(ctx context.Context, username string) (*Account, error) {
	var a Account
	err := r.db.QueryRowContext(ctx,
		`SELECT id, username FROM accounts WHERE username = $1`, username,
	).Scan(&a.ID, &a.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &a, nil
}
