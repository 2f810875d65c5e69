package dashboard

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

const timeOfDay = "15:04:05"

// RepositoryInterface is the read model behind the owner dashboard.
type RepositoryInterface interface {
	CountBookings(ctx context.Context, hospitalID int64) (int64, error)
	ListDoctors(ctx context.Context, hospitalID int64, after time.Time, limit int) ([]DoctorRow, error)
	ListUpcoming(ctx context.Context, hospitalID int64, after time.Time, limit int) ([]BookingRow, error)
}

var _ RepositoryInterface = (*Repository)(nil)

type Repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// CountBookings counts every booking with a doctor who works at the hospital.
func (r *Repository) CountBookings(ctx context.Context, hospitalID int64) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM bookings b
		JOIN hospital_doctors hd ON hd.doctor_id = b.doctor_id
		WHERE hd.hospital_id = $1
	`
	var n int64
	if err := r.db.QueryRowContext(ctx, query, hospitalID).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count bookings: %w", err)
	}
	return n, nil
}

// ListDoctors returns the first limit doctors of the hospital, each with its
// earliest booking later than after's time of day.
func (r *Repository) ListDoctors(ctx context.Context, hospitalID int64, after time.Time, limit int) ([]DoctorRow, error) {
	query := `
		SELECT d.id, d.name, d.specification, d.available,
		       (SELECT MIN(b.booked_time)::text
		          FROM bookings b
		         WHERE b.doctor_id = d.id AND b.booked_time > $2::time)
		FROM doctors d
		JOIN hospital_doctors hd ON hd.doctor_id = d.id
		WHERE hd.hospital_id = $1
		ORDER BY d.id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, hospitalID, after.Format(timeOfDay), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query doctors: %w", err)
	}
	defer rows.Close()

	doctors := []DoctorRow{}
	for rows.Next() {
		var d DoctorRow
		var next sql.NullString
		if err := rows.Scan(&d.ID, &d.Name, &d.Specification, &d.Available, &next); err != nil {
			return nil, fmt.Errorf("failed to scan doctor: %w", err)
		}
		if next.Valid {
			t, err := parseTimeOfDay(next.String)
			if err != nil {
				return nil, err
			}
			d.NextSlot = &t
		}
		doctors = append(doctors, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating doctors: %w", err)
	}
	return doctors, nil
}

// ListUpcoming returns the next active bookings at the hospital after
// after's time of day, earliest first.
func (r *Repository) ListUpcoming(ctx context.Context, hospitalID int64, after time.Time, limit int) ([]BookingRow, error) {
	query := `
		SELECT p.name, d.name, b.booked_time::text
		FROM bookings b
		JOIN patients p ON p.id = b.patient_id
		JOIN doctors d ON d.id = b.doctor_id
		JOIN hospital_doctors hd ON hd.doctor_id = b.doctor_id
		WHERE hd.hospital_id = $1
		  AND b.availability = TRUE
		  AND b.booked_time > $2::time
		ORDER BY b.booked_time
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, hospitalID, after.Format(timeOfDay), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query upcoming bookings: %w", err)
	}
	defer rows.Close()

	bookings := []BookingRow{}
	for rows.Next() {
		var b BookingRow
		var raw string
		if err := rows.Scan(&b.PatientName, &b.DoctorName, &raw); err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		if b.Time, err = parseTimeOfDay(raw); err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bookings: %w", err)
	}
	return bookings, nil
}

// parseTimeOfDay reads PostgreSQL's text form of a TIME value.
func parseTimeOfDay(s string) (time.Time, error) {
	for _, layout := range []string{timeOfDay, "15:04:05.999999"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unexpected time of day %q", s)
}
