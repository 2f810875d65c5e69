package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
	"github.com/tattva-health/portal-service/internal/db"
)

const defaultTestDSN = "host=localhost port=5432 user=tattva password=tattva dbname=tattva_test sslmode=disable"

// SetupTestDB connects to the test database named by TEST_DATABASE_URL and
// applies the schema.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = defaultTestDSN
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := conn.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}
	if err := db.Migrate(context.Background(), conn); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return conn
}

// CleanupTestDB empties every portal table.
func CleanupTestDB(t *testing.T, conn *sql.DB) {
	t.Helper()

	_, err := conn.Exec(`TRUNCATE TABLE bookings, hospital_owners, hospital_doctors, hospitals,
		doctors, patients, accounts, otp_codes RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Logf("Warning: Failed to clean up test database: %v", err)
	}
}

func SeedPatient(t *testing.T, conn *sql.DB, abhaID int64, name, phone string) int64 {
	t.Helper()
	var id int64
	err := conn.QueryRow(
		`INSERT INTO patients (abha_id, name, blood_grp, age, phone) VALUES ($1, $2, 'O+', 30, $3) RETURNING id`,
		abhaID, name, phone,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed patient: %v", err)
	}
	return id
}

func SeedDoctor(t *testing.T, conn *sql.DB, name string, pin int64, available bool) int64 {
	t.Helper()
	var id int64
	err := conn.QueryRow(
		`INSERT INTO doctors (name, specification, available, pin) VALUES ($1, 'General Medicine', $2, $3) RETURNING id`,
		name, available, pin,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed doctor: %v", err)
	}
	return id
}

func SeedAccount(t *testing.T, conn *sql.DB, username string) int64 {
	t.Helper()
	var id int64
	if err := conn.QueryRow(`INSERT INTO accounts (username) VALUES ($1) RETURNING id`, username).Scan(&id); err != nil {
		t.Fatalf("Failed to seed account: %v", err)
	}
	return id
}

// SeedHospital creates a hospital owned by username and links doctorIDs to it.
func SeedHospital(t *testing.T, conn *sql.DB, name, username, password string, revenue int64, doctorIDs ...int64) int64 {
	t.Helper()
	var id int64
	err := conn.QueryRow(
		`INSERT INTO hospitals (name, revenue, appointments, availability) VALUES ($1, $2, 0, 'Open') RETURNING id`,
		name, revenue,
	).Scan(&id)
	if err != nil {
		t.Fatalf("Failed to seed hospital: %v", err)
	}
	if username != "" {
		if _, err := conn.Exec(`INSERT INTO hospital_owners (hospital_id, username, password) VALUES ($1, $2, $3)`, id, username, password); err != nil {
			t.Fatalf("Failed to seed hospital owner: %v", err)
		}
	}
	for _, doctorID := range doctorIDs {
		if _, err := conn.Exec(`INSERT INTO hospital_doctors (hospital_id, doctor_id) VALUES ($1, $2)`, id, doctorID); err != nil {
			t.Fatalf("Failed to link doctor: %v", err)
		}
	}
	return id
}
