package otp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore keeps codes in the otp_codes table. A consumed code is
// marked used and left for the cleanup job.
type PostgresStore struct {
	db  *sql.DB
	ttl time.Duration
}

func NewPostgresStore(db *sql.DB, ttl time.Duration) *PostgresStore {
	return &PostgresStore{db: db, ttl: ttl}
}

func (s *PostgresStore) Put(ctx context.Context, phone, code string, issuedAt time.Time) error {
	query := `
		INSERT INTO otp_codes (phone, code, created_at, is_used, failed_attempts)
		VALUES ($1, $2, $3, FALSE, 0)
		ON CONFLICT (phone) DO UPDATE
		SET code = EXCLUDED.code, created_at = EXCLUDED.created_at, is_used = FALSE, failed_attempts = 0
	`
	if _, err := s.db.ExecContext(ctx, query, phone, code, issuedAt.UTC()); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

// TakeIfValid checks the code in one statement. A match consumes it; a miss
// is counted and the last allowed miss marks the code used.
func (s *PostgresStore) TakeIfValid(ctx context.Context, phone, code string, now time.Time) (bool, error) {
	query := `
		UPDATE otp_codes
		SET is_used = (code = $2 OR failed_attempts + 1 >= $4),
		    failed_attempts = CASE WHEN code = $2 THEN failed_attempts ELSE failed_attempts + 1 END
		WHERE phone = $1 AND is_used = FALSE AND created_at > $3
		RETURNING code = $2
	`
	var matched bool
	err := s.db.QueryRowContext(ctx, query, phone, code, now.Add(-s.ttl).UTC(), MaxFailedAttempts).Scan(&matched)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to take code: %w", err)
	}
	return matched, nil
}

// PurgeExpired removes used codes and codes past their TTL.
func (s *PostgresStore) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM otp_codes WHERE is_used = TRUE OR created_at <= $1`,
		now.Add(-s.ttl).UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to purge codes: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}
