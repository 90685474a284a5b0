package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joblo-ai/backend/internal/domain"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const codeVerificationColumns = `
	id, user_id, email, phone, country_code, purpose, status,
	otp_code, max_retry_attempt, used_retry_attempt, otp_expires_at,
	verification_link_token, resend_duration, verification_performed_at,
	is_active, created_at, updated_at, deleted_at`

type codeVerificationRepository struct {
	db *sqlx.DB
}

func newCodeVerificationRepository(db *sqlx.DB) *codeVerificationRepository {
	return &codeVerificationRepository{
		db: db,
	}
}

func (r *codeVerificationRepository) Create(ctx context.Context, record *domain.CodeVerification) error {
	const op = "repository.codeVerification.Create"

	const query = `
	INSERT INTO code_verification (id, user_id, email, phone, country_code, purpose, status,
		otp_code, max_retry_attempt, used_retry_attempt, otp_expires_at,
		verification_link_token, resend_duration)
	VALUES (uuid_to_bin(:id), uuid_to_bin(:user_id), :email, :phone, :country_code, :purpose, :status,
		:otp_code, :max_retry_attempt, :used_retry_attempt, :otp_expires_at,
		:verification_link_token, :resend_duration)
	`

	res, err := r.db.NamedExecContext(ctx, query, record)
	if err != nil {
		return fmt.Errorf("%s: insert code verification failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows != 1 {
		return fmt.Errorf("%s: expected 1 row affected, got %d", op, rows)
	}

	return nil
}

func (r *codeVerificationRepository) GetActiveByID(ctx context.Context, id uuid.UUID) (*domain.CodeVerification, error) {
	const op = "repository.codeVerification.GetActiveByID"

	query := `SELECT` + codeVerificationColumns + `
	FROM code_verification
	WHERE id = uuid_to_bin(?) AND is_active = TRUE`

	var record domain.CodeVerification
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select code verification failed: %w", op, err)
	}

	return &record, nil
}

// GetActiveForVerification returns the record only if a code submission is
// still possible for it: Pending or Failed, active, and OTP-based. Link-token
// records are verified through a different path and never match here.
func (r *codeVerificationRepository) GetActiveForVerification(ctx context.Context, id uuid.UUID) (*domain.CodeVerification, error) {
	const op = "repository.codeVerification.GetActiveForVerification"

	query := `SELECT` + codeVerificationColumns + `
	FROM code_verification
	WHERE id = uuid_to_bin(?)
		AND status IN (?, ?)
		AND is_active = TRUE
		AND verification_link_token IS NULL`

	var record domain.CodeVerification
	err := r.db.GetContext(ctx, &record, query, id,
		domain.CodeVerificationPending, domain.CodeVerificationFailed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select code verification failed: %w", op, err)
	}

	return &record, nil
}

func (r *codeVerificationRepository) GetPassedActive(ctx context.Context, id uuid.UUID, purpose domain.CodeVerificationPurpose) (*domain.CodeVerification, error) {
	const op = "repository.codeVerification.GetPassedActive"

	query := `SELECT` + codeVerificationColumns + `
	FROM code_verification
	WHERE id = uuid_to_bin(?) AND status = ? AND purpose = ? AND is_active = TRUE
	ORDER BY created_at DESC
	LIMIT 1`

	var record domain.CodeVerification
	err := r.db.GetContext(ctx, &record, query, id, domain.CodeVerificationPassed, purpose)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select code verification failed: %w", op, err)
	}

	return &record, nil
}

// ListRecentAttempts returns all records for the fingerprint created after
// since, newest first. Used by the resend policy; any status counts as an
// attempt.
func (r *codeVerificationRepository) ListRecentAttempts(ctx context.Context, fp domain.CodeVerificationFingerprint, since time.Time) ([]domain.CodeVerification, error) {
	const op = "repository.codeVerification.ListRecentAttempts"

	conditions := []string{"purpose = ?", "created_at > ?"}
	args := []interface{}{fp.Purpose, since}

	if fp.Email != "" {
		conditions = append(conditions, "email = ?")
		args = append(args, fp.Email)
	}
	if fp.Phone != "" {
		conditions = append(conditions, "phone = ?", "country_code = ?")
		args = append(args, fp.Phone, fp.CountryCode)
	}

	query := `SELECT` + codeVerificationColumns + `
	FROM code_verification
	WHERE ` + strings.Join(conditions, " AND ") + `
	ORDER BY created_at DESC`

	var records []domain.CodeVerification
	if err := r.db.SelectContext(ctx, &records, query, args...); err != nil {
		return nil, fmt.Errorf("%s: select attempts failed: %w", op, err)
	}

	return records, nil
}

// Deactivate is idempotent: deactivating an already-inactive record is a
// no-op, not an error.
func (r *codeVerificationRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	const op = "repository.codeVerification.Deactivate"

	const query = `UPDATE code_verification SET is_active = FALSE WHERE id = uuid_to_bin(?)`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: deactivate failed: %w", op, err)
	}

	return nil
}

// DeactivateOlderActive supersedes every other active record in the same
// fingerprint lane, so the most recent code is the only usable one.
func (r *codeVerificationRepository) DeactivateOlderActive(ctx context.Context, fp domain.CodeVerificationFingerprint, exceptID uuid.UUID) error {
	const op = "repository.codeVerification.DeactivateOlderActive"

	conditions := []string{"purpose = ?", "is_active = TRUE", "id != uuid_to_bin(?)"}
	args := []interface{}{fp.Purpose, exceptID}

	if fp.Email != "" {
		conditions = append(conditions, "email = ?")
		args = append(args, fp.Email)
	}
	if fp.Phone != "" {
		conditions = append(conditions, "phone = ?", "country_code = ?")
		args = append(args, fp.Phone, fp.CountryCode)
	}

	query := `UPDATE code_verification SET is_active = FALSE WHERE ` + strings.Join(conditions, " AND ")

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%s: deactivate older failed: %w", op, err)
	}

	return nil
}

func (r *codeVerificationRepository) UpdateResult(ctx context.Context, record *domain.CodeVerification) error {
	const op = "repository.codeVerification.UpdateResult"

	const query = `
	UPDATE code_verification
	SET status = ?, used_retry_attempt = ?, verification_performed_at = ?, is_active = ?
	WHERE id = uuid_to_bin(?)
	`

	_, err := r.db.ExecContext(ctx, query,
		record.Status, record.UsedRetryAttempt, record.VerificationPerformedAt,
		record.IsActive, record.ID)
	if err != nil {
		return fmt.Errorf("%s: update result failed: %w", op, err)
	}

	return nil
}

func (r *codeVerificationRepository) UpdateOTP(ctx context.Context, id uuid.UUID, code string, expiresAt time.Time) error {
	const op = "repository.codeVerification.UpdateOTP"

	const query = `
	UPDATE code_verification SET otp_code = ?, otp_expires_at = ? WHERE id = uuid_to_bin(?)
	`

	if _, err := r.db.ExecContext(ctx, query, code, expiresAt, id); err != nil {
		return fmt.Errorf("%s: update otp failed: %w", op, err)
	}

	return nil
}
