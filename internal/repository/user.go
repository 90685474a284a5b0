package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/joblo-ai/backend/internal/db"
	"github.com/joblo-ai/backend/internal/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const userColumns = `
	id, first_name, last_name, email, phone, country_code, role,
	password_hash, email_verified, phone_verified,
	token_version, refresh_token, refresh_token_expires_at, last_signin_at,
	is_blocked_by_admin, custom_block_message, is_deleted,
	twofa_activated, twofa_type, totp_secret,
	is_active, created_at, updated_at, deleted_at`

type userRepository struct {
	db *sqlx.DB
}

func newUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{
		db: db,
	}
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const op = "repository.user.Create"

	const query = `
	INSERT INTO user (id, first_name, last_name, email, phone, country_code, role,
		password_hash, email_verified, phone_verified, token_version)
	VALUES (uuid_to_bin(:id), :first_name, :last_name, :email, :phone, :country_code, :role,
		:password_hash, :email_verified, :phone_verified, :token_version)
	`

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == db.DuplicateEntry {
			return domain.ErrDuplicateEntry
		}
		return fmt.Errorf("%s: insert user failed: %w", op, err)
	}

	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	const op = "repository.user.GetByID"

	query := `SELECT` + userColumns + ` FROM user WHERE id = uuid_to_bin(?) AND is_active = TRUE`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select user failed: %w", op, err)
	}

	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	const op = "repository.user.GetByEmail"

	query := `SELECT` + userColumns + ` FROM user WHERE email = ? AND is_active = TRUE`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select user failed: %w", op, err)
	}

	return &user, nil
}

func (r *userRepository) GetByPhone(ctx context.Context, phone string, countryCode string) (*domain.User, error) {
	const op = "repository.user.GetByPhone"

	query := `SELECT` + userColumns + ` FROM user WHERE phone = ? AND country_code = ? AND is_active = TRUE`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, phone, countryCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("%s: select user failed: %w", op, err)
	}

	return &user, nil
}

func (r *userRepository) CountByEmailExcept(ctx context.Context, email string, exceptID uuid.UUID) (int, error) {
	const op = "repository.user.CountByEmailExcept"

	const query = `
	SELECT COUNT(*) FROM user
	WHERE email = ? AND is_active = TRUE AND id != uuid_to_bin(?)
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, email, exceptID); err != nil {
		return 0, fmt.Errorf("%s: count users failed: %w", op, err)
	}

	return count, nil
}

func (r *userRepository) CountByPhoneExcept(ctx context.Context, phone string, countryCode string, exceptID uuid.UUID) (int, error) {
	const op = "repository.user.CountByPhoneExcept"

	const query = `
	SELECT COUNT(*) FROM user
	WHERE phone = ? AND country_code = ? AND is_active = TRUE AND id != uuid_to_bin(?)
	`

	var count int
	if err := r.db.GetContext(ctx, &count, query, phone, countryCode, exceptID); err != nil {
		return 0, fmt.Errorf("%s: count users failed: %w", op, err)
	}

	return count, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	const op = "repository.user.UpdatePassword"

	const query = `UPDATE user SET password_hash = ? WHERE id = uuid_to_bin(?)`

	return r.execExpectOne(ctx, op, query, passwordHash, id)
}

func (r *userRepository) UpdateRefreshToken(ctx context.Context, id uuid.UUID, token sql.NullString, expiresAt *time.Time) error {
	const op = "repository.user.UpdateRefreshToken"

	const query = `
	UPDATE user SET refresh_token = ?, refresh_token_expires_at = ? WHERE id = uuid_to_bin(?)
	`

	if _, err := r.db.ExecContext(ctx, query, token, expiresAt, id); err != nil {
		return fmt.Errorf("%s: update refresh token failed: %w", op, err)
	}

	return nil
}

// BumpTokenVersion increments the user's token version and drops the stored
// refresh token in one statement, invalidating every outstanding token.
func (r *userRepository) BumpTokenVersion(ctx context.Context, id uuid.UUID) error {
	const op = "repository.user.BumpTokenVersion"

	const query = `
	UPDATE user
	SET token_version = token_version + 1, refresh_token = NULL, refresh_token_expires_at = NULL
	WHERE id = uuid_to_bin(?)
	`

	return r.execExpectOne(ctx, op, query, id)
}

func (r *userRepository) UpdateLastSigninAt(ctx context.Context, id uuid.UUID, at time.Time) error {
	const op = "repository.user.UpdateLastSigninAt"

	const query = `UPDATE user SET last_signin_at = ? WHERE id = uuid_to_bin(?)`

	if _, err := r.db.ExecContext(ctx, query, at, id); err != nil {
		return fmt.Errorf("%s: update last signin failed: %w", op, err)
	}

	return nil
}

func (r *userRepository) UpdateEmail(ctx context.Context, id uuid.UUID, email string, verified bool) error {
	const op = "repository.user.UpdateEmail"

	const query = `UPDATE user SET email = ?, email_verified = ? WHERE id = uuid_to_bin(?)`

	return r.execExpectOne(ctx, op, query, email, verified, id)
}

func (r *userRepository) UpdatePhone(ctx context.Context, id uuid.UUID, phone string, countryCode string, verified bool) error {
	const op = "repository.user.UpdatePhone"

	const query = `UPDATE user SET phone = ?, country_code = ?, phone_verified = ? WHERE id = uuid_to_bin(?)`

	return r.execExpectOne(ctx, op, query, phone, countryCode, verified, id)
}

func (r *userRepository) SetEmailVerifiedByID(ctx context.Context, id uuid.UUID) error {
	const op = "repository.user.SetEmailVerifiedByID"

	const query = `UPDATE user SET email_verified = TRUE WHERE id = uuid_to_bin(?)`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: update failed: %w", op, err)
	}

	return nil
}

func (r *userRepository) SetPhoneVerifiedByID(ctx context.Context, id uuid.UUID) error {
	const op = "repository.user.SetPhoneVerifiedByID"

	const query = `UPDATE user SET phone_verified = TRUE WHERE id = uuid_to_bin(?)`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("%s: update failed: %w", op, err)
	}

	return nil
}

func (r *userRepository) SetEmailVerifiedByEmail(ctx context.Context, email string) error {
	const op = "repository.user.SetEmailVerifiedByEmail"

	const query = `UPDATE user SET email_verified = TRUE WHERE email = ? AND is_active = TRUE`

	if _, err := r.db.ExecContext(ctx, query, email); err != nil {
		return fmt.Errorf("%s: update failed: %w", op, err)
	}

	return nil
}

func (r *userRepository) SetPhoneVerifiedByPhone(ctx context.Context, phone string, countryCode string) error {
	const op = "repository.user.SetPhoneVerifiedByPhone"

	const query = `UPDATE user SET phone_verified = TRUE WHERE phone = ? AND country_code = ? AND is_active = TRUE`

	if _, err := r.db.ExecContext(ctx, query, phone, countryCode); err != nil {
		return fmt.Errorf("%s: update failed: %w", op, err)
	}

	return nil
}

func (r *userRepository) UpdateTwoFactor(ctx context.Context, id uuid.UUID, activated bool, twoFactorType sql.NullString) error {
	const op = "repository.user.UpdateTwoFactor"

	const query = `UPDATE user SET twofa_activated = ?, twofa_type = ? WHERE id = uuid_to_bin(?)`

	return r.execExpectOne(ctx, op, query, activated, twoFactorType, id)
}

func (r *userRepository) SetTOTPSecret(ctx context.Context, id uuid.UUID, secret sql.NullString) error {
	const op = "repository.user.SetTOTPSecret"

	const query = `UPDATE user SET totp_secret = ? WHERE id = uuid_to_bin(?)`

	return r.execExpectOne(ctx, op, query, secret, id)
}

func (r *userRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	const op = "repository.user.SoftDelete"

	const query = `
	UPDATE user SET is_deleted = TRUE, is_active = FALSE, deleted_at = NOW(),
		refresh_token = NULL, refresh_token_expires_at = NULL
	WHERE id = uuid_to_bin(?)
	`

	return r.execExpectOne(ctx, op, query, id)
}

func (r *userRepository) execExpectOne(ctx context.Context, op string, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: exec failed: %w", op, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: get rows affected failed: %w", op, err)
	}

	if rows == 0 {
		return domain.ErrNoRowsAffected
	}

	return nil
}
