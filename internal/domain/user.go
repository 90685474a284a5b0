package domain

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

type TwoFactorType string

const (
	TwoFactorAuthenticatorApp TwoFactorType = "AuthenticatorApp"
	TwoFactorPhone            TwoFactorType = "Phone"
	TwoFactorEmail            TwoFactorType = "Email"
)

func (t TwoFactorType) Valid() bool {
	switch t {
	case TwoFactorAuthenticatorApp, TwoFactorPhone, TwoFactorEmail:
		return true
	}
	return false
}

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

type User struct {
	ID          uuid.UUID      `db:"id" json:"id"`
	FirstName   sql.NullString `db:"first_name" json:"first_name"`
	LastName    sql.NullString `db:"last_name" json:"last_name"`
	Email       sql.NullString `db:"email" json:"email"`
	Phone       sql.NullString `db:"phone" json:"phone"`
	CountryCode sql.NullString `db:"country_code" json:"country_code"`
	Role        Role           `db:"role" json:"role"`

	PasswordHash  string `db:"password_hash" json:"-"`
	EmailVerified bool   `db:"email_verified" json:"email_verified"`
	PhoneVerified bool   `db:"phone_verified" json:"phone_verified"`

	// TokenVersion is embedded in every issued token; bumping it invalidates
	// all outstanding access and refresh tokens at once.
	TokenVersion int `db:"token_version" json:"-"`

	// Single-slot refresh token: issuing a new one overwrites the old,
	// which is what makes rotation effective against replay.
	RefreshToken          sql.NullString `db:"refresh_token" json:"-"`
	RefreshTokenExpiresAt *time.Time     `db:"refresh_token_expires_at" json:"-"`

	LastSigninAt *time.Time `db:"last_signin_at" json:"last_signin_at"`

	IsBlockedByAdmin   bool           `db:"is_blocked_by_admin" json:"-"`
	CustomBlockMessage sql.NullString `db:"custom_block_message" json:"-"`
	IsDeleted          bool           `db:"is_deleted" json:"-"`

	TwoFactorActivated bool           `db:"twofa_activated" json:"twofa_activated"`
	TwoFactorType      sql.NullString `db:"twofa_type" json:"twofa_type"`
	TOTPSecret         sql.NullString `db:"totp_secret" json:"-"`

	IsActive  bool       `db:"is_active" json:"-"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at" json:"-"`
}

// Contact returns the user's canonical contact key, preferring email.
func (u *User) Contact() string {
	if u.Email.Valid && u.Email.String != "" {
		return u.Email.String
	}
	if u.Phone.Valid && u.CountryCode.Valid {
		return "+" + u.CountryCode.String + u.Phone.String
	}
	return ""
}
