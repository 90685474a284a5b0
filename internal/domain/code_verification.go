package domain

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CodeVerificationPurpose string

const (
	PurposePreSignup               CodeVerificationPurpose = "PRE_SIGNUP"
	PurposeForgotPassword          CodeVerificationPurpose = "FORGOT_PASSWORD"
	PurposeUserPhoneUpdate         CodeVerificationPurpose = "USER_PHONE_UPDATE"
	PurposeUserEmailUpdate         CodeVerificationPurpose = "USER_EMAIL_UPDATE"
	PurposeSignin2FA               CodeVerificationPurpose = "SIGNIN_2FA"
	PurposeUpdate2FASettingToEmail CodeVerificationPurpose = "UPDATE_2FA_SETTING_TO_EMAIL"
	PurposeUpdate2FASettingToPhone CodeVerificationPurpose = "UPDATE_2FA_SETTING_TO_PHONE"
	PurposeForgot2FA               CodeVerificationPurpose = "FORGOT_2FA"
)

func (p CodeVerificationPurpose) Valid() bool {
	switch p {
	case PurposePreSignup, PurposeForgotPassword, PurposeUserPhoneUpdate,
		PurposeUserEmailUpdate, PurposeSignin2FA, PurposeUpdate2FASettingToEmail,
		PurposeUpdate2FASettingToPhone, PurposeForgot2FA:
		return true
	}
	return false
}

type CodeVerificationStatus string

const (
	CodeVerificationPending CodeVerificationStatus = "Pending"
	CodeVerificationPassed  CodeVerificationStatus = "Passed"
	CodeVerificationFailed  CodeVerificationStatus = "Failed"
)

// CodeVerification is a one-time-code or link-token record tied to a purpose
// and a single contact (email XOR phone+countryCode). OTP fields and the link
// token are secret material and are never serialized to callers.
type CodeVerification struct {
	ID          uuid.UUID      `db:"id"`
	UserID      *uuid.UUID     `db:"user_id"`
	Email       sql.NullString `db:"email"`
	Phone       sql.NullString `db:"phone"`
	CountryCode sql.NullString `db:"country_code"`

	Purpose CodeVerificationPurpose `db:"purpose"`
	Status  CodeVerificationStatus  `db:"status"`

	OTPCode          sql.NullString `db:"otp_code"`
	MaxRetryAttempt  int            `db:"max_retry_attempt"`
	UsedRetryAttempt int            `db:"used_retry_attempt"`
	OTPExpiresAt     *time.Time     `db:"otp_expires_at"`

	VerificationLinkToken sql.NullString `db:"verification_link_token"`

	ResendDuration          int        `db:"resend_duration"`
	VerificationPerformedAt *time.Time `db:"verification_performed_at"`

	IsActive  bool       `db:"is_active"`
	CreatedAt time.Time  `db:"created_at"`
	UpdatedAt time.Time  `db:"updated_at"`
	DeletedAt *time.Time `db:"deleted_at"`
}

// ContactKey reconstructs the canonical delivery address: the email literal,
// or +<countryCode><phone>. A record with neither is corrupt.
func (c *CodeVerification) ContactKey() (string, error) {
	if c.Email.Valid && c.Email.String != "" {
		return c.Email.String, nil
	}
	if c.Phone.Valid && c.CountryCode.Valid && c.Phone.String != "" && c.CountryCode.String != "" {
		return fmt.Sprintf("+%s%s", c.CountryCode.String, c.Phone.String), nil
	}
	return "", fmt.Errorf("code verification %s has no resolvable contact", c.ID)
}

func (c *CodeVerification) IsOTPBased() bool {
	return !c.VerificationLinkToken.Valid || c.VerificationLinkToken.String == ""
}

func (c *CodeVerification) RetriesExhausted() bool {
	return c.UsedRetryAttempt >= c.MaxRetryAttempt
}

// CodeVerificationView is the caller-facing projection of a record, stripped
// of all secret material.
type CodeVerificationView struct {
	ID                      uuid.UUID               `json:"_id"`
	Status                  CodeVerificationStatus  `json:"status"`
	Purpose                 CodeVerificationPurpose `json:"purpose"`
	Email                   string                  `json:"email,omitempty"`
	Phone                   string                  `json:"phone,omitempty"`
	CountryCode             string                  `json:"countryCode,omitempty"`
	CreatedAt               time.Time               `json:"createdAt"`
	VerificationPerformedAt *time.Time              `json:"verificationPerformedAt,omitempty"`
	ResendDuration          int                     `json:"resendDuration"`
}

func (c *CodeVerification) View() CodeVerificationView {
	return CodeVerificationView{
		ID:                      c.ID,
		Status:                  c.Status,
		Purpose:                 c.Purpose,
		Email:                   c.Email.String,
		Phone:                   c.Phone.String,
		CountryCode:             c.CountryCode.String,
		CreatedAt:               c.CreatedAt,
		VerificationPerformedAt: c.VerificationPerformedAt,
		ResendDuration:          c.ResendDuration,
	}
}
