package otp

import (
	"time"

	"github.com/xlzd/gotp"
)

const totpSecretLength = 32

// TOTP wraps time-based one-time-password generation and verification for
// authenticator-app two-factor auth.
type TOTP interface {
	GenerateSecret() string
	ProvisioningURI(secret string, account string, issuer string) string
	Verify(secret string, code string, driftSteps int) bool
}

type totp struct{}

func NewTOTP() TOTP {
	return &totp{}
}

func (t *totp) GenerateSecret() string {
	return gotp.RandomSecret(totpSecretLength)
}

func (t *totp) ProvisioningURI(secret string, account string, issuer string) string {
	return gotp.NewDefaultTOTP(secret).ProvisioningUri(account, issuer)
}

// Verify accepts the current time step plus driftSteps steps on either side
// to tolerate clock skew between server and authenticator device.
func (t *totp) Verify(secret string, code string, driftSteps int) bool {
	otp := gotp.NewDefaultTOTP(secret)
	now := time.Now().Unix()

	for i := -driftSteps; i <= driftSteps; i++ {
		if otp.Verify(code, now+int64(i)*30) {
			return true
		}
	}

	return false
}
