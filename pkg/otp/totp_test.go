package otp

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xlzd/gotp"
)

func TestTOTPGenerateSecret(t *testing.T) {
	totp := NewTOTP()

	secret := totp.GenerateSecret()
	require.Len(t, secret, totpSecretLength)
	require.NotEqual(t, secret, totp.GenerateSecret())
}

func TestTOTPVerifyCurrentCode(t *testing.T) {
	totp := NewTOTP()
	secret := totp.GenerateSecret()

	code := gotp.NewDefaultTOTP(secret).Now()
	require.True(t, totp.Verify(secret, code, 2))
}

func TestTOTPVerifyWithinDrift(t *testing.T) {
	totp := NewTOTP()
	secret := totp.GenerateSecret()

	previous := gotp.NewDefaultTOTP(secret).At(time.Now().Unix() - 30)
	require.True(t, totp.Verify(secret, previous, 2))
}

func TestTOTPVerifyRejectsWrongCode(t *testing.T) {
	totp := NewTOTP()
	secret := totp.GenerateSecret()

	code := gotp.NewDefaultTOTP(secret).Now()
	wrong := "000000"
	if wrong == code {
		wrong = "111111"
	}

	require.False(t, totp.Verify(secret, wrong, 2))
}

func TestTOTPProvisioningURI(t *testing.T) {
	totp := NewTOTP()
	secret := totp.GenerateSecret()

	uri := totp.ProvisioningURI(secret, "user@example.com", "Joblo AI")
	require.True(t, strings.HasPrefix(uri, "otpauth://totp/"))
	require.Contains(t, uri, secret)
}
