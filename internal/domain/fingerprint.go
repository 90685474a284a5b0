package domain

// CodeVerificationFingerprint identifies the (contact, purpose) lane a
// verification record belongs to. Resend limits and supersession are scoped
// per fingerprint; whether a user row is bound to the record plays no part,
// so attempts made before the account existed keep counting.
type CodeVerificationFingerprint struct {
	Email       string
	Phone       string
	CountryCode string
	Purpose     CodeVerificationPurpose
}
