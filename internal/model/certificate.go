package model

import "time"

const (
	CertificateIssued  = "issued"
	CertificateRevoked = "revoked"
	CertificateExpired = "expired"
)

type Certificate struct {
	ID               int        `json:"id"`
	CertificateID    string     `json:"certificate_id"`
	UserID           int        `json:"user_id"`
	CourseID         int        `json:"course_id"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	Status           string     `json:"status"`
	IssuedAt         time.Time  `json:"issued_at"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	VerificationCode string     `json:"verification_code"`
	IssuerName       string     `json:"issuer_name"`
	RevocationReason *string    `json:"revocation_reason,omitempty"`

	UserName    string `json:"user_name,omitempty"`
	CourseTitle string `json:"course_title,omitempty"`
}

// IsValid reports whether the certificate verifies cleanly at the given
// time: issued, not revoked, and not past its expiry.
func (c Certificate) IsValid(now time.Time) bool {
	if c.Status != CertificateIssued {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}

const (
	VerifyByCode = "code"
	VerifyByID   = "certificate_id"
)

// VerificationRecord is an audit entry written for every verification
// lookup, successful or not.
type VerificationRecord struct {
	ID            int       `json:"id"`
	CertificateID int       `json:"certificate_id"`
	Method        string    `json:"method"`
	WasValid      bool      `json:"was_valid"`
	VerifierName  *string   `json:"verifier_name,omitempty"`
	VerifierEmail *string   `json:"verifier_email,omitempty"`
	IPAddress     *string   `json:"ip_address,omitempty"`
	UserAgent     *string   `json:"user_agent,omitempty"`
	VerifiedAt    time.Time `json:"verified_at"`
}
