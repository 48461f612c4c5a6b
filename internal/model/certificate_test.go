package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCertificateIsValid(t *testing.T) {
	now := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)

	assert.True(t, Certificate{Status: CertificateIssued}.IsValid(now))
	assert.False(t, Certificate{Status: CertificateRevoked}.IsValid(now))

	past := now.AddDate(-1, 0, 0)
	future := now.AddDate(1, 0, 0)
	assert.False(t, Certificate{Status: CertificateIssued, ExpiresAt: &past}.IsValid(now))
	assert.True(t, Certificate{Status: CertificateIssued, ExpiresAt: &future}.IsValid(now))
}
