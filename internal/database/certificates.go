package database

import (
	"database/sql"
	"fmt"
	"skillforge/internal/model"
)

const certificateColumns = `c.id, c.certificate_id, c.user_id, c.course_id, c.title, c.description, c.status,
	c.issued_at, c.expires_at, c.verification_code, c.issuer_name, c.revocation_reason, u.username, co.title`

const certificateJoins = ` FROM certificates c
	JOIN users u ON u.id = c.user_id
	JOIN courses co ON co.id = c.course_id`

func scanCertificate(row interface{ Scan(...any) error }) (model.Certificate, error) {
	var cert model.Certificate
	err := row.Scan(
		&cert.ID, &cert.CertificateID, &cert.UserID, &cert.CourseID, &cert.Title, &cert.Description,
		&cert.Status, &cert.IssuedAt, &cert.ExpiresAt, &cert.VerificationCode, &cert.IssuerName,
		&cert.RevocationReason, &cert.UserName, &cert.CourseTitle,
	)
	return cert, err
}

func (c *client) CreateCertificate(cert model.Certificate) (model.Certificate, error) {
	created, err := scanCertificate(c.db.QueryRow(`WITH inserted AS (
			INSERT INTO certificates (certificate_id, user_id, course_id, title, description, status,
				expires_at, verification_code, issuer_name)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			RETURNING *
		)
		SELECT `+certificateColumns+` FROM inserted c
		JOIN users u ON u.id = c.user_id
		JOIN courses co ON co.id = c.course_id`,
		cert.CertificateID, cert.UserID, cert.CourseID, cert.Title, cert.Description, cert.Status,
		cert.ExpiresAt, cert.VerificationCode, cert.IssuerName,
	))
	if err != nil {
		if isUniqueViolation(err) {
			return model.Certificate{}, fmt.Errorf("certificate already exists: %w", ErrDuplicate)
		}
		return model.Certificate{}, fmt.Errorf("inserting certificate: %w", err)
	}

	return created, nil
}

func (c *client) GetCertificate(userID, courseID int) (model.Certificate, error) {
	cert, err := scanCertificate(c.db.QueryRow(`SELECT `+certificateColumns+certificateJoins+`
		WHERE c.user_id = $1 AND c.course_id = $2`, userID, courseID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Certificate{}, fmt.Errorf("no certificate for user %d and course %d: %w", userID, courseID, ErrNotFound)
		}
		return model.Certificate{}, fmt.Errorf("querying for certificate: %w", err)
	}

	return cert, nil
}

func (c *client) GetCertificateByCertificateID(certificateID string) (model.Certificate, error) {
	cert, err := scanCertificate(c.db.QueryRow(`SELECT `+certificateColumns+certificateJoins+`
		WHERE c.certificate_id = $1`, certificateID))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Certificate{}, fmt.Errorf("no certificate found with id %s: %w", certificateID, ErrNotFound)
		}
		return model.Certificate{}, fmt.Errorf("querying for certificate by certificate id: %w", err)
	}

	return cert, nil
}

func (c *client) GetCertificateByCode(code string) (model.Certificate, error) {
	cert, err := scanCertificate(c.db.QueryRow(`SELECT `+certificateColumns+certificateJoins+`
		WHERE c.verification_code = $1`, code))
	if err != nil {
		if err == sql.ErrNoRows {
			return model.Certificate{}, fmt.Errorf("no certificate found with code %s: %w", code, ErrNotFound)
		}
		return model.Certificate{}, fmt.Errorf("querying for certificate by code: %w", err)
	}

	return cert, nil
}

func (c *client) GetCertificatesByUser(userID int) ([]model.Certificate, error) {
	rows, err := c.db.Query(`SELECT `+certificateColumns+certificateJoins+`
		WHERE c.user_id = $1 ORDER BY c.issued_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying for user certificates: %w", err)
	}
	defer rows.Close()

	var certs []model.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows)
		if err != nil {
			return nil, err
		}
		certs = append(certs, cert)
	}

	return certs, rows.Err()
}

func (c *client) RevokeCertificate(certificateID, reason string) error {
	res, err := c.db.Exec(`UPDATE certificates SET status = $1, revocation_reason = $2 WHERE certificate_id = $3`,
		model.CertificateRevoked, reason, certificateID)
	if err != nil {
		return fmt.Errorf("revoking certificate: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("no certificate found with id %s: %w", certificateID, ErrNotFound)
	}

	return nil
}

// MarkCertificateExpired lazily moves a past-expiry certificate to the
// expired status.
func (c *client) MarkCertificateExpired(certificateID string) error {
	_, err := c.db.Exec(`UPDATE certificates SET status = $1
		WHERE certificate_id = $2 AND status = $3 AND expires_at IS NOT NULL AND expires_at < NOW()`,
		model.CertificateExpired, certificateID, model.CertificateIssued)
	if err != nil {
		return fmt.Errorf("marking certificate expired: %w", err)
	}

	return nil
}

func (c *client) AddVerificationRecord(rec model.VerificationRecord) (model.VerificationRecord, error) {
	query := `INSERT INTO verification_records (certificate_id, method, was_valid, verifier_name, verifier_email, ip_address, user_agent)
		VALUES ($1, $2, $3, COALESCE($4, ''), COALESCE($5, ''), COALESCE($6, ''), COALESCE($7, ''))
		RETURNING id, certificate_id, method, was_valid, NULLIF(verifier_name, ''), NULLIF(verifier_email, ''),
			NULLIF(ip_address, ''), NULLIF(user_agent, ''), verified_at`
	var saved model.VerificationRecord
	err := c.db.QueryRow(query,
		rec.CertificateID, rec.Method, rec.WasValid, rec.VerifierName, rec.VerifierEmail, rec.IPAddress, rec.UserAgent,
	).Scan(&saved.ID, &saved.CertificateID, &saved.Method, &saved.WasValid, &saved.VerifierName,
		&saved.VerifierEmail, &saved.IPAddress, &saved.UserAgent, &saved.VerifiedAt)
	if err != nil {
		return model.VerificationRecord{}, fmt.Errorf("inserting verification record: %w", err)
	}

	return saved, nil
}
