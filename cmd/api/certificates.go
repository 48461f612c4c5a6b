package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"skillforge/internal/metrics"
	"skillforge/internal/model"
)

const issuerName = "SkillForge"

// verificationCode builds the short human-typable code printed on the
// certificate.
func verificationCode() string {
	raw := strings.ReplaceAll(uuid.New().String(), "-", "")
	return "SF-" + strings.ToUpper(raw[:12])
}

// issueCertificate creates a certificate for a completed enrollment,
// marks the enrollment and notifies the student.
func (s *Server) issueCertificate(userID int, course model.Course, enrollmentID int,
	expiresAt *time.Time, description string) (model.Certificate, error) {
	if description == "" {
		description = fmt.Sprintf("Awarded for completing the course %q.", course.Title)
	}

	cert, err := s.db.CreateCertificate(model.Certificate{
		CertificateID:    uuid.New().String(),
		UserID:           userID,
		CourseID:         course.ID,
		Title:            "Certificate of Completion: " + course.Title,
		Description:      description,
		Status:           model.CertificateIssued,
		ExpiresAt:        expiresAt,
		VerificationCode: verificationCode(),
		IssuerName:       issuerName,
	})
	if err != nil {
		return model.Certificate{}, err
	}

	if err := s.db.SetEnrollmentCertificateIssued(enrollmentID); err != nil {
		return model.Certificate{}, err
	}
	metrics.RecordCertificateIssued()

	if user, err := s.db.GetUserByID(userID); err == nil {
		if err := s.sender.SendCertificateEmail(user.Email, user.Username, course.Title, cert.CertificateID); err != nil {
			log.Errorf("sending certificate email: %v", err)
		}
	}

	return cert, nil
}

// expireIfDue lazily flips an issued certificate past its expiry date
// to expired.
func (s *Server) expireIfDue(cert *model.Certificate) {
	if cert.Status != model.CertificateIssued || cert.ExpiresAt == nil || time.Now().Before(*cert.ExpiresAt) {
		return
	}
	if err := s.db.MarkCertificateExpired(cert.CertificateID); err != nil {
		log.Errorf("expiring certificate %s: %v", cert.CertificateID, err)
		return
	}
	cert.Status = model.CertificateExpired
}

func (s *Server) myCertificates(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	certs, err := s.db.GetCertificatesByUser(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for i := range certs {
		s.expireIfDue(&certs[i])
	}

	s.respondJSON(w, http.StatusOK, certs)
}

func (s *Server) certificateDetail(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	cert, err := s.db.GetCertificateByCertificateID(muxVar(r, "certificateID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if cert.UserID != claims.UserID && !claims.IsAdmin() {
		s.writeError(w, errForbidden)
		return
	}
	s.expireIfDue(&cert)

	s.respondJSON(w, http.StatusOK, cert)
}

// verifyCertificate is the public verification endpoint. It accepts
// either the verification code or the certificate uuid and writes an
// audit record for every lookup that reaches a certificate.
func (s *Server) verifyCertificate(w http.ResponseWriter, r *http.Request) {
	code := muxVar(r, "code")

	method := model.VerifyByCode
	cert, err := s.db.GetCertificateByCode(code)
	if err != nil {
		method = model.VerifyByID
		cert, err = s.db.GetCertificateByCertificateID(code)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.expireIfDue(&cert)

	valid := cert.IsValid(time.Now())

	query := r.URL.Query()
	rec := model.VerificationRecord{
		CertificateID: cert.ID,
		Method:        method,
		WasValid:      valid,
	}
	if name := query.Get("verifier_name"); name != "" {
		rec.VerifierName = &name
	}
	if email := query.Get("verifier_email"); email != "" {
		rec.VerifierEmail = &email
	}
	if ip := clientIP(r); ip != "" {
		rec.IPAddress = &ip
	}
	if ua := r.UserAgent(); ua != "" {
		rec.UserAgent = &ua
	}
	if _, err := s.db.AddVerificationRecord(rec); err != nil {
		log.Errorf("recording verification of certificate %s: %v", cert.CertificateID, err)
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"valid":             valid,
		"status":            cert.Status,
		"certificate_id":    cert.CertificateID,
		"title":             cert.Title,
		"user_name":         cert.UserName,
		"course_title":      cert.CourseTitle,
		"issued_at":         cert.IssuedAt,
		"expires_at":        cert.ExpiresAt,
		"issuer_name":       cert.IssuerName,
		"revocation_reason": cert.RevocationReason,
	})
}

func (s *Server) revokeCertificate(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	cert, err := s.db.GetCertificateByCertificateID(muxVar(r, "certificateID"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	course, err := s.db.GetCourseByID(cert.CourseID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if course.InstructorID != claims.UserID && !claims.IsAdmin() {
		s.writeError(w, errForbidden)
		return
	}

	var request RevokeCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if request.Reason == "" {
		http.Error(w, "a revocation reason is required", http.StatusBadRequest)
		return
	}

	if err := s.db.RevokeCertificate(cert.CertificateID, request.Reason); err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, map[string]string{"status": model.CertificateRevoked})
}

func (s *Server) issueCertificateManually(w http.ResponseWriter, r *http.Request) {
	id, err := urlIntVar(r, "id")
	if err != nil {
		s.writeError(w, err)
		return
	}

	course, err := s.ownedCourse(r, id)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var request IssueCertificateRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	enrollment, err := s.db.GetEnrollment(request.StudentID, course.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if enrollment.Status != model.EnrollmentCompleted {
		http.Error(w, "the student has not completed this course", http.StatusBadRequest)
		return
	}
	if _, err := s.db.GetCertificate(request.StudentID, course.ID); err == nil {
		http.Error(w, "a certificate already exists for this enrollment", http.StatusConflict)
		return
	}

	cert, err := s.issueCertificate(request.StudentID, course, enrollment.ID, request.ExpiresAt, request.Description)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusCreated, cert)
}
