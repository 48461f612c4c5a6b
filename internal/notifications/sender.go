package notifications

import (
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	log "github.com/sirupsen/logrus"

	"skillforge/internal/metrics"
)

const (
	fromName    = "SkillForge"
	fromAddress = "no-reply@skillforge.dev"
)

// Sender wraps the SendGrid client. A nil Sender is safe to call and
// drops every mail, which is how the server runs without an API key.
type Sender struct {
	client *sendgrid.Client
}

func NewSender(client *sendgrid.Client) *Sender {
	return &Sender{
		client: client,
	}
}

func (s *Sender) SendWelcomeEmail(destinationEmail, username string) error {
	subject := "Welcome to SkillForge!"
	plain := fmt.Sprintf("Hi %s, your SkillForge account is ready. Browse the catalog and enroll in your first course.", username)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your SkillForge account is ready. Browse the catalog and enroll in your first course.</p>", username)
	return s.send(destinationEmail, username, subject, plain, html)
}

func (s *Sender) SendEnrollmentEmail(destinationEmail, username, courseTitle string) error {
	subject := fmt.Sprintf("You are enrolled in %s", courseTitle)
	plain := fmt.Sprintf("Hi %s, your enrollment in %q is confirmed. Good luck!", username, courseTitle)
	html := fmt.Sprintf("<p>Hi %s,</p><p>Your enrollment in <strong>%s</strong> is confirmed. Good luck!</p>", username, courseTitle)
	return s.send(destinationEmail, username, subject, plain, html)
}

func (s *Sender) SendCertificateEmail(destinationEmail, username, courseTitle, certificateID string) error {
	subject := fmt.Sprintf("Your certificate for %s", courseTitle)
	plain := fmt.Sprintf("Congratulations %s! You completed %q. Your certificate id is %s.", username, courseTitle, certificateID)
	html := fmt.Sprintf("<p>Congratulations %s!</p><p>You completed <strong>%s</strong>. Your certificate id is %s.</p>",
		username, courseTitle, certificateID)
	return s.send(destinationEmail, username, subject, plain, html)
}

func (s *Sender) send(destinationEmail, destinationName, subject, plain, html string) error {
	if s == nil || s.client == nil {
		log.Printf("email sending disabled, dropping %q to %s", subject, destinationEmail)
		return nil
	}

	from := mail.NewEmail(fromName, fromAddress)
	to := mail.NewEmail(destinationName, destinationEmail)
	message := mail.NewSingleEmail(from, subject, to, plain, html)

	response, err := s.client.Send(message)
	if err != nil {
		metrics.RecordEmailFailed()
		return err
	}

	if response.StatusCode != 202 {
		metrics.RecordEmailFailed()
		log.Errorf("failure sending email with sendgrid: %v", response.Body)
		return nil
	}

	metrics.RecordEmailSent()
	return nil
}
