// Package metrics holds the platform's Prometheus instruments. All
// counters are registered through promauto and exposed on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillforge_http_requests_total",
		Help: "HTTP requests by route and status code",
	}, []string{"route", "code"})

	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillforge_registrations_total",
		Help: "Accounts created through the public register endpoint",
	})

	enrollmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillforge_enrollments_total",
		Help: "Course enrollments created",
	})

	quizSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "skillforge_quiz_submissions_total",
		Help: "Quiz submissions by outcome",
	}, []string{"outcome"})

	certificatesIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillforge_certificates_issued_total",
		Help: "Certificates issued",
	})

	pointsAwardedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillforge_points_awarded_total",
		Help: "Experience points awarded, positive transactions only",
	})

	emailsSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillforge_emails_sent_total",
		Help: "Emails accepted by the mail provider",
	})

	emailsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "skillforge_emails_failed_total",
		Help: "Emails the mail provider rejected or errored on",
	})
)

func RecordHTTPRequest(route, code string) {
	httpRequestsTotal.WithLabelValues(route, code).Inc()
}

func RecordRegistration() {
	registrationsTotal.Inc()
}

func RecordEnrollment() {
	enrollmentsTotal.Inc()
}

func RecordQuizSubmission(outcome string) {
	quizSubmissionsTotal.WithLabelValues(outcome).Inc()
}

func RecordCertificateIssued() {
	certificatesIssuedTotal.Inc()
}

func RecordPointsAwarded(points int) {
	if points > 0 {
		pointsAwardedTotal.Add(float64(points))
	}
}

func RecordEmailSent() {
	emailsSentTotal.Inc()
}

func RecordEmailFailed() {
	emailsFailedTotal.Inc()
}
