package main

import (
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"

	"skillforge/internal/metrics"
	"skillforge/internal/model"
)

// confirmPayment re-reads the payment intent from Stripe and, once it
// succeeded, activates the pending enrollment it paid for.
func (s *Server) confirmPayment(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	payment, err := s.db.GetPayment(muxVar(r, "paymentIntentID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if payment.UserID != claims.UserID && !claims.IsAdmin() {
		s.writeError(w, errForbidden)
		return
	}

	pi, err := paymentintent.Get(payment.StripePaymentIntentID, nil)
	if err != nil {
		log.Errorf("fetching payment intent %s: %v", payment.StripePaymentIntentID, err)
		http.Error(w, "payment provider unavailable", http.StatusBadGateway)
		return
	}

	payment.Status = string(pi.Status)
	payment, err = s.db.UpdatePaymentStatus(payment)
	if err != nil {
		s.writeError(w, err)
		return
	}

	enrollmentStatus := model.EnrollmentPending
	if pi.Status == stripe.PaymentIntentStatusSucceeded {
		enrollment, err := s.db.GetEnrollment(payment.UserID, payment.CourseID)
		if err != nil {
			s.writeError(w, err)
			return
		}
		if enrollment.Status == model.EnrollmentPending {
			if err := s.db.UpdateEnrollmentStatus(enrollment.ID, model.EnrollmentActive); err != nil {
				s.writeError(w, err)
				return
			}
			metrics.RecordEnrollment()

			user, userErr := s.db.GetUserByID(payment.UserID)
			course, courseErr := s.db.GetCourseByID(payment.CourseID)
			if userErr == nil && courseErr == nil {
				if err := s.sender.SendEnrollmentEmail(user.Email, user.Username, course.Title); err != nil {
					log.Errorf("sending enrollment email: %v", err)
				}
			}
		}
		enrollmentStatus = model.EnrollmentActive
	}

	s.respondJSON(w, http.StatusOK, map[string]any{
		"payment":           payment,
		"enrollment_status": enrollmentStatus,
	})
}

func (s *Server) myPayments(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	payments, err := s.db.GetPaymentsByUser(claims.UserID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.respondJSON(w, http.StatusOK, payments)
}
