package model

import "time"

type Payment struct {
	ID                    int       `json:"id"`
	StripePaymentIntentID string    `json:"stripe_payment_intent_id"`
	StripePayMethodID     string    `json:"stripe_pay_method_id,omitempty"`
	UserID                int       `json:"user_id"`
	CourseID              int       `json:"course_id"`
	Amount                int64     `json:"amount"`
	Currency              string    `json:"currency"`
	Status                string    `json:"status"`
	CreatedAt             time.Time `json:"created_at"`
	UpdatedAt             time.Time `json:"updated_at"`
}
