package database

import (
	"database/sql"
	"fmt"
	"skillforge/internal/model"

	"github.com/stripe/stripe-go/v74"
)

const paymentColumns = `id, stripe_payment_intent_id, stripe_pay_method_id, user_id, course_id, amount, currency, status, created_at, updated_at`

func scanPayment(row interface{ Scan(...any) error }) (*model.Payment, error) {
	var p model.Payment
	err := row.Scan(
		&p.ID, &p.StripePaymentIntentID, &p.StripePayMethodID, &p.UserID, &p.CourseID,
		&p.Amount, &p.Currency, &p.Status, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// AddPayment mirrors a Stripe PaymentIntent into the payments table.
func (c *client) AddPayment(pi *stripe.PaymentIntent, userID, courseID int) (*model.Payment, error) {
	var payMethodID string
	if pi.PaymentMethod != nil {
		payMethodID = pi.PaymentMethod.ID
	}

	payment, err := scanPayment(c.db.QueryRow(`INSERT INTO payments
			(stripe_payment_intent_id, stripe_pay_method_id, user_id, course_id, amount, currency, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+paymentColumns,
		pi.ID, payMethodID, userID, courseID, pi.Amount, string(pi.Currency), string(pi.Status),
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("payment intent %s already recorded: %w", pi.ID, ErrDuplicate)
		}
		return nil, fmt.Errorf("inserting payment: %w", err)
	}

	return payment, nil
}

func (c *client) GetPayment(paymentIntentID string) (*model.Payment, error) {
	payment, err := scanPayment(c.db.QueryRow(`SELECT `+paymentColumns+` FROM payments
		WHERE stripe_payment_intent_id = $1`, paymentIntentID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no payment found for intent %s: %w", paymentIntentID, ErrNotFound)
		}
		return nil, fmt.Errorf("querying for payment: %w", err)
	}

	return payment, nil
}

func (c *client) UpdatePaymentStatus(payment *model.Payment) (*model.Payment, error) {
	updated, err := scanPayment(c.db.QueryRow(`UPDATE payments SET status = $1, updated_at = NOW()
		WHERE stripe_payment_intent_id = $2 RETURNING `+paymentColumns,
		payment.Status, payment.StripePaymentIntentID,
	))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("no payment found for intent %s: %w", payment.StripePaymentIntentID, ErrNotFound)
		}
		return nil, fmt.Errorf("updating payment status: %w", err)
	}

	return updated, nil
}

func (c *client) GetPaymentsByUser(userID int) ([]model.Payment, error) {
	rows, err := c.db.Query(`SELECT `+paymentColumns+` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("querying for user payments: %w", err)
	}
	defer rows.Close()

	var payments []model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, *p)
	}

	return payments, rows.Err()
}
