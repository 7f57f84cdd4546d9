package model

import (
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment stores only tokenized card data: the holder name, last four
// digits and an HMAC fingerprint. The raw number is never persisted.
type Payment struct {
	ID              uuid.UUID     `db:"id" json:"id"`
	AppointmentID   uuid.UUID     `db:"appointment_id" json:"appointment_id"`
	CardHolder      string        `db:"card_holder" json:"card_holder"`
	CardLast4       string        `db:"card_last4" json:"card_last4"`
	CardFingerprint string        `db:"card_fingerprint" json:"-"`
	Amount          int64         `db:"amount" json:"amount"`
	Status          PaymentStatus `db:"status" json:"status"`
	CreatedAt       time.Time     `db:"created_at" json:"created_at"`
}

type ProcessPaymentRequest struct {
	AppointmentID string `json:"appointment_id" binding:"required,uuid"`
	CardNumber    string `json:"card_number" binding:"required"`
	CardHolder    string `json:"card_holder" binding:"required,max=100"`
}
