package model

import (
	"time"

	"github.com/google/uuid"
)

// Doctor is read-only from the booking workflow's perspective.
type Doctor struct {
	ID              uuid.UUID `db:"id" json:"id"`
	Name            string    `db:"name" json:"name"`
	Specialty       string    `db:"specialty" json:"specialty"`
	Location        string    `db:"location" json:"location"`
	Rating          float64   `db:"rating" json:"rating"`
	ConsultationFee int64     `db:"consultation_fee" json:"consultation_fee"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

type DoctorFilters struct {
	Specialty string
	Location  string
	MinRating float64
}
