package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Ticket is one seat on a confirmed booking. Rows are created once and never
// updated or deleted by this service.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           string    `bun:"id,pk" json:"id"`
	Code         string    `bun:"code,notnull,unique" json:"code"`
	SeatNumber   int       `bun:"seat_number,notnull" json:"seat_number"`
	BookingID    string    `bun:"booking_id,notnull" json:"booking_id"`
	ExperienceID string    `bun:"experience_id" json:"experience_id"`
	SessionID    string    `bun:"session_id" json:"session_id"`
	ExplorerID   string    `bun:"explorer_id" json:"explorer_id"`
	IssuedAt     time.Time `bun:"issued_at" json:"issued_at"`
}
