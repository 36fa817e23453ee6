package models

import (
	"time"

	"github.com/uptrace/bun"
)

// TicketTemplate is an operator-authored document definition. At most one row
// is active at a time; the template-management service enforces that.
type TicketTemplate struct {
	bun.BaseModel `bun:"table:ticket_templates"`

	ID        string    `bun:"id,pk" json:"id"`
	Name      string    `bun:"name" json:"name"`
	HTML      string    `bun:"html" json:"html"`
	IsActive  bool      `bun:"is_active" json:"is_active"`
	UpdatedAt time.Time `bun:"updated_at" json:"updated_at"`
}
