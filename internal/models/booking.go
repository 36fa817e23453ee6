package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Booking, Experience, Session and Explorer are the read side of the booking
// graph. Creation and mutation of these rows belongs to the marketplace
// services; this engine only loads them to issue and render tickets.

type Booking struct {
	bun.BaseModel `bun:"table:bookings"`

	ID           string    `bun:"id,pk" json:"id"`
	Guests       int       `bun:"guests,notnull" json:"guests"`
	ExperienceID string    `bun:"experience_id" json:"experience_id"`
	SessionID    string    `bun:"session_id" json:"session_id"`
	ExplorerID   string    `bun:"explorer_id" json:"explorer_id"`
	CreatedAt    time.Time `bun:"created_at" json:"created_at"`

	Experience *Experience `bun:"rel:belongs-to,join:experience_id=id" json:"experience,omitempty"`
	Session    *Session    `bun:"rel:belongs-to,join:session_id=id" json:"session,omitempty"`
	Explorer   *Explorer   `bun:"rel:belongs-to,join:explorer_id=id" json:"explorer,omitempty"`
	Tickets    []Ticket    `bun:"rel:has-many,join:id=booking_id" json:"tickets,omitempty"`
}

type Experience struct {
	bun.BaseModel `bun:"table:experiences"`

	ID             string  `bun:"id,pk" json:"id"`
	Title          string  `bun:"title" json:"title"`
	Slug           string  `bun:"slug" json:"slug"`
	MeetingAddress string  `bun:"meeting_address" json:"meeting_address"`
	Location       string  `bun:"location" json:"location"`
	Currency       string  `bun:"currency" json:"currency"`
	Price          float64 `bun:"price" json:"price"`
	HeroImage      string  `bun:"hero_image" json:"hero_image"`
	Duration       string  `bun:"duration" json:"duration"`
	OrganizerName  string  `bun:"organizer_name" json:"organizer_name"`
}

type Session struct {
	bun.BaseModel `bun:"table:sessions"`

	ID             string    `bun:"id,pk" json:"id"`
	ExperienceID   string    `bun:"experience_id" json:"experience_id"`
	StartAt        time.Time `bun:"start_at" json:"start_at"`
	Duration       string    `bun:"duration" json:"duration"`
	PriceOverride  *float64  `bun:"price_override" json:"price_override,omitempty"`
	MeetingAddress string    `bun:"meeting_address" json:"meeting_address"`
	LocationLabel  string    `bun:"location_label" json:"location_label"`
}

type Explorer struct {
	bun.BaseModel `bun:"table:explorers"`

	ID    string `bun:"id,pk" json:"id"`
	Name  string `bun:"name" json:"name"`
	Email string `bun:"email" json:"email"`
}
