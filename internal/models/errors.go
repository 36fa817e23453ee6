package models

import "errors"

var (
	// ErrBookingNotFound is returned when the referenced booking does not exist.
	ErrBookingNotFound = errors.New("booking not found")

	// ErrDuplicateTicket is returned by the ticket store when an insert hits the
	// (booking_id, seat_number) or code uniqueness constraint. During issuance it
	// means another caller already created that seat.
	ErrDuplicateTicket = errors.New("ticket already exists")
)
