package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"ticket-engine/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// BookingGraph loads a booking with its experience, session, explorer and
// already-issued tickets. Tickets come back in ascending seat order.
func (d *DB) BookingGraph(ctx context.Context, bookingID string) (*models.Booking, error) {
	var booking models.Booking
	err := d.Bun.NewSelect().
		Model(&booking).
		Relation("Experience").
		Relation("Session").
		Relation("Explorer").
		Relation("Tickets", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Order("seat_number ASC")
		}).
		Where("booking.id = ?", bookingID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", models.ErrBookingNotFound, bookingID)
		}
		return nil, err
	}
	return &booking, nil
}
