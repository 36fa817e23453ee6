package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"github.com/uptrace/bun"

	"ticket-engine/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// CreateTicket inserts a new ticket row. A uniqueness violation on
// (booking_id, seat_number) or code is reported as models.ErrDuplicateTicket
// so the issuance path can treat it as "seat already created".
func (d *DB) CreateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.Bun.NewInsert().Model(&ticket).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: booking %s seat %d", models.ErrDuplicateTicket, ticket.BookingID, ticket.SeatNumber)
		}
		return err
	}
	return nil
}

// TicketsByBooking returns the booking's tickets in ascending seat order.
func (d *DB) TicketsByBooking(ctx context.Context, bookingID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.Bun.NewSelect().
		Model(&tickets).
		Where("booking_id = ?", bookingID).
		Order("seat_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// GetTicketByCode looks a ticket up by its printed code.
func (d *DB) GetTicketByCode(ctx context.Context, code string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.Bun.NewSelect().
		Model(&ticket).
		Where("code = ?", code).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

// CodeExists is the uniqueness check used by the code generator.
func (d *DB) CodeExists(ctx context.Context, code string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Ticket)(nil)).
		Where("code = ?", code).
		Exists(ctx)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// sqlite (sqliteshim) reports constraint failures as plain errors
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
