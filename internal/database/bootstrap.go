package database

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	"ticket-engine/internal/models"
)

// Bootstrap creates the subsystem's tables and indexes if they are missing.
// Real schema evolution belongs to the migrations service; this only makes a
// fresh database (or the in-memory test database) usable.
func Bootstrap(ctx context.Context, db *bun.DB) error {
	tables := []interface{}{
		(*models.Experience)(nil),
		(*models.Session)(nil),
		(*models.Explorer)(nil),
		(*models.Booking)(nil),
		(*models.Ticket)(nil),
		(*models.TicketTemplate)(nil),
	}

	for _, table := range tables {
		if _, err := db.NewCreateTable().Model(table).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", table, err)
		}
	}

	// One seat per booking, enforced at the storage layer. Concurrent issuance
	// relies on this index: the loser of a race gets a conflict, not a duplicate.
	_, err := db.NewCreateIndex().
		Model((*models.Ticket)(nil)).
		Index("tickets_booking_seat_idx").
		Unique().
		Column("booking_id", "seat_number").
		IfNotExists().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to create booking/seat index: %w", err)
	}

	return nil
}
