package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"ticket-engine/internal/database"
	"ticket-engine/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	assert.NoError(t, err)
	t.Cleanup(func() { sqldb.Close() })

	bunDB := bun.NewDB(sqldb, sqlitedialect.New())
	assert.NoError(t, database.Bootstrap(context.Background(), bunDB))

	return &DB{Bun: bunDB}
}

func ticket(id, code, bookingID string, seat int) models.Ticket {
	return models.Ticket{
		ID:         id,
		Code:       code,
		SeatNumber: seat,
		BookingID:  bookingID,
		IssuedAt:   time.Now().UTC(),
	}
}

func TestCreateAndListTickets(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	// Insert out of order; listing must come back seat-ordered.
	assert.NoError(t, db.CreateTicket(ctx, ticket("tk-2", "T-A-2", "bk-1", 2)))
	assert.NoError(t, db.CreateTicket(ctx, ticket("tk-1", "T-A-1", "bk-1", 1)))
	assert.NoError(t, db.CreateTicket(ctx, ticket("tk-3", "T-A-3", "bk-1", 3)))
	assert.NoError(t, db.CreateTicket(ctx, ticket("tk-9", "T-B-1", "bk-2", 1)))

	tickets, err := db.TicketsByBooking(ctx, "bk-1")
	assert.NoError(t, err)
	assert.Len(t, tickets, 3)
	for i, tk := range tickets {
		assert.Equal(t, i+1, tk.SeatNumber)
	}
}

func TestCreateTicketDuplicateSeat(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	assert.NoError(t, db.CreateTicket(ctx, ticket("tk-1", "T-A-1", "bk-1", 1)))

	err := db.CreateTicket(ctx, ticket("tk-2", "T-A-2", "bk-1", 1))
	assert.ErrorIs(t, err, models.ErrDuplicateTicket)
}

func TestCreateTicketDuplicateCode(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	assert.NoError(t, db.CreateTicket(ctx, ticket("tk-1", "T-A-1", "bk-1", 1)))

	err := db.CreateTicket(ctx, ticket("tk-2", "T-A-1", "bk-2", 1))
	assert.ErrorIs(t, err, models.ErrDuplicateTicket)
}

func TestCodeExists(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	assert.NoError(t, db.CreateTicket(ctx, ticket("tk-1", "T-A-1", "bk-1", 1)))

	exists, err := db.CodeExists(ctx, "T-A-1")
	assert.NoError(t, err)
	assert.True(t, exists)

	exists, err = db.CodeExists(ctx, "T-NOPE-1")
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestGetTicketByCode(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()

	assert.NoError(t, db.CreateTicket(ctx, ticket("tk-1", "T-A-1", "bk-1", 1)))

	found, err := db.GetTicketByCode(ctx, "T-A-1")
	assert.NoError(t, err)
	assert.Equal(t, "tk-1", found.ID)

	_, err = db.GetTicketByCode(ctx, "T-NOPE-1")
	assert.Error(t, err)
}
