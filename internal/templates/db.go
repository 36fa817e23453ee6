package templates

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ticket-engine/internal/models"
)

type DB struct {
	Bun *bun.DB
}

// ActiveTemplate returns the active ticket template, or nil when none is
// active. Having no active template is a normal branch, not an error; the
// coordinator then renders programmatically.
func (d *DB) ActiveTemplate(ctx context.Context) (*models.TicketTemplate, error) {
	var template models.TicketTemplate
	err := d.Bun.NewSelect().
		Model(&template).
		Where("is_active = ?", true).
		Order("updated_at DESC").
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &template, nil
}
