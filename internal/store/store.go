// Package store reads process records from the operations database.
package store

import (
	"context"
	"time"

	"procreport/internal/catalog"
)

// ClientRoleID is the users.role_id of client accounts.
const ClientRoleID = 2

// DefaultWindow is how far back a daily run looks.
const DefaultWindow = 24 * time.Hour

// Source lists processes started after a cutoff.
type Source interface {
	Processes(ctx context.Context, since time.Time) ([]catalog.Raw, error)
}

var (
	_ Source = (*SQLStore)(nil)
	_ Source = (*MemStore)(nil)
)
