package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
)

// UserStore defines the read access the pipeline needs to users.
type UserStore interface {
	// GetByID retrieves a user by their unique ID.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// FindProjectMembersByNames returns the members (lead included) of
	// projectID whose name matches one of names, compared
	// case-insensitively. Unknown names and non-members are ignored.
	FindProjectMembersByNames(ctx context.Context, projectID uuid.UUID, names []string) ([]*domain.User, error)

	// WithTx returns a new UserStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) UserStore
}
