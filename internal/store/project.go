package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
)

// ProjectStore defines the read access the pipeline needs to projects.
type ProjectStore interface {
	// GetByID retrieves a project with its member list.
	// Returns ErrProjectNotFound if the project does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error)

	// IsMember reports whether userID belongs to the project.
	IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error)

	// WithTx returns a new ProjectStore instance that uses the provided transaction.
	WithTx(tx *sql.Tx) ProjectStore
}
