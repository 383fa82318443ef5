package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// PostgresProjectStore implements the store.ProjectStore interface
// using a PostgreSQL database as the storage backend.
type PostgresProjectStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresProjectStore creates a new PostgreSQL implementation of the ProjectStore interface.
func NewPostgresProjectStore(db store.DBTX, logger *slog.Logger) *PostgresProjectStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresProjectStore{
		db:     db,
		logger: logger.With(slog.String("component", "project_store")),
	}
}

// Ensure PostgresProjectStore implements store.ProjectStore interface
var _ store.ProjectStore = (*PostgresProjectStore)(nil)

// GetByID implements store.ProjectStore.GetByID
func (s *PostgresProjectStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Project, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var (
		p    domain.Project
		lead uuid.NullUUID
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, organization_id, name, lead_id, created_at FROM projects WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.OrganizationID, &p.Name, &lead, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProjectNotFound
		}
		log.Error("failed to get project",
			slog.String("error", err.Error()),
			slog.String("project_id", id.String()))
		return nil, MapError(err)
	}
	if lead.Valid {
		leadID := lead.UUID
		p.LeadID = &leadID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM project_members WHERE project_id = $1 ORDER BY user_id`, id)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var member uuid.UUID
		if err := rows.Scan(&member); err != nil {
			return nil, MapError(err)
		}
		p.MemberIDs = append(p.MemberIDs, member)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return &p, nil
}

// IsMember implements store.ProjectStore.IsMember. The project lead counts
// as a member even without a membership row.
func (s *PostgresProjectStore) IsMember(ctx context.Context, projectID, userID uuid.UUID) (bool, error) {
	var ok bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM project_members WHERE project_id = $1 AND user_id = $2
		) OR EXISTS (
			SELECT 1 FROM projects WHERE id = $1 AND lead_id = $2
		)`,
		projectID, userID,
	).Scan(&ok)
	if err != nil {
		return false, MapError(err)
	}
	return ok, nil
}

// WithTx implements store.ProjectStore.WithTx
func (s *PostgresProjectStore) WithTx(tx *sql.Tx) store.ProjectStore {
	return &PostgresProjectStore{
		db:     tx,
		logger: s.logger,
	}
}
