package notify

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/domain"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/platform/logger"
	"github.com/Andy-Fidel/TaskKollecta-sub001/internal/store"
)

// Decision is the outcome of a preference lookup. Email and Name are only
// set when the user was found.
type Decision struct {
	Allowed bool
	Email   string
	Name    string
}

// PreferenceResolver answers whether a user wants email for a category.
type PreferenceResolver struct {
	users  store.UserStore
	logger *slog.Logger
}

// NewPreferenceResolver creates a resolver reading from users.
func NewPreferenceResolver(users store.UserStore, logger *slog.Logger) *PreferenceResolver {
	if users == nil {
		panic("users cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PreferenceResolver{
		users:  users,
		logger: logger.With("component", "preference_resolver"),
	}
}

// Resolve looks up userID and applies their preference for category. A
// missing user or a failed lookup resolves to "not allowed"; the caller
// never sees an error.
func (r *PreferenceResolver) Resolve(
	ctx context.Context,
	userID uuid.UUID,
	category domain.PreferenceCategory,
) Decision {
	log := logger.FromContextOrDefault(ctx, r.logger)

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if store.IsNotFoundError(err) {
			log.Debug("preference lookup for unknown user",
				"user_id", userID,
				"category", category)
		} else {
			log.Warn("preference lookup failed, suppressing email",
				"user_id", userID,
				"category", category,
				"error", err)
		}
		return Decision{}
	}

	return Decision{
		Allowed: user.Email != "" && user.Preferences.Allows(category),
		Email:   user.Email,
		Name:    user.Name,
	}
}

// Allows reports whether userID should receive email for category.
func (r *PreferenceResolver) Allows(ctx context.Context, userID uuid.UUID, category domain.PreferenceCategory) bool {
	return r.Resolve(ctx, userID, category).Allowed
}
