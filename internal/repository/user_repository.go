package repository

import (
	"context"
	"fmt"

	"orda-market/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// GetByToken resolves an auth token to a user with capabilities loaded.
func (r *userRepository) GetByToken(ctx context.Context, token string) (*model.User, error) {
	query := `
		SELECT u.id, u.username, u.created_at
		FROM users u
		JOIN auth_tokens t ON t.user_id = u.id
		WHERE t.token = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, token).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Msg("unknown auth token")
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to resolve auth token")
		return nil, fmt.Errorf("failed to resolve auth token: %w", err)
	}

	if err := r.loadCapabilities(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// GetByID retrieves a user by ID, including capabilities.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	query := `
		SELECT id, username, created_at
		FROM users
		WHERE id = $1
	`

	var user model.User
	err := r.pool.QueryRow(ctx, query, id).Scan(&user.ID, &user.Username, &user.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			r.logger.Debug().Str("user_id", id.String()).Msg("user not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	if err := r.loadCapabilities(ctx, &user); err != nil {
		return nil, err
	}

	return &user, nil
}

// loadCapabilities flattens the user's roles into a capability list.
func (r *userRepository) loadCapabilities(ctx context.Context, user *model.User) error {
	query := `
		SELECT DISTINCT p.code
		FROM user_roles ur
		JOIN role_permissions rp ON rp.role_id = ur.role_id
		JOIN permissions p ON p.id = rp.permission_id
		WHERE ur.user_id = $1
		ORDER BY p.code
	`

	rows, err := r.pool.Query(ctx, query, user.ID)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to query capabilities")
		return fmt.Errorf("failed to query capabilities: %w", err)
	}
	defer rows.Close()

	var capabilities []string
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan capability row")
			return fmt.Errorf("failed to scan capability: %w", err)
		}
		capabilities = append(capabilities, code)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating capability rows")
		return fmt.Errorf("error iterating capabilities: %w", err)
	}

	user.Capabilities = capabilities
	return nil
}
