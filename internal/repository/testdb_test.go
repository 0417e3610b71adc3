package repository

import (
	"context"
	"testing"
	"time"

	"orda-market/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer and returns a connection pool.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	// Get connection string
	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	// Create connection pool
	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	// Create schema
	createSchema(t, pool)

	// Cleanup function
	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// createSchema creates the necessary database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	ctx := context.Background()

	schema := `
		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY,
			username TEXT NOT NULL UNIQUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS auth_tokens (
			token TEXT PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS roles (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS permissions (
			id UUID PRIMARY KEY,
			code TEXT NOT NULL UNIQUE
		);

		CREATE TABLE IF NOT EXISTS role_permissions (
			role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			permission_id UUID NOT NULL REFERENCES permissions(id) ON DELETE CASCADE,
			UNIQUE (role_id, permission_id)
		);

		CREATE TABLE IF NOT EXISTS user_roles (
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			role_id UUID NOT NULL REFERENCES roles(id) ON DELETE CASCADE,
			UNIQUE (user_id, role_id)
		);

		CREATE TABLE IF NOT EXISTS products (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price DECIMAL(10,2) NOT NULL CHECK (price >= 0),
			stock INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			order_number TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'pending',
			total_price DECIMAL(10,2) NOT NULL DEFAULT 0 CHECK (total_price >= 0),
			delivery_address TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id UUID NOT NULL REFERENCES products(id),
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			price DECIMAL(10,2) NOT NULL CHECK (price >= 0)
		);

		CREATE TABLE IF NOT EXISTS order_change_history (
			id UUID PRIMARY KEY,
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			changed_by UUID NOT NULL REFERENCES users(id),
			field_name TEXT NOT NULL,
			old_value TEXT NOT NULL DEFAULT '',
			new_value TEXT NOT NULL DEFAULT '',
			changed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id);
		CREATE INDEX IF NOT EXISTS idx_order_items_order_id ON order_items(order_id);
		CREATE INDEX IF NOT EXISTS idx_order_change_history_order_id ON order_change_history(order_id);
	`

	_, err := pool.Exec(ctx, schema)
	require.NoError(t, err)
}

// seedUser inserts a test user and returns it.
func seedUser(t *testing.T, pool *pgxpool.Pool, username string) *model.User {
	ctx := context.Background()

	user := &model.User{
		ID:        uuid.New(),
		Username:  username,
		CreatedAt: time.Now(),
	}

	_, err := pool.Exec(ctx,
		"INSERT INTO users (id, username, created_at) VALUES ($1, $2, $3)",
		user.ID, user.Username, user.CreatedAt,
	)
	require.NoError(t, err)

	return user
}

// seedToken attaches an auth token to a user.
func seedToken(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, token string) {
	ctx := context.Background()

	_, err := pool.Exec(ctx,
		"INSERT INTO auth_tokens (token, user_id) VALUES ($1, $2)",
		token, userID,
	)
	require.NoError(t, err)
}

// grantCapability wires user -> role -> permission so the capability
// resolves through the role tables.
func grantCapability(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, roleName, capability string) {
	ctx := context.Background()

	roleID := uuid.New()
	permissionID := uuid.New()

	_, err := pool.Exec(ctx, "INSERT INTO roles (id, name) VALUES ($1, $2)", roleID, roleName)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "INSERT INTO permissions (id, code) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING", permissionID, capability)
	require.NoError(t, err)

	err = pool.QueryRow(ctx, "SELECT id FROM permissions WHERE code = $1", capability).Scan(&permissionID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2)", roleID, permissionID)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)", userID, roleID)
	require.NoError(t, err)
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	ctx := context.Background()

	query := `
		INSERT INTO products (id, name, description, price, stock, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	for _, p := range products {
		_, err := pool.Exec(ctx, query, p.ID, p.Name, p.Description, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt)
		require.NoError(t, err)
	}
}
