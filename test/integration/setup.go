package integration

import (
	"context"
	"fmt"
	"testing"
	"time"

	"orda-market/internal/model"
	"orda-market/internal/policy"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
	Logger    zerolog.Logger
}

// SetupTestDB creates a PostgreSQL test container and connection pool.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	// Create PostgreSQL container
	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	// Get connection string
	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	// Create schema
	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
		Logger:    zerolog.Nop(),
	}
}

// createSchema creates the database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

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
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// SeedUser inserts a user with an auth token and returns the user.
func SeedUser(t *testing.T, pool *pgxpool.Pool, username, token string) *model.User {
	t.Helper()

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
	if err != nil {
		t.Fatalf("failed to seed user %s: %v", username, err)
	}

	_, err = pool.Exec(ctx,
		"INSERT INTO auth_tokens (token, user_id) VALUES ($1, $2)",
		token, user.ID,
	)
	if err != nil {
		t.Fatalf("failed to seed token for %s: %v", username, err)
	}

	return user
}

// SeedStaff inserts a user whose role grants the order admin capability.
func SeedStaff(t *testing.T, pool *pgxpool.Pool, username, token string) *model.User {
	t.Helper()

	ctx := context.Background()
	user := SeedUser(t, pool, username, token)

	roleID := uuid.New()
	permissionID := uuid.New()

	_, err := pool.Exec(ctx, "INSERT INTO roles (id, name) VALUES ($1, $2) ON CONFLICT (name) DO NOTHING", roleID, "staff")
	if err != nil {
		t.Fatalf("failed to seed role: %v", err)
	}
	if err := pool.QueryRow(ctx, "SELECT id FROM roles WHERE name = $1", "staff").Scan(&roleID); err != nil {
		t.Fatalf("failed to look up role: %v", err)
	}

	_, err = pool.Exec(ctx, "INSERT INTO permissions (id, code) VALUES ($1, $2) ON CONFLICT (code) DO NOTHING", permissionID, policy.CapOrderAdmin)
	if err != nil {
		t.Fatalf("failed to seed permission: %v", err)
	}
	if err := pool.QueryRow(ctx, "SELECT id FROM permissions WHERE code = $1", policy.CapOrderAdmin).Scan(&permissionID); err != nil {
		t.Fatalf("failed to look up permission: %v", err)
	}

	_, err = pool.Exec(ctx, "INSERT INTO role_permissions (role_id, permission_id) VALUES ($1, $2) ON CONFLICT DO NOTHING", roleID, permissionID)
	if err != nil {
		t.Fatalf("failed to link role and permission: %v", err)
	}

	_, err = pool.Exec(ctx, "INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)", user.ID, roleID)
	if err != nil {
		t.Fatalf("failed to assign role: %v", err)
	}

	user.Capabilities = []string{policy.CapOrderAdmin}
	return user
}

// SeedProducts inserts test product data and returns the products.
func SeedProducts(t *testing.T, pool *pgxpool.Pool) []model.Product {
	t.Helper()

	ctx := context.Background()
	now := time.Now()

	products := []model.Product{
		{ID: uuid.New(), Name: "Test Product 1", Description: "first", Price: decimal.RequireFromString("10.00"), Stock: 100, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Test Product 2", Description: "second", Price: decimal.RequireFromString("20.00"), Stock: 50, CreatedAt: now, UpdatedAt: now},
		{ID: uuid.New(), Name: "Test Product 3", Description: "third", Price: decimal.RequireFromString("5.50"), Stock: 10, CreatedAt: now, UpdatedAt: now},
	}

	for _, p := range products {
		_, err := pool.Exec(ctx,
			"INSERT INTO products (id, name, description, price, stock, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7)",
			p.ID, p.Name, p.Description, p.Price, p.Stock, p.CreatedAt, p.UpdatedAt,
		)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.Name, err)
		}
	}

	return products
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"order_change_history", "order_items", "orders",
		"user_roles", "role_permissions", "permissions", "roles",
		"auth_tokens", "products", "users",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}
