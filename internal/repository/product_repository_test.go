package repository

import (
	"context"
	"fmt"
	"testing"
	"time"

	"orda-market/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testCatalogue builds n distinct products.
func testCatalogue(n int) []model.Product {
	now := time.Now()
	products := make([]model.Product, n)
	for i := range products {
		products[i] = model.Product{
			ID:        uuid.New(),
			Name:      fmt.Sprintf("Product %02d", i+1),
			Price:     decimal.NewFromInt(int64((i + 1) * 10)),
			Stock:     i + 1,
			CreatedAt: now,
			UpdatedAt: now,
		}
	}
	return products
}

func TestProductRepository_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	seedProducts(t, pool, testCatalogue(5))

	tests := []struct {
		name     string
		limit    int
		offset   int
		expected int
	}{
		{"All products", 10, 0, 5},
		{"First page", 2, 0, 2},
		{"Second page", 2, 2, 2},
		{"Past the end", 10, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.GetAll(context.Background(), tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Len(t, products, tt.expected)
		})
	}
}

func TestProductRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	catalogue := testCatalogue(1)
	seedProducts(t, pool, catalogue)

	ctx := context.Background()

	found, err := repo.GetByID(ctx, catalogue[0].ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, catalogue[0].Name, found.Name)
	assert.True(t, found.Price.Equal(catalogue[0].Price))

	missing, err := repo.GetByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestProductRepository_GetByIDs(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	catalogue := testCatalogue(3)
	seedProducts(t, pool, catalogue)

	ctx := context.Background()

	products, err := repo.GetByIDs(ctx, []uuid.UUID{catalogue[0].ID, catalogue[2].ID})
	require.NoError(t, err)
	assert.Len(t, products, 2)

	empty, err := repo.GetByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestProductRepository_ValidateProductsExist(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	catalogue := testCatalogue(2)
	seedProducts(t, pool, catalogue)

	ctx := context.Background()

	err := repo.ValidateProductsExist(ctx, []uuid.UUID{catalogue[0].ID, catalogue[1].ID})
	assert.NoError(t, err)

	// Repeated IDs must not be double-counted.
	err = repo.ValidateProductsExist(ctx, []uuid.UUID{catalogue[0].ID, catalogue[0].ID})
	assert.NoError(t, err)

	err = repo.ValidateProductsExist(ctx, []uuid.UUID{catalogue[0].ID, uuid.New()})
	assert.ErrorIs(t, err, model.ErrProductNotFound)
}

func TestProductRepository_CreateAndCount(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	now := time.Now()
	product := &model.Product{
		ID:          uuid.New(),
		Name:        "Imported Product",
		Description: "from catalogue file",
		Price:       decimal.RequireFromString("12.50"),
		Stock:       7,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	require.NoError(t, repo.Create(ctx, product))

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	found, err := repo.GetByID(ctx, product.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "Imported Product", found.Name)
	assert.Equal(t, 7, found.Stock)
}
