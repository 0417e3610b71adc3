package catalog

import (
	"context"
	"fmt"
	"time"

	"orda-market/internal/model"
	"orda-market/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Importer seeds the product catalogue from a seed file on startup.
type Importer struct {
	products repository.ProductRepository
	loader   Loader
	logger   zerolog.Logger
}

// NewImporter creates a new catalogue importer.
func NewImporter(products repository.ProductRepository, loader Loader, logger zerolog.Logger) *Importer {
	return &Importer{
		products: products,
		loader:   loader,
		logger:   logger.With().Str("component", "catalog-importer").Logger(),
	}
}

// Run imports the seed file at path into the product table. The import
// only runs against an empty catalogue; a populated table is left
// untouched so restarts do not duplicate products.
func (i *Importer) Run(ctx context.Context, path string) (int, error) {
	count, err := i.products.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check catalogue size: %w", err)
	}
	if count > 0 {
		i.logger.Info().
			Int("existing_products", count).
			Msg("catalogue already populated, skipping import")
		return 0, nil
	}

	records, err := i.loader.Load(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to load catalogue seed: %w", err)
	}

	now := time.Now()
	for _, record := range records {
		product := &model.Product{
			ID:          uuid.New(),
			Name:        record.Name,
			Description: record.Description,
			Price:       record.Price,
			Stock:       record.Stock,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := i.products.Create(ctx, product); err != nil {
			return 0, fmt.Errorf("failed to import product %q: %w", record.Name, err)
		}
	}

	i.logger.Info().
		Int("products_imported", len(records)).
		Str("source", path).
		Msg("catalogue import complete")

	return len(records), nil
}
