package catalog

import (
	"context"

	"github.com/shopspring/decimal"
)

// Record is one product row from a catalogue seed file.
type Record struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
}

// Loader defines the interface for loading catalogue seed files.
type Loader interface {
	// Load reads a gzipped CSV seed file and returns its records.
	Load(ctx context.Context, path string) ([]Record, error)
}
