package catalog

import (
	"compress/gzip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// fileLoader implements Loader for reading gzipped catalogue seed files.
type fileLoader struct {
	logger zerolog.Logger
}

// NewFileLoader creates a new file-based catalogue loader.
func NewFileLoader(logger zerolog.Logger) Loader {
	return &fileLoader{
		logger: logger.With().Str("component", "catalog-loader").Logger(),
	}
}

// Load reads a gzipped CSV seed file from the local file system. Each
// row is name,description,price,stock.
func (l *fileLoader) Load(ctx context.Context, path string) ([]Record, error) {
	l.logger.Info().Str("file", path).Msg("loading catalogue seed file")

	file, err := os.Open(path)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to open seed file")
		return nil, fmt.Errorf("failed to open seed file %s: %w", path, err)
	}
	defer file.Close()

	records, err := readRecords(ctx, file)
	if err != nil {
		l.logger.Error().Err(err).Str("file", path).Msg("failed to read seed file")
		return nil, fmt.Errorf("failed to read seed file %s: %w", path, err)
	}

	l.logger.Info().
		Str("file", path).
		Int("records_loaded", len(records)).
		Msg("catalogue seed file loaded")

	return records, nil
}

// readRecords decompresses and parses a gzipped CSV stream. Blank lines
// are skipped; a malformed row aborts the load.
func readRecords(ctx context.Context, r io.Reader) ([]Record, error) {
	gzipReader, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	reader := csv.NewReader(gzipReader)
	reader.FieldsPerRecord = 4

	var records []Record
	line := 0
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse row %d: %w", line+1, err)
		}
		line++

		record, err := parseRecord(row)
		if err != nil {
			return nil, fmt.Errorf("invalid row %d: %w", line, err)
		}
		records = append(records, record)
	}

	return records, nil
}

func parseRecord(row []string) (Record, error) {
	name := strings.TrimSpace(row[0])
	if name == "" {
		return Record{}, fmt.Errorf("product name is empty")
	}

	price, err := decimal.NewFromString(strings.TrimSpace(row[2]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid price %q: %w", row[2], err)
	}
	if !price.IsPositive() {
		return Record{}, fmt.Errorf("price %s is not positive", price)
	}

	stock, err := strconv.Atoi(strings.TrimSpace(row[3]))
	if err != nil {
		return Record{}, fmt.Errorf("invalid stock %q: %w", row[3], err)
	}
	if stock < 0 {
		return Record{}, fmt.Errorf("stock %d is negative", stock)
	}

	return Record{
		Name:        name,
		Description: strings.TrimSpace(row[1]),
		Price:       price,
		Stock:       stock,
	}, nil
}
