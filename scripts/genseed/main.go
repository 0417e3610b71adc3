package main

import (
	"compress/gzip"
	"fmt"
	"log"
	"os"
	"path/filepath"
)

// Generates a sample gzipped CSV catalogue seed file for local
// development. Rows are name,description,price,stock.
func main() {
	dataDir := "data/catalog"

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		log.Fatalf("Failed to create directory: %v", err)
	}

	rows := []string{
		"Wireless Mouse,Ergonomic 2.4GHz mouse,19.99,120",
		"Mechanical Keyboard,Tenkeyless with brown switches,89.00,45",
		"USB-C Hub,7-in-1 aluminium hub,34.50,80",
		"Laptop Stand,Adjustable aluminium stand,27.95,60",
		"Webcam,1080p with privacy shutter,49.00,35",
		"Desk Mat,900x400mm stitched edges,15.00,200",
	}

	filePath := filepath.Join(dataDir, "seed.csv.gz")
	if err := createSeedFile(filePath, rows); err != nil {
		log.Fatalf("Failed to create %s: %v", filePath, err)
	}

	fmt.Printf("Created %s with %d products\n", filePath, len(rows))
}

func createSeedFile(filePath string, rows []string) error {
	file, err := os.Create(filePath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	defer gzipWriter.Close()

	for _, row := range rows {
		if _, err := fmt.Fprintf(gzipWriter, "%s\n", row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}

	return nil
}
