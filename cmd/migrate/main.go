package main

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"orbitviz/adapters/db"
	"orbitviz/adapters/jsondata"
	"orbitviz/domain/core"
	"orbitviz/domain/fit"
	"orbitviz/internal/errors"
)

// Fit IDs derive from the file path so a second import of the same
// directory skips what is already stored.
var importNamespace = uuid.MustParse("6f1c2a9e-4d3b-5e8f-9a70-1b2c3d4e5f60")

func main() {
	if len(os.Args) < 3 {
		log.Fatal("Usage: migrate <database_url> <fit_results_dir>")
	}

	databaseURL := os.Args[1]
	fitsDir := os.Args[2]

	log.Printf("Importing fit results from %s into %s", fitsDir, db.DriverFor(databaseURL))

	ctx := context.Background()
	conn, err := db.Open(ctx, databaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer conn.Close()

	repo := db.NewFitRunRepository(conn)

	files, err := findFitFiles(fitsDir)
	if err != nil {
		log.Fatalf("Failed to find fit result files: %v", err)
	}

	log.Printf("Found %d fit result files", len(files))

	imported := 0
	skipped := 0

	for _, file := range files {
		id := runIDFor(file)
		if _, err := repo.Get(ctx, id); err == nil {
			skipped++
			continue
		} else if !errors.IsNotFound(err) {
			log.Printf("Failed to check %s: %v", file, err)
			skipped++
			continue
		}

		res, err := loadFitFromFile(file)
		if err != nil {
			log.Printf("Failed to load fit result from %s: %v", file, err)
			skipped++
			continue
		}
		res.ID = id
		res.Label = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))

		if _, err := repo.Save(ctx, res); err != nil {
			log.Printf("Failed to save run %s: %v", id, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported run %s from %s", id, filepath.Base(file))
	}

	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func findFitFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func runIDFor(path string) core.RunID {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	return core.RunID(uuid.NewSHA1(importNamespace, []byte(abs)).String())
}

func loadFitFromFile(path string) (*fit.Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return jsondata.ParseFitResult(data)
}
