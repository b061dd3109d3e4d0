package main

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/hyeonwoo/placecache/config"
	"github.com/hyeonwoo/placecache/internal/app/model"
	"github.com/hyeonwoo/placecache/internal/app/repository"
	"github.com/hyeonwoo/placecache/internal/app/service"
	"github.com/hyeonwoo/placecache/internal/db"
	"github.com/xuri/excelize/v2"
)

// Seeds the cache from a spreadsheet of business rows. Expected columns:
// name, phone, address, category, rating, review_count, website
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	businessRepo := repository.NewBusinessRepository(db.GetDB())
	reviewRepo := repository.NewReviewRepository(db.GetDB())
	imageRepo := repository.NewImageRepository(db.GetDB())
	historyRepo := repository.NewHistoryRepository(db.GetDB())
	cacheService := service.NewCacheService(
		db.GetDB(), businessRepo, reviewRepo, imageRepo, historyRepo,
		cfg.Cache.StatsTTL, cfg.Cache.EvictionBatch,
	)
	qualityService := service.NewQualityService()

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	extractions, skipped, err := readExtractionsFromXLSX(filePath)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Rows to import: %d (skipped %d)\n", len(extractions), skipped)

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	imported := 0
	for _, extraction := range extractions {
		score, _ := qualityService.ScoreExtraction(extraction)
		extraction.DataQualityScore = &score

		if _, err := cacheService.Save(extraction); err != nil {
			log.Printf("Failed to save %q: %v", extraction.Name, err)
			continue
		}
		imported++
	}

	fmt.Printf("Import completed: %d businesses cached\n", imported)
}

func readExtractionsFromXLSX(filePath string) ([]*model.BusinessExtraction, int, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open XLSX file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	if sheetName == "" {
		return nil, 0, fmt.Errorf("no sheets found in XLSX file")
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("no data found in XLSX file")
	}

	var extractions []*model.BusinessExtraction
	skipped := 0
	for i, row := range rows {
		if i == 0 {
			// Header row
			continue
		}
		if len(row) < 4 {
			skipped++
			continue
		}

		name := strings.TrimSpace(cell(row, 0))
		if name == "" {
			skipped++
			continue
		}

		reviewCount := 0
		if raw := strings.TrimSpace(cell(row, 5)); raw != "" {
			if parsed, err := strconv.Atoi(raw); err == nil {
				reviewCount = parsed
			}
		}

		extractions = append(extractions, &model.BusinessExtraction{
			Success:          true,
			Name:             name,
			Phone:            strings.TrimSpace(cell(row, 1)),
			Address:          strings.TrimSpace(cell(row, 2)),
			Category:         strings.TrimSpace(cell(row, 3)),
			Rating:           strings.TrimSpace(cell(row, 4)),
			ReviewCount:      reviewCount,
			Website:          strings.TrimSpace(cell(row, 6)),
			ExtractorVersion: "seed-import",
		})
	}

	return extractions, skipped, nil
}

func cell(row []string, index int) string {
	if index >= len(row) {
		return ""
	}
	return row[index]
}
