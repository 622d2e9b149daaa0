package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/gosimple/slug"
	"github.com/ikkim/gadgetshop-backend/config"
	"github.com/ikkim/gadgetshop-backend/internal/app/model"
	"github.com/ikkim/gadgetshop-backend/internal/app/repository"
	"github.com/ikkim/gadgetshop-backend/internal/app/service"
	"github.com/ikkim/gadgetshop-backend/internal/db"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// Workbook layout: one sheet per product kind, named "notebooks" and
// "smartphones", each with a header row. Columns are matched by header name.
var sheetKinds = map[string]model.ProductKind{
	"notebooks":   model.ProductKindNotebook,
	"smartphones": model.ProductKindSmartphone,
}

// catalogRow is one product read from the workbook.
type catalogRow struct {
	Line     int
	Category string
	Input    service.ProductInput
}

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

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	defer f.Close()

	rows, skipped, err := readCatalog(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Products to import: %d (skipped rows: %d)\n", len(rows), skipped)

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	conn := db.GetDB()
	categoryRepo := repository.NewCategoryRepository(conn)
	productRepo := repository.NewProductRepository(conn)
	cartRepo := repository.NewCartRepository(conn)
	carts := service.NewCartService(conn, cartRepo, productRepo, nil)
	admin := service.NewProductAdminService(conn, categoryRepo, productRepo, cartRepo, carts, nil)

	created, failed := importCatalog(context.Background(), categoryRepo, admin, rows)

	fmt.Println("Import completed.")
	fmt.Printf("  Created: %d\n", created)
	fmt.Printf("  Failed:  %d\n", failed)
}

// importCatalog creates missing categories and every product. A failing row
// is reported and skipped.
func importCatalog(ctx context.Context, categories repository.CategoryRepository, admin service.ProductAdminService, rows []catalogRow) (created, failed int) {
	categoryIDs := make(map[string]uint)

	for _, row := range rows {
		id, ok := categoryIDs[row.Category]
		if !ok {
			category, err := ensureCategory(ctx, categories, admin, row.Category)
			if err != nil {
				fmt.Printf("  line %d: category %q: %v\n", row.Line, row.Category, err)
				failed++
				continue
			}
			id = category.ID
			categoryIDs[row.Category] = id
		}

		input := row.Input
		input.CategoryID = id
		if _, err := admin.CreateProduct(ctx, input); err != nil {
			fmt.Printf("  line %d: %s: %v\n", row.Line, input.Name, err)
			failed++
			continue
		}
		created++
	}
	return created, failed
}

func ensureCategory(ctx context.Context, categories repository.CategoryRepository, admin service.ProductAdminService, name string) (*model.Category, error) {
	existing, err := categories.FindBySlug(slug.Make(name))
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return admin.CreateCategory(ctx, service.CategoryInput{Name: name})
}

func readCatalog(f *excelize.File) ([]catalogRow, int, error) {
	var result []catalogRow
	skipped := 0
	found := false

	for _, sheet := range f.GetSheetList() {
		kind, ok := sheetKinds[strings.ToLower(strings.TrimSpace(sheet))]
		if !ok {
			continue
		}
		found = true

		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		if len(rows) == 0 {
			continue
		}

		header := headerIndex(rows[0])
		for i, cells := range rows[1:] {
			row, err := parseRow(kind, header, cells)
			if err != nil {
				fmt.Printf("  %s line %d skipped: %v\n", sheet, i+2, err)
				skipped++
				continue
			}
			row.Line = i + 2
			result = append(result, row)
		}
	}

	if !found {
		return nil, 0, fmt.Errorf("workbook has no notebooks or smartphones sheet")
	}
	return result, skipped, nil
}

func headerIndex(header []string) map[string]int {
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return index
}

func parseRow(kind model.ProductKind, header map[string]int, cells []string) (catalogRow, error) {
	cell := func(name string) string {
		i, ok := header[name]
		if !ok || i >= len(cells) {
			return ""
		}
		return strings.TrimSpace(cells[i])
	}

	name := cell("name")
	category := cell("category")
	if name == "" || category == "" {
		return catalogRow{}, fmt.Errorf("name and category are required")
	}

	price, err := decimal.NewFromString(cell("price"))
	if err != nil {
		return catalogRow{}, fmt.Errorf("invalid price %q", cell("price"))
	}

	input := service.ProductInput{
		Kind:        kind,
		Name:        name,
		Slug:        cell("slug"),
		Description: cell("description"),
		Price:       price,
	}

	switch kind {
	case model.ProductKindNotebook:
		input.Notebook = &model.NotebookSpec{
			Diagonal:    cell("diagonal"),
			Display:     cell("display"),
			Processor:   cell("processor"),
			RAM:         cell("ram"),
			BatteryLife: cell("battery_life"),
		}
	case model.ProductKindSmartphone:
		input.Smartphone = &model.SmartphoneSpec{
			Diagonal:        cell("diagonal"),
			Display:         cell("display"),
			Resolution:      cell("resolution"),
			RAM:             cell("ram"),
			SD:              parseYes(cell("sd")),
			SDMaxVolume:     cell("sd_max_volume"),
			MainCameraMP:    cell("main_camera"),
			FrontalCameraMP: cell("front_camera"),
		}
	}

	return catalogRow{Category: category, Input: input}, nil
}

func parseYes(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}
