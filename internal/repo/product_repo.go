// Package repo implements the persistence layer of the dev backend.
//
// Functions are context-aware and take a *gorm.DB so they compose with
// transactions. They hold no business rules: filtering semantics live in the
// devbackend package, first-row selection in the lookup service.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/barcode-lookup/internal/domain"
)

// ErrEmptyBarcode is returned when a product without a barcode is written.
var ErrEmptyBarcode = errors.New("repo: product barcode is empty")

// FindProductsByBarcode returns every row whose barcode equals barcode
// exactly, in insertion order. No rows is not an error.
func FindProductsByBarcode(ctx context.Context, db *gorm.DB, barcode string) ([]domain.Product, error) {
	var out []domain.Product
	err := db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Order("id ASC").
		Find(&out).Error
	return out, err
}

// CreateProduct inserts p as a new row, even when its barcode already exists.
func CreateProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	if strings.TrimSpace(p.Barcode) == "" {
		return ErrEmptyBarcode
	}
	return db.WithContext(ctx).Create(p).Error
}

// UpsertProduct updates the first row carrying p.Barcode with p's attributes,
// or inserts p when the barcode is unknown. p.ID is set to the stored row.
func UpsertProduct(ctx context.Context, db *gorm.DB, p *domain.Product) error {
	if strings.TrimSpace(p.Barcode) == "" {
		return ErrEmptyBarcode
	}
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cur domain.Product
		err := tx.Where("barcode = ?", p.Barcode).Order("id ASC").First(&cur).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return CreateProduct(ctx, tx, p)
		}
		if err != nil {
			return err
		}
		p.ID = cur.ID
		p.CreatedAt = cur.CreatedAt
		return tx.Model(&cur).Select("name", "brewery", "style", "abv", "calories_bottle", "updated_at").
			Updates(map[string]any{
				"name":            p.Name,
				"brewery":         p.Brewery,
				"style":           p.Style,
				"abv":             p.ABV,
				"calories_bottle": p.CaloriesBottle,
				"updated_at":      time.Now().UTC(),
			}).Error
	})
}

// SeedProductsFromFile upserts every product of a JSON array file and returns
// how many rows were written. Entries are applied in file order inside one
// transaction, so a bad entry leaves the table untouched.
func SeedProductsFromFile(ctx context.Context, db *gorm.DB, path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	var products []domain.Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return 0, fmt.Errorf("repo: decode seed %s: %w", path, err)
	}

	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range products {
			products[i].ID = 0
			if err := UpsertProduct(ctx, tx, &products[i]); err != nil {
				return fmt.Errorf("repo: seed entry %d: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(products), nil
}
