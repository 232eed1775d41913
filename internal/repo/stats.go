// Package repo implements the persistence layer of the dev backend. This file
// provides the aggregate query behind the dev backend's health report.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/barcode-lookup/internal/domain"
)

// ProductsStats returns the number of product rows and the greatest
// UpdatedAt among them (nil when the table is empty).
func ProductsStats(ctx context.Context, db *gorm.DB) (count int64, maxUpdatedAt *time.Time, err error) {
	q := db.WithContext(ctx).Model(&domain.Product{})

	if err = q.Count(&count).Error; err != nil {
		return 0, nil, err
	}
	if count == 0 {
		return 0, nil, nil
	}

	// Ordering instead of MAX() keeps the column typed as a time in SQLite.
	var row struct {
		UpdatedAt time.Time
	}
	if err = db.WithContext(ctx).Model(&domain.Product{}).
		Select("updated_at").Order("updated_at DESC").Limit(1).Scan(&row).Error; err != nil {
		return 0, nil, err
	}
	return count, &row.UpdatedAt, nil
}
