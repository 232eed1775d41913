// Package domain defines the types shared by the lookup service, its hosting
// adapters, and the local dev backend. Product rows are mapped with GORM for
// the dev backend only; the lookup service treats upstream rows as opaque JSON.
package domain

import "time"

// Product is a row of the "products" resource as stored by the dev backend.
//
// Fields mirror what the hosted backend serves for the barcode form client:
//   - Barcode: exact-match lookup key (indexed, not unique; duplicates are
//     tolerated and resolved by the lookup service taking the first row).
//   - ABV / CaloriesBottle / Style: optional attributes consumed downstream.
type Product struct {
	ID             uint      `json:"id"              gorm:"primaryKey;autoIncrement"`
	Barcode        string    `json:"barcode"         gorm:"type:varchar(64);not null;index:idx_products_barcode"`
	Name           string    `json:"name"            gorm:"type:varchar(255);not null;default:''"`
	Brewery        string    `json:"brewery"         gorm:"type:varchar(255);not null;default:''"`
	Style          *string   `json:"style"`
	ABV            *float64  `json:"abv"`
	CaloriesBottle *float64  `json:"calories_bottle"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName returns the database table name for Product.
func (Product) TableName() string { return "products" }
