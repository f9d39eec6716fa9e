package types

import "time"

// Product represents an item in the storefront catalog.
type Product struct {
	// ID is the unique identifier of the product.
	ID int `json:"id" db:"id"`

	// Name is the human-readable product name shown in listings.
	Name string `json:"name" db:"name"`

	// Description is the full product description.
	Description string `json:"description" db:"description"`

	// Price is the unit price in the smallest currency unit.
	Price int64 `json:"price" db:"price"`

	// Stock is the number of units available for sale.
	Stock int `json:"stock" db:"stock"`

	// Category groups products for navigation (e.g. "new", "sale").
	Category string `json:"category" db:"category"`

	// Tags are free-form labels used for filtering and search.
	Tags []string `json:"tags" db:"tags"`

	// CreatedAt is the timestamp at which the product was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the product.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
