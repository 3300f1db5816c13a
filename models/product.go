package models

// Product is a storefront listing as returned by the marketplace API.
// Read-only to the cart subsystem.
type Product struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Price  float64  `json:"price"`
	Store  string   `json:"store,omitempty"`
	Images []string `json:"images,omitempty"`
}
