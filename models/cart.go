package models

// CartItem is a single line in the shopping cart. CartID is issued locally
// at insertion and never reused; there is at most one line per product ID.
type CartItem struct {
	Product
	CartID   int64 `json:"cart_id"`
	Quantity int64 `json:"quantity"`
}

// Subtotal is the line total for this item.
func (ci CartItem) Subtotal() float64 {
	return ci.Price * float64(ci.Quantity)
}

// CartTotal sums the line totals of a cart snapshot.
func CartTotal(items []CartItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Subtotal()
	}
	return total
}
