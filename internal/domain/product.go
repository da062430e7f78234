package domain

// Product is a catalog record as returned by the product service.
// The orders service never owns product data, it only snapshots prices.
type Product struct {
	ID    string
	Name  string
	Price Money
}
