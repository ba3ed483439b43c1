// Package cart defines the source-side cart schema and its canonical
// content signature. All change detection and event-id derivation MUST
// go through Signature so that both agree on what "equal content" means.
package cart

import (
	"encoding/json"
	"sort"
)

// Product is a single line item inside a cart.
type Product struct {
	ProductID int `json:"productId"`
	Quantity  int `json:"quantity"`
}

// Cart is a cart record as returned by the source API.
// ID is stable and unique within one fetch; Date is an opaque
// version/timestamp marker owned by the source.
type Cart struct {
	ID       int       `json:"id"`
	UserID   int       `json:"userId"`
	Date     string    `json:"date"`
	Products []Product `json:"products"`
	Revision int       `json:"__v"`
}

// Signature returns an order-independent serialization of a product list.
// Products are sorted by product id and marshaled with a fixed field order,
// so two lists produce byte-identical signatures iff they contain the same
// items with the same attributes, regardless of original ordering.
//
// The signature is used both for change detection and for event-id hashing;
// the two must share the exact same canonical form or idempotency breaks.
func Signature(products []Product) string {
	sorted := make([]Product, len(products))
	copy(sorted, products)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ProductID < sorted[j].ProductID
	})

	// Marshal of a struct slice cannot fail.
	data, _ := json.Marshal(sorted)
	return string(data)
}

// ProductsEqual reports whether two product lists carry the same content,
// independent of ordering.
func ProductsEqual(a, b []Product) bool {
	return Signature(a) == Signature(b)
}
