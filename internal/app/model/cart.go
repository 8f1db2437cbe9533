package model

import (
	"github.com/shopspring/decimal"
)

// DefaultUnitPrice is shown when the cart has neither a selection nor items.
var DefaultUnitPrice = decimal.RequireFromString("59.99")

// CartLineItem is one product in the cart. Product is a snapshot taken when
// the line was added and is never refreshed from the catalog.
type CartLineItem struct {
	ProductID int64   `json:"productId"`
	Quantity  int     `json:"quantity"`
	Product   Product `json:"product"`
}

// LineTotal is the snapshot's effective price times quantity.
func (i CartLineItem) LineTotal() decimal.Decimal {
	return i.Product.EffectivePrice().Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// CartState holds items in insertion order, unique by ProductID, plus the
// product the shopper last selected.
type CartState struct {
	Items           []CartLineItem `json:"items"`
	SelectedProduct *Product       `json:"selectedProduct"`
}

// Quantity is the first line's quantity, or 0 for an empty cart.
func (s CartState) Quantity() int {
	if len(s.Items) == 0 {
		return 0
	}
	return s.Items[0].Quantity
}

// UnitPrice prefers the selected product, then the first line's snapshot,
// then DefaultUnitPrice.
func (s CartState) UnitPrice() decimal.Decimal {
	if s.SelectedProduct != nil {
		return s.SelectedProduct.EffectivePrice()
	}
	if len(s.Items) > 0 {
		return s.Items[0].Product.EffectivePrice()
	}
	return DefaultUnitPrice
}

func (s CartState) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range s.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount sums quantities over all lines.
func (s CartState) ItemCount() int {
	n := 0
	for _, item := range s.Items {
		n += item.Quantity
	}
	return n
}

func (s CartState) IsEmpty() bool {
	return len(s.Items) == 0
}

// Find returns the index of productID, or -1.
func (s CartState) Find(productID int64) int {
	for i, item := range s.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy.
func (s CartState) Clone() CartState {
	c := CartState{Items: make([]CartLineItem, len(s.Items))}
	for i, item := range s.Items {
		c.Items[i] = CartLineItem{ProductID: item.ProductID, Quantity: item.Quantity, Product: item.Product.Clone()}
	}
	if s.SelectedProduct != nil {
		p := s.SelectedProduct.Clone()
		c.SelectedProduct = &p
	}
	return c
}
