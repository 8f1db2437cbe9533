package model

import (
	"github.com/shopspring/decimal"
	"github.com/vitaboost/storefront/pkg/util"
)

type Image struct {
	ID   int64  `json:"id"`
	Src  string `json:"src"`
	Name string `json:"name"`
	Alt  string `json:"alt"`
}

type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Product is a catalog entry as the storefront sees it. Prices stay decimal
// strings, exactly as the catalog returns them.
type Product struct {
	ID               int64      `json:"id"`
	Name             string     `json:"name"`
	Slug             string     `json:"slug,omitempty"`
	Permalink        string     `json:"permalink,omitempty"`
	Description      string     `json:"description,omitempty"`
	ShortDescription string     `json:"short_description,omitempty"`
	DescriptionText  string     `json:"description_text,omitempty"`
	SKU              string     `json:"sku,omitempty"`
	Price            string     `json:"price"`
	RegularPrice     string     `json:"regular_price"`
	SalePrice        string     `json:"sale_price"`
	OnSale           bool       `json:"on_sale"`
	Status           string     `json:"status,omitempty"`
	Featured         bool       `json:"featured,omitempty"`
	Images           []Image    `json:"images"`
	Categories       []Category `json:"categories,omitempty"`
	Tags             []Category `json:"tags,omitempty"`
	AverageRating    string     `json:"average_rating,omitempty"`
	RatingCount      int        `json:"rating_count,omitempty"`
	StockStatus      string     `json:"stock_status,omitempty"`
	StockQuantity    *int       `json:"stock_quantity,omitempty"`
}

// EffectivePrice is price, else regular_price, else zero.
func (p *Product) EffectivePrice() decimal.Decimal {
	return util.FirstPrice(p.Price, p.RegularPrice)
}

// Clone returns a copy that shares no slices or pointers with p.
func (p Product) Clone() Product {
	c := p
	c.Images = append([]Image(nil), p.Images...)
	c.Categories = append([]Category(nil), p.Categories...)
	c.Tags = append([]Category(nil), p.Tags...)
	if p.StockQuantity != nil {
		q := *p.StockQuantity
		c.StockQuantity = &q
	}
	return c
}
