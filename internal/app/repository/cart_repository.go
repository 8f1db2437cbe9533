package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/pkg/logger"
)

const (
	cartKeyPrefix     = "storefront_cart:"
	selectedKeyPrefix = "storefront_selected_product:"
)

// CartRepository persists one cart per session as two independent entries.
// Loads never fail: missing or unreadable data comes back empty.
type CartRepository interface {
	SaveItems(ctx context.Context, sessionID string, items []model.CartLineItem) error
	LoadItems(ctx context.Context, sessionID string) []model.CartLineItem
	SaveSelectedProduct(ctx context.Context, sessionID string, product *model.Product) error
	LoadSelectedProduct(ctx context.Context, sessionID string) *model.Product
	Clear(ctx context.Context, sessionID string) error
}

// lineProductRecord is the reduced product kept with each line.
type lineProductRecord struct {
	ID               int64         `json:"id"`
	Name             string        `json:"name"`
	Price            string        `json:"price"`
	RegularPrice     string        `json:"regular_price"`
	SalePrice        string        `json:"sale_price"`
	OnSale           bool          `json:"on_sale"`
	Images           []model.Image `json:"images"`
	ShortDescription string        `json:"short_description"`
}

type cartItemRecord struct {
	ProductID int64             `json:"productId"`
	Quantity  int               `json:"quantity"`
	Product   lineProductRecord `json:"product"`
}

// selectedProductRecord keeps a few more fields than a line snapshot.
type selectedProductRecord struct {
	lineProductRecord
	Description   string           `json:"description"`
	Categories    []model.Category `json:"categories"`
	AverageRating string           `json:"average_rating"`
	RatingCount   int              `json:"rating_count"`
}

func toLineRecord(p model.Product) lineProductRecord {
	return lineProductRecord{
		ID:               p.ID,
		Name:             p.Name,
		Price:            p.Price,
		RegularPrice:     p.RegularPrice,
		SalePrice:        p.SalePrice,
		OnSale:           p.OnSale,
		Images:           p.Images,
		ShortDescription: p.ShortDescription,
	}
}

func (r lineProductRecord) toProduct() model.Product {
	return model.Product{
		ID:               r.ID,
		Name:             r.Name,
		Price:            r.Price,
		RegularPrice:     r.RegularPrice,
		SalePrice:        r.SalePrice,
		OnSale:           r.OnSale,
		Images:           r.Images,
		ShortDescription: r.ShortDescription,
	}
}

type cartRepository struct {
	store KeyValueStore
	ttl   time.Duration
}

func NewCartRepository(store KeyValueStore, ttl time.Duration) CartRepository {
	return &cartRepository{store: store, ttl: ttl}
}

func (r *cartRepository) SaveItems(ctx context.Context, sessionID string, items []model.CartLineItem) error {
	records := make([]cartItemRecord, 0, len(items))
	for _, item := range items {
		records = append(records, cartItemRecord{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			Product:   toLineRecord(item.Product),
		})
	}

	data, err := json.Marshal(records)
	if err != nil {
		logger.Error("Failed to encode cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}
	if err := r.store.Set(ctx, cartKeyPrefix+sessionID, string(data), r.ttl); err != nil {
		logger.Error("Failed to save cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}

	logger.Debug("Cart saved", map[string]interface{}{
		"session_id": sessionID,
		"items":      len(records),
	})
	return nil
}

func (r *cartRepository) LoadItems(ctx context.Context, sessionID string) []model.CartLineItem {
	raw, found, err := r.store.Get(ctx, cartKeyPrefix+sessionID)
	if err != nil {
		logger.Error("Failed to load cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return []model.CartLineItem{}
	}
	if !found {
		return []model.CartLineItem{}
	}

	var records []cartItemRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		logger.Error("Failed to parse stored cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return []model.CartLineItem{}
	}

	items := make([]model.CartLineItem, 0, len(records))
	seen := make(map[int64]bool, len(records))
	for _, rec := range records {
		if rec.Quantity < 1 || seen[rec.ProductID] {
			continue
		}
		seen[rec.ProductID] = true
		items = append(items, model.CartLineItem{
			ProductID: rec.ProductID,
			Quantity:  rec.Quantity,
			Product:   rec.Product.toProduct(),
		})
	}
	return items
}

func (r *cartRepository) SaveSelectedProduct(ctx context.Context, sessionID string, product *model.Product) error {
	key := selectedKeyPrefix + sessionID
	if product == nil {
		if err := r.store.Delete(ctx, key); err != nil {
			logger.Error("Failed to clear selected product", err, map[string]interface{}{
				"session_id": sessionID,
			})
			return err
		}
		return nil
	}

	data, err := json.Marshal(selectedProductRecord{
		lineProductRecord: toLineRecord(*product),
		Description:       product.Description,
		Categories:        product.Categories,
		AverageRating:     product.AverageRating,
		RatingCount:       product.RatingCount,
	})
	if err != nil {
		return err
	}
	if err := r.store.Set(ctx, key, string(data), r.ttl); err != nil {
		logger.Error("Failed to save selected product", err, map[string]interface{}{
			"session_id": sessionID,
			"product_id": product.ID,
		})
		return err
	}
	return nil
}

func (r *cartRepository) LoadSelectedProduct(ctx context.Context, sessionID string) *model.Product {
	raw, found, err := r.store.Get(ctx, selectedKeyPrefix+sessionID)
	if err != nil {
		logger.Error("Failed to load selected product", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil
	}
	if !found {
		return nil
	}

	var rec selectedProductRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		logger.Error("Failed to parse stored selected product", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return nil
	}

	product := rec.lineProductRecord.toProduct()
	product.Description = rec.Description
	product.Categories = rec.Categories
	product.AverageRating = rec.AverageRating
	product.RatingCount = rec.RatingCount
	return &product
}

func (r *cartRepository) Clear(ctx context.Context, sessionID string) error {
	if err := r.store.Delete(ctx, cartKeyPrefix+sessionID, selectedKeyPrefix+sessionID); err != nil {
		logger.Error("Failed to clear cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		return err
	}
	logger.Debug("Cart cleared", map[string]interface{}{
		"session_id": sessionID,
	})
	return nil
}
