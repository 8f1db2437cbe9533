package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/pkg/logger"
	"github.com/vitaboost/storefront/pkg/util"
	"github.com/vitaboost/storefront/pkg/woocommerce"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrCatalogUnavailable = errors.New("product catalog is unavailable")
)

const catalogKeyPrefix = "storefront_catalog:"

// CatalogClient is the read side of the WooCommerce client.
type CatalogClient interface {
	GetProducts(ctx context.Context, filter woocommerce.ProductFilter) ([]woocommerce.Product, woocommerce.Source, error)
	GetProduct(ctx context.Context, id int64) (*woocommerce.Product, woocommerce.Source, error)
	GetProductBySlug(ctx context.Context, slug string) (*woocommerce.Product, woocommerce.Source, error)
}

type ProductService interface {
	ListProducts(ctx context.Context, filter woocommerce.ProductFilter) ([]model.Product, error)
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
	GetProductBySlug(ctx context.Context, slug string) (*model.Product, error)
}

type productService struct {
	catalog  CatalogClient
	cache    repository.KeyValueStore
	cacheTTL time.Duration
}

// NewProductService caches catalog reads in cache for cacheTTL. A nil cache
// or zero TTL disables caching.
func NewProductService(catalog CatalogClient, cache repository.KeyValueStore, cacheTTL time.Duration) ProductService {
	return &productService{catalog: catalog, cache: cache, cacheTTL: cacheTTL}
}

func (s *productService) ListProducts(ctx context.Context, filter woocommerce.ProductFilter) ([]model.Product, error) {
	key := catalogKeyPrefix + "products:" + filterKey(filter)

	var cached []model.Product
	if s.readCache(ctx, key, &cached) {
		return cached, nil
	}

	raw, source, err := s.catalog.GetProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	products := make([]model.Product, 0, len(raw))
	for _, p := range raw {
		products = append(products, toModelProduct(p))
	}

	logger.Debug("Products fetched from catalog", map[string]interface{}{
		"count":  len(products),
		"source": source.String(),
	})
	s.writeCache(ctx, key, products)
	return products, nil
}

func (s *productService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	key := catalogKeyPrefix + "product:" + strconv.FormatInt(id, 10)

	var cached model.Product
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	raw, source, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		var apiErr *woocommerce.APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}

	product := toModelProduct(*raw)
	logger.Debug("Product fetched from catalog", map[string]interface{}{
		"product_id": id,
		"source":     source.String(),
	})
	s.writeCache(ctx, key, product)
	return &product, nil
}

func (s *productService) GetProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	key := catalogKeyPrefix + "slug:" + slug

	var cached model.Product
	if s.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	raw, _, err := s.catalog.GetProductBySlug(ctx, slug)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCatalogUnavailable, err)
	}
	if raw == nil {
		return nil, ErrProductNotFound
	}

	product := toModelProduct(*raw)
	s.writeCache(ctx, key, product)
	return &product, nil
}

func (s *productService) readCache(ctx context.Context, key string, out interface{}) bool {
	if s.cache == nil || s.cacheTTL <= 0 {
		return false
	}
	raw, found, err := s.cache.Get(ctx, key)
	if err != nil || !found {
		return false
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		logger.Warn("Discarding unreadable catalog cache entry", map[string]interface{}{
			"key": key,
		})
		return false
	}
	return true
}

func (s *productService) writeCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	_ = s.cache.Set(ctx, key, string(data), s.cacheTTL)
}

func filterKey(f woocommerce.ProductFilter) string {
	v := url.Values{}
	v.Set("per_page", strconv.Itoa(f.PerPage))
	v.Set("page", strconv.Itoa(f.Page))
	v.Set("status", f.Status)
	v.Set("category", f.Category)
	v.Set("search", f.Search)
	if f.Featured != nil {
		v.Set("featured", strconv.FormatBool(*f.Featured))
	}
	return v.Encode()
}

func toModelProduct(p woocommerce.Product) model.Product {
	product := model.Product{
		ID:               p.ID,
		Name:             p.Name,
		Slug:             p.Slug,
		Permalink:        p.Permalink,
		Description:      p.Description,
		ShortDescription: p.ShortDescription,
		DescriptionText:  util.HTMLToText(p.Description),
		SKU:              p.SKU,
		Price:            p.Price,
		RegularPrice:     p.RegularPrice,
		SalePrice:        p.SalePrice,
		OnSale:           p.OnSale,
		Status:           p.Status,
		Featured:         p.Featured,
		AverageRating:    p.AverageRating,
		RatingCount:      p.RatingCount,
		StockStatus:      p.StockStatus,
		StockQuantity:    p.StockQuantity,
	}
	for _, img := range p.Images {
		product.Images = append(product.Images, model.Image{ID: img.ID, Src: img.Src, Name: img.Name, Alt: img.Alt})
	}
	for _, c := range p.Categories {
		product.Categories = append(product.Categories, model.Category{ID: c.ID, Name: c.Name, Slug: c.Slug})
	}
	for _, t := range p.Tags {
		product.Tags = append(product.Tags, model.Category{ID: t.ID, Name: t.Name, Slug: t.Slug})
	}
	return product
}
