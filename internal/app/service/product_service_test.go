package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/internal/app/repository"
	"github.com/vitaboost/storefront/pkg/woocommerce"
)

type fakeCatalog struct {
	products []woocommerce.Product
	err      error
	calls    int
}

func (c *fakeCatalog) GetProducts(ctx context.Context, filter woocommerce.ProductFilter) ([]woocommerce.Product, woocommerce.Source, error) {
	c.calls++
	if c.err != nil {
		return nil, woocommerce.SourcePublic, c.err
	}
	return c.products, woocommerce.SourceAuthenticated, nil
}

func (c *fakeCatalog) GetProduct(ctx context.Context, id int64) (*woocommerce.Product, woocommerce.Source, error) {
	c.calls++
	if c.err != nil {
		return nil, woocommerce.SourcePublic, c.err
	}
	for _, p := range c.products {
		if p.ID == id {
			p := p
			return &p, woocommerce.SourceAuthenticated, nil
		}
	}
	return nil, woocommerce.SourceAuthenticated, &woocommerce.APIError{StatusCode: http.StatusNotFound, Message: "Invalid ID."}
}

func (c *fakeCatalog) GetProductBySlug(ctx context.Context, slug string) (*woocommerce.Product, woocommerce.Source, error) {
	c.calls++
	if c.err != nil {
		return nil, woocommerce.SourcePublic, c.err
	}
	for _, p := range c.products {
		if p.Slug == slug {
			p := p
			return &p, woocommerce.SourceAuthenticated, nil
		}
	}
	return nil, woocommerce.SourceAuthenticated, nil
}

func setupProductServiceTest(t *testing.T, ttl time.Duration) (ProductService, *fakeCatalog) {
	catalog := &fakeCatalog{products: []woocommerce.Product{
		{
			ID:          7,
			Name:        "VitaBoost Daily",
			Slug:        "vitaboost-daily",
			Description: "<p>Supports <strong>energy</strong></p>",
			Price:       "59.99",
			Images:      []woocommerce.Image{{ID: 1, Src: "https://cdn.example.com/vb.png"}},
			Categories:  []woocommerce.Term{{ID: 3, Name: "Vitamins", Slug: "vitamins"}},
		},
	}}
	return NewProductService(catalog, repository.NewMemoryStore(), ttl), catalog
}

func TestProductService_ListProducts(t *testing.T) {
	svc, _ := setupProductServiceTest(t, time.Minute)

	products, err := svc.ListProducts(context.Background(), woocommerce.ProductFilter{PerPage: 100})
	require.NoError(t, err)
	require.Len(t, products, 1)

	p := products[0]
	assert.Equal(t, "VitaBoost Daily", p.Name)
	assert.Equal(t, "Supports energy", p.DescriptionText)
	assert.Equal(t, "https://cdn.example.com/vb.png", p.Images[0].Src)
	assert.Equal(t, "vitamins", p.Categories[0].Slug)
}

func TestProductService_CachesReads(t *testing.T) {
	svc, catalog := setupProductServiceTest(t, time.Minute)
	ctx := context.Background()

	_, err := svc.ListProducts(ctx, woocommerce.ProductFilter{PerPage: 100})
	require.NoError(t, err)
	_, err = svc.ListProducts(ctx, woocommerce.ProductFilter{PerPage: 100})
	require.NoError(t, err)
	assert.Equal(t, 1, catalog.calls)

	// a different filter is a different entry
	_, err = svc.ListProducts(ctx, woocommerce.ProductFilter{PerPage: 10})
	require.NoError(t, err)
	assert.Equal(t, 2, catalog.calls)

	_, err = svc.GetProduct(ctx, 7)
	require.NoError(t, err)
	_, err = svc.GetProduct(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 3, catalog.calls)
}

func TestProductService_ZeroTTLDisablesCache(t *testing.T) {
	svc, catalog := setupProductServiceTest(t, 0)
	ctx := context.Background()

	_, _ = svc.GetProduct(ctx, 7)
	_, _ = svc.GetProduct(ctx, 7)

	assert.Equal(t, 2, catalog.calls)
}

func TestProductService_NotFound(t *testing.T) {
	svc, _ := setupProductServiceTest(t, time.Minute)
	ctx := context.Background()

	_, err := svc.GetProduct(ctx, 404)
	assert.ErrorIs(t, err, ErrProductNotFound)

	_, err = svc.GetProductBySlug(ctx, "missing")
	assert.ErrorIs(t, err, ErrProductNotFound)

	p, err := svc.GetProductBySlug(ctx, "vitaboost-daily")
	require.NoError(t, err)
	assert.Equal(t, int64(7), p.ID)
}

func TestProductService_CatalogUnavailable(t *testing.T) {
	svc, catalog := setupProductServiceTest(t, time.Minute)
	catalog.err = &woocommerce.APIError{Err: errors.New("connection refused")}

	_, err := svc.ListProducts(context.Background(), woocommerce.ProductFilter{})
	assert.ErrorIs(t, err, ErrCatalogUnavailable)

	_, err = svc.GetProduct(context.Background(), 7)
	assert.ErrorIs(t, err, ErrCatalogUnavailable)
}
