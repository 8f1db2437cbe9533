package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/service"
	"github.com/vitaboost/storefront/internal/middleware"
	"github.com/vitaboost/storefront/pkg/woocommerce"
)

const testSessionID = "3f1c2d9e-6b1a-4c5e-9a77-0d8b2f0e4a11"

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(middleware.SessionIDKey, testSessionID)
		c.Next()
	})
	return router
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

type fakeProductService struct {
	products map[int64]model.Product
	err      error
}

func newFakeProductService() *fakeProductService {
	return &fakeProductService{products: map[int64]model.Product{
		7: {ID: 7, Name: "VitaBoost Daily", Slug: "vitaboost-daily", Price: "59.99", RegularPrice: "69.99"},
		8: {ID: 8, Name: "VitaBoost Night", Slug: "vitaboost-night", Price: "", RegularPrice: "39.50"},
	}}
}

func (s *fakeProductService) ListProducts(ctx context.Context, filter woocommerce.ProductFilter) ([]model.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	var out []model.Product
	for _, id := range []int64{7, 8} {
		out = append(out, s.products[id])
	}
	return out, nil
}

func (s *fakeProductService) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, service.ErrProductNotFound
	}
	return &p, nil
}

func (s *fakeProductService) GetProductBySlug(ctx context.Context, slug string) (*model.Product, error) {
	if s.err != nil {
		return nil, s.err
	}
	for _, p := range s.products {
		if p.Slug == slug {
			p := p
			return &p, nil
		}
	}
	return nil, service.ErrProductNotFound
}
