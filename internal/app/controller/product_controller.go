package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vitaboost/storefront/internal/app/service"
	apperrors "github.com/vitaboost/storefront/internal/errors"
	"github.com/vitaboost/storefront/internal/middleware"
	"github.com/vitaboost/storefront/pkg/logger"
	"github.com/vitaboost/storefront/pkg/woocommerce"
)

const (
	defaultPerPage = 100
	maxPerPage     = 100
)

type ProductController struct {
	productService service.ProductService
}

func NewProductController(productService service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

type ListProductsQuery struct {
	PerPage  int    `form:"per_page"`
	Page     int    `form:"page"`
	Status   string `form:"status"`
	Category string `form:"category"`
	Search   string `form:"search"`
	Featured *bool  `form:"featured"`
}

// ListProducts returns catalog products
// GET /api/products
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var query ListProductsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		log.Warn("Invalid product list query", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid query parameters")
		return
	}
	if query.PerPage <= 0 {
		query.PerPage = defaultPerPage
	}
	if query.PerPage > maxPerPage {
		query.PerPage = maxPerPage
	}
	if query.Page < 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidRange, "page must not be negative")
		return
	}

	products, err := ctrl.productService.ListProducts(c.Request.Context(), woocommerce.ProductFilter{
		PerPage:  query.PerPage,
		Page:     query.Page,
		Status:   query.Status,
		Category: query.Category,
		Search:   query.Search,
		Featured: query.Featured,
	})
	if err != nil {
		log.Error("Failed to fetch products", err)
		apperrors.BadGateway(c, apperrors.CatalogUnavailable, "Failed to load products")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
	})
}

// GetProduct returns one product by id
// GET /api/products/:id
func (ctrl *ProductController) GetProduct(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	product, err := ctrl.productService.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondProductError(c, err, log.WithContext(map[string]interface{}{"product_id": id}))
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetProductBySlug returns one published product by slug
// GET /api/products/slug/:slug
func (ctrl *ProductController) GetProductBySlug(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	slug := c.Param("slug")
	product, err := ctrl.productService.GetProductBySlug(c.Request.Context(), slug)
	if err != nil {
		respondProductError(c, err, log.WithContext(map[string]interface{}{"slug": slug}))
		return
	}

	c.JSON(http.StatusOK, product)
}

func respondProductError(c *gin.Context, err error, log *logger.Logger) {
	if errors.Is(err, service.ErrProductNotFound) {
		apperrors.NotFound(c, apperrors.CatalogProductNotFound, "Product not found")
		return
	}
	log.Error("Failed to fetch product", err)
	apperrors.BadGateway(c, apperrors.CatalogUnavailable, "Failed to load product")
}
