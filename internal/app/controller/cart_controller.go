package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/vitaboost/storefront/internal/app/model"
	"github.com/vitaboost/storefront/internal/app/service"
	apperrors "github.com/vitaboost/storefront/internal/errors"
	"github.com/vitaboost/storefront/internal/middleware"
	"github.com/vitaboost/storefront/pkg/util"
)

type CartController struct {
	cartService    service.CartService
	productService service.ProductService
	maxQuantity    int
}

func NewCartController(cartService service.CartService, productService service.ProductService, maxQuantity int) *CartController {
	return &CartController{
		cartService:    cartService,
		productService: productService,
		maxQuantity:    maxQuantity,
	}
}

type AddToCartRequest struct {
	ProductID int64 `json:"product_id" binding:"required,gt=0"`
	Quantity  int   `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type SetSelectedProductRequest struct {
	ProductID *int64 `json:"product_id"`
}

// CartResponse is the cart with its derived values.
type CartResponse struct {
	Items           []model.CartLineItem `json:"items"`
	SelectedProduct *model.Product       `json:"selectedProduct"`
	Quantity        int                  `json:"quantity"`
	ItemCount       int                  `json:"itemCount"`
	UnitPrice       string               `json:"unitPrice"`
	Subtotal        string               `json:"subtotal"`
}

func newCartResponse(state model.CartState) CartResponse {
	items := state.Items
	if items == nil {
		items = []model.CartLineItem{}
	}
	return CartResponse{
		Items:           items,
		SelectedProduct: state.SelectedProduct,
		Quantity:        state.Quantity(),
		ItemCount:       state.ItemCount(),
		UnitPrice:       state.UnitPrice().StringFixed(2),
		Subtotal:        util.FormatAmount(state.Subtotal()),
	}
}

func (ctrl *CartController) cart(c *gin.Context) (*service.Cart, bool) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		apperrors.SessionRequired(c)
		return nil, false
	}
	return ctrl.cartService.Session(c.Request.Context(), sessionID), true
}

// GetCart returns the session's cart
// GET /api/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, newCartResponse(cart.State()))
}

// AddToCart adds a catalog product to the cart
// POST /api/cart/items
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"error": err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	product, ok := ctrl.fetchProduct(c, req.ProductID)
	if !ok {
		return
	}

	quantity := service.ClampQuantity(req.Quantity, ctrl.maxQuantity)
	cart.AddToCart(*product, quantity)

	log.Info("Item added to cart", map[string]interface{}{
		"session_id": cart.SessionID(),
		"product_id": req.ProductID,
		"quantity":   quantity,
	})

	c.JSON(http.StatusOK, newCartResponse(cart.State()))
}

// UpdateCartItem sets a line's quantity; zero or less removes it
// PUT /api/cart/items/:productId
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}

	productID, ok := parseProductID(c)
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	quantity := *req.Quantity
	if quantity > 0 {
		quantity = service.ClampQuantity(quantity, ctrl.maxQuantity)
	}
	cart.UpdateCartItem(productID, quantity)

	c.JSON(http.StatusOK, newCartResponse(cart.State()))
}

// RemoveFromCart removes a line
// DELETE /api/cart/items/:productId
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}

	productID, ok := parseProductID(c)
	if !ok {
		return
	}
	cart.RemoveFromCart(productID)

	c.JSON(http.StatusOK, newCartResponse(cart.State()))
}

// SetQuantity is the product page quantity control; it adds to the selected
// product's line
// PUT /api/cart/quantity
func (ctrl *CartController) SetQuantity(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	quantity := *req.Quantity
	if quantity > 0 {
		quantity = service.ClampQuantity(quantity, ctrl.maxQuantity)
	}
	cart.SetQuantity(quantity)

	c.JSON(http.StatusOK, newCartResponse(cart.State()))
}

// SetSelectedProduct replaces the selected product; null clears it
// PUT /api/cart/selected
func (ctrl *CartController) SetSelectedProduct(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}

	var req SetSelectedProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request data")
		return
	}

	if req.ProductID == nil {
		cart.SetSelectedProduct(nil)
		c.JSON(http.StatusOK, newCartResponse(cart.State()))
		return
	}

	product, ok := ctrl.fetchProduct(c, *req.ProductID)
	if !ok {
		return
	}
	cart.SetSelectedProduct(product)

	c.JSON(http.StatusOK, newCartResponse(cart.State()))
}

// ClearCart empties the cart
// DELETE /api/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	cart, ok := ctrl.cart(c)
	if !ok {
		return
	}
	cart.ClearCart()

	c.JSON(http.StatusOK, newCartResponse(cart.State()))
}

func (ctrl *CartController) fetchProduct(c *gin.Context, productID int64) (*model.Product, bool) {
	log := middleware.GetLoggerFromContext(c)

	product, err := ctrl.productService.GetProduct(c.Request.Context(), productID)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found for cart", map[string]interface{}{
				"product_id": productID,
			})
			apperrors.NotFound(c, apperrors.CatalogProductNotFound, "Product not found")
			return nil, false
		}
		log.Error("Failed to fetch product for cart", err, map[string]interface{}{
			"product_id": productID,
		})
		apperrors.BadGateway(c, apperrors.CatalogUnavailable, "Failed to load product")
		return nil, false
	}
	return product, true
}

func parseProductID(c *gin.Context) (int64, bool) {
	productID, err := strconv.ParseInt(c.Param("productId"), 10, 64)
	if err != nil || productID <= 0 {
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return 0, false
	}
	return productID, true
}
