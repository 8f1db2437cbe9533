package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/vitaboost/storefront/config"
	"github.com/vitaboost/storefront/internal/app/controller"
	apperrors "github.com/vitaboost/storefront/internal/errors"
	"github.com/vitaboost/storefront/internal/middleware"
)

type Router struct {
	productController        *controller.ProductController
	cartController           *controller.CartController
	paymentController        *controller.PaymentController
	checkoutController       *controller.CheckoutController
	reconciliationController *controller.ReconciliationController
	authMiddleware           *middleware.AuthMiddleware
	config                   *config.Config
}

func NewRouter(
	productController *controller.ProductController,
	cartController *controller.CartController,
	paymentController *controller.PaymentController,
	checkoutController *controller.CheckoutController,
	reconciliationController *controller.ReconciliationController,
	authMiddleware *middleware.AuthMiddleware,
	cfg *config.Config,
) *Router {
	return &Router{
		productController:        productController,
		cartController:           cartController,
		paymentController:        paymentController,
		checkoutController:       checkoutController,
		reconciliationController: reconciliationController,
		authMiddleware:           authMiddleware,
		config:                   cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins, r.config.Server.IsDevelopment()))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Server is running",
		})
	})

	api := router.Group("/api")
	{
		api.POST("/create-payment-intent", r.paymentController.CreatePaymentIntent)
		api.GET("/config", r.paymentController.GetConfig)

		products := api.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/slug/:slug", r.productController.GetProductBySlug)
			products.GET("/:id", r.productController.GetProduct)
		}

		cart := api.Group("/cart")
		cart.Use(r.authMiddleware.Session())
		{
			cart.GET("", r.cartController.GetCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.POST("/items", r.cartController.AddToCart)
			cart.PUT("/items/:productId", r.cartController.UpdateCartItem)
			cart.DELETE("/items/:productId", r.cartController.RemoveFromCart)
			cart.PUT("/quantity", r.cartController.SetQuantity)
			cart.PUT("/selected", r.cartController.SetSelectedProduct)
		}

		checkout := api.Group("/checkout")
		checkout.Use(r.authMiddleware.Session())
		{
			checkout.POST("", r.checkoutController.BeginCheckout)
			checkout.GET("", r.checkoutController.GetCheckout)
			checkout.DELETE("", r.checkoutController.AbandonCheckout)
			checkout.POST("/complete", r.checkoutController.CompleteCheckout)
			checkout.GET("/events", r.checkoutController.CheckoutEvents)
		}

		admin := api.Group("/admin")
		admin.Use(r.authMiddleware.RequireAdmin())
		{
			admin.GET("/reconciliations", r.reconciliationController.ListReconciliations)
			admin.GET("/reconciliations/export", r.reconciliationController.ExportReconciliations)
			admin.POST("/reconciliations/import", r.reconciliationController.ImportResolutions)
			admin.POST("/reconciliations/:id/resolve", r.reconciliationController.ResolveReconciliation)
		}
	}

	if r.config.Server.IsProduction() {
		r.serveSPA(router)
	} else {
		router.NoRoute(func(c *gin.Context) {
			apperrors.RouteNotFoundError(c, "Route")
		})
	}

	return router
}

// serveSPA serves the built frontend. Unknown API routes answer with JSON,
// missing assets with a bare 404, and everything else with index.html so the
// client-side router can take over.
func (r *Router) serveSPA(router *gin.Engine) {
	staticDir := r.config.Server.StaticDir
	index := filepath.Join(staticDir, "index.html")

	router.Static("/assets", filepath.Join(staticDir, "assets"))

	router.NoRoute(func(c *gin.Context) {
		path := c.Request.URL.Path
		switch {
		case strings.HasPrefix(path, "/api/") || path == "/api":
			apperrors.RouteNotFoundError(c, "API route")
			return
		case strings.HasPrefix(path, "/assets/"):
			c.Status(http.StatusNotFound)
			return
		}

		// top-level files such as favicon.ico or robots.txt
		if path != "/" {
			candidate := filepath.Join(staticDir, filepath.Clean("/"+path))
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				c.File(candidate)
				return
			}
		}
		c.File(index)
	})
}

// corsMiddleware allows requests without an Origin header, any origin in
// development, and otherwise only the configured origins. An empty list in
// production allows every origin.
func corsMiddleware(allowedOrigins []string, development bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := origin == "" || development || len(allowedOrigins) == 0
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "Forbidden",
				"message": "Not allowed by CORS",
			})
			return
		}

		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
