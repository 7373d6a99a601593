// Package handlers is the thin HTTP surface over the services layer. Every
// handler parses the request, calls one service operation and renders the
// result; business rules stay out of here.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/Daysof1/proyecto/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Handler struct {
	Catalog   *services.Catalog
	Stock     *services.Stock
	Cart      *services.Cart
	Orders    *services.Orders
	Users     *services.Users
	Uploads   *services.Uploads
	JWTSecret string
}

func New(catalog *services.Catalog, stock *services.Stock, cart *services.Cart, orders *services.Orders, users *services.Users, uploads *services.Uploads, jwtSecret string) *Handler {
	return &Handler{
		Catalog:   catalog,
		Stock:     stock,
		Cart:      cart,
		Orders:    orders,
		Users:     users,
		Uploads:   uploads,
		JWTSecret: jwtSecret,
	}
}

// RegisterRoutes wires all endpoints onto the router.
func (h *Handler) RegisterRoutes(router *gin.Engine) {
	api := router.Group("/api")

	// Public catalog
	api.GET("/catalog", h.GetCatalogTree)
	api.GET("/categories", h.GetCategories)
	api.GET("/categories/:id", h.GetCategory)
	api.GET("/subcategories", h.GetSubcategories)
	api.GET("/subcategories/:id", h.GetSubcategory)
	api.GET("/products", h.GetProducts)
	api.GET("/products/:id", h.GetProduct)

	// Auth
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)

	// Authenticated
	auth := api.Group("/")
	auth.Use(h.AuthRequired())
	{
		auth.GET("/auth/me", h.Me)
		auth.GET("/cart", h.GetCart)
		auth.POST("/cart/items", h.AddToCart)
		auth.PUT("/cart/items/:productId", h.SetCartQuantity)
		auth.DELETE("/cart/items/:productId", h.RemoveFromCart)
		auth.POST("/orders", h.PlaceOrder)
		auth.GET("/orders", h.GetOrders)
		auth.GET("/orders/:id", h.GetOrder)
	}

	// Admin
	admin := api.Group("/admin")
	admin.Use(h.AuthRequired(), h.RoleRequired("admin"))
	{
		admin.POST("/categories", h.CreateCategory)
		admin.PUT("/categories/:id", h.UpdateCategory)
		admin.PATCH("/categories/:id/active", h.SetCategoryActive)
		admin.DELETE("/categories/:id", h.DeleteCategory)

		admin.POST("/subcategories", h.CreateSubcategory)
		admin.PUT("/subcategories/:id", h.UpdateSubcategory)
		admin.PATCH("/subcategories/:id/active", h.SetSubcategoryActive)
		admin.DELETE("/subcategories/:id", h.DeleteSubcategory)
		admin.GET("/subcategories/:id/stats", h.GetSubcategoryStats)

		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.PATCH("/products/:id/active", h.SetProductActive)
		admin.DELETE("/products/:id", h.DeleteProduct)
		admin.POST("/products/:id/image", h.UploadProductImage)
		admin.POST("/products/:id/stock", h.AdjustStock)
	}
}

// respondError maps a domain error onto an HTTP response. Unknown errors are
// logged and reported as a plain 500 without leaking internals.
func respondError(c *gin.Context, err error) {
	var domain *services.Error
	if !errors.As(err, &domain) {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
		return
	}

	body := gin.H{
		"success":   false,
		"error":     domain.Message,
		"kind":      string(domain.Kind),
		"retryable": domain.Retryable(),
	}
	if domain.ProductID != uuid.Nil {
		body["product_id"] = domain.ProductID
	}
	if domain.Kind == services.KindInsufficientStock || domain.Kind == services.KindProductUnavailable {
		body["available"] = domain.Available
	}
	c.JSON(statusFor(domain.Kind), body)
}

func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindNotFound, services.KindParentNotFound:
		return http.StatusNotFound
	case services.KindConflict:
		return http.StatusConflict
	case services.KindTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadRequest
	}
}

func parseID(c *gin.Context, param string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid " + param + " format"})
		return uuid.Nil, false
	}
	return id, true
}
