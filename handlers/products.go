package handlers

import (
	"net/http"

	"github.com/Daysof1/proyecto/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func (h *Handler) GetProducts(c *gin.Context) {
	var filter services.ProductFilter
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid category_id format"})
			return
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("subcategory_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid subcategory_id format"})
			return
		}
		filter.SubcategoryID = &id
	}
	filter.ActiveOnly = c.Query("active") == "true"

	products, err := h.Catalog.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(products), "data": gin.H{"products": products}})
}

func (h *Handler) GetProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	product, err := h.Catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"product": product}})
}

func (h *Handler) CreateProduct(c *gin.Context) {
	var req struct {
		Name          string          `json:"name" binding:"required,min=2,max=100"`
		Description   *string         `json:"description"`
		Price         decimal.Decimal `json:"price"`
		Stock         int             `json:"stock"`
		CategoryID    uuid.UUID       `json:"category_id" binding:"required"`
		SubcategoryID uuid.UUID       `json:"subcategory_id" binding:"required"`
		ImageRef      *string         `json:"image_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	product, err := h.Catalog.CreateProduct(c.Request.Context(), services.CreateProductParams{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		Stock:         req.Stock,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		ImageRef:      req.ImageRef,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"product": product}})
}

func (h *Handler) UpdateProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name          *string          `json:"name" binding:"omitempty,min=2,max=100"`
		Description   *string          `json:"description"`
		Price         *decimal.Decimal `json:"price"`
		CategoryID    *uuid.UUID       `json:"category_id"`
		SubcategoryID *uuid.UUID       `json:"subcategory_id"`
		ImageRef      *string          `json:"image_ref"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), id, services.UpdateProductParams{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		CategoryID:    req.CategoryID,
		SubcategoryID: req.SubcategoryID,
		ImageRef:      req.ImageRef,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"product": product}})
}

func (h *Handler) SetProductActive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Active *bool `json:"active" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	affected, err := h.Catalog.SetProductActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"affected": affected}})
}

func (h *Handler) DeleteProduct(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.Catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "product deleted"})
}

// AdjustStock applies a ledger operation to a product and reports the
// before/after values.
func (h *Handler) AdjustStock(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Op       string `json:"op" binding:"required,oneof=increase decrease set"`
		Quantity int    `json:"quantity"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	var adj *services.Adjustment
	var err error
	switch req.Op {
	case "increase":
		adj, err = h.Stock.Increase(c.Request.Context(), id, req.Quantity)
	case "decrease":
		adj, err = h.Stock.Decrease(c.Request.Context(), id, req.Quantity)
	case "set":
		adj, err = h.Stock.Set(c.Request.Context(), id, req.Quantity)
	}
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"adjustment": adj}})
}

// UploadProductImage pushes an image to the upload service and stores the
// returned ref on the product.
func (h *Handler) UploadProductImage(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "image file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read image file"})
		return
	}
	defer file.Close()

	ref, err := h.Uploads.UploadProductImage(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "image upload failed"})
		return
	}

	product, err := h.Catalog.UpdateProduct(c.Request.Context(), id, services.UpdateProductParams{ImageRef: &ref})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"product": product}})
}
