package handlers

import (
	"net/http"

	"github.com/Daysof1/proyecto/services"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCatalogTree(c *gin.Context) {
	tree, err := h.Catalog.Tree(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"categories": tree}})
}

func (h *Handler) GetCategories(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	categories, err := h.Catalog.ListCategories(c.Request.Context(), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(categories), "data": gin.H{"categories": categories}})
}

func (h *Handler) GetCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	category, err := h.Catalog.GetCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"category": category}})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	var req struct {
		Name        string  `json:"name" binding:"required,min=2,max=100"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	category, err := h.Catalog.CreateCategory(c.Request.Context(), req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"category": category}})
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name        *string `json:"name" binding:"omitempty,min=2,max=100"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	category, err := h.Catalog.UpdateCategory(c.Request.Context(), id, services.UpdateCategoryParams{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"category": category}})
}

// SetCategoryActive toggles a category. Deactivation reports how many rows
// (category, subcategories, products) actually changed state.
func (h *Handler) SetCategoryActive(c *gin.Context) {
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

	affected, err := h.Catalog.SetCategoryActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"affected": affected}})
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.Catalog.DeleteCategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "category deleted"})
}
