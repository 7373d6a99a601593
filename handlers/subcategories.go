package handlers

import (
	"net/http"

	"github.com/Daysof1/proyecto/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) GetSubcategories(c *gin.Context) {
	var categoryID *uuid.UUID
	if raw := c.Query("category_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid category_id format"})
			return
		}
		categoryID = &id
	}

	subs, err := h.Catalog.ListSubcategories(c.Request.Context(), categoryID, c.Query("active") == "true")
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": len(subs), "data": gin.H{"subcategories": subs}})
}

func (h *Handler) GetSubcategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	sub, err := h.Catalog.GetSubcategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"subcategory": sub}})
}

func (h *Handler) CreateSubcategory(c *gin.Context) {
	var req struct {
		Name        string    `json:"name" binding:"required,min=2,max=100"`
		Description *string   `json:"description"`
		CategoryID  uuid.UUID `json:"category_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	sub, err := h.Catalog.CreateSubcategory(c.Request.Context(), req.CategoryID, req.Name, req.Description)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "data": gin.H{"subcategory": sub}})
}

func (h *Handler) UpdateSubcategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	var req struct {
		Name        *string    `json:"name" binding:"omitempty,min=2,max=100"`
		Description *string    `json:"description"`
		CategoryID  *uuid.UUID `json:"category_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	sub, err := h.Catalog.UpdateSubcategory(c.Request.Context(), id, services.UpdateSubcategoryParams{
		Name:        req.Name,
		Description: req.Description,
		CategoryID:  req.CategoryID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"subcategory": sub}})
}

// SetSubcategoryActive toggles a subcategory. Deactivation reports how many
// rows actually changed, products included.
func (h *Handler) SetSubcategoryActive(c *gin.Context) {
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

	affected, err := h.Catalog.SetSubcategoryActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"affected": affected}})
}

func (h *Handler) DeleteSubcategory(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	if err := h.Catalog.DeleteSubcategory(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "subcategory deleted"})
}

func (h *Handler) GetSubcategoryStats(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}

	stats, err := h.Catalog.SubcategoryStats(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"stats": stats}})
}
