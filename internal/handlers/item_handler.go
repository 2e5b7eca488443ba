package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"oncult-backend/internal/dto"
	"oncult-backend/internal/models"
	"oncult-backend/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ItemHandler exposes marketplace item CRUD
type ItemHandler struct {
	items repository.ItemRepository
}

// NewItemHandler creates the item handler
func NewItemHandler(items repository.ItemRepository) *ItemHandler {
	return &ItemHandler{items: items}
}

// ListItemsHandler returns a page of items.
// GET /api/items?page=1&page_size=20
func (h *ItemHandler) ListItemsHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.items.List(c.Request.Context(), page, pageSize)
	if err != nil {
		logrus.WithError(err).Error("item listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "item listing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"items":     items,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetItemHandler returns a single item.
// GET /api/items/:id
func (h *ItemHandler) GetItemHandler(c *gin.Context) {
	item, err := h.items.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "item lookup failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "item": item})
}

// CreateItemHandler lists a new item owned by the authenticated
// seller.
// POST /api/items
func (h *ItemHandler) CreateItemHandler(c *gin.Context) {
	var req dto.CreateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	owner := c.GetString("user_address")
	if owner == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	listingType := models.ListingType(strings.ToLower(req.ListingType))
	if listingType == "" {
		listingType = models.ListingTypeArtist
	}
	if listingType != models.ListingTypeArtist && listingType != models.ListingTypeOrganizer {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "listing_type must be artist or organizer"})
		return
	}

	edition := models.Edition(strings.ToLower(req.Edition))
	if edition == "" {
		edition = models.EditionOpen
	}

	item := &models.Item{
		ID:          uuid.NewString(),
		Name:        req.Name,
		Event:       req.Event,
		Description: req.Description,
		Price:       req.Price,
		PriceUSDC:   req.PriceUSDC,
		ListingType: listingType,
		Edition:     edition,
		Supply:      req.Supply,
		ImageURLs:   req.ImageURLs,
		Owner:       common.HexToAddress(owner).Hex(),
	}
	if err := h.items.Create(c.Request.Context(), item); err != nil {
		logrus.WithError(err).Error("item creation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "item creation failed"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "item": item})
}

// DeleteItemHandler removes an item. Only the owner may delete.
// DELETE /api/items/:id
func (h *ItemHandler) DeleteItemHandler(c *gin.Context) {
	caller := c.GetString("user_address")
	if caller == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	item, err := h.items.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "item lookup failed"})
		return
	}

	if !strings.EqualFold(item.Owner, caller) {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "only the owner can delete an item"})
		return
	}

	if err := h.items.Delete(c.Request.Context(), item.ID); err != nil {
		logrus.WithError(err).Error("item deletion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "item deletion failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
