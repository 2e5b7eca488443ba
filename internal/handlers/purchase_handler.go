package handlers

import (
	"net/http"
	"strconv"

	"oncult-backend/internal/repository"

	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PurchaseHandler exposes purchase history endpoints
type PurchaseHandler struct {
	purchases repository.PurchaseRepository
}

// NewPurchaseHandler creates the purchase handler
func NewPurchaseHandler(purchases repository.PurchaseRepository) *PurchaseHandler {
	return &PurchaseHandler{purchases: purchases}
}

// ListMyPurchasesHandler returns the authenticated buyer's purchases.
// GET /api/purchases
func (h *PurchaseHandler) ListMyPurchasesHandler(c *gin.Context) {
	buyer := c.GetString("user_address")
	if buyer == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}

	records, err := h.purchases.FindByBuyer(c.Request.Context(), common.HexToAddress(buyer).Hex())
	if err != nil {
		logrus.WithError(err).Error("purchase listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "purchase listing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "purchases": records})
}

// ListAllPurchasesHandler returns all purchases, paginated. Admin
// only.
// GET /api/admin/purchases?page=1&page_size=50
func (h *PurchaseHandler) ListAllPurchasesHandler(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "50"))
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	records, total, err := h.purchases.List(c.Request.Context(), page, pageSize)
	if err != nil {
		logrus.WithError(err).Error("admin purchase listing failed")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "purchase listing failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"purchases": records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}
