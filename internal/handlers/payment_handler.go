package handlers

import (
	"errors"
	"net/http"

	"oncult-backend/internal/clients"
	"oncult-backend/internal/dto"
	"oncult-backend/internal/repository"
	"oncult-backend/internal/services"
	"oncult-backend/internal/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// PaymentHandler exposes the Gateway and native payment flows
type PaymentHandler struct {
	orchestrator *services.GatewayOrchestrator
	minter       *services.ReceiptMinter
	wallet       services.Wallet
	items        repository.ItemRepository
	purchases    *services.PurchaseService
	registry     *utils.ChainRegistry
}

// NewPaymentHandler creates the payment handler
func NewPaymentHandler(
	orchestrator *services.GatewayOrchestrator,
	minter *services.ReceiptMinter,
	wallet services.Wallet,
	items repository.ItemRepository,
	purchases *services.PurchaseService,
	registry *utils.ChainRegistry,
) *PaymentHandler {
	return &PaymentHandler{
		orchestrator: orchestrator,
		minter:       minter,
		wallet:       wallet,
		items:        items,
		purchases:    purchases,
		registry:     registry,
	}
}

// GatewayPaymentHandler runs the cross-chain USDC payment flow for an
// item.
// POST /api/payments/gateway
func (h *PaymentHandler) GatewayPaymentHandler(c *gin.Context) {
	var req dto.GatewayPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	item, err := h.items.GetByID(c.Request.Context(), req.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "item lookup failed"})
		return
	}

	result, err := h.orchestrator.Pay(c.Request.Context(), item, req.SettleOnArc)
	if err != nil {
		h.purchases.PublishFailure(failureEvent(item.ID, h.wallet.Address().Hex(), err))
		c.JSON(paymentErrorStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
			"reason":  string(services.ClassifyFailure(err)),
		})
		return
	}

	buyer := h.wallet.Address().Hex()
	persisted := h.purchases.RecordGateway(c.Request.Context(), item, buyer, result)

	resp := dto.PaymentResponse{
		Success:     true,
		PaymentID:   result.PaymentID,
		TxHash:      result.TxHash.Hex(),
		ChainID:     result.ChainID,
		ChainName:   h.registry.ChainLabel(result.ChainID),
		Buyer:       buyer,
		Warning:     result.ReceiptWarning,
	}
	if url, err := h.registry.ExplorerTxURL(result.ChainID, resp.TxHash); err == nil {
		resp.ExplorerTxURL = url
	}
	if result.ReceiptContract != nil {
		contractHex := result.ReceiptContract.Hex()
		resp.ReceiptContract = &contractHex
	}
	if result.ReceiptTxHash != nil {
		txHex := result.ReceiptTxHash.Hex()
		resp.ReceiptTxHash = &txHex
	}
	if result.ReceiptTokenID != nil {
		tokenID := result.ReceiptTokenID.String()
		resp.ReceiptTokenID = &tokenID
	}
	if !persisted && resp.Warning == "" {
		resp.Warning = "purchase record not persisted"
	}

	c.JSON(http.StatusOK, resp)
}

// NativePaymentHandler purchases an item with native currency through
// the payable receipt contract.
// POST /api/payments/native
func (h *PaymentHandler) NativePaymentHandler(c *gin.Context) {
	var req dto.NativePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	item, err := h.items.GetByID(c.Request.Context(), req.ItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "item not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "item lookup failed"})
		return
	}

	buyer := h.wallet.Address()
	result, err := h.minter.MintNative(c.Request.Context(), h.wallet, item, buyer)
	if err != nil {
		h.purchases.PublishFailure(failureEvent(item.ID, buyer.Hex(), err))
		c.JSON(paymentErrorStatus(err), gin.H{
			"success": false,
			"error":   err.Error(),
			"reason":  string(services.ClassifyFailure(err)),
		})
		return
	}

	persisted := h.purchases.RecordNative(c.Request.Context(), item, buyer.Hex(), result)

	resp := dto.PaymentResponse{
		Success:   true,
		TxHash:    result.TxHash.Hex(),
		ChainID:   result.ChainID,
		ChainName: h.registry.ChainLabel(result.ChainID),
		Buyer:     buyer.Hex(),
	}
	if url, err := h.registry.ExplorerTxURL(result.ChainID, resp.TxHash); err == nil {
		resp.ExplorerTxURL = url
	}
	contractHex := result.ReceiptContract.Hex()
	resp.ReceiptContract = &contractHex
	txHex := result.TxHash.Hex()
	resp.ReceiptTxHash = &txHex
	if result.TokenID != nil {
		tokenID := result.TokenID.String()
		resp.ReceiptTokenID = &tokenID
	}
	if !persisted {
		resp.Warning = "purchase record not persisted"
	}

	c.JSON(http.StatusOK, resp)
}

// failureEvent builds the payment.failed event for a terminal error,
// carrying the attempt's ID, failing state, and funds-custodied flag
// when the orchestrator reported them.
func failureEvent(itemID, buyer string, err error) clients.PaymentFailedEvent {
	event := clients.PaymentFailedEvent{
		ItemID: itemID,
		Buyer:  buyer,
		Reason: string(services.ClassifyFailure(err)),
	}
	var pErr *services.PaymentError
	if errors.As(err, &pErr) {
		event.PaymentID = pErr.PaymentID
		event.State = string(pErr.State)
		event.FundsCustodied = pErr.FundsCustodied
	}
	return event
}

// paymentErrorStatus maps payment failures onto HTTP status codes
func paymentErrorStatus(err error) int {
	switch {
	case errors.Is(err, services.ErrPaymentInFlight):
		return http.StatusConflict
	case errors.Is(err, utils.ErrUnsupportedChain), errors.Is(err, utils.ErrInvalidAmountFormat):
		return http.StatusBadRequest
	case errors.Is(err, services.ErrUserRejected):
		return http.StatusBadRequest
	case errors.Is(err, clients.ErrAttestationFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
