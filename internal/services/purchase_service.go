package services

import (
	"context"
	"time"

	"oncult-backend/internal/clients"
	"oncult-backend/internal/models"
	"oncult-backend/internal/repository"
	"oncult-backend/internal/utils"

	"github.com/sirupsen/logrus"
)

// PurchaseService records completed purchases and announces them on
// NATS. By the time it runs the buyer's funds have already moved
// on-chain, so persistence problems are logged and surfaced as a
// warning, never as a payment failure.
type PurchaseService struct {
	purchases repository.PurchaseRepository
	registry  *utils.ChainRegistry
	nats      *clients.NATSClient
}

func NewPurchaseService(purchases repository.PurchaseRepository, registry *utils.ChainRegistry, nats *clients.NATSClient) *PurchaseService {
	return &PurchaseService{purchases: purchases, registry: registry, nats: nats}
}

// RecordGateway persists a completed Gateway payment. Returns true
// when the record landed in the database.
func (s *PurchaseService) RecordGateway(ctx context.Context, item *models.Item, buyer string, result *GatewayPaymentResult) bool {
	record := &models.PurchaseRecord{
		ItemID:         item.ID,
		ItemName:       item.Name,
		PriceDisplay:   item.Price,
		PriceUSDC:      item.PriceUSDC,
		ListingType:    item.ListingType,
		PlatformFeePct: FeePercent(item.ListingType),
		SellerAddress:  item.Owner,
		BuyerAddress:   buyer,
		ChainID:        result.ChainID,
		ChainName:      s.registry.ChainLabel(result.ChainID),
		TxHash:         result.TxHash.Hex(),
	}
	if result.ReceiptContract != nil {
		contractHex := result.ReceiptContract.Hex()
		record.ReceiptContract = &contractHex
	}
	if result.ReceiptTxHash != nil {
		txHex := result.ReceiptTxHash.Hex()
		record.ReceiptTxHash = &txHex
	}
	if result.ReceiptTokenID != nil {
		tokenID := result.ReceiptTokenID.String()
		record.ReceiptTokenID = &tokenID
	}
	if result.ReceiptTokenURI != "" {
		record.ReceiptTokenURI = &result.ReceiptTokenURI
	}
	return s.persistAndPublish(ctx, record, result.PaymentID)
}

// RecordNative persists a completed native-currency purchase. The
// receipt mint carries the payment itself, so the receipt fields
// always populate from the primary transaction.
func (s *PurchaseService) RecordNative(ctx context.Context, item *models.Item, buyer string, result *NativeMintResult) bool {
	contractHex := result.ReceiptContract.Hex()
	txHex := result.TxHash.Hex()
	record := &models.PurchaseRecord{
		ItemID:          item.ID,
		ItemName:        item.Name,
		PriceDisplay:    item.Price,
		ListingType:     item.ListingType,
		PlatformFeePct:  FeePercent(item.ListingType),
		SellerAddress:   item.Owner,
		BuyerAddress:    buyer,
		ChainID:         result.ChainID,
		ChainName:       s.registry.ChainLabel(result.ChainID),
		TxHash:          txHex,
		ReceiptContract: &contractHex,
		ReceiptTxHash:   &txHex,
	}
	if result.TokenID != nil {
		tokenID := result.TokenID.String()
		record.ReceiptTokenID = &tokenID
	}
	if result.TokenURI != "" {
		record.ReceiptTokenURI = &result.TokenURI
	}
	return s.persistAndPublish(ctx, record, "")
}

func (s *PurchaseService) persistAndPublish(ctx context.Context, record *models.PurchaseRecord, paymentID string) bool {
	persisted := true
	if err := s.purchases.Create(ctx, record); err != nil {
		logrus.WithFields(logrus.Fields{
			"item_id": record.ItemID,
			"buyer":   record.BuyerAddress,
			"tx_hash": record.TxHash,
		}).WithError(err).Error("purchase record not persisted; funds already moved on-chain")
		persisted = false
	}

	if s.nats != nil {
		event := clients.PurchaseCompletedEvent{
			PaymentID: paymentID,
			ItemID:    record.ItemID,
			ItemName:  record.ItemName,
			Buyer:     record.BuyerAddress,
			Seller:    record.SellerAddress,
			ChainID:   record.ChainID,
			TxHash:    record.TxHash,
			Timestamp: time.Now().Unix(),
		}
		if record.ReceiptTokenID != nil {
			event.ReceiptTokenID = *record.ReceiptTokenID
		}
		if err := s.nats.PublishPurchaseCompleted(event); err != nil {
			logrus.WithError(err).Warn("purchase.completed event not published")
		}
	}
	return persisted
}

// PublishFailure announces a failed payment attempt on NATS.
func (s *PurchaseService) PublishFailure(event clients.PaymentFailedEvent) {
	if s.nats == nil {
		return
	}
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}
	if err := s.nats.PublishPaymentFailed(event); err != nil {
		logrus.WithError(err).Warn("payment.failed event not published")
	}
}
