package services

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math/big"

	"oncult-backend/internal/contracts"
	"oncult-backend/internal/metrics"
	"oncult-backend/internal/models"
	"oncult-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
)

// TokenMetadata is the receipt token's embedded metadata document,
// returned to wallets as a base64 data URI rather than fetched over
// the network.
type TokenMetadata struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Image       string           `json:"image"`
	Attributes  []TokenAttribute `json:"attributes"`
}

// TokenAttribute is one trait of the receipt metadata.
type TokenAttribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// NativeMintResult reports a completed native-currency purchase mint.
type NativeMintResult struct {
	TxHash          common.Hash
	ChainID         uint64
	ReceiptContract common.Address
	TokenID         *big.Int
	TokenURI        string
}

// ReceiptMinter mints proof-of-purchase tokens on the receipt contract
// and recovers minted token ids from emitted logs.
type ReceiptMinter struct {
	registry    *utils.ChainRegistry
	image       string
	description string
}

// NewReceiptMinter creates a ReceiptMinter. image and description feed
// the token metadata document.
func NewReceiptMinter(registry *utils.ChainRegistry, image, description string) *ReceiptMinter {
	return &ReceiptMinter{
		registry:    registry,
		image:       image,
		description: description,
	}
}

// MintNative executes the native-currency purchase path: one payable
// mintReceipt call on the wallet's current chain with the item price
// attached as value. The contract distributes the platform fee
// internally, so no off-chain fee split happens here.
func (m *ReceiptMinter) MintNative(ctx context.Context, wallet Wallet, item *models.Item, buyer common.Address) (*NativeMintResult, error) {
	chainID := wallet.ChainID()
	desc, err := m.registry.Resolve(chainID)
	if err != nil {
		return nil, err
	}

	priceWei, err := utils.ParseNativeAmount(item.Price)
	if err != nil {
		return nil, err
	}
	feeBps := FeeBps(item.ListingType)
	tokenURI := m.BuildTokenURI(item, buyer)
	itemID := OnchainItemID(item.ID)

	txHash, err := wallet.WriteContract(ctx, ContractCall{
		To:     desc.ReceiptContract,
		ABI:    contracts.ReceiptABI,
		Method: "mintReceipt",
		Value:  priceWei,
		Args: []interface{}{
			buyer,
			itemID,
			common.HexToAddress(item.Owner),
			priceWei,
			feeBps,
			tokenURI,
		},
	})
	if err != nil {
		metrics.ReceiptMints.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("mint receipt: %w", err)
	}

	receipt, err := wallet.WaitForReceipt(ctx, chainID, txHash)
	if err != nil {
		metrics.ReceiptMints.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("await receipt mint %s: %w", txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		metrics.ReceiptMints.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("receipt mint reverted: %s", txHash.Hex())
	}

	tokenID, err := DecodeMintedTokenID(receipt, desc.ReceiptContract)
	if err != nil {
		// The mint landed; only the token id could not be recovered.
		logrus.WithField("tx_hash", txHash.Hex()).WithError(err).Warn("minted token id not found in logs")
	}

	metrics.ReceiptMints.WithLabelValues("ok").Inc()
	return &NativeMintResult{
		TxHash:          txHash,
		ChainID:         chainID,
		ReceiptContract: desc.ReceiptContract,
		TokenID:         tokenID,
		TokenURI:        tokenURI,
	}, nil
}

// BuildTokenURI renders the metadata document for an item purchase as
// a base64 data URI.
func (m *ReceiptMinter) BuildTokenURI(item *models.Item, buyer common.Address) string {
	listingType := item.ListingType
	if listingType == "" {
		listingType = models.ListingTypeArtist
	}
	attributes := []TokenAttribute{
		{TraitType: "Item", Value: item.Name},
		{TraitType: "Price", Value: item.Price},
		{TraitType: "Listing Type", Value: string(listingType)},
		{TraitType: "Seller", Value: item.Owner},
		{TraitType: "Buyer", Value: buyer.Hex()},
	}
	if item.PriceUSDC != "" {
		attributes = append(attributes, TokenAttribute{TraitType: "USDC Price", Value: item.PriceUSDC})
	}

	metadata := TokenMetadata{
		Name:        fmt.Sprintf("Oncult Receipt - %s", item.Name),
		Description: m.description,
		Image:       m.image,
		Attributes:  attributes,
	}
	raw, _ := json.Marshal(metadata)
	return "data:application/json;base64," + base64.StdEncoding.EncodeToString(raw)
}

// OnchainItemID derives the stable uint256 item identifier from the
// off-chain item id by keccak-hashing its bytes.
func OnchainItemID(itemID string) *big.Int {
	return new(big.Int).SetBytes(crypto.Keccak256([]byte(itemID)))
}

// DecodeMintedTokenID extracts the minted token id from a transaction's
// ReceiptMinted event. Logs emitted by the known receipt contract are
// tried first; a full scan only runs when address filtering finds
// nothing, so unrelated events in the same transaction cannot shadow
// the real one.
func DecodeMintedTokenID(receipt *types.Receipt, contractAddr common.Address) (*big.Int, error) {
	eventID := contracts.ReceiptABI.Events[contracts.ReceiptMintedEvent].ID

	for _, entry := range receipt.Logs {
		if entry.Address == contractAddr {
			if tokenID, ok := mintedTokenID(entry, eventID); ok {
				return tokenID, nil
			}
		}
	}
	for _, entry := range receipt.Logs {
		if tokenID, ok := mintedTokenID(entry, eventID); ok {
			return tokenID, nil
		}
	}
	return nil, fmt.Errorf("no ReceiptMinted event in tx %s", receipt.TxHash.Hex())
}

func mintedTokenID(entry *types.Log, eventID common.Hash) (*big.Int, bool) {
	// tokenId is the first indexed field.
	if len(entry.Topics) < 2 || entry.Topics[0] != eventID {
		return nil, false
	}
	return new(big.Int).SetBytes(entry.Topics[1].Bytes()), true
}
