package models

import (
	"time"
)

// ListingType determines the platform fee percentage.
type ListingType string

const (
	ListingTypeArtist    ListingType = "artist"    // 5% platform fee
	ListingTypeOrganizer ListingType = "organizer" // 10% platform fee
)

// Edition tags an item's scarcity. The supply ceiling is advisory and
// display-only; no scarcity enforcement happens at this layer.
type Edition string

const (
	EditionOpen         Edition = "open"
	EditionLimited      Edition = "limited"
	EditionExtraLimited Edition = "extra-limited"
)

// Item is a marketplace listing. Prices are kept as the seller entered
// them; parsing to integer token units happens at payment time.
type Item struct {
	ID          string      `json:"id" gorm:"primaryKey;type:uuid"`
	Name        string      `json:"name" gorm:"not null"`
	Event       string      `json:"event"`
	Description string      `json:"description"`
	Price       string      `json:"price" gorm:"not null"` // native display string, e.g. "0.01 ETH"
	PriceUSDC   string      `json:"price_usdc"`            // optional USDC decimal string
	ListingType ListingType `json:"listing_type" gorm:"default:artist"`
	Edition     Edition     `json:"edition" gorm:"default:open"`
	Supply      *int        `json:"supply,omitempty"`
	ImageURLs   StringArray `json:"image_urls" gorm:"type:text"`
	Owner       string      `json:"owner" gorm:"index;not null"` // seller address
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// PurchaseRecord is one completed payment. Created once after the
// on-chain mint, append-only, never mutated. Receipt fields are null
// when the receipt mint failed on the destination chain.
type PurchaseRecord struct {
	ID              uint64      `json:"id" gorm:"primaryKey;autoIncrement"`
	ItemID          string      `json:"item_id" gorm:"index;not null"`
	ItemName        string      `json:"item_name" gorm:"not null"`
	PriceDisplay    string      `json:"price_display" gorm:"not null"`
	PriceUSDC       string      `json:"price_usdc"` // smallest-unit amount, decimal string; empty for native payments
	ListingType     ListingType `json:"listing_type" gorm:"default:artist"`
	PlatformFeePct  int         `json:"platform_fee_pct" gorm:"not null"`
	SellerAddress   string      `json:"seller_address" gorm:"index;not null"`
	BuyerAddress    string      `json:"buyer_address" gorm:"index;not null"`
	ChainID         uint64      `json:"chain_id" gorm:"index;not null"`
	ChainName       string      `json:"chain_name"`
	TxHash          string      `json:"tx_hash" gorm:"index;not null"`
	ReceiptTxHash   *string     `json:"receipt_tx_hash"` // set when the receipt minted on a separate leg
	ReceiptContract *string     `json:"receipt_contract"`
	ReceiptTokenID  *string     `json:"receipt_token_id"`
	ReceiptTokenURI *string     `json:"receipt_token_uri"`
	CreatedAt       time.Time   `json:"created_at"`
}
