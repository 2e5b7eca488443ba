package dto

// GatewayPaymentRequest starts a cross-chain USDC payment for an item.
// The destination chain is the buyer's current chain unless SettleOnArc
// is set, in which case funds settle on Arc Testnet.
type GatewayPaymentRequest struct {
	ItemID      string `json:"item_id" binding:"required"`
	SettleOnArc bool   `json:"settle_on_arc"`
}

// NativePaymentRequest starts a same-chain native-currency purchase.
type NativePaymentRequest struct {
	ItemID string `json:"item_id" binding:"required"`
}

// PaymentResponse reports a completed payment. Receipt fields are null
// when the receipt mint failed; the payment itself still succeeded.
type PaymentResponse struct {
	Success         bool    `json:"success"`
	PaymentID       string  `json:"payment_id,omitempty"`
	Buyer           string  `json:"buyer"`
	TxHash          string  `json:"tx_hash"`
	ChainID         uint64  `json:"chain_id"`
	ChainName       string  `json:"chain_name"`
	ExplorerTxURL   string  `json:"explorer_tx_url,omitempty"`
	ReceiptContract *string `json:"receipt_contract"`
	ReceiptTokenID  *string `json:"receipt_token_id"`
	ReceiptTxHash   *string `json:"receipt_tx_hash"`
	Warning         string  `json:"warning,omitempty"`
}

// CreateItemRequest lists a new marketplace item.
type CreateItemRequest struct {
	Name        string   `json:"name" binding:"required"`
	Event       string   `json:"event"`
	Description string   `json:"description"`
	Price       string   `json:"price" binding:"required"`
	PriceUSDC   string   `json:"price_usdc"`
	ListingType string   `json:"listing_type"`
	Edition     string   `json:"edition"`
	Supply      *int     `json:"supply"`
	ImageURLs   []string `json:"image_urls"`
}

// ProgressMessage is one websocket frame of the payment progress
// stream.
type ProgressMessage struct {
	Type      string `json:"type"`
	PaymentID string `json:"payment_id"`
	Buyer     string `json:"buyer"`
	State     string `json:"state"`
	Detail    string `json:"detail,omitempty"`
	Timestamp int64  `json:"timestamp"`
}
