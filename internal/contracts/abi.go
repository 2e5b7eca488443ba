// Package contracts holds the ABI fragments of the external contracts
// the payment flow calls into: the source-chain USDC token, the Gateway
// wallet and minter, and the purchase receipt contract.
package contracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const erc20ApproveJSON = `[
	{
		"type": "function",
		"name": "approve",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "spender", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"outputs": [{"name": "", "type": "bool"}]
	}
]`

const gatewayWalletJSON = `[
	{
		"type": "function",
		"name": "deposit",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "token", "type": "address"},
			{"name": "value", "type": "uint256"}
		],
		"outputs": []
	}
]`

const gatewayMinterJSON = `[
	{
		"type": "function",
		"name": "gatewayMint",
		"stateMutability": "nonpayable",
		"inputs": [
			{"name": "attestationPayload", "type": "bytes"},
			{"name": "signature", "type": "bytes"}
		],
		"outputs": []
	}
]`

// Receipt contract: mintReceipt is payable; the minted token id is only
// recoverable from the ReceiptMinted event.
const receiptJSON = `[
	{
		"type": "function",
		"name": "mintReceipt",
		"stateMutability": "payable",
		"inputs": [
			{"name": "buyer", "type": "address"},
			{"name": "itemId", "type": "uint256"},
			{"name": "seller", "type": "address"},
			{"name": "priceWei", "type": "uint256"},
			{"name": "feeBps", "type": "uint16"},
			{"name": "tokenURI", "type": "string"}
		],
		"outputs": [{"name": "", "type": "uint256"}]
	},
	{
		"type": "event",
		"name": "ReceiptMinted",
		"anonymous": false,
		"inputs": [
			{"name": "tokenId", "type": "uint256", "indexed": true},
			{"name": "itemId", "type": "uint256", "indexed": true},
			{"name": "buyer", "type": "address", "indexed": true},
			{"name": "seller", "type": "address", "indexed": false},
			{"name": "priceWei", "type": "uint256", "indexed": false},
			{"name": "timestamp", "type": "uint256", "indexed": false},
			{"name": "tokenURI", "type": "string", "indexed": false}
		]
	}
]`

// Parsed ABIs, ready for packing calls and decoding logs.
var (
	ERC20ABI         = mustParse(erc20ApproveJSON)
	GatewayWalletABI = mustParse(gatewayWalletJSON)
	GatewayMinterABI = mustParse(gatewayMinterJSON)
	ReceiptABI       = mustParse(receiptJSON)
)

// ReceiptMintedEvent is the event name carrying the minted token id.
const ReceiptMintedEvent = "ReceiptMinted"

func mustParse(raw string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(raw))
	if err != nil {
		panic(fmt.Sprintf("invalid ABI: %v", err))
	}
	return parsed
}
