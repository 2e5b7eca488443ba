package services

import (
	"context"
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// ErrUserRejected marks a wallet-side refusal of a signature or
// transaction prompt. It is the only cancellation path of a payment.
var ErrUserRejected = errors.New("user rejected signature request")

// ContractCall describes one contract write on the wallet's currently
// active chain. Value attaches native currency to the call.
type ContractCall struct {
	To     common.Address
	ABI    abi.ABI
	Method string
	Value  *big.Int
	Args   []interface{}
}

// Wallet is the injected chain-interaction capability of the payment
// flow: send transactions, await receipts, sign typed data, switch the
// active chain. Modelled explicitly instead of ambient state so the
// orchestrator is testable against a mock.
type Wallet interface {
	// Address returns the connected account.
	Address() common.Address
	// ChainID returns the currently active chain.
	ChainID() uint64
	// SwitchChain makes chainID the active chain for subsequent calls.
	SwitchChain(ctx context.Context, chainID uint64) error
	// WriteContract submits a contract write on the active chain and
	// returns the transaction hash without waiting for inclusion.
	WriteContract(ctx context.Context, call ContractCall) (common.Hash, error)
	// WaitForReceipt blocks until the transaction is mined on the given
	// chain or the context is cancelled.
	WaitForReceipt(ctx context.Context, chainID uint64, txHash common.Hash) (*types.Receipt, error)
	// SignTypedData produces an EIP-712 signature over the given
	// structured data.
	SignTypedData(ctx context.Context, data apitypes.TypedData) ([]byte, error)
}
