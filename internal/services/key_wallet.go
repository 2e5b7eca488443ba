package services

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"
	"time"

	"oncult-backend/internal/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/sirupsen/logrus"
)

// KeyWallet is the production Wallet: a private key plus one RPC client
// per configured chain. "Switching chain" just changes which client
// subsequent writes go through.
type KeyWallet struct {
	key      *ecdsa.PrivateKey
	address  common.Address
	registry *utils.ChainRegistry

	mu      sync.Mutex
	clients map[uint64]*ethclient.Client // chainID -> client
	active  uint64
}

// NewKeyWallet dials an RPC client for every registry chain and parks
// the wallet on initialChainID. rpcOverrides replaces the registry's
// default endpoints per chain id.
func NewKeyWallet(privateKeyHex string, registry *utils.ChainRegistry, rpcOverrides map[uint64][]string, initialChainID uint64) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	w := &KeyWallet{
		key:      key,
		address:  crypto.PubkeyToAddress(key.PublicKey),
		registry: registry,
		clients:  make(map[uint64]*ethclient.Client),
	}

	for _, chain := range registry.GetAllChains() {
		endpoints := chain.RPCEndpoints
		if override, ok := rpcOverrides[chain.ChainID]; ok && len(override) > 0 {
			endpoints = override
		}

		var client *ethclient.Client
		var dialErr error
		for _, endpoint := range endpoints {
			client, dialErr = ethclient.Dial(endpoint)
			if dialErr == nil {
				break
			}
			logrus.WithFields(logrus.Fields{
				"chain_id": chain.ChainID,
				"endpoint": endpoint,
			}).WithError(dialErr).Warn("RPC dial failed, trying next endpoint")
		}
		if dialErr != nil {
			return nil, fmt.Errorf("connect to %s: %w", chain.Name, dialErr)
		}
		w.clients[chain.ChainID] = client
	}

	if _, ok := w.clients[initialChainID]; !ok {
		return nil, fmt.Errorf("%w: %d", utils.ErrUnsupportedChain, initialChainID)
	}
	w.active = initialChainID

	logrus.WithFields(logrus.Fields{
		"address": w.address.Hex(),
		"chains":  len(w.clients),
	}).Info("key wallet initialized")
	return w, nil
}

// Address returns the wallet account.
func (w *KeyWallet) Address() common.Address {
	return w.address
}

// ChainID returns the currently active chain.
func (w *KeyWallet) ChainID() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.active
}

// SwitchChain changes the active chain for subsequent writes.
func (w *KeyWallet) SwitchChain(_ context.Context, chainID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.clients[chainID]; !ok {
		return fmt.Errorf("%w: %d", utils.ErrUnsupportedChain, chainID)
	}
	w.active = chainID
	return nil
}

// WriteContract signs and submits a contract write on the active chain
// and returns its hash without waiting for inclusion.
func (w *KeyWallet) WriteContract(ctx context.Context, call ContractCall) (common.Hash, error) {
	w.mu.Lock()
	chainID := w.active
	client := w.clients[chainID]
	w.mu.Unlock()

	input, err := call.ABI.Pack(call.Method, call.Args...)
	if err != nil {
		return common.Hash{}, fmt.Errorf("pack %s: %w", call.Method, err)
	}

	nonce, err := client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return common.Hash{}, fmt.Errorf("fetch nonce: %w", err)
	}
	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return common.Hash{}, fmt.Errorf("suggest gas price: %w", err)
	}

	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}
	gasLimit, err := client.EstimateGas(ctx, ethereum.CallMsg{
		From:  w.address,
		To:    &call.To,
		Value: value,
		Data:  input,
	})
	if err != nil {
		return common.Hash{}, fmt.Errorf("estimate gas for %s: %w", call.Method, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &call.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     input,
	})
	signedTx, err := types.SignTx(tx, types.LatestSignerForChainID(new(big.Int).SetUint64(chainID)), w.key)
	if err != nil {
		return common.Hash{}, fmt.Errorf("sign tx: %w", err)
	}
	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return common.Hash{}, fmt.Errorf("send %s tx: %w", call.Method, err)
	}
	return signedTx.Hash(), nil
}

// WaitForReceipt polls until the transaction is mined on the given
// chain or the context is cancelled.
func (w *KeyWallet) WaitForReceipt(ctx context.Context, chainID uint64, txHash common.Hash) (*types.Receipt, error) {
	w.mu.Lock()
	client, ok := w.clients[chainID]
	w.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %d", utils.ErrUnsupportedChain, chainID)
	}

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		receipt, err := client.TransactionReceipt(ctx, txHash)
		if receipt != nil {
			return receipt, nil
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) {
			return nil, err
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// SignTypedData signs EIP-712 structured data with the wallet key.
func (w *KeyWallet) SignTypedData(_ context.Context, data apitypes.TypedData) ([]byte, error) {
	sighash, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return nil, fmt.Errorf("hash typed data: %w", err)
	}
	sig, err := crypto.Sign(sighash, w.key)
	if err != nil {
		return nil, fmt.Errorf("sign typed data: %w", err)
	}
	// Shift recovery id to the 27/28 convention expected on-chain.
	sig[64] += 27
	return sig, nil
}

// Close releases all RPC connections.
func (w *KeyWallet) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, client := range w.clients {
		client.Close()
	}
	w.clients = make(map[uint64]*ethclient.Client)
}
