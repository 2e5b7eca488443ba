package utils

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ChainDescriptor describes one settlement network supported by the
// Gateway payment flow. DomainID is the Circle Gateway domain, a
// protocol-level index distinct from the EVM chain id.
type ChainDescriptor struct {
	ChainID         uint64         `json:"chain_id"`
	DomainID        uint32         `json:"domain_id"`
	Name            string         `json:"name"`
	NativeSymbol    string         `json:"native_symbol"`
	USDCAddress     common.Address `json:"usdc_address"`
	ReceiptContract common.Address `json:"receipt_contract"`
	ExplorerURL     string         `json:"explorer_url"`
	ExplorerName    string         `json:"explorer_name"`
	RPCEndpoints    []string       `json:"rpc_endpoints"`
}

// ChainRegistry maps chain ids to their descriptors. Lookups for an
// unconfigured chain fail explicitly; nothing defaults silently.
type ChainRegistry struct {
	byChainID map[uint64]*ChainDescriptor
}

// Chain ids of the two settlement networks wired into the payment flow.
const (
	BaseSepoliaChainID uint64 = 84532
	ArcTestnetChainID  uint64 = 5042002
)

// GlobalChainRegistry is the process-wide registry instance.
var GlobalChainRegistry *ChainRegistry

func init() {
	GlobalChainRegistry = NewChainRegistry([]*ChainDescriptor{
		{
			ChainID:         BaseSepoliaChainID,
			DomainID:        6,
			Name:            "Base Sepolia",
			NativeSymbol:    "ETH",
			USDCAddress:     common.HexToAddress("0x036CbD53842c5426634e7929541eC2318f3dCF7e"),
			ReceiptContract: common.HexToAddress("0x2181D635863e0B51d2c76D9d74271CC23a4101FB"),
			ExplorerURL:     "https://sepolia-explorer.base.org",
			ExplorerName:    "BaseScan",
			RPCEndpoints:    []string{"https://sepolia.base.org"},
		},
		{
			ChainID:         ArcTestnetChainID,
			DomainID:        26,
			Name:            "Arc Testnet",
			NativeSymbol:    "USDC",
			USDCAddress:     common.HexToAddress("0x3600000000000000000000000000000000000000"),
			ReceiptContract: common.HexToAddress("0x2181D635863e0B51d2c76D9d74271CC23a4101FB"),
			ExplorerURL:     "https://testnet.arcscan.app",
			ExplorerName:    "ArcScan",
			RPCEndpoints:    []string{"https://rpc.testnet.arc.network"},
		},
	})
}

// NewChainRegistry builds a registry from a descriptor list.
func NewChainRegistry(chains []*ChainDescriptor) *ChainRegistry {
	r := &ChainRegistry{byChainID: make(map[uint64]*ChainDescriptor, len(chains))}
	for _, chain := range chains {
		r.byChainID[chain.ChainID] = chain
	}
	return r
}

// Resolve returns the descriptor for a chain id or fails for chains
// outside the configured set.
func (r *ChainRegistry) Resolve(chainID uint64) (*ChainDescriptor, error) {
	desc, ok := r.byChainID[chainID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedChain, chainID)
	}
	return desc, nil
}

// IsSupported reports whether a chain id is in the configured set.
func (r *ChainRegistry) IsSupported(chainID uint64) bool {
	_, ok := r.byChainID[chainID]
	return ok
}

// DomainID returns the Gateway domain id for a chain.
func (r *ChainRegistry) DomainID(chainID uint64) (uint32, error) {
	desc, err := r.Resolve(chainID)
	if err != nil {
		return 0, err
	}
	return desc.DomainID, nil
}

// ChainLabel returns the human label for a chain, "Unknown Network" for
// chains outside the registry. Display only, never used for routing.
func (r *ChainRegistry) ChainLabel(chainID uint64) string {
	if desc, ok := r.byChainID[chainID]; ok {
		return desc.Name
	}
	return "Unknown Network"
}

// ExplorerTxURL builds a block-explorer link for a transaction hash.
func (r *ChainRegistry) ExplorerTxURL(chainID uint64, txHash string) (string, error) {
	desc, err := r.Resolve(chainID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/tx/%s", desc.ExplorerURL, txHash), nil
}

// GetRPCEndpoint returns the primary RPC endpoint for a chain.
func (r *ChainRegistry) GetRPCEndpoint(chainID uint64) (string, error) {
	desc, err := r.Resolve(chainID)
	if err != nil {
		return "", err
	}
	if len(desc.RPCEndpoints) == 0 {
		return "", fmt.Errorf("no RPC endpoint for chain: %d", chainID)
	}
	return desc.RPCEndpoints[0], nil
}

// GetAllChains returns every configured descriptor.
func (r *ChainRegistry) GetAllChains() []*ChainDescriptor {
	chains := make([]*ChainDescriptor, 0, len(r.byChainID))
	for _, chain := range r.byChainID {
		chains = append(chains, chain)
	}
	return chains
}
