package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveKnownChains(t *testing.T) {
	base, err := GlobalChainRegistry.Resolve(BaseSepoliaChainID)
	require.NoError(t, err)
	assert.Equal(t, uint32(6), base.DomainID)
	assert.Equal(t, "0x036CbD53842c5426634e7929541eC2318f3dCF7e", base.USDCAddress.Hex())

	arc, err := GlobalChainRegistry.Resolve(ArcTestnetChainID)
	require.NoError(t, err)
	assert.Equal(t, uint32(26), arc.DomainID)
}

func TestResolveUnknownChainFailsClosed(t *testing.T) {
	_, err := GlobalChainRegistry.Resolve(1)
	require.ErrorIs(t, err, ErrUnsupportedChain)

	_, err = GlobalChainRegistry.DomainID(31337)
	require.ErrorIs(t, err, ErrUnsupportedChain)

	assert.False(t, GlobalChainRegistry.IsSupported(1))
	assert.True(t, GlobalChainRegistry.IsSupported(BaseSepoliaChainID))
}

func TestChainLabelFallback(t *testing.T) {
	assert.Equal(t, "Base Sepolia", GlobalChainRegistry.ChainLabel(BaseSepoliaChainID))
	assert.Equal(t, "Unknown Network", GlobalChainRegistry.ChainLabel(999999))
}

func TestExplorerTxURL(t *testing.T) {
	url, err := GlobalChainRegistry.ExplorerTxURL(BaseSepoliaChainID, "0xabc")
	require.NoError(t, err)
	assert.Contains(t, url, "/tx/0xabc")

	_, err = GlobalChainRegistry.ExplorerTxURL(1, "0xabc")
	require.ErrorIs(t, err, ErrUnsupportedChain)
}

func TestReceiptContractSharedAcrossChains(t *testing.T) {
	base, err := GlobalChainRegistry.Resolve(BaseSepoliaChainID)
	require.NoError(t, err)
	arc, err := GlobalChainRegistry.Resolve(ArcTestnetChainID)
	require.NoError(t, err)
	assert.Equal(t, base.ReceiptContract, arc.ReceiptContract)
}
