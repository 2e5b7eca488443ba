package services

import (
	"math/big"
	"testing"

	"oncult-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testGatewayWallet = common.HexToAddress("0x0077777d7EBA4688BDeF3E311b846F25870A19B9")
	testGatewayMinter = common.HexToAddress("0x0022222ABE238Cc2C7Bb1f21003F0a260052475B")
	testDepositor     = common.HexToAddress("0x742d35Cc6634C0532925a3b0F26750C66d78EB66")
	testRecipient     = common.HexToAddress("0x1111111111111111111111111111111111111111")
)

func newTestBuilder() *IntentBuilder {
	return NewIntentBuilder(utils.GlobalChainRegistry, testGatewayWallet, testGatewayMinter, big.NewInt(2010000))
}

func testSalt(b byte) [32]byte {
	var salt [32]byte
	salt[31] = b
	return salt
}

func TestBuildPopulatesSpec(t *testing.T) {
	intent, err := newTestBuilder().Build(BurnIntentParams{
		SourceChainID:      utils.BaseSepoliaChainID,
		DestinationChainID: utils.ArcTestnetChainID,
		Depositor:          testDepositor,
		Recipient:          testRecipient,
		Amount:             big.NewInt(1187500),
		Salt:               testSalt(7),
	})
	require.NoError(t, err)

	spec := intent.Spec
	assert.Equal(t, uint32(1), spec.Version)
	assert.Equal(t, uint32(6), spec.SourceDomain)
	assert.Equal(t, uint32(26), spec.DestinationDomain)
	assert.Equal(t, testGatewayWallet, spec.SourceContract)
	assert.Equal(t, testGatewayMinter, spec.DestinationContract)
	assert.Equal(t, testDepositor, spec.SourceDepositor)
	assert.Equal(t, testRecipient, spec.DestinationRecipient)
	assert.Equal(t, testDepositor, spec.SourceSigner, "signer is always the depositor")
	assert.Equal(t, common.Address{}, spec.DestinationCaller, "mint execution is unrestricted")
	assert.Empty(t, spec.HookData)
	assert.Equal(t, testSalt(7), spec.Salt)

	assert.Zero(t, intent.MaxBlockHeight.Cmp(MaxUint256))
	assert.Equal(t, int64(2010000), intent.MaxFee.Int64())
}

func TestBuildRejectsUnsupportedChain(t *testing.T) {
	_, err := newTestBuilder().Build(BurnIntentParams{
		SourceChainID:      1,
		DestinationChainID: utils.ArcTestnetChainID,
		Depositor:          testDepositor,
		Recipient:          testRecipient,
		Amount:             big.NewInt(1),
		Salt:               testSalt(1),
	})
	require.ErrorIs(t, err, utils.ErrUnsupportedChain)

	_, err = newTestBuilder().Build(BurnIntentParams{
		SourceChainID:      utils.BaseSepoliaChainID,
		DestinationChainID: 31337,
		Depositor:          testDepositor,
		Recipient:          testRecipient,
		Amount:             big.NewInt(1),
		Salt:               testSalt(2),
	})
	require.ErrorIs(t, err, utils.ErrUnsupportedChain)
}

func TestBuildRejectsBadAmounts(t *testing.T) {
	_, err := newTestBuilder().Build(BurnIntentParams{
		SourceChainID:      utils.BaseSepoliaChainID,
		DestinationChainID: utils.ArcTestnetChainID,
		Depositor:          testDepositor,
		Recipient:          testRecipient,
		Amount:             big.NewInt(-1),
		Salt:               testSalt(3),
	})
	require.ErrorIs(t, err, utils.ErrInvalidAmountFormat)
}

func TestWireRoundTripKeepsBigintPrecision(t *testing.T) {
	// Value beyond float64's 53-bit integer range; a float hop would
	// corrupt it.
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	intent, err := newTestBuilder().Build(BurnIntentParams{
		SourceChainID:      utils.BaseSepoliaChainID,
		DestinationChainID: utils.ArcTestnetChainID,
		Depositor:          testDepositor,
		Recipient:          testRecipient,
		Amount:             huge,
		Salt:               testSalt(9),
	})
	require.NoError(t, err)

	parsed, err := ParseWire(intent.Wire())
	require.NoError(t, err)
	assert.Zero(t, parsed.Spec.Value.Cmp(huge))
	assert.Zero(t, parsed.MaxBlockHeight.Cmp(MaxUint256))
	assert.Equal(t, intent.Spec, parsed.Spec)
}

func TestWireAddressesAreBytes32(t *testing.T) {
	intent, err := newTestBuilder().Build(BurnIntentParams{
		SourceChainID:      utils.BaseSepoliaChainID,
		DestinationChainID: utils.BaseSepoliaChainID,
		Depositor:          testDepositor,
		Recipient:          testRecipient,
		Amount:             big.NewInt(1),
		Salt:               testSalt(4),
	})
	require.NoError(t, err)

	wire := intent.Wire()
	assert.Len(t, wire.Spec.SourceDepositor, 66, "bytes32 hex with 0x prefix")
	assert.Equal(t, "0x000000000000000000000000742d35cc6634c0532925a3b0f26750c66d78eb66", wire.Spec.SourceDepositor)
	assert.Equal(t, "0x0000000000000000000000000000000000000000000000000000000000000000", wire.Spec.DestinationCaller)
	assert.Equal(t, "0x", wire.Spec.HookData)
}

func TestTypedDataShape(t *testing.T) {
	intent, err := newTestBuilder().Build(BurnIntentParams{
		SourceChainID:      utils.BaseSepoliaChainID,
		DestinationChainID: utils.ArcTestnetChainID,
		Depositor:          testDepositor,
		Recipient:          testRecipient,
		Amount:             big.NewInt(1250000),
		Salt:               testSalt(5),
	})
	require.NoError(t, err)

	td := intent.TypedData()
	assert.Equal(t, "BurnIntent", td.PrimaryType)
	assert.Equal(t, "GatewayWallet", td.Domain.Name)
	assert.Equal(t, "1", td.Domain.Version)
	assert.Nil(t, td.Domain.ChainId, "domain separator has no chain id")
	require.Len(t, td.Types["EIP712Domain"], 2)
	require.Len(t, td.Types["TransferSpec"], 14)
	require.Len(t, td.Types["BurnIntent"], 3)
}
