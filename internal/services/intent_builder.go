package services

import (
	"fmt"
	"math/big"

	"oncult-backend/internal/dto"
	"oncult-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// TransferSpecVersion is the Gateway protocol version this service
// speaks.
const TransferSpecVersion uint32 = 1

// MaxUint256 is the "unbounded" block height bound used on every
// intent.
var MaxUint256 = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

// TransferSpec is the payload of a burn intent: a single-use
// instruction to move a fixed USDC amount between two Gateway domains.
type TransferSpec struct {
	Version              uint32
	SourceDomain         uint32
	DestinationDomain    uint32
	SourceContract       common.Address
	DestinationContract  common.Address
	SourceToken          common.Address
	DestinationToken     common.Address
	SourceDepositor      common.Address
	DestinationRecipient common.Address
	SourceSigner         common.Address
	DestinationCaller    common.Address // zero = any caller may execute the mint
	Value                *big.Int
	Salt                 [32]byte
	HookData             []byte // unused, always empty
}

// BurnIntent is a signed-once, submitted-once instruction for the
// Gateway. Not persisted; discarded after the attestation response.
type BurnIntent struct {
	MaxBlockHeight *big.Int
	MaxFee         *big.Int
	Spec           TransferSpec
}

// BurnIntentParams are the caller-supplied inputs for one intent leg.
// The salt must be freshly drawn per leg.
type BurnIntentParams struct {
	SourceChainID      uint64
	DestinationChainID uint64
	Depositor          common.Address
	Recipient          common.Address
	Amount             *big.Int
	Salt               [32]byte
}

// IntentBuilder assembles burn intents from resolved chain descriptors.
// Pure construction, no I/O.
type IntentBuilder struct {
	registry      *utils.ChainRegistry
	gatewayWallet common.Address
	gatewayMinter common.Address
	maxFee        *big.Int
}

// NewIntentBuilder creates an IntentBuilder. maxFee is the per-intent
// Gateway fee budget in smallest USDC units.
func NewIntentBuilder(registry *utils.ChainRegistry, gatewayWallet, gatewayMinter common.Address, maxFee *big.Int) *IntentBuilder {
	return &IntentBuilder{
		registry:      registry,
		gatewayWallet: gatewayWallet,
		gatewayMinter: gatewayMinter,
		maxFee:        maxFee,
	}
}

// Build assembles a burn intent for one payment leg. Both chains must
// be in the registry; the signer is always the depositor and the
// destination caller is unrestricted.
func (b *IntentBuilder) Build(p BurnIntentParams) (*BurnIntent, error) {
	source, err := b.registry.Resolve(p.SourceChainID)
	if err != nil {
		return nil, err
	}
	destination, err := b.registry.Resolve(p.DestinationChainID)
	if err != nil {
		return nil, err
	}
	if p.Amount == nil || p.Amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: intent amount must be non-negative", utils.ErrInvalidAmountFormat)
	}

	return &BurnIntent{
		MaxBlockHeight: new(big.Int).Set(MaxUint256),
		MaxFee:         new(big.Int).Set(b.maxFee),
		Spec: TransferSpec{
			Version:              TransferSpecVersion,
			SourceDomain:         source.DomainID,
			DestinationDomain:    destination.DomainID,
			SourceContract:       b.gatewayWallet,
			DestinationContract:  b.gatewayMinter,
			SourceToken:          source.USDCAddress,
			DestinationToken:     destination.USDCAddress,
			SourceDepositor:      p.Depositor,
			DestinationRecipient: p.Recipient,
			SourceSigner:         p.Depositor,
			DestinationCaller:    common.Address{},
			Value:                new(big.Int).Set(p.Amount),
			Salt:                 p.Salt,
			HookData:             nil,
		},
	}, nil
}

// Wire serializes the intent for the attestation API: bigints as
// decimal strings, addresses left-padded to bytes32 hex.
func (bi *BurnIntent) Wire() dto.BurnIntentWire {
	spec := bi.Spec
	return dto.BurnIntentWire{
		MaxBlockHeight: bi.MaxBlockHeight.String(),
		MaxFee:         bi.MaxFee.String(),
		Spec: dto.TransferSpecWire{
			Version:              spec.Version,
			SourceDomain:         spec.SourceDomain,
			DestinationDomain:    spec.DestinationDomain,
			SourceContract:       addressToBytes32Hex(spec.SourceContract),
			DestinationContract:  addressToBytes32Hex(spec.DestinationContract),
			SourceToken:          addressToBytes32Hex(spec.SourceToken),
			DestinationToken:     addressToBytes32Hex(spec.DestinationToken),
			SourceDepositor:      addressToBytes32Hex(spec.SourceDepositor),
			DestinationRecipient: addressToBytes32Hex(spec.DestinationRecipient),
			SourceSigner:         addressToBytes32Hex(spec.SourceSigner),
			DestinationCaller:    addressToBytes32Hex(spec.DestinationCaller),
			Value:                spec.Value.String(),
			Salt:                 hexutil.Encode(spec.Salt[:]),
			HookData:             hexutil.Encode(spec.HookData),
		},
	}
}

// ParseWire converts a wire-form intent back into its domain form.
// Used to verify that serialization loses no numeric precision.
func ParseWire(w dto.BurnIntentWire) (*BurnIntent, error) {
	maxBlockHeight, ok := new(big.Int).SetString(w.MaxBlockHeight, 10)
	if !ok {
		return nil, fmt.Errorf("invalid maxBlockHeight: %q", w.MaxBlockHeight)
	}
	maxFee, ok := new(big.Int).SetString(w.MaxFee, 10)
	if !ok {
		return nil, fmt.Errorf("invalid maxFee: %q", w.MaxFee)
	}
	value, ok := new(big.Int).SetString(w.Spec.Value, 10)
	if !ok {
		return nil, fmt.Errorf("invalid value: %q", w.Spec.Value)
	}
	saltBytes, err := hexutil.Decode(w.Spec.Salt)
	if err != nil || len(saltBytes) != 32 {
		return nil, fmt.Errorf("invalid salt: %q", w.Spec.Salt)
	}
	hookData, err := hexutil.Decode(w.Spec.HookData)
	if err != nil {
		return nil, fmt.Errorf("invalid hookData: %q", w.Spec.HookData)
	}
	if len(hookData) == 0 {
		hookData = nil
	}

	var salt [32]byte
	copy(salt[:], saltBytes)

	return &BurnIntent{
		MaxBlockHeight: maxBlockHeight,
		MaxFee:         maxFee,
		Spec: TransferSpec{
			Version:              w.Spec.Version,
			SourceDomain:         w.Spec.SourceDomain,
			DestinationDomain:    w.Spec.DestinationDomain,
			SourceContract:       bytes32HexToAddress(w.Spec.SourceContract),
			DestinationContract:  bytes32HexToAddress(w.Spec.DestinationContract),
			SourceToken:          bytes32HexToAddress(w.Spec.SourceToken),
			DestinationToken:     bytes32HexToAddress(w.Spec.DestinationToken),
			SourceDepositor:      bytes32HexToAddress(w.Spec.SourceDepositor),
			DestinationRecipient: bytes32HexToAddress(w.Spec.DestinationRecipient),
			SourceSigner:         bytes32HexToAddress(w.Spec.SourceSigner),
			DestinationCaller:    bytes32HexToAddress(w.Spec.DestinationCaller),
			Value:                value,
			Salt:                 salt,
			HookData:             hookData,
		},
	}, nil
}

// TypedData builds the EIP-712 structure the wallet signs. The Gateway
// wallet's domain separator carries only name and version.
func (bi *BurnIntent) TypedData() apitypes.TypedData {
	spec := bi.Spec
	return apitypes.TypedData{
		Domain: apitypes.TypedDataDomain{
			Name:    "GatewayWallet",
			Version: "1",
		},
		PrimaryType: "BurnIntent",
		Types: apitypes.Types{
			"EIP712Domain": {
				{Name: "name", Type: "string"},
				{Name: "version", Type: "string"},
			},
			"TransferSpec": {
				{Name: "version", Type: "uint32"},
				{Name: "sourceDomain", Type: "uint32"},
				{Name: "destinationDomain", Type: "uint32"},
				{Name: "sourceContract", Type: "bytes32"},
				{Name: "destinationContract", Type: "bytes32"},
				{Name: "sourceToken", Type: "bytes32"},
				{Name: "destinationToken", Type: "bytes32"},
				{Name: "sourceDepositor", Type: "bytes32"},
				{Name: "destinationRecipient", Type: "bytes32"},
				{Name: "sourceSigner", Type: "bytes32"},
				{Name: "destinationCaller", Type: "bytes32"},
				{Name: "value", Type: "uint256"},
				{Name: "salt", Type: "bytes32"},
				{Name: "hookData", Type: "bytes"},
			},
			"BurnIntent": {
				{Name: "maxBlockHeight", Type: "uint256"},
				{Name: "maxFee", Type: "uint256"},
				{Name: "spec", Type: "TransferSpec"},
			},
		},
		Message: apitypes.TypedDataMessage{
			"maxBlockHeight": bi.MaxBlockHeight.String(),
			"maxFee":         bi.MaxFee.String(),
			"spec": map[string]interface{}{
				"version":              fmt.Sprintf("%d", spec.Version),
				"sourceDomain":         fmt.Sprintf("%d", spec.SourceDomain),
				"destinationDomain":    fmt.Sprintf("%d", spec.DestinationDomain),
				"sourceContract":       addressToBytes32Hex(spec.SourceContract),
				"destinationContract":  addressToBytes32Hex(spec.DestinationContract),
				"sourceToken":          addressToBytes32Hex(spec.SourceToken),
				"destinationToken":     addressToBytes32Hex(spec.DestinationToken),
				"sourceDepositor":      addressToBytes32Hex(spec.SourceDepositor),
				"destinationRecipient": addressToBytes32Hex(spec.DestinationRecipient),
				"sourceSigner":         addressToBytes32Hex(spec.SourceSigner),
				"destinationCaller":    addressToBytes32Hex(spec.DestinationCaller),
				"value":                spec.Value.String(),
				"salt":                 hexutil.Encode(spec.Salt[:]),
				"hookData":             hexutil.Encode(spec.HookData),
			},
		},
	}
}

func addressToBytes32Hex(addr common.Address) string {
	return hexutil.Encode(common.LeftPadBytes(addr.Bytes(), 32))
}

func bytes32HexToAddress(value string) common.Address {
	return common.BytesToAddress(common.FromHex(value))
}
