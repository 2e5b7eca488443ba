package services

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"time"

	"oncult-backend/internal/clients"
	"oncult-backend/internal/contracts"
	"oncult-backend/internal/dto"
	"oncult-backend/internal/metrics"
	"oncult-backend/internal/models"
	"oncult-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrPaymentInFlight rejects a second concurrent payment attempt for
// the same buyer. Two interleaved attempts would race on the wallet's
// nonce and approval state.
var ErrPaymentInFlight = errors.New("a payment for this buyer is already in flight")

// PaymentError is a terminal payment failure with the context needed
// to alert on it: which attempt, the state it died in, and whether the
// buyer's funds are already custodied by the Gateway.
type PaymentError struct {
	PaymentID      string
	State          models.PaymentState
	FundsCustodied bool
	Err            error
}

func (e *PaymentError) Error() string { return e.Err.Error() }

func (e *PaymentError) Unwrap() error { return e.Err }

// ProgressSink receives every state transition of a payment attempt.
type ProgressSink interface {
	OnState(paymentID string, buyer common.Address, state models.PaymentState, detail string)
}

// NopProgressSink discards progress updates.
type NopProgressSink struct{}

func (NopProgressSink) OnState(string, common.Address, models.PaymentState, string) {}

// GatewayPaymentResult is the outcome of a completed Gateway payment.
// Receipt fields are nil when the receipt mint failed; the payment
// itself still succeeded and ReceiptWarning says why.
type GatewayPaymentResult struct {
	PaymentID       string
	TxHash          common.Hash
	ChainID         uint64
	ReceiptContract *common.Address
	ReceiptTokenID  *big.Int
	ReceiptTxHash   *common.Hash
	ReceiptTokenURI string
	ReceiptWarning  string
}

// GatewayOrchestrator drives the cross-chain USDC payment state
// machine: approve, deposit, build and sign burn intents, request
// attestations, replay them as mints on the destination chain, then
// mint the purchase receipt.
//
// The sequence is irreversible past the deposit step: there is no
// compensating transaction if a later step fails, only a loud failure
// with funds custodied by the Gateway.
type GatewayOrchestrator struct {
	registry      *utils.ChainRegistry
	builder       *IntentBuilder
	gateway       *clients.GatewayClient
	minter        *ReceiptMinter
	wallet        Wallet
	progress      ProgressSink
	gatewayWallet common.Address
	gatewayMinter common.Address
	feeRecipient  common.Address

	mu       sync.Mutex
	inFlight map[common.Address]bool
}

// NewGatewayOrchestrator wires the orchestrator. progress may be nil.
func NewGatewayOrchestrator(
	registry *utils.ChainRegistry,
	builder *IntentBuilder,
	gateway *clients.GatewayClient,
	minter *ReceiptMinter,
	wallet Wallet,
	progress ProgressSink,
	gatewayWallet, gatewayMinter, feeRecipient common.Address,
) *GatewayOrchestrator {
	if progress == nil {
		progress = NopProgressSink{}
	}
	return &GatewayOrchestrator{
		registry:      registry,
		builder:       builder,
		gateway:       gateway,
		minter:        minter,
		wallet:        wallet,
		progress:      progress,
		gatewayWallet: gatewayWallet,
		gatewayMinter: gatewayMinter,
		feeRecipient:  feeRecipient,
		inFlight:      make(map[common.Address]bool),
	}
}

// Pay executes one Gateway payment attempt for an item. settleOnArc
// routes the seller's funds to Arc Testnet; otherwise they settle on
// the chain the wallet is currently connected to. Attempts for the
// same buyer are serialized: a second call while one is in flight
// fails with ErrPaymentInFlight.
func (o *GatewayOrchestrator) Pay(ctx context.Context, item *models.Item, settleOnArc bool) (*GatewayPaymentResult, error) {
	buyer := o.wallet.Address()
	if err := o.acquire(buyer); err != nil {
		return nil, err
	}
	defer o.release(buyer)

	paymentID := uuid.NewString()
	started := time.Now()
	metrics.PaymentsStarted.WithLabelValues("gateway").Inc()

	result, err := o.run(ctx, paymentID, item, buyer, settleOnArc)
	if err != nil {
		return nil, err
	}

	metrics.PaymentsCompleted.WithLabelValues("gateway").Inc()
	metrics.PaymentDuration.WithLabelValues("gateway").Observe(time.Since(started).Seconds())
	return result, nil
}

func (o *GatewayOrchestrator) run(ctx context.Context, paymentID string, item *models.Item, buyer common.Address, settleOnArc bool) (*GatewayPaymentResult, error) {
	sourceChainID := o.wallet.ChainID()
	destinationChainID := sourceChainID
	if settleOnArc {
		destinationChainID = utils.ArcTestnetChainID
	}

	// Fail fast on chain and amount problems before any on-chain call.
	source, err := o.registry.Resolve(sourceChainID)
	if err != nil {
		return nil, o.fail(paymentID, buyer, models.StateIdle, false, err)
	}
	destination, err := o.registry.Resolve(destinationChainID)
	if err != nil {
		return nil, o.fail(paymentID, buyer, models.StateIdle, false, err)
	}
	if item.PriceUSDC == "" {
		return nil, o.fail(paymentID, buyer, models.StateIdle, false,
			fmt.Errorf("%w: item %s has no USDC price", utils.ErrInvalidAmountFormat, item.ID))
	}
	gross, err := utils.ParseUSDCAmount(item.PriceUSDC)
	if err != nil {
		return nil, o.fail(paymentID, buyer, models.StateIdle, false, err)
	}

	// Step 1: approve the Gateway wallet to pull the gross amount.
	o.setState(paymentID, buyer, models.StateApproving, "approving USDC")
	if err := o.writeAndWait(ctx, sourceChainID, ContractCall{
		To:     source.USDCAddress,
		ABI:    contracts.ERC20ABI,
		Method: "approve",
		Args:   []interface{}{o.gatewayWallet, gross},
	}); err != nil {
		return nil, o.fail(paymentID, buyer, models.StateApproving, false, err)
	}

	// Step 2: deposit into the Gateway wallet. The attestation service
	// validates against a funded balance, so this must land first.
	// Everything from here on is irreversible.
	o.setState(paymentID, buyer, models.StateDepositing, "depositing to Gateway")
	if err := o.writeAndWait(ctx, sourceChainID, ContractCall{
		To:     o.gatewayWallet,
		ABI:    contracts.GatewayWalletABI,
		Method: "deposit",
		Args:   []interface{}{source.USDCAddress, gross},
	}); err != nil {
		return nil, o.fail(paymentID, buyer, models.StateDepositing, false, err)
	}

	// Step 3: fee split and intent construction, seller leg first.
	o.setState(paymentID, buyer, models.StateBuildingIntents, "building burn intents")
	feeAmount, sellerAmount := SplitFee(gross, item.ListingType)

	sellerSalt, err := utils.NewIntentSalt()
	if err != nil {
		return nil, o.fail(paymentID, buyer, models.StateBuildingIntents, true, err)
	}
	sellerIntent, err := o.builder.Build(BurnIntentParams{
		SourceChainID:      sourceChainID,
		DestinationChainID: destinationChainID,
		Depositor:          buyer,
		Recipient:          common.HexToAddress(item.Owner),
		Amount:             sellerAmount,
		Salt:               sellerSalt,
	})
	if err != nil {
		return nil, o.fail(paymentID, buyer, models.StateBuildingIntents, true, err)
	}

	// The fee leg is omitted entirely when the computed fee is zero.
	var feeIntent *BurnIntent
	if feeAmount.Sign() > 0 {
		feeSalt, err := utils.NewIntentSalt()
		if err != nil {
			return nil, o.fail(paymentID, buyer, models.StateBuildingIntents, true, err)
		}
		feeIntent, err = o.builder.Build(BurnIntentParams{
			SourceChainID:      sourceChainID,
			DestinationChainID: destinationChainID,
			Depositor:          buyer,
			Recipient:          o.feeRecipient,
			Amount:             feeAmount,
			Salt:               feeSalt,
		})
		if err != nil {
			return nil, o.fail(paymentID, buyer, models.StateBuildingIntents, true, err)
		}
	}

	// Step 4: sign sequentially, seller leg first. A rejection of
	// either signature aborts before anything is submitted.
	o.setState(paymentID, buyer, models.StateSigning, "signing burn intents")
	sellerSig, err := o.wallet.SignTypedData(ctx, sellerIntent.TypedData())
	if err != nil {
		return nil, o.fail(paymentID, buyer, models.StateSigning, true, err)
	}
	entries := []dto.TransferRequestEntry{
		{BurnIntent: sellerIntent.Wire(), Signature: hexutil.Encode(sellerSig)},
	}
	if feeIntent != nil {
		feeSig, err := o.wallet.SignTypedData(ctx, feeIntent.TypedData())
		if err != nil {
			return nil, o.fail(paymentID, buyer, models.StateSigning, true, err)
		}
		entries = append(entries, dto.TransferRequestEntry{
			BurnIntent: feeIntent.Wire(), Signature: hexutil.Encode(feeSig),
		})
	}

	// Step 5: one batched attestation request; responses come back in
	// submission order or not at all.
	o.setState(paymentID, buyer, models.StateAttestationRequested, "requesting Gateway attestation")
	attestStarted := time.Now()
	attestations, err := o.gateway.RequestTransfer(ctx, entries)
	metrics.AttestationDuration.Observe(time.Since(attestStarted).Seconds())
	if err != nil {
		metrics.AttestationRequests.WithLabelValues("error").Inc()
		return nil, o.fail(paymentID, buyer, models.StateAttestationRequested, true, err)
	}
	metrics.AttestationRequests.WithLabelValues("ok").Inc()

	sellerAttestation := attestations[0]
	if sellerAttestation.Payload == "" || sellerAttestation.Signature == "" {
		return nil, o.fail(paymentID, buyer, models.StateAttestationReceived, true,
			fmt.Errorf("%w: response missing seller attestation", clients.ErrAttestationFailed))
	}
	o.setState(paymentID, buyer, models.StateAttestationReceived, "attestation received")

	// Step 6: the mint is a destination-chain transaction; switch only
	// when the destination differs from the source.
	if sourceChainID != destinationChainID {
		o.setState(paymentID, buyer, models.StateSwitchingChain, "switching to "+destination.Name)
		if err := o.wallet.SwitchChain(ctx, destinationChainID); err != nil {
			return nil, o.fail(paymentID, buyer, models.StateSwitchingChain, true, err)
		}
	}

	// Step 7: replay the seller attestation as the primary mint. The
	// fee mint follows but its failure must not block the seller leg.
	o.setState(paymentID, buyer, models.StateMinting, "minting on "+destination.Name)
	sellerPayload, sellerAttSig, err := decodeAttestation(sellerAttestation)
	if err != nil {
		return nil, o.fail(paymentID, buyer, models.StateMinting, true, err)
	}
	txHash, err := o.wallet.WriteContract(ctx, ContractCall{
		To:     o.gatewayMinter,
		ABI:    contracts.GatewayMinterABI,
		Method: "gatewayMint",
		Args:   []interface{}{sellerPayload, sellerAttSig},
	})
	if err != nil {
		return nil, o.fail(paymentID, buyer, models.StateMinting, true, err)
	}

	if len(attestations) > 1 {
		o.mintFeeLeg(ctx, paymentID, attestations[1])
	}

	// Step 8: receipt mint on the destination chain. Non-fatal: the
	// payment stands even when this leg fails.
	o.setState(paymentID, buyer, models.StateReceiptMinting, "minting purchase receipt")
	result := &GatewayPaymentResult{
		PaymentID: paymentID,
		TxHash:    txHash,
		ChainID:   destinationChainID,
	}
	o.mintPurchaseReceipt(ctx, paymentID, item, buyer, destination, result)

	o.setState(paymentID, buyer, models.StateComplete, "payment complete")
	return result, nil
}

// mintFeeLeg replays the fee attestation. Fire-and-forget relative to
// the payment result; failures are logged, never swallowed silently.
func (o *GatewayOrchestrator) mintFeeLeg(ctx context.Context, paymentID string, attestation clients.Attestation) {
	if attestation.Payload == "" || attestation.Signature == "" {
		logrus.WithField("payment_id", paymentID).Error("fee attestation missing from Gateway response; fee leg unminted")
		return
	}
	payload, sig, err := decodeAttestation(attestation)
	if err != nil {
		logrus.WithField("payment_id", paymentID).WithError(err).Error("fee attestation undecodable; fee leg unminted")
		return
	}
	if _, err := o.wallet.WriteContract(ctx, ContractCall{
		To:     o.gatewayMinter,
		ABI:    contracts.GatewayMinterABI,
		Method: "gatewayMint",
		Args:   []interface{}{payload, sig},
	}); err != nil {
		logrus.WithField("payment_id", paymentID).WithError(err).Error("fee leg mint failed")
	}
}

// mintPurchaseReceipt issues the receipt NFT on the destination chain
// and fills the receipt fields of the result. On failure the result
// keeps nil receipt fields and carries a user-visible warning.
func (o *GatewayOrchestrator) mintPurchaseReceipt(ctx context.Context, paymentID string, item *models.Item, buyer common.Address, destination *utils.ChainDescriptor, result *GatewayPaymentResult) {
	tokenURI := o.minter.BuildTokenURI(item, buyer)
	itemID := OnchainItemID(item.ID)

	// USDC payments carry no native-currency value leg: zero price,
	// zero fee-bps, no attached value.
	receiptTxHash, err := o.wallet.WriteContract(ctx, ContractCall{
		To:     destination.ReceiptContract,
		ABI:    contracts.ReceiptABI,
		Method: "mintReceipt",
		Args: []interface{}{
			buyer,
			itemID,
			common.HexToAddress(item.Owner),
			big.NewInt(0),
			uint16(0),
			tokenURI,
		},
	})
	if err != nil {
		o.receiptMintFailed(paymentID, result, err)
		return
	}

	receipt, err := o.wallet.WaitForReceipt(ctx, destination.ChainID, receiptTxHash)
	if err != nil {
		o.receiptMintFailed(paymentID, result, err)
		return
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		o.receiptMintFailed(paymentID, result, fmt.Errorf("receipt mint reverted: %s", receiptTxHash.Hex()))
		return
	}

	contractAddr := destination.ReceiptContract
	result.ReceiptContract = &contractAddr
	result.ReceiptTxHash = &receiptTxHash
	result.ReceiptTokenURI = tokenURI
	if tokenID, err := DecodeMintedTokenID(receipt, destination.ReceiptContract); err == nil {
		result.ReceiptTokenID = tokenID
	} else {
		logrus.WithField("payment_id", paymentID).WithError(err).Warn("minted token id not found in logs")
	}
	metrics.ReceiptMints.WithLabelValues("ok").Inc()
}

func (o *GatewayOrchestrator) receiptMintFailed(paymentID string, result *GatewayPaymentResult, err error) {
	metrics.ReceiptMints.WithLabelValues("failed").Inc()
	logrus.WithField("payment_id", paymentID).WithError(err).Error("receipt mint failed after Gateway payment")
	result.ReceiptWarning = "receipt mint failed on destination chain"
}

// writeAndWait submits a write on the given chain and blocks until it
// is mined successfully.
func (o *GatewayOrchestrator) writeAndWait(ctx context.Context, chainID uint64, call ContractCall) error {
	txHash, err := o.wallet.WriteContract(ctx, call)
	if err != nil {
		return err
	}
	receipt, err := o.wallet.WaitForReceipt(ctx, chainID, txHash)
	if err != nil {
		return fmt.Errorf("await %s tx %s: %w", call.Method, txHash.Hex(), err)
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return fmt.Errorf("%s tx reverted: %s", call.Method, txHash.Hex())
	}
	return nil
}

func (o *GatewayOrchestrator) acquire(buyer common.Address) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.inFlight[buyer] {
		return ErrPaymentInFlight
	}
	o.inFlight[buyer] = true
	return nil
}

func (o *GatewayOrchestrator) release(buyer common.Address) {
	o.mu.Lock()
	defer o.mu.Unlock()
	delete(o.inFlight, buyer)
}

func (o *GatewayOrchestrator) setState(paymentID string, buyer common.Address, state models.PaymentState, detail string) {
	metrics.PaymentStateTransitions.WithLabelValues(string(state)).Inc()
	logrus.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"buyer":      buyer.Hex(),
		"state":      state,
	}).Info(detail)
	o.progress.OnState(paymentID, buyer, state, detail)
}

// fail records a terminal failure and wraps the causing error in a
// PaymentError. fundsCustodied marks failures past the deposit step,
// where the buyer's USDC sits in the Gateway with no seller mint and
// no automatic recovery.
func (o *GatewayOrchestrator) fail(paymentID string, buyer common.Address, state models.PaymentState, fundsCustodied bool, err error) error {
	reason := ClassifyFailure(err)
	metrics.PaymentsFailed.WithLabelValues("gateway", string(state), string(reason)).Inc()
	if fundsCustodied {
		metrics.PaymentsStrandedFunds.Inc()
	}

	logrus.WithFields(logrus.Fields{
		"payment_id":      paymentID,
		"buyer":           buyer.Hex(),
		"state":           state,
		"reason":          reason,
		"funds_custodied": fundsCustodied,
	}).WithError(err).Error("gateway payment failed")
	o.progress.OnState(paymentID, buyer, models.StateFailed, err.Error())
	return &PaymentError{
		PaymentID:      paymentID,
		State:          state,
		FundsCustodied: fundsCustodied,
		Err:            err,
	}
}

// ClassifyFailure maps an error to its failure taxonomy bucket.
func ClassifyFailure(err error) models.FailureReason {
	switch {
	case errors.Is(err, ErrUserRejected):
		return models.FailureUserRejected
	case errors.Is(err, utils.ErrUnsupportedChain):
		return models.FailureUnsupportedChain
	case errors.Is(err, utils.ErrInvalidAmountFormat):
		return models.FailureInvalidAmount
	case errors.Is(err, clients.ErrAttestationFailed):
		return models.FailureAttestation
	case errors.Is(err, ErrPaymentInFlight):
		return models.FailureInFlight
	default:
		return models.FailureOnChain
	}
}

func decodeAttestation(attestation clients.Attestation) ([]byte, []byte, error) {
	payload, err := hexutil.Decode(attestation.Payload)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: undecodable attestation payload", clients.ErrAttestationFailed)
	}
	sig, err := hexutil.Decode(attestation.Signature)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: undecodable attestation signature", clients.ErrAttestationFailed)
	}
	return payload, sig, nil
}
