package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"oncult-backend/internal/clients"
	"oncult-backend/internal/contracts"
	"oncult-backend/internal/models"
	"oncult-backend/internal/utils"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedWrite struct {
	call   ContractCall
	txHash common.Hash
}

// fakeWallet is an in-memory Wallet for driving the orchestrator
// without chains.
type fakeWallet struct {
	mu       sync.Mutex
	address  common.Address
	chainID  uint64
	writes   []recordedWrite
	switches []uint64
	signed   []apitypes.TypedData

	signErr          error
	writeErrByMethod map[string]error
	revertMethods    map[string]bool
	mintedTokenID    *big.Int

	approveGate    chan struct{} // when set, the first approve blocks until closed
	approveEntered chan struct{}
	gateUsed       bool
}

func newFakeWallet(chainID uint64) *fakeWallet {
	return &fakeWallet{
		address: common.HexToAddress("0x742d35Cc6634C0532925a3b0F26750C66d78EB66"),
		chainID: chainID,
	}
}

func (w *fakeWallet) Address() common.Address { return w.address }

func (w *fakeWallet) ChainID() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.chainID
}

func (w *fakeWallet) SwitchChain(_ context.Context, chainID uint64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.switches = append(w.switches, chainID)
	w.chainID = chainID
	return nil
}

func (w *fakeWallet) WriteContract(_ context.Context, call ContractCall) (common.Hash, error) {
	w.mu.Lock()
	if call.Method == "approve" && w.approveGate != nil && !w.gateUsed {
		w.gateUsed = true
		gate := w.approveGate
		w.mu.Unlock()
		close(w.approveEntered)
		<-gate
		w.mu.Lock()
	}
	defer w.mu.Unlock()
	if err := w.writeErrByMethod[call.Method]; err != nil {
		return common.Hash{}, err
	}
	txHash := crypto.Keccak256Hash([]byte(fmt.Sprintf("%s-%d", call.Method, len(w.writes))))
	w.writes = append(w.writes, recordedWrite{call: call, txHash: txHash})
	return txHash, nil
}

func (w *fakeWallet) WaitForReceipt(_ context.Context, _ uint64, txHash common.Hash) (*types.Receipt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, write := range w.writes {
		if write.txHash != txHash {
			continue
		}
		if w.revertMethods[write.call.Method] {
			return &types.Receipt{Status: types.ReceiptStatusFailed}, nil
		}
		receipt := &types.Receipt{Status: types.ReceiptStatusSuccessful}
		if write.call.Method == "mintReceipt" && w.mintedTokenID != nil {
			receipt.Logs = []*types.Log{{
				Address: write.call.To,
				Topics: []common.Hash{
					contracts.ReceiptABI.Events[contracts.ReceiptMintedEvent].ID,
					common.BigToHash(w.mintedTokenID),
				},
			}}
		}
		return receipt, nil
	}
	return nil, fmt.Errorf("unknown tx %s", txHash.Hex())
}

func (w *fakeWallet) SignTypedData(_ context.Context, data apitypes.TypedData) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.signErr != nil {
		return nil, w.signErr
	}
	w.signed = append(w.signed, data)
	return make([]byte, 65), nil
}

func (w *fakeWallet) methodSequence() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	methods := make([]string, len(w.writes))
	for i, write := range w.writes {
		methods[i] = write.call.Method
	}
	return methods
}

// stateRecorder captures the progression for assertions.
type stateRecorder struct {
	mu     sync.Mutex
	states []models.PaymentState
}

func (r *stateRecorder) OnState(_ string, _ common.Address, state models.PaymentState, _ string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}

func (r *stateRecorder) recorded() []models.PaymentState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.PaymentState(nil), r.states...)
}

func jsonArrayLen(r *http.Request, count *int) error {
	var entries []json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&entries); err != nil {
		return err
	}
	*count = len(entries)
	return nil
}

func attestationServer(t *testing.T, hits *int) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			*hits++
		}
		// One attestation per submitted entry, in order.
		var count int
		if err := jsonArrayLen(r, &count); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		body := "["
		for i := 0; i < count; i++ {
			if i > 0 {
				body += ","
			}
			body += fmt.Sprintf(`{"attestation":"0x%02x","signature":"0x%02x"}`, 0xa0+i, 0xb0+i)
		}
		body += "]"
		w.Write([]byte(body))
	}))
}

func newTestOrchestrator(wallet *fakeWallet, gatewayURL string, sink ProgressSink) *GatewayOrchestrator {
	builder := NewIntentBuilder(utils.GlobalChainRegistry, testGatewayWallet, testGatewayMinter, big.NewInt(2010000))
	gateway := clients.NewGatewayClient(gatewayURL, "", 5*time.Second)
	minter := NewReceiptMinter(utils.GlobalChainRegistry, "https://img.example/receipt.png", "Oncult purchase receipt")
	feeRecipient := common.HexToAddress("0x2222222222222222222222222222222222222222")
	return NewGatewayOrchestrator(
		utils.GlobalChainRegistry, builder, gateway, minter, wallet, sink,
		testGatewayWallet, testGatewayMinter, feeRecipient,
	)
}

func testItem() *models.Item {
	return &models.Item{
		ID:          "11111111-2222-3333-4444-555555555555",
		Name:        "Midnight Set",
		Price:       "0.01 ETH",
		PriceUSDC:   "1.25",
		ListingType: models.ListingTypeArtist,
		Owner:       "0x9999999999999999999999999999999999999999",
	}
}

func TestGatewayPayHappyPathCrossChain(t *testing.T) {
	wallet := newFakeWallet(utils.BaseSepoliaChainID)
	wallet.mintedTokenID = big.NewInt(42)
	srv := attestationServer(t, nil)
	defer srv.Close()
	sink := &stateRecorder{}

	orchestrator := newTestOrchestrator(wallet, srv.URL, sink)
	result, err := orchestrator.Pay(context.Background(), testItem(), true)
	require.NoError(t, err)

	assert.Equal(t, []string{"approve", "deposit", "gatewayMint", "gatewayMint", "mintReceipt"}, wallet.methodSequence())
	assert.Equal(t, []uint64{utils.ArcTestnetChainID}, wallet.switches)

	// Seller leg signed first: net 1187500, then the 62500 fee leg.
	require.Len(t, wallet.signed, 2)
	sellerSpec := wallet.signed[0].Message["spec"].(map[string]interface{})
	feeSpec := wallet.signed[1].Message["spec"].(map[string]interface{})
	assert.Equal(t, "1187500", sellerSpec["value"])
	assert.Equal(t, "62500", feeSpec["value"])

	assert.Equal(t, utils.ArcTestnetChainID, result.ChainID)
	assert.NotEmpty(t, result.PaymentID)
	assert.Empty(t, result.ReceiptWarning)
	require.NotNil(t, result.ReceiptTokenID)
	assert.Equal(t, int64(42), result.ReceiptTokenID.Int64())
	require.NotNil(t, result.ReceiptContract)
	require.NotNil(t, result.ReceiptTxHash)

	assert.Equal(t, []models.PaymentState{
		models.StateApproving,
		models.StateDepositing,
		models.StateBuildingIntents,
		models.StateSigning,
		models.StateAttestationRequested,
		models.StateAttestationReceived,
		models.StateSwitchingChain,
		models.StateMinting,
		models.StateReceiptMinting,
		models.StateComplete,
	}, sink.recorded())
}

func TestGatewayPayZeroFeeSkipsFeeLeg(t *testing.T) {
	wallet := newFakeWallet(utils.BaseSepoliaChainID)
	srv := attestationServer(t, nil)
	defer srv.Close()

	item := testItem()
	item.PriceUSDC = "0.000019" // 19 units, 5% floors to zero

	orchestrator := newTestOrchestrator(wallet, srv.URL, NopProgressSink{})
	_, err := orchestrator.Pay(context.Background(), item, false)
	require.NoError(t, err)

	assert.Len(t, wallet.signed, 1, "no fee intent when the fee is zero")
	assert.Equal(t, []string{"approve", "deposit", "gatewayMint", "mintReceipt"}, wallet.methodSequence())
}

func TestGatewayPaySameChainSkipsSwitch(t *testing.T) {
	wallet := newFakeWallet(utils.BaseSepoliaChainID)
	srv := attestationServer(t, nil)
	defer srv.Close()
	sink := &stateRecorder{}

	orchestrator := newTestOrchestrator(wallet, srv.URL, sink)
	result, err := orchestrator.Pay(context.Background(), testItem(), false)
	require.NoError(t, err)

	assert.Empty(t, wallet.switches)
	assert.NotContains(t, sink.recorded(), models.StateSwitchingChain)
	assert.Equal(t, utils.BaseSepoliaChainID, result.ChainID)
}

func TestGatewayPayAttestationFailureStopsBeforeMint(t *testing.T) {
	wallet := newFakeWallet(utils.BaseSepoliaChainID)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"attestation service unavailable"}`))
	}))
	defer srv.Close()
	sink := &stateRecorder{}

	orchestrator := newTestOrchestrator(wallet, srv.URL, sink)
	_, err := orchestrator.Pay(context.Background(), testItem(), true)
	require.ErrorIs(t, err, clients.ErrAttestationFailed)
	assert.Contains(t, err.Error(), "attestation service unavailable")

	var pErr *PaymentError
	require.ErrorAs(t, err, &pErr)
	assert.NotEmpty(t, pErr.PaymentID)
	assert.Equal(t, models.StateAttestationRequested, pErr.State)
	assert.True(t, pErr.FundsCustodied, "the deposit landed before the attestation failed")

	assert.Equal(t, []string{"approve", "deposit"}, wallet.methodSequence(), "no mint after a failed attestation")
	states := sink.recorded()
	assert.Equal(t, models.StateFailed, states[len(states)-1])
}

func TestGatewayPayReceiptRevertIsNonFatal(t *testing.T) {
	wallet := newFakeWallet(utils.BaseSepoliaChainID)
	wallet.revertMethods = map[string]bool{"mintReceipt": true}
	srv := attestationServer(t, nil)
	defer srv.Close()

	orchestrator := newTestOrchestrator(wallet, srv.URL, NopProgressSink{})
	result, err := orchestrator.Pay(context.Background(), testItem(), true)
	require.NoError(t, err, "a failed receipt mint must not fail the payment")

	assert.Equal(t, "receipt mint failed on destination chain", result.ReceiptWarning)
	assert.Nil(t, result.ReceiptContract)
	assert.Nil(t, result.ReceiptTokenID)
	assert.Nil(t, result.ReceiptTxHash)
	assert.NotEmpty(t, result.TxHash, "the payment transaction itself succeeded")
}

func TestGatewayPayUserRejectionAbortsBeforeSubmission(t *testing.T) {
	wallet := newFakeWallet(utils.BaseSepoliaChainID)
	wallet.signErr = ErrUserRejected
	hits := 0
	srv := attestationServer(t, &hits)
	defer srv.Close()

	orchestrator := newTestOrchestrator(wallet, srv.URL, NopProgressSink{})
	_, err := orchestrator.Pay(context.Background(), testItem(), true)
	require.ErrorIs(t, err, ErrUserRejected)

	assert.Zero(t, hits, "nothing may reach the attestation service after a rejection")
	assert.Equal(t, []string{"approve", "deposit"}, wallet.methodSequence())
}

func TestGatewayPaySerializesPerBuyer(t *testing.T) {
	wallet := newFakeWallet(utils.BaseSepoliaChainID)
	wallet.approveGate = make(chan struct{})
	wallet.approveEntered = make(chan struct{})
	srv := attestationServer(t, nil)
	defer srv.Close()

	orchestrator := newTestOrchestrator(wallet, srv.URL, NopProgressSink{})

	done := make(chan error, 1)
	go func() {
		_, err := orchestrator.Pay(context.Background(), testItem(), false)
		done <- err
	}()
	<-wallet.approveEntered

	_, err := orchestrator.Pay(context.Background(), testItem(), false)
	require.ErrorIs(t, err, ErrPaymentInFlight)

	close(wallet.approveGate)
	require.NoError(t, <-done)

	// The slot frees up once the first attempt finishes.
	_, err = orchestrator.Pay(context.Background(), testItem(), false)
	require.NoError(t, err)
}

func TestGatewayPayUnsupportedChainFailsFast(t *testing.T) {
	wallet := newFakeWallet(31337)
	srv := attestationServer(t, nil)
	defer srv.Close()

	orchestrator := newTestOrchestrator(wallet, srv.URL, NopProgressSink{})
	_, err := orchestrator.Pay(context.Background(), testItem(), false)
	require.ErrorIs(t, err, utils.ErrUnsupportedChain)
	assert.Empty(t, wallet.methodSequence(), "no on-chain call for an unsupported chain")

	var pErr *PaymentError
	require.ErrorAs(t, err, &pErr)
	assert.False(t, pErr.FundsCustodied, "nothing moved on-chain before the failure")
}

func TestClassifyFailure(t *testing.T) {
	assert.Equal(t, models.FailureUserRejected, ClassifyFailure(fmt.Errorf("wrap: %w", ErrUserRejected)))
	assert.Equal(t, models.FailureUnsupportedChain, ClassifyFailure(utils.ErrUnsupportedChain))
	assert.Equal(t, models.FailureInvalidAmount, ClassifyFailure(utils.ErrInvalidAmountFormat))
	assert.Equal(t, models.FailureAttestation, ClassifyFailure(clients.ErrAttestationFailed))
	assert.Equal(t, models.FailureInFlight, ClassifyFailure(ErrPaymentInFlight))
	assert.Equal(t, models.FailureOnChain, ClassifyFailure(fmt.Errorf("rpc timeout")))
}
