package models

// PaymentState is one step of the Gateway payment state machine. States
// advance strictly in order; StateFailed is absorbing and reachable
// from every non-terminal state.
type PaymentState string

const (
	StateIdle                 PaymentState = "idle"
	StateApproving            PaymentState = "approving"
	StateDepositing           PaymentState = "depositing"
	StateBuildingIntents      PaymentState = "building_intents"
	StateSigning              PaymentState = "signing"
	StateAttestationRequested PaymentState = "attestation_requested"
	StateAttestationReceived  PaymentState = "attestation_received"
	StateSwitchingChain       PaymentState = "switching_chain"
	StateMinting              PaymentState = "minting"
	StateReceiptMinting       PaymentState = "receipt_minting"
	StateComplete             PaymentState = "complete"
	StateFailed               PaymentState = "failed"
)

// FailureReason classifies terminal payment failures for metrics and
// user-facing messages.
type FailureReason string

const (
	FailureUserRejected     FailureReason = "user_rejected"
	FailureUnsupportedChain FailureReason = "unsupported_chain"
	FailureInvalidAmount    FailureReason = "invalid_amount"
	FailureAttestation      FailureReason = "attestation_failed"
	FailureOnChain          FailureReason = "onchain_failed"
	FailureInFlight         FailureReason = "payment_in_flight"
)
