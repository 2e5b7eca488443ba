package dto

// Wire types for the Circle Gateway attestation API. All bigint fields
// travel as decimal strings; addresses and salts as 0x-prefixed hex.

// TransferSpecWire is the serialized form of a TransferSpec.
type TransferSpecWire struct {
	Version              uint32 `json:"version"`
	SourceDomain         uint32 `json:"sourceDomain"`
	DestinationDomain    uint32 `json:"destinationDomain"`
	SourceContract       string `json:"sourceContract"`
	DestinationContract  string `json:"destinationContract"`
	SourceToken          string `json:"sourceToken"`
	DestinationToken     string `json:"destinationToken"`
	SourceDepositor      string `json:"sourceDepositor"`
	DestinationRecipient string `json:"destinationRecipient"`
	SourceSigner         string `json:"sourceSigner"`
	DestinationCaller    string `json:"destinationCaller"`
	Value                string `json:"value"`
	Salt                 string `json:"salt"`
	HookData             string `json:"hookData"`
}

// BurnIntentWire is the serialized form of a BurnIntent.
type BurnIntentWire struct {
	MaxBlockHeight string           `json:"maxBlockHeight"`
	MaxFee         string           `json:"maxFee"`
	Spec           TransferSpecWire `json:"spec"`
}

// TransferRequestEntry is one element of the batched transfer request:
// a serialized burn intent plus its EIP-712 signature.
type TransferRequestEntry struct {
	BurnIntent BurnIntentWire `json:"burnIntent"`
	Signature  string         `json:"signature"`
}

// AttestationWire is one element of the Gateway response. The service
// has been observed using both key spellings for the payload and the
// signature, so both are accepted.
type AttestationWire struct {
	Attestation          string `json:"attestation,omitempty"`
	AttestationPayload   string `json:"attestationPayload,omitempty"`
	Signature            string `json:"signature,omitempty"`
	AttestationSignature string `json:"attestationSignature,omitempty"`
}

// Payload returns the attestation payload regardless of key spelling.
func (a *AttestationWire) Payload() string {
	if a.Attestation != "" {
		return a.Attestation
	}
	return a.AttestationPayload
}

// Sig returns the attestation signature regardless of key spelling.
func (a *AttestationWire) Sig() string {
	if a.Signature != "" {
		return a.Signature
	}
	return a.AttestationSignature
}
