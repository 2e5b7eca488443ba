package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"oncult-backend/internal/dto"
)

// ErrAttestationFailed marks any failure talking to the Gateway
// attestation service: transport errors, non-2xx responses, malformed
// bodies, or a response count that does not match the submission.
var ErrAttestationFailed = errors.New("gateway attestation failed")

// Attestation is one normalized attestation from the Gateway: the
// payload and operator signature to replay as a mint call on the
// destination chain.
type Attestation struct {
	Payload   string
	Signature string
}

// GatewayClient calls the Circle Gateway transfer API.
type GatewayClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewGatewayClient creates a Gateway client. The timeout bounds the
// whole attestation round trip; expiry is a terminal payment failure,
// never silently retried.
func NewGatewayClient(baseURL, apiKey string, timeout time.Duration) *GatewayClient {
	return &GatewayClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// RequestTransfer submits the batched intent/signature pairs and
// returns one attestation per submitted pair, in submission order. The
// funds behind these intents are already deposited, so every error
// path here leaves custodied-but-unminted funds; callers must surface
// that loudly.
func (c *GatewayClient) RequestTransfer(ctx context.Context, entries []dto.TransferRequestEntry) ([]Attestation, error) {
	body, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("%w: encode request: %v", ErrAttestationFailed, err)
	}

	reqURL := fmt.Sprintf("%s/transfer", c.baseURL)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrAttestationFailed, err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttestationFailed, err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Raw body kept verbatim for diagnostics.
		return nil, fmt.Errorf("%w: status %d: %s", ErrAttestationFailed, resp.StatusCode, string(raw))
	}

	wires, err := decodeAttestations(raw)
	if err != nil {
		return nil, err
	}
	if len(wires) != len(entries) {
		return nil, fmt.Errorf("%w: submitted %d intents, got %d attestations", ErrAttestationFailed, len(entries), len(wires))
	}

	attestations := make([]Attestation, len(wires))
	for i, wire := range wires {
		attestations[i] = Attestation{
			Payload:   wire.Payload(),
			Signature: wire.Sig(),
		}
	}
	return attestations, nil
}

// decodeAttestations accepts either a JSON array or a single object,
// matching the service's observed behavior.
func decodeAttestations(raw []byte) ([]dto.AttestationWire, error) {
	var wires []dto.AttestationWire
	if err := json.Unmarshal(raw, &wires); err == nil {
		return wires, nil
	}
	var single dto.AttestationWire
	if err := json.Unmarshal(raw, &single); err != nil {
		return nil, fmt.Errorf("%w: malformed response: %s", ErrAttestationFailed, string(raw))
	}
	return []dto.AttestationWire{single}, nil
}
