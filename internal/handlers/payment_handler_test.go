package handlers

import (
	"errors"
	"fmt"
	"testing"

	"oncult-backend/internal/clients"
	"oncult-backend/internal/models"
	"oncult-backend/internal/services"

	"github.com/stretchr/testify/assert"
)

func TestFailureEventCarriesPaymentContext(t *testing.T) {
	err := &services.PaymentError{
		PaymentID:      "b2a4d6f8-0000-4000-8000-000000000001",
		State:          models.StateAttestationRequested,
		FundsCustodied: true,
		Err:            fmt.Errorf("%w: response missing seller attestation", clients.ErrAttestationFailed),
	}

	event := failureEvent("item-1", "0x742d35Cc6634C0532925a3b0F26750C66d78EB66", err)

	assert.Equal(t, "item-1", event.ItemID)
	assert.Equal(t, err.PaymentID, event.PaymentID)
	assert.Equal(t, string(models.StateAttestationRequested), event.State)
	assert.True(t, event.FundsCustodied)
	assert.Equal(t, string(models.FailureAttestation), event.Reason)
}

func TestFailureEventWithoutPaymentContext(t *testing.T) {
	event := failureEvent("item-1", "0x742d35Cc6634C0532925a3b0F26750C66d78EB66", errors.New("rpc timeout"))

	assert.Empty(t, event.PaymentID)
	assert.Empty(t, event.State)
	assert.False(t, event.FundsCustodied)
	assert.Equal(t, string(models.FailureOnChain), event.Reason)
}
