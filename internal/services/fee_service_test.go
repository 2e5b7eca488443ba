package services

import (
	"math/big"
	"testing"

	"oncult-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitFeeConservation(t *testing.T) {
	for _, gross := range []int64{0, 1, 7, 99, 1250000, 999999999} {
		for _, lt := range []models.ListingType{models.ListingTypeArtist, models.ListingTypeOrganizer} {
			fee, net := SplitFee(big.NewInt(gross), lt)
			sum := new(big.Int).Add(fee, net)
			assert.Zero(t, sum.Cmp(big.NewInt(gross)), "fee+net must equal gross for %d/%s", gross, lt)
		}
	}
}

func TestSplitFeeOrganizerIsDoubleArtist(t *testing.T) {
	gross := big.NewInt(1000000)
	artistFee, _ := SplitFee(gross, models.ListingTypeArtist)
	organizerFee, _ := SplitFee(gross, models.ListingTypeOrganizer)
	assert.Zero(t, organizerFee.Cmp(new(big.Int).Mul(artistFee, big.NewInt(2))))
}

func TestSplitFeeArtistScenario(t *testing.T) {
	// 1.25 USDC at the 5% artist rate.
	fee, net := SplitFee(big.NewInt(1250000), models.ListingTypeArtist)
	assert.Equal(t, int64(62500), fee.Int64())
	assert.Equal(t, int64(1187500), net.Int64())
}

func TestSplitFeeZeroGross(t *testing.T) {
	fee, net := SplitFee(big.NewInt(0), models.ListingTypeOrganizer)
	assert.Equal(t, int64(0), fee.Int64())
	assert.Equal(t, int64(0), net.Int64())
}

func TestSplitFeeFloorsTowardFee(t *testing.T) {
	// 19 smallest units at 5%: fee floors to 0, seller keeps all.
	fee, net := SplitFee(big.NewInt(19), models.ListingTypeArtist)
	require.Equal(t, int64(0), fee.Int64())
	assert.Equal(t, int64(19), net.Int64())
}

func TestFeePercentAndBps(t *testing.T) {
	assert.Equal(t, 5, FeePercent(models.ListingTypeArtist))
	assert.Equal(t, 10, FeePercent(models.ListingTypeOrganizer))
	assert.Equal(t, uint16(500), FeeBps(models.ListingTypeArtist))
	assert.Equal(t, uint16(1000), FeeBps(models.ListingTypeOrganizer))
	// Unknown listing types fall back to the artist rate.
	assert.Equal(t, 5, FeePercent(models.ListingType("unknown")))
}
