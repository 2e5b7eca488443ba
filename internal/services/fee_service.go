package services

import (
	"math/big"

	"oncult-backend/internal/models"
)

// Platform fee percentages by listing type.
const (
	ArtistFeePct    = 5
	OrganizerFeePct = 10
)

// FeePercent returns the platform fee percentage for a listing type.
// Unknown types fall back to the artist rate.
func FeePercent(listingType models.ListingType) int {
	if listingType == models.ListingTypeOrganizer {
		return OrganizerFeePct
	}
	return ArtistFeePct
}

// FeeBps returns the platform fee in basis points, as the receipt
// contract expects it on the native payment path.
func FeeBps(listingType models.ListingType) uint16 {
	return uint16(FeePercent(listingType) * 100)
}

// SplitFee computes the platform fee and seller net from a gross amount
// in smallest token units. Integer arithmetic only, fee floored, and
// net = gross - fee so the parts always sum exactly to gross. A zero
// fee is a valid outcome meaning "no fee leg".
func SplitFee(gross *big.Int, listingType models.ListingType) (fee, net *big.Int) {
	fee = new(big.Int).Mul(gross, big.NewInt(int64(FeePercent(listingType))))
	fee.Div(fee, big.NewInt(100))
	net = new(big.Int).Sub(gross, fee)
	return fee, net
}
