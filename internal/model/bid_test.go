package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBid_ValidateRejectsNegativeEnergy(t *testing.T) {
	b := Bid{EnergyInMWH: -0.5, PriceInEURperMWH: 40, Side: Supply}
	err := b.Validate()
	assert.ErrorIs(t, err, ErrNegativeBidEnergy)
}

func TestBid_ValidateAcceptsZeroEnergy(t *testing.T) {
	b := Bid{EnergyInMWH: 0, PriceInEURperMWH: 40, Side: Demand}
	assert.NoError(t, b.Validate())
}

func TestSide_String(t *testing.T) {
	assert.Equal(t, "SUPPLY", Supply.String())
	assert.Equal(t, "DEMAND", Demand.String())
}
