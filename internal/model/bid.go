package model

import "fmt"

// Side identifies which side of the market a Bid sits on.
type Side int

const (
	Supply Side = iota
	Demand
)

func (s Side) String() string {
	if s == Supply {
		return "SUPPLY"
	}
	return "DEMAND"
}

// TraderID identifies the agent that placed a Bid.
type TraderID string

// Bid is a single offer to buy or sell energy for one hour.
//
// EnergyInMWH is always non-negative: negative power is expressed as a bid
// of the same magnitude on the opposite Side (a storage trader's discharge
// becomes a Supply bid) rather than encoding sign into EnergyInMWH.
type Bid struct {
	EnergyInMWH             float64
	PriceInEURperMWH        float64
	MarginalCostInEURperMWH float64
	Side                    Side
	TraderID                TraderID
}

// Validate enforces the Bid-level invariant from the data model: energy
// must be non-negative. Price-band checking against scarcity/minimal price
// is the responsibility of the clearing component, which knows the
// configured constants.
func (b Bid) Validate() error {
	if b.EnergyInMWH < 0 {
		return fmt.Errorf("%w: bid from %q has negative energy %.6f MWh", ErrNegativeBidEnergy, b.TraderID, b.EnergyInMWH)
	}
	return nil
}
