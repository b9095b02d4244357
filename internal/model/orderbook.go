package model

import (
	"fmt"
	"math"
	"sort"
)

// OrderBookItem is a Bid plus the mutable bookkeeping clearing needs: its
// position on the cumulative-power curve and, after clearing, how much of
// it was awarded.
//
// Invariant (established by Close, relied on everywhere downstream):
// CumulatedPowerUpper == CumulatedPowerLower + EnergyInMWH, and items are
// ordered so CumulatedPowerUpper is non-decreasing along the sequence.
type OrderBookItem struct {
	Bid

	CumulatedPowerLower float64
	CumulatedPowerUpper float64
	AwardedPower        float64
}

// IsPriceSetting reports whether this item's price exactly matches the
// clearing price p (within epsilon), the condition for being eligible for
// the residual-distribution step rather than an all-or-nothing award.
func (it OrderBookItem) IsPriceSetting(p float64) bool {
	return math.Abs(it.PriceInEURperMWH-p) < priceEpsilon
}

const priceEpsilon = 1e-9

// VirtualTailTraderID marks the zero-power tail bid Close appends to
// guarantee the supply/demand curves cross. Exported so callers (the
// clearing package) can recognise and skip it without re-deriving the
// sentinel string.
const VirtualTailTraderID TraderID = "__virtual_tail__"

// UnsortedBook is the append-only construction phase of an order book for a
// single TimeStamp and a single Side. The lifecycle that might otherwise be
// a runtime "sorted" flag is instead a type transition: an UnsortedBook can
// only grow, a SortedBook can only be queried and awarded.
type UnsortedBook struct {
	Side  Side
	items []Bid
}

// NewUnsortedBook starts an empty book for the given side.
func NewUnsortedBook(side Side) *UnsortedBook {
	return &UnsortedBook{Side: side}
}

// Add appends a bid to the book. Rejects negative energy immediately,
// before any sorting happens.
func (b *UnsortedBook) Add(bid Bid) error {
	if bid.Side != b.Side {
		return fmt.Errorf("%w: bid side %s does not match book side %s", ErrConstraintViolation, bid.Side, b.Side)
	}
	if err := bid.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	b.items = append(b.items, bid)
	return nil
}

// Len reports how many real (non-virtual) bids have been added so far.
func (b *UnsortedBook) Len() int { return len(b.items) }

// Close sorts the book (ascending price for Supply, descending for Demand),
// appends a virtual zero-power tail bid at the side's extreme legal price
// so the supply and demand cumulative-power curves are guaranteed to
// cross, and assigns cumulative powers along the sorted order. Close runs
// atomically, so no caller ever observes a half-sorted book.
//
// virtualTailPrice is the side's extreme legal price: scarcity price for
// Supply (the market will pay anything rather than go unserved), minimal
// price for Demand (symmetric).
func (b *UnsortedBook) Close(virtualTailPrice float64) *SortedBook {
	items := make([]OrderBookItem, 0, len(b.items)+1)
	for _, bid := range b.items {
		items = append(items, OrderBookItem{Bid: bid})
	}
	items = append(items, OrderBookItem{Bid: Bid{
		EnergyInMWH:      0,
		PriceInEURperMWH: virtualTailPrice,
		Side:             b.Side,
		TraderID:         VirtualTailTraderID,
	}})

	if b.Side == Supply {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].PriceInEURperMWH < items[j].PriceInEURperMWH
		})
	} else {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].PriceInEURperMWH > items[j].PriceInEURperMWH
		})
	}

	cum := 0.0
	for i := range items {
		items[i].CumulatedPowerLower = cum
		cum += items[i].EnergyInMWH
		items[i].CumulatedPowerUpper = cum
	}

	return &SortedBook{Side: b.Side, Items: items}
}

// SortedBook is a closed, sorted order book. Items may not be added; the
// only further mutation is assigning each item's AwardedPower, which the
// clearing package does directly on Items. Reopen turns it back into an
// UnsortedBook for reuse.
type SortedBook struct {
	Side  Side
	Items []OrderBookItem

	AwardedPrice           float64
	AwardedCumulativePower float64
}

// CumulativeAt returns the cumulative power offered/demanded at or below
// (Supply) / at or above (Demand) the given price — i.e. the value of the
// step function the clearing algorithm intersects against the other side.
func (s *SortedBook) CumulativeAt(price float64) float64 {
	best := 0.0
	for _, it := range s.Items {
		crosses := false
		if s.Side == Supply {
			crosses = it.PriceInEURperMWH <= price
		} else {
			crosses = it.PriceInEURperMWH >= price
		}
		if crosses && it.CumulatedPowerUpper > best {
			best = it.CumulatedPowerUpper
		}
	}
	return best
}

// PriceSettingItems returns indexes of items whose price equals p: items
// priced exactly at p but with zero energy are excluded (they were only
// ever the virtual tail or a degenerate bid).
func (s *SortedBook) PriceSettingItems(p float64) []int {
	var idx []int
	for i, it := range s.Items {
		if it.IsPriceSetting(p) && it.EnergyInMWH > 0 {
			idx = append(idx, i)
		}
	}
	return idx
}

// Reopen discards awards and returns a fresh UnsortedBook carrying the same
// real bids (the virtual tail is dropped, Close will re-add one), letting a
// book be cleared and reused for the next TimeStamp.
func (s *SortedBook) Reopen() *UnsortedBook {
	u := NewUnsortedBook(s.Side)
	for _, it := range s.Items {
		if it.TraderID == VirtualTailTraderID {
			continue
		}
		u.items = append(u.items, it.Bid)
	}
	return u
}

// HasRealBids reports whether any non-virtual-tail bid was ever added.
func (s *SortedBook) HasRealBids() bool {
	for _, it := range s.Items {
		if it.TraderID != VirtualTailTraderID {
			return true
		}
	}
	return false
}

// TotalPower sums EnergyInMWH across all real (non-virtual-tail) items —
// the book's total offered or demanded volume, irrespective of price.
func (s *SortedBook) TotalPower() float64 {
	total := 0.0
	for _, it := range s.Items {
		if it.TraderID != VirtualTailTraderID {
			total += it.EnergyInMWH
		}
	}
	return total
}

// TotalAwarded sums AwardedPower across all real items.
func (s *SortedBook) TotalAwarded() float64 {
	total := 0.0
	for _, it := range s.Items {
		total += it.AwardedPower
	}
	return total
}
