// Package capacity classifies venue demand against a fixed capacity.
package capacity

import (
	"context"
	"fmt"

	"github.com/iliyamo/venue-reservation-bot/internal/model"
)

// Band is the demand classification that decides which greeting is shown.
type Band string

const (
	BandOpen     Band = "open"
	BandLastCall Band = "last_call"
	BandSoldOut  Band = "sold_out"
)

// Occupancy is a snapshot of how full the venue is.
type Occupancy struct {
	Band      Band
	Admitted  int // sum of party sizes across reservations
	Capacity  int
	Remaining int // never negative
}

// Percent returns the occupied share of capacity, truncated to an integer.
func (o Occupancy) Percent() int {
	if o.Capacity <= 0 {
		return 0
	}
	return o.Admitted * 100 / o.Capacity
}

// PartySummer is the slice of the reservation store the guard needs.
type PartySummer interface {
	SumPartySize(ctx context.Context, kind model.EntryKind) (int, error)
}

// Guard computes occupancy against Capacity.  LowStock is the number of
// remaining places below which the venue is in last call.
type Guard struct {
	store    PartySummer
	capacity int
	lowStock int
}

// NewGuard returns a guard for a venue of the given capacity.
func NewGuard(store PartySummer, capacity, lowStock int) *Guard {
	return &Guard{store: store, capacity: capacity, lowStock: lowStock}
}

// Capacity returns the configured venue capacity.
func (g *Guard) Capacity() int { return g.capacity }

// Check reads the current aggregate party size and classifies it.
func (g *Guard) Check(ctx context.Context) (Occupancy, error) {
	admitted, err := g.store.SumPartySize(ctx, "")
	if err != nil {
		return Occupancy{}, fmt.Errorf("capacity: sum party size: %w", err)
	}
	return Classify(admitted, g.capacity, g.lowStock), nil
}

// Classify maps an admitted count to a demand band:
// SoldOut when admitted >= capacity, LastCall when fewer than lowStock
// places remain, Open otherwise.
func Classify(admitted, capacity, lowStock int) Occupancy {
	o := Occupancy{Admitted: admitted, Capacity: capacity, Remaining: capacity - admitted}
	switch {
	case admitted >= capacity:
		o.Band = BandSoldOut
		o.Remaining = 0
	case o.Remaining < lowStock:
		o.Band = BandLastCall
	default:
		o.Band = BandOpen
	}
	return o
}
