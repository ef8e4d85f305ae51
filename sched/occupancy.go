package sched

import (
	"errors"
	"math"
)

// MaxCarriers bounds the number of component carriers a cell aggregates.
const MaxCarriers = 20

// ErrOccupancyFull is returned when every tracker entry belongs to another carrier.
var ErrOccupancyFull = errors.New("carrier occupancy tracker full")

type carrierOccupancy struct {
	carrier uint32
	mask    RBGMask
	tti     TTI
}

// OccupancyTracker maps carrier indices to the RBGs other carrier passes
// consumed on them. Entries are stamped with the TTI they were recorded in
// and are only readable in that TTI.
type OccupancyTracker struct {
	entries [MaxCarriers]carrierOccupancy
	n       int
}

// Record stores the occupancy of carrier for tti, replacing any earlier entry.
func (o *OccupancyTracker) Record(carrier uint32, mask RBGMask, tti TTI) error {
	for i := 0; i < o.n; i++ {
		if o.entries[i].carrier == carrier {
			o.entries[i].mask, o.entries[i].tti = mask.Clone(), tti
			return nil
		}
	}
	if o.n == MaxCarriers {
		return ErrOccupancyFull
	}
	o.entries[o.n] = carrierOccupancy{carrier: carrier, mask: mask.Clone(), tti: tti}
	o.n++
	return nil
}

// Occupied returns the mask recorded for carrier in tti. Entries from other
// TTIs are stale and not returned.
func (o *OccupancyTracker) Occupied(carrier uint32, tti TTI) (RBGMask, bool) {
	for i := 0; i < o.n; i++ {
		e := &o.entries[i]
		if e.carrier == carrier {
			if e.tti != tti {
				return RBGMask{}, false
			}
			return e.mask, true
		}
	}
	return RBGMask{}, false
}

// Fraction returns the occupied share of carrier in tti, 0 when nothing fresh was recorded.
func (o *OccupancyTracker) Fraction(carrier uint32, tti TTI) float64 {
	mask, ok := o.Occupied(carrier, tti)
	if !ok {
		return 0
	}
	return mask.Fraction()
}

// Reset clears every entry.
func (o *OccupancyTracker) Reset() {
	for i := 0; i < o.n; i++ {
		o.entries[i] = carrierOccupancy{}
	}
	o.n = 0
}

// Len returns the number of carriers with an entry.
func (o *OccupancyTracker) Len() int {
	return o.n
}

// occupiedRBGs scales an occupied fraction to a grid of nofRBGs, rounding up
// so the remaining budget never exceeds the unoccupied share.
func occupiedRBGs(fraction float64, nofRBGs uint32) uint32 {
	n := uint32(math.Ceil(fraction*float64(nofRBGs) - 1e-9))
	if n > nofRBGs {
		return nofRBGs
	}
	return n
}
