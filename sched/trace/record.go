// Package trace records scheduling decisions for offline analysis.
// It has no dependency on sched/ and stores plain data only.
package trace

// GrantRecord captures one accepted allocation.
type GrantRecord struct {
	TTI       uint32
	Carrier   uint32
	Direction string // "dl" or "ul"
	RNTI      uint16
	RBGs      uint32
	Bytes     uint32
	Retx      bool
}

// ExclusionRecord captures a UE left out of a TTI.
type ExclusionRecord struct {
	TTI    uint32
	RNTI   uint16
	Reason string
}

// CoordinationRecord captures the occupancy reported for the reserved carrier.
type CoordinationRecord struct {
	TTI          uint32
	Carrier      uint32
	OccupiedRBGs uint
	NofRBGs      uint
}

// Fraction returns the occupied share of the carrier, 0 for an empty mask.
func (r CoordinationRecord) Fraction() float64 {
	if r.NofRBGs == 0 {
		return 0
	}
	return float64(r.OccupiedRBGs) / float64(r.NofRBGs)
}
