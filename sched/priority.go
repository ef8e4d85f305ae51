package sched

import "math"

// minAverageRate floors the rate denominator so that a UE whose measured
// average decayed to zero gets a large but finite priority, strictly below a
// UE that has never been sampled.
const minAverageRate = 1.0

var (
	// retxPriority is the score of a pending retransmission. The orderings
	// rank retransmissions first regardless of score.
	retxPriority = math.Inf(1)
	// coldStartPriority is the score of a UE with demand and no rate samples.
	coldStartPriority = math.MaxFloat64
)

// rateFairPriority computes est / avg^coeff. A coefficient of 1 approximates
// proportional fairness and 0 approximates max-throughput.
func rateFairPriority(est uint32, avg float64, samples uint32, coeff float64) float64 {
	if est == 0 {
		return 0
	}
	if samples == 0 {
		return coldStartPriority
	}
	return float64(est) / math.Pow(math.Max(avg, minAverageRate), coeff)
}

// estimateBytes bounds the requested volume by what a whole carrier could
// carry at the reported CQI.
func estimateBytes(cell *CellParams, pending, cqi uint32) uint32 {
	capacity := cell.NofRBGs() * BytesPerRBG(cqi, cell.RBGSize())
	if pending < capacity {
		return pending
	}
	return capacity
}

// DownlinkOutranks reports whether a is scheduled before b in the downlink.
// Order: pending retransmission first, then downlink priority descending, then RNTI ascending.
func DownlinkOutranks(a, b *UEContext) bool {
	aRetx, bRetx := a.PendingRetx(Downlink), b.PendingRetx(Downlink)
	if aRetx != bRetx {
		return aRetx
	}
	if a.dlPrio != b.dlPrio {
		return a.dlPrio > b.dlPrio
	}
	return a.rnti < b.rnti
}

// UplinkOutranks reports whether a is scheduled before b in the uplink.
// Order: pending retransmission first, then uplink priority descending, then RNTI ascending.
func UplinkOutranks(a, b *UEContext) bool {
	aRetx, bRetx := a.PendingRetx(Uplink), b.PendingRetx(Uplink)
	if aRetx != bRetx {
		return aRetx
	}
	if a.ulPrio != b.ulPrio {
		return a.ulPrio > b.ulPrio
	}
	return a.rnti < b.rnti
}
