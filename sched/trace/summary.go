package trace

// TraceSummary aggregates statistics from a SimulationTrace.
type TraceSummary struct {
	TTIs            int
	TotalGrants     int
	RetxGrants      int
	TotalBytes      uint64
	ExcludedCount   int
	UniqueUEs       int
	BytesPerUE      map[uint16]uint64 // rnti → bytes granted (both directions)
	DownlinkPerUE   map[uint16]uint64
	BytesPerCarrier map[uint32]uint64
	MeanOccupancy   float64 // mean reported fraction of the reserved carrier
	MaxOccupancy    float64
	JainIndex       float64 // Jain's fairness index over DownlinkPerUE
}

// Summarize computes aggregate statistics from a SimulationTrace.
// Safe for nil or empty traces (returns zero-value fields).
func Summarize(st *SimulationTrace) *TraceSummary {
	summary := &TraceSummary{
		BytesPerUE:      make(map[uint16]uint64),
		DownlinkPerUE:   make(map[uint16]uint64),
		BytesPerCarrier: make(map[uint32]uint64),
	}
	if st == nil {
		return summary
	}

	summary.TTIs = st.TTIs
	summary.TotalGrants = len(st.Grants)
	summary.ExcludedCount = len(st.Exclusions)
	for _, g := range st.Grants {
		if g.Retx {
			summary.RetxGrants++
		}
		summary.TotalBytes += uint64(g.Bytes)
		summary.BytesPerUE[g.RNTI] += uint64(g.Bytes)
		summary.BytesPerCarrier[g.Carrier] += uint64(g.Bytes)
		if g.Direction == "dl" {
			summary.DownlinkPerUE[g.RNTI] += uint64(g.Bytes)
		}
	}
	summary.UniqueUEs = len(summary.BytesPerUE)

	if len(st.Coordinations) > 0 {
		total := 0.0
		for _, c := range st.Coordinations {
			f := c.Fraction()
			total += f
			if f > summary.MaxOccupancy {
				summary.MaxOccupancy = f
			}
		}
		summary.MeanOccupancy = total / float64(len(st.Coordinations))
	}

	summary.JainIndex = jainIndex(summary.DownlinkPerUE)
	return summary
}

// jainIndex returns (Σx)² / (n·Σx²), 0 when nothing was granted.
func jainIndex(values map[uint16]uint64) float64 {
	var sum, sumSq float64
	for _, v := range values {
		x := float64(v)
		sum += x
		sumSq += x * x
	}
	if sumSq == 0 {
		return 0
	}
	return sum * sum / (float64(len(values)) * sumSq)
}
