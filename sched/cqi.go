package sched

import "math"

// resPerPRB is the number of PDSCH/PUSCH resource elements assumed per PRB
// pair after control region and reference signals.
const resPerPRB = 120

// cqiEfficiency is the spectral efficiency per CQI index (36.213 Table 7.2.3-1).
var cqiEfficiency = [16]float64{
	0, 0.1523, 0.2344, 0.3770, 0.6016, 0.8770, 1.1758, 1.4766,
	1.9141, 2.4063, 2.7305, 3.3223, 3.9023, 4.5234, 5.1152, 5.5547,
}

// BytesPerRBG estimates the bytes one RBG of rbgSize PRBs carries at the given CQI.
// Values above 15 are clamped.
func BytesPerRBG(cqi, rbgSize uint32) uint32 {
	if cqi > 15 {
		cqi = 15
	}
	return uint32(math.Floor(cqiEfficiency[cqi]*resPerPRB/8)) * rbgSize
}

// RequiredRBGs returns the RBGs needed to carry bytes at bytesPerRBG, or 0 when
// the channel carries nothing.
func RequiredRBGs(bytes, bytesPerRBG uint32) uint32 {
	if bytesPerRBG == 0 || bytes == 0 {
		return 0
	}
	return (bytes + bytesPerRBG - 1) / bytesPerRBG
}
