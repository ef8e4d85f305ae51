package sched

// UEContext is the scheduling state the time_cr policy keeps for one UE.
// Identity, slice and fairness coefficient are fixed at creation; priorities
// and HARQ handles are rebuilt by Refresh every TTI; the rate history is
// updated once per TTI per direction after the allocation attempt.
type UEContext struct {
	rnti          uint16
	slice         uint8
	fairnessCoeff float64

	// Refreshed every TTI. Queue order depends on these; callers read them
	// through the accessors.
	servingCarrier int    // UE-local index of the carrier the context was refreshed for, -1 if none
	dlCarrier      uint32 // eNB carrier the DL handles belong to
	ulCarrier      uint32 // eNB carrier the UL handle belongs to
	dlPrio         float64
	ulPrio         float64
	dlRetx         *HARQProc
	dlNewTx        *HARQProc
	ul             *HARQProc
	dlDemand       bool
	ulDemand       bool

	dlAvgRate float64
	ulAvgRate float64
	dlSamples uint32
	ulSamples uint32
}

// NewUEContext creates an empty history for a UE.
func NewUEContext(rnti uint16, slice uint8, fairnessCoeff float64) UEContext {
	return UEContext{rnti: rnti, slice: slice, fairnessCoeff: fairnessCoeff, servingCarrier: -1}
}

// RNTI returns the UE identity.
func (c *UEContext) RNTI() uint16 { return c.rnti }

// Slice returns the slice the UE belonged to when the context was created.
func (c *UEContext) Slice() uint8 { return c.slice }

// FairnessCoeff returns the exponent applied to the average rate.
func (c *UEContext) FairnessCoeff() float64 { return c.fairnessCoeff }

// DownlinkSampleCount returns the number of downlink rate samples recorded.
func (c *UEContext) DownlinkSampleCount() uint32 { return c.dlSamples }

// UplinkSampleCount returns the number of uplink rate samples recorded.
func (c *UEContext) UplinkSampleCount() uint32 { return c.ulSamples }

// DownlinkPriority returns the downlink score computed by the last Refresh.
func (c *UEContext) DownlinkPriority() float64 { return c.dlPrio }

// UplinkPriority returns the uplink score computed by the last Refresh.
func (c *UEContext) UplinkPriority() float64 { return c.ulPrio }

// DownlinkCarrier returns the eNB carrier the downlink HARQ handles are bound to.
func (c *UEContext) DownlinkCarrier() uint32 { return c.dlCarrier }

// UplinkCarrier returns the eNB carrier the uplink HARQ handle is bound to.
func (c *UEContext) UplinkCarrier() uint32 { return c.ulCarrier }

// PendingRetx reports whether the last Refresh found a retransmission in dir.
func (c *UEContext) PendingRetx(dir Direction) bool {
	if dir == Uplink {
		return c.ul != nil && c.ul.Retx
	}
	return c.dlRetx != nil
}

// AverageDownlinkRate returns the smoothed bytes per TTI, 0 before the first sample.
func (c *UEContext) AverageDownlinkRate() float64 {
	if c.dlSamples == 0 {
		return 0
	}
	return c.dlAvgRate
}

// AverageUplinkRate returns the smoothed bytes per TTI, 0 before the first sample.
func (c *UEContext) AverageUplinkRate() float64 {
	if c.ulSamples == 0 {
		return 0
	}
	return c.ulAvgRate
}

// HasDownlinkDemand reports whether the last Refresh found a pending
// retransmission or new data with a free HARQ process.
func (c *UEContext) HasDownlinkDemand() bool { return c.dlDemand }

// HasUplinkDemand reports whether the last Refresh found a pending
// retransmission, buffered data or a scheduling request with a usable process.
func (c *UEContext) HasUplinkDemand() bool { return c.ulDemand }

// RecordDownlinkGrant folds the bytes granted this TTI into the average:
// avg = avg*(1-alpha) + bytes*alpha. Zero-byte attempts are recorded too.
func (c *UEContext) RecordDownlinkGrant(bytes uint32, alpha float64) {
	c.dlAvgRate = c.dlAvgRate*(1-alpha) + float64(bytes)*alpha
	c.dlSamples++
}

// RecordUplinkGrant is the uplink counterpart of RecordDownlinkGrant.
func (c *UEContext) RecordUplinkGrant(bytes uint32, alpha float64) {
	c.ulAvgRate = c.ulAvgRate*(1-alpha) + float64(bytes)*alpha
	c.ulSamples++
}

// Refresh pulls this TTI's HARQ handles and buffer state from the UE view and
// recomputes both priorities. enbCC is the carrier of the pass that opened
// the TTI. Retransmissions stay on the carrier of their HARQ entity, so they
// are searched over every carrier of the cell the UE has active. A new
// transmission binds to the serving carrier when it has a free process and
// to the next active carrier that does otherwise.
func (c *UEContext) Refresh(cell *CellParams, ue UEView, tti TTI, enbCC uint32) {
	c.dlRetx, c.dlNewTx, c.ul = nil, nil, nil
	c.dlPrio, c.ulPrio = 0, 0
	c.dlDemand, c.ulDemand = false, false

	c.servingCarrier = ue.CarrierIndex(enbCC)
	serving := enbCC
	if c.servingCarrier < 0 {
		for _, cc := range cell.Carriers() {
			if idx := ue.CarrierIndex(cc); idx >= 0 {
				c.servingCarrier, serving = idx, cc
				break
			}
		}
	}
	if c.servingCarrier < 0 {
		return
	}
	c.dlCarrier, c.ulCarrier = serving, serving

	for _, cc := range cell.Carriers() {
		ueCC := ue.CarrierIndex(cc)
		if ueCC < 0 {
			continue
		}
		if c.dlRetx == nil {
			if h := ue.DLRetxHarq(tti, ueCC); h != nil {
				c.dlRetx, c.dlCarrier = h, cc
			}
		}
		if c.ul == nil {
			if h := ue.ULHarq(tti, ueCC); h != nil && h.Retx {
				c.ul, c.ulCarrier = h, cc
			}
		}
	}
	// New transmissions prefer the serving carrier and fall back to the first
	// other active carrier with a free process.
	if c.dlRetx == nil {
		c.dlNewTx = ue.DLNewTxHarq(tti, c.servingCarrier)
	}
	if c.ul == nil {
		c.ul = ue.ULHarq(tti, c.servingCarrier)
	}
	for _, cc := range cell.Carriers() {
		if c.dlRetx != nil || c.dlNewTx != nil {
			break
		}
		if ueCC := ue.CarrierIndex(cc); ueCC >= 0 && cc != serving {
			if h := ue.DLNewTxHarq(tti, ueCC); h != nil {
				c.dlNewTx, c.dlCarrier = h, cc
			}
		}
	}
	for _, cc := range cell.Carriers() {
		if c.ul != nil {
			break
		}
		if ueCC := ue.CarrierIndex(cc); ueCC >= 0 && cc != serving {
			if h := ue.ULHarq(tti, ueCC); h != nil && !h.Retx {
				c.ul, c.ulCarrier = h, cc
			}
		}
	}

	switch {
	case c.dlRetx != nil:
		c.dlDemand = true
		c.dlPrio = retxPriority
	case c.dlNewTx != nil && ue.PendingDLBytes() > 0:
		c.dlDemand = true
		est := estimateBytes(cell, ue.PendingDLBytes(), ue.CQI(Downlink, c.servingCarrier))
		c.dlPrio = rateFairPriority(est, c.dlAvgRate, c.dlSamples, c.fairnessCoeff)
	}

	switch {
	case c.ul == nil:
	case c.ul.Retx:
		c.ulDemand = true
		c.ulPrio = retxPriority
	case ue.PendingULBytes() > 0:
		c.ulDemand = true
		est := estimateBytes(cell, ue.PendingULBytes(), ue.CQI(Uplink, c.servingCarrier))
		c.ulPrio = rateFairPriority(est, c.ulAvgRate, c.ulSamples, c.fairnessCoeff)
	}
}

// bind points the context's handles at carrier enbCC for an allocation
// attempt there. It fails when the UE is not active on the carrier or when a
// retransmission is bound to a different carrier.
func (c *UEContext) bind(dir Direction, ue UEView, tti TTI, enbCC uint32) bool {
	ueCC := ue.CarrierIndex(enbCC)
	if ueCC < 0 {
		return false
	}
	if dir == Downlink {
		if enbCC == c.dlCarrier {
			return true
		}
		if c.dlRetx != nil {
			return false
		}
		h := ue.DLNewTxHarq(tti, ueCC)
		if h == nil {
			return false
		}
		c.dlNewTx, c.dlCarrier = h, enbCC
		return true
	}
	if enbCC == c.ulCarrier {
		return true
	}
	if c.ul != nil && c.ul.Retx {
		return false
	}
	h := ue.ULHarq(tti, ueCC)
	if h == nil || h.Retx {
		return false
	}
	c.ul, c.ulCarrier = h, enbCC
	return true
}
