package simulator

import "github.com/XiaomingSong1670/srsran-cr/sched"

// subframeGrid is the RBG map of one carrier for one tick. It implements
// sched.SubframeGrid and turns grants into HARQ transmissions of the UEs.
type subframeGrid struct {
	tick    int64
	carrier uint32
	rbgSize uint32
	masks   [2]sched.RBGMask
	ues     ueDB
}

var _ sched.SubframeGrid = (*subframeGrid)(nil)

func newSubframeGrid(tick int64, carrier uint32, cell *sched.CellParams, ues ueDB) *subframeGrid {
	n := uint(cell.NofRBGs())
	return &subframeGrid{
		tick:    tick,
		carrier: carrier,
		rbgSize: cell.RBGSize(),
		masks:   [2]sched.RBGMask{sched.NewRBGMask(n), sched.NewRBGMask(n)},
		ues:     ues,
	}
}

func (g *subframeGrid) TTI() sched.TTI  { return sched.NewTTI(uint32(g.tick)) }
func (g *subframeGrid) Carrier() uint32 { return g.carrier }

func (g *subframeGrid) NofRBGs(dir sched.Direction) uint32 {
	return uint32(g.masks[dir].Size())
}

func (g *subframeGrid) FreeRBGs(dir sched.Direction) uint32 {
	return uint32(g.masks[dir].Size() - g.masks[dir].Count())
}

// Mask returns a copy of the RBGs used in dir.
func (g *subframeGrid) Mask(dir sched.Direction) sched.RBGMask {
	return g.masks[dir].Clone()
}

// take marks the n lowest free RBGs as used.
func (g *subframeGrid) take(dir sched.Direction, n uint32) {
	m := g.masks[dir]
	for i := uint(0); i < m.Size() && n > 0; i++ {
		if !m.Test(i) {
			m = m.Set(i, 1)
			n--
		}
	}
}

// Allocate grants at most maxRBGs to the HARQ process h of rnti on this
// carrier and returns the transport block size, 0 when nothing fits.
func (g *subframeGrid) Allocate(dir sched.Direction, rnti uint16, h *sched.HARQProc, maxRBGs uint32) uint32 {
	ue, ok := g.ues[rnti]
	if !ok || h == nil || h.ID >= nofHARQProcs {
		return 0
	}
	ueCC := ue.CarrierIndex(g.carrier)
	procs := ue.procs(dir, ueCC)
	if procs == nil {
		return 0
	}
	p := &procs[h.ID]
	free := g.FreeRBGs(dir)

	if h.Retx {
		if !p.pendingRetx || p.busy || p.nofRBGs > maxRBGs || p.nofRBGs > free {
			return 0
		}
		g.take(dir, p.nofRBGs)
		p.transmit(g.tick, 0, 0, true)
		if dir == sched.Uplink {
			ue.stats.ULRetx++
		} else {
			ue.stats.DLRetx++
		}
		return p.tbs
	}

	if !p.idle() {
		return 0
	}
	pending := ue.PendingDLBytes()
	if dir == sched.Uplink {
		pending = ue.PendingULBytes()
	}
	perRBG := sched.BytesPerRBG(ue.CQI(dir, ueCC), g.rbgSize)
	n := maxRBGs
	if n > free {
		n = free
	}
	if need := sched.RequiredRBGs(pending, perRBG); need < n {
		n = need
	}
	if n == 0 {
		return 0
	}
	tbs := n * perRBG
	if tbs > pending {
		tbs = pending
	}
	g.take(dir, n)
	p.transmit(g.tick, n, tbs, false)
	if dir == sched.Uplink {
		ue.pendingUL -= tbs
		ue.stats.ULGrantedBytes += uint64(tbs)
	} else {
		ue.pendingDL -= tbs
		ue.stats.DLGrantedBytes += uint64(tbs)
	}
	return tbs
}
