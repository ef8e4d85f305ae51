package sched

import "sort"

// fakeUE is a UEView with static buffer and HARQ state.
type fakeUE struct {
	rnti      uint16
	slice     uint8
	carriers  []uint32 // eNB carrier of each UE-local index
	dlRetx    map[int]*HARQProc
	ulRetx    map[int]*HARQProc
	busyDL    map[int]bool // UE-local carriers without a free DL process
	busyUL    map[int]bool // UE-local carriers without a usable UL process
	pendingDL uint32
	pendingUL uint32
	cqi       uint32
}

func newFakeUE(rnti uint16, pendingDL uint32, carriers ...uint32) *fakeUE {
	if len(carriers) == 0 {
		carriers = []uint32{0}
	}
	return &fakeUE{rnti: rnti, carriers: carriers, pendingDL: pendingDL, cqi: 14}
}

func (u *fakeUE) RNTI() uint16 { return u.rnti }
func (u *fakeUE) Slice() uint8 { return u.slice }

func (u *fakeUE) CarrierIndex(enbCC uint32) int {
	for i, cc := range u.carriers {
		if cc == enbCC {
			return i
		}
	}
	return -1
}

func (u *fakeUE) DLRetxHarq(_ TTI, ueCC int) *HARQProc { return u.dlRetx[ueCC] }

func (u *fakeUE) DLNewTxHarq(_ TTI, ueCC int) *HARQProc {
	if u.busyDL[ueCC] {
		return nil
	}
	return &HARQProc{ID: uint32(ueCC)}
}

func (u *fakeUE) ULHarq(_ TTI, ueCC int) *HARQProc {
	if h, ok := u.ulRetx[ueCC]; ok {
		return h
	}
	if u.busyUL[ueCC] {
		return nil
	}
	return &HARQProc{ID: 8 + uint32(ueCC)}
}

func (u *fakeUE) PendingDLBytes() uint32        { return u.pendingDL }
func (u *fakeUE) PendingULBytes() uint32        { return u.pendingUL }
func (u *fakeUE) CQI(_ Direction, _ int) uint32 { return u.cqi }

// fakeUsers is an ActiveUsers over a fixed set of fake UEs.
type fakeUsers map[uint16]*fakeUE

func usersOf(ues ...*fakeUE) fakeUsers {
	out := fakeUsers{}
	for _, u := range ues {
		out[u.rnti] = u
	}
	return out
}

func (f fakeUsers) Users() []UEView {
	out := make([]UEView, 0, len(f))
	for _, u := range f {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RNTI() < out[j].RNTI() })
	return out
}

func (f fakeUsers) Lookup(rnti uint16) (UEView, bool) {
	u, ok := f[rnti]
	if !ok {
		return nil, false
	}
	return u, true
}

// fakeGrid hands out a fixed number of bytes per RBG.
type fakeGrid struct {
	tti         TTI
	carrier     uint32
	nof         [2]uint32
	used        [2]uint32
	bytesPerRBG uint32
	reject      map[uint16]bool
}

func newFakeGrid(tti TTI, carrier, nofRBGs uint32) *fakeGrid {
	return &fakeGrid{tti: tti, carrier: carrier, nof: [2]uint32{nofRBGs, nofRBGs}, bytesPerRBG: 100}
}

func (g *fakeGrid) TTI() TTI                      { return g.tti }
func (g *fakeGrid) Carrier() uint32               { return g.carrier }
func (g *fakeGrid) NofRBGs(dir Direction) uint32  { return g.nof[dir] }
func (g *fakeGrid) FreeRBGs(dir Direction) uint32 { return g.nof[dir] - g.used[dir] }

func (g *fakeGrid) capacityBytes(dir Direction) uint64 {
	return uint64(g.nof[dir]) * uint64(g.bytesPerRBG)
}

func (g *fakeGrid) Allocate(dir Direction, rnti uint16, h *HARQProc, maxRBGs uint32) uint32 {
	n := maxRBGs
	if free := g.FreeRBGs(dir); n > free {
		n = free
	}
	if n == 0 || g.reject[rnti] {
		return 0
	}
	if h.Retx {
		if n < h.NofRBGs {
			return 0
		}
		g.used[dir] += h.NofRBGs
		return h.TBS
	}
	g.used[dir] += n
	return n * g.bytesPerRBG
}

// countingObserver records observer callbacks.
type countingObserver struct {
	opened      int
	grants      []Grant
	excluded    []uint16
	coordinated []uint
}

func (o *countingObserver) TTIOpened(TTI, int, int) { o.opened++ }
func (o *countingObserver) Granted(_ TTI, _ uint32, _ Direction, g Grant) {
	o.grants = append(o.grants, g)
}
func (o *countingObserver) Excluded(_ TTI, rnti uint16, _ error) {
	o.excluded = append(o.excluded, rnti)
}
func (o *countingObserver) Coordinated(_ TTI, _ uint32, m RBGMask) {
	o.coordinated = append(o.coordinated, m.Count())
}

func mustTimeCR(cell *CellParams, args SchedArgs, opts ...Option) *TimeCR {
	s, err := NewTimeCR(cell, args, opts...)
	if err != nil {
		panic(err)
	}
	return s
}
