package simulator

import (
	"math"
	"math/rand"
	"sort"

	"github.com/XiaomingSong1670/srsran-cr/sched"
)

const (
	nofHARQProcs = 8
	harqRTT      = 8 // ticks from transmission to ACK/NACK
)

type harqProc struct {
	id          uint32
	busy        bool  // transmitted, feedback outstanding
	due         int64 // tick the feedback arrives
	pendingRetx bool
	nofRBGs     uint32
	tbs         uint32
	nRetx       uint32
}

func (p *harqProc) idle() bool { return !p.busy && !p.pendingRetx }

func (p *harqProc) handle() *sched.HARQProc {
	return &sched.HARQProc{ID: p.id, Retx: p.pendingRetx, NofRBGs: p.nofRBGs, TBS: p.tbs}
}

// transmit starts a (re)transmission on the process.
func (p *harqProc) transmit(tick int64, nofRBGs, tbs uint32, retx bool) {
	if retx {
		p.nRetx++
	} else {
		p.nofRBGs, p.tbs, p.nRetx = nofRBGs, tbs, 0
	}
	p.busy, p.pendingRetx, p.due = true, false, tick+harqRTT
}

type ueCarrier struct {
	enbCC  uint32
	dlCQI  uint32
	ulCQI  uint32
	dlHARQ [nofHARQProcs]harqProc
	ulHARQ [nofHARQProcs]harqProc
}

// UEStats accumulates what the emulated UE saw during the run.
type UEStats struct {
	DLGrantedBytes   uint64
	ULGrantedBytes   uint64
	DLDeliveredBytes uint64
	ULDeliveredBytes uint64
	DLRetx           uint64
	ULRetx           uint64
	DroppedTBs       uint64 // transport blocks lost after the last retransmission
}

// simUE emulates the MAC view of one UE: buffers, CQI and HARQ entities per
// configured carrier. It implements sched.UEView.
type simUE struct {
	rnti      uint16
	slice     uint8
	carriers  []ueCarrier
	pendingDL uint32
	pendingUL uint32
	stats     UEStats
}

var _ sched.UEView = (*simUE)(nil)

func newSimUE(cfg UEConfig, defaultCQI uint32) *simUE {
	ue := &simUE{rnti: cfg.RNTI, slice: cfg.Slice, carriers: make([]ueCarrier, len(cfg.Carriers))}
	for i, cc := range cfg.Carriers {
		c := &ue.carriers[i]
		c.enbCC, c.dlCQI, c.ulCQI = cc, defaultCQI, defaultCQI
		for pid := range c.dlHARQ {
			c.dlHARQ[pid].id = uint32(pid)
			c.ulHARQ[pid].id = uint32(pid)
		}
	}
	return ue
}

func (u *simUE) RNTI() uint16 { return u.rnti }
func (u *simUE) Slice() uint8 { return u.slice }

func (u *simUE) CarrierIndex(enbCC uint32) int {
	for i := range u.carriers {
		if u.carriers[i].enbCC == enbCC {
			return i
		}
	}
	return -1
}

func (u *simUE) carrier(ueCC int) *ueCarrier {
	if ueCC < 0 || ueCC >= len(u.carriers) {
		return nil
	}
	return &u.carriers[ueCC]
}

func (u *simUE) DLRetxHarq(_ sched.TTI, ueCC int) *sched.HARQProc {
	c := u.carrier(ueCC)
	if c == nil {
		return nil
	}
	for i := range c.dlHARQ {
		if p := &c.dlHARQ[i]; p.pendingRetx && !p.busy {
			return p.handle()
		}
	}
	return nil
}

func (u *simUE) DLNewTxHarq(_ sched.TTI, ueCC int) *sched.HARQProc {
	c := u.carrier(ueCC)
	if c == nil {
		return nil
	}
	for i := range c.dlHARQ {
		if p := &c.dlHARQ[i]; p.idle() {
			return p.handle()
		}
	}
	return nil
}

// ULHarq returns the synchronous uplink process of tti, nil while it awaits feedback.
func (u *simUE) ULHarq(tti sched.TTI, ueCC int) *sched.HARQProc {
	c := u.carrier(ueCC)
	if c == nil {
		return nil
	}
	p := &c.ulHARQ[uint32(tti)%nofHARQProcs]
	if p.busy {
		return nil
	}
	return p.handle()
}

func (u *simUE) PendingDLBytes() uint32 { return u.pendingDL }
func (u *simUE) PendingULBytes() uint32 { return u.pendingUL }

func (u *simUE) CQI(dir sched.Direction, ueCC int) uint32 {
	c := u.carrier(ueCC)
	if c == nil {
		return 0
	}
	if dir == sched.Uplink {
		return c.ulCQI
	}
	return c.dlCQI
}

func (u *simUE) setCQI(dir sched.Direction, enbCC, cqi uint32) {
	c := u.carrier(u.CarrierIndex(enbCC))
	if c == nil {
		return
	}
	if dir == sched.Uplink {
		c.ulCQI = cqi
	} else {
		c.dlCQI = cqi
	}
}

func (u *simUE) enqueue(dir sched.Direction, bytes uint32) {
	buf := &u.pendingDL
	if dir == sched.Uplink {
		buf = &u.pendingUL
	}
	if math.MaxUint32-*buf < bytes {
		*buf = math.MaxUint32
		return
	}
	*buf += bytes
}

func (u *simUE) procs(dir sched.Direction, ueCC int) *[nofHARQProcs]harqProc {
	c := u.carrier(ueCC)
	if c == nil {
		return nil
	}
	if dir == sched.Uplink {
		return &c.ulHARQ
	}
	return &c.dlHARQ
}

// feedback resolves every transmission whose ACK/NACK is due at tick.
func (u *simUE) feedback(tick int64, rng *rand.Rand, cfg HARQConfig) {
	for i := range u.carriers {
		c := &u.carriers[i]
		u.resolve(sched.Downlink, c.dlHARQ[:], tick, rng, cfg)
		u.resolve(sched.Uplink, c.ulHARQ[:], tick, rng, cfg)
	}
}

func (u *simUE) resolve(dir sched.Direction, procs []harqProc, tick int64, rng *rand.Rand, cfg HARQConfig) {
	for i := range procs {
		p := &procs[i]
		if !p.busy || p.due != tick {
			continue
		}
		p.busy = false
		nack := rng.Float64() < cfg.NACKProbability
		switch {
		case !nack:
			if dir == sched.Uplink {
				u.stats.ULDeliveredBytes += uint64(p.tbs)
			} else {
				u.stats.DLDeliveredBytes += uint64(p.tbs)
			}
		case p.nRetx < cfg.MaxRetx:
			p.pendingRetx = true
		default:
			u.stats.DroppedTBs++
		}
	}
}

// ueDB is the set of attached UEs. It implements sched.ActiveUsers.
type ueDB map[uint16]*simUE

func (db ueDB) Users() []sched.UEView {
	out := make([]sched.UEView, 0, len(db))
	for _, ue := range db {
		out = append(out, ue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RNTI() < out[j].RNTI() })
	return out
}

func (db ueDB) Lookup(rnti uint16) (sched.UEView, bool) {
	ue, ok := db[rnti]
	if !ok {
		return nil, false
	}
	return ue, true
}
