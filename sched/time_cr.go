package sched

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"
)

// TimeCR is the time-domain rate-fair scheduler with carrier reservation.
//
// The first ScheduleDownlink or ScheduleUplink call carrying a TTI newer than
// the last one opens that TTI: UEs left queued from the previous TTI receive
// their zero-byte sample, every UE with outstanding demand is refreshed and
// pushed into the downlink and/or uplink queue. Later calls in the same TTI,
// one per additional carrier, keep popping the same queues, so a UE gets at
// most one attempt per direction per TTI across all carriers.
//
// Calls must arrive every TTI: a pass whose TTI is not After the current one
// (see TTI.After) is treated as stale and skipped.
//
// TimeCR is not safe for concurrent use.
type TimeCR struct {
	cell     CellParams
	args     SchedArgs
	history  *HistoryStore
	dlQueue  *UEQueue
	ulQueue  *UEQueue
	observer Observer

	occupancy       OccupancyTracker
	reservedCarrier uint32

	currentTTI TTI
	opened     bool
	excluded   []uint16
	deferred   []int // scratch for UEs not eligible on the current carrier
}

// NewTimeCR validates the configuration and creates the scheduler.
func NewTimeCR(cell *CellParams, args SchedArgs, opts ...Option) (*TimeCR, error) {
	if err := cell.Validate(); err != nil {
		return nil, err
	}
	if err := args.Validate(); err != nil {
		return nil, err
	}
	s := &TimeCR{
		cell:            *cell,
		args:            args,
		history:         NewHistoryStore(args.MaxUEs),
		observer:        noopObserver{},
		reservedCarrier: cell.ReservedCarrier,
	}
	s.cell.SCells = append([]SCellConfig(nil), cell.SCells...)
	if args.SliceFairness != nil {
		s.args.SliceFairness = make(map[uint8]float64, len(args.SliceFairness))
		for slice, coeff := range args.SliceFairness {
			s.args.SliceFairness[slice] = coeff
		}
	}
	s.dlQueue = NewUEQueue(s.history, DownlinkOutranks)
	s.ulQueue = NewUEQueue(s.history, UplinkOutranks)
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// SetReservedCarrier selects the carrier whose occupancy RecordCCResult
// reports. It is configuration and must not change while a TTI is in progress.
func (s *TimeCR) SetReservedCarrier(carrier uint32) error {
	if !s.cell.HasCarrier(carrier) {
		return fmt.Errorf("%w: reserved carrier %d is not a carrier of cell %d", ErrInvalidCellParams, carrier, s.cell.CellID)
	}
	s.reservedCarrier = carrier
	return nil
}

// ReservedCarrier returns the carrier whose occupancy is tracked.
func (s *TimeCR) ReservedCarrier() uint32 {
	return s.reservedCarrier
}

// RecordCCResult stores the RBGs consumed on the reserved carrier by another
// carrier's pass in the current TTI. The reserved carrier's downlink pass
// treats them as unavailable. It must be called after the TTI was opened and
// before the reserved carrier's pass; an entry recorded in an earlier TTI is
// never applied.
func (s *TimeCR) RecordCCResult(mask RBGMask) {
	if !s.opened {
		logrus.Warnf("record_cc_result before any TTI was opened; ignoring %d occupied RBGs", mask.Count())
		return
	}
	if err := s.occupancy.Record(s.reservedCarrier, mask, s.currentTTI); err != nil {
		logrus.Warnf("[tti %s] carrier %d occupancy not recorded: %v", s.currentTTI, s.reservedCarrier, err)
		return
	}
	logrus.Debugf("[tti %s] carrier %d occupancy %s (%.0f%%)", s.currentTTI, s.reservedCarrier, mask, 100*mask.Fraction())
	s.observer.Coordinated(s.currentTTI, s.reservedCarrier, mask)
}

// Context returns the scheduling history of rnti.
func (s *TimeCR) Context(rnti uint16) (*UEContext, bool) {
	return s.history.Lookup(rnti)
}

// RemoveUE forgets a UE that left the cell, including any queued attempt.
func (s *TimeCR) RemoveUE(rnti uint16) bool {
	slot, ok := s.history.index[rnti]
	if !ok {
		return false
	}
	s.dlQueue.Remove(slot)
	s.ulQueue.Remove(slot)
	return s.history.Remove(rnti)
}

// CurrentTTI returns the last opened TTI; ok is false before the first call.
func (s *TimeCR) CurrentTTI() (tti TTI, ok bool) {
	return s.currentTTI, s.opened
}

// QueueLen returns the number of UEs still queued in dir for the current TTI.
func (s *TimeCR) QueueLen(dir Direction) int {
	if dir == Uplink {
		return s.ulQueue.Len()
	}
	return s.dlQueue.Len()
}

// ScheduleDownlink runs the downlink pass of the grid's carrier.
func (s *TimeCR) ScheduleDownlink(users ActiveUsers, grid SubframeGrid) PassReport {
	return s.schedule(Downlink, users, grid)
}

// ScheduleUplink runs the uplink pass of the grid's carrier.
func (s *TimeCR) ScheduleUplink(users ActiveUsers, grid SubframeGrid) PassReport {
	return s.schedule(Uplink, users, grid)
}

func (s *TimeCR) schedule(dir Direction, users ActiveUsers, grid SubframeGrid) PassReport {
	report := PassReport{TTI: grid.TTI(), Carrier: grid.Carrier(), Direction: dir}
	if !s.opened || grid.TTI().After(s.currentTTI) {
		s.newTTI(users, grid)
		report.NewTTI = true
		report.Excluded = append([]uint16(nil), s.excluded...)
	} else if grid.TTI() != s.currentTTI {
		logrus.Warnf("[tti %s] %s pass on carrier %d for stale tti %s skipped", s.currentTTI, dir, grid.Carrier(), grid.TTI())
		return report
	}

	queue := s.dlQueue
	if dir == Uplink {
		queue = s.ulQueue
	}
	free0 := grid.FreeRBGs(dir)
	report.Budget = s.budget(dir, grid, free0)

	s.deferred = s.deferred[:0]
	for queue.Len() > 0 {
		used := free0 - grid.FreeRBGs(dir)
		if used >= report.Budget {
			break
		}
		slot, _ := queue.PopNext()
		ctx := s.history.Slot(slot)
		ue, ok := users.Lookup(ctx.rnti)
		if !ok {
			// left the cell after the TTI opened; nothing to attempt
			continue
		}
		if !ctx.bind(dir, ue, s.currentTTI, grid.Carrier()) {
			s.deferred = append(s.deferred, slot)
			continue
		}
		g := s.tryAlloc(dir, ctx, ue, grid, report.Budget-used)
		if dir == Downlink {
			ctx.RecordDownlinkGrant(g.Bytes, s.args.SmoothingAlpha)
		} else {
			ctx.RecordUplinkGrant(g.Bytes, s.args.SmoothingAlpha)
		}
		if g.Bytes == 0 {
			report.Rejected = append(report.Rejected, ctx.rnti)
			continue
		}
		report.Grants = append(report.Grants, g)
		logrus.Debugf("[tti %s] %s carrier %d rnti 0x%x: %d rbgs, %d bytes (retx=%t)",
			s.currentTTI, dir, grid.Carrier(), g.RNTI, g.RBGs, g.Bytes, g.Retx)
		s.observer.Granted(s.currentTTI, grid.Carrier(), dir, g)
	}
	for _, slot := range s.deferred {
		queue.Schedule(slot)
	}
	report.UsedRBGs = free0 - grid.FreeRBGs(dir)
	return report
}

// budget returns the RBGs a pass may consume. On the reserved carrier the
// downlink budget excludes the RBGs reported through RecordCCResult this TTI.
func (s *TimeCR) budget(dir Direction, grid SubframeGrid, free uint32) uint32 {
	if dir != Downlink || grid.Carrier() != s.reservedCarrier {
		return free
	}
	mask, ok := s.occupancy.Occupied(s.reservedCarrier, s.currentTTI)
	if !ok {
		return free
	}
	occupied := occupiedRBGs(mask.Fraction(), grid.NofRBGs(dir))
	if occupied >= free {
		return 0
	}
	return free - occupied
}

// tryAlloc attempts one allocation of at most budget RBGs. A zero-byte grant
// means the attempt failed.
func (s *TimeCR) tryAlloc(dir Direction, ctx *UEContext, ue UEView, grid SubframeGrid, budget uint32) Grant {
	g := Grant{RNTI: ctx.rnti}
	h := ctx.ul
	pending := ue.PendingULBytes()
	if dir == Downlink {
		h = ctx.dlRetx
		if h == nil {
			h = ctx.dlNewTx
		}
		pending = ue.PendingDLBytes()
	}
	if h == nil {
		return g
	}

	var want uint32
	if h.Retx {
		// a retransmission reuses the RBG count of the original transmission
		if h.NofRBGs > budget {
			return g
		}
		want = h.NofRBGs
		g.Retx = true
	} else {
		cqi := ue.CQI(dir, ue.CarrierIndex(grid.Carrier()))
		want = RequiredRBGs(pending, BytesPerRBG(cqi, s.cell.RBGSize()))
		if want == 0 {
			return g
		}
		if want > budget {
			want = budget
		}
	}

	free := grid.FreeRBGs(dir)
	g.Bytes = grid.Allocate(dir, ctx.rnti, h, want)
	if g.Bytes > 0 {
		g.RBGs = free - grid.FreeRBGs(dir)
	}
	return g
}

// newTTI closes the previous TTI and rebuilds both queues for grid.TTI().
func (s *TimeCR) newTTI(users ActiveUsers, grid SubframeGrid) {
	alpha := s.args.SmoothingAlpha
	s.dlQueue.Drain(func(slot int) {
		s.history.Slot(slot).RecordDownlinkGrant(0, alpha)
	})
	s.ulQueue.Drain(func(slot int) {
		s.history.Slot(slot).RecordUplinkGrant(0, alpha)
	})

	s.currentTTI = grid.TTI()
	s.opened = true
	s.occupancy.Reset()
	s.excluded = s.excluded[:0]

	ues := append([]UEView(nil), users.Users()...)
	sort.Slice(ues, func(i, j int) bool { return ues[i].RNTI() < ues[j].RNTI() })
	for _, ue := range ues {
		_, known := s.history.Lookup(ue.RNTI())
		if !known && !s.hasDemand(ue) {
			continue
		}
		slot, created, err := s.history.FindOrCreate(ue.RNTI(), ue.Slice(), s.args.FairnessFor(ue.Slice()))
		if err != nil {
			s.excluded = append(s.excluded, ue.RNTI())
			logrus.Warnf("[tti %s] rnti 0x%x excluded from scheduling: %v (%d/%d entries)",
				s.currentTTI, ue.RNTI(), err, s.history.Len(), s.history.Cap())
			s.observer.Excluded(s.currentTTI, ue.RNTI(), err)
			continue
		}
		ctx := s.history.Slot(slot)
		if created {
			logrus.Debugf("[tti %s] rnti 0x%x added to history (slice %d, fairness %.2f)",
				s.currentTTI, ctx.rnti, ctx.slice, ctx.fairnessCoeff)
		}
		ctx.Refresh(&s.cell, ue, s.currentTTI, grid.Carrier())
		if ctx.HasDownlinkDemand() {
			s.dlQueue.Schedule(slot)
		}
		if ctx.HasUplinkDemand() {
			s.ulQueue.Schedule(slot)
		}
	}
	logrus.Debugf("[tti %s] opened: %d dl, %d ul queued", s.currentTTI, s.dlQueue.Len(), s.ulQueue.Len())
	s.observer.TTIOpened(s.currentTTI, s.dlQueue.Len(), s.ulQueue.Len())
}

// hasDemand is the admission check for UEs without history: buffered data in
// either direction or a pending retransmission on any carrier of the cell.
func (s *TimeCR) hasDemand(ue UEView) bool {
	if ue.PendingDLBytes() > 0 || ue.PendingULBytes() > 0 {
		return true
	}
	for _, cc := range s.cell.Carriers() {
		ueCC := ue.CarrierIndex(cc)
		if ueCC < 0 {
			continue
		}
		if ue.DLRetxHarq(s.currentTTI, ueCC) != nil {
			return true
		}
		if h := ue.ULHarq(s.currentTTI, ueCC); h != nil && h.Retx {
			return true
		}
	}
	return false
}
