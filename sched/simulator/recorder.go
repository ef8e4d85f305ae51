package simulator

import (
	"github.com/XiaomingSong1670/srsran-cr/sched"
	"github.com/XiaomingSong1670/srsran-cr/sched/trace"
)

// traceRecorder copies scheduler events into a SimulationTrace.
type traceRecorder struct {
	trace *trace.SimulationTrace
}

var _ sched.Observer = (*traceRecorder)(nil)

func (r *traceRecorder) TTIOpened(sched.TTI, int, int) {
	r.trace.RecordTTI()
}

func (r *traceRecorder) Granted(tti sched.TTI, carrier uint32, dir sched.Direction, g sched.Grant) {
	r.trace.RecordGrant(trace.GrantRecord{
		TTI:       uint32(tti),
		Carrier:   carrier,
		Direction: dir.String(),
		RNTI:      g.RNTI,
		RBGs:      g.RBGs,
		Bytes:     g.Bytes,
		Retx:      g.Retx,
	})
}

func (r *traceRecorder) Excluded(tti sched.TTI, rnti uint16, err error) {
	r.trace.RecordExclusion(trace.ExclusionRecord{TTI: uint32(tti), RNTI: rnti, Reason: err.Error()})
}

func (r *traceRecorder) Coordinated(tti sched.TTI, carrier uint32, mask sched.RBGMask) {
	r.trace.RecordCoordination(trace.CoordinationRecord{
		TTI:          uint32(tti),
		Carrier:      carrier,
		OccupiedRBGs: mask.Count(),
		NofRBGs:      mask.Size(),
	})
}
