package simulator

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/XiaomingSong1670/srsran-cr/sched"
	"github.com/XiaomingSong1670/srsran-cr/sched/trace"
)

// ueRemover is implemented by schedulers that can forget departed UEs.
type ueRemover interface {
	RemoveUE(rnti uint16) bool
}

// UEResult is the end-of-run view of one UE.
type UEResult struct {
	RNTI      uint16
	Slice     uint8
	Attached  bool
	Stats     UEStats
	DLSamples uint32
	ULSamples uint32
	DLAvgRate float64 // bytes per TTI, smoothed by the scheduler
	ULAvgRate float64
}

// Option customizes a Simulator.
type Option func(*options)

type options struct {
	observers  []sched.Observer
	traceLevel trace.TraceLevel
}

// WithObserver adds a scheduler observer next to the trace recorder.
func WithObserver(o sched.Observer) Option {
	return func(opts *options) {
		opts.observers = append(opts.observers, o)
	}
}

// WithTraceLevel sets how much of the run is recorded. Defaults to grants.
func WithTraceLevel(level trace.TraceLevel) Option {
	return func(opts *options) {
		opts.traceLevel = level
	}
}

// Simulator drives a scheduler tick by tick over a scenario, standing in for
// the MAC layer of the eNB: it owns the UE database, builds one subframe grid
// per carrier and tick, and emulates HARQ feedback.
type Simulator struct {
	scenario  *Scenario
	scheduler sched.Scheduler
	rng       *PartitionedRNG
	events    *EventHeap
	ues       ueDB
	departed  map[uint16]UEResult
	trace     *trace.SimulationTrace
	passOrder []uint32

	tick     int64
	excluded int
	rejected int
	hasRun   bool
}

// New validates the scenario and creates a simulator with a fresh scheduler.
func New(sc *Scenario, opts ...Option) (*Simulator, error) {
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	o := options{traceLevel: trace.TraceLevelGrants}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Simulator{
		scenario: sc,
		rng:      NewPartitionedRNG(SimulationKey(sc.Seed)),
		events:   NewEventHeap(),
		ues:      make(ueDB),
		departed: make(map[uint16]UEResult),
		trace:    trace.NewSimulationTrace(trace.TraceConfig{Level: o.traceLevel}),
	}
	observer := sched.Observers(append([]sched.Observer{&traceRecorder{trace: s.trace}}, o.observers...)...)
	scheduler, err := sched.NewScheduler(&sc.Cell, sc.Scheduler, sched.WithObserver(observer))
	if err != nil {
		return nil, err
	}
	s.scheduler = scheduler

	// reserved carrier last so the coordination report precedes its pass
	for _, cc := range sc.Cell.Carriers() {
		if cc != sc.Cell.ReservedCarrier {
			s.passOrder = append(s.passOrder, cc)
		}
	}
	s.passOrder = append(s.passOrder, sc.Cell.ReservedCarrier)

	for _, ev := range sc.events(s.rng) {
		s.events.Schedule(ev)
	}
	return s, nil
}

// Scheduler returns the scheduler under test.
func (s *Simulator) Scheduler() sched.Scheduler {
	return s.scheduler
}

// Tick returns the last simulated tick.
func (s *Simulator) Tick() int64 {
	return s.tick
}

// Trace returns the decision trace recorded so far.
func (s *Simulator) Trace() *trace.SimulationTrace {
	return s.trace
}

// Step advances one tick: applies due events and HARQ feedback, then runs the
// downlink passes of every carrier followed by the uplink passes.
func (s *Simulator) Step() {
	s.tick++
	for ev := s.events.Peek(); ev != nil && ev.Tick() <= s.tick; ev = s.events.Peek() {
		s.events.PopNext().Apply(s)
	}
	harqRNG := s.rng.ForSubsystem(SubsystemHARQ)
	for _, ue := range s.ues.sorted() {
		ue.feedback(s.tick, harqRNG, s.scenario.HARQ)
	}

	grids := make(map[uint32]*subframeGrid, len(s.passOrder))
	for _, cc := range s.passOrder {
		grids[cc] = newSubframeGrid(s.tick, cc, &s.scenario.Cell, s.ues)
	}
	reserved := s.scenario.Cell.ReservedCarrier
	for _, cc := range s.passOrder {
		if cc == reserved && s.scenario.Coordination.Enabled {
			s.scheduler.RecordCCResult(grids[s.scenario.Coordination.Source].Mask(sched.Downlink))
		}
		s.collect(s.scheduler.ScheduleDownlink(s.ues, grids[cc]))
	}
	for _, cc := range s.passOrder {
		s.collect(s.scheduler.ScheduleUplink(s.ues, grids[cc]))
	}
}

func (s *Simulator) collect(report sched.PassReport) {
	s.excluded += len(report.Excluded)
	s.rejected += len(report.Rejected)
	if len(report.Grants) > 0 {
		logrus.Debugf("[tick %d] %s carrier %d: %d grants, %d/%d rbgs, %d bytes", s.tick, report.Direction,
			report.Carrier, len(report.Grants), report.UsedRBGs, report.Budget, report.GrantedBytes())
	}
}

// Run simulates until the scenario's last tick.
// Panics if called more than once.
func (s *Simulator) Run() {
	if s.hasRun {
		panic("Simulator.Run() called more than once")
	}
	s.hasRun = true
	for s.tick < s.scenario.TTIs {
		s.Step()
	}
	logrus.Infof("simulation finished at tick %d: %d grants, %d rejected attempts, %d exclusions",
		s.tick, len(s.trace.Grants), s.rejected, s.excluded)
}

func (s *Simulator) addUE(cfg UEConfig) {
	if _, ok := s.ues[cfg.RNTI]; ok {
		logrus.Warnf("[tick %d] rnti %d already attached", s.tick, cfg.RNTI)
		return
	}
	s.ues[cfg.RNTI] = newSimUE(cfg, s.scenario.DefaultCQI)
	delete(s.departed, cfg.RNTI)
	logrus.Debugf("[tick %d] rnti %d attached on carriers %v", s.tick, cfg.RNTI, cfg.Carriers)
}

func (s *Simulator) removeUE(rnti uint16) {
	ue, ok := s.ues[rnti]
	if !ok {
		return
	}
	s.departed[rnti] = s.result(ue, false)
	delete(s.ues, rnti)
	if r, ok := s.scheduler.(ueRemover); ok {
		r.RemoveUE(rnti)
	}
	logrus.Debugf("[tick %d] rnti %d detached", s.tick, rnti)
}

func (s *Simulator) result(ue *simUE, attached bool) UEResult {
	res := UEResult{RNTI: ue.rnti, Slice: ue.slice, Attached: attached, Stats: ue.stats}
	if hr, ok := s.scheduler.(sched.HistoryReader); ok {
		if ctx, ok := hr.Context(ue.rnti); ok {
			res.DLSamples = ctx.DownlinkSampleCount()
			res.ULSamples = ctx.UplinkSampleCount()
			res.DLAvgRate = ctx.AverageDownlinkRate()
			res.ULAvgRate = ctx.AverageUplinkRate()
		}
	}
	return res
}

// Results returns one entry per UE that attached during the run, sorted by RNTI.
func (s *Simulator) Results() []UEResult {
	out := make([]UEResult, 0, len(s.ues)+len(s.departed))
	for _, ue := range s.ues {
		out = append(out, s.result(ue, true))
	}
	for _, res := range s.departed {
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RNTI < out[j].RNTI })
	return out
}

// Summary aggregates the recorded trace.
func (s *Simulator) Summary() *trace.TraceSummary {
	return trace.Summarize(s.trace)
}

func (db ueDB) sorted() []*simUE {
	out := make([]*simUE, 0, len(db))
	for _, ue := range db {
		out = append(out, ue)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].rnti < out[j].rnti })
	return out
}
