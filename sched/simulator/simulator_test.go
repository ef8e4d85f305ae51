package simulator

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaomingSong1670/srsran-cr/sched"
	"github.com/XiaomingSong1670/srsran-cr/sched/trace"
)

func runDefault(t *testing.T, opts ...Option) *Simulator {
	t.Helper()
	s, err := New(DefaultScenario(), opts...)
	require.NoError(t, err)
	s.Run()
	return s
}

func TestSimulator_DefaultScenario_NoUEWithDataStarves(t *testing.T) {
	// GIVEN six UEs on three carriers with bursts from tick 100
	s := runDefault(t)

	// THEN by tick 600 every UE that received downlink data has a sample and a positive average
	require.Equal(t, int64(600), s.Tick())
	results := s.Results()
	require.Len(t, results, 6)
	served := 0
	for _, r := range results {
		assert.True(t, r.Attached)
		if r.Stats.DLGrantedBytes == 0 {
			continue
		}
		served++
		assert.Greater(t, r.DLSamples, uint32(0), "rnti %d", r.RNTI)
		assert.Greater(t, r.DLAvgRate, 0.0, "rnti %d", r.RNTI)
	}
	for _, rnti := range []uint16{70, 73, 74, 75} {
		assert.NotZero(t, resultFor(t, results, rnti).Stats.DLGrantedBytes, "rnti %d never served", rnti)
	}
	assert.Equal(t, 4, served)

	// AND uplink sources were served too
	for _, rnti := range []uint16{71, 72} {
		r := resultFor(t, results, rnti)
		assert.NotZero(t, r.Stats.ULGrantedBytes, "rnti %d", r.RNTI)
		assert.Greater(t, r.ULSamples, uint32(0))
	}
}

func TestSimulator_DefaultScenario_GrantsRespectReservation(t *testing.T) {
	s := runDefault(t, WithTraceLevel(trace.TraceLevelFull))
	tr := s.Trace()
	require.NotEmpty(t, tr.Coordinations)

	occupied := map[uint32]uint{}
	for _, c := range tr.Coordinations {
		assert.Equal(t, uint32(2), c.Carrier)
		occupied[c.TTI] = c.OccupiedRBGs
	}
	used := map[uint32]uint32{}
	for _, g := range tr.Grants {
		if g.Carrier == 2 && g.Direction == "dl" {
			used[g.TTI] += g.RBGs
		}
	}
	for tti, rbgs := range used {
		assert.LessOrEqual(t, rbgs+uint32(occupied[tti]), uint32(8), "tti %d", tti)
	}

	summary := s.Summary()
	assert.Equal(t, 600, summary.TTIs)
	assert.Greater(t, summary.TotalBytes, uint64(0))
	assert.Zero(t, summary.ExcludedCount)
}

func TestSimulator_SameSeed_IdenticalRun(t *testing.T) {
	a := runDefault(t)
	b := runDefault(t)
	if diff := cmp.Diff(a.Results(), b.Results()); diff != "" {
		t.Errorf("results differ (-first +second):\n%s", diff)
	}
	assert.Equal(t, len(a.Trace().Grants), len(b.Trace().Grants))
}

func TestSimulator_UELeave_DropsHistory(t *testing.T) {
	sc := DefaultScenario()
	sc.TTIs = 200
	sc.UEs[0].LeaveTTI = 150
	s, err := New(sc)
	require.NoError(t, err)
	s.Run()

	r := resultFor(t, s.Results(), 70)
	assert.False(t, r.Attached)
	assert.NotZero(t, r.Stats.DLGrantedBytes)
	hr, ok := s.Scheduler().(sched.HistoryReader)
	require.True(t, ok)
	_, known := hr.Context(70)
	assert.False(t, known)
}

func TestSimulator_HistoryFull_ExclusionsTraced(t *testing.T) {
	sc := DefaultScenario()
	sc.TTIs = 120
	sc.Scheduler.MaxUEs = 2
	s, err := New(sc)
	require.NoError(t, err)
	s.Run()

	summary := s.Summary()
	assert.Greater(t, summary.ExcludedCount, 0)
	for _, e := range s.Trace().Exclusions {
		assert.Contains(t, e.Reason, sched.ErrHistoryFull.Error())
	}
}

func TestSimulator_ObserverReceivesEvents(t *testing.T) {
	obs := &tallyObserver{}
	runDefault(t, WithObserver(obs))
	assert.Equal(t, 600, obs.ttis)
	assert.Greater(t, obs.grants, 0)
	assert.Greater(t, obs.coordinated, 0)
}

func TestSimulator_RunTwicePanics(t *testing.T) {
	sc := DefaultScenario()
	sc.TTIs = 5
	s, err := New(sc)
	require.NoError(t, err)
	s.Run()
	assert.Panics(t, s.Run)
}

func TestNew_RejectsInvalidScenario(t *testing.T) {
	sc := DefaultScenario()
	sc.TTIs = -1
	_, err := New(sc)
	assert.ErrorIs(t, err, ErrInvalidScenario)
}

func resultFor(t *testing.T, results []UEResult, rnti uint16) UEResult {
	t.Helper()
	for _, r := range results {
		if r.RNTI == rnti {
			return r
		}
	}
	t.Fatalf("no result for rnti %d", rnti)
	return UEResult{}
}

type tallyObserver struct {
	ttis, grants, coordinated int
}

func (o *tallyObserver) TTIOpened(sched.TTI, int, int)                           { o.ttis++ }
func (o *tallyObserver) Granted(sched.TTI, uint32, sched.Direction, sched.Grant) { o.grants++ }
func (o *tallyObserver) Excluded(sched.TTI, uint16, error)                       {}
func (o *tallyObserver) Coordinated(sched.TTI, uint32, sched.RBGMask)            { o.coordinated++ }
