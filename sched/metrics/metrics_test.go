package metrics

import (
	"errors"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaomingSong1670/srsran-cr/sched"
)

func TestCollector_RecordsGrants(t *testing.T) {
	// GIVEN a collector on a fresh registry
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	// WHEN grants on two carriers are observed
	c.TTIOpened(1, 3, 1)
	c.Granted(1, 0, sched.Downlink, sched.Grant{RNTI: 70, RBGs: 4, Bytes: 400})
	c.Granted(1, 0, sched.Downlink, sched.Grant{RNTI: 71, RBGs: 2, Bytes: 150, Retx: true})
	c.Granted(1, 2, sched.Uplink, sched.Grant{RNTI: 70, RBGs: 1, Bytes: 90})

	// THEN counters are split by labels
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ttis))
	assert.Equal(t, 550.0, testutil.ToFloat64(c.grantedBytes.WithLabelValues("0", "dl")))
	assert.Equal(t, 6.0, testutil.ToFloat64(c.grantedRBGs.WithLabelValues("0", "dl")))
	assert.Equal(t, 90.0, testutil.ToFloat64(c.grantedBytes.WithLabelValues("2", "ul")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.grants.WithLabelValues("0", "dl", "true")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.queueDepth.WithLabelValues("dl")))

	expected := `
# HELP srsran_cr_scheduler_ttis_total Number of TTIs opened by the scheduler.
# TYPE srsran_cr_scheduler_ttis_total counter
srsran_cr_scheduler_ttis_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "srsran_cr_scheduler_ttis_total"))
}

func TestCollector_ExclusionsAndCoordination(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	c.Excluded(5, 72, sched.ErrHistoryFull)
	c.Excluded(6, 72, sched.ErrHistoryFull)
	mask, err := sched.ParseRBGMask("11000000")
	require.NoError(t, err)
	c.Coordinated(5, 2, mask)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.excluded))
	assert.Equal(t, 0.25, testutil.ToFloat64(c.reservedRatio.WithLabelValues("2")))
}

func TestNewCollector_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	var already prometheus.AlreadyRegisteredError
	assert.True(t, errors.As(err, &already))
}

func TestCollector_DrivenByScheduler(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)
	cell := &sched.CellParams{Carrier: 0, NofPRB: 15}
	s, err := sched.NewTimeCR(cell, sched.DefaultSchedArgs(), sched.WithObserver(c))
	require.NoError(t, err)

	s.ScheduleDownlink(emptyUsers{}, emptyGrid{})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.ttis))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.queueDepth.WithLabelValues("ul")))
}

type emptyUsers struct{}

func (emptyUsers) Users() []sched.UEView              { return nil }
func (emptyUsers) Lookup(uint16) (sched.UEView, bool) { return nil, false }

type emptyGrid struct{}

func (emptyGrid) TTI() sched.TTI                  { return 1 }
func (emptyGrid) Carrier() uint32                 { return 0 }
func (emptyGrid) NofRBGs(sched.Direction) uint32  { return 8 }
func (emptyGrid) FreeRBGs(sched.Direction) uint32 { return 8 }
func (emptyGrid) Allocate(sched.Direction, uint16, *sched.HARQProc, uint32) uint32 {
	return 0
}
