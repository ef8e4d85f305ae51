package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/XiaomingSong1670/srsran-cr/sched"
	"github.com/XiaomingSong1670/srsran-cr/sched/simulator"
	"github.com/XiaomingSong1670/srsran-cr/sched/trace"
)

func shortScenario() *simulator.Scenario {
	sc := simulator.DefaultScenario()
	sc.TTIs = 150
	return sc
}

func TestRunScenario_PrintsResultsAndMetrics(t *testing.T) {
	// GIVEN the built-in scenario cut to 150 TTIs
	var out bytes.Buffer

	// WHEN it runs with metrics on stdout
	err := runScenario(shortScenario(), trace.TraceLevelFull, "-", &out)

	// THEN the summary table and the Prometheus exposition are printed
	require.NoError(t, err)
	output := out.String()
	assert.Contains(t, output, "=== Simulation Results ===")
	assert.Contains(t, output, "TTIs: 150")
	assert.Contains(t, output, "Reserved carrier occupancy")
	for _, rnti := range []string{"70", "75"} {
		assert.Contains(t, output, "\n"+rnti+" ", "row for rnti %s", rnti)
	}
	assert.Contains(t, output, "# TYPE srsran_cr_scheduler_ttis_total counter")
	assert.Contains(t, output, "srsran_cr_scheduler_ttis_total 150")
}

func TestRunScenario_MetricsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metrics.prom")
	var out bytes.Buffer
	require.NoError(t, runScenario(shortScenario(), trace.TraceLevelGrants, path, &out))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "srsran_cr_scheduler_granted_bytes_total")
	assert.NotContains(t, out.String(), "# TYPE")
}

func TestLoadScenario_ConfigOverridesCell(t *testing.T) {
	dir := t.TempDir()
	cfg := filepath.Join(dir, "sched.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
cell:
  cell_id: 9
  carrier: 0
  nof_prb: 25
  scells:
    - carrier: 1
    - carrier: 2
  reserved_carrier: 2
scheduler:
  fairness_coeff: 0.7
`), 0o644))

	sc, err := loadScenario("", cfg)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), sc.Cell.CellID)
	assert.Equal(t, uint32(25), sc.Cell.NofPRB)
	assert.Equal(t, 0.7, sc.Scheduler.FairnessCoeff)
	assert.Equal(t, sched.PolicyTimeCR, sc.Scheduler.Policy)
	assert.Len(t, sc.UEs, 6, "UEs still come from the built-in scenario")
}

func TestLoadScenario_ConfigIncompatibleWithScenario(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "sched.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("cell:\n  carrier: 0\n  nof_prb: 15\n  reserved_carrier: 0\n"), 0o644))

	_, err := loadScenario("", cfg)
	assert.ErrorIs(t, err, simulator.ErrInvalidScenario)
}

func TestWriteScenario_RoundTrips(t *testing.T) {
	// GIVEN the built-in scenario printed as YAML
	var buf bytes.Buffer
	require.NoError(t, writeScenario(&buf, simulator.DefaultScenario()))
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	// WHEN it is loaded back
	sc, err := loadScenario(path, "")

	// THEN it equals the built-in scenario
	require.NoError(t, err)
	assert.Equal(t, simulator.DefaultScenario(), sc)
	assert.True(t, strings.HasPrefix(buf.String(), "seed: 1\n"))
}
