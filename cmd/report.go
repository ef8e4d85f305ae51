package cmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/sirupsen/logrus"

	"github.com/XiaomingSong1670/srsran-cr/sched/metrics"
	"github.com/XiaomingSong1670/srsran-cr/sched/simulator"
	"github.com/XiaomingSong1670/srsran-cr/sched/trace"
)

// runScenario simulates sc and writes the summary to out. When metricsPath is
// set, the Prometheus metrics collected during the run are written there.
func runScenario(sc *simulator.Scenario, level trace.TraceLevel, metricsPath string, out io.Writer) error {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}
	s, err := simulator.New(sc, simulator.WithObserver(collector), simulator.WithTraceLevel(level))
	if err != nil {
		return err
	}
	logrus.Infof("Starting simulation: %d TTIs, %d UEs, %d carriers, reserved carrier %d, seed %d",
		sc.TTIs, len(sc.UEs), len(sc.Cell.Carriers()), sc.Cell.ReservedCarrier, sc.Seed)
	s.Run()

	printResults(out, s.Results(), s.Summary())
	if metricsPath == "" {
		return nil
	}
	if metricsPath == "-" {
		return writeMetrics(out, reg)
	}
	f, err := os.Create(metricsPath)
	if err != nil {
		return fmt.Errorf("creating metrics file: %w", err)
	}
	defer f.Close()
	return writeMetrics(f, reg)
}

func printResults(out io.Writer, results []simulator.UEResult, summary *trace.TraceSummary) {
	fmt.Fprintln(out, "=== Simulation Results ===")
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RNTI\tSLICE\tDL_BYTES\tDL_DELIVERED\tDL_RETX\tDL_SAMPLES\tDL_AVG\tUL_BYTES\tUL_SAMPLES\tUL_AVG\tDROPPED\tATTACHED")
	for _, r := range results {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%d\t%d\t%.2f\t%d\t%t\n",
			r.RNTI, r.Slice, r.Stats.DLGrantedBytes, r.Stats.DLDeliveredBytes, r.Stats.DLRetx, r.DLSamples,
			r.DLAvgRate, r.Stats.ULGrantedBytes, r.ULSamples, r.ULAvgRate, r.Stats.DroppedTBs, r.Attached)
	}
	_ = tw.Flush()

	fmt.Fprintln(out, "=== Trace Summary ===")
	fmt.Fprintf(out, "TTIs: %d\nGrants: %d (retx %d)\nBytes: %d\nExcluded: %d\n",
		summary.TTIs, summary.TotalGrants, summary.RetxGrants, summary.TotalBytes, summary.ExcludedCount)
	fmt.Fprintf(out, "DL Jain index: %.3f\n", summary.JainIndex)
	if summary.MaxOccupancy > 0 {
		fmt.Fprintf(out, "Reserved carrier occupancy: mean %.2f, max %.2f\n", summary.MeanOccupancy, summary.MaxOccupancy)
	}
	for _, cc := range sortedCarriers(summary.BytesPerCarrier) {
		fmt.Fprintf(out, "Carrier %d: %d bytes\n", cc, summary.BytesPerCarrier[cc])
	}
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("gathering metrics: %w", err)
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

func sortedCarriers(m map[uint32]uint64) []uint32 {
	out := make([]uint32, 0, len(m))
	for cc := range m {
		out = append(out, cc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
