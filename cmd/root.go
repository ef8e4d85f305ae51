package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/XiaomingSong1670/srsran-cr/sched"
	"github.com/XiaomingSong1670/srsran-cr/sched/simulator"
	"github.com/XiaomingSong1670/srsran-cr/sched/trace"
)

var (
	configPath   string // Scheduler bundle (cell + scheduler args) overriding the scenario's
	scenarioPath string // Scenario YAML; empty runs the built-in six-UE scenario
	seed         int64  // Overrides the scenario seed when set
	ttis         int64  // Overrides the scenario length when set
	logLevel     string // Log verbosity level
	metricsPath  string // Prometheus text output, "-" for stdout
	traceLevel   string // Decision trace verbosity
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "srsran-cr",
	Short: "Time-domain carrier-reservation MAC scheduler and its simulation harness",
}

// runCmd runs a scenario through the scheduler
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Simulate a scenario and print the per-UE summary",
	Run: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
		if !trace.IsValidTraceLevel(traceLevel) {
			logrus.Fatalf("Invalid trace level: %s", traceLevel)
		}

		sc, err := loadScenario(scenarioPath, configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if cmd.Flags().Changed("seed") {
			sc.Seed = seed
		}
		if cmd.Flags().Changed("ttis") {
			sc.TTIs = ttis
		}
		if err := runScenario(sc, trace.TraceLevel(traceLevel), metricsPath, os.Stdout); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// scenarioCmd prints the built-in scenario as YAML, a starting point for --scenario files
var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Print the built-in scenario as YAML",
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeScenario(cmd.OutOrStdout(), simulator.DefaultScenario())
	},
}

// loadScenario returns the scenario file (or the built-in one) with the
// cell and scheduler replaced by the bundle at configPath, if any.
func loadScenario(scenarioPath, configPath string) (*simulator.Scenario, error) {
	sc := simulator.DefaultScenario()
	if scenarioPath != "" {
		var err error
		if sc, err = simulator.LoadScenario(scenarioPath); err != nil {
			return nil, err
		}
	}
	if configPath != "" {
		bundle, err := sched.LoadSchedulerConfig(configPath)
		if err != nil {
			return nil, err
		}
		sc.Cell, sc.Scheduler = bundle.Cell, bundle.Args
		if err := sc.Validate(); err != nil {
			return nil, fmt.Errorf("scheduler config %s does not fit the scenario: %w", configPath, err)
		}
	}
	return sc, nil
}

func writeScenario(w io.Writer, sc *simulator.Scenario) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(sc); err != nil {
		return fmt.Errorf("encoding scenario: %w", err)
	}
	return enc.Close()
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Scheduler config YAML (cell and scheduler sections)")
	runCmd.Flags().StringVar(&scenarioPath, "scenario", "", "Scenario YAML (default: built-in six-UE scenario)")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "Seed for HARQ and traffic randomness (overrides the scenario)")
	runCmd.Flags().Int64Var(&ttis, "ttis", 600, "Number of TTIs to simulate (overrides the scenario)")
	runCmd.Flags().StringVar(&logLevel, "log", "warn", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&metricsPath, "metrics", "", "Write Prometheus metrics in text format to this file (\"-\" for stdout)")
	runCmd.Flags().StringVar(&traceLevel, "trace", string(trace.TraceLevelFull), "Decision trace level (none, grants, full)")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(scenarioCmd)
}
