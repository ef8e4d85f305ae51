package simulator

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/XiaomingSong1670/srsran-cr/sched"
)

// ErrInvalidScenario is returned when a scenario cannot be run.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario describes one deterministic simulation run.
type Scenario struct {
	Seed         int64              `yaml:"seed"`
	TTIs         int64              `yaml:"ttis"` // last tick simulated
	Cell         sched.CellParams   `yaml:"cell"`
	Scheduler    sched.SchedArgs    `yaml:"scheduler"`
	Coordination CoordinationConfig `yaml:"coordination"`
	HARQ         HARQConfig         `yaml:"harq"`
	DefaultCQI   uint32             `yaml:"default_cqi"`
	UEs          []UEConfig         `yaml:"ues"`
	CQIReports   []CQIReport        `yaml:"cqi_reports"`
	Traffic      []TrafficSource    `yaml:"traffic"`
}

// CoordinationConfig selects the carrier whose downlink RBG usage is
// reported to the scheduler before the reserved carrier's pass.
type CoordinationConfig struct {
	Enabled bool   `yaml:"enabled"`
	Source  uint32 `yaml:"source"`
}

// HARQConfig controls the ACK/NACK emulation.
type HARQConfig struct {
	NACKProbability float64 `yaml:"nack_probability"`
	MaxRetx         uint32  `yaml:"max_retx"`
}

// UEConfig attaches one UE.
type UEConfig struct {
	RNTI     uint16   `yaml:"rnti"`
	Slice    uint8    `yaml:"slice"`
	JoinTTI  int64    `yaml:"join_tti"`
	LeaveTTI int64    `yaml:"leave_tti"` // 0 keeps the UE until the end
	Carriers []uint32 `yaml:"carriers"`  // eNB carriers in UE-local order, primary first
}

// CQIReport sets the channel quality of a UE on some carriers.
type CQIReport struct {
	TTI       int64    `yaml:"tti"`
	RNTI      uint16   `yaml:"rnti"`      // 0 applies to every configured UE
	Carriers  []uint32 `yaml:"carriers"`  // empty applies to every carrier of the UE
	Direction string   `yaml:"direction"` // "dl", "ul" or empty for both
	CQI       uint32   `yaml:"cqi"`
}

// TrafficSource generates Count bursts of data, Period ticks apart. Burst k
// carries Bytes + k*Increment bytes and is delayed by up to Jitter ticks.
type TrafficSource struct {
	RNTI      uint16 `yaml:"rnti"`
	Direction string `yaml:"direction"`
	StartTTI  int64  `yaml:"start_tti"`
	Bytes     uint32 `yaml:"bytes"`
	Increment uint32 `yaml:"increment"`
	Period    int64  `yaml:"period"`
	Count     int    `yaml:"count"`
	Jitter    int64  `yaml:"jitter"`
}

// DefaultHARQConfig returns the ACK/NACK emulation defaults.
func DefaultHARQConfig() HARQConfig {
	return HARQConfig{NACKProbability: 0.1, MaxRetx: 4}
}

func parseDirection(s string) (sched.Direction, error) {
	switch s {
	case "dl", "":
		return sched.Downlink, nil
	case "ul":
		return sched.Uplink, nil
	default:
		return sched.Downlink, fmt.Errorf("unknown direction %q (want dl or ul)", s)
	}
}

// LoadScenario reads and validates a YAML scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario decodes a YAML scenario on top of the defaults and validates it.
// Unknown keys are rejected.
func ParseScenario(data []byte) (*Scenario, error) {
	sc := &Scenario{
		Scheduler:  sched.DefaultSchedArgs(),
		HARQ:       DefaultHARQConfig(),
		DefaultCQI: 10,
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(sc); err != nil {
		return nil, fmt.Errorf("parsing scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return sc, nil
}

// Validate checks the scenario against its cell configuration.
func (sc *Scenario) Validate() error {
	if sc.TTIs <= 0 {
		return fmt.Errorf("%w: ttis must be positive, got %d", ErrInvalidScenario, sc.TTIs)
	}
	if err := sc.Cell.Validate(); err != nil {
		return err
	}
	if err := sc.Scheduler.Validate(); err != nil {
		return err
	}
	if sc.Coordination.Enabled {
		if !sc.Cell.HasCarrier(sc.Coordination.Source) || sc.Coordination.Source == sc.Cell.ReservedCarrier {
			return fmt.Errorf("%w: coordination source %d must be a non-reserved carrier of the cell",
				ErrInvalidScenario, sc.Coordination.Source)
		}
	}
	if sc.HARQ.NACKProbability < 0 || sc.HARQ.NACKProbability >= 1 {
		return fmt.Errorf("%w: nack_probability must be in [0,1), got %f", ErrInvalidScenario, sc.HARQ.NACKProbability)
	}
	if sc.DefaultCQI < 1 || sc.DefaultCQI > 15 {
		return fmt.Errorf("%w: default_cqi must be in [1,15], got %d", ErrInvalidScenario, sc.DefaultCQI)
	}

	known := make(map[uint16]bool, len(sc.UEs))
	for i, ue := range sc.UEs {
		if ue.RNTI == 0 || known[ue.RNTI] {
			return fmt.Errorf("%w: ues[%d] has zero or duplicate rnti %d", ErrInvalidScenario, i, ue.RNTI)
		}
		known[ue.RNTI] = true
		if len(ue.Carriers) == 0 {
			return fmt.Errorf("%w: ue %d has no carriers", ErrInvalidScenario, ue.RNTI)
		}
		for _, cc := range ue.Carriers {
			if !sc.Cell.HasCarrier(cc) {
				return fmt.Errorf("%w: ue %d uses carrier %d outside the cell", ErrInvalidScenario, ue.RNTI, cc)
			}
		}
		if ue.JoinTTI < 0 || (ue.LeaveTTI != 0 && ue.LeaveTTI <= ue.JoinTTI) {
			return fmt.Errorf("%w: ue %d must join before it leaves", ErrInvalidScenario, ue.RNTI)
		}
	}
	for i, r := range sc.CQIReports {
		if r.RNTI != 0 && !known[r.RNTI] {
			return fmt.Errorf("%w: cqi_reports[%d] references unknown rnti %d", ErrInvalidScenario, i, r.RNTI)
		}
		if r.CQI > 15 {
			return fmt.Errorf("%w: cqi_reports[%d] cqi %d out of range", ErrInvalidScenario, i, r.CQI)
		}
		if _, err := parseDirection(r.Direction); err != nil {
			return fmt.Errorf("%w: cqi_reports[%d]: %v", ErrInvalidScenario, i, err)
		}
	}
	for i, t := range sc.Traffic {
		if !known[t.RNTI] {
			return fmt.Errorf("%w: traffic[%d] references unknown rnti %d", ErrInvalidScenario, i, t.RNTI)
		}
		if _, err := parseDirection(t.Direction); err != nil {
			return fmt.Errorf("%w: traffic[%d]: %v", ErrInvalidScenario, i, err)
		}
		if t.Count < 1 || (t.Count > 1 && t.Period <= 0) || t.Jitter < 0 {
			return fmt.Errorf("%w: traffic[%d] needs count >= 1, a positive period for repeated bursts and non-negative jitter",
				ErrInvalidScenario, i)
		}
	}
	return nil
}

// DefaultScenario is a three-carrier cell with six UEs. UEs 1-4 join at ticks
// 1, 10, 20 and 30 on all carriers in slice 1, UEs 5-6 join at 40 and 50 on
// carriers 1 and 2 in slice 2. CQI settles at 14 on the secondary carriers at
// tick 60. From tick 100 UE 5 and UE 6 get a 1 MB burst while UE 1 and UE 4
// get growing bursts every 10 ticks; UE 2 and UE 3 send uplink data.
// Carrier 2 is reserved and carrier 1 reports its occupancy.
func DefaultScenario() *Scenario {
	args := sched.DefaultSchedArgs()
	args.SliceFairness = map[uint8]float64{1: 1.0, 2: 0.8}

	sc := &Scenario{
		Seed: 1,
		TTIs: 600,
		Cell: sched.CellParams{
			CellID:  1,
			Carrier: 0,
			NofPRB:  15,
			SCells: []sched.SCellConfig{
				{Carrier: 1, ULAllowed: true},
				{Carrier: 2, ULAllowed: true},
			},
			ReservedCarrier: 2,
		},
		Scheduler:    args,
		Coordination: CoordinationConfig{Enabled: true, Source: 1},
		HARQ:         DefaultHARQConfig(),
		DefaultCQI:   10,
	}

	joins := []int64{1, 10, 20, 30, 40, 50}
	for i, join := range joins {
		ue := UEConfig{RNTI: uint16(70 + i), Slice: 1, JoinTTI: join, Carriers: []uint32{0, 1, 2}}
		if i >= 4 {
			ue.Slice, ue.Carriers = 2, []uint32{1, 2}
		}
		sc.UEs = append(sc.UEs, ue)
	}
	sc.CQIReports = []CQIReport{{TTI: 60, Carriers: []uint32{1, 2}, Direction: "dl", CQI: 14}}
	sc.Traffic = []TrafficSource{
		{RNTI: 74, Direction: "dl", StartTTI: 100, Bytes: 1_000_000, Count: 1},
		{RNTI: 75, Direction: "dl", StartTTI: 100, Bytes: 1_000_000, Count: 1},
		{RNTI: 70, Direction: "dl", StartTTI: 100, Bytes: 100, Increment: 200, Period: 10, Count: 50},
		{RNTI: 73, Direction: "dl", StartTTI: 100, Bytes: 100, Increment: 200, Period: 10, Count: 50},
		{RNTI: 71, Direction: "ul", StartTTI: 100, Bytes: 200, Period: 20, Count: 25},
		{RNTI: 72, Direction: "ul", StartTTI: 105, Bytes: 200, Period: 20, Count: 25, Jitter: 3},
	}
	return sc
}

// events expands the scenario into its input events.
func (sc *Scenario) events(rng *PartitionedRNG) []Event {
	var out []Event
	for _, ue := range sc.UEs {
		out = append(out, &UEJoinEvent{At: ue.JoinTTI, Cfg: ue})
		if ue.LeaveTTI > 0 {
			out = append(out, &UELeaveEvent{At: ue.LeaveTTI, RNTI: ue.RNTI})
		}
	}
	for _, r := range sc.CQIReports {
		dirs := []sched.Direction{sched.Downlink, sched.Uplink}
		if r.Direction != "" {
			d, _ := parseDirection(r.Direction)
			dirs = []sched.Direction{d}
		}
		for _, ue := range sc.UEs {
			if r.RNTI != 0 && r.RNTI != ue.RNTI {
				continue
			}
			carriers := r.Carriers
			if len(carriers) == 0 {
				carriers = ue.Carriers
			}
			for _, cc := range carriers {
				for _, d := range dirs {
					out = append(out, &CQIReportEvent{At: r.TTI, RNTI: ue.RNTI, Carrier: cc, Dir: d, CQI: r.CQI})
				}
			}
		}
	}
	jitter := rng.ForSubsystem(SubsystemTraffic)
	for _, t := range sc.Traffic {
		dir, _ := parseDirection(t.Direction)
		for k := 0; k < t.Count; k++ {
			at := t.StartTTI + int64(k)*t.Period
			if t.Jitter > 0 {
				at += jitter.Int63n(t.Jitter + 1)
			}
			out = append(out, &DataEvent{At: at, RNTI: t.RNTI, Dir: dir, Bytes: t.Bytes + uint32(k)*t.Increment})
		}
	}
	return out
}
