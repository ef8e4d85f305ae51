package trace

// TraceLevel controls the verbosity of decision tracing.
type TraceLevel string

const (
	// TraceLevelNone disables tracing.
	TraceLevelNone TraceLevel = "none"
	// TraceLevelGrants captures grants and exclusions.
	TraceLevelGrants TraceLevel = "grants"
	// TraceLevelFull additionally captures carrier coordination reports.
	TraceLevelFull TraceLevel = "full"
)

var validTraceLevels = map[TraceLevel]bool{
	TraceLevelNone:   true,
	TraceLevelGrants: true,
	TraceLevelFull:   true,
	"":               true, // empty defaults to none
}

// IsValidTraceLevel returns true if the given level string is a recognized trace level.
func IsValidTraceLevel(level string) bool {
	return validTraceLevels[TraceLevel(level)]
}

// TraceConfig controls trace collection behavior.
type TraceConfig struct {
	Level TraceLevel
}

// SimulationTrace collects decision records during a simulation run.
type SimulationTrace struct {
	Config        TraceConfig
	TTIs          int
	Grants        []GrantRecord
	Exclusions    []ExclusionRecord
	Coordinations []CoordinationRecord
}

// NewSimulationTrace creates a SimulationTrace ready for recording.
func NewSimulationTrace(config TraceConfig) *SimulationTrace {
	return &SimulationTrace{
		Config:        config,
		Grants:        make([]GrantRecord, 0),
		Exclusions:    make([]ExclusionRecord, 0),
		Coordinations: make([]CoordinationRecord, 0),
	}
}

// Enabled reports whether any records are kept.
func (st *SimulationTrace) Enabled() bool {
	return st != nil && st.Config.Level != TraceLevelNone && st.Config.Level != ""
}

// RecordTTI counts an opened TTI.
func (st *SimulationTrace) RecordTTI() {
	if st.Enabled() {
		st.TTIs++
	}
}

// RecordGrant appends a grant record.
func (st *SimulationTrace) RecordGrant(record GrantRecord) {
	if st.Enabled() {
		st.Grants = append(st.Grants, record)
	}
}

// RecordExclusion appends an exclusion record.
func (st *SimulationTrace) RecordExclusion(record ExclusionRecord) {
	if st.Enabled() {
		st.Exclusions = append(st.Exclusions, record)
	}
}

// RecordCoordination appends a coordination record at TraceLevelFull.
func (st *SimulationTrace) RecordCoordination(record CoordinationRecord) {
	if st.Enabled() && st.Config.Level == TraceLevelFull {
		st.Coordinations = append(st.Coordinations, record)
	}
}
