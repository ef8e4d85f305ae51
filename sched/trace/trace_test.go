package trace

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSimulationTrace_RecordGrant_AppendsInOrder(t *testing.T) {
	// GIVEN a trace configured for grants
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelGrants})

	// WHEN grants are recorded
	st.RecordGrant(GrantRecord{TTI: 10, Carrier: 0, Direction: "dl", RNTI: 70, RBGs: 4, Bytes: 400})
	st.RecordGrant(GrantRecord{TTI: 10, Carrier: 1, Direction: "ul", RNTI: 71, RBGs: 1, Bytes: 90, Retx: true})

	// THEN order and content are preserved
	want := []GrantRecord{
		{TTI: 10, Carrier: 0, Direction: "dl", RNTI: 70, RBGs: 4, Bytes: 400},
		{TTI: 10, Carrier: 1, Direction: "ul", RNTI: 71, RBGs: 1, Bytes: 90, Retx: true},
	}
	if diff := cmp.Diff(want, st.Grants); diff != "" {
		t.Errorf("grants mismatch (-want +got):\n%s", diff)
	}
}

func TestSimulationTrace_LevelNone_RecordsNothing(t *testing.T) {
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelNone})
	st.RecordTTI()
	st.RecordGrant(GrantRecord{RNTI: 70, Bytes: 1})
	st.RecordExclusion(ExclusionRecord{RNTI: 70})

	if st.TTIs != 0 || len(st.Grants) != 0 || len(st.Exclusions) != 0 {
		t.Errorf("expected empty trace, got %+v", st)
	}
}

func TestSimulationTrace_Coordination_OnlyAtFullLevel(t *testing.T) {
	grants := NewSimulationTrace(TraceConfig{Level: TraceLevelGrants})
	full := NewSimulationTrace(TraceConfig{Level: TraceLevelFull})
	rec := CoordinationRecord{TTI: 3, Carrier: 2, OccupiedRBGs: 4, NofRBGs: 8}

	grants.RecordCoordination(rec)
	full.RecordCoordination(rec)

	if len(grants.Coordinations) != 0 {
		t.Errorf("expected no coordination records at %q, got %d", TraceLevelGrants, len(grants.Coordinations))
	}
	if len(full.Coordinations) != 1 {
		t.Fatalf("expected 1 coordination record, got %d", len(full.Coordinations))
	}
	if got := full.Coordinations[0].Fraction(); got != 0.5 {
		t.Errorf("expected fraction 0.5, got %v", got)
	}
}

func TestSimulationTrace_NilIsDisabled(t *testing.T) {
	var st *SimulationTrace
	if st.Enabled() {
		t.Error("nil trace must be disabled")
	}
	st.RecordGrant(GrantRecord{}) // must not panic
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"grants", true},
		{"full", true},
		{"", true}, // empty defaults to none
		{"decisions", false},
		{"FULL", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
