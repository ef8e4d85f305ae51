package trace

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize_NilAndEmptyTrace_ZeroValues(t *testing.T) {
	for _, st := range []*SimulationTrace{nil, NewSimulationTrace(TraceConfig{Level: TraceLevelFull})} {
		summary := Summarize(st)
		assert.Zero(t, summary.TotalGrants)
		assert.Zero(t, summary.TotalBytes)
		assert.Zero(t, summary.UniqueUEs)
		assert.Zero(t, summary.JainIndex)
		assert.Zero(t, summary.MeanOccupancy)
		assert.Empty(t, summary.BytesPerUE)
	}
}

func TestSummarize_PopulatedTrace_CorrectTotals(t *testing.T) {
	// GIVEN grants on two carriers in both directions
	st := NewSimulationTrace(TraceConfig{Level: TraceLevelFull})
	st.RecordTTI()
	st.RecordTTI()
	st.RecordGrant(GrantRecord{TTI: 1, Carrier: 0, Direction: "dl", RNTI: 70, Bytes: 300})
	st.RecordGrant(GrantRecord{TTI: 1, Carrier: 1, Direction: "dl", RNTI: 71, Bytes: 100, Retx: true})
	st.RecordGrant(GrantRecord{TTI: 2, Carrier: 1, Direction: "ul", RNTI: 70, Bytes: 50})
	st.RecordExclusion(ExclusionRecord{TTI: 2, RNTI: 99, Reason: "history full"})
	st.RecordCoordination(CoordinationRecord{TTI: 1, Carrier: 2, OccupiedRBGs: 2, NofRBGs: 8})
	st.RecordCoordination(CoordinationRecord{TTI: 2, Carrier: 2, OccupiedRBGs: 6, NofRBGs: 8})

	// WHEN summarized
	summary := Summarize(st)

	// THEN totals are split per UE and per carrier
	assert.Equal(t, 2, summary.TTIs)
	assert.Equal(t, 3, summary.TotalGrants)
	assert.Equal(t, 1, summary.RetxGrants)
	assert.Equal(t, uint64(450), summary.TotalBytes)
	assert.Equal(t, 1, summary.ExcludedCount)
	assert.Equal(t, 2, summary.UniqueUEs)
	assert.Equal(t, map[uint16]uint64{70: 350, 71: 100}, summary.BytesPerUE)
	assert.Equal(t, map[uint16]uint64{70: 300, 71: 100}, summary.DownlinkPerUE)
	assert.Equal(t, map[uint32]uint64{0: 300, 1: 150}, summary.BytesPerCarrier)
	assert.InDelta(t, 0.5, summary.MeanOccupancy, 1e-9)
	assert.InDelta(t, 0.75, summary.MaxOccupancy, 1e-9)
}

func TestSummarize_JainIndex(t *testing.T) {
	tests := []struct {
		name  string
		bytes []uint32
		want  float64
	}{
		{"equal shares", []uint32{100, 100, 100, 100}, 1},
		{"one UE takes all", []uint32{400, 0, 0, 0}, 0.25},
		{"two to one", []uint32{200, 100}, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewSimulationTrace(TraceConfig{Level: TraceLevelGrants})
			for i, b := range tt.bytes {
				st.RecordGrant(GrantRecord{Direction: "dl", RNTI: uint16(70 + i), Bytes: b})
			}
			got := Summarize(st).JainIndex
			assert.False(t, math.IsNaN(got))
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}
