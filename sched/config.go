package sched

import (
	"errors"
	"fmt"
)

// Direction selects the downlink or uplink half of a subframe.
type Direction int

const (
	Downlink Direction = iota
	Uplink
)

func (d Direction) String() string {
	if d == Uplink {
		return "ul"
	}
	return "dl"
}

// DefaultMaxUEs bounds the History Store, matching the number of UEs an eNB cell admits.
const DefaultMaxUEs = 64

var (
	// ErrInvalidCellParams is returned when cell parameters are absent or malformed.
	ErrInvalidCellParams = errors.New("invalid cell parameters")
	// ErrInvalidSchedArgs is returned when scheduler arguments are out of range.
	ErrInvalidSchedArgs = errors.New("invalid scheduler arguments")
)

// validPRBs lists the LTE channel bandwidths in PRBs.
var validPRBs = map[uint32]bool{6: true, 15: true, 25: true, 50: true, 75: true, 100: true}

// SCellConfig describes a secondary carrier aggregated by the cell.
type SCellConfig struct {
	Carrier                uint32 `yaml:"carrier"`
	CrossCarrierScheduling bool   `yaml:"cross_carrier_scheduling"`
	ULAllowed              bool   `yaml:"ul_allowed"`
}

// CellParams holds the carrier configuration of one cell.
type CellParams struct {
	CellID          uint32        `yaml:"cell_id"`
	Carrier         uint32        `yaml:"carrier"` // eNB carrier index of the primary carrier
	NofPRB          uint32        `yaml:"nof_prb"` // per carrier
	SCells          []SCellConfig `yaml:"scells"`
	ReservedCarrier uint32        `yaml:"reserved_carrier"`
}

// Validate rejects parameters the scheduler cannot run with.
func (c *CellParams) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil cell parameters", ErrInvalidCellParams)
	}
	if !validPRBs[c.NofPRB] {
		return fmt.Errorf("%w: nof_prb must be one of 6, 15, 25, 50, 75, 100, got %d", ErrInvalidCellParams, c.NofPRB)
	}
	seen := map[uint32]bool{c.Carrier: true}
	for i, sc := range c.SCells {
		if seen[sc.Carrier] {
			return fmt.Errorf("%w: scells[%d] repeats carrier %d", ErrInvalidCellParams, i, sc.Carrier)
		}
		seen[sc.Carrier] = true
	}
	if len(seen) > MaxCarriers {
		return fmt.Errorf("%w: %d carriers exceed the limit of %d", ErrInvalidCellParams, len(seen), MaxCarriers)
	}
	if !seen[c.ReservedCarrier] {
		return fmt.Errorf("%w: reserved carrier %d is not a carrier of the cell", ErrInvalidCellParams, c.ReservedCarrier)
	}
	return nil
}

// Carriers returns the eNB carrier indices of the cell, primary first.
func (c *CellParams) Carriers() []uint32 {
	out := make([]uint32, 0, 1+len(c.SCells))
	out = append(out, c.Carrier)
	for _, sc := range c.SCells {
		out = append(out, sc.Carrier)
	}
	return out
}

// HasCarrier reports whether idx is the primary carrier or one of the SCells.
func (c *CellParams) HasCarrier(idx uint32) bool {
	if idx == c.Carrier {
		return true
	}
	for _, sc := range c.SCells {
		if sc.Carrier == idx {
			return true
		}
	}
	return false
}

// RBGSize returns the number of PRBs per RBG (36.213 Table 7.1.6.1-1).
func (c *CellParams) RBGSize() uint32 {
	switch {
	case c.NofPRB <= 10:
		return 1
	case c.NofPRB <= 26:
		return 2
	case c.NofPRB <= 63:
		return 3
	default:
		return 4
	}
}

// NofRBGs returns the number of RBGs of one carrier; the last RBG may be partial.
func (c *CellParams) NofRBGs() uint32 {
	p := c.RBGSize()
	return (c.NofPRB + p - 1) / p
}

// SchedArgs selects the policy and its tuning.
type SchedArgs struct {
	Policy         string            `yaml:"policy"`
	FairnessCoeff  float64           `yaml:"fairness_coeff"` // exponent on the average rate; 1 ≈ proportional fair, 0 ≈ max throughput
	SliceFairness  map[uint8]float64 `yaml:"slice_fairness"` // per-slice override of FairnessCoeff
	SmoothingAlpha float64           `yaml:"smoothing_alpha"`
	MaxUEs         int               `yaml:"max_ues"`
}

// DefaultSchedArgs returns the time_cr defaults.
func DefaultSchedArgs() SchedArgs {
	return SchedArgs{
		Policy:         PolicyTimeCR,
		FairnessCoeff:  1,
		SmoothingAlpha: 0.01,
		MaxUEs:         DefaultMaxUEs,
	}
}

// Validate checks policy name and parameter ranges.
func (a *SchedArgs) Validate() error {
	if !IsValidPolicy(a.Policy) {
		return fmt.Errorf("%w: %q", ErrUnknownPolicy, a.Policy)
	}
	if a.FairnessCoeff < 0 {
		return fmt.Errorf("%w: fairness_coeff must be non-negative, got %f", ErrInvalidSchedArgs, a.FairnessCoeff)
	}
	for slice, coeff := range a.SliceFairness {
		if coeff < 0 {
			return fmt.Errorf("%w: slice_fairness[%d] must be non-negative, got %f", ErrInvalidSchedArgs, slice, coeff)
		}
	}
	if a.SmoothingAlpha <= 0 || a.SmoothingAlpha > 1 {
		return fmt.Errorf("%w: smoothing_alpha must be in (0,1], got %f", ErrInvalidSchedArgs, a.SmoothingAlpha)
	}
	if a.MaxUEs <= 0 {
		return fmt.Errorf("%w: max_ues must be positive, got %d", ErrInvalidSchedArgs, a.MaxUEs)
	}
	return nil
}

// FairnessFor returns the fairness coefficient applied to UEs of the given slice.
func (a *SchedArgs) FairnessFor(slice uint8) float64 {
	if coeff, ok := a.SliceFairness[slice]; ok {
		return coeff
	}
	return a.FairnessCoeff
}
