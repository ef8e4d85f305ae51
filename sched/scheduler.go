package sched

import (
	"errors"
	"fmt"
)

// PolicyTimeCR names the time-domain rate-fair policy with carrier reservation.
const PolicyTimeCR = "time_cr"

// ErrUnknownPolicy is returned for unrecognized policy names.
var ErrUnknownPolicy = errors.New("unknown scheduler policy")

// validPolicies is the set of recognized policy names. Empty selects time_cr.
var validPolicies = map[string]bool{"": true, PolicyTimeCR: true}

// IsValidPolicy reports whether name selects a known policy.
func IsValidPolicy(name string) bool {
	return validPolicies[name]
}

// Scheduler is the capability set the MAC stack drives every TTI.
type Scheduler interface {
	// ScheduleDownlink allocates downlink grants on the grid's carrier.
	ScheduleDownlink(users ActiveUsers, grid SubframeGrid) PassReport
	// ScheduleUplink allocates uplink grants on the grid's carrier.
	ScheduleUplink(users ActiveUsers, grid SubframeGrid) PassReport
	// RecordCCResult reports the RBGs another carrier pass consumed on the
	// reserved carrier in the current TTI.
	RecordCCResult(mask RBGMask)
}

// HistoryReader exposes the per-UE rate history of a scheduler.
type HistoryReader interface {
	Context(rnti uint16) (*UEContext, bool)
}

// Grant is one accepted allocation.
type Grant struct {
	RNTI  uint16
	RBGs  uint32
	Bytes uint32
	Retx  bool
}

// PassReport summarizes one ScheduleDownlink or ScheduleUplink call.
type PassReport struct {
	TTI       TTI
	Carrier   uint32
	Direction Direction
	NewTTI    bool     // this call opened the TTI and rebuilt the queues
	Budget    uint32   // RBGs the pass was allowed to use
	UsedRBGs  uint32   // RBGs consumed by this pass
	Grants    []Grant  // accepted allocations, in pop order
	Rejected  []uint16 // UEs popped whose attempt yielded zero bytes
	Excluded  []uint16 // UEs left out of this TTI because the History Store was full (NewTTI only)
}

// GrantedBytes sums the bytes of all grants in the pass.
func (r *PassReport) GrantedBytes() uint64 {
	var total uint64
	for _, g := range r.Grants {
		total += uint64(g.Bytes)
	}
	return total
}

// Observer receives scheduling events. Implementations must not block.
type Observer interface {
	TTIOpened(tti TTI, dlQueued, ulQueued int)
	Granted(tti TTI, carrier uint32, dir Direction, g Grant)
	Excluded(tti TTI, rnti uint16, err error)
	Coordinated(tti TTI, carrier uint32, mask RBGMask)
}

type noopObserver struct{}

func (noopObserver) TTIOpened(TTI, int, int)               {}
func (noopObserver) Granted(TTI, uint32, Direction, Grant) {}
func (noopObserver) Excluded(TTI, uint16, error)           {}
func (noopObserver) Coordinated(TTI, uint32, RBGMask)      {}

type multiObserver []Observer

// Observers fans events out to every non-nil observer.
func Observers(obs ...Observer) Observer {
	var out multiObserver
	for _, o := range obs {
		if o != nil {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		return noopObserver{}
	}
	return out
}

func (m multiObserver) TTIOpened(tti TTI, dlQueued, ulQueued int) {
	for _, o := range m {
		o.TTIOpened(tti, dlQueued, ulQueued)
	}
}

func (m multiObserver) Granted(tti TTI, carrier uint32, dir Direction, g Grant) {
	for _, o := range m {
		o.Granted(tti, carrier, dir, g)
	}
}

func (m multiObserver) Excluded(tti TTI, rnti uint16, err error) {
	for _, o := range m {
		o.Excluded(tti, rnti, err)
	}
}

func (m multiObserver) Coordinated(tti TTI, carrier uint32, mask RBGMask) {
	for _, o := range m {
		o.Coordinated(tti, carrier, mask)
	}
}

// Option customizes a scheduler at construction.
type Option func(*TimeCR)

// WithObserver installs an event observer.
func WithObserver(o Observer) Option {
	return func(s *TimeCR) {
		s.observer = Observers(o)
	}
}

// NewScheduler creates the scheduler selected by args.Policy.
// Invalid cell parameters or arguments are rejected.
func NewScheduler(cell *CellParams, args SchedArgs, opts ...Option) (Scheduler, error) {
	switch args.Policy {
	case "", PolicyTimeCR:
		return NewTimeCR(cell, args, opts...)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicy, args.Policy)
	}
}
