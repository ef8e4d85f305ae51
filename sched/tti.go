package sched

import "fmt"

// TTIWrap is the number of distinct TTI values (1024 radio frames of 10 subframes).
const TTIWrap = 10240

// TTI identifies a subframe as SFN*10 + subframe index. Values wrap at TTIWrap.
type TTI uint32

// NewTTI reduces n modulo TTIWrap.
func NewTTI(n uint32) TTI {
	return TTI(n % TTIWrap)
}

// Add returns the TTI n subframes after t.
func (t TTI) Add(n uint32) TTI {
	return NewTTI(uint32(t) + n%TTIWrap)
}

// After reports whether t is later than u. Distances below half the wrap
// period count as forward, so comparisons survive the SFN wrap-around.
// A forward jump of TTIWrap/2 or more is indistinguishable from a past TTI
// and reports false; callers must advance at most TTIWrap/2-1 subframes
// between comparisons, which holds when the scheduler runs every TTI.
func (t TTI) After(u TTI) bool {
	d := (uint32(t) + TTIWrap - uint32(u)) % TTIWrap
	return d != 0 && d < TTIWrap/2
}

// SFN returns the system frame number.
func (t TTI) SFN() uint32 {
	return uint32(t) / 10
}

// Subframe returns the subframe index within the radio frame.
func (t TTI) Subframe() uint32 {
	return uint32(t) % 10
}

func (t TTI) String() string {
	return fmt.Sprintf("%d.%d", t.SFN(), t.Subframe())
}
