package sched

import (
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// RBGMask marks the RBGs of one carrier that are in use. Bit i is RBG i.
// The zero value is an empty mask of size zero.
type RBGMask struct {
	bits *bitset.BitSet
	size uint
}

// NewRBGMask returns an empty mask covering size RBGs.
func NewRBGMask(size uint) RBGMask {
	return RBGMask{bits: bitset.New(size), size: size}
}

// ParseRBGMask builds a mask from a string of '0'/'1' characters, RBG 0 first.
func ParseRBGMask(s string) (RBGMask, error) {
	m := NewRBGMask(uint(len(s)))
	for i, ch := range s {
		switch ch {
		case '1':
			m.bits.Set(uint(i))
		case '0':
		default:
			return RBGMask{}, fmt.Errorf("invalid RBG mask character %q at %d", ch, i)
		}
	}
	return m, nil
}

// Set marks RBGs [first, first+n) as used, clipped to the mask size.
func (m RBGMask) Set(first, n uint) RBGMask {
	for i := first; i < first+n && i < m.size; i++ {
		m.bits.Set(i)
	}
	return m
}

// Test reports whether RBG i is used.
func (m RBGMask) Test(i uint) bool {
	if m.bits == nil || i >= m.size {
		return false
	}
	return m.bits.Test(i)
}

// Size returns the number of RBGs covered.
func (m RBGMask) Size() uint {
	return m.size
}

// Count returns the number of used RBGs.
func (m RBGMask) Count() uint {
	if m.bits == nil {
		return 0
	}
	return m.bits.Count()
}

// Fraction returns Count/Size, or 0 for an empty mask.
func (m RBGMask) Fraction() float64 {
	if m.size == 0 {
		return 0
	}
	return float64(m.Count()) / float64(m.size)
}

// Clone returns an independent copy.
func (m RBGMask) Clone() RBGMask {
	if m.bits == nil {
		return m
	}
	return RBGMask{bits: m.bits.Clone(), size: m.size}
}

func (m RBGMask) String() string {
	var sb strings.Builder
	for i := uint(0); i < m.size; i++ {
		if m.Test(i) {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}
