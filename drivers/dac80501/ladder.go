package dac80501

import (
	"math"

	"dac80501-go/x/mathx"
)

const (
	// InternalVref is the on-chip reference voltage.
	InternalVref = 2.5
	// MaxVoltage is the absolute maximum output (and reference) voltage.
	MaxVoltage = 5.5

	// fullScale is 2^16; codeMax is the largest code the DAC register holds.
	fullScale = 65536
	codeMax   = fullScale - 1
)

// Divider is the reference divider setting.
type Divider uint8

const (
	Div1 Divider = 1
	Div2 Divider = 2
)

// Gain is the output buffer gain setting.
type Gain uint8

const (
	Gain1 Gain = 1
	Gain2 Gain = 2
)

// Scaling is a divider/gain pair.
type Scaling struct {
	Divider Divider
	Gain    Gain
}

// Max returns the full-scale output voltage of s under ladder l.
func (s Scaling) Max(l Ladder) float64 {
	switch {
	case s.Divider == Div2 && s.Gain == Gain1:
		return l.Half
	case s.Divider == Div1 && s.Gain == Gain2:
		return l.Two
	default:
		// Div1+Gain1 and Div2+Gain2 both land on the reference itself.
		return l.One
	}
}

// Ladder holds the three full-scale levels reachable from one reference.
type Ladder struct {
	Half float64
	One  float64
	Two  float64
}

// NewLadder derives the ladder for reference voltage vref.
func NewLadder(vref float64) Ladder {
	return Ladder{Half: vref / 2, One: vref, Two: vref * 2}
}

// InternalLadder is the ladder of the on-chip reference.
func InternalLadder() Ladder { return NewLadder(InternalVref) }

// Select picks the smallest full-scale envelope that still covers target,
// which keeps the most code resolution per volt. Div2+Gain2 is never chosen.
func Select(target float64, l Ladder) (Scaling, float64, error) {
	if math.IsNaN(target) || target < 0 {
		return Scaling{}, 0, ErrOutVoltage
	}
	switch {
	case target > l.One:
		if target > l.Two {
			return Scaling{}, 0, ErrOutVoltage
		}
		return Scaling{Divider: Div1, Gain: Gain2}, l.Two, nil
	case target > l.Half:
		return Scaling{Divider: Div1, Gain: Gain1}, l.One, nil
	default:
		return Scaling{Divider: Div2, Gain: Gain1}, l.Half, nil
	}
}

// Code converts target into a DAC code for full scale max. target == max maps
// to 65535 since 65536 does not fit the register.
func Code(target, max float64) uint16 {
	if target == max {
		return codeMax
	}
	if max <= 0 || target <= 0 {
		return 0
	}
	v := math.Round(target * fullScale / max)
	return uint16(mathx.Clamp(v, 0, codeMax))
}
