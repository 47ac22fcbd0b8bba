// Package pen describes the target state of the pen-lift servo.
package pen

import (
	"math"
	"strconv"
	"time"
)

// DefaultAngle is the servo angle of the retracted pen.
const DefaultAngle uint8 = 60

// State is either Default (retracted) or an explicit servo angle.
// The zero value is Default.
type State struct {
	angle uint8
	set   bool
}

// Default is the retracted pen.
var Default = State{}

// Angle returns a state for the servo angle v, clamped to [0,255] and
// rounded up.
func Angle(v float64) State {
	if math.IsNaN(v) {
		return Default
	}
	v = math.Ceil(math.Max(0, math.Min(255, v)))
	return State{angle: uint8(v), set: true}
}

// IsDefault reports whether s is the retracted state.
func (s State) IsDefault() bool { return !s.set }

// Angle returns the servo angle for s, substituting def for Default.
func (s State) Angle(def uint8) uint8 {
	if !s.set {
		return def
	}
	return s.angle
}

func (s State) String() string {
	if !s.set {
		return "default"
	}
	return strconv.Itoa(int(s.angle))
}

// SettleDelay is the time the servo needs to travel from one state to another:
// 70ms for every 10 degrees.
func SettleDelay(from, to State, def uint8) time.Duration {
	delta := math.Abs(float64(from.Angle(def)) - float64(to.Angle(def)))
	ms := math.Round(delta / 10 * 70)
	return time.Duration(ms) * time.Millisecond
}
