// Package hw defines the narrow hardware interfaces used by the motion core.
package hw

import (
	"fmt"

	"github.com/mastercactapus/gplot/pen"
)

// Sensor is an axis position sensor (quadrature encoder).
type Sensor interface {
	// Pos returns the signed pulse count.
	Pos() int
	// Calibrate makes the current position zero.
	Calibrate()
}

// Direction of an axis drive command.
type Direction int8

const (
	Stop     Direction = 0
	Positive Direction = 1
	Negative Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Positive:
		return "+"
	case Negative:
		return "-"
	}
	return "stop"
}

// Actuator drives one axis motor through an H-bridge.
type Actuator interface {
	// Drive runs the motor in dir with duty in [0,100].
	Drive(dir Direction, duty float64)
	// Stop holds both bridge channels at zero while the driver stays enabled.
	Stop()
}

// Pen moves the pen-lift servo.
type Pen interface {
	Set(pen.State)
}

// Axis bundles the sensor and actuator of one axis.
type Axis interface {
	Sensor
	Actuator
}

// CheckDuty panics if duty is outside [0,100]. Callers only ever pass
// validated configuration values, so a violation is a programming error.
func CheckDuty(duty float64) {
	if !(duty >= 0 && duty <= 100) {
		panic(fmt.Sprintf("duty cycle out of range(0-100): %v", duty))
	}
}
