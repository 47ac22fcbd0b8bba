// Package tracker drives two independent axes along the queued segments
// using encoder feedback.
package tracker

import (
	"log"
	"math"
	"time"

	"github.com/mastercactapus/gplot/clock"
	"github.com/mastercactapus/gplot/coord"
	"github.com/mastercactapus/gplot/hw"
	"github.com/mastercactapus/gplot/pen"
	"github.com/mastercactapus/gplot/speed"
	"github.com/mastercactapus/gplot/trajectory"
)

// Source yields decoded commands. Next must not block.
type Source interface {
	Next() (trajectory.Command, bool)
}

// Config holds the tuned drive constants.
type Config struct {
	// fixed duty used to drive each axis
	DutyX, DutyY float64

	// homing drives X negative at HomeDuty for HomeTime
	HomeDuty float64
	HomeTime time.Duration

	// PenSettle holds both axes while the pen servo travels.
	PenSettle  bool
	PenDefault uint8
}

// DefaultConfig returns the constants tuned for the reference plotter.
func DefaultConfig() Config {
	return Config{
		DutyX:      36,
		DutyY:      18,
		HomeDuty:   80,
		HomeTime:   3 * time.Second,
		PenSettle:  true,
		PenDefault: pen.DefaultAngle,
	}
}

// Axis is the actuator and speed estimator of one axis.
type Axis struct {
	Actuator hw.Actuator
	Speed    *speed.Estimator
}

type axis struct {
	Axis
	duty float64 // signed duty last commanded
}

func (a *axis) move(dir float64, duty float64) {
	switch {
	case dir > 0:
		a.Actuator.Drive(hw.Positive, duty)
		a.duty = duty
	case dir < 0:
		a.Actuator.Drive(hw.Negative, duty)
		a.duty = -duty
	default:
		a.stop()
	}
}

func (a *axis) stop() {
	a.Actuator.Stop()
	a.duty = 0
}

// Status describes what the tracker did on its last tick.
type Status string

const (
	StatusIdle   Status = "Idle"
	StatusRun    Status = "Run"
	StatusHold   Status = "Hold"
	StatusSettle Status = "Settle"
	StatusHome   Status = "Home"
)

// Tracker is the tick-driven dual-axis state machine.
type Tracker struct {
	cfg Config

	x, y axis
	pen  hw.Pen

	q  *trajectory.Queue
	tr *trajectory.Translator

	settle *clock.Scheduler
	homing *clock.Scheduler

	penState pen.State
	progress float64
	held     bool
	status   Status
}

// New returns a tracker using q and tr. It does not take ownership of any
// of its arguments.
func New(cfg Config, q *trajectory.Queue, tr *trajectory.Translator, x, y Axis, p hw.Pen, c clock.Clock) *Tracker {
	return &Tracker{
		cfg:    cfg,
		x:      axis{Axis: x},
		y:      axis{Axis: y},
		pen:    p,
		q:      q,
		tr:     tr,
		settle: clock.NewScheduler(c),
		homing: clock.NewScheduler(c),
		status: StatusIdle,
	}
}

// Tick runs one iteration of the control loop.
func (t *Tracker) Tick(src Source) {
	t.x.Speed.Tick(t.x.duty)
	t.y.Speed.Tick(t.y.duty)

	// commands wait in src while homing; the queue is reseeded once X is
	// zeroed
	if t.homing.Active() {
		t.tickHoming()
		return
	}

	if src != nil {
		t.drain(src)
	}

	if !t.q.IsRunning() || t.q.Len() <= 1 {
		t.brake()
		t.status = StatusIdle
		if t.held {
			t.status = StatusHold
		}
		return
	}
	if t.settle.IsRunning() {
		t.brake()
		t.status = StatusSettle
		return
	}
	t.status = StatusRun
	t.track()
}

func (t *Tracker) drain(src Source) {
	for t.q.HasFreeSpace() {
		c, ok := src.Next()
		if !ok {
			break
		}
		err := t.tr.Translate(c)
		if err != nil {
			log.Printf("ERROR: translate %T: %+v", c, err)
			continue
		}
		if t.q.Remaining() > 0 && !t.q.IsRunning() && !t.held {
			t.q.Start()
		}
	}
}

func (t *Tracker) brake() {
	t.x.stop()
	t.y.stop()
}

func direction(d float64) float64 {
	dir := d / math.Abs(d)
	if math.IsNaN(dir) {
		return 0
	}
	return dir
}

// reached reports whether pos has reached or passed target moving in dir.
func reached(pos, target, dir float64) bool {
	return (dir > 0 && pos >= target) || (dir < 0 && pos <= target) || dir == 0
}

// behind reports whether pos has not yet reached target moving in dir.
func behind(pos, target, dir float64) bool {
	return (dir > 0 && pos < target) || (dir < 0 && pos > target)
}

// ahead reports whether pos has passed target moving in dir.
func ahead(pos, target, dir float64) bool {
	return (dir > 0 && pos > target) || (dir < 0 && pos < target)
}

func (t *Tracker) track() {
	seg := t.q.Current()
	x1, y1 := float64(seg.Start().X), float64(seg.Start().Y)
	x2, y2 := float64(seg.End().X), float64(seg.End().Y)
	cx, cy := float64(t.x.Speed.Pos()), float64(t.y.Speed.Pos())

	length := math.Hypot(x2-x1, y2-y1)
	dirX, dirY := direction(x2-x1), direction(y2-y1)

	if (reached(cx, x2, dirX) && reached(cy, y2, dirY)) || (dirX == 0 && dirY == 0) {
		t.next()
		return
	}

	diX, diY := x2-x1, y2-y1
	tf := t.progress / length
	deX, deY := x1+diX*tf, y1+diY*tf

	switch {
	case cx == deX && cy == deY:
		t.progress++
		t.x.move(dirX, t.cfg.DutyX)
		t.y.move(dirY, t.cfg.DutyY)
	case behind(cy, deY, dirY):
		t.x.stop()
		t.y.move(dirY, t.cfg.DutyY)
	case behind(cx, deX, dirX):
		t.y.stop()
		t.x.move(dirX, t.cfg.DutyX)
	default:
		// an axis overshot the interpolated point; resync progress with
		// the actual position instead of accumulating the error
		if ahead(cx, deX, dirX) {
			tf = (cx - x1) / diX
			t.progress = tf * length
			deY = y1 + diY*tf
		}
		if ahead(cy, deY, dirY) {
			tf = (cy - y1) / diY
			t.progress = tf * length
		}
	}
}

// next moves on to the following segment, or halts at the tail.
func (t *Tracker) next() {
	if _, ok := t.q.Advance(); !ok {
		t.brake()
		t.q.Stop()
		t.status = StatusIdle
		log.Println("Trajectory complete.")
		return
	}
	p := t.q.Current().Pen
	if t.cfg.PenSettle && p != t.penState {
		t.settle.Start(pen.SettleDelay(t.penState, p, t.cfg.PenDefault))
	}
	t.pen.Set(p)
	t.penState = p
	t.progress = 0
}

func (t *Tracker) tickHoming() {
	t.status = StatusHome
	if t.homing.IsRunning() {
		t.y.stop()
		t.x.move(-1, t.cfg.HomeDuty)
		return
	}
	t.brake()
	t.x.Speed.Calibrate()
	t.q.Clear(t.Pos())
	log.Println("Homing complete.")
}

// Home drives X towards its end stop and zeroes it once HomeTime has elapsed.
func (t *Tracker) Home() {
	t.progress = 0
	t.homing.Start(t.cfg.HomeTime)
}

// Homing reports whether a homing run is in progress.
func (t *Tracker) Homing() bool { return t.homing.Active() }

// Calibrate zeroes both axis sensors at their current position and
// reseeds the queue there.
func (t *Tracker) Calibrate() {
	t.x.Speed.Calibrate()
	t.y.Speed.Calibrate()
	t.q.Clear(t.Pos())
}

// Hold stops tracking until Resume; queued commands are kept.
func (t *Tracker) Hold() {
	t.held = true
	t.q.Stop()
	t.brake()
}

// Resume continues tracking after Hold.
func (t *Tracker) Resume() {
	t.held = false
	if t.q.Len() > 1 {
		t.q.Start()
	}
}

// Clear drops every queued segment and reseeds the queue at the current
// axis positions.
func (t *Tracker) Clear() {
	t.q.Clear(t.Pos())
	t.settle.Reset()
	t.progress = 0
	t.brake()
}

// Pos returns the current sensor positions.
func (t *Tracker) Pos() coord.Pulse {
	return coord.Pulse{X: t.x.Speed.Pos(), Y: t.y.Speed.Pos()}
}

// Speed returns the estimated axis speeds in pulses per second.
func (t *Tracker) Speed() (x, y float64) {
	return t.x.Speed.Speed(), t.y.Speed.Speed()
}

// Duty returns the signed duty currently commanded to each axis.
func (t *Tracker) Duty() (x, y float64) { return t.x.duty, t.y.duty }

// Progress is the number of unit steps completed along the current segment.
func (t *Tracker) Progress() float64 { return t.progress }

func (t *Tracker) Status() Status                     { return t.status }
func (t *Tracker) Pen() pen.State                     { return t.penState }
func (t *Tracker) Queue() *trajectory.Queue           { return t.q }
func (t *Tracker) Translator() *trajectory.Translator { return t.tr }
