// Package machine ties the motion core to a clock, a command inbox and a
// control loop, and exposes a narrow synchronized handle to it.
package machine

import (
	"context"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/mastercactapus/gplot/clock"
	"github.com/mastercactapus/gplot/coord"
	"github.com/mastercactapus/gplot/gcode"
	"github.com/mastercactapus/gplot/meshlevel"
	"github.com/mastercactapus/gplot/speed"
	"github.com/mastercactapus/gplot/tracker"
	"github.com/mastercactapus/gplot/trajectory"
	"github.com/pkg/errors"
)

// Options configure a Machine.
type Options struct {
	Tracker tracker.Config

	// mm per pulse
	UnitX, UnitY float64

	TickPeriod     time.Duration
	StatusInterval time.Duration

	InboxSize int
}

// State is a snapshot published by the control loop.
type State struct {
	Status string `json:"status"`

	// Pos is the sensor position in pulses, MPos the same in mm relative to
	// home with the pen angle as Z.
	Pos  coord.Pulse `json:"pos"`
	MPos coord.Point `json:"mpos"`
	Home coord.Pulse `json:"home"`

	SpeedX float64 `json:"speedX"`
	SpeedY float64 `json:"speedY"`
	DutyX  float64 `json:"dutyX"`
	DutyY  float64 `json:"dutyY"`

	Pen      string  `json:"pen"`
	Progress float64 `json:"progress"`

	// Segments is the number of queued segments left to run, Inbox the
	// number of commands not yet queued.
	Segments int `json:"segments"`
	Inbox    int `json:"inbox"`
}

type Machine struct {
	opt Options

	mx sync.Mutex
	t  *tracker.Tracker
	in *Inbox

	decMx    sync.Mutex
	dec      *gcode.Decoder
	splitter *meshlevel.Splitter

	stateMx sync.Mutex
	last    State
	state   chan State
}

// New creates a machine on h. The control loop does not run until Run is
// called.
func New(opt Options, h Hardware, c clock.Clock) *Machine {
	q := trajectory.NewQueue()
	tr := trajectory.NewTranslator(q, opt.UnitX, opt.UnitY)
	t := tracker.New(opt.Tracker, q, tr,
		tracker.Axis{Actuator: h.X, Speed: speed.New(h.X, c)},
		tracker.Axis{Actuator: h.Y, Speed: speed.New(h.Y, c)},
		h.Pen, c,
	)

	m := &Machine{
		opt:   opt,
		t:     t,
		in:    NewInbox(opt.InboxSize),
		dec:   gcode.NewDecoder(),
		state: make(chan State),
	}
	m.last = m.snapshot()
	return m
}

// Run is the control loop. It returns when ctx is done.
func (m *Machine) Run(ctx context.Context) error {
	tick := time.NewTicker(m.opt.TickPeriod)
	defer tick.Stop()
	status := time.NewTicker(m.opt.StatusInterval)
	defer status.Stop()

	for {
		select {
		case <-ctx.Done():
			m.mx.Lock()
			m.t.Hold()
			m.mx.Unlock()
			return ctx.Err()
		case <-tick.C:
			m.Tick()
		case <-status.C:
			m.publish()
		}
	}
}

// Tick runs a single control loop iteration.
func (m *Machine) Tick() {
	m.mx.Lock()
	m.t.Tick(m.in)
	m.mx.Unlock()
}

func (m *Machine) snapshot() State {
	pos := m.t.Pos()
	x, y := m.t.Translator().ToMM(pos)
	sx, sy := m.t.Speed()
	dx, dy := m.t.Duty()
	p := m.t.Pen()
	return State{
		Status:   string(m.t.Status()),
		Pos:      pos,
		MPos:     coord.Point{X: x, Y: y, Z: float64(p.Angle(m.opt.Tracker.PenDefault))},
		Home:     m.t.Translator().Home(),
		SpeedX:   sx,
		SpeedY:   sy,
		DutyX:    dx,
		DutyY:    dy,
		Pen:      p.String(),
		Progress: m.t.Progress(),
		Segments: m.t.Queue().Remaining(),
		Inbox:    m.in.Len(),
	}
}

func (m *Machine) publish() {
	m.mx.Lock()
	s := m.snapshot()
	m.mx.Unlock()

	m.stateMx.Lock()
	m.last = s
	m.stateMx.Unlock()

	select {
	case m.state <- s:
	default:
	}
}

// State delivers snapshots while someone is receiving; snapshots are
// dropped otherwise.
func (m *Machine) State() <-chan State { return m.state }

// CurrentState returns the most recent snapshot.
func (m *Machine) CurrentState() State {
	m.publish()
	m.stateMx.Lock()
	defer m.stateMx.Unlock()
	return m.last
}

// Submit queues commands without blocking, returning ErrBusy when the
// inbox has no room for all of them.
func (m *Machine) Submit(cmds ...trajectory.Command) error {
	return m.in.Submit(cmds...)
}

// decode converts blocks into commands. The decoder state is only
// committed when commit returns nil.
func (m *Machine) decode(r gcode.Reader, commit func([]trajectory.Command) error) (int, error) {
	m.decMx.Lock()
	defer m.decMx.Unlock()

	m.mx.Lock()
	homing := m.t.Homing()
	idle := !m.t.Queue().IsRunning() && m.t.Queue().Remaining() == 0 && m.in.Len() == 0
	m.mx.Unlock()
	if homing {
		// positions are only known again once X is zeroed
		return 0, errors.Wrap(ErrBusy, "homing")
	}
	if idle {
		m.syncProgram()
	}

	dec := *m.dec
	cmds, err := dec.DecodeAll(r)
	if err != nil {
		return 0, err
	}

	var split *meshlevel.Splitter
	if m.splitter != nil {
		s := *m.splitter
		split = &s
		var res []trajectory.Command
		for _, c := range cmds {
			res = append(res, split.Split(c)...)
		}
		cmds = res
	}

	err = commit(cmds)
	if err != nil {
		return 0, err
	}
	*m.dec = dec
	if split != nil {
		*m.splitter = *split
	}
	return len(cmds), nil
}

func (m *Machine) submit(cmds []trajectory.Command) error {
	err := m.in.Submit(cmds...)
	if err == ErrTooLarge {
		return errors.Wrapf(err, "%d commands, inbox holds %d; run it as a file", len(cmds), m.in.Cap())
	}
	return err
}

// RunGCode decodes program and submits it as a whole. It returns the
// number of commands queued.
func (m *Machine) RunGCode(program string) (int, error) {
	return m.decode(gcode.NewParser(strings.NewReader(program)), m.submit)
}

// FeedGCode decodes program and feeds it to the inbox, waiting for space
// as the plotter works through it.
func (m *Machine) FeedGCode(ctx context.Context, program string) (int, error) {
	return m.decode(gcode.NewParser(strings.NewReader(program)), func(cmds []trajectory.Command) error {
		return m.in.Feed(ctx, cmds)
	})
}

// Start resumes tracking after Stop.
func (m *Machine) Start() {
	m.mx.Lock()
	m.t.Resume()
	m.mx.Unlock()
	log.Println("Started.")
}

// Stop brakes both axes and holds the queue.
func (m *Machine) Stop() {
	m.mx.Lock()
	m.t.Hold()
	m.mx.Unlock()
	log.Println("Stopped.")
}

// Clear discards every pending command and queued segment. The plotter
// stays where it is.
func (m *Machine) Clear() {
	m.decMx.Lock()
	defer m.decMx.Unlock()

	m.mx.Lock()
	m.in.Drain()
	m.t.Clear()
	m.mx.Unlock()

	m.syncProgram()
	log.Println("Cleared.")
}

// syncProgram aligns the decoder with the current position. decMx must be
// held.
func (m *Machine) syncProgram() {
	m.mx.Lock()
	tr := m.t.Translator()
	x, y := tr.ToMM(m.t.Queue().Last().End())
	home := tr.Home()
	m.mx.Unlock()

	hx, hy := float64(home.X)*m.opt.UnitX, float64(home.Y)*m.opt.UnitY
	m.dec.Sync(x, y, hx, hy)
	if m.splitter != nil {
		m.splitter.Sync(x, y, hx, hy)
	}
}

// Home starts a homing run of the X axis.
func (m *Machine) Home() error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.t.Queue().IsRunning() {
		return errors.Wrap(ErrBusy, "home")
	}
	m.t.Home()
	log.Println("Homing.")
	return nil
}

// Calibrate zeroes both sensors at the current position.
func (m *Machine) Calibrate() error {
	m.mx.Lock()
	defer m.mx.Unlock()
	if m.t.Queue().IsRunning() || m.t.Homing() {
		return errors.Wrap(ErrBusy, "calibrate")
	}
	m.t.Calibrate()
	log.Println("Calibrated.")
	return nil
}

// SetHome queues a change of the home offset, in mm, for the commands
// submitted after it.
func (m *Machine) SetHome(x, y float64) error {
	b := gcode.Block{{W: 'G', Arg: 92}, {W: 'X', Arg: x}, {W: 'Y', Arg: y}}
	_, err := m.decode(&gcode.BlocksReader{Blocks: []gcode.Block{b}}, m.submit)
	return err
}
