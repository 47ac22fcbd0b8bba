// Package bridge talks to a microcontroller that owns the H-bridges,
// encoders and pen servo of the plotter, exposing them as hw interfaces.
//
// The host sends one command per line:
//
//	X+<duty> X-<duty> XS    drive or brake the X motor (same for Y)
//	P<angle>                move the pen servo
//	ZX ZY                   zero an encoder
//	?                       request a status report
//
// Every command but "?" is answered, in order, with "ok" or "error:<msg>".
// "?" is answered with a status report such as "<X:120|Y:-35>".
package bridge

import (
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mastercactapus/gplot/hw"
	"github.com/mastercactapus/gplot/pen"
	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// OpenSerial opens a serial device for use with New.
func OpenSerial(name string, baud int) (io.ReadWriteCloser, error) {
	p, err := serial.OpenPort(&serial.Config{Name: name, Baud: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "open serial port %s", name)
	}
	return p, nil
}

// Config controls the bridge.
type Config struct {
	// Poll is the status request interval. Zero disables polling.
	Poll time.Duration

	// PenDefault is the angle sent for pen.Default.
	PenDefault uint8
}

// Bridge is a connected microcontroller.
type Bridge struct {
	acked uint64 // atomic, replies received

	conn *Conn

	X, Y *Axis
	Pen  *Pen

	errMx   sync.Mutex
	lastErr error

	// command lines written, other than "?"
	wmx  sync.Mutex
	sent uint64

	done chan struct{}
}

// New starts reading status reports from rw.
func New(rw io.ReadWriter, cfg Config) *Bridge {
	b := &Bridge{
		conn: NewConn(rw),
		done: make(chan struct{}),
	}
	b.X = &Axis{b: b, name: 'X'}
	b.Y = &Axis{b: b, name: 'Y'}
	b.Pen = &Pen{b: b, def: cfg.PenDefault}

	go b.readLoop()
	if cfg.Poll > 0 {
		go b.pollLoop(cfg.Poll)
	}
	return b
}

// Close stops the bridge and closes the underlying connection.
func (b *Bridge) Close() error { return b.conn.Close() }

// Done is closed once the read side of the connection ends.
func (b *Bridge) Done() <-chan struct{} { return b.done }

// Status returns the last reported positions.
func (b *Bridge) Status() Status {
	return Status{X: b.X.Pos(), Y: b.Y.Pos()}
}

// Err returns the last error reported by the microcontroller.
func (b *Bridge) Err() error {
	b.errMx.Lock()
	defer b.errMx.Unlock()
	return b.lastErr
}

func (b *Bridge) readLoop() {
	defer close(b.done)
	for {
		line, err := b.conn.ReadLine()
		if err == ErrClosed {
			return
		}
		if err != nil {
			log.Println("ERROR: read from bridge:", err)
			return
		}
		b.handle(line)
	}
}

func (b *Bridge) handle(line string) {
	switch {
	case line == "ok":
		atomic.AddUint64(&b.acked, 1)
	case strings.HasPrefix(line, "error:"):
		atomic.AddUint64(&b.acked, 1)
		err := errors.New(strings.TrimSpace(strings.TrimPrefix(line, "error:")))
		log.Println("ERROR: bridge:", err)
		b.errMx.Lock()
		b.lastErr = err
		b.errMx.Unlock()
	case strings.HasPrefix(line, "<"):
		stat, err := parseStatus(b.Status(), line)
		if err != nil {
			log.Println("ERROR: parse status:", err)
			return
		}
		b.X.update(stat.X)
		b.Y.update(stat.Y)
	}
}

// write sends a command line and returns its sequence number.
func (b *Bridge) write(line string) (uint64, error) {
	b.wmx.Lock()
	defer b.wmx.Unlock()
	err := b.conn.WriteLine(line)
	if err != nil {
		return 0, err
	}
	b.sent++
	return b.sent, nil
}

func (b *Bridge) pollLoop(d time.Duration) {
	t := time.NewTicker(d)
	defer t.Stop()
	for {
		select {
		case <-b.conn.closeCh:
			return
		case <-b.done:
			return
		case <-t.C:
			err := b.conn.WriteLine("?")
			if err == ErrClosed {
				return
			}
			if err != nil {
				log.Println("ERROR: poll status:", err)
			}
		}
	}
}

// Axis is one motor and encoder behind the bridge.
type Axis struct {
	pos int64 // atomic

	// reports are stale until the zero command numbered zeroSeq is
	// answered
	zmx     sync.Mutex
	zeroSeq uint64

	b    *Bridge
	name byte

	mx   sync.Mutex
	last string
}

var _ hw.Axis = &Axis{}

// Pos returns the last reported encoder count.
func (a *Axis) Pos() int { return int(atomic.LoadInt64(&a.pos)) }

// Calibrate zeroes the encoder on the device and in the local cache.
func (a *Axis) Calibrate() {
	seq, err := a.b.write("Z" + string(a.name))
	if err != nil {
		log.Printf("ERROR: zero %c: %+v", a.name, err)
		return
	}
	a.zmx.Lock()
	a.zeroSeq = seq
	atomic.StoreInt64(&a.pos, 0)
	a.zmx.Unlock()
}

// update caches a reported position unless it predates a pending zero.
func (a *Axis) update(pos int) {
	a.zmx.Lock()
	defer a.zmx.Unlock()
	if atomic.LoadUint64(&a.b.acked) < a.zeroSeq {
		return
	}
	atomic.StoreInt64(&a.pos, int64(pos))
}

func (a *Axis) Drive(dir hw.Direction, duty float64) {
	hw.CheckDuty(duty)
	a.send(driveLine(a.name, int8(dir), duty))
}

func (a *Axis) Stop() { a.send(driveLine(a.name, 0, 0)) }

// send writes line unless it is the command last written for this axis.
func (a *Axis) send(line string) {
	a.mx.Lock()
	defer a.mx.Unlock()
	if line == a.last {
		return
	}
	_, err := a.b.write(line)
	if err != nil {
		log.Printf("ERROR: drive %c: %+v", a.name, err)
		return
	}
	a.last = line
}

// Pen is the servo behind the bridge.
type Pen struct {
	b   *Bridge
	def uint8

	mx   sync.Mutex
	last int
	sent bool
}

var _ hw.Pen = &Pen{}

func (p *Pen) Set(s pen.State) {
	a := int(s.Angle(p.def))
	p.mx.Lock()
	defer p.mx.Unlock()
	if p.sent && p.last == a {
		return
	}
	_, err := p.b.write("P" + strconv.Itoa(a))
	if err != nil {
		log.Println("ERROR: set pen:", err)
		return
	}
	p.last = a
	p.sent = true
}
