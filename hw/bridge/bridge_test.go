package bridge

import (
	"bufio"
	"io"
	"testing"
	"time"

	"github.com/mastercactapus/gplot/hw"
	"github.com/mastercactapus/gplot/pen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pipeRW struct {
	io.Reader
	io.Writer
}

// device is the microcontroller end of a bridge connection.
type device struct {
	w     *io.PipeWriter
	lines chan string
}

func newTestBridge(t *testing.T, cfg Config) (*Bridge, *device) {
	hostR, devW := io.Pipe()
	devR, hostW := io.Pipe()

	d := &device{w: devW, lines: make(chan string, 100)}
	go func() {
		s := bufio.NewScanner(devR)
		for s.Scan() {
			d.lines <- s.Text()
		}
	}()

	b := New(pipeRW{Reader: hostR, Writer: hostW}, cfg)
	t.Cleanup(func() {
		b.Close()
		devW.Close()
		devR.Close()
	})
	return b, d
}

func (d *device) send(t *testing.T, line string) {
	_, err := io.WriteString(d.w, line+"\n")
	require.NoError(t, err)
}

func (d *device) next(t *testing.T) string {
	select {
	case l := <-d.lines:
		return l
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for line")
	}
	return ""
}

func (d *device) none(t *testing.T) {
	select {
	case l := <-d.lines:
		t.Fatalf("unexpected line %q", l)
	case <-time.After(20 * time.Millisecond):
	}
}

func waitFor(t *testing.T, fn func() bool) {
	deadline := time.Now().Add(time.Second)
	for !fn() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestParseStatus(t *testing.T) {
	s, err := parseStatus(Status{}, "<X:120|Y:-35>")
	require.NoError(t, err)
	assert.Equal(t, Status{X: 120, Y: -35}, *s)

	s, err = parseStatus(Status{X: 4, Y: 5}, "<Y:7>\r\n")
	require.NoError(t, err)
	assert.Equal(t, Status{X: 4, Y: 7}, *s)

	_, err = parseStatus(Status{}, "<X:1.5>")
	assert.Error(t, err)
	_, err = parseStatus(Status{}, "X:1")
	assert.Error(t, err)
	_, err = parseStatus(Status{}, "<X>")
	assert.Error(t, err)
}

func TestDriveLine(t *testing.T) {
	assert.Equal(t, "X+36", driveLine('X', 1, 36))
	assert.Equal(t, "Y-18.5", driveLine('Y', -1, 18.5))
	assert.Equal(t, "XS", driveLine('X', 0, 36))
}

func TestBridge_Status(t *testing.T) {
	b, d := newTestBridge(t, Config{})

	d.send(t, "<X:120|Y:-35>")
	waitFor(t, func() bool { return b.X.Pos() == 120 })
	assert.Equal(t, -35, b.Y.Pos())

	d.send(t, "error:limit")
	waitFor(t, func() bool { return b.Err() != nil })
	assert.EqualError(t, b.Err(), "limit")

	d.send(t, "<garbage")
	d.send(t, "<Y:2>")
	waitFor(t, func() bool { return b.Y.Pos() == 2 })
	assert.Equal(t, Status{X: 120, Y: 2}, b.Status())
}

func TestBridge_Drive(t *testing.T) {
	b, d := newTestBridge(t, Config{PenDefault: 60})

	b.X.Drive(hw.Positive, 36)
	assert.Equal(t, "X+36", d.next(t))

	// unchanged output is not resent
	b.X.Drive(hw.Positive, 36)
	b.Y.Stop()
	assert.Equal(t, "YS", d.next(t))
	b.Y.Stop()
	d.none(t)

	b.X.Drive(hw.Negative, 36)
	assert.Equal(t, "X-36", d.next(t))
	b.X.Stop()
	assert.Equal(t, "XS", d.next(t))

	b.Pen.Set(pen.Default)
	assert.Equal(t, "P60", d.next(t))
	b.Pen.Set(pen.Angle(60))
	b.Pen.Set(pen.Angle(12.2))
	assert.Equal(t, "P13", d.next(t))

	assert.Panics(t, func() { b.Y.Drive(hw.Positive, 120) })
}

func TestBridge_Calibrate(t *testing.T) {
	b, d := newTestBridge(t, Config{})
	d.send(t, "<X:50|Y:9>")
	waitFor(t, func() bool { return b.X.Pos() == 50 })

	b.X.Calibrate()
	assert.Equal(t, "ZX", d.next(t))
	assert.Equal(t, 0, b.X.Pos())
	assert.Equal(t, 9, b.Y.Pos())
}

func TestBridge_CalibrateStaleStatus(t *testing.T) {
	b, d := newTestBridge(t, Config{})
	b.Y.Stop()
	assert.Equal(t, "YS", d.next(t))
	d.send(t, "<X:50|Y:9>")
	waitFor(t, func() bool { return b.X.Pos() == 50 })

	b.X.Calibrate()
	assert.Equal(t, "ZX", d.next(t))

	// sent before the device saw ZX
	d.send(t, "<X:51|Y:10>")
	waitFor(t, func() bool { return b.Y.Pos() == 10 })
	assert.Equal(t, 0, b.X.Pos())

	// answer to YS, ZX is still pending
	d.send(t, "ok")
	d.send(t, "<X:52|Y:11>")
	waitFor(t, func() bool { return b.Y.Pos() == 11 })
	assert.Equal(t, 0, b.X.Pos())

	d.send(t, "ok")
	d.send(t, "<X:2|Y:11>")
	waitFor(t, func() bool { return b.X.Pos() == 2 })
}

func TestBridge_Poll(t *testing.T) {
	_, d := newTestBridge(t, Config{Poll: 5 * time.Millisecond})
	assert.Equal(t, "?", d.next(t))
	assert.Equal(t, "?", d.next(t))
}

func TestBridge_Closed(t *testing.T) {
	b, d := newTestBridge(t, Config{})
	require.NoError(t, b.Close())
	assert.Equal(t, ErrClosed, b.conn.WriteLine("XS"))
	b.X.Stop()
	d.none(t)
}
