package machine

import (
	"context"
	"errors"
	"sync"

	"github.com/mastercactapus/gplot/trajectory"
)

var (
	// ErrBusy is returned when the inbox cannot take the submitted commands
	// right now.
	ErrBusy = errors.New("machine busy")

	// ErrTooLarge is returned when more commands are submitted at once than
	// the inbox can ever hold; they have to be fed instead.
	ErrTooLarge = errors.New("too many commands for inbox")
)

// Inbox is the bounded buffer of decoded commands between producers and
// the control loop.
type Inbox struct {
	mx sync.Mutex
	ch chan trajectory.Command
}

func NewInbox(size int) *Inbox {
	return &Inbox{ch: make(chan trajectory.Command, size)}
}

// Submit adds cmds without blocking. Either all of them are accepted or,
// with ErrBusy, none.
func (in *Inbox) Submit(cmds ...trajectory.Command) error {
	if len(cmds) > cap(in.ch) {
		return ErrTooLarge
	}
	in.mx.Lock()
	defer in.mx.Unlock()
	if cap(in.ch)-len(in.ch) < len(cmds) {
		return ErrBusy
	}
	for _, c := range cmds {
		in.ch <- c
	}
	return nil
}

// Feed adds cmds one at a time, waiting for space as needed.
func (in *Inbox) Feed(ctx context.Context, cmds []trajectory.Command) error {
	for _, c := range cmds {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in.ch <- c:
		}
	}
	return nil
}

// Next returns the oldest command, if any. It never blocks.
func (in *Inbox) Next() (trajectory.Command, bool) {
	select {
	case c := <-in.ch:
		return c, true
	default:
		return nil, false
	}
}

// Drain discards every pending command.
func (in *Inbox) Drain() {
	for {
		if _, ok := in.Next(); !ok {
			return
		}
	}
}

func (in *Inbox) Len() int { return len(in.ch) }
func (in *Inbox) Cap() int { return cap(in.ch) }
