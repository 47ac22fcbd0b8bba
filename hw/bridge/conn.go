package bridge

import (
	"bufio"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrClosed is returned by writes after Close.
var ErrClosed = errors.New("bridge closed")

// Conn is a line oriented connection to the microcontroller.
type Conn struct {
	rw   io.ReadWriter
	scan *bufio.Scanner

	mx sync.Mutex

	closeCh   chan struct{}
	closeOnce sync.Once
}

// NewConn creates a new Conn using the provided ReadWriter for data.
func NewConn(rw io.ReadWriter) *Conn {
	return &Conn{
		rw:      rw,
		scan:    bufio.NewScanner(rw),
		closeCh: make(chan struct{}),
	}
}

// Close aborts further writes and closes the underlying ReadWriter, if it
// implements io.Closer.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closeCh)
		if closer, ok := c.rw.(io.Closer); ok {
			err = closer.Close()
		}
	})
	return err
}

func (c *Conn) closed() bool {
	select {
	case <-c.closeCh:
		return true
	default:
		return false
	}
}

// WriteLine writes line followed by a newline.
func (c *Conn) WriteLine(line string) error {
	if c.closed() {
		return ErrClosed
	}
	c.mx.Lock()
	_, err := io.WriteString(c.rw, line+"\n")
	c.mx.Unlock()
	return err
}

// ReadLine blocks until the next non-empty line arrives.
func (c *Conn) ReadLine() (string, error) {
	for c.scan.Scan() {
		line := strings.TrimSpace(c.scan.Text())
		if line == "" {
			continue
		}
		return line, nil
	}
	if c.closed() {
		return "", ErrClosed
	}
	err := c.scan.Err()
	if err == nil {
		err = io.EOF
	}
	return "", err
}
