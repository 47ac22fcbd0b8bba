package spjs

import (
	"io"
	"log"
	"strconv"
	"strings"
)

// Port is a serial port on the server, usable as an io.ReadWriteCloser.
type Port struct {
	c    *Client
	name string
	baud int

	data    chan string
	pending string
	closeCh chan struct{}
}

// Open returns the named port, asking the server to open it at baud
// whenever it is reported closed. Only one port may be opened per client.
func (c *Client) Open(name string, baud int) *Port {
	p := &Port{
		c:       c,
		name:    name,
		baud:    baud,
		data:    make(chan string, 100),
		closeCh: make(chan struct{}),
	}
	go p.loop()
	return p
}

func (p *Port) loop() {
	for {
		var resp interface{}
		select {
		case <-p.closeCh:
			return
		case resp = <-p.c.Messages():
		}

		switch msg := resp.(type) {
		case *DataFrame:
			if msg.Port != p.name || msg.Data == "" {
				continue
			}
			select {
			case p.data <- msg.Data:
			case <-p.closeCh:
				return
			}
		case *SerialPortList:
			for _, port := range msg.SerialPorts {
				if port.Name != p.name || port.IsOpen {
					continue
				}
				go p.c.WriteString("open " + p.name + " " + strconv.Itoa(p.baud))
			}
		case *ErrorMessage:
			log.Println("ERROR: spjs:", msg.Error)
		}
	}
}

func (p *Port) Read(b []byte) (int, error) {
	if p.pending == "" {
		select {
		case <-p.closeCh:
			return 0, io.EOF
		case p.pending = <-p.data:
		}
	}
	n := copy(b, p.pending)
	p.pending = p.pending[n:]
	return n, nil
}

// Write sends every complete line in b to the port.
func (p *Port) Write(b []byte) (int, error) {
	j := JSON{Port: p.name}
	for _, line := range strings.SplitAfter(string(b), "\n") {
		if line == "" {
			continue
		}
		j.Data = append(j.Data, Data{Data: line, ID: nextID()})
	}
	if len(j.Data) == 0 {
		return 0, nil
	}
	err := p.c.SendJSON(j)
	if err != nil {
		return 0, err
	}
	return len(b), nil
}

// Close stops reading from the port and closes the client.
func (p *Port) Close() error {
	select {
	case <-p.closeCh:
	default:
		close(p.closeCh)
	}
	return p.c.Close()
}
