package spjs

import (
	"bufio"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessage(t *testing.T) {
	v, err := parseMessage([]byte(`{"P":"COM3","D":"<X:1|Y:2>\n"}`))
	require.NoError(t, err)
	assert.Equal(t, &DataFrame{Port: "COM3", Data: "<X:1|Y:2>\n"}, v)

	v, err = parseMessage([]byte(`{"SerialPorts":[{"Name":"COM3","IsOpen":true,"Baud":115200}]}`))
	require.NoError(t, err)
	assert.Equal(t, &SerialPortList{SerialPorts: []SerialPort{{Name: "COM3", IsOpen: true, Baud: 115200}}}, v)

	v, err = parseMessage([]byte(`{"Cmd":"Complete","Id":"cmd_1","P":"COM3","Type":["Buf"]}`))
	require.NoError(t, err)
	assert.Equal(t, "Complete", v.(*CmdStatus).Cmd)

	v, err = parseMessage([]byte(`{"Error":"port not found"}`))
	require.NoError(t, err)
	assert.Equal(t, &ErrorMessage{Error: "port not found"}, v)

	_, err = parseMessage([]byte(`{"Foo":1}`))
	assert.Error(t, err)
}

type server struct {
	recv chan string
	send chan string
}

func newServer(t *testing.T) (*server, string) {
	s := &server{recv: make(chan string, 100), send: make(chan string, 100)}
	var up websocket.Upgrader
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ws, err := up.Upgrade(w, req, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		go func() {
			for msg := range s.send {
				ws.WriteMessage(websocket.TextMessage, []byte(msg))
			}
		}()
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			s.recv <- string(data)
		}
	}))
	t.Cleanup(srv.Close)
	return s, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (s *server) next(t *testing.T) string {
	select {
	case m := <-s.recv:
		return m
	case <-time.After(2 * time.Second):
		t.Fatal("timeout")
	}
	return ""
}

func TestPort(t *testing.T) {
	s, url := newServer(t)
	c := NewClient(url)
	p := c.Open("COM3", 115200)
	defer p.Close()

	assert.Equal(t, "list", s.next(t))

	s.send <- `{"SerialPorts":[{"Name":"COM1","IsOpen":false},{"Name":"COM3","IsOpen":false}]}`
	assert.Equal(t, "open COM3 115200", s.next(t))

	s.send <- `{"P":"COM1","D":"ignored\n"}`
	s.send <- `{"P":"COM3","D":"<X:4|"}`
	s.send <- `{"P":"COM3","D":"Y:5>\nok\n"}`
	r := bufio.NewReader(p)
	line, err := r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "<X:4|Y:5>\n", line)
	line, err = r.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "ok\n", line)

	n, err := p.Write([]byte("X+36\nYS\n"))
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	msg := s.next(t)
	assert.True(t, strings.HasPrefix(msg, "sendjson "), msg)
	assert.Contains(t, msg, `"P":"COM3"`)
	assert.Contains(t, msg, `"D":"X+36\n"`)
	assert.Contains(t, msg, `"D":"YS\n"`)
}

func TestPort_Closed(t *testing.T) {
	c := NewClient("ws://127.0.0.1:1/")
	p := c.Open("COM3", 115200)
	require.NoError(t, p.Close())

	_, err := p.Write([]byte("XS\n"))
	assert.Equal(t, ErrClosed, err)

	_, err = p.Read(make([]byte, 10))
	assert.Error(t, err)
}
