package main

import (
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/mastercactapus/gplot/clock"
	"github.com/mastercactapus/gplot/hw/sim"
	"github.com/mastercactapus/gplot/machine"
	"github.com/mastercactapus/gplot/tracker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAPI(t *testing.T) (*api, *machine.Machine, *httptest.Server) {
	c := &clock.Fake{}
	m := machine.New(machine.Options{
		Tracker:        tracker.DefaultConfig(),
		UnitX:          0.1,
		UnitY:          0.1,
		TickPeriod:     time.Millisecond,
		StatusInterval: 10 * time.Millisecond,
		InboxSize:      8,
	}, machine.SimHardware(sim.NewPlotter(c, 2000, 4000)), c)

	ctx, cancel := context.WithCancel(context.Background())
	a := newAPI(ctx, m, t.TempDir())
	srv := httptest.NewServer(a)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return a, m, srv
}

func do(t *testing.T, method, url, body string) (int, string) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := ioutil.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(data)
}

func TestAPI_Run(t *testing.T) {
	_, m, srv := newTestAPI(t)

	code, body := do(t, "POST", srv.URL+"/api/run", "G1 X1\nG1 Y1")
	assert.Equal(t, 200, code)
	assert.JSONEq(t, `{"queued":2}`, body)
	assert.Equal(t, 2, m.CurrentState().Inbox)

	code, _ = do(t, "POST", srv.URL+"/api/run", "G1 X?")
	assert.Equal(t, 400, code)

	code, _ = do(t, "POST", srv.URL+"/api/run", "G38.2 Z-1")
	assert.Equal(t, 400, code)

	code, _ = do(t, "POST", srv.URL+"/api/run", strings.Repeat("G1 X2\n", 7))
	assert.Equal(t, 503, code)
	assert.Equal(t, 2, m.CurrentState().Inbox)

	code, body = do(t, "POST", srv.URL+"/api/run", strings.Repeat("G1 X2\n", 9))
	assert.Equal(t, 413, code)
	assert.Contains(t, body, "run it as a file")
	assert.Equal(t, 2, m.CurrentState().Inbox)
}

func TestAPI_Control(t *testing.T) {
	_, m, srv := newTestAPI(t)

	code, _ := do(t, "POST", srv.URL+"/api/stop", "")
	assert.Equal(t, 204, code)
	m.Tick()
	assert.Equal(t, "Hold", m.CurrentState().Status)

	code, _ = do(t, "POST", srv.URL+"/api/start", "")
	assert.Equal(t, 204, code)

	_, err := m.RunGCode("G1 X1\nG1 X2")
	require.NoError(t, err)
	code, _ = do(t, "POST", srv.URL+"/api/clear", "")
	assert.Equal(t, 204, code)
	assert.Equal(t, 0, m.CurrentState().Inbox)

	code, _ = do(t, "POST", srv.URL+"/api/calibrate", "")
	assert.Equal(t, 204, code)

	code, _ = do(t, "POST", srv.URL+"/api/home", "")
	assert.Equal(t, 204, code)
	code, _ = do(t, "POST", srv.URL+"/api/calibrate", "")
	assert.Equal(t, 503, code, "homing")
}

func TestAPI_State(t *testing.T) {
	_, _, srv := newTestAPI(t)

	code, body := do(t, "GET", srv.URL+"/api/state", "")
	require.Equal(t, 200, code)

	var s machine.State
	require.NoError(t, json.Unmarshal([]byte(body), &s))
	assert.Equal(t, "Idle", s.Status)
	assert.Equal(t, "default", s.Pen)
}

func TestAPI_Estimate(t *testing.T) {
	_, _, srv := newTestAPI(t)

	code, body := do(t, "POST", srv.URL+"/api/estimate", "G0 X10 Y0 (start)\nG1 X10 Y10\n")
	require.Equal(t, 200, code, body)
	var job struct{ Rapids, Lines int }
	require.NoError(t, json.Unmarshal([]byte(body), &job))
	assert.Equal(t, 1, job.Rapids)
	assert.Equal(t, 1, job.Lines)

	code, _ = do(t, "POST", srv.URL+"/api/estimate", "G1 X?")
	assert.Equal(t, 400, code)
}

func TestAPI_Data(t *testing.T) {
	_, _, srv := newTestAPI(t)

	code, _ := do(t, "PUT", srv.URL+"/data/jobs/square.gcode", "G1 X1\n")
	assert.Equal(t, 200, code)

	code, body := do(t, "GET", srv.URL+"/data/jobs/square.gcode", "")
	assert.Equal(t, 200, code)
	assert.Equal(t, "G1 X1\n", body)

	code, _ = do(t, "DELETE", srv.URL+"/data/jobs/square.gcode", "")
	assert.Equal(t, 200, code)

	code, _ = do(t, "GET", srv.URL+"/data/jobs/square.gcode", "")
	assert.Equal(t, 404, code)
	code, _ = do(t, "DELETE", srv.URL+"/data/jobs/square.gcode", "")
	assert.Equal(t, 404, code)
}

func TestAPI_RunFile(t *testing.T) {
	a, m, srv := newTestAPI(t)

	code, _ := do(t, "POST", srv.URL+"/api/run-file?name=missing.gcode", "")
	assert.Equal(t, 404, code)

	do(t, "PUT", srv.URL+"/data/bad.gcode", "G1 X?\n")
	code, _ = do(t, "POST", srv.URL+"/api/run-file?name=bad.gcode", "")
	assert.Equal(t, 400, code)

	// more commands than the inbox holds, so the feed waits for the plotter
	do(t, "PUT", srv.URL+"/data/long.gcode", strings.Repeat("G1 X1\nG1 X0\n", 6))
	code, _ = do(t, "POST", srv.URL+"/api/run-file?name=long.gcode", "")
	assert.Equal(t, 202, code)
	assert.True(t, a.feeding())

	code, _ = do(t, "POST", srv.URL+"/api/run", "G1 X1")
	assert.Equal(t, 503, code)

	deadline := time.Now().Add(time.Second)
	for m.CurrentState().Inbox < 8 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	assert.Equal(t, 8, m.CurrentState().Inbox)

	code, _ = do(t, "POST", srv.URL+"/api/clear", "")
	assert.Equal(t, 204, code)
	assert.False(t, a.feeding())
	assert.Equal(t, 0, m.CurrentState().Inbox)
}

func TestAPI_WebSocket(t *testing.T) {
	_, _, srv := newTestAPI(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	send := func(msg string) string {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
		_, data, err := conn.ReadMessage()
		require.NoError(t, err)
		return string(data)
	}

	assert.Equal(t, "ok", send("G1 X1 Y1"))
	assert.True(t, strings.HasPrefix(send("G1 X?"), "error: "))
	assert.Equal(t, "busy", send(strings.Repeat("X2\n", 8)))
	assert.True(t, strings.HasPrefix(send(strings.Repeat("X2\n", 9)), "error: 9 commands, inbox holds 8"))
}
