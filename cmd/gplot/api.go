package main

import (
	"context"
	"encoding/json"
	"io"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"

	sse "github.com/alexandrevicenzi/go-sse"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/mastercactapus/gplot/estimate"
	"github.com/mastercactapus/gplot/gcode"
	"github.com/mastercactapus/gplot/machine"
	"github.com/pkg/errors"
)

type api struct {
	http.Handler
	ctx     context.Context
	m       *machine.Machine
	dataDir string
	sse     *sse.Server
	up      websocket.Upgrader

	feedMx     sync.Mutex
	cancelFeed context.CancelFunc
}

func newAPI(ctx context.Context, m *machine.Machine, dir string) *api {
	r := mux.NewRouter()

	a := &api{
		Handler: r,
		ctx:     ctx,
		m:       m,
		dataDir: dir,
		sse: sse.NewServer(&sse.Options{
			Logger: log.New(ioutil.Discard, "", 0),
		}),
		up: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	fs := http.FileServer(http.Dir(dir))
	r.PathPrefix("/data/").Handler(http.StripPrefix("/data", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch req.Method {
		case "GET":
			fs.ServeHTTP(w, req)
		case "PUT":
			a.putFile(w, req)
		case "DELETE":
			a.deleteFile(w, req)
		default:
			http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		}
	})))

	r.HandleFunc("/api/run", a.run).Methods("POST")
	r.HandleFunc("/api/run-file", a.runFile).Methods("POST")
	r.HandleFunc("/api/estimate", a.estimate).Methods("POST")
	r.HandleFunc("/api/state", a.state).Methods("GET")
	r.HandleFunc("/api/start", a.action(m.Start)).Methods("POST")
	r.HandleFunc("/api/stop", a.action(m.Stop)).Methods("POST")
	r.HandleFunc("/api/clear", a.action(a.clear)).Methods("POST")
	r.HandleFunc("/api/home", a.checked("home", m.Home)).Methods("POST")
	r.HandleFunc("/api/calibrate", a.checked("calibrate", m.Calibrate)).Methods("POST")
	r.HandleFunc("/ws", a.ws)

	r.PathPrefix("/events/").Handler(a.sse)
	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case state := <-m.State():
				data, err := json.Marshal(state)
				if err != nil {
					log.Printf("ERROR: marshal json: %+v", err)
					continue
				}
				a.sse.SendMessage("/events/state", sse.SimpleMessage(string(data)))
			}
		}
	}()

	return a
}

func safePath(base, name string) (bool, string) {
	if filepath.Separator != '/' && strings.ContainsRune(name, filepath.Separator) {
		log.Println("invalid path '" + name + "'")
		return false, ""
	}
	dir := string(base)
	if dir == "" {
		dir = "."
	}
	fullName := filepath.Join(dir, filepath.FromSlash(path.Clean("/"+name)))
	return true, fullName
}

// httpError maps machine errors to a status code.
func httpError(w http.ResponseWriter, what string, err error) {
	if errors.Cause(err) == machine.ErrBusy {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	log.Printf("ERROR: %s: %+v", what, err)
	http.Error(w, err.Error(), 500)
}

func (a *api) action(fn func()) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		fn()
		w.WriteHeader(http.StatusNoContent)
	}
}

func (a *api) checked(what string, fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		err := fn()
		if err != nil {
			httpError(w, what, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// clear stops a running file feed before discarding the queue.
func (a *api) clear() {
	a.feedMx.Lock()
	if a.cancelFeed != nil {
		a.cancelFeed()
		a.cancelFeed = nil
	}
	a.feedMx.Unlock()
	a.m.Clear()
}

func (a *api) feeding() bool {
	a.feedMx.Lock()
	defer a.feedMx.Unlock()
	return a.cancelFeed != nil
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Println("ERROR: encode:", err)
	}
}

func (a *api) state(w http.ResponseWriter, req *http.Request) {
	writeJSON(w, a.m.CurrentState())
}

func (a *api) run(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(req.Body)
	if err != nil {
		return
	}

	if a.feeding() {
		http.Error(w, machine.ErrBusy.Error(), http.StatusServiceUnavailable)
		return
	}
	n, err := a.m.RunGCode(string(data))
	if errors.Cause(err) == machine.ErrBusy {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}
	if errors.Cause(err) == machine.ErrTooLarge {
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, map[string]int{"queued": n})
}

func (a *api) runFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.FormValue("name"))
	if !ok || req.FormValue("name") == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	data, err := ioutil.ReadFile(name)
	if os.IsNotExist(err) {
		http.NotFound(w, req)
		return
	}
	if err != nil {
		log.Printf("ERROR: read '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}

	// reject bad files up front, the feed itself runs until the plotter
	// has taken every command
	_, err = gcode.NewDecoder().DecodeString(string(data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.feedMx.Lock()
	if a.cancelFeed != nil {
		a.feedMx.Unlock()
		http.Error(w, "a file is already running", http.StatusServiceUnavailable)
		return
	}
	ctx, cancel := context.WithCancel(a.ctx)
	a.cancelFeed = cancel
	a.feedMx.Unlock()

	go func() {
		n, err := a.m.FeedGCode(ctx, string(data))
		if err != nil && errors.Cause(err) != context.Canceled {
			log.Printf("ERROR: run file '%s': %+v", name, err)
		} else if err == nil {
			log.Printf("Queued %d commands from '%s'", n, name)
		}
		a.feedMx.Lock()
		if ctx.Err() == nil {
			a.cancelFeed = nil
		}
		a.feedMx.Unlock()
		cancel()
	}()

	w.WriteHeader(http.StatusAccepted)
}

func (a *api) estimate(w http.ResponseWriter, req *http.Request) {
	data, err := ioutil.ReadAll(gcode.NewBuffer(gcode.NewParser(req.Body)))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	job, err := estimate.Estimate(string(data))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, job)
}

// ws runs each text message as a g-code program, replying with the
// outcome.
func (a *api) ws(w http.ResponseWriter, req *http.Request) {
	conn, err := a.up.Upgrade(w, req, nil)
	if err != nil {
		log.Println("ERROR: upgrade:", err)
		return
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Println("ERROR: read websocket:", err)
			}
			return
		}

		reply := "ok"
		if a.feeding() {
			err = machine.ErrBusy
		} else {
			_, err = a.m.RunGCode(string(data))
		}
		switch {
		case errors.Cause(err) == machine.ErrBusy:
			reply = "busy"
		case err != nil:
			reply = "error: " + err.Error()
		}

		err = conn.WriteMessage(websocket.TextMessage, []byte(reply))
		if err != nil {
			log.Println("ERROR: write websocket:", err)
			return
		}
	}
}

func (a *api) putFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	os.MkdirAll(filepath.Dir(name), 0755)
	f, err := os.Create(name)
	if err != nil {
		log.Printf("ERROR: create '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
	defer f.Close()
	_, err = io.Copy(f, req.Body)
	if err != nil {
		log.Printf("ERROR: write '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}

func (a *api) deleteFile(w http.ResponseWriter, req *http.Request) {
	ok, name := safePath(a.dataDir, req.URL.Path)
	if !ok {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	err := os.Remove(name)
	if os.IsNotExist(err) {
		http.NotFound(w, req)
		return
	}
	if err != nil {
		log.Printf("ERROR: delete '%s': %+v", name, err)
		http.Error(w, err.Error(), 500)
		return
	}
}
