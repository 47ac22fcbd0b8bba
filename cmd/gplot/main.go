package main

import (
	"context"
	"flag"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/mastercactapus/gplot/clock"
	"github.com/mastercactapus/gplot/config"
	"github.com/mastercactapus/gplot/hw/bridge"
	"github.com/mastercactapus/gplot/hw/sim"
	"github.com/mastercactapus/gplot/machine"
	"github.com/mastercactapus/gplot/meshlevel"
	"github.com/mastercactapus/gplot/spjs"
)

func main() {
	log.SetFlags(log.Lshortfile)

	cfgFile := flag.String("config", "gplot.yml", "Config file to load.")
	addr := flag.String("addr", "", "Address to bind the gplot server to (overrides config).")
	dir := flag.String("dir", "", "Data directory to use (overrides config).")
	backend := flag.String("backend", "", "Hardware backend: sim, serial or spjs (overrides config).")
	port := flag.String("port", "", "Serial port path (or name if using SPJS).")
	spjsURL := flag.String("spjs", "", "Websocket URL of the SPJS server to use.")
	flag.Parse()

	cfg, err := config.Load(*cfgFile)
	if err != nil {
		log.Fatalf("ERROR: load config: %+v", err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dir != "" {
		cfg.DataDir = *dir
	}
	if *backend != "" {
		cfg.Backend = *backend
	}
	if *port != "" {
		cfg.Serial.Port = *port
		cfg.SPJS.Port = *port
	}
	if *spjsURL != "" {
		cfg.SPJS.URL = *spjsURL
	}
	err = cfg.Validate()
	if err != nil {
		log.Fatalf("ERROR: invalid config: %+v", err)
	}

	err = os.MkdirAll(cfg.DataDir, 0755)
	if err != nil {
		log.Fatalf("ERROR: create data dir: %+v", err)
	}
	err = cfg.WriteInUse(filepath.Join(cfg.DataDir, "config-in-use.yml"))
	if err != nil {
		log.Println("ERROR: write config:", err)
	}

	c := clock.NewSystem()
	h, closer, err := openHardware(cfg, c)
	if err != nil {
		log.Fatalf("ERROR: open %s backend: %+v", cfg.Backend, err)
	}
	defer closer.Close()

	m := machine.New(machine.Options{
		Tracker:        cfg.Tracker(),
		UnitX:          cfg.X.Unit,
		UnitY:          cfg.Y.Unit,
		TickPeriod:     cfg.TickPeriod,
		StatusInterval: cfg.StatusInterval,
		InboxSize:      cfg.InboxSize,
	}, h, c)

	if cfg.MeshFile != "" {
		mesh, err := meshlevel.LoadFile(cfg.MeshFile)
		if err != nil {
			log.Fatalf("ERROR: load mesh: %+v", err)
		}
		m.SetMesh(mesh, cfg.MeshGranularity)
		log.Println("Loaded pen mesh from", cfg.MeshFile)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go m.Run(ctx)

	api := newAPI(ctx, m, cfg.DataDir)

	log.Printf("Listening on %s (backend %s)", cfg.Addr, cfg.Backend)
	err = http.ListenAndServe(cfg.Addr, http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		log.Printf("%s %s - %s", req.Method, req.URL.Path, req.RemoteAddr)
		api.ServeHTTP(w, req)
	}))
	if err != nil {
		log.Fatal(err)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

func openHardware(cfg config.Config, c clock.Clock) (machine.Hardware, io.Closer, error) {
	bcfg := bridge.Config{Poll: cfg.PollInterval, PenDefault: cfg.PenDefault}

	switch cfg.Backend {
	case "serial":
		rw, err := bridge.OpenSerial(cfg.Serial.Port, cfg.Serial.Baud)
		if err != nil {
			return machine.Hardware{}, nil, err
		}
		b := bridge.New(rw, bcfg)
		return machine.BridgeHardware(b), b, nil
	case "spjs":
		client := spjs.NewClient(cfg.SPJS.URL)
		b := bridge.New(client.Open(cfg.SPJS.Port, cfg.SPJS.Baud), bcfg)
		return machine.BridgeHardware(b), b, nil
	}

	return machine.SimHardware(sim.NewPlotter(c, cfg.X.SimRate, cfg.Y.SimRate)), nopCloser{}, nil
}
