// Package config holds the daemon configuration.
package config

import (
	"io/ioutil"
	"os"
	"time"

	"github.com/mastercactapus/gplot/tracker"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"
)

// Axis configures one axis.
type Axis struct {
	// Unit is the travel of one sensor pulse in mm.
	Unit float64 `yaml:"unit"`
	// Duty is the fixed drive duty in percent.
	Duty float64 `yaml:"duty"`
	// SimRate is the speed of the simulated axis at full duty, in pulses
	// per second.
	SimRate float64 `yaml:"sim_rate"`
}

type Serial struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type SPJS struct {
	URL  string `yaml:"url"`
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

type Config struct {
	Addr    string `yaml:"addr"`
	DataDir string `yaml:"data_dir"`

	// Backend is one of "sim", "serial" or "spjs".
	Backend string `yaml:"backend"`
	Serial  Serial `yaml:"serial"`
	SPJS    SPJS   `yaml:"spjs"`

	TickPeriod     time.Duration `yaml:"tick_period"`
	StatusInterval time.Duration `yaml:"status_interval"`
	PollInterval   time.Duration `yaml:"poll_interval"`

	X Axis `yaml:"x"`
	Y Axis `yaml:"y"`

	HomeDuty float64       `yaml:"home_duty"`
	HomeTime time.Duration `yaml:"home_time"`

	PenDefault uint8 `yaml:"pen_default"`
	PenSettle  bool  `yaml:"pen_settle"`

	InboxSize int `yaml:"inbox_size"`

	MeshFile        string  `yaml:"mesh_file"`
	MeshGranularity float64 `yaml:"mesh_granularity"`
}

// Default returns the configuration of the reference plotter.
func Default() Config {
	return Config{
		Addr:    ":9091",
		DataDir: "./data",
		Backend: "sim",
		Serial:  Serial{Port: "/dev/ttyACM0", Baud: 115200},
		SPJS:    SPJS{URL: "ws://plotter-bridge:8989/ws", Port: "/dev/ttyACM0", Baud: 115200},

		TickPeriod:     time.Millisecond,
		StatusInterval: 100 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,

		X: Axis{Unit: 0.042, Duty: 36, SimRate: 2000},
		Y: Axis{Unit: 0.0105, Duty: 18, SimRate: 4000},

		HomeDuty: 80,
		HomeTime: 3 * time.Second,

		PenDefault: 60,
		PenSettle:  true,

		InboxSize: 512,

		MeshGranularity: 5,
	}
}

// Load reads the YAML file at path over the defaults. A missing file
// yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	err = yaml.UnmarshalStrict(data, &cfg)
	if err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}

	return cfg, nil
}

// WriteInUse writes the effective configuration to path.
func (cfg Config) WriteInUse(path string) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrap(ioutil.WriteFile(path, data, 0666), "write config")
}

func checkDuty(name string, v float64) error {
	if !(v >= 0 && v <= 100) {
		return errors.Errorf("%s: duty must be within 0-100, got %v", name, v)
	}
	return nil
}

// Validate rejects configurations the motion core cannot run with.
func (cfg Config) Validate() error {
	switch cfg.Backend {
	case "sim", "serial", "spjs":
	default:
		return errors.Errorf("backend: unknown backend %q", cfg.Backend)
	}
	for _, d := range []struct {
		name string
		v    float64
	}{{"x.duty", cfg.X.Duty}, {"y.duty", cfg.Y.Duty}, {"home_duty", cfg.HomeDuty}} {
		if err := checkDuty(d.name, d.v); err != nil {
			return err
		}
	}
	if !(cfg.X.Unit > 0) || !(cfg.Y.Unit > 0) {
		return errors.New("unit lengths must be positive")
	}
	if cfg.TickPeriod <= 0 {
		return errors.New("tick_period must be positive")
	}
	if cfg.StatusInterval <= 0 {
		return errors.New("status_interval must be positive")
	}
	if cfg.InboxSize <= 0 {
		return errors.New("inbox_size must be positive")
	}
	if cfg.HomeTime < 0 {
		return errors.New("home_time must not be negative")
	}
	return nil
}

// Tracker returns the tracker constants.
func (cfg Config) Tracker() tracker.Config {
	return tracker.Config{
		DutyX:      cfg.X.Duty,
		DutyY:      cfg.Y.Duty,
		HomeDuty:   cfg.HomeDuty,
		HomeTime:   cfg.HomeTime,
		PenSettle:  cfg.PenSettle,
		PenDefault: cfg.PenDefault,
	}
}
