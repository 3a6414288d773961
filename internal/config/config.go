// Package config loads the pick-and-place configuration file.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	"github.com/ironsheep/pickplace/internal/detection"
	"github.com/ironsheep/pickplace/internal/dobot"
	"github.com/ironsheep/pickplace/internal/pick"
	"github.com/ironsheep/pickplace/internal/workspace"
)

// Environment variables that override file values.
const (
	EnvRobotHost = "PICKPLACE_ROBOT_HOST"
	EnvStrict    = "PICKPLACE_STRICT"
)

// DefaultRobotHost is the controller address of the reference cell.
const DefaultRobotHost = "192.168.1.6"

// Config holds runtime configuration. It is read from a JSON file whose
// contents may reference environment variables as ${NAME}.
type Config struct {
	Robot       Robot                 `json:"robot"`
	Detection   detection.Params      `json:"detection"`
	Calibration workspace.Calibration `json:"calibration"`
}

// Robot describes how to reach and drive the controller.
type Robot struct {
	Host          string `json:"host"`
	DashboardPort int    `json:"dashboard_port"`
	MotionPort    int    `json:"motion_port"`

	// Timeout bounds each command exchange, e.g. "2s". Empty or "0" waits
	// forever.
	Timeout string `json:"timeout,omitempty"`

	// Strict stops a run at the first rejected controller reply.
	Strict bool `json:"strict"`

	Pauses Pauses `json:"pauses"`
}

// Pauses are the settle times after each command, as duration strings.
type Pauses struct {
	AfterEnable string `json:"after_enable"`
	AfterClear  string `json:"after_clear"`
	AfterMove   string `json:"after_move"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Robot: Robot{
			Host:          DefaultRobotHost,
			DashboardPort: dobot.DefaultDashboardPort,
			MotionPort:    dobot.DefaultMotionPort,
			Pauses: Pauses{
				AfterEnable: "500ms",
				AfterClear:  "200ms",
				AfterMove:   "500ms",
			},
		},
		Detection:   detection.DefaultParams(),
		Calibration: workspace.DefaultCalibration(),
	}
}

// Validate reports the first invalid value.
func (c *Config) Validate() error {
	if c.Robot.Host == "" {
		return errors.New("robot.host must be set")
	}
	if err := validatePort("robot.dashboard_port", c.Robot.DashboardPort); err != nil {
		return err
	}
	if err := validatePort("robot.motion_port", c.Robot.MotionPort); err != nil {
		return err
	}
	if _, err := c.Robot.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Robot.Pauses.Durations(); err != nil {
		return err
	}

	if len(c.Detection.Classes) == 0 {
		return errors.New("detection.classes must name at least one color")
	}
	for i, cc := range c.Detection.Classes {
		if cc.Color == "" {
			return errors.Errorf("detection.classes[%d].color must be set", i)
		}
		if len(cc.Ranges) == 0 {
			return errors.Errorf("detection.classes[%d] (%s) has no HSV ranges", i, cc.Color)
		}
	}
	if c.Detection.MinArea < 0 {
		return errors.Errorf("detection.min_area must not be negative, got %v", c.Detection.MinArea)
	}
	if band := c.Detection.SquareBand; band.Min > band.Max {
		return errors.Errorf("detection.square_band min %v is above max %v", band.Min, band.Max)
	}

	return c.Calibration.Validate()
}

func validatePort(name string, port int) error {
	if port <= 0 || port > 65535 {
		return errors.Errorf("%s must be between 1 and 65535, got %d", name, port)
	}
	return nil
}

// TimeoutDuration parses Timeout. An empty value is zero.
func (r Robot) TimeoutDuration() (time.Duration, error) {
	return parseDuration("robot.timeout", r.Timeout)
}

// Durations parses every pause.
func (p Pauses) Durations() (pick.Pauses, error) {
	var out pick.Pauses
	var err error
	if out.AfterEnable, err = parseDuration("robot.pauses.after_enable", p.AfterEnable); err != nil {
		return pick.Pauses{}, err
	}
	if out.AfterClear, err = parseDuration("robot.pauses.after_clear", p.AfterClear); err != nil {
		return pick.Pauses{}, err
	}
	if out.AfterMove, err = parseDuration("robot.pauses.after_move", p.AfterMove); err != nil {
		return pick.Pauses{}, err
	}
	return out, nil
}

func parseDuration(name, s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, errors.Wrapf(err, "%s", name)
	}
	if d < 0 {
		return 0, errors.Errorf("%s must not be negative, got %s", name, s)
	}
	return d, nil
}

// Load reads configuration from the JSON file at path, expanding ${NAME}
// references from the environment, then applies the PICKPLACE_*
// overrides and validates the result.
//
// A missing file is not an error: the defaults are used. An empty path
// means the same. Fields absent from the file keep their defaults, except
// detection.classes, which is replaced as a whole when present and must
// spell out every range bound.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			buf, err := envsubst.ReadFile(path)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read config %s", path)
			}
			// Color classes given in the file replace the defaults as a
			// whole; decoding into the default slice would fill missing
			// fields from the default class at the same index.
			defaults := cfg.Detection.Classes
			cfg.Detection.Classes = nil
			if err := json.Unmarshal(buf, cfg); err != nil {
				return nil, errors.Wrapf(err, "failed to parse config %s", path)
			}
			if cfg.Detection.Classes == nil {
				cfg.Detection.Classes = defaults
			}
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "failed to access config %s", path)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if host := os.Getenv(EnvRobotHost); host != "" {
		c.Robot.Host = host
	}
	if v := os.Getenv(EnvStrict); v != "" {
		strict, err := strconv.ParseBool(v)
		if err != nil {
			return errors.Wrapf(err, "%s", EnvStrict)
		}
		c.Robot.Strict = strict
	}
	return nil
}

// Save writes the configuration to path as indented JSON.
func (c *Config) Save(path string) error {
	if err := c.Validate(); err != nil {
		return errors.Wrap(err, "refusing to save invalid config")
	}
	buf, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode config")
	}
	if err := os.WriteFile(path, append(buf, '\n'), 0o644); err != nil {
		return errors.Wrapf(err, "failed to write config %s", path)
	}
	return nil
}
