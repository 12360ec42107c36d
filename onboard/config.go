package onboard

import (
	"io/ioutil"
	"time"

	"github.com/CodedInternet/firebot/onboard/errors"
	"github.com/CodedInternet/firebot/onboard/hardware"
	"github.com/Masterminds/semver"
	pkgerrors "github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	CONFIG_VERSION   = "^1.0"
	CONTROL_INTERVAL = 100 * time.Millisecond
)

type BotConfig struct {
	Version string `yaml:"version"`
	Board   struct {
		Port string `yaml:"port"`
	} `yaml:"board"`
	Sensors struct {
		Left   *hardware.Channel `yaml:"left"`
		Center *hardware.Channel `yaml:"center"`
		Right  *hardware.Channel `yaml:"right"`
	} `yaml:"sensors"`
	Triage struct {
		Threshold int `yaml:"threshold"`
		Samples   int `yaml:"samples"`
	} `yaml:"triage"`
	Motors struct {
		Left  MotorLines `yaml:"left"`
		Right MotorLines `yaml:"right"`
	} `yaml:"motors"`
	Control struct {
		Interval   time.Duration `yaml:"interval"`
		Autonomous bool          `yaml:"autonomous"`
		Policy     Policy        `yaml:"policy"`
	} `yaml:"control"`
	Simulation SimulationConfig `yaml:"simulation"`
}

type SimulationConfig struct {
	Fire       []float64 `yaml:"fire,flow"` // x, y of the fire relative to the start position
	Noise      int       `yaml:"noise"`
	WheelBase  float64   `yaml:"wheelbase"`
	WheelSpeed float64   `yaml:"speed"`
}

func (c *BotConfig) TriageConfig() TriageConfig {
	return TriageConfig{
		Left:      c.Sensors.Left,
		Center:    c.Sensors.Center,
		Right:     c.Sensors.Right,
		Threshold: c.Triage.Threshold,
		Samples:   c.Triage.Samples,
	}
}

// UnmarshalYAML reads the policy as direction name to command name.
func (p *Policy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw map[string]string
	if err := unmarshal(&raw); err != nil {
		return err
	}

	*p = make(Policy, len(raw))
	for dName, cName := range raw {
		d, err := ParseHazardDirection(dName)
		if err != nil {
			return err
		}
		cmd, err := ParseDriveCommand(cName)
		if err != nil {
			return err
		}
		(*p)[d] = cmd
	}
	return nil
}

func (p Policy) MarshalYAML() (interface{}, error) {
	raw := make(map[string]string, len(p))
	for d, cmd := range p {
		raw[d.String()] = cmd.String()
	}
	return raw, nil
}

func LoadConfig(filename string) (config *BotConfig, err error) {
	raw, err := ioutil.ReadFile(filename)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "unable to read config file")
	}

	return ParseConfig(raw)
}

func ParseConfig(raw []byte) (config *BotConfig, err error) {
	// triage defaults are set before decoding so an explicit zero is caught by Validate
	config = new(BotConfig)
	config.Triage.Threshold = TRIAGE_THRESHOLD
	config.Triage.Samples = TRIAGE_SAMPLES
	if err = yaml.Unmarshal(raw, config); err != nil {
		return nil, pkgerrors.Wrap(err, "unable to unmarshal config")
	}

	config.applyDefaults()

	if err = config.Validate(); err != nil {
		return nil, err
	}
	return
}

func (c *BotConfig) applyDefaults() {
	if c.Control.Interval == 0 {
		c.Control.Interval = CONTROL_INTERVAL
	}

	// directions missing from the file keep their default command
	policy := DefaultPolicy()
	for d, cmd := range c.Control.Policy {
		policy[d] = cmd
	}
	c.Control.Policy = policy

	if len(c.Simulation.Fire) < 2 {
		c.Simulation.Fire = []float64{SIM_FIRE_X, SIM_FIRE_Y}
	}
	if c.Simulation.WheelBase == 0 {
		c.Simulation.WheelBase = SIM_WHEELBASE
	}
	if c.Simulation.WheelSpeed == 0 {
		c.Simulation.WheelSpeed = SIM_WHEEL_SPEED
	}
}

func (c *BotConfig) Validate() error {
	version, err := semver.NewVersion(c.Version)
	if err != nil {
		return pkgerrors.Wrapf(err, "config version %q", c.Version)
	}

	constraint, err := semver.NewConstraint(CONFIG_VERSION)
	if err != nil {
		return err
	}

	if !constraint.Check(version) {
		return errors.ConfigVersionError{Version: c.Version, Constraint: CONFIG_VERSION}
	}

	seen := make(map[hardware.Line]bool, 4)
	for _, line := range []hardware.Line{
		c.Motors.Left.Line1, c.Motors.Left.Line2,
		c.Motors.Right.Line1, c.Motors.Right.Line2,
	} {
		if seen[line] {
			return errors.DuplicateLineError{Line: int(line)}
		}
		seen[line] = true
	}

	if c.Triage.Threshold <= 0 {
		return pkgerrors.Errorf("triage threshold must be positive, got %d", c.Triage.Threshold)
	}
	if c.Triage.Samples <= 0 {
		return pkgerrors.Errorf("triage samples must be positive, got %d", c.Triage.Samples)
	}

	return nil
}
