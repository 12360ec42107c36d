package onboard

import (
	"github.com/CodedInternet/firebot/onboard/errors"
	"github.com/CodedInternet/firebot/onboard/hardware"
)

const (
	TRIAGE_THRESHOLD = 500 // readings strictly below this are hazardous
	TRIAGE_SAMPLES   = 5
)

type HazardDirection uint8

const (
	HazardNone HazardDirection = iota
	HazardLeft
	HazardCenter
	HazardRight
)

// resolution order when more than one channel trips, head-on first
var hazardPriority = []HazardDirection{HazardCenter, HazardLeft, HazardRight}

var hazardNames = map[HazardDirection]string{
	HazardNone:   "none",
	HazardLeft:   "left",
	HazardCenter: "center",
	HazardRight:  "right",
}

func (d HazardDirection) String() string {
	if name, ok := hazardNames[d]; ok {
		return name
	}
	return "unknown"
}

func ParseHazardDirection(name string) (HazardDirection, error) {
	for d, n := range hazardNames {
		if n == name {
			return d, nil
		}
	}
	return HazardNone, errors.UnknownDirectionError{Name: name}
}

func (d HazardDirection) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *HazardDirection) UnmarshalText(text []byte) (err error) {
	*d, err = ParseHazardDirection(string(text))
	return
}

type TriageConfig struct {
	Left, Center, Right *hardware.Channel
	Threshold           int
	Samples             int
}

// Scan is the outcome of a single poll. Readings are nil for unconfigured directions.
type Scan struct {
	Readings  map[HazardDirection]*int `json:"readings"`
	Hazards   map[HazardDirection]bool `json:"hazards"`
	Direction HazardDirection          `json:"direction"`
}

type SensorTriage struct {
	hal       hardware.HAL
	channels  map[HazardDirection]*hardware.Channel
	threshold int
	samples   int
}

func NewSensorTriage(hal hardware.HAL, config TriageConfig) (t *SensorTriage) {
	t = &SensorTriage{
		hal: hal,
		channels: map[HazardDirection]*hardware.Channel{
			HazardLeft:   config.Left,
			HazardCenter: config.Center,
			HazardRight:  config.Right,
		},
		threshold: config.Threshold,
		samples:   config.Samples,
	}

	if t.threshold == 0 {
		t.threshold = TRIAGE_THRESHOLD
	}
	if t.samples <= 0 {
		t.samples = TRIAGE_SAMPLES
	}

	for _, d := range []HazardDirection{HazardLeft, HazardCenter, HazardRight} {
		if ch := t.channels[d]; ch != nil {
			hal.SetMode(hardware.Pin(*ch), hardware.ModeInputPullup)
		}
	}

	return
}

// Channel returns the channel wired for a direction, nil if there is none.
func (t *SensorTriage) Channel(d HazardDirection) *hardware.Channel {
	return t.channels[d]
}

// ReadChannel averages several samples to suppress single sample spikes.
// The mean is truncated towards zero.
func (t *SensorTriage) ReadChannel(ch hardware.Channel) int {
	total := 0
	for i := 0; i < t.samples; i++ {
		total += t.hal.Sample(ch)
	}
	return total / t.samples
}

func (t *SensorTriage) Classify() HazardDirection {
	return t.Scan().Direction
}

func (t *SensorTriage) Scan() (s Scan) {
	s.Readings = make(map[HazardDirection]*int, 3)
	s.Hazards = make(map[HazardDirection]bool, 3)

	// fixed read order: left, center, right
	for _, d := range []HazardDirection{HazardLeft, HazardCenter, HazardRight} {
		ch := t.channels[d]
		if ch == nil {
			s.Readings[d] = nil
			s.Hazards[d] = false
			continue
		}

		val := t.ReadChannel(*ch)
		s.Readings[d] = &val
		s.Hazards[d] = val < t.threshold
	}

	s.Direction = HazardNone
	for _, d := range hazardPriority {
		if s.Hazards[d] {
			s.Direction = d
			break
		}
	}

	return
}
