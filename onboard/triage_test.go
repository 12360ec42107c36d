package onboard

import (
	"encoding/json"
	"testing"

	"github.com/CodedInternet/firebot/onboard/hardware"
	. "github.com/smartystreets/goconvey/convey"
)

// testHAL replays scripted samples per channel and records every write.
type testHAL struct {
	samples map[hardware.Channel][]int
	next    map[hardware.Channel]int
	reads   []hardware.Channel
	levels  map[hardware.Line]hardware.Level
	writes  []hardware.Line
	modes   map[hardware.Pin]hardware.Mode
}

func newTestHAL() *testHAL {
	return &testHAL{
		samples: make(map[hardware.Channel][]int),
		next:    make(map[hardware.Channel]int),
		levels:  make(map[hardware.Line]hardware.Level),
		modes:   make(map[hardware.Pin]hardware.Mode),
	}
}

// set makes every sample on the channel return val.
func (h *testHAL) set(ch hardware.Channel, val int) {
	h.script(ch, val)
}

func (h *testHAL) script(ch hardware.Channel, vals ...int) {
	h.samples[ch] = vals
	h.next[ch] = 0
}

func (h *testHAL) Sample(ch hardware.Channel) int {
	h.reads = append(h.reads, ch)
	vals := h.samples[ch]
	if len(vals) == 0 {
		return hardware.ANALOG_FULL_SCALE
	}
	i := h.next[ch]
	h.next[ch] = (i + 1) % len(vals)
	return vals[i]
}

func (h *testHAL) Write(line hardware.Line, level hardware.Level) {
	h.writes = append(h.writes, line)
	h.levels[line] = level
}

func (h *testHAL) SetMode(pin hardware.Pin, mode hardware.Mode) {
	h.modes[pin] = mode
}

const (
	chLeft   hardware.Channel = 0
	chCenter hardware.Channel = 1
	chRight  hardware.Channel = 2
)

func fullTriage(hal *testHAL) *SensorTriage {
	return NewSensorTriage(hal, TriageConfig{
		Left:   hardware.Ch(int(chLeft)),
		Center: hardware.Ch(int(chCenter)),
		Right:  hardware.Ch(int(chRight)),
	})
}

func TestReadChannel(t *testing.T) {
	Convey("readings are the truncated mean of five samples", t, func() {
		hal := newTestHAL()
		triage := fullTriage(hal)

		Convey("flat samples", func() {
			hal.script(chCenter, 100, 100, 100, 100, 100)
			So(triage.ReadChannel(chCenter), ShouldEqual, 100)
			So(hal.reads, ShouldHaveLength, 5)
		})

		Convey("samples around the threshold", func() {
			hal.script(chCenter, 499, 500, 501, 500, 500)
			So(triage.ReadChannel(chCenter), ShouldEqual, 500)
		})

		Convey("fractional means are truncated", func() {
			hal.script(chCenter, 1, 1, 1, 1, 2)
			So(triage.ReadChannel(chCenter), ShouldEqual, 1)

			hal.script(chCenter, 499, 499, 499, 499, 500)
			So(triage.ReadChannel(chCenter), ShouldEqual, 499)
		})

		Convey("a single spike is damped", func() {
			hal.script(chCenter, 900, 900, 0, 900, 900)
			So(triage.ReadChannel(chCenter), ShouldEqual, 720)
		})
	})

	Convey("the sample count is configurable", t, func() {
		hal := newTestHAL()
		triage := NewSensorTriage(hal, TriageConfig{Center: hardware.Ch(1), Samples: 3})
		hal.script(chCenter, 10, 20, 31)
		So(triage.ReadChannel(chCenter), ShouldEqual, 20)
		So(hal.reads, ShouldHaveLength, 3)
	})
}

func TestClassify(t *testing.T) {
	Convey("with all three channels configured", t, func() {
		hal := newTestHAL()
		triage := fullTriage(hal)
		hal.set(chLeft, 800)
		hal.set(chCenter, 800)
		hal.set(chRight, 800)

		Convey("configured channels are switched to input pullup", func() {
			So(hal.modes[hardware.Pin(chLeft)], ShouldEqual, hardware.ModeInputPullup)
			So(hal.modes[hardware.Pin(chCenter)], ShouldEqual, hardware.ModeInputPullup)
			So(hal.modes[hardware.Pin(chRight)], ShouldEqual, hardware.ModeInputPullup)
		})

		Convey("nothing hazardous gives none", func() {
			So(triage.Classify(), ShouldEqual, HazardNone)
		})

		Convey("only center hazardous gives center", func() {
			hal.set(chCenter, 100)
			So(triage.Classify(), ShouldEqual, HazardCenter)
		})

		Convey("all three hazardous gives center", func() {
			hal.set(chLeft, 10)
			hal.set(chCenter, 400)
			hal.set(chRight, 10)
			So(triage.Classify(), ShouldEqual, HazardCenter)
		})

		Convey("left beats right", func() {
			hal.set(chLeft, 300)
			hal.set(chRight, 10)
			So(triage.Classify(), ShouldEqual, HazardLeft)
		})

		Convey("only left hazardous gives left", func() {
			hal.set(chLeft, 499)
			So(triage.Classify(), ShouldEqual, HazardLeft)
		})

		Convey("only right hazardous gives right", func() {
			hal.set(chRight, 0)
			So(triage.Classify(), ShouldEqual, HazardRight)
		})

		Convey("the threshold is exclusive", func() {
			hal.script(chCenter, 499, 500, 501, 500, 500)
			So(triage.Classify(), ShouldEqual, HazardNone)

			hal.set(chCenter, 499)
			So(triage.Classify(), ShouldEqual, HazardCenter)
		})

		Convey("channels are read left, center then right", func() {
			triage.Classify()
			So(hal.reads, ShouldHaveLength, 15)
			So(hal.reads[0], ShouldEqual, chLeft)
			So(hal.reads[4], ShouldEqual, chLeft)
			So(hal.reads[5], ShouldEqual, chCenter)
			So(hal.reads[9], ShouldEqual, chCenter)
			So(hal.reads[10], ShouldEqual, chRight)
			So(hal.reads[14], ShouldEqual, chRight)
		})
	})

	Convey("unconfigured channels never trip", t, func() {
		hal := newTestHAL()
		// a sample of 0 on channel 1 would be hazardous if it were ever read
		hal.set(chCenter, 0)

		Convey("no channels at all gives none", func() {
			triage := NewSensorTriage(hal, TriageConfig{})
			So(triage.Classify(), ShouldEqual, HazardNone)
			So(hal.reads, ShouldBeEmpty)
			So(hal.modes, ShouldBeEmpty)
		})

		Convey("only right wired and hazardous gives right", func() {
			hal.set(chRight, 5)
			triage := NewSensorTriage(hal, TriageConfig{Right: hardware.Ch(int(chRight))})
			So(triage.Classify(), ShouldEqual, HazardRight)
		})

		Convey("left hazardous with right unconfigured gives left", func() {
			hal.set(chLeft, 5)
			triage := NewSensorTriage(hal, TriageConfig{Left: hardware.Ch(int(chLeft))})
			So(triage.Classify(), ShouldEqual, HazardLeft)
		})

		Convey("center only and hazardous gives center", func() {
			triage := NewSensorTriage(hal, TriageConfig{Center: hardware.Ch(int(chCenter))})
			So(triage.Classify(), ShouldEqual, HazardCenter)
			So(triage.Channel(HazardLeft), ShouldBeNil)
			So(*triage.Channel(HazardCenter), ShouldEqual, chCenter)
		})
	})

	Convey("a custom threshold moves the boundary", t, func() {
		hal := newTestHAL()
		triage := NewSensorTriage(hal, TriageConfig{Center: hardware.Ch(1), Threshold: 200})
		hal.set(chCenter, 300)
		So(triage.Classify(), ShouldEqual, HazardNone)
		hal.set(chCenter, 199)
		So(triage.Classify(), ShouldEqual, HazardCenter)
	})
}

func TestScan(t *testing.T) {
	Convey("a scan carries the readings behind the decision", t, func() {
		hal := newTestHAL()
		triage := NewSensorTriage(hal, TriageConfig{
			Left:   hardware.Ch(int(chLeft)),
			Center: hardware.Ch(int(chCenter)),
		})
		hal.set(chLeft, 200)
		hal.set(chCenter, 700)

		scan := triage.Scan()
		So(scan.Direction, ShouldEqual, HazardLeft)
		So(*scan.Readings[HazardLeft], ShouldEqual, 200)
		So(*scan.Readings[HazardCenter], ShouldEqual, 700)
		So(scan.Readings[HazardRight], ShouldBeNil)
		So(scan.Hazards[HazardLeft], ShouldBeTrue)
		So(scan.Hazards[HazardCenter], ShouldBeFalse)
		So(scan.Hazards[HazardRight], ShouldBeFalse)

		Convey("and encodes with direction names", func() {
			raw, err := json.Marshal(scan)
			So(err, ShouldBeNil)
			So(string(raw), ShouldContainSubstring, `"direction":"left"`)
			So(string(raw), ShouldContainSubstring, `"center":700`)
			So(string(raw), ShouldContainSubstring, `"right":null`)
		})
	})
}

func TestHazardDirectionNames(t *testing.T) {
	Convey("directions parse from their names", t, func() {
		for _, d := range []HazardDirection{HazardNone, HazardLeft, HazardCenter, HazardRight} {
			parsed, err := ParseHazardDirection(d.String())
			So(err, ShouldBeNil)
			So(parsed, ShouldEqual, d)
		}

		_, err := ParseHazardDirection("behind")
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "behind")
	})
}
