package hardware

import "fmt"

const (
	// full scale of a 10 bit ADC, reported for a channel that has never been read successfully
	ANALOG_FULL_SCALE = 1023
)

// Pin is a raw board pin number.
type Pin uint8

// Channel identifies an analog input.
type Channel Pin

// Line identifies a digital output.
type Line Pin

type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

type Mode uint8

const (
	ModeInput Mode = iota
	ModeInputPullup
	ModeOutput
)

func (m Mode) String() string {
	switch m {
	case ModeInput:
		return "INPUT"
	case ModeInputPullup:
		return "INPUT_PULLUP"
	case ModeOutput:
		return "OUTPUT"
	default:
		return fmt.Sprintf("Mode(%d)", uint8(m))
	}
}

// HAL is the minimal hardware access required by the sensor and drive layers.
// Implementations are treated as infallible; anything that can fail reports it out of band.
type HAL interface {
	Sample(ch Channel) int
	Write(line Line, level Level)
	SetMode(pin Pin, mode Mode)
}

// Ch returns a configured channel, used when building optional sensor wiring.
func Ch(n int) *Channel {
	c := Channel(n)
	return &c
}
