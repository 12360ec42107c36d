package onboard

import (
	"github.com/CodedInternet/firebot/onboard/errors"
	"github.com/CodedInternet/firebot/onboard/hardware"
)

type MotorSide uint8

const (
	SideLeft MotorSide = iota
	SideRight
)

func (s MotorSide) String() string {
	switch s {
	case SideLeft:
		return "left"
	case SideRight:
		return "right"
	}
	return "unknown"
}

// MotorLines are the two H-bridge direction inputs for one side.
// Inverted swaps the meaning of forward for motors wired the other way round.
type MotorLines struct {
	Line1    hardware.Line `yaml:"line1"`
	Line2    hardware.Line `yaml:"line2"`
	Inverted bool          `yaml:"inverted"`
}

type DriveCommand uint8

const (
	DriveStop DriveCommand = iota
	DriveForward
	DriveBackward
	DriveLeft
	DriveRight
)

var driveCommandNames = map[DriveCommand]string{
	DriveStop:     "stop",
	DriveForward:  "forward",
	DriveBackward: "backward",
	DriveLeft:     "left",
	DriveRight:    "right",
}

func (c DriveCommand) String() string {
	if name, ok := driveCommandNames[c]; ok {
		return name
	}
	return "unknown"
}

func ParseDriveCommand(name string) (DriveCommand, error) {
	for c, n := range driveCommandNames {
		if n == name {
			return c, nil
		}
	}
	return DriveStop, errors.UnknownCommandError{Name: name}
}

func (c DriveCommand) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *DriveCommand) UnmarshalText(text []byte) (err error) {
	*c, err = ParseDriveCommand(string(text))
	return
}

// DifferentialDrive turns movement intents into direction signals for two motors.
// Nothing about the previous command is kept; every call writes the full output state for the sides it touches.
type DifferentialDrive struct {
	hal   hardware.HAL
	sides [2]MotorLines
}

func NewDifferentialDrive(hal hardware.HAL, left, right MotorLines) (d *DifferentialDrive) {
	d = &DifferentialDrive{
		hal:   hal,
		sides: [2]MotorLines{left, right},
	}

	for _, lines := range d.sides {
		hal.SetMode(hardware.Pin(lines.Line1), hardware.ModeOutput)
		hal.SetMode(hardware.Pin(lines.Line2), hardware.ModeOutput)
	}

	return
}

// SetSide drives the side's lines to a complementary pair, line1 high for forward.
// Nothing is written for a side the drive does not have.
func (d *DifferentialDrive) SetSide(side MotorSide, forward bool) error {
	if int(side) >= len(d.sides) {
		return errors.UnknownSideError{Side: int(side)}
	}
	d.setSide(side, forward)
	return nil
}

func (d *DifferentialDrive) setSide(side MotorSide, forward bool) {
	lines := d.sides[side]
	if lines.Inverted {
		forward = !forward
	}

	if forward {
		d.hal.Write(lines.Line1, hardware.High)
		d.hal.Write(lines.Line2, hardware.Low)
	} else {
		d.hal.Write(lines.Line1, hardware.Low)
		d.hal.Write(lines.Line2, hardware.High)
	}
}

func (d *DifferentialDrive) Forward() {
	d.setSide(SideLeft, true)
	d.setSide(SideRight, true)
}

func (d *DifferentialDrive) Backward() {
	d.setSide(SideLeft, false)
	d.setSide(SideRight, false)
}

// TurnLeft pivots by reversing the left side only.
func (d *DifferentialDrive) TurnLeft() {
	d.setSide(SideLeft, false)
	d.setSide(SideRight, true)
}

func (d *DifferentialDrive) TurnRight() {
	d.setSide(SideLeft, true)
	d.setSide(SideRight, false)
}

// Stop de-energises both motors. All four lines go low, which is not a state setSide can produce.
func (d *DifferentialDrive) Stop() {
	for _, lines := range d.sides {
		d.hal.Write(lines.Line1, hardware.Low)
		d.hal.Write(lines.Line2, hardware.Low)
	}
}

func (d *DifferentialDrive) Execute(cmd DriveCommand) error {
	switch cmd {
	case DriveStop:
		d.Stop()
	case DriveForward:
		d.Forward()
	case DriveBackward:
		d.Backward()
	case DriveLeft:
		d.TurnLeft()
	case DriveRight:
		d.TurnRight()
	default:
		return errors.UnknownCommandError{Name: cmd.String()}
	}
	return nil
}
