package errors

import "fmt"

type UnknownCommandError struct {
	Name string
}

func (err UnknownCommandError) Error() string {
	return fmt.Sprintf("no such drive command %q", err.Name)
}

type UnknownSideError struct {
	Side int
}

func (err UnknownSideError) Error() string {
	return fmt.Sprintf("no motor side %d", err.Side)
}

type UnknownDirectionError struct {
	Name string
}

func (err UnknownDirectionError) Error() string {
	return fmt.Sprintf("no such hazard direction %q", err.Name)
}

// UnconfiguredChannelError is returned when a reading is requested for a direction that has no sensor wired.
type UnconfiguredChannelError struct {
	Direction string
}

func (err UnconfiguredChannelError) Error() string {
	if len(err.Direction) == 0 {
		err.Direction = "UNKNOWN"
	}

	return fmt.Sprintf("no sensor channel configured for direction %s", err.Direction)
}

type ConfigVersionError struct {
	Version    string
	Constraint string
}

func (err ConfigVersionError) Error() string {
	return fmt.Sprintf("unable to use config: received version %s - require %s", err.Version, err.Constraint)
}

// DuplicateLineError is returned when two motor lines share an output pin.
type DuplicateLineError struct {
	Line int
}

func (err DuplicateLineError) Error() string {
	return fmt.Sprintf("motor line %d is assigned more than once", err.Line)
}
