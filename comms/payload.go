package comms

import (
	"github.com/CodedInternet/firebot/calcs"
	"github.com/CodedInternet/firebot/onboard"
	"github.com/CodedInternet/firebot/onboard/hardware"
)

// StatePayload is pushed to every stream client after each control step.
type StatePayload struct {
	onboard.Observation
	Bearing *float64 `json:"bearing"` // nil when no sensor sees a fire
}

func NewStatePayload(obs onboard.Observation) (p StatePayload) {
	p.Observation = obs
	if b, ok := calcs.HazardBearing(obs.Scan, hardware.ANALOG_FULL_SCALE); ok {
		p.Bearing = &b
	}
	return
}

type ErrorPayload struct {
	Error string `json:"error"`
}
