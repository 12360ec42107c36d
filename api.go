package main

import (
	"net/http"
	"strconv"

	"github.com/CodedInternet/firebot/calcs"
	"github.com/CodedInternet/firebot/onboard"
	"github.com/CodedInternet/firebot/onboard/hardware"
	"github.com/go-chi/chi"
	"github.com/go-chi/render"
)

const EVENTS_LIMIT = 50

//---
// Payloads
//---

type StatusPayload struct {
	RunID      string               `json:"run"`
	Autonomous bool                 `json:"autonomous"`
	Simulated  bool                 `json:"simulated"`
	Last       *onboard.Observation `json:"last,omitempty"`
}

func newStatusPayload(bot *onboard.Bot) *StatusPayload {
	status := &StatusPayload{
		RunID:      bot.RunID(),
		Autonomous: bot.Autonomous(),
		Simulated:  ENV.Simulated,
	}
	if last, ok := bot.Last(); ok {
		status.Last = &last
	}
	return status
}

type HazardPayload struct {
	onboard.Scan
	Bearing *float64 `json:"bearing"`
}

type SensorPayload struct {
	Direction onboard.HazardDirection `json:"direction"`
	Value     int                     `json:"value"`
}

type AutonomousPayload struct {
	Autonomous *bool `json:"autonomous"`
}

func (a *AutonomousPayload) Bind(r *http.Request) error {
	if a.Autonomous == nil {
		return errMissingAutonomous
	}
	return nil
}

//---
// Views
//---

// Status reports the control loop state and its most recent observation
func Status(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, newStatusPayload(ENV.Bot))
}

// Hazard takes a fresh scan without moving the bot
func Hazard(w http.ResponseWriter, r *http.Request) {
	payload := HazardPayload{Scan: ENV.Bot.Scan()}
	if b, ok := calcs.HazardBearing(payload.Scan, hardware.ANALOG_FULL_SCALE); ok {
		payload.Bearing = &b
	}
	render.JSON(w, r, payload)
}

func Sensor(w http.ResponseWriter, r *http.Request) {
	d, err := onboard.ParseHazardDirection(chi.URLParam(r, "direction"))
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}
	if d == onboard.HazardNone {
		render.Render(w, r, ErrInvalidRequest(errNoSensor))
		return
	}

	val, err := ENV.Bot.ReadChannel(d)
	if err != nil {
		render.Render(w, r, ErrMissing(err))
		return
	}

	render.JSON(w, r, SensorPayload{d, val})
}

// Events lists journal entries, newest first. Filter with ?direction= and cap with ?limit=
func Events(w http.ResponseWriter, r *http.Request) {
	var events []onboard.HazardEvent
	var err error

	if name := r.URL.Query().Get("direction"); name != "" {
		var d onboard.HazardDirection
		if d, err = onboard.ParseHazardDirection(name); err != nil {
			render.Render(w, r, ErrInvalidRequest(err))
			return
		}
		events, err = ENV.Journal.ByDirection(d)
	} else {
		limit := EVENTS_LIMIT
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
				render.Render(w, r, ErrInvalidRequest(errInvalidLimit))
				return
			}
		}
		events, err = ENV.Journal.Recent(limit)
	}

	if err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, events)
}

// Drive issues a manual drive command
func Drive(w http.ResponseWriter, r *http.Request) {
	cmd, err := onboard.ParseDriveCommand(chi.URLParam(r, "command"))
	if err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	if err = ENV.Bot.Command(cmd); err != nil {
		render.Render(w, r, ErrRender(err))
		return
	}
	render.JSON(w, r, newStatusPayload(ENV.Bot))
}

func SetAutonomous(w http.ResponseWriter, r *http.Request) {
	data := &AutonomousPayload{}
	if err := render.Bind(r, data); err != nil {
		render.Render(w, r, ErrInvalidRequest(err))
		return
	}

	ENV.Bot.SetAutonomous(*data.Autonomous)
	render.JSON(w, r, newStatusPayload(ENV.Bot))
}

// apiRoutes mounts the bot api. Anyone can watch, driving takes an admin token
func apiRoutes(r chi.Router) {
	r.Post("/login", Login)
	r.Get("/status", Status)
	r.Get("/hazard", Hazard)
	r.Get("/sensors/{direction}", Sensor)
	r.Get("/events", Events)

	r.Group(func(r chi.Router) {
		r.Use(ValidateJWT)
		r.Get("/refresh_token", JWTRefresh)

		r.Group(func(r chi.Router) {
			r.Use(RequireAdmin)
			r.Post("/drive/{command}", Drive)
			r.Post("/autonomous", SetAutonomous)
		})
	})
}
