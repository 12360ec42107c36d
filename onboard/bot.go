package onboard

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/CodedInternet/firebot/onboard/errors"
	"github.com/CodedInternet/firebot/onboard/hardware"
	"github.com/google/uuid"
)

// Policy maps each hazard direction to the drive command issued for it.
type Policy map[HazardDirection]DriveCommand

// DefaultPolicy turns towards a lateral fire, drives at a fire ahead and holds still otherwise.
func DefaultPolicy() Policy {
	return Policy{
		HazardNone:   DriveStop,
		HazardLeft:   DriveLeft,
		HazardCenter: DriveForward,
		HazardRight:  DriveRight,
	}
}

type Observation struct {
	RunID      string       `json:"run"`
	At         time.Time    `json:"at"`
	Scan       Scan         `json:"scan"`
	Command    DriveCommand `json:"command"`
	Autonomous bool         `json:"autonomous"` // false when Command was only suggested
}

// Bot is the control loop tying the sensor triage to the drive. Every access to
// either goes through the bot so the hardware only ever sees one caller.
type Bot struct {
	Debug bool

	triage     *SensorTriage
	drive      *DifferentialDrive
	policy     Policy
	interval   time.Duration
	lock       *sync.Mutex
	autonomous bool
	runID      string
	last       *Observation
	observers  []func(Observation)
}

func NewBot(hal hardware.HAL, config *BotConfig) (b *Bot) {
	b = &Bot{
		triage:     NewSensorTriage(hal, config.TriageConfig()),
		drive:      NewDifferentialDrive(hal, config.Motors.Left, config.Motors.Right),
		policy:     config.Control.Policy,
		interval:   config.Control.Interval,
		lock:       new(sync.Mutex),
		autonomous: config.Control.Autonomous,
	}

	if b.policy == nil {
		b.policy = DefaultPolicy()
	}
	if b.interval <= 0 {
		b.interval = CONTROL_INTERVAL
	}

	// start from a known, de-energised state
	b.drive.Stop()

	return
}

// Subscribe registers fn to receive every observation. fn is called from the control loop and must not block.
func (b *Bot) Subscribe(fn func(Observation)) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.observers = append(b.observers, fn)
}

func (b *Bot) Step() (obs Observation) {
	b.lock.Lock()

	scan := b.triage.Scan()
	cmd, ok := b.policy[scan.Direction]
	if !ok {
		cmd = DriveStop
	}

	if b.autonomous {
		if err := b.drive.Execute(cmd); err != nil {
			log.Printf("unable to execute %s: %v", cmd, err)
		}
	}

	if b.last == nil || b.last.Scan.Direction != scan.Direction {
		log.Printf("hazard direction %s, policy command %s", scan.Direction, cmd)
	} else if b.Debug {
		log.Printf("step: %s -> %s", scan.Direction, cmd)
	}

	obs = Observation{
		RunID:      b.runID,
		At:         time.Now(),
		Scan:       scan,
		Command:    cmd,
		Autonomous: b.autonomous,
	}
	b.last = &obs

	observers := make([]func(Observation), len(b.observers))
	copy(observers, b.observers)
	b.lock.Unlock()

	for _, fn := range observers {
		fn(obs)
	}

	return
}

// Run steps the loop every interval until ctx is done, then stops the motors.
func (b *Bot) Run(ctx context.Context) error {
	b.lock.Lock()
	b.runID = uuid.New().String()
	log.Printf("control loop %s started, interval %s", b.runID, b.interval)
	b.lock.Unlock()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.lock.Lock()
			b.drive.Stop()
			b.lock.Unlock()
			log.Printf("control loop %s stopped", b.RunID())
			return ctx.Err()

		case <-ticker.C:
			b.Step()
		}
	}
}

// Command issues a manual drive command. While autonomous the next step may override it.
func (b *Bot) Command(cmd DriveCommand) error {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.drive.Execute(cmd)
}

// SetAutonomous enables or disables policy driven movement. Disabling stops the motors.
func (b *Bot) SetAutonomous(on bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.autonomous && !on {
		b.drive.Stop()
	}
	b.autonomous = on
}

func (b *Bot) Autonomous() bool {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.autonomous
}

func (b *Bot) RunID() string {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.runID
}

// Last returns the most recent observation, ok is false before the first step.
func (b *Bot) Last() (obs Observation, ok bool) {
	b.lock.Lock()
	defer b.lock.Unlock()

	if b.last == nil {
		return
	}
	return *b.last, true
}

// Scan polls the sensors without touching the drive.
func (b *Bot) Scan() Scan {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.triage.Scan()
}

// ReadChannel returns the averaged reading for the sensor facing d.
func (b *Bot) ReadChannel(d HazardDirection) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()

	ch := b.triage.Channel(d)
	if ch == nil {
		return 0, errors.UnconfiguredChannelError{Direction: d.String()}
	}
	return b.triage.ReadChannel(*ch), nil
}
