package onboard

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/CodedInternet/firebot/onboard/hardware"
	"github.com/go-gl/mathgl/mgl64"
	. "math"
)

const (
	SIM_INTERVAL     = time.Second / 20
	SIM_FIRE_X       = 0.8
	SIM_FIRE_Y       = 0.3
	SIM_WHEELBASE    = 0.15
	SIM_WHEEL_SPEED  = 0.2
	SIM_SENSOR_ANGLE = Pi / 4 // left and right sensors are angled out from the center axis
	SIM_FLAME_RANGE  = 0.5    // distance at which an on-axis flame saturates a sensor
	SIM_SEED         = 1
)

// SimulatedBoard stands in for the robot and its surroundings. Motor line levels
// move the simulated base, and sensor samples are derived from where the fire is
// relative to each sensor axis.
type SimulatedBoard struct {
	lock       sync.Mutex
	levels     map[hardware.Line]hardware.Level
	modes      map[hardware.Pin]hardware.Mode
	motors     [2]MotorLines
	sensors    map[hardware.Channel]float64 // channel to axis angle
	kinematics Kinematics
	pose       Pose
	fire       mgl64.Vec2
	noise      int
	rand       *rand.Rand
}

func NewSimulatedBoard(config *BotConfig) (b *SimulatedBoard) {
	b = &SimulatedBoard{
		levels:  make(map[hardware.Line]hardware.Level),
		modes:   make(map[hardware.Pin]hardware.Mode),
		motors:  [2]MotorLines{config.Motors.Left, config.Motors.Right},
		sensors: make(map[hardware.Channel]float64),
		kinematics: Kinematics{
			WheelBase:  config.Simulation.WheelBase,
			WheelSpeed: config.Simulation.WheelSpeed,
		},
		noise: config.Simulation.Noise,
		rand:  rand.New(rand.NewSource(SIM_SEED)),
	}

	if len(config.Simulation.Fire) >= 2 {
		b.fire = mgl64.Vec2{config.Simulation.Fire[0], config.Simulation.Fire[1]}
	}

	axes := map[*hardware.Channel]float64{
		config.Sensors.Left:   SIM_SENSOR_ANGLE,
		config.Sensors.Center: 0,
		config.Sensors.Right:  -SIM_SENSOR_ANGLE,
	}
	for ch, angle := range axes {
		if ch != nil {
			b.sensors[*ch] = angle
		}
	}

	return
}

func (b *SimulatedBoard) Sample(ch hardware.Channel) int {
	b.lock.Lock()
	defer b.lock.Unlock()

	axis, ok := b.sensors[ch]
	if !ok {
		return hardware.ANALOG_FULL_SCALE
	}

	bearing, distance := BearingTo(b.pose, b.fire)

	strength := Max(0, Cos(bearing-axis))
	if distance > SIM_FLAME_RANGE {
		strength *= SIM_FLAME_RANGE / distance
	}

	val := hardware.ANALOG_FULL_SCALE - int(Round(strength*hardware.ANALOG_FULL_SCALE))
	if b.noise > 0 {
		val += b.rand.Intn(b.noise*2+1) - b.noise
	}

	if val < 0 {
		return 0
	}
	if val > hardware.ANALOG_FULL_SCALE {
		return hardware.ANALOG_FULL_SCALE
	}
	return val
}

func (b *SimulatedBoard) Write(line hardware.Line, level hardware.Level) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.levels[line] = level
}

func (b *SimulatedBoard) SetMode(pin hardware.Pin, mode hardware.Mode) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.modes[pin] = mode
}

// Advance moves the simulated base according to the current motor line levels.
func (b *SimulatedBoard) Advance(dt time.Duration) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.pose = b.kinematics.Integrate(b.pose, b.wheel(SideLeft), b.wheel(SideRight), dt)
}

func (b *SimulatedBoard) Pose() Pose {
	b.lock.Lock()
	defer b.lock.Unlock()

	return b.pose
}

func (b *SimulatedBoard) SetFire(x, y float64) {
	b.lock.Lock()
	defer b.lock.Unlock()

	b.fire = mgl64.Vec2{x, y}
}

// FireDistance is how far the base currently is from the fire.
func (b *SimulatedBoard) FireDistance() float64 {
	b.lock.Lock()
	defer b.lock.Unlock()

	_, distance := BearingTo(b.pose, b.fire)
	return distance
}

// Run advances the simulation in real time until the context is done.
func (b *SimulatedBoard) Run(ctx context.Context) {
	ticker := time.NewTicker(SIM_INTERVAL)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			b.Advance(SIM_INTERVAL)
		}
	}
}

// wheel decodes the H-bridge pair for a side into a drive fraction.
func (b *SimulatedBoard) wheel(side MotorSide) float64 {
	lines := b.motors[side]
	l1, l2 := b.levels[lines.Line1], b.levels[lines.Line2]

	var dir float64
	switch {
	case l1 == hardware.High && l2 == hardware.Low:
		dir = 1
	case l1 == hardware.Low && l2 == hardware.High:
		dir = -1
	default:
		return 0
	}

	if lines.Inverted {
		dir = -dir
	}
	return dir
}
