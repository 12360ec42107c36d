package hardware

import (
	"strconv"
	"sync"

	"github.com/pkg/errors"
	"gobot.io/x/gobot/platforms/firmata"
)

// Board is the subset of a gobot adaptor used by FirmataHAL. *firmata.Adaptor satisfies it.
type Board interface {
	Connect() error
	Finalize() error
	AnalogRead(pin string) (int, error)
	DigitalWrite(pin string, level byte) error
}

// FirmataHAL drives a microcontroller running the Firmata firmware over serial.
// Hardware failures never reach the callers of the HAL; they are passed to OnError instead
// and reads fall back to the last good sample for the channel.
type FirmataHAL struct {
	OnError func(err error)

	board   Board
	lock    *sync.Mutex
	samples map[Channel]int
}

func NewFirmataHAL(port string) (h *FirmataHAL, err error) {
	return ConnectBoard(firmata.NewAdaptor(port))
}

// ConnectBoard wraps an already created board and opens the connection to it.
func ConnectBoard(board Board) (h *FirmataHAL, err error) {
	if err = board.Connect(); err != nil {
		return nil, errors.Wrap(err, "unable to connect to board")
	}

	h = &FirmataHAL{
		board:   board,
		lock:    new(sync.Mutex),
		samples: make(map[Channel]int),
	}
	return
}

func (h *FirmataHAL) Sample(ch Channel) int {
	h.lock.Lock()
	defer h.lock.Unlock()

	val, err := h.board.AnalogRead(strconv.Itoa(int(ch)))
	if err != nil {
		h.report(errors.Wrapf(err, "analog read on channel %d", ch))

		last, ok := h.samples[ch]
		if !ok {
			return ANALOG_FULL_SCALE
		}
		return last
	}

	h.samples[ch] = val
	return val
}

func (h *FirmataHAL) Write(line Line, level Level) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.write(Pin(line), level)
}

// SetMode only acts on outputs. Firmata switches analog pins to input and
// enables reporting on the first read, so input modes need no traffic.
func (h *FirmataHAL) SetMode(pin Pin, mode Mode) {
	if mode != ModeOutput {
		return
	}

	h.lock.Lock()
	defer h.lock.Unlock()

	// a digital write switches the pin to output, start de-energised
	h.write(pin, Low)
}

func (h *FirmataHAL) Close() error {
	return h.board.Finalize()
}

func (h *FirmataHAL) write(pin Pin, level Level) {
	err := h.board.DigitalWrite(strconv.Itoa(int(pin)), byte(level))
	if err != nil {
		h.report(errors.Wrapf(err, "digital write %s on line %d", level, pin))
	}
}

func (h *FirmataHAL) report(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}
