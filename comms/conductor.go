package comms

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/CodedInternet/firebot/onboard"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const (
	WRITE_WAIT  = 10 * time.Second
	SEND_BUFFER = 16
)

type Cmd struct {
	Cmd   string  `json:"cmd"`
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// Device is the part of the bot the conductor can drive.
type Device interface {
	Command(cmd onboard.DriveCommand) error
	SetAutonomous(on bool)
}

var ErrReadOnly = errors.New("this stream may watch but not drive the bot")

type client struct {
	conn     *websocket.Conn
	send     chan []byte
	canDrive bool
}

// Conductor fans observations out to stream clients and feeds their commands to the device.
type Conductor struct {
	Device  Device
	lock    *sync.Mutex
	clients map[*client]bool
}

func NewConductor(device Device) *Conductor {
	return &Conductor{
		Device:  device,
		lock:    new(sync.Mutex),
		clients: make(map[*client]bool),
	}
}

func (c *Conductor) ProcessCommand(cmd Cmd) error {
	switch cmd.Cmd {
	case "drive":
		dc, err := onboard.ParseDriveCommand(cmd.Name)
		if err != nil {
			return err
		}
		return c.Device.Command(dc)

	case "autonomous":
		c.Device.SetAutonomous(cmd.Value != 0)
		return nil

	default:
		return errors.Errorf("unable to process command %q", cmd.Cmd)
	}
}

// Broadcast queues the observation for every client. Clients that are not keeping up miss it.
func (c *Conductor) Broadcast(obs onboard.Observation) {
	msg, err := json.Marshal(NewStatePayload(obs))
	if err != nil {
		log.Println("unable to marshal state:", err)
		return
	}

	c.lock.Lock()
	defer c.lock.Unlock()

	for cl := range c.clients {
		select {
		case cl.send <- msg:
		default:
		}
	}
}

func (c *Conductor) Clients() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return len(c.clients)
}

// Serve runs a client until its connection fails. The connection is closed on return.
// Commands from a client that can not drive are answered with ErrReadOnly.
func (c *Conductor) Serve(conn *websocket.Conn, canDrive bool) {
	cl := &client{
		conn:     conn,
		send:     make(chan []byte, SEND_BUFFER),
		canDrive: canDrive,
	}

	c.lock.Lock()
	c.clients[cl] = true
	c.lock.Unlock()

	done := make(chan struct{})
	go cl.writePump(done)

	defer func() {
		c.lock.Lock()
		delete(c.clients, cl)
		c.lock.Unlock()

		close(done)
		conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Println("read:", err)
			}
			return
		}

		var cmd Cmd
		if err = json.Unmarshal(msg, &cmd); err != nil {
			cl.reply(errors.New("invalid json"))
			continue
		}

		if !cl.canDrive {
			cl.reply(ErrReadOnly)
			continue
		}

		if err = c.ProcessCommand(cmd); err != nil {
			log.Println(err)
			cl.reply(err)
		}
	}
}

func (cl *client) reply(err error) {
	msg, _ := json.Marshal(ErrorPayload{err.Error()})
	select {
	case cl.send <- msg:
	default:
	}
}

func (cl *client) writePump(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		case msg := <-cl.send:
			cl.conn.SetWriteDeadline(time.Now().Add(WRITE_WAIT))
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				log.Println("write:", err)
				return
			}
		}
	}
}
