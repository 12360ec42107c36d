package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/CodedInternet/firebot/onboard"
	"github.com/abiosoft/ishell"
	"github.com/asdine/storm/v3"
	"github.com/pkg/errors"
)

const SHELL_EVENTS = 10

var (
	directionNames = []string{"left", "center", "right"}
	commandNames   = []string{"stop", "forward", "backward", "left", "right"}
)

func formatReading(val *int) string {
	if val == nil {
		return "--"
	}
	return strconv.Itoa(*val)
}

func formatScan(scan onboard.Scan) string {
	return fmt.Sprintf("L:%s C:%s R:%s => %s",
		formatReading(scan.Readings[onboard.HazardLeft]),
		formatReading(scan.Readings[onboard.HazardCenter]),
		formatReading(scan.Readings[onboard.HazardRight]),
		scan.Direction)
}

func formatEvent(e onboard.HazardEvent) string {
	return fmt.Sprintf("%s %-6s L:%s C:%s R:%s -> %s",
		e.At.Format("15:04:05.000"), e.Direction,
		formatReading(e.Left), formatReading(e.Center), formatReading(e.Right),
		e.Command)
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, errors.Errorf("expected on or off, got %q", arg)
}

func completeWith(names []string) func([]string) []string {
	return func([]string) []string {
		return names
	}
}

// newShell builds the local development shell
func newShell(bot *onboard.Bot, journal *onboard.Journal, db *storm.DB) *ishell.Shell {
	shell := ishell.New()
	shell.Println("Firebot development shell")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "createsuperuser",
		Help: "createsuperuser <email> <password>",
		Func: func(c *ishell.Context) {
			// disable the '>>>' for cleaner same line input.
			c.ShowPrompt(false)
			defer c.ShowPrompt(true)

			var email string
			if len(c.Args) >= 1 {
				email = c.Args[0]
			} else {
				c.Print("Email: ")
				email = c.ReadLine()
			}

			var password string
			if len(c.Args) >= 2 {
				password = c.Args[1]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}

			if _, err := CreateSuperuser(db, email, password); err != nil {
				c.Err(err)
				return
			}
			c.Println("Superuser created")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "scan",
		Help: "scan all sensors and classify the hazard",
		Func: func(c *ishell.Context) {
			c.Println(formatScan(bot.Scan()))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "read",
		Completer: completeWith(directionNames),
		Help:      "read <direction>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("usage: read <direction>"))
				return
			}
			d, err := onboard.ParseHazardDirection(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			val, err := bot.ReadChannel(d)
			if err != nil {
				c.Err(err)
				return
			}
			c.Printf("%s: %d\n", d, val)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "drive",
		Completer: completeWith(commandNames),
		Help:      "drive <stop|forward|backward|left|right>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(errors.New("usage: drive <command>"))
				return
			}
			cmd, err := onboard.ParseDriveCommand(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			if err = bot.Command(cmd); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name:      "auto",
		Completer: completeWith([]string{"on", "off"}),
		Help:      "auto <on|off>",
		Func: func(c *ishell.Context) {
			if len(c.Args) == 0 {
				c.Printf("autonomous: %v\n", bot.Autonomous())
				return
			}
			on, err := parseOnOff(c.Args[0])
			if err != nil {
				c.Err(err)
				return
			}
			bot.SetAutonomous(on)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "events",
		Help: "events [n]",
		Func: func(c *ishell.Context) {
			limit := SHELL_EVENTS
			if len(c.Args) >= 1 {
				n, err := strconv.Atoi(c.Args[0])
				if err != nil || n <= 0 {
					c.Err(errors.Errorf("expected a positive count, got %q", c.Args[0]))
					return
				}
				limit = n
			}

			events, err := journal.Recent(limit)
			if err != nil {
				c.Err(err)
				return
			}
			for _, e := range events {
				c.Println(formatEvent(e))
			}
		},
	})

	return shell
}
