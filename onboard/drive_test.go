package onboard

import (
	"testing"

	"github.com/CodedInternet/firebot/onboard/errors"
	"github.com/CodedInternet/firebot/onboard/hardware"
	. "github.com/smartystreets/goconvey/convey"
)

var (
	testLeftLines  = MotorLines{Line1: 5, Line2: 6}
	testRightLines = MotorLines{Line1: 9, Line2: 10}
)

func sideLevels(hal *testHAL, lines MotorLines) [2]hardware.Level {
	return [2]hardware.Level{hal.levels[lines.Line1], hal.levels[lines.Line2]}
}

var (
	forwardPair = [2]hardware.Level{hardware.High, hardware.Low}
	reversePair = [2]hardware.Level{hardware.Low, hardware.High}
	stoppedPair = [2]hardware.Level{hardware.Low, hardware.Low}
)

func TestDifferentialDrive(t *testing.T) {
	Convey("configuring the drive", t, func() {
		hal := newTestHAL()
		NewDifferentialDrive(hal, testLeftLines, testRightLines)

		Convey("sets all four lines to output", func() {
			So(hal.modes, ShouldHaveLength, 4)
			for _, pin := range []hardware.Pin{5, 6, 9, 10} {
				So(hal.modes[pin], ShouldEqual, hardware.ModeOutput)
			}
		})

		Convey("does not write any level", func() {
			So(hal.writes, ShouldBeEmpty)
		})
	})

	Convey("motion commands", t, func() {
		hal := newTestHAL()
		drive := NewDifferentialDrive(hal, testLeftLines, testRightLines)

		Convey("set side writes a complementary pair", func() {
			So(drive.SetSide(SideLeft, true), ShouldBeNil)
			So(sideLevels(hal, testLeftLines), ShouldResemble, forwardPair)
			So(hal.writes, ShouldResemble, []hardware.Line{5, 6})

			So(drive.SetSide(SideRight, false), ShouldBeNil)
			So(sideLevels(hal, testRightLines), ShouldResemble, reversePair)
		})

		Convey("set side refuses a side it does not have", func() {
			err := drive.SetSide(MotorSide(2), true)
			So(err, ShouldResemble, errors.UnknownSideError{Side: 2})
			So(MotorSide(2).String(), ShouldEqual, "unknown")
			So(hal.writes, ShouldBeEmpty)
		})

		Convey("forward drives both sides forward", func() {
			drive.Forward()
			So(sideLevels(hal, testLeftLines), ShouldResemble, forwardPair)
			So(sideLevels(hal, testRightLines), ShouldResemble, forwardPair)
		})

		Convey("backward reverses both sides", func() {
			drive.Backward()
			So(sideLevels(hal, testLeftLines), ShouldResemble, reversePair)
			So(sideLevels(hal, testRightLines), ShouldResemble, reversePair)
		})

		Convey("turn left reverses the left side only", func() {
			drive.TurnLeft()
			So(sideLevels(hal, testLeftLines), ShouldResemble, reversePair)
			So(sideLevels(hal, testRightLines), ShouldResemble, forwardPair)
		})

		Convey("turn right reverses the right side only", func() {
			drive.TurnRight()
			So(sideLevels(hal, testLeftLines), ShouldResemble, forwardPair)
			So(sideLevels(hal, testRightLines), ShouldResemble, reversePair)
		})

		Convey("turn left then turn right carries no memory", func() {
			drive.TurnLeft()
			drive.TurnRight()
			So(sideLevels(hal, testLeftLines), ShouldResemble, forwardPair)
			So(sideLevels(hal, testRightLines), ShouldResemble, reversePair)

			drive.TurnLeft()
			So(sideLevels(hal, testLeftLines), ShouldResemble, reversePair)
			So(sideLevels(hal, testRightLines), ShouldResemble, forwardPair)
		})

		Convey("stop drives all four lines low", func() {
			Convey("after forward", func() {
				drive.Forward()
				drive.Stop()
				So(sideLevels(hal, testLeftLines), ShouldResemble, stoppedPair)
				So(sideLevels(hal, testRightLines), ShouldResemble, stoppedPair)
			})

			Convey("after backward", func() {
				drive.Backward()
				drive.Stop()
				So(sideLevels(hal, testLeftLines), ShouldResemble, stoppedPair)
				So(sideLevels(hal, testRightLines), ShouldResemble, stoppedPair)
			})

			Convey("writing every line even from a fresh start", func() {
				drive.Stop()
				So(hal.writes, ShouldResemble, []hardware.Line{5, 6, 9, 10})
			})
		})
	})

	Convey("an inverted side swaps its pair", t, func() {
		hal := newTestHAL()
		right := testRightLines
		right.Inverted = true
		drive := NewDifferentialDrive(hal, testLeftLines, right)

		drive.Forward()
		So(sideLevels(hal, testLeftLines), ShouldResemble, forwardPair)
		So(sideLevels(hal, right), ShouldResemble, reversePair)

		drive.Stop()
		So(sideLevels(hal, right), ShouldResemble, stoppedPair)
	})

	Convey("named commands", t, func() {
		hal := newTestHAL()
		drive := NewDifferentialDrive(hal, testLeftLines, testRightLines)

		Convey("every name parses and executes", func() {
			expected := map[string][2][2]hardware.Level{
				"forward":  {forwardPair, forwardPair},
				"backward": {reversePair, reversePair},
				"left":     {reversePair, forwardPair},
				"right":    {forwardPair, reversePair},
				"stop":     {stoppedPair, stoppedPair},
			}

			for name, levels := range expected {
				cmd, err := ParseDriveCommand(name)
				So(err, ShouldBeNil)
				So(cmd.String(), ShouldEqual, name)

				So(drive.Execute(cmd), ShouldBeNil)
				So(sideLevels(hal, testLeftLines), ShouldResemble, levels[0])
				So(sideLevels(hal, testRightLines), ShouldResemble, levels[1])
			}
		})

		Convey("unknown names are rejected", func() {
			_, err := ParseDriveCommand("jump")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "jump")
		})

		Convey("unknown values are rejected without writing", func() {
			err := drive.Execute(DriveCommand(42))
			So(err, ShouldNotBeNil)
			So(hal.writes, ShouldBeEmpty)
		})
	})
}
