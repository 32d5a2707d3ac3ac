package main

import (
	"fmt"

	"github.com/microrover/missionctl/internal/drive"
	"github.com/microrover/missionctl/internal/serial"
	"github.com/microrover/missionctl/internal/util"
)

// serialWheels drives the wheel actuators through the sensor head link. The
// motor controller shares the UART with the sensors and accepts framed
// commands of the form "$MTR,<wheel>,<signedPct>*HH".
type serialWheels struct {
	port serial.Port
}

func newSerialWheels(port serial.Port) *serialWheels {
	return &serialWheels{port: port}
}

// SetWheelDuty sends one wheel's signed duty percentage to the motor
// controller.
func (w *serialWheels) SetWheelDuty(wheel drive.Wheel, signedPct int) error {
	if signedPct < -100 || signedPct > 100 {
		return fmt.Errorf("%w: duty %d outside [-100,100]", drive.ErrInvalidParameter, signedPct)
	}
	w.port.SendCommand(util.FormatFrame(fmt.Sprintf("MTR,%s,%d", wheel, signedPct)))
	return nil
}
