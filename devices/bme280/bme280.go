// Package bme280 implements a driver for the Bosch BME280 environmental
// sensor on top of the generic register bus, so the same code runs over
// two-wire, SPI or a serial bridge.
package bme280

import (
	"context"
	"fmt"
	"time"

	toolkit "github.com/sparkfun/SparkFun-Toolkit"
)

// DefaultAddress is the sensor's two-wire address with SDO low.
const DefaultAddress = 0x76

const chipID = 0x60

// Registers.
const (
	regCalib    = 0x88
	regChipID   = 0xD0
	regReset    = 0xE0
	regCtrlMeas = 0xF4
	regTempData = 0xFA
)

const softResetCode = 0xB6

// ctrl_meas: temperature oversampling x1, pressure skipped, normal mode.
const ctrlMeasNormal = 0x23

var ErrWrongChip = fmt.Errorf("unexpected chip id")

type calibration struct {
	t1 uint16
	t2 int16
	t3 int16
}

// BME280 reads temperature through a generic register bus.
type BME280 struct {
	bus   toolkit.Bus
	calib calibration
}

// New returns an uninitialized driver; call Init before measuring. The
// sensor's registers are little-endian, the bus is configured accordingly.
func New(bus toolkit.Bus) *BME280 {
	bus.SetByteOrder(toolkit.LittleEndian)
	return &BME280{bus: bus}
}

// Init probes the chip id, resets the sensor, loads the temperature
// calibration words and switches to normal measurement mode.
func (s *BME280) Init(ctx context.Context) error {
	id, err := s.bus.ReadRegisterUint8(ctx, regChipID)
	if err != nil {
		return fmt.Errorf("could not read chip id: %w", err)
	}
	if id != chipID {
		return ErrWrongChip
	}
	if err := s.bus.WriteRegisterUint8(ctx, regReset, softResetCode); err != nil {
		return fmt.Errorf("could not reset sensor: %w", err)
	}
	// startup time per datasheet is 2ms
	time.Sleep(5 * time.Millisecond)

	t1, err := s.bus.ReadRegisterUint16(ctx, regCalib)
	if err != nil {
		return fmt.Errorf("could not read calibration: %w", err)
	}
	t2, err := s.bus.ReadRegisterUint16(ctx, regCalib+2)
	if err != nil {
		return fmt.Errorf("could not read calibration: %w", err)
	}
	t3, err := s.bus.ReadRegisterUint16(ctx, regCalib+4)
	if err != nil {
		return fmt.Errorf("could not read calibration: %w", err)
	}
	s.calib = calibration{t1: t1, t2: int16(t2), t3: int16(t3)}

	if err := s.bus.WriteRegisterUint8(ctx, regCtrlMeas, ctrlMeasNormal); err != nil {
		return fmt.Errorf("could not configure measurement mode: %w", err)
	}
	return nil
}

// GetTemperature returns the compensated temperature in degrees Celsius.
func (s *BME280) GetTemperature(ctx context.Context) (float32, error) {
	raw := make([]byte, 3)
	n, err := s.bus.ReadRegisterBytes(ctx, regTempData, raw)
	if err != nil {
		return 0, fmt.Errorf("could not read temperature data: %w", err)
	}
	if n != len(raw) {
		return 0, toolkit.ErrBusUnderRead
	}
	adc := int32(raw[0])<<12 | int32(raw[1])<<4 | int32(raw[2])>>4
	return compensateTemperature(adc, s.calib), nil
}

// compensateTemperature applies the datasheet's integer compensation
// formula (section 4.2.3) and converts to degrees Celsius.
func compensateTemperature(adc int32, c calibration) float32 {
	var1 := ((adc >> 3) - int32(c.t1)<<1) * int32(c.t2) >> 11
	var2 := (((adc >> 4) - int32(c.t1)) * ((adc >> 4) - int32(c.t1)) >> 12) * int32(c.t3) >> 14
	tFine := var1 + var2
	return float32((tFine*5+128)>>8) / 100
}
