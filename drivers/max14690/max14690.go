// Package max14690 is a minimal TinyGo driver for the MAX14690 PMIC, covering
// what bring-up needs: probe, boot defaults and power off.
package max14690

import (
	"errors"

	"tinygo.org/x/drivers"
)

var ErrChipID = errors.New("max14690: unexpected chip id")

// MaintenanceTimer is the maintenance-charge duration after charge done.
type MaintenanceTimer uint8

const (
	MaintenanceOff MaintenanceTimer = iota
	Maintenance15Min
	Maintenance30Min
	Maintenance60Min
)

// Thermal selects thermistor monitoring.
type Thermal uint8

const (
	ThermalDisabled Thermal = iota
	ThermalEnabled          // thermistor only
	ThermalJEITA            // thermistor with JEITA charge derating
)

type Config struct {
	Address     uint16
	StayOn      bool
	Maintenance MaintenanceTimer
	Thermal     Thermal
}

// DefaultConfig mirrors the audio board boot defaults.
func DefaultConfig() Config {
	return Config{
		Address:     AddressDefault,
		StayOn:      true,
		Maintenance: Maintenance60Min,
		Thermal:     ThermalJEITA,
	}
}

type Device struct {
	i2c  drivers.I2C
	addr uint16
	cfg  Config

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [1]byte
}

func New(i2c drivers.I2C, cfg Config) *Device {
	if cfg.Address == 0 {
		cfg.Address = AddressDefault
	}
	return &Device{i2c: i2c, addr: cfg.Address, cfg: cfg}
}

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) writeReg(reg, val byte) error {
	d.w[0], d.w[1] = reg, val
	return d.i2c.Tx(d.addr, d.w[:2], nil)
}

func (d *Device) updateReg(reg, mask, val byte) error {
	cur, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, (cur&^mask)|(val&mask))
}

// Configure probes the chip id.
func (d *Device) Configure() error {
	id, err := d.readReg(regChipID)
	if err != nil {
		return err
	}
	if id != chipIDValue {
		return ErrChipID
	}
	return nil
}

// ChipRevision returns the silicon revision register.
func (d *Device) ChipRevision() (uint8, error) { return d.readReg(regChipRev) }

func (d *Device) SetStayOn(on bool) error {
	var v byte
	if on {
		v = bootCfgStayOn
	}
	return d.updateReg(regBootCfg, bootCfgStayOn, v)
}

func (d *Device) SetMaintenanceTimer(t MaintenanceTimer) error {
	return d.updateReg(regChgTmr, chgTmrMtnMask, byte(t)<<chgTmrMtnShift)
}

func (d *Device) SetThermal(t Thermal) error {
	return d.updateReg(regThrmCfg, thrmCfgMask, byte(t))
}

// SetDefaults writes stay-on, maintenance timer and thermal config in that
// order, stopping at the first failure.
func (d *Device) SetDefaults() error {
	if err := d.SetStayOn(d.cfg.StayOn); err != nil {
		return err
	}
	if err := d.SetMaintenanceTimer(d.cfg.Maintenance); err != nil {
		return err
	}
	return d.SetThermal(d.cfg.Thermal)
}

// PowerOff cuts all rails. The chip stops answering afterwards.
func (d *Device) PowerOff() error {
	return d.writeReg(regPwrOff, pwrOffCmd)
}
