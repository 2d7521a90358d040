// Package bq24259 provides a minimal TinyGo driver for the TI BQ24259
// single-cell switch-mode battery charger.
//
// Design notes (datasheet references):
// • I2C, 7-bit address 0x6B, 8-bit registers 0x00..0x0A.
// • Every write is read-modify-write of a whole register; reserved bits are
//   written back exactly as read.
// • No register state is cached between calls.
// • A Device must be owned by a single goroutine.
package bq24259

import "tinygo.org/x/drivers"

// Config holds the driver configuration.
type Config struct {
	Address uint16 // 0 => AddressDefault
}

// DefaultConfig returns a Config addressing the part at AddressDefault.
func DefaultConfig() Config {
	return Config{Address: AddressDefault}
}

// Device represents a BQ24259 instance on an I²C bus.
type Device struct {
	i2c  drivers.I2C
	addr uint16

	// Fixed buffers to avoid per-call heap allocations.
	w [2]byte
	r [1]byte
}

// New constructs a Device. It does not touch the bus.
func New(i2c drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	return &Device{i2c: i2c, addr: addr}
}

// Address returns the 7-bit bus address in use.
func (d *Device) Address() uint16 { return d.addr }

// ---------------- Watchdog ----------------

// DisableWatchdog clears EN_TIMER in REG05.
func (d *Device) DisableWatchdog() error {
	return d.UpdateTermTimerControl(func(c *TermTimerControl) { c.EnTimer = false })
}

// ResetWatchdog sets WATCHDOG_RESET in REG01. The bit clears itself in
// hardware; it is not read back.
func (d *Device) ResetWatchdog() error {
	return d.UpdatePowerOnConfig(func(c *PowerOnConfig) { c.WatchdogReset = true })
}

// SetWatchdogTimer selects the I2C watchdog period.
func (d *Device) SetWatchdogTimer(w Watchdog) error {
	return d.UpdateTermTimerControl(func(c *TermTimerControl) { c.Watchdog = w })
}

// SetChargeTimer selects the fast-charge safety timer and its enable.
func (d *Device) SetChargeTimer(t ChgTimer, enabled bool) error {
	return d.UpdateTermTimerControl(func(c *TermTimerControl) {
		c.ChargeTimer = t
		c.EnTimer = enabled
	})
}

// ---------------- Status / faults ----------------

// Status reads REG08.
func (d *Device) Status() (SystemStatus, error) {
	v, err := d.Read(RegSystemStatus)
	if err != nil {
		return SystemStatus{}, err
	}
	return DecodeSystemStatus(v), nil
}

// NewFault reads REG09. The part latches faults until this register is read,
// so a read also acknowledges them.
func (d *Device) NewFault() (Fault, error) {
	v, err := d.Read(RegNewFault)
	if err != nil {
		return Fault{}, err
	}
	return DecodeFault(v), nil
}

// ---------------- Charge current ----------------

// ChargeCurrentLimit returns ICHG in mA.
func (d *Device) ChargeCurrentLimit() (uint16, error) {
	c, err := d.ReadChargeCurrentControl()
	if err != nil {
		return 0, err
	}
	return IchgToMilliamps(c.Ichg), nil
}

// SetChargeCurrentLimit sets ICHG, clamped to [512..2048] mA. Other REG02
// fields are preserved.
func (d *Device) SetChargeCurrentLimit(mA uint16) error {
	ichg := MilliampsToIchg(mA)
	return d.UpdateChargeCurrentControl(func(c *ChargeCurrentControl) { c.Ichg = ichg })
}

// EnableCharging sets or clears CHG_CONFIG in REG01.
func (d *Device) EnableCharging(on bool) error {
	return d.UpdatePowerOnConfig(func(c *PowerOnConfig) { c.EnCharge = on })
}

// ---------------- Typed register access ----------------

// ReadPowerOnConfig reads and decodes REG01.
func (d *Device) ReadPowerOnConfig() (PowerOnConfig, error) {
	v, err := d.Read(RegPowerOnConfig)
	return DecodePowerOnConfig(v), err
}

// ReadChargeCurrentControl reads and decodes REG02.
func (d *Device) ReadChargeCurrentControl() (ChargeCurrentControl, error) {
	v, err := d.Read(RegChargeCurrentCtrl)
	return DecodeChargeCurrentControl(v), err
}

// ReadTermTimerControl reads and decodes REG05.
func (d *Device) ReadTermTimerControl() (TermTimerControl, error) {
	v, err := d.Read(RegTermTimerControl)
	return DecodeTermTimerControl(v), err
}

// UpdatePowerOnConfig applies fn to REG01 in one read-modify-write.
func (d *Device) UpdatePowerOnConfig(fn func(*PowerOnConfig)) error {
	return d.Update(RegPowerOnConfig, func(v byte) byte {
		c := DecodePowerOnConfig(v)
		fn(&c)
		return c.Encode()
	})
}

// UpdateChargeCurrentControl applies fn to REG02 in one read-modify-write.
func (d *Device) UpdateChargeCurrentControl(fn func(*ChargeCurrentControl)) error {
	return d.Update(RegChargeCurrentCtrl, func(v byte) byte {
		c := DecodeChargeCurrentControl(v)
		fn(&c)
		return c.Encode()
	})
}

// UpdateTermTimerControl applies fn to REG05 in one read-modify-write.
func (d *Device) UpdateTermTimerControl(fn func(*TermTimerControl)) error {
	return d.Update(RegTermTimerControl, func(v byte) byte {
		c := DecodeTermTimerControl(v)
		fn(&c)
		return c.Encode()
	})
}
