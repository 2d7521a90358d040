package bq24259

// I2C single-byte register operations.

// Read returns the current value of register reg. One combined write/read
// transaction; bus errors are returned unchanged.
func (d *Device) Read(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.i2c.Tx(d.addr, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

// Update reads register reg, applies fn and writes the whole byte back.
// Not atomic: a change made by another bus master between the read and the
// write is lost.
func (d *Device) Update(reg byte, fn func(byte) byte) error {
	v, err := d.Read(reg)
	if err != nil {
		return err
	}
	d.w[0] = reg
	d.w[1] = fn(v)
	return d.i2c.Tx(d.addr, d.w[:2], nil)
}
