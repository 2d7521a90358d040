package bq24259

// Vendor returns the raw REG0A (vendor / part / revision) value.
func (d *Device) Vendor() (byte, error) {
	return d.Read(RegVendor)
}

// CheckVendor reports whether REG0A matches ExpectedVendorValue. The driver
// never calls this itself.
func (d *Device) CheckVendor() (bool, error) {
	v, err := d.Vendor()
	if err != nil {
		return false, err
	}
	return v == ExpectedVendorValue, nil
}
