package bq24259

// Typed views over single register values. Each view is decoded from a freshly
// read byte and re-encoded for write-back. Reserved bits are carried in an
// unexported field so Encode(Decode(b)) == b for every b.

// PowerOnConfig is REG01.
type PowerOnConfig struct {
	BoostLim      BoostLim
	SysMin        uint8 // 3 bits
	EnCharge      bool
	EnOTG         bool
	WatchdogReset bool
	RegisterReset bool
}

// DecodePowerOnConfig splits a raw REG01 value into fields. Every byte decodes.
func DecodePowerOnConfig(b byte) PowerOnConfig {
	return PowerOnConfig{
		BoostLim:      BoostLim(field(b, pocBoostLimShift, boostLimEnumWidth)),
		SysMin:        field(b, pocSysMinShift, pocSysMinWidth),
		EnCharge:      hasBit(b, pocEnCharge),
		EnOTG:         hasBit(b, pocEnOTG),
		WatchdogReset: hasBit(b, pocWatchdogReset),
		RegisterReset: hasBit(b, pocRegisterReset),
	}
}

// Encode packs the fields back into a register value.
func (c PowerOnConfig) Encode() byte {
	return putField(byte(c.BoostLim), pocBoostLimShift, boostLimEnumWidth) |
		putField(c.SysMin, pocSysMinShift, pocSysMinWidth) |
		putBit(c.EnCharge, pocEnCharge) |
		putBit(c.EnOTG, pocEnOTG) |
		putBit(c.WatchdogReset, pocWatchdogReset) |
		putBit(c.RegisterReset, pocRegisterReset)
}

// ChargeCurrentControl is REG02.
type ChargeCurrentControl struct {
	Force20Pct bool
	BCold      bool
	Ichg       uint8 // 5 bits; see IchgToMilliamps

	reserved byte
}

// DecodeChargeCurrentControl splits a raw REG02 value into fields. Every byte decodes.
func DecodeChargeCurrentControl(b byte) ChargeCurrentControl {
	return ChargeCurrentControl{
		Force20Pct: hasBit(b, cccForce20Pct),
		BCold:      hasBit(b, cccBCold),
		Ichg:       field(b, cccIchgShift, cccIchgWidth),
		reserved:   b & cccReservedMsk,
	}
}

func (c ChargeCurrentControl) Encode() byte {
	return putBit(c.Force20Pct, cccForce20Pct) |
		putBit(c.BCold, cccBCold) |
		putField(c.Ichg, cccIchgShift, cccIchgWidth) |
		c.reserved&cccReservedMsk
}

// TermTimerControl is REG05.
type TermTimerControl struct {
	ChargeTimer ChgTimer
	EnTimer     bool
	Watchdog    Watchdog
	EnTerm      bool

	reserved byte
}

// DecodeTermTimerControl splits a raw REG05 value into fields. Every byte decodes.
func DecodeTermTimerControl(b byte) TermTimerControl {
	return TermTimerControl{
		ChargeTimer: ChgTimer(field(b, ttcChgTimerShift, enumWidth)),
		EnTimer:     hasBit(b, ttcEnTimer),
		Watchdog:    Watchdog(field(b, ttcWatchdogShift, enumWidth)),
		EnTerm:      hasBit(b, ttcEnTerm),
		reserved:    b & ttcReservedMsk,
	}
}

func (c TermTimerControl) Encode() byte {
	return putField(byte(c.ChargeTimer), ttcChgTimerShift, enumWidth) |
		putBit(c.EnTimer, ttcEnTimer) |
		putField(byte(c.Watchdog), ttcWatchdogShift, enumWidth) |
		putBit(c.EnTerm, ttcEnTerm) |
		c.reserved&ttcReservedMsk
}

// SystemStatus is REG08 (read-only).
type SystemStatus struct {
	Vsys  bool // in VSYSMIN regulation (BAT < VSYSMIN)
	Therm bool // in thermal regulation
	PG    bool // power good
	DPM   bool // VINDPM or IINDPM active
	Chrg  Chrg
	Vbus  Vbus
}

// DecodeSystemStatus splits a raw REG08 value into fields. Every byte decodes.
func DecodeSystemStatus(b byte) SystemStatus {
	return SystemStatus{
		Vsys:  hasBit(b, ssVsys),
		Therm: hasBit(b, ssTherm),
		PG:    hasBit(b, ssPG),
		DPM:   hasBit(b, ssDPM),
		Chrg:  Chrg(field(b, ssChrgShift, enumWidth)),
		Vbus:  Vbus(field(b, ssVbusShift, enumWidth)),
	}
}

func (s SystemStatus) Encode() byte {
	return putBit(s.Vsys, ssVsys) |
		putBit(s.Therm, ssTherm) |
		putBit(s.PG, ssPG) |
		putBit(s.DPM, ssDPM) |
		putField(byte(s.Chrg), ssChrgShift, enumWidth) |
		putField(byte(s.Vbus), ssVbusShift, enumWidth)
}

// Charging reports pre-charge or fast-charge in progress.
func (s SystemStatus) Charging() bool {
	return s.Chrg == ChrgPreCharge || s.Chrg == ChrgFastCharging
}

// Fault is REG09 (read-only).
type Fault struct {
	NTCHot          bool
	NTCCold         bool
	BatFault        bool // BATOVP
	ChrgFault       ChrgFault
	OTGFault        bool
	WatchdogExpired bool

	reserved byte
}

// DecodeFault splits a raw REG09 value into fields. Every byte decodes.
func DecodeFault(b byte) Fault {
	return Fault{
		NTCHot:          hasBit(b, nfNTCHot),
		NTCCold:         hasBit(b, nfNTCCold),
		BatFault:        hasBit(b, nfBatFault),
		ChrgFault:       ChrgFault(field(b, nfChrgFaultShift, enumWidth)),
		OTGFault:        hasBit(b, nfOTGFault),
		WatchdogExpired: hasBit(b, nfWatchdogExpired),
		reserved:        b & nfReservedMsk,
	}
}

func (f Fault) Encode() byte {
	return putBit(f.NTCHot, nfNTCHot) |
		putBit(f.NTCCold, nfNTCCold) |
		f.reserved&nfReservedMsk |
		putBit(f.BatFault, nfBatFault) |
		putField(byte(f.ChrgFault), nfChrgFaultShift, enumWidth) |
		putBit(f.OTGFault, nfOTGFault) |
		putBit(f.WatchdogExpired, nfWatchdogExpired)
}

// Any reports whether any fault is latched.
func (f Fault) Any() bool {
	return f.NTCHot || f.NTCCold || f.BatFault || f.OTGFault || f.WatchdogExpired ||
		f.ChrgFault != ChrgFaultNormal
}
