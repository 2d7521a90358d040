package bq24259

// Closed enumerations for coded register fields. Every bit pattern of the
// field width has a named value, so decoding never fails.

// BoostLim is the OTG boost current limit (REG01 bit 0).
type BoostLim uint8

const (
	BoostLim1A0 BoostLim = 0
	BoostLim1A5 BoostLim = 1
)

var boostLimNames = [2]string{"1.0A", "1.5A"}

func (v BoostLim) String() string { return boostLimNames[v&0b1] }

// ChgTimer is the fast-charge safety timer setting (REG05 bits 2:1).
type ChgTimer uint8

const (
	ChgTimer5h  ChgTimer = 0
	ChgTimer8h  ChgTimer = 1
	ChgTimer12h ChgTimer = 2
	ChgTimer20h ChgTimer = 3
)

var chgTimerNames = [4]string{"5h", "8h", "12h", "20h"}

func (v ChgTimer) String() string { return chgTimerNames[v&0b11] }

// Watchdog is the I2C watchdog timer setting (REG05 bits 5:4).
type Watchdog uint8

const (
	WatchdogDisabled Watchdog = 0
	Watchdog40s      Watchdog = 1
	Watchdog80s      Watchdog = 2
	Watchdog160s     Watchdog = 3
)

var watchdogNames = [4]string{"disabled", "40s", "80s", "160s"}

func (v Watchdog) String() string { return watchdogNames[v&0b11] }

// Vbus is the detected input source (REG08 bits 7:6).
type Vbus uint8

const (
	VbusUnknown     Vbus = 0
	VbusUSBHost     Vbus = 1
	VbusAdapterPort Vbus = 2
	VbusOTG         Vbus = 3
)

var vbusNames = [4]string{"unknown", "usb_host", "adapter_port", "otg"}

func (v Vbus) String() string { return vbusNames[v&0b11] }

// Chrg is the charge state (REG08 bits 5:4).
type Chrg uint8

const (
	ChrgNotCharging       Chrg = 0
	ChrgPreCharge         Chrg = 1
	ChrgFastCharging      Chrg = 2
	ChrgChargeTermination Chrg = 3
)

var chrgNames = [4]string{"not_charging", "pre_charge", "fast_charging", "charge_termination"}

func (v Chrg) String() string { return chrgNames[v&0b11] }

// ChrgFault is the charge fault code (REG09 bits 5:4).
type ChrgFault uint8

const (
	ChrgFaultNormal                ChrgFault = 0
	ChrgFaultInput                 ChrgFault = 1 // OVP or bad source
	ChrgFaultThermalShutdown       ChrgFault = 2
	ChrgFaultChargeTimerExpiration ChrgFault = 3
)

var chrgFaultNames = [4]string{"normal", "input_fault", "thermal_shutdown", "charge_timer_expiration"}

func (v ChrgFault) String() string { return chrgFaultNames[v&0b11] }
