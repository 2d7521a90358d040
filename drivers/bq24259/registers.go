package bq24259

// Register addresses and bit layouts.

const (
	// 7-bit I2C address (110_1011b). Fixed for this part.
	AddressDefault = 0x6B

	// Expected content of RegVendor.
	ExpectedVendorValue = 0b0010_0000

	// --- Register sub-addresses (8-bit registers) ---

	// Control
	RegInputSourceControl  = 0x00 // R/W
	RegPowerOnConfig       = 0x01 // R/W
	RegChargeCurrentCtrl   = 0x02 // R/W
	RegPreChargeTermCurr   = 0x03 // R/W
	RegChargeVoltageCtrl   = 0x04 // R/W
	RegTermTimerControl    = 0x05 // R/W
	RegBoostThermalControl = 0x06 // R/W
	RegMiscOperation       = 0x07 // R/W

	// Status
	RegSystemStatus = 0x08 // R
	RegNewFault     = 0x09 // R (latched; cleared on read)
	RegVendor       = 0x0A // R
)

// Coded field widths.
const (
	enumWidth         = 2
	boostLimEnumWidth = 1
)

// --- REG01 Power-On Configuration ---
const (
	pocBoostLimShift = 0
	pocSysMinShift   = 1
	pocSysMinWidth   = 3
	pocEnCharge      = 4
	pocEnOTG         = 5
	pocWatchdogReset = 6
	pocRegisterReset = 7
)

// --- REG02 Charge Current Control ---
const (
	cccForce20Pct  = 0
	cccBCold       = 1
	cccIchgShift   = 2
	cccIchgWidth   = 5
	cccReservedMsk = 0b1000_0000
)

// --- REG05 Charge Termination/Timer Control ---
const (
	ttcChgTimerShift = 1
	ttcEnTimer       = 3
	ttcWatchdogShift = 4
	ttcEnTerm        = 7
	ttcReservedMsk   = 0b0100_0001
)

// --- REG08 System Status ---
const (
	ssVsys      = 0
	ssTherm     = 1
	ssPG        = 2
	ssDPM       = 3
	ssChrgShift = 4
	ssVbusShift = 6
)

// --- REG09 New Fault ---
const (
	nfNTCHot          = 0
	nfNTCCold         = 1
	nfReservedMsk     = 0b0000_0100
	nfBatFault        = 3
	nfChrgFaultShift  = 4
	nfOTGFault        = 6
	nfWatchdogExpired = 7
)

// Bit helpers. Positions are LSB=0.

func hasBit(b byte, pos uint) bool { return b&(1<<pos) != 0 }

func putBit(v bool, pos uint) byte {
	if v {
		return 1 << pos
	}
	return 0
}

func field(b byte, shift, width uint) byte { return (b >> shift) & (1<<width - 1) }

func putField(v byte, shift, width uint) byte { return (v & (1<<width - 1)) << shift }
