package bq24259

import "bq24259-go/x/mathx"

// Fast-charge current (REG02 ICHG): mA = 512 + 64*code.
// The part accepts codes up to 31 but only [0, 24] (512..2048 mA) are usable.
const (
	ichgOffset_mA = 512
	ichgStep_mA   = 64
	ichgMax_mA    = 2048
	ichgMaxCode   = (ichgMax_mA - ichgOffset_mA) / ichgStep_mA
)

// Limits of the settable charge current, in mA.
const (
	ChargeCurrentMin_mA = ichgOffset_mA
	ChargeCurrentMax_mA = ichgMax_mA
)

// IchgToMilliamps converts a 5-bit ICHG code to milliamps.
func IchgToMilliamps(ichg uint8) uint16 {
	return uint16(ichg&0b1_1111)*ichgStep_mA + ichgOffset_mA
}

// MilliampsToIchg converts milliamps to an ICHG code. The input is clamped to
// [512, 2048] mA and values between two codes round down.
func MilliampsToIchg(mA uint16) uint8 {
	return uint8(mathx.StepIndex(mA, ChargeCurrentMin_mA, ChargeCurrentMax_mA, ichgStep_mA))
}
