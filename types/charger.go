package types

// ------------------------
// Charger (bq24259)
// ------------------------

// Static info published once at start.
type ChargerInfo struct {
	Driver string `json:"driver"`
	Bus    string `json:"bus"`
	Addr   uint16 `json:"addr"`

	// Set when check_vendor ran and REG0A could be read.
	VendorChecked bool `json:"vendor_checked"`
	VendorOK      bool `json:"vendor_ok"`
}

// Periodic sample.
type ChargerValue struct {
	Vbus      string `json:"vbus"`  // "unknown" | "usb_host" | "adapter_port" | "otg"
	State     string `json:"state"` // "not_charging" | "pre_charge" | "fast_charging" | "charge_termination"
	PowerGood bool   `json:"pg"`
	DPM       bool   `json:"dpm"`
	ThermReg  bool   `json:"therm"`
	VsysReg   bool   `json:"vsys"`
	ICharge   uint16 `json:"icharge_mA"`
	Raw       uint8  `json:"raw"` // REG08
}

// Latched faults, published only when at least one is set.
type ChargerFault struct {
	WatchdogExpired bool   `json:"watchdog_expired"`
	OTG             bool   `json:"otg"`
	Charge          string `json:"charge"` // "normal" | "input_fault" | "thermal_shutdown" | "charge_timer_expiration"
	Battery         bool   `json:"battery"`
	NTCCold         bool   `json:"ntc_cold"`
	NTCHot          bool   `json:"ntc_hot"`
	Raw             uint8  `json:"raw"` // REG09
}

// Failed operation, published on the event/error topic.
type ChargerError struct {
	Op    string `json:"op"` // "read" | "check_vendor" | control verb
	Error string `json:"error"`
	TS    int64  `json:"ts_ns"`
}

// Controls
type SetChargeCurrent struct {
	MilliA uint16 `json:"milli_a"`
} // verb: "set_charge_current"

type ChargerEnable struct {
	On bool `json:"on"`
} // verb: "enable_charging"
