package charger

import (
	"bq24259-go/drivers/bq24259"
	"bq24259-go/errcode"
	"bq24259-go/x/mathx"
)

// Params defines wiring and behaviour for one charger instance.
type Params struct {
	Name string `json:"name"`          // required
	Bus  string `json:"bus,omitempty"` // informational, e.g. "i2c0"
	Addr uint16 `json:"addr,omitempty"`

	SampleEveryMS  int  `json:"sample_every_ms,omitempty"`  // default 1000
	WatchdogKickMS int  `json:"watchdog_kick_ms,omitempty"` // 0 => no keep-alive
	DisableWDT     bool `json:"disable_watchdog,omitempty"`
	CheckVendor    bool `json:"check_vendor,omitempty"`

	// Applied once at start; 0 => leave hardware value.
	ChargeCurrent_mA uint16 `json:"charge_current_mA,omitempty"`
}

const (
	defaultSampleEveryMS = 1000
	// Shortest hardware watchdog period is 40 s.
	maxWatchdogKickMS = 40_000
)

// withDefaults returns p with zero fields replaced.
func (p Params) withDefaults() Params {
	if p.Addr == 0 {
		p.Addr = bq24259.AddressDefault
	}
	if p.SampleEveryMS == 0 {
		p.SampleEveryMS = defaultSampleEveryMS
	}
	return p
}

// Validate checks p after defaulting.
func (p Params) Validate() error {
	p = p.withDefaults()
	if p.Name == "" {
		return errcode.InvalidParams
	}
	if !mathx.Between(p.Addr, 0x08, 0x77) {
		return errcode.InvalidParams
	}
	if p.SampleEveryMS < 0 {
		return errcode.InvalidParams
	}
	if p.WatchdogKickMS != 0 && !mathx.Between(p.WatchdogKickMS, 1, maxWatchdogKickMS-1) {
		return errcode.InvalidParams
	}
	return nil
}
