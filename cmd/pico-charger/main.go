//go:build rp2040 || rp2350

// Command pico-charger: BQ24259 bring-up on RP2040/Pico.
//
// Build/flash (TinyGo):
//
//	tinygo flash -target pico ./cmd/pico-charger
//
// Wiring assumptions: I2C0 @ 400 kHz on Pico defaults (SDA=GP4, SCL=GP5),
// BQ24259 at 0x6B.

package main

import (
	"context"
	"machine"
	"time"

	"bq24259-go/bus"
	"bq24259-go/services/charger"
	"bq24259-go/types"
)

func main() {
	// Allow USB CDC to enumerate before we print.
	time.Sleep(2 * time.Second)
	println("boot")

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		Frequency: 400 * machine.KHz,
		SDA:       machine.I2C0_SDA_PIN,
		SCL:       machine.I2C0_SCL_PIN,
	}); err != nil {
		println("i2c0 configure failed:", err.Error())
	}

	b := bus.NewBus(4)
	s, err := charger.New(b.NewConnection("charger0"), i2c, charger.Params{
		Name:             "charger0",
		Bus:              "i2c0",
		SampleEveryMS:    2000,
		WatchdogKickMS:   20_000,
		CheckVendor:      true,
		ChargeCurrent_mA: 1024,
	})
	if err != nil {
		println("charger params:", err.Error())
		return
	}
	sub := b.NewConnection("console").Subscribe(bus.T("charger", "+", "#"))
	if err := s.Start(context.Background()); err != nil {
		println("charger start:", err.Error())
		return
	}
	for m := range sub.Channel() {
		show(m)
	}
}

func show(m *bus.Message) {
	name, _ := m.Topic.At(1).(string)
	switch p := m.Payload.(type) {
	case types.ChargerError:
		println(name, p.Op, "failed:", p.Error)
	case types.ChargerInfo:
		println(name, "vendor_checked", p.VendorChecked, "vendor_ok", p.VendorOK)
	case types.CapabilityStatus:
		println(name, "link", string(p.Link), p.Error)
	case types.ChargerValue:
		println(name, p.Vbus, p.State, "pg", p.PowerGood, "ichg_mA", p.ICharge)
	case types.ChargerFault:
		println(name, "FAULT charge", p.Charge, "wdt", p.WatchdogExpired, "bat", p.Battery)
	}
}
