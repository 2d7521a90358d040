// Command bq24259ctl runs one BQ24259 operation from a Linux host.
//
//	bq24259ctl [-bus /dev/i2c-1] [-addr 0x6b] [-sim] <command> [arg]
//
// Commands: status, fault, ichg, set-ichg <mA>, wd-disable, wd-reset,
// wd-timer <0..3>, charge <on|off>, vendor, dump, watch.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"bq24259-go/bus"
	"bq24259-go/drivers/bq24259"
	"bq24259-go/services/charger"
	"bq24259-go/x/i2csim"

	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
	"tinygo.org/x/drivers"
)

func main() {
	busName := flag.String("bus", "", "I2C bus name or number; empty selects the first bus")
	addr := flag.Uint("addr", bq24259.AddressDefault, "7-bit device address")
	sim := flag.Bool("sim", false, "use an in-memory simulated charger")
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	i2c, closeBus, err := openBus(*busName, *sim, uint16(*addr))
	if err != nil {
		fmt.Fprintln(os.Stderr, "bq24259ctl:", err)
		os.Exit(1)
	}
	defer closeBus()

	if err := run(i2c, uint16(*addr), flag.Args()); err != nil {
		fmt.Fprintln(os.Stderr, "bq24259ctl:", err)
		os.Exit(1)
	}
}

func openBus(name string, sim bool, addr uint16) (drivers.I2C, func(), error) {
	if sim {
		return simCharger(addr), func() {}, nil
	}
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("host init: %w", err)
	}
	b, err := i2creg.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("open I2C bus: %w", err)
	}
	return b, func() { _ = b.Close() }, nil
}

// simCharger returns a simulated part holding power-on register defaults.
func simCharger(addr uint16) *i2csim.Bus {
	b := i2csim.New()
	b.Set(addr, bq24259.RegInputSourceControl, 0b0011_0000)
	b.Set(addr, bq24259.RegPowerOnConfig, 0b0001_1011)
	b.Set(addr, bq24259.RegChargeCurrentCtrl, 0b0110_0000)
	b.Set(addr, bq24259.RegPreChargeTermCurr, 0b0001_0001)
	b.Set(addr, bq24259.RegChargeVoltageCtrl, 0b1011_0010)
	b.Set(addr, bq24259.RegTermTimerControl, 0b1001_1100)
	b.Set(addr, bq24259.RegBoostThermalControl, 0b0111_0011)
	b.Set(addr, bq24259.RegMiscOperation, 0b0100_1011)
	b.Set(addr, bq24259.RegSystemStatus, 0b1010_0100)
	b.Set(addr, bq24259.RegVendor, bq24259.ExpectedVendorValue)
	b.ReadOnly(addr, bq24259.RegSystemStatus, 0xFF)
	b.ReadOnly(addr, bq24259.RegNewFault, 0xFF)
	b.ReadOnly(addr, bq24259.RegVendor, 0xFF)
	b.AutoClear(addr, bq24259.RegPowerOnConfig, 0b0100_0000)
	b.ClearOnRead(addr, bq24259.RegNewFault)
	return b
}

func run(i2c drivers.I2C, addr uint16, args []string) error {
	d := bq24259.New(i2c, bq24259.Config{Address: addr})

	switch args[0] {
	case "status":
		s, err := d.Status()
		if err != nil {
			return err
		}
		fmt.Printf("vbus=%v chrg=%v pg=%v dpm=%v therm=%v vsys=%v\n",
			s.Vbus, s.Chrg, s.PG, s.DPM, s.Therm, s.Vsys)
	case "fault":
		f, err := d.NewFault()
		if err != nil {
			return err
		}
		fmt.Printf("watchdog_expired=%v otg=%v chrg=%v bat=%v ntc_cold=%v ntc_hot=%v\n",
			f.WatchdogExpired, f.OTGFault, f.ChrgFault, f.BatFault, f.NTCCold, f.NTCHot)
	case "ichg":
		mA, err := d.ChargeCurrentLimit()
		if err != nil {
			return err
		}
		fmt.Printf("%d mA\n", mA)
	case "set-ichg":
		mA, err := argUint(args, 16)
		if err != nil {
			return err
		}
		if err := d.SetChargeCurrentLimit(uint16(mA)); err != nil {
			return err
		}
		fmt.Printf("set %d mA\n", bq24259.IchgToMilliamps(bq24259.MilliampsToIchg(uint16(mA))))
	case "wd-disable":
		return d.DisableWatchdog()
	case "wd-reset":
		return d.ResetWatchdog()
	case "wd-timer":
		v, err := argUint(args, 2)
		if err != nil {
			return err
		}
		return d.SetWatchdogTimer(bq24259.Watchdog(v))
	case "charge":
		if len(args) < 2 || (args[1] != "on" && args[1] != "off") {
			return fmt.Errorf("charge: want on|off")
		}
		return d.EnableCharging(args[1] == "on")
	case "vendor":
		v, err := d.Vendor()
		if err != nil {
			return err
		}
		fmt.Printf("%#08b (expected %#08b, match=%v)\n", v, bq24259.ExpectedVendorValue, v == bq24259.ExpectedVendorValue)
	case "dump":
		for reg := byte(bq24259.RegInputSourceControl); reg <= bq24259.RegVendor; reg++ {
			v, err := d.Read(reg)
			if err != nil {
				return fmt.Errorf("reg %#02x: %w", reg, err)
			}
			fmt.Printf("%#02x: %08b\n", reg, v)
		}
	case "watch":
		return watch(i2c, addr)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
	return nil
}

func argUint(args []string, bits int) (uint64, error) {
	if len(args) < 2 {
		return 0, fmt.Errorf("%s: missing argument", args[0])
	}
	v, err := strconv.ParseUint(args[1], 0, bits)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", args[0], err)
	}
	return v, nil
}

// watch runs the charger service until interrupted, printing everything it
// publishes.
func watch(i2c drivers.I2C, addr uint16) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	b := bus.NewBus(16)
	s, err := charger.New(b.NewConnection("charger0"), i2c,
		charger.Params{Name: "charger0", Addr: addr, CheckVendor: true})
	if err != nil {
		return err
	}
	ui := b.NewConnection("watch")
	defer ui.Disconnect()
	sub := ui.Subscribe(bus.T("charger", "#"))

	if err := s.Start(ctx); err != nil {
		return err
	}
	defer s.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case m := <-sub.Channel():
			fmt.Printf("%s: %+v\n", topicString(m.Topic), m.Payload)
		}
	}
}

func topicString(t bus.Topic) string {
	out := ""
	for i, tok := range t {
		if i > 0 {
			out += "/"
		}
		out += fmt.Sprint(tok)
	}
	return out
}
