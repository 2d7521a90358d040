package charger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bq24259-go/bus"
	"bq24259-go/drivers/bq24259"
	"bq24259-go/errcode"
	"bq24259-go/types"
	"bq24259-go/x/i2csim"
)

const addr = bq24259.AddressDefault

// newCharger returns a simulated part with power-on defaults.
func newCharger() *i2csim.Bus {
	b := i2csim.New()
	b.Set(addr, bq24259.RegPowerOnConfig, 0b0001_1011)
	b.Set(addr, bq24259.RegChargeCurrentCtrl, 0b0110_0000)
	b.Set(addr, bq24259.RegTermTimerControl, 0b1001_1100)
	b.Set(addr, bq24259.RegSystemStatus, 0b1010_0100)
	b.Set(addr, bq24259.RegVendor, bq24259.ExpectedVendorValue)
	b.AutoClear(addr, bq24259.RegPowerOnConfig, 1<<6)
	b.ClearOnRead(addr, bq24259.RegNewFault)
	return b
}

type harness struct {
	s    *Service
	ui   *bus.Connection
	sub  *bus.Subscription
	name string
}

// startService wires a service to a fresh bus and subscribes to everything it
// publishes before the worker starts.
func startService(t *testing.T, b *i2csim.Bus, p Params) *harness {
	t.Helper()
	bb := bus.NewBus(64)
	s, err := New(bb.NewConnection("charger"), b, p)
	if err != nil {
		t.Fatal(err)
	}
	h := &harness{s: s, ui: bb.NewConnection("ui"), name: p.Name}
	h.sub = h.ui.Subscribe(bus.T("charger", p.Name, "#"))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		_ = s.Close()
		cancel()
	})
	if err := s.Start(ctx); err != nil {
		t.Fatal(err)
	}
	return h
}

func sameTopic(a, b bus.Topic) bool {
	if a.Len() != b.Len() {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// waitOn returns the next message on topic t whose payload satisfies match.
func (h *harness) waitOn(t *testing.T, topic bus.Topic, match func(any) bool) *bus.Message {
	t.Helper()
	deadline := time.After(time.Second)
	for {
		select {
		case m := <-h.sub.Channel():
			if sameTopic(m.Topic, topic) && (match == nil || match(m.Payload)) {
				return m
			}
		case <-deadline:
			t.Fatalf("timeout waiting on %v", topic)
			return nil
		}
	}
}

func (h *harness) value(t *testing.T) types.ChargerValue {
	t.Helper()
	return h.waitOn(t, TopicValue(h.name), nil).Payload.(types.ChargerValue)
}

func (h *harness) control(t *testing.T, verb string, payload any) any {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	r, err := h.ui.RequestWait(ctx, h.ui.NewMessage(TopicControl(h.name, verb), payload, false))
	if err != nil {
		t.Fatalf("%s: %v", verb, err)
	}
	return r.Payload
}

func wantOK(t *testing.T, verb string, reply any) {
	t.Helper()
	if r, ok := reply.(types.OKReply); !ok || !r.OK {
		t.Fatalf("%s reply = %#v", verb, reply)
	}
}

func wantErr(t *testing.T, verb string, reply any, code errcode.Code) {
	t.Helper()
	if r, ok := reply.(types.ErrorReply); !ok || r.OK || r.Error != string(code) {
		t.Fatalf("%s reply = %#v, want %s", verb, reply, code)
	}
}

func TestNewRejectsBadInput(t *testing.T) {
	conn := bus.NewBus(4).NewConnection("x")
	if _, err := New(conn, nil, Params{Name: "chg0"}); err != errcode.InvalidParams {
		t.Fatalf("nil i2c: %v", err)
	}
	if _, err := New(nil, i2csim.New(), Params{Name: "chg0"}); err != errcode.InvalidParams {
		t.Fatalf("nil conn: %v", err)
	}
	if _, err := New(conn, i2csim.New(), Params{}); err != errcode.InvalidParams {
		t.Fatalf("no name: %v", err)
	}
}

func TestStartupConfiguration(t *testing.T) {
	b := newCharger()
	h := startService(t, b, Params{
		Name:             "chg0",
		Bus:              "i2c0",
		SampleEveryMS:    10_000,
		DisableWDT:       true,
		CheckVendor:      true,
		ChargeCurrent_mA: 1024,
	})

	m := h.waitOn(t, TopicInfo("chg0"), nil)
	info := m.Payload.(types.ChargerInfo)
	if !m.Retained || !info.VendorChecked || !info.VendorOK || info.Addr != addr || info.Bus != "i2c0" {
		t.Fatalf("info = %+v", info)
	}

	v := h.value(t)
	if v.ICharge != 1024 || v.State != "fast_charging" || !v.PowerGood {
		t.Fatalf("value = %+v", v)
	}
	st := h.waitOn(t, TopicStatus("chg0"), nil).Payload.(types.CapabilityStatus)
	if st.Link != types.LinkUp || st.Error != "" {
		t.Fatalf("status = %+v", st)
	}
	if got := b.Get(addr, bq24259.RegTermTimerControl); got != 0b1001_0100 {
		t.Fatalf("REG05 = %08b", got)
	}
}

func TestVendorMismatch(t *testing.T) {
	b := newCharger()
	b.Set(addr, bq24259.RegVendor, 0x08)
	h := startService(t, b, Params{Name: "chg0", SampleEveryMS: 10_000, CheckVendor: true})

	e := h.waitOn(t, TopicError("chg0"), nil).Payload.(types.ChargerError)
	if e.Op != "check_vendor" || e.Error != string(errcode.VendorMismatch) {
		t.Fatalf("error = %+v", e)
	}
	info := h.waitOn(t, TopicInfo("chg0"), nil).Payload.(types.ChargerInfo)
	if !info.VendorChecked || info.VendorOK {
		t.Fatalf("info = %+v", info)
	}
}

func TestFaultPublishedOnce(t *testing.T) {
	b := newCharger()
	b.Set(addr, bq24259.RegNewFault, 0b1010_0010)
	h := startService(t, b, Params{Name: "chg0", SampleEveryMS: 10_000})

	m := h.waitOn(t, TopicFault("chg0"), nil)
	f := m.Payload.(types.ChargerFault)
	if m.Retained || !f.WatchdogExpired || f.Charge != "thermal_shutdown" || !f.NTCCold || f.NTCHot || f.Raw != 0b1010_0010 {
		t.Fatalf("fault = %+v", f)
	}
	h.value(t)

	wantOK(t, "read", h.control(t, "read", nil))
	h.value(t)
	select {
	case m := <-h.sub.Channel():
		if sameTopic(m.Topic, TopicFault("chg0")) {
			t.Fatalf("fault republished after clear-on-read: %+v", m.Payload)
		}
	case <-time.After(20 * time.Millisecond):
	}
}

func TestFaultPublishedWhenLaterReadFails(t *testing.T) {
	b := newCharger()
	b.Set(addr, bq24259.RegNewFault, 0b1010_0010)
	b.FailAfter(2, errors.New("nack")) // status ok, fault ok, current fails
	h := startService(t, b, Params{Name: "chg0", SampleEveryMS: 10_000})

	f := h.waitOn(t, TopicFault("chg0"), nil).Payload.(types.ChargerFault)
	if !f.WatchdogExpired || f.Charge != "thermal_shutdown" || !f.NTCCold || f.Raw != 0b1010_0010 {
		t.Fatalf("fault = %+v", f)
	}
	e := h.waitOn(t, TopicError("chg0"), nil).Payload.(types.ChargerError)
	if e.Op != "read" || e.Error != string(errcode.BusError) {
		t.Fatalf("error = %+v", e)
	}
	st := h.waitOn(t, TopicStatus("chg0"), nil).Payload.(types.CapabilityStatus)
	if st.Link != types.LinkDegraded || st.Error != string(errcode.BusError) {
		t.Fatalf("status = %+v", st)
	}
	if got := b.Get(addr, bq24259.RegNewFault); got != 0 {
		t.Fatalf("REG09 = %08b", got)
	}

	// The bus recovers on the next read.
	wantOK(t, "read", h.control(t, "read", nil))
	if v := h.value(t); v.ICharge != 2048 {
		t.Fatalf("value = %+v", v)
	}
	st = h.waitOn(t, TopicStatus("chg0"), nil).Payload.(types.CapabilityStatus)
	if st.Link != types.LinkUp {
		t.Fatalf("status = %+v", st)
	}
}

func TestControlVerbs(t *testing.T) {
	b := newCharger()
	h := startService(t, b, Params{Name: "chg0", SampleEveryMS: 10_000})
	h.value(t)

	wantErr(t, "set_charge_current", h.control(t, "set_charge_current", "1000"), errcode.InvalidPayload)
	wantErr(t, "set_charge_current", h.control(t, "set_charge_current", (*types.SetChargeCurrent)(nil)), errcode.InvalidPayload)
	wantErr(t, "enable_charging", h.control(t, "enable_charging", nil), errcode.InvalidPayload)
	wantErr(t, "self_destruct", h.control(t, "self_destruct", nil), errcode.Unsupported)

	wantOK(t, "set_charge_current", h.control(t, "set_charge_current", &types.SetChargeCurrent{MilliA: 896}))
	if v := h.value(t); v.ICharge != 896 {
		t.Fatalf("icharge = %d", v.ICharge)
	}

	wantOK(t, "enable_charging", h.control(t, "enable_charging", types.ChargerEnable{On: false}))
	wantOK(t, "disable_watchdog", h.control(t, "disable_watchdog", nil))
	wantOK(t, "reset_watchdog", h.control(t, "reset_watchdog", nil))

	// reset_watchdog self-clears in hardware; CHG_CONFIG stays cleared.
	if got := b.Get(addr, bq24259.RegPowerOnConfig); got != 0b0000_1011 {
		t.Fatalf("REG01 = %08b", got)
	}
	if got := b.Get(addr, bq24259.RegTermTimerControl); got&(1<<3) != 0 {
		t.Fatalf("REG05 = %08b", got)
	}
}

func TestControlReportsBusError(t *testing.T) {
	b := newCharger()
	h := startService(t, b, Params{Name: "chg0", SampleEveryMS: 10_000})
	h.value(t)

	b.Fail(errors.New("nack"))
	wantErr(t, "disable_watchdog", h.control(t, "disable_watchdog", nil), errcode.BusError)
	e := h.waitOn(t, TopicError("chg0"), nil).Payload.(types.ChargerError)
	if e.Op != "disable_watchdog" || e.Error != string(errcode.BusError) {
		t.Fatalf("error = %+v", e)
	}
}

func TestWatchdogKeepAlive(t *testing.T) {
	b := newCharger()
	startService(t, b, Params{Name: "chg0", SampleEveryMS: 10_000, WatchdogKickMS: 5})

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		for _, op := range b.Ops() {
			if op.Kind == i2csim.OpWrite && op.Reg == bq24259.RegPowerOnConfig && op.Value == 0b0101_1011 {
				return
			}
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("no watchdog reset written")
}

func TestBusErrorPublished(t *testing.T) {
	b := newCharger()
	b.Fail(errors.New("nack"))
	h := startService(t, b, Params{Name: "chg0", SampleEveryMS: 10_000})

	e := h.waitOn(t, TopicError("chg0"), nil).Payload.(types.ChargerError)
	if e.Op != "read" || e.Error != string(errcode.BusError) {
		t.Fatalf("error = %+v", e)
	}
}

func TestConcurrentStart(t *testing.T) {
	bb := bus.NewBus(8)
	s, err := New(bb.NewConnection("charger"), newCharger(), Params{Name: "chg0", SampleEveryMS: 10_000})
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		started int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if s.Start(ctx) == nil {
				mu.Lock()
				started++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	if started != 1 {
		t.Fatalf("started = %d workers", started)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCloseWithBacklog(t *testing.T) {
	b := newCharger()
	h := startService(t, b, Params{Name: "chg0", SampleEveryMS: 10_000})
	h.value(t)

	for i := 0; i < 200; i++ {
		h.ui.Publish(h.ui.NewMessage(TopicControl("chg0", "read"), nil, false))
	}
	if err := h.s.Close(); err != nil {
		t.Fatal(err)
	}
	st := h.waitOn(t, TopicStatus("chg0"), func(p any) bool {
		return p.(types.CapabilityStatus).Link == types.LinkDown
	}).Payload.(types.CapabilityStatus)
	if st.Error != "" {
		t.Fatalf("status = %+v", st)
	}

	// Stopped: controls go unanswered and Start works again.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := h.ui.RequestWait(ctx, h.ui.NewMessage(TopicControl("chg0", "read"), nil, false)); err != context.DeadlineExceeded {
		t.Fatalf("after close: %v", err)
	}
	if err := h.s.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	wantOK(t, "read", h.control(t, "read", nil))
}
