// Package charger runs a BQ24259 behind a single worker goroutine. The worker
// is the only caller of the driver, which keeps every read-modify-write
// sequence on the device uninterrupted by other requests.
//
// State is published on charger/<name>/{info,status,value,fault,event/error};
// controls arrive on charger/<name>/control/<verb> and are answered with
// types.OKReply or types.ErrorReply when the request carries a reply topic.
package charger

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"bq24259-go/bus"
	"bq24259-go/drivers/bq24259"
	"bq24259-go/errcode"
	"bq24259-go/types"

	"tinygo.org/x/drivers"
)

const closeWait = 300 * time.Millisecond

// Service owns one driver instance.
type Service struct {
	params Params
	conn   *bus.Connection

	// Owned by the worker only:
	dev    *bq24259.Device
	snap   bq24259.Snapshot
	status types.CapabilityStatus

	alive  atomic.Bool
	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

func New(conn *bus.Connection, i2c drivers.I2C, p Params) (*Service, error) {
	if conn == nil || i2c == nil {
		return nil, errcode.InvalidParams
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p = p.withDefaults()
	return &Service{
		params: p,
		conn:   conn,
		dev:    bq24259.New(i2c, bq24259.Config{Address: p.Addr}),
	}, nil
}

// Start subscribes to controls and launches the worker. It returns
// immediately; a second Start while running returns errcode.Busy.
func (s *Service) Start(ctx context.Context) error {
	if !s.alive.CompareAndSwap(false, true) {
		return errcode.Busy
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.mu.Lock()
	s.cancel, s.done = cancel, done
	s.mu.Unlock()

	sub := s.conn.Subscribe(ctrlWildcard(s.params.Name))
	go s.worker(ctx, sub, done)
	return nil
}

// Close stops the worker and waits briefly for it to exit. The worker always
// observes the stop; errcode.Busy means it was still inside a bus
// transaction when the wait ran out.
func (s *Service) Close() error {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.mu.Unlock()
	if cancel == nil {
		return nil
	}
	cancel()
	t := time.NewTimer(closeWait)
	defer t.Stop()
	select {
	case <-done:
		return nil
	case <-t.C:
		return errcode.Busy
	}
}

func payloadAs[T any](payload any) (T, bool) {
	switch x := payload.(type) {
	case T:
		return x, true
	case *T:
		if x != nil {
			return *x, true
		}
	}
	var zero T
	return zero, false
}

// ---- Worker ----

func (s *Service) worker(ctx context.Context, sub *bus.Subscription, done chan struct{}) {
	defer close(done)
	defer s.alive.Store(false)
	defer s.setLink(types.LinkDown, "")
	defer s.conn.Unsubscribe(sub)

	s.configureDevice()
	s.sampleAndPublish()

	sample := time.NewTicker(time.Duration(s.params.SampleEveryMS) * time.Millisecond)
	defer sample.Stop()

	// nil channel when keep-alive is off
	var kickC <-chan time.Time
	if s.params.WatchdogKickMS > 0 {
		kick := time.NewTicker(time.Duration(s.params.WatchdogKickMS) * time.Millisecond)
		defer kick.Stop()
		kickC = kick.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-sample.C:
			s.sampleAndPublish()
		case <-kickC:
			s.do("reset_watchdog", s.dev.ResetWatchdog())
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			s.handleControl(msg)
		}
	}
}

// handleControl runs one verb to completion and replies with its outcome.
func (s *Service) handleControl(msg *bus.Message) {
	verb, _ := msg.Topic.At(msg.Topic.Len() - 1).(string)
	var err error
	switch verb {
	case "read":
		err = s.sampleAndPublish()
	case "set_charge_current":
		v, ok := payloadAs[types.SetChargeCurrent](msg.Payload)
		if !ok {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		if err = s.do(verb, s.dev.SetChargeCurrentLimit(v.MilliA)); err == nil {
			s.sampleAndPublish()
		}
	case "disable_watchdog":
		err = s.do(verb, s.dev.DisableWatchdog())
	case "reset_watchdog":
		err = s.do(verb, s.dev.ResetWatchdog())
	case "enable_charging":
		v, ok := payloadAs[types.ChargerEnable](msg.Payload)
		if !ok {
			s.replyErr(msg, errcode.InvalidPayload)
			return
		}
		err = s.do(verb, s.dev.EnableCharging(v.On))
	default:
		s.replyErr(msg, errcode.Unsupported)
		return
	}
	if err != nil {
		s.replyErr(msg, errcode.Of(err))
		return
	}
	s.replyOK(msg)
}

// configureDevice applies start-up params. Failures are published and the
// worker carries on.
func (s *Service) configureDevice() {
	info := types.ChargerInfo{Driver: "bq24259", Bus: s.params.Bus, Addr: s.params.Addr}
	if s.params.CheckVendor {
		ok, err := s.dev.CheckVendor()
		if s.do("check_vendor", err) == nil {
			info.VendorChecked, info.VendorOK = true, ok
			if !ok {
				s.fail("check_vendor", errcode.VendorMismatch)
			}
		}
	}
	s.publish(TopicInfo(s.params.Name), info, true)

	if s.params.DisableWDT {
		s.do("disable_watchdog", s.dev.DisableWatchdog())
	}
	if s.params.ChargeCurrent_mA != 0 {
		s.do("set_charge_current", s.dev.SetChargeCurrentLimit(s.params.ChargeCurrent_mA))
	}
}

// sampleAndPublish takes a snapshot. REG09 is cleared by the read, so a
// fault that was read is published even if a later read failed.
func (s *Service) sampleAndPublish() error {
	s.dev.SnapshotInto(&s.snap)
	snap := &s.snap
	if snap.Have.Has(bq24259.HaveFault) && snap.Fault.Any() {
		s.publish(TopicFault(s.params.Name), toFault(snap.Fault), false)
	}
	if snap.Err != nil {
		return s.do("read", snap.Err)
	}
	s.publish(TopicValue(s.params.Name), toValue(snap), true)
	s.setLink(types.LinkUp, "")
	return nil
}

// do publishes a failed driver call and returns its code, or nil.
func (s *Service) do(op string, err error) error {
	if err == nil {
		return nil
	}
	return s.fail(op, errcode.MapDriverErr(err))
}

func (s *Service) fail(op string, code errcode.Code) error {
	s.publish(TopicError(s.params.Name), types.ChargerError{
		Op:    op,
		Error: string(code),
		TS:    time.Now().UnixNano(),
	}, false)
	s.setLink(types.LinkDegraded, code)
	return code
}

// setLink publishes the retained status when link or error changes.
func (s *Service) setLink(link types.Link, code errcode.Code) {
	if s.status.Link == link && s.status.Error == string(code) {
		return
	}
	s.status = types.CapabilityStatus{Link: link, Error: string(code), TS: time.Now().UnixNano()}
	s.publish(TopicStatus(s.params.Name), s.status, true)
}

func (s *Service) publish(t bus.Topic, payload any, retained bool) {
	s.conn.Publish(s.conn.NewMessage(t, payload, retained))
}

func (s *Service) replyOK(m *bus.Message) {
	if m.CanReply() {
		s.conn.Reply(m, types.OKReply{OK: true}, false)
	}
}

func (s *Service) replyErr(m *bus.Message, code errcode.Code) {
	if !m.CanReply() {
		return
	}
	if code == "" {
		code = errcode.Error
	}
	s.conn.Reply(m, types.ErrorReply{OK: false, Error: string(code)}, false)
}

func toValue(snap *bq24259.Snapshot) types.ChargerValue {
	st := snap.Status
	return types.ChargerValue{
		Vbus:      st.Vbus.String(),
		State:     st.Chrg.String(),
		PowerGood: st.PG,
		DPM:       st.DPM,
		ThermReg:  st.Therm,
		VsysReg:   st.Vsys,
		ICharge:   snap.ChargeCurr_mA,
		Raw:       st.Encode(),
	}
}

func toFault(f bq24259.Fault) types.ChargerFault {
	return types.ChargerFault{
		WatchdogExpired: f.WatchdogExpired,
		OTG:             f.OTGFault,
		Charge:          f.ChrgFault.String(),
		Battery:         f.BatFault,
		NTCCold:         f.NTCCold,
		NTCHot:          f.NTCHot,
		Raw:             f.Encode(),
	}
}
