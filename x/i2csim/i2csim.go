// Package i2csim is a host-side I2C bus simulator with per-address 8-bit
// register files. It implements the tinygo drivers.I2C Tx shape and records
// every register access so tests can assert exact transaction sequences.
package i2csim

import (
	"errors"
	"sync"
)

var (
	ErrNoDevice = errors.New("i2csim: no device at address (nack)")
	ErrProtocol = errors.New("i2csim: empty write")
)

type OpKind uint8

const (
	OpRead OpKind = iota + 1
	OpWrite
)

func (k OpKind) String() string {
	switch k {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	default:
		return "?"
	}
}

// Op is one register access. A multi-byte transfer logs one Op per register.
type Op struct {
	Kind  OpKind
	Addr  uint16
	Reg   byte
	Value byte
}

// Device is a simulated 256-register target.
type Device struct {
	regs      [256]byte
	readOnly  [256]byte // bits ignored on write
	autoClear [256]byte // bits that self-clear after a write
	latched   [256]bool // register clears after it is read
}

// Bus is safe for use from several goroutines; each Tx is atomic.
type Bus struct {
	mu      sync.Mutex
	devs    map[uint16]*Device
	ops     []Op
	failAll error
	failN   int
	failErr error
}

func New() *Bus {
	return &Bus{devs: make(map[uint16]*Device)}
}

// Attach adds (or returns) the device at addr.
func (b *Bus) Attach(addr uint16) *Device {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.devs[addr]
	if !ok {
		d = &Device{}
		b.devs[addr] = d
	}
	return d
}

// Set stores v at reg, bypassing masks and the log.
func (b *Bus) Set(addr uint16, reg, v byte) {
	d := b.Attach(addr)
	b.mu.Lock()
	d.regs[reg] = v
	b.mu.Unlock()
}

// Get returns the stored value at reg, bypassing the log.
func (b *Bus) Get(addr uint16, reg byte) byte {
	d := b.Attach(addr)
	b.mu.Lock()
	defer b.mu.Unlock()
	return d.regs[reg]
}

// ReadOnly marks bits of reg that bus writes cannot change.
func (b *Bus) ReadOnly(addr uint16, reg, mask byte) {
	d := b.Attach(addr)
	b.mu.Lock()
	d.readOnly[reg] = mask
	b.mu.Unlock()
}

// AutoClear marks bits of reg that the target clears after each write.
func (b *Bus) AutoClear(addr uint16, reg, mask byte) {
	d := b.Attach(addr)
	b.mu.Lock()
	d.autoClear[reg] = mask
	b.mu.Unlock()
}

// ClearOnRead makes reg read as its value once, then zero.
func (b *Bus) ClearOnRead(addr uint16, reg byte) {
	d := b.Attach(addr)
	b.mu.Lock()
	d.latched[reg] = true
	b.mu.Unlock()
}

// Fail makes every Tx return err until Fail(nil).
func (b *Bus) Fail(err error) {
	b.mu.Lock()
	b.failAll = err
	b.mu.Unlock()
}

// FailAfter lets n more Tx calls succeed, then fails the next one with err.
func (b *Bus) FailAfter(n int, err error) {
	b.mu.Lock()
	b.failN = n
	b.failErr = err
	b.mu.Unlock()
}

// Ops returns a copy of the access log.
func (b *Bus) Ops() []Op {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

// ResetOps empties the access log.
func (b *Bus) ResetOps() {
	b.mu.Lock()
	b.ops = b.ops[:0]
	b.mu.Unlock()
}

// Tx performs w[0] as register pointer, then writes w[1:] and reads len(r)
// bytes with auto-increment.
func (b *Bus) Tx(addr uint16, w, r []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.failAll != nil {
		return b.failAll
	}
	if b.failErr != nil {
		if b.failN == 0 {
			err := b.failErr
			b.failErr = nil
			return err
		}
		b.failN--
	}

	d, ok := b.devs[addr]
	if !ok {
		return ErrNoDevice
	}
	if len(w) == 0 {
		return ErrProtocol
	}

	reg := w[0]
	for _, v := range w[1:] {
		ro := d.readOnly[reg]
		nv := (d.regs[reg] & ro) | (v &^ ro)
		b.ops = append(b.ops, Op{Kind: OpWrite, Addr: addr, Reg: reg, Value: v})
		d.regs[reg] = nv &^ d.autoClear[reg]
		reg++
	}
	for i := range r {
		r[i] = d.regs[reg]
		b.ops = append(b.ops, Op{Kind: OpRead, Addr: addr, Reg: reg, Value: r[i]})
		if d.latched[reg] {
			d.regs[reg] = 0
		}
		reg++
	}
	return nil
}
