package bq24259

// SnapshotFields records which reads of a Snapshot succeeded.
type SnapshotFields uint8

const (
	HaveStatus SnapshotFields = 1 << iota
	HaveFault
	HaveChargeCurr
)

func (f SnapshotFields) Has(flag SnapshotFields) bool { return f&flag == flag }

// Snapshot collects status, latched faults and the charge current limit.
// Zero values remain where individual reads fail; Have marks the reads that
// succeeded and Err holds the first failure.
//
// REG09 clears on read, so a Fault marked in Have must be consumed even when
// Err is set.
type Snapshot struct {
	Status        SystemStatus
	Fault         Fault
	ChargeCurr_mA uint16
	Have          SnapshotFields
	Err           error
}

// Snapshot reads REG08, REG09 and REG02, in that order.
func (d *Device) Snapshot() Snapshot {
	var s Snapshot
	d.SnapshotInto(&s)
	return s
}

// SnapshotInto is Snapshot without the return copy.
func (d *Device) SnapshotInto(out *Snapshot) {
	var s Snapshot
	keep := func(err error, f SnapshotFields) bool {
		if err != nil {
			if s.Err == nil {
				s.Err = err
			}
			return false
		}
		s.Have |= f
		return true
	}
	if v, e := d.Status(); keep(e, HaveStatus) {
		s.Status = v
	}
	if v, e := d.NewFault(); keep(e, HaveFault) {
		s.Fault = v
	}
	if v, e := d.ChargeCurrentLimit(); keep(e, HaveChargeCurr) {
		s.ChargeCurr_mA = v
	}
	*out = s
}
