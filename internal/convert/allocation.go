package convert

import (
	"reflect"
	"sync/atomic"
)

type Mode uint8

const (
	// Transfer allocations belong to whoever receives them.
	Transfer Mode = iota
	// Refcount allocations are shared and disposed by the last reference.
	Refcount
	// Borrow allocations are owned outside the resolver and never settled.
	Borrow
)

func (m Mode) String() string {
	switch m {
	case Transfer:
		return "transfer"
	case Refcount:
		return "refcount"
	case Borrow:
		return "borrow"
	default:
		return "unknown"
	}
}

type Settlement uint8

const (
	Disposed Settlement = iota
	HandedOff
)

func (s Settlement) String() string {
	if s == Disposed {
		return "disposed"
	}
	return "handed-off"
}

type owner struct {
	settled atomic.Bool
	settle  func(Settlement)
	refs    atomic.Int64
}

func (o *owner) finish(s Settlement) bool {
	if !o.settled.CompareAndSwap(false, true) {
		return false
	}
	if o.settle != nil {
		o.settle(s)
	}
	return true
}

func (o *owner) acquire() {
	o.refs.Add(1)
}

func (o *owner) release() bool {
	if o.refs.Add(-1) == 0 {
		return o.finish(Disposed)
	}
	return false
}

// Allocation is one constructed instance: a cell holding the value plus the
// bookkeeping that decides who may settle it.
type Allocation struct {
	Cell reflect.Value
	Mode Mode
	own  *owner
}

func NewTransfer(cell reflect.Value, settle func(Settlement)) *Allocation {
	return &Allocation{Cell: cell, Mode: Transfer, own: &owner{settle: settle}}
}

// NewRefcount returns a counted allocation holding one reference for its
// creator.
func NewRefcount(cell reflect.Value, settle func(Settlement)) *Allocation {
	a := &Allocation{Cell: cell, Mode: Refcount, own: &owner{settle: settle}}
	a.own.refs.Store(1)
	return a
}

func NewBorrow(cell reflect.Value) *Allocation {
	return &Allocation{Cell: cell, Mode: Borrow}
}

// Release drops one reference of a counted allocation, or settles a transfer
// allocation nobody claimed.
func (a *Allocation) Release() bool {
	switch a.Mode {
	case Refcount:
		return a.own.release()
	case Transfer:
		return a.own.finish(Disposed)
	default:
		return false
	}
}

func (a *Allocation) Refs() int64 {
	if a.own == nil {
		return 0
	}
	return a.own.refs.Load()
}

func (a *Allocation) Settled() bool {
	if a.own == nil {
		return false
	}
	return a.own.settled.Load()
}

// Retype views the allocation through a cell of another type. Ownership is
// shared with the original.
func (a *Allocation) Retype(t reflect.Type) *Allocation {
	if a.Cell.Type().Elem() == t {
		return a
	}
	cell := reflect.New(t)
	cell.Elem().Set(a.Cell.Elem())
	return &Allocation{Cell: cell, Mode: a.Mode, own: a.own}
}
