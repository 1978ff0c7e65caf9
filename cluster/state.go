// Package cluster aggregates per-register state across a GGS cluster,
// assigns verifiers to incoming DEP chunks and decomposes verification
// across a worker pool, the way massifs/massifcontext.go and
// massifs/watcher/tailcollator.go aggregate per-key log state across a
// tenant's massifs.
package cluster

import "github.com/rksv-go/depverify/register"

// State is an ordered sequence of per-register states plus the set of
// receipt IDs already consumed anywhere in the cluster.
type State struct {
	Registers      []register.CashRegisterState
	UsedReceiptIDs map[string]struct{}
}

// New returns an empty cluster state.
func New() State {
	return State{UsedReceiptIDs: make(map[string]struct{})}
}

// clone returns a deep-enough copy of s so VerifyDEP can fail without
// mutating the caller's state.
func (s State) clone() State {
	out := State{
		Registers:      make([]register.CashRegisterState, len(s.Registers)),
		UsedReceiptIDs: make(map[string]struct{}, len(s.UsedReceiptIDs)),
	}
	copy(out.Registers, s.Registers)
	for id := range s.UsedReceiptIDs {
		out.UsedReceiptIDs[id] = struct{}{}
	}
	return out
}
