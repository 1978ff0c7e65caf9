package cluster

import (
	"github.com/rksv-go/depverify/depio"
	"github.com/rksv-go/depverify/receipt"
	"github.com/rksv-go/depverify/register"
)

// project computes a cheap approximation of the register state after
// consuming chunk, applying the turnover delta, the last-JWS carry, the
// start receipt of a register that had none, and the NeedRestoreReceipt
// transition — no signature or chain
// verification. It seeds the *next* chunk's worker so chunks can run
// concurrently; the real verify_group run inside each worker
// re-derives the authoritative state and will surface any discrepancy
// (an invalid turnover counter, a broken chain) as a verification
// error.
//
// NeedRestoreReceipt still has to be carried across the chunk boundary
// here: it is the one piece of cross-receipt state register.VerifyGroup
// can raise on using only the classification predicates below (no
// decrypt, no signature), so a chunk split that drops it would let a
// violation straddling two chunks pass silently under parallel
// dispatch where a sequential run would have caught it.
func project(chunk depio.Chunk, state register.CashRegisterState) register.CashRegisterState {
	for _, g := range chunk {
		for _, jws := range g.Receipts {
			r, err := receipt.Parse(jws)
			if err == nil {
				hasPrev := state.LastReceiptJWS != ""
				switch {
				case r.IsSignedBroken() || r.IsUnsignedNull():
					if hasPrev && r.IsSignedBroken() {
						state.NeedRestoreReceipt = true
					}
				case hasPrev && (!r.IsNull() || r.IsDummy() || r.IsReversal()):
					// leaves NeedRestoreReceipt as-is; VerifyGroup raises if it's still set
				default:
					state.NeedRestoreReceipt = false
				}
				if !r.IsDummy() {
					state.LastTurnoverCounter += r.SumCents()
				}
			}
			if state.LastReceiptJWS == "" {
				state.StartReceiptJWS = jws
			}
			state.LastReceiptJWS = jws
		}
	}
	return state
}
