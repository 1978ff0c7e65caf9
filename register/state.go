// Package register implements the per-register receipt-chain state
// machine: chain reconstruction, signature-failure recovery, turnover
// counter reconciliation and the initial/cross-receipt invariants of a
// single cash register's receipt stream.
package register

// CashRegisterState is the mutable, persisted-between-DEPs state of one
// cash register.
type CashRegisterState struct {
	// LastReceiptJWS is the most recently verified receipt, or "" if
	// this register has not seen one yet.
	LastReceiptJWS string `json:"lastReceiptJws"`
	// LastTurnoverCounter is the running turnover counter, in cents.
	LastTurnoverCounter int64 `json:"lastTurnoverCounter"`
	// NeedRestoreReceipt is set after consuming a signed-broken receipt
	// that has a predecessor; the next receipt must be a signed null
	// receipt (not dummy or reversal), which clears it.
	NeedRestoreReceipt bool `json:"needRestoreReceipt"`
	// StartReceiptJWS is the first receipt this register ever produced,
	// used to chain a sibling register's first receipt in a GGS cluster.
	StartReceiptJWS string `json:"startReceiptJws"`
}
