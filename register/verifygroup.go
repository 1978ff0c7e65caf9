package register

import (
	"bytes"
	"fmt"

	"github.com/rksv-go/depverify/depverifyerr"
	"github.com/rksv-go/depverify/receipt"
	"github.com/rksv-go/depverify/verifyreceipt"
)

// VerifyGroup verifies an ordered group of JWS receipt strings against
// verifier, reconciling the turnover counter with turnoverKey if given.
// prevClusterStartJWS is the prior register's start receipt in a GGS
// cluster, used only to seed the chain of this register's very first
// receipt when state has not seen one yet. It returns the updated state
// and the updated used-receipt-ID set, either of which may be mutated
// versions of the inputs.
func VerifyGroup(
	group []string,
	verifier verifyreceipt.Verifier,
	turnoverKey []byte,
	prevClusterStartJWS string,
	state CashRegisterState,
	usedReceiptIDs map[string]struct{},
) (CashRegisterState, map[string]struct{}, error) {
	if usedReceiptIDs == nil {
		usedReceiptIDs = make(map[string]struct{})
	}

	prevJWS := state.LastReceiptJWS
	var prevObj *receipt.Receipt
	if prevJWS != "" {
		var err error
		prevObj, err = receipt.Parse(prevJWS)
		if err != nil {
			return state, usedReceiptIDs, err
		}
	}

	for _, cr := range group {
		res, err := verifier.Verify(cr)
		if err != nil {
			return state, usedReceiptIDs, err
		}
		ro := res.Receipt
		algo := res.Algorithm

		if res.Outcome == verifyreceipt.Valid {
			if prevObj != nil && (!ro.IsNull() || ro.IsDummy() || ro.IsReversal()) {
				if state.NeedRestoreReceipt {
					return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrNoRestoreReceiptAfterSignatureSystemFailed)
				}
			} else {
				state.NeedRestoreReceipt = false
			}
		} else {
			// The signature step was skipped (signature-system-failed or
			// unsigned-null). The state machine still owes the initial-
			// receipt and restore-receipt checks, and a signature-system-
			// failed receipt obliges the next receipt to be a restore.
			if prevObj == nil {
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrSignatureSystemFailedOnInitialReceipt)
			}
			if state.NeedRestoreReceipt {
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrNoRestoreReceiptAfterSignatureSystemFailed)
			}
			if ro.IsSignedBroken() {
				state.NeedRestoreReceipt = true
			}
		}

		isStartReceipt := prevObj == nil
		if isStartReceipt {
			if !ro.IsNull() {
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrNonzeroTurnoverOnInitialReceipt)
			}
			if ro.IsDummy() || ro.IsReversal() {
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrNonstandardTypeOnInitialReceipt)
			}

			if prevClusterStartJWS != "" {
				if !ro.IsClosedSystem() {
					return state, usedReceiptIDs, depverifyerr.ErrClusterInOpenSystem
				}
				var perr error
				prevJWS = prevClusterStartJWS
				prevObj, perr = receipt.Parse(prevClusterStartJWS)
				if perr != nil {
					return state, usedReceiptIDs, perr
				}
				if !prevObj.IsClosedSystem() {
					return state, usedReceiptIDs, depverifyerr.ErrClusterInOpenSystem
				}
			}

			state.StartReceiptJWS = cr
		} else {
			if _, dup := usedReceiptIDs[ro.ReceiptID]; dup {
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrDuplicateReceiptID)
			}
			if prevObj.RegisterID != ro.RegisterID {
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrChangingRegisterID)
			}
			if prevObj.IsClosedSystem() != ro.IsClosedSystem() {
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrChangingSystemType)
			}
			// Date monotonicity is deliberately not enforced here: the
			// regulation's erratum exempts it (a-sit-plus/at-registrierkassen-mustercode#144).
		}

		usedReceiptIDs[ro.ReceiptID] = struct{}{}

		expectedChain := algo.Chain(prevJWS, ro.RegisterID)
		if !bytes.Equal(expectedChain, ro.PreviousChain) {
			switch {
			case isStartReceipt && prevClusterStartJWS != "":
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrInvalidChainingOnClusterInitialReceipt)
			case isStartReceipt:
				return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrInvalidChainingOnInitialReceipt)
			default:
				return state, usedReceiptIDs, &depverifyerr.ChainingError{ReceiptID: ro.ReceiptID, PriorJWS: prevJWS}
			}
		}

		if !ro.IsDummy() && turnoverKey != nil {
			newCounter := state.LastTurnoverCounter + ro.SumCents()
			if !ro.IsReversal() && ro.TurnoverSentinel == "" {
				decrypted, derr := algo.DecryptTurnoverCounter(ro.RegisterID, ro.ReceiptID, ro.EncryptedTurnover, turnoverKey)
				if derr != nil {
					return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, fmt.Errorf("%w: %v", depverifyerr.ErrInvalidTurnoverCounter, derr))
				}
				if decrypted != newCounter {
					return state, usedReceiptIDs, depverifyerr.AtReceipt(ro.ReceiptID, depverifyerr.ErrInvalidTurnoverCounter)
				}
			}
			state.LastTurnoverCounter = newCounter
		}

		prevJWS = cr
		prevObj = ro
	}

	state.LastReceiptJWS = prevJWS
	return state, usedReceiptIDs, nil
}
