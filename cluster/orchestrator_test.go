package cluster_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rksv-go/depverify/algorithm"
	"github.com/rksv-go/depverify/cluster"
	"github.com/rksv-go/depverify/depio"
	"github.com/rksv-go/depverify/depverifyerr"
	"github.com/rksv-go/depverify/keystore"
	"github.com/rksv-go/depverify/register"
	"github.com/rksv-go/depverify/rkvtesting"
)

// chainOfReceipts builds n sequentially chained JWS strings for a single
// closed-system register, each in its own one-receipt group, certified by a
// freshly generated key. The first receipt carries real (non-sentinel)
// encrypted turnover, since a register's first receipt must verify to
// Outcome.Valid; the rest use UNSIGNED-NULL. The returned store has the
// signing certificate registered under serial "1".
func chainOfReceipts(t *testing.T, n int) ([]string, keystore.MapStore) {
	t.Helper()
	key := rkvtesting.GenerateKey(t)
	cert := rkvtesting.SelfSignedCert(t, key, 1)
	tk := rkvtesting.TurnoverKey(t)
	receipts := make([]string, n)
	prev := ""
	for i := 0; i < n; i++ {
		turnover := "UNSIGNED-NULL"
		if i == 0 {
			turnover = rkvtesting.EncryptTurnover(t, "REG1", receiptID(i), 0, tk, 8)
		}
		receipts[i] = rkvtesting.BuildJWS(t, key, rkvtesting.Fields{
			AlgorithmPrefix: "R1", ZDA: "AT0", RegisterID: "REG1",
			ReceiptID: receiptID(i),
			SumA:      "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
			Turnover:          turnover,
			PreviousChain:     rkvtesting.Chain(prev, "REG1"),
			CertificateSerial: "1",
		})
		prev = receipts[i]
	}
	return receipts, keystore.MapStore{"1": cert}
}

func receiptID(i int) string {
	ids := []string{"r-1", "r-2", "r-3", "r-4", "r-5", "r-6"}
	return ids[i]
}

func TestVerifyDEP_ParallelEqualsSequential(t *testing.T) {
	receipts, store := chainOfReceipts(t, 6)

	newChunks := func() []depio.Chunk {
		return []depio.Chunk{
			{{Receipts: []string{receipts[0], receipts[1]}}},
			{{Receipts: []string{receipts[2], receipts[3]}}},
			{{Receipts: []string{receipts[4], receipts[5]}}},
		}
	}

	registry := algorithm.DefaultRegistry()

	sequential, err := cluster.VerifyDEP(&fakeParser{chunks: newChunks()}, store, registry, nil, cluster.New(), -1, 1)
	require.NoError(t, err)

	parallel, err := cluster.VerifyDEP(&fakeParser{chunks: newChunks()}, store, registry, nil, cluster.New(), -1, 3)
	require.NoError(t, err)

	assert.Equal(t, sequential.Registers, parallel.Registers)
	assert.Equal(t, sequential.UsedReceiptIDs, parallel.UsedReceiptIDs)
}

func TestVerifyDEP_CrossChunkDuplicateReceiptIDDetected(t *testing.T) {
	key := rkvtesting.GenerateKey(t)
	receipts, store := chainOfReceipts(t, 3)

	// dup is a distinct, validly chained receipt that happens to reuse
	// r-1's receipt ID; only a cross-chunk merge can catch it, since
	// each chunk verifies with its own local used-ID set.
	dup := rkvtesting.BuildJWS(t, key, rkvtesting.Fields{
		AlgorithmPrefix: "R1", ZDA: "AT0", RegisterID: "REG1", ReceiptID: "r-1",
		SumA: "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		Turnover:          "UNSIGNED-NULL",
		PreviousChain:     rkvtesting.Chain(receipts[2], "REG1"),
		CertificateSerial: "1",
	})

	chunks := []depio.Chunk{
		{{Receipts: []string{receipts[0], receipts[1]}}},
		{{Receipts: []string{receipts[2], dup}}},
	}

	_, err := cluster.VerifyDEP(&fakeParser{chunks: chunks}, store, algorithm.DefaultRegistry(), nil, cluster.New(), -1, 2)
	assert.ErrorIs(t, err, depverifyerr.ErrDuplicateReceiptID)
}

func TestVerifyDEP_NoCertificateGivenInMultiGroupChunk(t *testing.T) {
	receipts, store := chainOfReceipts(t, 2)

	chunks := []depio.Chunk{
		{{Receipts: []string{receipts[0]}}, {Receipts: []string{receipts[1]}}},
	}

	_, err := cluster.VerifyDEP(&fakeParser{chunks: chunks}, store, algorithm.DefaultRegistry(), nil, cluster.New(), -1, 1)
	assert.ErrorIs(t, err, depverifyerr.ErrNoCertificateGiven)
}

func TestVerifyDEP_InvalidCashRegisterIndex(t *testing.T) {
	prior := cluster.New()
	_, err := cluster.VerifyDEP(&fakeParser{}, keystore.MapStore{}, algorithm.DefaultRegistry(), nil, prior, 5, 1)
	assert.ErrorIs(t, err, depverifyerr.ErrInvalidCashRegisterIndex)
}

func TestVerifyDEP_NeedRestoreReceiptViolationAcrossChunkBoundary(t *testing.T) {
	key := rkvtesting.GenerateKey(t)
	cert := rkvtesting.SelfSignedCert(t, key, 1)
	store := keystore.MapStore{"1": cert}
	tk := rkvtesting.TurnoverKey(t)

	initial := rkvtesting.BuildJWS(t, key, rkvtesting.Fields{
		AlgorithmPrefix: "R1", ZDA: "AT0", RegisterID: "REG1", ReceiptID: "r-1",
		SumA: "0.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		Turnover:          rkvtesting.EncryptTurnover(t, "REG1", "r-1", 0, tk, 8),
		PreviousChain:     rkvtesting.Chain("", "REG1"),
		CertificateSerial: "1",
	})
	outage := rkvtesting.BuildJWS(t, nil, rkvtesting.Fields{
		AlgorithmPrefix: "R1", ZDA: "AT0", RegisterID: "REG1", ReceiptID: "r-2",
		SumA: "20.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		Turnover:          "SIGNATURE-SYSTEM-FAILED",
		PreviousChain:     rkvtesting.Chain(initial, "REG1"),
		CertificateSerial: "1",
	})
	// notRestore is the first receipt of the *next* chunk: the violation it
	// carries (a non-restore receipt right after a signed-broken one) only
	// shows up if the chunk boundary's projected starting state remembers
	// that r-2 left a restore owed.
	notRestore := rkvtesting.BuildJWS(t, key, rkvtesting.Fields{
		AlgorithmPrefix: "R1", ZDA: "AT0", RegisterID: "REG1", ReceiptID: "r-3",
		SumA: "5.00", SumB: "0.00", SumC: "0.00", SumD: "0.00", SumE: "0.00",
		Turnover:          rkvtesting.EncryptTurnover(t, "REG1", "r-3", 2500, tk, 8),
		PreviousChain:     rkvtesting.Chain(outage, "REG1"),
		CertificateSerial: "1",
	})

	newChunks := func() []depio.Chunk {
		return []depio.Chunk{
			{{Receipts: []string{initial, outage}}},
			{{Receipts: []string{notRestore}}},
		}
	}

	registry := algorithm.DefaultRegistry()

	_, err := cluster.VerifyDEP(&fakeParser{chunks: newChunks()}, store, registry, tk, cluster.New(), -1, 1)
	assert.ErrorIs(t, err, depverifyerr.ErrNoRestoreReceiptAfterSignatureSystemFailed)

	_, err = cluster.VerifyDEP(&fakeParser{chunks: newChunks()}, store, registry, tk, cluster.New(), -1, 2)
	assert.ErrorIs(t, err, depverifyerr.ErrNoRestoreReceiptAfterSignatureSystemFailed)
}

func TestVerifyDEP_NoStartReceiptForLastRegister(t *testing.T) {
	prior := cluster.New()
	prior.Registers = append(prior.Registers, register.CashRegisterState{LastReceiptJWS: "something"})

	_, err := cluster.VerifyDEP(&fakeParser{}, keystore.MapStore{}, algorithm.DefaultRegistry(), nil, prior, -1, 1)
	assert.ErrorIs(t, err, depverifyerr.ErrNoStartReceiptForLastRegister)
}
