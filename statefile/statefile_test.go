package statefile_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rksv-go/depverify/cluster"
	"github.com/rksv-go/depverify/register"
	"github.com/rksv-go/depverify/statefile"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	s := cluster.New()
	s.Registers = []register.CashRegisterState{
		{LastReceiptJWS: "jws-1", LastTurnoverCounter: 15000, StartReceiptJWS: "jws-0"},
		{LastReceiptJWS: "jws-2", LastTurnoverCounter: 0, NeedRestoreReceipt: true, StartReceiptJWS: "jws-2"},
	}
	s.UsedReceiptIDs = map[string]struct{}{"r-1": {}, "r-2": {}, "r-3": {}}

	data, err := statefile.Encode(s)
	require.NoError(t, err)

	decoded, err := statefile.Decode(data)
	require.NoError(t, err)

	assert.Equal(t, s.Registers, decoded.Registers)
	assert.Equal(t, s.UsedReceiptIDs, decoded.UsedReceiptIDs)
}

func TestEncode_EmptyStateProducesEmptyArraysNotNull(t *testing.T) {
	data, err := statefile.Encode(cluster.New())
	require.NoError(t, err)

	var doc struct {
		CashRegisters  []register.CashRegisterState `json:"CashRegisters"`
		UsedReceiptIds []string                     `json:"UsedReceiptIds"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.NotNil(t, doc.CashRegisters)
	assert.NotNil(t, doc.UsedReceiptIds)
	assert.Empty(t, doc.CashRegisters)
	assert.Empty(t, doc.UsedReceiptIds)
}

func TestDecode_EmptyStateRoundTrips(t *testing.T) {
	data, err := statefile.Encode(cluster.New())
	require.NoError(t, err)

	decoded, err := statefile.Decode(data)
	require.NoError(t, err)
	assert.Empty(t, decoded.Registers)
	assert.Empty(t, decoded.UsedReceiptIDs)
}

func TestDecode_InvalidJSONErrors(t *testing.T) {
	_, err := statefile.Decode([]byte("not json"))
	assert.Error(t, err)
}

func TestDecode_DuplicateUsedReceiptIdsCollapse(t *testing.T) {
	data := []byte(`{"CashRegisters":[],"UsedReceiptIds":["r-1","r-1","r-2"]}`)

	decoded, err := statefile.Decode(data)
	require.NoError(t, err)
	assert.Len(t, decoded.UsedReceiptIDs, 2)
	assert.Contains(t, decoded.UsedReceiptIDs, "r-1")
	assert.Contains(t, decoded.UsedReceiptIDs, "r-2")
}
