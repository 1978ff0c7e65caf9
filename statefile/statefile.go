// Package statefile (de)serializes cluster.State as a structured
// persistence document, the way massifs/logformat.go defines a
// structured wire header around its core massif data. It is a thin
// codec, not a second representation: both document and
// document-to-state mapping are direct field copies.
package statefile

import (
	"encoding/json"
	"sort"

	"github.com/rksv-go/depverify/cluster"
	"github.com/rksv-go/depverify/register"
)

// document is the two-top-level-field persisted shape: an ordered list
// of per-register records, plus the cluster-wide list of used receipt
// IDs.
type document struct {
	CashRegisters  []register.CashRegisterState `json:"CashRegisters"`
	UsedReceiptIds []string                     `json:"UsedReceiptIds"`
}

// Encode serializes s as indented JSON.
func Encode(s cluster.State) ([]byte, error) {
	ids := make([]string, 0, len(s.UsedReceiptIDs))
	for id := range s.UsedReceiptIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	doc := document{
		CashRegisters:  s.Registers,
		UsedReceiptIds: ids,
	}
	if doc.CashRegisters == nil {
		doc.CashRegisters = []register.CashRegisterState{}
	}
	if doc.UsedReceiptIds == nil {
		doc.UsedReceiptIds = []string{}
	}
	return json.MarshalIndent(doc, "", "  ")
}

// Decode reverses Encode, rebuilding the used-ID set as a map.
func Decode(data []byte) (cluster.State, error) {
	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return cluster.State{}, err
	}

	s := cluster.New()
	s.Registers = doc.CashRegisters
	for _, id := range doc.UsedReceiptIds {
		s.UsedReceiptIDs[id] = struct{}{}
	}
	return s, nil
}
