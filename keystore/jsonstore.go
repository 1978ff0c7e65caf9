package keystore

import (
	"crypto/x509"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// LoadJSON builds a MapStore from a JSON document mapping canonical key
// IDs to base64-encoded DER certificates:
//
//	{"12345": "<base64 DER>", "-9876": "<base64 DER>"}
//
// This is the concrete key store a deployment points the CLI at; the
// verification core only ever sees the Store interface.
func LoadJSON(data []byte) (MapStore, error) {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("keystore: invalid JSON: %w", err)
	}

	store := make(MapStore, len(raw))
	for keyID, certB64 := range raw {
		der, err := base64.StdEncoding.DecodeString(certB64)
		if err != nil {
			return nil, fmt.Errorf("keystore: key %q: invalid base64 certificate: %w", keyID, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("keystore: key %q: invalid certificate: %w", keyID, err)
		}
		store[keyID] = cert
	}
	return store, nil
}
