// Package depio defines the parser contract the cluster orchestrator
// consumes and a concrete JSON-backed implementation of it, the way
// massifs/localmassifreader.go and massifs/logdircache.go stand between
// the verification core and a concrete Azure blob store.
package depio

import "crypto/x509"

// Group is an ordered list of JWS receipt strings sharing a single
// optional certificate and supporting chain.
type Group struct {
	Receipts []string
	Cert     *x509.Certificate
	Chain    []*x509.Certificate
}

// Chunk is a bounded batch of groups, the unit the orchestrator
// dispatches to a single parallel worker.
type Chunk []Group

// Parser yields the chunks of a DEP stream in order. Next returns
// io.EOF once the stream is exhausted.
type Parser interface {
	Next() (Chunk, error)
}
