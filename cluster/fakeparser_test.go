package cluster_test

import (
	"io"

	"github.com/rksv-go/depverify/depio"
)

// fakeParser serves a pre-chunked sequence of groups directly, letting
// orchestrator tests control exactly how many chunks a DEP run is split
// into without going through depio.JSONParser.
type fakeParser struct {
	chunks []depio.Chunk
	pos    int
}

func (p *fakeParser) Next() (depio.Chunk, error) {
	if p.pos >= len(p.chunks) {
		return nil, io.EOF
	}
	c := p.chunks[p.pos]
	p.pos++
	return c, nil
}
