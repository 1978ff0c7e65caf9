package cluster

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rksv-go/depverify/algorithm"
	"github.com/rksv-go/depverify/depio"
	"github.com/rksv-go/depverify/depverifyerr"
	"github.com/rksv-go/depverify/keystore"
	"github.com/rksv-go/depverify/register"
	"github.com/rksv-go/depverify/verifyreceipt"
)

// VerifyDEP verifies a full DEP stream read from parser and folds the
// result into prior, returning the updated cluster state.
//
// registerIndex selects which register within the cluster this DEP
// extends; pass -1 to append a new register (its first receipt is
// chained to the prior register's start receipt, if any). workers
// controls the size of the parallel worker pool; 1 verifies the chunks
// one after another on a single worker goroutine.
func VerifyDEP(
	parser depio.Parser,
	store keystore.Store,
	registry *algorithm.Registry,
	turnoverKey []byte,
	prior State,
	registerIndex int,
	workers int,
) (State, error) {
	if registry == nil {
		registry = algorithm.DefaultRegistry()
	}
	if workers < 1 {
		workers = 1
	}

	st := prior.clone()

	var startState register.CashRegisterState
	var prevClusterStart string

	if registerIndex < 0 {
		if n := len(st.Registers); n > 0 {
			last := st.Registers[n-1]
			if last.StartReceiptJWS == "" {
				return State{}, depverifyerr.ErrNoStartReceiptForLastRegister
			}
			prevClusterStart = last.StartReceiptJWS
		}
		st.Registers = append(st.Registers, register.CashRegisterState{})
		registerIndex = len(st.Registers) - 1
	} else if registerIndex >= len(st.Registers) {
		return State{}, fmt.Errorf("%w: %d", depverifyerr.ErrInvalidCashRegisterIndex, registerIndex)
	} else {
		startState = st.Registers[registerIndex]
	}

	chunks, err := readAllChunks(parser)
	if err != nil {
		return State{}, err
	}
	if len(chunks) == 0 {
		return st, nil
	}

	chunkStarts := make([]register.CashRegisterState, len(chunks)+1)
	chunkStarts[0] = startState
	for i, chunk := range chunks {
		chunkStarts[i+1] = project(chunk, chunkStarts[i])
	}

	results, err := runChunksParallel(chunks, chunkStarts, registry, store, turnoverKey, prevClusterStart, workers)
	if err != nil {
		return State{}, err
	}

	merged := make(map[string]struct{}, len(st.UsedReceiptIDs))
	for id := range st.UsedReceiptIDs {
		merged[id] = struct{}{}
	}
	for _, res := range results {
		for id := range res.used {
			if _, dup := merged[id]; dup {
				return State{}, depverifyerr.AtReceipt(id, depverifyerr.ErrDuplicateReceiptID)
			}
			merged[id] = struct{}{}
		}
	}

	st.Registers[registerIndex] = results[len(results)-1].state
	st.UsedReceiptIDs = merged
	return st, nil
}

func readAllChunks(parser depio.Parser) ([]depio.Chunk, error) {
	var chunks []depio.Chunk
	for {
		c, err := parser.Next()
		if err == io.EOF {
			return chunks, nil
		}
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, c)
	}
}

type chunkResult struct {
	state register.CashRegisterState
	used  map[string]struct{}
}

// runChunksParallel dispatches one verification job per chunk to a
// bounded worker pool. Each job owns its chunk and precomputed starting
// state exclusively; the only shared data is the job queue and the
// first-error cancellation signal, mirroring the fan-out/fan-in pool
// with cancel-on-error in DanDo385-go-edu's worker-pool-wordcount mini.
func runChunksParallel(
	chunks []depio.Chunk,
	chunkStarts []register.CashRegisterState,
	registry *algorithm.Registry,
	store keystore.Store,
	turnoverKey []byte,
	prevClusterStart string,
	workers int,
) ([]chunkResult, error) {
	type job struct {
		index int
		chunk depio.Chunk
		start register.CashRegisterState
	}

	results := make([]chunkResult, len(chunks))
	jobs := make(chan job, len(chunks))
	errCh := make(chan error, 1)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var wg sync.WaitGroup
	if workers > len(chunks) {
		workers = len(chunks)
	}
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case j, ok := <-jobs:
					if !ok {
						return
					}
					verifiers, err := assignVerifiers(j.chunk, store, registry)
					if err != nil {
						select {
						case errCh <- err:
							cancel()
						default:
						}
						return
					}
					finalState, used, err := runChunk(j.chunk, verifiers, turnoverKey, prevClusterStart, j.start)
					if err != nil {
						select {
						case errCh <- err:
							cancel()
						default:
						}
						return
					}
					results[j.index] = chunkResult{state: finalState, used: used}
				}
			}
		}()
	}

	for i, c := range chunks {
		jobs <- job{index: i, chunk: c, start: chunkStarts[i]}
	}
	close(jobs)

	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
		return results, nil
	}
}

func runChunk(
	chunk depio.Chunk,
	verifiers []verifyreceipt.Verifier,
	turnoverKey []byte,
	prevClusterStart string,
	state register.CashRegisterState,
) (register.CashRegisterState, map[string]struct{}, error) {
	used := make(map[string]struct{})
	for i, g := range chunk {
		var err error
		state, used, err = register.VerifyGroup(g.Receipts, verifiers[i], turnoverKey, prevClusterStart, state, used)
		if err != nil {
			return state, used, err
		}
	}
	return state, used, nil
}
