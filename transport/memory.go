// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"
	"fmt"
	"sync"

	"github.com/hpc-io/recorder/clockid"
)

// MemoryFabric is an in-process Transport implementation that wires P
// simulated ranks together with channels, for testing package merge's
// collectives without a real MPI binding. It is not part of the
// production surface; a host process uses its own MPI-backed
// Transport.
type MemoryFabric struct {
	p        int
	pairCh   map[[2]int]chan []byte
	bcastRV  *rendezvous
	gatherRV *rendezvous
}

// NewMemoryFabric builds p simulated ranks and returns their
// Transport handles, indexed by rank.
func NewMemoryFabric(p int) []Transport {
	f := &MemoryFabric{
		p:        p,
		pairCh:   make(map[[2]int]chan []byte),
		bcastRV:  newRendezvous(p),
		gatherRV: newRendezvous(p),
	}
	for i := 0; i < p; i++ {
		for j := 0; j < p; j++ {
			if i != j {
				f.pairCh[[2]int{i, j}] = make(chan []byte, 4)
			}
		}
	}
	out := make([]Transport, p)
	for i := 0; i < p; i++ {
		out[i] = &memoryRank{fabric: f, rank: clockid.Rank(i)}
	}
	return out
}

type memoryRank struct {
	fabric *MemoryFabric
	rank   clockid.Rank
}

var _ Transport = (*memoryRank)(nil)

func (m *memoryRank) Rank() clockid.Rank { return m.rank }
func (m *memoryRank) Size() int          { return m.fabric.p }

func (m *memoryRank) Send(ctx context.Context, partner clockid.Rank, data []byte) error {
	ch, ok := m.fabric.pairCh[[2]int{int(m.rank), int(partner)}]
	if !ok {
		return fmt.Errorf("transport: no channel from rank %d to %d", m.rank, partner)
	}
	select {
	case ch <- data:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *memoryRank) Recv(ctx context.Context, partner clockid.Rank) ([]byte, error) {
	ch, ok := m.fabric.pairCh[[2]int{int(partner), int(m.rank)}]
	if !ok {
		return nil, fmt.Errorf("transport: no channel from rank %d to %d", partner, m.rank)
	}
	select {
	case data := <-ch:
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (m *memoryRank) Bcast(ctx context.Context, root clockid.Rank, data []byte) ([]byte, error) {
	all := m.fabric.bcastRV.arrive(int(m.rank), data)
	return all[root], nil
}

func (m *memoryRank) Gather(ctx context.Context, root clockid.Rank, data []byte) ([][]byte, error) {
	all := m.fabric.gatherRV.arrive(int(m.rank), data)
	if m.rank != root {
		return nil, nil
	}
	return all, nil
}

// rendezvous is a reusable all-to-all barrier: every rank calls
// arrive once per round and receives every rank's contribution for
// that round once the last one arrives.
type rendezvous struct {
	mu            sync.Mutex
	cond          *sync.Cond
	round         int
	arrived       int
	contributions [][]byte
}

func newRendezvous(p int) *rendezvous {
	r := &rendezvous{contributions: make([][]byte, p)}
	r.cond = sync.NewCond(&r.mu)
	return r
}

func (r *rendezvous) arrive(rank int, data []byte) [][]byte {
	r.mu.Lock()
	defer r.mu.Unlock()
	myRound := r.round
	r.contributions[rank] = data
	r.arrived++
	if r.arrived == len(r.contributions) {
		r.arrived = 0
		r.round++
		r.cond.Broadcast()
	} else {
		for r.round == myRound {
			r.cond.Wait()
		}
	}
	out := make([][]byte, len(r.contributions))
	copy(out, r.contributions)
	return out
}
