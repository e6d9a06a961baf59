// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package transport abstracts the inter-process collective operations
// package merge needs (point-to-point send/recv, broadcast, gather)
// behind a small interface, the same way package clockid injects the
// time source. No MPI binding ships in this module — a host embedding
// Recorder under MPI provides its own Transport; Local (local.go) is the
// single-process implementation used when RECORDER_WITH_NON_MPI is
// set.
package transport

import (
	"context"
	"fmt"

	"github.com/hpc-io/recorder/clockid"
)

// Transport is the collective-communication collaborator the merger
// (package merge) is built against. All methods must be safe to call
// only at finalize time, with every rank's writer already quiesced
// (spec.md §5); implementations need not support concurrent capture.
type Transport interface {
	// Rank returns this process's rank.
	Rank() clockid.Rank
	// Size returns the total number of ranks participating.
	Size() int
	// Send blocks until data has been handed off to partner.
	Send(ctx context.Context, partner clockid.Rank, data []byte) error
	// Recv blocks until a message from partner is available and
	// returns its payload.
	Recv(ctx context.Context, partner clockid.Rank) ([]byte, error)
	// Bcast distributes data from root to every rank; non-root
	// callers pass a nil data and receive root's payload back.
	Bcast(ctx context.Context, root clockid.Rank, data []byte) ([]byte, error)
	// Gather collects every rank's data at root, indexed by rank.
	// Non-root callers receive nil.
	Gather(ctx context.Context, root clockid.Rank, data []byte) ([][]byte, error)
}

// ErrNoPartner is returned by Local's Send/Recv: a single-process
// transport has no partner to exchange messages with.
var ErrNoPartner = fmt.Errorf("transport: single-process transport has no partner rank")
