// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package merge implements the inter-process reduction described in
// spec.md §4.6: a recursive-doubling CST merge that produces a single
// table with globally unique terminal ids, the CFG terminal remap
// that follows from it, and whole-grammar deduplication across ranks.
package merge

import (
	"context"
	"fmt"

	"github.com/hpc-io/recorder/callsig"
	"github.com/hpc-io/recorder/clockid"
	"github.com/hpc-io/recorder/transport"
)

// reduceCST runs the recursive-doubling reduction and returns the
// fully merged table on rank 0 (and only rank 0 — every other rank
// sends its accumulated contribution to a partner at some phase and
// is done). ok is false for every rank except the one holding the
// final result.
func reduceCST(ctx context.Context, t transport.Transport, local *callsig.Table) (merged *callsig.Table, ok bool, err error) {
	rank := int(t.Rank())
	p := t.Size()
	acc := local.Clone()

	for k := 0; (1 << k) < p; k++ {
		partner := rank ^ (1 << k)
		if partner >= p {
			continue
		}
		if rank < partner {
			data, rerr := t.Recv(ctx, clockid.Rank(partner))
			if rerr != nil {
				return nil, false, fmt.Errorf("merge: recv from rank %d at phase %d: %w", partner, k, rerr)
			}
			other, derr := callsig.DeserializeMerged(data)
			if derr != nil {
				return nil, false, fmt.Errorf("merge: decode rank %d's CST at phase %d: %w", partner, k, derr)
			}
			acc.MergeFrom(other)
		} else {
			if serr := t.Send(ctx, clockid.Rank(partner), acc.SerializeMerged()); serr != nil {
				return nil, false, fmt.Errorf("merge: send to rank %d at phase %d: %w", partner, k, serr)
			}
			return nil, false, nil
		}
	}
	return acc, true, nil
}
