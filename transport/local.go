// Copyright 2015 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package transport

import (
	"context"

	"github.com/hpc-io/recorder/clockid"
)

// Local is the single-process Transport used when the core runs
// without an inter-process collective (RECORDER_WITH_NON_MPI). Size
// is always 1, so package merge's recursive-doubling loop degenerates
// to zero phases and every collective is a same-rank no-op.
type Local struct{}

var _ Transport = Local{}

func (Local) Rank() clockid.Rank { return 0 }
func (Local) Size() int          { return 1 }

func (Local) Send(ctx context.Context, partner clockid.Rank, data []byte) error {
	return ErrNoPartner
}

func (Local) Recv(ctx context.Context, partner clockid.Rank) ([]byte, error) {
	return nil, ErrNoPartner
}

func (Local) Bcast(ctx context.Context, root clockid.Rank, data []byte) ([]byte, error) {
	return data, nil
}

func (Local) Gather(ctx context.Context, root clockid.Rank, data []byte) ([][]byte, error) {
	return [][]byte{data}, nil
}
