// Copyright 2024 The op-program Authors
// This file is part of op-program.
//
// op-program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// op-program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with op-program. If not, see <http://www.gnu.org/licenses/>.

package derivation

import (
	"github.com/ethereum-optimism/op-program/client/attributes"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// batchSource is the common shape of BatchQueue and BatchValidator: the
// Attributes Queue doesn't care which hardfork-gated multiplexer sits
// below it.
type batchSource interface {
	NextBatch(parent optypes.L2BlockInfo, currentL1Block uint64) (*optypes.SingleBatch, error)
}

// AttributesQueue is the pipeline's root stage (spec.md §4.6.8): given
// the current L2 safe head, it asks the batch multiplexer below for the
// next batch and the Attributes Builder for the resulting payload
// attributes.
type AttributesQueue struct {
	cfg       *rollup.Config
	builder   *attributes.Builder
	upper     batchSource
	traversal *L1Traversal

	// seqNumber tracks the position of the next batch within its epoch,
	// reset to 0 whenever the epoch (L1 origin) advances.
	seqNumber uint64
	lastEpoch optypes.ID
	haveEpoch bool
}

func NewAttributesQueue(cfg *rollup.Config, builder *attributes.Builder, upper batchSource, traversal *L1Traversal) *AttributesQueue {
	return &AttributesQueue{cfg: cfg, builder: builder, upper: upper, traversal: traversal}
}

// NextAttributes returns the next block's payload attributes built
// against parent.
func (a *AttributesQueue) NextAttributes(parent optypes.L2BlockInfo, currentL1Block uint64) (*optypes.AttributesWithParent, error) {
	batch, err := a.upper.NextBatch(parent, currentL1Block)
	if err != nil {
		return nil, err
	}
	if !a.haveEpoch || a.lastEpoch != batch.Epoch() {
		a.seqNumber = 0
		a.lastEpoch = batch.Epoch()
		a.haveEpoch = true
	} else {
		a.seqNumber++
	}

	epoch := optypes.BlockInfo{Hash: batch.EpochHash, Number: batch.EpochNum}
	sysCfg := a.traversal.SystemConfig()

	attrs, err := a.builder.BuildAttributes(parent, epoch, sysCfg, batch, a.seqNumber)
	if err != nil {
		return nil, err
	}
	return &optypes.AttributesWithParent{
		Attributes:   attrs,
		Parent:       parent,
		L1Origin:     batch.Epoch(),
		IsLastInSpan: true,
	}, nil
}
