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
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// BatchValidator is the Holocene+ batch multiplexer (spec.md §4.6.7):
// unlike BatchQueue it admits batches strictly in the order they arrive,
// rejecting (not buffering or reordering) anything that violates §3's
// admissibility invariants.
type BatchValidator struct {
	cfg   *rollup.Config
	upper *BatchStream

	l1Time uint64
}

func NewBatchValidator(cfg *rollup.Config, upper *BatchStream) *BatchValidator {
	return &BatchValidator{cfg: cfg, upper: upper}
}

func (v *BatchValidator) SetL1Time(t uint64) { v.l1Time = t }

// NextBatch returns the next batch admissible against parent, or an
// error (never buffering a rejected batch for later).
func (v *BatchValidator) NextBatch(parent optypes.L2BlockInfo, currentL1Block uint64) (*optypes.SingleBatch, error) {
	for {
		batch, _, err := v.upper.NextBatch(v.l1Time, currentL1Block)
		if err != nil {
			return nil, err
		}
		if err := batch.CheckParent(parent, v.cfg.BlockTime); err != nil {
			if optypes.IsCritical(err) {
				// strict rejection: drop and keep looking, the batcher
				// must resubmit a valid batch for this slot.
				continue
			}
			return nil, err
		}
		if batch.EpochNum > parent.L1Origin.Number+1 {
			continue
		}
		return batch, nil
	}
}
