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
	"sort"

	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// BatchQueue is the pre-Holocene batch multiplexer (spec.md §4.6.7):
// batches may arrive out of order relative to their epoch and are
// buffered until either the correct one is found or the sequencing
// window expires, at which point an empty batch is force-included so
// the chain keeps advancing even if the sequencer censored a window.
type BatchQueue struct {
	cfg   *rollup.Config
	upper *BatchStream

	buffered []bufferedBatch

	l1Origins []optypes.BlockInfo
	l1Time    uint64
}

type bufferedBatch struct {
	batch            *optypes.SingleBatch
	l1InclusionBlock uint64
}

func NewBatchQueue(cfg *rollup.Config, upper *BatchStream) *BatchQueue {
	return &BatchQueue{cfg: cfg, upper: upper}
}

// AddL1Origin records an L1 block the pipeline has advanced past, needed
// to force-include empty batches once the sequencing window for an
// epoch expires without a real batch arriving.
func (q *BatchQueue) AddL1Origin(origin optypes.BlockInfo) {
	q.l1Origins = append(q.l1Origins, origin)
	q.l1Time = origin.Time
}

// SetL1Time overrides the L1 time passed to the BatchStream below
// without touching the origins list, so a driver that already knows
// every origin up front (via L1Traversal.AllOrigins) can still track
// the pipeline's current position for hardfork-gated decompression.
func (q *BatchQueue) SetL1Time(t uint64) { q.l1Time = t }

// NextBatch returns the next batch admissible against parent, pulling
// and buffering from BatchStream as needed and force-including an empty
// batch once parent's epoch's sequencing window has expired.
func (q *BatchQueue) NextBatch(parent optypes.L2BlockInfo, currentL1Block uint64) (*optypes.SingleBatch, error) {
	for {
		if b, ok := q.takeAdmissible(parent); ok {
			return b, nil
		}
		if q.windowExpired(parent, currentL1Block) {
			return q.emptyBatch(parent), nil
		}
		batch, incl, err := q.upper.NextBatch(q.l1Time, currentL1Block)
		if err != nil {
			if optypes.IsTemporary(err) && q.windowExpired(parent, currentL1Block) {
				return q.emptyBatch(parent), nil
			}
			return nil, err
		}
		q.buffered = append(q.buffered, bufferedBatch{batch: batch, l1InclusionBlock: incl})
		sort.SliceStable(q.buffered, func(i, j int) bool {
			if q.buffered[i].batch.Timestamp != q.buffered[j].batch.Timestamp {
				return q.buffered[i].batch.Timestamp < q.buffered[j].batch.Timestamp
			}
			return q.buffered[i].batch.EpochNum < q.buffered[j].batch.EpochNum
		})
	}
}

func (q *BatchQueue) takeAdmissible(parent optypes.L2BlockInfo) (*optypes.SingleBatch, bool) {
	for i, buf := range q.buffered {
		if err := buf.batch.CheckParent(parent, q.cfg.BlockTime); err != nil {
			if optypes.IsCritical(err) {
				q.buffered = append(q.buffered[:i], q.buffered[i+1:]...)
				return q.takeAdmissible(parent)
			}
			continue
		}
		if buf.batch.EpochNum > parent.L1Origin.Number+1 {
			continue
		}
		q.buffered = append(q.buffered[:i], q.buffered[i+1:]...)
		return buf.batch, true
	}
	return nil, false
}

// windowExpired reports whether parent's epoch has gone seq_window_size
// L1 blocks without a usable batch arriving, at which point the pipeline
// must force progress with an empty batch rather than stall forever.
func (q *BatchQueue) windowExpired(parent optypes.L2BlockInfo, currentL1Block uint64) bool {
	return currentL1Block > parent.L1Origin.Number+q.cfg.SeqWindowSize
}

// emptyBatch synthesizes a batch with no transactions, advancing the
// epoch by one if the next known L1 origin is available and within the
// sequencer drift bound, otherwise staying within the current epoch.
func (q *BatchQueue) emptyBatch(parent optypes.L2BlockInfo) *optypes.SingleBatch {
	epochNum, epochHash := parent.L1Origin.Number, parent.L1Origin.Hash
	nextTime := parent.Time + q.cfg.BlockTime
	if next, ok := q.nextOriginAfter(parent.L1Origin.Number); ok && nextTime > next.Time+q.cfg.MaxSequencerDrift {
		epochNum, epochHash = next.Number, next.Hash
	}
	return &optypes.SingleBatch{
		ParentHash:   parent.Hash,
		EpochNum:     epochNum,
		EpochHash:    epochHash,
		Timestamp:    nextTime,
		Transactions: nil,
	}
}

func (q *BatchQueue) nextOriginAfter(number uint64) (optypes.BlockInfo, bool) {
	for _, o := range q.l1Origins {
		if o.Number == number+1 {
			return o, true
		}
	}
	return optypes.BlockInfo{}, false
}
