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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// queueBatchStreamOf builds a BatchStream backed by a single channel-
// banked, zlib-compressed batch so BatchQueue exercises the real decode
// chain.
func queueBatchStreamOf(t *testing.T, cfg *rollup.Config, batch *optypes.SingleBatch) *BatchStream {
	t.Helper()
	return batchStreamWithChannel(t, cfg, &optypes.RawBatch{Type: optypes.SingleBatchType, Single: batch})
}

func parentInfo(hash common.Hash, time uint64, originNum uint64) optypes.L2BlockInfo {
	return optypes.L2BlockInfo{
		BlockInfo: optypes.BlockInfo{Hash: hash, Time: time},
		L1Origin:  optypes.ID{Number: originNum},
	}
}

func TestBatchQueue_ReturnsAdmissibleBatch(t *testing.T) {
	cfg := &rollup.Config{ChannelTimeout: 100, BlockTime: 2, SeqWindowSize: 100}
	parentHash := common.HexToHash("0xaa")
	batch := &optypes.SingleBatch{ParentHash: parentHash, EpochNum: 5, Timestamp: 1002}
	bs := queueBatchStreamOf(t, cfg, batch)
	q := NewBatchQueue(cfg, bs)
	q.AddL1Origin(optypes.BlockInfo{Number: 5, Time: 1000})

	parent := parentInfo(parentHash, 1000, 5)
	got, err := q.NextBatch(parent, 5)
	require.NoError(t, err)
	require.Equal(t, batch, got)
}

func TestBatchQueue_ForceIncludesEmptyBatchOnWindowExpiry(t *testing.T) {
	cfg := &rollup.Config{ChannelTimeout: 100, BlockTime: 2, SeqWindowSize: 10}
	// an empty upstream: BatchStream with no channel ever arrives, so the
	// only way forward is force-including an empty batch.
	emptyCfg := &rollup.Config{ChannelTimeout: 100}
	fq := NewFrameQueue(emptyCfg, &L1Retrieval{traversal: &L1Traversal{}})
	bank := NewChannelBank(emptyCfg, fq)
	reader := NewChannelReader(emptyCfg, bank)
	bs := NewBatchStream(reader)

	q := NewBatchQueue(cfg, bs)
	parentHash := common.HexToHash("0xbb")
	parent := parentInfo(parentHash, 1000, 5)
	q.AddL1Origin(optypes.BlockInfo{Number: 5, Time: 1000})

	got, err := q.NextBatch(parent, 20) // well past parent.L1Origin(5) + SeqWindowSize(10)
	require.NoError(t, err)
	require.Empty(t, got.Transactions)
	require.Equal(t, parentHash, got.ParentHash)
	require.Equal(t, uint64(1002), got.Timestamp)
}

func TestBatchQueue_RejectsBatchWithBadParentHash(t *testing.T) {
	cfg := &rollup.Config{ChannelTimeout: 100, BlockTime: 2, SeqWindowSize: 10}
	batch := &optypes.SingleBatch{ParentHash: common.HexToHash("0xdead"), EpochNum: 5, Timestamp: 1002}
	bs := queueBatchStreamOf(t, cfg, batch)
	q := NewBatchQueue(cfg, bs)
	q.AddL1Origin(optypes.BlockInfo{Number: 5, Time: 1000})

	parent := parentInfo(common.HexToHash("0xaa"), 1000, 5)
	// within the sequencing window, the mismatched batch is buffered
	// (Reset-classified, not dropped) and derivation stalls waiting for a
	// matching batch rather than advancing on a reset-worthy one.
	_, err := q.NextBatch(parent, 5)
	require.Error(t, err)
	require.True(t, optypes.IsTemporary(err))

	// once the window expires, the still-buffered mismatched batch is
	// skipped and an empty batch is force-included instead.
	got, err := q.NextBatch(parent, 20)
	require.NoError(t, err)
	require.Empty(t, got.Transactions)
}
