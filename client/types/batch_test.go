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

package types

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestSingleBatch_CheckParent(t *testing.T) {
	parent := L2BlockInfo{
		BlockInfo: BlockInfo{Hash: common.HexToHash("0xaa"), Time: 1000},
		L1Origin:  ID{Number: 5},
	}
	ok := &SingleBatch{ParentHash: common.HexToHash("0xaa"), Timestamp: 1002, EpochNum: 5}
	require.NoError(t, ok.CheckParent(parent, 2))

	badParent := &SingleBatch{ParentHash: common.HexToHash("0xbb"), Timestamp: 1002, EpochNum: 5}
	err := badParent.CheckParent(parent, 2)
	require.Error(t, err)
	require.True(t, IsReset(err))

	badTime := &SingleBatch{ParentHash: common.HexToHash("0xaa"), Timestamp: 1003, EpochNum: 5}
	err = badTime.CheckParent(parent, 2)
	require.Error(t, err)
	require.True(t, IsCritical(err))

	badEpoch := &SingleBatch{ParentHash: common.HexToHash("0xaa"), Timestamp: 1002, EpochNum: 4}
	err = badEpoch.CheckParent(parent, 2)
	require.Error(t, err)
	require.True(t, IsCritical(err))
}

func batchWithHashes(parent, epoch common.Hash) *SingleBatch {
	return &SingleBatch{ParentHash: parent, EpochHash: epoch, Timestamp: 1}
}

func TestSpanBatch_ExpandValidatesConsistencyChecks(t *testing.T) {
	parent := common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	epoch := common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")
	batches := []*SingleBatch{batchWithHashes(parent, epoch), batchWithHashes(common.Hash{}, epoch)}

	span := NewSpanBatch(batches)
	got, err := span.Expand()
	require.NoError(t, err)
	require.Equal(t, batches, got)
}

func TestSpanBatch_ExpandRejectsEmpty(t *testing.T) {
	span := &SpanBatch{}
	_, err := span.Expand()
	require.Error(t, err)
	require.True(t, IsCritical(err))
}

func TestSpanBatch_ExpandRejectsTamperedParentCheck(t *testing.T) {
	parent := common.HexToHash("0x1111111111111111111111111111111111111111111111111111111111111111")
	epoch := common.HexToHash("0x2222222222222222222222222222222222222222222222222222222222222222")
	span := NewSpanBatch([]*SingleBatch{batchWithHashes(parent, epoch)})
	span.ParentCheck[0] ^= 0xff

	_, err := span.Expand()
	require.Error(t, err)
}

func TestRawBatch_MarshalDecodeRoundTrip(t *testing.T) {
	single := &SingleBatch{
		ParentHash:   common.HexToHash("0x01"),
		EpochNum:     7,
		EpochHash:    common.HexToHash("0x02"),
		Timestamp:    42,
		Transactions: [][]byte{{0xde, 0xad}},
	}
	raw := &RawBatch{Type: SingleBatchType, Single: single}
	enc, err := raw.MarshalBinary()
	require.NoError(t, err)

	decoded, err := DecodeRawBatch(enc)
	require.NoError(t, err)
	require.Equal(t, SingleBatchType, decoded.Type)
	require.Equal(t, single, decoded.Single)
}

func TestDecodeRawBatch_UnknownTypeIsCritical(t *testing.T) {
	_, err := DecodeRawBatch([]byte{0x07})
	require.Error(t, err)
	require.True(t, IsCritical(err))
}

func TestDecodeRawBatch_EmptyIsCritical(t *testing.T) {
	_, err := DecodeRawBatch(nil)
	require.Error(t, err)
	require.True(t, IsCritical(err))
}
