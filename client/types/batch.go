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
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"
)

var (
	errParentHashMismatch = errors.New("batch parent hash does not match safe head")
	errBadTimestamp       = errors.New("batch timestamp does not match parent.timestamp + block_time")
	errEpochRegression    = errors.New("batch epoch number precedes parent L1 origin")
)

// BatchType distinguishes the two RawBatch wire encodings.
type BatchType uint8

const (
	SingleBatchType BatchType = 0
	SpanBatchType   BatchType = 1
)

// SingleBatch is one L2 block's worth of sequenced transactions plus the
// epoch metadata it was sequenced against.
type SingleBatch struct {
	ParentHash   common.Hash
	EpochNum     uint64
	EpochHash    common.Hash
	Timestamp    uint64
	Transactions []hexBytes
}

type hexBytes = []byte

// L1InclusionBlock is set by the stage that produced this batch, recording
// which L1 block it was read from (needed for sequencing-window logic).
type BatchWithInclusion struct {
	Batch            *SingleBatch
	L1InclusionBlock uint64
}

// Epoch returns the ID this batch claims to be sequenced within.
func (b *SingleBatch) Epoch() ID {
	return ID{Hash: b.EpochHash, Number: b.EpochNum}
}

// CheckParent checks that the batch extends parent: its parent hash must
// match (a Reset error otherwise), its timestamp must be parent.Time +
// l2BlockTime, and its epoch must not precede parent's L1 origin (a
// Critical error for either of those).
func (b *SingleBatch) CheckParent(parent L2BlockInfo, l2BlockTime uint64) error {
	if b.ParentHash != parent.Hash {
		return NewResetError(errParentHashMismatch)
	}
	if b.Timestamp != parent.Time+l2BlockTime {
		return NewCriticalError(errBadTimestamp)
	}
	if b.EpochNum < parent.L1Origin.Number {
		return NewCriticalError(errEpochRegression)
	}
	return nil
}

// SpanBatch is the compressed, hardfork-Delta+ representation of many
// consecutive single batches sharing a contiguous L1 epoch range.
// ParentCheck/L1OriginCheck are the low 20 bytes of the first batch's
// parent hash and the last batch's epoch hash, carried alongside the
// batches themselves as a cheap consistency check against a reorg that
// happened between when the batcher built the span and when it is
// decoded here.
type SpanBatch struct {
	ParentCheck   [20]byte
	L1OriginCheck [20]byte
	Batches       []*SingleBatch
}

var (
	errSpanBatchEmpty       = errors.New("span batch has no batches")
	errSpanBatchParentCheck = errors.New("span batch parent check mismatch")
	errSpanBatchOriginCheck = errors.New("span batch l1 origin check mismatch")
)

// Expand validates the span batch's consistency checks and returns its
// constituent single batches in order. It does not check per-batch
// admissibility against a safe head; that is BatchQueue/BatchValidator's
// job once each batch is pulled out one at a time.
func (b *SpanBatch) Expand() ([]*SingleBatch, error) {
	if len(b.Batches) == 0 {
		return nil, NewCriticalError(errSpanBatchEmpty)
	}
	first, last := b.Batches[0], b.Batches[len(b.Batches)-1]
	if !bytes.Equal(b.ParentCheck[:], first.ParentHash.Bytes()[12:]) {
		return nil, NewCriticalError(errSpanBatchParentCheck)
	}
	if !bytes.Equal(b.L1OriginCheck[:], last.EpochHash.Bytes()[12:]) {
		return nil, NewCriticalError(errSpanBatchOriginCheck)
	}
	return b.Batches, nil
}

// NewSpanBatch derives the ParentCheck/L1OriginCheck fields from the
// given batches, which must be non-empty and already contiguous.
func NewSpanBatch(batches []*SingleBatch) *SpanBatch {
	sb := &SpanBatch{Batches: batches}
	if len(batches) == 0 {
		return sb
	}
	copy(sb.ParentCheck[:], batches[0].ParentHash.Bytes()[12:])
	copy(sb.L1OriginCheck[:], batches[len(batches)-1].EpochHash.Bytes()[12:])
	return sb
}

// RawBatch is the decompressed, RLP-decoded envelope read off a channel's
// byte stream: exactly one of Single or Span is non-nil.
type RawBatch struct {
	Type   BatchType
	Single *SingleBatch
	Span   *SpanBatch
}

// MarshalBinary RLP-encodes the batch with its type tag as the leading
// byte, the wire format the batcher posts to the batch inbox.
func (b *RawBatch) MarshalBinary() ([]byte, error) {
	var payload interface{}
	switch b.Type {
	case SingleBatchType:
		payload = b.Single
	case SpanBatchType:
		payload = b.Span
	default:
		return nil, fmt.Errorf("unknown batch type %d", b.Type)
	}
	enc, err := rlp.EncodeToBytes(payload)
	if err != nil {
		return nil, err
	}
	return append([]byte{byte(b.Type)}, enc...), nil
}

// DecodeRawBatch parses a single RLP-encoded, type-tagged batch out of a
// decompressed channel byte stream.
func DecodeRawBatch(data []byte) (*RawBatch, error) {
	if len(data) == 0 {
		return nil, NewCriticalError(errors.New("empty batch data"))
	}
	switch BatchType(data[0]) {
	case SingleBatchType:
		var sb SingleBatch
		if err := rlp.DecodeBytes(data[1:], &sb); err != nil {
			return nil, NewCriticalError(fmt.Errorf("decode single batch: %w", err))
		}
		return &RawBatch{Type: SingleBatchType, Single: &sb}, nil
	case SpanBatchType:
		var sb SpanBatch
		if err := rlp.DecodeBytes(data[1:], &sb); err != nil {
			return nil, NewCriticalError(fmt.Errorf("decode span batch: %w", err))
		}
		return &RawBatch{Type: SpanBatchType, Span: &sb}, nil
	default:
		return nil, NewCriticalError(fmt.Errorf("unknown batch type %d", data[0]))
	}
}

// DecodeTransactions parses the raw per-tx byte strings of a SingleBatch
// into typed transactions, used by the attributes builder.
func (b *SingleBatch) DecodeTransactions() ([]*types.Transaction, error) {
	txs := make([]*types.Transaction, 0, len(b.Transactions))
	for _, raw := range b.Transactions {
		tx := new(types.Transaction)
		if err := tx.UnmarshalBinary(raw); err != nil {
			return nil, NewCriticalError(err)
		}
		txs = append(txs, tx)
	}
	return txs, nil
}
