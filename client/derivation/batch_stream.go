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
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// BatchStream turns decompressed channel bytes into single batches,
// expanding at most one pending SpanBatch at a time (spec.md §4.6.6).
type BatchStream struct {
	upper *ChannelReader

	pending []*optypes.SingleBatch
	idx     int

	inclusionBlock uint64
}

func NewBatchStream(upper *ChannelReader) *BatchStream {
	return &BatchStream{upper: upper}
}

// NextBatch returns the next single batch along with the L1 block number
// the channel it came from was assembled at, used by BatchQueue's
// sequencing-window logic.
func (s *BatchStream) NextBatch(l1Time, l1Number uint64) (*optypes.SingleBatch, uint64, error) {
	for {
		if s.idx < len(s.pending) {
			b := s.pending[s.idx]
			s.idx++
			return b, s.inclusionBlock, nil
		}
		data, err := s.upper.NextBatchData(l1Time)
		if err != nil {
			return nil, 0, err
		}
		s.inclusionBlock = l1Number
		raw, err := optypes.DecodeRawBatch(data)
		if err != nil {
			// malformed batch data: skip it and keep pulling, same as a
			// channel that fails to decompress.
			if optypes.IsCritical(err) {
				continue
			}
			return nil, 0, err
		}
		switch raw.Type {
		case optypes.SingleBatchType:
			s.pending = []*optypes.SingleBatch{raw.Single}
		case optypes.SpanBatchType:
			batches, err := raw.Span.Expand()
			if err != nil {
				continue
			}
			s.pending = batches
		}
		s.idx = 0
	}
}
