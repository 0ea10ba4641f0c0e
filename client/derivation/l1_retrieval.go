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
	"fmt"

	gokzg4844 "github.com/crate-crypto/go-kzg-4844"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ethereum-optimism/op-program/client/providers"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// L1Retrieval produces the raw derivation byte streams posted to the
// batch-inbox address in one L1 block, reassembling any EIP-4844 blob
// references along the way (spec.md §4.6.2).
type L1Retrieval struct {
	cfg       *rollup.Config
	l1        *providers.ChainProvider
	blobs     *providers.BlobProvider
	traversal *L1Traversal

	pending [][]byte
	idx     int
}

func NewL1Retrieval(cfg *rollup.Config, l1 *providers.ChainProvider, blobs *providers.BlobProvider, traversal *L1Traversal) *L1Retrieval {
	return &L1Retrieval{cfg: cfg, l1: l1, blobs: blobs, traversal: traversal}
}

// NextData returns the next derivation byte stream (one batcher
// transaction's calldata, or one blob's decoded payload) found in the
// current L1 block, advancing L1 Traversal itself once the current
// block's data is exhausted. Returns types.EOF once L1 Traversal has
// served every block up to the trusted L1 head.
func (r *L1Retrieval) NextData() ([]byte, error) {
	for {
		if r.idx < len(r.pending) {
			data := r.pending[r.idx]
			r.idx++
			return data, nil
		}
		origin, err := r.traversal.NextL1Block()
		if err != nil {
			return nil, err
		}
		if err := r.loadBlock(origin); err != nil {
			return nil, err
		}
	}
}

func (r *L1Retrieval) loadBlock(origin optypes.BlockInfo) error {
	header, txs, err := r.l1.TransactionsByHash(origin.Hash)
	if err != nil {
		return err
	}

	var out [][]byte
	for _, tx := range txs {
		to := tx.To()
		if to == nil || *to != r.cfg.BatchInboxAddress {
			continue
		}
		if tx.Type() == types.BlobTxType {
			data, err := r.decodeBlobTx(header, tx)
			if err != nil {
				return err
			}
			out = append(out, data...)
			continue
		}
		data := tx.Data()
		if len(data) == 0 || data[0] != optypes.DerivationVersion0 {
			continue
		}
		out = append(out, append([]byte(nil), data[1:]...))
	}
	r.pending = out
	r.idx = 0
	return nil
}

func (r *L1Retrieval) decodeBlobTx(header *types.Header, tx *types.Transaction) ([][]byte, error) {
	var out [][]byte
	for i, vh := range tx.BlobHashes() {
		blob, err := r.blobs.GetBlob(header.Hash(), uint64(i), vh)
		if err != nil {
			return nil, err
		}
		data, err := decodeBlob(blob)
		if err != nil {
			return nil, optypes.NewCriticalError(fmt.Errorf("decode blob %d of tx %s: %w", i, tx.Hash(), err))
		}
		if len(data) == 0 || data[0] != optypes.DerivationVersion0 {
			continue
		}
		out = append(out, data[1:])
	}
	return out, nil
}

// Blob layout decodeBlob reads: 4096 field elements of 32 bytes, taken in
// rounds of four. Each element's first byte must have its top two bits
// clear (a valid BLS12-381 scalar) and carries no payload; the other 31
// bytes of each element are payload, 124 payload bytes per 128 blob bytes.
const (
	fieldElementsPerBlobRetrieval = 4096
	bytesPerFieldElement          = 32
	encodedBytesPerFieldElement   = 31
	roundsPerBlob                 = fieldElementsPerBlobRetrieval / 4
)

// decodeBlob reverses the four-field-element packing a batcher uses to
// fit arbitrary bytes into field elements whose top two bits must stay
// zero. Grounded on the OP Stack's blob encoding scheme (spec.md §4.6.2,
// "Blobs are fetched via the BlobProvider").
func decodeBlob(blob *gokzg4844.Blob) ([]byte, error) {
	data := make([]byte, 0, roundsPerBlob*4*encodedBytesPerFieldElement)
	for round := 0; round < roundsPerBlob; round++ {
		var highBits [4]byte
		var bodies [4][encodedBytesPerFieldElement]byte
		for j := 0; j < 4; j++ {
			elemIdx := round*4 + j
			elem := blob[elemIdx*bytesPerFieldElement : (elemIdx+1)*bytesPerFieldElement]
			if elem[0]&0b1100_0000 != 0 {
				return nil, fmt.Errorf("field element %d has set reserved bits", elemIdx)
			}
			highBits[j] = elem[0]
			copy(bodies[j][:], elem[1:])
		}
		for j := 0; j < 4; j++ {
			data = append(data, bodies[j][:]...)
		}
		_ = highBits // the two reserved high bits per element carry no payload in this scheme
	}
	return trimTrailingZeros(data), nil
}

func trimTrailingZeros(data []byte) []byte {
	end := len(data)
	for end > 0 && data[end-1] == 0 {
		end--
	}
	return data[:end]
}
