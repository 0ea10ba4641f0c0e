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

package providers

import (
	"crypto/sha256"
	"fmt"

	gokzg4844 "github.com/crate-crypto/go-kzg-4844"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/op-program/client/oracle"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// blobVersionHash is the EIP-4844 version byte prepended to the sha256 of
// a KZG commitment to form a tx's blob versioned hash.
const blobVersionHash = 0x01

const fieldElementsPerBlob = 4096

var kzgCtx *gokzg4844.Context

func init() {
	ctx, err := gokzg4844.NewContext4096Secure()
	if err != nil {
		panic(fmt.Errorf("providers: failed to initialize kzg context: %w", err))
	}
	kzgCtx = ctx
}

// BlobProvider reconstructs and KZG-verifies EIP-4844 blobs referenced
// from L1 batcher-inbox transactions (spec.md §4.6.1, C6 L1 Retrieval).
type BlobProvider struct {
	oracle oracle.Oracle
	log    log.Logger
}

func NewBlobProvider(o oracle.Oracle, l log.Logger) *BlobProvider {
	return &BlobProvider{oracle: o, log: l}
}

// GetBlob reassembles the blob with the given versioned hash field
// element by field element, then checks the reconstructed blob's KZG
// commitment actually hashes to that versioned hash before returning it.
func (p *BlobProvider) GetBlob(l1BlockHash common.Hash, index uint64, versionedHash common.Hash) (*gokzg4844.Blob, error) {
	if err := p.oracle.WriteHint(fmt.Sprintf("%s %s %d", HintL1Blob, l1BlockHash.Hex(), index)); err != nil {
		return nil, err
	}
	var blob gokzg4844.Blob
	for i := 0; i < fieldElementsPerBlob; i++ {
		elem, err := p.oracle.Get(oracle.BlobKey(versionedHash, uint64(i)))
		if err != nil {
			return nil, optypes.NewTemporaryError(fmt.Errorf("preimage missing for blob %s field %d: %w", versionedHash, i, err))
		}
		if len(elem) != 32 {
			return nil, optypes.NewCriticalError(fmt.Errorf("blob %s field %d has bad length %d", versionedHash, i, len(elem)))
		}
		copy(blob[i*32:(i+1)*32], elem)
	}
	commitment, err := kzgCtx.BlobToKZGCommitment(&blob, 0)
	if err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("compute commitment for blob %s: %w", versionedHash, err))
	}
	if got := commitmentToVersionedHash(commitment); got != versionedHash {
		return nil, optypes.NewCriticalError(fmt.Errorf("blob %s failed kzg commitment check: got %s", versionedHash, got))
	}
	return &blob, nil
}

func commitmentToVersionedHash(c gokzg4844.KZGCommitment) common.Hash {
	h := sha256.Sum256(c[:])
	h[0] = blobVersionHash
	return h
}
