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
	"bytes"
	"crypto/sha256"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/karalabe/ssz"
)

// kzgCommitmentInclusionProofDepth is KZG_COMMITMENT_INCLUSION_PROOF_DEPTH
// from the Deneb consensus spec: the generalized-index Merkle branch
// length from a blob's KZG commitment up to the beacon block body root.
const kzgCommitmentInclusionProofDepth = 17

// blobSidecarCommitment is the subset of a Deneb BlobSidecar (the rest of
// the sidecar, the blob data itself, comes through separate field-element
// preimages) needed to authenticate that a commitment was actually
// published in a specific L1 beacon block: its index, its KZG commitment,
// and the Merkle branch proving the commitment's membership in that
// block's body.
type blobSidecarCommitment struct {
	Index                    uint64
	Commitment               [48]byte
	CommitmentInclusionProof [kzgCommitmentInclusionProofDepth][32]byte
}

func (b *blobSidecarCommitment) SizeSSZ(siz *ssz.Sizer) uint32 {
	return 8 + 48 + kzgCommitmentInclusionProofDepth*32
}

func (b *blobSidecarCommitment) DefineSSZ(codec *ssz.Codec) {
	ssz.DefineUint64(codec, &b.Index)
	ssz.DefineStaticBytes(codec, &b.Commitment)
	for i := range b.CommitmentInclusionProof {
		ssz.DefineStaticBytes(codec, &b.CommitmentInclusionProof[i])
	}
}

// decodeBlobSidecarCommitment SSZ-decodes the fixed-size commitment
// header prefix of a BlobSidecar preimage.
func decodeBlobSidecarCommitment(data []byte) (*blobSidecarCommitment, error) {
	var b blobSidecarCommitment
	if err := ssz.DecodeFromStream(bytes.NewReader(data), &b, uint32(len(data))); err != nil {
		return nil, fmt.Errorf("decode blob sidecar commitment: %w", err)
	}
	return &b, nil
}

// encodeBlobSidecarCommitment SSZ-encodes a commitment header; used when
// the host-side tooling needs to serialize one, and by round-trip tests.
func encodeBlobSidecarCommitment(b *blobSidecarCommitment) ([]byte, error) {
	var buf bytes.Buffer
	if err := ssz.EncodeToStream(&buf, b); err != nil {
		return nil, fmt.Errorf("encode blob sidecar commitment: %w", err)
	}
	return buf.Bytes(), nil
}

// verifyInclusion checks the commitment's Merkle branch against the
// beacon block body root it was sourced from, using the generalized
// index for blob_kzg_commitments[index] under Deneb's BeaconBlockBody
// container layout.
func (b *blobSidecarCommitment) verifyInclusion(bodyRoot common.Hash) bool {
	leaf := sha256.Sum256(b.Commitment[:])
	genIndex := (uint64(1) << kzgCommitmentInclusionProofDepth) + b.Index
	node := leaf
	for i := 0; i < kzgCommitmentInclusionProofDepth; i++ {
		sibling := b.CommitmentInclusionProof[i]
		var combined [64]byte
		if genIndex&1 == 0 {
			copy(combined[:32], node[:])
			copy(combined[32:], sibling[:])
		} else {
			copy(combined[:32], sibling[:])
			copy(combined[32:], node[:])
		}
		node = sha256.Sum256(combined[:])
		genIndex >>= 1
	}
	return common.Hash(node) == bodyRoot
}
