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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

// buildInclusionProof constructs a valid sibling path for leaf index idx
// in a depth-level binary tree, returning the computed root alongside it.
func buildInclusionProof(leaf [32]byte, idx uint64, depth int) (root common.Hash, proof [kzgCommitmentInclusionProofDepth][32]byte) {
	// Pick arbitrary but deterministic sibling values.
	for i := 0; i < depth; i++ {
		s := sha256.Sum256([]byte{byte(i), byte(idx)})
		proof[i] = s
	}
	node := leaf
	genIndex := (uint64(1) << depth) + idx
	for i := 0; i < depth; i++ {
		sibling := proof[i]
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
	return common.Hash(node), proof
}

func TestBlobSidecarCommitment_VerifyInclusion(t *testing.T) {
	var commitment [48]byte
	copy(commitment[:], []byte("a test kzg commitment padded out"))
	leaf := sha256.Sum256(commitment[:])

	const idx = uint64(3)
	root, proof := buildInclusionProof(leaf, idx, kzgCommitmentInclusionProofDepth)

	b := &blobSidecarCommitment{Index: idx, Commitment: commitment, CommitmentInclusionProof: proof}
	require.True(t, b.verifyInclusion(root))
}

func TestBlobSidecarCommitment_VerifyInclusion_WrongRoot(t *testing.T) {
	var commitment [48]byte
	copy(commitment[:], []byte("another kzg commitment value here"))
	leaf := sha256.Sum256(commitment[:])

	const idx = uint64(1)
	_, proof := buildInclusionProof(leaf, idx, kzgCommitmentInclusionProofDepth)

	b := &blobSidecarCommitment{Index: idx, Commitment: commitment, CommitmentInclusionProof: proof}
	require.False(t, b.verifyInclusion(common.Hash{}))
}

func TestDecodeBlobSidecarCommitment_RoundTrip(t *testing.T) {
	var commitment [48]byte
	copy(commitment[:], []byte("round trip commitment bytes here"))
	var proof [kzgCommitmentInclusionProofDepth][32]byte
	for i := range proof {
		proof[i] = sha256.Sum256([]byte{byte(i)})
	}
	want := &blobSidecarCommitment{Index: 7, Commitment: commitment, CommitmentInclusionProof: proof}

	enc, err := encodeBlobSidecarCommitment(want)
	require.NoError(t, err)

	got, err := decodeBlobSidecarCommitment(enc)
	require.NoError(t, err)
	require.Equal(t, want.Index, got.Index)
	require.Equal(t, want.Commitment, got.Commitment)
	require.Equal(t, want.CommitmentInclusionProof, got.CommitmentInclusionProof)
}
