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

package executor

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethereum-optimism/op-program/client/mpt"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// holoceneExtraDataVersion is the one-byte tag op-stack's Holocene
// hardfork prepends to a header's extra data when it carries an EIP-1559
// parameter override, spec.md §4.5 step 6.
const holoceneExtraDataVersion = 0

// deriveRoot builds a fresh, fully-materialized trie over items keyed by
// rlp(index) — the same indexing fetchTrieLeaves reads back in
// client/providers/trie_leaves.go — and returns its root. Since the trie
// is built purely from Insert calls starting at empty, no child is ever
// blinded, so the NodeGetter is never actually invoked.
func deriveRoot[E any](items []E, encode func(E) ([]byte, error)) (common.Hash, error) {
	t := mpt.NewTrie()
	unreachable := func(h common.Hash) ([]byte, error) {
		return nil, fmt.Errorf("deriveRoot: unexpected node resolution for freshly built trie, hash %s", h)
	}
	for i, item := range items {
		key, err := rlp.EncodeToBytes(uint64(i))
		if err != nil {
			return common.Hash{}, err
		}
		val, err := encode(item)
		if err != nil {
			return common.Hash{}, err
		}
		if err := t.Insert(key, val, unreachable); err != nil {
			return common.Hash{}, err
		}
	}
	return t.Root()
}

func encodeRawTx(raw []byte) ([]byte, error) { return raw, nil }

func encodeReceipt(r *types.Receipt) ([]byte, error) { return r.MarshalBinary() }

// mergedBloom ORs every receipt's bloom filter together, the block-level
// logs bloom spec.md §4.5 step 5 describes.
func mergedBloom(receipts []*types.Receipt) types.Bloom {
	var bloom types.Bloom
	for _, r := range receipts {
		for i := range bloom {
			bloom[i] |= r.Bloom[i]
		}
	}
	return bloom
}

// encodeHolocene1559Params packs the active EIP-1559 denominator and
// elasticity into a header's extra-data field, the post-Holocene
// convention the base-fee computation for the next block reads back from
// (spec.md §4.5 step 1).
func encodeHolocene1559Params(denom, elasticity uint32) []byte {
	out := make([]byte, 9)
	out[0] = holoceneExtraDataVersion
	binary.BigEndian.PutUint32(out[1:5], denom)
	binary.BigEndian.PutUint32(out[5:9], elasticity)
	return out
}

// decodeHolocene1559Params is encodeHolocene1559Params' inverse: it reads the
// denominator/elasticity pair back out of a parent header's extra data.
// A header with no (or malformed) Holocene extra data reports the zero
// value, which eip1559Params then resolves to the hardcoded defaults.
func decodeHolocene1559Params(extra []byte) optypes.EIP1559Params {
	if len(extra) != 9 || extra[0] != holoceneExtraDataVersion {
		return optypes.EIP1559Params{}
	}
	return optypes.EIP1559Params{
		Denominator: binary.BigEndian.Uint32(extra[1:5]),
		Elasticity:  binary.BigEndian.Uint32(extra[5:9]),
	}
}

// emptyRequestsHash is the EIP-7685 requests hash of an empty requests
// list: sha256 of the empty byte string. Isthmus carries this field but
// the OP Stack never populates L2 execution-layer requests, so every
// Isthmus+ header uses this fixed value (spec.md §4.5 step 6,
// "requests_hash (post-Prague)").
var emptyRequestsHash = func() common.Hash { return sha256.Sum256(nil) }()

// BuildHeader assembles the canonical L2 header for one executed block,
// spec.md §4.5 step 6: it is the last thing ApplyBlock's caller does once
// it has a Result in hand.
func BuildHeader(env *BlockEnv, parent *types.Header, attrs *optypes.PayloadAttributes, result *Result, eip1559 optypes.EIP1559Params) (*types.Header, error) {
	txRoot, err := deriveRoot(attrs.Transactions, encodeRawTx)
	if err != nil {
		return nil, fmt.Errorf("derive transactions root: %w", err)
	}
	receiptRoot, err := deriveRoot(result.Receipts, encodeReceipt)
	if err != nil {
		return nil, fmt.Errorf("derive receipts root: %w", err)
	}

	header := &types.Header{
		ParentHash:      parent.Hash(),
		UncleHash:       types.EmptyUncleHash,
		Coinbase:        env.Coinbase,
		Root:            result.Root,
		TxHash:          txRoot,
		ReceiptHash:     receiptRoot,
		Bloom:           mergedBloom(result.Receipts),
		Difficulty:      big.NewInt(0),
		Number:          new(big.Int).SetUint64(env.Number),
		GasLimit:        env.GasLimit,
		GasUsed:         result.GasUsed,
		Time:            env.Time,
		MixDigest:       env.PrevRandao,
		Nonce:           types.BlockNonce{},
		BaseFee:         env.BaseFee.ToBig(),
		WithdrawalsHash: &types.EmptyWithdrawalsHash,
	}

	if env.Config.IsHolocene(env.Time) {
		header.Extra = encodeHolocene1559Params(eip1559.Denominator, eip1559.Elasticity)
	}

	if env.Config.IsEcotone(env.Time) {
		excess := nextExcessBlobGas(parent)
		header.BlobGasUsed = new(uint64)
		header.ExcessBlobGas = &excess
		header.ParentBeaconBlockRoot = attrs.ParentBeaconBlockRoot
	}

	if env.Config.IsIsthmus(env.Time) {
		hash := emptyRequestsHash
		header.RequestsHash = &hash
	}

	return header, nil
}

// nextExcessBlobGas tracks the Cancun/Ecotone excess-blob-gas counter.
// L2 blocks never carry blobs of their own (spec.md's blob usage is an L1
// DA concern only), so both the parent's blob gas used and the target
// are always zero; excess blob gas stays pinned at zero across an L2
// chain's whole lifetime.
func nextExcessBlobGas(parent *types.Header) uint64 {
	if parent.ExcessBlobGas == nil {
		return 0
	}
	return *parent.ExcessBlobGas
}
