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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethereum-optimism/op-program/client/mpt"
	"github.com/ethereum-optimism/op-program/client/oracle"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// fetchTrieLeaves walks the transactions/receipts trie rooted at root,
// keyed by rlp(index) the way go-ethereum's DeriveSha builds it, and
// decodes every leaf in index order. It stops at the first missing
// index, which is exactly the trie's size since indices are assigned
// contiguously from zero.
//
// L is constrained to a slice of E so callers can bind it directly to
// types.Transactions / types.Receipts without a conversion at the call
// site.
func fetchTrieLeaves[L ~[]E, E any](o oracle.Oracle, root common.Hash, decode func([]byte) (E, error)) (L, error) {
	get := func(hash common.Hash) ([]byte, error) {
		data, err := o.Get(oracle.Keccak256Key(hash))
		if err != nil {
			return nil, optypes.NewTemporaryError(fmt.Errorf("preimage missing for trie node %s: %w", hash, err))
		}
		return data, nil
	}
	trie := mpt.NewTrieFromRoot(root)
	var out L
	for i := 0; ; i++ {
		key, err := rlp.EncodeToBytes(uint64(i))
		if err != nil {
			return nil, optypes.NewCriticalError(fmt.Errorf("encode trie index %d: %w", i, err))
		}
		val, ok, err := trie.Get(key, get)
		if err != nil {
			return nil, optypes.NewCriticalError(fmt.Errorf("resolve trie leaf %d: %w", i, err))
		}
		if !ok {
			break
		}
		elem, err := decode(val)
		if err != nil {
			return nil, optypes.NewCriticalError(fmt.Errorf("decode trie leaf %d: %w", i, err))
		}
		out = append(out, elem)
	}
	got, err := trie.Root()
	if err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("recompute trie root: %w", err))
	}
	if got != root {
		return nil, optypes.NewCriticalError(fmt.Errorf("trie root mismatch after traversal: want %s got %s", root, got))
	}
	return out, nil
}
