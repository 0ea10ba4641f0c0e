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

package mpt

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Preimages walks every node reachable from t's current (fully
// materialized, unblinded) root and returns each node's keccak256 hash
// mapped to its RLP encoding. Feeding this map into a keccak256-keyed
// preimage store lets a NewTrieFromRoot(t.Root()) reader resolve exactly
// the same trie t already holds in memory. Used by tests that need to
// seed a fixture oracle with a transactions/receipts trie built the same
// way deriveRoot builds one in client/executor/header.go.
func (t *Trie) Preimages() (map[common.Hash][]byte, error) {
	out := make(map[common.Hash][]byte)
	if err := collectPreimages(t.root, out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectPreimages(n Node, out map[common.Hash][]byte) error {
	switch n := n.(type) {
	case *shortNode:
		enc, err := encodeNode(n)
		if err != nil {
			return err
		}
		out[crypto.Keccak256Hash(enc)] = enc
		if !n.isLeaf() {
			return collectPreimages(n.Val, out)
		}
		return nil
	case *fullNode:
		enc, err := encodeNode(n)
		if err != nil {
			return err
		}
		out[crypto.Keccak256Hash(enc)] = enc
		for _, c := range n.Children {
			if err := collectPreimages(c, out); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}
