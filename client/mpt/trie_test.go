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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func noGetter(hash common.Hash) ([]byte, error) {
	return nil, errInvalidNodeRLP
}

func TestTrie_EmptyRoot(t *testing.T) {
	tr := NewTrie()
	root, err := tr.Root()
	require.NoError(t, err)
	require.Equal(t, EmptyRootHash, root)
}

func TestTrie_InsertGetSingle(t *testing.T) {
	tr := NewTrie()
	require.NoError(t, tr.Insert([]byte("key"), []byte("value"), noGetter))
	got, ok, err := tr.Get([]byte("key"), noGetter)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("value"), got)

	root, err := tr.Root()
	require.NoError(t, err)
	require.NotEqual(t, EmptyRootHash, root)
}

func TestTrie_MissingKey(t *testing.T) {
	tr := NewTrie()
	require.NoError(t, tr.Insert([]byte("key"), []byte("value"), noGetter))
	_, ok, err := tr.Get([]byte("nope"), noGetter)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTrie_MultipleEntriesRoundTrip(t *testing.T) {
	tr := NewTrie()
	entries := map[string]string{
		"do":    "verb",
		"dog":   "puppy",
		"doge":  "coin",
		"horse": "stallion",
	}
	for k, v := range entries {
		require.NoError(t, tr.Insert([]byte(k), []byte(v), noGetter))
	}
	for k, v := range entries {
		got, ok, err := tr.Get([]byte(k), noGetter)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, v, string(got))
	}
}

func TestTrie_DeleteLastEntryEmptiesRoot(t *testing.T) {
	tr := NewTrie()
	require.NoError(t, tr.Insert([]byte("solo"), []byte("value"), noGetter))
	require.NoError(t, tr.Delete([]byte("solo"), noGetter))

	_, ok, err := tr.Get([]byte("solo"), noGetter)
	require.NoError(t, err)
	require.False(t, ok)

	root, err := tr.Root()
	require.NoError(t, err)
	require.Equal(t, EmptyRootHash, root)
}

func TestTrie_DeleteCollapsesExtension(t *testing.T) {
	tr := NewTrie()
	require.NoError(t, tr.Insert([]byte("dog"), []byte("puppy"), noGetter))
	require.NoError(t, tr.Insert([]byte("doge"), []byte("coin"), noGetter))
	require.NoError(t, tr.Delete([]byte("doge"), noGetter))

	got, ok, err := tr.Get([]byte("dog"), noGetter)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("puppy"), got)

	_, ok, err = tr.Get([]byte("doge"), noGetter)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestTrie_DeleteAbsentKeyIsNoop(t *testing.T) {
	tr := NewTrie()
	require.NoError(t, tr.Insert([]byte("a"), []byte("1"), noGetter))
	before, err := tr.Root()
	require.NoError(t, err)

	require.NoError(t, tr.Delete([]byte("nonexistent"), noGetter))
	after, err := tr.Root()
	require.NoError(t, err)
	require.Equal(t, before, after)
}

func TestTrie_BlindedNodeResolution(t *testing.T) {
	src := NewTrie()
	require.NoError(t, src.Insert([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), []byte("1"), noGetter))
	require.NoError(t, src.Insert([]byte("bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"), []byte("2"), noGetter))
	root, err := src.Root()
	require.NoError(t, err)

	store := map[common.Hash][]byte{}
	var collect func(n Node) error
	collect = func(n Node) error {
		switch n := n.(type) {
		case *shortNode:
			if !n.isLeaf() {
				if err := collect(n.Val); err != nil {
					return err
				}
			}
		case *fullNode:
			for _, c := range n.Children {
				if isEmpty(c) {
					continue
				}
				if err := collect(c); err != nil {
					return err
				}
			}
		}
		enc, err := encodeNode(n)
		if err != nil {
			return err
		}
		if len(enc) >= 32 {
			store[crypto.Keccak256Hash(enc)] = enc
		}
		return nil
	}
	require.NoError(t, collect(src.root))

	getter := func(hash common.Hash) ([]byte, error) {
		enc, ok := store[hash]
		if !ok {
			return nil, errInvalidNodeRLP
		}
		return enc, nil
	}

	blinded := NewTrieFromRoot(root)
	got, ok, err := blinded.Get([]byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), getter)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("1"), got)
}
