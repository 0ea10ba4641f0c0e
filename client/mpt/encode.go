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
	"github.com/ethereum/go-ethereum/rlp"
)

// emptyRootRLP is the RLP encoding of the empty-trie placeholder (an
// empty string, 0x80); keccak256 of this is the canonical empty root
// referenced in spec.md §8 property 3.
var emptyRootRLP = []byte{0x80}

// EmptyRootHash is keccak256(rlp("")) — the root of a trie with no
// entries.
var EmptyRootHash = crypto.Keccak256Hash(emptyRootRLP)

// rlpList is a list of already-RLP-encoded elements; rlp.RawValue's
// EncodeRLP writes its bytes verbatim, so wrapping a slice of them in
// EncodeToBytes produces a correct list header around pre-encoded items.
type rlpList []rlp.RawValue

func rawString(b []byte) rlp.RawValue {
	enc, err := rlp.EncodeToBytes(b)
	if err != nil {
		panic(err) // byte-string encoding cannot fail
	}
	return enc
}

// encodeNode returns the full RLP-list encoding of a concrete (non-hash,
// non-empty) node, resolving any child still blinded behind a hash only
// when that child's own encoding is needed inline — which never happens,
// since a hashNode child's reference IS its hash; get is never required
// purely to encode.
func encodeNode(n Node) ([]byte, error) {
	switch n := n.(type) {
	case *shortNode:
		key := compactEncode(n.Key)
		var valRef rlp.RawValue
		if n.isLeaf() {
			valRef = rawString(n.Val.(valueNode))
		} else {
			ref, err := childRef(n.Val)
			if err != nil {
				return nil, err
			}
			valRef = ref
		}
		return rlp.EncodeToBytes(rlpList{rawString(key), valRef})
	case *fullNode:
		list := make(rlpList, 17)
		for i, c := range n.Children {
			if isEmpty(c) {
				list[i] = rawString(nil)
				continue
			}
			ref, err := childRef(c)
			if err != nil {
				return nil, err
			}
			list[i] = ref
		}
		if n.Value == nil {
			list[16] = rawString(nil)
		} else {
			list[16] = rawString(n.Value)
		}
		return rlp.EncodeToBytes(list)
	case emptyNode:
		return append([]byte(nil), emptyRootRLP...), nil
	default:
		panic("encodeNode: unexpected node type")
	}
}

// childRef returns the bytes a parent node embeds for a child reference:
// the child's own encoding inlined if under 32 bytes, otherwise the
// RLP-encoded keccak256 hash of that encoding.
func childRef(n Node) (rlp.RawValue, error) {
	switch n := n.(type) {
	case emptyNode:
		return rawString(nil), nil
	case hashNode:
		h := common.Hash(n)
		return rawString(h[:]), nil
	case *shortNode, *fullNode:
		enc, err := encodeNode(n)
		if err != nil {
			return nil, err
		}
		if len(enc) < 32 {
			return rlp.RawValue(enc), nil
		}
		h := crypto.Keccak256(enc)
		return rawString(h), nil
	default:
		panic("childRef: unexpected node type")
	}
}

// Hash returns the root hash of n: keccak256 of its full RLP encoding,
// regardless of whether that encoding would be inlined as a child
// reference elsewhere (the root is always referenced by hash).
func Hash(n Node) (common.Hash, error) {
	if isEmpty(n) {
		return EmptyRootHash, nil
	}
	if hn, ok := n.(hashNode); ok {
		return common.Hash(hn), nil
	}
	enc, err := encodeNode(n)
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}

// decodeNode parses a single node's RLP encoding (as read for a
// keccak256-type preimage) into a concrete Node with unresolved children
// left as hashNode/valueNode leaves.
func decodeNode(enc []byte) (Node, error) {
	var raw []rlp.RawValue
	if err := rlp.DecodeBytes(enc, &raw); err != nil {
		return nil, err
	}
	switch len(raw) {
	case 2:
		var keyRaw []byte
		if err := rlp.DecodeBytes(raw[0], &keyRaw); err != nil {
			return nil, err
		}
		nibbles, term := compactDecode(keyRaw)
		if term {
			var val []byte
			if err := rlp.DecodeBytes(raw[1], &val); err != nil {
				return nil, err
			}
			return &shortNode{Key: nibbles, Val: valueNode(val)}, nil
		}
		child, err := decodeRef(raw[1])
		if err != nil {
			return nil, err
		}
		return &shortNode{Key: nibbles, Val: child}, nil
	case 17:
		fn := &fullNode{}
		for i := 0; i < 16; i++ {
			child, err := decodeRef(raw[i])
			if err != nil {
				return nil, err
			}
			fn.Children[i] = child
		}
		var val []byte
		if err := rlp.DecodeBytes(raw[16], &val); err != nil {
			return nil, err
		}
		if len(val) > 0 {
			fn.Value = valueNode(val)
		}
		return fn, nil
	default:
		return nil, errInvalidNodeRLP
	}
}

// decodeRef interprets one child slot of a decoded node: either an inline
// sub-node (raw list bytes) or a 32-byte hash reference, or empty.
func decodeRef(raw rlp.RawValue) (Node, error) {
	if len(raw) == 0 {
		return EmptyNode, nil
	}
	// A byte-string item is either the empty string or a 32-byte hash;
	// a list item is an inlined node encoding.
	if raw[0] < 0xc0 {
		var b []byte
		if err := rlp.DecodeBytes(raw, &b); err != nil {
			return nil, err
		}
		if len(b) == 0 {
			return EmptyNode, nil
		}
		if len(b) != 32 {
			return nil, errInvalidNodeRLP
		}
		return hashNode(common.BytesToHash(b)), nil
	}
	return decodeNode(raw)
}
