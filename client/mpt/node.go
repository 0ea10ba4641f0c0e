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

// Package mpt implements Ethereum's hexary Merkle-Patricia Trie (spec.md
// §4.3) as a small sum type whose children may be fully materialized or
// left "blinded" behind a keccak256 hash until something actually walks
// through them. There is no persistent backing store: every node not
// touched by the program's writes is either inlined in its parent or
// resolved on demand from the preimage oracle via a NodeGetter.
package mpt

import "github.com/ethereum/go-ethereum/common"

// Node is the trie's node sum type: Empty | Blinded | Leaf (a shortNode
// whose child is a valueNode) | Extension (a shortNode whose child is
// another shortNode/fullNode) | Branch (fullNode).
type Node interface {
	node()
}

// emptyNode is the root of a trie with no entries.
type emptyNode struct{}

func (emptyNode) node() {}

// EmptyNode is the shared empty-trie sentinel.
var EmptyNode Node = emptyNode{}

// hashNode is a child referenced only by its keccak256 hash: "Blinded" in
// spec.md's vocabulary. Resolved to a concrete node the first time any
// operation descends through it.
type hashNode common.Hash

func (hashNode) node() {}

// valueNode is a leaf's stored value (account RLP or storage-slot RLP).
// It never appears except as the Val of a shortNode whose Key consumes
// every remaining nibble.
type valueNode []byte

func (valueNode) node() {}

// shortNode covers both Leaf and Extension: the distinction is purely
// whether Val is a valueNode (Leaf) or something else (Extension). Key
// holds the nibble sequence for this segment of path; a leaf's Key ends
// in the terminator nibble 16, which hasTerm detects and compactEncode
// strips when encoding.
type shortNode struct {
	Key []byte // nibbles; a leaf's Key ends with the terminator 16
	Val Node
}

func (*shortNode) node() {}

func (s *shortNode) isLeaf() bool {
	_, ok := s.Val.(valueNode)
	return ok
}

// fullNode is a Branch: 16 children indexed by nibble plus an optional
// value for a key that terminates exactly at this branch.
type fullNode struct {
	Children [16]Node
	Value    valueNode // nil if no key terminates here
}

func (*fullNode) node() {}

func (f *fullNode) childCount() int {
	n := 0
	for _, c := range f.Children {
		if c != nil && !isEmpty(c) {
			n++
		}
	}
	return n
}

func isEmpty(n Node) bool {
	if n == nil {
		return true
	}
	_, ok := n.(emptyNode)
	return ok
}
