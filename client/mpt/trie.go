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
	"errors"

	"github.com/ethereum/go-ethereum/common"
)

var errInvalidNodeRLP = errors.New("mpt: invalid node rlp")

// NodeGetter resolves a blinded child by its keccak256 hash into its raw
// RLP encoding. It is the only way the trie ever talks to the outside
// world; every Insert/Delete/Get call threads one through explicitly
// rather than keeping a provider as trie state (spec.md §9).
type NodeGetter func(hash common.Hash) ([]byte, error)

// Trie is a hexary Merkle-Patricia Trie whose root may be partially or
// fully blinded. The zero value is not usable; construct with NewTrie or
// NewTrieFromRoot.
type Trie struct {
	root Node
}

// NewTrie returns an empty trie.
func NewTrie() *Trie { return &Trie{root: EmptyNode} }

// NewTrieFromRoot returns a trie whose root is blinded behind the given
// hash; the first operation that needs to inspect the root resolves it.
func NewTrieFromRoot(root common.Hash) *Trie {
	if root == EmptyRootHash || root == (common.Hash{}) {
		return NewTrie()
	}
	return &Trie{root: hashNode(root)}
}

// Root returns the current root hash.
func (t *Trie) Root() (common.Hash, error) { return Hash(t.root) }

func resolve(n Node, get NodeGetter) (Node, error) {
	hn, ok := n.(hashNode)
	if !ok {
		return n, nil
	}
	enc, err := get(common.Hash(hn))
	if err != nil {
		return nil, err
	}
	return decodeNode(enc)
}

// Get retrieves the value stored at key, resolving blinded nodes along
// the walk as needed. ok is false if key is absent.
func (t *Trie) Get(key []byte, get NodeGetter) (value []byte, ok bool, err error) {
	path := keyToNibbles(key)
	n, err := resolve(t.root, get)
	if err != nil {
		return nil, false, err
	}
	t.root = n
	return getAt(n, path, get)
}

func getAt(n Node, path []byte, get NodeGetter) ([]byte, bool, error) {
	switch n := n.(type) {
	case emptyNode:
		return nil, false, nil
	case valueNode:
		return []byte(n), true, nil
	case *shortNode:
		if len(path) < len(n.Key) || commonPrefixLen(path, n.Key) != len(n.Key) {
			return nil, false, nil
		}
		child, err := resolve(n.Val, get)
		if err != nil {
			return nil, false, err
		}
		n.Val = child
		return getAt(child, path[len(n.Key):], get)
	case *fullNode:
		if len(path) == 1 && path[0] == 16 {
			if n.Value == nil {
				return nil, false, nil
			}
			return []byte(n.Value), true, nil
		}
		child, err := resolve(n.Children[path[0]], get)
		if err != nil {
			return nil, false, err
		}
		n.Children[path[0]] = child
		return getAt(child, path[1:], get)
	default:
		return nil, false, errInvalidNodeRLP
	}
}

// Insert writes value at key, resolving blinded nodes encountered along
// the write path and leaving everything else blinded.
func (t *Trie) Insert(key, value []byte, get NodeGetter) error {
	if len(value) == 0 {
		return t.Delete(key, get)
	}
	path := keyToNibbles(key)
	root, err := resolve(t.root, get)
	if err != nil {
		return err
	}
	newRoot, err := insertAt(root, path, valueNode(value), get)
	if err != nil {
		return err
	}
	t.root = newRoot
	return nil
}

func insertAt(n Node, path []byte, value valueNode, get NodeGetter) (Node, error) {
	switch n := n.(type) {
	case emptyNode:
		return &shortNode{Key: append([]byte(nil), path...), Val: value}, nil
	case *shortNode:
		matched := commonPrefixLen(path, n.Key)
		if matched == len(n.Key) && matched == len(path) {
			return &shortNode{Key: n.Key, Val: value}, nil
		}
		if matched == len(n.Key) {
			child, err := resolve(n.Val, get)
			if err != nil {
				return nil, err
			}
			newChild, err := insertAt(child, path[matched:], value, get)
			if err != nil {
				return nil, err
			}
			return &shortNode{Key: n.Key, Val: newChild}, nil
		}
		// Diverges partway through: split into (optional extension) + branch.
		branch := &fullNode{}
		if err := placeIntoBranch(branch, n.Key[matched:], n.Val); err != nil {
			return nil, err
		}
		if err := placeIntoBranch(branch, path[matched:], value); err != nil {
			return nil, err
		}
		var top Node = branch
		if matched > 0 {
			top = &shortNode{Key: append([]byte(nil), path[:matched]...), Val: branch}
		}
		return top, nil
	case *fullNode:
		cp := shallowCopyFullNode(n)
		if len(path) == 1 && path[0] == 16 {
			cp.Value = value
			return cp, nil
		}
		child, err := resolve(cp.Children[path[0]], get)
		if err != nil {
			return nil, err
		}
		newChild, err := insertAt(child, path[1:], value, get)
		if err != nil {
			return nil, err
		}
		cp.Children[path[0]] = newChild
		return cp, nil
	default:
		return nil, errInvalidNodeRLP
	}
}

// placeIntoBranch inserts a (possibly terminator-only) nibble-keyed child
// into a freshly created branch during a shortNode split.
func placeIntoBranch(branch *fullNode, path []byte, val Node) error {
	if len(path) == 1 && path[0] == 16 {
		vn, ok := val.(valueNode)
		if !ok {
			return errInvalidNodeRLP
		}
		branch.Value = vn
		return nil
	}
	idx := path[0]
	rest := path[1:]
	if len(rest) == 0 {
		branch.Children[idx] = val
		return nil
	}
	branch.Children[idx] = &shortNode{Key: append([]byte(nil), rest...), Val: val}
	return nil
}

func shallowCopyFullNode(n *fullNode) *fullNode {
	cp := &fullNode{Value: n.Value}
	copy(cp.Children[:], n.Children[:])
	return cp
}

// Delete removes key, collapsing singleton branches into extensions and
// merging adjacent short nodes the way spec.md §4.3 requires. Deleting an
// absent key is a no-op.
func (t *Trie) Delete(key []byte, get NodeGetter) error {
	path := keyToNibbles(key)
	root, err := resolve(t.root, get)
	if err != nil {
		return err
	}
	newRoot, changed, err := deleteAt(root, path, get)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	if newRoot == nil {
		newRoot = EmptyNode
	}
	t.root = newRoot
	return nil
}

// deleteAt returns the replacement node (nil means "became empty, caller
// should collapse it away") and whether anything changed.
func deleteAt(n Node, path []byte, get NodeGetter) (Node, bool, error) {
	switch n := n.(type) {
	case emptyNode:
		return n, false, nil
	case *shortNode:
		matched := commonPrefixLen(path, n.Key)
		if matched != len(n.Key) {
			return n, false, nil
		}
		if n.isLeaf() {
			if len(path) != len(n.Key) {
				return n, false, nil
			}
			return nil, true, nil
		}
		child, err := resolve(n.Val, get)
		if err != nil {
			return nil, false, err
		}
		newChild, changed, err := deleteAt(child, path[matched:], get)
		if err != nil || !changed {
			return n, changed, err
		}
		if newChild == nil {
			return nil, true, nil
		}
		merged, err := mergeShort(n.Key, newChild, get)
		if err != nil {
			return nil, false, err
		}
		return merged, true, nil
	case *fullNode:
		cp := shallowCopyFullNode(n)
		if len(path) == 1 && path[0] == 16 {
			if cp.Value == nil {
				return n, false, nil
			}
			cp.Value = nil
		} else {
			child, err := resolve(cp.Children[path[0]], get)
			if err != nil {
				return nil, false, err
			}
			newChild, changed, err := deleteAt(child, path[1:], get)
			if err != nil {
				return nil, false, err
			}
			if !changed {
				return n, false, nil
			}
			if newChild == nil {
				newChild = EmptyNode
			}
			cp.Children[path[0]] = newChild
		}
		collapsed, err := collapseFullNode(cp, get)
		if err != nil {
			return nil, false, err
		}
		return collapsed, true, nil
	default:
		return nil, false, errInvalidNodeRLP
	}
}

// mergeShort combines a shortNode prefix (from an extension) with its
// new child, folding the child's key into the parent's when the child is
// itself a shortNode — "extension-of-extension into a single extension".
func mergeShort(prefixKey []byte, child Node, get NodeGetter) (Node, error) {
	resolved, err := resolve(child, get)
	if err != nil {
		return nil, err
	}
	if cs, ok := resolved.(*shortNode); ok {
		return &shortNode{Key: append(append([]byte(nil), prefixKey...), cs.Key...), Val: cs.Val}, nil
	}
	return &shortNode{Key: prefixKey, Val: child}, nil
}

// collapseFullNode collapses a modified branch once it has at most one
// remaining child (and no value), turning it into an extension pointing
// at that child (or a leaf, if the lone remaining slot is the value).
func collapseFullNode(n *fullNode, get NodeGetter) (Node, error) {
	count := n.childCount()
	if count == 0 {
		if n.Value != nil {
			return &shortNode{Key: []byte{16}, Val: n.Value}, nil
		}
		return EmptyNode, nil
	}
	if count == 1 && n.Value == nil {
		for i, c := range n.Children {
			if c == nil || isEmpty(c) {
				continue
			}
			merged, err := mergeShort([]byte{byte(i)}, c, get)
			if err != nil {
				return nil, err
			}
			return merged, nil
		}
	}
	return n, nil
}
