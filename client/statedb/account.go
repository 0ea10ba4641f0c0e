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

// Package statedb implements the stateless, oracle-backed world-state
// view (C4) the executor reads and writes against: accounts and storage
// slots addressed through client/mpt tries whose nodes are resolved
// lazily, with EIP-161 empty-account pruning and a journal supporting
// call-frame revert (spec.md §4.4).
package statedb

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/ethereum-optimism/op-program/client/mpt"
)

var emptyStorageRoot = mpt.EmptyRootHash

// account is the canonical RLP-encoded leaf value of the world-state
// trie: balance and nonce plus references to the account's storage trie
// and contract code.
type account struct {
	Nonce    uint64
	Balance  *uint256.Int
	Root     common.Hash
	CodeHash []byte
}

var emptyCodeHash = crypto.Keccak256(nil)

func newEmptyAccount() *account {
	return &account{Balance: new(uint256.Int), Root: emptyStorageRoot, CodeHash: emptyCodeHash}
}

// isEmpty implements EIP-161: an account is empty once its nonce, balance
// and code are all at their zero values, regardless of whether it still
// exists in the trie.
func (a *account) isEmpty() bool {
	return a.Nonce == 0 && a.Balance.IsZero() && len(a.CodeHash) == len(emptyCodeHash) && string(a.CodeHash) == string(emptyCodeHash)
}

func decodeAccount(data []byte) (*account, error) {
	var a account
	if err := rlp.DecodeBytes(data, &a); err != nil {
		return nil, err
	}
	if a.Balance == nil {
		a.Balance = new(uint256.Int)
	}
	return &a, nil
}

func encodeAccount(a *account) ([]byte, error) {
	return rlp.EncodeToBytes(a)
}

// secureKey is the trie key for an address or storage slot: the world
// state and every storage trie are "secure tries" keyed by keccak256 of
// the natural key rather than the key itself.
func secureKey(b []byte) []byte {
	h := crypto.Keccak256(b)
	return h
}
