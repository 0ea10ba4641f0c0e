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

package statedb

import (
	"fmt"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"

	"github.com/ethereum-optimism/op-program/client/mpt"
)

// CodeReader resolves a contract's bytecode by its keccak256 code hash.
// Implemented by providers.L2ChainProvider; kept as an interface here so
// statedb never imports the oracle transport directly.
type CodeReader interface {
	CodeByHash(hash common.Hash) ([]byte, error)
}

// AncestorReader resolves a BLOCKHASH ancestor header by number, used to
// answer the EVM's BLOCKHASH opcode without materializing the full chain.
type AncestorReader interface {
	AncestorHeader(head common.Hash, number uint64) (*types.Header, error)
}

// StateDB is a stateless, mutation-journaled view of one block's world
// state, backed by client/mpt tries whose nodes resolve lazily through
// get. It is not safe for concurrent use.
type StateDB struct {
	world *mpt.Trie
	get   mpt.NodeGetter
	code  CodeReader

	accounts      map[common.Address]*account
	accountsDirty map[common.Address]bool
	destructed    map[common.Address]bool
	storage       map[common.Address]*mpt.Trie
	storageDirty  map[common.Address]map[common.Hash]common.Hash
	codeCache     map[common.Address][]byte

	journal *journal
}

// New opens a StateDB view over the world-state trie rooted at root.
func New(root common.Hash, get mpt.NodeGetter, code CodeReader) *StateDB {
	return &StateDB{
		world:         mpt.NewTrieFromRoot(root),
		get:           get,
		code:          code,
		accounts:      make(map[common.Address]*account),
		accountsDirty: make(map[common.Address]bool),
		destructed:    make(map[common.Address]bool),
		storage:       make(map[common.Address]*mpt.Trie),
		storageDirty:  make(map[common.Address]map[common.Hash]common.Hash),
		codeCache:     make(map[common.Address][]byte),
		journal:       newJournal(),
	}
}

func (s *StateDB) loadAccount(addr common.Address) (*account, error) {
	if a, ok := s.accounts[addr]; ok {
		return a, nil
	}
	raw, ok, err := s.world.Get(secureKey(addr.Bytes()), s.get)
	if err != nil {
		return nil, fmt.Errorf("load account %s: %w", addr, err)
	}
	var a *account
	if !ok {
		a = nil
	} else {
		a, err = decodeAccount(raw)
		if err != nil {
			return nil, fmt.Errorf("decode account %s: %w", addr, err)
		}
	}
	s.accounts[addr] = a
	return a, nil
}

// Exist reports whether addr has any in-trie presence at all.
func (s *StateDB) Exist(addr common.Address) (bool, error) {
	a, err := s.loadAccount(addr)
	if err != nil {
		return false, err
	}
	return a != nil, nil
}

// Empty reports EIP-161 emptiness: absent accounts count as empty too,
// so callers can use this to decide whether a touch should be pruned.
func (s *StateDB) Empty(addr common.Address) (bool, error) {
	a, err := s.loadAccount(addr)
	if err != nil {
		return false, err
	}
	return a == nil || a.isEmpty(), nil
}

func (s *StateDB) getOrCreate(addr common.Address) (*account, error) {
	a, err := s.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	if a == nil {
		a = newEmptyAccount()
		s.accounts[addr] = a
	}
	return a, nil
}

// GetBalance returns addr's wei balance, zero for a non-existent account.
func (s *StateDB) GetBalance(addr common.Address) (*uint256.Int, error) {
	a, err := s.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return new(uint256.Int), nil
	}
	return a.Balance.Clone(), nil
}

// SetBalance overwrites addr's balance, journaling the previous value.
func (s *StateDB) SetBalance(addr common.Address, balance *uint256.Int) error {
	a, err := s.getOrCreate(addr)
	if err != nil {
		return err
	}
	s.journal.append(balanceChange{addr: addr, prev: a.Balance.Clone()})
	a.Balance = balance.Clone()
	s.accountsDirty[addr] = true
	return nil
}

// AddBalance credits amount to addr's balance.
func (s *StateDB) AddBalance(addr common.Address, amount *uint256.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	return s.SetBalance(addr, new(uint256.Int).Add(bal, amount))
}

// SubBalance debits amount from addr's balance.
func (s *StateDB) SubBalance(addr common.Address, amount *uint256.Int) error {
	bal, err := s.GetBalance(addr)
	if err != nil {
		return err
	}
	return s.SetBalance(addr, new(uint256.Int).Sub(bal, amount))
}

// GetNonce returns addr's next transaction nonce, zero if it doesn't exist.
func (s *StateDB) GetNonce(addr common.Address) (uint64, error) {
	a, err := s.loadAccount(addr)
	if err != nil {
		return 0, err
	}
	if a == nil {
		return 0, nil
	}
	return a.Nonce, nil
}

// SetNonce overwrites addr's nonce.
func (s *StateDB) SetNonce(addr common.Address, nonce uint64) error {
	a, err := s.getOrCreate(addr)
	if err != nil {
		return err
	}
	s.journal.append(nonceChange{addr: addr, prev: a.Nonce})
	a.Nonce = nonce
	s.accountsDirty[addr] = true
	return nil
}

// GetCodeHash returns addr's code hash, the empty-code hash if it has no
// code or doesn't exist.
func (s *StateDB) GetCodeHash(addr common.Address) (common.Hash, error) {
	a, err := s.loadAccount(addr)
	if err != nil {
		return common.Hash{}, err
	}
	if a == nil {
		return common.BytesToHash(emptyCodeHash), nil
	}
	return common.BytesToHash(a.CodeHash), nil
}

// GetCode returns addr's bytecode, fetching it from the code reader on
// first access and caching it for the life of this StateDB.
func (s *StateDB) GetCode(addr common.Address) ([]byte, error) {
	if c, ok := s.codeCache[addr]; ok {
		return c, nil
	}
	hash, err := s.GetCodeHash(addr)
	if err != nil {
		return nil, err
	}
	code, err := s.code.CodeByHash(hash)
	if err != nil {
		return nil, fmt.Errorf("load code %s: %w", addr, err)
	}
	s.codeCache[addr] = code
	return code, nil
}

// SetCode installs addr's bytecode and updates its code hash.
func (s *StateDB) SetCode(addr common.Address, code []byte) error {
	a, err := s.getOrCreate(addr)
	if err != nil {
		return err
	}
	hash := crypto.Keccak256(code)
	s.journal.append(codeChange{addr: addr, prevHash: append([]byte(nil), a.CodeHash...)})
	a.CodeHash = hash
	s.codeCache[addr] = code
	s.accountsDirty[addr] = true
	return nil
}

func (s *StateDB) storageTrie(addr common.Address) (*mpt.Trie, error) {
	if t, ok := s.storage[addr]; ok {
		return t, nil
	}
	a, err := s.loadAccount(addr)
	if err != nil {
		return nil, err
	}
	root := emptyStorageRoot
	if a != nil {
		root = a.Root
	}
	t := mpt.NewTrieFromRoot(root)
	s.storage[addr] = t
	return t, nil
}

// StorageRoot returns addr's current storage trie root. Used to compute
// the L2 output root, which commits to the L2ToL1MessagePasser
// predeploy's storage root directly rather than to its full account.
func (s *StateDB) StorageRoot(addr common.Address) (common.Hash, error) {
	t, err := s.storageTrie(addr)
	if err != nil {
		return common.Hash{}, err
	}
	return t.Root()
}

// GetState reads storage slot key of addr.
func (s *StateDB) GetState(addr common.Address, key common.Hash) (common.Hash, error) {
	t, err := s.storageTrie(addr)
	if err != nil {
		return common.Hash{}, err
	}
	raw, ok, err := t.Get(secureKey(key.Bytes()), s.get)
	if err != nil {
		return common.Hash{}, fmt.Errorf("load storage %s/%s: %w", addr, key, err)
	}
	if !ok {
		return common.Hash{}, nil
	}
	var val []byte
	if err := rlp.DecodeBytes(raw, &val); err != nil {
		return common.Hash{}, fmt.Errorf("decode storage value %s/%s: %w", addr, key, err)
	}
	return common.BytesToHash(val), nil
}

// SetState writes storage slot key of addr to value, journaling the
// previous value. Writing the zero value deletes the slot.
func (s *StateDB) SetState(addr common.Address, key, value common.Hash) error {
	prev, err := s.GetState(addr, key)
	if err != nil {
		return err
	}
	if prev == value {
		return nil
	}
	t, err := s.storageTrie(addr)
	if err != nil {
		return err
	}
	s.journal.append(storageChange{addr: addr, key: key, prev: prev})
	if value == (common.Hash{}) {
		if err := t.Delete(secureKey(key.Bytes()), s.get); err != nil {
			return err
		}
	} else {
		enc, err := rlp.EncodeToBytes(trimLeadingZeroes(value.Bytes()))
		if err != nil {
			return err
		}
		if err := t.Insert(secureKey(key.Bytes()), enc, s.get); err != nil {
			return err
		}
	}
	if s.storageDirty[addr] == nil {
		s.storageDirty[addr] = make(map[common.Hash]common.Hash)
	}
	s.storageDirty[addr][key] = value
	s.accountsDirty[addr] = true
	return nil
}

// SelfDestruct marks addr for removal at the next Commit, the EIP-6780
// semantics the executor applies (only live within the creating
// transaction, enforced by the caller, not by statedb itself).
func (s *StateDB) SelfDestruct(addr common.Address) error {
	exists, err := s.Exist(addr)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}
	s.journal.append(destructChange{addr: addr, prev: s.destructed[addr]})
	s.destructed[addr] = true
	s.accountsDirty[addr] = true
	return nil
}

// Snapshot returns a journal revision id to later Revert to.
func (s *StateDB) Snapshot() int { return s.journal.snapshot() }

// Revert undoes every change recorded since the given revision.
func (s *StateDB) Revert(id int) { s.journal.revert(s, id) }

// Commit writes every dirty account and storage trie back into the world
// trie, pruning EIP-161-empty and self-destructed accounts, and returns
// the new state root. Dirty addresses are processed in a fixed order
// (sorted by their checksummed hex form) so
// commit behavior never depends on Go's map iteration order, even though
// the resulting root is order-independent by construction.
func (s *StateDB) Commit() (common.Hash, error) {
	addrs := make([]common.Address, 0, len(s.accountsDirty))
	for addr := range s.accountsDirty {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool { return addrs[i].Hex() < addrs[j].Hex() })

	for _, addr := range addrs {
		if s.destructed[addr] {
			if err := s.world.Delete(secureKey(addr.Bytes()), s.get); err != nil {
				return common.Hash{}, fmt.Errorf("delete destructed account %s: %w", addr, err)
			}
			continue
		}
		a := s.accounts[addr]
		if a == nil {
			continue
		}
		if t, ok := s.storage[addr]; ok {
			root, err := t.Root()
			if err != nil {
				return common.Hash{}, fmt.Errorf("storage root %s: %w", addr, err)
			}
			a.Root = root
		}
		if a.isEmpty() {
			if err := s.world.Delete(secureKey(addr.Bytes()), s.get); err != nil {
				return common.Hash{}, fmt.Errorf("prune empty account %s: %w", addr, err)
			}
			continue
		}
		enc, err := encodeAccount(a)
		if err != nil {
			return common.Hash{}, fmt.Errorf("encode account %s: %w", addr, err)
		}
		if err := s.world.Insert(secureKey(addr.Bytes()), enc, s.get); err != nil {
			return common.Hash{}, fmt.Errorf("insert account %s: %w", addr, err)
		}
	}
	s.accountsDirty = make(map[common.Address]bool)
	s.storageDirty = make(map[common.Address]map[common.Hash]common.Hash)
	s.destructed = make(map[common.Address]bool)
	return s.world.Root()
}

func trimLeadingZeroes(b []byte) []byte {
	i := 0
	for i < len(b) && b[i] == 0 {
		i++
	}
	return b[i:]
}
