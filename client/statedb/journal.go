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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/holiman/uint256"
)

// journalEntry undoes exactly one state mutation against db.
type journalEntry interface {
	revert(db *StateDB)
}

// journal records mutations in order so a call frame that reverts can
// unwind precisely the changes it made, the same snapshot/revert model
// go-ethereum's StateDB uses for EVM call frames.
type journal struct {
	entries []journalEntry
}

func newJournal() *journal { return &journal{} }

func (j *journal) append(e journalEntry) { j.entries = append(j.entries, e) }

func (j *journal) snapshot() int { return len(j.entries) }

// revert unwinds entries back to id, most recent first.
func (j *journal) revert(db *StateDB, id int) {
	for i := len(j.entries) - 1; i >= id; i-- {
		j.entries[i].revert(db)
	}
	j.entries = j.entries[:id]
}

type balanceChange struct {
	addr common.Address
	prev *uint256.Int
}

func (c balanceChange) revert(db *StateDB) {
	db.accounts[c.addr].Balance = c.prev
}

type nonceChange struct {
	addr common.Address
	prev uint64
}

func (c nonceChange) revert(db *StateDB) {
	db.accounts[c.addr].Nonce = c.prev
}

type codeChange struct {
	addr     common.Address
	prevHash []byte
}

func (c codeChange) revert(db *StateDB) {
	db.accounts[c.addr].CodeHash = c.prevHash
	delete(db.codeCache, c.addr)
}

type storageChange struct {
	addr common.Address
	key  common.Hash
	prev common.Hash
}

func (c storageChange) revert(db *StateDB) {
	t, err := db.storageTrie(c.addr)
	if err != nil {
		// The trie was already resolved when the forward change was made;
		// a failure here would mean the oracle regressed mid-execution.
		panic(err)
	}
	if c.prev == (common.Hash{}) {
		_ = t.Delete(secureKey(c.key.Bytes()), db.get)
	} else {
		enc, err := rlpEncodeTrimmed(c.prev)
		if err != nil {
			panic(err)
		}
		_ = t.Insert(secureKey(c.key.Bytes()), enc, db.get)
	}
	if m := db.storageDirty[c.addr]; m != nil {
		m[c.key] = c.prev
	}
}

type destructChange struct {
	addr common.Address
	prev bool
}

func (c destructChange) revert(db *StateDB) {
	if c.prev {
		db.destructed[c.addr] = true
	} else {
		delete(db.destructed, c.addr)
	}
}

func rlpEncodeTrimmed(h common.Hash) ([]byte, error) {
	return rlp.EncodeToBytes(trimLeadingZeroes(h.Bytes()))
}
