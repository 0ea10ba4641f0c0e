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

// Package testoracle is the native-host-shaped test double used by every
// other package's tests: an in-memory keccak/sha256-keyed preimage store
// plus hint bookkeeping, satisfying the same Get/WriteHint contract as
// oracle.Client without any fd plumbing.
package testoracle

import (
	"crypto/sha256"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethereum-optimism/op-program/client/oracle"
)

// Oracle is a fully in-memory stand-in for the host: the Add* methods
// populate preimages ahead of time, Get/WriteHint satisfy the pipeline's view of
// the world exactly as the FPVM host would.
type Oracle struct {
	mu    sync.Mutex
	data  map[oracle.Key][]byte
	hints []string
}

func New() *Oracle {
	return &Oracle{data: make(map[oracle.Key][]byte)}
}

// AddKeccak256 preloads a keccak256-keyed preimage, computing the key
// from the data itself.
func (o *Oracle) AddKeccak256(data []byte) common.Hash {
	h := crypto.Keccak256Hash(data)
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data[oracle.Keccak256Key(h)] = data
	return h
}

// AddKeccak256WithKey preloads data under an explicit keccak256 key rather
// than one derived from data itself, for the one preimage type whose key
// isn't its own hash: the starting L2 output root, which keys the header
// the host resolved that output root to rather than the header's hash.
func (o *Oracle) AddKeccak256WithKey(key common.Hash, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data[oracle.Keccak256Key(key)] = data
}

// AddSha256 preloads a sha256-keyed preimage, computing the key from the
// data itself.
func (o *Oracle) AddSha256(data []byte) common.Hash {
	digest := sha256.Sum256(data)
	h := common.BytesToHash(digest[:])
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data[oracle.Sha256Key(h)] = data
	return h
}

// AddLocal preloads a local-indexed preimage (boot info).
func (o *Oracle) AddLocal(index uint64, data []byte) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.data[oracle.LocalKey(index)] = data
}

func (o *Oracle) Get(key oracle.Key) ([]byte, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	data, ok := o.data[key]
	if !ok {
		return nil, fmt.Errorf("preimage missing for key %x", key)
	}
	return data, nil
}

func (o *Oracle) WriteHint(hint string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.hints = append(o.hints, hint)
	return nil
}

// Hints returns every hint recorded so far, for assertions in tests.
func (o *Oracle) Hints() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.hints...)
}
