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

package oracle

import "github.com/ethereum/go-ethereum/common"

// KeyType is the one-byte discriminant at key[0] of every preimage key.
type KeyType byte

const (
	KeyTypeInvalid              KeyType = 0
	KeyTypeLocal                KeyType = 1
	KeyTypeKeccak256            KeyType = 2
	KeyTypeGlobalGeneric        KeyType = 3
	KeyTypeSha256               KeyType = 4
	KeyTypeBlob                 KeyType = 5
	KeyTypePrecompile           KeyType = 6
	KeyTypeKeccak256ViaPrecompile KeyType = 7
)

// Key is a typed, 32-byte preimage-oracle key.
type Key [32]byte

func (k Key) Type() KeyType { return KeyType(k[0]) }

// LocalKey builds a local-type key from a small integer index, as used
// for boot information (spec.md §6).
func LocalKey(index uint64) Key {
	var k Key
	k[0] = byte(KeyTypeLocal)
	var idxBytes [8]byte
	be := idxBytes[:]
	for i := 7; i >= 0; i-- {
		be[i] = byte(index)
		index >>= 8
	}
	copy(k[32-8:], be)
	return k
}

// Keccak256Key builds a keccak256-type key: the type tag replaces the
// hash's own first byte, the remaining 31 bytes are carried verbatim.
func Keccak256Key(hash common.Hash) Key {
	var k Key
	k[0] = byte(KeyTypeKeccak256)
	copy(k[1:], hash[1:])
	return k
}

// Sha256Key builds a sha256-type key the same way Keccak256Key does.
func Sha256Key(hash common.Hash) Key {
	var k Key
	k[0] = byte(KeyTypeSha256)
	copy(k[1:], hash[1:])
	return k
}

// BlobKey builds a blob-type key for one field element of the blob whose
// versioned hash is given: bytes 1 through 24 of the versioned hash (the
// 24 bytes after its version byte) select the blob, and the trailing 8
// bytes carry the big-endian field-element
// index (0-4095), spec.md §6's "l1-blob" preimage family.
func BlobKey(versionedHash common.Hash, fieldIndex uint64) Key {
	var k Key
	k[0] = byte(KeyTypeBlob)
	copy(k[1:25], versionedHash[1:25])
	for i := 31; i >= 24; i-- {
		k[i] = byte(fieldIndex)
		fieldIndex >>= 8
	}
	return k
}
