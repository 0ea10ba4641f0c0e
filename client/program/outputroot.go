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

package program

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethereum-optimism/op-program/client/mpt"
	"github.com/ethereum-optimism/op-program/client/statedb"
)

// l2ToL1MessagePasserAddr is the predeploy whose storage root the output
// root commits to directly, mirrored from client/executor/upgrades.go's
// unexported copy since this package has no other reason to import
// executor.
var l2ToL1MessagePasserAddr = common.HexToAddress("0x4200000000000000000000000000000000000016")

// outputRootVersion0 is the only output root version this program
// produces or checks (spec.md §4.8 step 6): OP Stack has reserved higher
// version bytes for a future commitment scheme, never exercised here.
var outputRootVersion0 [32]byte

// ComputeOutputRoot computes the version-0 L2 output root for header,
// given the L2ToL1MessagePasser predeploy's storage root at that block:
// keccak256(version ++ stateRoot ++ withdrawalStorageRoot ++ blockHash).
func ComputeOutputRoot(header *types.Header, withdrawalStorageRoot common.Hash) common.Hash {
	var buf [128]byte
	copy(buf[0:32], outputRootVersion0[:])
	copy(buf[32:64], header.Root[:])
	copy(buf[64:96], withdrawalStorageRoot[:])
	hash := header.Hash()
	copy(buf[96:128], hash[:])
	return crypto.Keccak256Hash(buf[:])
}

// withdrawalStorageRootAt opens a stateless view of the world state
// rooted at stateRoot and reads the L2ToL1MessagePasser predeploy's
// storage root out of it, the one piece of state ComputeOutputRoot needs
// beyond the header itself.
func withdrawalStorageRootAt(stateRoot common.Hash, get mpt.NodeGetter, code statedb.CodeReader) (common.Hash, error) {
	db := statedb.New(stateRoot, get, code)
	root, err := db.StorageRoot(l2ToL1MessagePasserAddr)
	if err != nil {
		return common.Hash{}, fmt.Errorf("read l2tol1 message passer storage root: %w", err)
	}
	return root, nil
}
