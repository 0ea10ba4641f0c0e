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

package executor

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// signerFor returns the EIP-155/EIP-1559/EIP-7702-aware signer for
// chainID; every signed (non-deposit) transaction in a block uses the
// same signer regardless of its own tx type.
func signerFor(chainID *big.Int) types.Signer {
	return types.LatestSignerForChainID(chainID)
}

// Sender recovers tx's sender via ECDSA signature recovery. The
// elliptic-curve recovery math itself lives in go-ethereum/crypto, which
// in this module version is backed by decred's and btcsuite's pure-Go
// secp256k1 implementations rather than cgo libsecp256k1 — recovering a
// signature by hand against those primitives directly would duplicate
// well-tested curve arithmetic for no benefit, so sender recovery goes
// through the stable crypto.Ecrecover-based wrapper types.Sender exposes.
func Sender(tx *types.Transaction, chainID *big.Int) (common.Address, error) {
	signer := signerFor(chainID)
	addr, err := types.Sender(signer, tx)
	if err != nil {
		return common.Address{}, optypes.NewCriticalError(fmt.Errorf("recover sender: %w", err))
	}
	return addr, nil
}
