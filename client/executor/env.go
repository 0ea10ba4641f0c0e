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

// Package executor implements the stateless block executor (C5): given a
// parent L2 header, a rollup configuration, and a set of payload
// attributes, it applies the block's transactions against a statedb.StateDB
// and produces the resulting header, receipts and state root.
package executor

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// BlockEnv carries everything about the block being built that fee and
// upgrade logic need, gathered once per block rather than threaded as a
// dozen separate parameters.
type BlockEnv struct {
	Config *rollup.Config

	Number     uint64
	Time       uint64
	ParentTime uint64

	BaseFee     *uint256.Int
	BlobBaseFee *uint256.Int
	Coinbase    common.Address
	GasLimit    uint64
	PrevRandao  common.Hash
	ChainID     *big.Int
	OperatorFee *optypes.OperatorFeeParams

	// L1BaseFee/L1BlobBaseFee/L1BaseFeeScalar/L1BlobBaseFeeScalar carry
	// the epoch's L1 attributes, read off the block's leading L1
	// attributes deposit transaction, that applyUserTx's L1DataFee
	// accounting needs (spec.md §4.5 step 4 "L1 fee ... to the L1 fee
	// vault"). Zero on any block whose leading transaction isn't
	// Ecotone+-shaped, which naturally makes L1DataFee charge nothing.
	L1BaseFee           *uint256.Int
	L1BlobBaseFee       *uint256.Int
	L1BaseFeeScalar     uint32
	L1BlobBaseFeeScalar uint32
}

func (e *BlockEnv) isCanyonActivation() bool   { return e.Config.IsCanyonActivationBlock(e.Time, e.ParentTime) }
func (e *BlockEnv) isEcotoneActivation() bool  { return e.Config.IsEcotoneActivationBlock(e.Time, e.ParentTime) }
func (e *BlockEnv) isFjordActivation() bool    { return e.Config.IsFjordActivationBlock(e.Time, e.ParentTime) }
func (e *BlockEnv) isGraniteActivation() bool  { return e.Config.IsGraniteActivationBlock(e.Time, e.ParentTime) }
func (e *BlockEnv) isHoloceneActivation() bool { return e.Config.IsHoloceneActivationBlock(e.Time, e.ParentTime) }
func (e *BlockEnv) isIsthmusActivation() bool  { return e.Config.IsIsthmusActivationBlock(e.Time, e.ParentTime) }
