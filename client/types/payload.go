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

package types

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// PayloadAttributes is everything the executor needs to build one L2
// block, independent of how it was sequenced.
type PayloadAttributes struct {
	Timestamp             uint64
	PrevRandao            common.Hash
	FeeRecipient          common.Address
	Withdrawals           types.Withdrawals
	ParentBeaconBlockRoot *common.Hash
	Transactions          []hexBytes
	NoTxPool              bool
	GasLimit              uint64
	EIP1559Params         *EIP1559Params
	OperatorFee           *OperatorFeeParams
}

// OperatorFeeParams carries the Isthmus operator-fee scalar/constant the
// attributes builder read from SystemConfig at epoch-open time.
type OperatorFeeParams struct {
	Scalar   uint32
	Constant uint64
}

// AttributesWithParent is what the Attributes Queue (C6.8) yields: the
// built attributes plus enough of the parent to let the executor and
// driver validate continuity.
type AttributesWithParent struct {
	Attributes   *PayloadAttributes
	Parent       L2BlockInfo
	L1Origin     ID
	IsLastInSpan bool
}
