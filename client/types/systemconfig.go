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

import "github.com/ethereum/go-ethereum/common"

// EIP1559Params overrides the chain's default EIP-1559 denominator and
// elasticity, either carried in SystemConfig (pre-Holocene) or encoded in
// the parent header's extra data (post-Holocene, see RollupConfig.IsHolocene).
type EIP1559Params struct {
	Denominator uint32
	Elasticity  uint32
}

func (p EIP1559Params) IsZero() bool { return p.Denominator == 0 && p.Elasticity == 0 }

// SystemConfig carries the rollup-configurable knobs that can change at
// any L1 height via ConfigUpdate log events emitted by the
// L1SystemConfigAddress contract.
type SystemConfig struct {
	BatcherAddr     common.Address
	Overhead        [32]byte
	Scalar          [32]byte
	GasLimit        uint64
	BaseFeeScalar   uint32
	BlobBaseFeeScalar uint32
	EIP1559Params   EIP1559Params

	// OperatorFeeScalar/Constant are Isthmus-era operator fee parameters.
	OperatorFeeScalar   uint32
	OperatorFeeConstant uint64
}
