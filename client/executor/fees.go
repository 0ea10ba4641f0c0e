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
	"encoding/binary"
	"fmt"

	"github.com/holiman/uint256"

	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// FeeSplit is the result of accounting one transaction's execution fees:
// how much is burned, how much the block's fee recipient is credited,
// and how much (if anything) is charged against the sender beyond the
// value it transfers (spec.md §4.5 fee accounting).
type FeeSplit struct {
	Burned       *uint256.Int
	CoinbaseFee  *uint256.Int
	SenderCharge *uint256.Int
}

// ComputeFees splits one transaction's execution cost given the gas it
// used, the block's base fee, and the tx's own fee cap/tip, crediting an
// Isthmus operator fee on top of the priority fee when opFee is non-nil.
func ComputeFees(gasUsed uint64, baseFee, gasTipCap, gasFeeCap *uint256.Int, opFee *optypes.OperatorFeeParams) FeeSplit {
	gas := uint256.NewInt(gasUsed)

	tip := gasTipCap.Clone()
	if headroom := new(uint256.Int).Sub(gasFeeCap, baseFee); tip.Gt(headroom) {
		tip = headroom
	}

	burned := new(uint256.Int).Mul(baseFee, gas)
	priority := new(uint256.Int).Mul(tip, gas)
	coinbaseFee := priority.Clone()

	senderCharge := new(uint256.Int).Add(burned, priority)

	if opFee != nil {
		operator := new(uint256.Int).Mul(gas, uint256.NewInt(uint64(opFee.Scalar)))
		operator.Div(operator, uint256.NewInt(1_000_000))
		operator.Add(operator, uint256.NewInt(opFee.Constant))
		coinbaseFee = new(uint256.Int).Add(coinbaseFee, operator)
		senderCharge = new(uint256.Int).Add(senderCharge, operator)
	}

	return FeeSplit{Burned: burned, CoinbaseFee: coinbaseFee, SenderCharge: senderCharge}
}

// L1DataFee computes the L1 data-availability fee a non-deposit
// transaction owes, per the Ecotone formula: scaledBaseFee*16 +
// scaledBlobBaseFee, averaged over 16 (EIP-2028's non-zero byte cost
// baseline) and scaled by l1GasUsed, the per-transaction data gas the
// caller supplies (the executor computes it with rollupDataGas from the
// transaction's raw bytes).
func L1DataFee(l1GasUsed uint64, l1BaseFee, l1BlobBaseFee *uint256.Int, baseFeeScalar, blobBaseFeeScalar uint32) *uint256.Int {
	scaledBase := new(uint256.Int).Mul(l1BaseFee, uint256.NewInt(uint64(baseFeeScalar)))
	scaledBase.Mul(scaledBase, uint256.NewInt(16))
	scaledBlob := new(uint256.Int).Mul(l1BlobBaseFee, uint256.NewInt(uint64(blobBaseFeeScalar)))
	sum := new(uint256.Int).Add(scaledBase, scaledBlob)
	fee := sum.Mul(sum, uint256.NewInt(l1GasUsed))
	const precisionDivisor = 16 * 1_000_000
	return fee.Div(fee, uint256.NewInt(precisionDivisor))
}

// rollupDataGas estimates the L1 data-availability gas raw's bytes would
// cost to post, applying the same per-byte cost schedule L1 calldata
// itself charges (EIP-2028: 4 gas per zero byte, 16 per non-zero byte)
// directly to the transaction's own serialized bytes, in lieu of the
// batcher's separately-published compressed-size accounting.
func rollupDataGas(raw []byte) uint64 {
	var zeroes, ones uint64
	for _, b := range raw {
		if b == 0 {
			zeroes++
		} else {
			ones++
		}
	}
	return zeroes*4 + ones*16
}

// l1AttributesEcotoneLen is the byte length of the Ecotone (and the
// Ecotone-prefix shared by Isthmus) L1 attributes calldata layout,
// mirroring client/attributes.ecotoneLen.
const l1AttributesEcotoneLen = 4 + 4 + 4 + 8 + 8 + 8 + 32 + 32 + 32 + 32

// decodeL1FeeParams pulls the four fields L1DataFee needs — L1 base fee,
// blob base fee, and their scalars — directly off an Ecotone/Isthmus-
// layout L1 attributes calldata blob's known byte offsets. The full
// L1BlockInfo decode already lives in client/attributes, which imports
// this package to build transactions, so decoding the whole struct back
// here would cycle; only these four fee-accounting fields are needed, so
// they are read directly rather than through that type.
func decodeL1FeeParams(calldata []byte) (baseFee, blobBaseFee *uint256.Int, baseFeeScalar, blobBaseFeeScalar uint32, err error) {
	if len(calldata) < l1AttributesEcotoneLen {
		return nil, nil, 0, 0, fmt.Errorf("l1 attributes calldata too short for fee params: %d bytes", len(calldata))
	}
	if len(calldata) == 4+8*32 { // Bedrock layout: selector plus eight ABI words, no Ecotone fee fields
		return nil, nil, 0, 0, fmt.Errorf("bedrock-layout l1 attributes calldata carries no ecotone fee params")
	}
	baseFeeScalar = binary.BigEndian.Uint32(calldata[4:8])
	blobBaseFeeScalar = binary.BigEndian.Uint32(calldata[8:12])
	baseFee = new(uint256.Int).SetBytes(calldata[36:68])
	blobBaseFee = new(uint256.Int).SetBytes(calldata[68:100])
	return baseFee, blobBaseFee, baseFeeScalar, blobBaseFeeScalar, nil
}
