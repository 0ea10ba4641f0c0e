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

	"github.com/ethereum/go-ethereum/params"
	"github.com/holiman/uint256"

	optypes "github.com/ethereum-optimism/op-program/client/types"
)

const (
	defaultEIP1559Denominator = 250
	defaultEIP1559Elasticity  = 6
	minBaseFee                = 1
)

// FakeExponential approximates factor * e**(num/denom) with the Taylor
// expansion EIP-4844 specifies; used here for blob gas fee pricing,
// directly grounded on the equivalent routine in the chain's
// consensus/misc EIP-4844 helpers.
func FakeExponential(factor, denom *uint256.Int, num uint64) (*uint256.Int, error) {
	numerator := uint256.NewInt(num)
	output := uint256.NewInt(0)
	numeratorAccum := new(uint256.Int)
	if _, overflow := numeratorAccum.MulOverflow(factor, denom); overflow {
		return nil, fmt.Errorf("FakeExponential: overflow computing factor*denom")
	}
	divisor := new(uint256.Int)
	for i := 1; numeratorAccum.Sign() > 0; i++ {
		var overflow bool
		if _, overflow = output.AddOverflow(output, numeratorAccum); overflow {
			return nil, fmt.Errorf("FakeExponential: overflow accumulating output")
		}
		if _, overflow = divisor.MulOverflow(denom, uint256.NewInt(uint64(i))); overflow {
			return nil, fmt.Errorf("FakeExponential: overflow computing divisor")
		}
		if _, overflow = numeratorAccum.MulDivOverflow(numeratorAccum, numerator, divisor); overflow {
			return nil, fmt.Errorf("FakeExponential: overflow computing next term")
		}
	}
	return output.Div(output, denom), nil
}

// eip1559Params resolves the denominator/elasticity pair in effect for a
// block: once Holocene activates, the system config may carry them per
// block; a zero value there falls back to the chain's hardcoded default
// (spec.md's Holocene EIP-1559 parameter override).
func eip1559Params(sysCfg optypes.EIP1559Params, isHolocene bool) (denom, elasticity uint32) {
	if isHolocene && !sysCfg.IsZero() {
		return sysCfg.Denominator, sysCfg.Elasticity
	}
	return defaultEIP1559Denominator, defaultEIP1559Elasticity
}

// NextBaseFee computes the EIP-1559 base fee for a block given its
// parent's base fee, gas used and gas limit, honoring whichever
// denominator/elasticity pair eip1559Params resolves.
func NextBaseFee(parentBaseFee *uint256.Int, parentGasUsed, parentGasLimit uint64, sysCfg optypes.EIP1559Params, isHolocene bool) *uint256.Int {
	denom, elasticity := eip1559Params(sysCfg, isHolocene)
	if elasticity == 0 {
		elasticity = defaultEIP1559Elasticity
	}
	if denom == 0 {
		denom = defaultEIP1559Denominator
	}
	gasTarget := parentGasLimit / uint64(elasticity)
	if gasTarget == 0 || parentGasUsed == gasTarget {
		return parentBaseFee.Clone()
	}
	if parentGasUsed > gasTarget {
		gasUsedDelta := parentGasUsed - gasTarget
		x := new(uint256.Int).Mul(parentBaseFee, uint256.NewInt(gasUsedDelta))
		y := x.Div(x, uint256.NewInt(gasTarget))
		baseFeeDelta := y.Div(y, uint256.NewInt(uint64(denom)))
		if baseFeeDelta.IsZero() {
			baseFeeDelta = uint256.NewInt(1)
		}
		return new(uint256.Int).Add(parentBaseFee, baseFeeDelta)
	}
	gasUsedDelta := gasTarget - parentGasUsed
	x := new(uint256.Int).Mul(parentBaseFee, uint256.NewInt(gasUsedDelta))
	y := x.Div(x, uint256.NewInt(gasTarget))
	baseFeeDelta := y.Div(y, uint256.NewInt(uint64(denom)))
	next := new(uint256.Int).Sub(parentBaseFee, baseFeeDelta)
	if next.LtUint64(minBaseFee) {
		return uint256.NewInt(minBaseFee)
	}
	return next
}

// BlobBaseFee returns the per-byte blob fee for a header's excess blob
// gas, using the Cancun constants go-ethereum's params package exposes.
func BlobBaseFee(excessBlobGas uint64) (*uint256.Int, error) {
	return FakeExponential(uint256.NewInt(params.BlobTxMinBlobGasprice), uint256.NewInt(params.BlobTxBlobGaspriceUpdateFraction), excessBlobGas)
}
