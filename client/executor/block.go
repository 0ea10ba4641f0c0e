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
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"

	"github.com/ethereum-optimism/op-program/client/oracle"
	"github.com/ethereum-optimism/op-program/client/rollup"
	"github.com/ethereum-optimism/op-program/client/statedb"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// BuildEnv resolves the active EIP-1559 parameters and base fee for the
// block that follows parent, and assembles the BlockEnv every other step
// of execution reads from (spec.md §4.5 step 1).
func BuildEnv(cfg *rollup.Config, parent *types.Header, sysCfg optypes.SystemConfig, attrs *optypes.PayloadAttributes) (*BlockEnv, optypes.EIP1559Params, error) {
	isHolocene := cfg.IsHolocene(attrs.Timestamp)

	eip1559 := sysCfg.EIP1559Params
	if isHolocene {
		eip1559 = decodeHolocene1559Params(parent.Extra)
		if attrs.EIP1559Params != nil && !attrs.EIP1559Params.IsZero() {
			eip1559 = *attrs.EIP1559Params
		}
	}

	parentBaseFee := uint256.NewInt(0)
	if parent.BaseFee != nil {
		var overflow bool
		parentBaseFee, overflow = uint256.FromBig(parent.BaseFee)
		if overflow {
			return nil, optypes.EIP1559Params{}, fmt.Errorf("parent base fee overflows uint256")
		}
	}
	baseFee := NextBaseFee(parentBaseFee, parent.GasUsed, parent.GasLimit, eip1559, isHolocene)

	var blobBaseFee *uint256.Int
	if cfg.IsEcotone(attrs.Timestamp) {
		excess := nextExcessBlobGas(parent)
		bf, err := BlobBaseFee(excess)
		if err != nil {
			return nil, optypes.EIP1559Params{}, fmt.Errorf("compute blob base fee: %w", err)
		}
		blobBaseFee = bf
	}

	l1BaseFee, l1BlobBaseFee, l1BaseFeeScalar, l1BlobBaseFeeScalar := l1FeeParams(attrs)

	return &BlockEnv{
		Config:              cfg,
		Number:              parent.Number.Uint64() + 1,
		Time:                attrs.Timestamp,
		ParentTime:          parent.Time,
		BaseFee:             baseFee,
		BlobBaseFee:         blobBaseFee,
		Coinbase:            attrs.FeeRecipient,
		GasLimit:            attrs.GasLimit,
		PrevRandao:          attrs.PrevRandao,
		ChainID:             new(big.Int).SetUint64(cfg.L2ChainID),
		OperatorFee:         attrs.OperatorFee,
		L1BaseFee:           l1BaseFee,
		L1BlobBaseFee:       l1BlobBaseFee,
		L1BaseFeeScalar:     l1BaseFeeScalar,
		L1BlobBaseFeeScalar: l1BlobBaseFeeScalar,
	}, eip1559, nil
}

// l1FeeParams extracts the L1 base fee, blob base fee, and their scalars
// from attrs' leading L1 attributes deposit transaction (always
// transactions[0], per client/attributes.Builder), so applyUserTx can
// charge each non-deposit transaction its L1 data fee without decoding
// that transaction a second time per tx. Returns zeros if the leading
// transaction is absent, not a deposit, or Bedrock-shaped (pre-Ecotone's
// overhead*scalar formula is not implemented here), which naturally
// makes L1DataFee compute a zero fee.
func l1FeeParams(attrs *optypes.PayloadAttributes) (baseFee, blobBaseFee *uint256.Int, baseFeeScalar, blobBaseFeeScalar uint32) {
	baseFee, blobBaseFee = uint256.NewInt(0), uint256.NewInt(0)
	if len(attrs.Transactions) == 0 || !optypes.IsDepositTx(attrs.Transactions[0]) {
		return baseFee, blobBaseFee, 0, 0
	}
	dep, err := optypes.DecodeDepositTx(attrs.Transactions[0])
	if err != nil {
		return baseFee, blobBaseFee, 0, 0
	}
	bf, bbf, bfs, bbfs, err := decodeL1FeeParams(dep.Data)
	if err != nil {
		return baseFee, blobBaseFee, 0, 0
	}
	return bf, bbf, bfs, bbfs
}

// Execute is the stateless block executor's single entry point (C5):
// given the parent header and the payload attributes the pipeline
// produced for the next block, it applies every transaction against a
// fresh statedb view of the parent's state root and returns the
// resulting canonical header plus receipts.
func Execute(parentRoot common.Hash, get statedbNodeGetter, code statedb.CodeReader, o oracle.Oracle, cfg *rollup.Config, parent *types.Header, sysCfg optypes.SystemConfig, attrs *optypes.PayloadAttributes, l log.Logger) (*types.Header, []*types.Receipt, error) {
	env, eip1559, err := BuildEnv(cfg, parent, sysCfg, attrs)
	if err != nil {
		return nil, nil, optypes.NewCriticalError(fmt.Errorf("build block env: %w", err))
	}

	db := statedb.New(parentRoot, get, code)
	result, err := ApplyBlock(db, o, env, attrs, l)
	if err != nil {
		return nil, nil, err
	}

	header, err := BuildHeader(env, parent, attrs, result, eip1559)
	if err != nil {
		return nil, nil, optypes.NewCriticalError(fmt.Errorf("build header: %w", err))
	}
	return header, result.Receipts, nil
}

// statedbNodeGetter avoids importing client/mpt just to name the
// function-typed NodeGetter parameter in Execute's signature.
type statedbNodeGetter = func(common.Hash) ([]byte, error)
