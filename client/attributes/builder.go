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

package attributes

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"

	"github.com/ethereum-optimism/op-program/client/executor"
	"github.com/ethereum-optimism/op-program/client/providers"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// Builder turns one accepted batch into the PayloadAttributes the
// executor runs, spec.md §4.7 (C7).
type Builder struct {
	cfg *rollup.Config
	l1  *providers.ChainProvider
}

func NewBuilder(cfg *rollup.Config, l1 *providers.ChainProvider) *Builder {
	return &Builder{cfg: cfg, l1: l1}
}

// BuildAttributes assembles one block's PayloadAttributes from a batch
// and the L1 epoch it was sequenced against. seqNumber is the batch's
// position within its epoch: 0 for the first L2 block of an epoch, the
// only block that carries the epoch's user deposit transactions.
func (b *Builder) BuildAttributes(parent optypes.L2BlockInfo, epoch optypes.BlockInfo, sysCfg optypes.SystemConfig, batch *optypes.SingleBatch, seqNumber uint64) (*optypes.PayloadAttributes, error) {
	if batch.EpochHash != epoch.Hash {
		return nil, optypes.NewCriticalError(fmt.Errorf("batch epoch hash %s does not match epoch %s", batch.EpochHash, epoch.Hash))
	}

	info := &L1BlockInfo{
		Number:              epoch.Number,
		Time:                epoch.Time,
		BlockHash:           epoch.Hash,
		SequenceNumber:      seqNumber,
		BatcherAddr:         common.BytesToHash(sysCfg.BatcherAddr.Bytes()),
		BaseFeeScalar:       sysCfg.BaseFeeScalar,
		BlobBaseFeeScalar:   sysCfg.BlobBaseFeeScalar,
		OperatorFeeScalar:   sysCfg.OperatorFeeScalar,
		OperatorFeeConstant: sysCfg.OperatorFeeConstant,
		L1FeeOverhead:       sysCfg.Overhead,
		L1FeeScalar:         sysCfg.Scalar,
	}

	l1Header, err := b.l1.HeaderByHash(epoch.Hash)
	if err != nil {
		return nil, err
	}
	info.BaseFee = l1Header.BaseFee
	info.BlobBaseFee, err = l1BlobBaseFee(l1Header)
	if err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("compute l1 blob base fee: %w", err))
	}

	isEcotone := b.cfg.IsEcotone(batch.Timestamp)
	isIsthmus := b.cfg.IsIsthmus(batch.Timestamp)

	l1InfoTx, err := MakeL1InfoDepositTx(info, epoch.Hash, isEcotone, isIsthmus)
	if err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("build l1 attributes tx: %w", err))
	}
	l1InfoRaw, err := l1InfoTx.MarshalBinary()
	if err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("marshal l1 attributes tx: %w", err))
	}

	txs := [][]byte{l1InfoRaw}

	for _, up := range UpgradeTransactions(b.cfg, batch.Timestamp, parent.Time) {
		raw, err := up.MarshalBinary()
		if err != nil {
			return nil, optypes.NewCriticalError(fmt.Errorf("marshal upgrade tx: %w", err))
		}
		txs = append(txs, raw)
	}

	if seqNumber == 0 {
		_, receipts, err := b.l1.ReceiptsByHash(epoch.Hash)
		if err != nil {
			return nil, err
		}
		deposits, err := DecodeUserDeposits(receipts, b.cfg.DepositContractAddress, epoch.Hash)
		if err != nil {
			return nil, err
		}
		for _, dep := range deposits {
			raw, err := dep.MarshalBinary()
			if err != nil {
				return nil, optypes.NewCriticalError(fmt.Errorf("marshal deposit tx: %w", err))
			}
			txs = append(txs, raw)
		}
	}

	txs = append(txs, batch.Transactions...)

	var operatorFee *optypes.OperatorFeeParams
	if isIsthmus {
		operatorFee = &optypes.OperatorFeeParams{
			Scalar:   sysCfg.OperatorFeeScalar,
			Constant: sysCfg.OperatorFeeConstant,
		}
	}

	var eip1559 *optypes.EIP1559Params
	if !sysCfg.EIP1559Params.IsZero() {
		p := sysCfg.EIP1559Params
		eip1559 = &p
	}

	var parentBeaconRoot *common.Hash
	if isEcotone {
		parentBeaconRoot = l1Header.ParentBeaconBlockRoot
	}

	var withdrawals types.Withdrawals
	if b.cfg.IsCanyon(batch.Timestamp) {
		withdrawals = types.Withdrawals{}
	}

	return &optypes.PayloadAttributes{
		Timestamp:             batch.Timestamp,
		PrevRandao:            l1Header.MixDigest,
		FeeRecipient:          sequencerFeeVaultAddress,
		Withdrawals:           withdrawals,
		ParentBeaconBlockRoot: parentBeaconRoot,
		Transactions:          txs,
		NoTxPool:              true,
		GasLimit:              sysCfg.GasLimit,
		EIP1559Params:         eip1559,
		OperatorFee:           operatorFee,
	}, nil
}

// l1BlobBaseFee derives the L1 origin's blob base fee from its excess
// blob gas, the fee the batcher actually paid to post this epoch's data
// and which the L1 attributes transaction reports onward to the L2 gas
// price oracle predeploy (spec.md §4.7 step 1).
func l1BlobBaseFee(h *types.Header) (*big.Int, error) {
	if h.ExcessBlobGas == nil {
		return big.NewInt(1), nil
	}
	fee, err := executor.BlobBaseFee(*h.ExcessBlobGas)
	if err != nil {
		return nil, err
	}
	return fee.ToBig(), nil
}

// sequencerFeeVaultAddress receives every block's priority fee, the
// fixed OP Stack predeploy every chain uses.
var sequencerFeeVaultAddress = common.HexToAddress("0x4200000000000000000000000000000000000011")
