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

package driver

import (
	"fmt"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/op-program/client/executor"
	"github.com/ethereum-optimism/op-program/client/oracle"
	"github.com/ethereum-optimism/op-program/client/providers"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// Driver runs the derivation pipeline and the stateless executor
// together (spec.md §4.8, C8): each call to Step pulls exactly one
// block's attributes out of Pipeline, recovering from Reset/Critical
// errors the way spec.md's "Signals" and "Error Handling Design"
// sections describe, and executes it to produce the next canonical L2
// header.
type Driver struct {
	cfg      *rollup.Config
	pipeline *Pipeline
	l2       *providers.L2ChainProvider
	oracle   oracle.Oracle
	log      log.Logger

	sysCfg       optypes.SystemConfig
	safeHead     optypes.L2BlockInfo
	parentHeader *types.Header
}

// NewDriver constructs a Driver starting from safeHead/parentHeader,
// which must describe the same L2 block (parentHeader.Hash() ==
// safeHead.Hash), and sysCfg, the SystemConfig in effect as of
// safeHead's L1 origin.
func NewDriver(cfg *rollup.Config, pipeline *Pipeline, l2 *providers.L2ChainProvider, o oracle.Oracle, l log.Logger, safeHead optypes.L2BlockInfo, parentHeader *types.Header, sysCfg optypes.SystemConfig) *Driver {
	return &Driver{cfg: cfg, pipeline: pipeline, l2: l2, oracle: o, log: l, sysCfg: sysCfg, safeHead: safeHead, parentHeader: parentHeader}
}

// SafeHead returns the most recently executed (or starting) L2 block.
func (d *Driver) SafeHead() optypes.L2BlockInfo { return d.safeHead }

// Advance derives and executes exactly one more L2 block beyond the
// current safe head, handling Reset signals and the Holocene
// single-flush-then-retry recovery path (spec.md §4.8 Scenario D)
// internally. Any other pipeline error is returned as is, including a
// Temporary types.EOF once no further attributes can be derived, as is
// any execution error the recovery path does not clear.
func (d *Driver) Advance() (*types.Header, error) {
	for {
		attrs, err := d.pipeline.Step(d.safeHead)
		if err != nil {
			if optypes.IsReset(err) {
				d.log.Warn("pipeline reset", "safe_head", d.safeHead, "err", err)
				if rerr := d.pipeline.Reset(ResetSignal{L2SafeHead: d.safeHead, L1Origin: d.safeHead.L1Origin, SystemConfig: d.sysCfg}); rerr != nil {
					return nil, optypes.NewCriticalError(fmt.Errorf("reset pipeline: %w", rerr))
				}
				continue
			}
			return nil, err
		}

		header, receipts, err := executor.Execute(d.parentHeader.Root, d.l2.StateNodeGetter(), d.l2, d.oracle, d.cfg, d.parentHeader, d.sysCfg, attrs.Attributes, d.log)
		if err != nil {
			if optypes.IsCritical(err) && d.cfg.IsHolocene(attrs.Attributes.Timestamp) {
				d.log.Warn("execution failed post-holocene, flushing channel and retrying with deposits only", "safe_head", d.safeHead, "err", err)
				d.pipeline.FlushChannel(d.safeHead.Time)
				depositsOnly := onlyDepositTransactions(attrs.Attributes)
				header, receipts, err = executor.Execute(d.parentHeader.Root, d.l2.StateNodeGetter(), d.l2, d.oracle, d.cfg, d.parentHeader, d.sysCfg, depositsOnly, d.log)
			}
			if err != nil {
				return nil, err
			}
		}
		_ = receipts

		d.advanceSafeHead(header, attrs.L1Origin)
		d.sysCfg = d.pipeline.SystemConfig()
		d.parentHeader = header
		return header, nil
	}
}

// onlyDepositTransactions rebuilds a copy of attrs carrying only its
// leading deposit transactions (the L1 attributes tx and any epoch
// deposits), dropping every sequenced transaction: the Holocene recovery
// path's "deposits-only" replacement block (spec.md §4.8 Scenario D).
func onlyDepositTransactions(attrs *optypes.PayloadAttributes) *optypes.PayloadAttributes {
	kept := make([][]byte, 0, len(attrs.Transactions))
	for _, raw := range attrs.Transactions {
		if len(raw) == 0 || raw[0] != optypes.DepositTxType {
			break
		}
		kept = append(kept, raw)
	}
	cp := *attrs
	cp.Transactions = kept
	return &cp
}

func (d *Driver) advanceSafeHead(header *types.Header, origin optypes.ID) {
	seq := d.safeHead.SeqNumber + 1
	if origin.Number != d.safeHead.L1Origin.Number {
		seq = 0
	}
	d.safeHead = optypes.L2BlockInfo{
		BlockInfo: optypes.BlockInfo{
			Hash:       header.Hash(),
			Number:     header.Number.Uint64(),
			ParentHash: header.ParentHash,
			Time:       header.Time,
		},
		L1Origin:  origin,
		SeqNumber: seq,
	}
}

