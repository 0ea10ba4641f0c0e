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

// Package program is the fault-proof program's top-level entry point
// (spec.md §4.8, §6): it loads the boot information, verifies the
// claimed starting output root, runs the derivation pipeline and
// executor forward to the claimed L2 block, and reports whether the
// claimed output root at that block actually holds.
package program

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/log"

	"github.com/ethereum-optimism/op-program/client/attributes"
	"github.com/ethereum-optimism/op-program/client/boot"
	"github.com/ethereum-optimism/op-program/client/derivation"
	"github.com/ethereum-optimism/op-program/client/driver"
	"github.com/ethereum-optimism/op-program/client/oracle"
	"github.com/ethereum-optimism/op-program/client/providers"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// Verdict is the program's final answer about BootInfo.L2Claim.
type Verdict int

const (
	// VerdictInvalid means the claimed output root does not match what
	// derivation actually produces at the claimed block.
	VerdictInvalid Verdict = iota
	// VerdictValid means it does.
	VerdictValid
)

func (v Verdict) String() string {
	if v == VerdictValid {
		return "valid"
	}
	return "invalid"
}

// Run executes the whole program against o: load boot info, verify the
// agreed starting output root, derive and execute up to the claimed
// block, and compare output roots. A non-nil error means the run could
// not reach a verdict at all (a Critical pipeline/executor error, a
// missing rollup config) — spec.md §6's "fault" outcome, distinct from a
// clean VerdictInvalid.
func Run(o oracle.Oracle, l log.Logger) (Verdict, error) {
	info, err := boot.Load(o)
	if err != nil {
		return VerdictInvalid, fmt.Errorf("load boot info: %w", err)
	}

	cfg := info.RollupConfig
	if cfg == nil {
		cfg, err = rollup.ConfigByChainID(info.L2ChainID)
		if err != nil {
			return VerdictInvalid, fmt.Errorf("resolve rollup config: %w", err)
		}
	}

	l1 := providers.NewChainProvider(o, l)
	l2 := providers.NewL2ChainProvider(o, l)
	blobs := providers.NewBlobProvider(o, l)
	builder := attributes.NewBuilder(cfg, l1)

	startHeader, err := l2.HeaderByOutputRoot(info.L2OutputRoot)
	if err != nil {
		return VerdictInvalid, fmt.Errorf("resolve starting l2 header: %w", err)
	}
	startWithdrawalRoot, err := withdrawalStorageRootAt(startHeader.Root, l2.StateNodeGetter(), l2)
	if err != nil {
		return VerdictInvalid, fmt.Errorf("resolve starting withdrawal root: %w", err)
	}
	if got := ComputeOutputRoot(startHeader, startWithdrawalRoot); got != info.L2OutputRoot {
		return VerdictInvalid, fmt.Errorf("agreed output root does not hold: claimed %s computed %s", info.L2OutputRoot, got)
	}

	startNumber := startHeader.Number.Uint64()
	if info.L2ClaimBlock < startNumber {
		return VerdictInvalid, fmt.Errorf("claim block %d precedes starting block %d", info.L2ClaimBlock, startNumber)
	}
	if info.L2ClaimBlock == startNumber {
		return verdictFor(info.L2OutputRoot == info.L2Claim), nil
	}

	startOrigin, err := startingL1Origin(l2, startHeader)
	if err != nil {
		return VerdictInvalid, fmt.Errorf("resolve starting l1 origin: %w", err)
	}
	sysCfg, err := bootstrapSystemConfig(cfg, l1, info.L1Head, startOrigin)
	if err != nil {
		return VerdictInvalid, fmt.Errorf("bootstrap system config: %w", err)
	}

	safeHead := optypes.L2BlockInfo{
		BlockInfo: optypes.BlockInfo{
			Hash:       startHeader.Hash(),
			Number:     startNumber,
			ParentHash: startHeader.ParentHash,
			Time:       startHeader.Time,
		},
		L1Origin: startOrigin,
	}

	pipeline, err := driver.NewPipeline(cfg, l1, blobs, builder, info.L1Head, startOrigin, safeHead.Time, sysCfg)
	if err != nil {
		return VerdictInvalid, fmt.Errorf("build pipeline: %w", err)
	}
	d := driver.NewDriver(cfg, pipeline, l2, o, l, safeHead, startHeader, sysCfg)

	var header *types.Header
	for d.SafeHead().Number < info.L2ClaimBlock {
		header, err = d.Advance()
		if err != nil {
			return VerdictInvalid, fmt.Errorf("derive block %d: %w", d.SafeHead().Number+1, err)
		}
	}

	withdrawalRoot, err := withdrawalStorageRootAt(header.Root, l2.StateNodeGetter(), l2)
	if err != nil {
		return VerdictInvalid, fmt.Errorf("resolve claimed withdrawal root: %w", err)
	}
	got := ComputeOutputRoot(header, withdrawalRoot)
	return verdictFor(got == info.L2Claim), nil
}

func verdictFor(ok bool) Verdict {
	if ok {
		return VerdictValid
	}
	return VerdictInvalid
}

// startingL1Origin recovers the L1 epoch the starting safe head was
// derived against by decoding its leading L1 attributes deposit
// transaction, the only record of that association the L2 chain itself
// carries (spec.md §4.7 step 1).
func startingL1Origin(l2 *providers.L2ChainProvider, header *types.Header) (optypes.ID, error) {
	txs, err := l2.RawTransactionsByHash(header.Hash())
	if err != nil {
		return optypes.ID{}, err
	}
	if len(txs) == 0 {
		return optypes.ID{}, fmt.Errorf("l2 block %s has no transactions", header.Hash())
	}
	dep, err := optypes.DecodeDepositTx(txs[0])
	if err != nil {
		return optypes.ID{}, fmt.Errorf("decode l1 attributes transaction: %w", err)
	}
	info, err := attributes.UnmarshalL1BlockInfo(dep.Data)
	if err != nil {
		return optypes.ID{}, fmt.Errorf("decode l1 attributes calldata: %w", err)
	}
	return optypes.ID{Hash: info.BlockHash, Number: info.Number}, nil
}

// bootstrapSystemConfig replays every ConfigUpdate log from genesis up
// to startOrigin to recover the SystemConfig in effect there: boot info
// only carries the rollup's static Config, whose GenesisSystemConfig is
// anchored at GenesisL1, not at an arbitrary later starting epoch. It
// reuses L1 Traversal itself rather than duplicating its replay logic,
// at the cost of walking the L1 range between genesis and the starting
// epoch twice (once here, once again inside the pipeline built from
// startOrigin onward) — acceptable since ChainProvider caches every
// header/receipt fetch, so the second walk costs no further preimages.
func bootstrapSystemConfig(cfg *rollup.Config, l1 *providers.ChainProvider, l1Head common.Hash, startOrigin optypes.ID) (optypes.SystemConfig, error) {
	t, err := derivation.NewL1Traversal(cfg, l1, l1Head, cfg.GenesisL1.Number, cfg.GenesisSystemConfig)
	if err != nil {
		return optypes.SystemConfig{}, err
	}
	for {
		blk, err := t.NextL1Block()
		if err != nil {
			return optypes.SystemConfig{}, fmt.Errorf("walk l1 to starting origin %d: %w", startOrigin.Number, err)
		}
		if blk.Number >= startOrigin.Number {
			return t.SystemConfig(), nil
		}
	}
}
