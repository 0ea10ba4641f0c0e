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

// Package boot loads the program's local boot information: the six
// well-known local-key preimages (spec.md §6) that seed everything else
// the program does, plus the hardfork predeploy bytecode the upgrade
// transactions install.
package boot

import (
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/op-program/client/oracle"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// Local-key indices, spec.md §6: the six fixed preimages every program
// run starts from.
const (
	L1HeadLocalIndex         uint64 = 1
	L2OutputRootLocalIndex   uint64 = 2
	L2ClaimLocalIndex        uint64 = 3
	L2ClaimBlockNumberIndex  uint64 = 4
	L2ChainIDLocalIndex      uint64 = 5
	RollupConfigLocalIndex   uint64 = 6
)

// predeployCodeLocalIndexBase is the first local-key index used for
// hardfork predeploy bytecode blobs; indices above the six boot keys are
// free for program-specific use the way spec.md's glossary describes
// local keys.
const predeployCodeLocalIndexBase uint64 = 100

// PredeployCode names the predeploy bytecode blobs an upgrade
// transaction might install.
type PredeployCode int

const (
	CodeL1Block PredeployCode = iota
	CodeGasPriceOracle
	CodeL2ToL1MessagePasser
	CodeOperatorFeeVault
)

// BootInfo is everything the program reads out of the six local keys
// before it can do anything else.
type BootInfo struct {
	L1Head        common.Hash
	L2OutputRoot  common.Hash
	L2Claim       common.Hash
	L2ClaimBlock  uint64
	L2ChainID     uint64
	RollupConfig  *rollup.Config
}

// Load reads the boot-info local keys from o and parses them into a
// BootInfo. The rollup configuration itself is delivered as JSON, since
// it is the one boot key with genuinely structured content.
func Load(o oracle.Oracle) (*BootInfo, error) {
	l1Head, err := getHash(o, L1HeadLocalIndex)
	if err != nil {
		return nil, fmt.Errorf("load l1 head: %w", err)
	}
	l2Output, err := getHash(o, L2OutputRootLocalIndex)
	if err != nil {
		return nil, fmt.Errorf("load l2 output root: %w", err)
	}
	l2Claim, err := getHash(o, L2ClaimLocalIndex)
	if err != nil {
		return nil, fmt.Errorf("load l2 claim: %w", err)
	}
	claimBlock, err := getUint64(o, L2ClaimBlockNumberIndex)
	if err != nil {
		return nil, fmt.Errorf("load l2 claim block number: %w", err)
	}
	chainID, err := getUint64(o, L2ChainIDLocalIndex)
	if err != nil {
		return nil, fmt.Errorf("load l2 chain id: %w", err)
	}
	cfgBytes, err := o.Get(oracle.LocalKey(RollupConfigLocalIndex))
	if err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("load rollup config: %w", err))
	}
	var cfg rollup.Config
	if err := json.Unmarshal(cfgBytes, &cfg); err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("decode rollup config: %w", err))
	}

	return &BootInfo{
		L1Head:       l1Head,
		L2OutputRoot: l2Output,
		L2Claim:      l2Claim,
		L2ClaimBlock: claimBlock,
		L2ChainID:    chainID,
		RollupConfig: &cfg,
	}, nil
}

// PredeployBytecode fetches the canonical deployed bytecode for a
// hardfork predeploy upgrade from its local key, keeping the (large,
// protocol-fixed) bytecode itself out of the program's source.
func PredeployBytecode(o oracle.Oracle, code PredeployCode) ([]byte, error) {
	data, err := o.Get(oracle.LocalKey(predeployCodeLocalIndexBase + uint64(code)))
	if err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("load predeploy code %d: %w", code, err))
	}
	return data, nil
}

func getHash(o oracle.Oracle, idx uint64) (common.Hash, error) {
	data, err := o.Get(oracle.LocalKey(idx))
	if err != nil {
		return common.Hash{}, optypes.NewCriticalError(err)
	}
	if len(data) != common.HashLength {
		return common.Hash{}, optypes.NewCriticalError(fmt.Errorf("local key %d: want %d bytes got %d", idx, common.HashLength, len(data)))
	}
	return common.BytesToHash(data), nil
}

func getUint64(o oracle.Oracle, idx uint64) (uint64, error) {
	data, err := o.Get(oracle.LocalKey(idx))
	if err != nil {
		return 0, optypes.NewCriticalError(err)
	}
	if len(data) != 8 {
		return 0, optypes.NewCriticalError(fmt.Errorf("local key %d: want 8 bytes got %d", idx, len(data)))
	}
	var v uint64
	for _, b := range data {
		v = v<<8 | uint64(b)
	}
	return v, nil
}
