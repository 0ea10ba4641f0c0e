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

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/op-program/client/boot"
	"github.com/ethereum-optimism/op-program/client/oracle"
	"github.com/ethereum-optimism/op-program/client/statedb"
)

// Well-known L2 predeploy addresses whose bytecode an upgrade
// transaction replaces in place (spec.md §4.5 upgrade transactions).
var (
	l1BlockAddress          = common.HexToAddress("0x4200000000000000000000000000000000000015")
	gasPriceOracleAddress   = common.HexToAddress("0x420000000000000000000000000000000000000F")
	l2ToL1MessagePasserAddr = common.HexToAddress("0x4200000000000000000000000000000000000016")
	operatorFeeVaultAddress = common.HexToAddress("0x420000000000000000000000000000000000001B")
)

// l1FeeVaultAddress is the predeploy every non-deposit transaction's L1
// data fee accrues to (spec.md §4.5 step 4). Unlike the addresses above,
// its code never changes across hardforks, so no upgrade transaction
// installs it; applyUserTx only ever credits its balance.
var l1FeeVaultAddress = common.HexToAddress("0x420000000000000000000000000000000000001A")

// ApplyUpgradeTransactions installs the predeploy bytecode changes a
// hardfork activation block carries, in the same deterministic order on
// every replaying client (spec.md §4.5 edge case: upgrade txs never
// touch the EVM, only account code).
func ApplyUpgradeTransactions(db *statedb.StateDB, o oracle.Oracle, env *BlockEnv) error {
	if env.isEcotoneActivation() {
		if err := installPredeploy(db, o, l1BlockAddress, boot.CodeL1Block); err != nil {
			return err
		}
		if err := installPredeploy(db, o, gasPriceOracleAddress, boot.CodeGasPriceOracle); err != nil {
			return err
		}
	}
	if env.isFjordActivation() {
		if err := installPredeploy(db, o, gasPriceOracleAddress, boot.CodeGasPriceOracle); err != nil {
			return err
		}
	}
	if env.isIsthmusActivation() {
		if err := installPredeploy(db, o, operatorFeeVaultAddress, boot.CodeOperatorFeeVault); err != nil {
			return err
		}
		if err := installPredeploy(db, o, l1BlockAddress, boot.CodeL1Block); err != nil {
			return err
		}
	}
	return nil
}

func installPredeploy(db *statedb.StateDB, o oracle.Oracle, addr common.Address, code boot.PredeployCode) error {
	bytecode, err := boot.PredeployBytecode(o, code)
	if err != nil {
		return fmt.Errorf("install predeploy %s: %w", addr, err)
	}
	return db.SetCode(addr, bytecode)
}
