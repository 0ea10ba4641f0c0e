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
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// Predeploy addresses an upgrade transaction targets. Mirrored from
// client/executor's unexported copy, like l1BlockAddress: attributes only
// ever builds transactions, it never applies them.
var (
	gasPriceOracleAddress   = common.HexToAddress("0x420000000000000000000000000000000000000F")
	operatorFeeVaultAddress = common.HexToAddress("0x420000000000000000000000000000000000001B")
)

// upgradeIntent is a fixed, human-readable string identifying one
// upgrade transaction, hashed into its domain-2 source hash. These
// strings are part of the chain's consensus rules: changing one changes
// that upgrade transaction's source hash, and with it the activation
// block's transaction hash and transactions root.
type upgradeIntent string

const (
	intentEcotoneL1Block  upgradeIntent = "Ecotone: L1 Block Deposit Contract"
	intentEcotoneGPO      upgradeIntent = "Ecotone: Gas Price Oracle"
	intentFjordGPO        upgradeIntent = "Fjord: Gas Price Oracle"
	intentIsthmusOperator upgradeIntent = "Isthmus: Operator Fee Vault"
	intentIsthmusL1Block  upgradeIntent = "Isthmus: L1 Block Deposit Contract"
)

// upgradeTxSourceHash is domain 2 of the deposit source-hash scheme:
// keccak256(uint256(2) ++ keccak256(intent)), spec.md §4.7 step 2.
func upgradeTxSourceHash(intent upgradeIntent) common.Hash {
	inner := crypto.Keccak256Hash([]byte(intent))
	var domain [32]byte
	domain[31] = 2
	return crypto.Keccak256Hash(domain[:], inner[:])
}

// upgradeDepositTx builds one marker deposit transaction for an upgrade:
// no value, no calldata, gas fixed at 200,000. The actual predeploy code
// replacement happens out of band, in executor.ApplyUpgradeTransactions
// — this transaction exists purely to give the upgrade a canonical,
// hash-stable presence in the block's transaction list and tx root, the
// same way it does on every other OP Stack chain.
func upgradeDepositTx(intent upgradeIntent, to common.Address) *optypes.DepositTx {
	target := to
	return &optypes.DepositTx{
		SourceHash: upgradeTxSourceHash(intent),
		From:       L1InfoDepositerAddress,
		To:         &target,
		Mint:       nil,
		Value:      big.NewInt(0),
		Gas:        200_000,
		IsSystemTx: false,
		Data:       nil,
	}
}

// UpgradeTransactions returns the upgrade deposit transactions due at the
// first L2 block of a hardfork activation (spec.md §4.7 step 2). It
// returns nil on every other block.
func UpgradeTransactions(cfg *rollup.Config, time, parentTime uint64) []*optypes.DepositTx {
	var txs []*optypes.DepositTx
	if cfg.IsEcotoneActivationBlock(time, parentTime) {
		txs = append(txs, upgradeDepositTx(intentEcotoneL1Block, l1BlockAddress))
		txs = append(txs, upgradeDepositTx(intentEcotoneGPO, gasPriceOracleAddress))
	}
	if cfg.IsFjordActivationBlock(time, parentTime) {
		txs = append(txs, upgradeDepositTx(intentFjordGPO, gasPriceOracleAddress))
	}
	if cfg.IsIsthmusActivationBlock(time, parentTime) {
		txs = append(txs, upgradeDepositTx(intentIsthmusOperator, operatorFeeVaultAddress))
		txs = append(txs, upgradeDepositTx(intentIsthmusL1Block, l1BlockAddress))
	}
	return txs
}
