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
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/op-program/client/mpt"
	"github.com/ethereum-optimism/op-program/client/rollup"
	"github.com/ethereum-optimism/op-program/client/statedb"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

func TestApplyDepositTx_InsufficientMintReverts(t *testing.T) {
	db := statedb.New(mpt.EmptyRootHash, nil, nil)
	from := common.HexToAddress("0xaaaa")
	to := common.HexToAddress("0xbbbb")

	require.NoError(t, db.SetBalance(from, uint256.NewInt(10)))

	tx := &optypes.DepositTx{
		From:  from,
		To:    &to,
		Mint:  big.NewInt(5),
		Value: big.NewInt(100),
		Gas:   21000,
	}

	gasUsed, nonce, reverted, err := applyDepositTx(db, tx)
	require.NoError(t, err)
	require.True(t, reverted)
	require.Equal(t, uint64(21000), gasUsed)
	require.Equal(t, uint64(0), nonce)

	fromBalance, err := db.GetBalance(from)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(15), fromBalance, "mint still applied, value transfer skipped")

	toBalance, err := db.GetBalance(to)
	require.NoError(t, err)
	require.True(t, toBalance.IsZero())

	newNonce, err := db.GetNonce(from)
	require.NoError(t, err)
	require.Equal(t, uint64(1), newNonce, "nonce still bumps on a reverted deposit")
}

func TestApplyDepositTx_SufficientMintTransfers(t *testing.T) {
	db := statedb.New(mpt.EmptyRootHash, nil, nil)
	from := common.HexToAddress("0xaaaa")
	to := common.HexToAddress("0xbbbb")

	tx := &optypes.DepositTx{
		From:  from,
		To:    &to,
		Mint:  big.NewInt(100),
		Value: big.NewInt(40),
		Gas:   21000,
	}

	gasUsed, _, reverted, err := applyDepositTx(db, tx)
	require.NoError(t, err)
	require.False(t, reverted)
	require.Equal(t, uint64(21000), gasUsed)

	fromBalance, err := db.GetBalance(from)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(60), fromBalance)

	toBalance, err := db.GetBalance(to)
	require.NoError(t, err)
	require.Equal(t, uint256.NewInt(40), toBalance)
}

func TestApplyBlock_RevertedDepositMarksReceiptFailedWithoutAbortingBlock(t *testing.T) {
	db := statedb.New(mpt.EmptyRootHash, nil, nil)
	from := common.HexToAddress("0xaaaa")
	to := common.HexToAddress("0xbbbb")
	require.NoError(t, db.SetBalance(from, uint256.NewInt(1)))

	dep := &optypes.DepositTx{
		From:  from,
		To:    &to,
		Mint:  big.NewInt(1),
		Value: big.NewInt(100),
		Gas:   21000,
	}
	raw, err := dep.MarshalBinary()
	require.NoError(t, err)

	cfg := &rollup.Config{EcotoneTime: rollup.NeverActivated, FjordTime: rollup.NeverActivated, IsthmusTime: rollup.NeverActivated}
	env := &BlockEnv{
		Config:        cfg,
		Number:        1,
		BaseFee:       uint256.NewInt(0),
		L1BaseFee:     uint256.NewInt(0),
		L1BlobBaseFee: uint256.NewInt(0),
	}
	attrs := &optypes.PayloadAttributes{Transactions: [][]byte{raw}}

	result, err := ApplyBlock(db, nil, env, attrs, log.Root())
	require.NoError(t, err)
	require.Len(t, result.Receipts, 1)
	require.Equal(t, gethtypes.ReceiptStatusFailed, result.Receipts[0].Status)
}

func TestApplyUserTx_ChargesL1DataFeeToVault(t *testing.T) {
	db := statedb.New(mpt.EmptyRootHash, nil, nil)
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	from := crypto.PubkeyToAddress(key.PublicKey)

	require.NoError(t, db.SetBalance(from, new(uint256.Int).Mul(uint256.NewInt(1_000_000_000), uint256.NewInt(1_000_000_000))))

	chainID := big.NewInt(901)
	unsignedTx := gethtypes.NewTx(&gethtypes.LegacyTx{
		Nonce:    0,
		GasPrice: big.NewInt(0),
		Gas:      21000,
		To:       &common.Address{},
		Value:    big.NewInt(0),
	})
	tx, err := gethtypes.SignTx(unsignedTx, gethtypes.LatestSignerForChainID(chainID), key)
	require.NoError(t, err)
	raw, err := tx.MarshalBinary()
	require.NoError(t, err)

	env := &BlockEnv{
		ChainID:             chainID,
		BaseFee:             uint256.NewInt(0),
		L1BaseFee:           uint256.NewInt(1_000_000),
		L1BlobBaseFee:       uint256.NewInt(0),
		L1BaseFeeScalar:     1_000_000,
		L1BlobBaseFeeScalar: 0,
	}

	wantL1Fee := L1DataFee(rollupDataGas(raw), env.L1BaseFee, env.L1BlobBaseFee, env.L1BaseFeeScalar, env.L1BlobBaseFeeScalar)
	require.False(t, wantL1Fee.IsZero(), "test fixture must exercise a non-zero L1 fee")

	_, _, _, err = applyUserTx(db, tx, raw, env)
	require.NoError(t, err)

	vaultBalance, err := db.GetBalance(l1FeeVaultAddress)
	require.NoError(t, err)
	require.Equal(t, wantL1Fee, vaultBalance)
}
