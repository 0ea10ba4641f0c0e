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
	"encoding/binary"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"
)

// buildDepositLog mirrors the deposit contract's actual log shape: three
// indexed topics (from, to, version) plus one dynamic `bytes` data field
// carrying the opaque payload.
func buildDepositLog(depositContract, from, to common.Address, mint, value uint64, gasLimit uint64, isCreation bool, txData []byte, logIndex uint) *types.Log {
	opaque := make([]byte, 32+32+8+1+len(txData))
	var mintBuf, valueBuf [32]byte
	binary.BigEndian.PutUint64(mintBuf[24:], mint)
	binary.BigEndian.PutUint64(valueBuf[24:], value)
	copy(opaque[0:32], mintBuf[:])
	copy(opaque[32:64], valueBuf[:])
	binary.BigEndian.PutUint64(opaque[64:72], gasLimit)
	if isCreation {
		opaque[72] = 1
	}
	copy(opaque[73:], txData)

	data := make([]byte, 64+len(opaque))
	data[31] = 0x20 // offset = 32
	binary.BigEndian.PutUint64(data[56:64], uint64(len(opaque)))
	copy(data[64:], opaque)

	return &types.Log{
		Address: depositContract,
		Topics: []common.Hash{
			transactionDepositedSig,
			common.BytesToHash(from.Bytes()),
			common.BytesToHash(to.Bytes()),
			common.Hash{}, // version 0
		},
		Data:  data,
		Index: logIndex,
	}
}

func TestDecodeUserDeposits_SingleLog(t *testing.T) {
	depositContract := common.HexToAddress("0x1234")
	from := common.HexToAddress("0xaaaa")
	to := common.HexToAddress("0xbbbb")
	l1BlockHash := common.HexToHash("0xdead")

	log := buildDepositLog(depositContract, from, to, 0, 1000, 21000, false, []byte{0x01, 0x02}, 4)
	receipts := types.Receipts{{Logs: []*types.Log{log}}}

	deposits, err := DecodeUserDeposits(receipts, depositContract, l1BlockHash)
	require.NoError(t, err)
	require.Len(t, deposits, 1)

	dep := deposits[0]
	require.Equal(t, from, dep.From)
	require.Equal(t, &to, dep.To)
	require.Equal(t, int64(1000), dep.Value.Int64())
	require.Nil(t, dep.Mint)
	require.Equal(t, uint64(21000), dep.Gas)
	require.Equal(t, []byte{0x01, 0x02}, dep.Data)
	require.Equal(t, userDepositSourceHash(l1BlockHash, 4), dep.SourceHash)
}

func TestDecodeUserDeposits_IgnoresOtherContracts(t *testing.T) {
	depositContract := common.HexToAddress("0x1234")
	other := common.HexToAddress("0x5678")
	from := common.HexToAddress("0xaaaa")
	to := common.HexToAddress("0xbbbb")

	log := buildDepositLog(other, from, to, 0, 1, 21000, false, nil, 0)
	receipts := types.Receipts{{Logs: []*types.Log{log}}}

	deposits, err := DecodeUserDeposits(receipts, depositContract, common.Hash{})
	require.NoError(t, err)
	require.Empty(t, deposits)
}

func TestDecodeUserDeposits_ContractCreation(t *testing.T) {
	depositContract := common.HexToAddress("0x1234")
	from := common.HexToAddress("0xaaaa")

	log := buildDepositLog(depositContract, from, common.Address{}, 500, 0, 100000, true, []byte{0xde, 0xad}, 0)
	receipts := types.Receipts{{Logs: []*types.Log{log}}}

	deposits, err := DecodeUserDeposits(receipts, depositContract, common.Hash{})
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	require.Nil(t, deposits[0].To)
	require.Equal(t, int64(500), deposits[0].Mint.Int64())
}

func TestUserDepositSourceHash_Deterministic(t *testing.T) {
	blockHash := common.HexToHash("0xfeed")
	h1 := userDepositSourceHash(blockHash, 2)
	h2 := userDepositSourceHash(blockHash, 2)
	h3 := userDepositSourceHash(blockHash, 3)
	require.Equal(t, h1, h2)
	require.NotEqual(t, h1, h3)
}
