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

package derivation

import (
	"encoding/binary"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// abiEncodeBytes mirrors the ConfigUpdate event's ABI tail-encoding of a
// single dynamic bytes argument: a 32-byte offset, a 32-byte length, then
// the payload padded to a 32-byte multiple.
func abiEncodeBytes(payload []byte) []byte {
	out := make([]byte, 32, 96)
	out[31] = 0x20 // offset = 32
	length := make([]byte, 32)
	binary.BigEndian.PutUint64(length[24:], uint64(len(payload)))
	out = append(out, length...)
	padded := len(payload)
	if rem := padded % 32; rem != 0 {
		padded += 32 - rem
	}
	body := make([]byte, padded)
	copy(body, payload)
	return append(out, body...)
}

func configUpdateLog(addr common.Address, kind configUpdateType, payload []byte) *types.Log {
	topics := []common.Hash{
		configUpdateSig,
		common.BigToHash(big.NewInt(int64(kind))),
	}
	return &types.Log{Address: addr, Topics: topics, Data: abiEncodeBytes(payload)}
}

func TestApplyConfigUpdates_BatcherAddress(t *testing.T) {
	addr := common.HexToAddress("0x1234")
	newBatcher := common.HexToAddress("0xbeef")
	payload := make([]byte, 32)
	copy(payload[12:], newBatcher.Bytes())

	cfg := &optypes.SystemConfig{}
	receipts := types.Receipts{{Logs: []*types.Log{configUpdateLog(addr, updateTypeBatcher, payload)}}}
	applyConfigUpdates(cfg, receipts, addr)

	require.Equal(t, newBatcher, cfg.BatcherAddr)
}

func TestApplyConfigUpdates_IgnoresLogsFromOtherAddresses(t *testing.T) {
	addr := common.HexToAddress("0x1234")
	other := common.HexToAddress("0x9999")
	payload := make([]byte, 32)
	copy(payload[12:], common.HexToAddress("0xbeef").Bytes())

	cfg := &optypes.SystemConfig{BatcherAddr: common.HexToAddress("0x1")}
	receipts := types.Receipts{{Logs: []*types.Log{configUpdateLog(other, updateTypeBatcher, payload)}}}
	applyConfigUpdates(cfg, receipts, addr)

	require.Equal(t, common.HexToAddress("0x1"), cfg.BatcherAddr)
}

func TestApplyConfigUpdates_GasLimit(t *testing.T) {
	addr := common.HexToAddress("0x1234")
	payload := make([]byte, 32)
	binary.BigEndian.PutUint64(payload[24:], 50_000_000)

	cfg := &optypes.SystemConfig{}
	receipts := types.Receipts{{Logs: []*types.Log{configUpdateLog(addr, updateTypeGasLimit, payload)}}}
	applyConfigUpdates(cfg, receipts, addr)

	require.Equal(t, uint64(50_000_000), cfg.GasLimit)
}

func TestApplyConfigUpdates_EIP1559Params(t *testing.T) {
	addr := common.HexToAddress("0x1234")
	payload := make([]byte, 8)
	binary.BigEndian.PutUint32(payload[0:4], 250)
	binary.BigEndian.PutUint32(payload[4:8], 6)

	cfg := &optypes.SystemConfig{}
	receipts := types.Receipts{{Logs: []*types.Log{configUpdateLog(addr, updateTypeEIP1559Params, payload)}}}
	applyConfigUpdates(cfg, receipts, addr)

	require.Equal(t, uint32(250), cfg.EIP1559Params.Denominator)
	require.Equal(t, uint32(6), cfg.EIP1559Params.Elasticity)
}

func TestApplyConfigUpdates_UnknownUpdateTypeIsIgnored(t *testing.T) {
	addr := common.HexToAddress("0x1234")
	cfg := &optypes.SystemConfig{GasLimit: 123}
	receipts := types.Receipts{{Logs: []*types.Log{configUpdateLog(addr, configUpdateType(99), []byte{1, 2, 3})}}}
	require.NotPanics(t, func() { applyConfigUpdates(cfg, receipts, addr) })
	require.Equal(t, uint64(123), cfg.GasLimit)
}

func TestDecodeABIBytes(t *testing.T) {
	payload := []byte("hello world")
	enc := abiEncodeBytes(payload)
	got, ok := decodeABIBytes(enc)
	require.True(t, ok)
	require.Equal(t, payload, got)
}

func TestDecodeABIBytes_TooShortIsRejected(t *testing.T) {
	_, ok := decodeABIBytes([]byte{1, 2, 3})
	require.False(t, ok)
}
