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

package boot

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/op-program/client/oracle/testoracle"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

func seedBootInfo(t *testing.T, o *testoracle.Oracle, cfg rollup.Config) (common.Hash, common.Hash, common.Hash, uint64, uint64) {
	t.Helper()
	l1Head := common.HexToHash("0xaaaa")
	l2Output := common.HexToHash("0xbbbb")
	l2Claim := common.HexToHash("0xcccc")
	claimBlock := uint64(42)
	chainID := uint64(10)

	o.AddLocal(L1HeadLocalIndex, l1Head.Bytes())
	o.AddLocal(L2OutputRootLocalIndex, l2Output.Bytes())
	o.AddLocal(L2ClaimLocalIndex, l2Claim.Bytes())
	o.AddLocal(L2ClaimBlockNumberIndex, encodeUint64(claimBlock))
	o.AddLocal(L2ChainIDLocalIndex, encodeUint64(chainID))
	cfgBytes, err := json.Marshal(cfg)
	require.NoError(t, err)
	o.AddLocal(RollupConfigLocalIndex, cfgBytes)

	return l1Head, l2Output, l2Claim, claimBlock, chainID
}

func encodeUint64(v uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, v)
	return b
}

func TestLoad_ParsesAllSixLocalKeys(t *testing.T) {
	o := testoracle.New()
	cfg := rollup.Config{BlockTime: 2}
	l1Head, l2Output, l2Claim, claimBlock, chainID := seedBootInfo(t, o, cfg)

	got, err := Load(o)
	require.NoError(t, err)
	require.Equal(t, l1Head, got.L1Head)
	require.Equal(t, l2Output, got.L2OutputRoot)
	require.Equal(t, l2Claim, got.L2Claim)
	require.Equal(t, claimBlock, got.L2ClaimBlock)
	require.Equal(t, chainID, got.L2ChainID)
	require.Equal(t, cfg.BlockTime, got.RollupConfig.BlockTime)
}

func TestLoad_MissingLocalKeyIsCriticalError(t *testing.T) {
	o := testoracle.New()
	_, err := Load(o)
	require.Error(t, err)
	require.True(t, optypes.IsCritical(err))
}

func TestLoad_WrongSizedHashIsCriticalError(t *testing.T) {
	o := testoracle.New()
	cfg := rollup.Config{}
	seedBootInfo(t, o, cfg)
	o.AddLocal(L1HeadLocalIndex, []byte{1, 2, 3})

	_, err := Load(o)
	require.Error(t, err)
	require.True(t, optypes.IsCritical(err))
}

func TestLoad_MalformedRollupConfigJSONIsCriticalError(t *testing.T) {
	o := testoracle.New()
	cfg := rollup.Config{}
	seedBootInfo(t, o, cfg)
	o.AddLocal(RollupConfigLocalIndex, []byte("not json"))

	_, err := Load(o)
	require.Error(t, err)
	require.True(t, optypes.IsCritical(err))
}

func TestPredeployBytecode_FetchesByLocalKey(t *testing.T) {
	o := testoracle.New()
	code := []byte{0xde, 0xad, 0xbe, 0xef}
	o.AddLocal(predeployCodeLocalIndexBase+uint64(CodeGasPriceOracle), code)

	got, err := PredeployBytecode(o, CodeGasPriceOracle)
	require.NoError(t, err)
	require.Equal(t, code, got)
}

func TestPredeployBytecode_MissingIsCriticalError(t *testing.T) {
	o := testoracle.New()
	_, err := PredeployBytecode(o, CodeL1Block)
	require.Error(t, err)
	require.True(t, optypes.IsCritical(err))
}
