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
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

func TestEncodeDecodeHolocene1559Params_RoundTrip(t *testing.T) {
	extra := encodeHolocene1559Params(250, 6)
	got := decodeHolocene1559Params(extra)
	require.Equal(t, uint32(250), got.Denominator)
	require.Equal(t, uint32(6), got.Elasticity)
}

func TestDecodeHolocene1559Params_MalformedExtraIsZeroValue(t *testing.T) {
	require.Equal(t, optypes.EIP1559Params{}, decodeHolocene1559Params(nil))
	require.Equal(t, optypes.EIP1559Params{}, decodeHolocene1559Params([]byte{1, 2, 3}))
	wrongVersion := encodeHolocene1559Params(1, 1)
	wrongVersion[0] = 1
	require.Equal(t, optypes.EIP1559Params{}, decodeHolocene1559Params(wrongVersion))
}

func TestMergedBloom_OrsEveryReceipt(t *testing.T) {
	r1 := &types.Receipt{}
	r1.Bloom[0] = 0x01
	r2 := &types.Receipt{}
	r2.Bloom[1] = 0x02
	got := mergedBloom([]*types.Receipt{r1, r2})
	require.Equal(t, byte(0x01), got[0])
	require.Equal(t, byte(0x02), got[1])
}

func TestDeriveRoot_EmptyAndNonEmptyDiffer(t *testing.T) {
	emptyRoot, err := deriveRoot([][]byte(nil), encodeRawTx)
	require.NoError(t, err)

	nonEmptyRoot, err := deriveRoot([][]byte{{1, 2, 3}}, encodeRawTx)
	require.NoError(t, err)

	require.NotEqual(t, emptyRoot, nonEmptyRoot)
}

func TestNextExcessBlobGas_NilParentIsZero(t *testing.T) {
	require.Equal(t, uint64(0), nextExcessBlobGas(&types.Header{}))
}

func TestNextExcessBlobGas_CarriesParentValueForward(t *testing.T) {
	excess := uint64(123)
	require.Equal(t, excess, nextExcessBlobGas(&types.Header{ExcessBlobGas: &excess}))
}

func TestBuildHeader_PreEcotoneOmitsBlobFields(t *testing.T) {
	cfg := &rollup.Config{EcotoneTime: rollup.NeverActivated, HoloceneTime: rollup.NeverActivated, IsthmusTime: rollup.NeverActivated}
	env := &BlockEnv{
		Config:   cfg,
		Number:   10,
		Time:     1000,
		BaseFee:  uint256.NewInt(1_000_000_000),
		GasLimit: 30_000_000,
		Coinbase: common.HexToAddress("0xfeee"),
	}
	parent := &types.Header{Number: big.NewInt(9)}
	attrs := &optypes.PayloadAttributes{Timestamp: 1000}
	result := &Result{Root: common.HexToHash("0xabc")}

	header, err := BuildHeader(env, parent, attrs, result, optypes.EIP1559Params{})
	require.NoError(t, err)
	require.Nil(t, header.BlobGasUsed)
	require.Nil(t, header.ExcessBlobGas)
	require.Nil(t, header.RequestsHash)
	require.Empty(t, header.Extra)
	require.Equal(t, parent.Hash(), header.ParentHash)
	require.Equal(t, uint64(10), header.Number.Uint64())
}

func TestBuildHeader_PostEcotoneCarriesBlobFieldsAndHolocene(t *testing.T) {
	cfg := &rollup.Config{EcotoneTime: 0, HoloceneTime: 0, IsthmusTime: rollup.NeverActivated}
	env := &BlockEnv{
		Config:   cfg,
		Number:   10,
		Time:     1000,
		BaseFee:  uint256.NewInt(1_000_000_000),
		GasLimit: 30_000_000,
	}
	root := common.HexToHash("0xbeef")
	parent := &types.Header{Number: big.NewInt(9)}
	attrs := &optypes.PayloadAttributes{Timestamp: 1000, ParentBeaconBlockRoot: &root}
	result := &Result{Root: common.HexToHash("0xabc")}

	header, err := BuildHeader(env, parent, attrs, result, optypes.EIP1559Params{Denominator: 250, Elasticity: 6})
	require.NoError(t, err)
	require.NotNil(t, header.BlobGasUsed)
	require.Equal(t, uint64(0), *header.BlobGasUsed)
	require.NotNil(t, header.ExcessBlobGas)
	require.Equal(t, &root, header.ParentBeaconBlockRoot)
	require.Equal(t, decodeHolocene1559Params(header.Extra), optypes.EIP1559Params{Denominator: 250, Elasticity: 6})
}

func TestBuildHeader_IsthmusCarriesEmptyRequestsHash(t *testing.T) {
	cfg := &rollup.Config{EcotoneTime: rollup.NeverActivated, HoloceneTime: rollup.NeverActivated, IsthmusTime: 0}
	env := &BlockEnv{
		Config:   cfg,
		Number:   1,
		Time:     1000,
		BaseFee:  uint256.NewInt(1_000_000_000),
		GasLimit: 30_000_000,
	}
	parent := &types.Header{Number: big.NewInt(0)}
	attrs := &optypes.PayloadAttributes{Timestamp: 1000}
	result := &Result{}

	header, err := BuildHeader(env, parent, attrs, result, optypes.EIP1559Params{})
	require.NoError(t, err)
	require.NotNil(t, header.RequestsHash)
	require.Equal(t, emptyRequestsHash, *header.RequestsHash)
}
