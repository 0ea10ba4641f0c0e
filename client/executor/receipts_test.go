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
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestFinalizeReceipt_ContractCreationGetsAddress(t *testing.T) {
	from := common.HexToAddress("0x1234")
	r := &types.Receipt{}
	finalizeReceipt(r, from, 5, nil)
	require.Equal(t, crypto.CreateAddress(from, 5), r.ContractAddress)
}

func TestFinalizeReceipt_CallLeavesContractAddressZero(t *testing.T) {
	from := common.HexToAddress("0x1234")
	to := common.HexToAddress("0x5678")
	r := &types.Receipt{}
	finalizeReceipt(r, from, 5, &to)
	require.Equal(t, common.Address{}, r.ContractAddress)
}
