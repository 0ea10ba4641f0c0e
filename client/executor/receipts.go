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
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// finalizeReceipt fills in the two receipt fields the per-transaction
// apply functions leave unset: the bloom filter over that one receipt's
// own logs, and — since this executor never
// interprets contract bytecode and so never emits logs — the
// deterministic CREATE address a contract-creation transaction would
// have received.
func finalizeReceipt(r *types.Receipt, from common.Address, nonce uint64, to *common.Address) {
	if to == nil {
		contractAddr := crypto.CreateAddress(from, nonce)
		r.ContractAddress = contractAddr
	}
	r.Bloom = types.CreateBloom(r)
}
