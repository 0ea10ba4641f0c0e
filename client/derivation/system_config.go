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

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// configUpdateType mirrors the SystemConfig contract's UpdateType enum,
// the second indexed topic of a ConfigUpdate log.
type configUpdateType uint8

const (
	updateTypeBatcher           configUpdateType = 0
	updateTypeGasConfig         configUpdateType = 1
	updateTypeGasLimit          configUpdateType = 2
	updateTypeUnsafeBlockSigner configUpdateType = 3
	updateTypeEIP1559Params     configUpdateType = 4
	updateTypeOperatorFeeParams configUpdateType = 5
)

var configUpdateSig = crypto.Keccak256Hash([]byte("ConfigUpdate(uint256,uint8,bytes)"))

// applyConfigUpdates replays every ConfigUpdate log emitted by addr
// across receipts, in log order, mutating cfg in place. Unknown or
// malformed updates are skipped rather than treated as fatal: a future
// update type this program doesn't know about must not halt derivation.
func applyConfigUpdates(cfg *optypes.SystemConfig, receipts types.Receipts, addr common.Address) {
	for _, r := range receipts {
		for _, l := range r.Logs {
			if l.Address != addr || len(l.Topics) < 2 || l.Topics[0] != configUpdateSig {
				continue
			}
			applyConfigUpdate(cfg, configUpdateType(l.Topics[1].Big().Uint64()), l.Data)
		}
	}
}

func applyConfigUpdate(cfg *optypes.SystemConfig, kind configUpdateType, data []byte) {
	// data is ABI-encoded `bytes`: a 32-byte offset, a 32-byte length,
	// then the payload itself.
	payload, ok := decodeABIBytes(data)
	if !ok {
		return
	}
	switch kind {
	case updateTypeBatcher:
		if len(payload) < 32 {
			return
		}
		cfg.BatcherAddr = common.BytesToAddress(payload[12:32])
	case updateTypeGasConfig:
		if len(payload) < 64 {
			return
		}
		copy(cfg.Overhead[:], payload[0:32])
		copy(cfg.Scalar[:], payload[32:64])
	case updateTypeGasLimit:
		if len(payload) < 32 {
			return
		}
		cfg.GasLimit = binary.BigEndian.Uint64(payload[24:32])
	case updateTypeUnsafeBlockSigner:
		// not consumed by anything this program derives.
	case updateTypeEIP1559Params:
		if len(payload) < 8 {
			return
		}
		cfg.EIP1559Params = optypes.EIP1559Params{
			Denominator: binary.BigEndian.Uint32(payload[0:4]),
			Elasticity:  binary.BigEndian.Uint32(payload[4:8]),
		}
	case updateTypeOperatorFeeParams:
		if len(payload) < 64 {
			return
		}
		cfg.OperatorFeeScalar = binary.BigEndian.Uint32(payload[28:32])
		cfg.OperatorFeeConstant = binary.BigEndian.Uint64(payload[56:64])
	}
}

// decodeABIBytes parses the ABI tail-encoding of a single dynamic bytes
// value: a 32-byte offset (ignored, assumed 32), a 32-byte length, then
// the payload padded to a multiple of 32 bytes.
func decodeABIBytes(data []byte) ([]byte, bool) {
	if len(data) < 64 {
		return nil, false
	}
	length := binary.BigEndian.Uint64(data[56:64])
	if uint64(len(data)) < 64+length {
		return nil, false
	}
	return data[64 : 64+length], true
}
