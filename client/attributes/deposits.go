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
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// depositEventABIVersion0 is the only opaqueData layout the deposit
// contract has ever emitted: mint(32) || value(32) || gasLimit(8) ||
// isCreation(1) || data(rest).
const depositEventABIVersion0 = 0

// transactionDepositedSig is keccak256("TransactionDeposited(address,address,uint256,bytes)"),
// the only log topic0 the epoch's deposit-contract receipts ever carry
// that this builder cares about.
var transactionDepositedSig = crypto.Keccak256Hash([]byte("TransactionDeposited(address,address,uint256,bytes)"))

// userDepositSourceHash is domain 0 of the deposit source-hash scheme:
// keccak256(uint256(0) ++ keccak256(l1BlockHash ++ uint256(logIndex))).
func userDepositSourceHash(l1BlockHash common.Hash, logIndex uint) common.Hash {
	var idxBuf [32]byte
	binary.BigEndian.PutUint64(idxBuf[24:], uint64(logIndex))
	inner := crypto.Keccak256Hash(l1BlockHash.Bytes(), idxBuf[:])
	var domain [32]byte
	return crypto.Keccak256Hash(domain[:], inner[:])
}

// DecodeUserDeposits scans every log in receipts emitted by the deposit
// contract and turns each TransactionDeposited event into a DepositTx,
// in log order (spec.md §4.7 step 3).
func DecodeUserDeposits(receipts types.Receipts, depositContract common.Address, l1BlockHash common.Hash) ([]*optypes.DepositTx, error) {
	var deposits []*optypes.DepositTx
	for _, receipt := range receipts {
		for _, l := range receipt.Logs {
			if l.Address != depositContract {
				continue
			}
			if len(l.Topics) == 0 || l.Topics[0] != transactionDepositedSig {
				continue
			}
			dep, err := decodeDepositLog(l, l1BlockHash)
			if err != nil {
				return nil, optypes.NewCriticalError(fmt.Errorf("decode deposit log %d: %w", l.Index, err))
			}
			deposits = append(deposits, dep)
		}
	}
	return deposits, nil
}

func decodeDepositLog(l *types.Log, l1BlockHash common.Hash) (*optypes.DepositTx, error) {
	if len(l.Topics) != 4 {
		return nil, fmt.Errorf("expected 4 topics, got %d", len(l.Topics))
	}
	from := common.BytesToAddress(l.Topics[1].Bytes())
	to := common.BytesToAddress(l.Topics[2].Bytes())
	version := new(big.Int).SetBytes(l.Topics[3].Bytes())
	if version.Uint64() != depositEventABIVersion0 {
		return nil, fmt.Errorf("unsupported deposit event version %s", version)
	}

	// data is abi-encoded as a single dynamic `bytes` field: a 32-byte
	// offset (always 0x20), a 32-byte length, then the opaque payload
	// padded up to a 32-byte boundary.
	if len(l.Data) < 64 {
		return nil, fmt.Errorf("deposit log data too short: %d bytes", len(l.Data))
	}
	length := new(big.Int).SetBytes(l.Data[32:64]).Uint64()
	if uint64(len(l.Data)) < 64+length {
		return nil, fmt.Errorf("deposit log data shorter than declared opaqueData length")
	}
	opaque := l.Data[64 : 64+length]
	if len(opaque) < 32+32+8+1 {
		return nil, fmt.Errorf("opaqueData too short: %d bytes", len(opaque))
	}

	mint := new(big.Int).SetBytes(opaque[0:32])
	value := new(big.Int).SetBytes(opaque[32:64])
	gasLimit := binary.BigEndian.Uint64(opaque[64:72])
	isCreation := opaque[72] != 0
	txData := append([]byte(nil), opaque[73:]...)

	var toPtr *common.Address
	if !isCreation {
		toCopy := to
		toPtr = &toCopy
	}
	var mintPtr *big.Int
	if mint.Sign() > 0 {
		mintPtr = mint
	}

	return &optypes.DepositTx{
		SourceHash: userDepositSourceHash(l1BlockHash, l.Index),
		From:       from,
		To:         toPtr,
		Mint:       mintPtr,
		Value:      value,
		Gas:        gasLimit,
		IsSystemTx: false,
		Data:       txData,
	}, nil
}
