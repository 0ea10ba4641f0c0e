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

package types

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"
)

// DepositTxType is the EIP-2718 envelope type byte for a deposit
// transaction, 0x7E in every OP Stack chain.
const DepositTxType = 0x7E

var errNotDepositTx = errors.New("not a deposit transaction")

// DepositTx is the op-stack deposit transaction envelope: the rest of
// this module only ever sees these two kinds of transaction (deposit and
// whatever go-ethereum's types.Transaction already decodes), so it is
// modeled directly here rather than by extending go-ethereum's own
// transaction type.
type DepositTx struct {
	SourceHash common.Hash
	From       common.Address
	To         *common.Address // nil means contract creation
	Mint       *big.Int        // nil means no minting
	Value      *big.Int
	Gas        uint64
	IsSystemTx bool
	Data       []byte
}

type depositTxRLP struct {
	SourceHash common.Hash
	From       common.Address
	To         *common.Address
	Mint       *big.Int
	Value      *big.Int
	Gas        uint64
	IsSystemTx bool
	Data       []byte
}

// IsDepositTx reports whether raw's envelope byte marks it as a deposit
// transaction.
func IsDepositTx(raw []byte) bool {
	return len(raw) > 0 && raw[0] == DepositTxType
}

// DecodeDepositTx parses a deposit transaction's binary (type-byte
// prefixed) encoding.
func DecodeDepositTx(raw []byte) (*DepositTx, error) {
	if !IsDepositTx(raw) {
		return nil, errNotDepositTx
	}
	var body depositTxRLP
	if err := rlp.DecodeBytes(raw[1:], &body); err != nil {
		return nil, err
	}
	return &DepositTx{
		SourceHash: body.SourceHash,
		From:       body.From,
		To:         body.To,
		Mint:       body.Mint,
		Value:      body.Value,
		Gas:        body.Gas,
		IsSystemTx: body.IsSystemTx,
		Data:       body.Data,
	}, nil
}

// MarshalBinary returns tx's type-byte prefixed RLP encoding.
func (tx *DepositTx) MarshalBinary() ([]byte, error) {
	body := depositTxRLP{
		SourceHash: tx.SourceHash,
		From:       tx.From,
		To:         tx.To,
		Mint:       tx.Mint,
		Value:      tx.Value,
		Gas:        tx.Gas,
		IsSystemTx: tx.IsSystemTx,
		Data:       tx.Data,
	}
	enc, err := rlp.EncodeToBytes(&body)
	if err != nil {
		return nil, err
	}
	return append([]byte{DepositTxType}, enc...), nil
}

// Hash returns the keccak256 hash of tx's binary encoding, its
// transaction hash within a block.
func (tx *DepositTx) Hash() (common.Hash, error) {
	enc, err := tx.MarshalBinary()
	if err != nil {
		return common.Hash{}, err
	}
	return crypto.Keccak256Hash(enc), nil
}
