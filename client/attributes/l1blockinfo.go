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

// Package attributes implements the Attributes Builder (C7): given a
// SingleBatch and its parent L2 block, it assembles the PayloadAttributes
// the executor runs — the L1 attributes deposit transaction, any
// hardfork upgrade transactions, the epoch's user deposit transactions,
// and finally the batch's own sequenced transactions (spec.md §4.7).
package attributes

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// L1InfoDepositerAddress is the deposit transaction "from" address for
// the L1 attributes transaction on every OP Stack chain.
var L1InfoDepositerAddress = common.HexToAddress("0xdeaddeaddeaddeaddeaddeaddeaddeaddead0001")

// l1BlockAddress is the L1Block predeploy the attributes transaction
// targets, mirrored from client/executor's unexported copy (attributes
// only ever builds transactions, never applies them).
var l1BlockAddress = common.HexToAddress("0x4200000000000000000000000000000000000015")

func selector(signature string) [4]byte {
	var s [4]byte
	copy(s[:], crypto.Keccak256([]byte(signature))[:4])
	return s
}

var (
	selectorBedrock = selector("setL1BlockValues(uint64,uint64,uint256,bytes32,uint64,bytes32,uint256,uint256)")
	selectorEcotone = selector("setL1BlockValuesEcotone()")
	selectorIsthmus = selector("setL1BlockValuesIsthmus()")
)

// L1BlockInfo is the decoded form of the L1 attributes transaction's
// calldata: the epoch's L1 origin plus the system-config-derived fee
// scalars in effect for this block (spec.md §4.7 step 1).
type L1BlockInfo struct {
	Number         uint64
	Time           uint64
	BaseFee        *big.Int
	BlockHash      common.Hash
	SequenceNumber uint64
	BatcherAddr    common.Hash

	BlobBaseFee       *big.Int
	BaseFeeScalar     uint32
	BlobBaseFeeScalar uint32

	OperatorFeeScalar   uint32
	OperatorFeeConstant uint64

	// L1FeeOverhead/L1FeeScalar are carried only in the Bedrock
	// encoding; Ecotone replaced them with the two scalar fields above.
	L1FeeOverhead [32]byte
	L1FeeScalar   [32]byte
}

// Marshal encodes the L1 attributes calldata in the layout selected by the
// isEcotone/isIsthmus flags (Isthmus wins over Ecotone, Bedrock when
// neither is set), spec.md §4.7 step 1's "encoding version is hardfork-dependent".
func (info *L1BlockInfo) Marshal(isEcotone, isIsthmus bool) ([]byte, error) {
	if isIsthmus {
		return info.marshalIsthmus()
	}
	if isEcotone {
		return info.marshalEcotone()
	}
	return info.marshalBedrock()
}

func (info *L1BlockInfo) marshalBedrock() ([]byte, error) {
	w := new(bytes.Buffer)
	w.Write(selectorBedrock[:])
	writeUint64Word(w, info.Number)
	writeUint64Word(w, info.Time)
	writeUint256Word(w, info.BaseFee)
	w.Write(info.BlockHash[:])
	writeUint64Word(w, info.SequenceNumber)
	w.Write(info.BatcherAddr[:])
	w.Write(info.L1FeeOverhead[:])
	w.Write(info.L1FeeScalar[:])
	return w.Bytes(), nil
}

// bedrockLen is the real OP Stack Bedrock L1-attributes calldata length:
// a 4-byte selector followed by 8 full 32-byte ABI words (Bedrock predates
// Ecotone's packed encoding).
const bedrockLen = 4 + 32*8

func (info *L1BlockInfo) marshalEcotone() ([]byte, error) {
	w := new(bytes.Buffer)
	w.Write(selectorEcotone[:])
	binary.Write(w, binary.BigEndian, info.BaseFeeScalar)
	binary.Write(w, binary.BigEndian, info.BlobBaseFeeScalar)
	binary.Write(w, binary.BigEndian, info.SequenceNumber)
	binary.Write(w, binary.BigEndian, info.Time)
	binary.Write(w, binary.BigEndian, info.Number)
	write32(w, info.BaseFee)
	write32(w, info.BlobBaseFee)
	w.Write(info.BlockHash[:])
	w.Write(info.BatcherAddr[:])
	return w.Bytes(), nil
}

const ecotoneLen = 4 + 4 + 4 + 8 + 8 + 8 + 32 + 32 + 32 + 32

func (info *L1BlockInfo) marshalIsthmus() ([]byte, error) {
	w := new(bytes.Buffer)
	w.Write(selectorIsthmus[:])
	binary.Write(w, binary.BigEndian, info.BaseFeeScalar)
	binary.Write(w, binary.BigEndian, info.BlobBaseFeeScalar)
	binary.Write(w, binary.BigEndian, info.SequenceNumber)
	binary.Write(w, binary.BigEndian, info.Time)
	binary.Write(w, binary.BigEndian, info.Number)
	write32(w, info.BaseFee)
	write32(w, info.BlobBaseFee)
	w.Write(info.BlockHash[:])
	w.Write(info.BatcherAddr[:])
	binary.Write(w, binary.BigEndian, info.OperatorFeeScalar)
	binary.Write(w, binary.BigEndian, info.OperatorFeeConstant)
	return w.Bytes(), nil
}

const isthmusLen = ecotoneLen + 4 + 8

// UnmarshalL1BlockInfo decodes the L1 attributes transaction's calldata,
// dispatching on its length alone (the 4-byte selector is skipped, not
// checked) (spec.md §8 testable property 5: decode-then-encode round-trips).
func UnmarshalL1BlockInfo(data []byte) (*L1BlockInfo, error) {
	switch len(data) {
	case bedrockLen:
		return unmarshalBedrock(data)
	case ecotoneLen:
		return unmarshalEcotone(data)
	case isthmusLen:
		return unmarshalIsthmus(data)
	default:
		return nil, fmt.Errorf("attributes: unrecognized l1 attributes calldata length %d", len(data))
	}
}

func unmarshalBedrock(data []byte) (*L1BlockInfo, error) {
	r := bytes.NewReader(data[4:])
	info := new(L1BlockInfo)
	info.Number = readUint64Word(r)
	info.Time = readUint64Word(r)
	info.BaseFee = readUint256Word(r)
	info.BlockHash = readHash(r)
	info.SequenceNumber = readUint64Word(r)
	info.BatcherAddr = readHash(r)
	copy(info.L1FeeOverhead[:], readBytes(r, 32))
	copy(info.L1FeeScalar[:], readBytes(r, 32))
	return info, nil
}

func unmarshalEcotone(data []byte) (*L1BlockInfo, error) {
	r := bytes.NewReader(data[4:])
	info := new(L1BlockInfo)
	info.BaseFeeScalar = readUint32(r)
	info.BlobBaseFeeScalar = readUint32(r)
	info.SequenceNumber = readUint64(r)
	info.Time = readUint64(r)
	info.Number = readUint64(r)
	info.BaseFee = new(big.Int).SetBytes(readBytes(r, 32))
	info.BlobBaseFee = new(big.Int).SetBytes(readBytes(r, 32))
	info.BlockHash = readHash(r)
	info.BatcherAddr = readHash(r)
	return info, nil
}

func unmarshalIsthmus(data []byte) (*L1BlockInfo, error) {
	info, err := unmarshalEcotone(data[:ecotoneLen])
	if err != nil {
		return nil, err
	}
	r := bytes.NewReader(data[ecotoneLen:])
	info.OperatorFeeScalar = readUint32(r)
	info.OperatorFeeConstant = readUint64(r)
	return info, nil
}

func write32(w *bytes.Buffer, v *big.Int) {
	var buf [32]byte
	if v != nil {
		v.FillBytes(buf[:])
	}
	w.Write(buf[:])
}

func writeUint64Word(w *bytes.Buffer, v uint64) {
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[24:], v)
	w.Write(buf[:])
}

func writeUint256Word(w *bytes.Buffer, v *big.Int) { write32(w, v) }

func readBytes(r *bytes.Reader, n int) []byte {
	buf := make([]byte, n)
	_, _ = r.Read(buf)
	return buf
}

func readHash(r *bytes.Reader) common.Hash { return common.BytesToHash(readBytes(r, 32)) }

func readUint64Word(r *bytes.Reader) uint64 {
	buf := readBytes(r, 32)
	return binary.BigEndian.Uint64(buf[24:])
}

func readUint256Word(r *bytes.Reader) *big.Int { return new(big.Int).SetBytes(readBytes(r, 32)) }

func readUint32(r *bytes.Reader) uint32 { return binary.BigEndian.Uint32(readBytes(r, 4)) }
func readUint64(r *bytes.Reader) uint64 { return binary.BigEndian.Uint64(readBytes(r, 8)) }

// l1AttributesSourceHash is domain 1 of the deposit source-hash scheme:
// keccak256(uint256(1) ++ keccak256(l1BlockHash ++ uint256(seqNumber))).
func l1AttributesSourceHash(l1BlockHash common.Hash, seqNumber uint64) common.Hash {
	var seqBuf [32]byte
	binary.BigEndian.PutUint64(seqBuf[24:], seqNumber)
	inner := crypto.Keccak256Hash(l1BlockHash.Bytes(), seqBuf[:])
	var domain [32]byte
	domain[31] = 1
	return crypto.Keccak256Hash(domain[:], inner[:])
}

// MakeL1InfoDepositTx builds the L1 attributes deposit transaction for
// one L2 block, always the first transaction of the block.
func MakeL1InfoDepositTx(info *L1BlockInfo, l1BlockHash common.Hash, isEcotone, isIsthmus bool) (*optypes.DepositTx, error) {
	data, err := info.Marshal(isEcotone, isIsthmus)
	if err != nil {
		return nil, fmt.Errorf("marshal l1 attributes tx: %w", err)
	}
	to := l1BlockAddress
	return &optypes.DepositTx{
		SourceHash: l1AttributesSourceHash(l1BlockHash, info.SequenceNumber),
		From:       L1InfoDepositerAddress,
		To:         &to,
		Mint:       nil,
		Value:      big.NewInt(0),
		Gas:        1_000_000,
		IsSystemTx: false,
		Data:       data,
	}, nil
}
