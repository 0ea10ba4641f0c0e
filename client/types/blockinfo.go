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
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// BlockInfo is the minimal identity of an L1 or L2 block the pipeline
// needs to reason about ordering and ancestry.
type BlockInfo struct {
	Hash       common.Hash
	Number     uint64
	ParentHash common.Hash
	Time       uint64
}

func (b BlockInfo) String() string {
	return fmt.Sprintf("%s:%d", b.Hash.TerminalString(), b.Number)
}

// ID returns the (hash, number) pair used to identify this block in logs
// and in L2BlockInfo.L1Origin comparisons.
type ID struct {
	Hash   common.Hash
	Number uint64
}

func (b BlockInfo) ID() ID { return ID{Hash: b.Hash, Number: b.Number} }

// L2BlockInfo extends BlockInfo with the L1 epoch it was derived from and
// its position within that epoch.
type L2BlockInfo struct {
	BlockInfo
	L1Origin  ID
	SeqNumber uint64
}

func (b L2BlockInfo) String() string {
	return fmt.Sprintf("%s (origin %s, seq %d)", b.BlockInfo.String(), b.L1Origin.Hash.TerminalString(), b.SeqNumber)
}
