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
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/op-program/client/providers"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// L1Traversal serves L1 blocks from the starting epoch up to the
// program's trusted L1 head, one at a time (spec.md §4.6.1). Since the
// oracle only resolves headers by hash, the chain between l1Head and the
// starting epoch is walked backward once at construction time and served
// forward afterward. Each block served replays that block's
// ConfigUpdate logs from L1SystemConfigAddress onto the running
// SystemConfig, so callers always see the config as of the most
// recently returned origin.
type L1Traversal struct {
	cfg      *rollup.Config
	provider *providers.ChainProvider
	headers  []optypes.BlockInfo
	idx      int

	sysCfg optypes.SystemConfig
}

// NewL1Traversal walks backward from l1Head (inclusive) down to and
// including the block at startEpoch, then hands blocks out in ascending
// order via NextL1Block. sysCfg is the SystemConfig as of startEpoch.
func NewL1Traversal(cfg *rollup.Config, provider *providers.ChainProvider, l1Head common.Hash, startEpoch uint64, sysCfg optypes.SystemConfig) (*L1Traversal, error) {
	var chain []optypes.BlockInfo
	cur := l1Head
	for {
		info, err := provider.InfoByHash(cur)
		if err != nil {
			return nil, err
		}
		chain = append(chain, info)
		if info.Number <= startEpoch {
			break
		}
		if info.Number == 0 {
			return nil, optypes.NewCriticalError(fmt.Errorf("l1 traversal reached genesis before starting epoch %d", startEpoch))
		}
		cur = info.ParentHash
	}
	// chain is currently head-to-start (descending); reverse to ascending.
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return &L1Traversal{cfg: cfg, provider: provider, headers: chain, sysCfg: sysCfg}, nil
}

// NextL1Block returns the next L1 block in ascending order, or
// types.EOF once the trusted L1 head has already been returned.
func (t *L1Traversal) NextL1Block() (optypes.BlockInfo, error) {
	if t.idx >= len(t.headers) {
		return optypes.BlockInfo{}, optypes.EOF
	}
	cur := t.headers[t.idx]
	t.idx++
	if t.idx > 1 { // startEpoch's config is the caller-supplied initial value.
		_, receipts, err := t.provider.ReceiptsByHash(cur.Hash)
		if err != nil {
			return optypes.BlockInfo{}, err
		}
		applyConfigUpdates(&t.sysCfg, receipts, t.cfg.L1SystemConfigAddress)
	}
	return cur, nil
}

// SystemConfig returns the config as of the most recently returned
// origin.
func (t *L1Traversal) SystemConfig() optypes.SystemConfig { return t.sysCfg }

// Origin returns the most recently returned L1 block, the "current
// epoch" every stage above this one reasons about.
func (t *L1Traversal) Origin() optypes.BlockInfo {
	if t.idx == 0 {
		return optypes.BlockInfo{}
	}
	return t.headers[t.idx-1]
}

// AtHead reports whether every known L1 block has already been served.
func (t *L1Traversal) AtHead() bool { return t.idx >= len(t.headers) }

// AllOrigins returns every L1 block between the starting epoch and the
// trusted L1 head, known in full up front since the backward walk in
// NewL1Traversal already resolved them. BatchQueue uses this to learn
// about future origins before NextL1Block ever serves them, so empty
// batches can be force-included against an epoch the pipeline hasn't
// reached yet.
func (t *L1Traversal) AllOrigins() []optypes.BlockInfo {
	return append([]optypes.BlockInfo(nil), t.headers...)
}
