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

package providers

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethereum-optimism/op-program/client/mpt"
	"github.com/ethereum-optimism/op-program/client/oracle"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// L2ChainProvider resolves L2 headers, their world-state trie contents,
// and contract bytecode by hash, backing the stateless executor (C5) and
// statedb (C4). Everything bottoms out in oracle preimages; there is no
// other source of L2 chain data available to the program.
type L2ChainProvider struct {
	oracle oracle.Oracle
	log    log.Logger

	headers  *cacheOf[common.Hash, *types.Header]
	byNumber *cacheOf[uint64, common.Hash]
	code     *cacheOf[common.Hash, []byte]
}

func NewL2ChainProvider(o oracle.Oracle, l log.Logger) *L2ChainProvider {
	return &L2ChainProvider{
		oracle:   o,
		log:      l,
		headers:  newCacheOf[common.Hash, *types.Header](),
		byNumber: newCacheOf[uint64, common.Hash](),
		code:     newCacheOf[common.Hash, []byte](),
	}
}

// HeaderByHash fetches and RLP-decodes an L2 header, verifying its hash.
func (p *L2ChainProvider) HeaderByHash(hash common.Hash) (*types.Header, error) {
	if h, ok := p.headers.get(hash); ok {
		return h, nil
	}
	if err := p.oracle.WriteHint(fmt.Sprintf("%s %s", HintL2BlockHeader, hash.Hex())); err != nil {
		return nil, err
	}
	data, err := p.oracle.Get(oracle.Keccak256Key(hash))
	if err != nil {
		return nil, optypes.NewTemporaryError(fmt.Errorf("preimage missing for l2 header %s: %w", hash, err))
	}
	var header types.Header
	if err := rlp.DecodeBytes(data, &header); err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("decode l2 header %s: %w", hash, err))
	}
	if header.Hash() != hash {
		return nil, optypes.NewCriticalError(fmt.Errorf("l2 header hash mismatch: want %s got %s", hash, header.Hash()))
	}
	p.headers.add(hash, &header)
	p.byNumber.add(header.Number.Uint64(), hash)
	return &header, nil
}

// HeaderByOutputRoot resolves the L2 header whose output root (spec.md
// §4.8's version-0 commitment to state root, withdrawals storage root,
// and block hash) equals outputRoot. Unlike HeaderByHash the preimage key
// here is not the header's own hash — it is whatever the host chooses to
// key its "starting-l2-output" response under for this commitment — so
// the decoded header's self-hash is not re-checked against outputRoot;
// the caller is responsible for recomputing and checking the output root
// itself once it also has the withdrawals storage root.
func (p *L2ChainProvider) HeaderByOutputRoot(outputRoot common.Hash) (*types.Header, error) {
	if err := p.oracle.WriteHint(fmt.Sprintf("%s %s", HintStartingL2Output, outputRoot.Hex())); err != nil {
		return nil, err
	}
	data, err := p.oracle.Get(oracle.Keccak256Key(outputRoot))
	if err != nil {
		return nil, optypes.NewTemporaryError(fmt.Errorf("preimage missing for starting output %s: %w", outputRoot, err))
	}
	var header types.Header
	if err := rlp.DecodeBytes(data, &header); err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("decode starting l2 header for output %s: %w", outputRoot, err))
	}
	hash := header.Hash()
	p.headers.add(hash, &header)
	p.byNumber.add(header.Number.Uint64(), hash)
	return &header, nil
}

// RawTransactionsByHash fetches every transaction in an L2 block's
// transactions trie as raw, type-byte-prefixed bytes, needed to recover
// the L1 origin a starting safe head was derived against from its
// leading L1 attributes deposit transaction (client/program's boot-info
// resolution). Unlike ChainProvider.TransactionsByHash this cannot
// decode through go-ethereum's types.Transaction: every L2 block's first
// transaction is an op-stack deposit (envelope type 0x7E), which
// go-ethereum's own transaction type does not know how to parse.
func (p *L2ChainProvider) RawTransactionsByHash(hash common.Hash) ([][]byte, error) {
	if err := p.oracle.WriteHint(fmt.Sprintf("%s %s", HintL2Transactions, hash.Hex())); err != nil {
		return nil, err
	}
	header, err := p.HeaderByHash(hash)
	if err != nil {
		return nil, err
	}
	return fetchTrieLeaves[[][]byte](p.oracle, header.TxHash, func(raw []byte) ([]byte, error) { return raw, nil })
}

// AncestorHeader walks parent links back from head to find the header at
// number, the mechanism the executor's BLOCKHASH opcode support relies on
// (spec.md §4.5 edge case: only the 256 most recent ancestors are
// reachable without extra preimages, matching mainnet EVM semantics).
func (p *L2ChainProvider) AncestorHeader(head common.Hash, number uint64) (*types.Header, error) {
	cur, err := p.HeaderByHash(head)
	if err != nil {
		return nil, err
	}
	for cur.Number.Uint64() > number {
		cur, err = p.HeaderByHash(cur.ParentHash)
		if err != nil {
			return nil, err
		}
	}
	if cur.Number.Uint64() != number {
		return nil, optypes.NewCriticalError(fmt.Errorf("ancestor number %d not reachable from %s", number, head))
	}
	return cur, nil
}

// CodeByHash fetches a contract's bytecode by its keccak256 code hash.
func (p *L2ChainProvider) CodeByHash(hash common.Hash) ([]byte, error) {
	if hash == (common.Hash{}) || hash == emptyCodeHash {
		return nil, nil
	}
	if c, ok := p.code.get(hash); ok {
		return c, nil
	}
	if err := p.oracle.WriteHint(fmt.Sprintf("%s %s", HintL2Code, hash.Hex())); err != nil {
		return nil, err
	}
	data, err := p.oracle.Get(oracle.Keccak256Key(hash))
	if err != nil {
		return nil, optypes.NewTemporaryError(fmt.Errorf("preimage missing for code %s: %w", hash, err))
	}
	p.code.add(hash, data)
	return data, nil
}

var emptyCodeHash = crypto.Keccak256Hash(nil)

// StateNodeGetter returns a mpt.NodeGetter backed by this provider's
// oracle, the glue between the generic trie in client/mpt and the
// keccak256-keyed preimage protocol, with a hint issued per node so a
// cooperating host can walk ahead ("l2-state-node", spec.md §6).
func (p *L2ChainProvider) StateNodeGetter() mpt.NodeGetter {
	return func(hash common.Hash) ([]byte, error) {
		if err := p.oracle.WriteHint(fmt.Sprintf("%s %s", HintL2StateNode, hash.Hex())); err != nil {
			return nil, err
		}
		data, err := p.oracle.Get(oracle.Keccak256Key(hash))
		if err != nil {
			return nil, optypes.NewTemporaryError(fmt.Errorf("preimage missing for state node %s: %w", hash, err))
		}
		return data, nil
	}
}
