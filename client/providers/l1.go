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
	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/ethereum-optimism/op-program/client/oracle"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// ChainProvider resolves L1 block headers, transactions, and receipts by
// hash, the capability the L1 Traversal and L1 Retrieval stages depend
// on (spec.md §4.6.1, §4.6.2).
type ChainProvider struct {
	oracle oracle.Oracle
	log    log.Logger

	headers  *cacheOf[common.Hash, *types.Header]
	bodies   *cacheOf[common.Hash, types.Transactions]
	receipts *cacheOf[common.Hash, types.Receipts]
}

// cacheOf is a tiny named wrapper narrowing the LRU cache to the two
// methods the providers use; a nil *cacheOf is not usable, so providers
// are built with their New* constructors.
type cacheOf[K comparable, V any] struct {
	inner interface {
		Get(K) (V, bool)
		Add(K, V) bool
	}
}

func newCacheOf[K comparable, V any]() *cacheOf[K, V] {
	return &cacheOf[K, V]{inner: newCache[K, V]()}
}

func (c *cacheOf[K, V]) get(k K) (V, bool) { return c.inner.Get(k) }
func (c *cacheOf[K, V]) add(k K, v V)      { c.inner.Add(k, v) }

func NewChainProvider(o oracle.Oracle, l log.Logger) *ChainProvider {
	return &ChainProvider{
		oracle:   o,
		log:      l,
		headers:  newCacheOf[common.Hash, *types.Header](),
		bodies:   newCacheOf[common.Hash, types.Transactions](),
		receipts: newCacheOf[common.Hash, types.Receipts](),
	}
}

// HeaderByHash fetches and RLP-decodes the L1 header with the given hash,
// verifying the decoded header actually hashes back to the requested key.
func (p *ChainProvider) HeaderByHash(hash common.Hash) (*types.Header, error) {
	if h, ok := p.headers.get(hash); ok {
		return h, nil
	}
	if err := p.oracle.WriteHint(fmt.Sprintf("%s %s", HintL1BlockHeader, hash.Hex())); err != nil {
		return nil, err
	}
	data, err := p.oracle.Get(oracle.Keccak256Key(hash))
	if err != nil {
		return nil, optypes.NewTemporaryError(fmt.Errorf("preimage missing for l1 header %s: %w", hash, err))
	}
	var header types.Header
	if err := rlp.DecodeBytes(data, &header); err != nil {
		return nil, optypes.NewCriticalError(fmt.Errorf("decode l1 header %s: %w", hash, err))
	}
	if header.Hash() != hash {
		return nil, optypes.NewCriticalError(fmt.Errorf("l1 header hash mismatch: want %s got %s", hash, header.Hash()))
	}
	p.headers.add(hash, &header)
	return &header, nil
}

// InfoByHash adapts HeaderByHash to the minimal optypes.BlockInfo shape
// the pipeline stages work with.
func (p *ChainProvider) InfoByHash(hash common.Hash) (optypes.BlockInfo, error) {
	h, err := p.HeaderByHash(hash)
	if err != nil {
		return optypes.BlockInfo{}, err
	}
	return optypes.BlockInfo{Hash: h.Hash(), Number: h.Number.Uint64(), ParentHash: h.ParentHash, Time: h.Time}, nil
}

// TransactionsByHash fetches and decodes every transaction in the block's
// transactions trie, verifying the resulting root matches the header.
func (p *ChainProvider) TransactionsByHash(hash common.Hash) (*types.Header, types.Transactions, error) {
	header, err := p.HeaderByHash(hash)
	if err != nil {
		return nil, nil, err
	}
	if txs, ok := p.bodies.get(hash); ok {
		return header, txs, nil
	}
	if err := p.oracle.WriteHint(fmt.Sprintf("%s %s", HintL1Transactions, hash.Hex())); err != nil {
		return nil, nil, err
	}
	txs, err := fetchTrieLeaves[types.Transactions](p.oracle, header.TxHash, decodeTransaction)
	if err != nil {
		return nil, nil, err
	}
	p.bodies.add(hash, txs)
	return header, txs, nil
}

// ReceiptsByHash fetches and decodes every receipt in the block's
// receipts trie, needed by the L1 Traversal stage to replay system
// config update logs and by the Attributes Builder to encode deposit
// transactions.
func (p *ChainProvider) ReceiptsByHash(hash common.Hash) (*types.Header, types.Receipts, error) {
	header, err := p.HeaderByHash(hash)
	if err != nil {
		return nil, nil, err
	}
	if rs, ok := p.receipts.get(hash); ok {
		return header, rs, nil
	}
	if err := p.oracle.WriteHint(fmt.Sprintf("%s %s", HintL1Receipts, hash.Hex())); err != nil {
		return nil, nil, err
	}
	receipts, err := fetchTrieLeaves[types.Receipts](p.oracle, header.ReceiptHash, decodeReceipt)
	if err != nil {
		return nil, nil, err
	}
	p.receipts.add(hash, receipts)
	return header, receipts, nil
}

func decodeTransaction(data []byte) (*types.Transaction, error) {
	tx := new(types.Transaction)
	if err := tx.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return tx, nil
}

func decodeReceipt(data []byte) (*types.Receipt, error) {
	r := new(types.Receipt)
	if err := r.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return r, nil
}
