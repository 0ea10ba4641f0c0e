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

// Package driver wires the nine derivation stages (client/derivation)
// into one pull chain rooted at the Attributes Queue, and runs the
// stateless executor (client/executor) against whatever attributes come
// out the other end (spec.md §4.6, §4.8).
package driver

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/ethereum-optimism/op-program/client/attributes"
	"github.com/ethereum-optimism/op-program/client/derivation"
	"github.com/ethereum-optimism/op-program/client/providers"
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// batchSource is the common shape of BatchQueue and BatchValidator that
// the pipeline cares about when syncing L1 time across a hardfork
// boundary; derivation.AttributesQueue declares its own identical,
// unexported copy for the same reason.
type batchSource interface {
	NextBatch(parent optypes.L2BlockInfo, currentL1Block uint64) (*optypes.SingleBatch, error)
	SetL1Time(t uint64)
}

// Pipeline composes every derivation stage behind a single pull method,
// Step, and knows how to rebuild itself on a Reset/Activation signal or
// discard its upper stages on a FlushChannel signal (spec.md §4.6
// "Signals").
type Pipeline struct {
	cfg     *rollup.Config
	l1      *providers.ChainProvider
	blobs   *providers.BlobProvider
	builder *attributes.Builder
	l1Head  common.Hash
	// l1HeadNumber is l1Head's block number, resolved once at
	// construction: every Step call needs it as the "current L1 block"
	// upper bound for sequencing-window and drift checks, and it never
	// changes across a Reset since l1Head itself doesn't.
	l1HeadNumber uint64

	traversal     *derivation.L1Traversal
	l1Retrieval   *derivation.L1Retrieval
	frameQueue    *derivation.FrameQueue
	channelBank   *derivation.ChannelBank
	channelReader *derivation.ChannelReader
	batchStream   *derivation.BatchStream
	batchSource   batchSource
	attrQueue     *derivation.AttributesQueue

	lastOriginSynced bool
	lastOriginNumber uint64
}

// NewPipeline builds a pipeline rooted at startEpoch/startTime/sysCfg,
// walking L1 from l1Head down to startEpoch once up front
// (derivation.NewL1Traversal does the actual walk).
func NewPipeline(cfg *rollup.Config, l1 *providers.ChainProvider, blobs *providers.BlobProvider, builder *attributes.Builder, l1Head common.Hash, startEpoch optypes.ID, startTime uint64, sysCfg optypes.SystemConfig) (*Pipeline, error) {
	traversal, err := derivation.NewL1Traversal(cfg, l1, l1Head, startEpoch.Number, sysCfg)
	if err != nil {
		return nil, err
	}
	origins := traversal.AllOrigins()
	headNumber := startEpoch.Number
	if len(origins) > 0 {
		headNumber = origins[len(origins)-1].Number
	}
	p := &Pipeline{cfg: cfg, l1: l1, blobs: blobs, builder: builder, l1Head: l1Head, l1HeadNumber: headNumber, traversal: traversal}
	p.rebuildFrom(traversal, startTime)
	return p, nil
}

// rebuildFrom wires every stage above traversal fresh, choosing the
// pre-Holocene or Holocene+ batch multiplexer according to whether
// Holocene is active at safeHeadTime. It does not touch traversal
// itself, so callers control whether the L1 cursor carries over.
func (p *Pipeline) rebuildFrom(traversal *derivation.L1Traversal, safeHeadTime uint64) {
	p.l1Retrieval = derivation.NewL1Retrieval(p.cfg, p.l1, p.blobs, traversal)
	p.frameQueue = derivation.NewFrameQueue(p.cfg, p.l1Retrieval)
	p.channelBank = derivation.NewChannelBank(p.cfg, p.frameQueue)
	p.channelReader = derivation.NewChannelReader(p.cfg, p.channelBank)
	p.batchStream = derivation.NewBatchStream(p.channelReader)

	if p.cfg.IsHolocene(safeHeadTime) {
		p.batchSource = derivation.NewBatchValidator(p.cfg, p.batchStream)
	} else {
		bq := derivation.NewBatchQueue(p.cfg, p.batchStream)
		for _, o := range traversal.AllOrigins() {
			bq.AddL1Origin(o)
		}
		p.batchSource = bq
	}
	p.attrQueue = derivation.NewAttributesQueue(p.cfg, p.builder, p.batchSource, traversal)
	p.lastOriginSynced = false
}

// Step pulls the next block's attributes against safeHead with a single
// NextAttributes call and returns its result as is, types.EOF included;
// it does not retry. Walking L1 origins forward happens below it, inside
// L1 Retrieval, during that one pull.
func (p *Pipeline) Step(safeHead optypes.L2BlockInfo) (*optypes.AttributesWithParent, error) {
	attrs, err := p.attrQueue.NextAttributes(safeHead, p.l1HeadNumber)
	p.syncOrigin()
	return attrs, err
}

// syncOrigin propagates L1Traversal's current origin down to the
// channel bank, which uses it for channel timeouts, and to the batch
// multiplexer, which hands the L1 time on to the Batch Stream. It runs
// once per Step call rather than once per L1 block consumed inside that
// call: in practice a pull consumes at most a handful of L1 blocks per
// invocation, and the bank/multiplexer use this value only for
// comparisons that tolerate a one-step lag.
func (p *Pipeline) syncOrigin() {
	origin := p.traversal.Origin()
	if origin.Hash == (common.Hash{}) {
		return
	}
	if p.lastOriginSynced && origin.Number == p.lastOriginNumber {
		return
	}
	p.channelBank.SetOrigin(origin.Number, origin.Time)
	p.batchSource.SetL1Time(origin.Time)
	p.lastOriginSynced = true
	p.lastOriginNumber = origin.Number
}

// ResetSignal carries the state a Reset (or Holocene Activation) signal
// rebuilds the pipeline around: the new safe head and the L1 origin and
// system config to resume derivation from (spec.md §4.6 "Reset").
type ResetSignal struct {
	L2SafeHead   optypes.L2BlockInfo
	L1Origin     optypes.ID
	SystemConfig optypes.SystemConfig
}

// Reset rebuilds the entire pipeline, including L1 Traversal, around
// sig. Used on a reorg (a batch's ParentHash no longer matches the safe
// head) or when crossing the Holocene activation boundary, where the
// batch multiplexer itself must change.
func (p *Pipeline) Reset(sig ResetSignal) error {
	traversal, err := derivation.NewL1Traversal(p.cfg, p.l1, p.l1Head, sig.L1Origin.Number, sig.SystemConfig)
	if err != nil {
		return err
	}
	p.traversal = traversal
	p.rebuildFrom(traversal, sig.L2SafeHead.Time)
	return nil
}

// SystemConfig returns the SystemConfig as of L1 Traversal's most
// recently resolved origin, which a Driver re-reads after every advanced
// block since a ConfigUpdate log may have landed in that origin's
// receipts.
func (p *Pipeline) SystemConfig() optypes.SystemConfig { return p.traversal.SystemConfig() }

// FlushChannel discards every stage above L1 Traversal, forwards-
// invalidating whatever channel or frame was in flight, while preserving
// the L1 cursor's position (spec.md §4.6 "FlushChannel", issued after a
// Holocene execution failure so derivation resumes from the next L1 data
// rather than replaying the bad channel forever).
func (p *Pipeline) FlushChannel(safeHeadTime uint64) {
	p.rebuildFrom(p.traversal, safeHeadTime)
}
