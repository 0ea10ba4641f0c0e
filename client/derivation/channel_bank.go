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
	"github.com/ethereum-optimism/op-program/client/rollup"
	optypes "github.com/ethereum-optimism/op-program/client/types"
)

// maxChannelBankSize bounds the channel bank's total buffered bytes,
// evicting the oldest channel once the total reaches it (the bound is
// exclusive: a total equal to it is already over budget).
const maxChannelBankSize = 100_000_000

// ChannelBank accumulates frames into channels keyed by channel ID,
// evicting on byte limit or timeout and yielding completed channels
// (spec.md §4.6.4). Pre-Holocene channels are read out in the order
// their channel ID was first seen; Holocene orders strictly by
// completion, which the upstream FrameQueue already guarantees by
// construction since it admits at most one channel's frames at a time.
type ChannelBank struct {
	cfg   *rollup.Config
	upper *FrameQueue

	channels map[optypes.ChannelID]*optypes.Channel
	order    []optypes.ChannelID

	l1Time    uint64
	l1Number  uint64
	totalSize uint64
}

func NewChannelBank(cfg *rollup.Config, upper *FrameQueue) *ChannelBank {
	return &ChannelBank{cfg: cfg, upper: upper, channels: make(map[optypes.ChannelID]*optypes.Channel)}
}

// SetOrigin tells the bank the current L1 origin, used for channel
// timeouts. The driver calls this once per L1 block before pulling
// channels derived from that block's frames.
func (b *ChannelBank) SetOrigin(number, time uint64) {
	b.l1Number = number
	b.l1Time = time
}

// NextChannel returns the next completed channel's raw bytes, or
// types.EOF if no channel is currently ready and more frames must be
// pulled from below.
func (b *ChannelBank) NextChannel() ([]byte, error) {
	for {
		b.pruneTimedOut()
		if ready, ok := b.popReady(); ok {
			return ready, nil
		}
		f, err := b.upper.NextFrame(b.l1Time)
		if err != nil {
			return nil, err
		}
		b.ingest(f)
	}
}

func (b *ChannelBank) ingest(f optypes.Frame) {
	ch, ok := b.channels[f.ChannelID]
	if !ok {
		ch = optypes.NewChannel(f.ChannelID, b.l1Number)
		b.channels[f.ChannelID] = ch
		b.order = append(b.order, f.ChannelID)
	}
	prevSize := ch.Size()
	ch.AddFrame(f)
	b.totalSize += ch.Size() - prevSize
	b.evictOverflow()
}

func (b *ChannelBank) popReady() ([]byte, bool) {
	for _, id := range b.order {
		ch := b.channels[id]
		if ch.IsReady() {
			b.drop(id)
			return ch.Assemble(), true
		}
	}
	return nil, false
}

func (b *ChannelBank) pruneTimedOut() {
	timeout := b.cfg.ChannelTimeoutAt(b.l1Time)
	for _, id := range b.order {
		ch, ok := b.channels[id]
		if ok && ch.TimedOut(b.l1Number, timeout) {
			b.drop(id)
		}
	}
}

// evictOverflow drops the oldest channels once the bank's total size
// reaches its bound, mirroring the reference implementation's
// first-in-first-out pressure release.
func (b *ChannelBank) evictOverflow() {
	for b.totalSize >= maxChannelBankSize && len(b.order) > 0 {
		b.drop(b.order[0])
	}
}

func (b *ChannelBank) drop(id optypes.ChannelID) {
	ch, ok := b.channels[id]
	if !ok {
		return
	}
	b.totalSize -= ch.Size()
	delete(b.channels, id)
	for i, cur := range b.order {
		if cur == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
}
